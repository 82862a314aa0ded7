package kyc

import (
	"errors"

	"trustline-backend/internal/escrows"
	"trustline-backend/internal/middleware"
	"trustline-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Svc *Service
}

func NewHandlers(svc *Service) *Handlers {
	return &Handlers{Svc: svc}
}

func respondErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return response.Error(c, ErrRecordNotFound.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, ErrCheckNotFound):
		return response.Error(c, ErrCheckNotFound.Error(), fiber.StatusNotFound, nil)
	default:
		return escrows.RespondError(c, err)
	}
}

func (h *Handlers) ListRecords(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	records, err := h.Svc.ListRecords(c.Context(), actor, escrowID)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "KYC records retrieved", records, map[string]interface{}{"count": len(records)})
}

func (h *Handlers) CreateRecord(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	var in RecordInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	record, err := h.Svc.CreateRecord(c.Context(), actor, escrowID, in)
	if err != nil {
		return respondErr(c, err)
	}
	return response.SuccessCreated(c, "KYC record created", record, nil)
}

func (h *Handlers) GetRecord(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	recordID, err := escrows.ParseID(c, "recordId")
	if err != nil {
		return response.Error(c, ErrRecordNotFound.Error(), fiber.StatusNotFound, nil)
	}
	record, err := h.Svc.GetRecord(c.Context(), actor, escrowID, recordID)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "KYC record retrieved", record, nil)
}

func (h *Handlers) UpdateRecord(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	recordID, err := escrows.ParseID(c, "recordId")
	if err != nil {
		return response.Error(c, ErrRecordNotFound.Error(), fiber.StatusNotFound, nil)
	}
	var in RecordInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	record, err := h.Svc.UpdateRecord(c.Context(), actor, escrowID, recordID, in)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "KYC record updated", record, nil)
}

func (h *Handlers) DeleteRecord(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	recordID, err := escrows.ParseID(c, "recordId")
	if err != nil {
		return response.Error(c, ErrRecordNotFound.Error(), fiber.StatusNotFound, nil)
	}
	if err := h.Svc.DeleteRecord(c.Context(), actor, escrowID, recordID); err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "KYC record deleted", nil, nil)
}

func (h *Handlers) ListChecks(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	recordID, err := escrows.ParseID(c, "recordId")
	if err != nil {
		return response.Error(c, ErrRecordNotFound.Error(), fiber.StatusNotFound, nil)
	}
	checks, err := h.Svc.ListChecks(c.Context(), actor, escrowID, recordID)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "AML checks retrieved", checks, map[string]interface{}{"count": len(checks)})
}

func (h *Handlers) CreateCheck(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	recordID, err := escrows.ParseID(c, "recordId")
	if err != nil {
		return response.Error(c, ErrRecordNotFound.Error(), fiber.StatusNotFound, nil)
	}
	var in CheckInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	check, err := h.Svc.CreateCheck(c.Context(), actor, escrowID, recordID, in)
	if err != nil {
		return respondErr(c, err)
	}
	return response.SuccessAccepted(c, "AML check queued", check, nil)
}

func (h *Handlers) RunAML(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	recordID, err := escrows.ParseID(c, "recordId")
	if err != nil {
		return response.Error(c, ErrRecordNotFound.Error(), fiber.StatusNotFound, nil)
	}
	check, err := h.Svc.RunAML(c.Context(), actor, escrowID, recordID)
	if err != nil {
		return respondErr(c, err)
	}
	return response.SuccessAccepted(c, "AML screening started", check, nil)
}
