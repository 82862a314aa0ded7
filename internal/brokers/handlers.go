package brokers

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
	case errors.Is(err, ErrNotFound):
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, ErrDuplicateInvitation):
		return response.Error(c, ErrDuplicateInvitation.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, ErrAlreadyAccepted):
		return response.Error(c, ErrAlreadyAccepted.Error(), fiber.StatusBadRequest, nil)
	default:
		return escrows.RespondError(c, err)
	}
}

func (h *Handlers) List(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	reps, err := h.Svc.List(c.Context(), actor, escrowID, c.Query("status"), c.Query("invited_as"))
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Broker representations retrieved", reps, map[string]interface{}{"count": len(reps)})
}

func (h *Handlers) Invite(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	var in InviteInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	rep, err := h.Svc.Invite(c.Context(), actor, escrowID, in)
	if err != nil {
		return respondErr(c, err)
	}
	return response.SuccessCreated(c, "Broker invited", rep, nil)
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	repID, err := escrows.ParseID(c, "brokerId")
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	rep, err := h.Svc.Get(c.Context(), actor, escrowID, repID)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Broker representation retrieved", rep, nil)
}

func (h *Handlers) Respond(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	repID, err := escrows.ParseID(c, "brokerId")
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	var in RespondInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	rep, err := h.Svc.Respond(c.Context(), actor, escrowID, repID, in)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Invitation response recorded", rep, nil)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	repID, err := escrows.ParseID(c, "brokerId")
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	if err := h.Svc.Delete(c.Context(), actor, escrowID, repID); err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Broker representation removed", nil, nil)
}
