package documents

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
	case errors.Is(err, ErrNotUploaded):
		return response.Error(c, ErrNotUploaded.Error(), fiber.StatusBadRequest, nil)
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
	docs, err := h.Svc.List(c.Context(), actor, escrowID, c.Query("status"))
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Documents retrieved", docs, map[string]interface{}{"count": len(docs)})
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	var in CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	doc, err := h.Svc.Create(c.Context(), actor, escrowID, in)
	if err != nil {
		return respondErr(c, err)
	}
	return response.SuccessCreated(c, "Document registered", doc, nil)
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	docID, err := escrows.ParseID(c, "documentId")
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	doc, err := h.Svc.Get(c.Context(), actor, escrowID, docID)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Document retrieved", doc, nil)
}

func (h *Handlers) Presign(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	docID, err := escrows.ParseID(c, "documentId")
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	var in PresignInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	result, err := h.Svc.Presign(c.Context(), actor, escrowID, docID, in)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Upload URL issued", result, nil)
}

func (h *Handlers) MarkUploaded(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	docID, err := escrows.ParseID(c, "documentId")
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	doc, err := h.Svc.MarkUploaded(c.Context(), actor, escrowID, docID)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Document marked uploaded", doc, nil)
}

func (h *Handlers) TriggerEnvelope(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	docID, err := escrows.ParseID(c, "documentId")
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	var in EnvelopeInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	doc, err := h.Svc.TriggerEnvelope(c.Context(), actor, escrowID, docID, in)
	if err != nil {
		return respondErr(c, err)
	}
	return response.SuccessAccepted(c, "Signature envelope requested", doc, nil)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	docID, err := escrows.ParseID(c, "documentId")
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	if err := h.Svc.Delete(c.Context(), actor, escrowID, docID); err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Document deleted", nil, nil)
}

// Review is the officer route for approving or rejecting any document.
// Role enforcement happens in the permission middleware on the route.
func (h *Handlers) Review(c *fiber.Ctx) error {
	docID, err := escrows.ParseID(c, "id")
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	doc, err := h.Svc.Review(c.Context(), docID, in.Status)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Document status updated", doc, nil)
}
