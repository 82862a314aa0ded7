package parties

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
	if errors.Is(err, ErrNotFound) {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	return escrows.RespondError(c, err)
}

func (h *Handlers) List(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	parties, err := h.Svc.List(c.Context(), actor, escrowID, c.Query("role"))
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Parties retrieved", parties, map[string]interface{}{"count": len(parties)})
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Svc.Create(c.Context(), actor, escrowID, in)
	if err != nil {
		return respondErr(c, err)
	}
	return response.SuccessCreated(c, "Party added", p, nil)
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	partyID, err := escrows.ParseID(c, "partyId")
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	p, err := h.Svc.Get(c.Context(), actor, escrowID, partyID)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Party retrieved", p, nil)
}

func (h *Handlers) Update(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	partyID, err := escrows.ParseID(c, "partyId")
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Svc.Update(c.Context(), actor, escrowID, partyID, in)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Party updated", p, nil)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	partyID, err := escrows.ParseID(c, "partyId")
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	if err := h.Svc.Delete(c.Context(), actor, escrowID, partyID); err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Party removed", nil, nil)
}
