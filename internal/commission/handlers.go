package commission

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
	case errors.Is(err, ErrPoolLocked):
		return response.Error(c, ErrPoolLocked.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, ErrOverAllocation):
		return response.Error(c, ErrOverAllocation.Error(), fiber.StatusBadRequest, nil)
	default:
		return escrows.RespondError(c, err)
	}
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	pool, err := h.Svc.Get(c.Context(), actor, escrowID)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Commission pool retrieved", pool, nil)
}

func (h *Handlers) Update(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	var in UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	pool, err := h.Svc.Update(c.Context(), actor, escrowID, in)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Commission pool updated", pool, nil)
}

func (h *Handlers) Lock(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrowID, err := escrows.ParseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	pool, err := h.Svc.Lock(c.Context(), actor, escrowID)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Commission pool locked", pool, nil)
}
