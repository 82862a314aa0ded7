package escrows

import (
	"errors"

	"trustline-backend/internal/middleware"
	"trustline-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Svc *Service
}

func NewHandlers(svc *Service) *Handlers {
	return &Handlers{Svc: svc}
}

// RespondError maps escrow service errors to HTTP responses. Shared with the
// nested resource packages so authorization failures look identical everywhere.
func RespondError(c *fiber.Ctx, err error) error {
	if ve, ok := AsValidationError(err); ok {
		return response.ValidationFailed(c, ve.Fields)
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, ErrForbidden):
		return response.Error(c, ErrForbidden.Error(), fiber.StatusForbidden, nil)
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("escrow operation failed")
		return response.Error(c, "Internal server error", fiber.StatusInternalServerError, nil)
	}
}

// ParseID parses the :id route param as a uuid; an unparsable id behaves like
// a missing record.
func ParseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return id, nil
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	e, err := h.Svc.Create(c.Context(), actor, in)
	if err != nil {
		return RespondError(c, err)
	}
	return response.SuccessCreated(c, "Escrow created", e, nil)
}

func (h *Handlers) List(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	escrows, err := h.Svc.List(c.Context(), actor, c.Query("status"))
	if err != nil {
		return RespondError(c, err)
	}
	return response.Success(c, "Escrows retrieved", escrows, map[string]interface{}{"count": len(escrows)})
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, err)
	}
	e, err := h.Svc.Get(c.Context(), actor, id)
	if err != nil {
		return RespondError(c, err)
	}
	return response.Success(c, "Escrow retrieved", e, nil)
}

func (h *Handlers) Update(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, err)
	}
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	e, err := h.Svc.Update(c.Context(), actor, id, in)
	if err != nil {
		return RespondError(c, err)
	}
	return response.Success(c, "Escrow updated", e, nil)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	id, err := ParseID(c, "id")
	if err != nil {
		return RespondError(c, err)
	}
	if err := h.Svc.Delete(c.Context(), actor, id); err != nil {
		return RespondError(c, err)
	}
	return response.Success(c, "Escrow deleted", nil, nil)
}
