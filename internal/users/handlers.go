package users

import (
	"errors"

	"trustline-backend/internal/escrows"
	"trustline-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Svc *Service
}

func NewHandlers(svc *Service) *Handlers {
	return &Handlers{Svc: svc}
}

func respondErr(c *fiber.Ctx, err error) error {
	if ve, ok := escrows.AsValidationError(err); ok {
		return response.ValidationFailed(c, ve.Fields)
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, ErrEmailTaken):
		return response.Error(c, ErrEmailTaken.Error(), fiber.StatusConflict, nil)
	default:
		return response.Error(c, "Internal server error", fiber.StatusInternalServerError, nil)
	}
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	var in CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	user, err := h.Svc.Create(c.Context(), in)
	if err != nil {
		return respondErr(c, err)
	}
	return response.SuccessCreated(c, "User created", user, nil)
}

func (h *Handlers) List(c *fiber.Ctx) error {
	users, err := h.Svc.List(c.Context())
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Users retrieved", users, map[string]interface{}{"count": len(users)})
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	user, err := h.Svc.Get(c.Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "User retrieved", user, nil)
}

func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, ErrNotFound.Error(), fiber.StatusNotFound, nil)
	}
	var in struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	user, err := h.Svc.UpdateRole(c.Context(), id, in.Role)
	if err != nil {
		return respondErr(c, err)
	}
	return response.Success(c, "Role updated", user, nil)
}
