package auth

import (
	"trustline-backend/internal/middleware"
	"trustline-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles auth handlers.
type Handlers struct {
	Finder UserFinder
	Tokens *TokenStore
}

type loginResponse struct {
	Token string           `json:"token"`
	User  middleware.Actor `json:"user"`
}

// Login POST /api/v1/auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	user, err := h.Finder.FindByEmailAndPassword(input.Email, input.Password)
	if err != nil {
		switch err {
		case ErrEmailPasswordRequired:
			return response.Error(c, err.Error(), 400, nil)
		case ErrInvalidEmail, ErrIncorrectPassword:
			return response.Error(c, err.Error(), 401, nil)
		default:
			return response.Error(c, "Internal Server Error", 500, nil)
		}
	}

	actor := middleware.Actor{
		UserID:   user.UserID.String(),
		Fullname: user.Fullname,
		Email:    user.Email,
		Role:     user.Role,
	}
	token, err := h.Tokens.Issue(c.Context(), actor)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}

	return response.Success(c, "Login successful", loginResponse{Token: token, User: actor}, nil)
}

// Me GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, ErrNotAuthenticated.Error())
	}
	return response.Success(c, "Authenticated", actor, nil)
}

// Logout DELETE /api/v1/auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	token := middleware.GetToken(c)
	if token == "" {
		return response.Unauthorized(c, ErrNotAuthenticated.Error())
	}
	if err := h.Tokens.Revoke(c.Context(), token); err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Logged out", nil, nil)
}
