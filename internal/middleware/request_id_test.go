package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID_ReusesInboundHeader(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	var seen string
	app.Get("/", func(c *fiber.Ctx) error {
		seen = GetRequestID(c)
		return c.SendStatus(http.StatusOK)
	})

	inbound := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", inbound)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, inbound, seen)
	assert.Equal(t, inbound, resp.Header.Get("X-Request-Id"))
}

func TestRequestID_MintsWhenMissingOrInvalid(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "not-a-uuid")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	got := resp.Header.Get("X-Request-Id")
	_, err = uuid.Parse(got)
	assert.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", got)
}
