package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trustline-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthApp(t *testing.T, db *gorm.DB) (*fiber.App, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(middleware.Authenticate(rdb))

	h := &Handlers{
		Finder: &GormUserFinder{DB: db},
		Tokens: &TokenStore{Rdb: rdb, TTL: time.Hour},
	}
	g := app.Group("/api/v1/auth")
	g.Post("/login", h.Login)
	g.Get("/me", h.Me)
	g.Delete("/logout", h.Logout)
	return app, rdb
}

func request(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func loginToken(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp := request(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["data"].(map[string]interface{})["token"].(string)
}

func TestLogin_IssuesToken(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "maria@example.com", "Sup3r-secret")
	app, _ := newAuthApp(t, db)

	token := loginToken(t, app, "maria@example.com", "Sup3r-secret")
	assert.NotEmpty(t, token)

	resp := request(t, app, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "maria@example.com", body["data"].(map[string]interface{})["email"])
}

func TestLogin_WrongPassword401(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "maria@example.com", "Sup3r-secret")
	app, _ := newAuthApp(t, db)

	resp := request(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    "maria@example.com",
		"password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_WithoutToken401(t *testing.T) {
	db := newTestDB(t)
	app, _ := newAuthApp(t, db)

	resp := request(t, app, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_RevokesToken(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "maria@example.com", "Sup3r-secret")
	app, _ := newAuthApp(t, db)

	token := loginToken(t, app, "maria@example.com", "Sup3r-secret")
	resp := request(t, app, http.MethodDelete, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, app, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
