package escrows

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"trustline-backend/internal/constants"
	"trustline-backend/internal/database"
	"trustline-backend/internal/middleware"
	"trustline-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, role string) (models.User, middleware.Actor) {
	t.Helper()
	u := models.User{
		Fullname:     "Test User",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(&u).Error)
	return u, middleware.Actor{
		UserID:   u.UserID.String(),
		Fullname: u.Fullname,
		Email:    u.Email,
		Role:     u.Role,
	}
}

func newApp(db *gorm.DB, actor middleware.Actor) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", actor)
		return c.Next()
	})
	h := NewHandlers(NewService(db))
	g := app.Group("/api/v1/escrows", middleware.RequireAuth())
	g.Post("/", h.Create)
	g.Get("/", h.List)
	g.Get("/:id", h.Get)
	g.Patch("/:id", h.Update)
	g.Delete("/:id", h.Delete)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func validDueDiligencePayload() fiber.Map {
	return fiber.Map{
		"name":                   "Casa Roble closing",
		"participant_role":       "SELLER",
		"currency":               "USD",
		"transaction_type":       "DUE_DILIGENCE",
		"property_type":          "HOUSE",
		"property_value":         250000,
		"closing_date":           "2026-12-01",
		"property_address":       "12 Roble St, Monterrey",
		"due_diligence_scope":    "Structural and title review",
		"due_diligence_days":     30,
		"due_diligence_deadline": "2026-11-01",
		"due_diligence_fee":      1500,
	}
}

func validCommissionPayload() fiber.Map {
	return fiber.Map{
		"name":                    "Oficina Centro sale",
		"participant_role":        "BUYER",
		"currency":                "MXN",
		"transaction_type":        "COMMISSION",
		"property_type":           "OFFICE",
		"property_value":          1800000,
		"closing_date":            "2026-10-15",
		"property_address":        "Av. Juarez 200, CDMX",
		"commission_percentage":   5,
		"commission_payer":        "SELLER",
		"commission_payment_date": "2026-10-20",
		"broker_a_name":           "Alice Brokerage",
		"broker_a_percentage":     60,
		"broker_b_name":           "Bob Realty",
		"broker_b_percentage":     40,
	}
}

func escrowID(t *testing.T, resp *http.Response) uuid.UUID {
	t.Helper()
	body := decode(t, resp)
	data := body["data"].(map[string]interface{})
	id, err := uuid.Parse(data["id"].(string))
	require.NoError(t, err)
	return id
}

func TestCreateEscrow_SeedsPoolAndListingBroker(t *testing.T) {
	db := newTestDB(t)
	creator, actor := createUser(t, db, constants.Agent)
	app := newApp(db, actor)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/escrows/", validDueDiligencePayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := escrowID(t, resp)

	var pool models.CommissionPool
	require.NoError(t, db.First(&pool, "escrow_id = ?", id).Error)
	assert.True(t, pool.TotalAmount.IsZero())
	assert.False(t, pool.Locked)

	var rep models.BrokerRepresentation
	require.NoError(t, db.First(&rep, "escrow_id = ?", id).Error)
	assert.Equal(t, models.BrokerRoleListing, rep.InvitedAs)
	assert.Equal(t, models.BrokerStatusAccepted, rep.Status)
	require.NotNil(t, rep.UserID)
	assert.Equal(t, creator.UserID, *rep.UserID)
	assert.Equal(t, creator.Email, rep.InvitedEmail)
	assert.NotNil(t, rep.RespondedAt)

	var e models.Escrow
	require.NoError(t, db.First(&e, "id = ?", id).Error)
	assert.Equal(t, models.EscrowStatusDraft, e.Status)
}

func TestCreateEscrow_CollectsAllValidationErrors(t *testing.T) {
	db := newTestDB(t)
	_, actor := createUser(t, db, constants.Agent)
	app := newApp(db, actor)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/escrows/", fiber.Map{"name": "Incomplete"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp)
	details := body["error"].(map[string]interface{})["details"].(map[string]interface{})
	fields := details["fields"].(map[string]interface{})
	assert.Contains(t, fields, "currency")
	assert.Contains(t, fields, "transaction_type")
	assert.Contains(t, fields, "closing_date")
	assert.NotContains(t, fields, "name")
}

func TestCreateEscrow_TypeConditionalFields(t *testing.T) {
	db := newTestDB(t)
	_, actor := createUser(t, db, constants.Agent)
	app := newApp(db, actor)

	payload := validDueDiligencePayload()
	delete(payload, "due_diligence_fee")
	resp := doJSON(t, app, http.MethodPost, "/api/v1/escrows/", payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp)
	fields := body["error"].(map[string]interface{})["details"].(map[string]interface{})["fields"].(map[string]interface{})
	assert.Contains(t, fields, "due_diligence_fee")
	assert.NotContains(t, fields, "hidden_defects_description")
}

func TestCreateEscrow_BrokerPercentagesMustTotal100(t *testing.T) {
	db := newTestDB(t)
	_, actor := createUser(t, db, constants.Agent)
	app := newApp(db, actor)

	payload := validCommissionPayload()
	payload["broker_b_percentage"] = 50
	resp := doJSON(t, app, http.MethodPost, "/api/v1/escrows/", payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp)
	fields := body["error"].(map[string]interface{})["details"].(map[string]interface{})["fields"].(map[string]interface{})
	assert.Contains(t, fields, "broker_b_percentage")
}

func TestListEscrows_ScopedToParticipants(t *testing.T) {
	db := newTestDB(t)
	_, creator := createUser(t, db, constants.Agent)
	_, stranger := createUser(t, db, constants.Agent)
	_, officer := createUser(t, db, constants.Officer)

	creatorApp := newApp(db, creator)
	resp := doJSON(t, creatorApp, http.MethodPost, "/api/v1/escrows/", validDueDiligencePayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	list := decode(t, doJSON(t, creatorApp, http.MethodGet, "/api/v1/escrows/", nil))
	assert.Len(t, list["data"].([]interface{}), 1)

	strangerList := decode(t, doJSON(t, newApp(db, stranger), http.MethodGet, "/api/v1/escrows/", nil))
	assert.Len(t, strangerList["data"].([]interface{}), 0)

	officerList := decode(t, doJSON(t, newApp(db, officer), http.MethodGet, "/api/v1/escrows/", nil))
	assert.Len(t, officerList["data"].([]interface{}), 1)
}

func TestListEscrows_StatusFilter(t *testing.T) {
	db := newTestDB(t)
	_, actor := createUser(t, db, constants.Agent)
	app := newApp(db, actor)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/escrows/", validDueDiligencePayload())
	id := escrowID(t, resp)
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/escrows/"+id.String(), fiber.Map{"status": "ACTIVE"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doJSON(t, app, http.MethodPost, "/api/v1/escrows/", validDueDiligencePayload())

	active := decode(t, doJSON(t, app, http.MethodGet, "/api/v1/escrows/?status=ACTIVE", nil))
	assert.Len(t, active["data"].([]interface{}), 1)
	draft := decode(t, doJSON(t, app, http.MethodGet, "/api/v1/escrows/?status=DRAFT", nil))
	assert.Len(t, draft["data"].([]interface{}), 1)
}

func TestGetEscrow_NonParticipantGets404(t *testing.T) {
	db := newTestDB(t)
	_, creator := createUser(t, db, constants.Agent)
	_, stranger := createUser(t, db, constants.Agent)

	resp := doJSON(t, newApp(db, creator), http.MethodPost, "/api/v1/escrows/", validDueDiligencePayload())
	id := escrowID(t, resp)

	resp = doJSON(t, newApp(db, stranger), http.MethodGet, "/api/v1/escrows/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateEscrow_MergedStateIsValidated(t *testing.T) {
	db := newTestDB(t)
	_, actor := createUser(t, db, constants.Agent)
	app := newApp(db, actor)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/escrows/", validDueDiligencePayload())
	id := escrowID(t, resp)

	resp = doJSON(t, app, http.MethodPatch, "/api/v1/escrows/"+id.String(), fiber.Map{"currency": "EUR"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPatch, "/api/v1/escrows/"+id.String(), fiber.Map{"name": "Renamed deal"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Renamed deal", body["data"].(map[string]interface{})["name"])
}

func TestUpdateEscrow_CannotSetLockedDirectly(t *testing.T) {
	db := newTestDB(t)
	_, actor := createUser(t, db, constants.Agent)
	app := newApp(db, actor)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/escrows/", validDueDiligencePayload())
	id := escrowID(t, resp)

	resp = doJSON(t, app, http.MethodPatch, "/api/v1/escrows/"+id.String(), fiber.Map{"status": "LOCKED"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	fields := body["error"].(map[string]interface{})["details"].(map[string]interface{})["fields"].(map[string]interface{})
	assert.Contains(t, fields, "status")
}

func TestDeleteEscrow_RemovesDependents(t *testing.T) {
	db := newTestDB(t)
	_, actor := createUser(t, db, constants.Agent)
	app := newApp(db, actor)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/escrows/", validDueDiligencePayload())
	id := escrowID(t, resp)

	resp = doJSON(t, app, http.MethodDelete, "/api/v1/escrows/"+id.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.CommissionPool{}).Where("escrow_id = ?", id).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.BrokerRepresentation{}).Where("escrow_id = ?", id).Count(&count).Error)
	assert.Zero(t, count)
}
