package kyc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trustline-backend/internal/constants"
	"trustline-backend/internal/database"
	"trustline-backend/internal/middleware"
	"trustline-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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
	return u, middleware.Actor{UserID: u.UserID.String(), Fullname: u.Fullname, Email: u.Email, Role: u.Role}
}

func seedEscrow(t *testing.T, db *gorm.DB, creator models.User) models.Escrow {
	t.Helper()
	value := decimal.NewFromInt(250000)
	scope := "Structural review"
	days := 30
	deadline := "2026-11-01"
	fee := decimal.NewFromInt(1500)
	e := models.Escrow{
		Name:                 "Casa Roble closing",
		ParticipantRole:      models.PartyRoleSeller,
		Currency:             models.CurrencyUSD,
		TransactionType:      models.TransactionDueDiligence,
		PropertyType:         models.PropertyHouse,
		PropertyValue:        &value,
		ClosingDate:          "2026-12-01",
		PropertyAddress:      "12 Roble St, Monterrey",
		DueDiligenceScope:    &scope,
		DueDiligenceDays:     &days,
		DueDiligenceDeadline: &deadline,
		DueDiligenceFee:      &fee,
		Status:               models.EscrowStatusDraft,
		CreatedByID:          creator.UserID,
	}
	require.NoError(t, db.Create(&e).Error)
	return e
}

func newApp(db *gorm.DB, actor middleware.Actor, delay time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", actor)
		return c.Next()
	})
	runner := NewRunner(db, SimulatedScreener{Delay: delay})
	h := NewHandlers(NewService(db, runner))
	g := app.Group("/api/v1/escrows", middleware.RequireAuth())
	g.Get("/:id/kyc", h.ListRecords)
	g.Post("/:id/kyc", h.CreateRecord)
	g.Get("/:id/kyc/:recordId", h.GetRecord)
	g.Patch("/:id/kyc/:recordId", h.UpdateRecord)
	g.Delete("/:id/kyc/:recordId", h.DeleteRecord)
	g.Get("/:id/kyc/:recordId/aml-checks", h.ListChecks)
	g.Post("/:id/kyc/:recordId/aml-checks", h.CreateCheck)
	g.Post("/:id/kyc/:recordId/run-aml", h.RunAML)
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

func TestCreateRecord_SeedsChecklist(t *testing.T) {
	db := newTestDB(t)
	creator, _ := createUser(t, db, constants.Agent)
	_, officer := createUser(t, db, constants.Officer)
	e := seedEscrow(t, db, creator)
	app := newApp(db, officer, time.Millisecond)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/escrows/"+e.ID.String()+"/kyc", fiber.Map{
		"subject_name":  "Maria Lopez",
		"subject_email": "maria@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode(t, resp)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, models.KYCStatusStarted, data["status"])
	checklist := data["checklist"].(map[string]interface{})
	assert.Equal(t, false, checklist["document_verification"])
	assert.Equal(t, false, checklist["identity_verified"])
	assert.Equal(t, false, checklist["ofac_screen"])
}

func TestCreateRecord_AgentForbidden(t *testing.T) {
	db := newTestDB(t)
	creator, agent := createUser(t, db, constants.Agent)
	e := seedEscrow(t, db, creator)
	app := newApp(db, agent, time.Millisecond)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/escrows/"+e.ID.String()+"/kyc", fiber.Map{
		"subject_name": "Maria Lopez",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestListRecords_ParticipantCanRead(t *testing.T) {
	db := newTestDB(t)
	creator, agent := createUser(t, db, constants.Agent)
	e := seedEscrow(t, db, creator)
	require.NoError(t, db.Create(&models.KYCRecord{
		EscrowID: e.ID, SubjectName: "Maria", Status: models.KYCStatusStarted, Checklist: seedChecklist(),
	}).Error)
	app := newApp(db, agent, time.Millisecond)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/escrows/"+e.ID.String()+"/kyc", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Len(t, body["data"].([]interface{}), 1)
}

func TestUpdateRecord_ApprovedStampsChecklist(t *testing.T) {
	db := newTestDB(t)
	creator, _ := createUser(t, db, constants.Agent)
	_, officer := createUser(t, db, constants.Officer)
	e := seedEscrow(t, db, creator)
	record := models.KYCRecord{
		EscrowID: e.ID, SubjectName: "Maria", Status: models.KYCStatusPendingReview, Checklist: seedChecklist(),
	}
	require.NoError(t, db.Create(&record).Error)
	app := newApp(db, officer, time.Millisecond)

	resp := doJSON(t, app, http.MethodPatch,
		"/api/v1/escrows/"+e.ID.String()+"/kyc/"+record.ID.String(),
		fiber.Map{
			"status":    "APPROVED",
			"checklist": fiber.Map{"identity_verified": true},
		})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.KYCRecord
	require.NoError(t, db.First(&got, "id = ?", record.ID).Error)
	assert.Equal(t, models.KYCStatusApproved, got.Status)
	assert.Equal(t, true, got.Checklist["identity_verified"])
	assert.Equal(t, false, got.Checklist["document_verification"])
	stamp, ok := got.Checklist["approved_at"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, stamp)
	assert.NoError(t, err)
}

func TestUpdateRecord_InvalidStatus(t *testing.T) {
	db := newTestDB(t)
	creator, _ := createUser(t, db, constants.Agent)
	_, officer := createUser(t, db, constants.Officer)
	e := seedEscrow(t, db, creator)
	record := models.KYCRecord{EscrowID: e.ID, SubjectName: "Maria", Status: models.KYCStatusStarted, Checklist: seedChecklist()}
	require.NoError(t, db.Create(&record).Error)
	app := newApp(db, officer, time.Millisecond)

	resp := doJSON(t, app, http.MethodPatch,
		"/api/v1/escrows/"+e.ID.String()+"/kyc/"+record.ID.String(),
		fiber.Map{"status": "MAYBE"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunAML_CompletesInBackground(t *testing.T) {
	db := newTestDB(t)
	creator, _ := createUser(t, db, constants.Agent)
	_, officer := createUser(t, db, constants.Officer)
	e := seedEscrow(t, db, creator)
	record := models.KYCRecord{EscrowID: e.ID, SubjectName: "Maria", Status: models.KYCStatusStarted, Checklist: seedChecklist()}
	require.NoError(t, db.Create(&record).Error)
	app := newApp(db, officer, 10*time.Millisecond)

	resp := doJSON(t, app, http.MethodPost,
		"/api/v1/escrows/"+e.ID.String()+"/kyc/"+record.ID.String()+"/run-aml", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	body := decode(t, resp)
	data := body["data"].(map[string]interface{})
	checkID, err := uuid.Parse(data["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, models.AMLStatusPending, data["status"])

	require.Eventually(t, func() bool {
		var check models.AMLCheck
		if err := db.First(&check, "id = ?", checkID).Error; err != nil {
			return false
		}
		return check.Status == models.AMLStatusPass
	}, 3*time.Second, 20*time.Millisecond)

	var check models.AMLCheck
	require.NoError(t, db.First(&check, "id = ?", checkID).Error)
	assert.NotNil(t, check.CompletedAt)
	assert.Equal(t, "clear", check.ResultPayload["ofac_screen"])
	assert.Equal(t, "clear", check.ResultPayload["pep_screen"])
}

func TestRunAML_AgentForbidden(t *testing.T) {
	db := newTestDB(t)
	creator, agent := createUser(t, db, constants.Agent)
	e := seedEscrow(t, db, creator)
	record := models.KYCRecord{EscrowID: e.ID, SubjectName: "Maria", Status: models.KYCStatusStarted, Checklist: seedChecklist()}
	require.NoError(t, db.Create(&record).Error)
	app := newApp(db, agent, time.Millisecond)

	resp := doJSON(t, app, http.MethodPost,
		"/api/v1/escrows/"+e.ID.String()+"/kyc/"+record.ID.String()+"/run-aml", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateCheck_InvalidProvider(t *testing.T) {
	db := newTestDB(t)
	creator, _ := createUser(t, db, constants.Agent)
	_, officer := createUser(t, db, constants.Officer)
	e := seedEscrow(t, db, creator)
	record := models.KYCRecord{EscrowID: e.ID, SubjectName: "Maria", Status: models.KYCStatusStarted, Checklist: seedChecklist()}
	require.NoError(t, db.Create(&record).Error)
	app := newApp(db, officer, time.Millisecond)

	resp := doJSON(t, app, http.MethodPost,
		"/api/v1/escrows/"+e.ID.String()+"/kyc/"+record.ID.String()+"/aml-checks",
		fiber.Map{"provider": "PSYCHIC"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunner_ScreensOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	creator, _ := createUser(t, db, constants.Agent)
	e := seedEscrow(t, db, creator)
	record := models.KYCRecord{EscrowID: e.ID, SubjectName: "Maria", Status: models.KYCStatusStarted, Checklist: seedChecklist()}
	require.NoError(t, db.Create(&record).Error)
	check := models.AMLCheck{RecordID: record.ID, Provider: models.AMLProviderInternal, Status: models.AMLStatusPending}
	require.NoError(t, db.Create(&check).Error)

	runner := NewRunner(db, SimulatedScreener{Delay: time.Millisecond})
	runner.Enqueue(check.ID)
	runner.Enqueue(check.ID)

	require.Eventually(t, func() bool {
		var got models.AMLCheck
		if err := db.First(&got, "id = ?", check.ID).Error; err != nil {
			return false
		}
		return got.Status == models.AMLStatusPass
	}, 3*time.Second, 10*time.Millisecond)

	var count int64
	require.NoError(t, db.Model(&models.AMLCheck{}).Where("record_id = ?", record.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
