package kyc

import (
	"context"
	"time"

	"trustline-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Runner drives AML checks from PENDING through RUNNING to a terminal status
// in the background. The PENDING to RUNNING step is a conditional update, so
// each check is screened at most once even if enqueued twice.
type Runner struct {
	DB       *gorm.DB
	Screener Screener
}

func NewRunner(db *gorm.DB, screener Screener) *Runner {
	return &Runner{DB: db, Screener: screener}
}

// Enqueue starts the screening for checkID in a new goroutine. Callers return
// to the client immediately; completion is observed by polling the check.
func (r *Runner) Enqueue(checkID uuid.UUID) {
	go r.run(checkID)
}

func (r *Runner) run(checkID uuid.UUID) {
	ctx := context.Background()

	res := r.DB.WithContext(ctx).Model(&models.AMLCheck{}).
		Where("id = ? AND status = ?", checkID, models.AMLStatusPending).
		Update("status", models.AMLStatusRunning)
	if res.Error != nil {
		log.Error().Err(res.Error).Str("check_id", checkID.String()).Msg("failed to start AML check")
		return
	}
	if res.RowsAffected == 0 {
		return
	}

	var check models.AMLCheck
	if err := r.DB.WithContext(ctx).First(&check, "id = ?", checkID).Error; err != nil {
		log.Error().Err(err).Str("check_id", checkID.String()).Msg("failed to load AML check")
		return
	}
	var record models.KYCRecord
	if err := r.DB.WithContext(ctx).First(&record, "id = ?", check.RecordID).Error; err != nil {
		r.finish(ctx, checkID, models.AMLStatusError, nil, err.Error())
		return
	}

	payload, err := r.Screener.Screen(ctx, record.SubjectName, record.SubjectEmail)
	if err != nil {
		r.finish(ctx, checkID, models.AMLStatusError, nil, err.Error())
		return
	}
	r.finish(ctx, checkID, models.AMLStatusPass, payload, "")
}

func (r *Runner) finish(ctx context.Context, checkID uuid.UUID, status string, payload interface{}, notes string) {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       status,
		"completed_at": now,
	}
	if payload != nil {
		updates["result_payload"] = payload
	}
	if notes != "" {
		updates["notes"] = notes
	}
	err := r.DB.WithContext(ctx).Model(&models.AMLCheck{}).
		Where("id = ? AND status = ?", checkID, models.AMLStatusRunning).
		Updates(updates).Error
	if err != nil {
		log.Error().Err(err).Str("check_id", checkID.String()).Msg("failed to finish AML check")
	}
}
