package escrows

import (
	"errors"

	"trustline-backend/internal/constants"
	"trustline-backend/internal/middleware"
	"trustline-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// isParticipant reports whether the actor created the escrow or holds a broker
// representation on it, matched by bound user id or by invited email.
func isParticipant(db *gorm.DB, e *models.Escrow, actor middleware.Actor) (bool, error) {
	if e.CreatedByID.String() == actor.UserID {
		return true, nil
	}
	var count int64
	q := db.Model(&models.BrokerRepresentation{}).Where("escrow_id = ?", e.ID)
	if uid, err := uuid.Parse(actor.UserID); err == nil {
		q = q.Where("user_id = ? OR invited_email = ?", uid, actor.Email)
	} else {
		q = q.Where("invited_email = ?", actor.Email)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Authorize loads the escrow and verifies the actor may access it. Admins and
// officers see every escrow; everyone else must be a participant.
// Non-participants get ErrNotFound so escrow ids are not leaked.
func Authorize(db *gorm.DB, escrowID uuid.UUID, actor middleware.Actor) (*models.Escrow, error) {
	var e models.Escrow
	if err := db.First(&e, "id = ?", escrowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if constants.IsOfficer(actor.Role) {
		return &e, nil
	}
	ok, err := isParticipant(db, &e, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// scopeForActor narrows a query over escrows to those the actor participates
// in. Admins and officers are not narrowed.
func scopeForActor(db *gorm.DB, actor middleware.Actor) *gorm.DB {
	if constants.IsOfficer(actor.Role) {
		return db
	}
	sub := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.BrokerRepresentation{}).
		Select("escrow_id")
	if uid, err := uuid.Parse(actor.UserID); err == nil {
		sub = sub.Where("user_id = ? OR invited_email = ?", uid, actor.Email)
		return db.Where("created_by_id = ? OR id IN (?)", uid, sub)
	}
	sub = sub.Where("invited_email = ?", actor.Email)
	return db.Where("id IN (?)", sub)
}
