package kyc

import (
	"context"
	"errors"
	"time"

	"trustline-backend/internal/constants"
	"trustline-backend/internal/escrows"
	"trustline-backend/internal/middleware"
	"trustline-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrRecordNotFound = errors.New("KYC record not found")
	ErrCheckNotFound  = errors.New("AML check not found")
)

// RecordInput is the KYC record create/update payload.
type RecordInput struct {
	SubjectName     *string           `json:"subject_name"`
	SubjectEmail    *string           `json:"subject_email"`
	Status          *string           `json:"status"`
	AssignedOfficer *uuid.UUID        `json:"assigned_officer"`
	Checklist       datatypes.JSONMap `json:"checklist"`
}

// CheckInput is the manual AML check creation payload.
type CheckInput struct {
	Provider string `json:"provider"`
	Notes    string `json:"notes"`
}

// Service manages KYC records and their AML checks. Participants may read
// everything on their escrows; every write requires an admin or officer.
type Service struct {
	DB     *gorm.DB
	Runner *Runner
}

func NewService(db *gorm.DB, runner *Runner) *Service {
	return &Service{DB: db, Runner: runner}
}

func seedChecklist() datatypes.JSONMap {
	return datatypes.JSONMap{
		"document_verification": false,
		"identity_verified":     false,
		"ofac_screen":           false,
	}
}

func requireOfficer(actor middleware.Actor) error {
	if !constants.IsOfficer(actor.Role) {
		return escrows.ErrForbidden
	}
	return nil
}

// ListRecords returns the escrow's KYC records.
func (s *Service) ListRecords(ctx context.Context, actor middleware.Actor, escrowID uuid.UUID) ([]models.KYCRecord, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}
	var records []models.KYCRecord
	err = s.DB.WithContext(ctx).
		Preload("AMLChecks").
		Where("escrow_id = ?", e.ID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CreateRecord opens a KYC record for one subject, seeding the verification
// checklist with every item unchecked.
func (s *Service) CreateRecord(ctx context.Context, actor middleware.Actor, escrowID uuid.UUID, in RecordInput) (*models.KYCRecord, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}
	if err := requireOfficer(actor); err != nil {
		return nil, err
	}
	if in.SubjectName == nil || *in.SubjectName == "" {
		return nil, &escrows.ValidationError{Fields: map[string][]string{
			"subject_name": {"This field is required."},
		}}
	}

	record := models.KYCRecord{
		EscrowID:    e.ID,
		SubjectName: *in.SubjectName,
		Status:      models.KYCStatusStarted,
		Checklist:   seedChecklist(),
	}
	if in.SubjectEmail != nil {
		record.SubjectEmail = *in.SubjectEmail
	}
	if in.AssignedOfficer != nil {
		record.AssignedOfficerID = in.AssignedOfficer
	}
	if err := s.DB.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) getRecord(ctx context.Context, actor middleware.Actor, escrowID, recordID uuid.UUID) (*models.KYCRecord, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}
	var record models.KYCRecord
	err = s.DB.WithContext(ctx).
		Preload("AMLChecks").
		First(&record, "id = ? AND escrow_id = ?", recordID, e.ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetRecord returns one KYC record with its AML checks.
func (s *Service) GetRecord(ctx context.Context, actor middleware.Actor, escrowID, recordID uuid.UUID) (*models.KYCRecord, error) {
	return s.getRecord(ctx, actor, escrowID, recordID)
}

// UpdateRecord applies a partial payload. Checklist keys are merged into the
// stored map, never replacing it wholesale, and moving the record to APPROVED
// stamps approved_at into the checklist.
func (s *Service) UpdateRecord(ctx context.Context, actor middleware.Actor, escrowID, recordID uuid.UUID, in RecordInput) (*models.KYCRecord, error) {
	record, err := s.getRecord(ctx, actor, escrowID, recordID)
	if err != nil {
		return nil, err
	}
	if err := requireOfficer(actor); err != nil {
		return nil, err
	}

	if in.Status != nil && !models.ValidKYCStatus(*in.Status) {
		return nil, &escrows.ValidationError{Fields: map[string][]string{
			"status": {"Invalid KYC status"},
		}}
	}

	if in.SubjectName != nil {
		record.SubjectName = *in.SubjectName
	}
	if in.SubjectEmail != nil {
		record.SubjectEmail = *in.SubjectEmail
	}
	if in.AssignedOfficer != nil {
		record.AssignedOfficerID = in.AssignedOfficer
	}
	if record.Checklist == nil {
		record.Checklist = seedChecklist()
	}
	for k, v := range in.Checklist {
		record.Checklist[k] = v
	}
	if in.Status != nil {
		record.Status = *in.Status
		if record.Status == models.KYCStatusApproved {
			record.Checklist["approved_at"] = time.Now().UTC().Format(time.RFC3339)
		}
	}

	if err := s.DB.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteRecord removes the record and its AML checks.
func (s *Service) DeleteRecord(ctx context.Context, actor middleware.Actor, escrowID, recordID uuid.UUID) error {
	record, err := s.getRecord(ctx, actor, escrowID, recordID)
	if err != nil {
		return err
	}
	if err := requireOfficer(actor); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("record_id = ?", record.ID).Delete(&models.AMLCheck{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.KYCRecord{}, "id = ?", record.ID).Error
	})
}

// ListChecks returns the record's AML checks, newest first.
func (s *Service) ListChecks(ctx context.Context, actor middleware.Actor, escrowID, recordID uuid.UUID) ([]models.AMLCheck, error) {
	record, err := s.getRecord(ctx, actor, escrowID, recordID)
	if err != nil {
		return nil, err
	}
	var checks []models.AMLCheck
	err = s.DB.WithContext(ctx).
		Where("record_id = ?", record.ID).
		Order("requested_at DESC").
		Find(&checks).Error
	if err != nil {
		return nil, err
	}
	return checks, nil
}

// CreateCheck records an AML check with an explicit provider and enqueues it.
func (s *Service) CreateCheck(ctx context.Context, actor middleware.Actor, escrowID, recordID uuid.UUID, in CheckInput) (*models.AMLCheck, error) {
	if in.Provider == "" {
		in.Provider = models.AMLProviderInternal
	}
	if !models.ValidAMLProvider(in.Provider) {
		return nil, &escrows.ValidationError{Fields: map[string][]string{
			"provider": {"Invalid AML provider"},
		}}
	}
	return s.startCheck(ctx, actor, escrowID, recordID, in.Provider, in.Notes)
}

// RunAML enqueues a screening against the internal provider. The check is
// created PENDING and returned immediately; the runner finishes it in the
// background.
func (s *Service) RunAML(ctx context.Context, actor middleware.Actor, escrowID, recordID uuid.UUID) (*models.AMLCheck, error) {
	return s.startCheck(ctx, actor, escrowID, recordID, models.AMLProviderInternal, "")
}

func (s *Service) startCheck(ctx context.Context, actor middleware.Actor, escrowID, recordID uuid.UUID, provider, notes string) (*models.AMLCheck, error) {
	record, err := s.getRecord(ctx, actor, escrowID, recordID)
	if err != nil {
		return nil, err
	}
	if err := requireOfficer(actor); err != nil {
		return nil, err
	}

	check := models.AMLCheck{
		RecordID: record.ID,
		Provider: provider,
		Status:   models.AMLStatusPending,
		Notes:    notes,
	}
	if uid, err := uuid.Parse(actor.UserID); err == nil {
		check.RequestedByID = &uid
	}
	if err := s.DB.WithContext(ctx).Create(&check).Error; err != nil {
		return nil, err
	}
	s.Runner.Enqueue(check.ID)
	return &check, nil
}
