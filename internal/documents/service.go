package documents

import (
	"context"
	"errors"
	"time"

	"trustline-backend/internal/escrows"
	"trustline-backend/internal/esign"
	"trustline-backend/internal/middleware"
	"trustline-backend/internal/models"
	"trustline-backend/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("Document not found")
	ErrNotUploaded = errors.New("Document has not been uploaded yet")
)

// Presigned upload and download URLs stay valid this long.
const urlExpiry = 15 * time.Minute

// CreateInput is the document metadata payload.
type CreateInput struct {
	Name         string `json:"name"`
	DocumentType string `json:"document_type"`
}

// PresignInput names the file the client is about to upload.
type PresignInput struct {
	FileName string `json:"file_name"`
}

// PresignResult is returned to the client for a direct PUT to object storage.
type PresignResult struct {
	UploadURL  string `json:"upload_url"`
	StorageKey string `json:"storage_key"`
}

// EnvelopeInput lists the signers for an e-signature request.
type EnvelopeInput struct {
	SignerEmails []string `json:"signer_emails"`
}

// Service manages document metadata, upload presigning and e-signature
// envelopes. File bytes never pass through the API.
type Service struct {
	DB      *gorm.DB
	Storage storage.Storage
	Sender  esign.EnvelopeSender
}

func NewService(db *gorm.DB, store storage.Storage, sender esign.EnvelopeSender) *Service {
	return &Service{DB: db, Storage: store, Sender: sender}
}

// List returns the escrow's documents, optionally filtered by status.
func (s *Service) List(ctx context.Context, actor middleware.Actor, escrowID uuid.UUID, status string) ([]models.Document, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Where("escrow_id = ?", e.ID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var docs []models.Document
	if err := q.Order("uploaded_at ASC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// Create registers document metadata in PENDING_UPLOAD with a generated
// storage key. The actual bytes arrive later through a presigned URL.
func (s *Service) Create(ctx context.Context, actor middleware.Actor, escrowID uuid.UUID, in CreateInput) (*models.Document, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}

	errs := map[string][]string{}
	if in.Name == "" {
		errs["name"] = append(errs["name"], "This field is required.")
	}
	if in.DocumentType == "" {
		errs["document_type"] = append(errs["document_type"], "This field is required.")
	}
	if len(errs) > 0 {
		return nil, &escrows.ValidationError{Fields: errs}
	}

	doc := models.Document{
		EscrowID:     e.ID,
		Name:         in.Name,
		DocumentType: in.DocumentType,
		StorageKey:   "uploads/" + uuid.NewString(),
		Status:       models.DocumentStatusPendingUpload,
	}
	if uid, err := uuid.Parse(actor.UserID); err == nil {
		doc.UploadedByID = &uid
	}
	if err := s.DB.WithContext(ctx).Create(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Service) get(ctx context.Context, actor middleware.Actor, escrowID, docID uuid.UUID) (*models.Document, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}
	var doc models.Document
	if err := s.DB.WithContext(ctx).First(&doc, "id = ? AND escrow_id = ?", docID, e.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// Get returns one document on the escrow.
func (s *Service) Get(ctx context.Context, actor middleware.Actor, escrowID, docID uuid.UUID) (*models.Document, error) {
	return s.get(ctx, actor, escrowID, docID)
}

// Presign issues an upload URL for the named file and rebinds the document's
// storage key to it.
func (s *Service) Presign(ctx context.Context, actor middleware.Actor, escrowID, docID uuid.UUID, in PresignInput) (*PresignResult, error) {
	doc, err := s.get(ctx, actor, escrowID, docID)
	if err != nil {
		return nil, err
	}
	if in.FileName == "" {
		return nil, &escrows.ValidationError{Fields: map[string][]string{
			"file_name": {"This field is required."},
		}}
	}

	key := "uploads/" + uuid.NewString() + "-" + in.FileName
	uploadURL, err := s.Storage.PresignPut(ctx, key, urlExpiry)
	if err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", doc.ID).
		Update("storage_key", key).Error
	if err != nil {
		return nil, err
	}
	return &PresignResult{UploadURL: uploadURL, StorageKey: key}, nil
}

// MarkUploaded records that the client finished its direct upload and stores
// a download URL for reviewers.
func (s *Service) MarkUploaded(ctx context.Context, actor middleware.Actor, escrowID, docID uuid.UUID) (*models.Document, error) {
	doc, err := s.get(ctx, actor, escrowID, docID)
	if err != nil {
		return nil, err
	}
	downloadURL, err := s.Storage.PresignGet(ctx, doc.StorageKey, urlExpiry)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"status":      models.DocumentStatusUploaded,
		"storage_url": downloadURL,
	}
	if err := s.DB.WithContext(ctx).Model(doc).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.get(ctx, actor, escrowID, docID)
}

// TriggerEnvelope asks the e-signature provider for an envelope over the
// uploaded document and records its id and status.
func (s *Service) TriggerEnvelope(ctx context.Context, actor middleware.Actor, escrowID, docID uuid.UUID, in EnvelopeInput) (*models.Document, error) {
	doc, err := s.get(ctx, actor, escrowID, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status == models.DocumentStatusPendingUpload {
		return nil, ErrNotUploaded
	}
	env, err := s.Sender.Send(ctx, doc.Name, doc.StorageKey, in.SignerEmails)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"envelope_id":     env.ID,
		"envelope_status": env.Status,
	}
	if err := s.DB.WithContext(ctx).Model(doc).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.get(ctx, actor, escrowID, docID)
}

// Delete removes the document metadata. The stored object is left to bucket
// lifecycle rules.
func (s *Service) Delete(ctx context.Context, actor middleware.Actor, escrowID, docID uuid.UUID) error {
	doc, err := s.get(ctx, actor, escrowID, docID)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Delete(doc).Error
}

// Review sets a reviewed status on any document by id. Reached only through
// the officer review route; escrow participation is not required.
func (s *Service) Review(ctx context.Context, docID uuid.UUID, status string) (*models.Document, error) {
	if !models.ValidDocumentStatus(status) {
		return nil, &escrows.ValidationError{Fields: map[string][]string{
			"status": {"Invalid document status"},
		}}
	}
	var doc models.Document
	if err := s.DB.WithContext(ctx).First(&doc, "id = ?", docID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&doc).Update("status", status).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}
