package esign

import (
	"context"

	"trustline-backend/internal/models"

	"github.com/google/uuid"
)

// Envelope is a created e-signature request.
type Envelope struct {
	ID     string
	Status string
}

// EnvelopeSender creates a signature envelope for a stored document with a
// provider such as DocuSign.
type EnvelopeSender interface {
	Send(ctx context.Context, documentName, storageKey string, signerEmails []string) (Envelope, error)
}

// SimulatedSender fabricates envelopes locally. Every send succeeds and comes
// back already SENT.
type SimulatedSender struct{}

func (SimulatedSender) Send(ctx context.Context, documentName, storageKey string, signerEmails []string) (Envelope, error) {
	return Envelope{
		ID:     uuid.NewString(),
		Status: models.EnvelopeStatusSent,
	}, nil
}
