package kyc

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

// Screener performs one AML screening of a subject against a watchlist
// provider and returns the provider's result payload.
type Screener interface {
	Screen(ctx context.Context, subjectName, subjectEmail string) (datatypes.JSONMap, error)
}

// SimulatedScreener stands in for a real watchlist provider. It waits Delay
// and then clears the subject.
type SimulatedScreener struct {
	Delay time.Duration
}

func (s SimulatedScreener) Screen(ctx context.Context, subjectName, subjectEmail string) (datatypes.JSONMap, error) {
	select {
	case <-time.After(s.Delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return datatypes.JSONMap{
		"ofac_screen": "clear",
		"pep_screen":  "clear",
	}, nil
}
