package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"spac_dashboard/pkg/core/redemption"
)

var (
	// ErrNotFound is returned when a requested deal does not exist.
	ErrNotFound = errors.New("deal not found")

	// ErrDuplicateKey is returned when another deal already uses the ticker.
	ErrDuplicateKey = errors.New("duplicate key: ticker already in use")
)

// Deal is a persisted SPAC business combination and the deal terms its scenarios run on.
type Deal struct {
	ID        uuid.UUID                      `json:"id"`
	Ticker    string                         `json:"ticker"`
	Name      string                         `json:"name"`
	Inputs    redemption.DealStructureInputs `json:"inputs"`
	CreatedAt time.Time                      `json:"created_at"`
	UpdatedAt time.Time                      `json:"updated_at"`
}

// DealStore persists deals. Save upserts by ID.
type DealStore interface {
	Save(ctx context.Context, d *Deal) error
	Get(ctx context.Context, id uuid.UUID) (*Deal, error)
	GetByTicker(ctx context.Context, ticker string) (*Deal, error)
	List(ctx context.Context) ([]*Deal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// prepare validates d and fills in ID and timestamps. Invalid deals are never written.
func prepare(d *Deal, now time.Time) error {
	if d == nil {
		return fmt.Errorf("deal must not be nil")
	}
	d.Ticker = NormalizeTicker(d.Ticker)
	if d.Ticker == "" {
		return &redemption.ValidationError{Field: "ticker", Reason: "must not be empty", Kind: redemption.ErrInvalidInput}
	}
	if err := d.Inputs.Validate(); err != nil {
		return err
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	return nil
}
