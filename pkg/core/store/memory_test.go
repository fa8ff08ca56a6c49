package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spac_dashboard/pkg/core/redemption"
)

func testInputs() redemption.DealStructureInputs {
	d := decimal.RequireFromString
	return redemption.DealStructureInputs{
		PublicShares:            25_300_000,
		RedemptionPricePerShare: d("10.02"),
		TrustValue:              d("253000000"),
		SponsorShares:           6_325_000,
		PIPECommitment:          d("50000000"),
		PIPEPricePerShare:       d("10"),
		MinimumCashCondition:    d("200000000"),
		TargetEquityValue:       d("400000000"),
	}
}

func TestMemoryDealStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDealStore()

	deal := &Deal{Ticker: " acqr ", Name: "Acquisition Corp", Inputs: testInputs()}
	require.NoError(t, s.Save(ctx, deal))

	assert.NotEqual(t, uuid.Nil, deal.ID)
	assert.Equal(t, "ACQR", deal.Ticker)
	assert.False(t, deal.CreatedAt.IsZero())

	got, err := s.Get(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, deal.Name, got.Name)
	assert.True(t, got.Inputs.TrustValue.Equal(deal.Inputs.TrustValue))

	byTicker, err := s.GetByTicker(ctx, "acqr")
	require.NoError(t, err)
	assert.Equal(t, deal.ID, byTicker.ID)
}

func TestMemoryDealStore_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDealStore()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	deal := &Deal{Ticker: "ACQR", Inputs: testInputs()}
	require.NoError(t, s.Save(ctx, deal))

	clock = clock.Add(time.Hour)
	update := &Deal{ID: deal.ID, Ticker: "ACQR", Name: "Renamed", Inputs: testInputs()}
	require.NoError(t, s.Save(ctx, update))

	got, err := s.Get(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), got.CreatedAt)
	assert.Equal(t, clock, got.UpdatedAt)
}

func TestMemoryDealStore_RejectsInvalidAndDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDealStore()

	bad := testInputs()
	bad.PIPEPricePerShare = decimal.Zero
	err := s.Save(ctx, &Deal{Ticker: "BAD", Inputs: bad})
	assert.ErrorIs(t, err, redemption.ErrInvalidInput)

	err = s.Save(ctx, &Deal{Ticker: "  ", Inputs: testInputs()})
	assert.ErrorIs(t, err, redemption.ErrInvalidInput)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "invalid deals must not be stored")

	require.NoError(t, s.Save(ctx, &Deal{Ticker: "ACQR", Inputs: testInputs()}))
	dup := &Deal{Ticker: "acqr", Inputs: testInputs()}
	err = s.Save(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// A rejected save leaves the caller's deal untouched.
	assert.Equal(t, uuid.Nil, dup.ID)
	assert.Equal(t, "acqr", dup.Ticker)
	assert.True(t, dup.CreatedAt.IsZero())
	assert.True(t, dup.UpdatedAt.IsZero())
}

func TestMemoryDealStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDealStore()

	for _, ticker := range []string{"ZETA", "ALFA", "MIDS"} {
		require.NoError(t, s.Save(ctx, &Deal{Ticker: ticker, Inputs: testInputs()}))
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"ALFA", "MIDS", "ZETA"}, []string{list[0].Ticker, list[1].Ticker, list[2].Ticker})

	require.NoError(t, s.Delete(ctx, list[0].ID))
	assert.ErrorIs(t, s.Delete(ctx, list[0].ID), ErrNotFound)

	_, err = s.Get(ctx, list[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetByTicker(ctx, "ALFA")
	assert.ErrorIs(t, err, ErrNotFound)
}
