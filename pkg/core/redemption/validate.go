package redemption

import (
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	minRate = decimal.Zero
	maxRate = decimal.NewFromInt(100)
	hundred = decimal.NewFromInt(100)
)

// Validate checks the deal terms and returns the first violation as a *ValidationError.
func (in DealStructureInputs) Validate() error {
	if in.PublicShares < 0 {
		return invalidInput("public_shares", strconv.FormatInt(in.PublicShares, 10), "must not be negative")
	}
	if in.SponsorShares < 0 {
		return invalidInput("sponsor_shares", strconv.FormatInt(in.SponsorShares, 10), "must not be negative")
	}

	// Divisors
	if !in.RedemptionPricePerShare.IsPositive() {
		return invalidInput("redemption_price_per_share", in.RedemptionPricePerShare.String(), "must be greater than zero")
	}
	if !in.PIPEPricePerShare.IsPositive() {
		return invalidInput("pipe_price_per_share", in.PIPEPricePerShare.String(), "must be greater than zero")
	}

	nonNegative := []struct {
		field string
		value decimal.Decimal
	}{
		{"trust_value", in.TrustValue},
		{"pipe_commitment", in.PIPECommitment},
		{"minimum_cash_condition", in.MinimumCashCondition},
		{"target_equity_value", in.TargetEquityValue},
	}
	for _, f := range nonNegative {
		if f.value.IsNegative() {
			return invalidInput(f.field, f.value.String(), "must not be negative")
		}
	}
	return nil
}

// ValidateRate rejects redemption rates outside [0, 100]. Rates are never clamped.
func ValidateRate(rate decimal.Decimal) error {
	if rate.LessThan(minRate) || rate.GreaterThan(maxRate) {
		return invalidRange("redemption_rate_percent", rate.String(), "must be within [0, 100]")
	}
	return nil
}
