package redemption

import (
	"github.com/shopspring/decimal"
)

// ComputeScenario projects the deal at one redemption rate (percent of public shares redeemed).
// Inputs and rate are validated before any arithmetic; a scenario whose cap table cannot be
// priced is returned tagged StatusDegenerate instead of failing.
func ComputeScenario(inputs DealStructureInputs, rate decimal.Decimal) (RedemptionScenario, error) {
	if err := inputs.Validate(); err != nil {
		return RedemptionScenario{}, err
	}
	if err := ValidateRate(rate); err != nil {
		return RedemptionScenario{}, err
	}
	return computeValidated(inputs, rate), nil
}

// computeValidated assumes inputs and rate already passed validation.
func computeValidated(in DealStructureInputs, rate decimal.Decimal) RedemptionScenario {
	// 1. Redemptions. A fractional share is never redeemed.
	publicShares := decimal.NewFromInt(in.PublicShares)
	// Shift is exact; Div would round to DivisionPrecision before the floor.
	redeemed := publicShares.Mul(rate).Shift(-2).Floor().IntPart()
	remaining := in.PublicShares - redeemed

	// 2. Cash waterfall. PIPE is assumed fully funded.
	cashFromTrust := in.TrustValue.Sub(decimal.NewFromInt(redeemed).Mul(in.RedemptionPricePerShare))
	totalCash := cashFromTrust.Add(in.PIPECommitment)

	// 3. Pro-forma cap table before the target's allocation
	pipeShares := in.PIPEShares()
	remainingDec := decimal.NewFromInt(remaining)
	sponsorDec := decimal.NewFromInt(in.SponsorShares)
	proForma := remainingDec.Add(sponsorDec).Add(pipeShares)

	s := RedemptionScenario{
		RedemptionRatePercent:     rate,
		SharesRedeemed:            redeemed,
		RemainingPublicShares:     remaining,
		CashFromTrust:             cashFromTrust,
		PIPEProceeds:              in.PIPECommitment,
		TotalCashAvailable:        totalCash,
		PIPEShares:                pipeShares,
		ProFormaShares:            proForma,
		ImpliedPostMoneyValuation: totalCash.Add(in.TargetEquityValue),
		MeetsMinimumCash:          totalCash.GreaterThanOrEqual(in.MinimumCashCondition),
		CashShortfall:             decimal.Max(decimal.Zero, in.MinimumCashCondition.Sub(totalCash)),
		Status:                    StatusOK,
	}

	if proForma.IsPositive() {
		s.CashPerShare = decimal.NewNullDecimal(totalCash.Div(proForma))
	}

	// 4. Degenerate guard: no implied per-share price to size the target with.
	switch {
	case !proForma.IsPositive():
		s.Status = StatusDegenerate
		s.DegenerateReason = ReasonNonPositiveProForma
		return s
	case !totalCash.IsPositive():
		s.Status = StatusDegenerate
		s.DegenerateReason = ReasonNonPositiveCash
		return s
	}

	// 5. Target allocation at the implied cash price per share:
	// targetEquity / (totalCash / proForma) == targetEquity * proForma / totalCash
	targetShares := in.TargetEquityValue.Mul(proForma).Div(totalCash)
	fullyDiluted := proForma.Add(targetShares)

	s.TargetShares = decimal.NewNullDecimal(targetShares)
	s.TotalSharesFullyDiluted = decimal.NewNullDecimal(fullyDiluted)
	s.PublicOwnershipPercent = percentOf(remainingDec, fullyDiluted)
	s.SponsorOwnershipPercent = percentOf(sponsorDec, fullyDiluted)
	s.PIPEOwnershipPercent = percentOf(pipeShares, fullyDiluted)
	s.TargetOwnershipPercent = percentOf(targetShares, fullyDiluted)
	return s
}

func percentOf(part, total decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(part.Mul(hundred).Div(total))
}
