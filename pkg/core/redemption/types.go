// Package redemption models a SPAC business combination across shareholder redemption rates.
// Each scenario projects trust cash, the pro-forma cap table and the resulting ownership split
// for one redemption rate; batches of scenarios feed the viability and dilution rollups.
package redemption

import (
	"github.com/shopspring/decimal"
)

// DealStructureInputs holds the static deal terms a scenario is projected from.
type DealStructureInputs struct {
	PublicShares            int64           `json:"public_shares" yaml:"public_shares"`
	RedemptionPricePerShare decimal.Decimal `json:"redemption_price_per_share" yaml:"redemption_price_per_share"`
	TrustValue              decimal.Decimal `json:"trust_value" yaml:"trust_value"`
	SponsorShares           int64           `json:"sponsor_shares" yaml:"sponsor_shares"`
	PIPECommitment          decimal.Decimal `json:"pipe_commitment" yaml:"pipe_commitment"`
	PIPEPricePerShare       decimal.Decimal `json:"pipe_price_per_share" yaml:"pipe_price_per_share"`
	MinimumCashCondition    decimal.Decimal `json:"minimum_cash_condition" yaml:"minimum_cash_condition"`
	TargetEquityValue       decimal.Decimal `json:"target_equity_value" yaml:"target_equity_value"`
}

// TrustPerShare is the average trust cash backing each public share.
// Undefined when there are no public shares.
func (in DealStructureInputs) TrustPerShare() decimal.NullDecimal {
	if in.PublicShares <= 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(in.TrustValue.Div(decimal.NewFromInt(in.PublicShares)))
}

// PIPEShares is the number of shares issued to PIPE investors. Only meaningful on validated inputs.
func (in DealStructureInputs) PIPEShares() decimal.Decimal {
	return in.PIPECommitment.Div(in.PIPEPricePerShare)
}

// ScenarioStatus tags whether the ownership figures of a scenario are defined.
type ScenarioStatus string

const (
	StatusOK         ScenarioStatus = "OK"
	StatusDegenerate ScenarioStatus = "DEGENERATE"
)

// Reasons recorded on degenerate scenarios.
const (
	ReasonNonPositiveProForma = "pro-forma share count is not positive"
	ReasonNonPositiveCash     = "total cash available is not positive"
)

// RedemptionScenario is the projection of one redemption rate.
// Fields held as NullDecimal are undefined (Valid=false, JSON null) on degenerate scenarios.
type RedemptionScenario struct {
	RedemptionRatePercent decimal.Decimal `json:"redemption_rate_percent"`
	SharesRedeemed        int64           `json:"shares_redeemed"`
	RemainingPublicShares int64           `json:"remaining_public_shares"`

	// Cash
	CashFromTrust      decimal.Decimal `json:"cash_from_trust"` // negative when redemptions exceed the trust
	PIPEProceeds       decimal.Decimal `json:"pipe_proceeds"`
	TotalCashAvailable decimal.Decimal `json:"total_cash_available"`

	// Cap table
	PIPEShares              decimal.Decimal     `json:"pipe_shares"`
	ProFormaShares          decimal.Decimal     `json:"pro_forma_shares"`
	TargetShares            decimal.NullDecimal `json:"target_shares"`
	TotalSharesFullyDiluted decimal.NullDecimal `json:"total_shares_fully_diluted"`

	// Ownership, in percent of fully diluted shares
	PublicOwnershipPercent  decimal.NullDecimal `json:"public_ownership_percent"`
	SponsorOwnershipPercent decimal.NullDecimal `json:"sponsor_ownership_percent"`
	PIPEOwnershipPercent    decimal.NullDecimal `json:"pipe_ownership_percent"`
	TargetOwnershipPercent  decimal.NullDecimal `json:"target_ownership_percent"`

	ImpliedPostMoneyValuation decimal.Decimal     `json:"implied_post_money_valuation"`
	CashPerShare              decimal.NullDecimal `json:"cash_per_share"`
	MeetsMinimumCash          bool                `json:"meets_minimum_cash"`
	CashShortfall             decimal.Decimal     `json:"cash_shortfall"`

	Status           ScenarioStatus `json:"status"`
	DegenerateReason string         `json:"degenerate_reason,omitempty"`
}

// IsDegenerate reports whether the ownership figures are undefined.
func (s RedemptionScenario) IsDegenerate() bool {
	return s.Status == StatusDegenerate
}

// Holder identifies one class of post-close shareholder.
type Holder string

const (
	HolderPublic  Holder = "public"
	HolderSponsor Holder = "sponsor"
	HolderPIPE    Holder = "pipe"
	HolderTarget  Holder = "target"
)

// AllHolders lists every holder class in cap-table order.
var AllHolders = []Holder{HolderPublic, HolderSponsor, HolderPIPE, HolderTarget}

// OwnershipPercent returns the holder's share of the fully diluted count.
func (s RedemptionScenario) OwnershipPercent(h Holder) decimal.NullDecimal {
	switch h {
	case HolderPublic:
		return s.PublicOwnershipPercent
	case HolderSponsor:
		return s.SponsorOwnershipPercent
	case HolderPIPE:
		return s.PIPEOwnershipPercent
	case HolderTarget:
		return s.TargetOwnershipPercent
	}
	return decimal.NullDecimal{}
}
