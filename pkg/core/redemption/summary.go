package redemption

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxViableRate returns the highest rate among non-degenerate scenarios that meet the minimum
// cash condition. Valid=false means no scenario is viable; a valid 0 means only 0% is.
func MaxViableRate(scenarios []RedemptionScenario) decimal.NullDecimal {
	var best decimal.NullDecimal
	for _, s := range scenarios {
		if s.IsDegenerate() || !s.MeetsMinimumCash {
			continue
		}
		if !best.Valid || s.RedemptionRatePercent.GreaterThan(best.Decimal) {
			best = decimal.NewNullDecimal(s.RedemptionRatePercent)
		}
	}
	return best
}

// Category groups holder classes for dilution attribution.
type Category struct {
	Name    string   `json:"name" yaml:"name"`
	Holders []Holder `json:"holders" yaml:"holders"`
}

// DefaultCategories splits the cap table into founder, public-market and target ownership.
// PIPE investors buy public equity and are attributed to the public category.
var DefaultCategories = []Category{
	{Name: "Sponsor / Founder", Holders: []Holder{HolderSponsor}},
	{Name: "Public", Holders: []Holder{HolderPublic, HolderPIPE}},
	{Name: "Target", Holders: []Holder{HolderTarget}},
}

// CategoryShare is the ownership percent attributed to one category.
type CategoryShare struct {
	Name    string              `json:"name"`
	Percent decimal.NullDecimal `json:"percent"`
}

// Attribution is the dilution breakdown of a single reference scenario.
// Defined is false when the scenario is degenerate; every Percent is then undefined.
type Attribution struct {
	RedemptionRatePercent decimal.Decimal `json:"redemption_rate_percent"`
	Defined               bool            `json:"defined"`
	Categories            []CategoryShare `json:"categories"`
}

// AttributeDilution sums ownership percent per category for one scenario.
// Categories must partition holders: a holder listed twice is a validation error.
// Holders left out of every category are simply not attributed.
func AttributeDilution(s RedemptionScenario, categories []Category) (Attribution, error) {
	if err := ValidateCategories(categories); err != nil {
		return Attribution{}, err
	}

	out := Attribution{
		RedemptionRatePercent: s.RedemptionRatePercent,
		Defined:               !s.IsDegenerate(),
		Categories:            make([]CategoryShare, 0, len(categories)),
	}
	for _, c := range categories {
		share := CategoryShare{Name: c.Name}
		if out.Defined {
			sum := decimal.Zero
			for _, h := range c.Holders {
				sum = sum.Add(s.OwnershipPercent(h).Decimal)
			}
			share.Percent = decimal.NewNullDecimal(sum)
		}
		out.Categories = append(out.Categories, share)
	}
	return out, nil
}

// ValidateCategories checks that every holder is known and appears in at most one category.
func ValidateCategories(categories []Category) error {
	seen := make(map[Holder]string, len(AllHolders))
	for _, c := range categories {
		for _, h := range c.Holders {
			if !isKnownHolder(h) {
				return invalidInput("categories", string(h), "is not a known holder class")
			}
			if prev, dup := seen[h]; dup {
				return invalidInput("categories", string(h),
					fmt.Sprintf("is assigned to both %q and %q", prev, c.Name))
			}
			seen[h] = c.Name
		}
	}
	return nil
}

func isKnownHolder(h Holder) bool {
	for _, k := range AllHolders {
		if k == h {
			return true
		}
	}
	return false
}

// Summary is the presentation rollup of a batch of scenarios.
type Summary struct {
	ScenarioCount      int                 `json:"scenario_count"`
	DegenerateCount    int                 `json:"degenerate_count"`
	MaxViableRate      decimal.NullDecimal `json:"max_viable_rate"`
	FirstShortfallRate decimal.NullDecimal `json:"first_shortfall_rate"`
	Attribution        *Attribution        `json:"attribution,omitempty"`
}

// Summarize rolls up a batch. reference selects the scenario used for dilution attribution;
// a negative or out-of-bounds index skips attribution.
func Summarize(scenarios []RedemptionScenario, reference int, categories []Category) (Summary, error) {
	sum := Summary{
		ScenarioCount: len(scenarios),
		MaxViableRate: MaxViableRate(scenarios),
	}
	for _, s := range scenarios {
		if s.IsDegenerate() {
			sum.DegenerateCount++
		}
		if !s.MeetsMinimumCash {
			if !sum.FirstShortfallRate.Valid || s.RedemptionRatePercent.LessThan(sum.FirstShortfallRate.Decimal) {
				sum.FirstShortfallRate = decimal.NewNullDecimal(s.RedemptionRatePercent)
			}
		}
	}

	if reference >= 0 && reference < len(scenarios) {
		if categories == nil {
			categories = DefaultCategories
		}
		attr, err := AttributeDilution(scenarios[reference], categories)
		if err != nil {
			return Summary{}, err
		}
		sum.Attribution = &attr
	}
	return sum, nil
}
