package redemption

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// GridSpec describes a uniform ascending grid of redemption rates, End inclusive when a step lands on it.
type GridSpec struct {
	Start decimal.Decimal `json:"start" yaml:"start"`
	End   decimal.Decimal `json:"end" yaml:"end"`
	Step  decimal.Decimal `json:"step" yaml:"step"`
}

// DefaultGrid evaluates every 5 percentage points from 0 to 100.
var DefaultGrid = GridSpec{
	Start: decimal.Zero,
	End:   decimal.NewFromInt(100),
	Step:  decimal.NewFromInt(5),
}

// StandardRates is the discrete set shown on deal summaries.
var StandardRates = Rates(0, 25, 50, 75, 90)

// Rates converts percentages to decimals using their shortest decimal representation.
func Rates(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

// MaxGridPoints caps how many rates one grid may expand to (0..100 at a 0.01 step).
const MaxGridPoints = 10_001

// Validate checks bounds and step of the grid.
func (g GridSpec) Validate() error {
	if !g.Step.IsPositive() {
		return invalidRange("grid.step", g.Step.String(), "must be greater than zero")
	}
	if err := ValidateRate(g.Start); err != nil {
		return invalidRange("grid.start", g.Start.String(), "must be within [0, 100]")
	}
	if err := ValidateRate(g.End); err != nil {
		return invalidRange("grid.end", g.End.String(), "must be within [0, 100]")
	}
	if g.Start.GreaterThan(g.End) {
		return invalidRange("grid.start", g.Start.String(), "must not exceed grid.end "+g.End.String())
	}
	if g.End.Sub(g.Start).Div(g.Step).Floor().GreaterThanOrEqual(decimal.NewFromInt(MaxGridPoints)) {
		return invalidRange("grid.step", g.Step.String(),
			fmt.Sprintf("expands to more than %d points", MaxGridPoints))
	}
	return nil
}

// Points expands the grid. Each point is Start + i*Step so no stepping error accumulates.
func (g GridSpec) Points() ([]decimal.Decimal, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	n := g.End.Sub(g.Start).Div(g.Step).Floor().IntPart() + 1
	points := make([]decimal.Decimal, 0, n)
	for i := int64(0); i < n; i++ {
		p := g.Start.Add(g.Step.Mul(decimal.NewFromInt(i)))
		if p.GreaterThan(g.End) {
			break
		}
		points = append(points, p)
	}
	return points, nil
}

// Evaluator runs the scenario calculator over many rates.
// Workers <= 1 evaluates sequentially; larger values bound the number of concurrent evaluations.
type Evaluator struct {
	Workers int
}

// EvaluateRates returns one scenario per rate in input order. Duplicates are kept and
// degenerate scenarios are passed through. Any invalid rate fails the whole batch.
func (e Evaluator) EvaluateRates(inputs DealStructureInputs, rates []decimal.Decimal) ([]RedemptionScenario, error) {
	if err := inputs.Validate(); err != nil {
		return nil, err
	}
	for _, r := range rates {
		if err := ValidateRate(r); err != nil {
			return nil, err
		}
	}

	out := make([]RedemptionScenario, len(rates))
	if e.Workers <= 1 || len(rates) < 2 {
		for i, r := range rates {
			out[i] = computeValidated(inputs, r)
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(e.Workers)
	for i, r := range rates {
		g.Go(func() error {
			out[i] = computeValidated(inputs, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EvaluateGrid evaluates every point of the grid in ascending order.
func (e Evaluator) EvaluateGrid(inputs DealStructureInputs, grid GridSpec) ([]RedemptionScenario, error) {
	points, err := grid.Points()
	if err != nil {
		return nil, err
	}
	return e.EvaluateRates(inputs, points)
}

// EvaluateRates evaluates sequentially with the zero Evaluator.
func EvaluateRates(inputs DealStructureInputs, rates []decimal.Decimal) ([]RedemptionScenario, error) {
	return Evaluator{}.EvaluateRates(inputs, rates)
}

// EvaluateGrid evaluates sequentially with the zero Evaluator.
func EvaluateGrid(inputs DealStructureInputs, grid GridSpec) ([]RedemptionScenario, error) {
	return Evaluator{}.EvaluateGrid(inputs, grid)
}
