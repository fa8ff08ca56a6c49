// Package report renders scenario batches as markdown tables and HTML for deal memos.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"spac_dashboard/pkg/core/redemption"
)

const notApplicable = "n/a"

var printer = message.NewPrinter(language.English)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders the deal terms, one table row per scenario, and the batch summary.
func Markdown(title string, in redemption.DealStructureInputs, scenarios []redemption.RedemptionScenario, sum redemption.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("## Deal terms\n\n")
	b.WriteString("| Term | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Public shares | %s |\n", shares(in.PublicShares))
	fmt.Fprintf(&b, "| Trust value | %s |\n", money(in.TrustValue))
	fmt.Fprintf(&b, "| Redemption price / share | %s |\n", price(in.RedemptionPricePerShare))
	fmt.Fprintf(&b, "| Sponsor shares | %s |\n", shares(in.SponsorShares))
	fmt.Fprintf(&b, "| PIPE commitment | %s |\n", money(in.PIPECommitment))
	fmt.Fprintf(&b, "| PIPE price / share | %s |\n", price(in.PIPEPricePerShare))
	fmt.Fprintf(&b, "| Minimum cash condition | %s |\n", money(in.MinimumCashCondition))
	fmt.Fprintf(&b, "| Target equity value | %s |\n\n", money(in.TargetEquityValue))

	b.WriteString("## Redemption scenarios\n\n")
	b.WriteString("| Redemption | Shares redeemed | Cash from trust | Total cash | Pro-forma shares | Public | Sponsor | PIPE | Target | Minimum cash |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|---:|---:|---|\n")
	for _, s := range scenarios {
		fmt.Fprintf(&b, "| %s%% | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			s.RedemptionRatePercent.String(),
			shares(s.SharesRedeemed),
			money(s.CashFromTrust),
			money(s.TotalCashAvailable),
			number(s.ProFormaShares),
			percent(s.PublicOwnershipPercent),
			percent(s.SponsorOwnershipPercent),
			percent(s.PIPEOwnershipPercent),
			percent(s.TargetOwnershipPercent),
			cashStatus(s),
		)
	}

	b.WriteString("\n## Summary\n\n")
	fmt.Fprintf(&b, "- **Maximum viable redemption rate:** %s\n", viableRate(sum.MaxViableRate))
	if sum.FirstShortfallRate.Valid {
		fmt.Fprintf(&b, "- **First shortfall at:** %s%%\n", sum.FirstShortfallRate.Decimal.String())
	}
	fmt.Fprintf(&b, "- **Degenerate scenarios:** %d of %d\n", sum.DegenerateCount, sum.ScenarioCount)

	if a := sum.Attribution; a != nil {
		fmt.Fprintf(&b, "\n## Ownership attribution at %s%% redemptions\n\n", a.RedemptionRatePercent.String())
		b.WriteString("| Category | Ownership |\n|---|---:|\n")
		for _, c := range a.Categories {
			fmt.Fprintf(&b, "| %s | %s |\n", c.Name, percent(c.Percent))
		}
	}
	return b.String()
}

// HTML converts the markdown report with GitHub-flavoured tables.
func HTML(title string, in redemption.DealStructureInputs, scenarios []redemption.RedemptionScenario, sum redemption.Summary) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(title, in, scenarios, sum)), &buf); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

func viableRate(r decimal.NullDecimal) string {
	if !r.Valid {
		return "none viable"
	}
	return r.Decimal.String() + "%"
}

func cashStatus(s redemption.RedemptionScenario) string {
	var status string
	if s.MeetsMinimumCash {
		status = "met"
	} else {
		status = "short " + money(s.CashShortfall)
	}
	if s.IsDegenerate() {
		status += " (degenerate)"
	}
	return status
}

func shares(n int64) string {
	return printer.Sprintf("%d", n)
}

func number(d decimal.Decimal) string {
	return printer.Sprintf("%.0f", d.Round(0).InexactFloat64())
}

func money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + printer.Sprintf("$%.0f", d.Neg().Round(0).InexactFloat64())
	}
	return printer.Sprintf("$%.0f", d.Round(0).InexactFloat64())
}

func price(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func percent(p decimal.NullDecimal) string {
	if !p.Valid {
		return notApplicable
	}
	return p.Decimal.StringFixed(2) + "%"
}
