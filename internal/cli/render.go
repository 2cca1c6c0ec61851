package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	taxjar "github.com/recheej/taxjar-go"
)

var (
	accent  = lipgloss.Color("#0EA5E9")
	fg      = lipgloss.Color("#E8E6E3")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(fg)
	labelStyle  = lipgloss.NewStyle().Foreground(dim).Width(20)
	amountStyle = lipgloss.NewStyle().Bold(true).Foreground(success)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	cellStyle   = lipgloss.NewStyle().Width(14).Align(lipgloss.Right)
	nameStyle   = lipgloss.NewStyle().Width(18)
	errorStyle  = lipgloss.NewStyle().Foreground(danger).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(dim)
)

// component is one jurisdiction level of a breakdown.
type component struct {
	name    string
	taxable float64
	rate    float64
	amount  float64
}

// RenderTax renders a tax calculation as a summary box followed by the
// order, shipping and line item breakdowns. Jurisdiction levels with no
// tax are left out.
func RenderTax(tax *taxjar.Tax) string {
	var sections []string

	summary := []string{
		titleStyle.Render("Sales tax"),
		"",
		row("Order total", money(tax.OrderTotalAmount)),
		row("Shipping", money(tax.Shipping)),
		row("Taxable amount", money(tax.TaxableAmount)),
		labelStyle.Render("Amount to collect") + amountStyle.Render(money(tax.AmountToCollect)),
		row("Rate", percent(tax.Rate)),
		row("Has nexus", yesNo(tax.HasNexus)),
		row("Freight taxable", yesNo(tax.FreightTaxable)),
	}
	if tax.TaxSource != "" {
		summary = append(summary, row("Tax source", tax.TaxSource))
	}
	if j := jurisdiction(tax.Jurisdictions); j != "" {
		summary = append(summary, row("Jurisdiction", j))
	}
	if tax.ExemptionType != "" {
		summary = append(summary, row("Exemption", tax.ExemptionType))
	}
	sections = append(sections, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, summary...)))

	o := tax.OrderBreakdown
	sections = append(sections, table("Order breakdown", o.TaxCollectable, []component{
		{"State", o.StateTaxableAmount, o.StateTaxRate, o.StateTaxCollectable},
		{"County", o.CountyTaxableAmount, o.CountyTaxRate, o.CountyTaxCollectable},
		{"City", o.CityTaxableAmount, o.CityTaxRate, o.CityTaxCollectable},
		{"Special district", o.SpecialDistrictTaxableAmount, o.SpecialTaxRate, o.SpecialDistrictTaxCollectable},
	}, o.CountryBreakdown))

	s := tax.ShippingBreakdown
	sections = append(sections, table("Shipping breakdown", s.TaxCollectable, []component{
		{"State", s.StateTaxableAmount, s.StateSalesTaxRate, s.StateAmount},
		{"County", s.CountyTaxableAmount, s.CountyTaxRate, s.CountyAmount},
		{"City", s.CityTaxableAmount, s.CityTaxRate, s.CityAmount},
		{"Special district", s.SpecialDistrictTaxableAmount, s.SpecialTaxRate, s.SpecialDistrictAmount},
	}, s.CountryBreakdown))

	for i, item := range tax.LineItems {
		id := item.ID
		if id == "" {
			id = fmt.Sprintf("#%d", i+1)
		}
		sections = append(sections, table("Line item "+id, item.TaxCollectable, []component{
			{"State", item.StateTaxableAmount, item.StateSalesTaxRate, item.StateAmount},
			{"County", item.CountyTaxableAmount, item.CountyTaxRate, item.CountyAmount},
			{"City", item.CityTaxableAmount, item.CityTaxRate, item.CityAmount},
			{"Special district", item.SpecialDistrictTaxableAmount, item.SpecialTaxRate, item.SpecialDistrictAmount},
		}, item.CountryBreakdown))
	}

	return strings.Join(sections, "\n\n") + "\n"
}

// RenderError renders a failed calculation, including the API's detail
// message when there is one.
func RenderError(err error) string {
	var b strings.Builder
	b.WriteString(errorStyle.Render("error: "))
	b.WriteString(err.Error())
	b.WriteString("\n")

	if tjErr, ok := asTaxjarError(err); ok && tjErr.Detail != "" {
		b.WriteString(detailStyle.Render("  " + tjErr.Detail))
		b.WriteString("\n")
	}
	return b.String()
}

func table(title string, total float64, levels []component, country taxjar.CountryBreakdown) string {
	levels = append(levels,
		component{"Country", country.CountryTaxableAmount, country.CountryTaxRate, country.CountryTaxCollectable},
		component{"GST", country.GSTTaxableAmount, country.GSTTaxRate, country.GST},
		component{"PST", country.PSTTaxableAmount, country.PSTTaxRate, country.PST},
		component{"QST", country.QSTTaxableAmount, country.QSTTaxRate, country.QST},
	)

	lines := []string{
		headerStyle.Render(title),
		nameStyle.Render("") + cellStyle.Render("Taxable") + cellStyle.Render("Rate") + cellStyle.Render("Tax"),
	}
	for _, c := range levels {
		if c.amount == 0 && c.rate == 0 {
			continue
		}
		lines = append(lines, nameStyle.Render(c.name)+
			cellStyle.Render(money(c.taxable))+
			cellStyle.Render(percent(c.rate))+
			cellStyle.Render(money(c.amount)))
	}
	lines = append(lines, nameStyle.Render("Total")+cellStyle.Render("")+cellStyle.Render("")+cellStyle.Render(money(total)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func percent(rate float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", rate*100), "0"), ".") + "%"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func jurisdiction(j taxjar.Jurisdictions) string {
	var parts []string
	for _, p := range []string{j.City, j.County, j.State, j.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
