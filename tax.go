package taxjar

import "encoding/json"

// Tax is the result of a sales tax calculation for one order.
//
// Every numeric field missing from the API response is zero. Breakdown
// fields that do not apply to the destination jurisdiction (county tax for
// a Canadian order, GST for a US order, ...) are therefore always present
// and zero rather than absent.
type Tax struct {
	OrderTotalAmount float64
	Shipping         float64
	TaxableAmount    float64
	AmountToCollect  float64
	Rate             float64
	HasNexus         bool
	FreightTaxable   bool
	// TaxSource is "origin" or "destination".
	TaxSource     string
	ExemptionType string

	Jurisdictions     Jurisdictions
	OrderBreakdown    OrderBreakdown
	ShippingBreakdown ShippingBreakdown
	// LineItems follows the order of the request's line items.
	LineItems []LineItemBreakdown
}

// Jurisdictions names the jurisdictions the calculation applied to.
type Jurisdictions struct {
	Country string `json:"country,omitempty"`
	State   string `json:"state,omitempty"`
	County  string `json:"county,omitempty"`
	City    string `json:"city,omitempty"`
}

// CountryBreakdown holds the country level and Canadian GST/PST/QST
// portions shared by every breakdown.
type CountryBreakdown struct {
	CountryTaxableAmount  float64 `json:"country_taxable_amount"`
	CountryTaxRate        float64 `json:"country_tax_rate"`
	CountryTaxCollectable float64 `json:"country_tax_collectable"`

	GSTTaxableAmount float64 `json:"gst_taxable_amount"`
	GSTTaxRate       float64 `json:"gst_tax_rate"`
	GST              float64 `json:"gst"`
	PSTTaxableAmount float64 `json:"pst_taxable_amount"`
	PSTTaxRate       float64 `json:"pst_tax_rate"`
	PST              float64 `json:"pst"`
	QSTTaxableAmount float64 `json:"qst_taxable_amount"`
	QSTTaxRate       float64 `json:"qst_tax_rate"`
	QST              float64 `json:"qst"`
}

// OrderBreakdown is the order level split of the collectable tax.
type OrderBreakdown struct {
	TaxableAmount   float64 `json:"taxable_amount"`
	TaxCollectable  float64 `json:"tax_collectable"`
	CombinedTaxRate float64 `json:"combined_tax_rate"`

	StateTaxableAmount  float64 `json:"state_taxable_amount"`
	StateTaxRate        float64 `json:"state_tax_rate"`
	StateTaxCollectable float64 `json:"state_tax_collectable"`

	CountyTaxableAmount  float64 `json:"county_taxable_amount"`
	CountyTaxRate        float64 `json:"county_tax_rate"`
	CountyTaxCollectable float64 `json:"county_tax_collectable"`

	CityTaxableAmount  float64 `json:"city_taxable_amount"`
	CityTaxRate        float64 `json:"city_tax_rate"`
	CityTaxCollectable float64 `json:"city_tax_collectable"`

	SpecialDistrictTaxableAmount  float64 `json:"special_district_taxable_amount"`
	SpecialTaxRate                float64 `json:"special_tax_rate"`
	SpecialDistrictTaxCollectable float64 `json:"special_district_tax_collectable"`

	CountryBreakdown
}

// ShippingBreakdown is the tax on the shipping charge.
type ShippingBreakdown struct {
	TaxableAmount   float64 `json:"taxable_amount"`
	TaxCollectable  float64 `json:"tax_collectable"`
	CombinedTaxRate float64 `json:"combined_tax_rate"`

	StateTaxableAmount float64 `json:"state_taxable_amount"`
	StateSalesTaxRate  float64 `json:"state_sales_tax_rate"`
	StateAmount        float64 `json:"state_amount"`

	CountyTaxableAmount float64 `json:"county_taxable_amount"`
	CountyTaxRate       float64 `json:"county_tax_rate"`
	CountyAmount        float64 `json:"county_amount"`

	CityTaxableAmount float64 `json:"city_taxable_amount"`
	CityTaxRate       float64 `json:"city_tax_rate"`
	CityAmount        float64 `json:"city_amount"`

	SpecialDistrictTaxableAmount float64 `json:"special_taxable_amount"`
	SpecialTaxRate               float64 `json:"special_tax_rate"`
	SpecialDistrictAmount        float64 `json:"special_district_amount"`

	CountryBreakdown
}

// LineItemBreakdown is the tax on one line item, keyed by the line item id
// supplied in the request.
type LineItemBreakdown struct {
	ID              string  `json:"id"`
	TaxableAmount   float64 `json:"taxable_amount"`
	TaxCollectable  float64 `json:"tax_collectable"`
	CombinedTaxRate float64 `json:"combined_tax_rate"`

	StateTaxableAmount float64 `json:"state_taxable_amount"`
	StateSalesTaxRate  float64 `json:"state_sales_tax_rate"`
	StateAmount        float64 `json:"state_amount"`

	CountyTaxableAmount float64 `json:"county_taxable_amount"`
	CountyTaxRate       float64 `json:"county_tax_rate"`
	CountyAmount        float64 `json:"county_amount"`

	CityTaxableAmount float64 `json:"city_taxable_amount"`
	CityTaxRate       float64 `json:"city_tax_rate"`
	CityAmount        float64 `json:"city_amount"`

	SpecialDistrictTaxableAmount float64 `json:"special_district_taxable_amount"`
	SpecialTaxRate               float64 `json:"special_tax_rate"`
	SpecialDistrictAmount        float64 `json:"special_district_amount"`

	CountryBreakdown
}

// taxWire is the JSON layout of the "tax" object. The shipping and line
// item breakdowns are nested inside "breakdown".
type taxWire struct {
	OrderTotalAmount float64        `json:"order_total_amount"`
	Shipping         float64        `json:"shipping"`
	TaxableAmount    float64        `json:"taxable_amount"`
	AmountToCollect  float64        `json:"amount_to_collect"`
	Rate             float64        `json:"rate"`
	HasNexus         bool           `json:"has_nexus"`
	FreightTaxable   bool           `json:"freight_taxable"`
	TaxSource        string         `json:"tax_source,omitempty"`
	ExemptionType    string         `json:"exemption_type,omitempty"`
	Jurisdictions    *Jurisdictions `json:"jurisdictions,omitempty"`
	Breakdown        *breakdownWire `json:"breakdown,omitempty"`
}

type breakdownWire struct {
	OrderBreakdown
	Shipping  *ShippingBreakdown  `json:"shipping,omitempty"`
	LineItems []LineItemBreakdown `json:"line_items,omitempty"`
}

// UnmarshalJSON decodes the contents of the API's "tax" object.
func (t *Tax) UnmarshalJSON(data []byte) error {
	var w taxWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*t = Tax{
		OrderTotalAmount: w.OrderTotalAmount,
		Shipping:         w.Shipping,
		TaxableAmount:    w.TaxableAmount,
		AmountToCollect:  w.AmountToCollect,
		Rate:             w.Rate,
		HasNexus:         w.HasNexus,
		FreightTaxable:   w.FreightTaxable,
		TaxSource:        w.TaxSource,
		ExemptionType:    w.ExemptionType,
	}
	if w.Jurisdictions != nil {
		t.Jurisdictions = *w.Jurisdictions
	}
	if b := w.Breakdown; b != nil {
		t.OrderBreakdown = b.OrderBreakdown
		if b.Shipping != nil {
			t.ShippingBreakdown = *b.Shipping
		}
		t.LineItems = b.LineItems
	}
	return nil
}

// MarshalJSON encodes t in the layout UnmarshalJSON accepts.
func (t Tax) MarshalJSON() ([]byte, error) {
	shipping := t.ShippingBreakdown
	w := taxWire{
		OrderTotalAmount: t.OrderTotalAmount,
		Shipping:         t.Shipping,
		TaxableAmount:    t.TaxableAmount,
		AmountToCollect:  t.AmountToCollect,
		Rate:             t.Rate,
		HasNexus:         t.HasNexus,
		FreightTaxable:   t.FreightTaxable,
		TaxSource:        t.TaxSource,
		ExemptionType:    t.ExemptionType,
		Breakdown: &breakdownWire{
			OrderBreakdown: t.OrderBreakdown,
			Shipping:       &shipping,
			LineItems:      t.LineItems,
		},
	}
	if t.Jurisdictions != (Jurisdictions{}) {
		jurisdictions := t.Jurisdictions
		w.Jurisdictions = &jurisdictions
	}
	return json.Marshal(w)
}
