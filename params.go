package taxjar

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// OrderParams describes an order to calculate sales tax for. The API
// decides which fields are required; nothing is validated locally.
type OrderParams struct {
	FromCountry string `json:"from_country,omitempty"`
	FromZip     string `json:"from_zip,omitempty"`
	FromState   string `json:"from_state,omitempty"`
	FromCity    string `json:"from_city,omitempty"`
	FromStreet  string `json:"from_street,omitempty"`

	ToCountry string `json:"to_country,omitempty"`
	ToZip     string `json:"to_zip,omitempty"`
	ToState   string `json:"to_state,omitempty"`
	ToCity    string `json:"to_city,omitempty"`
	ToStreet  string `json:"to_street,omitempty"`

	// Amount is the order total excluding shipping. When nil the API
	// derives it from the line items.
	Amount   *float64 `json:"amount,omitempty"`
	Shipping float64  `json:"shipping"`

	CustomerID    string `json:"customer_id,omitempty"`
	ExemptionType string `json:"exemption_type,omitempty"`

	NexusAddresses []NexusAddress   `json:"nexus_addresses,omitempty"`
	LineItems      []LineItemParams `json:"line_items,omitempty"`

	// Extra carries request fields this package has no typed field for.
	// Entries are sent at the top level of the body. An entry never
	// replaces a typed field that is serialized: shipping always, the
	// omitempty fields when non-empty.
	Extra map[string]interface{} `json:"-"`
}

// NexusAddress is a location where the seller has nexus.
type NexusAddress struct {
	ID      string `json:"id,omitempty"`
	Country string `json:"country,omitempty"`
	Zip     string `json:"zip,omitempty"`
	State   string `json:"state,omitempty"`
	City    string `json:"city,omitempty"`
	Street  string `json:"street,omitempty"`
}

// LineItemParams is one line of an order.
type LineItemParams struct {
	ID                string   `json:"id,omitempty"`
	Quantity          int      `json:"quantity,omitempty"`
	ProductIdentifier string   `json:"product_identifier,omitempty"`
	Description       string   `json:"description,omitempty"`
	ProductTaxCode    string   `json:"product_tax_code,omitempty"`
	UnitPrice         float64  `json:"unit_price"`
	Discount          *float64 `json:"discount,omitempty"`
}

// Float returns a pointer to v, for the optional amount fields.
func Float(v float64) *float64 {
	return &v
}

// orderFields has the fields of OrderParams without its methods.
type orderFields OrderParams

var (
	knownKeysOnce sync.Once
	knownKeys     map[string]struct{}
)

// orderKeys returns the JSON keys mapped to typed OrderParams fields.
func orderKeys() map[string]struct{} {
	knownKeysOnce.Do(func() {
		t := reflect.TypeOf(orderFields{})
		knownKeys = make(map[string]struct{}, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			if name == "" || name == "-" {
				continue
			}
			knownKeys[name] = struct{}{}
		}
	})
	return knownKeys
}

// MarshalJSON encodes the typed fields and merges Extra into the same
// object.
func (p OrderParams) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(orderFields(p))
	if err != nil || len(p.Extra) == 0 {
		return known, err
	}

	merged := make(map[string]json.RawMessage, len(p.Extra)+8)
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for key, value := range p.Extra {
		if _, ok := merged[key]; ok {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		merged[key] = raw
	}
	return json.Marshal(merged)
}

// UnmarshalJSON fills the typed fields and collects every other key into
// Extra.
func (p *OrderParams) UnmarshalJSON(data []byte) error {
	var fields orderFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	keys := orderKeys()
	for key, raw := range all {
		if _, ok := keys[key]; ok {
			continue
		}
		var value interface{}
		if err := json.Unmarshal(raw, &value); err != nil {
			return err
		}
		if fields.Extra == nil {
			fields.Extra = make(map[string]interface{})
		}
		fields.Extra[key] = value
	}

	*p = OrderParams(fields)
	return nil
}
