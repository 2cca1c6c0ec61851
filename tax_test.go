package taxjar

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recheej/taxjar-go/taxjartest"
)

func TestTaxUnmarshalMissingFieldsAreZero(t *testing.T) {
	var tax Tax
	require.NoError(t, json.Unmarshal([]byte(`{"amount_to_collect": 1.16, "rate": null}`), &tax))

	assert.Equal(t, 1.16, tax.AmountToCollect)
	assert.Zero(t, tax.Rate)
	assert.False(t, tax.HasNexus)
	assert.Empty(t, tax.TaxSource)
	assert.Equal(t, OrderBreakdown{}, tax.OrderBreakdown)
	assert.Equal(t, ShippingBreakdown{}, tax.ShippingBreakdown)
	assert.Empty(t, tax.LineItems)
}

func TestTaxUnmarshalPartialBreakdown(t *testing.T) {
	var tax Tax
	require.NoError(t, json.Unmarshal([]byte(`{
		"breakdown": {
			"gst": 1.35,
			"shipping": null,
			"line_items": [{"id": "b", "pst": 0.5}, {"id": "a"}, {"id": "c", "qst": null}]
		}
	}`), &tax))

	assert.Equal(t, 1.35, tax.OrderBreakdown.GST)
	assert.Zero(t, tax.OrderBreakdown.PST)
	assert.Equal(t, ShippingBreakdown{}, tax.ShippingBreakdown)

	require.Len(t, tax.LineItems, 3)
	assert.Equal(t, "b", tax.LineItems[0].ID)
	assert.Equal(t, 0.5, tax.LineItems[0].PST)
	assert.Equal(t, "a", tax.LineItems[1].ID)
	assert.Equal(t, "c", tax.LineItems[2].ID)
	assert.Zero(t, tax.LineItems[2].QST)
}

func TestTaxUnmarshalResetsReceiver(t *testing.T) {
	tax := Tax{Rate: 0.5, LineItems: []LineItemBreakdown{{ID: "old"}}}
	require.NoError(t, json.Unmarshal([]byte(`{"amount_to_collect": 2}`), &tax))

	assert.Zero(t, tax.Rate)
	assert.Nil(t, tax.LineItems)
}

func TestTaxUnmarshalRejectsWrongTypes(t *testing.T) {
	var tax Tax
	assert.Error(t, json.Unmarshal([]byte(`{"rate": "0.07"}`), &tax))
	assert.Error(t, json.Unmarshal([]byte(`{"breakdown": []}`), &tax))
}

func TestTaxMarshalJSONMatchesFixture(t *testing.T) {
	fixture, err := taxjartest.Fixture(taxjartest.FixtureTaxesCanada)
	require.NoError(t, err)

	var envelope struct {
		Tax json.RawMessage `json:"tax"`
	}
	require.NoError(t, json.Unmarshal(fixture, &envelope))

	var tax Tax
	require.NoError(t, json.Unmarshal(envelope.Tax, &tax))

	data, err := json.Marshal(tax)
	require.NoError(t, err)

	var again Tax
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, tax, again)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	breakdown := doc["breakdown"].(map[string]interface{})
	assert.Equal(t, 1.35, breakdown["gst"])
	assert.Equal(t, 0.0, breakdown["qst"])
	assert.Contains(t, breakdown, "shipping")
	assert.Len(t, breakdown["line_items"], 1)
	assert.Equal(t, map[string]interface{}{"country": "CA", "state": "ON"}, doc["jurisdictions"])
}
