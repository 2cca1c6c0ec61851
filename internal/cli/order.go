package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	taxjar "github.com/recheej/taxjar-go"
)

// ReadOrderFile reads an order from a YAML or JSON file, or from stdin
// when path is "-". Keys use the API's snake_case names; unknown keys are
// forwarded to the API unchanged.
func ReadOrderFile(path string, stdin io.Reader) (*taxjar.OrderParams, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "opening order file")
		}
		defer f.Close()
		r = f
	}
	return ReadOrder(r)
}

// Text fields of an order. Unquoted YAML values such as zip: 07446 are
// read as written rather than as numbers.
var (
	orderTextKeys = keySet("from_country", "from_zip", "from_state", "from_city", "from_street",
		"to_country", "to_zip", "to_state", "to_city", "to_street", "customer_id", "exemption_type")
	nexusTextKeys    = keySet("id", "country", "zip", "state", "city", "street")
	lineItemTextKeys = keySet("id", "product_identifier", "description", "product_tax_code")
)

func keySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// ReadOrder decodes an order document. JSON documents are valid YAML, so a
// single decoder handles both.
func ReadOrder(r io.Reader) (*taxjar.OrderParams, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading order")
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "parsing order")
	}
	if len(root.Content) == 0 {
		return nil, errors.New("order is empty")
	}

	node := root.Content[0]
	if node.Kind == yaml.MappingNode {
		markText(node, orderTextKeys)
		eachItem(node, "nexus_addresses", func(item *yaml.Node) { markText(item, nexusTextKeys) })
		eachItem(node, "line_items", func(item *yaml.Node) { markText(item, lineItemTextKeys) })
	}

	var doc map[string]interface{}
	if err := node.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "parsing order")
	}
	if doc == nil {
		return nil, errors.New("order is empty")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "converting order")
	}

	var params taxjar.OrderParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, errors.Wrap(err, "decoding order fields")
	}
	return &params, nil
}

// markText retags the plain scalar values of keys in mapping m as strings.
func markText(m *yaml.Node, keys map[string]struct{}) {
	if m.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, value := m.Content[i], m.Content[i+1]
		if _, ok := keys[key.Value]; !ok {
			continue
		}
		if value.Kind == yaml.ScalarNode && value.Style == 0 && value.Tag != "!!null" {
			value.Tag = "!!str"
		}
	}
}

func eachItem(m *yaml.Node, key string, fn func(*yaml.Node)) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key && m.Content[i+1].Kind == yaml.SequenceNode {
			for _, item := range m.Content[i+1].Content {
				fn(item)
			}
		}
	}
}
