package cli_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taxjar "github.com/recheej/taxjar-go"
	"github.com/recheej/taxjar-go/internal/cli"
	"github.com/recheej/taxjar-go/taxjartest"
)

const usOrderYAML = `from_country: US
from_zip: "07001"
from_state: NJ
to_country: US
to_zip: "07446"
to_state: NJ
amount: 16.50
shipping: 1.50
line_items:
  - id: "1"
    quantity: 1
    unit_price: 15.0
    product_tax_code: "31000"
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TAXJAR_API_KEY", "TAXJAR_API_URL", "TAXJAR_API_VERSION", "TAXJAR_REDIS_ADDR", "TAXJAR_SANDBOX", "TAXJAR_TIMEOUT"} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newServer(t *testing.T, fixture string) *taxjartest.Server {
	t.Helper()
	server := taxjartest.NewServer()
	t.Cleanup(server.Close)
	require.NoError(t, server.StubFixture(http.MethodPost, "/v2/taxes", http.StatusOK, fixture))
	return server
}

func TestTaxCommand_Text(t *testing.T) {
	clearEnv(t)
	server := newServer(t, taxjartest.FixtureTaxes)
	order := writeFile(t, "order.yaml", usOrderYAML)

	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"tax", order, "--api-key", "k", "--api-url", server.URL()})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Amount to collect")
	assert.Contains(t, out, "1.16")
	assert.Contains(t, out, "7%")
	assert.Contains(t, out, "RAMSEY, PASSAIC, NJ, US")
	assert.Contains(t, out, "Line item 1")
	assert.NotContains(t, out, "GST")

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "Bearer k", requests[0].Header.Get("Authorization"))

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(requests[0].Body, &sent))
	assert.Equal(t, "07446", sent["to_zip"])
	assert.Equal(t, 16.5, sent["amount"])
}

func TestTaxCommand_JSON(t *testing.T) {
	clearEnv(t)
	server := newServer(t, taxjartest.FixtureTaxesCanada)
	t.Setenv("TAXJAR_API_KEY", "from-env")

	order := writeFile(t, "order.json", `{"from_country":"CA","to_country":"CA","to_zip":"M5V 2T6","to_state":"ON","amount":16.95,"shipping":10}`)

	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"tax", order, "--api-url", server.URL(), "-o", "json"})
	require.NoError(t, cmd.Execute())

	var doc struct {
		Tax taxjar.Tax `json:"tax"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 3.5, doc.Tax.AmountToCollect)
	assert.Equal(t, 1.35, doc.Tax.OrderBreakdown.GST)
	assert.Equal(t, "Bearer from-env", server.Requests()[0].Header.Get("Authorization"))
}

func TestTaxCommand_Stdin(t *testing.T) {
	clearEnv(t)
	server := newServer(t, taxjartest.FixtureTaxesInternational)

	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("from_country: FI\nto_country: FI\namount: 16.95\nshipping: 10\n"))
	cmd.SetArgs([]string{"tax", "-", "--api-key", "k", "--api-url", server.URL()})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "6.47")
	assert.Contains(t, buf.String(), "Country")
	assert.Contains(t, buf.String(), "24%")
}

func TestTaxCommand_ConfigFile(t *testing.T) {
	clearEnv(t)
	server := newServer(t, taxjartest.FixtureTaxes)
	config := writeFile(t, "taxjar.yaml", "api_key: from-file\napi_url: "+server.URL()+"\napi_version: \"2022-01-24\"\ntimeout: 5s\n")
	order := writeFile(t, "order.yaml", usOrderYAML)

	cmd := cli.NewRootCmdForTest()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"tax", order, "--config", config})
	require.NoError(t, cmd.Execute())

	req := server.Requests()[0]
	assert.Equal(t, "Bearer from-file", req.Header.Get("Authorization"))
	assert.Equal(t, "2022-01-24", req.Header.Get("x-api-version"))
}

func TestTaxCommand_APIError(t *testing.T) {
	clearEnv(t)
	server := newServer(t, taxjartest.FixtureTaxes)
	server.RequireAPIKey("right")
	order := writeFile(t, "order.yaml", usOrderYAML)

	cmd := cli.NewRootCmdForTest()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"tax", order, "--api-key", "wrong", "--api-url", server.URL()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, taxjar.IsAPIError(err))
	assert.Contains(t, cli.RenderError(err), "Not authorized for route")
}

func TestTaxCommand_MissingAPIKey(t *testing.T) {
	clearEnv(t)
	order := writeFile(t, "order.yaml", usOrderYAML)

	cmd := cli.NewRootCmdForTest()
	cmd.SetArgs([]string{"tax", order, "--env-file", ""})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API key")
}

func TestTaxCommand_BadOutput(t *testing.T) {
	cmd := cli.NewRootCmdForTest()
	cmd.SetArgs([]string{"tax", "order.yaml", "-o", "xml"})
	assert.Error(t, cmd.Execute())
}

func TestTaxCommand_MissingOrderFile(t *testing.T) {
	clearEnv(t)
	cmd := cli.NewRootCmdForTest()
	cmd.SetArgs([]string{"tax", filepath.Join(t.TempDir(), "nope.yaml"), "--api-key", "k"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening order file")
}

func TestTaxCommand_MissingEnvFile(t *testing.T) {
	clearEnv(t)
	cmd := cli.NewRootCmdForTest()
	cmd.SetArgs([]string{"tax", "order.yaml", "--env-file", filepath.Join(t.TempDir(), "missing.env")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading")
}

func TestTaxCommand_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("TAXJAR_API_KEY")
	server := newServer(t, taxjartest.FixtureTaxes)
	envFile := writeFile(t, "test.env", "TAXJAR_API_KEY=from-dotenv\n")
	order := writeFile(t, "order.yaml", usOrderYAML)

	cmd := cli.NewRootCmdForTest()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"tax", order, "--env-file", envFile, "--api-url", server.URL()})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "Bearer from-dotenv", server.Requests()[0].Header.Get("Authorization"))
}

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), taxjar.Version)
}
