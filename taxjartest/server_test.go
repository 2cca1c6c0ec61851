package taxjartest

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixturesAreValidJSON(t *testing.T) {
	for _, name := range []string{FixtureTaxes, FixtureTaxesInternational, FixtureTaxesCanada, FixtureErrorUnauthorized} {
		data, err := Fixture(name)
		require.NoError(t, err, name)
		assert.True(t, json.Valid(data), name)
	}

	_, err := Fixture("missing.json")
	assert.Error(t, err)
}

func TestServerStub(t *testing.T) {
	server := NewServer()
	defer server.Close()

	require.NoError(t, server.StubFixture(http.MethodPost, "/v2/taxes", http.StatusOK, FixtureTaxes))

	req, err := http.NewRequest(http.MethodPost, server.URL()+"/taxes", strings.NewReader(`{"to_zip":"07446"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer k")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	want, _ := Fixture(FixtureTaxes)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(want), string(body))

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, "/v2/taxes", requests[0].Path)
	assert.Equal(t, "Bearer k", requests[0].Header.Get("Authorization"))
	assert.JSONEq(t, `{"to_zip":"07446"}`, string(requests[0].Body))
}

func TestServerUnstubbedRoute(t *testing.T) {
	server := NewServer()
	defer server.Close()

	resp, err := http.Get(server.URL() + "/rates/07446")
	require.NoError(t, err)
	defer resp.Body.Close()

	var doc map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", doc["error"])
}

func TestServerRequireAPIKey(t *testing.T) {
	server := NewServer()
	defer server.Close()
	server.Stub(http.MethodPost, "/v2/taxes", http.StatusOK, []byte(`{"tax":{}}`))
	server.RequireAPIKey("secret")

	resp, err := http.Post(server.URL()+"/taxes", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
