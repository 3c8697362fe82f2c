package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := openApp(&RootOptions{Database: tempDB(t), Format: "text"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	handler, err := newServer(a)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestServe_Healthz(t *testing.T) {
	srv := newTestServer(t)
	resp, body := getJSON(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestServe_VisitsCompleteTour(t *testing.T) {
	srv := newTestServer(t)

	for _, spot := range []string{"spot7", "spot8", "spot9"} {
		resp, body := postJSON(t, srv.URL+"/v1/visits", `{"spot":"`+spot+`","id":"u1"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, spot, body["spot"])
	}

	resp, first := getJSON(t, srv.URL+"/v1/status?set=map_noar&id=u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, first["completed"])
	assert.Equal(t, true, first["should_notify"])

	_, second := getJSON(t, srv.URL+"/v1/status?set=map_noar&id=u1")
	assert.Equal(t, true, second["completed"])
	assert.Equal(t, false, second["should_notify"])
	assert.Greater(t, second["seq"], first["seq"])
}

func TestServe_Errors(t *testing.T) {
	srv := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/v1/status?set=basement")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"].(map[string]any)["message"], "basement")

	resp, _ = postJSON(t, srv.URL+"/v1/visits", `{"spot":"spot42","id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/v1/visits", `{"spot":"spot7","extra":true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServe_RequiresVisitorID(t *testing.T) {
	srv := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/v1/status")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "id is required", body["error"].(map[string]any)["message"])

	for path, payload := range map[string]string{
		"/v1/visits":      `{"spot":"spot7"}`,
		"/v1/survey":      `{"answers":{"fun":"5"}}`,
		"/v1/survey/sync": `{"id":"  "}`,
	} {
		resp, body = postJSON(t, srv.URL+path, payload)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		assert.Equal(t, "id is required", body["error"].(map[string]any)["message"], path)
	}
}

func TestServe_DevicesKeepSeparateStampBooks(t *testing.T) {
	srv := newTestServer(t)

	for _, spot := range []string{"spot1", "spot3", "spot4"} {
		resp, _ := postJSON(t, srv.URL+"/v1/visits", `{"spot":"`+spot+`","id":"device-a"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	_, other := getJSON(t, srv.URL+"/v1/status?set=map&id=device-b")
	assert.Equal(t, "device-b", other["identifier"])
	assert.Equal(t, float64(0), other["count"])
	assert.Equal(t, false, other["completed"])
	assert.Equal(t, false, other["should_notify"])

	_, owner := getJSON(t, srv.URL+"/v1/status?set=map&id=device-a")
	assert.Equal(t, float64(3), owner["count"])
	assert.Equal(t, true, owner["completed"])
	assert.Equal(t, true, owner["should_notify"])
}

func TestServe_Survey(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/v1/survey", `{"id":"u1","answers":{"fun":"5"},"return_to":"https://evil.example/x.html"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["pending"])
	assert.Equal(t, "map.html", body["return_to"])

	resp, body = postJSON(t, srv.URL+"/v1/survey/sync", `{"id":"u1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["sent"])

	_, status := getJSON(t, srv.URL+"/v1/status?id=u1")
	assert.Equal(t, true, status["survey_submitted"])
}

func TestServe_Metrics(t *testing.T) {
	srv := newTestServer(t)
	getJSON(t, srv.URL+"/v1/status?id=u1")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "stampbook_reconciliations_total")
}
