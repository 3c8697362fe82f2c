package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stampbook/internal/tour"
)

func newTestSource(t *testing.T, h http.HandlerFunc) *HTTPSource {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	src, err := NewHTTPSource(srv.URL+"/", "secret", time.Second)
	require.NoError(t, err)
	return src
}

func TestHTTPSource_FetchStamps(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users/u1/stamps.json", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("auth"))
		_, _ = io.WriteString(w, `{"spot7": true, "spot8": false, "spot9": 1}`)
	})

	rec, err := src.FetchStamps(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, tour.Record{"spot7": true, "spot8": false, "spot9": true}, rec)
}

func TestHTTPSource_NullIsEmpty(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "null\n")
	})

	rec, err := src.FetchStamps(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, rec)
}

func TestHTTPSource_EscapesIdentifier(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/a%2Fb/stamps.json", r.URL.EscapedPath())
		_, _ = io.WriteString(w, "{}")
	})

	_, err := src.FetchStamps(context.Background(), "a/b")
	require.NoError(t, err)
}

func TestHTTPSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"permission denied", http.StatusUnauthorized, `{"error":"Permission denied"}`, "status 401"},
		{"malformed", http.StatusOK, `[true, false`, "malformed"},
		{"not an object", http.StatusOK, `"spot7"`, "malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := src.FetchStamps(context.Background(), "u1")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHTTPSource_Update(t *testing.T) {
	var got map[string]any
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/.json", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, "{}")
	})

	err := src.Update(context.Background(), map[string]any{
		"users/u1/stamps/spot7":   true,
		"users/u1/meta/updatedAt": 1700000000000,
	})
	require.NoError(t, err)
	assert.Equal(t, true, got["users/u1/stamps/spot7"])
	assert.Equal(t, float64(1700000000000), got["users/u1/meta/updatedAt"])
}

func TestHTTPSource_UpdateFailure(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	err := src.Update(context.Background(), map[string]any{"a": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestNewHTTPSource_RejectsBadScheme(t *testing.T) {
	_, err := NewHTTPSource("ftp://example.com", "", 0)
	assert.Error(t, err)
}

func TestAdapter_OverHTTPFailure(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	assert.Empty(t, NewAdapter(src, nil).FetchStampRecord(context.Background(), "u1"))
}
