package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/stampbook/internal/tour"
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// HTTPSource talks to a Firebase Realtime Database REST endpoint.
type HTTPSource struct {
	base *url.URL
	auth string
	http *http.Client
}

var (
	_ Source = (*HTTPSource)(nil)
	_ Writer = (*HTTPSource)(nil)
)

// NewHTTPSource creates a source rooted at baseURL
// (e.g. "https://tour-default-rtdb.firebaseio.com"). authToken, when
// non-empty, is sent as the auth query parameter. timeout <= 0 disables the
// client-side timeout.
func NewHTTPSource(baseURL, authToken string, timeout time.Duration) (*HTTPSource, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote base url %q: scheme must be http or https", baseURL)
	}
	return &HTTPSource{
		base: u,
		auth: authToken,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// FetchStamps performs GET <base>/users/<id>/stamps.json.
func (s *HTTPSource) FetchStamps(ctx context.Context, id string) (tour.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint("users", id, "stamps"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read stamps response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch stamps returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return decodeStamps(body)
}

// Update performs a multi-path PATCH <base>/.json.
func (s *HTTPSource) Update(ctx context.Context, updates map[string]any) error {
	payload, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("update returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// endpoint builds <base>/<segments...>.json with each segment escaped.
func (s *HTTPSource) endpoint(segments ...string) string {
	u := *s.base
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	u.RawPath = u.EscapedPath() + "/" + strings.Join(escaped, "/") + ".json"
	u.Path, _ = url.PathUnescape(u.RawPath)
	if s.auth != "" {
		q := u.Query()
		q.Set("auth", s.auth)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// decodeStamps interprets a stamps node. JSON null is an empty record;
// anything other than an object is malformed.
func decodeStamps(body []byte) (tour.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return tour.Record{}, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return recordFrom(raw), nil
}
