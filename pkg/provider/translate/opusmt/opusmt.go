// Package opusmt provides a translation provider backed by an OPUS-MT
// translation server (e.g., a MarianMT model behind an HTTP API at
// POST /translate).
//
// Usage:
//
//	p, err := opusmt.New("http://localhost:5000")
//	out, err := p.Translate(ctx, "good morning", "en", "de")
package opusmt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/translive/translive/pkg/provider/translate"
)

const defaultTimeout = 30 * time.Second

// Compile-time assertion that Provider satisfies translate.Provider.
var _ translate.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// Provider implements translate.Provider backed by an OPUS-MT HTTP server.
type Provider struct {
	serverURL  string
	httpClient *http.Client
}

// New creates a new Provider that connects to the translation server at
// serverURL (e.g., "http://localhost:5000"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("opusmt: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  serverURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// request is the JSON body sent to the /translate endpoint.
type request struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// response is the JSON body returned by the /translate endpoint.
type response struct {
	Translation string `json:"translation"`
	Error       string `json:"error,omitempty"`
}

// Translate implements translate.Provider.
func (p *Provider) Translate(ctx context.Context, text, source, target string) (string, error) {
	if text == "" {
		return "", nil
	}

	body, err := json.Marshal(request{Text: text, Source: source, Target: target})
	if err != nil {
		return "", fmt.Errorf("opusmt: marshal request: %w", err)
	}

	endpoint := p.serverURL + "/translate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("opusmt: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("opusmt: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("opusmt: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("opusmt: read response body: %w", err)
	}

	var result response
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("opusmt: parse JSON response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("opusmt: server error: %s", result.Error)
	}

	return result.Translation, nil
}
