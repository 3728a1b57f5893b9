// ABOUTME: Live CRM REST client with OAuth client-credentials token exchange
// ABOUTME: Handles bearer auth, JSON requests, query pagination, and API error decoding
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultAPIVersion = "v62.0"
	defaultTimeout    = 15 * time.Second
	maxQueryPages     = 50
	maxErrorBody      = 64 << 10
)

// Config holds the connection settings for the CRM instance.
// Either ClientID/ClientSecret or a long-lived AccessToken must be set.
type Config struct {
	InstanceURL  string
	APIVersion   string
	ClientID     string
	ClientSecret string
	AccessToken  string
	Timeout      time.Duration
	HTTPClient   *http.Client
	// TokenCachePath, when set, persists exchanged tokens between runs.
	TokenCachePath string
}

// APIError is a non-2xx response from the CRM.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("crm api error %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("crm api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the CRM REST API.
type Client struct {
	baseURL    string
	apiVersion string
	http       *http.Client
	tokens     *cachedTokenSource
}

// NewClient builds a client for cfg. No network calls are made until first use.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.InstanceURL), "/")
	if base == "" {
		return nil, fmt.Errorf("crm instance url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid crm instance url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}

	var fetch func(context.Context) (*oauth2.Token, error)
	var store *TokenStore
	switch {
	case cfg.AccessToken != "":
		static := &oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"}
		fetch = func(context.Context) (*oauth2.Token, error) { return static, nil }
	case cfg.ClientID != "" && cfg.ClientSecret != "":
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     base + "/services/oauth2/token",
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		fetch = func(ctx context.Context) (*oauth2.Token, error) {
			return cc.Token(context.WithValue(ctx, oauth2.HTTPClient, httpClient))
		}
		if cfg.TokenCachePath != "" {
			store = &TokenStore{Path: cfg.TokenCachePath}
		}
	default:
		return nil, fmt.Errorf("crm credentials not configured: set client id and secret or an access token")
	}

	return &Client{
		baseURL:    base,
		apiVersion: version,
		http:       httpClient,
		tokens:     &cachedTokenSource{fetch: fetch, store: store},
	}, nil
}

// cachedTokenSource keeps the last token until it expires or the CRM rejects it.
type cachedTokenSource struct {
	mu    sync.Mutex
	fetch func(context.Context) (*oauth2.Token, error)
	store *TokenStore
	tok   *oauth2.Token
	// loaded is set once the on-disk cache has been consulted.
	loaded bool
}

func (s *cachedTokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tok == nil && s.store != nil && !s.loaded {
		s.loaded = true
		if tok, err := s.store.Load(); err == nil && tok != nil {
			s.tok = tok
		}
	}
	if s.tok.Valid() {
		return s.tok, nil
	}

	tok, err := s.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch access token: %w", err)
	}
	s.tok = tok
	if s.store != nil {
		// A cache write failure only costs a token exchange next run.
		_ = s.store.Save(tok)
	}
	return tok, nil
}

func (s *cachedTokenSource) Reset() {
	s.mu.Lock()
	s.tok = nil
	if s.store != nil {
		_ = s.store.Clear()
	}
	s.mu.Unlock()
}

// do sends one request and decodes a JSON response into out (if non-nil).
// A 401 drops the cached token and retries once with a fresh one.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, method, endpoint, payload)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			_ = resp.Body.Close()
			c.tokens.Reset()
			continue
		}

		return decodeResponse(resp, out)
	}
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	tok.SetAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm request failed: %w", err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode crm response: %w", err)
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}

	var list []struct {
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode"`
	}
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		apiErr.Code = list[0].ErrorCode
		apiErr.Message = list[0].Message
		return apiErr
	}

	var single struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &single); err == nil && single.Error != "" {
		apiErr.Code = single.Error
		apiErr.Message = single.Description
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

type queryPage[T any] struct {
	TotalSize      int    `json:"totalSize"`
	Done           bool   `json:"done"`
	NextRecordsURL string `json:"nextRecordsUrl"`
	Records        []T    `json:"records"`
}

// query runs a SOQL statement and follows nextRecordsUrl until done.
func query[T any](ctx context.Context, c *Client, soql string) ([]T, error) {
	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s", c.baseURL, c.apiVersion, url.QueryEscape(soql))

	var records []T
	for page := 0; page < maxQueryPages; page++ {
		var resp queryPage[T]
		if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
			return nil, err
		}
		records = append(records, resp.Records...)

		if resp.Done || resp.NextRecordsURL == "" {
			return records, nil
		}
		endpoint = c.baseURL + resp.NextRecordsURL
	}
	return nil, errors.New("crm query exceeded page limit")
}
