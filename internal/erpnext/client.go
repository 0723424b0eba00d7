// Package erpnext is a read-only client for the Frappe/ERPNext REST API.
//
// It covers the three concerns the dashboard needs from the remote system:
// cookie-based session authentication (login/logout), raw listing requests
// against /api/resource endpoints, and robust pagination of those listings
// into complete result sets.
//
// Required Environment Variables (consumed via internal/config):
//   - ERPNEXT_BASE_URL: Base URL of the ERPNext instance
//   - ERPNEXT_USER / ERPNEXT_PASSWORD: Login credentials
//   - ERPNEXT_VERIFY_SSL: Set to false for self-signed instances (default true)
//   - ERPNEXT_PAGE_SIZE: Page size hint for listing requests (default 1000)
package erpnext

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"erpdash/internal/logger"
)

// Row is a single record as returned by a listing endpoint: loosely-typed
// field values keyed by fieldname. Nothing beyond the normalization boundary
// should touch a Row directly.
type Row map[string]any

// Getter is the authenticated HTTP fetcher the pagination layer runs on.
// Implementations must return ErrUnauthorized for 401/403 responses and a
// generic transport/HTTP error otherwise.
type Getter interface {
	Get(ctx context.Context, path string, params url.Values) ([]Row, error)
}

// ClientConfig holds configuration for the ERPNext HTTP client.
type ClientConfig struct {
	// BaseURL is the ERPNext instance root, e.g. "https://erp.example.com".
	BaseURL string

	// VerifySSL controls TLS certificate verification.
	VerifySSL bool

	// Timeout is the per-request timeout. Default: 60 seconds.
	Timeout time.Duration
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		VerifySSL: true,
		Timeout:   60 * time.Second,
	}
}

// Client is a cookie-session ERPNext API client. It is not safe for
// concurrent use; the dashboard pipeline is strictly sequential.
type Client struct {
	baseURL string
	http    *http.Client
	user    string
	log     zerolog.Logger
}

// NewClient creates an ERPNext client with a fresh cookie jar. The client is
// unauthenticated until Login succeeds.
func NewClient(cfg ClientConfig) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := http.DefaultTransport
	if !cfg.VerifySSL {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: transport,
		},
		log: logger.WithComponent("erpnext-client"),
	}, nil
}

// User returns the identity of the authenticated user, or "" before login.
func (c *Client) User() string {
	return c.user
}

// Login opens a session via /api/method/login. Success requires both a 200
// response and a "sid" session cookie.
func (c *Client) Login(ctx context.Context, user, password string) error {
	form := url.Values{}
	form.Set("usr", user)
	form.Set("pwd", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/method/login", strings.NewReader(form.Encode()))
	if err != nil {
		return &FetchError{Op: "Login", Path: "/api/method/login", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Op: "Login", Path: "/api/method/login", Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("user", user).Msg("Login rejected")
		return &APIError{Op: "Login", Path: "/api/method/login", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if !c.hasSessionCookie() {
		return &FetchError{Op: "Login", Path: "/api/method/login", Err: ErrLoginFailed}
	}

	c.user = user
	c.log.Info().Str("user", user).Msg("Logged in to ERPNext")
	return nil
}

// Logout closes the remote session (best-effort) and always clears the local
// identity. Callers owning a cache must flush it alongside.
func (c *Client) Logout(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/method/logout", nil)
	if err == nil {
		if resp, err := c.http.Do(req); err == nil {
			resp.Body.Close()
		}
	}

	if jar, jarErr := cookiejar.New(nil); jarErr == nil {
		c.http.Jar = jar
	}
	c.log.Info().Str("user", c.user).Msg("Logged out of ERPNext")
	c.user = ""
}

// Get performs a listing request and decodes the "data" envelope. 401 and 403
// map to ErrUnauthorized; other non-2xx statuses surface the raw server body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]Row, error) {
	if c.user == "" {
		return nil, &FetchError{Op: "Get", Path: path, Err: ErrNotLoggedIn}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{Op: "Get", Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Op: "Get", Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("Session rejected by server")
		return nil, &FetchError{Op: "Get", Path: path, Err: ErrUnauthorized}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &APIError{Op: "Get", Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var envelope struct {
		Data []Row `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &FetchError{Op: "Get", Path: path, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return envelope.Data, nil
}

func (c *Client) hasSessionCookie() bool {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	for _, cookie := range c.http.Jar.Cookies(base) {
		if cookie.Name == "sid" && cookie.Value != "" && cookie.Value != "Guest" {
			return true
		}
	}
	return false
}
