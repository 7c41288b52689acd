// Package transport implements the credential exchanges over the console's
// HTTP API. Failures are classified into the auth error taxonomy so the
// lifecycle manager never has to inspect HTTP details.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/safvlabs/go-console-client/auth"
)

const defaultTimeout = 15 * time.Second

var _ auth.Transport = (*Client)(nil)

// Client talks to the tenant-scoped auth endpoints:
// POST /t/{tenant}/login, /t/{tenant}/refresh and /t/{tenant}/logout.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client (primarily for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithClientLogger sets the transport logger.
func WithClientLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a transport client against the given API base URL
// (e.g. "https://console.example.com/v1").
func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type tokenRefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// errorResponse is the backend's problem body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// ExchangeCredentials trades an email/password pair for a token pair.
func (c *Client) ExchangeCredentials(ctx context.Context, tenantID, email, password string) (*auth.TokenGrant, error) {
	var out tokenPairResponse
	err := c.post(ctx, tenantID, "login", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, c.classify(err, auth.InvalidCredentialsErr, http.StatusUnauthorized, http.StatusForbidden)
	}
	return &auth.TokenGrant{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    time.Duration(out.ExpiresIn) * time.Second,
	}, nil
}

// ExchangeRefreshToken trades a refresh token for a new access token. The
// server keeps the refresh token, so the grant carries none.
func (c *Client) ExchangeRefreshToken(ctx context.Context, tenantID, refreshToken string) (*auth.TokenGrant, error) {
	var out tokenRefreshResponse
	err := c.post(ctx, tenantID, "refresh", refreshRequest{RefreshToken: refreshToken}, &out)
	if err != nil {
		return nil, c.classify(err, auth.SessionExpiredErr, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden)
	}
	return &auth.TokenGrant{
		AccessToken: out.AccessToken,
		ExpiresIn:   time.Duration(out.ExpiresIn) * time.Second,
	}, nil
}

// InvalidateRefreshToken revokes a refresh token. Best effort by contract.
func (c *Client) InvalidateRefreshToken(ctx context.Context, tenantID, refreshToken string) error {
	if err := c.post(ctx, tenantID, "logout", refreshRequest{RefreshToken: refreshToken}, nil); err != nil {
		// No status carries extra meaning here, every failure degrades the
		// same way.
		return c.classify(err, auth.TransportUnavailableErr)
	}
	return nil
}

// rejection is a structured 4xx answer from the backend.
type rejection struct {
	status int
	detail string
}

func (r *rejection) Error() string {
	if r.detail != "" {
		return r.detail
	}
	return fmt.Sprintf("request rejected with status %d", r.status)
}

// classify wraps a post failure as the given rejection sentinel when the
// backend answered with one of the listed statuses, or as
// TransportUnavailableErr for everything else (network failure, unexpected
// status, undecodable body).
func (c *Client) classify(err error, rejected error, statuses ...int) error {
	var r *rejection
	if errors.As(err, &r) {
		for _, status := range statuses {
			if r.status == status {
				return errors.Wrap(rejected, r.Error())
			}
		}
		return errors.Wrap(auth.TransportUnavailableErr, r.Error())
	}
	return errors.Wrap(auth.TransportUnavailableErr, err.Error())
}

func (c *Client) post(ctx context.Context, tenantID, operation string, body, out any) error {
	endpoint := fmt.Sprintf("%s/t/%s/%s", c.baseURL, url.PathEscape(tenantID), operation)

	raw, err := json.Marshal(body)
	if err != nil {
		return errors.Wrapf(err, "[Client.post] marshal %s body", operation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return errors.Wrapf(err, "[Client.post] build %s request", operation)
	}
	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[Client.post] %s request", operation)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("operation", operation).
		Str("tenant_id", tenantID).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Msg("auth exchange")

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "[Client.post] decode %s response", operation)
		}
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var problem errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&problem)
		return &rejection{status: resp.StatusCode, detail: problem.Detail}
	default:
		return errors.Errorf("[Client.post] %s answered status %d", operation, resp.StatusCode)
	}
}
