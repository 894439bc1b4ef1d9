// Package api is the HTTP client for the materials REST API.
package api

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

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
	"github.com/jrsteele09/go-materials-client/internal/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// API paths relative to the base URL.
const (
	PathLogin     = "/AdminAccount/Login"
	PathRefresh   = "/Account/RefreshToken"
	PathMaterials = "/Materials/GetAll/"

	maxBodyBytes     = 10 << 20
	requestIDHeader  = "X-Request-ID"
	defaultUserAgent = "materials-client/1.0"
)

// StatusError is returned for non-2xx responses that are not authentication failures.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// Client calls the login, refresh and materials endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client (timeouts, transport instrumentation).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[NewClient] baseURL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.Wrap(err, "[NewClient] invalid baseURL")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Login exchanges credentials for a token pair.
// A rejected login returns ErrInvalidCredentials; network and server failures return ErrTransport.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	resp, err := c.postAuth(ctx, PathLogin, LoginRequest{UserName: username, Password: password})
	if apperrors.Is(err, apperrors.ErrAuthExpired) || isClientError(err) {
		return nil, errors.Wrap(apperrors.ErrInvalidCredentials, err.Error())
	}
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, apperrors.ErrInvalidCredentials
	}
	return resp, nil
}

// Refresh exchanges the current pair for a new one. A rejected refresh returns ErrAuthExpired.
func (c *Client) Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResponse, error) {
	resp, err := c.postAuth(ctx, PathRefresh, RefreshRequest{AccessToken: accessToken, RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.Wrap(apperrors.ErrAuthExpired, "[Refresh] rejected")
	}
	return resp, nil
}

// GetMaterials fetches one page of materials using the bearer token.
// A 401 response returns ErrAuthExpired.
func (c *Client) GetMaterials(ctx context.Context, tok *oauth2.Token, filter MaterialsFilter) (*MaterialsPage, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, errors.Wrap(apperrors.ErrAuthExpired, "[GetMaterials] no access token")
	}

	encoded, err := filter.Encode()
	if err != nil {
		return nil, errors.Wrap(err, "[GetMaterials] encode filter")
	}

	req, err := c.newRequest(ctx, http.MethodGet, PathMaterials+"?filter="+url.QueryEscape(encoded), nil)
	if err != nil {
		return nil, err
	}
	tok.SetAuthHeader(req)

	var page MaterialsPage
	if err := c.do(req, &page); err != nil {
		return nil, err
	}
	if page.RemainingCount == nil {
		return nil, errors.Wrap(apperrors.ErrMalformedResponse, "[GetMaterials] missing RemainingCount")
	}
	if page.Materials == nil {
		page.Materials = []Material{}
	}
	return &page, nil
}

func (c *Client) postAuth(ctx context.Context, path string, body any) (*AuthResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp AuthResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Success && (utils.Value(resp.Token) == "" || utils.Value(resp.RefreshToken) == "") {
		return nil, errors.Wrapf(apperrors.ErrMalformedResponse, "%s: success without token pair", path)
	}
	return &resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, uuid.New().String())
	return req, nil
}

// do sends the request and decodes a JSON body into out, classifying failures.
func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("request failed")
		return apperrors.Join(apperrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", req.Header.Get(requestIDHeader)).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api response")

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.ErrAuthExpired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return apperrors.Join(apperrors.ErrTransport, &StatusError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
		})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperrors.Join(apperrors.ErrTransport, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.Join(apperrors.ErrMalformedResponse, err)
	}
	return nil
}

func isClientError(err error) bool {
	var se *StatusError
	return apperrors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500
}
