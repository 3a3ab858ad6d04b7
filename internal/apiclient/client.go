package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/irvision/portal/internal/apipaths"
	"github.com/irvision/portal/internal/domain"
	"golang.org/x/net/publicsuffix"
)

// Options configures a Client
type Options struct {
	BaseOrigin string            // API origin, e.g. http://localhost:5001 (see ResolveBaseOrigin)
	Timeout    time.Duration     // Zero means no client-side timeout
	Transport  http.RoundTripper // Defaults to http.DefaultTransport
	Logger     *slog.Logger
}

// Client talks to the auth API. It keeps a cookie jar so the session cookie
// set by login/register is sent with every later request.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// AuthResponse is the body of login and register responses
type AuthResponse struct {
	OK   bool             `json:"ok"`
	User *domain.Identity `json:"user,omitempty"`
	Msg  string           `json:"msg,omitempty"`
}

type meResponse struct {
	User *domain.Identity `json:"user"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// New creates the API client. One client is built per process and reused.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseOrigin)
	if err != nil {
		return nil, fmt.Errorf("invalid base origin %q: %w", opts.BaseOrigin, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base origin %q: scheme must be http or https", opts.BaseOrigin)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid base origin %q: missing host", opts.BaseOrigin)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Jar:       jar,
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		logger: logger,
	}, nil
}

// BaseOrigin returns the origin all requests are sent to
func (c *Client) BaseOrigin() string {
	return c.baseURL.String()
}

// Me fetches the current user. A nil identity means the server confirmed there is no session.
func (c *Client) Me(ctx context.Context) (*domain.Identity, error) {
	resp, err := c.do(ctx, http.MethodGet, apipaths.AuthMe, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// An API that guards /me with 401 is answering "nobody is logged in".
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(http.MethodGet, apipaths.AuthMe, resp)
	}

	var body meResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.WrapTransport("GET "+apipaths.AuthMe, fmt.Errorf("failed to decode response: %w", err))
	}
	return body.User, nil
}

// Login posts credentials. A server rejection is reported in the response, not as an error.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, apipaths.AuthLogin, username, password)
}

// Register creates an account and starts a session for it
func (c *Client) Register(ctx context.Context, username, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, apipaths.AuthRegister, username, password)
}

// Logout ends the server session. The response body is ignored.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, apipaths.AuthLogout, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(http.MethodPost, apipaths.AuthLogout, resp)
	}
	return nil
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (*AuthResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, path, credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Rejections come back as 4xx with {ok:false,msg}; only server errors are transport failures.
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, statusError(http.MethodPost, path, resp)
	}

	var body AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.WrapTransport("POST "+path, fmt.Errorf("status %d, failed to decode response: %w", resp.StatusCode, err))
	}
	return &body, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	op := method + " " + path

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	target := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "api: sending request",
		"method", method,
		"url", target.String(),
		"request_id", requestID,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "api: request failed",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err,
		)
		return nil, domain.WrapTransport(op, err)
	}

	c.logger.DebugContext(ctx, "api: response received",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
	)
	return resp, nil
}

func statusError(method, path string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return domain.WrapTransport(method+" "+path, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body)))
}
