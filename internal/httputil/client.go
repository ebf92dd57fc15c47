// Package httputil provides the authenticated HTTP client used for every call
// to the complaint backend.
package httputil

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
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	apierrors "github.com/R3E-Network/complaint_client/internal/errors"
	"github.com/R3E-Network/complaint_client/internal/metrics"
	"github.com/R3E-Network/complaint_client/internal/session"
	"github.com/R3E-Network/complaint_client/pkg/logger"
)

const (
	// DefaultBaseURL is the development backend used when nothing is configured.
	DefaultBaseURL = "http://192.168.0.104:8000"
	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBodyBytes caps buffered response bodies.
	DefaultMaxBodyBytes int64 = 8 << 20

	apiSuffix     = "/api"
	storagePrefix = "/storage/"

	// RequestIDHeader carries a per-request id for log correlation.
	RequestIDHeader = "X-Request-ID"
)

// RequestInterceptor runs before a request is sent. Returning an error aborts it.
type RequestInterceptor func(ctx context.Context, req *http.Request) error

// ResponseInterceptor runs after every request. resp is nil on transport
// failure. The returned error replaces err for the caller.
type ResponseInterceptor func(ctx context.Context, req *http.Request, resp *Response, err error) error

// Config configures a Client.
type Config struct {
	// BaseURL is the backend host, with or without the /api suffix.
	BaseURL string
	Timeout time.Duration
	// MaxBodyBytes caps buffered response bodies.
	MaxBodyBytes int64

	// HTTPClient overrides the transport. Its Timeout is replaced by Timeout.
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     *logger.Logger
}

// Client sends requests to the backend, attaching the session token and
// erasing it when the backend answers 401.
type Client struct {
	httpClient   *http.Client
	apiURL       string
	host         string
	maxBodyBytes int64

	session *session.Session
	metrics *metrics.Metrics
	log     *logger.Logger

	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// New creates a client bound to sess. A nil session sends every request
// unauthenticated.
func New(cfg Config, sess *session.Session) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	apiURL, host, err := ResolveBaseURL(raw)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		httpClient = &copied
	}
	httpClient.Timeout = timeout
	// Redirects are returned to the caller as-is.
	httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewDiscard()
	}

	c := &Client{
		httpClient:   httpClient,
		apiURL:       apiURL,
		host:         host,
		maxBodyBytes: maxBody,
		session:      sess,
		metrics:      cfg.Metrics,
		log:          log.Named("httputil"),
	}
	if sess != nil {
		c.requestInterceptors = append(c.requestInterceptors, c.attachToken)
		c.responseInterceptors = append(c.responseInterceptors, c.eraseTokenOnUnauthorized)
	}
	return c, nil
}

// ResolveBaseURL validates raw and returns the /api endpoint root and the bare host.
func ResolveBaseURL(raw string) (apiURL, host string, err error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", "", fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid base URL %q: missing host", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", "", fmt.Errorf("invalid base URL %q: query and fragment are not allowed", raw)
	}

	host = strings.TrimSuffix(trimmed, apiSuffix)
	return host + apiSuffix, host, nil
}

// AddRequestInterceptor appends fn to the outbound chain.
func (c *Client) AddRequestInterceptor(fn RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, fn)
}

// AddResponseInterceptor appends fn to the inbound chain.
func (c *Client) AddResponseInterceptor(fn ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, fn)
}

// BaseURL returns the /api endpoint root.
func (c *Client) BaseURL() string { return c.apiURL }

// ImageURL resolves a stored image path against the backend's storage prefix.
func (c *Client) ImageURL(imagePath string) string {
	imagePath = strings.TrimLeft(strings.TrimSpace(imagePath), "/")
	if imagePath == "" {
		return ""
	}
	return c.host + storagePrefix + imagePath
}

// Do sends a request to path (relative to /api) and buffers the response.
// Non-2xx statuses and transport failures are returned as *errors.APIError.
func (c *Client) Do(ctx context.Context, method, path string, body Body) (*Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	for _, intercept := range c.requestInterceptors {
		if err := intercept(ctx, req); err != nil {
			return nil, err
		}
	}

	route := routeLabel(path)
	start := time.Now()
	c.metrics.RequestStarted()

	resp, err := c.send(req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	elapsed := time.Since(start)
	c.metrics.RequestFinished(method, route, status, elapsed)

	entry := c.log.WithContext(ctx).WithFields(logrus.Fields{
		"method":     method,
		"route":      route,
		"status":     status,
		"request_id": req.Header.Get(RequestIDHeader),
		"elapsed_ms": elapsed.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Debug("backend request failed")
	} else {
		entry.Debug("backend request")
	}

	for _, intercept := range c.responseInterceptors {
		err = intercept(ctx, req, resp, err)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body Body) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body Body) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body Body) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var (
		reader      io.Reader
		contentType = "application/json"
	)
	if body != nil {
		r, ct, err := body.Encode()
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = r
		if ct != "" {
			contentType = ct
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	requestID := logger.TraceIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(RequestIDHeader, requestID)
	return req, nil
}

func (c *Client) send(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.Network(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, apierrors.Network(fmt.Errorf("read response body: %w", err))
	}
	truncated := int64(len(data)) > c.maxBodyBytes
	if truncated {
		data = data[:c.maxBodyBytes]
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, apierrors.FromResponse(resp.StatusCode, data)
	}
	if truncated {
		return out, fmt.Errorf("response body exceeds %d bytes", c.maxBodyBytes)
	}
	return out, nil
}

// attachToken sets the bearer header when a token is stored.
func (c *Client) attachToken(ctx context.Context, req *http.Request) error {
	token, err := c.session.Token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// eraseTokenOnUnauthorized clears the session on any 401 and passes err through.
func (c *Client) eraseTokenOnUnauthorized(ctx context.Context, req *http.Request, resp *Response, err error) error {
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return err
	}
	if clearErr := c.session.Clear(ctx); clearErr != nil {
		c.log.WithContext(ctx).WithError(clearErr).Warn("failed to erase session token after 401")
		return err
	}
	c.metrics.TokenErased()
	c.log.WithContext(ctx).WithField("route", routeLabel(req.URL.Path)).Info("session token erased after 401")
	return err
}

// Response is a buffered backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON parses the body for path lookups.
func (r *Response) JSON() gjson.Result {
	if r == nil {
		return gjson.Result{}
	}
	return gjson.ParseBytes(r.Body)
}

// Decode unmarshals the whole body into target. An empty body is a no-op.
func (r *Response) Decode(target interface{}) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// DecodeKey unmarshals the value under key into target. It reports false,
// leaving target untouched, when the key is absent or null.
func (r *Response) DecodeKey(key string, target interface{}) (bool, error) {
	if r == nil || !gjson.ValidBytes(r.Body) {
		return false, nil
	}
	value := gjson.GetBytes(r.Body, key)
	if !value.Exists() || value.Type == gjson.Null {
		return false, nil
	}
	if err := json.Unmarshal([]byte(value.Raw), target); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// routeLabel collapses numeric path segments so metric labels stay bounded.
func routeLabel(path string) string {
	path = strings.TrimPrefix(path, apiSuffix)
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if seg != "" && strings.Trim(seg, "0123456789") == "" {
			segments[i] = ":id"
		}
	}
	return "/" + strings.Join(segments, "/")
}
