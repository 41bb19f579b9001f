package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "assetfetch/pkg/errors"
	"assetfetch/pkg/logger"
)

// maxDrain bounds how much of an error body is read before closing it
const maxDrain = 64 << 10

// Options configures a Client
type Options struct {
	BaseURL   string
	UserAgent string
	// Token is sent as an Authorization header when set
	Token string
	// Timeout of 0 means no timeout
	Timeout time.Duration
	// Headers are extra headers sent with every request
	Headers map[string]string
}

// Client retrieves raw assets from the upstream dataset
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a new upstream client
func NewClient(opts Options, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	headers := map[string]string{
		"User-Agent": opts.UserAgent,
		"Accept":     "image/*,*/*;q=0.8",
	}
	for key, value := range opts.Headers {
		headers[key] = value
	}
	if opts.Token != "" {
		headers["Authorization"] = "token " + opts.Token
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			// No keep-alive, so a dropped connection is never replayed as a second GET
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: true,
			},
		},
		headers: headers,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		logger:  log,
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// AssetURL builds <base>/<remoteID>/0.<ext>
func (c *Client) AssetURL(remoteID, ext string) string {
	return fmt.Sprintf("%s/%s/0.%s", c.baseURL, url.PathEscape(remoteID), ext)
}

// Fetch performs a single GET and returns the body of a 2xx response.
// The caller must close the returned body.
func (c *Client) Fetch(ctx context.Context, assetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeInvalidRequest, 0, err, "failed to create request: %v", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    assetURL,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      assetURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.New(errs.ErrorTypeNetwork, 0, err, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      assetURL,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
		resp.Body.Close()
		return nil, errs.FromStatus(resp.StatusCode)
	}

	return resp.Body, nil
}
