package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nerrad567/weather-node/internal/infrastructure/config"
	"github.com/nerrad567/weather-node/internal/telemetry"
)

// Query parameter names understood by the collector endpoint.
const (
	paramTime        = "time"
	paramTemperature = "sensor1"
	paramPressure    = "pressure"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 64 << 10

// Client delivers readings to the remote collector with plain HTTP GETs.
//
// Every request is bounded by the configured collector timeout. The client
// keeps no connection pool between uploads: the node may switch networks
// between attempts.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a client for cfg.URL.
func New(cfg config.CollectorConfig) *Client {
	return &Client{
		endpoint:   cfg.URL,
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = true
	return &http.Client{Timeout: timeout, Transport: transport}
}

// UploadURL builds the GET URL for r:
//
//	<endpoint>?time=<timestamp>&sensor1=<temperature>&pressure=<pressure>
//
// Existing query parameters on the endpoint are kept.
func (c *Client) UploadURL(r telemetry.Reading) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: parsing endpoint: %w", ErrRequestFailed, err)
	}

	q := u.Query()
	q.Set(paramTime, r.Timestamp)
	q.Set(paramTemperature, strconv.FormatFloat(r.Temperature, 'f', -1, 64))
	q.Set(paramPressure, strconv.FormatFloat(r.Pressure, 'f', -1, 64))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Upload sends r and returns the HTTP status code.
//
// Success is transport-level: any response from the collector counts as
// delivered, whatever its status. The body is drained and discarded.
func (c *Client) Upload(ctx context.Context, r telemetry.Reading) (int, error) {
	target, err := c.UploadURL(r)
	if err != nil {
		return 0, err
	}

	resp, err := c.get(ctx, target)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	return resp.StatusCode, nil
}

// Fetch performs a GET on rawURL and returns the body, which must be 2xx.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("User-Agent", "weathernode")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	return resp, nil
}
