package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/earth2-mcp/gateway/auth"
	"github.com/earth2-mcp/gateway/config"
	"github.com/earth2-mcp/gateway/resilience"
)

// Client is the sole owner of the outbound connection pool to the Earth-2
// forecast service. All fields are fixed at construction.
type Client struct {
	base       string
	httpClient *http.Client

	healthPath   string
	forecastPath string
	visualPath   string
	analyzePath  string
	streamPath   string

	ngcKey string

	requestTimeout time.Duration
	submitTimeout  time.Duration

	retry *resilience.RetryConfig
}

func New(cfg *config.Config) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		base: strings.TrimRight(cfg.Earth2BaseURL, "/"),
		httpClient: &http.Client{
			Transport: auth.NewBearerTransport(cfg.InternalAPIToken, transport),
		},
		healthPath:     cfg.Earth2HealthPath,
		forecastPath:   cfg.Earth2ForecastPath,
		visualPath:     cfg.Earth2VisualPath,
		analyzePath:    cfg.Earth2AnalyzePath,
		streamPath:     cfg.Earth2StreamPath,
		ngcKey:         cfg.NGCAPIKey,
		requestTimeout: cfg.RequestTimeout,
		submitTimeout:  cfg.SubmitTimeout,
		retry: &resilience.RetryConfig{
			MaxAttempts:     cfg.RetryMaxAttempts,
			InitialDelay:    cfg.RetryBaseDelay,
			MaxDelay:        10 * time.Second,
			Multiplier:      2.0,
			RandomizeFactor: 0.1,
		},
	}
}

func (c *Client) url(path string) string {
	return c.base + path
}

// do performs one outbound call with a per-attempt timeout and returns the
// response body. Non-2xx statuses come back as *UpstreamError.
func (c *Client) do(ctx context.Context, method, url string, timeout time.Duration, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debugf("earth2: %s %s", method, url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling forecast service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Warnf("earth2: %s %s -> %d", method, url, resp.StatusCode)
		return nil, &UpstreamError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, preview)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading forecast service response: %w", err)
	}
	return raw, nil
}

// errorMessage reduces an upstream error body to a single short message.
// Raw payloads are never passed through to callers.
func errorMessage(status int, preview []byte) string {
	var body struct {
		Detail  string `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(preview, &body); err == nil {
		switch {
		case body.Detail != "":
			return body.Detail
		case body.Error != "":
			return body.Error
		case body.Message != "":
			return body.Message
		}
	}
	return http.StatusText(status)
}

// withRetry reattempts transient failures: transport errors and 5xx answers.
// 4xx answers are final, as is any failure once the caller's context ended.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	rc := *c.retry
	rc.RetryIf = func(err error) bool {
		if ctx.Err() != nil {
			return false
		}
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return upstream.Status >= 500
		}
		return resilience.IsRetryable(err)
	}
	return resilience.RetryWithConfig(ctx, &rc, fn)
}
