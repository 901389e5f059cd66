package board

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"yandl/pkg/config"
	errs "yandl/pkg/errors"
	"yandl/pkg/logger"
	"yandl/pkg/ratelimit"
	"yandl/pkg/retry"
)

// Fetcher is the capability the crawler and downloader need from the board
type Fetcher interface {
	// FetchPage returns the HTML body of url
	FetchPage(ctx context.Context, url string) ([]byte, error)
	// FetchBinary returns the payload of url as a stream; the caller closes it
	FetchBinary(ctx context.Context, url string) (io.ReadCloser, error)
}

// Client is an HTTP client for the image board
type Client struct {
	httpClient     *http.Client
	downloadClient *http.Client
	headers        map[string]string
	baseURL        string
	limiter        ratelimit.Limiter
	retry          retry.Policy
	logger         logger.Logger
}

var _ Fetcher = (*Client)(nil)

// NewClient creates a client with the default headers and no pacing or retries
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		downloadClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"User-Agent":      config.DefaultConfig().Board.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		baseURL: BaseURL,
		limiter: ratelimit.Unlimited{},
		retry:   retry.NoRetry(),
		logger:  log,
	}
}

// NewClientFromConfig creates a client from the board, download, rate limit
// and retry sections of cfg.
func NewClientFromConfig(cfg *config.Config, log logger.Logger) *Client {
	c := NewClient(cfg.Board.RequestTimeout, log)
	c.downloadClient = &http.Client{Timeout: cfg.Download.DownloadTimeout}
	c.baseURL = cfg.Board.BaseURL
	c.SetLimiter(ratelimit.FromConfig(cfg.RateLimit))

	policy := retry.FromConfig(cfg.Retry)
	policy.OnRetry = func(attempt int, err error) {
		c.logger.WarnWithFields("retrying request", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})
	}
	c.SetRetryPolicy(policy)

	if cfg.Board.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.Board.UserAgent)
	}
	return c
}

// BaseURL returns the board origin relative hrefs are resolved against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetLimiter replaces the request pacing limiter
func (c *Client) SetLimiter(l ratelimit.Limiter) {
	if l == nil {
		l = ratelimit.Unlimited{}
	}
	c.limiter = l
}

// SetRetryPolicy replaces the retry policy
func (c *Client) SetRetryPolicy(p retry.Policy) {
	c.retry = p
}

// FetchPage GETs url and returns the whole body
func (c *Client) FetchPage(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		resp, err := c.get(ctx, c.httpClient, url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return errs.Network(url, fmt.Errorf("read body: %w", err))
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// FetchBinary GETs url and hands back the open body on a 2xx response
func (c *Client) FetchBinary(ctx context.Context, url string) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		resp, err := c.get(ctx, c.downloadClient, url)
		if err != nil {
			return err
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// get waits for the limiter, sends the request and checks the status. On
// error the response body is already closed.
func (c *Client) get(ctx context.Context, hc *http.Client, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			URL:     url,
			Err:     err,
		}
	}

	resp, err := c.doRequest(hc, req)
	if err != nil {
		return nil, err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(hc *http.Client, req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := hc.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Network(req.URL.String(), err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// checkResponseStatus maps non-2xx responses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	reqURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		reqURL = resp.Request.URL.String()
	}

	if e := errs.FromStatus(resp.StatusCode, reqURL); e != nil {
		return e
	}
	return nil
}
