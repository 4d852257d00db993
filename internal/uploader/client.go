package uploader

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"forex-dashboard-go/internal/config"
	"forex-dashboard-go/internal/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientInterface defines the interface for the dashboard upload client.
type ClientInterface interface {
	CheckHealth(ctx context.Context) error
	UploadTrades(ctx context.Context, trades []models.TradeRecord) (*UploadResult, error)
}

// Client pushes trade records to the dashboard's upload endpoint.
// It implements the ClientInterface.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// UploadResult is the dashboard's response to an upload.
type UploadResult struct {
	Success       bool   `json:"success"`
	UploadedCount int    `json:"uploaded_count"`
	Message       string `json:"message"`
	Error         string `json:"error,omitempty"`
}

// NewClient creates a new upload client for the configured dashboard endpoint.
func NewClient(cfg *config.Uploader, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.Endpoint)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// CheckHealth probes the dashboard's liveness endpoint.
// This is a good way to test connectivity before uploading.
func (c *Client) CheckHealth(ctx context.Context) error {
	req := c.client.R()
	if _, err := c.doRequest(ctx, http.MethodGet, "/health", req); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// UploadTrades pushes a batch of trades and returns the dashboard's count of
// newly stored records.
func (c *Client) UploadTrades(ctx context.Context, trades []models.TradeRecord) (*UploadResult, error) {
	req := c.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(trades).
		SetResult(&UploadResult{})

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/upload-trades", req)
	if err != nil {
		c.logger.Error("Failed to upload trades after multiple attempts",
			zap.Int("batch_size", len(trades)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to upload trades: %w", err)
	}

	result := resp.Result().(*UploadResult)
	c.logger.Info("Uploaded batch",
		zap.Int("batch_size", len(trades)),
		zap.Int("uploaded_count", result.UploadedCount),
	)
	return result, nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.SetContext(ctx).Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.RawResponse != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests || statusCode >= 500 {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
