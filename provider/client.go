// Package provider implements the HTTP client for the upstream banking
// data provider that feeds the ledger: connected accounts and
// transaction pulls, with retry on data that is still being prepared.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/benchwise/finsight/core"
)

const (
	defaultTimeout     = 30 * time.Second
	maxAttempts        = 5
	initialBackoff     = 500 * time.Millisecond
	errProductNotReady = "PRODUCT_NOT_READY"
)

// Client calls the banking provider API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	sleep      func(time.Duration)
}

// Config configures the provider client.
type Config struct {
	// BaseURL is the provider API root (e.g. "https://api.provider.com").
	BaseURL string

	// APIKey authenticates requests.
	APIKey string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithSleeper overrides the backoff sleep. Tests use this to avoid
// real delays.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

// NewClient creates a provider client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type accountsResponse struct {
	Connections []core.Connection `json:"connections"`
}

// Accounts fetches the user's bank connections and account balances.
func (c *Client) Accounts(ctx context.Context, accessToken string) ([]core.Connection, error) {
	var out accountsResponse
	err := c.doRequest(ctx, "POST", "/api/v1/accounts", map[string]string{
		"access_token": accessToken,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Connections, nil
}

type transactionsRequest struct {
	AccessToken string `json:"access_token"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	ErrorCode    string             `json:"error_code,omitempty"`
}

// Transactions fetches transactions for the inclusive ISO date window.
// Freshly linked connections report their transaction product as not
// ready yet; those pulls are retried with exponential backoff.
func (c *Client) Transactions(ctx context.Context, accessToken, startDate, endDate string) ([]core.Transaction, error) {
	req := transactionsRequest{
		AccessToken: accessToken,
		StartDate:   startDate,
		EndDate:     endDate,
	}

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		var out transactionsResponse
		err := c.doRequest(ctx, "POST", "/api/v1/transactions", req, &out)
		if err == nil && out.ErrorCode != errProductNotReady {
			return out.Transactions, nil
		}
		if err != nil && !isRetryable(err) {
			return nil, err
		}
		if attempt == maxAttempts {
			if err != nil {
				return nil, fmt.Errorf("transactions not available after %d attempts: %w", maxAttempts, err)
			}
			return nil, fmt.Errorf("transactions not available after %d attempts: provider still preparing data", maxAttempts)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		c.sleep(backoff)
		backoff *= 2
	}
}

// statusError is an HTTP-level failure from the provider.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d: %s", e.code, e.body)
}

func isRetryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return false
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, out interface{}) error {
	url := c.baseURL + endpoint

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &statusError{code: resp.StatusCode, body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
