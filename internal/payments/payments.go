package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewReference mints the correlation id linking a pending payment to its
// eventual provider verification: a UUIDv4 with the hyphens stripped.
func NewReference() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Status values reported by the payment provider.
const (
	StatusMined  = "mined"
	StatusFailed = "failed"
)

// ProviderStatus is the raw status payload returned by the provider for one
// transaction.
type ProviderStatus struct {
	Reference         string          `json:"reference"`
	TransactionID     string          `json:"transaction_id"`
	TransactionStatus string          `json:"transaction_status"`
	Raw               json.RawMessage `json:"-"`
}

// Succeeded reports whether the provider considers the payment final and good.
func (s *ProviderStatus) Succeeded() bool {
	return s.TransactionStatus == StatusMined
}

// Config holds the provider endpoint and credentials.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	AppID   string        `yaml:"app_id"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client queries the remote payment provider for transaction status. One
// attempt per call, no retries.
type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, client: httpClient}
}

// VerifyTransaction fetches the provider's view of the given transaction id.
func (c *Client) VerifyTransaction(ctx context.Context, providerTxID string) (*ProviderStatus, error) {
	if providerTxID == "" {
		return nil, fmt.Errorf("provider transaction id is empty")
	}

	url := fmt.Sprintf("%s/minikit/transaction/%s?app_id=%s", c.cfg.BaseURL, providerTxID, c.cfg.AppID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode status payload: %w", err)
	}

	var st ProviderStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("parse status payload: %w", err)
	}
	st.Raw = raw
	if st.TransactionID == "" {
		st.TransactionID = providerTxID
	}

	return &st, nil
}
