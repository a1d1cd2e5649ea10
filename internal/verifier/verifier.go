package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Proof is the verification bundle submitted by the client. It is forwarded
// to the provider verbatim.
type Proof struct {
	MerkleRoot        string `json:"merkle_root"`
	NullifierHash     string `json:"nullifier_hash"`
	Proof             string `json:"proof"`
	VerificationLevel string `json:"verification_level"`
	Action            string `json:"action"`
	Signal            string `json:"signal,omitempty"`
}

// ProviderError carries the provider's error code and detail so the auth
// handler can attach them to the 401 response.
type ProviderError struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("verification rejected: %s (%s)", e.Detail, e.Code)
}

// Config holds the provider endpoint and credentials.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	AppID   string        `yaml:"app_id"`
	APIKey  string        `yaml:"api_key"`
	Action  string        `yaml:"action"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client talks to the remote identity-verification API. One attempt per
// call, no retries; a slow provider is bounded by the configured timeout.
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

// Verify forwards the proof bundle to the provider. A 2xx response means the
// proof is valid; anything else is decoded into a ProviderError where
// possible.
func (c *Client) Verify(ctx context.Context, p Proof) error {
	if p.Action == "" {
		p.Action = c.cfg.Action
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode proof: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/verify/%s", c.cfg.BaseURL, c.cfg.AppID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var perr ProviderError
	if err := json.NewDecoder(resp.Body).Decode(&perr); err != nil || perr.Code == "" {
		return &ProviderError{Code: fmt.Sprintf("http_%d", resp.StatusCode), Detail: "verification provider rejected the proof"}
	}

	return &perr
}
