package provider

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
)

// SandboxURL is the card issuer's sandbox API.
const SandboxURL = "https://sandbox.lithic.com/v1"

// ErrUnreadableResponse marks responses that could not be decoded,
// including error statuses without a readable error body.
var ErrUnreadableResponse = errors.New("unreadable provider response")

// APIError is a well-formed error reported by the provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.Status, e.Message)
}

// Client talks to the card issuer over HTTPS.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another deployment. An empty u keeps
// the sandbox.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient creates a sandbox client authenticating with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    SandboxURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateAccount enrolls an individual account holder.
func (c *Client) CreateAccount(ctx context.Context, p Profile) (Account, error) {
	req := accountRequest{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		DOB:         p.DOB,
		Address:     p.Address,
		SSNLastFour: p.SSNLastFour,
		Type:        AccountTypeIndividual,
	}
	var out Account
	if err := c.do(ctx, http.MethodPost, "/accounts", req, &out); err != nil {
		return Account{}, err
	}
	return out, nil
}

// CreateCard issues a virtual card for accountToken.
func (c *Client) CreateCard(ctx context.Context, accountToken string) (Card, error) {
	req := cardRequest{AccountToken: accountToken, Type: CardTypeVirtual, Memo: CardMemo}
	var out Card
	if err := c.do(ctx, http.MethodPost, "/cards", req, &out); err != nil {
		return Card{}, err
	}
	return out, nil
}

// SimulateAuthorization asks the sandbox to authorize amount (minor units) on cardToken.
func (c *Client) SimulateAuthorization(ctx context.Context, cardToken string, amount int64, descriptor string) (Authorization, error) {
	req := authorizeRequest{CardToken: cardToken, Amount: amount, Descriptor: descriptor}
	var out Authorization
	if err := c.do(ctx, http.MethodPost, "/simulate/authorize", req, &out); err != nil {
		return Authorization{}, err
	}
	return out, nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		if err := json.Unmarshal(raw, &eb); err != nil {
			return fmt.Errorf("%w: HTTP Error %d", ErrUnreadableResponse, resp.StatusCode)
		}
		msg := eb.Message
		if eb.Error != nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		if msg == "" {
			msg = fmt.Sprintf("HTTP Error %d", resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnreadableResponse, path, err)
	}
	return nil
}
