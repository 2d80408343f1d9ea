package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/evrenbal/voicechat/internal/apperr"
)

// Client talks to a Paystack-style payment gateway. Amounts are minor units
// (kobo/cents) end to end.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type initializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url"`
}

// InitializeTransaction registers a pending transaction and returns the
// gateway's checkout URL for the client to follow.
func (c *Client) InitializeTransaction(ctx context.Context, email string, amountCents int64, reference, callbackURL string) (string, error) {
	body, err := json.Marshal(initializeRequest{
		Email:       email,
		Amount:      amountCents,
		Reference:   reference,
		CallbackURL: callbackURL,
	})
	if err != nil {
		return "", fmt.Errorf("encode initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build initialize request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	respBody, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", &apperr.UpstreamError{Status: status, Body: string(respBody)}
	}

	var parsed struct {
		Data struct {
			AuthorizationURL string `json:"authorization_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil || parsed.Data.AuthorizationURL == "" {
		return "", &apperr.UpstreamError{Status: status, Body: "malformed initialize response"}
	}
	return parsed.Data.AuthorizationURL, nil
}

type VerifyResult struct {
	Status      string
	AmountCents int64
}

// VerifyTransaction asks the gateway for the final state of a reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	respBody, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &apperr.UpstreamError{Status: status, Body: string(respBody)}
	}

	var parsed struct {
		Data struct {
			Status string `json:"status"`
			Amount int64  `json:"amount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil || parsed.Data.Status == "" {
		return nil, &apperr.UpstreamError{Status: status, Body: "malformed verify response"}
	}
	return &VerifyResult{Status: parsed.Data.Status, AmountCents: parsed.Data.Amount}, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &apperr.UpstreamError{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &apperr.UpstreamError{Status: resp.StatusCode, Body: err.Error()}
	}
	return body, resp.StatusCode, nil
}
