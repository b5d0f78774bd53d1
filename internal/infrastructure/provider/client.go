package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/config"
)

// HTTPProviderClient talks to the payment service provider's refund
// API with bearer-token auth.
type HTTPProviderClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenManager
}

func NewProviderClient(cfg config.ProviderConfig, tokens *TokenManager) application.PaymentProvider {
	return &HTTPProviderClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
		tokens: tokens,
	}
}

func (c *HTTPProviderClient) Refund(ctx context.Context, req application.ProviderRefundRequest, idempotencyKey string) (*application.ProviderRefundResponse, error) {
	url := fmt.Sprintf("%s/api/v1/refunds", c.baseURL)
	wireReq := refundRequest{
		CaptureID:   req.CaptureID,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Reason:      req.Reason,
	}

	resp, err := sendRequest[refundRequest, refundResponse](c, ctx, http.MethodPost, url, &wireReq, idempotencyKey)
	if err != nil {
		return nil, err
	}

	return &application.ProviderRefundResponse{
		RefundID:    resp.RefundID,
		CaptureID:   resp.CaptureID,
		AmountCents: resp.AmountCents,
		Currency:    resp.Currency,
		Status:      resp.Status,
		RefundedAt:  resp.RefundedAt,
	}, nil
}

func sendRequest[Req any, Resp any](c *HTTPProviderClient, ctx context.Context, method, url string, reqBody *Req, idempotencyKey string) (*Resp, error) {
	resp, err := c.doOnce(ctx, method, url, reqBody, idempotencyKey)
	if provErr, ok := application.IsProviderError(err); ok && provErr.StatusCode == http.StatusUnauthorized {
		// Token went stale mid-flight; refresh once and replay.
		c.tokens.Invalidate()
		resp, err = c.doOnce(ctx, method, url, reqBody, idempotencyKey)
	}
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var providerResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&providerResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}
	return &providerResp, nil
}

func (c *HTTPProviderClient) doOnce(ctx context.Context, method, url string, reqBody any, idempotencyKey string) (*http.Response, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, &application.ProviderError{
			Code:       errResp.Err,
			Message:    errResp.Message,
			StatusCode: resp.StatusCode,
		}
	}

	return resp, nil
}
