package provider

import "time"

// Wire-level DTOs for the payment provider API.

type refundRequest struct {
	CaptureID   string `json:"capture_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Reason      string `json:"reason,omitempty"`
}

type refundResponse struct {
	RefundID    string    `json:"refund_id"`
	CaptureID   string    `json:"capture_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	RefundedAt  time.Time `json:"refunded_at"`
}

type errorResponse struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
