package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const refreshPath = "/api/v1/auth/refresh"

// maxResponseBytes bounds refresh response reads; a well-formed response is a
// few hundred bytes.
const maxResponseBytes = 1 << 20

// Error is the structured failure result for refresh calls. Status is zero
// when the request never produced an HTTP response (transport failure).
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return "refresh request failed: " + e.Message
	}
	return fmt.Sprintf("refresh request failed: status %d: %s", e.Status, e.Message)
}

// TokenResponse is the successful refresh endpoint payload.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// errorBody covers both {"message": ...} and {"detail": ...} error shapes the
// backend has emitted across versions.
type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Client calls the dashboard backend refresh endpoint.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// NewClient creates a refresh endpoint client. httpClient must not be nil;
// its timeout bounds the refresh call.
func NewClient(baseURL string, httpClient *http.Client, userAgent string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		userAgent: userAgent,
	}
}

// Refresh exchanges the refresh token for a new token pair. All failures
// return a [*Error]; a 2xx response missing either token field is treated as
// a failure with the observed status.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return TokenResponse{}, &Error{Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, bytes.NewReader(body))
	if err != nil {
		return TokenResponse{}, &Error{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return TokenResponse{}, &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return TokenResponse{}, &Error{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TokenResponse{}, &Error{Status: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
	}

	var tokens TokenResponse
	if err := json.Unmarshal(data, &tokens); err != nil {
		return TokenResponse{}, &Error{Status: resp.StatusCode, Message: "malformed refresh response"}
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return TokenResponse{}, &Error{Status: resp.StatusCode, Message: "refresh response missing tokens"}
	}

	return tokens, nil
}

func errorMessage(data []byte, status int) string {
	var parsed errorBody
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Detail != "" {
			return parsed.Detail
		}
	}
	return http.StatusText(status)
}
