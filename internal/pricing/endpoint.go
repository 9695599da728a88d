package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNoSessionID is returned when the checkout endpoint answers without a session.
var ErrNoSessionID = errors.New("checkout endpoint returned no session id")

// EndpointError is a non-2xx answer from the checkout endpoint.
type EndpointError struct {
	StatusCode int
	Message    string
}

func (e *EndpointError) Error() string {
	return e.Message
}

type checkoutRequest struct {
	Price string `json:"price"`
}

type checkoutResponse struct {
	SessionID string `json:"sessionId"`
	Error     *struct {
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
	} `json:"error,omitempty"`
}

// EndpointClient calls a remote POST /api/createCheckoutSession endpoint.
type EndpointClient struct {
	url        string
	httpClient *http.Client
}

// NewEndpointClient targets the given endpoint URL. A nil client uses http.DefaultClient.
func NewEndpointClient(endpointURL string, httpClient *http.Client) *EndpointClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &EndpointClient{url: endpointURL, httpClient: httpClient}
}

func (c *EndpointClient) CreateCheckoutSession(ctx context.Context, priceID, accessToken string) (string, error) {
	body, err := json.Marshal(checkoutRequest{Price: priceID})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call checkout endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read checkout response: %w", err)
	}
	var out checkoutResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		} else if decodeErr != nil && len(strings.TrimSpace(string(raw))) > 0 {
			msg = strings.TrimSpace(string(raw))
		}
		return "", &EndpointError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode checkout response: %w", decodeErr)
	}
	if out.SessionID == "" {
		return "", ErrNoSessionID
	}
	return out.SessionID, nil
}
