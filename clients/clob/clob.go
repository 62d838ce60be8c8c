// Package clob submits copy orders to the Polymarket CLOB.
//
// The client is deliberately narrow: it posts an already-priced order and
// reports the outcome. Order construction and signing live behind the
// submission endpoint, authenticated with the API credentials from config.
package clob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"polycopy/config"

	"go.uber.org/zap"
)

// OrderRequest is the payload for a single order submission.
type OrderRequest struct {
	TokenID string  `json:"token_id"`
	Price   float64 `json:"price"`
	Size    float64 `json:"size"`
	Side    string  `json:"side"` // BUY or SELL
}

// OrderResponse is the CLOB's answer to an order submission.
type OrderResponse struct {
	Success   bool   `json:"success"`
	OrderID   string `json:"orderID"`
	OrderHash string `json:"transactionHash"`
	Status    string `json:"status"`
	ErrorMsg  string `json:"errorMsg"`
}

// Client submits orders against the CLOB API.
type Client struct {
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
	secret     string
	passphrase string
}

func NewClient(logger *zap.Logger, cfg *config.Config) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		logger: logger.Named("clob"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    cfg.Polymarket.ClobAPIURL,
		apiKey:     cfg.Clob.APIKey,
		secret:     cfg.Clob.Secret,
		passphrase: cfg.Clob.Passphrase,
	}
}

// SubmitOrder posts an order and returns the CLOB response. A response
// with success=false is returned as an error so callers have a single
// failure path.
func (c *Client) SubmitOrder(
	ctx context.Context,
	tokenID string,
	price float64,
	size float64,
	side string,
) (*OrderResponse, error) {
	if tokenID == "" {
		return nil, fmt.Errorf("tokenID is empty")
	}

	side = strings.ToUpper(strings.TrimSpace(side))
	if side != "BUY" && side != "SELL" {
		return nil, fmt.Errorf("invalid side %q", side)
	}

	payload := OrderRequest{
		TokenID: tokenID,
		Price:   price,
		Size:    size,
		Side:    side,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/order", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("POLY_API_KEY", c.apiKey)
	req.Header.Set("POLY_PASSPHRASE", c.passphrase)
	req.Header.Set("POLY_SECRET", c.secret)
	req.Header.Set("POLY_TIMESTAMP", strconv.FormatInt(time.Now().Unix(), 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("order rejected: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var orderResp OrderResponse
	if err := json.Unmarshal(respBody, &orderResp); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	if !orderResp.Success {
		return nil, fmt.Errorf("order failed: %s", orderResp.ErrorMsg)
	}

	c.logger.Debug("order submitted",
		zap.String("orderID", orderResp.OrderID),
		zap.String("side", side),
		zap.Float64("size", size),
		zap.Float64("price", price),
	)

	return &orderResp, nil
}
