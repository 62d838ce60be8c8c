package polymarketapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"polycopy/config"

	"go.uber.org/zap"
)

// PolymarketApiClient talks to the Polymarket data API.
type PolymarketApiClient struct {
	logger      *zap.Logger
	httpClient  *http.Client
	dataBaseURL string
}

func NewPolymarketApiClient(logger *zap.Logger, cfg *config.Config) *PolymarketApiClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PolymarketApiClient{
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		dataBaseURL: cfg.Polymarket.DataAPIURL,
	}
}

// ---- Data API types ----

// Numeric is a float64 that tolerates the data API's inconsistent numeric
// encodings: raw numbers, quoted numbers, null, or missing fields all
// decode without failing the page. Anything unparseable becomes zero so a
// single malformed record cannot take down a poll cycle.
type Numeric float64

func (n *Numeric) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Numeric(f)
	return nil
}

// Timestamp is a unix-seconds timestamp with the same tolerant decoding
// as Numeric.
type Timestamp int64

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*t = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some endpoints return fractional timestamps.
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			*t = Timestamp(int64(f))
			return nil
		}
		*t = 0
		return nil
	}
	*t = Timestamp(i)
	return nil
}

// Trade represents a trade from the data API.
type Trade struct {
	ProxyWallet     string    `json:"proxyWallet"`
	Side            string    `json:"side"` // BUY or SELL
	Size            Numeric   `json:"size"`
	Price           Numeric   `json:"price"`
	Timestamp       Timestamp `json:"timestamp"`
	ConditionID     string    `json:"conditionId"`
	Asset           string    `json:"asset"`
	TransactionHash string    `json:"transactionHash"`

	// Market metadata
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	EventSlug    string `json:"eventSlug"`
	Icon         string `json:"icon"` // Market image URL
	Outcome      string `json:"outcome"`
	OutcomeIndex int    `json:"outcomeIndex"`

	// User profile
	Name         string `json:"name"`
	Pseudonym    string `json:"pseudonym"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage"`
}

// Notional returns the cash value of the trade.
func (t *Trade) Notional() float64 {
	return float64(t.Size) * float64(t.Price)
}

// MarketSlug returns the market slug, falling back to the event slug when
// the data API omits the market-level one.
func (t *Trade) MarketSlug() string {
	if t.Slug != "" {
		return t.Slug
	}
	return t.EventSlug
}

// GetLargeTrades fetches recent trades whose cash value meets minCashValue.
func (c *PolymarketApiClient) GetLargeTrades(
	ctx context.Context,
	minCashValue float64,
	limit int,
) ([]Trade, error) {
	u, err := url.Parse(c.dataBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid dataBaseURL: %w", err)
	}
	u.Path = "/trades"

	q := u.Query()
	q.Set("filterType", "CASH")
	q.Set("filterAmount", strconv.FormatFloat(minCashValue, 'f', -1, 64))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	var trades []Trade
	if err := c.doGet(ctx, u.String(), &trades); err != nil {
		return nil, fmt.Errorf("get large trades: %w", err)
	}

	return trades, nil
}

// GetUserTrades fetches trades for a specific wallet, optionally bounded
// below by a unix timestamp.
func (c *PolymarketApiClient) GetUserTrades(
	ctx context.Context,
	wallet string,
	from int64,
	limit int,
) ([]Trade, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, fmt.Errorf("wallet is empty")
	}

	u, err := url.Parse(c.dataBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid dataBaseURL: %w", err)
	}
	u.Path = "/trades"

	q := u.Query()
	q.Set("user", wallet)
	if from > 0 {
		q.Set("from", strconv.FormatInt(from, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	var trades []Trade
	if err := c.doGet(ctx, u.String(), &trades); err != nil {
		return nil, fmt.Errorf("get user trades: %w", err)
	}

	return trades, nil
}

// doGet is a helper that performs a GET request and decodes JSON response.
func (c *PolymarketApiClient) doGet(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	return nil
}
