package app

import (
	"context"
	"sync"

	"polycopy/clients/clob"
	"polycopy/clients/notifier"
	"polycopy/clients/polymarketapi"
)

// mockNotifier records delivered alerts.
type mockNotifier struct {
	mu          sync.Mutex
	whaleAlerts []notifier.WhaleAlert
	copyAlerts  []notifier.CopyAlert
}

func (m *mockNotifier) SendWhaleAlert(alert notifier.WhaleAlert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.whaleAlerts = append(m.whaleAlerts, alert)
}

func (m *mockNotifier) SendCopyAlert(alert notifier.CopyAlert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.copyAlerts = append(m.copyAlerts, alert)
}

func (m *mockNotifier) Close() error { return nil }

func (m *mockNotifier) whaleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.whaleAlerts)
}

func (m *mockNotifier) copyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.copyAlerts)
}

// mockTradeFeed queues batches for GetLargeTrades and records calls.
type mockTradeFeed struct {
	mu      sync.Mutex
	batches [][]polymarketapi.Trade
	err     error
	calls   int
}

func (m *mockTradeFeed) queue(batch []polymarketapi.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, batch)
}

func (m *mockTradeFeed) GetLargeTrades(_ context.Context, _ float64, _ int) ([]polymarketapi.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.batches) == 0 {
		return nil, nil
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	return batch, nil
}

// mockUserTradeFeed serves per-wallet trade batches and records fetch floors.
type mockUserTradeFeed struct {
	mu     sync.Mutex
	trades map[string][]polymarketapi.Trade
	errs   map[string]error
	froms  map[string][]int64
}

func newMockUserTradeFeed() *mockUserTradeFeed {
	return &mockUserTradeFeed{
		trades: make(map[string][]polymarketapi.Trade),
		errs:   make(map[string]error),
		froms:  make(map[string][]int64),
	}
}

func (m *mockUserTradeFeed) set(wallet string, trades []polymarketapi.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[wallet] = trades
}

func (m *mockUserTradeFeed) setError(wallet string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[wallet] = err
}

func (m *mockUserTradeFeed) fetches(wallet string) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.froms[wallet]...)
}

func (m *mockUserTradeFeed) GetUserTrades(_ context.Context, wallet string, from int64, _ int) ([]polymarketapi.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.froms[wallet] = append(m.froms[wallet], from)
	if err := m.errs[wallet]; err != nil {
		return nil, err
	}
	return append([]polymarketapi.Trade(nil), m.trades[wallet]...), nil
}

// submittedOrder captures one SubmitOrder call.
type submittedOrder struct {
	tokenID string
	price   float64
	size    float64
	side    string
}

// mockSubmitter records order submissions and returns a scripted response.
type mockSubmitter struct {
	mu     sync.Mutex
	orders []submittedOrder
	err    error
	nextID string
}

func (m *mockSubmitter) SubmitOrder(_ context.Context, tokenID string, price, size float64, side string) (*clob.OrderResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders = append(m.orders, submittedOrder{tokenID: tokenID, price: price, size: size, side: side})
	if m.err != nil {
		return nil, m.err
	}

	id := m.nextID
	if id == "" {
		id = "order-1"
	}
	return &clob.OrderResponse{Success: true, OrderID: id, Status: "matched"}, nil
}

func (m *mockSubmitter) submissions() []submittedOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]submittedOrder(nil), m.orders...)
}

func testTrade(txHash, asset string, size, price float64) polymarketapi.Trade {
	return polymarketapi.Trade{
		ProxyWallet:     "0x1234567890abcdef1234567890abcdef12345678",
		Side:            "BUY",
		Size:            polymarketapi.Numeric(size),
		Price:           polymarketapi.Numeric(price),
		Timestamp:       polymarketapi.Timestamp(1704067200),
		Asset:           asset,
		TransactionHash: txHash,
		Title:           "Test Market",
		Slug:            "test-market",
		Outcome:         "Yes",
	}
}
