package notifier

import (
	"time"
)

// WhaleAlert contains the data for a whale-trade notification.
type WhaleAlert struct {
	// Trader info
	TraderName    string
	TraderAddress string
	WalletURL     string

	// Trade info
	Side     string // BUY or SELL
	Shares   float64
	Price    float64
	Value    float64 // size * price
	Outcome  string

	// Market info
	MarketTitle string
	MarketSlug  string
	MarketURL   string
	MarketImage string

	// Alert metadata
	TransactionHash string
	Timestamp       time.Time
}

// CopyAlert contains the data for a successful copy-trade notification.
type CopyAlert struct {
	// Who we copied
	TraderName    string
	TraderAddress string

	// Original trade
	Side          string
	OriginalSize  float64
	Price         float64
	MarketTitle   string
	MarketSlug    string
	Outcome       string

	// Our copy
	CopySize   float64
	CopyValue  float64 // copy size * price
	OrderID    string
	OrderHash  string

	Timestamp time.Time
}

// Notifier is the interface for fanning alerts out to delivery channels.
type Notifier interface {
	// SendWhaleAlert sends a whale-trade notification.
	SendWhaleAlert(alert WhaleAlert)

	// SendCopyAlert sends a copy-trade notification.
	SendCopyAlert(alert CopyAlert)

	// Close cleans up any resources.
	Close() error
}

// MultiNotifier broadcasts alerts to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a new MultiNotifier with the given notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	// Filter out nil notifiers
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &MultiNotifier{notifiers: active}
}

// SendWhaleAlert sends the alert to all registered notifiers.
func (m *MultiNotifier) SendWhaleAlert(alert WhaleAlert) {
	for _, n := range m.notifiers {
		n.SendWhaleAlert(alert)
	}
}

// SendCopyAlert sends the alert to all registered notifiers.
func (m *MultiNotifier) SendCopyAlert(alert CopyAlert) {
	for _, n := range m.notifiers {
		n.SendCopyAlert(alert)
	}
}

// Close closes all registered notifiers.
func (m *MultiNotifier) Close() error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Count returns the number of active notifiers.
func (m *MultiNotifier) Count() int {
	return len(m.notifiers)
}
