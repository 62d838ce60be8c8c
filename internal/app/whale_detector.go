package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"polycopy/clients/polymarketapi"

	"go.uber.org/zap"
)

// TradeFeed is the read-only feed the whale detector polls.
type TradeFeed interface {
	GetLargeTrades(ctx context.Context, minCashValue float64, limit int) ([]polymarketapi.Trade, error)
}

// WhaleTrade is a feed trade that cleared the minimum notional threshold.
type WhaleTrade struct {
	Trade      polymarketapi.Trade `json:"trade"`
	Value      float64             `json:"value"`
	TraderName string              `json:"trader_name"`
	DetectedAt time.Time           `json:"detected_at"`
}

type WhaleDetectorConfig struct {
	MinTradeValue float64
	PollInterval  time.Duration
	PageLimit     int
	MaxHistory    int
	MaxSeenTx     int
}

func DefaultWhaleDetectorConfig() WhaleDetectorConfig {
	return WhaleDetectorConfig{
		MinTradeValue: 10000,
		PollInterval:  5 * time.Second,
		PageLimit:     50,
		MaxHistory:    100,
		MaxSeenTx:     10000,
	}
}

// WhaleDetector polls the trade feed for large trades, deduplicates them by
// transaction identity, and keeps a bounded most-recent-first history.
type WhaleDetector struct {
	logger *zap.Logger
	feed   TradeFeed

	configMu sync.RWMutex
	config   WhaleDetectorConfig

	mu        sync.Mutex
	seen      map[string]struct{}
	seenOrder []string
	history   []WhaleTrade

	polls    int
	detected int
}

func NewWhaleDetector(logger *zap.Logger, feed TradeFeed, config WhaleDetectorConfig) *WhaleDetector {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WhaleDetector{
		logger: logger.Named("whale-detector"),
		feed:   feed,
		config: config,
		seen:   make(map[string]struct{}),
	}
}

func (d *WhaleDetector) getConfig() WhaleDetectorConfig {
	d.configMu.RLock()
	defer d.configMu.RUnlock()
	return d.config
}

// UpdateConfig replaces the detector configuration.
func (d *WhaleDetector) UpdateConfig(config WhaleDetectorConfig) {
	d.configMu.Lock()
	defer d.configMu.Unlock()
	d.config = config
}

// FetchLargeTrades queries the feed for trades over the minimum notional.
// Transport failures are absorbed: the cycle sees an empty batch and the
// next poll retries.
func (d *WhaleDetector) FetchLargeTrades(ctx context.Context) []polymarketapi.Trade {
	cfg := d.getConfig()

	trades, err := d.feed.GetLargeTrades(ctx, cfg.MinTradeValue, cfg.PageLimit)
	if err != nil {
		d.logger.Warn("large trade fetch failed", zap.Error(err))
		return nil
	}

	return trades
}

// CheckForNewWhales fetches one batch and returns the trades not seen
// before, in feed order. Already-seen transactions are never returned twice.
func (d *WhaleDetector) CheckForNewWhales(ctx context.Context) []WhaleTrade {
	trades := d.FetchLargeTrades(ctx)

	d.mu.Lock()
	d.polls++
	d.mu.Unlock()

	var fresh []WhaleTrade
	for _, trade := range trades {
		if whale, ok := d.Observe(trade); ok {
			fresh = append(fresh, whale)
		}
	}

	return fresh
}

// Observe runs a single trade through the threshold filter and the dedupe
// set. It returns the recorded WhaleTrade and true when the trade is a new
// whale. Used by both the polling path and the websocket path.
func (d *WhaleDetector) Observe(trade polymarketapi.Trade) (WhaleTrade, bool) {
	cfg := d.getConfig()

	value := trade.Notional()
	if value < cfg.MinTradeValue {
		return WhaleTrade{}, false
	}

	key := fmt.Sprintf("%s:%s", trade.TransactionHash, trade.Asset)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, dup := d.seen[key]; dup {
		return WhaleTrade{}, false
	}
	d.markSeenLocked(key, cfg.MaxSeenTx)

	whale := WhaleTrade{
		Trade:      trade,
		Value:      value,
		TraderName: traderDisplayName(trade),
		DetectedAt: time.Now(),
	}

	// Most recent first, bounded by MaxHistory.
	d.history = append([]WhaleTrade{whale}, d.history...)
	if cfg.MaxHistory > 0 && len(d.history) > cfg.MaxHistory {
		d.history = d.history[:cfg.MaxHistory]
	}
	d.detected++

	return whale, true
}

// markSeenLocked records a transaction key, evicting the oldest entries once
// the set reaches maxSeen. Caller must hold d.mu.
func (d *WhaleDetector) markSeenLocked(key string, maxSeen int) {
	d.seen[key] = struct{}{}
	d.seenOrder = append(d.seenOrder, key)

	if maxSeen <= 0 {
		return
	}
	for len(d.seenOrder) > maxSeen {
		oldest := d.seenOrder[0]
		d.seenOrder = d.seenOrder[1:]
		delete(d.seen, oldest)
	}
}

// RecentWhales returns up to limit history entries, most recent first.
// A limit of zero or less returns the full history.
func (d *WhaleDetector) RecentWhales(limit int) []WhaleTrade {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.history)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]WhaleTrade, n)
	copy(out, d.history[:n])
	return out
}

// AssetIDs returns the distinct asset IDs currently in the whale history.
func (d *WhaleDetector) AssetIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[string]struct{}, len(d.history))
	var ids []string
	for _, w := range d.history {
		if w.Trade.Asset == "" {
			continue
		}
		if _, ok := seen[w.Trade.Asset]; ok {
			continue
		}
		seen[w.Trade.Asset] = struct{}{}
		ids = append(ids, w.Trade.Asset)
	}
	return ids
}

// WhaleDetectorStats is a point-in-time snapshot for the stats endpoint.
type WhaleDetectorStats struct {
	Polls       int `json:"polls"`
	Detected    int `json:"detected"`
	HistorySize int `json:"history_size"`
	SeenTxSize  int `json:"seen_tx_size"`
}

func (d *WhaleDetector) Stats() WhaleDetectorStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	return WhaleDetectorStats{
		Polls:       d.polls,
		Detected:    d.detected,
		HistorySize: len(d.history),
		SeenTxSize:  len(d.seen),
	}
}

// Run polls the feed until ctx is canceled, invoking onWhale for every new
// whale trade. The callback runs synchronously on the polling goroutine.
func (d *WhaleDetector) Run(ctx context.Context, onWhale func(WhaleTrade)) {
	cfg := d.getConfig()

	d.logger.Info("whale detector started",
		zap.Float64("minTradeValue", cfg.MinTradeValue),
		zap.Duration("pollInterval", cfg.PollInterval),
	)

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	// Initial poll before the first tick.
	d.poll(ctx, onWhale)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("whale detector stopped")
			return
		case <-ticker.C:
			d.poll(ctx, onWhale)
		}
	}
}

func (d *WhaleDetector) poll(ctx context.Context, onWhale func(WhaleTrade)) {
	fresh := d.CheckForNewWhales(ctx)
	for _, whale := range fresh {
		d.logger.Info("whale trade detected",
			zap.String("trader", whale.TraderName),
			zap.String("wallet", shortID(whale.Trade.ProxyWallet)),
			zap.String("side", whale.Trade.Side),
			zap.Float64("value", whale.Value),
			zap.String("market", whale.Trade.Title),
		)
		if onWhale != nil {
			onWhale(whale)
		}
	}
}

// traderDisplayName prefers the profile name, then the pseudonym, then a
// shortened wallet address.
func traderDisplayName(trade polymarketapi.Trade) string {
	if name := nz(trade.Name, ""); name != "" {
		return name
	}
	if pseudonym := nz(trade.Pseudonym, ""); pseudonym != "" {
		return pseudonym
	}
	return shortID(trade.ProxyWallet)
}
