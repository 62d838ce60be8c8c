package app

import (
	"context"
	"sync"
	"time"

	"polycopy/clients/polymarketapi"

	"go.uber.org/zap"
)

// UserTradeFeed fetches trades for a single wallet from a timestamp floor.
type UserTradeFeed interface {
	GetUserTrades(ctx context.Context, wallet string, from int64, limit int) ([]polymarketapi.Trade, error)
}

type MonitorConfig struct {
	PollInterval time.Duration
	PageLimit    int
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval: 30 * time.Second,
		PageLimit:    50,
	}
}

// Monitor runs one polling loop per followed wallet. Loops are fully
// independent: a failing cycle for one wallet never affects another wallet
// or the whale detector.
type Monitor struct {
	logger     *zap.Logger
	feed       UserTradeFeed
	registry   *FollowRegistry
	dispatcher *Dispatcher
	config     MonitorConfig

	onCopyResult func(*CopyResult)

	mu     sync.Mutex
	active map[string]struct{}
}

func NewMonitor(logger *zap.Logger, feed UserTradeFeed, registry *FollowRegistry, dispatcher *Dispatcher, config MonitorConfig) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Monitor{
		logger:     logger.Named("monitor"),
		feed:       feed,
		registry:   registry,
		dispatcher: dispatcher,
		config:     config,
		active:     make(map[string]struct{}),
	}
}

// SetOnCopyResult registers the callback invoked for every successful copy.
// The callback runs synchronously on the wallet's monitor goroutine.
func (m *Monitor) SetOnCopyResult(fn func(*CopyResult)) {
	m.onCopyResult = fn
}

// StartMonitoring launches the polling loop for a followed wallet. Fails
// with ErrNotFollowing if no FollowRecord exists. Starting an already
// monitored wallet is a logged no-op.
func (m *Monitor) StartMonitoring(ctx context.Context, wallet string) error {
	wallet = normalizeWallet(wallet)

	if !m.registry.IsFollowing(wallet) {
		return ErrNotFollowing
	}

	m.mu.Lock()
	if _, running := m.active[wallet]; running {
		m.mu.Unlock()
		m.logger.Info("already monitoring wallet", zap.String("wallet", shortID(wallet)))
		return nil
	}
	m.active[wallet] = struct{}{}
	m.mu.Unlock()

	m.logger.Info("monitoring wallet",
		zap.String("wallet", shortID(wallet)),
		zap.Duration("pollInterval", m.config.PollInterval),
	)

	go m.monitorLoop(ctx, wallet)
	return nil
}

// StopMonitoring unfollows the wallet. The loop observes the missing record
// on its next iteration and exits; shutdown latency is bounded by the poll
// interval. Returns the final counters.
func (m *Monitor) StopMonitoring(wallet string) (FollowRecord, error) {
	return m.registry.Unfollow(wallet)
}

func (m *Monitor) IsMonitoring(wallet string) bool {
	wallet = normalizeWallet(wallet)

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.active[wallet]
	return ok
}

func (m *Monitor) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *Monitor) monitorLoop(ctx context.Context, wallet string) {
	defer func() {
		m.mu.Lock()
		delete(m.active, wallet)
		m.mu.Unlock()
	}()

	for {
		if !m.registry.IsFollowing(wallet) {
			m.logger.Info("monitor loop exiting: wallet unfollowed",
				zap.String("wallet", shortID(wallet)),
			)
			return
		}

		m.runCycle(ctx, wallet)

		select {
		case <-ctx.Done():
			m.logger.Info("monitor loop exiting: context canceled",
				zap.String("wallet", shortID(wallet)),
			)
			return
		case <-time.After(m.config.PollInterval):
		}
	}
}

// runCycle performs one fetch-evaluate-dispatch pass. Errors degrade the
// cycle, never the loop.
func (m *Monitor) runCycle(ctx context.Context, wallet string) {
	watermark, ok := m.registry.Watermark(wallet)
	if !ok {
		return
	}

	// Snapshot the fetch time before issuing the request so a trade landing
	// mid-flight is still covered by the next cycle's floor.
	fetchedAt := time.Now().Unix()

	trades, err := m.feed.GetUserTrades(ctx, wallet, watermark, m.config.PageLimit)
	if err != nil {
		m.logger.Warn("user trade fetch failed",
			zap.String("wallet", shortID(wallet)),
			zap.Error(err),
		)
		return
	}

	m.registry.SetWatermark(wallet, fetchedAt)

	for _, trade := range trades {
		if int64(trade.Timestamp) < watermark {
			continue
		}

		result := m.dispatcher.CopyTrade(ctx, wallet, trade)
		if result == nil {
			continue
		}
		if result.Err != nil {
			// Failure results are logged by the dispatcher; nothing to do.
			continue
		}
		if m.onCopyResult != nil {
			m.onCopyResult(result)
		}
	}
}
