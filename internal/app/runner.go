package app

import (
	"context"
	"net/http"
	"runtime"
	"runtime/debug"
	"time"

	clts "polycopy/clients"
	"polycopy/clients/notifier"
	"polycopy/clients/polymarketapi"
	"polycopy/clients/polymarketevents"
	"polycopy/config"

	"go.uber.org/zap"
)

// Build info - populated from embedded VCS info at init time
var (
	BuildCommit = "dev"
	BuildTime   = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if setting.Value != "" {
					BuildCommit = setting.Value
				}
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	}
}

// Runner wires the whale detector, follow registry, dispatcher, and the
// per-wallet monitors together and owns their lifecycles.
type Runner struct {
	clients *clts.Clients
	cfg     *config.Config

	detector    *WhaleDetector
	registry    *FollowRegistry
	dispatcher  *Dispatcher
	monitor     *Monitor
	statsServer *http.Server
	startTime   time.Time

	// Buffered so a slow notification channel never stalls a poll loop.
	whaleAlerts chan notifier.WhaleAlert
	copyAlerts  chan notifier.CopyAlert
}

// ServiceStats holds service statistics for the stats endpoints.
type ServiceStats struct {
	Build struct {
		Commit    string `json:"commit"`
		Time      string `json:"time,omitempty"`
		GoVersion string `json:"go_version"`
	} `json:"build"`

	StartTime string `json:"start_time"`
	Uptime    string `json:"uptime"`
	UptimeSec int64  `json:"uptime_seconds"`

	WebSocket struct {
		Enabled        bool   `json:"enabled"`
		MessageCount   uint64 `json:"message_count"`
		LastMessageAt  string `json:"last_message_at,omitempty"`
		LastMessageAgo string `json:"last_message_ago,omitempty"`
	} `json:"websocket"`

	Whales WhaleDetectorStats `json:"whales"`

	Following struct {
		Count             int     `json:"count"`
		Monitoring        int     `json:"monitoring"`
		TotalCopiedTrades int     `json:"total_copied_trades"`
		TotalVolumeCopied float64 `json:"total_volume_copied"`
	} `json:"following"`

	Notifications struct {
		DiscordEnabled  bool `json:"discord_enabled"`
		TelegramEnabled bool `json:"telegram_enabled"`
	} `json:"notifications"`

	Runtime struct {
		Goroutines int    `json:"goroutines"`
		HeapAlloc  uint64 `json:"heap_alloc"`
		NumGC      uint32 `json:"num_gc"`
		GoVersion  string `json:"go_version"`
		NumCPU     int    `json:"num_cpu"`
		GOOS       string `json:"goos"`
		GOARCH     string `json:"goarch"`
	} `json:"runtime"`
}

func NewRunner(clients *clts.Clients, cfg *config.Config) *Runner {
	return &Runner{
		clients:     clients,
		cfg:         cfg,
		whaleAlerts: make(chan notifier.WhaleAlert, 64),
		copyAlerts:  make(chan notifier.CopyAlert, 64),
	}
}

func (r *Runner) Run(ctx context.Context) error {
	r.startTime = time.Now()
	logger := r.clients.Logger
	cfg := r.cfg

	r.detector = NewWhaleDetector(logger, r.clients.Polymarket, WhaleDetectorConfig{
		MinTradeValue: cfg.Whale.MinTradeValue,
		PollInterval:  cfg.Whale.PollInterval,
		PageLimit:     cfg.Whale.PageLimit,
		MaxHistory:    cfg.Whale.MaxHistory,
		MaxSeenTx:     cfg.Whale.MaxSeenTx,
	})

	r.registry = NewFollowRegistry(logger, DefaultCopySettings(cfg.Copy))
	r.dispatcher = NewDispatcher(logger, r.registry, r.clients.Clob)
	r.monitor = NewMonitor(logger, r.clients.Polymarket, r.registry, r.dispatcher, MonitorConfig{
		PollInterval: cfg.Copy.PollInterval,
		PageLimit:    cfg.Copy.PageLimit,
	})
	r.monitor.SetOnCopyResult(r.handleCopyResult)

	logger.Info("starting whale copy engine",
		zap.Float64("minTradeValue", cfg.Whale.MinTradeValue),
		zap.Duration("whalePollInterval", cfg.Whale.PollInterval),
		zap.Duration("copyPollInterval", cfg.Copy.PollInterval),
		zap.Int("bootstrapWallets", len(cfg.Copy.FollowWallets)),
	)

	// Follow and monitor the wallets configured at startup.
	for _, wallet := range cfg.Copy.FollowWallets {
		r.registry.Follow(wallet, nil)
		if err := r.monitor.StartMonitoring(ctx, wallet); err != nil {
			logger.Warn("failed to start monitoring bootstrap wallet",
				zap.String("wallet", shortID(wallet)),
				zap.Error(err),
			)
		}
	}

	if cfg.StatsServer.Enabled {
		r.startStatsServer(ctx, cfg.StatsServer.Port)
		logger.Info("stats server started", zap.Int("port", cfg.StatsServer.Port))
	}

	go r.runAlertPump(ctx)
	go r.detector.Run(ctx, r.handleWhale)

	if r.clients.PolymarketEvents != nil {
		go r.runWSIngest(ctx)
	}

	<-ctx.Done()
	logger.Info("runner shutting down")

	if r.clients.PolymarketEvents != nil {
		_ = r.clients.PolymarketEvents.Close()
	}

	if r.statsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = r.statsServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	return nil
}

// handleWhale queues a whale alert for delivery. Drops the alert rather
// than blocking the detector when the queue is full.
func (r *Runner) handleWhale(whale WhaleTrade) {
	select {
	case r.whaleAlerts <- buildWhaleAlert(whale):
	default:
		r.clients.Logger.Warn("whale alert queue full, dropping alert",
			zap.String("trader", whale.TraderName),
		)
	}
}

// handleCopyResult queues a copy alert for delivery.
func (r *Runner) handleCopyResult(result *CopyResult) {
	select {
	case r.copyAlerts <- buildCopyAlert(result):
	default:
		r.clients.Logger.Warn("copy alert queue full, dropping alert",
			zap.String("wallet", shortID(result.Wallet)),
		)
	}
}

// runAlertPump delivers queued alerts to the notification channels off the
// poll loops.
func (r *Runner) runAlertPump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-r.whaleAlerts:
			r.clients.Notifier.SendWhaleAlert(alert)
		case alert := <-r.copyAlerts:
			r.clients.Notifier.SendCopyAlert(alert)
		}
	}
}

// Follow adds a wallet to the registry and starts its monitor loop.
func (r *Runner) Follow(ctx context.Context, wallet string, override *SettingsOverride) (FollowRecord, error) {
	rec := r.registry.Follow(wallet, override)
	if err := r.monitor.StartMonitoring(ctx, wallet); err != nil {
		return rec, err
	}
	return rec, nil
}

// Unfollow stops monitoring a wallet and returns its final counters.
func (r *Runner) Unfollow(wallet string) (FollowRecord, error) {
	return r.monitor.StopMonitoring(wallet)
}

// runWSIngest supplements the polling feed with trade events from the
// market websocket, subscribing to the assets seen in whale history.
func (r *Runner) runWSIngest(ctx context.Context) {
	logger := r.clients.Logger
	events := r.clients.PolymarketEvents

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	var connected bool
	subscribed := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			assets := r.detector.AssetIDs()
			if len(assets) == 0 {
				continue
			}

			if !connected {
				if err := events.ConnectMarket(ctx, assets); err != nil {
					logger.Warn("market ws connect failed", zap.Error(err))
					continue
				}
				connected = true
				for _, id := range assets {
					subscribed[id] = struct{}{}
				}
				continue
			}

			// Reconnect when the stream goes stale.
			stats := events.Stats()
			if stats.MessageCount > 0 && time.Since(stats.LastMessageAt) > 2*time.Minute {
				logger.Warn("market ws appears stale, reconnecting",
					zap.Duration("sinceLastMessage", time.Since(stats.LastMessageAt)),
				)
				_ = events.Close()
				connected = false
				subscribed = make(map[string]struct{})
				continue
			}

			// Subscribe assets that entered the whale history since last tick.
			var fresh []string
			for _, id := range assets {
				if _, ok := subscribed[id]; !ok {
					fresh = append(fresh, id)
				}
			}
			if len(fresh) > 0 {
				if err := events.SubscribeAssets(fresh); err != nil {
					logger.Warn("market ws subscribe failed", zap.Error(err))
					continue
				}
				for _, id := range fresh {
					subscribed[id] = struct{}{}
				}
			}

		case msg := <-events.Messages():
			event := polymarketevents.ParseTradeEvent(msg)
			if event == nil {
				continue
			}
			if whale, ok := r.detector.Observe(tradeFromEvent(event)); ok {
				r.handleWhale(whale)
			}

		case err := <-events.Errors():
			logger.Warn("market ws error", zap.Error(err))
			connected = false
			subscribed = make(map[string]struct{})
		}
	}
}

// tradeFromEvent maps a websocket trade event onto the feed trade shape.
// Market metadata is absent on the ws channel; alerts fall back to IDs.
func tradeFromEvent(event *polymarketevents.TradeEvent) polymarketapi.Trade {
	return polymarketapi.Trade{
		ProxyWallet:     event.TakerAddress,
		Side:            event.Side,
		Asset:           event.AssetID,
		Size:            polymarketapi.Numeric(event.SizeFloat()),
		Price:           polymarketapi.Numeric(event.PriceFloat()),
		Timestamp:       polymarketapi.Timestamp(event.TimestampUnix()),
		TransactionHash: event.TransactionHash,
	}
}

func buildWhaleAlert(whale WhaleTrade) notifier.WhaleAlert {
	trade := whale.Trade

	alert := notifier.WhaleAlert{
		TraderName:      whale.TraderName,
		TraderAddress:   trade.ProxyWallet,
		Side:            trade.Side,
		Shares:          float64(trade.Size),
		Price:           float64(trade.Price),
		Value:           whale.Value,
		Outcome:         trade.Outcome,
		MarketTitle:     trade.Title,
		MarketSlug:      trade.MarketSlug(),
		MarketImage:     trade.Icon,
		TransactionHash: trade.TransactionHash,
		Timestamp:       time.Unix(int64(trade.Timestamp), 0),
	}

	if trade.ProxyWallet != "" {
		alert.WalletURL = "https://polymarket.com/profile/" + trade.ProxyWallet
	}
	if slug := trade.MarketSlug(); slug != "" {
		alert.MarketURL = "https://polymarket.com/event/" + slug
	}

	return alert
}

func buildCopyAlert(result *CopyResult) notifier.CopyAlert {
	trade := result.Trade

	alert := notifier.CopyAlert{
		TraderName:    traderDisplayName(trade),
		TraderAddress: result.Wallet,
		Side:          trade.Side,
		OriginalSize:  float64(trade.Size),
		Price:         float64(trade.Price),
		MarketTitle:   trade.Title,
		MarketSlug:    trade.MarketSlug(),
		Outcome:       trade.Outcome,
		CopySize:      result.CopySize,
		CopyValue:     result.CopyValue,
		Timestamp:     time.Now(),
	}

	if result.Order != nil {
		alert.OrderID = result.Order.OrderID
		alert.OrderHash = result.Order.OrderHash
	}

	return alert
}

// GetStats returns service statistics for the stats endpoints.
func (r *Runner) GetStats() ServiceStats {
	var stats ServiceStats

	stats.Build.Commit = BuildCommit
	stats.Build.Time = BuildTime
	stats.Build.GoVersion = runtime.Version()

	stats.StartTime = r.startTime.UTC().Format(time.RFC3339)
	uptime := time.Since(r.startTime)
	stats.Uptime = uptime.Round(time.Second).String()
	stats.UptimeSec = int64(uptime.Seconds())

	stats.WebSocket.Enabled = r.clients.PolymarketEvents != nil
	if r.clients.PolymarketEvents != nil {
		wsStats := r.clients.PolymarketEvents.Stats()
		stats.WebSocket.MessageCount = wsStats.MessageCount
		if !wsStats.LastMessageAt.IsZero() {
			stats.WebSocket.LastMessageAt = wsStats.LastMessageAt.UTC().Format(time.RFC3339)
			stats.WebSocket.LastMessageAgo = time.Since(wsStats.LastMessageAt).Round(time.Second).String()
		}
	}

	if r.detector != nil {
		stats.Whales = r.detector.Stats()
	}

	if r.registry != nil {
		for _, rec := range r.registry.List() {
			stats.Following.Count++
			stats.Following.TotalCopiedTrades += rec.TotalCopiedTrades
			stats.Following.TotalVolumeCopied += rec.TotalVolumeCopied
		}
	}
	if r.monitor != nil {
		stats.Following.Monitoring = r.monitor.ActiveCount()
	}

	stats.Notifications.DiscordEnabled = r.clients.Discord != nil
	stats.Notifications.TelegramEnabled = r.clients.Telegram != nil

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats.Runtime.Goroutines = runtime.NumGoroutine()
	stats.Runtime.HeapAlloc = memStats.HeapAlloc
	stats.Runtime.NumGC = memStats.NumGC
	stats.Runtime.GoVersion = runtime.Version()
	stats.Runtime.NumCPU = runtime.NumCPU()
	stats.Runtime.GOOS = runtime.GOOS
	stats.Runtime.GOARCH = runtime.GOARCH

	return stats
}
