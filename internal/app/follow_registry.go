package app

import (
	"errors"
	"strings"
	"sync"
	"time"

	"polycopy/config"

	"go.uber.org/zap"
)

// ErrNotFollowing is returned for operations on a wallet without a
// FollowRecord. Distinct from transport errors by design.
var ErrNotFollowing = errors.New("not following wallet")

// CopySettings controls how trades from a followed wallet are copied.
type CopySettings struct {
	MaxPositionSize     float64  `json:"max_position_size"`
	CopyPercentage      float64  `json:"copy_percentage"`
	MaxTotalExposure    float64  `json:"max_total_exposure"`
	MarketsToCopy       []string `json:"markets_to_copy,omitempty"`
	MarketsToExclude    []string `json:"markets_to_exclude,omitempty"`
	MinTraderConfidence float64  `json:"min_trader_confidence"`
	AutoExit            bool     `json:"auto_exit"`
	Enabled             bool     `json:"enabled"`
}

// SettingsOverride carries per-wallet overrides applied on top of the
// registry defaults. Nil pointer fields keep the default; slice fields
// override only when non-nil.
type SettingsOverride struct {
	MaxPositionSize     *float64 `json:"max_position_size,omitempty"`
	CopyPercentage      *float64 `json:"copy_percentage,omitempty"`
	MaxTotalExposure    *float64 `json:"max_total_exposure,omitempty"`
	MarketsToCopy       []string `json:"markets_to_copy,omitempty"`
	MarketsToExclude    []string `json:"markets_to_exclude,omitempty"`
	MinTraderConfidence *float64 `json:"min_trader_confidence,omitempty"`
	AutoExit            *bool    `json:"auto_exit,omitempty"`
	Enabled             *bool    `json:"enabled,omitempty"`
}

// FollowRecord tracks one followed wallet. The registry is the sole owner;
// callers always receive value copies.
type FollowRecord struct {
	Wallet            string       `json:"wallet"`
	Settings          CopySettings `json:"settings"`
	StartedAt         time.Time    `json:"started_at"`
	TotalCopiedTrades int          `json:"total_copied_trades"`
	TotalVolumeCopied float64      `json:"total_volume_copied"`

	// Watermark is the unix-seconds floor for the next user trade fetch.
	Watermark int64 `json:"-"`
}

// DefaultCopySettings builds the registry defaults from config.
func DefaultCopySettings(cfg config.CopyConfig) CopySettings {
	return CopySettings{
		MaxPositionSize:     cfg.MaxPositionSize,
		CopyPercentage:      cfg.CopyPercentage,
		MaxTotalExposure:    cfg.MaxTotalExposure,
		MarketsToCopy:       append([]string(nil), cfg.MarketsToCopy...),
		MarketsToExclude:    append([]string(nil), cfg.MarketsToExclude...),
		MinTraderConfidence: cfg.MinTraderConfidence,
		AutoExit:            true,
		Enabled:             true,
	}
}

// FollowRegistry owns the set of followed wallets. Safe for concurrent use
// by the monitor loops and the stats server.
type FollowRegistry struct {
	logger   *zap.Logger
	defaults CopySettings

	mu      sync.RWMutex
	records map[string]*FollowRecord

	now func() time.Time
}

func NewFollowRegistry(logger *zap.Logger, defaults CopySettings) *FollowRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FollowRegistry{
		logger:   logger.Named("follow-registry"),
		defaults: defaults,
		records:  make(map[string]*FollowRecord),
		now:      time.Now,
	}
}

func normalizeWallet(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}

// Follow creates or replaces the record for a wallet. Re-following discards
// prior counters and resets the watermark to now.
func (r *FollowRegistry) Follow(wallet string, override *SettingsOverride) FollowRecord {
	wallet = normalizeWallet(wallet)
	settings := mergeSettings(r.defaults, override)

	rec := &FollowRecord{
		Wallet:    wallet,
		Settings:  settings,
		StartedAt: r.now(),
		Watermark: r.now().Unix(),
	}

	r.mu.Lock()
	_, replaced := r.records[wallet]
	r.records[wallet] = rec
	r.mu.Unlock()

	r.logger.Info("following wallet",
		zap.String("wallet", shortID(wallet)),
		zap.Bool("replaced", replaced),
		zap.Float64("copyPercentage", settings.CopyPercentage),
		zap.Float64("maxPositionSize", settings.MaxPositionSize),
	)

	return snapshotRecord(rec)
}

// Unfollow removes the wallet's record and returns its final counters.
func (r *FollowRegistry) Unfollow(wallet string) (FollowRecord, error) {
	wallet = normalizeWallet(wallet)

	r.mu.Lock()
	rec, ok := r.records[wallet]
	if ok {
		delete(r.records, wallet)
	}
	r.mu.Unlock()

	if !ok {
		return FollowRecord{}, ErrNotFollowing
	}

	r.logger.Info("unfollowed wallet",
		zap.String("wallet", shortID(wallet)),
		zap.Int("copiedTrades", rec.TotalCopiedTrades),
		zap.Float64("volumeCopied", rec.TotalVolumeCopied),
	)

	return snapshotRecord(rec), nil
}

// Get returns a value copy of the wallet's record.
func (r *FollowRegistry) Get(wallet string) (FollowRecord, bool) {
	wallet = normalizeWallet(wallet)

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[wallet]
	if !ok {
		return FollowRecord{}, false
	}
	return snapshotRecord(rec), true
}

func (r *FollowRegistry) IsFollowing(wallet string) bool {
	wallet = normalizeWallet(wallet)

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.records[wallet]
	return ok
}

// List returns value copies of every record.
func (r *FollowRegistry) List() []FollowRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]FollowRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, snapshotRecord(rec))
	}
	return out
}

func (r *FollowRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// RecordCopy applies a successful copy to the wallet's counters in a single
// atomic update. Returns false if the wallet is no longer followed.
func (r *FollowRegistry) RecordCopy(wallet string, volume float64) bool {
	wallet = normalizeWallet(wallet)

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[wallet]
	if !ok {
		return false
	}
	rec.TotalCopiedTrades++
	rec.TotalVolumeCopied += volume
	return true
}

// Watermark returns the fetch floor for the wallet.
func (r *FollowRegistry) Watermark(wallet string) (int64, bool) {
	wallet = normalizeWallet(wallet)

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[wallet]
	if !ok {
		return 0, false
	}
	return rec.Watermark, true
}

// SetWatermark advances the fetch floor for the wallet.
func (r *FollowRegistry) SetWatermark(wallet string, ts int64) {
	wallet = normalizeWallet(wallet)

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[wallet]; ok {
		rec.Watermark = ts
	}
}

func mergeSettings(defaults CopySettings, override *SettingsOverride) CopySettings {
	merged := defaults
	merged.MarketsToCopy = append([]string(nil), defaults.MarketsToCopy...)
	merged.MarketsToExclude = append([]string(nil), defaults.MarketsToExclude...)

	if override == nil {
		return merged
	}

	if override.MaxPositionSize != nil {
		merged.MaxPositionSize = *override.MaxPositionSize
	}
	if override.CopyPercentage != nil {
		merged.CopyPercentage = *override.CopyPercentage
	}
	if override.MaxTotalExposure != nil {
		merged.MaxTotalExposure = *override.MaxTotalExposure
	}
	if override.MarketsToCopy != nil {
		merged.MarketsToCopy = append([]string(nil), override.MarketsToCopy...)
	}
	if override.MarketsToExclude != nil {
		merged.MarketsToExclude = append([]string(nil), override.MarketsToExclude...)
	}
	if override.MinTraderConfidence != nil {
		merged.MinTraderConfidence = *override.MinTraderConfidence
	}
	if override.AutoExit != nil {
		merged.AutoExit = *override.AutoExit
	}
	if override.Enabled != nil {
		merged.Enabled = *override.Enabled
	}

	return merged
}

func snapshotRecord(rec *FollowRecord) FollowRecord {
	out := *rec
	out.Settings.MarketsToCopy = append([]string(nil), rec.Settings.MarketsToCopy...)
	out.Settings.MarketsToExclude = append([]string(nil), rec.Settings.MarketsToExclude...)
	return out
}
