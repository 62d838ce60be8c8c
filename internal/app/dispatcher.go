package app

import (
	"context"
	"time"

	"polycopy/clients/clob"
	"polycopy/clients/polymarketapi"

	"go.uber.org/zap"
)

// OrderSubmitter places orders on the exchange. Satisfied by clob.Client.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, tokenID string, price, size float64, side string) (*clob.OrderResponse, error)
}

// CopyResult is the outcome of a single copy attempt. Err is nil on
// success. A nil *CopyResult means the trade was skipped by policy.
type CopyResult struct {
	Wallet    string
	Trade     polymarketapi.Trade
	CopySize  float64
	CopyValue float64
	Order     *clob.OrderResponse
	Err       error
}

// Succeeded reports whether the copy order was accepted.
func (r *CopyResult) Succeeded() bool {
	return r != nil && r.Err == nil
}

// Dispatcher evaluates policy and submits copy orders for followed wallets.
type Dispatcher struct {
	logger    *zap.Logger
	registry  *FollowRegistry
	submitter OrderSubmitter
}

func NewDispatcher(logger *zap.Logger, registry *FollowRegistry, submitter OrderSubmitter) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		logger:    logger.Named("dispatcher"),
		registry:  registry,
		submitter: submitter,
	}
}

// CopyTrade copies one trade from a followed wallet. Returns nil when the
// wallet is not followed, policy rejects the trade, the scaled size is
// zero, or the exposure cap would be exceeded. Submission failures produce
// a failure result; there is no retry and counters are untouched.
func (d *Dispatcher) CopyTrade(ctx context.Context, wallet string, trade polymarketapi.Trade) *CopyResult {
	rec, ok := d.registry.Get(wallet)
	if !ok {
		return nil
	}

	if !ShouldCopy(trade, rec.Settings) {
		return nil
	}

	size := CopySize(trade, rec.Settings)
	if size <= 0 {
		return nil
	}

	value := size * float64(trade.Price)

	// Exposure accounting: reject copies that would push cumulative copied
	// notional past the per-wallet cap. A cap of zero disables the check.
	if rec.Settings.MaxTotalExposure > 0 && rec.TotalVolumeCopied+value > rec.Settings.MaxTotalExposure {
		d.logger.Info("copy skipped: exposure cap reached",
			zap.String("wallet", shortID(rec.Wallet)),
			zap.Float64("volumeCopied", rec.TotalVolumeCopied),
			zap.Float64("copyValue", value),
			zap.Float64("maxTotalExposure", rec.Settings.MaxTotalExposure),
		)
		return nil
	}

	order, err := d.submitter.SubmitOrder(ctx, trade.Asset, float64(trade.Price), size, trade.Side)
	if err != nil {
		d.logger.Warn("copy order failed",
			zap.String("wallet", shortID(rec.Wallet)),
			zap.String("asset", shortID(trade.Asset)),
			zap.Float64("size", size),
			zap.Error(err),
		)
		return &CopyResult{
			Wallet:    rec.Wallet,
			Trade:     trade,
			CopySize:  size,
			CopyValue: value,
			Err:       err,
		}
	}

	d.registry.RecordCopy(rec.Wallet, value)

	d.logger.Info("copy order submitted",
		zap.String("wallet", shortID(rec.Wallet)),
		zap.String("side", trade.Side),
		zap.Float64("originalSize", float64(trade.Size)),
		zap.Float64("copySize", size),
		zap.Float64("copyValue", value),
		zap.String("orderID", order.OrderID),
	)

	return &CopyResult{
		Wallet:    rec.Wallet,
		Trade:     trade,
		CopySize:  size,
		CopyValue: value,
		Order:     order,
	}
}

// PerformanceSnapshot summarizes copy activity for a followed wallet.
type PerformanceSnapshot struct {
	Wallet            string       `json:"wallet"`
	FollowingSince    string       `json:"following_since"`
	DurationDays      float64      `json:"duration_days"`
	TotalCopiedTrades int          `json:"total_copied_trades"`
	TotalVolumeCopied float64      `json:"total_volume_copied"`
	AvgVolumePerTrade float64      `json:"avg_volume_per_trade"`
	TradesPerDay      float64      `json:"trades_per_day"`
	Settings          CopySettings `json:"settings"`
}

// Performance returns copy statistics for a wallet, or ErrNotFollowing.
func (d *Dispatcher) Performance(wallet string) (PerformanceSnapshot, error) {
	rec, ok := d.registry.Get(wallet)
	if !ok {
		return PerformanceSnapshot{}, ErrNotFollowing
	}

	durationDays := d.registry.now().Sub(rec.StartedAt).Seconds() / 86400

	snap := PerformanceSnapshot{
		Wallet:            rec.Wallet,
		FollowingSince:    rec.StartedAt.UTC().Format(time.RFC3339),
		DurationDays:      durationDays,
		TotalCopiedTrades: rec.TotalCopiedTrades,
		TotalVolumeCopied: rec.TotalVolumeCopied,
		Settings:          rec.Settings,
	}

	if rec.TotalCopiedTrades > 0 {
		snap.AvgVolumePerTrade = rec.TotalVolumeCopied / float64(rec.TotalCopiedTrades)
	}
	if durationDays > 0 {
		snap.TradesPerDay = float64(rec.TotalCopiedTrades) / durationDays
	}

	return snap, nil
}
