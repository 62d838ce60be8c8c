package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// FollowHandler exposes follow management over HTTP.
type FollowHandler struct {
	logger *zap.Logger
	runner *Runner
	monCtx context.Context
}

// NewFollowHandler creates a new FollowHandler. monCtx bounds the lifetime
// of monitor loops started through the API, not individual requests.
func NewFollowHandler(logger *zap.Logger, runner *Runner, monCtx context.Context) *FollowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowHandler{
		logger: logger,
		runner: runner,
		monCtx: monCtx,
	}
}

// RegisterRoutes registers the follow routes on the given mux.
func (h *FollowHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/follow", h.handleFollow)
	mux.HandleFunc("/api/unfollow", h.handleUnfollow)
}

type followRequest struct {
	Wallet   string            `json:"wallet"`
	Settings *SettingsOverride `json:"settings,omitempty"`
}

// handleFollow follows a wallet and starts its monitor loop.
func (h *FollowHandler) handleFollow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if normalizeWallet(req.Wallet) == "" {
		http.Error(w, "wallet is required", http.StatusBadRequest)
		return
	}

	rec, err := h.runner.Follow(h.monCtx, req.Wallet, req.Settings)
	if err != nil {
		h.logger.Error("failed to start monitoring followed wallet",
			zap.String("wallet", shortID(req.Wallet)),
			zap.Error(err),
		)
		http.Error(w, "Failed to start monitoring: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.logger.Info("wallet followed via API", zap.String("wallet", shortID(rec.Wallet)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":     true,
		"record":      rec,
		"followed_at": time.Now(),
	})
}

// handleUnfollow stops monitoring a wallet and returns its final counters.
func (h *FollowHandler) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if normalizeWallet(req.Wallet) == "" {
		http.Error(w, "wallet is required", http.StatusBadRequest)
		return
	}

	rec, err := h.runner.Unfollow(req.Wallet)
	if err != nil {
		if errors.Is(err, ErrNotFollowing) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to unfollow: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.logger.Info("wallet unfollowed via API", zap.String("wallet", shortID(rec.Wallet)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"record":  rec,
	})
}
