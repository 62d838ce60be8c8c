package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrader for real-time stats
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// startStatsServer starts an HTTP server for health checks and stats.
func (r *Runner) startStatsServer(ctx context.Context, port int) {
	mux := http.NewServeMux()

	// Follow management endpoints
	NewFollowHandler(r.clients.Logger, r, ctx).RegisterRoutes(mux)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Recent whale trades, most recent first
	mux.HandleFunc("/api/whales", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, r.detector.RecentWhales(50))
	})

	// Followed wallets with their counters
	mux.HandleFunc("/api/following", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, r.registry.List())
	})

	// Per-wallet copy performance
	mux.HandleFunc("/api/performance", func(w http.ResponseWriter, req *http.Request) {
		wallet := req.URL.Query().Get("wallet")
		if wallet == "" {
			http.Error(w, "missing wallet parameter", http.StatusBadRequest)
			return
		}

		snap, err := r.dispatcher.Performance(wallet)
		if err != nil {
			if errors.Is(err, ErrNotFollowing) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, snap)
	})

	// JSON stats endpoint
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, r.GetStats())
	})

	// WebSocket endpoint for real-time stats
	mux.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, req, nil)
		if err != nil {
			r.clients.Logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-req.Context().Done():
				return
			case <-ticker.C:
				if err := conn.WriteJSON(r.GetStats()); err != nil {
					return // Client disconnected
				}
			}
		}
	})

	// HTML dashboard
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(dashboardHTML))
	})

	r.statsServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := r.statsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.clients.Logger.Error("stats server error", zap.Error(err))
		}
	}()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Polycopy Stats</title>
    <style>
        :root {
            --bg-primary: #0d1117;
            --bg-secondary: #161b22;
            --bg-tertiary: #21262d;
            --border-color: #30363d;
            --text-primary: #c9d1d9;
            --text-secondary: #8b949e;
            --text-heading: #f0f6fc;
            --accent-blue: #58a6ff;
            --accent-green: #3fb950;
            --accent-red: #f85149;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, monospace;
            background: var(--bg-primary);
            color: var(--text-primary);
            padding: 20px;
            line-height: 1.5;
        }
        h1 { color: var(--accent-blue); margin-bottom: 20px; font-size: 24px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 20px; }
        .card {
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 16px;
        }
        .card h3 { color: var(--accent-blue); font-size: 16px; margin-bottom: 12px; }
        .stat-row { display: flex; justify-content: space-between; padding: 6px 0; border-bottom: 1px solid var(--bg-tertiary); }
        .stat-row:last-child { border-bottom: none; }
        .stat-label { color: var(--text-secondary); }
        .stat-value { color: var(--text-heading); font-weight: 600; }
        .stat-value.green { color: var(--accent-green); }
        .stat-value.red { color: var(--accent-red); }
        .feed-item { background: var(--bg-tertiary); padding: 12px; border-radius: 6px; margin-bottom: 8px; border-left: 3px solid var(--accent-blue); }
        .feed-item.sell { border-left-color: var(--accent-red); }
        .feed-trader { color: var(--accent-blue); font-weight: 600; }
        .feed-market { color: var(--text-primary); font-size: 14px; }
        .feed-time { color: var(--text-secondary); font-size: 12px; }
        .wallet-addr { font-family: monospace; color: var(--accent-blue); font-size: 13px; }
        .footer { margin-top: 30px; padding: 20px; text-align: center; border-top: 1px solid var(--border-color); color: var(--text-secondary); font-size: 13px; }
    </style>
</head>
<body>
    <h1>🐋 Polycopy Dashboard</h1>

    <div class="grid" style="margin-bottom: 20px;">
        <div class="card">
            <div class="stat-row"><span class="stat-label">Started</span><span id="startTime" class="stat-value">-</span></div>
            <div class="stat-row"><span class="stat-label">Uptime</span><span id="uptime" class="stat-value">-</span></div>
            <div class="stat-row"><span class="stat-label">Data Source</span><span id="wsMode" class="stat-value">-</span></div>
        </div>
        <div class="card">
            <h3>🐋 Whale Detection</h3>
            <div class="stat-row"><span class="stat-label">Polls</span><span id="whalePolls" class="stat-value">-</span></div>
            <div class="stat-row"><span class="stat-label">Detected</span><span id="whaleDetected" class="stat-value green">-</span></div>
            <div class="stat-row"><span class="stat-label">History Size</span><span id="whaleHistory" class="stat-value">-</span></div>
            <div class="stat-row"><span class="stat-label">Seen Transactions</span><span id="whaleSeen" class="stat-value">-</span></div>
        </div>
        <div class="card">
            <h3>📋 Copy Trading</h3>
            <div class="stat-row"><span class="stat-label">Following</span><span id="followCount" class="stat-value">-</span></div>
            <div class="stat-row"><span class="stat-label">Monitoring</span><span id="monitorCount" class="stat-value">-</span></div>
            <div class="stat-row"><span class="stat-label">Copied Trades</span><span id="copiedTrades" class="stat-value green">-</span></div>
            <div class="stat-row"><span class="stat-label">Copied Volume</span><span id="copiedVolume" class="stat-value green">-</span></div>
        </div>
        <div class="card">
            <h3>⚙️ Runtime</h3>
            <div class="stat-row"><span class="stat-label">Goroutines</span><span id="goroutines" class="stat-value">-</span></div>
            <div class="stat-row"><span class="stat-label">Heap</span><span id="heapAlloc" class="stat-value">-</span></div>
            <div class="stat-row"><span class="stat-label">Go</span><span id="goVersion" class="stat-value">-</span></div>
        </div>
    </div>

    <div class="grid">
        <div class="card" style="grid-column: span 2;">
            <h3>📜 Recent Whale Trades</h3>
            <div id="recentWhales">
                <div style="color: var(--text-secondary); text-align: center; padding: 20px;">No whales yet</div>
            </div>
        </div>
        <div class="card">
            <h3>👥 Followed Wallets</h3>
            <div id="followingList">
                <div style="color: var(--text-secondary); text-align: center; padding: 20px;">Not following anyone</div>
            </div>
        </div>
    </div>

    <script>
        const formatBytes = (b) => b < 1048576 ? (b / 1024).toFixed(1) + ' KB' : (b / 1048576).toFixed(1) + ' MB';
        const shortAddr = (a) => a.length > 14 ? a.substring(0, 6) + '…' + a.substring(a.length - 6) : a;

        async function refresh() {
            try {
                const s = await (await fetch('/api/stats')).json();
                document.getElementById('startTime').textContent = new Date(s.start_time).toLocaleString();
                document.getElementById('uptime').textContent = s.uptime;
                document.getElementById('wsMode').textContent = s.websocket.enabled ? '📡 WebSocket + Polling' : '🔄 Polling';
                document.getElementById('whalePolls').textContent = s.whales.polls.toLocaleString();
                document.getElementById('whaleDetected').textContent = s.whales.detected.toLocaleString();
                document.getElementById('whaleHistory').textContent = s.whales.history_size;
                document.getElementById('whaleSeen').textContent = s.whales.seen_tx_size.toLocaleString();
                document.getElementById('followCount').textContent = s.following.count;
                document.getElementById('monitorCount').textContent = s.following.monitoring;
                document.getElementById('copiedTrades').textContent = s.following.total_copied_trades;
                document.getElementById('copiedVolume').textContent = '$' + s.following.total_volume_copied.toFixed(2);
                document.getElementById('goroutines').textContent = s.runtime.goroutines;
                document.getElementById('heapAlloc').textContent = formatBytes(s.runtime.heap_alloc);
                document.getElementById('goVersion').textContent = s.runtime.go_version;

                const whales = await (await fetch('/api/whales')).json();
                const whalesEl = document.getElementById('recentWhales');
                if (whales && whales.length > 0) {
                    whalesEl.innerHTML = whales.slice(0, 15).map(w => {
                        const t = w.trade;
                        const side = (t.side || '').toUpperCase();
                        return '<div class="feed-item ' + (side === 'SELL' ? 'sell' : '') + '">' +
                            '<div style="display: flex; justify-content: space-between;">' +
                            '<span class="feed-trader">' + w.trader_name + '</span>' +
                            '<span class="feed-time">' + new Date(w.detected_at).toLocaleTimeString() + '</span>' +
                            '</div>' +
                            '<div class="feed-market">' + side + ' ' + (t.outcome || '') + ' · $' + w.value.toLocaleString(undefined, {maximumFractionDigits: 0}) + '</div>' +
                            '<div style="color: var(--text-secondary); font-size: 13px;">' + (t.title || t.asset || '') + '</div>' +
                            '</div>';
                    }).join('');
                }

                const following = await (await fetch('/api/following')).json();
                const followEl = document.getElementById('followingList');
                if (following && following.length > 0) {
                    followEl.innerHTML = following.map(f =>
                        '<div class="stat-row">' +
                        '<span class="wallet-addr">' + shortAddr(f.wallet) + '</span>' +
                        '<span class="stat-value">' + f.total_copied_trades + ' · $' + f.total_volume_copied.toFixed(2) + '</span>' +
                        '</div>'
                    ).join('');
                }
            } catch (e) {
                console.error('refresh failed:', e);
            }
        }

        refresh();
        setInterval(refresh, 2000);
    </script>

    <div class="footer">polycopy · whale detection and copy trading for Polymarket</div>
</body>
</html>
`
