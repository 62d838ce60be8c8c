package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Environment
	IsProd bool `json:"is_prod"`

	// Whale detection
	Whale WhaleConfig `json:"whale"`

	// Copy trading
	Copy CopyConfig `json:"copy"`

	// Discord
	Discord DiscordConfig `json:"discord"`

	// Telegram
	Telegram TelegramConfig `json:"telegram"`

	// Polymarket API endpoints
	Polymarket PolymarketConfig `json:"polymarket"`

	// CLOB order submission - credentials are env var only
	Clob ClobConfig `json:"-"`

	// Stats/health server
	StatsServer StatsServerConfig `json:"stats_server"`
}

// WhaleConfig holds whale detection configuration.
type WhaleConfig struct {
	MinTradeValue float64       `json:"min_trade_value"` // Minimum notional (size*price) in USD to count as a whale
	PollInterval  time.Duration `json:"poll_interval"`   // How often to poll the trade feed
	PageLimit     int           `json:"page_limit"`      // Trades per feed request
	MaxHistory    int           `json:"max_history"`     // Whale trades kept in the recent-history buffer
	MaxSeenTx     int           `json:"max_seen_tx"`     // Bound on the transaction dedupe set
	UseWebSocket  bool          `json:"use_websocket"`   // Also ingest trades from the market WebSocket
}

// CopyConfig holds copy-trading configuration.
type CopyConfig struct {
	PollInterval time.Duration `json:"poll_interval"` // Per-trader monitor poll interval
	PageLimit    int           `json:"page_limit"`    // Trades per monitor fetch

	// Default copy settings, applied where a follow carries no override
	MaxPositionSize     float64  `json:"max_position_size"`
	CopyPercentage      float64  `json:"copy_percentage"`
	MaxTotalExposure    float64  `json:"max_total_exposure"`
	MarketsToCopy       []string `json:"markets_to_copy"`
	MarketsToExclude    []string `json:"markets_to_exclude"`
	MinTraderConfidence float64  `json:"min_trader_confidence"`

	// Wallets auto-followed and monitored at startup
	FollowWallets []string `json:"follow_wallets"`
}

// DiscordConfig holds Discord-related configuration.
type DiscordConfig struct {
	BotToken      string `json:"-"` // Excluded - env var only
	ProdChannelID string `json:"prod_channel_id"`
	BetaChannelID string `json:"beta_channel_id"`
}

// TelegramConfig holds Telegram-related configuration.
type TelegramConfig struct {
	BotToken   string `json:"-"` // Excluded - env var only
	ProdChatID string `json:"prod_chat_id"`
	BetaChatID string `json:"beta_chat_id"`
}

// PolymarketConfig holds Polymarket API endpoints.
type PolymarketConfig struct {
	DataAPIURL  string `json:"data_api_url"`
	ClobAPIURL  string `json:"clob_api_url"`
	MarketWSURL string `json:"market_ws_url"`
}

// ClobConfig holds CLOB API credentials for order submission.
// The service never signs orders itself; these headers authenticate
// against an order-submission endpoint that does.
type ClobConfig struct {
	APIKey     string `json:"-"`
	Secret     string `json:"-"`
	Passphrase string `json:"-"`
}

// StatsServerConfig holds the stats/health server configuration.
type StatsServerConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// Defaults returns the default configuration: $10k whale floor, 50-trade
// pages, last 100 whales kept, 10% copy ratio capped at 100 shares.
func Defaults() *Config {
	return &Config{
		IsProd: false,
		Whale: WhaleConfig{
			MinTradeValue: 10000.0,
			PollInterval:  5 * time.Second,
			PageLimit:     50,
			MaxHistory:    100,
			MaxSeenTx:     10000,
			UseWebSocket:  false,
		},
		Copy: CopyConfig{
			PollInterval:        30 * time.Second,
			PageLimit:           50,
			MaxPositionSize:     100.0,
			CopyPercentage:      10.0,
			MaxTotalExposure:    1000.0,
			MinTraderConfidence: 10.0,
		},
		Discord:  DiscordConfig{},
		Telegram: TelegramConfig{},
		Polymarket: PolymarketConfig{
			DataAPIURL:  "https://data-api.polymarket.com",
			ClobAPIURL:  "https://clob.polymarket.com",
			MarketWSURL: "wss://ws-subscriptions-clob.polymarket.com/ws/market",
		},
		StatsServer: StatsServerConfig{
			Enabled: true,
			Port:    8080,
		},
	}
}

// Load loads configuration from environment variables with defaults.
// A .env file in the working directory is honored when present; real
// environment variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	d := Defaults()

	return &Config{
		IsProd: envBool("STAGE", "PROD"),

		Whale: WhaleConfig{
			MinTradeValue: envFloat("WHALE_MIN_TRADE_VALUE", d.Whale.MinTradeValue),
			PollInterval:  envDuration("WHALE_POLL_INTERVAL", d.Whale.PollInterval),
			PageLimit:     envInt("WHALE_PAGE_LIMIT", d.Whale.PageLimit),
			MaxHistory:    envInt("WHALE_MAX_HISTORY", d.Whale.MaxHistory),
			MaxSeenTx:     envInt("WHALE_MAX_SEEN_TX", d.Whale.MaxSeenTx),
			UseWebSocket:  envBoolDefault("WHALE_USE_WEBSOCKET", d.Whale.UseWebSocket),
		},

		Copy: CopyConfig{
			PollInterval:        envDuration("COPY_POLL_INTERVAL", d.Copy.PollInterval),
			PageLimit:           envInt("COPY_PAGE_LIMIT", d.Copy.PageLimit),
			MaxPositionSize:     envFloat("COPY_MAX_POSITION_SIZE", d.Copy.MaxPositionSize),
			CopyPercentage:      envFloat("COPY_PERCENTAGE", d.Copy.CopyPercentage),
			MaxTotalExposure:    envFloat("COPY_MAX_TOTAL_EXPOSURE", d.Copy.MaxTotalExposure),
			MarketsToCopy:       envStringSlice("COPY_MARKETS"),
			MarketsToExclude:    envStringSlice("COPY_MARKETS_EXCLUDE"),
			MinTraderConfidence: envFloat("COPY_MIN_TRADER_CONFIDENCE", d.Copy.MinTraderConfidence),
			FollowWallets:       normalizeWallets(envStringSlice("FOLLOW_WALLETS")),
		},

		Discord: DiscordConfig{
			BotToken:      envString("DISCORD_BOT_TOKEN", ""),
			ProdChannelID: envString("DISCORD_PROD_CHANNEL_ID", ""),
			BetaChannelID: envString("DISCORD_BETA_CHANNEL_ID", ""),
		},

		Telegram: TelegramConfig{
			BotToken:   envString("TELEGRAM_BOT_KEY", ""),
			ProdChatID: envString("TELEGRAM_PROD_CHAT_ID", ""),
			BetaChatID: envString("TELEGRAM_BETA_CHAT_ID", ""),
		},

		Polymarket: PolymarketConfig{
			DataAPIURL:  envString("POLYMARKET_DATA_API_URL", d.Polymarket.DataAPIURL),
			ClobAPIURL:  envString("POLYMARKET_CLOB_API_URL", d.Polymarket.ClobAPIURL),
			MarketWSURL: envString("POLYMARKET_MARKET_WS_URL", d.Polymarket.MarketWSURL),
		},

		Clob: ClobConfig{
			APIKey:     envString("CLOB_API_KEY", ""),
			Secret:     envString("CLOB_SECRET", ""),
			Passphrase: envString("CLOB_PASSPHRASE", ""),
		},

		StatsServer: StatsServerConfig{
			Enabled: envBoolDefault("STATS_SERVER_ENABLED", d.StatsServer.Enabled),
			Port:    envInt("STATS_SERVER_PORT", d.StatsServer.Port),
		},
	}
}

// Helper functions for parsing environment variables

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func envBool(key, trueValue string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), trueValue)
}

func envBoolDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1") || strings.EqualFold(v, "yes")
}

func envStringSlice(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func normalizeWallets(wallets []string) []string {
	if wallets == nil {
		return nil
	}
	result := make([]string, len(wallets))
	for i, w := range wallets {
		result[i] = strings.ToLower(strings.TrimSpace(w))
	}
	return result
}
