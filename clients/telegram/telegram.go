package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"polycopy/clients/notifier"
	"polycopy/config"
	"strings"
	"time"

	"go.uber.org/zap"
)

const telegramAPIURL = "https://api.telegram.org/bot%s/%s"

// TelegramClient sends alerts to Telegram.
// Implements notifier.Notifier interface.
type TelegramClient struct {
	logger   *zap.Logger
	botToken string
	chatID   string
	isProd   bool
	client   *http.Client
}

func NewTelegramClient(logger *zap.Logger, cfg *config.Config) *TelegramClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	chatID := cfg.Telegram.BetaChatID
	if cfg.IsProd {
		chatID = cfg.Telegram.ProdChatID
	}

	token := cfg.Telegram.BotToken
	if token == "" {
		logger.Warn("TELEGRAM_BOT_KEY not set, Telegram alerts disabled")
		return &TelegramClient{
			logger: logger,
			chatID: chatID,
			isProd: cfg.IsProd,
		}
	}

	logger.Info("telegram bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("chatID", chatID),
	)

	return &TelegramClient{
		logger:   logger,
		botToken: token,
		chatID:   chatID,
		isProd:   cfg.IsProd,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SendWhaleAlert sends a whale-trade notification.
// Implements notifier.Notifier interface.
func (tc *TelegramClient) SendWhaleAlert(alert notifier.WhaleAlert) {
	if tc.botToken == "" || tc.chatID == "" {
		tc.logger.Warn("telegram not configured, skipping alert")
		return
	}

	message := tc.buildWhaleMessage(alert)

	if err := tc.sendMessage(message); err != nil {
		tc.logger.Error("failed to send telegram message", zap.Error(err))
		return
	}

	tc.logger.Info("sent telegram whale alert",
		zap.String("trader", alert.TraderName),
		zap.String("market", alert.MarketTitle),
	)
}

// SendCopyAlert sends a copy-trade notification.
// Implements notifier.Notifier interface.
func (tc *TelegramClient) SendCopyAlert(alert notifier.CopyAlert) {
	if tc.botToken == "" || tc.chatID == "" {
		tc.logger.Warn("telegram not configured, skipping alert")
		return
	}

	message := tc.buildCopyMessage(alert)

	if err := tc.sendMessage(message); err != nil {
		tc.logger.Error("failed to send telegram message", zap.Error(err))
		return
	}

	tc.logger.Info("sent telegram copy alert",
		zap.String("trader", alert.TraderAddress),
		zap.String("orderID", alert.OrderID),
	)
}

func (tc *TelegramClient) buildWhaleMessage(alert notifier.WhaleAlert) string {
	var sb strings.Builder

	sb.WriteString("*🐋 Whale Trade*\n\n")

	if alert.MarketURL != "" {
		sb.WriteString(fmt.Sprintf("*Market:* [%s](%s)\n", escapeMarkdown(alert.MarketTitle), alert.MarketURL))
	} else {
		sb.WriteString(fmt.Sprintf("*Market:* %s\n", escapeMarkdown(alert.MarketTitle)))
	}
	sb.WriteString(fmt.Sprintf("*Outcome:* %s\n\n", escapeMarkdown(alert.Outcome)))

	traderDisplay := alert.TraderName
	if alert.TraderAddress != "" {
		shortAddr := shortAddress(alert.TraderAddress)
		if traderDisplay == "" {
			traderDisplay = shortAddr
		} else if traderDisplay != shortAddr {
			traderDisplay = fmt.Sprintf("%s (%s)", alert.TraderName, shortAddr)
		}
	}
	if alert.WalletURL != "" {
		sb.WriteString(fmt.Sprintf("*Trader:* [%s](%s)\n", escapeMarkdown(traderDisplay), alert.WalletURL))
	} else {
		sb.WriteString(fmt.Sprintf("*Trader:* %s\n", escapeMarkdown(traderDisplay)))
	}

	sideEmoji := "🟢"
	if strings.ToUpper(alert.Side) == "SELL" {
		sideEmoji = "🔴"
	}
	sb.WriteString(fmt.Sprintf("*Side:* %s %s\n", sideEmoji, alert.Side))
	sb.WriteString(fmt.Sprintf("*Trade:* %.2f shares @ $%.3f\n", alert.Shares, alert.Price))
	sb.WriteString(fmt.Sprintf("*Value:* $%.2f\n", alert.Value))

	sb.WriteString(fmt.Sprintf("\n_polycopy • %s_", footerTime(alert.Timestamp)))

	return sb.String()
}

func (tc *TelegramClient) buildCopyMessage(alert notifier.CopyAlert) string {
	var sb strings.Builder

	sb.WriteString("*📋 Copy Trade Executed*\n\n")

	sb.WriteString(fmt.Sprintf("*Market:* %s\n", escapeMarkdown(alert.MarketTitle)))
	sb.WriteString(fmt.Sprintf("*Outcome:* %s\n\n", escapeMarkdown(alert.Outcome)))

	traderDisplay := alert.TraderName
	if traderDisplay == "" {
		traderDisplay = shortAddress(alert.TraderAddress)
	}
	sb.WriteString(fmt.Sprintf("*Copied From:* %s\n", escapeMarkdown(traderDisplay)))

	sideEmoji := "🟢"
	if strings.ToUpper(alert.Side) == "SELL" {
		sideEmoji = "🔴"
	}
	sb.WriteString(fmt.Sprintf("*Side:* %s %s\n", sideEmoji, alert.Side))
	sb.WriteString(fmt.Sprintf("*Original:* %.2f shares @ $%.3f\n", alert.OriginalSize, alert.Price))
	sb.WriteString(fmt.Sprintf("*Our Copy:* %.2f shares ($%.2f)\n", alert.CopySize, alert.CopyValue))
	if alert.OrderID != "" {
		sb.WriteString(fmt.Sprintf("*Order:* %s\n", escapeMarkdown(alert.OrderID)))
	}

	sb.WriteString(fmt.Sprintf("\n_polycopy • %s_", footerTime(alert.Timestamp)))

	return sb.String()
}

func (tc *TelegramClient) sendMessage(text string) error {
	url := fmt.Sprintf(telegramAPIURL, tc.botToken, "sendMessage")

	payload := map[string]interface{}{
		"chat_id":    tc.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := tc.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// Close cleans up resources. Implements notifier.Notifier interface.
func (tc *TelegramClient) Close() error {
	return nil
}

func footerTime(ts time.Time) string {
	pst, _ := time.LoadLocation("America/Los_Angeles")
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.In(pst).Format("1/2/2006, 3:04:05PM (MST)")
}

func shortAddress(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-6:]
}

// escapeMarkdown escapes special characters for Telegram Markdown.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
