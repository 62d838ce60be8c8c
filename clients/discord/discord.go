package discord

import (
	"fmt"
	"polycopy/clients/notifier"
	"polycopy/config"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordClient sends alerts to Discord.
// Implements notifier.Notifier interface.
type DiscordClient struct {
	logger    *zap.Logger
	session   *discordgo.Session
	channelID string
	isProd    bool
}

func NewDiscordClient(logger *zap.Logger, cfg *config.Config) *DiscordClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	channelID := cfg.Discord.BetaChannelID
	if cfg.IsProd {
		channelID = cfg.Discord.ProdChannelID
	}

	token := cfg.Discord.BotToken
	if token == "" {
		logger.Warn("DISCORD_BOT_TOKEN not set, Discord alerts disabled")
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		logger.Error("failed to create discord session", zap.Error(err))
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	logger.Info("discord bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("channelID", channelID),
	)

	return &DiscordClient{
		logger:    logger,
		session:   session,
		channelID: channelID,
		isProd:    cfg.IsProd,
	}
}

// SendMessage sends a plain text message.
func (dc *DiscordClient) SendMessage(message string) {
	if dc.session == nil {
		dc.logger.Warn("discord session not initialized, skipping message")
		return
	}

	_, err := dc.session.ChannelMessageSend(dc.channelID, message)
	if err != nil {
		dc.logger.Error("failed to send discord message", zap.Error(err))
		return
	}

	dc.logger.Info("sent discord message")
}

// SendWhaleAlert sends a rich embedded whale-trade alert.
// Implements notifier.Notifier interface.
func (dc *DiscordClient) SendWhaleAlert(alert notifier.WhaleAlert) {
	if dc.session == nil {
		dc.logger.Warn("discord session not initialized, skipping alert")
		return
	}

	embed := dc.buildWhaleEmbed(alert)

	_, err := dc.session.ChannelMessageSendEmbed(dc.channelID, embed)
	if err != nil {
		dc.logger.Error("failed to send discord embed", zap.Error(err))
		return
	}

	dc.logger.Info("sent discord whale alert",
		zap.String("trader", alert.TraderName),
		zap.String("market", alert.MarketTitle),
	)
}

// SendCopyAlert sends a rich embedded copy-trade alert.
// Implements notifier.Notifier interface.
func (dc *DiscordClient) SendCopyAlert(alert notifier.CopyAlert) {
	if dc.session == nil {
		dc.logger.Warn("discord session not initialized, skipping alert")
		return
	}

	embed := dc.buildCopyEmbed(alert)

	_, err := dc.session.ChannelMessageSendEmbed(dc.channelID, embed)
	if err != nil {
		dc.logger.Error("failed to send discord embed", zap.Error(err))
		return
	}

	dc.logger.Info("sent discord copy alert",
		zap.String("trader", alert.TraderAddress),
		zap.String("orderID", alert.OrderID),
	)
}

func (dc *DiscordClient) buildWhaleEmbed(alert notifier.WhaleAlert) *discordgo.MessageEmbed {
	// Choose color based on side
	color := 0x2ECC71 // Green for BUY
	sideEmoji := "🟢"
	if strings.ToUpper(alert.Side) == "SELL" {
		color = 0xE74C3C // Red for SELL
		sideEmoji = "🔴"
	}

	// Format trader display with link
	traderDisplay := alert.TraderName
	if alert.TraderAddress != "" {
		shortAddr := shortAddress(alert.TraderAddress)
		if traderDisplay == "" {
			traderDisplay = shortAddr
		} else if traderDisplay != shortAddr {
			traderDisplay = fmt.Sprintf("%s (%s)", alert.TraderName, shortAddr)
		}
	}
	// Make trader name a clickable link to wallet
	if alert.WalletURL != "" {
		traderDisplay = fmt.Sprintf("[%s](%s)", traderDisplay, alert.WalletURL)
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Trader",
			Value:  traderDisplay,
			Inline: true,
		},
		{
			Name:   "Side",
			Value:  fmt.Sprintf("%s %s", sideEmoji, alert.Side),
			Inline: true,
		},
		{
			Name:   "Trade",
			Value:  fmt.Sprintf("%.2f shares @ $%.3f", alert.Shares, alert.Price),
			Inline: true,
		},
		{
			Name:   "Value",
			Value:  fmt.Sprintf("$%.2f", alert.Value),
			Inline: true,
		},
	}
	if alert.TransactionHash != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Tx",
			Value:  shortAddress(alert.TransactionHash),
			Inline: true,
		})
	}

	description := fmt.Sprintf("**%s**\nOutcome: %s", alert.MarketTitle, alert.Outcome)

	embed := &discordgo.MessageEmbed{
		Title:       "🐋 Whale Trade",
		URL:         alert.MarketURL,
		Description: description,
		Color:       color,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: footerText(alert.Timestamp),
		},
		Timestamp: embedTimestamp(alert.Timestamp),
	}

	if alert.MarketImage != "" {
		embed.Image = &discordgo.MessageEmbedImage{
			URL: alert.MarketImage,
		}
	}

	return embed
}

func (dc *DiscordClient) buildCopyEmbed(alert notifier.CopyAlert) *discordgo.MessageEmbed {
	color := 0x3498DB // Blue for copies
	sideEmoji := "🟢"
	if strings.ToUpper(alert.Side) == "SELL" {
		sideEmoji = "🔴"
	}

	traderDisplay := alert.TraderName
	if traderDisplay == "" {
		traderDisplay = shortAddress(alert.TraderAddress)
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Copied From",
			Value:  traderDisplay,
			Inline: true,
		},
		{
			Name:   "Side",
			Value:  fmt.Sprintf("%s %s", sideEmoji, alert.Side),
			Inline: true,
		},
		{
			Name:   "Original",
			Value:  fmt.Sprintf("%.2f shares @ $%.3f", alert.OriginalSize, alert.Price),
			Inline: true,
		},
		{
			Name:   "Our Copy",
			Value:  fmt.Sprintf("%.2f shares ($%.2f)", alert.CopySize, alert.CopyValue),
			Inline: true,
		},
	}
	if alert.OrderID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Order",
			Value:  alert.OrderID,
			Inline: true,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📋 Copy Trade Executed",
		Description: fmt.Sprintf("**%s**\nOutcome: %s", alert.MarketTitle, alert.Outcome),
		Color:       color,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: footerText(alert.Timestamp),
		},
		Timestamp: embedTimestamp(alert.Timestamp),
	}

	return embed
}

func footerText(ts time.Time) string {
	pst, _ := time.LoadLocation("America/Los_Angeles")
	if ts.IsZero() {
		ts = time.Now()
	}
	return fmt.Sprintf("polycopy * %s", ts.In(pst).Format("1/2/2006, 3:04:05PM (MST)"))
}

func embedTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.Format(time.RFC3339)
}

func shortAddress(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-6:]
}

// Close closes the Discord session.
func (dc *DiscordClient) Close() error {
	if dc.session != nil {
		return dc.session.Close()
	}
	return nil
}
