package clients

import (
	"polycopy/clients/clob"
	"polycopy/clients/discord"
	"polycopy/clients/notifier"
	"polycopy/clients/polymarketapi"
	"polycopy/clients/polymarketevents"
	"polycopy/clients/telegram"
	"polycopy/config"

	"go.uber.org/zap"
)

type Clients struct {
	Logger *zap.Logger

	Discord          *discord.DiscordClient
	Telegram         *telegram.TelegramClient
	Notifier         notifier.Notifier // Combined notifier for all channels
	Polymarket       *polymarketapi.PolymarketApiClient
	Clob             *clob.Client
	PolymarketEvents *polymarketevents.PolymarketEventsClient
}

func NewClients(logger *zap.Logger, cfg *config.Config) *Clients {
	discordClient := discord.NewDiscordClient(logger, cfg)
	telegramClient := telegram.NewTelegramClient(logger, cfg)

	// Create combined notifier for all channels
	multiNotifier := notifier.NewMultiNotifier(discordClient, telegramClient)

	c := &Clients{
		Logger:     logger,
		Discord:    discordClient,
		Telegram:   telegramClient,
		Notifier:   multiNotifier,
		Polymarket: polymarketapi.NewPolymarketApiClient(logger, cfg),
		Clob:       clob.NewClient(logger, cfg),
	}

	// Only create WebSocket client if configured to use it
	if cfg.Whale.UseWebSocket {
		c.PolymarketEvents = polymarketevents.NewPolymarketEventsClient(logger, cfg)
	}

	return c
}
