package clients

import (
	"polycopy/config"
	"testing"

	"go.uber.org/zap"
)

func TestNewClients(t *testing.T) {
	cfg := config.Defaults()
	cfg.Whale.UseWebSocket = true

	logger := zap.NewNop()
	c := NewClients(logger, cfg)

	if c.Logger != logger {
		t.Error("unexpected logger")
	}
	if c.Discord == nil {
		t.Error("expected Discord client to be set")
	}
	if c.Telegram == nil {
		t.Error("expected Telegram client to be set")
	}
	if c.Notifier == nil {
		t.Error("expected combined notifier to be set")
	}
	if c.Polymarket == nil {
		t.Error("expected Polymarket client to be set")
	}
	if c.Clob == nil {
		t.Error("expected Clob client to be set")
	}
	if c.PolymarketEvents == nil {
		t.Error("expected PolymarketEvents client to be set when UseWebSocket is true")
	}
}

func TestNewClients_PollingMode(t *testing.T) {
	cfg := config.Defaults()
	cfg.Whale.UseWebSocket = false

	c := NewClients(zap.NewNop(), cfg)

	if c.PolymarketEvents != nil {
		t.Error("expected PolymarketEvents client to be nil when UseWebSocket is false")
	}
}

func TestNewClients_NilLogger(t *testing.T) {
	c := NewClients(nil, config.Defaults())

	if c.Logger != nil {
		t.Error("expected nil logger to remain nil")
	}
	// Other clients should still be initialized
	if c.Discord == nil {
		t.Error("expected Discord client to be set")
	}
}
