package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"polycopy/clients/polymarketapi"
)

func newTestDetector(feed TradeFeed, config WhaleDetectorConfig) *WhaleDetector {
	return NewWhaleDetector(nil, feed, config)
}

func TestCheckForNewWhales_DedupesRepeatedTransactions(t *testing.T) {
	feed := &mockTradeFeed{}
	trade := testTrade("0xtx1", "asset1", 1000, 0.50)
	feed.queue([]polymarketapi.Trade{trade})
	feed.queue([]polymarketapi.Trade{trade, testTrade("0xtx2", "asset2", 2000, 0.60)})

	d := newTestDetector(feed, DefaultWhaleDetectorConfig())

	first := d.CheckForNewWhales(context.Background())
	if len(first) != 1 {
		t.Fatalf("expected 1 whale from first batch, got %d", len(first))
	}

	second := d.CheckForNewWhales(context.Background())
	if len(second) != 1 {
		t.Fatalf("expected 1 whale from second batch, got %d", len(second))
	}
	if second[0].Trade.TransactionHash != "0xtx2" {
		t.Errorf("expected only the unseen transaction, got %s", second[0].Trade.TransactionHash)
	}
}

func TestCheckForNewWhales_FeedErrorAbsorbed(t *testing.T) {
	feed := &mockTradeFeed{err: errors.New("connection refused")}
	d := newTestDetector(feed, DefaultWhaleDetectorConfig())

	whales := d.CheckForNewWhales(context.Background())
	if len(whales) != 0 {
		t.Errorf("expected empty result on feed error, got %d", len(whales))
	}

	// Next cycle recovers once the feed does.
	feed.mu.Lock()
	feed.err = nil
	feed.mu.Unlock()
	feed.queue([]polymarketapi.Trade{testTrade("0xtx1", "asset1", 1000, 0.50)})

	whales = d.CheckForNewWhales(context.Background())
	if len(whales) != 1 {
		t.Errorf("expected 1 whale after recovery, got %d", len(whales))
	}
}

func TestObserve_BelowThresholdIgnored(t *testing.T) {
	cfg := DefaultWhaleDetectorConfig()
	cfg.MinTradeValue = 10000

	d := newTestDetector(&mockTradeFeed{}, cfg)

	// 100 shares at 0.50 is a 50 dollar trade.
	if _, ok := d.Observe(testTrade("0xtx1", "asset1", 100, 0.50)); ok {
		t.Error("expected trade below threshold to be ignored")
	}
	if _, ok := d.Observe(testTrade("0xtx2", "asset2", 25000, 0.50)); !ok {
		t.Error("expected trade above threshold to be recorded")
	}
}

func TestHistoryBounded_MostRecentFirst(t *testing.T) {
	cfg := DefaultWhaleDetectorConfig()
	cfg.MaxHistory = 100

	d := newTestDetector(&mockTradeFeed{}, cfg)

	for i := 0; i < 150; i++ {
		tx := fmt.Sprintf("0xtx%d", i)
		if _, ok := d.Observe(testTrade(tx, "asset1", 25000, 0.50)); !ok {
			t.Fatalf("trade %d unexpectedly rejected", i)
		}
	}

	recent := d.RecentWhales(1000)
	if len(recent) != 100 {
		t.Fatalf("expected exactly 100 entries, got %d", len(recent))
	}
	if recent[0].Trade.TransactionHash != "0xtx149" {
		t.Errorf("expected most recent first, got %s", recent[0].Trade.TransactionHash)
	}
	if recent[99].Trade.TransactionHash != "0xtx50" {
		t.Errorf("expected oldest retained entry to be 0xtx50, got %s", recent[99].Trade.TransactionHash)
	}
}

func TestRecentWhales_Limit(t *testing.T) {
	d := newTestDetector(&mockTradeFeed{}, DefaultWhaleDetectorConfig())

	for i := 0; i < 10; i++ {
		d.Observe(testTrade(fmt.Sprintf("0xtx%d", i), "asset1", 25000, 0.50))
	}

	if got := len(d.RecentWhales(3)); got != 3 {
		t.Errorf("expected 3 entries, got %d", got)
	}
	if got := len(d.RecentWhales(0)); got != 10 {
		t.Errorf("expected full history for limit 0, got %d", got)
	}
}

func TestSeenSetBounded(t *testing.T) {
	cfg := DefaultWhaleDetectorConfig()
	cfg.MaxSeenTx = 10

	d := newTestDetector(&mockTradeFeed{}, cfg)

	for i := 0; i < 15; i++ {
		d.Observe(testTrade(fmt.Sprintf("0xtx%d", i), "asset1", 25000, 0.50))
	}

	stats := d.Stats()
	if stats.SeenTxSize > 10 {
		t.Errorf("expected seen set bounded at 10, got %d", stats.SeenTxSize)
	}

	// The oldest identity was evicted, so it reads as new again.
	if _, ok := d.Observe(testTrade("0xtx0", "asset1", 25000, 0.50)); !ok {
		t.Error("expected evicted transaction to be treated as new")
	}
}

func TestRun_InvokesCallback(t *testing.T) {
	feed := &mockTradeFeed{}
	feed.queue([]polymarketapi.Trade{testTrade("0xtx1", "asset1", 25000, 0.50)})

	cfg := DefaultWhaleDetectorConfig()
	cfg.PollInterval = 10 * time.Millisecond

	d := newTestDetector(feed, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	whales := make(chan WhaleTrade, 1)
	go d.Run(ctx, func(w WhaleTrade) {
		select {
		case whales <- w:
		default:
		}
	})

	select {
	case w := <-whales:
		if w.Trade.TransactionHash != "0xtx1" {
			t.Errorf("unexpected whale: %s", w.Trade.TransactionHash)
		}
		if w.Value != 25000*0.50 {
			t.Errorf("unexpected value: %f", w.Value)
		}
	case <-time.After(time.Second):
		t.Fatal("expected whale callback")
	}
}

func TestAssetIDs_Distinct(t *testing.T) {
	d := newTestDetector(&mockTradeFeed{}, DefaultWhaleDetectorConfig())

	d.Observe(testTrade("0xtx1", "asset1", 25000, 0.50))
	d.Observe(testTrade("0xtx2", "asset1", 25000, 0.50))
	d.Observe(testTrade("0xtx3", "asset2", 25000, 0.50))

	ids := d.AssetIDs()
	if len(ids) != 2 {
		t.Errorf("expected 2 distinct assets, got %d: %v", len(ids), ids)
	}
}

func TestTraderDisplayName(t *testing.T) {
	trade := testTrade("0xtx1", "asset1", 100, 0.50)

	trade.Name = "CryptoKing"
	trade.Pseudonym = "anon-whale"
	if got := traderDisplayName(trade); got != "CryptoKing" {
		t.Errorf("expected profile name, got %s", got)
	}

	trade.Name = ""
	if got := traderDisplayName(trade); got != "anon-whale" {
		t.Errorf("expected pseudonym, got %s", got)
	}

	trade.Pseudonym = "  "
	if got := traderDisplayName(trade); got != "0x1234…345678" {
		t.Errorf("expected short wallet, got %s", got)
	}
}
