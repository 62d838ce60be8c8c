package app

import (
	"errors"
	"testing"
	"time"

	"polycopy/config"
)

func testDefaults() CopySettings {
	return DefaultCopySettings(config.Defaults().Copy)
}

func TestFollow_UsesDefaults(t *testing.T) {
	r := NewFollowRegistry(nil, testDefaults())

	rec := r.Follow("0xWallet", nil)

	if rec.Settings.CopyPercentage != 10 {
		t.Errorf("expected default copy percentage 10, got %f", rec.Settings.CopyPercentage)
	}
	if rec.Settings.MaxPositionSize != 100 {
		t.Errorf("expected default max position size 100, got %f", rec.Settings.MaxPositionSize)
	}
	if !rec.Settings.Enabled {
		t.Error("expected copying enabled by default")
	}
	if rec.StartedAt.IsZero() {
		t.Error("expected startedAt to be set")
	}
	if rec.TotalCopiedTrades != 0 || rec.TotalVolumeCopied != 0 {
		t.Error("expected fresh counters")
	}
}

func TestFollow_OverrideMerges(t *testing.T) {
	r := NewFollowRegistry(nil, testDefaults())

	pct := 25.0
	enabled := false
	rec := r.Follow("0xwallet", &SettingsOverride{
		CopyPercentage:   &pct,
		Enabled:          &enabled,
		MarketsToExclude: []string{"election-2028"},
	})

	if rec.Settings.CopyPercentage != 25 {
		t.Errorf("expected overridden percentage, got %f", rec.Settings.CopyPercentage)
	}
	if rec.Settings.Enabled {
		t.Error("expected overridden enabled=false")
	}
	if len(rec.Settings.MarketsToExclude) != 1 || rec.Settings.MarketsToExclude[0] != "election-2028" {
		t.Errorf("unexpected exclude list: %v", rec.Settings.MarketsToExclude)
	}
	// Untouched fields keep their defaults.
	if rec.Settings.MaxPositionSize != 100 {
		t.Errorf("expected default max position size, got %f", rec.Settings.MaxPositionSize)
	}
}

func TestRefollow_ResetsCounters(t *testing.T) {
	r := NewFollowRegistry(nil, testDefaults())

	r.Follow("0xwallet", nil)
	r.RecordCopy("0xwallet", 42.5)
	r.RecordCopy("0xwallet", 7.5)

	rec, _ := r.Get("0xwallet")
	if rec.TotalCopiedTrades != 2 || rec.TotalVolumeCopied != 50 {
		t.Fatalf("setup failed: %+v", rec)
	}

	rec = r.Follow("0xwallet", nil)
	if rec.TotalCopiedTrades != 0 || rec.TotalVolumeCopied != 0 {
		t.Errorf("expected counters reset on re-follow, got %+v", rec)
	}
}

func TestUnfollow_ReturnsFinalCounters(t *testing.T) {
	r := NewFollowRegistry(nil, testDefaults())

	r.Follow("0xwallet", nil)
	r.RecordCopy("0xwallet", 12.5)

	rec, err := r.Unfollow("0xwallet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.TotalCopiedTrades != 1 || rec.TotalVolumeCopied != 12.5 {
		t.Errorf("unexpected final counters: %+v", rec)
	}
	if r.IsFollowing("0xwallet") {
		t.Error("expected wallet removed")
	}
}

func TestUnfollow_NotFollowing(t *testing.T) {
	r := NewFollowRegistry(nil, testDefaults())

	if _, err := r.Unfollow("0xunknown"); !errors.Is(err, ErrNotFollowing) {
		t.Errorf("expected ErrNotFollowing, got %v", err)
	}
}

func TestWalletNormalization(t *testing.T) {
	r := NewFollowRegistry(nil, testDefaults())

	r.Follow("0xABCDEF", nil)

	if !r.IsFollowing("0xabcdef") {
		t.Error("expected lookup to be case-insensitive")
	}
	if r.Count() != 1 {
		t.Errorf("expected 1 record, got %d", r.Count())
	}
	r.Follow("  0xabcdef  ", nil)
	if r.Count() != 1 {
		t.Errorf("expected trimmed re-follow to replace, got %d records", r.Count())
	}
}

func TestList_ReturnsValueCopies(t *testing.T) {
	defaults := testDefaults()
	defaults.MarketsToCopy = []string{"btc-100k"}
	r := NewFollowRegistry(nil, defaults)

	r.Follow("0xwallet", nil)

	list := r.List()
	if len(list) != 1 {
		t.Fatalf("expected 1 record, got %d", len(list))
	}
	list[0].Settings.MarketsToCopy[0] = "mutated"
	list[0].TotalCopiedTrades = 99

	rec, _ := r.Get("0xwallet")
	if rec.Settings.MarketsToCopy[0] != "btc-100k" {
		t.Error("mutating a listed record leaked into the registry")
	}
	if rec.TotalCopiedTrades != 0 {
		t.Error("mutating a listed record leaked into the registry counters")
	}
}

func TestRecordCopy_UnknownWallet(t *testing.T) {
	r := NewFollowRegistry(nil, testDefaults())

	if r.RecordCopy("0xunknown", 10) {
		t.Error("expected RecordCopy to report false for unknown wallet")
	}
}

func TestWatermark(t *testing.T) {
	r := NewFollowRegistry(nil, testDefaults())
	r.now = func() time.Time { return time.Unix(1704067200, 0) }

	r.Follow("0xwallet", nil)

	wm, ok := r.Watermark("0xwallet")
	if !ok || wm != 1704067200 {
		t.Errorf("expected watermark set to follow time, got %d ok=%v", wm, ok)
	}

	r.SetWatermark("0xwallet", 1704070000)
	wm, _ = r.Watermark("0xwallet")
	if wm != 1704070000 {
		t.Errorf("expected advanced watermark, got %d", wm)
	}

	if _, ok := r.Watermark("0xunknown"); ok {
		t.Error("expected no watermark for unknown wallet")
	}
}
