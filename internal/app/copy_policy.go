package app

import (
	"strings"

	"polycopy/clients/polymarketapi"
)

// ShouldCopy decides whether a followed trader's trade qualifies for
// copying. Checks short-circuit in order: enabled, minimum notional,
// allow-list, deny-list.
func ShouldCopy(trade polymarketapi.Trade, settings CopySettings) bool {
	if !settings.Enabled {
		return false
	}

	if trade.Notional() < settings.MinTraderConfidence {
		return false
	}

	slug := trade.MarketSlug()

	if len(settings.MarketsToCopy) > 0 && !containsSlug(settings.MarketsToCopy, slug) {
		return false
	}

	if containsSlug(settings.MarketsToExclude, slug) {
		return false
	}

	return true
}

// CopySize scales the original share count by CopyPercentage and clamps the
// result to [0, MaxPositionSize]. Sizing is in shares; price does not enter
// the calculation.
func CopySize(trade polymarketapi.Trade, settings CopySettings) float64 {
	size := float64(trade.Size) * settings.CopyPercentage / 100

	if size > settings.MaxPositionSize {
		size = settings.MaxPositionSize
	}
	if size < 0 {
		size = 0
	}

	return size
}

func containsSlug(slugs []string, slug string) bool {
	for _, s := range slugs {
		if strings.EqualFold(s, slug) {
			return true
		}
	}
	return false
}
