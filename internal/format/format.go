// Package format renders event snapshots into the HTML notification text
// sent to Telegram.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/polydictions/bot/internal/logger"
	"github.com/polydictions/bot/internal/models"
)

const fallbackText = "Error formatting event data"

// Event renders the stats/odds summary for one event. Rendering never
// propagates a failure; anything unexpected yields a fallback string.
func Event(event *models.Event, siteURL string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Error formatting event %s: %v", event.ID, r)
			text = fallbackText
		}
	}()

	title := event.Title
	if title == "" {
		title = "Unknown Event"
	}
	if len(event.Markets) == 0 {
		return "No market data available"
	}

	var totalLiquidity, totalVolume float64
	if event.Liquidity != nil && event.Volume != nil {
		totalLiquidity = float64(*event.Liquidity)
		totalVolume = float64(*event.Volume)
	} else {
		for i := range event.Markets {
			totalLiquidity += event.Markets[i].LiquidityValue()
			totalVolume += event.Markets[i].VolumeValue()
		}
	}

	endDate := event.EndDate
	if endDate == "" {
		endDate = event.Markets[0].EndDateValue()
	}

	var msg []string
	msg = append(msg, fmt.Sprintf("🔶 <b>%s</b>\n", title))
	msg = append(msg, fmt.Sprintf("🔗 <b>Link:</b> %s/event/%s\n", siteURL, event.Slug))
	msg = append(msg, "🧡 <b>Market stats:</b>")
	msg = append(msg, fmt.Sprintf("<b>Closes:</b> %s", Date(endDate)))
	msg = append(msg, fmt.Sprintf("<b>Total Liquidity:</b> %s", Money(totalLiquidity)))
	msg = append(msg, fmt.Sprintf("<b>Total Volume:</b> %s\n", Money(totalVolume)))

	if len(event.Markets) == 1 {
		msg = append(msg, singleMarketLines(&event.Markets[0])...)
	} else {
		msg = append(msg, multiMarketLines(event.Markets)...)
	}

	return strings.Join(msg, "\n")
}

func singleMarketLines(market *models.Market) []string {
	outcomes := market.Outcomes
	prices := market.OutcomePrices

	var lines []string
	if len(outcomes) == 2 {
		lines = append(lines, "📙 <b>Current Odds:</b>")
		for idx, name := range outcomes {
			if idx < len(prices) {
				lines = append(lines, fmt.Sprintf("  • %s: %.1f%%", name, scalePrice(prices[idx])))
			}
		}
	} else {
		lines = append(lines, "📙 <b>Options:</b>")
		for idx, name := range outcomes {
			if idx < len(prices) {
				lines = append(lines, fmt.Sprintf("  %d. %s: %.1f%%", idx+1, name, scalePrice(prices[idx])))
			}
		}
	}
	return lines
}

func multiMarketLines(markets []models.Market) []string {
	var valid []*models.Market
	for i := range markets {
		if len(markets[i].Outcomes) > 0 && len(markets[i].OutcomePrices) > 0 {
			valid = append(valid, &markets[i])
		}
	}

	lines := []string{fmt.Sprintf("📙 <b>Markets (%d):</b>", len(valid))}
	for idx, market := range valid {
		question := market.Question
		if question == "" {
			question = fmt.Sprintf("Market %d", idx+1)
		}
		lines = append(lines, fmt.Sprintf("  %d. %s", idx+1, question))

		outcomes := market.Outcomes
		if len(outcomes) > 5 {
			outcomes = outcomes[:5]
		}
		for oIdx, name := range outcomes {
			if oIdx < len(market.OutcomePrices) {
				lines = append(lines, fmt.Sprintf("     • %s: %.1f%%", name, scalePrice(market.OutcomePrices[oIdx])))
			}
		}
	}
	return lines
}

// scalePrice interprets a price as a [0,1] fraction and converts it to a
// percentage, unless it already exceeds 1, in which case the feed has
// pre-scaled it and it passes through unchanged.
func scalePrice(price float64) float64 {
	if price <= 1 {
		return price * 100
	}
	return price
}

// Money renders a dollar amount with thousands separators and no cents.
func Money(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "$0"
	}
	negative := value < 0
	rounded := int64(math.Round(math.Abs(value)))

	digits := fmt.Sprintf("%d", rounded)
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

// Date renders an ISO-8601 timestamp as a human-readable UTC date, passing
// unparseable values through verbatim and mapping an empty value to "N/A".
func Date(value string) string {
	if value == "" {
		return "N/A"
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.UTC().Format("January 02, 2006 at 15:04 UTC")
}
