package telegram

import (
	"fmt"
	"strings"
	"time"

	"forex-signal/pkg/utils"
)

// ForexAlert is rendered in legacy Markdown.
type ForexAlert struct {
	Pair            string
	IsBuy           bool
	Entry           float64
	StopLoss        float64
	VolatilityRatio float64
	TakeProfit      []float64
	Confidence      int
	At              time.Time
}

// CommodityAlert is rendered in MarkdownV2.
type CommodityAlert struct {
	Asset           string
	IsLong          bool
	Entry           float64
	PositionPerTier float64
	VolatilityRatio float64
	TakeProfit      []float64
	Confidence      int
	At              time.Time
}

// MarketAlert is rendered in legacy Markdown.
type MarketAlert struct {
	Symbol     string
	Name       string
	IsLong     bool
	Entry      float64
	StopLoss   float64
	TakeProfit []float64
	Confidence int
	At         time.Time
}

const NoQualifiedSignalsMessage = "⚠️ No qualified signals found. Market conditions not met."

func FormatForexAlert(a ForexAlert) string {
	direction := "SHORT ⬇️"
	if a.IsBuy {
		direction = "LONG ⬆️"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("⏰ %s UK\n", utils.UKTime(a.At)))
	b.WriteString("*Forex signal *\n")
	b.WriteString(fmt.Sprintf("📈 %s Signal - %s ⚡\n", a.Pair, direction))
	b.WriteString("Price Info:\n")
	b.WriteString(fmt.Sprintf("• Current price : %.5f\n", a.Entry))
	b.WriteString(fmt.Sprintf("• Stop Loss: %.5f\n", a.StopLoss))
	b.WriteString(fmt.Sprintf("• Volatility Ratio: %.2f\n\n", a.VolatilityRatio))
	b.WriteString("🔰 Take Profit Targets:\n")
	for i, tp := range a.TakeProfit {
		b.WriteString(fmt.Sprintf("• TP:%d %.5f 🎯\n", i+1, tp))
	}
	b.WriteString(fmt.Sprintf("\n📊 Confidence: %d%%", a.Confidence))
	return b.String()
}

func FormatCommodityAlert(a CommodityAlert) string {
	direction := "SHORT"
	if a.IsLong {
		direction = "LONG"
	}
	esc := utils.EscapeMarkdownV2

	var b strings.Builder
	b.WriteString(fmt.Sprintf("⏰ *%s UK*\n", esc(utils.UKTime(a.At))))
	b.WriteString(fmt.Sprintf("📈 *%s Signal \\- %s* ⚡\n\n", esc(a.Asset), direction))
	b.WriteString("*Price Info:*\n")
	b.WriteString(fmt.Sprintf("• Current price: `%.4f`\n", a.Entry))
	b.WriteString(fmt.Sprintf("• Position: `$%.2f` %s\n", a.PositionPerTier*3, esc(fmt.Sprintf("($%.2f/tier)", a.PositionPerTier))))
	b.WriteString(fmt.Sprintf("• Volatility Ratio: `%.2f`\n\n", a.VolatilityRatio))
	b.WriteString("🔰 *Take Profit Targets:*\n")
	for i, tp := range a.TakeProfit {
		b.WriteString(fmt.Sprintf("• TP%d: `%.4f` 🎯\n", i+1, tp))
	}
	b.WriteString(fmt.Sprintf("\n📊 *Confidence:* `%d%%`", a.Confidence))
	return b.String()
}

func FormatMarketAlert(a MarketAlert) string {
	direction := "SHORT"
	if a.IsLong {
		direction = "LONG"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("⏰ %s\n", utils.UTCTime(a.At)))
	b.WriteString("📈 *Commodity Signal Alert* ⚡\n\n")
	b.WriteString(fmt.Sprintf("📈 *Direction:* %s\n", direction))
	b.WriteString(fmt.Sprintf("🔹 *Asset:* %s (%s)\n", a.Name, a.Symbol))
	b.WriteString(fmt.Sprintf("💰 *Entry Price:* %.4f\n", a.Entry))
	b.WriteString(fmt.Sprintf("🛡️ *Stop Loss:* %.4f\n", a.StopLoss))
	b.WriteString("🎯 *Take Profit Targets:*\n")
	for i, tp := range a.TakeProfit {
		b.WriteString(fmt.Sprintf("TP%d: %.4f\n", i+1, tp))
	}
	b.WriteString(fmt.Sprintf("📊 *Confidence:* %d%%", a.Confidence))
	return b.String()
}
