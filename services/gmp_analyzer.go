package services

import (
	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/shopspring/decimal"
)

// LoneQuoteTrend is reported when a series holds a single quote and there is
// nothing to compare against.
const LoneQuoteTrend = models.TrendUp

// PercentagePlaces is the precision of GMP percentages
const PercentagePlaces = 2

var hundred = decimal.NewFromInt(100)

// AnalyzeGMP summarises a chronological quote series against the upper price
// band. ok is false for an empty series, which is distinct from a zero quote.
func AnalyzeGMP(quotes []models.GMPQuote, priceCeiling decimal.Decimal) (models.GMPAnalysis, bool) {
	if len(quotes) == 0 {
		return models.GMPAnalysis{}, false
	}

	latest := quotes[len(quotes)-1]

	percentage := decimal.Zero
	if !priceCeiling.IsZero() {
		percentage = latest.Value.Decimal.Mul(hundred).DivRound(priceCeiling, PercentagePlaces)
	}

	trend := LoneQuoteTrend
	if len(quotes) > 1 {
		trend = compareQuotes(latest.Value.Decimal, quotes[len(quotes)-2].Value.Decimal)
	}

	return models.GMPAnalysis{
		Latest:                latest,
		PercentageOfPrice:     models.Amount{Decimal: percentage},
		Trend:                 trend,
		EstimatedListingPrice: models.Amount{Decimal: priceCeiling.Add(latest.Value.Decimal)},
	}, true
}

// GMPHistory returns the series newest first. Each row carries the signed
// change from the next older quote; the oldest row has none.
func GMPHistory(quotes []models.GMPQuote) []models.GMPHistoryEntry {
	history := make([]models.GMPHistoryEntry, 0, len(quotes))
	for i := len(quotes) - 1; i >= 0; i-- {
		entry := models.GMPHistoryEntry{
			Value: quotes[i].Value,
			Date:  quotes[i].Date,
		}
		if i > 0 {
			change := models.Amount{Decimal: quotes[i].Value.Decimal.Sub(quotes[i-1].Value.Decimal)}
			entry.Change = &change
		}
		history = append(history, entry)
	}
	return history
}

func compareQuotes(latest, previous decimal.Decimal) models.GMPTrend {
	switch latest.Cmp(previous) {
	case 1:
		return models.TrendUp
	case -1:
		return models.TrendDown
	default:
		return models.TrendFlat
	}
}
