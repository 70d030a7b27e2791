package models

// GMPQuote is one grey market premium observation. Quotes arrive oldest first.
type GMPQuote struct {
	Value Amount `json:"value"`
	Date  string `json:"date"`
}

type GMPTrend string

const (
	TrendUp   GMPTrend = "up"
	TrendDown GMPTrend = "down"
	TrendFlat GMPTrend = "flat"
)

// GMPAnalysis summarises the latest quote of a series against the upper price band
type GMPAnalysis struct {
	Latest                GMPQuote `json:"latest"`
	PercentageOfPrice     Amount   `json:"percentageOfPrice"`
	Trend                 GMPTrend `json:"trend"`
	EstimatedListingPrice Amount   `json:"estimatedListingPrice"`
}

// GMPHistoryEntry is one row of the newest-first history table. Change is nil
// for the oldest entry.
type GMPHistoryEntry struct {
	Value  Amount  `json:"value"`
	Date   string  `json:"date"`
	Change *Amount `json:"change,omitempty"`
}
