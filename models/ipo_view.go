package models

import "strings"

// IPOView is an IPORecord together with the values derived from it for one
// request. Nothing in it is persisted.
type IPOView struct {
	IPORecord

	// Status hides the stored status; it is never set, so views carry only Phase
	Status string `json:"status,omitempty"`

	Phase         LifecyclePhase `json:"phase"`
	AllotmentMode AllotmentMode  `json:"allotmentMode"`

	// GMP is nil when the record has no quotes
	GMP                *GMPAnalysis `json:"gmpAnalysis,omitempty"`
	EstimatedProfit    *Amount      `json:"estimatedProfit,omitempty"`
	ShowingListingGain bool         `json:"showingListingGain"`

	Shares       ShareAggregation       `json:"shareAggregation"`
	Applications ApplicationAggregation `json:"applicationAggregation"`
}

// IPOFilter narrows and orders a listing. Zero values match everything and
// keep backend order.
type IPOFilter struct {
	Phase    LifecyclePhase
	Category string
	Query    string

	// Phases matches any of the listed phases when non-empty
	Phases          []LifecyclePhase
	HasGMP          bool
	HasSubscription bool
	Sort            IPOSort
	Limit           int
}

// IPOSort orders a listing. Offerings whose sort date is missing or
// unparseable go last.
type IPOSort string

const (
	SortBackend   IPOSort = ""
	SortLatestGMP IPOSort = "gmp"        // newest quote date first
	SortOpenDate  IPOSort = "open_date"  // earliest opening first
	SortCloseDate IPOSort = "close_date" // latest closing first
)

func ParseIPOSort(s string) (IPOSort, bool) {
	switch IPOSort(strings.ToLower(strings.TrimSpace(s))) {
	case SortBackend:
		return SortBackend, true
	case SortLatestGMP:
		return SortLatestGMP, true
	case SortOpenDate:
		return SortOpenDate, true
	case SortCloseDate:
		return SortCloseDate, true
	}
	return "", false
}

// Boards shown on the home and GMP pages
const (
	BoardGMP          = "gmp"
	BoardCalendar     = "calendar"
	BoardSubscription = "subscription"
)

// BoardFilter returns the filter of a named board. "all" and "" return the
// zero filter.
func BoardFilter(name string) (IPOFilter, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return IPOFilter{}, true
	case BoardGMP:
		return IPOFilter{
			Phases: []LifecyclePhase{PhaseUpcoming, PhaseOpen, PhaseClosed},
			HasGMP: true,
			Sort:   SortLatestGMP,
		}, true
	case BoardCalendar:
		return IPOFilter{
			Phases: []LifecyclePhase{PhaseUpcoming, PhaseOpen},
			Sort:   SortOpenDate,
		}, true
	case BoardSubscription:
		return IPOFilter{
			Phases:          []LifecyclePhase{PhaseOpen, PhaseClosed},
			HasSubscription: true,
			Sort:            SortCloseDate,
		}, true
	}
	return IPOFilter{}, false
}
