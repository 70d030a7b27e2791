package services

import (
	"time"

	"github.com/fenilmodi00/ipo-insights/models"
)

// Market clock boundaries of the lifecycle phases
const (
	SubscriptionOpenHour    = 10
	SubscriptionOpenMinute  = 0
	SubscriptionCloseHour   = 16
	SubscriptionCloseMinute = 30
	ListingHour             = 10
	ListingMinute           = 0
)

// StatusResolver derives the lifecycle phase of an offering from its calendar.
// The stored status field is never consulted.
type StatusResolver struct {
	utility *UtilityService
}

// NewStatusResolver creates a resolver evaluating boundaries in the given zone
func NewStatusResolver(utility *UtilityService) *StatusResolver {
	if utility == nil {
		utility = NewUtilityService(nil)
	}
	return &StatusResolver{utility: utility}
}

// Utility returns the date helper the resolver evaluates boundaries with
func (r *StatusResolver) Utility() *UtilityService {
	return r.utility
}

// Resolve returns the phase of record at now. The first matching boundary
// wins; absent or unparseable dates never match.
func (r *StatusResolver) Resolve(record models.IPORecord, now time.Time) models.LifecyclePhase {
	if r.reached(record.ListingDate, ListingHour, ListingMinute, now) {
		return models.PhaseListed
	}
	if r.reached(record.CloseDate, SubscriptionCloseHour, SubscriptionCloseMinute, now) {
		return models.PhaseClosed
	}
	if r.reached(record.OpenDate, SubscriptionOpenHour, SubscriptionOpenMinute, now) {
		return models.PhaseOpen
	}
	return models.PhaseUpcoming
}

func (r *StatusResolver) reached(dateStr string, hour, minute int, now time.Time) bool {
	boundary, ok := r.utility.AtMarketTime(dateStr, hour, minute)
	if !ok {
		return false
	}
	return !now.Before(boundary)
}

// IsEligibleForAllotment reports whether allotment results can exist for record
func (r *StatusResolver) IsEligibleForAllotment(record models.IPORecord, now time.Time) bool {
	phase := r.Resolve(record, now)
	return phase == models.PhaseClosed || phase == models.PhaseListed
}
