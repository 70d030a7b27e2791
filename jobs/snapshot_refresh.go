package jobs

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SnapshotRefreshJob reloads the listing and every offering's detail snapshot
// into the cache.
type SnapshotRefreshJob struct {
	Snapshots      *services.CachedSnapshotSource
	Utility        *services.UtilityService
	MaxConcurrency int
	Timeout        time.Duration
}

func NewSnapshotRefreshJob(snapshots *services.CachedSnapshotSource, utility *services.UtilityService, maxConcurrency int) *SnapshotRefreshJob {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &SnapshotRefreshJob{
		Snapshots:      snapshots,
		Utility:        utility,
		MaxConcurrency: maxConcurrency,
		Timeout:        5 * time.Minute,
	}
}

// RefreshSummary reports the outcome of one refresh
type RefreshSummary struct {
	Listed     int
	Refreshed  int64
	Failed     int64
	Incomplete int
	Duration   time.Duration
}

// Run refreshes the cache. Only a failed listing fetch is an error; detail
// failures are counted and the stale entry is left to expire.
func (j *SnapshotRefreshJob) Run(ctx context.Context) error {
	_, err := j.Refresh(ctx)
	return err
}

// Refresh is Run with the summary returned
func (j *SnapshotRefreshJob) Refresh(ctx context.Context) (RefreshSummary, error) {
	startTime := time.Now()
	logger := logrus.WithField("component", "SnapshotRefreshJob")

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	records, err := j.Snapshots.Refresh(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to refresh IPO listing")
		return RefreshSummary{}, err
	}

	summary := RefreshSummary{Listed: len(records)}
	var refreshed, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.MaxConcurrency)

	for _, record := range records {
		id := record.Identifier()
		if id == "" {
			continue
		}

		if completeness := j.analyzeDataCompleteness(record); len(completeness.MissingCriticalFields) > 0 {
			summary.Incomplete++
			logger.WithFields(logrus.Fields{
				"ipo_id":         id,
				"company_name":   record.CompanyName,
				"missing_fields": completeness.MissingCriticalFields,
			}).Debug("Snapshot lacks fields needed for derived values")
		}

		g.Go(func() error {
			if _, err := j.Snapshots.FetchFresh(gctx, id); err != nil {
				failed.Add(1)
				logger.WithFields(logrus.Fields{"ipo_id": id}).WithError(err).Warn("Failed to refresh IPO snapshot")
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}

	_ = g.Wait()

	summary.Refreshed = refreshed.Load()
	summary.Failed = failed.Load()
	summary.Duration = time.Since(startTime)

	logger.WithFields(logrus.Fields{
		"listed":     summary.Listed,
		"refreshed":  summary.Refreshed,
		"failed":     summary.Failed,
		"incomplete": summary.Incomplete,
		"duration":   summary.Duration,
	}).Info("Snapshot refresh completed")

	return summary, nil
}

// DataCompleteness lists the fields a snapshot is missing
type DataCompleteness struct {
	MissingCriticalFields []string `json:"missing_critical_fields"`
	MissingOptionalFields []string `json:"missing_optional_fields"`
}

// analyzeDataCompleteness checks the fields phase, GMP and profit derivations read
func (j *SnapshotRefreshJob) analyzeDataCompleteness(record models.IPORecord) DataCompleteness {
	criticalFields := map[string]bool{
		"openDate":      j.hasDate(record.OpenDate),
		"closeDate":     j.hasDate(record.CloseDate),
		"priceRangeMax": record.PriceRange.Max.IsPositive(),
		"lotSize":       record.LotSize.IsPositive(),
	}
	optionalFields := map[string]bool{
		"listingDate":   j.hasDate(record.ListingDate),
		"allotmentDate": j.hasDate(record.AllotmentDate),
		"registrar":     record.Registrar != "",
		"symbol":        record.Symbol != "",
	}

	var completeness DataCompleteness
	for field, present := range criticalFields {
		if !present {
			completeness.MissingCriticalFields = append(completeness.MissingCriticalFields, field)
		}
	}
	for field, present := range optionalFields {
		if !present {
			completeness.MissingOptionalFields = append(completeness.MissingOptionalFields, field)
		}
	}
	sort.Strings(completeness.MissingCriticalFields)
	sort.Strings(completeness.MissingOptionalFields)
	return completeness
}

func (j *SnapshotRefreshJob) hasDate(value string) bool {
	if j.Utility == nil {
		return value != ""
	}
	_, _, _, ok := j.Utility.ParseCalendarDate(value)
	return ok
}
