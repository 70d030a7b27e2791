package jobs

import (
	"context"
	"time"

	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/sirupsen/logrus"
)

// ResultReleaseCheckJob logs offerings whose allotment results are due today
type ResultReleaseCheckJob struct {
	IPOService *services.IPOService
	Tracker    *services.AllotmentTracker
	Utility    *services.UtilityService
}

func NewResultReleaseCheckJob(ipoService *services.IPOService, tracker *services.AllotmentTracker, utility *services.UtilityService) *ResultReleaseCheckJob {
	return &ResultReleaseCheckJob{
		IPOService: ipoService,
		Tracker:    tracker,
		Utility:    utility,
	}
}

// DueToday returns eligible offerings whose allotment date is the market date of now
func (j *ResultReleaseCheckJob) DueToday(records []models.IPORecord, now time.Time) []models.IPORecord {
	y, m, d := now.In(j.Utility.Location()).Date()

	var due []models.IPORecord
	for _, record := range j.Tracker.EligibleForAllotment(records, now) {
		ay, am, ad, ok := j.Utility.ParseCalendarDate(record.AllotmentDate)
		if ok && ay == y && am == m && ad == d {
			due = append(due, record)
		}
	}
	return due
}

func (j *ResultReleaseCheckJob) Run(ctx context.Context) error {
	logger := logrus.WithField("component", "ResultReleaseCheckJob")

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	records, err := j.IPOService.ListRecords(ctx)
	if err != nil {
		logger.WithError(err).Error("Result Release Check Job failed")
		return err
	}

	for _, record := range j.DueToday(records, j.IPOService.Now()) {
		mode := models.ModeInternal
		if record.HasAllotmentLink() {
			mode = models.ModeExternal
		}
		logger.WithFields(logrus.Fields{
			"ipo_id":       record.Identifier(),
			"company_name": record.CompanyName,
			"registrar":    record.Registrar,
			"mode":         mode,
		}).Info("Allotment results due today")
	}
	return nil
}
