package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/shared"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const ipoServiceName = "IPO_Service"

// IPOAuditLogger records admin writes made through the engine
type IPOAuditLogger struct {
	serviceName string
}

// NewIPOAuditLogger creates a new audit logger
func NewIPOAuditLogger() *IPOAuditLogger {
	return &IPOAuditLogger{
		serviceName: "ipo-service",
	}
}

// AuditEntry represents a single audit log entry
type AuditEntry struct {
	Timestamp   time.Time              `json:"timestamp"`
	ServiceName string                 `json:"service_name"`
	Operation   string                 `json:"operation"`
	EntityType  string                 `json:"entity_type"`
	EntityID    string                 `json:"entity_id"`
	Changes     map[string]interface{} `json:"changes,omitempty"`
	Success     bool                   `json:"success"`
	ErrorMsg    *string                `json:"error_msg,omitempty"`
}

// LogSubscriptionUpdate logs the multipliers pushed for an offering
func (a *IPOAuditLogger) LogSubscriptionUpdate(ipoID string, update models.SubscriptionUpdate, err error) {
	entry := AuditEntry{
		Timestamp:   time.Now(),
		ServiceName: a.serviceName,
		Operation:   "UPDATE_SUBSCRIPTION",
		EntityType:  "IPO",
		EntityID:    ipoID,
		Success:     err == nil,
	}

	if update.Subscription != nil {
		entry.Changes = map[string]interface{}{
			"qib":         update.Subscription.QIB.String(),
			"nii":         update.Subscription.NII.String(),
			"retail":      update.Subscription.Retail.String(),
			"shareholder": update.Subscription.Shareholder.String(),
			"total":       update.Subscription.Total.String(),
		}
	}
	if err != nil {
		msg := err.Error()
		entry.ErrorMsg = &msg
	}

	a.logAuditEntry(entry)
}

func (a *IPOAuditLogger) logAuditEntry(entry AuditEntry) {
	logFields := logrus.Fields{
		"audit_timestamp": entry.Timestamp,
		"service_name":    entry.ServiceName,
		"operation":       entry.Operation,
		"entity_type":     entry.EntityType,
		"entity_id":       entry.EntityID,
		"success":         entry.Success,
	}

	if entry.ErrorMsg != nil {
		logFields["error_msg"] = *entry.ErrorMsg
	}

	if len(entry.Changes) > 0 {
		logFields["changes"] = entry.Changes
	}

	if entry.Success {
		logrus.WithFields(logFields).Info("Audit log entry")
	} else {
		logrus.WithFields(logFields).Warn("Audit log entry - operation failed")
	}
}

// SubscriptionWriter applies admin updates on the backend
type SubscriptionWriter interface {
	UpdateIPO(ctx context.Context, id string, update models.SubscriptionUpdate, adminToken string) error
}

// ApplicationSource lists a user's tracked applications and stores the
// results they enter
type ApplicationSource interface {
	MyApplications(ctx context.Context, credential string) ([]models.Application, error)
	UpdateApplicationStatus(ctx context.Context, update models.ApplicationStatusUpdate, credential string) error
}

type snapshotInvalidator interface {
	InvalidateIPO(ipoID string)
}

// IPOService assembles per-request views of offerings from backend snapshots
type IPOService struct {
	snapshots      SnapshotSource
	writer         SubscriptionWriter
	applications   ApplicationSource
	resolver       *StatusResolver
	auditLogger    *IPOAuditLogger
	serviceMetrics *shared.ServiceMetrics
	now            func() time.Time
}

// NewIPOService creates the IPO service
func NewIPOService(snapshots SnapshotSource, writer SubscriptionWriter, applications ApplicationSource, resolver *StatusResolver) *IPOService {
	if resolver == nil {
		resolver = NewStatusResolver(nil)
	}
	return &IPOService{
		snapshots:      snapshots,
		writer:         writer,
		applications:   applications,
		resolver:       resolver,
		auditLogger:    NewIPOAuditLogger(),
		serviceMetrics: shared.NewServiceMetrics(ipoServiceName),
		now:            time.Now,
	}
}

// SetClock replaces the clock used for phase resolution
func (s *IPOService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Now returns the service clock's current time
func (s *IPOService) Now() time.Time {
	return s.now()
}

// Resolver returns the status resolver views are built with
func (s *IPOService) Resolver() *StatusResolver {
	return s.resolver
}

// BuildView derives everything shown for one offering at now
func (s *IPOService) BuildView(record models.IPORecord, now time.Time) models.IPOView {
	view := models.IPOView{
		IPORecord:     record,
		Phase:         s.resolver.Resolve(record, now),
		AllotmentMode: models.ModeInternal,
		Shares:        AggregateShares(record.SubscriptionDetails.ShareCounts(), record.SubscriptionDetails.Preferences()),
		Applications:  AggregateApplications(record.SubscriptionDetails.ApplicationCounts()),
	}
	if record.HasAllotmentLink() {
		view.AllotmentMode = models.ModeExternal
	}

	if analysis, ok := AnalyzeGMP(record.GMP, record.PriceRange.Max.Decimal); ok {
		view.GMP = &analysis
	}

	lotSize := record.LotSize.Decimal
	switch {
	case view.Phase == models.PhaseListed && record.ListingGain != nil:
		profit := models.Amount{Decimal: record.ListingGain.Amount.Mul(lotSize)}
		view.EstimatedProfit = &profit
		view.ShowingListingGain = true
	case view.GMP != nil:
		profit := models.Amount{Decimal: EstimatedProfit(view.GMP.Latest.Value.Decimal, lotSize)}
		view.EstimatedProfit = &profit
	}

	return view
}

// EstimatedProfit is the premium earned on one lot
func EstimatedProfit(premium, lotSize decimal.Decimal) decimal.Decimal {
	return premium.Mul(lotSize)
}

// ListViews returns views of every offering matching filter, in backend order
// unless filter.Sort asks otherwise
func (s *IPOService) ListViews(ctx context.Context, filter models.IPOFilter) ([]models.IPOView, error) {
	startTime := time.Now()
	records, err := s.snapshots.ListIPOs(ctx)
	s.recordOperation("ListViews", err == nil, time.Since(startTime))
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]models.IPOView, 0, len(records))
	for _, record := range records {
		view := s.BuildView(record, now)
		if MatchesFilter(view, filter) {
			views = append(views, view)
		}
	}

	SortViews(views, filter.Sort, s.resolver.Utility())
	if filter.Limit > 0 && len(views) > filter.Limit {
		views = views[:filter.Limit]
	}
	return views, nil
}

// SortViews orders views in place. Views without a usable sort date keep
// their relative order after the rest.
func SortViews(views []models.IPOView, order models.IPOSort, utility *UtilityService) {
	var dateOf func(models.IPOView) string
	descending := false

	switch order {
	case models.SortLatestGMP:
		dateOf = func(view models.IPOView) string {
			if view.GMP == nil {
				return ""
			}
			return view.GMP.Latest.Date
		}
		descending = true
	case models.SortOpenDate:
		dateOf = func(view models.IPOView) string { return view.OpenDate }
	case models.SortCloseDate:
		dateOf = func(view models.IPOView) string { return view.CloseDate }
		descending = true
	default:
		return
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, okA := utility.ParseInstant(dateOf(views[i]))
		b, okB := utility.ParseInstant(dateOf(views[j]))
		if okA != okB {
			return okA
		}
		if descending {
			return a.After(b)
		}
		return a.Before(b)
	})
}

// ListRecords returns the raw snapshots
func (s *IPOService) ListRecords(ctx context.Context) ([]models.IPORecord, error) {
	return s.snapshots.ListIPOs(ctx)
}

// GetRecord returns one raw snapshot
func (s *IPOService) GetRecord(ctx context.Context, id string) (*models.IPORecord, error) {
	startTime := time.Now()
	record, err := s.snapshots.GetIPO(ctx, id)
	s.recordOperation("GetRecord", err == nil, time.Since(startTime))
	return record, err
}

// GetView returns the view of one offering
func (s *IPOService) GetView(ctx context.Context, id string) (*models.IPOView, error) {
	record, err := s.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.BuildView(*record, s.now())
	return &view, nil
}

// UpdateSubscription derives the multiplier block from the entered figures and
// stores both on the backend.
func (s *IPOService) UpdateSubscription(ctx context.Context, ipoID string, details models.SubscriptionDetails, adminToken string) (models.SubscriptionUpdate, error) {
	update := BuildSubscriptionUpdate(details)

	startTime := time.Now()
	err := s.writer.UpdateIPO(ctx, ipoID, update, adminToken)
	s.recordOperation("UpdateSubscription", err == nil, time.Since(startTime))
	s.auditLogger.LogSubscriptionUpdate(ipoID, update, err)
	if err != nil {
		return models.SubscriptionUpdate{}, err
	}

	if invalidator, ok := s.snapshots.(snapshotInvalidator); ok {
		invalidator.InvalidateIPO(ipoID)
	}
	return update, nil
}

// Applications returns the user's tracked applications with dashboard counters
func (s *IPOService) Applications(ctx context.Context, credential string) ([]models.Application, models.ApplicationStats, error) {
	startTime := time.Now()
	apps, err := s.applications.MyApplications(ctx, credential)
	s.recordOperation("Applications", err == nil, time.Since(startTime))
	if err != nil {
		return nil, models.ApplicationStats{}, err
	}
	return apps, SummarizeApplications(apps), nil
}

// UpdateApplicationStatus records the result a user read on the registrar
// site. Only allotted and not_allotted are accepted; an allotted result needs
// the number of shares, which is dropped for not_allotted.
func (s *IPOService) UpdateApplicationStatus(ctx context.Context, applicationID, status string, lotSize models.Quantity, credential string) (models.ApplicationStatusUpdate, error) {
	const operation = "UpdateApplicationStatus"

	update := models.ApplicationStatusUpdate{
		ApplicationID: strings.TrimSpace(applicationID),
		Status:        models.AllotmentOutcome(strings.ToLower(strings.TrimSpace(status))),
		LotSize:       lotSize,
	}
	if update.ApplicationID == "" {
		return models.ApplicationStatusUpdate{}, shared.NewValidationError(shared.CodeMissingApplication,
			"application id is required", ipoServiceName, operation)
	}

	switch update.Status {
	case models.OutcomeAllotted:
		if !update.LotSize.IsPositive() {
			return models.ApplicationStatusUpdate{}, shared.NewValidationError(shared.CodeInvalidLotSize,
				"shares allotted must be greater than zero", ipoServiceName, operation)
		}
	case models.OutcomeNotAllotted:
		update.LotSize = models.Quantity{}
	default:
		return models.ApplicationStatusUpdate{}, shared.NewValidationError(shared.CodeInvalidOutcome,
			"status must be allotted or not_allotted", ipoServiceName, operation)
	}

	startTime := time.Now()
	err := s.applications.UpdateApplicationStatus(ctx, update, credential)
	s.recordOperation(operation, err == nil, time.Since(startTime))
	if err != nil {
		return models.ApplicationStatusUpdate{}, err
	}

	logrus.WithFields(logrus.Fields{
		"component":      "IPOService",
		"application_id": update.ApplicationID,
		"status":         update.Status,
	}).Info("Application result recorded")
	return update, nil
}

// SummarizeApplications counts applications and allotted shares
func SummarizeApplications(apps []models.Application) models.ApplicationStats {
	stats := models.ApplicationStats{
		TotalApplications: len(apps),
	}
	for _, app := range apps {
		if app.Status != models.OutcomeAllotted {
			continue
		}
		stats.TotalAllotted++
		stats.SharesAllotted.Decimal = stats.SharesAllotted.Add(app.LotSize.Decimal)
	}
	return stats
}

// MatchesFilter applies phase, data presence, category and name/symbol
// search to a view
func MatchesFilter(view models.IPOView, filter models.IPOFilter) bool {
	if filter.Phase != "" && view.Phase != filter.Phase {
		return false
	}

	if len(filter.Phases) > 0 && !containsPhase(filter.Phases, view.Phase) {
		return false
	}

	if filter.HasGMP && view.GMP == nil {
		return false
	}

	if filter.HasSubscription && !view.Shares.Total.IsPositive() && !view.Subscription.Total.IsPositive() {
		return false
	}

	if filter.Category != "" && !strings.EqualFold(view.Category, filter.Category) {
		return false
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(view.CompanyName), query) ||
		strings.Contains(strings.ToLower(view.Symbol), query)
}

func containsPhase(phases []models.LifecyclePhase, phase models.LifecyclePhase) bool {
	for _, candidate := range phases {
		if candidate == phase {
			return true
		}
	}
	return false
}

// GetServiceMetrics returns the current service metrics
func (s *IPOService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}

func (s *IPOService) recordOperation(operationName string, success bool, processingTime time.Duration) {
	s.serviceMetrics.RecordRequest(success, processingTime)
	s.serviceMetrics.IncrementCustomCounter(operationName)
}
