package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const allotmentServiceName = "Allotment_Tracker"

// User-facing texts of the allotment flow
const (
	LoginToTrackNotice    = "Please login to track this application in your dashboard."
	SessionExpiredWarning = "Session expired. Check not saved to dashboard. Please login again."
	NotFoundMessage       = "We could not find an application with this PAN for the selected IPO."
)

// Navigator opens a registrar page for the user
type Navigator interface {
	Open(ctx context.Context, target string) error
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(ctx context.Context, target string) error

// Open calls f
func (f NavigatorFunc) Open(ctx context.Context, target string) error {
	return f(ctx, target)
}

// AllotmentLookup performs the in-app allotment lookup
type AllotmentLookup interface {
	CheckAllotment(ctx context.Context, request models.AllotmentCheckRequest, credential, requestID string) (*models.AllotmentCheckResponse, error)
}

// VisitBeacon queues external-visit reports
type VisitBeacon interface {
	Send(ctx context.Context, report BeaconReport) bool
}

// AllotmentTracker coordinates one allotment attempt at a time: either the
// user is sent to the registrar, or the PAN is looked up through the backend.
type AllotmentTracker struct {
	lookup    AllotmentLookup
	beacon    VisitBeacon
	navigator Navigator
	resolver  *StatusResolver
	utility   *UtilityService
	metrics   *shared.ServiceMetrics
	logger    *logrus.Entry
}

// NewAllotmentTracker creates a tracker. A nil navigator accepts any absolute
// http(s) URL, which suits callers that redirect the user themselves.
func NewAllotmentTracker(lookup AllotmentLookup, beacon VisitBeacon, navigator Navigator, resolver *StatusResolver) *AllotmentTracker {
	if navigator == nil {
		navigator = NavigatorFunc(ValidateRegistrarURL)
	}
	if resolver == nil {
		resolver = NewStatusResolver(nil)
	}
	return &AllotmentTracker{
		lookup:    lookup,
		beacon:    beacon,
		navigator: navigator,
		resolver:  resolver,
		utility:   resolver.utility,
		metrics:   shared.NewServiceMetrics(allotmentServiceName),
		logger:    logrus.WithField("component", "AllotmentTracker"),
	}
}

// Metrics returns attempt counters
func (t *AllotmentTracker) Metrics() *shared.ServiceMetrics {
	return t.metrics
}

// NewAttempt starts an attempt for record. The mode is external exactly when
// the record carries a registrar link.
func (t *AllotmentTracker) NewAttempt(record models.IPORecord, panCard string) models.AllotmentAttempt {
	attempt := models.AllotmentAttempt{
		AttemptID: uuid.New(),
		IPOID:     record.Identifier(),
		IPOName:   record.CompanyName,
		Registrar: record.Registrar,
		Mode:      models.ModeInternal,
	}

	if record.HasAllotmentLink() {
		attempt.Mode = models.ModeExternal
		attempt.RegistrarURL = strings.TrimSpace(record.AllotmentLink)
		return attempt
	}

	attempt.PANCard = NormalizePAN(panCard)
	return attempt
}

// Initiate opens the registrar page and then, for signed-in users, reports the
// visit. Reporting never fails the call and never undoes the navigation.
func (t *AllotmentTracker) Initiate(ctx context.Context, attempt models.AllotmentAttempt, credential string) (*models.InitiateResult, error) {
	const operation = "Initiate"

	if strings.TrimSpace(attempt.IPOID) == "" {
		return nil, shared.NewValidationError(shared.CodeMissingIPO, "Please select an IPO", allotmentServiceName, operation)
	}
	if attempt.Mode != models.ModeExternal || attempt.RegistrarURL == "" {
		return nil, shared.NewValidationError(shared.CodeWrongMode,
			"allotment for this IPO is checked in-app", allotmentServiceName, operation)
	}

	if attempt.AttemptID == uuid.Nil {
		attempt.AttemptID = uuid.New()
	}

	logger := t.logger.WithFields(logrus.Fields{
		"operation":  operation,
		"attempt_id": attempt.AttemptID,
		"ipo_id":     attempt.IPOID,
	})

	if err := t.navigator.Open(ctx, attempt.RegistrarURL); err != nil {
		t.metrics.IncrementCustomCounter("navigation_failed")
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, shared.CodeNavigationFailed,
			"registrar page could not be opened", allotmentServiceName, operation, false, err)
	}
	t.metrics.IncrementCustomCounter("external_visits")

	result := &models.InitiateResult{
		Attempt:     attempt,
		RedirectURL: attempt.RegistrarURL,
	}

	if strings.TrimSpace(credential) == "" {
		result.Notice = LoginToTrackNotice
		logger.Debug("Anonymous registrar visit, not reported")
		return result, nil
	}

	if t.beacon != nil {
		result.Reported = t.beacon.Send(ctx, BeaconReport{
			IPOID:      attempt.IPOID,
			Credential: credential,
			RequestID:  attempt.AttemptID.String(),
		})
	}
	logger.WithField("reported", result.Reported).Debug("Registrar visit initiated")

	return result, nil
}

// Check validates the PAN locally and performs exactly one backend lookup.
// Validation failures never reach the network; transport failures come back
// as retryable errors with no partial result.
func (t *AllotmentTracker) Check(ctx context.Context, attempt models.AllotmentAttempt, credential string) (*models.AllotmentCheckResult, error) {
	const operation = "Check"

	attempt, err := t.ValidateCheck(attempt)
	if err != nil {
		return nil, err
	}
	if attempt.AttemptID == uuid.Nil {
		attempt.AttemptID = uuid.New()
	}

	startTime := time.Now()
	response, err := t.lookup.CheckAllotment(ctx, models.AllotmentCheckRequest{
		IPOID:   attempt.IPOID,
		PANCard: attempt.PANCard,
	}, credential, attempt.AttemptID.String())
	t.metrics.RecordRequest(err == nil, time.Since(startTime))
	if err != nil {
		return nil, asTransportError(err, operation)
	}

	result := &models.AllotmentCheckResult{
		Attempt:        attempt,
		TrackingStatus: response.TrackingStatus,
	}
	if response.TrackingStatus == models.TrackingStatusAuthError {
		result.Warning = SessionExpiredWarning
	}

	if !response.Found {
		result.Outcome = models.OutcomeNotFound
		result.Message = firstNonEmpty(response.Message, NotFoundMessage)
	} else {
		result.Allotment = response.Allotment
		result.Outcome = ClassifyAllotmentStatus(response.Allotment)
		result.Message = response.Message
	}
	t.metrics.IncrementCustomCounter("outcome_" + string(result.Outcome))

	t.logger.WithFields(logrus.Fields{
		"operation":       operation,
		"attempt_id":      attempt.AttemptID,
		"ipo_id":          attempt.IPOID,
		"outcome":         result.Outcome,
		"tracking_status": result.TrackingStatus,
	}).Debug("Allotment check completed")

	return result, nil
}

// ValidateCheck applies the local checks of an in-app lookup and returns the
// attempt with its PAN normalized.
func (t *AllotmentTracker) ValidateCheck(attempt models.AllotmentAttempt) (models.AllotmentAttempt, error) {
	const operation = "Check"

	if strings.TrimSpace(attempt.IPOID) == "" {
		return attempt, shared.NewValidationError(shared.CodeMissingIPO, "Please select an IPO", allotmentServiceName, operation)
	}
	if attempt.Mode == models.ModeExternal {
		return attempt, shared.NewValidationError(shared.CodeWrongMode,
			"allotment for this IPO is checked on the registrar site", allotmentServiceName, operation).
			WithDetails(map[string]string{"redirectUrl": attempt.RegistrarURL})
	}

	pan := NormalizePAN(attempt.PANCard)
	if !IsValidPAN(pan) {
		t.metrics.IncrementCustomCounter("invalid_pan")
		return attempt, shared.NewValidationError(shared.CodeInvalidPAN,
			"Please enter a valid 10-digit PAN card number", allotmentServiceName, operation)
	}
	attempt.PANCard = pan
	return attempt, nil
}

// ClassifyAllotmentStatus maps the backend's free-text status to an outcome.
// Anything unrecognised is still pending.
func ClassifyAllotmentStatus(details *models.AllotmentDetails) models.AllotmentOutcome {
	if details == nil {
		return models.OutcomePending
	}
	status := strings.ToLower(strings.TrimSpace(details.Status))
	status = strings.NewReplacer(" ", "_", "-", "_").Replace(status)
	switch status {
	case "allotted":
		return models.OutcomeAllotted
	case "not_allotted":
		return models.OutcomeNotAllotted
	default:
		return models.OutcomePending
	}
}

// EligibleForAllotment returns the offerings whose subscription has closed,
// most recently closed first.
func (t *AllotmentTracker) EligibleForAllotment(records []models.IPORecord, now time.Time) []models.IPORecord {
	eligible := make([]models.IPORecord, 0, len(records))
	for _, record := range records {
		if t.resolver.IsEligibleForAllotment(record, now) {
			eligible = append(eligible, record)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, okA := t.utility.ParseInstant(eligible[i].CloseDate)
		b, okB := t.utility.ParseInstant(eligible[j].CloseDate)
		if okA != okB {
			return okA
		}
		return a.After(b)
	})
	return eligible
}

// ValidateRegistrarURL accepts absolute http and https URLs
func ValidateRegistrarURL(_ context.Context, target string) error {
	parsed, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return fmt.Errorf("invalid registrar url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported registrar url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("registrar url %q has no host", target)
	}
	return nil
}

// asTransportError marks every lookup failure retryable
func asTransportError(err error, operation string) *shared.ServiceError {
	code := shared.CodeTransportFailed
	message := "allotment lookup failed"
	if serviceErr, ok := shared.AsServiceError(err); ok {
		code = serviceErr.Code
		message = serviceErr.Message
	}
	return shared.NewServiceError(shared.ErrorCategoryNetwork, code, message, allotmentServiceName, operation, true, err)
}
