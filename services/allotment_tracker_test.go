package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	calls    int
	request  models.AllotmentCheckRequest
	response *models.AllotmentCheckResponse
	err      error
}

func (f *fakeLookup) CheckAllotment(_ context.Context, request models.AllotmentCheckRequest, _, _ string) (*models.AllotmentCheckResponse, error) {
	f.calls++
	f.request = request
	return f.response, f.err
}

type fakeBeacon struct {
	accept  bool
	reports []BeaconReport
}

func (f *fakeBeacon) Send(_ context.Context, report BeaconReport) bool {
	f.reports = append(f.reports, report)
	return f.accept
}

type recordingNavigator struct {
	opened []string
	err    error
}

func (n *recordingNavigator) Open(_ context.Context, target string) error {
	n.opened = append(n.opened, target)
	return n.err
}

func externalRecord() models.IPORecord {
	record := sampleRecord()
	record.AllotmentLink = " https://registrar.example/allotment "
	record.Registrar = "Example Registrar"
	return record
}

func newTestTracker(lookup AllotmentLookup, beacon VisitBeacon, navigator Navigator) *AllotmentTracker {
	return NewAllotmentTracker(lookup, beacon, navigator, NewStatusResolver(newTestUtility()))
}

func TestNewAttemptMode(t *testing.T) {
	tracker := newTestTracker(&fakeLookup{}, nil, nil)

	external := tracker.NewAttempt(externalRecord(), "abcde1234f")
	assert.Equal(t, models.ModeExternal, external.Mode)
	assert.Equal(t, "https://registrar.example/allotment", external.RegistrarURL)
	assert.Empty(t, external.PANCard)
	assert.NotEqual(t, uuid.Nil, external.AttemptID)

	internal := tracker.NewAttempt(sampleRecord(), " abcde1234f ")
	assert.Equal(t, models.ModeInternal, internal.Mode)
	assert.Equal(t, "ABCDE1234F", internal.PANCard)
	assert.Equal(t, "ipo-1", internal.IPOID)
}

func TestInitiateNavigatesEvenWhenBeaconDrops(t *testing.T) {
	navigator := &recordingNavigator{}
	beacon := &fakeBeacon{accept: false}
	tracker := newTestTracker(&fakeLookup{}, beacon, navigator)

	attempt := tracker.NewAttempt(externalRecord(), "")
	result, err := tracker.Initiate(context.Background(), attempt, "session")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://registrar.example/allotment"}, navigator.opened)
	assert.Equal(t, "https://registrar.example/allotment", result.RedirectURL)
	assert.False(t, result.Reported)
	assert.Empty(t, result.Notice)

	require.Len(t, beacon.reports, 1)
	assert.Equal(t, "ipo-1", beacon.reports[0].IPOID)
	assert.Equal(t, "session", beacon.reports[0].Credential)
	assert.Equal(t, attempt.AttemptID.String(), beacon.reports[0].RequestID)
}

func TestInitiateAnonymousVisitIsNotReported(t *testing.T) {
	navigator := &recordingNavigator{}
	beacon := &fakeBeacon{accept: true}
	tracker := newTestTracker(&fakeLookup{}, beacon, navigator)

	result, err := tracker.Initiate(context.Background(), tracker.NewAttempt(externalRecord(), ""), "  ")
	require.NoError(t, err)

	assert.Len(t, navigator.opened, 1)
	assert.Equal(t, LoginToTrackNotice, result.Notice)
	assert.False(t, result.Reported)
	assert.Empty(t, beacon.reports)
}

func TestInitiateNavigationFailure(t *testing.T) {
	beacon := &fakeBeacon{accept: true}
	tracker := newTestTracker(&fakeLookup{}, beacon, &recordingNavigator{err: errors.New("blocked")})

	_, err := tracker.Initiate(context.Background(), tracker.NewAttempt(externalRecord(), ""), "session")
	serviceErr := requireServiceError(t, err)
	assert.Equal(t, shared.CodeNavigationFailed, serviceErr.Code)
	assert.Empty(t, beacon.reports)
}

func TestInitiateRejectsInternalAttempts(t *testing.T) {
	navigator := &recordingNavigator{}
	tracker := newTestTracker(&fakeLookup{}, &fakeBeacon{}, navigator)

	_, err := tracker.Initiate(context.Background(), tracker.NewAttempt(sampleRecord(), ""), "session")
	assert.Equal(t, shared.CodeWrongMode, requireServiceError(t, err).Code)

	_, err = tracker.Initiate(context.Background(), models.AllotmentAttempt{Mode: models.ModeExternal, RegistrarURL: "https://x.example"}, "")
	assert.Equal(t, shared.CodeMissingIPO, requireServiceError(t, err).Code)
	assert.Empty(t, navigator.opened)
}

func TestInitiateDefaultNavigatorValidatesURL(t *testing.T) {
	tracker := newTestTracker(&fakeLookup{}, nil, nil)

	record := externalRecord()
	record.AllotmentLink = "javascript:alert(1)"
	_, err := tracker.Initiate(context.Background(), tracker.NewAttempt(record, ""), "")
	assert.Equal(t, shared.CodeNavigationFailed, requireServiceError(t, err).Code)
}

func TestCheckInvalidPANNeverCallsBackend(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := NewBackendClient(shared.ServiceConfig{BaseURL: server.URL, HTTPRequestTimeout: time.Second}, nil)
	tracker := newTestTracker(client, nil, nil)

	for _, pan := range []string{"", "ABCDE1234", "12345ABCDE", "ABCDE1234FF"} {
		_, err := tracker.Check(context.Background(), tracker.NewAttempt(sampleRecord(), pan), "session")
		serviceErr := requireServiceError(t, err)
		assert.Equal(t, shared.CodeInvalidPAN, serviceErr.Code, pan)
		assert.False(t, serviceErr.Retryable)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Equal(t, int64(4), tracker.Metrics().Counter("invalid_pan"))
}

func TestCheckValidationOrder(t *testing.T) {
	lookup := &fakeLookup{}
	tracker := newTestTracker(lookup, nil, nil)

	_, err := tracker.Check(context.Background(), models.AllotmentAttempt{PANCard: "bad"}, "")
	assert.Equal(t, shared.CodeMissingIPO, requireServiceError(t, err).Code)

	_, err = tracker.Check(context.Background(), tracker.NewAttempt(externalRecord(), "ABCDE1234F"), "")
	serviceErr := requireServiceError(t, err)
	assert.Equal(t, shared.CodeWrongMode, serviceErr.Code)
	assert.Equal(t, map[string]string{"redirectUrl": "https://registrar.example/allotment"}, serviceErr.Details)

	assert.Zero(t, lookup.calls)
}

func TestCheckOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		response *models.AllotmentCheckResponse
		outcome  models.AllotmentOutcome
		message  string
		warning  string
	}{
		{
			name:     "allotted",
			response: &models.AllotmentCheckResponse{Success: true, Found: true, TrackingStatus: "tracked", Allotment: &models.AllotmentDetails{Status: "Allotted"}},
			outcome:  models.OutcomeAllotted,
		},
		{
			name:     "not allotted",
			response: &models.AllotmentCheckResponse{Success: true, Found: true, Allotment: &models.AllotmentDetails{Status: "Not Allotted"}},
			outcome:  models.OutcomeNotAllotted,
		},
		{
			name:     "unknown status is pending",
			response: &models.AllotmentCheckResponse{Success: true, Found: true, Allotment: &models.AllotmentDetails{Status: "under process"}},
			outcome:  models.OutcomePending,
		},
		{
			name:     "not found",
			response: &models.AllotmentCheckResponse{Success: true, Found: false},
			outcome:  models.OutcomeNotFound,
			message:  NotFoundMessage,
		},
		{
			name:     "expired session",
			response: &models.AllotmentCheckResponse{Success: true, Found: true, TrackingStatus: "auth_error", Allotment: &models.AllotmentDetails{Status: "allotted"}},
			outcome:  models.OutcomeAllotted,
			warning:  SessionExpiredWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &fakeLookup{response: tt.response}
			tracker := newTestTracker(lookup, nil, nil)

			result, err := tracker.Check(context.Background(), tracker.NewAttempt(sampleRecord(), "abcde1234f"), "session")
			require.NoError(t, err)

			assert.Equal(t, 1, lookup.calls)
			assert.Equal(t, "ABCDE1234F", lookup.request.PANCard)
			assert.Equal(t, tt.outcome, result.Outcome)
			assert.Equal(t, tt.message, result.Message)
			assert.Equal(t, tt.warning, result.Warning)
		})
	}
}

func TestCheckTransportFailureHasNoResult(t *testing.T) {
	lookup := &fakeLookup{err: shared.NewServiceError(shared.ErrorCategoryAuthentication, shared.CodeUnauthorized,
		"token expired", backendServiceName, "CheckAllotment", false, nil)}
	tracker := newTestTracker(lookup, nil, nil)

	result, err := tracker.Check(context.Background(), tracker.NewAttempt(sampleRecord(), "ABCDE1234F"), "session")
	assert.Nil(t, result)

	serviceErr := requireServiceError(t, err)
	assert.True(t, serviceErr.Retryable)
	assert.Equal(t, shared.CodeUnauthorized, serviceErr.Code)
	assert.Equal(t, shared.ErrorCategoryNetwork, serviceErr.Category)

	lookup.err = errors.New("dial tcp: connection refused")
	_, err = tracker.Check(context.Background(), tracker.NewAttempt(sampleRecord(), "ABCDE1234F"), "")
	assert.Equal(t, shared.CodeTransportFailed, requireServiceError(t, err).Code)
	assert.Equal(t, 2, lookup.calls)
}

func TestEligibleForAllotment(t *testing.T) {
	tracker := newTestTracker(&fakeLookup{}, nil, nil)

	older := sampleRecord()
	older.ID = "older"
	older.OpenDate, older.CloseDate, older.ListingDate = "2024-05-01", "2024-05-03", "2024-05-08"

	newer := sampleRecord()
	newer.ID = "newer"

	open := sampleRecord()
	open.ID = "open"
	open.OpenDate, open.CloseDate, open.ListingDate = "2024-06-05", "2024-06-09", "2024-06-14"

	eligible := tracker.EligibleForAllotment([]models.IPORecord{older, open, newer}, at(2024, 6, 6, 12, 0))
	require.Len(t, eligible, 2)
	assert.Equal(t, "newer", eligible[0].ID)
	assert.Equal(t, "older", eligible[1].ID)
}

func TestValidateRegistrarURL(t *testing.T) {
	assert.NoError(t, ValidateRegistrarURL(context.Background(), "https://linkintime.example/ipo"))
	assert.NoError(t, ValidateRegistrarURL(context.Background(), "http://kfintech.example"))
	assert.Error(t, ValidateRegistrarURL(context.Background(), "ftp://files.example"))
	assert.Error(t, ValidateRegistrarURL(context.Background(), "/relative/path"))
	assert.Error(t, ValidateRegistrarURL(context.Background(), "https://"))
}
