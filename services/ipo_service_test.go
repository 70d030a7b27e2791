package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	id     string
	update models.SubscriptionUpdate
	token  string
	err    error
}

func (w *fakeWriter) UpdateIPO(_ context.Context, id string, update models.SubscriptionUpdate, adminToken string) error {
	w.id, w.update, w.token = id, update, adminToken
	return w.err
}

type fakeApplications struct {
	apps       []models.Application
	err        error
	updates    []models.ApplicationStatusUpdate
	credential string
}

func (f *fakeApplications) MyApplications(context.Context, string) ([]models.Application, error) {
	return f.apps, f.err
}

func (f *fakeApplications) UpdateApplicationStatus(_ context.Context, update models.ApplicationStatusUpdate, credential string) error {
	f.updates = append(f.updates, update)
	f.credential = credential
	return f.err
}

func newTestIPOService(source SnapshotSource, writer SubscriptionWriter, apps ApplicationSource, now time.Time) *IPOService {
	service := NewIPOService(source, writer, apps, NewStatusResolver(newTestUtility()))
	service.SetClock(func() time.Time { return now })
	return service
}

func TestBuildViewWithGMP(t *testing.T) {
	service := newTestIPOService(nil, nil, nil, time.Time{})
	record := sampleRecord()
	record.GMP = quotes(20, 30)

	view := service.BuildView(record, at(2024, 6, 4, 12, 0))

	assert.Equal(t, models.PhaseOpen, view.Phase)
	assert.Equal(t, models.ModeInternal, view.AllotmentMode)
	require.NotNil(t, view.GMP)
	assert.Equal(t, "30.00", view.GMP.PercentageOfPrice.StringFixed(2))
	require.NotNil(t, view.EstimatedProfit)
	assert.Equal(t, "4500", view.EstimatedProfit.String())
	assert.False(t, view.ShowingListingGain)
}

func TestBuildViewListedShowsListingGain(t *testing.T) {
	service := newTestIPOService(nil, nil, nil, time.Time{})
	record := sampleRecord()
	record.AllotmentLink = "https://registrar.example"
	record.GMP = quotes(30)
	record.ListingGain = &models.ListingGain{Amount: models.NewAmount(12), Percentage: models.NewAmount(12)}

	listed := service.BuildView(record, at(2024, 6, 10, 10, 0))
	assert.Equal(t, models.ModeExternal, listed.AllotmentMode)
	assert.True(t, listed.ShowingListingGain)
	assert.Equal(t, "1800", listed.EstimatedProfit.String())

	// the same record before listing still shows the premium estimate
	closed := service.BuildView(record, at(2024, 6, 7, 10, 0))
	assert.False(t, closed.ShowingListingGain)
	assert.Equal(t, "4500", closed.EstimatedProfit.String())
}

func TestViewJSONCarriesPhaseNotStoredStatus(t *testing.T) {
	service := newTestIPOService(nil, nil, nil, time.Time{})
	record := sampleRecord()
	record.Status = "listed"

	view := service.BuildView(record, at(2024, 6, 1, 0, 0))
	data, err := json.Marshal(view)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.NotContains(t, body, "status")
	assert.Equal(t, "upcoming", body["phase"])
	assert.Equal(t, "ipo-1", body["_id"])
}

func TestBuildViewWithoutGMP(t *testing.T) {
	service := newTestIPOService(nil, nil, nil, time.Time{})
	view := service.BuildView(sampleRecord(), at(2024, 6, 1, 0, 0))

	assert.Nil(t, view.GMP)
	assert.Nil(t, view.EstimatedProfit)
	assert.Equal(t, models.PhaseUpcoming, view.Phase)
}

func TestListViewsFilters(t *testing.T) {
	acme := sampleRecord()

	sme := sampleRecord()
	sme.ID = "ipo-2"
	sme.CompanyName = "Tiny Foods"
	sme.Symbol = "TINY"
	sme.Category = models.CategorySME
	sme.OpenDate, sme.CloseDate, sme.ListingDate = "2024-06-10", "2024-06-12", "2024-06-17"

	source := &countingSource{records: []models.IPORecord{acme, sme}}
	service := newTestIPOService(source, nil, nil, at(2024, 6, 4, 12, 0))
	ctx := context.Background()

	all, err := service.ListViews(ctx, models.IPOFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ipo-1", all[0].ID)

	open, err := service.ListViews(ctx, models.IPOFilter{Phase: models.PhaseOpen})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "ipo-1", open[0].ID)

	smes, err := service.ListViews(ctx, models.IPOFilter{Category: "sme"})
	require.NoError(t, err)
	require.Len(t, smes, 1)
	assert.Equal(t, "ipo-2", smes[0].ID)

	bySymbol, err := service.ListViews(ctx, models.IPOFilter{Query: "tin"})
	require.NoError(t, err)
	require.Len(t, bySymbol, 1)

	none, err := service.ListViews(ctx, models.IPOFilter{Query: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateSubscriptionInvalidatesCache(t *testing.T) {
	source := &countingSource{records: []models.IPORecord{sampleRecord()}}
	cached := NewCachedSnapshotSource(source, NewCacheService(time.Minute, 10))
	writer := &fakeWriter{}
	service := newTestIPOService(cached, writer, nil, at(2024, 6, 4, 12, 0))
	ctx := context.Background()

	_, err := service.GetView(ctx, "ipo-1")
	require.NoError(t, err)
	assert.Equal(t, 1, source.getCalls)

	update, err := service.UpdateSubscription(ctx, "ipo-1", models.SubscriptionDetails{
		SharesOffered:    models.CategoryFigures{Retail: models.NewQuantity(4)},
		SharesSubscribed: models.CategoryFigures{Retail: models.NewQuantity(9)},
	}, "admin")
	require.NoError(t, err)

	assert.Equal(t, "ipo-1", writer.id)
	assert.Equal(t, "admin", writer.token)
	assert.Equal(t, "2.25", update.Subscription.Total.String())

	_, err = service.GetView(ctx, "ipo-1")
	require.NoError(t, err)
	assert.Equal(t, 2, source.getCalls)
}

func TestUpdateSubscriptionFailure(t *testing.T) {
	source := &countingSource{records: []models.IPORecord{sampleRecord()}}
	service := newTestIPOService(source, &fakeWriter{err: errors.New("forbidden")}, nil, time.Now())

	update, err := service.UpdateSubscription(context.Background(), "ipo-1", models.SubscriptionDetails{}, "admin")
	assert.Error(t, err)
	assert.Nil(t, update.Subscription)
}

func TestApplicationsSummary(t *testing.T) {
	apps := &fakeApplications{apps: []models.Application{
		{ID: "1", Status: models.OutcomeAllotted, LotSize: models.NewQuantity(150)},
		{ID: "2", Status: models.OutcomeNotAllotted, LotSize: models.NewQuantity(150)},
		{ID: "3", Status: models.OutcomeAllotted, LotSize: models.NewQuantity(300)},
		{ID: "4", Status: models.OutcomePending},
	}}
	service := newTestIPOService(nil, nil, apps, time.Now())

	list, stats, err := service.Applications(context.Background(), "session")
	require.NoError(t, err)
	assert.Len(t, list, 4)
	assert.Equal(t, 4, stats.TotalApplications)
	assert.Equal(t, 2, stats.TotalAllotted)
	assert.Equal(t, "450", stats.SharesAllotted.String())

	empty := SummarizeApplications(nil)
	assert.Zero(t, empty.TotalApplications)
	assert.True(t, empty.SharesAllotted.IsZero())
}

func TestUpdateApplicationStatus(t *testing.T) {
	apps := &fakeApplications{}
	service := newTestIPOService(nil, nil, apps, time.Time{})
	ctx := context.Background()

	update, err := service.UpdateApplicationStatus(ctx, " app-1 ", "Allotted", models.NewQuantity(150), "session")
	require.NoError(t, err)
	assert.Equal(t, "app-1", update.ApplicationID)
	assert.Equal(t, models.OutcomeAllotted, update.Status)
	assert.Equal(t, "150", update.LotSize.String())
	assert.Equal(t, "session", apps.credential)

	update, err = service.UpdateApplicationStatus(ctx, "app-2", "not_allotted", models.NewQuantity(150), "session")
	require.NoError(t, err)
	assert.True(t, update.LotSize.IsZero())

	require.Len(t, apps.updates, 2)
	assert.True(t, apps.updates[1].LotSize.IsZero())
}

func TestUpdateApplicationStatusValidatesBeforeSending(t *testing.T) {
	tests := []struct {
		name          string
		applicationID string
		status        string
		lotSize       models.Quantity
		code          string
	}{
		{"missing application", "", "allotted", models.NewQuantity(10), shared.CodeMissingApplication},
		{"pending is not a result", "app-1", "pending", models.Quantity{}, shared.CodeInvalidOutcome},
		{"checked_external is not a result", "app-1", "checked_external", models.Quantity{}, shared.CodeInvalidOutcome},
		{"allotted without shares", "app-1", "allotted", models.Quantity{}, shared.CodeInvalidLotSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apps := &fakeApplications{}
			service := newTestIPOService(nil, nil, apps, time.Time{})

			_, err := service.UpdateApplicationStatus(context.Background(), tt.applicationID, tt.status, tt.lotSize, "session")
			require.Error(t, err)
			assert.True(t, shared.IsValidationError(err))
			serviceErr, ok := shared.AsServiceError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, serviceErr.Code)
			assert.Empty(t, apps.updates)
		})
	}
}

func TestAwaitsManualResult(t *testing.T) {
	assert.True(t, models.Application{Status: models.OutcomeCheckedExternal}.AwaitsManualResult())
	assert.True(t, models.Application{ApplicationNumber: "EXT-123"}.AwaitsManualResult())
	assert.True(t, models.Application{ApplicationNumber: "CHK-9", Status: models.OutcomeAllotted}.AwaitsManualResult())
	assert.False(t, models.Application{ApplicationNumber: "APP1", Status: models.OutcomeAllotted}.AwaitsManualResult())
}

func viewIDs(views []models.IPOView) []string {
	ids := make([]string, len(views))
	for i, view := range views {
		ids[i] = view.ID
	}
	return ids
}

func TestListViewsBoards(t *testing.T) {
	older := sampleRecord()
	older.GMP = quotes(30)

	newer := sampleRecord()
	newer.ID = "ipo-2"
	newer.OpenDate = "2024-06-02"
	newer.GMP = quotes(10, 20, 30)
	newer.Subscription.Total = models.NewAmount(3)

	noGMP := sampleRecord()
	noGMP.ID = "ipo-3"
	noGMP.OpenDate = "2024-06-01"

	undated := sampleRecord()
	undated.ID = "ipo-4"
	undated.GMP = []models.GMPQuote{{Value: models.NewAmount(5), Date: "soon"}}

	listed := sampleRecord()
	listed.ID = "ipo-5"
	listed.CloseDate, listed.ListingDate = "2024-06-02", "2024-06-04"
	listed.GMP = quotes(1, 2, 3, 4)

	source := &countingSource{records: []models.IPORecord{older, newer, noGMP, undated, listed}}
	service := newTestIPOService(source, nil, nil, at(2024, 6, 4, 12, 0))
	ctx := context.Background()

	board := func(name string) models.IPOFilter {
		filter, ok := models.BoardFilter(name)
		require.True(t, ok)
		return filter
	}

	gmp, err := service.ListViews(ctx, board(models.BoardGMP))
	require.NoError(t, err)
	assert.Equal(t, []string{"ipo-2", "ipo-1", "ipo-4"}, viewIDs(gmp))

	limited := board(models.BoardGMP)
	limited.Limit = 2
	top, err := service.ListViews(ctx, limited)
	require.NoError(t, err)
	assert.Equal(t, []string{"ipo-2", "ipo-1"}, viewIDs(top))

	calendar, err := service.ListViews(ctx, board(models.BoardCalendar))
	require.NoError(t, err)
	assert.Equal(t, []string{"ipo-3", "ipo-2", "ipo-1", "ipo-4"}, viewIDs(calendar))

	subscription, err := service.ListViews(ctx, board(models.BoardSubscription))
	require.NoError(t, err)
	assert.Equal(t, []string{"ipo-2"}, viewIDs(subscription))

	withGMP, err := service.ListViews(ctx, models.IPOFilter{HasGMP: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"ipo-1", "ipo-2", "ipo-4", "ipo-5"}, viewIDs(withGMP))

	_, ok := models.BoardFilter("trending")
	assert.False(t, ok)
}

func TestSortViewsByCloseDate(t *testing.T) {
	views := []models.IPOView{
		{IPORecord: models.IPORecord{ID: "a", CloseDate: "2024-06-05"}},
		{IPORecord: models.IPORecord{ID: "b"}},
		{IPORecord: models.IPORecord{ID: "c", CloseDate: "2024-06-12T10:00:00.000Z"}},
		{IPORecord: models.IPORecord{ID: "d", CloseDate: "2024-06-07"}},
	}

	SortViews(views, models.SortCloseDate, newTestUtility())
	assert.Equal(t, []string{"c", "d", "a", "b"}, viewIDs(views))

	SortViews(views, models.SortBackend, newTestUtility())
	assert.Equal(t, []string{"c", "d", "a", "b"}, viewIDs(views))

	order, ok := models.ParseIPOSort("Open_Date")
	require.True(t, ok)
	assert.Equal(t, models.SortOpenDate, order)
	_, ok = models.ParseIPOSort("volume")
	assert.False(t, ok)
}
