package core

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fraudguard/internal/apiclient"
	"github.com/JonMunkholm/fraudguard/internal/clock"
	"github.com/JonMunkholm/fraudguard/internal/csvexport"
	"github.com/JonMunkholm/fraudguard/internal/notify"
)

type stubPredictor struct {
	result apiclient.Prediction
	err    error
	calls  int
}

func (p *stubPredictor) Predict(_ context.Context, _ apiclient.Transaction, n apiclient.Notifier) (apiclient.Prediction, error) {
	p.calls++
	if p.err != nil && n != nil {
		n.Error(apiclient.FailureMessage)
	}
	return p.result, p.err
}

type failingHistory struct{ MemoryHistory }

func (*failingHistory) Save(context.Context, Transaction) error {
	return ErrHistoryUnavailable
}

func newTestService(h History, p Predictor, now time.Time) *Service {
	return NewService(h, p, nil).WithClock(func() time.Time { return now })
}

func TestService_PredictSavesAndFlashes(t *testing.T) {
	h := NewMemoryHistory()
	p := &stubPredictor{result: apiclient.Prediction{
		TransactionID:    42,
		FraudProbability: 0.91,
		RiskScore:        0.88,
		AlertTriggered:   true,
		AlertReasons:     []string{"Unusual location"},
		Prediction:       1,
	}}
	svc := newTestService(h, p, day)
	center := notify.NewCenter(clock.NewManual(day))

	tx := apiclient.DefaultTransaction()
	tx.Amount = 250000
	res, err := svc.Predict(context.Background(), "alice", tx, center)
	require.NoError(t, err)

	assert.Equal(t, RiskLevelHigh, res.RiskLevel)
	assert.Equal(t, "danger", res.RiskClass)
	assert.Equal(t, "42", res.Transaction.TransactionID)
	assert.Equal(t, 250000.0, res.Transaction.Amount)

	saved, err := h.Get(context.Background(), "alice", res.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Unusual location"}, saved.AlertReasons)

	banners := center.List()
	require.Len(t, banners, 1)
	assert.Equal(t, PredictSuccessMessage, banners[0].Message)
	assert.Equal(t, notify.Success, banners[0].Severity)
}

func TestService_PredictFallbackTransactionID(t *testing.T) {
	svc := newTestService(NewMemoryHistory(), &stubPredictor{}, day)

	res, err := svc.Predict(context.Background(), "alice", apiclient.DefaultTransaction(), nil)
	require.NoError(t, err)
	assert.Equal(t, "1709294400000", res.Transaction.TransactionID)
	assert.Equal(t, RiskLevelSafe, res.RiskLevel)
}

func TestService_PredictAPIFailure(t *testing.T) {
	h := NewMemoryHistory()
	svc := newTestService(h, &stubPredictor{err: errors.New("HTTP 503")}, day)
	center := notify.NewCenter(clock.NewManual(day))

	_, err := svc.Predict(context.Background(), "alice", apiclient.DefaultTransaction(), center)
	require.Error(t, err)

	all, _ := h.All(context.Background(), "alice")
	assert.Empty(t, all)

	banners := center.List()
	require.Len(t, banners, 1)
	assert.Equal(t, apiclient.FailureMessage, banners[0].Message)
	assert.Equal(t, notify.Error, banners[0].Severity)
}

func TestService_PredictSaveFailureKeepsResult(t *testing.T) {
	p := &stubPredictor{result: apiclient.Prediction{TransactionID: 9, RiskScore: 0.5}}
	svc := newTestService(&failingHistory{}, p, day)
	center := notify.NewCenter(clock.NewManual(day))

	res, err := svc.Predict(context.Background(), "alice", apiclient.DefaultTransaction(), center)
	assert.ErrorIs(t, err, ErrHistoryUnavailable)
	assert.Equal(t, RiskLevelMedium, res.RiskLevel)
	assert.Equal(t, 0, center.Len())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		p     apiclient.Prediction
		level string
		class string
	}{
		{"alert wins", apiclient.Prediction{AlertTriggered: true, RiskScore: 0.1}, RiskLevelHigh, "danger"},
		{"above threshold", apiclient.Prediction{RiskScore: 0.41}, RiskLevelMedium, "warning"},
		{"at threshold", apiclient.Prediction{RiskScore: 0.4}, RiskLevelSafe, "success"},
		{"low", apiclient.Prediction{RiskScore: 0.05}, RiskLevelSafe, "success"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, class := classify(tt.p)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.class, class)
		})
	}
}

func TestService_HistoryPage(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()
	for i := range 23 {
		require.NoError(t, h.Save(ctx, newTx("alice", day.Add(time.Duration(i)*time.Second), 0.1, false)))
	}
	svc := newTestService(h, &stubPredictor{}, day)

	page, err := svc.HistoryPage(ctx, "alice", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, DefaultPerPage, page.PerPage)
	assert.Equal(t, 23, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Len(t, page.Data, 3)
	assert.True(t, page.HasPrev())
	assert.False(t, page.HasNext())

	page, err = svc.HistoryPage(ctx, "alice", -4, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxPerPage, page.PerPage)
	assert.Equal(t, 1, page.Pages)

	page, err = svc.HistoryPage(ctx, "nobody", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Pages)
	assert.False(t, page.HasNext())
}

func TestService_HistoryPageFarPastTheEnd(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()
	require.NoError(t, h.Save(ctx, newTx("alice", day, 0.1, false)))
	svc := newTestService(h, &stubPredictor{}, day)

	for _, page := range []int{4611686018427387905, math.MaxInt, 2} {
		got, err := svc.HistoryPage(ctx, "alice", page, 10)
		require.NoError(t, err, "page %d", page)
		assert.Empty(t, got.Data, "page %d", page)
		assert.Equal(t, page, got.Page)
		assert.Equal(t, 1, got.Total)
		assert.Equal(t, 1, got.Pages)
		assert.False(t, got.HasNext())
	}
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, pageOffset(1, 10))
	assert.Equal(t, 20, pageOffset(3, 10))
	assert.Equal(t, math.MaxInt, pageOffset(4611686018427387905, 10))
	assert.Equal(t, math.MaxInt-1, pageOffset(math.MaxInt, 1))
}

func TestService_Dashboard(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()
	yesterday := day.Add(-24 * time.Hour)

	require.NoError(t, h.Save(ctx, newTx("alice", yesterday, 0.9, true)))
	require.NoError(t, h.Save(ctx, newTx("alice", day.Add(-time.Hour), 0.2, false)))
	require.NoError(t, h.Save(ctx, newTx("alice", day.Add(-2*time.Hour), 0.1, false)))
	require.NoError(t, h.Save(ctx, newTx("alice", day.Add(-3*time.Hour), 0.6, true)))
	require.NoError(t, h.Save(ctx, newTx("bob", day, 0.99, true)))

	svc := newTestService(h, &stubPredictor{}, day)
	st, err := svc.Dashboard(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, 3, st.TodayCount)
	assert.Equal(t, 1, st.FraudCount)
	assert.Equal(t, 33.3, st.FraudRate)
	assert.Equal(t, 2, st.HighRisk)
	assert.Equal(t, 0.45, st.AvgRisk)
	require.Len(t, st.RecentAlerts, 2)
	assert.True(t, st.RecentAlerts[0].CreatedAt.After(st.RecentAlerts[1].CreatedAt))
}

func TestService_DashboardEmpty(t *testing.T) {
	svc := newTestService(NewMemoryHistory(), &stubPredictor{}, day)
	st, err := svc.Dashboard(context.Background(), "alice")
	require.NoError(t, err)
	assert.Zero(t, st.TodayCount)
	assert.Zero(t, st.FraudRate)
	assert.Zero(t, st.AvgRisk)
	assert.Empty(t, st.RecentAlerts)
}

func TestService_DashboardRecentAlertsCapped(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()
	for i := range 8 {
		require.NoError(t, h.Save(ctx, newTx("alice", day.Add(-time.Duration(i)*time.Minute), 0.9, true)))
	}
	svc := newTestService(h, &stubPredictor{}, day)
	st, err := svc.Dashboard(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, st.RecentAlerts, RecentAlertLimit)
	assert.Equal(t, 8, st.HighRisk)
}

func TestService_ExportRecords(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()
	alert := newTx("alice", day, 0.8772, true)
	calm := newTx("alice", day.Add(-time.Minute), 0.05, false)
	require.NoError(t, h.Save(ctx, alert))
	require.NoError(t, h.Save(ctx, calm))

	svc := newTestService(h, &stubPredictor{}, day)
	records, err := svc.ExportRecords(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, ExportHeaders, records[0].Keys())

	body := string(csvexport.Encode(records))
	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, csvexport.BOM+`"Transaction ID","Date","Amount (UZS)","Location","Fraud Probability","Risk Score","Alert","Reasons"`, lines[0])
	assert.Equal(t, `"`+alert.TransactionID+`","2024-03-01 12:00:00","1,500,000.00","Tashkent","87.7%","0.88","YES","High amount,New device"`, lines[1])
	assert.Contains(t, lines[2], `"NO","N/A"`)
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "fraudguard_export_20240301_090507.csv", ExportFilename(at))
}
