package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/JonMunkholm/fraudguard/internal/apiclient"
	"github.com/JonMunkholm/fraudguard/internal/csvexport"
	"github.com/JonMunkholm/fraudguard/internal/format"
	"github.com/JonMunkholm/fraudguard/internal/notify"
)

const (
	DefaultPerPage   = 10
	MaxPerPage       = 100
	RecentAlertLimit = 5

	// PredictSuccessMessage is flashed after a transaction is scored.
	PredictSuccessMessage = "Prediction completed successfully!"
)

// Predictor scores a transaction. *apiclient.Client implements it.
type Predictor interface {
	Predict(ctx context.Context, tx apiclient.Transaction, n apiclient.Notifier) (apiclient.Prediction, error)
}

// Notifier receives flash banners for an owner. *notify.Center implements it.
type Notifier interface {
	Success(message string) notify.Banner
	Error(message string) notify.Banner
}

// Service provides the core business logic.
type Service struct {
	history   History
	predictor Predictor
	limiter   *PredictLimiter
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(history History, predictor Predictor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		history:   history,
		predictor: predictor,
		limiter:   NewPredictLimiter(0, 0),
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// WithLimiter replaces the scoring API concurrency limiter.
func (s *Service) WithLimiter(l *PredictLimiter) *Service {
	if l != nil {
		s.limiter = l
	}
	return s
}

// Limiter returns the scoring API concurrency limiter.
func (s *Service) Limiter() *PredictLimiter { return s.limiter }

// Predict scores tx, saves the result to the owner's history and flashes a
// success banner. API failures are reported to n by the predictor. A save
// failure still returns the scored result alongside the error.
func (s *Service) Predict(ctx context.Context, owner string, tx apiclient.Transaction, n Notifier) (PredictResult, error) {
	var apiNotifier apiclient.Notifier
	if n != nil {
		apiNotifier = n
	}

	start := s.now()
	var p apiclient.Prediction
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.predictor.Predict(ctx, tx, apiNotifier)
		return err
	})
	if errors.Is(err, ErrTooManyPredictions) && n != nil {
		n.Error(FormatUserError(err))
	}
	if err != nil {
		return PredictResult{Payload: tx}, fmt.Errorf("%w: %w", ErrScoring, err)
	}
	s.logger.InfoContext(ctx, "transaction scored",
		"risk_score", p.RiskScore,
		"alert", p.AlertTriggered,
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)

	transactionID := strconv.FormatInt(p.TransactionID, 10)
	if p.TransactionID == 0 {
		transactionID = strconv.FormatInt(s.now().UnixMilli(), 10)
	}

	record := Transaction{
		ID:               uuid.NewString(),
		Owner:            owner,
		TransactionID:    transactionID,
		UserID:           tx.UserID,
		Amount:           tx.Amount,
		Currency:         tx.Currency,
		Location:         tx.Location,
		FraudProbability: p.FraudProbability,
		RiskScore:        p.RiskScore,
		AlertTriggered:   p.AlertTriggered,
		AlertReasons:     p.AlertReasons,
		Prediction:       p.Prediction,
		CreatedAt:        s.now().UTC(),
	}

	level, class := classify(p)
	result := PredictResult{
		Transaction: record,
		Prediction:  p,
		Payload:     tx,
		RiskLevel:   level,
		RiskClass:   class,
	}

	if err := s.history.Save(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "save transaction failed", "error", err)
		return result, err
	}

	if n != nil {
		n.Success(PredictSuccessMessage)
	}
	return result, nil
}

// classify maps a prediction to a risk level: any alert is HIGH, a risk
// score above 0.4 is MEDIUM, everything else is SAFE.
func classify(p apiclient.Prediction) (level, class string) {
	switch {
	case p.AlertTriggered:
		return RiskLevelHigh, "danger"
	case p.RiskScore > 0.4:
		return RiskLevelMedium, "warning"
	default:
		return RiskLevelSafe, "success"
	}
}

// HistoryPage returns one page of the owner's history. page < 1 is page 1;
// perPage is clamped to [1, MaxPerPage] with DefaultPerPage for <= 0. A page
// past the end is empty but still reports the owner's total.
func (s *Service) HistoryPage(ctx context.Context, owner string, page, perPage int) (HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	perPage = min(perPage, MaxPerPage)

	txs, total, err := s.history.List(ctx, owner, pageOffset(page, perPage), perPage)
	if err != nil {
		return HistoryPage{}, err
	}
	return HistoryPage{
		Data:    txs,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   int(math.Ceil(float64(total) / float64(perPage))),
	}, nil
}

// pageOffset returns (page-1)*perPage, saturating at math.MaxInt.
func pageOffset(page, perPage int) int {
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

// Transaction returns one transaction of the owner.
func (s *Service) Transaction(ctx context.Context, owner, id string) (Transaction, error) {
	return s.history.Get(ctx, owner, id)
}

// Dashboard computes the owner's statistics. "Today" is the current UTC day.
func (s *Service) Dashboard(ctx context.Context, owner string) (DashboardStats, error) {
	all, err := s.history.All(ctx, owner)
	if err != nil {
		return DashboardStats{}, err
	}

	today := startOfDay(s.now().UTC())
	var st DashboardStats
	risks := make(stats.Float64Data, 0, len(all))
	st.RecentAlerts = make([]Transaction, 0, RecentAlertLimit)

	for _, tx := range all {
		risks = append(risks, tx.RiskScore)
		if !tx.CreatedAt.UTC().Before(today) {
			st.TodayCount++
			if tx.AlertTriggered {
				st.FraudCount++
			}
		}
		if tx.AlertTriggered {
			st.HighRisk++
			if len(st.RecentAlerts) < RecentAlertLimit {
				st.RecentAlerts = append(st.RecentAlerts, tx)
			}
		}
	}

	if st.TodayCount > 0 {
		rate := float64(st.FraudCount) / float64(st.TodayCount) * 100
		st.FraudRate, _ = stats.Round(rate, 1)
	}
	if len(risks) > 0 {
		mean, _ := stats.Mean(risks)
		st.AvgRisk, _ = stats.Round(mean, 2)
	}
	return st, nil
}

// ExportHeaders are the column titles of the history CSV export.
var ExportHeaders = []string{
	"Transaction ID", "Date", "Amount (UZS)", "Location",
	"Fraud Probability", "Risk Score", "Alert", "Reasons",
}

// ExportRecords returns the owner's full history as CSV records, newest
// first.
func (s *Service) ExportRecords(ctx context.Context, owner string) ([]csvexport.Record, error) {
	all, err := s.history.All(ctx, owner)
	if err != nil {
		return nil, err
	}

	records := make([]csvexport.Record, 0, len(all))
	for _, tx := range all {
		alert := "NO"
		if tx.AlertTriggered {
			alert = "YES"
		}
		reasons := strings.Join(tx.AlertReasons, ",")
		if reasons == "" {
			reasons = "N/A"
		}
		values := []any{
			tx.TransactionID,
			tx.CreatedAt.UTC(),
			format.Number(tx.Amount, 2),
			tx.Location,
			format.Percentage(tx.FraudProbability, 1),
			strconv.FormatFloat(tx.RiskScore, 'f', 2, 64),
			alert,
			reasons,
		}
		rec := make(csvexport.Record, len(ExportHeaders))
		for i, h := range ExportHeaders {
			rec[i] = csvexport.Field{Key: h, Value: values[i]}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ExportFilename returns the download name for an export made at t.
func ExportFilename(t time.Time) string {
	return "fraudguard_export_" + t.UTC().Format("20060102_150405") + ".csv"
}
