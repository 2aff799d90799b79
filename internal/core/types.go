package core

import (
	"errors"
	"time"

	"github.com/JonMunkholm/fraudguard/internal/apiclient"
)

var (
	// ErrHistoryUnavailable wraps failures of the history backend.
	ErrHistoryUnavailable = errors.New("history unavailable")
	// ErrTransactionNotFound is returned by History.Get for unknown IDs.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrScoring wraps failures to obtain a prediction.
	ErrScoring = errors.New("score transaction")
)

// Transaction is a scored transaction as kept in history.
type Transaction struct {
	ID               string    `json:"id" db:"id"`
	Owner            string    `json:"-" db:"owner"`
	TransactionID    string    `json:"transaction_id" db:"transaction_id"`
	UserID           int       `json:"user_id" db:"user_id"`
	Amount           float64   `json:"amount" db:"amount"`
	Currency         string    `json:"currency" db:"currency"`
	Location         string    `json:"location" db:"location"`
	FraudProbability float64   `json:"fraud_probability" db:"fraud_probability"`
	RiskScore        float64   `json:"risk_score" db:"risk_score"`
	AlertTriggered   bool      `json:"alert_triggered" db:"alert_triggered"`
	AlertReasons     []string  `json:"alert_reasons" db:"alert_reasons"`
	Prediction       int       `json:"prediction" db:"prediction"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// DashboardStats summarizes an owner's history.
type DashboardStats struct {
	TodayCount   int           `json:"today_count"`
	FraudCount   int           `json:"fraud_count"`
	FraudRate    float64       `json:"fraud_rate"` // percent of today's transactions, 1 decimal
	HighRisk     int           `json:"high_risk"`  // alerts across all history
	AvgRisk      float64       `json:"avg_risk"`   // mean risk score, 2 decimals
	RecentAlerts []Transaction `json:"recent_alerts"`
}

// HistoryPage is one page of an owner's history, newest first.
type HistoryPage struct {
	Data    []Transaction `json:"data"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
	Total   int           `json:"total"`
	Pages   int           `json:"pages"`
}

// HasPrev reports whether a previous page exists.
func (p HistoryPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p HistoryPage) HasNext() bool { return p.Page < p.Pages }

// Risk levels reported for a prediction.
const (
	RiskLevelSafe   = "SAFE"
	RiskLevelMedium = "MEDIUM"
	RiskLevelHigh   = "HIGH"
)

// PredictResult is the outcome of scoring one transaction.
type PredictResult struct {
	Transaction Transaction           `json:"transaction"`
	Prediction  apiclient.Prediction  `json:"prediction"`
	Payload     apiclient.Transaction `json:"payload"`
	RiskLevel   string                `json:"risk_level"`
	RiskClass   string                `json:"risk_class"`
}
