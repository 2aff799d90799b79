package apiclient

import (
	"context"
	"net/http"
)

// Transaction is the scoring API's request schema.
type Transaction struct {
	UserID           int     `json:"User_ID"`
	Amount           float64 `json:"Transaction_Amount"`
	Location         string  `json:"Transaction_Location"`
	MerchantID       int     `json:"Merchant_ID"`
	DeviceID         int     `json:"Device_ID"`
	CardType         string  `json:"Card_Type"`
	Currency         string  `json:"Transaction_Currency"`
	Status           string  `json:"Transaction_Status"`
	PreviousCount    int     `json:"Previous_Transaction_Count"`
	DistanceKm       float64 `json:"Distance_Between_Transactions_km"`
	MinutesSinceLast int     `json:"Time_Since_Last_Transaction_min"`
	AuthMethod       string  `json:"Authentication_Method"`
	Velocity         int     `json:"Transaction_Velocity"`
	Category         string  `json:"Transaction_Category"`
	Hour             int     `json:"Transaction_Hour"`
	Day              int     `json:"Transaction_Day"`
	Month            int     `json:"Transaction_Month"`
	Weekday          int     `json:"Transaction_Weekday"`
	LogAmount        float64 `json:"Log_Transaction_Amount"`
	VelocityDistance float64 `json:"Velocity_Distance_Interact"`
	AmountVelocity   float64 `json:"Amount_Velocity_Interact"`
	TimeDistance     float64 `json:"Time_Distance_Interact"`
	HourSin          float64 `json:"Hour_sin"`
	HourCos          float64 `json:"Hour_cos"`
	WeekdaySin       float64 `json:"Weekday_sin"`
	WeekdayCos       float64 `json:"Weekday_cos"`
}

// DefaultTransaction returns the form defaults used when a field is left
// empty.
func DefaultTransaction() Transaction {
	return Transaction{
		UserID:           1,
		Location:         "Tashkent",
		MerchantID:       1,
		DeviceID:         1,
		CardType:         "Credit",
		Currency:         "UZS",
		Status:           "Completed",
		PreviousCount:    5,
		MinutesSinceLast: 60,
		AuthMethod:       "PIN",
		Velocity:         1,
		Category:         "Shopping",
		Hour:             12,
		Day:              15,
		Month:            6,
		Weekday:          2,
		HourCos:          1,
		WeekdayCos:       1,
	}
}

// Prediction is the scoring API's response.
type Prediction struct {
	TransactionID    int64    `json:"Transaction_ID"`
	UserID           int      `json:"User_ID"`
	FraudProbability float64  `json:"Fraud_Probability"`
	RiskScore        float64  `json:"Final_Risk_Score"`
	Prediction       int      `json:"isFraud_pred"`
	AlertTriggered   bool     `json:"alert_triggered"`
	AlertReasons     []string `json:"alert_reasons"`
	Timestamp        string   `json:"timestamp"`
}

// Predict posts tx to the detect path and returns the scored result.
func (c *Client) Predict(ctx context.Context, tx Transaction, n Notifier) (Prediction, error) {
	var p Prediction
	err := c.Fetch(ctx, c.detectPath, Options{
		Method:   http.MethodPost,
		Body:     tx,
		Notifier: n,
	}, &p)
	return p, err
}
