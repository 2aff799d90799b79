package core

// convert.go turns submitted predict form values into a scoring request.
//
// Values arrive as typed by a person or pasted from a spreadsheet:
//   - Thousands separators and currency markers in amounts ("1,500,000 UZS")
//   - Accounting negatives ("(12.5)")
//   - Excel formula prefixes (="value") and stray quotes
//
// Empty fields take the form defaults from apiclient.DefaultTransaction.
// Fields that are present but unparseable are reported together as
// validate.Errors.

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fraudguard/internal/apiclient"
	"github.com/JonMunkholm/fraudguard/internal/validate"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// currencyMarkers are stripped from numeric input, longest first.
var currencyMarkers = []string{"so'm", "sum", "uzs", "usd", "eur", "rub", "$", "€", "₽", "£"}

// CleanCell removes common spreadsheet artifacts from a value:
// surrounding whitespace, an Excel formula prefix and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// ParseNumber parses a human-entered number. It accepts thousands
// separators, currency markers and accounting negatives. ok is false for
// empty or malformed input.
func ParseNumber(s string) (v float64, ok bool) {
	s = strings.ToLower(CleanCell(s))
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, m := range currencyMarkers {
		s = strings.ReplaceAll(s, m, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.Join(strings.Fields(s), "")

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// ParseWhole parses a whole number. Decimal input with a zero fraction
// ("5.0") is accepted.
func ParseWhole(s string) (int, bool) {
	v, ok := ParseNumber(s)
	if !ok || v != float64(int(v)) {
		return 0, false
	}
	return int(v), true
}

type formField struct {
	name string
	kind string // "int", "float" or "text"
	set  func(tx *apiclient.Transaction, v any)
}

func intField(name string, set func(*apiclient.Transaction, int)) formField {
	return formField{name: name, kind: "int", set: func(tx *apiclient.Transaction, v any) { set(tx, v.(int)) }}
}

func floatField(name string, set func(*apiclient.Transaction, float64)) formField {
	return formField{name: name, kind: "float", set: func(tx *apiclient.Transaction, v any) { set(tx, v.(float64)) }}
}

func textField(name string, set func(*apiclient.Transaction, string)) formField {
	return formField{name: name, kind: "text", set: func(tx *apiclient.Transaction, v any) { set(tx, v.(string)) }}
}

// transactionFields lists every predict form input by its scoring API name.
var transactionFields = []formField{
	intField("User_ID", func(tx *apiclient.Transaction, v int) { tx.UserID = v }),
	floatField("Transaction_Amount", func(tx *apiclient.Transaction, v float64) { tx.Amount = v }),
	textField("Transaction_Location", func(tx *apiclient.Transaction, v string) { tx.Location = v }),
	intField("Merchant_ID", func(tx *apiclient.Transaction, v int) { tx.MerchantID = v }),
	intField("Device_ID", func(tx *apiclient.Transaction, v int) { tx.DeviceID = v }),
	textField("Card_Type", func(tx *apiclient.Transaction, v string) { tx.CardType = v }),
	textField("Transaction_Currency", func(tx *apiclient.Transaction, v string) { tx.Currency = v }),
	textField("Transaction_Status", func(tx *apiclient.Transaction, v string) { tx.Status = v }),
	intField("Previous_Transaction_Count", func(tx *apiclient.Transaction, v int) { tx.PreviousCount = v }),
	floatField("Distance_Between_Transactions_km", func(tx *apiclient.Transaction, v float64) { tx.DistanceKm = v }),
	intField("Time_Since_Last_Transaction_min", func(tx *apiclient.Transaction, v int) { tx.MinutesSinceLast = v }),
	textField("Authentication_Method", func(tx *apiclient.Transaction, v string) { tx.AuthMethod = v }),
	intField("Transaction_Velocity", func(tx *apiclient.Transaction, v int) { tx.Velocity = v }),
	textField("Transaction_Category", func(tx *apiclient.Transaction, v string) { tx.Category = v }),
	intField("Transaction_Hour", func(tx *apiclient.Transaction, v int) { tx.Hour = v }),
	intField("Transaction_Day", func(tx *apiclient.Transaction, v int) { tx.Day = v }),
	intField("Transaction_Month", func(tx *apiclient.Transaction, v int) { tx.Month = v }),
	intField("Transaction_Weekday", func(tx *apiclient.Transaction, v int) { tx.Weekday = v }),
	floatField("Log_Transaction_Amount", func(tx *apiclient.Transaction, v float64) { tx.LogAmount = v }),
	floatField("Velocity_Distance_Interact", func(tx *apiclient.Transaction, v float64) { tx.VelocityDistance = v }),
	floatField("Amount_Velocity_Interact", func(tx *apiclient.Transaction, v float64) { tx.AmountVelocity = v }),
	floatField("Time_Distance_Interact", func(tx *apiclient.Transaction, v float64) { tx.TimeDistance = v }),
	floatField("Hour_sin", func(tx *apiclient.Transaction, v float64) { tx.HourSin = v }),
	floatField("Hour_cos", func(tx *apiclient.Transaction, v float64) { tx.HourCos = v }),
	floatField("Weekday_sin", func(tx *apiclient.Transaction, v float64) { tx.WeekdaySin = v }),
	floatField("Weekday_cos", func(tx *apiclient.Transaction, v float64) { tx.WeekdayCos = v }),
}

// TransactionFieldNames returns the predict form input names in form order.
func TransactionFieldNames() []string {
	names := make([]string, len(transactionFields))
	for i, f := range transactionFields {
		names[i] = f.name
	}
	return names
}

// TransactionFieldKind returns "int", "float" or "text" for a predict form
// input, or "" for unknown names.
func TransactionFieldKind(name string) string {
	for _, f := range transactionFields {
		if f.name == name {
			return f.kind
		}
	}
	return ""
}

// TransactionFormValues returns tx as predict form values keyed by input
// name.
func TransactionFormValues(tx apiclient.Transaction) url.Values {
	raw, err := json.Marshal(tx)
	if err != nil {
		return url.Values{}
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return url.Values{}
	}

	values := make(url.Values, len(fields))
	for name, v := range fields {
		switch v := v.(type) {
		case float64:
			values.Set(name, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			values.Set(name, fmt.Sprint(v))
		}
	}
	return values
}

// TransactionFromForm builds a scoring request from submitted form values.
// Every malformed field is reported; the amount must not be negative.
func TransactionFromForm(values url.Values) (apiclient.Transaction, error) {
	tx := apiclient.DefaultTransaction()
	var errs validate.Errors

	for _, f := range transactionFields {
		raw := CleanCell(values.Get(f.name))
		if raw == "" {
			continue
		}
		switch f.kind {
		case "int":
			v, ok := ParseWhole(raw)
			if !ok {
				errs = append(errs, validate.FieldError{Field: f.name, Tag: "int", Message: "Enter a whole number"})
				continue
			}
			f.set(&tx, v)
		case "float":
			v, ok := ParseNumber(raw)
			if !ok {
				errs = append(errs, validate.FieldError{Field: f.name, Tag: "number", Message: "Enter a number"})
				continue
			}
			f.set(&tx, v)
		default:
			f.set(&tx, raw)
		}
	}

	if tx.Amount < 0 {
		errs = append(errs, validate.FieldError{Field: "Transaction_Amount", Tag: "min", Message: "Amount cannot be negative"})
	}

	if len(errs) > 0 {
		return tx, errs
	}
	return tx, nil
}
