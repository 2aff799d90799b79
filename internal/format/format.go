// Package format renders amounts, percentages, timestamps and risk scores
// the way the FraudGuard pages display them.
//
// All functions are pure. Locale is fixed to en-US: comma thousands
// separator, dot decimal separator.
package format

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Default fraction digits used by the *Default helpers.
const (
	DefaultNumberDecimals     = 0
	DefaultPercentageDecimals = 1

	// maxDecimals is the finest precision humanize.FormatFloat supports.
	maxDecimals = 9

	// exactLimit is where humanize.FormatFloat stops being exact; its
	// int64 conversion wraps a little above 9.2e18.
	exactLimit = 1e15
)

// Currency codes the formatter distinguishes. Every other code renders
// as EUR.
const (
	USD = "USD"
	EUR = "EUR"
	UZS = "UZS"
)

var currencySymbols = map[string]string{
	USD: "$",
	EUR: "€",
}

// Currency renders value as an en-US currency string with two decimals.
// Only USD is recognized; any other code, including the historical UZS
// default, is rendered as EUR.
func Currency(value float64, code string) string {
	if code != USD {
		code = EUR
	}
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	return sign + currencySymbols[code] + grouped(value, 2)
}

// Number renders value with thousands grouping and exactly decimals
// fraction digits. Negative decimals are treated as zero.
func Number(value float64, decimals int) string {
	return grouped(value, decimals)
}

// NumberDefault is Number with DefaultNumberDecimals.
func NumberDefault(value float64) string {
	return Number(value, DefaultNumberDecimals)
}

// Percentage multiplies value by 100 and renders it with a fixed number
// of decimals followed by "%". No grouping is applied.
func Percentage(value float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return fmt.Sprintf("%.*f%%", decimals, value*100)
}

// PercentageDefault is Percentage with DefaultPercentageDecimals.
func PercentageDefault(value float64) string {
	return Percentage(value, DefaultPercentageDecimals)
}

// DateTime renders t as "Jan 2, 2006, 03:04:05 PM".
func DateTime(t time.Time) string {
	return t.Format("Jan 2, 2006, 03:04:05 PM")
}

func grouped(value float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if decimals > maxDecimals {
		decimals = maxDecimals
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return humanize.FormatFloat("", value)
	}
	if math.Abs(value) >= exactLimit {
		return groupedLarge(value, decimals)
	}
	return humanize.FormatFloat("#,###."+strings.Repeat("#", decimals), value)
}

// groupedLarge groups the integer digits through big.Int so magnitudes
// beyond int64 keep their value.
func groupedLarge(value float64, decimals int) string {
	digits := strconv.FormatFloat(value, 'f', decimals, 64)
	intPart, frac, _ := strings.Cut(digits, ".")
	n, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return digits
	}
	if decimals == 0 {
		return humanize.BigComma(n)
	}
	return humanize.BigComma(n) + "." + frac
}
