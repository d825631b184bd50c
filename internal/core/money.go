// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by the
// user and formatting them back for display.
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// amountPlaces is the number of decimal places kept for money.
	amountPlaces = 2
	// maxFractionDigits bounds the digits accepted after the separator.
	maxFractionDigits = 12
	// maxStoredExponent bounds the magnitude of a decoded amount, 1e18,
	// which leaves room for sums of typed amounts.
	maxStoredExponent = 18
)

// amountPattern admits plain numbers only. Exponent notation is rejected
// because rounding "1e5000000" materialises every digit.
var amountPattern = regexp.MustCompile(`^-?\d{1,15}(\.\d{1,12})?$`)

var maxStoredAmount = decimal.New(1, maxStoredExponent)

func init() {
	// Persisted and API amounts are JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount converts user input to a decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero to two places. The sign is not checked here: income may
// be negative, while expense amounts are checked by Expense.Validate.
//
// For instance:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
//	ParseAmount("1e3")    -> 0, ErrInvalidAmount
//
// At most 15 integer and 12 fractional digits are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if !amountPattern.MatchString(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(amountPlaces), nil
}

// AmountInRange reports whether a decoded amount is small enough to be
// summed and printed cheaply. It only inspects the exponent and coefficient
// size before comparing, so hostile values cost nothing to reject.
func AmountInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < -maxFractionDigits || exp > maxStoredExponent {
		return false
	}
	if d.Coefficient().BitLen() > 128 {
		return false
	}
	return d.Abs().LessThan(maxStoredAmount)
}

// FormatAmount renders an amount the way the UI shows it, e.g. "$12.5" or
// "-$3".
func FormatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().String()
	}
	return "$" + d.String()
}
