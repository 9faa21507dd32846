package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxAmount is the largest single amount ParseMoney accepts. Sums of any
// realistic number of such amounts stay within int64 cents.
const MaxAmount = 100_000_000_000

// Money is an amount of currency held in integer cents.
type Money struct {
	Cents int64
}

// Cents returns a Money value of c cents.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// IsZero reports whether m is zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Float returns the amount in currency units for ratios and charts.
// Use Cents for arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100
}

// String formats m as a fixed-point value with two decimals, e.g. "50.00".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// ParseMoney converts a decimal string to Money.
//
// Both "12.34" and "12,34" are accepted. Digits past the second decimal are
// rounded half-up on the third. Only strictly positive amounts up to
// MaxAmount units are valid.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: amount is required", ErrValidation)
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return Money{}, fmt.Errorf("%w: invalid amount", ErrValidation)
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return Money{}, fmt.Errorf("%w: invalid amount", ErrValidation)
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || units > MaxAmount || (units == MaxAmount && strings.Trim(fracPart, "0") != "") {
		return Money{}, fmt.Errorf("%w: amount must not exceed %d", ErrValidation, MaxAmount)
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
	}
	if len(fracPart) > 1 {
		frac += int64(fracPart[1] - '0')
	}
	if len(fracPart) > 2 && fracPart[2] >= '5' {
		frac++
	}

	cents := units*100 + frac
	if cents <= 0 {
		return Money{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return Money{Cents: cents}, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
