package contract

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a USD amount in cents.
type Amount int64

// MaxAmount is the largest accepted amount. Cent values stay exact in a float64
// below it and never approach the int64 range.
const MaxAmount Amount = 1_000_000_000_000_000

var (
	errAmountEmpty    = errors.New("amount is empty")
	errAmountNotPos   = errors.New("amount must be positive")
	errAmountNotValid = errors.New("amount is not a number")
	errAmountTooLarge = errors.New("amount is too large")
)

// ParseAmount accepts "5000", "$5,000", "5,000.50", " $ 1,250 " and similar.
func ParseAmount(raw string) (Amount, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ', '\t', '\u00a0':
			return -1
		}
		return r
	}, raw)
	cleaned = strings.TrimSuffix(strings.TrimSuffix(cleaned, "USD"), "usd")
	if cleaned == "" {
		return 0, errAmountEmpty
	}
	if strings.HasPrefix(cleaned, "-") {
		return 0, errAmountNotPos
	}
	if !plainDecimal(cleaned) {
		return 0, errAmountNotValid
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errAmountNotValid
	}
	cents := math.Round(f * 100)
	if cents <= 0 {
		return 0, errAmountNotPos
	}
	if cents > float64(MaxAmount) {
		return 0, errAmountTooLarge
	}
	return Amount(cents), nil
}

// plainDecimal reports whether s is digits with at most one decimal point.
// Exponent, hex and signed forms are not amounts a person types.
func plainDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// Cents returns the amount in the smallest currency unit.
func (a Amount) Cents() int64 {
	return int64(a)
}

// Dollars returns the whole-dollar part.
func (a Amount) Dollars() int64 {
	return int64(a) / 100
}

// Float returns the amount in dollars.
func (a Amount) Float() float64 {
	return float64(a) / 100
}

// String renders the amount with thousands separators and no currency sign:
// "5,000" for whole dollars, "5,000.50" otherwise.
func (a Amount) String() string {
	whole := groupThousands(a.Dollars())
	if cents := int64(a) % 100; cents != 0 {
		return fmt.Sprintf("%s.%02d", whole, cents)
	}
	return whole
}

// USD renders "$5,000".
func (a Amount) USD() string {
	return "$" + a.String()
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
