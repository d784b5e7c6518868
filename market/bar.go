package market

import (
	"math"
	"strings"
	"time"
)

// Bar is one daily OHLCV record for a single instrument.
// PrevClose is the prior trading day's close and drives limit-price math.
type Bar struct {
	Date      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	PrevClose float64
	ST        bool // special-treatment flag, tightens the daily limit to 5%
}

// LimitPct returns the daily price-limit percentage for an instrument.
// ChiNext ("300") and STAR ("688") boards move 20% per day, ST instruments 5%,
// everything else 10%.
func LimitPct(code string, st bool) float64 {
	if st {
		return 0.05
	}
	if strings.HasPrefix(code, "688") || strings.HasPrefix(code, "300") {
		return 0.20
	}
	return 0.10
}

// LimitPrices returns the exchange-rounded limit-up and limit-down prices
// derived from the previous close.
func LimitPrices(code string, st bool, prevClose float64) (up, down float64) {
	pct := LimitPct(code, st)
	return Round2(prevClose * (1 + pct)), Round2(prevClose * (1 - pct))
}

// Round2 rounds to the exchange tick of 0.01.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Day builds a trading date at UTC midnight.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD trading date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// DayCount returns the calendar days between two dates.
func DayCount(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
