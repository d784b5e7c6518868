package stats

import (
	"math"
	"sort"
	"time"

	"github.com/Heilo-qaq/ai-stock-advisor/market"
)

// Point is one date-indexed equity observation.
type Point struct {
	Date  time.Time
	Value float64
}

// Curve is an ordered equity trajectory, one point per trading date.
type Curve []Point

func (c Curve) First() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[0].Value
}

func (c Curve) Final() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].Value
}

// Returns yields the daily simple returns between consecutive points.
func (c Curve) Returns() []float64 {
	if len(c) < 2 {
		return nil
	}
	out := make([]float64, 0, len(c)-1)
	for i := 1; i < len(c); i++ {
		if c[i-1].Value == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, c[i].Value/c[i-1].Value-1)
	}
	return out
}

// Drawdown is the maximum peak-to-trough decline of a curve.
type Drawdown struct {
	Max   float64
	Start time.Time // peak date
	End   time.Time // trough date
	Days  int       // calendar days between peak and trough
}

// MaxDrawdown scans the curve for its worst proportional decline from a
// running peak.
func MaxDrawdown(c Curve) Drawdown {
	if len(c) == 0 {
		return Drawdown{}
	}

	peak := c[0].Value
	peakDate := c[0].Date
	var dd Drawdown
	for _, p := range c {
		if p.Value > peak {
			peak = p.Value
			peakDate = p.Date
		}
		if peak <= 0 {
			continue
		}
		d := (peak - p.Value) / peak
		if d > dd.Max {
			dd.Max = d
			dd.Start = peakDate
			dd.End = p.Date
		}
	}
	if dd.Max > 0 {
		dd.Days = market.DayCount(dd.Start, dd.End)
	}
	return dd
}

// Percentile interpolates linearly over a sample, p in [0, 100].
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stddev is the sample (n-1) standard deviation.
func Stddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// Median returns the 50th percentile.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}
