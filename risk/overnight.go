package risk

import (
	"math"
	"sort"

	"github.com/Heilo-qaq/ai-stock-advisor/market"
)

// GapRisk estimates overnight gap exposure from historical open-to-previous-
// close jumps.
type GapRisk struct {
	Level        string // low, medium, high or unknown
	AvgNegGap    float64
	MaxNegGap    float64
	Gap95th      float64 // 5th percentile of negative gaps (extreme tail)
	OvernightVaR float64
}

// AssessOvernightRisk scans a bar history for negative overnight gaps and
// scales the tail gap by the position's market value. At least 60 bars are
// required for a meaningful estimate.
func AssessOvernightRisk(bars []market.Bar, marketValue float64) GapRisk {
	if len(bars) < 60 {
		return GapRisk{Level: "unknown"}
	}

	var negGaps []float64
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close <= 0 {
			continue
		}
		gap := (bars[i].Open - bars[i-1].Close) / bars[i-1].Close
		if gap < 0 {
			negGaps = append(negGaps, gap)
		}
	}
	if len(negGaps) == 0 {
		return GapRisk{Level: "low"}
	}

	sum := 0.0
	maxNeg := 0.0
	for _, g := range negGaps {
		sum += g
		if g < maxNeg {
			maxNeg = g
		}
	}
	avg := sum / float64(len(negGaps))

	sorted := append([]float64(nil), negGaps...)
	sort.Float64s(sorted)
	tail := percentile(sorted, 5)

	level := "low"
	if math.Abs(avg) > 0.01 {
		level = "medium"
	}
	if math.Abs(maxNeg) > 0.05 {
		level = "high"
	}

	return GapRisk{
		Level:        level,
		AvgNegGap:    avg,
		MaxNegGap:    maxNeg,
		Gap95th:      tail,
		OvernightVaR: math.Abs(tail) * marketValue,
	}
}

// percentile interpolates linearly over an ascending sample, p in [0, 100].
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
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
