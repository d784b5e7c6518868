package market

import (
	"sort"
	"time"
)

// Series is a per-instrument, date-sorted sequence of daily bars with
// constant-time date lookup.
type Series struct {
	Code string
	ST   bool
	Bars []Bar

	index map[time.Time]int
}

// NewSeries sorts the bars by date, derives PrevClose where the loader did not
// supply one, and builds the date index.
func NewSeries(code string, bars []Bar) *Series {
	s := &Series{Code: code, Bars: bars}
	sort.Slice(s.Bars, func(i, j int) bool {
		return s.Bars[i].Date.Before(s.Bars[j].Date)
	})
	for i := range s.Bars {
		if s.Bars[i].PrevClose == 0 && i > 0 {
			s.Bars[i].PrevClose = s.Bars[i-1].Close
		}
	}
	s.reindex()
	return s
}

func (s *Series) reindex() {
	s.index = make(map[time.Time]int, len(s.Bars))
	for i, b := range s.Bars {
		s.index[b.Date] = i
	}
}

func (s *Series) Len() int { return len(s.Bars) }

// At returns the bar for a trading date, if the instrument traded that day.
func (s *Series) At(date time.Time) (Bar, bool) {
	i, ok := s.index[date]
	if !ok {
		return Bar{}, false
	}
	b := s.Bars[i]
	b.ST = b.ST || s.ST
	return b, true
}

// Loc returns the positional index of a trading date.
func (s *Series) Loc(date time.Time) (int, bool) {
	i, ok := s.index[date]
	return i, ok
}

// Window returns a sub-series covering [start, end]. Zero bounds are open.
func (s *Series) Window(start, end time.Time) *Series {
	var out []Bar
	for _, b := range s.Bars {
		if !start.IsZero() && b.Date.Before(start) {
			continue
		}
		if !end.IsZero() && b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	w := &Series{Code: s.Code, ST: s.ST, Bars: out}
	w.reindex()
	return w
}

// Closes returns the close column.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Dataset is the full bar history the simulator runs over, one Series per
// instrument.
type Dataset struct {
	series map[string]*Series
}

func NewDataset() *Dataset {
	return &Dataset{series: make(map[string]*Series)}
}

func (d *Dataset) Add(s *Series) {
	d.series[s.Code] = s
}

func (d *Dataset) Get(code string) (*Series, bool) {
	s, ok := d.series[code]
	return s, ok
}

func (d *Dataset) Len() int { return len(d.series) }

// Codes returns the instrument codes in sorted order.
func (d *Dataset) Codes() []string {
	codes := make([]string, 0, len(d.series))
	for code := range d.series {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// TradingDates returns the sorted union of all instruments' trading dates.
func (d *Dataset) TradingDates() []time.Time {
	seen := make(map[time.Time]struct{})
	for _, s := range d.series {
		for _, b := range s.Bars {
			seen[b.Date] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for dt := range seen {
		dates = append(dates, dt)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Window returns a dataset restricted to [start, end].
func (d *Dataset) Window(start, end time.Time) *Dataset {
	out := NewDataset()
	for _, s := range d.series {
		out.Add(s.Window(start, end))
	}
	return out
}
