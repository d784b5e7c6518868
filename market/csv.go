package market

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadCSV reads a daily bar file with columns
//
//	date,open,high,low,close,volume
//
// where date is YYYY-MM-DD. A header row is allowed. PrevClose is derived
// from the prior row.
func LoadCSV(path, code string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read bars %s: %w", path, err)
	}

	var bars []Bar
	for i, row := range rows {
		if len(row) < 5 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "date") {
			continue
		}
		date, err := ParseDate(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad date %q", path, i+1, row[0])
		}
		vals := make([]float64, 0, 5)
		for _, col := range row[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(col), 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: bad value %q", path, i+1, col)
			}
			vals = append(vals, v)
			if len(vals) == 5 {
				break
			}
		}
		b := Bar{Date: date, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}
		if len(vals) > 4 {
			b.Volume = vals[4]
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars in %s", path)
	}

	return NewSeries(code, bars), nil
}

// LoadDir loads every *.csv in a directory into a dataset, using the file
// name (without extension) as the instrument code.
func LoadDir(dir string) (*Dataset, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no bar files in %s", dir)
	}

	ds := NewDataset()
	for _, p := range paths {
		code := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		s, err := LoadCSV(p, code)
		if err != nil {
			return nil, err
		}
		ds.Add(s)
	}
	return ds, nil
}
