package domain

import (
	"math"
	"sort"
)

// Series is a date-indexed sequence of float observations. Dates use the
// YYYY-MM-DD format and are strictly ascending. NaN marks a missing
// observation; NaN never crosses a public metric boundary (metrics convert
// it to a nil optional).
type Series struct {
	Dates  []string
	Values []float64
}

// Len returns the number of observations, missing ones included.
func (s Series) Len() int { return len(s.Values) }

// IsEmpty reports whether the series has no observations at all.
func (s Series) IsEmpty() bool { return len(s.Values) == 0 }

// Clean returns a copy with missing (NaN) observations removed.
func (s Series) Clean() Series {
	out := Series{}
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		out.Dates = append(out.Dates, s.Dates[i])
		out.Values = append(out.Values, v)
	}
	return out
}

// Last returns the most recent non-missing value, or false when there is none.
func (s Series) Last() (float64, bool) {
	for i := len(s.Values) - 1; i >= 0; i-- {
		if !math.IsNaN(s.Values[i]) {
			return s.Values[i], true
		}
	}
	return 0, false
}

// PctChange returns the percentage change between consecutive observations.
// The result is indexed from the second date onward. A step with a missing
// or non-positive base is emitted as missing.
func (s Series) PctChange() Series {
	if len(s.Values) < 2 {
		return Series{}
	}
	out := Series{
		Dates:  make([]string, len(s.Values)-1),
		Values: make([]float64, len(s.Values)-1),
	}
	for i := 1; i < len(s.Values); i++ {
		out.Dates[i-1] = s.Dates[i]
		prev, cur := s.Values[i-1], s.Values[i]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
			out.Values[i-1] = math.NaN()
			continue
		}
		out.Values[i-1] = (cur - prev) / prev
	}
	return out
}

// Align intersects two series on their common dates, dropping rows where
// either side is missing. The returned slices are index-aligned.
func Align(a, b Series) (x, y []float64, dates []string) {
	idx := make(map[string]int, len(b.Dates))
	for i, d := range b.Dates {
		idx[d] = i
	}
	for i, d := range a.Dates {
		j, ok := idx[d]
		if !ok {
			continue
		}
		av, bv := a.Values[i], b.Values[j]
		if math.IsNaN(av) || math.IsNaN(bv) {
			continue
		}
		x = append(x, av)
		y = append(y, bv)
		dates = append(dates, d)
	}
	return x, y, dates
}

// Frame is a date-indexed table with one float column per symbol. Dates are
// the ascending union of all column dates; a column's missing dates hold NaN.
type Frame struct {
	Dates   []string
	Columns []string
	Data    map[string][]float64
}

// NewFrame builds a frame from per-column series, aligning all columns on
// the union of their dates. Empty input series are skipped.
func NewFrame(columns []string, series map[string]Series) Frame {
	dateSet := make(map[string]struct{})
	kept := make([]string, 0, len(columns))
	for _, col := range columns {
		s, ok := series[col]
		if !ok || s.IsEmpty() {
			continue
		}
		kept = append(kept, col)
		for _, d := range s.Dates {
			dateSet[d] = struct{}{}
		}
	}
	if len(kept) == 0 {
		return Frame{}
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	data := make(map[string][]float64, len(kept))
	for _, col := range kept {
		s := series[col]
		byDate := make(map[string]float64, len(s.Dates))
		for i, d := range s.Dates {
			byDate[d] = s.Values[i]
		}
		vals := make([]float64, len(dates))
		for i, d := range dates {
			if v, ok := byDate[d]; ok {
				vals[i] = v
			} else {
				vals[i] = math.NaN()
			}
		}
		data[col] = vals
	}

	return Frame{Dates: dates, Columns: kept, Data: data}
}

// IsEmpty reports whether the frame has no columns or no rows.
func (f Frame) IsEmpty() bool { return len(f.Columns) == 0 || len(f.Dates) == 0 }

// Column returns one column as a series. The second return is false when the
// column does not exist.
func (f Frame) Column(name string) (Series, bool) {
	vals, ok := f.Data[name]
	if !ok {
		return Series{}, false
	}
	return Series{Dates: f.Dates, Values: vals}, true
}

// WeightedSum computes the row-wise weighted sum over the frame's columns,
// skipping missing cells (a row with every cell missing is itself missing).
func (f Frame) WeightedSum(weights map[string]float64) Series {
	if f.IsEmpty() {
		return Series{}
	}
	out := Series{
		Dates:  f.Dates,
		Values: make([]float64, len(f.Dates)),
	}
	for i := range f.Dates {
		sum := 0.0
		seen := false
		for _, col := range f.Columns {
			v := f.Data[col][i]
			if math.IsNaN(v) {
				continue
			}
			sum += v * weights[col]
			seen = true
		}
		if seen {
			out.Values[i] = sum
		} else {
			out.Values[i] = math.NaN()
		}
	}
	return out
}

// Dot projects the frame onto a weight vector, row by row. Unlike
// WeightedSum, a row with any missing cell is missing in the result - the
// projection is only meaningful over complete rows.
func (f Frame) Dot(weights map[string]float64) Series {
	if f.IsEmpty() {
		return Series{}
	}
	out := Series{
		Dates:  f.Dates,
		Values: make([]float64, len(f.Dates)),
	}
	for i := range f.Dates {
		sum := 0.0
		complete := true
		for _, col := range f.Columns {
			v := f.Data[col][i]
			if math.IsNaN(v) {
				complete = false
				break
			}
			sum += v * weights[col]
		}
		if complete {
			out.Values[i] = sum
		} else {
			out.Values[i] = math.NaN()
		}
	}
	return out
}

// CompleteCases returns a copy of the frame with every row containing a
// missing cell removed.
func (f Frame) CompleteCases() Frame {
	if f.IsEmpty() {
		return Frame{}
	}
	keep := make([]int, 0, len(f.Dates))
	for i := range f.Dates {
		complete := true
		for _, col := range f.Columns {
			if math.IsNaN(f.Data[col][i]) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	out := Frame{
		Dates:   make([]string, len(keep)),
		Columns: f.Columns,
		Data:    make(map[string][]float64, len(f.Columns)),
	}
	for _, col := range f.Columns {
		out.Data[col] = make([]float64, len(keep))
	}
	for n, i := range keep {
		out.Dates[n] = f.Dates[i]
		for _, col := range f.Columns {
			out.Data[col][n] = f.Data[col][i]
		}
	}
	if len(out.Dates) == 0 {
		return Frame{}
	}
	return out
}
