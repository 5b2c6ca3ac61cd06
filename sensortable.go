package redvox

import (
	"log"
	"sort"
)

// SensorTable is a single sensor kind's columnar sample store for one
// Station, built incrementally by the Sensor Table Builder (C4) and mutated
// in place by the Gap Filler (C6), Timing Updater (C7), and Window Trimmer
// (C8). Column layout is fixed per Kind by sensorkinds.go's ColumnsForKind,
// mirroring the teacher's struct-of-slices tables (ping.go's BeamArray,
// attitude.go's Attitude) but keyed generically by column name instead of
// one hand-written field per kind.
type SensorTable struct {
	Kind SensorKind

	// TimestampUs is the corrected-or-raw per-sample timestamp column,
	// always present, always kept sorted ascending (P1).
	TimestampUs []int64

	// UnalteredTimestampUs preserves the pre-correction/pre-fill timestamp
	// for provenance; synthetic rows (gap/boundary fill) carry NullTimestampUs
	// here since they never had an original sample.
	UnalteredTimestampUs []int64

	Float64Cols map[string][]float64
	ByteCols    map[string][][]byte
	EnumCols    map[string][]uint8
}

// NewSensorTable allocates an empty table with the canonical column set for
// kind already keyed (but zero-length), so later append/insert calls never
// need to check for missing keys.
func NewSensorTable(kind SensorKind) *SensorTable {
	t := &SensorTable{
		Kind:        kind,
		Float64Cols: map[string][]float64{},
		ByteCols:    map[string][][]byte{},
		EnumCols:    map[string][]uint8{},
	}
	for _, c := range ColumnsForKind(kind) {
		switch c.Type {
		case ColFloat64:
			t.Float64Cols[c.Name] = nil
		case ColBytes:
			t.ByteCols[c.Name] = nil
		case ColEnum:
			t.EnumCols[c.Name] = nil
		}
	}
	return t
}

// NumRows returns the table's row count, defined as len(TimestampUs).
func (t *SensorTable) NumRows() int {
	return len(t.TimestampUs)
}

// IsSorted reports whether TimestampUs is non-decreasing (P1).
func (t *SensorTable) IsSorted() bool {
	return sort.SliceIsSorted(t.TimestampUs, func(i, j int) bool {
		return t.TimestampUs[i] < t.TimestampUs[j]
	})
}

// Append concatenates other onto t in place. Both tables must share Kind;
// callers (the Station Aggregator, C5) are responsible for ordering calls so
// the result stays sorted, since Append itself performs no re-sort (P1 is
// enforced by construction order, not by a sort-on-every-append pass). If
// other's first timestamp falls at or before t's existing last timestamp
// (typically a re-transmitted backfill), the overlapping prefix of other's
// rows is dropped before concatenating (§4.4); the drop is logged.
func (t *SensorTable) Append(other *SensorTable) error {
	if other == nil || other.NumRows() == 0 {
		return nil
	}
	if t.Kind != other.Kind {
		return ErrInvariant
	}

	drop := 0
	if n := t.NumRows(); n > 0 && other.TimestampUs[0] <= t.TimestampUs[n-1] {
		lastUs := t.TimestampUs[n-1]
		drop = searchTimestamp(other.TimestampUs, lastUs+1)
		log.Printf("sensortable: dropping %d overlapping row(s) appending to %s table (incoming first %d <= existing last %d)",
			drop, t.Kind, other.TimestampUs[0], lastUs)
	}

	t.TimestampUs = append(t.TimestampUs, other.TimestampUs[drop:]...)
	t.UnalteredTimestampUs = append(t.UnalteredTimestampUs, other.UnalteredTimestampUs[drop:]...)
	for name, col := range other.Float64Cols {
		t.Float64Cols[name] = append(t.Float64Cols[name], col[drop:]...)
	}
	for name, col := range other.ByteCols {
		t.ByteCols[name] = append(t.ByteCols[name], col[drop:]...)
	}
	for name, col := range other.EnumCols {
		t.EnumCols[name] = append(t.EnumCols[name], col[drop:]...)
	}
	return nil
}

// Truncate keeps only rows in [lo, hi) across every column, used by the
// Window Trimmer (C8) to clip a table to the audio-derived data window.
func (t *SensorTable) Truncate(lo, hi int) {
	if lo < 0 {
		lo = 0
	}
	if hi > t.NumRows() {
		hi = t.NumRows()
	}
	if lo >= hi {
		t.TimestampUs = t.TimestampUs[:0]
		t.UnalteredTimestampUs = t.UnalteredTimestampUs[:0]
		for name := range t.Float64Cols {
			t.Float64Cols[name] = t.Float64Cols[name][:0]
		}
		for name := range t.ByteCols {
			t.ByteCols[name] = t.ByteCols[name][:0]
		}
		for name := range t.EnumCols {
			t.EnumCols[name] = t.EnumCols[name][:0]
		}
		return
	}
	t.TimestampUs = append([]int64(nil), t.TimestampUs[lo:hi]...)
	t.UnalteredTimestampUs = append([]int64(nil), t.UnalteredTimestampUs[lo:hi]...)
	for name, col := range t.Float64Cols {
		t.Float64Cols[name] = append([]float64(nil), col[lo:hi]...)
	}
	for name, col := range t.ByteCols {
		t.ByteCols[name] = append([][]byte(nil), col[lo:hi]...)
	}
	for name, col := range t.EnumCols {
		t.EnumCols[name] = append([]uint8(nil), col[lo:hi]...)
	}
}

// RowValues snapshots every domain column's value at one row, as returned by
// RowAt/InterpolateRow/NullRow for callers building a synthetic row.
type RowValues struct {
	Float64 map[string]float64
	Bytes   map[string][]byte
	Enum    map[string]uint8
}

// RowAt returns the domain-column values at idx.
func (t *SensorTable) RowAt(idx int) RowValues {
	rv := RowValues{Float64: map[string]float64{}, Bytes: map[string][]byte{}, Enum: map[string]uint8{}}
	for name, col := range t.Float64Cols {
		if idx < len(col) {
			rv.Float64[name] = col[idx]
		}
	}
	for name, col := range t.ByteCols {
		if idx < len(col) {
			rv.Bytes[name] = col[idx]
		}
	}
	for name, col := range t.EnumCols {
		if idx < len(col) {
			rv.Enum[name] = col[idx]
		}
	}
	return rv
}

// NullRow produces domain-column values that are all sentinel/null, used by
// the Gap Filler (C6) to fabricate a boundary row with no real reading.
func (t *SensorTable) NullRow() RowValues {
	rv := RowValues{Float64: map[string]float64{}, Bytes: map[string][]byte{}, Enum: map[string]uint8{}}
	for name := range t.Float64Cols {
		rv.Float64[name] = NullFloat64()
	}
	for name := range t.ByteCols {
		rv.Bytes[name] = nil
	}
	for name := range t.EnumCols {
		rv.Enum[name] = NullEnum
	}
	return rv
}

// InterpolateRow linearly interpolates every float64 domain column between
// rows a and b at fraction frac in [0,1]; byte and enum columns, which are
// not meaningfully interpolable, are copied from a. Used by the Window
// Trimmer's INTERPOLATE edge policy (§4.8).
func (t *SensorTable) InterpolateRow(a, b int, frac float64) RowValues {
	ra, rb := t.RowAt(a), t.RowAt(b)
	rv := RowValues{Float64: map[string]float64{}, Bytes: map[string][]byte{}, Enum: map[string]uint8{}}
	for name, va := range ra.Float64 {
		vb := rb.Float64[name]
		rv.Float64[name] = va + (vb-va)*frac
	}
	for name, v := range ra.Bytes {
		rv.Bytes[name] = v
	}
	for name, v := range ra.Enum {
		rv.Enum[name] = v
	}
	return rv
}

// InsertRowAt inserts one synthetic row at position idx, shifting later rows
// right. timestampUs is the corrected timestamp to assign; unalteredUs is
// normally NullTimestampUs for synthetic rows.
func (t *SensorTable) InsertRowAt(idx int, timestampUs, unalteredUs int64, values RowValues) {
	insInt64 := func(s []int64, v int64) []int64 {
		s = append(s, 0)
		copy(s[idx+1:], s[idx:])
		s[idx] = v
		return s
	}
	t.TimestampUs = insInt64(t.TimestampUs, timestampUs)
	t.UnalteredTimestampUs = insInt64(t.UnalteredTimestampUs, unalteredUs)

	for name, col := range t.Float64Cols {
		v := values.Float64[name]
		col = append(col, 0)
		copy(col[idx+1:], col[idx:])
		col[idx] = v
		t.Float64Cols[name] = col
	}
	for name, col := range t.ByteCols {
		v := values.Bytes[name]
		col = append(col, nil)
		copy(col[idx+1:], col[idx:])
		col[idx] = v
		t.ByteCols[name] = col
	}
	for name, col := range t.EnumCols {
		v := values.Enum[name]
		col = append(col, 0)
		copy(col[idx+1:], col[idx:])
		col[idx] = v
		t.EnumCols[name] = col
	}
}

// AppendRow appends one synthetic row to the end of the table. Used by the
// Window Trimmer when extending past the last real sample.
func (t *SensorTable) AppendRow(timestampUs, unalteredUs int64, values RowValues) {
	t.InsertRowAt(t.NumRows(), timestampUs, unalteredUs, values)
}
