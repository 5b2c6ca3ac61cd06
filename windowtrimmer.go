package redvox

// EdgePolicy selects how the Window Trimmer fabricates a boundary sample
// when a requested window edge falls strictly inside a gap or outside the
// available data (§4.8).
type EdgePolicy uint8

const (
	// EdgeCopy repeats the nearest real row's values at the new edge.
	EdgeCopy EdgePolicy = iota
	// EdgeNaN fills the new edge with sentinel/null values.
	EdgeNaN
	// EdgeInterpolate builds the edge row from the table's surviving rows
	// only: rows outside the window are dropped before boundary rows are
	// made, so the edge row takes the values of the first (start edge) or
	// last (end edge) surviving row. No interpolation across the edge with
	// a dropped outside row takes place. With fewer than two surviving rows
	// the edge row is null.
	EdgeInterpolate
)

// TrimWindow clips every sensor table (other than window-exempt kinds, e.g.
// best_location) to [startUs, endUs], fabricating a boundary row at each
// edge per policy when the edge does not land on an existing sample
// (§4.8). Gaps outside the new window are dropped; gaps overlapping it are
// kept, clipped to the window.
func TrimWindow(st *Station, startUs, endUs int64, policy EdgePolicy) {
	for kind, t := range st.Tables {
		if IsWindowExempt(kind) {
			continue
		}
		trimTable(t, startUs, endUs, policy)
	}

	kept := st.Gaps[:0]
	for _, g := range st.Gaps {
		if g.EndUs < startUs || g.StartUs > endUs {
			continue
		}
		if g.StartUs < startUs {
			g.StartUs = startUs
		}
		if g.EndUs > endUs {
			g.EndUs = endUs
		}
		g.DurationUs = g.EndUs - g.StartUs
		kept = append(kept, g)
	}
	st.Gaps = kept

	if t, ok := st.Tables[SensorAudio]; ok && t.NumRows() > 0 {
		st.FirstDataTimestampUs = t.TimestampUs[0]
		st.LastDataTimestampUs = t.TimestampUs[t.NumRows()-1]
	}
}

// trimTable clips one table to [startUs, endUs] and fabricates boundary
// rows where needed. Grounded on the teacher's nulls.go padDense/
// beamArrayNulls idiom of inserting fill values at array boundaries,
// generalized to three interchangeable fill policies.
func trimTable(t *SensorTable, startUs, endUs int64, policy EdgePolicy) {
	n := t.NumRows()
	if n == 0 {
		return
	}

	lowIdx := searchTimestamp(t.TimestampUs, startUs)
	highIdx := searchTimestamp(t.TimestampUs, endUs)
	if highIdx < n && t.TimestampUs[highIdx] == endUs {
		highIdx++
	}
	t.Truncate(lowIdx, highIdx)
	n = t.NumRows()

	if n == 0 || t.TimestampUs[0] != startUs {
		row := edgeRow(t, startUs, policy, true)
		t.InsertRowAt(0, startUs, NullTimestampUs, row)
		n++
	}
	if t.TimestampUs[n-1] != endUs {
		row := edgeRow(t, endUs, policy, false)
		t.AppendRow(endUs, NullTimestampUs, row)
	}
}

// edgeRow fabricates one boundary row's values per policy. leading selects
// whether this is the window's start edge (uses the table's first surviving
// row as the COPY/INTERPOLATE anchor) or its end edge (uses the last).
func edgeRow(t *SensorTable, edgeUs int64, policy EdgePolicy, leading bool) RowValues {
	n := t.NumRows()
	switch policy {
	case EdgeNaN:
		return t.NullRow()
	case EdgeInterpolate:
		if n < 2 {
			return t.NullRow()
		}
		if leading {
			return t.InterpolateRow(0, 1, 0)
		}
		return t.InterpolateRow(n-2, n-1, 1)
	default: // EdgeCopy
		if n == 0 {
			return t.NullRow()
		}
		if leading {
			return t.RowAt(0)
		}
		return t.RowAt(n - 1)
	}
}
