package redvox

// defaultGapMultiplier is the threshold multiplier applied to the primary
// timeline's nominal sample period to decide whether a timestamp jump is a
// gap (§4.6, Open Question resolved in DESIGN.md: kept configurable rather
// than hardcoded since the spec says not to guess a different constant).
const defaultGapMultiplier = 1.5

// FillGaps detects discontinuities on the Station's primary timeline and
// inserts a pair of sentinel boundary rows around each into every
// non-primary sensor table (§4.6): the primary table's own rows already are
// the gap's boundary samples, so it is left untouched. gapMultiplier <= 0
// selects defaultGapMultiplier. dropThresholdS bounds the minimum gap
// duration, in seconds, worth acting on regardless of the multiplier (a
// station with a very slow nominal rate should not report sub-second gaps),
// and also stands in for the non-audio nominal step per §4.6.
func FillGaps(st *Station, gapMultiplier float64, dropThresholdS float64) {
	if gapMultiplier <= 0 {
		gapMultiplier = defaultGapMultiplier
	}
	primary, ok := st.PrimaryKind()
	if !ok {
		return
	}
	table := st.Tables[primary]
	n := table.NumRows()
	if n < 2 {
		return
	}

	// nominal step: the configured (not measured) sample period for audio,
	// else the drop threshold itself stands in for non-audio primaries.
	var nominalPeriodUs float64
	if primary == SensorAudio && st.Metadata.AudioNominalSampleRateHz > 0 {
		nominalPeriodUs = 1e6 / st.Metadata.AudioNominalSampleRateHz
	} else {
		nominalPeriodUs = dropThresholdS * 1_000_000
	}

	thresholdUs := nominalPeriodUs * gapMultiplier
	if dropUs := dropThresholdS * 1_000_000; dropUs > thresholdUs {
		thresholdUs = dropUs
	}

	var gaps []Gap
	for i := 1; i < n; i++ {
		delta := float64(table.TimestampUs[i] - table.TimestampUs[i-1])
		if delta > thresholdUs {
			gaps = append(gaps, Gap{
				StartUs:    table.TimestampUs[i-1],
				EndUs:      table.TimestampUs[i],
				DurationUs: int64(delta),
			})
		}
	}
	if len(gaps) == 0 {
		return
	}
	st.Gaps = append(st.Gaps, gaps...)

	for kind, t := range st.Tables {
		if kind == primary {
			continue
		}
		insertGapBoundaries(t, gaps)
		st.Tables[kind] = t
	}
}

// insertGapBoundaries inserts one sentinel row just after a gap's start and
// one just before its end into every column of t, using t's own timestamps
// to locate insertion points when t is not the primary table (a sensor
// sampled at a different rate still gets boundary markers at the gap's
// time bounds, per §4.6).
func insertGapBoundaries(t *SensorTable, gaps []Gap) {
	for _, g := range gaps {
		idx := searchTimestamp(t.TimestampUs, g.StartUs)
		t.InsertRowAt(idx, g.StartUs, NullTimestampUs, t.NullRow())

		idx = searchTimestamp(t.TimestampUs, g.EndUs)
		t.InsertRowAt(idx, g.EndUs, NullTimestampUs, t.NullRow())
	}
}

// searchTimestamp returns the index at which ts would be inserted to keep
// ascending order (first index with TimestampUs[i] >= ts).
func searchTimestamp(ts []int64, target int64) int {
	low, high := 0, len(ts)
	for low < high {
		mid := (low + high) / 2
		if ts[mid] < target {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low
}
