package redvox

// UpdateTiming applies a Station's OffsetModel to every timestamp column of
// every sensor table in place, then refreshes FirstDataTimestampUs and
// LastDataTimestampUs from the (now-corrected) primary timeline (§4.7).
// useModelCorrection selects the slope-tracking "model" mode over the
// constant "best-offset" mode (§4.3, §6 use_model_correction). No direct
// teacher analogue exists for clock correction; written in the
// explicit-loop, plain-function style the teacher uses throughout its
// decode functions.
func UpdateTiming(st *Station, useModelCorrection bool) {
	if st.IsTimestampsUpdated {
		return
	}
	for _, t := range st.Tables {
		for i, ts := range t.TimestampUs {
			t.TimestampUs[i] = st.Offset.Apply(ts, useModelCorrection)
		}
	}
	for i := range st.Gaps {
		st.Gaps[i].StartUs = st.Offset.Apply(st.Gaps[i].StartUs, useModelCorrection)
		st.Gaps[i].EndUs = st.Offset.Apply(st.Gaps[i].EndUs, useModelCorrection)
		st.Gaps[i].DurationUs = st.Gaps[i].EndUs - st.Gaps[i].StartUs
	}

	if primary, ok := st.PrimaryKind(); ok {
		table := st.Tables[primary]
		if n := table.NumRows(); n > 0 {
			st.FirstDataTimestampUs = table.TimestampUs[0]
			st.LastDataTimestampUs = table.TimestampUs[n-1]
		}
	}
	st.IsTimestampsUpdated = true
}
