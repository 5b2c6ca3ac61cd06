package redvox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// P2: UnalteredTimestampUs preserves the pre-correction raw timestamp for
// real samples even after UpdateTiming rewrites TimestampUs.
func TestUpdateTiming_PreservesUnalteredTimestamps(t *testing.T) {
	st := NewStation(StationKey{StationID: "1000"}, StationMetadata{AudioNominalSampleRateHz: 800})
	audio := st.TableFor(SensorAudio)
	audio.AppendRow(0, 0, RowValues{Float64: map[string]float64{"microphone": 1}})
	audio.AppendRow(1250, 1250, RowValues{Float64: map[string]float64{"microphone": 2}})

	st.Offset = OffsetModel{StartTimeUs: 0, EndTimeUs: 10_000, Slope: 0, Intercept: 500, Score: 1}
	UpdateTiming(st, true)

	assert.Equal(t, []int64{500, 1750}, audio.TimestampUs)
	assert.Equal(t, []int64{0, 1250}, audio.UnalteredTimestampUs)
}

// UpdateTiming's best-offset mode ignores the fitted slope entirely,
// applying only the constant intercept regardless of how far a timestamp
// sits from StartTimeUs.
func TestUpdateTiming_BestOffsetModeIgnoresSlope(t *testing.T) {
	st := NewStation(StationKey{StationID: "1000"}, StationMetadata{AudioNominalSampleRateHz: 800})
	audio := st.TableFor(SensorAudio)
	audio.AppendRow(0, 0, RowValues{Float64: map[string]float64{"microphone": 1}})
	audio.AppendRow(1_000_000, 1_000_000, RowValues{Float64: map[string]float64{"microphone": 2}})

	st.Offset = OffsetModel{StartTimeUs: 0, EndTimeUs: 1_000_000, Slope: 2, Intercept: 500, Score: 1}
	UpdateTiming(st, false)

	assert.Equal(t, []int64{500, 1_000_500}, audio.TimestampUs)
}

// Synthetic gap-boundary rows (on a non-primary table; the primary table
// never gets them, §4.6) carry the NullTimestampUs sentinel in
// UnalteredTimestampUs even after their (device-time) TimestampUs is
// corrected by UpdateTiming.
func TestUpdateTiming_SyntheticRowsStayNullInUnaltered(t *testing.T) {
	st := NewStation(StationKey{StationID: "1000"}, StationMetadata{AudioNominalSampleRateHz: 800})
	audio := st.TableFor(SensorAudio)
	pressure := st.TableFor(SensorPressure)

	var ts []int64
	for i := 0; i < 20; i++ {
		ts = append(ts, int64(i*1250))
	}
	ts = append(ts, ts[len(ts)-1]+10_000_000)
	for i := 0; i < 5; i++ {
		ts = append(ts, ts[len(ts)-1]+1250)
	}
	for _, v := range ts {
		audio.AppendRow(v, v, RowValues{Float64: map[string]float64{"microphone": 0}})
	}
	pressure.AppendRow(ts[0], ts[0], RowValues{Float64: map[string]float64{"pressure": 1}})
	pressure.AppendRow(ts[len(ts)-1], ts[len(ts)-1], RowValues{Float64: map[string]float64{"pressure": 2}})

	FillGaps(st, 1.5, 0.5)
	require.Len(t, st.Gaps, 1)

	deviceTimestamps := append([]int64(nil), pressure.TimestampUs...)

	st.Offset = OffsetModel{StartTimeUs: 0, EndTimeUs: 1 << 40, Slope: 0, Intercept: 100, Score: 1}
	UpdateTiming(st, true)

	sawSynthetic := false
	for i, u := range pressure.UnalteredTimestampUs {
		if !IsNullTimestamp(u) {
			continue
		}
		sawSynthetic = true
		assert.Equal(t, deviceTimestamps[i]+100, pressure.TimestampUs[i],
			"synthetic row timestamp should still be offset-corrected, not left in device time")
	}
	assert.True(t, sawSynthetic)

	for _, u := range audio.UnalteredTimestampUs {
		assert.False(t, IsNullTimestamp(u), "primary table must not receive synthetic gap rows")
	}
}
