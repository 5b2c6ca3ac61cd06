package redvox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stationWithPressure(timestamps []float64ish) *Station {
	st := NewStation(StationKey{StationID: "1000"}, StationMetadata{AudioNominalSampleRateHz: 800})
	p := st.TableFor(SensorPressure)
	for _, r := range timestamps {
		p.AppendRow(r.ts, r.ts, RowValues{Float64: map[string]float64{"pressure": r.v}})
	}
	return st
}

type float64ish struct {
	ts int64
	v  float64
}

// P4: after TrimWindow every surviving row of every non-exempt table falls
// within [startUs, endUs].
func TestTrimWindow_ContainsAllRows(t *testing.T) {
	st := stationWithPressure([]float64ish{{0, 1}, {1000, 2}, {2000, 3}, {3000, 4}, {4000, 5}})
	TrimWindow(st, 1000, 3000, EdgeCopy)

	table := st.Tables[SensorPressure]
	for _, ts := range table.TimestampUs {
		assert.GreaterOrEqual(t, ts, int64(1000))
		assert.LessOrEqual(t, ts, int64(3000))
	}
}

// P5: when the requested edge does not land on an existing sample, a
// boundary row is fabricated exactly at that edge.
func TestTrimWindow_FabricatesBoundaryRows(t *testing.T) {
	st := stationWithPressure([]float64ish{{100, 1}, {200, 2}, {300, 3}})
	TrimWindow(st, 0, 500, EdgeNaN)

	table := st.Tables[SensorPressure]
	require.Equal(t, int64(0), table.TimestampUs[0])
	require.Equal(t, int64(500), table.TimestampUs[table.NumRows()-1])
	assert.True(t, IsNullFloat64(table.Float64Cols["pressure"][0]))
	assert.True(t, IsNullFloat64(table.Float64Cols["pressure"][table.NumRows()-1]))
}

// S4: EdgeCopy repeats the nearest real row's values at a fabricated
// boundary rather than nulling them out.
func TestTrimWindow_EdgeCopyRepeatsNearestRow(t *testing.T) {
	st := stationWithPressure([]float64ish{{100, 42}, {200, 43}, {300, 44}})
	TrimWindow(st, 0, 500, EdgeCopy)

	table := st.Tables[SensorPressure]
	assert.Equal(t, 42.0, table.Float64Cols["pressure"][0])
	assert.Equal(t, 44.0, table.Float64Cols["pressure"][table.NumRows()-1])
}

// S4 (exact scenario): audio spans [100,200]; pressure at 50,120,180,250
// with distinct values. Forcing the window to [100,200] with EdgeCopy
// should drop the two out-of-window samples and fabricate boundary rows by
// copying the nearest surviving real row.
func TestTrimWindow_S4EdgeTrimmingWithCopy(t *testing.T) {
	const p50, p120, p180, p250 = 5.0, 12.0, 18.0, 25.0
	st := stationWithPressure([]float64ish{{50, p50}, {120, p120}, {180, p180}, {250, p250}})

	TrimWindow(st, 100, 200, EdgeCopy)

	table := st.Tables[SensorPressure]
	require.Equal(t, []int64{100, 120, 180, 200}, table.TimestampUs)
	assert.Equal(t, []float64{p120, p120, p180, p180}, table.Float64Cols["pressure"])
}

// best_location is exempt from window clipping: its rows survive untouched.
func TestTrimWindow_BestLocationExempt(t *testing.T) {
	st := NewStation(StationKey{StationID: "1000"}, StationMetadata{})
	bl := st.TableFor(SensorBestLocation)
	bl.AppendRow(100, 100, bl.NullRow())
	bl.AppendRow(999_999, 999_999, bl.NullRow())

	TrimWindow(st, 0, 500, EdgeNaN)

	assert.Equal(t, 2, st.Tables[SensorBestLocation].NumRows())
}

func TestTrimWindow_DropsGapsOutsideWindow(t *testing.T) {
	st := stationWithPressure([]float64ish{{0, 1}, {1000, 2}})
	st.Gaps = []Gap{{StartUs: 2000, EndUs: 3000, DurationUs: 1000}}
	TrimWindow(st, 0, 1000, EdgeCopy)
	assert.Empty(t, st.Gaps)
}
