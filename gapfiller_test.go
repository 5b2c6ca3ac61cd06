package redvox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAudioStation(timestamps []int64) *Station {
	st := NewStation(StationKey{StationID: "1000"}, StationMetadata{AudioNominalSampleRateHz: 800})
	audio := st.TableFor(SensorAudio)
	for _, ts := range timestamps {
		audio.AppendRow(ts, ts, RowValues{Float64: map[string]float64{"microphone": 0}})
	}
	pressure := st.TableFor(SensorPressure)
	pressure.AppendRow(timestamps[0], timestamps[0], RowValues{Float64: map[string]float64{"pressure": 1}})
	pressure.AppendRow(timestamps[len(timestamps)-1], timestamps[len(timestamps)-1], RowValues{Float64: map[string]float64{"pressure": 2}})
	return st
}

// S2: two packets' worth of audio with a 10s gap between them; exactly one
// Gap recorded, every non-primary (non-audio) sensor table gets boundary
// rows at the gap edges.
func TestFillGaps_DetectsSingleGapAcrossPackets(t *testing.T) {
	const periodUs = 1_250 // 800Hz
	var first []int64
	for i := 0; i < 4096; i++ {
		first = append(first, int64(i*periodUs))
	}
	lastOfFirst := first[len(first)-1]
	gapUs := int64(10_000_000)
	firstOfSecond := lastOfFirst + gapUs

	var second []int64
	for i := 0; i < 4096; i++ {
		second = append(second, firstOfSecond+int64(i*periodUs))
	}

	all := append(append([]int64{}, first...), second...)
	st := buildAudioStation(all)
	wantAudioRows := st.Tables[SensorAudio].NumRows()

	FillGaps(st, 1.5, 0.5)

	require.Len(t, st.Gaps, 1)
	assert.Equal(t, lastOfFirst, st.Gaps[0].StartUs)
	assert.Equal(t, firstOfSecond, st.Gaps[0].EndUs)

	// audio is the primary timeline; its own rows already straddle the gap,
	// so it must receive no synthetic boundary rows (§4.6, §8 S2).
	assert.Equal(t, wantAudioRows, st.Tables[SensorAudio].NumRows())

	pressure := st.Tables[SensorPressure]
	assert.True(t, pressure.NumRows() >= 4)
}

// P3: a jump well past max(1.5*delta, drop_time_s*1e6) always produces a
// matching Gap entry, while sub-threshold jitter does not.
func TestFillGaps_ThresholdBoundary(t *testing.T) {
	ts := []int64{0, 1000, 2000, 3000, 20_000, 21_000}
	st := buildAudioStation(ts)
	FillGaps(st, 1.5, 0)
	require.Len(t, st.Gaps, 1)
	assert.Equal(t, int64(3000), st.Gaps[0].StartUs)
	assert.Equal(t, int64(20_000), st.Gaps[0].EndUs)
}

func TestFillGaps_NoGapsWhenUniform(t *testing.T) {
	var ts []int64
	for i := 0; i < 100; i++ {
		ts = append(ts, int64(i*1250))
	}
	st := buildAudioStation(ts)
	FillGaps(st, 1.5, 0.5)
	assert.Empty(t, st.Gaps)
}
