package redvox

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitOffsetModel_ZeroExchangesIsIdentity(t *testing.T) {
	m := FitOffsetModel(nil)
	assert.Equal(t, 0.0, m.Slope)
	assert.Equal(t, 0.0, m.Intercept)
	assert.Equal(t, 0.0, m.Score)
	assert.Equal(t, int64(1_000_000), m.Apply(1_000_000, true))
}

func TestFitOffsetModel_OneExchangeIsConstantOffset(t *testing.T) {
	ex := SyncExchange{A1: 0, A2: 100, A3: 200, B1: 50, B2: 100, B3: 150}
	m := FitOffsetModel([]SyncExchange{ex})
	require.Equal(t, 1, m.NSamples)
	assert.Equal(t, 0.0, m.Slope)
	assert.Equal(t, 0.0, m.Score)
	assert.InDelta(t, ex.Offset(), float64(m.Apply(0, true)), 1)
}

// a total selected set of zero (every bin short of the 3-sample minimum)
// falls back to the identity model.
func TestFitOffsetModel_TwoExchangesNeverFillABinIsIdentity(t *testing.T) {
	exchanges := []SyncExchange{
		{A1: 0, A2: 0, A3: 0, B1: 1000, B2: 0, B3: 0},
		{A1: 1000, A2: 0, A3: 0, B1: 2000, B2: 0, B3: 0},
	}
	m := FitOffsetModel(exchanges)
	assert.Equal(t, 0.0, m.Slope)
	assert.Equal(t, 0.0, m.Intercept)
	assert.Equal(t, 0, m.NSamples)
}

// S3: synthetic station with a true affine offset over exactly 1800s,
// engineered so every one of the 6 bins (1800s/300s) receives exactly 3
// low-latency exchanges at its center. Two high-latency anchor exchanges at
// t=0 and t=1800s stretch the exchanges' span to the full 1800s but are
// never among a bin's 3 lowest-latency picks. The fitted model should
// recover intercept within 5us and slope within 1e-8, and Apply should
// reproduce the true corrected timestamp within 1us.
func TestFitOffsetModel_RecoversEngineeredOffset(t *testing.T) {
	const trueIntercept = 12_345.0
	const trueSlope = 1e-6
	const spanUs = 1_800_000_000.0 // 1800s
	const kBins = 6                // floor(1800/300)
	const perBin = 3
	binWidth := spanUs / float64(kBins)

	// offset is defined relative to t=0, the earliest exchange, so the
	// fitted Intercept (evaluated at StartTimeUs, per §4.3's contract)
	// lands on trueIntercept exactly.
	offsetAt := func(t float64) float64 { return trueIntercept + trueSlope*t }

	// Offset() = ((B1-A1)-(A3-B2))/2, so pinning A3=B2=A1 and setting
	// B1=A1+2*offset makes it reduce to exactly `offset`.
	exchangeAt := func(deviceT int64, latencyA2 int64) SyncExchange {
		return SyncExchange{
			A1: deviceT, A2: deviceT + latencyA2, A3: deviceT,
			B1: deviceT + int64(math.Round(2*offsetAt(float64(deviceT)))), B2: deviceT, B3: deviceT,
		}
	}

	exchanges := []SyncExchange{exchangeAt(0, 1000), exchangeAt(int64(spanUs), 1000)}
	for b := 0; b < kBins; b++ {
		deviceT := int64((float64(b) + 0.5) * binWidth)
		// Vary A2 so the 3 exchanges sharing a bin have distinct (low)
		// latencies, ensuring all 3 are selected over an anchor.
		for i := int64(0); i < perBin; i++ {
			exchanges = append(exchanges, exchangeAt(deviceT, i))
		}
	}

	model := FitOffsetModel(exchanges)
	require.Equal(t, kBins, model.KBins)
	require.Equal(t, kBins*perBin, model.NSamples)
	require.Equal(t, int64(0), model.StartTimeUs)

	assert.InDelta(t, trueIntercept, model.Intercept, 5)
	assert.InDelta(t, trueSlope, model.Slope, 1e-8)
	assert.GreaterOrEqual(t, model.Score, 0.99)

	for b := 0; b < kBins; b++ {
		center := (float64(b) + 0.5) * binWidth
		deviceT := int64(center)
		corrected := model.Apply(deviceT, true)
		wantCorrected := deviceT + int64(math.Round(offsetAt(center)))
		assert.InDelta(t, float64(wantCorrected), float64(corrected), 1)
	}
}

// A fit producing slope <= -1 is rejected outright and the identity model
// is used instead (§4.3). Two 300s bins, 3 identical-offset exchanges each
// (A2 varied only to rank latency), chosen so the two-point OLS line
// between bin medians has slope well past the -1 cutoff.
func TestFitOffsetModel_RejectsSteepNegativeSlope(t *testing.T) {
	bin := func(a1, offset int64) []SyncExchange {
		b1 := a1 + 2*offset
		var out []SyncExchange
		for i := int64(0); i < 3; i++ {
			out = append(out, SyncExchange{A1: a1, A2: a1 + i, A3: a1, B1: b1, B2: a1, B3: a1})
		}
		return out
	}
	var exchanges []SyncExchange
	exchanges = append(exchanges, bin(0, 0)...)
	exchanges = append(exchanges, bin(600_000_000, -500_000_000)...)

	model := FitOffsetModel(exchanges)
	assert.Equal(t, 0.0, model.Slope)
	assert.Equal(t, 0.0, model.Intercept)
	assert.Equal(t, 0.0, model.Score)
}

// P6: the identity model (no exchanges) round-trips every device timestamp
// exactly in both model and best-offset mode.
func TestOffsetModel_IdentityRoundTrip(t *testing.T) {
	m := FitOffsetModel(nil)
	for _, deviceUs := range []int64{0, 1, -1, 1_000_000, -1_000_000, math.MaxInt32} {
		assert.Equal(t, deviceUs, m.Apply(deviceUs, true))
		assert.Equal(t, deviceUs, m.Apply(deviceUs, false))
	}
}

func TestOffsetModel_FittedApplyMatchesAffineFormula(t *testing.T) {
	m := OffsetModel{StartTimeUs: 0, EndTimeUs: 1_000_000, Slope: 0.0001, Intercept: 250}

	for _, deviceUs := range []int64{0, 500_000, 1_000_000} {
		want := m.Intercept + m.Slope*float64(deviceUs-m.StartTimeUs)
		got := float64(m.Apply(deviceUs, true)) - float64(deviceUs)
		assert.InDelta(t, want, got, 1)
	}
}

// best-offset mode applies only the intercept, regardless of slope or
// distance from StartTimeUs.
func TestOffsetModel_BestOffsetModeAppliesOnlyIntercept(t *testing.T) {
	m := OffsetModel{StartTimeUs: 0, EndTimeUs: 1_000_000, Slope: 5, Intercept: 42}
	assert.Equal(t, int64(42), m.Apply(0, false))
	assert.Equal(t, int64(1_000_042), m.Apply(1_000_000, false))
}
