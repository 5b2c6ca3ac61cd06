package redvox

import (
	"math"
	"sort"
)

// OffsetModel is a single device-clock-to-UTC correction fit from a
// Station's SyncExchanges (§4.3): utc_us = device_us + intercept +
// slope*(device_us - start_time_us). Grounded on the PTP-style measurement-
// collect-then-fit shape in other_examples' facebook-time sptp client,
// adapted from PTP's four-timestamp measurement to RedVox's three-message
// exchange (SyncExchange.Latency/Offset reduce to the same algebra).
type OffsetModel struct {
	StartTimeUs int64
	EndTimeUs   int64

	KBins    int
	NSamples int

	Slope     float64
	Intercept float64
	Score     float64

	MeanLatencyUs  float64
	StdevLatencyUs float64
}

// samplesPerBin is n_samples from §4.3: the count of lowest-latency
// exchanges kept per bin.
const samplesPerBin = 3

// binSpanSeconds is the default bin width used to pick k_bins, §4.3.
const binSpanSeconds = 300.0

// FitOffsetModel builds an OffsetModel from a Station's sync exchanges
// (§4.3): partition the overall span into k_bins = max(1, floor(span_s/300))
// equal segments, pick the 3 lowest-latency exchanges per bin (skipping any
// bin with fewer), then a single OLS fit over (bin_center, median_offset)
// for the whole model. Edge cases (§9 Open Questions, resolved in
// DESIGN.md):
//   - zero exchanges, or a selected set that ends up empty: identity model
//   - exactly one exchange: constant-offset model, slope=0, score=0
//   - degenerate (every bin center coincides): constant-offset model
//   - slope <= -1: fit rejected, identity model used instead
func FitOffsetModel(exchanges []SyncExchange) OffsetModel {
	if len(exchanges) == 0 {
		return OffsetModel{}
	}

	sorted := append([]SyncExchange(nil), exchanges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].A1 < sorted[j].A1 })
	startUs, endUs := sorted[0].A1, sorted[len(sorted)-1].A1

	if len(sorted) == 1 {
		return OffsetModel{
			StartTimeUs:   startUs,
			EndTimeUs:     endUs,
			NSamples:      1,
			Intercept:     sorted[0].Offset(),
			MeanLatencyUs: sorted[0].Latency(),
		}
	}

	spanUs := float64(endUs - startUs)
	kBins := int(math.Floor(spanUs / 1e6 / binSpanSeconds))
	if kBins < 1 {
		kBins = 1
	}
	binWidth := spanUs / float64(kBins)

	type binPoint struct {
		centerUs     float64
		medianOffset float64
	}
	var points []binPoint
	var selected []SyncExchange

	for b := 0; b < kBins; b++ {
		loRel := float64(b) * binWidth
		hiRel := float64(b+1) * binWidth
		var bucket []SyncExchange
		for _, e := range sorted {
			rel := float64(e.A1 - startUs)
			inBin := rel >= loRel && rel < hiRel
			if b == kBins-1 {
				inBin = rel >= loRel && rel <= hiRel
			}
			if inBin {
				bucket = append(bucket, e)
			}
		}
		if len(bucket) < samplesPerBin {
			continue
		}
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].Latency() < bucket[j].Latency() })
		picks := append([]SyncExchange(nil), bucket[:samplesPerBin]...)

		offsets := make([]float64, samplesPerBin)
		for i, e := range picks {
			offsets[i] = e.Offset()
		}
		sort.Float64s(offsets)

		points = append(points, binPoint{
			centerUs:     (loRel + hiRel) / 2,
			medianOffset: offsets[samplesPerBin/2],
		})
		selected = append(selected, picks...)
	}

	model := OffsetModel{StartTimeUs: startUs, EndTimeUs: endUs, KBins: kBins}
	if len(selected) == 0 {
		return model
	}

	n := float64(len(selected))
	var latSum, latSumSq float64
	for _, e := range selected {
		l := e.Latency()
		latSum += l
		latSumSq += l * l
	}
	model.NSamples = len(selected)
	model.MeanLatencyUs = latSum / n
	variance := latSumSq/n - model.MeanLatencyUs*model.MeanLatencyUs
	if variance < 0 {
		variance = 0
	}
	model.StdevLatencyUs = math.Sqrt(variance)

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		sumX += p.centerUs
		sumY += p.medianOffset
		sumXY += p.centerUs * p.medianOffset
		sumXX += p.centerUs * p.centerUs
	}
	np := float64(len(points))
	mean := sumY / np

	denom := np*sumXX - sumX*sumX
	if denom == 0 {
		model.Intercept = mean
		return model
	}
	slope := (np*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / np

	if slope <= -1 {
		return OffsetModel{StartTimeUs: startUs, EndTimeUs: endUs, KBins: kBins}
	}

	var ssTot, ssRes float64
	for _, p := range points {
		pred := slope*p.centerUs + intercept
		ssRes += (p.medianOffset - pred) * (p.medianOffset - pred)
		ssTot += (p.medianOffset - mean) * (p.medianOffset - mean)
	}
	score := 1.0
	if ssTot != 0 {
		score = 1 - ssRes/ssTot
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
	}

	model.Slope = slope
	model.Intercept = intercept
	model.Score = score
	return model
}

// Apply corrects one device timestamp to UTC microseconds (§4.3). In
// "model" mode the fitted slope tracks drift across the span; in
// "best-offset" mode only the intercept (evaluated at StartTimeUs) is
// applied, uniformly across the whole timeline.
func (m OffsetModel) Apply(deviceUs int64, useModelCorrection bool) int64 {
	if !useModelCorrection {
		return deviceUs + int64(math.Round(m.Intercept))
	}
	offset := m.Intercept + m.Slope*float64(deviceUs-m.StartTimeUs)
	return deviceUs + int64(math.Round(offset))
}
