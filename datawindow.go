package redvox

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/alitto/pond"
)

// DataWindow is the final, queryable result of a build (§4.9, §6): every
// assembled, gap-filled, timing-corrected, window-trimmed Station, keyed by
// station ID, plus build-level diagnostics.
type DataWindow struct {
	Request  BuildRequest
	Stations map[string][]*Station
	Errors   []error
}

// Loader decodes one input file's bytes into zero or more Packets; the
// loader package's implementation is injected here so the core redvox
// package never imports a concrete wire format.
type Loader interface {
	Load(ctx context.Context, path string) ([]*Packet, error)
}

// Indexer lists candidate input file paths for a request; the fileindex
// package's implementation is injected the same way as Loader.
type Indexer interface {
	Index(req BuildRequest) ([]string, error)
}

// Build runs the full C1->C8 pipeline for req and returns the assembled
// DataWindow (C9, §4.9). Grounded on the teacher's cmd/main.go
// convert_gsf_list: open/index up front, fan the per-file work out over a
// bounded worker pool built with pond.Context(ctx) so cancellation/timeout
// stops in-flight work promptly, then run the remaining stages serially
// per station once every file has contributed.
func Build(ctx context.Context, req BuildRequest, idx Indexer, ldr Loader) (*DataWindow, error) {
	req.applyDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	paths, err := idx.Index(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	agg := NewAggregator()
	var mu sync.Mutex
	var buildErrs []error
	type loadedPacket struct {
		path string
		pkt  *Packet
	}
	var loaded []loadedPacket

	pool := pond.New(req.MaxWorkers, 0, pond.MinWorkers(req.MaxWorkers), pond.Context(ctx))
	for _, p := range paths {
		path := p
		pool.Submit(func() {
			packets, err := ldr.Load(ctx, path)
			if err != nil {
				mu.Lock()
				buildErrs = append(buildErrs, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, pkt := range packets {
				loaded = append(loaded, loadedPacket{path, pkt})
			}
		})
	}
	pool.StopAndWait()

	// reorder barrier (§5): workers finish in arbitrary order, so packets are
	// put back in NominalTimestamp order before they reach the aggregator.
	sort.SliceStable(loaded, func(i, j int) bool {
		return loaded[i].pkt.PacketMetadata.NominalTimestamp < loaded[j].pkt.PacketMetadata.NominalTimestamp
	})
	for _, lp := range loaded {
		if err := agg.Add(lp.pkt); err != nil {
			buildErrs = append(buildErrs, fmt.Errorf("%s: %w", lp.path, err))
		}
	}

	dw := &DataWindow{Request: req, Stations: map[string][]*Station{}, Errors: buildErrs}

	policy := edgePolicyFromString(req.EdgePolicy)
	// the trim window is the requested [start,end] exactly (§4.8); StartUs/
	// EndUs's buffer only widens the file-index scan (§4.1), not the data
	// window itself.
	startUs, endUs := req.StartTimestamp.UnixMicro(), req.EndTimestamp.UnixMicro()

	for _, st := range agg.Stations() {
		if ctx.Err() != nil {
			dw.Errors = append(dw.Errors, ErrCancelled)
			break
		}
		invariantBroken := false
		for _, e := range st.Errors {
			if errors.Is(e, ErrInvariant) {
				invariantBroken = true
				break
			}
		}
		if invariantBroken {
			dw.Errors = append(dw.Errors, fmt.Errorf("station %s: %w", st.Key.StationID, ErrInvariant))
			continue
		}
		st.Offset = FitOffsetModel(st.SyncExchanges)
		FillGaps(st, req.GapMultiplier, req.DropThresholdS)
		if req.ShouldApplyCorrection() {
			UpdateTiming(st, req.ShouldUseModelCorrection())
		}
		TrimWindow(st, startUs, endUs, policy)
		dw.Stations[st.Key.StationID] = append(dw.Stations[st.Key.StationID], st)
	}

	if len(dw.Stations) == 0 {
		dw.Errors = append(dw.Errors, ErrNoData)
	}
	if ctx.Err() != nil {
		dw.Errors = append(dw.Errors, ErrCancelled)
		return dw, ctx.Err()
	}
	return dw, nil
}

// QualityInfo summarizes per-station health for quick inspection without
// walking every table directly (§9.1 supplemented feature).
type QualityInfo struct {
	StationID        string
	NumPackets       int
	NumGaps          int
	TotalGapUs       int64
	OffsetModelScore float64
	Errors           int
}

// QualityInfo computes a QualityInfo summary for every station in the
// window.
func (dw *DataWindow) QualityInfo() []QualityInfo {
	var out []QualityInfo
	for id, stations := range dw.Stations {
		for _, st := range stations {
			var totalGap int64
			for _, g := range st.Gaps {
				totalGap += g.DurationUs
			}
			out = append(out, QualityInfo{
				StationID:        id,
				NumPackets:       len(st.PacketMetadata),
				NumGaps:          len(st.Gaps),
				TotalGapUs:       totalGap,
				OffsetModelScore: st.Offset.Score,
				Errors:           len(st.Errors),
			})
		}
	}
	return out
}
