package redvox

import "sort"

// Aggregator groups decoded Packets into per-Station records (C5). Grounded
// on the teacher's file.go GsfFile.Info(): a single-pass accumulation loop
// that groups records into maps keyed by a small composite identity and
// builds up a result incrementally, generalized here from one file's
// records to many packets' stations.
type Aggregator struct {
	stations map[StationKey]*Station
	order    []StationKey
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{stations: map[StationKey]*Station{}}
}

// Add folds one packet into its Station, creating the Station on first
// sight of its key. A packet whose StationMetadata digest disagrees with
// the Station's existing digest is rejected with ErrInvariant and recorded
// against the Station rather than silently merged (§4.5 edge case).
func (a *Aggregator) Add(p *Packet) error {
	key := KeyOf(p)
	st, ok := a.stations[key]
	if !ok {
		st = NewStation(key, p.Metadata)
		a.stations[key] = st
		a.order = append(a.order, key)
	} else if st.Metadata.Digest() != p.Metadata.Digest() {
		st.AddError(ErrInvariant)
		return ErrInvariant
	}

	seen := map[SensorKind]bool{}
	for _, sensor := range p.Sensors {
		if !sensor.Present {
			continue
		}
		if seen[sensor.Kind] {
			st.AddError(ErrInvariant)
			continue
		}
		seen[sensor.Kind] = true
		table, err := tableFromPayload(sensor, p.Metadata.AudioNominalSampleRateHz)
		if err != nil {
			st.AddError(err)
			continue
		}
		if err := st.TableFor(sensor.Kind).Append(table); err != nil {
			st.AddError(err)
		}
	}

	st.PacketMetadata = append(st.PacketMetadata, p.PacketMetadata)
	st.SyncExchanges = append(st.SyncExchanges, p.SyncExchanges...)
	return nil
}

// tableFromPayload builds a one-packet SensorTable from a decoded payload,
// synthesizing evenly-spaced timestamps for audio (§4.4) and taking the
// carried-per-sample timestamps for every other kind.
func tableFromPayload(sensor SensorPayload, nominalSampleRateHz float64) (*SensorTable, error) {
	t := NewSensorTable(sensor.Kind)
	cols := ColumnsForKind(sensor.Kind)

	n := sampleCount(sensor, cols)
	if n == 0 {
		return t, nil
	}

	t.TimestampUs = make([]int64, n)
	t.UnalteredTimestampUs = make([]int64, n)
	if IsEvenlySampled(sensor.Kind) && nominalSampleRateHz > 0 {
		periodUs := 1_000_000.0 / nominalSampleRateHz
		for i := 0; i < n; i++ {
			ts := sensor.FirstSampleTimestampUs + int64(float64(i)*periodUs)
			t.TimestampUs[i] = ts
			t.UnalteredTimestampUs[i] = ts
		}
	} else {
		if len(sensor.TimestampsUs) != n {
			return nil, ErrCorrupt
		}
		copy(t.TimestampUs, sensor.TimestampsUs)
		copy(t.UnalteredTimestampUs, sensor.TimestampsUs)
	}

	floatIdx, byteIdx, enumIdx := 0, 0, 0
	for _, c := range cols {
		switch c.Type {
		case ColFloat64:
			if floatIdx < len(sensor.Channels) {
				t.Float64Cols[c.Name] = append([]float64(nil), sensor.Channels[floatIdx]...)
			}
			floatIdx++
		case ColBytes:
			if byteIdx < len(sensor.Bytes) {
				t.ByteCols[c.Name] = append([][]byte(nil), sensor.Bytes[byteIdx]...)
			}
			byteIdx++
		case ColEnum:
			if enumIdx < len(sensor.Enums) {
				t.EnumCols[c.Name] = append([]uint8(nil), sensor.Enums[enumIdx]...)
			}
			enumIdx++
		}
	}
	if !t.IsSorted() {
		return nil, ErrInvariant
	}
	return t, nil
}

func sampleCount(sensor SensorPayload, cols []ColumnSpec) int {
	if !IsEvenlySampled(sensor.Kind) {
		return len(sensor.TimestampsUs)
	}
	for _, c := range cols {
		if c.Type == ColFloat64 && len(sensor.Channels) > 0 {
			return len(sensor.Channels[0])
		}
	}
	return 0
}

// Stations returns every assembled Station, ordered by station start
// timestamp; Stations with equal start timestamps keep first-seen order.
func (a *Aggregator) Stations() []*Station {
	out := make([]*Station, 0, len(a.order))
	for _, k := range a.order {
		out = append(out, a.stations[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Key.StationStartTimestampUs < out[j].Key.StationStartTimestampUs
	})
	return out
}
