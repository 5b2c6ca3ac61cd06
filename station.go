package redvox

import "math"

// Gap describes one detected discontinuity on a Station's primary timeline
// (§4.6): the real samples immediately straddling [StartUs, EndUs] are kept,
// and every SensorTable other than the primary timeline's gets a pair of
// synthetic boundary rows at the gap edges.
type Gap struct {
	StartUs  int64
	EndUs    int64
	DurationUs int64
}

// Station is one physical device's assembled, time-coherent record across
// every packet that shares its StationKey (§3). It is built by the Station
// Aggregator (C5), mutated in place by the Gap Filler (C6), Timing Updater
// (C7), and Window Trimmer (C8), and is the DataWindow's (C9) unit of
// output.
type Station struct {
	Key      StationKey
	Metadata StationMetadata

	Tables map[SensorKind]*SensorTable

	// PacketMetadata holds one entry per contributing packet, in packet
	// arrival order (§5's reorder-barrier guarantees this is also
	// nominal-timestamp order).
	PacketMetadata []PacketMetadata

	SyncExchanges []SyncExchange

	Gaps []Gap

	Offset OffsetModel

	FirstDataTimestampUs int64
	LastDataTimestampUs  int64

	IsTimestampsUpdated bool

	// Errors accumulates non-fatal problems encountered while building this
	// Station (§7); a non-empty Errors does not by itself exclude the
	// Station from a DataWindow's result.
	Errors []error
}

// NewStation allocates an empty Station for the given key/metadata.
func NewStation(key StationKey, metadata StationMetadata) *Station {
	return &Station{
		Key:      key,
		Metadata: metadata,
		Tables:   map[SensorKind]*SensorTable{},
	}
}

// TableFor returns the Station's table for kind, creating it if absent.
func (s *Station) TableFor(kind SensorKind) *SensorTable {
	t, ok := s.Tables[kind]
	if !ok {
		t = NewSensorTable(kind)
		s.Tables[kind] = t
	}
	return t
}

// PrimaryKind picks the sensor kind anchoring gap detection and window
// trimming (§4.6, §4.8): audio when present, else whichever remaining kind
// has the most samples.
func (s *Station) PrimaryKind() (SensorKind, bool) {
	if t, ok := s.Tables[SensorAudio]; ok && t.NumRows() > 0 {
		return SensorAudio, true
	}
	best := SensorUnknown
	bestRows := 0
	for kind, t := range s.Tables {
		if IsWindowExempt(kind) {
			continue
		}
		if t.NumRows() > bestRows {
			best = kind
			bestRows = t.NumRows()
		}
	}
	return best, bestRows > 0
}

// HealthSummary is a NaN-aware roll-up of a Station's station_health table
// (§9.1 supplemented feature), mirroring the teacher's qa.go QInfo() pattern
// of reducing per-sample records into a single quality-at-a-glance struct.
type HealthSummary struct {
	NumSamples         int
	MinBatteryPercent  float64
	MaxBatteryPercent  float64
	MeanBatteryPercent float64
	NetworkTypeCounts  map[uint8]int
}

// HealthSummary reduces the station_health table's battery_percent column to
// min/max/mean (ignoring NaN-sentinel cells) and tallies network_type into a
// histogram. Returns the zero HealthSummary if the station carries no
// station_health samples.
func (s *Station) HealthSummary() HealthSummary {
	var summary HealthSummary
	summary.NetworkTypeCounts = map[uint8]int{}

	t, ok := s.Tables[SensorStationHealth]
	if !ok || t.NumRows() == 0 {
		return summary
	}

	battery := t.Float64Cols["battery_percent"]
	summary.MinBatteryPercent = math.Inf(1)
	summary.MaxBatteryPercent = math.Inf(-1)
	var sum float64
	for _, v := range battery {
		if IsNullFloat64(v) {
			continue
		}
		if v < summary.MinBatteryPercent {
			summary.MinBatteryPercent = v
		}
		if v > summary.MaxBatteryPercent {
			summary.MaxBatteryPercent = v
		}
		sum += v
		summary.NumSamples++
	}
	if summary.NumSamples > 0 {
		summary.MeanBatteryPercent = sum / float64(summary.NumSamples)
	} else {
		summary.MinBatteryPercent = 0
		summary.MaxBatteryPercent = 0
	}

	for _, v := range t.EnumCols["network_type"] {
		if v == NullEnum {
			continue
		}
		summary.NetworkTypeCounts[v]++
	}

	return summary
}

// AddError records a non-fatal problem against this Station.
func (s *Station) AddError(err error) {
	if err != nil {
		s.Errors = append(s.Errors, err)
	}
}
