package redvox

// ColumnType identifies a SensorTable column's storage datatype, used both
// for NaN-sentinel selection (C6, C8) and for generating a persistence
// schema (persist package) via reflect.StructOf + stagparser tags, the same
// struct-tag-driven approach the teacher uses for its TileDB attributes
// (schema.go's schemaAttrs/CreateAttr), just generated per SensorKind
// instead of hand-written per record type.
type ColumnType uint8

const (
	ColFloat64 ColumnType = iota
	ColBytes
	ColEnum
)

// ColumnSpec describes one domain (non-timestamp) column of a SensorTable.
type ColumnSpec struct {
	Name string
	Type ColumnType
}

// canonicalColumns is the closed mapping of SensorKind -> its fixed column
// schema (§3's "domain columns fixed by kind"). Every SensorTable of a given
// kind has exactly these columns, in this order, for its lifetime (§4.5).
var canonicalColumns = map[SensorKind][]ColumnSpec{
	SensorAudio:              {{"microphone", ColFloat64}},
	SensorCompressedAudio:    {{"payload", ColBytes}},
	SensorImage:              {{"payload", ColBytes}},
	SensorPressure:           {{"pressure", ColFloat64}},
	SensorLight:              {{"light", ColFloat64}},
	SensorProximity:          {{"proximity", ColFloat64}},
	SensorAmbientTemperature: {{"temperature", ColFloat64}},
	SensorRelativeHumidity:   {{"humidity", ColFloat64}},
	SensorAccelerometer:      {{"x", ColFloat64}, {"y", ColFloat64}, {"z", ColFloat64}},
	SensorMagnetometer:       {{"x", ColFloat64}, {"y", ColFloat64}, {"z", ColFloat64}},
	SensorLinearAcceleration: {{"x", ColFloat64}, {"y", ColFloat64}, {"z", ColFloat64}},
	SensorOrientation:        {{"x", ColFloat64}, {"y", ColFloat64}, {"z", ColFloat64}},
	SensorRotationVector:     {{"x", ColFloat64}, {"y", ColFloat64}, {"z", ColFloat64}},
	SensorGyroscope:          {{"x", ColFloat64}, {"y", ColFloat64}, {"z", ColFloat64}},
	SensorGravity:            {{"x", ColFloat64}, {"y", ColFloat64}, {"z", ColFloat64}},
	SensorVelocity:           {{"x", ColFloat64}, {"y", ColFloat64}, {"z", ColFloat64}},
	SensorLocation: {
		{"latitude", ColFloat64}, {"longitude", ColFloat64}, {"altitude", ColFloat64},
		{"speed", ColFloat64}, {"bearing", ColFloat64},
		{"horizontal_accuracy", ColFloat64}, {"vertical_accuracy", ColFloat64},
		{"speed_accuracy", ColFloat64}, {"bearing_accuracy", ColFloat64},
		{"gps_timestamp_us", ColFloat64}, {"provider", ColEnum},
	},
	SensorBestLocation: {
		{"latitude", ColFloat64}, {"longitude", ColFloat64}, {"altitude", ColFloat64},
		{"speed", ColFloat64}, {"bearing", ColFloat64},
		{"horizontal_accuracy", ColFloat64}, {"vertical_accuracy", ColFloat64},
		{"speed_accuracy", ColFloat64}, {"bearing_accuracy", ColFloat64},
		{"gps_timestamp_us", ColFloat64}, {"provider", ColEnum},
	},
	SensorStationHealth: {
		{"battery_percent", ColFloat64}, {"battery_current_ua", ColFloat64},
		{"internal_temp_c", ColFloat64}, {"network_strength_db", ColFloat64},
		{"available_ram_byte", ColFloat64}, {"available_disk_byte", ColFloat64},
		{"cpu_utilization", ColFloat64},
		{"network_type", ColEnum}, {"power_state", ColEnum}, {"cell_service_state", ColEnum},
	},
}

// ColumnsForKind returns the canonical, ordered column schema for a kind.
// A nil/empty return means kind is not a recognized table-bearing sensor.
func ColumnsForKind(kind SensorKind) []ColumnSpec {
	return canonicalColumns[kind]
}

// IsEvenlySampled reports whether a kind's timestamps are synthesized from a
// nominal rate rather than carried explicitly in the packet (§4.4) -- true
// only for audio.
func IsEvenlySampled(kind SensorKind) bool {
	return kind == SensorAudio
}

// IsPrimaryTimelineCandidate reports whether a kind always anchors a
// Station's primary timeline when present (§4.6, §4.8); it is true only for
// audio. When a Station has no audio, Station.PrimaryKind falls back to the
// remaining (non-window-exempt) kind with the most samples instead.
func IsPrimaryTimelineCandidate(kind SensorKind) bool {
	return kind == SensorAudio
}

// IsWindowExempt reports whether a kind is exempt from window-clipping
// (§4.8: "Location samples ... retained only as part of the Station's
// overall best location record").
func IsWindowExempt(kind SensorKind) bool {
	return kind == SensorBestLocation
}
