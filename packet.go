package redvox

// ApiVersion identifies which of the two published packet schema versions
// produced a Packet. The wire-level mapping for each version is entirely the
// concern of the loader package (C2); this core only ever sees the decoded,
// version-agnostic Packet surface.
type ApiVersion uint8

const (
	ApiUnknown ApiVersion = iota
	ApiV900
	ApiV1000
)

func (v ApiVersion) String() string {
	switch v {
	case ApiV900:
		return "V900"
	case ApiV1000:
		return "V1000"
	default:
		return "unknown"
	}
}

// ParseApiVersion maps a config/filename-facing version string to an
// ApiVersion, for BuildRequest.ApiVersions (§6).
func ParseApiVersion(s string) ApiVersion {
	switch s {
	case "900", "v900", "V900":
		return ApiV900
	case "1000", "v1000", "V1000":
		return ApiV1000
	default:
		return ApiUnknown
	}
}

// SensorKind is the closed, tagged-variant set of sensor streams a Packet may
// carry. Re-architected from the source's polymorphic Sensor subclass
// hierarchy (§9) into a single enum plus per-kind schema struct (sensorkinds.go).
type SensorKind uint8

const (
	SensorUnknown SensorKind = iota
	SensorAudio
	SensorCompressedAudio
	SensorImage
	SensorPressure
	SensorLight
	SensorProximity
	SensorAmbientTemperature
	SensorRelativeHumidity
	SensorAccelerometer
	SensorMagnetometer
	SensorLinearAcceleration
	SensorOrientation
	SensorRotationVector
	SensorGyroscope
	SensorGravity
	SensorVelocity
	SensorLocation
	SensorBestLocation
	SensorStationHealth

	sensorKindCount // sentinel, not a real kind
)

var sensorKindNames = [sensorKindCount]string{
	SensorUnknown:            "unknown",
	SensorAudio:              "audio",
	SensorCompressedAudio:    "compressed_audio",
	SensorImage:              "image",
	SensorPressure:           "pressure",
	SensorLight:              "light",
	SensorProximity:          "proximity",
	SensorAmbientTemperature: "ambient_temperature",
	SensorRelativeHumidity:   "relative_humidity",
	SensorAccelerometer:      "accelerometer",
	SensorMagnetometer:       "magnetometer",
	SensorLinearAcceleration: "linear_acceleration",
	SensorOrientation:        "orientation",
	SensorRotationVector:     "rotation_vector",
	SensorGyroscope:          "gyroscope",
	SensorGravity:            "gravity",
	SensorVelocity:           "velocity",
	SensorLocation:           "location",
	SensorBestLocation:       "best_location",
	SensorStationHealth:      "station_health",
}

func (k SensorKind) String() string {
	if k < sensorKindCount {
		return sensorKindNames[k]
	}
	return "unknown"
}

// AllSensorKinds lists every concrete (non-sentinel) sensor kind, in a fixed
// order used wherever deterministic iteration is required (e.g. persistence).
func AllSensorKinds() []SensorKind {
	kinds := make([]SensorKind, 0, sensorKindCount-1)
	for k := SensorKind(1); k < sensorKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// StationMetadata is the immutable-per-Station block of a Packet. Bitwise
// equality of two StationMetadata values is the "station_metadata_digest"
// component of a StationKey (§3) -- see StationMetadata.Digest in stationkey.go.
type StationMetadata struct {
	Make                     string
	Model                    string
	Os                       string
	OsVersion                string
	AppVersion               string
	PacketNominalDurationS   float64
	AudioNominalSampleRateHz float64
	AudioScrambled           bool
	Private                  bool
}

// TimingMethod categorizes how a packet's timing score was derived.
type TimingMethod uint8

const (
	TimingMethodUnknown TimingMethod = iota
	TimingMethodNtp
	TimingMethodGps
	TimingMethodManual
)

// PacketMetadata is the per-packet block of timestamps/scores (§3).
type PacketMetadata struct {
	MachTimeStartUs  int64
	MachTimeEndUs    int64
	OsTimeStartUs    int64
	OsTimeEndUs      int64
	ServerArrivalUs  int64
	TimingScore      float64
	TimingMethod     TimingMethod
	NominalTimestamp int64 // filename/index timestamp, used for reorder barrier (§5)
}

// SyncExchange is one device/server tri-message timing exchange (§4.3), all
// fields in microseconds.
type SyncExchange struct {
	A1, A2, A3 int64
	B1, B2, B3 int64
}

// Latency computes the one-way-trip latency estimate for this exchange.
func (e SyncExchange) Latency() float64 {
	return float64((e.A2-e.A1)+(e.B3-e.B2)) / 2
}

// Offset computes the signed device-to-UTC offset estimate for this
// exchange, such that utc = device + offset.
func (e SyncExchange) Offset() float64 {
	return float64((e.B1-e.A1)-(e.A3-e.B2)) / 2
}

// SensorPayload carries one sensor kind's raw, packet-local sample data as
// decoded by the loader (C2), ahead of being folded into a Station's
// SensorTable by the Sensor Table Builder (C4). TimestampsUs is absent
// (nil) for evenly-sampled audio, which instead supplies
// FirstSampleTimestampUs and relies on StationMetadata's nominal rate.
type SensorPayload struct {
	Kind                   SensorKind
	Description            string
	Present                bool
	TimestampsUs           []int64
	FirstSampleTimestampUs int64
	// Channels holds one slice per float64 data column, in the kind's
	// canonical column order (sensorkinds.go ColumnsForKind).
	Channels [][]float64
	// Bytes holds one []byte payload per sample, for image/compressed_audio.
	Bytes [][]byte
	// Enums holds one slice per small-integer-coded categorical column
	// (e.g. location provider, network type), in canonical column order.
	Enums [][]uint8
}

// Packet is the abstract, version-agnostic decoded sensor-data record (§3).
// Its wire representation is an external, published schema the core never
// inspects directly -- see the loader package.
type Packet struct {
	StationID               string
	StationUUID             string
	StationStartTimestampUs int64
	ApiVersion              ApiVersion

	Metadata       StationMetadata
	PacketMetadata PacketMetadata

	Sensors []SensorPayload

	SyncExchanges []SyncExchange
}

// Sensor looks up a packet's payload for a given kind, if present.
func (p *Packet) Sensor(kind SensorKind) (SensorPayload, bool) {
	for _, s := range p.Sensors {
		if s.Kind == kind && s.Present {
			return s, true
		}
	}
	return SensorPayload{}, false
}
