package redvox

import "math"

// Sentinel values used to mark a cell as "unknown"/"synthetic" across the
// various column datatypes that appear in a SensorTable. Mirrors the
// teacher's nulls.go convention of one named NULL_* constant per datatype
// rather than a single untyped zero value, since zero is frequently a valid
// reading (e.g. 0 degrees, 0 battery current).

// NullTimestampUs marks a timestamp column cell whose true value is unknown,
// used for UnalteredTimestampUs on synthetic gap/boundary rows.
const NullTimestampUs int64 = math.MinInt64

// NullEnum marks a categorical (small-integer-coded) column cell as unknown.
const NullEnum uint8 = math.MaxUint8

// NullFloat64 returns the NaN-sentinel used for float64 data columns.
func NullFloat64() float64 { return math.NaN() }

// NullFloat32 returns the NaN-sentinel used for float32 data columns.
func NullFloat32() float32 { return float32(math.NaN()) }

// IsNullTimestamp reports whether a timestamp cell carries the sentinel.
func IsNullTimestamp(ts int64) bool { return ts == NullTimestampUs }

// IsNullFloat64 reports whether a float64 cell carries the NaN sentinel.
func IsNullFloat64(v float64) bool { return math.IsNaN(v) }
