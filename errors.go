package redvox

import "errors"

// Sentinel error catalogue, in the teacher's errors.go style: one
// errors.New per failure kind, combined with call-site context via
// errors.Join/fmt.Errorf so callers can errors.Is/errors.As against these.
var (
	// ErrConfig marks a bad BuildRequest; the build never starts.
	ErrConfig = errors.New("redvox: invalid build request")

	// ErrIO marks a file/directory access failure; the offending file is
	// skipped and the build continues.
	ErrIO = errors.New("redvox: I/O failure")

	// ErrDecode marks a packet that failed to decode; the file is skipped.
	ErrDecode = errors.New("redvox: packet decode failure")
	// ErrUnsupportedVersion marks a packet whose api_version this module
	// does not recognize.
	ErrUnsupportedVersion = errors.New("redvox: unsupported packet api version")
	// ErrCorrupt marks a packet buffer that fails integrity/shape checks.
	ErrCorrupt = errors.New("redvox: corrupt packet")

	// ErrInvariant marks a violation of a Station/SensorTable invariant
	// (duplicate sensor kind in one packet, non-monotonic timestamps,
	// Station-key mismatch during append). The offending Station is marked
	// errored and skipped; the rest of the build continues.
	ErrInvariant = errors.New("redvox: invariant violation")

	// ErrCancelled marks a build that was cancelled or timed out; a
	// partial result is still returned.
	ErrCancelled = errors.New("redvox: build cancelled")

	// ErrNoData marks a build that produced zero Stations.
	ErrNoData = errors.New("redvox: no data found")

	// ErrManifestIntegrity marks a persisted manifest whose recomputed
	// hash does not match the stored hash.
	ErrManifestIntegrity = errors.New("redvox: manifest integrity check failed")
)
