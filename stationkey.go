package redvox

// StationKey identifies one physical station across packets (§3): the
// station's published ID, its UUID (disambiguates reused IDs), and its
// start timestamp (disambiguates a station restarted mid-collection). Two
// packets contribute to the same Station iff their StationKeys are equal
// and their StationMetadata digests match (see MetadataDigest below) --
// mirrors the teacher's practice of using a small value struct as a map key
// rather than a synthesized string (file.go groups records by a similarly
// small composite key).
type StationKey struct {
	StationID               string
	StationUUID             string
	StationStartTimestampUs int64
}

// KeyOf builds the StationKey for a packet.
func KeyOf(p *Packet) StationKey {
	return StationKey{
		StationID:               p.StationID,
		StationUUID:             p.StationUUID,
		StationStartTimestampUs: p.StationStartTimestampUs,
	}
}

// MetadataDigest is a comparable value summarizing a StationMetadata for
// equality purposes. Two packets that share a StationKey but disagree on
// MetadataDigest indicate the station's reported hardware/software identity
// changed mid-run -- the Aggregator (C5) flags this as an invariant
// violation rather than silently merging (§4.5 edge case).
type MetadataDigest struct {
	Make, Model, Os, OsVersion, AppVersion string
	PacketNominalDurationS                 float64
	AudioNominalSampleRateHz                float64
	AudioScrambled, Private                bool
}

// Digest reduces a StationMetadata to its comparable MetadataDigest.
func (m StationMetadata) Digest() MetadataDigest {
	return MetadataDigest{
		Make:                     m.Make,
		Model:                    m.Model,
		Os:                       m.Os,
		OsVersion:                m.OsVersion,
		AppVersion:               m.AppVersion,
		PacketNominalDurationS:   m.PacketNominalDurationS,
		AudioNominalSampleRateHz: m.AudioNominalSampleRateHz,
		AudioScrambled:           m.AudioScrambled,
		Private:                  m.Private,
	}
}
