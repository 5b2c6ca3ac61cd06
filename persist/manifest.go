package persist

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	"github.com/google/uuid"

	redvox "github.com/redvoxio/redvox-go"
)

// StationManifestEntry records where one Station's tables were written and
// how many rows each holds, so a reload can recreate SensorTables without
// re-scanning the array directory.
type StationManifestEntry struct {
	StationID   string                          `json:"station_id"`
	StationUUID string                          `json:"station_uuid"`
	GroupURI    string                          `json:"group_uri"`
	TableRows   map[redvox.SensorKind]int        `json:"table_rows"`
	TableURIs   map[redvox.SensorKind]string     `json:"table_uris"`
}

// Manifest is the top-level sidecar describing one persisted DataWindow
// (§9.1 supplemented feature: manifest integrity hash). ID is a fresh
// identifier minted at write time (google/uuid), used to cross-check a
// reload targets the build it expects. Request records the BuildRequest
// that produced the window (§6/§9), so a reload can confirm what was asked
// for without needing the original config file.
type Manifest struct {
	ID       string                 `json:"id"`
	Request  redvox.BuildRequest    `json:"request"`
	Stations []StationManifestEntry `json:"stations"`
	Hash     string                 `json:"sha256"`
}

// contentHash computes a stable SHA-256 over the manifest's request and
// station entries (excluding the Hash field itself), keyed by sorted
// station ID so the hash is reproducible across map-iteration order.
func (m Manifest) contentHash() (string, error) {
	sorted := append([]StationManifestEntry(nil), m.Stations...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StationID != sorted[j].StationID {
			return sorted[i].StationID < sorted[j].StationID
		}
		return sorted[i].StationUUID < sorted[j].StationUUID
	})

	payload, err := json.Marshal(struct {
		ID       string                 `json:"id"`
		Request  redvox.BuildRequest    `json:"request"`
		Stations []StationManifestEntry `json:"stations"`
	}{m.ID, m.Request, sorted})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// NewManifest builds a Manifest for the given station entries and build
// request, and stamps its integrity hash.
func NewManifest(entries []StationManifestEntry, req redvox.BuildRequest) (Manifest, error) {
	m := Manifest{ID: uuid.NewString(), Request: req, Stations: entries}
	hash, err := m.contentHash()
	if err != nil {
		return Manifest{}, err
	}
	m.Hash = hash
	return m, nil
}

// WriteManifest serializes m to fileURI.
func WriteManifest(ctx *tiledb.Context, config *tiledb.Config, fileURI string, m Manifest) error {
	_, err := WriteJson(ctx, config, fileURI, m)
	return err
}

// LoadManifest reads a manifest back and verifies its integrity hash,
// returning ErrManifestIntegrity-wrapped if the recomputed hash disagrees
// (the sidecar was hand-edited or corrupted in transit).
func LoadManifest(ctx *tiledb.Context, config *tiledb.Config, fileURI string) (Manifest, error) {
	var m Manifest
	if err := ReadJson(ctx, config, fileURI, &m); err != nil {
		return m, err
	}
	want := m.Hash
	got, err := m.contentHash()
	if err != nil {
		return m, err
	}
	if got != want {
		return m, errors.Join(redvox.ErrManifestIntegrity, errors.New(fileURI))
	}
	return m, nil
}
