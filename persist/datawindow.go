package persist

import (
	"context"
	"errors"
	"path/filepath"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	"github.com/alitto/pond"

	redvox "github.com/redvoxio/redvox-go"
)

// WriteDataWindow persists every Station in dw under outdirURI, one TileDB
// group per Station (named by its StationID and StationUUID) containing
// one array per populated SensorKind, plus a top-level manifest. Grounded on
// cmd/main.go's per-file tiledb.NewGroup/grp.AddMember wiring and its
// pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx)) worker pool, here
// fanning out over stations instead of files.
func WriteDataWindow(ctx context.Context, tctx *tiledb.Context, config *tiledb.Config, outdirURI string, dw *redvox.DataWindow, maxWorkers int) (Manifest, error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	var entries []StationManifestEntry
	var firstErr error
	pool := pond.New(maxWorkers, 0, pond.MinWorkers(maxWorkers), pond.Context(ctx))

	type result struct {
		entry StationManifestEntry
		err   error
	}
	results := make(chan result, countStations(dw))

	for _, stations := range dw.Stations {
		for _, st := range stations {
			st := st
			pool.Submit(func() {
				entry, err := writeStation(tctx, config, outdirURI, st)
				results <- result{entry, err}
			})
		}
	}
	pool.StopAndWait()
	close(results)

	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		entries = append(entries, r.entry)
	}

	manifest, err := NewManifest(entries, dw.Request)
	if err != nil {
		return manifest, err
	}
	manifestURI := filepath.Join(outdirURI, "manifest.json")
	if err := WriteManifest(tctx, config, manifestURI, manifest); err != nil {
		return manifest, err
	}
	return manifest, firstErr
}

func countStations(dw *redvox.DataWindow) int {
	n := 0
	for _, s := range dw.Stations {
		n += len(s)
	}
	return n
}

func writeStation(ctx *tiledb.Context, config *tiledb.Config, outdirURI string, st *redvox.Station) (StationManifestEntry, error) {
	groupURI := filepath.Join(outdirURI, st.Key.StationID+"_"+st.Key.StationUUID+".tiledb")

	grp, err := tiledb.NewGroup(ctx, groupURI)
	if err != nil {
		return StationManifestEntry{}, errors.Join(ErrArray, err)
	}
	if err := grp.Create(); err != nil {
		return StationManifestEntry{}, errors.Join(ErrArray, err)
	}
	if err := grp.Open(tiledb.TILEDB_WRITE); err != nil {
		return StationManifestEntry{}, errors.Join(ErrArray, err)
	}
	defer grp.Close()
	defer grp.Free()

	entry := StationManifestEntry{
		StationID:   st.Key.StationID,
		StationUUID: st.Key.StationUUID,
		GroupURI:    groupURI,
		TableRows:   map[redvox.SensorKind]int{},
		TableURIs:   map[redvox.SensorKind]string{},
	}

	for kind, table := range st.Tables {
		if table.NumRows() == 0 {
			continue
		}
		tableURI := filepath.Join(groupURI, kind.String())
		if err := WriteSensorTable(ctx, tableURI, table); err != nil {
			return entry, errors.Join(err, errors.New(kind.String()))
		}
		if err := grp.AddMember(tableURI, kind.String(), true); err != nil {
			return entry, errors.Join(ErrArray, err)
		}
		entry.TableRows[kind] = table.NumRows()
		entry.TableURIs[kind] = tableURI
	}

	return entry, nil
}
