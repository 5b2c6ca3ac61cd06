package fileindex

import (
	tiledb "github.com/TileDB-Inc/TileDB-Go"

	redvox "github.com/redvoxio/redvox-go"
)

// TileDBIndexer adapts Index to the redvox.Indexer interface DataWindow's
// Build expects, binding a fixed TileDB context/config/root for repeated
// use across builds.
type TileDBIndexer struct {
	Ctx     *tiledb.Context
	Config  *tiledb.Config
	RootURI string
}

// Index lists every candidate file path for req (§4.1).
func (idx TileDBIndexer) Index(req redvox.BuildRequest) ([]string, error) {
	// req.StartUs()/EndUs() already fold in the per-edge scan buffer, so the
	// filter itself applies no further buffering.
	filter := Filter{
		StationIDs:  req.StationIDs,
		StartUs:     req.StartUs(),
		EndUs:       req.EndUs(),
		Structured:  req.IsStructuredLayout(),
		Extensions:  req.Extensions,
		ApiVersions: parseApiVersions(req.ApiVersions),
	}
	entries, err := Index(idx.Ctx, idx.Config, idx.RootURI, filter)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths, nil
}

// parseApiVersions maps req.ApiVersions (config-facing strings) to
// redvox.ApiVersion, skipping anything ParseApiVersion can't recognize.
func parseApiVersions(versions []string) []redvox.ApiVersion {
	if len(versions) == 0 {
		return nil
	}
	out := make([]redvox.ApiVersion, 0, len(versions))
	for _, v := range versions {
		if parsed := redvox.ParseApiVersion(v); parsed != redvox.ApiUnknown {
			out = append(out, parsed)
		}
	}
	return out
}
