// Package fileindex implements the File Index / Filter component (C1):
// locating candidate packet files under a root URI and narrowing them to a
// station/time/version filtered set before decoding. Grounded on the
// teacher's search/search.go trawl, generalized from a single glob pattern
// over a flat tree to RedVox's structured api900/YYYY/MM/DD and
// api1000/YYYY/MM/DD/HH date-partitioned layout, versus a flat layout where
// every file is a direct, non-recursive child of the root.
package fileindex

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	"github.com/samber/lo"
	"github.com/soniakeys/meeus/v3/julian"

	redvox "github.com/redvoxio/redvox-go"
)

// Entry is one indexed candidate file.
type Entry struct {
	Path        string
	StationID   string
	TimestampUs int64
	ApiVersion  redvox.ApiVersion
	Extension   string
}

// trawl recursively lists every file under uri matching pattern, using
// TileDB's VFS so the same code walks local paths or object-store URIs.
// Directly adapted from the teacher's search/search.go trawl.
func trawl(vfs *tiledb.VFS, pattern, uri string, items []string) ([]string, error) {
	dirs, files, err := vfs.List(uri)
	if err != nil {
		return items, err
	}
	for _, file := range files {
		match, err := filepath.Match(pattern, filepath.Base(file))
		if err != nil {
			return items, err
		}
		if match {
			items = append(items, file)
		}
	}
	for _, dir := range dirs {
		items, err = trawl(vfs, pattern, dir, items)
		if err != nil {
			return items, err
		}
	}
	return items, nil
}

// parseFilename extracts station ID, timestamp, and extension from a
// "<station_id>_<timestamp>.<ext>" filename (§4.1's published file naming
// convention): api900 (.rdvxz) names carry milliseconds, api1000 (.rdvxm)
// names carry microseconds; the returned timestamp is always microseconds.
// Returns ok=false for anything not matching that shape.
func parseFilename(path string) (stationID string, timestampUs int64, ext string, ok bool) {
	base := filepath.Base(path)
	ext = strings.TrimPrefix(filepath.Ext(base), ".")
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	idx := strings.LastIndex(stem, "_")
	if idx < 0 {
		return "", 0, "", false
	}
	stationID = stem[:idx]
	tsStr := stem[idx+1:]
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return "", 0, "", false
	}
	if ext == "rdvxz" {
		ts *= 1000
	}
	return stationID, ts, ext, true
}

func apiVersionForExt(ext string) redvox.ApiVersion {
	switch ext {
	case "rdvxz":
		return redvox.ApiV900
	case "rdvxm":
		return redvox.ApiV1000
	default:
		return redvox.ApiUnknown
	}
}

// structuredDatePath builds the api900/YYYY/MM/DD (or api1000/.../HH)
// sub-path for a UTC instant, using meeus/julian for day-of-year<->calendar
// arithmetic the way the teacher's decode/params.go does for GSF reference
// times.
func structuredDatePath(v redvox.ApiVersion, t time.Time) string {
	year, month, day := t.Date()
	leap := julian.LeapYearGregorian(year)
	doy := dayOfYear(year, int(month), day, leap)
	// round-trip through DayOfYearToCalendar to land on the same
	// month/day representation the structured layout expects on disk.
	m, d := julian.DayOfYearToCalendar(doy, leap)

	switch v {
	case redvox.ApiV1000:
		return filepath.Join("api1000", fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", m), fmt.Sprintf("%02d", d), fmt.Sprintf("%02d", t.Hour()))
	default:
		return filepath.Join("api900", fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", m), fmt.Sprintf("%02d", d))
	}
}

// dayOfYear computes the 1-based day-of-year for a calendar date, the
// inverse of julian.DayOfYearToCalendar.
func dayOfYear(year, month, day int, leap bool) int {
	cum := []int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}
	doy := cum[month-1] + day
	if leap && month > 2 {
		doy++
	}
	return doy
}

// candidateRoots narrows the walk to the structured api900/api1000
// date-partitioned subtrees spanning filter's window, for both API
// versions (§4.1: "other subtrees must not be opened"). Only meaningful for
// a structured-layout root; Index calls this exclusively on that path.
func candidateRoots(rootURI string, filter Filter) []string {
	if filter.StartUs == 0 && filter.EndUs == 0 {
		return []string{rootURI}
	}

	startUs, endUs := filter.StartUs-filter.BufferUs, filter.EndUs+filter.BufferUs
	start := time.UnixMicro(startUs).UTC()
	end := time.UnixMicro(endUs).UTC()

	var roots []string
	seen := map[string]bool{}
	for _, v := range []redvox.ApiVersion{redvox.ApiV900, redvox.ApiV1000} {
		// walk by day; the api1000 layout adds an hour subdirectory beneath
		// each day, which trawl's own recursion still picks up.
		for d := start.Truncate(24 * time.Hour); !d.After(end); d = d.AddDate(0, 0, 1) {
			sub := filepath.Join(rootURI, structuredDatePath(v, d))
			if v == redvox.ApiV1000 {
				sub = filepath.Dir(sub) // drop the hour component, trawl recurses into it
			}
			if !seen[sub] {
				seen[sub] = true
				roots = append(roots, sub)
			}
		}
	}
	return roots
}

// flatList lists rootURI's direct children only (no recursion), for the
// unstructured layout contract that "all matching files must be direct
// children of root_dir" (§4.1).
func flatList(vfs *tiledb.VFS, pattern, uri string) ([]string, error) {
	_, files, err := vfs.List(uri)
	if err != nil {
		return nil, err
	}
	var items []string
	for _, file := range files {
		match, err := filepath.Match(pattern, filepath.Base(file))
		if err != nil {
			return items, err
		}
		if match {
			items = append(items, file)
		}
	}
	return items, nil
}

// extensionPatterns turns filter.Extensions (e.g. ".rdvxz") into glob
// patterns for trawl/flatList, defaulting to both published extensions when
// the filter doesn't narrow them.
func extensionPatterns(extensions []string) []string {
	if len(extensions) == 0 {
		return []string{"*.rdvxz", "*.rdvxm"}
	}
	patterns := make([]string, len(extensions))
	for i, ext := range extensions {
		patterns[i] = "*" + ext
	}
	return patterns
}

// Filter narrows an Index call's results (§4.1, §6).
type Filter struct {
	StationIDs  []string
	StartUs     int64
	EndUs       int64
	BufferUs    int64
	Structured  bool
	Extensions  []string
	ApiVersions []redvox.ApiVersion
}

func (f Filter) matches(e Entry) bool {
	if len(f.StationIDs) > 0 && !lo.Contains(f.StationIDs, e.StationID) {
		return false
	}
	if len(f.Extensions) > 0 && !lo.Contains(f.Extensions, e.Extension) {
		return false
	}
	if len(f.ApiVersions) > 0 && !lo.Contains(f.ApiVersions, e.ApiVersion) {
		return false
	}
	lowUs, highUs := f.StartUs-f.BufferUs, f.EndUs+f.BufferUs
	return e.TimestampUs >= lowUs && e.TimestampUs <= highUs
}

// Index walks rootURI (using the TileDB VFS so object-store roots work
// transparently) for every matching file, parses each filename, and returns
// those passing filter, deduplicated by (station, timestamp) tie-break
// keeping the first lexicographic path -- mirrors qa.go's
// lo.FindDuplicates/lo.Union dedup idiom. filter.Structured selects between
// the date-partitioned recursive walk (candidateRoots+trawl) and a flat,
// non-recursive listing of rootURI's direct children (§4.1).
func Index(ctx *tiledb.Context, config *tiledb.Config, rootURI string, filter Filter) ([]Entry, error) {
	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return nil, err
	}
	defer vfs.Free()

	patterns := extensionPatterns(filter.Extensions)

	var paths []string
	if filter.Structured {
		for _, root := range candidateRoots(rootURI, filter) {
			for _, pattern := range patterns {
				found, err := trawl(vfs, pattern, root, nil)
				if err != nil {
					continue // a missing date-partitioned subtree is not an error
				}
				paths = append(paths, found...)
			}
		}
	} else {
		for _, pattern := range patterns {
			found, err := flatList(vfs, pattern, rootURI)
			if err != nil {
				continue
			}
			paths = append(paths, found...)
		}
	}

	entries := make([]Entry, 0, len(paths))
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		stationID, ts, ext, ok := parseFilename(p)
		if !ok {
			continue
		}
		e := Entry{Path: p, StationID: stationID, TimestampUs: ts, ApiVersion: apiVersionForExt(ext), Extension: "." + ext}
		if !filter.matches(e) {
			continue
		}
		entries = append(entries, e)
		keys = append(keys, fmt.Sprintf("%s_%d", stationID, ts))
	}

	dupKeys := lo.FindDuplicates(keys)
	if len(dupKeys) == 0 {
		sortEntries(entries)
		return entries, nil
	}

	dup := map[string]bool{}
	for _, k := range dupKeys {
		dup[k] = true
	}
	best := map[string]Entry{}
	var nonDup []Entry
	for i, e := range entries {
		k := keys[i]
		if !dup[k] {
			nonDup = append(nonDup, e)
			continue
		}
		cur, ok := best[k]
		if !ok || e.Path < cur.Path {
			best[k] = e
		}
	}
	deduped := append(nonDup, lo.Values(best)...)
	sortEntries(deduped)
	return deduped, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StationID != entries[j].StationID {
			return entries[i].StationID < entries[j].StationID
		}
		return entries[i].TimestampUs < entries[j].TimestampUs
	})
}
