// Package persist serializes a DataWindow's Stations to TileDB arrays plus
// JSON sidecar metadata, and reloads them. Grounded on the teacher's
// tiledb.go/schema.go: the same struct-tag/reflection-driven attribute and
// filter-pipeline construction, generalized here to run once per SensorKind
// via a dynamically built struct type (reflect.StructOf) instead of one
// hand-written struct per record kind.
package persist

import (
	"errors"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

var (
	ErrAddFilters = errors.New("persist: error adding filter to filter list")
	ErrDtype      = errors.New("persist: unexpected column datatype")
	ErrSetBuffer  = errors.New("persist: error setting tiledb data buffer")
	ErrSchema     = errors.New("persist: error building tiledb array schema")
	ErrArray      = errors.New("persist: error creating or opening tiledb array")
)

// zstdFilter builds a Zstandard compression filter at the given level.
func zstdFilter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_ZSTD)
	if err != nil {
		return nil, err
	}
	if err := filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level); err != nil {
		filt.Free()
		return nil, err
	}
	return filt, nil
}

// positiveDeltaFilter builds the ascending-integer delta filter used on row
// dimensions and on variable-length offset buffers.
func positiveDeltaFilter(ctx *tiledb.Context) (*tiledb.Filter, error) {
	return tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_POSITIVE_DELTA)
}

// addFilters sequentially appends filters to a filter list.
func addFilters(list *tiledb.FilterList, filters ...*tiledb.Filter) error {
	for _, f := range filters {
		if err := list.AddFilter(f); err != nil {
			return errors.Join(ErrAddFilters, err)
		}
	}
	return nil
}

// rowDimensionFilters builds the standard dimension filter pipeline: delta
// encoding on the ascending row index, then zstd.
func rowDimensionFilters(ctx *tiledb.Context) (*tiledb.FilterList, error) {
	list, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return nil, err
	}
	delta, err := positiveDeltaFilter(ctx)
	if err != nil {
		return nil, err
	}
	defer delta.Free()
	z, err := zstdFilter(ctx, 16)
	if err != nil {
		return nil, err
	}
	defer z.Free()
	if err := addFilters(list, delta, z); err != nil {
		return nil, err
	}
	return list, nil
}

// varOffsetFilters builds the filter pipeline TileDB applies to the offsets
// buffer of a variable-length attribute (byte-payload columns).
func varOffsetFilters(ctx *tiledb.Context) (*tiledb.FilterList, error) {
	return rowDimensionFilters(ctx)
}
