package persist

import (
	"errors"
	"fmt"

	tiledb "github.com/TileDB-Inc/TileDB-Go"

	redvox "github.com/redvoxio/redvox-go"
)

// arrayOpen opens an existing array in the given mode. Mirrors the
// teacher's tiledb.go ArrayOpen helper.
func arrayOpen(ctx *tiledb.Context, uri string, mode tiledb.QueryType) (*tiledb.Array, error) {
	array, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return nil, errors.Join(ErrArray, err)
	}
	if err := array.Open(mode); err != nil {
		array.Free()
		return nil, errors.Join(ErrArray, err)
	}
	return array, nil
}

// WriteSensorTable creates a new dense TileDB array at uri
// holding one SensorTable's rows and writes its data in a single query.
// Grounded on the teacher's attitude.go ToTileDB / cmd/main.go array-create-
// then-write sequence, generalized across column sets via
// reflect.StructOf-backed schemaAttrs instead of one ToTileDB per kind.
func WriteSensorTable(ctx *tiledb.Context, uri string, t *redvox.SensorTable) error {
	nrows := uint64(t.NumRows())

	schema, err := buildSchema(ctx, t.Kind, nrows)
	if err != nil {
		return err
	}
	defer schema.Free()

	array, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return errors.Join(ErrArray, err)
	}
	defer array.Free()

	if err := array.Create(schema); err != nil {
		return errors.Join(ErrArray, err)
	}

	if nrows == 0 {
		return nil
	}

	w, err := arrayOpen(ctx, uri, tiledb.TILEDB_WRITE)
	if err != nil {
		return err
	}
	defer w.Free()
	defer w.Close()

	query, err := tiledb.NewQuery(ctx, w)
	if err != nil {
		return errors.Join(ErrArray, err)
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return errors.Join(ErrArray, err)
	}

	if _, err := query.SetDataBuffer("timestamp_us", t.TimestampUs); err != nil {
		return errors.Join(ErrSetBuffer, err)
	}
	if _, err := query.SetDataBuffer("unaltered_timestamp_us", t.UnalteredTimestampUs); err != nil {
		return errors.Join(ErrSetBuffer, err)
	}

	for _, c := range redvox.ColumnsForKind(t.Kind) {
		name := c.Name
		switch c.Type {
		case redvox.ColFloat64:
			col := t.Float64Cols[name]
			if _, err := query.SetDataBuffer(name, col); err != nil {
				return errors.Join(ErrSetBuffer, fmt.Errorf("%s: %w", name, err))
			}
		case redvox.ColEnum:
			col := t.EnumCols[name]
			if _, err := query.SetDataBuffer(name, col); err != nil {
				return errors.Join(ErrSetBuffer, fmt.Errorf("%s: %w", name, err))
			}
		case redvox.ColBytes:
			col := t.ByteCols[name]
			flat, offsets := flattenBytes(col)
			if _, err := query.SetOffsetsBuffer(name, offsets); err != nil {
				return errors.Join(ErrSetBuffer, fmt.Errorf("%s offsets: %w", name, err))
			}
			if _, err := query.SetDataBuffer(name, flat); err != nil {
				return errors.Join(ErrSetBuffer, fmt.Errorf("%s: %w", name, err))
			}
		}
	}

	if err := query.Submit(); err != nil {
		return errors.Join(ErrArray, err)
	}
	return query.Finalize()
}

// flattenBytes concatenates a [][]byte column into one flat buffer plus the
// TileDB variable-length offsets buffer. Grounded on the teacher's
// tiledb.go sliceOffsets/lo.Flatten pattern for 2D variable-length fields.
func flattenBytes(rows [][]byte) ([]byte, []uint64) {
	offsets := make([]uint64, len(rows))
	var offset uint64
	var total int
	for _, r := range rows {
		total += len(r)
	}
	flat := make([]byte, 0, total)
	for i, r := range rows {
		offsets[i] = offset
		flat = append(flat, r...)
		offset += uint64(len(r))
	}
	return flat, offsets
}

// ReadSensorTable reads a full SensorTable back from a TileDB array
// previously written by WriteSensorTable.
func ReadSensorTable(ctx *tiledb.Context, uri string, kind redvox.SensorKind, nrows int) (*redvox.SensorTable, error) {
	t := redvox.NewSensorTable(kind)
	if nrows == 0 {
		return t, nil
	}

	r, err := arrayOpen(ctx, uri, tiledb.TILEDB_READ)
	if err != nil {
		return nil, err
	}
	defer r.Free()
	defer r.Close()

	query, err := tiledb.NewQuery(ctx, r)
	if err != nil {
		return nil, errors.Join(ErrArray, err)
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, errors.Join(ErrArray, err)
	}

	subarray, err := r.NewSubarray()
	if err != nil {
		return nil, errors.Join(ErrArray, err)
	}
	defer subarray.Free()
	if err := subarray.SetSubArray([]uint64{0, uint64(nrows - 1)}); err != nil {
		return nil, errors.Join(ErrArray, err)
	}
	if err := query.SetSubarray(subarray); err != nil {
		return nil, errors.Join(ErrArray, err)
	}

	t.TimestampUs = make([]int64, nrows)
	t.UnalteredTimestampUs = make([]int64, nrows)
	if _, err := query.SetDataBuffer("timestamp_us", t.TimestampUs); err != nil {
		return nil, errors.Join(ErrSetBuffer, err)
	}
	if _, err := query.SetDataBuffer("unaltered_timestamp_us", t.UnalteredTimestampUs); err != nil {
		return nil, errors.Join(ErrSetBuffer, err)
	}

	byteOffsets := map[string][]uint64{}
	flatBytes := map[string][]byte{}

	for _, c := range redvox.ColumnsForKind(kind) {
		name := c.Name
		switch c.Type {
		case redvox.ColFloat64:
			col := make([]float64, nrows)
			t.Float64Cols[name] = col
			if _, err := query.SetDataBuffer(name, col); err != nil {
				return nil, errors.Join(ErrSetBuffer, err)
			}
		case redvox.ColEnum:
			col := make([]uint8, nrows)
			t.EnumCols[name] = col
			if _, err := query.SetDataBuffer(name, col); err != nil {
				return nil, errors.Join(ErrSetBuffer, err)
			}
		case redvox.ColBytes:
			offsets := make([]uint64, nrows)
			flat := make([]byte, 0)
			byteOffsets[name] = offsets
			flatBytes[name] = flat
			if _, err := query.SetOffsetsBuffer(name, offsets); err != nil {
				return nil, errors.Join(ErrSetBuffer, err)
			}
			if _, err := query.SetDataBuffer(name, flat); err != nil {
				return nil, errors.Join(ErrSetBuffer, err)
			}
		}
	}

	if err := query.Submit(); err != nil {
		return nil, errors.Join(ErrArray, err)
	}

	for _, c := range redvox.ColumnsForKind(kind) {
		if c.Type != redvox.ColBytes {
			continue
		}
		offsets := byteOffsets[c.Name]
		flat := flatBytes[c.Name]
		rows := make([][]byte, nrows)
		for i := 0; i < nrows; i++ {
			start := offsets[i]
			end := uint64(len(flat))
			if i+1 < nrows {
				end = offsets[i+1]
			}
			rows[i] = append([]byte(nil), flat[start:end]...)
		}
		t.ByteCols[c.Name] = rows
	}

	return t, query.Finalize()
}
