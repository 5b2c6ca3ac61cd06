package persist

import (
	"errors"
	"reflect"
	"strings"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	stgpsr "github.com/yuin/stagparser"

	redvox "github.com/redvoxio/redvox-go"
)

// pascalCase converts an underscore-separated column name into PascalCase
// for use as a dynamically-built struct field name, e.g. "gps_timestamp_us"
// -> "GpsTimestampUs". Mirrors the teacher's schema.go pascalCase.
func pascalCase(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}

// rowStructType dynamically builds a struct type whose fields mirror a
// SensorKind's canonical columns, each carrying `tiledb`/`filters` tags in
// the same vocabulary the teacher's CreateAttr parses. Built afresh on each
// call, this lets a single schemaAttrs implementation serve all 19 sensor
// kinds instead of one hand-written struct per kind.
func rowStructType(kind redvox.SensorKind) reflect.Type {
	cols := redvox.ColumnsForKind(kind)
	fields := make([]reflect.StructField, 0, len(cols)+1)

	fields = append(fields, reflect.StructField{
		Name: "RowId",
		Type: reflect.TypeOf(uint64(0)),
		Tag:  reflect.StructTag(`tiledb:"dtype=uint64,ftype=dim"`),
	})
	fields = append(fields, reflect.StructField{
		Name: "TimestampUs",
		Type: reflect.TypeOf(int64(0)),
		Tag:  reflect.StructTag(`tiledb:"dtype=int64,ftype=attr" filters:"zstd(level=16)"`),
	})
	fields = append(fields, reflect.StructField{
		Name: "UnalteredTimestampUs",
		Type: reflect.TypeOf(int64(0)),
		Tag:  reflect.StructTag(`tiledb:"dtype=int64,ftype=attr" filters:"zstd(level=16)"`),
	})

	for _, c := range cols {
		switch c.Type {
		case redvox.ColFloat64:
			fields = append(fields, reflect.StructField{
				Name: pascalCase(c.Name),
				Type: reflect.TypeOf(float64(0)),
				Tag:  reflect.StructTag(`tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`),
			})
		case redvox.ColBytes:
			fields = append(fields, reflect.StructField{
				Name: pascalCase(c.Name),
				Type: reflect.TypeOf([]uint8{}),
				Tag:  reflect.StructTag(`tiledb:"dtype=uint8,ftype=attr,var=true" filters:"bysh,zstd(level=16)"`),
			})
		case redvox.ColEnum:
			fields = append(fields, reflect.StructField{
				Name: pascalCase(c.Name),
				Type: reflect.TypeOf(uint8(0)),
				Tag:  reflect.StructTag(`tiledb:"dtype=uint8,ftype=attr" filters:"zstd(level=16)"`),
			})
		}
	}

	return reflect.StructOf(fields)
}

// createAttr creates one tiledb attribute and its filter pipeline from a
// field's parsed tag definitions. Adapted from the teacher's tiledb.go
// CreateAttr: same tag vocabulary (dtype, ftype, var; zstd/bysh/rle/etc
// filter names), generalized to whatever dynamic struct rowStructType
// produces rather than a fixed hand-written struct.
func createAttr(
	fieldName string,
	filterDefs []stgpsr.Definition,
	tiledbDefs map[string]stgpsr.Definition,
	schema *tiledb.ArraySchema,
	ctx *tiledb.Context,
) error {
	def, ok := tiledbDefs["dtype"]
	if !ok {
		return errors.Join(ErrSchema, errors.New("dtype tag not found for "+fieldName))
	}
	dtypeName, _ := def.Attribute("dtype")

	var dtype tiledb.Datatype
	switch dtypeName {
	case "uint8":
		dtype = tiledb.TILEDB_UINT8
	case "uint64":
		dtype = tiledb.TILEDB_UINT64
	case "int64":
		dtype = tiledb.TILEDB_INT64
	case "float64":
		dtype = tiledb.TILEDB_FLOAT64
	default:
		return errors.Join(ErrDtype, errors.New(fieldName))
	}

	filterList, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return errors.Join(ErrSchema, err)
	}
	defer filterList.Free()

	for _, filt := range filterDefs {
		switch filt.Name() {
		case "zstd":
			level, _ := filt.Attribute("level")
			f, err := zstdFilter(ctx, int32(level.(int64)))
			if err != nil {
				return errors.Join(ErrSchema, err)
			}
			defer f.Free()
			if err := filterList.AddFilter(f); err != nil {
				return errors.Join(ErrAddFilters, err)
			}
		case "bysh":
			f, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_BYTESHUFFLE)
			if err != nil {
				return errors.Join(ErrSchema, err)
			}
			defer f.Free()
			if err := filterList.AddFilter(f); err != nil {
				return errors.Join(ErrAddFilters, err)
			}
		}
	}

	attr, err := tiledb.NewAttribute(ctx, fieldName, dtype)
	if err != nil {
		return errors.Join(ErrSchema, err)
	}
	defer attr.Free()

	_, isVar := tiledbDefs["var"]
	if isVar {
		if err := attr.SetCellValNum(tiledb.TILEDB_VAR_NUM); err != nil {
			return errors.Join(ErrSchema, err)
		}
	}

	if err := attr.SetFilterList(filterList); err != nil {
		return errors.Join(ErrSchema, err)
	}
	if err := schema.AddAttributes(attr); err != nil {
		return errors.Join(ErrSchema, err)
	}

	if isVar {
		offsetFilters, err := varOffsetFilters(ctx)
		if err != nil {
			return errors.Join(ErrSchema, err)
		}
		defer offsetFilters.Free()
		if err := schema.SetOffsetsFilterList(offsetFilters); err != nil {
			return errors.Join(ErrSchema, err)
		}
	}

	return nil
}

// schemaAttrs walks every non-dimension field of a dynamically-built row
// struct and attaches it to schema as a tiledb attribute. Adapted from the
// teacher's schemaAttrs, operating on reflect.StructOf output instead of a
// concrete named struct.
func schemaAttrs(rowType reflect.Type, schema *tiledb.ArraySchema, ctx *tiledb.Context) error {
	zero := reflect.New(rowType).Interface()
	filtDefs, _ := stgpsr.ParseStruct(zero, "filters")
	tdbDefs, _ := stgpsr.ParseStruct(zero, "tiledb")

	for i := 0; i < rowType.NumField(); i++ {
		name := rowType.Field(i).Name

		fieldTdbDefs := map[string]stgpsr.Definition{}
		for _, d := range tdbDefs[name] {
			fieldTdbDefs[d.Name()] = d
		}

		ftypeDef, ok := fieldTdbDefs["ftype"]
		if !ok {
			return errors.Join(ErrSchema, errors.New("ftype tag not found for "+name))
		}
		ftype, _ := ftypeDef.Attribute("ftype")
		if ftype == "dim" {
			continue
		}

		if err := createAttr(name, filtDefs[name], fieldTdbDefs, schema, ctx); err != nil {
			return err
		}
	}
	return nil
}

// buildSchema constructs a dense TileDB array schema for one Station's
// SensorTable of the given kind, with a single ascending RowId dimension
// sized to nrows. Grounded on the teacher's pingDenseSchema/attitude.go
// attitude_tiledb_array dense-array construction.
func buildSchema(ctx *tiledb.Context, kind redvox.SensorKind, nrows uint64) (*tiledb.ArraySchema, error) {
	if nrows == 0 {
		nrows = 1
	}
	domain, err := tiledb.NewDomain(ctx)
	if err != nil {
		return nil, errors.Join(ErrSchema, err)
	}
	defer domain.Free()

	tileSz := nrows
	if tileSz > 50_000 {
		tileSz = 50_000
	}

	dim, err := tiledb.NewDimension(ctx, "row_id", tiledb.TILEDB_UINT64, []uint64{0, nrows - 1}, tileSz)
	if err != nil {
		return nil, errors.Join(ErrSchema, err)
	}
	defer dim.Free()

	dimFilters, err := rowDimensionFilters(ctx)
	if err != nil {
		return nil, errors.Join(ErrSchema, err)
	}
	defer dimFilters.Free()
	if err := dim.SetFilterList(dimFilters); err != nil {
		return nil, errors.Join(ErrSchema, err)
	}

	if err := domain.AddDimensions(dim); err != nil {
		return nil, errors.Join(ErrSchema, err)
	}

	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_DENSE)
	if err != nil {
		return nil, errors.Join(ErrSchema, err)
	}
	if err := schema.SetDomain(domain); err != nil {
		return nil, errors.Join(ErrSchema, err)
	}
	if err := schema.SetCellOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, errors.Join(ErrSchema, err)
	}
	if err := schema.SetTileOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, errors.Join(ErrSchema, err)
	}

	rowType := rowStructType(kind)
	if err := schemaAttrs(rowType, schema, ctx); err != nil {
		return nil, err
	}

	if err := schema.Check(); err != nil {
		return nil, errors.Join(ErrSchema, err)
	}
	return schema, nil
}
