package persist

import (
	"encoding/json"
	"errors"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// WriteJson serializes data as indented JSON to fileURI using TileDB's VFS,
// so the destination may be a local path or any VFS-backed object store.
// Mirrors the teacher's json.go WriteJson.
func WriteJson(ctx *tiledb.Context, config *tiledb.Config, fileURI string, data any) (int, error) {
	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return 0, errors.Join(ErrArray, err)
	}
	defer vfs.Free()

	stream, err := vfs.Open(fileURI, tiledb.TILEDB_VFS_WRITE)
	if err != nil {
		return 0, errors.Join(ErrArray, err)
	}
	defer stream.Close()

	jsn, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return 0, err
	}

	return stream.Write(jsn)
}

// ReadJson reads and unmarshals a JSON sidecar previously written by
// WriteJson into dst.
func ReadJson(ctx *tiledb.Context, config *tiledb.Config, fileURI string, dst any) error {
	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return errors.Join(ErrArray, err)
	}
	defer vfs.Free()

	size, err := vfs.FileSize(fileURI)
	if err != nil {
		return errors.Join(ErrArray, err)
	}

	stream, err := vfs.Open(fileURI, tiledb.TILEDB_VFS_READ)
	if err != nil {
		return errors.Join(ErrArray, err)
	}
	defer stream.Close()

	buf := make([]byte, size)
	if _, err := stream.Read(buf, 0, size); err != nil {
		return errors.Join(ErrArray, err)
	}

	return json.Unmarshal(buf, dst)
}
