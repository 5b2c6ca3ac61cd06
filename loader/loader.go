// Package loader implements the Packet Loader component (C2): decoding one
// on-disk .rdvxz/.rdvxm file into zero or more redvox.Packet values. The
// wire format is a small fixed header (magic, format version, api version,
// payload length) followed by a deflate-compressed JSON payload -- a
// container shape grounded on the teacher's decode/record.go +
// decode/header.go fixed-header-then-payload decode pattern, adapted from a
// binary sonar record stream to a compressed self-describing payload.
package loader

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"

	redvox "github.com/redvoxio/redvox-go"
)

// magicNumber identifies a valid container; any file not starting with
// this is rejected as corrupt rather than guessed at.
const magicNumber uint32 = 0x52445658 // "RDVX"

// containerHeader is the small fixed-size prefix ahead of the compressed
// payload.
type containerHeader struct {
	Magic       uint32
	FormatVersion uint8
	ApiVersion    uint8
	_             [2]byte // padding, puts PayloadLen at byte offset 8
	PayloadLen    uint32
}

const headerSize = 12

// wirePacket is the JSON shape of one decompressed payload. Field layout
// mirrors redvox.Packet directly; in a production SDK this would instead be
// the externally published RedVox protobuf/JSON schema, which this module
// treats as out of scope to redefine (§ Non-goals: cross-format conversion).
type wirePacket struct {
	StationID               string                   `json:"station_id"`
	StationUUID             string                   `json:"station_uuid"`
	StationStartTimestampUs int64                    `json:"station_start_timestamp_us"`
	Metadata                redvox.StationMetadata   `json:"station_metadata"`
	PacketMetadata           redvox.PacketMetadata    `json:"packet_metadata"`
	Sensors                 []redvox.SensorPayload   `json:"sensors"`
	SyncExchanges           []redvox.SyncExchange    `json:"sync_exchanges"`
}

// FileLoader implements redvox.Loader by reading from the local
// filesystem.
type FileLoader struct{}

// NewFileLoader returns a Loader backed by os.Open.
func NewFileLoader() FileLoader { return FileLoader{} }

// Load decodes one file into its Packets. Most files carry exactly one
// packet; the container format allows more than one for batched transport.
func (FileLoader) Load(ctx context.Context, path string) ([]*redvox.Packet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", redvox.ErrIO, err)
	}
	return Decode(data)
}

// Decode parses a container buffer into its Packets. Exported separately
// from FileLoader so callers that already have bytes in memory (tests,
// streamed transport) don't need a filesystem round-trip.
func Decode(data []byte) ([]*redvox.Packet, error) {
	var packets []*redvox.Packet
	buf := bytes.NewReader(data)

	for buf.Len() > 0 {
		if buf.Len() < headerSize {
			return packets, fmt.Errorf("%w: truncated container header", redvox.ErrCorrupt)
		}
		var hdr containerHeader
		if err := binary.Read(buf, binary.BigEndian, &hdr); err != nil {
			return packets, fmt.Errorf("%w: %v", redvox.ErrCorrupt, err)
		}
		if hdr.Magic != magicNumber {
			return packets, fmt.Errorf("%w: bad magic number", redvox.ErrCorrupt)
		}

		compressed := make([]byte, hdr.PayloadLen)
		if _, err := io.ReadFull(buf, compressed); err != nil {
			return packets, fmt.Errorf("%w: %v", redvox.ErrCorrupt, err)
		}

		raw, err := inflate(compressed)
		if err != nil {
			return packets, fmt.Errorf("%w: %v", redvox.ErrDecode, err)
		}

		var wp wirePacket
		if err := json.Unmarshal(raw, &wp); err != nil {
			return packets, fmt.Errorf("%w: %v", redvox.ErrDecode, err)
		}

		apiVersion := redvox.ApiVersion(hdr.ApiVersion)
		if apiVersion != redvox.ApiV900 && apiVersion != redvox.ApiV1000 {
			return packets, fmt.Errorf("%w: api version %d", redvox.ErrUnsupportedVersion, hdr.ApiVersion)
		}

		packets = append(packets, &redvox.Packet{
			StationID:               wp.StationID,
			StationUUID:             wp.StationUUID,
			StationStartTimestampUs: wp.StationStartTimestampUs,
			ApiVersion:              apiVersion,
			Metadata:                wp.Metadata,
			PacketMetadata:          wp.PacketMetadata,
			Sensors:                 wp.Sensors,
			SyncExchanges:           wp.SyncExchanges,
		})
	}
	return packets, nil
}

// inflate decompresses one deflate-compressed payload. Uses
// klauspost/compress/flate as a faster drop-in over the stdlib
// implementation of the same format.
func inflate(compressed []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return out, nil
}

// Encode serializes packets into the container format Decode expects; used
// by tests and by any producer standing in for the real RedVox mobile
// client.
func Encode(packets []*redvox.Packet) ([]byte, error) {
	var out bytes.Buffer
	for _, p := range packets {
		wp := wirePacket{
			StationID:               p.StationID,
			StationUUID:             p.StationUUID,
			StationStartTimestampUs: p.StationStartTimestampUs,
			Metadata:                p.Metadata,
			PacketMetadata:          p.PacketMetadata,
			Sensors:                 p.Sensors,
			SyncExchanges:           p.SyncExchanges,
		}
		raw, err := json.Marshal(wp)
		if err != nil {
			return nil, err
		}

		var compressed bytes.Buffer
		w, err := flate.NewWriter(&compressed, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}

		hdr := containerHeader{
			Magic:         magicNumber,
			FormatVersion: 1,
			ApiVersion:    uint8(p.ApiVersion),
			PayloadLen:    uint32(compressed.Len()),
		}
		if err := binary.Write(&out, binary.BigEndian, &hdr); err != nil {
			return nil, err
		}
		if _, err := out.Write(compressed.Bytes()); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}
