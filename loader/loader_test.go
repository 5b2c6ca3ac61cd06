package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redvox "github.com/redvoxio/redvox-go"
)

func samplePacket() *redvox.Packet {
	return &redvox.Packet{
		StationID:               "1000",
		StationUUID:             "uuid-a",
		StationStartTimestampUs: 123,
		ApiVersion:              redvox.ApiV1000,
		Metadata: redvox.StationMetadata{
			Make:                     "redvox",
			Model:                    "rvt",
			AudioNominalSampleRateHz: 800,
		},
		PacketMetadata: redvox.PacketMetadata{
			MachTimeStartUs: 1,
			MachTimeEndUs:   2,
		},
		Sensors: []redvox.SensorPayload{
			{
				Kind:                   redvox.SensorAudio,
				Present:                true,
				FirstSampleTimestampUs: 0,
				Channels:               [][]float64{{1, 2, 3}},
			},
		},
		SyncExchanges: []redvox.SyncExchange{
			{A1: 0, A2: 1, A3: 2, B1: 3, B2: 4, B3: 5},
		},
	}
}

// P8: Encode then Decode reproduces the original packets' station identity
// (ID and UUID), api version, station metadata, sensor channels and sync
// exchanges.
func TestEncodeDecode_RoundTrip(t *testing.T) {
	packets := []*redvox.Packet{samplePacket()}

	data, err := Encode(packets)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, decoded, 1)

	assert.Equal(t, packets[0].StationID, decoded[0].StationID)
	assert.Equal(t, packets[0].StationUUID, decoded[0].StationUUID)
	assert.Equal(t, packets[0].ApiVersion, decoded[0].ApiVersion)
	assert.Equal(t, packets[0].Metadata, decoded[0].Metadata)
	require.Len(t, decoded[0].Sensors, 1)
	assert.Equal(t, packets[0].Sensors[0].Channels, decoded[0].Sensors[0].Channels)
	assert.Equal(t, packets[0].SyncExchanges, decoded[0].SyncExchanges)
}

func TestEncodeDecode_MultiplePacketsInOneContainer(t *testing.T) {
	p1 := samplePacket()
	p2 := samplePacket()
	p2.StationID = "2000"

	data, err := Encode([]*redvox.Packet{p1, p2})
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "1000", decoded[0].StationID)
	assert.Equal(t, "2000", decoded[1].StationID)
}

func TestDecode_RejectsBadMagic(t *testing.T) {
	_, err := Decode([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, redvox.ErrCorrupt)
}

func TestDecode_RejectsTruncatedHeader(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, redvox.ErrCorrupt)
}
