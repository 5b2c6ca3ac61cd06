package redvox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndexer struct {
	paths []string
}

func (f fakeIndexer) Index(req BuildRequest) ([]string, error) {
	return f.paths, nil
}

type fakeLoader struct {
	byPath map[string][]*Packet
}

func (f fakeLoader) Load(ctx context.Context, path string) ([]*Packet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.byPath[path], nil
}

// S1: a single-packet audio clip with apply_correction=false builds into a
// DataWindow with exactly one station whose audio table holds the packet's
// 512 samples plus one boundary row fabricated at the window's end (513
// rows), and whose timestamps are left uncorrected since C7 never runs.
func TestBuild_SinglePacketAudioClip(t *testing.T) {
	start := time.UnixMicro(1_000_000_000_000).UTC()
	end := time.UnixMicro(1_000_000_640_000).UTC()

	var samples []float64
	for i := 0; i < 512; i++ {
		samples = append(samples, float64(i))
	}
	pkt := makeAudioPacket("1000", "uuid-a", start.UnixMicro(), start.UnixMicro(), samples)
	idx := fakeIndexer{paths: []string{"file1"}}
	ldr := fakeLoader{byPath: map[string][]*Packet{"file1": {pkt}}}

	req := BuildRequest{
		InputDir:        "unused",
		StartTimestamp:  start,
		EndTimestamp:    end,
		MaxWorkers:      2,
		ApplyCorrection: boolPtr(false),
	}

	dw, err := Build(context.Background(), req, idx, ldr)
	require.NoError(t, err)
	require.Len(t, dw.Stations["1000"], 1)

	st := dw.Stations["1000"][0]
	audio := st.Tables[SensorAudio]
	require.NotNil(t, audio)
	assert.Equal(t, 513, audio.NumRows())
	assert.Empty(t, st.Gaps)
	assert.Equal(t, start.UnixMicro(), st.FirstDataTimestampUs)
	assert.Equal(t, end.UnixMicro(), st.LastDataTimestampUs)
	assert.False(t, st.IsTimestampsUpdated)
}

// S6: a build against an already-cancelled context returns promptly with
// ErrCancelled recorded and the context's error surfaced.
func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pkt := makeAudioPacket("1000", "uuid-a", 0, 0, []float64{1, 2, 3})
	idx := fakeIndexer{paths: []string{"file1"}}
	ldr := fakeLoader{byPath: map[string][]*Packet{"file1": {pkt}}}

	req := BuildRequest{
		InputDir:       "unused",
		StartTimestamp: time.UnixMicro(0).UTC(),
		EndTimestamp:   time.UnixMicro(10_000).UTC(),
		MaxWorkers:     2,
	}

	dw, err := Build(ctx, req, idx, ldr)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, dw)
	found := false
	for _, e := range dw.Errors {
		if e == ErrCancelled {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBuild_RejectsInvalidRequest(t *testing.T) {
	idx := fakeIndexer{}
	ldr := fakeLoader{byPath: map[string][]*Packet{}}
	_, err := Build(context.Background(), BuildRequest{}, idx, ldr)
	assert.ErrorIs(t, err, ErrConfig)
}
