package cloud

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCloud() *PointCloud {
	return NewPointCloud("velodyne", time.Unix(1700000000, 123456789),
		[]Point{{X: 1, Y: 2, Z: 3}, {X: -4.5, Y: 0, Z: 6.25}},
		[]Channel{
			{Name: ChannelIntensity, Values: []float32{10, 20}},
			{Name: ChannelRGB, Values: []float32{0.5, 0.25}},
		},
	)
}

func TestFrameRoundTrip(t *testing.T) {
	orig := sampleCloud()
	data, err := EncodeFrame(orig)
	require.NoError(t, err)

	got, err := DecodeFrame(data)
	require.NoError(t, err)

	assert.Equal(t, orig.FrameID, got.FrameID)
	assert.True(t, orig.Timestamp.Equal(got.Timestamp))
	if diff := cmp.Diff(orig.Points, got.Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(orig.Channels, got.Channels); diff != "" {
		t.Errorf("channels mismatch (-want +got):\n%s", diff)
	}
	// Decoded clouds get their own identity.
	assert.NotEqual(t, orig.ID, got.ID)
	assert.NotEmpty(t, got.ID)
}

func TestFrameRoundTripEmpty(t *testing.T) {
	orig := NewPointCloud("", time.Unix(0, 0), nil, nil)
	data, err := EncodeFrame(orig)
	require.NoError(t, err)

	got, err := DecodeFrame(data)
	require.NoError(t, err)
	assert.Equal(t, "", got.FrameID)
	assert.Empty(t, got.Points)
	assert.Empty(t, got.Channels)
}

func TestFrameCarriesMalformedChannel(t *testing.T) {
	// A channel shorter than the point list must survive the wire so the
	// display can diagnose it.
	orig := NewPointCloud("f", time.Now(),
		[]Point{{X: 1}, {X: 2}, {X: 3}},
		[]Channel{{Name: ChannelIntensity, Values: []float32{7}}},
	)
	data, err := EncodeFrame(orig)
	require.NoError(t, err)

	got, err := DecodeFrame(data)
	require.NoError(t, err)
	require.Len(t, got.Channels, 1)
	assert.Len(t, got.Channels[0].Values, 1)
	assert.False(t, got.WellFormed(0))
}

func TestDecodeFrameErrors(t *testing.T) {
	valid, err := EncodeFrame(sampleCloud())
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := DecodeFrame(nil)
		assert.Error(t, err)
	})

	t.Run("bad magic", func(t *testing.T) {
		data := append([]byte(nil), valid...)
		data[0] ^= 0xFF
		_, err := DecodeFrame(data)
		assert.ErrorContains(t, err, "magic")
	})

	t.Run("bad version", func(t *testing.T) {
		data := append([]byte(nil), valid...)
		data[4] = 99
		_, err := DecodeFrame(data)
		assert.ErrorContains(t, err, "version")
	})

	t.Run("truncated", func(t *testing.T) {
		for _, n := range []int{5, 8, 12, 20, len(valid) / 2, len(valid) - 1} {
			_, err := DecodeFrame(valid[:n])
			assert.Error(t, err, "prefix of %d bytes", n)
		}
	})

	t.Run("absurd point count", func(t *testing.T) {
		orig := NewPointCloud("f", time.Now(), nil, nil)
		data, err := EncodeFrame(orig)
		require.NoError(t, err)
		// npoints sits after magic+version+idLen+id+stamp.
		off := 4 + 1 + 2 + 1 + 8
		data[off] = 0xFF
		data[off+1] = 0xFF
		data[off+2] = 0xFF
		data[off+3] = 0xFF
		_, err = DecodeFrame(data)
		assert.Error(t, err)
	})
}

func TestChannelIndex(t *testing.T) {
	pc := sampleCloud()
	assert.Equal(t, 0, pc.ChannelIndex(ChannelIntensity))
	assert.Equal(t, 1, pc.ChannelIndex(ChannelRGB))
	assert.Equal(t, -1, pc.ChannelIndex("nope"))
}

func TestRelease(t *testing.T) {
	pc := sampleCloud()
	pc.Release()
	assert.Nil(t, pc.Points)
	assert.Nil(t, pc.Channels)

	// Releasing nil or twice is safe.
	pc.Release()
	(*PointCloud)(nil).Release()
}
