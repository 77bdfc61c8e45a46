package cloud

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cloudreplay/internal/dataset"
)

func TestSplitTimestamp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		ts      int64
		sec     int32
		nanosec uint32
	}{
		{"zero", 0, 0, 0},
		{"sub-second", 999_999_999, 0, 999_999_999},
		{"exact second", 1_000_000_000, 1, 0},
		{"kitti capture time", 1317617734472993554, 1317617734, 472993554},
		{"small", 150, 0, 150},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sec, nanosec := SplitTimestamp(tc.ts)
			assert.Equal(t, tc.sec, sec)
			assert.Equal(t, tc.nanosec, nanosec)

			// Round-trip invariant for non-negative timestamps.
			assert.Equal(t, tc.ts, int64(sec)*1_000_000_000+int64(nanosec))
		})
	}
}

func TestNewMessage(t *testing.T) {
	t.Parallel()

	points := []dataset.Point{
		{X: 1, Y: 2, Z: 3, Intensity: 0.25},
		{X: -1, Y: -2, Z: -3, Intensity: 0.75},
		{X: 0, Y: 0, Z: 0, Intensity: 0},
	}
	msg := NewMessage("pointcloud", 2_500_000_123, points)

	assert.Equal(t, "pointcloud", msg.Header.FrameID)
	assert.Equal(t, int32(2), msg.Header.Sec)
	assert.Equal(t, uint32(500_000_123), msg.Header.Nanosec)

	assert.Equal(t, uint32(1), msg.Height)
	assert.Equal(t, uint32(3), msg.Width)
	assert.Equal(t, uint32(16), msg.PointStep)
	assert.Equal(t, uint32(48), msg.RowStep)
	assert.True(t, msg.IsDense)
	assert.False(t, msg.IsBigEndian)
	assert.Equal(t, 3, msg.PointCount())

	wantFields := []PointField{
		{Name: "x", Offset: 0, Datatype: FieldFloat32, Count: 1},
		{Name: "y", Offset: 4, Datatype: FieldFloat32, Count: 1},
		{Name: "z", Offset: 8, Datatype: FieldFloat32, Count: 1},
		{Name: "intensity", Offset: 12, Datatype: FieldFloat32, Count: 1},
	}
	if diff := cmp.Diff(wantFields, msg.Fields); diff != "" {
		t.Errorf("field layout mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, msg.Data, 48)
}

func TestEncodePoints(t *testing.T) {
	t.Parallel()

	buf := EncodePoints([]dataset.Point{{X: 1.0, Y: 2.0, Z: -3.0, Intensity: 0.5}})
	require.Len(t, buf, 16)

	// Little-endian IEEE-754: 1.0 = 0x3F800000, 2.0 = 0x40000000,
	// -3.0 = 0xC0400000, 0.5 = 0x3F000000.
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, buf[0:4])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x40}, buf[4:8])
	assert.Equal(t, []byte{0x00, 0x00, 0x40, 0xC0}, buf[8:12])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x3F}, buf[12:16])
}

func TestEncodePointsRoundTripsThroughParser(t *testing.T) {
	t.Parallel()

	// The published blob must be byte-identical to the raw frame format,
	// so a consumer (or the parser itself) can reinterpret it directly.
	want := []dataset.Point{
		{X: 12.5, Y: -0.125, Z: 3.5, Intensity: 0.99},
		{X: 0.001, Y: 2048, Z: -77.25, Intensity: 0.01},
	}
	buf := EncodePoints(want)

	got := make([]dataset.Point, 0, len(want))
	for i := 0; i < len(buf); i += dataset.PointSize {
		got = append(got, decodePoint(buf[i:i+dataset.PointSize]))
	}
	assert.Equal(t, want, got)
}

func decodePoint(b []byte) dataset.Point {
	return dataset.Point{
		X:         math.Float32frombits(binary.LittleEndian.Uint32(b)),
		Y:         math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z:         math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
		Intensity: math.Float32frombits(binary.LittleEndian.Uint32(b[12:])),
	}
}
