// Package cloud defines the outgoing point cloud message shape and builds
// the immutable pre-serialized frame cache that playback publishes from.
//
// The message layout mirrors the PointCloud2 convention used by perception
// consumers: a flat row-major blob of fixed-stride point records described
// by per-channel field descriptors, so a subscriber can interpret the raw
// bytes without additional schema.
package cloud

import (
	"encoding/binary"
	"math"

	"github.com/banshee-data/cloudreplay/internal/dataset"
)

// Field datatype codes, matching the PointCloud2 PointField enumeration.
const (
	FieldInt8    uint8 = 1
	FieldUint8   uint8 = 2
	FieldInt16   uint8 = 3
	FieldUint16  uint8 = 4
	FieldInt32   uint8 = 5
	FieldUint32  uint8 = 6
	FieldFloat32 uint8 = 7
	FieldFloat64 uint8 = 8
)

// PointField describes one named channel within a point record.
type PointField struct {
	Name     string
	Offset   uint32
	Datatype uint8
	Count    uint32
}

// Header carries the frame identifier and the capture timestamp split
// into whole seconds and the sub-second nanosecond remainder.
type Header struct {
	FrameID string
	Sec     int32
	Nanosec uint32
}

// Message is one pre-serialized point cloud frame ready to publish.
// Height is always 1 (unorganized cloud), Width is the point count.
// Immutable once built; playback shares cached messages read-only.
type Message struct {
	Header      Header
	Height      uint32
	Width       uint32
	Fields      []PointField
	IsBigEndian bool
	PointStep   uint32
	RowStep     uint32
	Data        []byte
	IsDense     bool
}

// PointCount returns the number of point records in the message.
func (m *Message) PointCount() int {
	return int(m.Width)
}

// xyziFields returns the four-channel float32 field layout shared by
// every replayed frame.
func xyziFields() []PointField {
	return []PointField{
		{Name: "x", Offset: 0, Datatype: FieldFloat32, Count: 1},
		{Name: "y", Offset: 4, Datatype: FieldFloat32, Count: 1},
		{Name: "z", Offset: 8, Datatype: FieldFloat32, Count: 1},
		{Name: "intensity", Offset: 12, Datatype: FieldFloat32, Count: 1},
	}
}

// SplitTimestamp splits a raw nanosecond timestamp into whole seconds and
// the nanosecond remainder. For ts >= 0, sec*1e9 + nanosec == ts.
func SplitTimestamp(ts int64) (sec int32, nanosec uint32) {
	s := ts / 1_000_000_000
	return int32(s), uint32(ts - s*1_000_000_000)
}

// NewMessage packages parsed points and their capture timestamp into a
// publishable message with the fixed x/y/z/intensity layout.
func NewMessage(frameID string, timestampNs int64, points []dataset.Point) *Message {
	sec, nanosec := SplitTimestamp(timestampNs)
	width := uint32(len(points))

	return &Message{
		Header: Header{
			FrameID: frameID,
			Sec:     sec,
			Nanosec: nanosec,
		},
		Height:      1,
		Width:       width,
		Fields:      xyziFields(),
		IsBigEndian: false,
		PointStep:   dataset.PointSize,
		RowStep:     dataset.PointSize * width,
		Data:        EncodePoints(points),
		IsDense:     true,
	}
}

// EncodePoints serializes points as a flat little-endian buffer of
// 16-byte records, one per point, row-major.
func EncodePoints(points []dataset.Point) []byte {
	buf := make([]byte, len(points)*dataset.PointSize)
	for i, pt := range points {
		off := i * dataset.PointSize
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(pt.X))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(pt.Y))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(pt.Z))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(pt.Intensity))
	}
	return buf
}
