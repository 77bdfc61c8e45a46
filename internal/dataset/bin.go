package dataset

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/banshee-data/cloudreplay/internal/fsutil"
	"github.com/banshee-data/cloudreplay/internal/monitoring"
)

// Point is a single spatial sample from one frame. Coordinates are in
// metres, intensity is unitless reflectance. Value semantics, no identity.
type Point struct {
	X         float32
	Y         float32
	Z         float32
	Intensity float32
}

// PointSize is the encoded size of one point record: four float32 fields.
const PointSize = 16

// ScratchFloats is the capacity of the shared parse buffer in float32s.
// KITTI frames top out around 130k points (520k floats); one megafloat
// leaves generous headroom and caps reads from oversized files.
const ScratchFloats = 1_000_000

// Parser decodes raw binary frame files into point slices. It owns a
// single scratch buffer reused across files, so frames in the
// 0 to ~130,000 point range parse without reallocation. Not safe for
// concurrent use; the load phase is single-threaded.
type Parser struct {
	fsys    fsutil.FileSystem
	scratch []byte
}

// NewParser creates a Parser with a pre-sized scratch buffer.
func NewParser(fsys fsutil.FileSystem) *Parser {
	return &Parser{
		fsys:    fsys,
		scratch: make([]byte, ScratchFloats*4),
	}
}

// LoadPoints reads path and reinterprets its bytes as consecutive
// little-endian float32 groups of four (x, y, z, intensity). Trailing
// bytes that do not complete a full group are silently discarded.
//
// An unreadable file is not fatal to the pipeline: LoadPoints logs a
// diagnostic and returns an empty slice, and the caller skips the frame.
func (p *Parser) LoadPoints(path string) []Point {
	f, err := p.fsys.Open(path)
	if err != nil {
		monitoring.Logf("[Dataset] could not read frame file %s: %v", path, err)
		return nil
	}
	defer f.Close()

	n, err := io.ReadFull(f, p.scratch)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		monitoring.Logf("[Dataset] error reading frame file %s: %v", path, err)
		return nil
	}

	raw := p.scratch[:n]
	pointCount := len(raw) / PointSize

	points := make([]Point, 0, pointCount)
	for i := 0; i < pointCount*PointSize; i += PointSize {
		points = append(points, Point{
			X:         math.Float32frombits(binary.LittleEndian.Uint32(raw[i:])),
			Y:         math.Float32frombits(binary.LittleEndian.Uint32(raw[i+4:])),
			Z:         math.Float32frombits(binary.LittleEndian.Uint32(raw[i+8:])),
			Intensity: math.Float32frombits(binary.LittleEndian.Uint32(raw[i+12:])),
		})
	}

	return points
}
