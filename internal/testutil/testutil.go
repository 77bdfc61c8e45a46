// Package testutil provides shared test utilities and dataset fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/banshee-data/cloudreplay/internal/fsutil"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// EncodeFloats serializes float32 values as the little-endian byte layout
// used by raw frame files.
func EncodeFloats(values ...float32) []byte {
	buf := make([]byte, 0, len(values)*4)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

// Dataset builds a synthetic KITTI-style dataset inside a memory
// filesystem for loader and playback tests.
type Dataset struct {
	FS        *fsutil.MemoryFileSystem
	Root      string
	SensorDir string
}

// NewDataset creates an empty dataset rooted at /data/<sensor>.
func NewDataset(t *testing.T, sensor string) *Dataset {
	t.Helper()
	fs := fsutil.NewMemoryFileSystem()
	d := &Dataset{FS: fs, Root: "/data", SensorDir: sensor}
	AssertNoError(t, fs.MkdirAll(d.DataDir(), 0755))
	return d
}

// DataDir returns the frame file directory.
func (d *Dataset) DataDir() string {
	return filepath.Join(d.Root, d.SensorDir, "data")
}

// TimestampPath returns the path of the timestamp log.
func (d *Dataset) TimestampPath() string {
	return filepath.Join(d.Root, d.SensorDir, "timestamps_start.txt")
}

// WriteTimestamps writes the timestamp log, one value per line.
func (d *Dataset) WriteTimestamps(t *testing.T, timestamps ...int64) {
	t.Helper()
	var content []byte
	for _, ts := range timestamps {
		content = append(content, fmt.Sprintf("%d\n", ts)...)
	}
	AssertNoError(t, d.FS.WriteFile(d.TimestampPath(), content, 0644))
}

// WriteFrame writes one zero-padded frame file containing the given raw
// float32 values (grouped x, y, z, intensity by the parser).
func (d *Dataset) WriteFrame(t *testing.T, index int, values ...float32) string {
	t.Helper()
	path := filepath.Join(d.DataDir(), fmt.Sprintf("%010d.bin", index))
	AssertNoError(t, d.FS.WriteFile(path, EncodeFloats(values...), 0644))
	return path
}

// WriteFrameBytes writes one frame file with arbitrary raw bytes, for
// truncation and corruption cases.
func (d *Dataset) WriteFrameBytes(t *testing.T, index int, raw []byte) string {
	t.Helper()
	path := filepath.Join(d.DataDir(), fmt.Sprintf("%010d.bin", index))
	AssertNoError(t, d.FS.WriteFile(path, raw, 0644))
	return path
}
