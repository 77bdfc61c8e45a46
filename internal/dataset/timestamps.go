// Package dataset loads KITTI-style recorded point cloud datasets: a
// timestamp log paired with a directory of raw binary frame files.
//
// Layout consumed (read-only):
//
//	<root>/<sensor>/timestamps_start.txt   one int64 nanosecond value per line
//	<root>/<sensor>/data/*.bin             raw little-endian float32 frames
package dataset

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/cloudreplay/internal/fsutil"
)

// TimestampFile is the name of the per-frame capture timestamp log.
const TimestampFile = "timestamps_start.txt"

// ReadTimestamps parses a text file of integer nanosecond timestamps, one
// per non-empty line, in file order. File order is authoritative and
// defines playback order; no sorting or deduplication is applied.
//
// Returns ErrDataNotFound if the file does not exist and ErrParse if any
// line is not a valid signed 64-bit integer.
func ReadTimestamps(fsys fsutil.FileSystem, path string) ([]int64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp log %s", ErrDataNotFound, path)
	}
	defer f.Close()

	var timestamps []int64
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		ns, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %q", ErrParse, path, line, text)
		}
		timestamps = append(timestamps, ns)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading timestamp log %s: %w", path, err)
	}

	return timestamps, nil
}
