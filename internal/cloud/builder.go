package cloud

import (
	"fmt"
	"time"

	"github.com/banshee-data/cloudreplay/internal/dataset"
	"github.com/banshee-data/cloudreplay/internal/monitoring"
)

// Cache is the full ordered collection of cacheable frames for a dataset,
// built once before playback and read-only thereafter. Messages and
// timestamps stay positionally paired: when an empty frame is skipped
// during the build, its timestamp is dropped with it, so Delay always
// derives intervals from the two frames actually published either side
// of a tick.
type Cache struct {
	messages   []*Message
	timestamps []int64
	skipped    int
}

// Len returns the number of cached frames.
func (c *Cache) Len() int { return len(c.messages) }

// Skipped returns the number of source frames excluded for being empty
// or unreadable.
func (c *Cache) Skipped() int { return c.skipped }

// Message returns the cached message at index i.
func (c *Cache) Message(i int) *Message { return c.messages[i] }

// Timestamp returns the capture timestamp paired with frame i.
func (c *Cache) Timestamp(i int) int64 { return c.timestamps[i] }

// Delay returns the wall-clock delay to wait after publishing frame i
// before publishing its successor. For the last frame the loop-closing
// gap back to frame 0 is loopGap, since the dataset records no interval
// across the wraparound.
func (c *Cache) Delay(i int, loopGap time.Duration) time.Duration {
	if i+1 < len(c.timestamps) {
		return time.Duration(c.timestamps[i+1] - c.timestamps[i])
	}
	return loopGap
}

// BuilderOptions configures a cache build.
type BuilderOptions struct {
	// FrameID is the header frame identifier stamped on every message.
	FrameID string
}

// BuildCache converts each (timestamp, file) pair into a cached,
// pre-serialized message. It runs once, synchronously, before playback.
//
// Hard precondition: len(timestamps) == len(files); a violation returns
// dataset.ErrCardinalityMismatch and no partial cache. Frames that parse
// to zero points are skipped together with their timestamp, preserving
// the pairing invariant for interval computation.
func BuildCache(parser *dataset.Parser, timestamps []int64, files []string, opts BuilderOptions) (*Cache, error) {
	if len(timestamps) != len(files) {
		return nil, fmt.Errorf("%w: %d timestamps, %d frame files",
			dataset.ErrCardinalityMismatch, len(timestamps), len(files))
	}

	frameID := opts.FrameID
	if frameID == "" {
		frameID = "pointcloud"
	}

	cache := &Cache{
		messages:   make([]*Message, 0, len(files)),
		timestamps: make([]int64, 0, len(files)),
	}

	for i, path := range files {
		points := parser.LoadPoints(path)
		if len(points) == 0 {
			// EmptyFrame: recoverable, excluded from the cache.
			monitoring.Logf("[Cache] empty frame file %s, skipping", path)
			cache.skipped++
			continue
		}

		cache.messages = append(cache.messages, NewMessage(frameID, timestamps[i], points))
		cache.timestamps = append(cache.timestamps, timestamps[i])
	}

	return cache, nil
}
