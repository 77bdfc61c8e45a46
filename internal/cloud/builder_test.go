package cloud

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cloudreplay/internal/dataset"
	"github.com/banshee-data/cloudreplay/internal/testutil"
)

func TestBuildCache(t *testing.T) {
	t.Parallel()

	t.Run("caches every non-empty frame", func(t *testing.T) {
		t.Parallel()
		ds := testutil.NewDataset(t, "velodyne_points")
		f0 := ds.WriteFrame(t, 0, 1, 2, 3, 0.5)
		f1 := ds.WriteFrame(t, 1, 4, 5, 6, 0.6, 7, 8, 9, 0.7)

		cache, err := BuildCache(dataset.NewParser(ds.FS), []int64{100, 250}, []string{f0, f1}, BuilderOptions{FrameID: "pointcloud"})
		require.NoError(t, err)

		assert.Equal(t, 2, cache.Len())
		assert.Equal(t, 0, cache.Skipped())
		assert.Equal(t, 1, cache.Message(0).PointCount())
		assert.Equal(t, 2, cache.Message(1).PointCount())
		assert.Equal(t, int64(100), cache.Timestamp(0))
		assert.Equal(t, int64(250), cache.Timestamp(1))
	})

	t.Run("cardinality mismatch is fatal", func(t *testing.T) {
		t.Parallel()
		ds := testutil.NewDataset(t, "velodyne_points")
		files := []string{
			ds.WriteFrame(t, 0, 1, 1, 1, 1),
			ds.WriteFrame(t, 1, 2, 2, 2, 2),
			ds.WriteFrame(t, 2, 3, 3, 3, 3),
			ds.WriteFrame(t, 3, 4, 4, 4, 4),
		}

		// 5 timestamps, 4 files: construction must fail, never proceed
		// to partial playback.
		cache, err := BuildCache(dataset.NewParser(ds.FS), []int64{1, 2, 3, 4, 5}, files, BuilderOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, dataset.ErrCardinalityMismatch))
		assert.Nil(t, cache)
	})

	t.Run("empty frame skipped with its timestamp", func(t *testing.T) {
		t.Parallel()
		ds := testutil.NewDataset(t, "velodyne_points")
		f0 := ds.WriteFrame(t, 0, 1, 1, 1, 0.1)
		f1 := ds.WriteFrameBytes(t, 1, nil) // zero readable floats
		f2 := ds.WriteFrame(t, 2, 3, 3, 3, 0.3)

		cache, err := BuildCache(dataset.NewParser(ds.FS), []int64{100, 250, 400}, []string{f0, f1, f2}, BuilderOptions{})
		require.NoError(t, err)

		// Frame and timestamp drop together: the remaining pair stays
		// positionally aligned and other frames' points do not shift.
		assert.Equal(t, 2, cache.Len())
		assert.Equal(t, 1, cache.Skipped())
		assert.Equal(t, int64(100), cache.Timestamp(0))
		assert.Equal(t, int64(400), cache.Timestamp(1))
		assert.Equal(t, float32(0.1), mustIntensity(t, cache.Message(0), 0))
		assert.Equal(t, float32(0.3), mustIntensity(t, cache.Message(1), 0))

		// The delay after frame 0 spans the removed frame's slot.
		assert.Equal(t, time.Duration(300), cache.Delay(0, time.Millisecond))
	})

	t.Run("unreadable frame skipped", func(t *testing.T) {
		t.Parallel()
		ds := testutil.NewDataset(t, "velodyne_points")
		f0 := ds.WriteFrame(t, 0, 1, 1, 1, 1)

		cache, err := BuildCache(dataset.NewParser(ds.FS), []int64{100, 250}, []string{f0, ds.DataDir() + "/missing.bin"}, BuilderOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, cache.Len())
		assert.Equal(t, 1, cache.Skipped())
	})

	t.Run("all frames empty yields empty cache", func(t *testing.T) {
		t.Parallel()
		ds := testutil.NewDataset(t, "velodyne_points")
		f0 := ds.WriteFrameBytes(t, 0, nil)

		cache, err := BuildCache(dataset.NewParser(ds.FS), []int64{100}, []string{f0}, BuilderOptions{})
		require.NoError(t, err)
		assert.Equal(t, 0, cache.Len())
		assert.Equal(t, 1, cache.Skipped())
	})

	t.Run("default frame id", func(t *testing.T) {
		t.Parallel()
		ds := testutil.NewDataset(t, "velodyne_points")
		f0 := ds.WriteFrame(t, 0, 1, 1, 1, 1)

		cache, err := BuildCache(dataset.NewParser(ds.FS), []int64{100}, []string{f0}, BuilderOptions{})
		require.NoError(t, err)
		assert.Equal(t, "pointcloud", cache.Message(0).Header.FrameID)
	})
}

func TestCacheDelay(t *testing.T) {
	t.Parallel()

	cache := &Cache{
		messages:   make([]*Message, 3),
		timestamps: []int64{100, 250, 400},
	}
	loopGap := 100 * time.Millisecond

	assert.Equal(t, time.Duration(150), cache.Delay(0, loopGap))
	assert.Equal(t, time.Duration(150), cache.Delay(1, loopGap))
	// Last frame has no successor interval: the loop gap bridges back
	// to frame 0.
	assert.Equal(t, loopGap, cache.Delay(2, loopGap))
}

func mustIntensity(t *testing.T, msg *Message, index int) float32 {
	t.Helper()
	require.Greater(t, msg.PointCount(), index)
	return decodePoint(msg.Data[index*16 : index*16+16]).Intensity
}
