package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("uniform cadence", func(t *testing.T) {
		t.Parallel()
		s := Summarize([]int64{0, 100, 200, 300})

		assert.Equal(t, 4, s.Frames)
		assert.InDelta(t, 100.0, s.MeanNs, 1e-9)
		assert.InDelta(t, 0.0, s.StdDevNs, 1e-9)
		assert.Equal(t, int64(100), s.MinNs)
		assert.Equal(t, int64(100), s.MaxNs)
		assert.Equal(t, time.Duration(300), s.Duration)
	})

	t.Run("variable cadence", func(t *testing.T) {
		t.Parallel()
		s := Summarize([]int64{0, 100_000_000, 300_000_000})

		assert.Equal(t, int64(100_000_000), s.MinNs)
		assert.Equal(t, int64(200_000_000), s.MaxNs)
		assert.InDelta(t, 150_000_000.0, s.MeanNs, 1e-3)
		// Mean interval 150ms implies 6.67 fps.
		assert.InDelta(t, 6.667, s.MeanRate, 0.01)
	})

	t.Run("fewer than two timestamps has no intervals", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, IntervalSummary{Frames: 1}, Summarize([]int64{42}))
		assert.Equal(t, IntervalSummary{Frames: 0}, Summarize(nil))
	})
}
