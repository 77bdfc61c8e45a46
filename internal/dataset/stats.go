package dataset

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// IntervalSummary describes the distribution of inter-frame capture
// intervals in a timestamp sequence. Logged at startup so operators can
// sanity-check a dataset's cadence before playback begins.
type IntervalSummary struct {
	Frames   int
	MeanNs   float64
	StdDevNs float64
	MinNs    int64
	MaxNs    int64
	Duration time.Duration
	MeanRate float64 // frames per second implied by the mean interval
}

// Summarize computes interval statistics over consecutive timestamp
// deltas. With fewer than two timestamps there are no intervals and the
// zero summary (with Frames set) is returned.
func Summarize(timestamps []int64) IntervalSummary {
	s := IntervalSummary{Frames: len(timestamps)}
	if len(timestamps) < 2 {
		return s
	}

	deltas := make([]float64, 0, len(timestamps)-1)
	s.MinNs = timestamps[1] - timestamps[0]
	s.MaxNs = s.MinNs
	for i := 1; i < len(timestamps); i++ {
		d := timestamps[i] - timestamps[i-1]
		if d < s.MinNs {
			s.MinNs = d
		}
		if d > s.MaxNs {
			s.MaxNs = d
		}
		deltas = append(deltas, float64(d))
	}

	s.MeanNs = stat.Mean(deltas, nil)
	s.StdDevNs = stat.StdDev(deltas, nil)
	s.Duration = time.Duration(timestamps[len(timestamps)-1] - timestamps[0])
	if s.MeanNs > 0 {
		s.MeanRate = 1e9 / s.MeanNs
	}
	return s
}
