package engine

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// RefreshStats summarizes measured flip intervals.
type RefreshStats struct {
	Mean    time.Duration
	StdDev  time.Duration
	Frames  int
	Nominal time.Duration
}

// Rate returns the measured refresh rate in Hz.
func (s RefreshStats) Rate() float64 {
	if s.Mean <= 0 {
		return 0
	}
	return float64(time.Second) / float64(s.Mean)
}

// MeasureRefresh presents n+1 blank frames and reports the mean and standard
// deviation of the n flip intervals.
func MeasureRefresh(display Display, clock Clock, background Color, n int) (RefreshStats, error) {
	if n < 2 {
		return RefreshStats{}, fmt.Errorf("measure refresh: need at least 2 frames, got %d", n)
	}
	intervals := make([]float64, 0, n)
	var last time.Duration
	for i := 0; i <= n; i++ {
		display.Clear(background)
		if err := display.Present(); err != nil {
			return RefreshStats{}, fmt.Errorf("measure refresh: %w", err)
		}
		now := clock.Now()
		if i > 0 {
			intervals = append(intervals, float64(now-last))
		}
		last = now
	}
	mean, std := stat.MeanStdDev(intervals, nil)
	return RefreshStats{
		Mean:    time.Duration(mean),
		StdDev:  time.Duration(std),
		Frames:  n,
		Nominal: display.RefreshPeriod(),
	}, nil
}
