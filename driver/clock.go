package driver

import "time"

// Clock reports seconds elapsed since a fixed start reference.
type Clock interface {
	Seconds() float64
}

type monotonicClock struct {
	start time.Time
}

// NewClock returns a Clock that starts counting now.
func NewClock() Clock {
	return monotonicClock{start: time.Now()}
}

func (c monotonicClock) Seconds() float64 {
	return time.Since(c.start).Seconds()
}
