package runner

import (
	"math"
	"time"
)

// Timer measures wall-clock time from the moment it is started.
type Timer struct {
	start time.Time
	now   func() time.Time
}

// StartTimer returns a running Timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now(), now: time.Now}
}

// Elapsed returns the time since the timer was started.
func (t *Timer) Elapsed() time.Duration {
	return t.now().Sub(t.start)
}

// Timed runs fn and returns how long it took.
func Timed(fn func()) time.Duration {
	t := StartTimer()
	fn()
	return t.Elapsed()
}

// Seconds converts d to seconds rounded to millisecond precision.
func Seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
