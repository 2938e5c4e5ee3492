package command

import "time"

// Clock supplies the current time in Unix milliseconds.
type Clock interface {
	NowMilli() (int64, error)
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// NowMilli returns the wall clock in Unix milliseconds, or ErrClock if it reads
// before the epoch.
func (SystemClock) NowMilli() (int64, error) {
	ms := time.Now().UnixMilli()
	if ms < 0 {
		return 0, ErrClock.WithDetails("%d ms", ms)
	}
	return ms, nil
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() (int64, error)

// NowMilli calls f.
func (f ClockFunc) NowMilli() (int64, error) {
	return f()
}
