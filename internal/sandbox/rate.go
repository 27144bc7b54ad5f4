package sandbox

import "time"

// RateMeter counts marks per window and reports the last full window's rate
type RateMeter struct {
	window time.Duration
	start  time.Time
	count  int
	rate   float64
}

func NewRateMeter(window time.Duration) *RateMeter {
	if window <= 0 {
		window = time.Second
	}
	return &RateMeter{window: window}
}

// Mark records one event at now
func (r *RateMeter) Mark(now time.Time) {
	if r.start.IsZero() {
		r.start = now
	}
	r.count++
	if el := now.Sub(r.start); el >= r.window {
		r.rate = float64(r.count) / el.Seconds()
		r.count = 0
		r.start = now
	}
}

// Rate returns events per second over the last completed window
func (r *RateMeter) Rate() float64 { return r.rate }

func (r *RateMeter) Reset() {
	r.start = time.Time{}
	r.count = 0
	r.rate = 0
}
