package playback

import "time"

// DefaultSkipCooldown is the minimum time between two corrective seeks.
const DefaultSkipCooldown = time.Second

// autoSkip detects playback inside an unassigned gap and picks the start of
// the next song, rate limited by cooldown.
type autoSkip struct {
	cooldown time.Duration
	last     time.Time
}

// check returns the interval to jump to, if any. The cooldown timestamp is
// read and written in the same call.
func (a *autoSkip) check(ix *Index, t float64, now time.Time) (Interval, bool) {
	if t <= 0 || ix.Covers(t) {
		return Interval{}, false
	}
	next, ok := ix.NextAfter(t)
	if !ok {
		return Interval{}, false
	}
	if !a.last.IsZero() && now.Sub(a.last) < a.cooldown {
		return Interval{}, false
	}
	a.last = now
	return next, true
}
