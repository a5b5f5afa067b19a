package playback

import "math"

// Timeline maps between actual media time and virtual display time for one
// index. Duration is the player-reported total duration of the medium, used
// as the media end whenever some interval has no known end.
type Timeline struct {
	ix       *Index
	duration float64
}

// NewTimeline returns the mapper for ix. A nil index behaves like an empty one.
func NewTimeline(ix *Index, duration float64) Timeline {
	if ix == nil {
		ix = &Index{}
	}
	if duration < 0 || math.IsNaN(duration) {
		duration = 0
	}
	return Timeline{ix: ix, duration: duration}
}

// Index returns the index the timeline was built from.
func (tl Timeline) Index() *Index {
	return tl.ix
}

// Virtual reports whether gaps are compacted (every interval has an end).
func (tl Timeline) Virtual() bool {
	return tl.ix.AllHaveEnd && len(tl.ix.Segments) > 0
}

// MediaStart is the start of the first song (0 for an empty index).
func (tl Timeline) MediaStart() float64 {
	return tl.ix.MediaStart
}

// MediaEnd is the last known song end, or the player duration in absolute mode.
func (tl Timeline) MediaEnd() float64 {
	if tl.Virtual() {
		return tl.ix.LastEnd
	}
	return tl.duration
}

// DisplayDuration is the length of the seek track in virtual units.
func (tl Timeline) DisplayDuration() float64 {
	if tl.Virtual() {
		return tl.ix.TotalSongsDuration
	}
	return math.Max(0, tl.MediaEnd()-tl.MediaStart())
}

// ToVirtual converts an actual media position to display time. A position
// exactly on a shared boundary belongs to the later song; a position inside
// a gap maps onto the boundary between its neighbours. Overlapping or tied
// intervals resolve to the first containing segment in start order.
func (tl Timeline) ToVirtual(actual float64) float64 {
	if !tl.Virtual() {
		return math.Max(0, actual-tl.MediaStart())
	}
	segs := tl.ix.Segments
	if actual <= segs[0].ActualStart {
		return 0
	}
	for _, s := range segs {
		if actual >= s.ActualStart && actual < s.ActualEnd {
			return s.CumulativeStart + (actual - s.ActualStart)
		}
	}
	if actual >= tl.ix.LastEnd {
		return segs[len(segs)-1].CumulativeEnd
	}
	// In a gap: clamp to the end of the closest segment before it.
	v := 0.0
	for _, s := range segs {
		if s.ActualEnd <= actual && s.CumulativeEnd > v {
			v = s.CumulativeEnd
		}
	}
	return v
}

// ToActual is the inverse of ToVirtual. The end of the track maps to the
// latest song end, which is the last segment's end unless intervals overlap.
func (tl Timeline) ToActual(virtual float64) float64 {
	if !tl.Virtual() {
		return virtual + tl.MediaStart()
	}
	segs := tl.ix.Segments
	if virtual <= 0 {
		return segs[0].ActualStart
	}
	for _, s := range segs {
		if virtual >= s.CumulativeStart && virtual < s.CumulativeEnd {
			return s.ActualStart + (virtual - s.CumulativeStart)
		}
	}
	return tl.ix.LastEnd
}

// ClampVirtual limits v to [0, DisplayDuration]. With an unknown duration
// only the lower bound applies.
func (tl Timeline) ClampVirtual(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if d := tl.DisplayDuration(); d > 0 && v > d {
		return d
	}
	return v
}
