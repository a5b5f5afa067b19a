package playback

// Interval is one song's placement inside one medium.
// End <= 0 (or End <= Start) means the end is unknown and the interval is open.
type Interval struct {
	MediaID string  `json:"mediaId"`
	Start   float64 `json:"start"`
	End     float64 `json:"end,omitempty"`
	Title   string  `json:"title"`
	Artist  string  `json:"artist"`
}

// HasEnd reports whether the interval has a usable, positive-length end.
func (iv Interval) HasEnd() bool {
	return iv.End > 0 && iv.End > iv.Start
}

// Contains reports whether t lies in [Start, End), treating an open interval
// as extending to infinity.
func (iv Interval) Contains(t float64) bool {
	if t < iv.Start {
		return false
	}
	return !iv.HasEnd() || t < iv.End
}

// SameAs compares interval identity (medium + start), ignoring metadata.
func (iv Interval) SameAs(other Interval) bool {
	return iv.MediaID == other.MediaID && iv.Start == other.Start
}

// Duration returns End-Start for closed intervals and 0 otherwise.
func (iv Interval) Duration() float64 {
	if !iv.HasEnd() {
		return 0
	}
	return iv.End - iv.Start
}
