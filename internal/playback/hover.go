package playback

import "math"

// Hover is the song under the pointer on the seek track, with the pixel
// center of that song's span for tooltip placement.
type Hover struct {
	Song     Interval `json:"song"`
	CenterPx float64  `json:"centerPx"`
	// At is the hovered position in the track's own units (virtual or actual).
	At float64 `json:"at"`
}

// Locate maps a pointer fraction p in [0,1] across a track widthPx wide to
// the song it represents. It returns nil over uncovered gaps or an empty
// track, which callers treat as "hide tooltip".
func (tl Timeline) Locate(p, widthPx float64) *Hover {
	if p < 0 || math.IsNaN(p) {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	if tl.Virtual() {
		total := tl.DisplayDuration()
		if total <= 0 {
			return nil
		}
		at := p * total
		segs := tl.ix.Segments
		hit := func(s Segment) *Hover {
			center := (s.CumulativeStart + s.CumulativeEnd) / 2
			return &Hover{Song: s.Song, CenterPx: center / total * widthPx, At: at}
		}
		for _, s := range segs {
			if at >= s.CumulativeStart && at < s.CumulativeEnd {
				return hit(s)
			}
		}
		if at >= total {
			return hit(segs[len(segs)-1])
		}
		return nil
	}

	start, end := tl.MediaStart(), tl.MediaEnd()
	span := end - start
	if span <= 0 {
		return nil
	}
	at := start + p*span
	song, ok := tl.ix.SongAt(at)
	if !ok && p == 1 {
		// The track's right edge is the media end, excluded by [start, end).
		song, ok = tl.ix.SongAt(at - 1e-9)
	}
	if !ok {
		return nil
	}
	songEnd := end
	if song.HasEnd() && song.End < end {
		songEnd = song.End
	}
	center := (song.Start + songEnd) / 2
	return &Hover{Song: song, CenterPx: (center - start) / span * widthPx, At: at}
}
