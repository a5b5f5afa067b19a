package playback

import (
	"sort"

	"github.com/samber/lo"
)

// Segment places one interval on the compacted (gapless) virtual timeline.
type Segment struct {
	Song            Interval `json:"song"`
	CumulativeStart float64  `json:"cumulativeStart"`
	CumulativeEnd   float64  `json:"cumulativeEnd"`
	ActualStart     float64  `json:"actualStart"`
	ActualEnd       float64  `json:"actualEnd"`
}

// Index is the sorted set of intervals belonging to one medium, plus the
// bounds derived from it. It is rebuilt, never mutated.
type Index struct {
	MediaID    string
	Intervals  []Interval
	AllHaveEnd bool
	MediaStart float64
	// LastEnd is the largest known end across the index (0 if none).
	LastEnd float64
	// Segments is only populated when AllHaveEnd is true.
	Segments           []Segment
	TotalSongsDuration float64
}

// BuildIndex selects the intervals of mediaID from catalog, sorts them by
// start and derives the cumulative segments. Input order does not matter and
// the catalog slice is not modified.
func BuildIndex(catalog []Interval, mediaID string) *Index {
	songs := lo.Filter(catalog, func(iv Interval, _ int) bool {
		return mediaID != "" && iv.MediaID == mediaID
	})
	sort.SliceStable(songs, func(i, j int) bool {
		return songs[i].Start < songs[j].Start
	})

	ix := &Index{MediaID: mediaID, Intervals: songs}
	if len(songs) == 0 {
		return ix
	}

	ix.MediaStart = songs[0].Start
	ix.AllHaveEnd = lo.EveryBy(songs, Interval.HasEnd)
	ix.LastEnd = lo.Max(lo.Map(songs, func(iv Interval, _ int) float64 {
		if !iv.HasEnd() {
			return 0
		}
		return iv.End
	}))

	if ix.AllHaveEnd {
		ix.TotalSongsDuration = lo.SumBy(songs, Interval.Duration)
		ix.Segments = make([]Segment, 0, len(songs))
		cum := 0.0
		for _, iv := range songs {
			d := iv.Duration()
			ix.Segments = append(ix.Segments, Segment{
				Song:            iv,
				CumulativeStart: cum,
				CumulativeEnd:   cum + d,
				ActualStart:     iv.Start,
				ActualEnd:       iv.End,
			})
			cum += d
		}
	}
	return ix
}

// Len returns the number of intervals in the index.
func (ix *Index) Len() int {
	return len(ix.Intervals)
}

// SongAt resolves the song playing at actual time t: the latest-starting
// interval whose [start, end-or-infinity) contains t.
func (ix *Index) SongAt(t float64) (Interval, bool) {
	for i := len(ix.Intervals) - 1; i >= 0; i-- {
		if ix.Intervals[i].Contains(t) {
			return ix.Intervals[i], true
		}
	}
	return Interval{}, false
}

// NextAfter returns the first interval starting strictly after t.
func (ix *Index) NextAfter(t float64) (Interval, bool) {
	for _, iv := range ix.Intervals {
		if iv.Start > t {
			return iv, true
		}
	}
	return Interval{}, false
}

// Covers reports whether any interval contains t.
func (ix *Index) Covers(t float64) bool {
	_, ok := ix.SongAt(t)
	return ok
}
