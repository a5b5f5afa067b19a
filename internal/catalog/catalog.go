package catalog

import (
	"context"
	"errors"
	"strings"

	"gapless-controller/internal/playback"

	"github.com/samber/lo"
)

// ErrInvalidCatalog is returned when a catalog document cannot be decoded.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Source provides the full song collection.
type Source interface {
	Songs(ctx context.Context) ([]playback.Interval, error)
}

// Static is a fixed in-memory catalog.
type Static []playback.Interval

// Songs implements Source.Songs.
func (s Static) Songs(context.Context) ([]playback.Interval, error) {
	return Normalize(s), nil
}

// Normalize drops entries without a medium and clamps negative offsets.
// It never fails: bad rows degrade rather than reject the whole catalog.
func Normalize(songs []playback.Interval) []playback.Interval {
	out := lo.FilterMap(songs, func(iv playback.Interval, _ int) (playback.Interval, bool) {
		iv.MediaID = strings.TrimSpace(iv.MediaID)
		if iv.MediaID == "" {
			return iv, false
		}
		if iv.Start < 0 {
			iv.Start = 0
		}
		if iv.End < 0 {
			iv.End = 0
		}
		return iv, true
	})
	return out
}

// ForMedia returns the songs of one medium in catalog order, or the whole
// catalog when mediaID is empty.
func ForMedia(songs []playback.Interval, mediaID string) []playback.Interval {
	if mediaID == "" {
		return songs
	}
	return lo.Filter(songs, func(iv playback.Interval, _ int) bool {
		return iv.MediaID == mediaID
	})
}
