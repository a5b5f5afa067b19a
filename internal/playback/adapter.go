package playback

// Telemetry is one read of the media player's state. Muted is nil when the
// player does not report a mute flag.
type Telemetry struct {
	Ready       bool    `json:"ready"`
	Playing     bool    `json:"playing"`
	MediaID     string  `json:"mediaId"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
	Volume      float64 `json:"volume"`
	Muted       *bool   `json:"muted,omitempty"`
}

// Adapter is the media player the controller drives. Commands are
// fire-and-forget; their effect shows up in later Telemetry reads.
type Adapter interface {
	Telemetry() Telemetry
	Play() error
	Pause() error
	SeekTo(actualSeconds float64) error
	SetVolume(volume float64) error
	Mute() error
	UnMute() error
}

// SongChangeFunc is invoked when a seek or skip moves playback into a
// different song. mediaID is the medium the song belongs to and at is the
// actual target position in seconds.
//
// The callback runs while the controller's event is still being dispatched.
// It may call SetActiveSong, SetNext, SetCatalog, State, HoverAt and
// ClearHover. Calling an event method (BeginSeek, SeekInput, CommitSeek,
// Tick, TogglePlay, SkipNext, RestartSong, the volume methods or Dispose)
// from inside the callback deadlocks; run such events from another
// goroutine instead.
type SongChangeFunc func(song Interval, mediaID string, at float64)
