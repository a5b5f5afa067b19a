package player

import (
	"errors"
	"sync"
	"time"

	"gapless-controller/internal/playback"
)

var (
	// ErrNotLoaded is returned by commands issued before any media is loaded.
	ErrNotLoaded = errors.New("no media loaded")
)

// Simulated is an in-process media player. It advances its position on its
// own clock while playing and stops at the end of the medium.
type Simulated struct {
	mu sync.Mutex

	clock    playback.Clock
	mediaID  string
	duration float64

	// position is the playhead at anchor; while playing the live position is
	// position + time elapsed since anchor.
	position float64
	anchor   time.Time
	playing  bool

	volume float64
	muted  bool
}

// NewSimulated returns an empty player at full volume. A nil clock uses the
// system clock.
func NewSimulated(clock playback.Clock) *Simulated {
	if clock == nil {
		clock = playback.SystemClock{}
	}
	return &Simulated{clock: clock, volume: 100}
}

// Load replaces the current medium and parks the playhead at start, paused.
func (p *Simulated) Load(mediaID string, duration, start float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.mediaID = mediaID
	p.duration = duration
	p.playing = false
	p.position = p.clampLocked(start)
	p.anchor = p.clock.Now()
}

// MediaID returns the loaded medium.
func (p *Simulated) MediaID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mediaID
}

func (p *Simulated) clampLocked(t float64) float64 {
	if t < 0 {
		return 0
	}
	if p.duration > 0 && t > p.duration {
		return p.duration
	}
	return t
}

// settleLocked folds elapsed play time into position. Caller must hold p.mu.
func (p *Simulated) settleLocked() {
	now := p.clock.Now()
	if p.playing {
		p.position = p.clampLocked(p.position + now.Sub(p.anchor).Seconds())
		if p.duration > 0 && p.position >= p.duration {
			p.playing = false
		}
	}
	p.anchor = now
}

// Telemetry implements playback.Adapter.
func (p *Simulated) Telemetry() playback.Telemetry {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.settleLocked()
	muted := p.muted
	return playback.Telemetry{
		Ready:       p.mediaID != "",
		Playing:     p.playing,
		MediaID:     p.mediaID,
		CurrentTime: p.position,
		Duration:    p.duration,
		Volume:      p.volume,
		Muted:       &muted,
	}
}

// Play implements playback.Adapter.
func (p *Simulated) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mediaID == "" {
		return ErrNotLoaded
	}
	p.settleLocked()
	p.playing = true
	return nil
}

// Pause implements playback.Adapter.
func (p *Simulated) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mediaID == "" {
		return ErrNotLoaded
	}
	p.settleLocked()
	p.playing = false
	return nil
}

// SeekTo implements playback.Adapter.
func (p *Simulated) SeekTo(actualSeconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mediaID == "" {
		return ErrNotLoaded
	}
	p.settleLocked()
	p.position = p.clampLocked(actualSeconds)
	return nil
}

// SetVolume implements playback.Adapter.
func (p *Simulated) SetVolume(volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case volume < 0:
		volume = 0
	case volume > 100:
		volume = 100
	}
	p.volume = volume
	return nil
}

// Mute implements playback.Adapter.
func (p *Simulated) Mute() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = true
	return nil
}

// UnMute implements playback.Adapter.
func (p *Simulated) UnMute() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = false
	return nil
}
