package session

import (
	"time"

	"gapless-controller/internal/playback"
	"gapless-controller/internal/player"
)

// SessionID uniquely identifies one listener's controller session.
type SessionID string

// Session pairs one playback controller with the player it drives.
type Session struct {
	ID         SessionID
	Controller *playback.Controller
	Player     *player.Simulated
	Touch      bool
	CreatedAt  time.Time
}

// CreateRequest is the body of POST /sessions. With MediaID set, SongIndex
// counts songs of that medium in start order; otherwise it indexes the
// whole catalog.
type CreateRequest struct {
	MediaID   string `json:"mediaId"`
	SongIndex int    `json:"songIndex"`
	Touch     bool   `json:"touch"`
	Autoplay  bool   `json:"autoplay"`
}

// ValueRequest carries a seek (virtual seconds) or volume (0-100) value.
type ValueRequest struct {
	Value *float64 `json:"value"`
}

// VolumeHoverRequest reports the pointer entering or leaving the volume area.
type VolumeHoverRequest struct {
	Inside bool `json:"inside"`
}

// View is the JSON representation of a session.
type View struct {
	ID        SessionID          `json:"id"`
	CreatedAt time.Time          `json:"createdAt"`
	Touch     bool               `json:"touch"`
	Player    playback.Telemetry `json:"player"`
	Controls  playback.State     `json:"controls"`
}
