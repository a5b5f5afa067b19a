package playback

import (
	"math"
	"time"
)

// DefaultVolumeDebounce is the quiet period before a volume change is written
// to the player.
const DefaultVolumeDebounce = 100 * time.Millisecond

// volumeControl holds the local volume/mute mirror and the single pending
// debounced write.
type volumeControl struct {
	value      float64
	muted      bool
	showSlider bool
	touch      bool

	debounce time.Duration
	timer    Timer
	// gen identifies the latest scheduled write; a timer firing with an
	// older generation was superseded.
	gen uint64
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// pending reports whether a debounced write is scheduled.
func (vc *volumeControl) pending() bool {
	return vc.timer != nil
}

// cancel drops any scheduled write.
func (vc *volumeControl) cancel() {
	if vc.timer != nil {
		vc.timer.Stop()
		vc.timer = nil
	}
	vc.gen++
}

// sync mirrors telemetry volume unless muted locally or a write is pending.
func (vc *volumeControl) sync(tel Telemetry) {
	if vc.muted || vc.pending() {
		return
	}
	vc.value = clampVolume(tel.Volume)
}

// syncMuted adopts the player's mute flag, or infers it from a zero volume.
func (vc *volumeControl) syncMuted(tel Telemetry) {
	if tel.Muted != nil {
		vc.muted = *tel.Muted
		return
	}
	vc.muted = tel.Volume == 0
}
