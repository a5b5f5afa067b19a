package playback

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"gapless-controller/internal/platform/metrics"
)

var (
	// ErrNoPlayer is returned by NewController when Options.Player is nil.
	ErrNoPlayer = errors.New("player adapter is required")

	// ErrControllerDisposed is returned by event handlers after Dispose.
	ErrControllerDisposed = errors.New("controller disposed")
)

// Options configures a Controller. Zero durations select the defaults.
type Options struct {
	Player       Adapter
	OnSongChange SongChangeFunc
	Clock        Clock
	Logger       *slog.Logger
	// Metrics may be nil to disable metric recording (e.g. in tests).
	Metrics *metrics.Metrics

	Catalog []Interval
	Active  *Interval
	Next    *Interval

	// Touch selects the touch policy for the volume icon: a click toggles
	// the slider instead of muting.
	Touch bool

	VolumeDebounce time.Duration
	SkipCooldown   time.Duration
	// PreviewInterval throttles live preview seeks while dragging. Zero
	// previews on every input event.
	PreviewInterval time.Duration
}

// Controller reconciles a single media player against the song intervals of
// the loaded medium and exposes the seek, volume and hover control surface.
//
// Event handlers run one at a time. Within a handler, local state is updated
// first, then song-change callbacks fire, then player commands are issued.
// Callbacks run without the state lock held, so they may call SetActiveSong,
// SetNext, SetCatalog or State, but not another event method (see
// SongChangeFunc).
type Controller struct {
	events sync.Mutex
	mu     sync.Mutex

	player       Adapter
	onSongChange SongChangeFunc
	clock        Clock
	log          *slog.Logger
	metrics      *metrics.Metrics

	catalog []Interval
	active  *Interval
	next    *Interval
	ix      *Index

	seek  seekMachine
	skip  autoSkip
	vol   volumeControl
	hover *Hover

	lastReady bool
	playing   bool
	disposed  bool
}

// NewController builds a controller over opts.Player and seeds the control
// surface from the player's current telemetry.
func NewController(opts Options) (*Controller, error) {
	if opts.Player == nil {
		return nil, ErrNoPlayer
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.VolumeDebounce <= 0 {
		opts.VolumeDebounce = DefaultVolumeDebounce
	}
	if opts.SkipCooldown <= 0 {
		opts.SkipCooldown = DefaultSkipCooldown
	}

	c := &Controller{
		player:       opts.Player,
		onSongChange: opts.OnSongChange,
		clock:        opts.Clock,
		log:          opts.Logger,
		metrics:      opts.Metrics,
		catalog:      append([]Interval(nil), opts.Catalog...),
		seek:         seekMachine{previewInterval: opts.PreviewInterval},
		skip:         autoSkip{cooldown: opts.SkipCooldown},
		vol:          volumeControl{touch: opts.Touch, debounce: opts.VolumeDebounce},
	}
	if opts.Active != nil {
		a := *opts.Active
		c.active = &a
	}
	if opts.Next != nil {
		n := *opts.Next
		c.next = &n
	}
	c.ix = BuildIndex(c.catalog, c.activeMedia())

	tel := c.player.Telemetry()
	c.lastReady = tel.Ready
	c.playing = tel.Playing
	c.vol.value = clampVolume(tel.Volume)
	if tel.Ready {
		c.vol.syncMuted(tel)
	}
	c.seek.sync(c.timeline(tel).ToVirtual(tel.CurrentTime))
	return c, nil
}

func (c *Controller) activeMedia() string {
	if c.active == nil {
		return ""
	}
	return c.active.MediaID
}

func (c *Controller) timeline(tel Telemetry) Timeline {
	return NewTimeline(c.ix, tel.Duration)
}

// handle runs one event: fn mutates state under the lock and returns the
// commands to dispatch once the lock is released.
func (c *Controller) handle(fn func(tel Telemetry) []func()) error {
	c.events.Lock()
	defer c.events.Unlock()

	tel := c.player.Telemetry()

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrControllerDisposed
	}
	cmds := fn(tel)
	c.mu.Unlock()

	for _, cmd := range cmds {
		cmd()
	}
	return nil
}

// call invokes one player command. Failures are logged and swallowed; the
// optimistic local state is kept.
func (c *Controller) call(op string, fn func() error) {
	if err := fn(); err != nil {
		c.log.Warn("player call failed", slog.String("op", op), slog.String("error", err.Error()))
		c.metrics.IncAdapterErrors(op)
	}
}

func (c *Controller) songChangeCmd(song Interval, at float64) func() {
	return func() {
		c.log.Debug("song changed",
			slog.String("media_id", song.MediaID),
			slog.String("title", song.Title),
			slog.Float64("at", at))
		c.metrics.IncSongChanges()
		if c.onSongChange != nil {
			c.onSongChange(song, song.MediaID, at)
		}
	}
}

// seekCmds resolves the song at target and returns the song-change callback
// (if the song differs from the active one) followed by the seek.
// Caller must hold c.mu.
func (c *Controller) seekCmds(target float64, kind string) []func() {
	var cmds []func()
	if song, ok := c.ix.SongAt(target); ok && (c.active == nil || !c.active.SameAs(song)) {
		s := song
		c.active = &s
		c.hover = nil
		cmds = append(cmds, c.songChangeCmd(s, target))
	}
	return append(cmds, func() {
		c.metrics.IncSeeks(kind)
		c.call("seekTo", func() error { return c.player.SeekTo(target) })
	})
}

// BeginSeek enters the dragging state on pointer-down/touch-start.
func (c *Controller) BeginSeek() error {
	return c.handle(func(Telemetry) []func() {
		c.seek.begin()
		return nil
	})
}

// SeekInput buffers a seek control value in virtual units. While dragging it
// issues a live preview seek; outside a drag (e.g. keyboard input) it seeks
// immediately.
func (c *Controller) SeekInput(value float64) error {
	return c.handle(func(tel Telemetry) []func() {
		tl := c.timeline(tel)
		v := tl.ClampVirtual(value)
		if !c.seek.dragging() {
			c.seek.input(v, c.clock.Now())
			return c.seekCmds(tl.ToActual(v), metrics.SeekJump)
		}
		if !c.seek.input(v, c.clock.Now()) {
			return nil
		}
		return c.seekCmds(tl.ToActual(v), metrics.SeekPreview)
	})
}

// CommitSeek ends a drag on release or blur and issues the authoritative
// seek for the last buffered value. Without a drag in progress it does
// nothing, so every release path may call it.
func (c *Controller) CommitSeek() error {
	return c.handle(func(tel Telemetry) []func() {
		v, ok := c.seek.commit()
		if !ok {
			return nil
		}
		tl := c.timeline(tel)
		return c.seekCmds(tl.ToActual(tl.ClampVirtual(v)), metrics.SeekCommit)
	})
}

// Tick consumes one telemetry sample: it mirrors position and volume into
// the control surface and runs the auto-skip monitor.
func (c *Controller) Tick() error {
	return c.handle(func(tel Telemetry) []func() {
		tl := c.timeline(tel)
		if tel.Ready != c.lastReady {
			if tel.Ready {
				c.vol.syncMuted(tel)
			}
			c.lastReady = tel.Ready
		}
		c.playing = tel.Playing
		c.vol.sync(tel)
		c.seek.sync(tl.ToVirtual(tel.CurrentTime))

		if !c.autoSkipArmed(tl, tel) {
			return nil
		}
		next, ok := c.skip.check(c.ix, tel.CurrentTime, c.clock.Now())
		if !ok {
			return nil
		}
		c.log.Info("skipping gap",
			slog.String("media_id", next.MediaID),
			slog.Float64("from", tel.CurrentTime),
			slog.Float64("to", next.Start))
		c.metrics.IncAutoSkips()
		return c.seekCmds(next.Start, metrics.SeekSkip)
	})
}

// autoSkipArmed reports whether gap skipping applies to this sample.
// Caller must hold c.mu.
func (c *Controller) autoSkipArmed(tl Timeline, tel Telemetry) bool {
	if !tl.Virtual() || c.ix.Len() == 0 || !tel.Ready || !tel.Playing {
		return false
	}
	if c.seek.dragging() || c.active == nil {
		return false
	}
	if c.active.MediaID != c.ix.MediaID {
		return false
	}
	return tel.MediaID == "" || tel.MediaID == c.active.MediaID
}

// TogglePlay pauses a playing player and plays a paused one.
func (c *Controller) TogglePlay() error {
	return c.handle(func(tel Telemetry) []func() {
		if tel.Playing {
			c.playing = false
			return []func(){func() { c.call("pause", c.player.Pause) }}
		}
		c.playing = true
		return []func(){func() { c.call("play", c.player.Play) }}
	})
}

// SkipNext moves to the host-provided next song. Within the loaded medium it
// seeks to the song's start; for another medium it only reports the song
// change and leaves loading to the host.
func (c *Controller) SkipNext() error {
	return c.handle(func(tel Telemetry) []func() {
		if c.next == nil {
			return nil
		}
		next := *c.next
		c.next = nil
		if next.MediaID == c.ix.MediaID {
			return c.seekCmds(next.Start, metrics.SeekJump)
		}
		c.active = &next
		c.ix = BuildIndex(c.catalog, next.MediaID)
		c.hover = nil
		c.abandonDrag()
		c.seek.sync(c.timeline(tel).ToVirtual(next.Start))
		return []func(){c.songChangeCmd(next, next.Start)}
	})
}

// abandonDrag leaves Dragging without seeking. A value buffered against the
// previous medium's timeline is meaningless on the new one. Caller must hold
// c.mu.
func (c *Controller) abandonDrag() {
	if _, ok := c.seek.commit(); ok {
		c.log.Debug("drag abandoned on media change")
	}
}

// RestartSong seeks to the start of the active song.
func (c *Controller) RestartSong() error {
	return c.handle(func(Telemetry) []func() {
		if c.active == nil {
			return nil
		}
		return c.seekCmds(c.active.Start, metrics.SeekJump)
	})
}

// SetVolume applies a slider value immediately to the local mirror and
// schedules the player write after the debounce window. Raising the volume
// while muted unmutes.
func (c *Controller) SetVolume(value float64) error {
	return c.handle(func(Telemetry) []func() {
		v := clampVolume(value)
		c.vol.value = v

		var cmds []func()
		if c.vol.muted && v > 0 {
			c.vol.muted = false
			cmds = append(cmds, func() { c.call("unMute", c.player.UnMute) })
		}

		c.vol.cancel()
		gen := c.vol.gen
		c.vol.timer = c.clock.AfterFunc(c.vol.debounce, func() { c.flushVolume(gen) })
		return cmds
	})
}

// flushVolume writes the buffered volume if gen is still the latest write.
func (c *Controller) flushVolume(gen uint64) {
	c.events.Lock()
	defer c.events.Unlock()

	c.mu.Lock()
	if c.disposed || gen != c.vol.gen {
		c.mu.Unlock()
		return
	}
	c.vol.timer = nil
	v := c.vol.value
	c.mu.Unlock()

	c.metrics.IncVolumeWrites()
	c.call("setVolume", func() error { return c.player.SetVolume(v) })
}

// toggleMuteCmds flips the local mute flag. Caller must hold c.mu.
func (c *Controller) toggleMuteCmds() []func() {
	c.vol.muted = !c.vol.muted
	if c.vol.muted {
		return []func(){func() { c.call("mute", c.player.Mute) }}
	}
	return []func(){func() { c.call("unMute", c.player.UnMute) }}
}

// ToggleMute flips mute on the player.
func (c *Controller) ToggleMute() error {
	return c.handle(func(Telemetry) []func() {
		return c.toggleMuteCmds()
	})
}

// VolumeIconClick toggles mute on pointer devices and toggles the slider's
// visibility on touch devices.
func (c *Controller) VolumeIconClick() error {
	return c.handle(func(Telemetry) []func() {
		if c.vol.touch {
			c.vol.showSlider = !c.vol.showSlider
			return nil
		}
		return c.toggleMuteCmds()
	})
}

// SetVolumeHover shows the slider while a pointer is over the volume area.
// Touch devices ignore hover.
func (c *Controller) SetVolumeHover(inside bool) error {
	return c.handle(func(Telemetry) []func() {
		if !c.vol.touch {
			c.vol.showSlider = inside
		}
		return nil
	})
}

// HoverAt locates the song under pointer fraction p of a track widthPx
// wide. A nil result means nothing is under the pointer.
func (c *Controller) HoverAt(p, widthPx float64) *Hover {
	tel := c.player.Telemetry()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil
	}
	c.hover = c.timeline(tel).Locate(p, widthPx)
	if c.hover == nil {
		return nil
	}
	h := *c.hover
	return &h
}

// ClearHover hides the chapter tooltip.
func (c *Controller) ClearHover() {
	c.mu.Lock()
	c.hover = nil
	c.mu.Unlock()
}

// SetActiveSong reports the host's now-playing song. Outside a drag the seek
// buffer is resynchronized from telemetry; a song on another medium also
// ends any drag in progress.
func (c *Controller) SetActiveSong(song Interval) {
	tel := c.player.Telemetry()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if c.active != nil && c.active.SameAs(song) {
		c.active = &song
		return
	}
	mediaChanged := c.activeMedia() != song.MediaID
	c.active = &song
	if mediaChanged {
		c.ix = BuildIndex(c.catalog, song.MediaID)
		c.abandonDrag()
	}
	c.hover = nil
	c.seek.sync(c.timeline(tel).ToVirtual(tel.CurrentTime))
	c.vol.sync(tel)
}

// SetNext records the host-computed next song; nil clears it.
func (c *Controller) SetNext(song *Interval) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if song == nil {
		c.next = nil
		return
	}
	n := *song
	c.next = &n
}

// SetCatalog replaces the song catalog and rebuilds the index of the active
// medium.
func (c *Controller) SetCatalog(catalog []Interval) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = append([]Interval(nil), catalog...)
	c.ix = BuildIndex(c.catalog, c.activeMedia())
	c.hover = nil
}

// Dispose cancels the pending volume write. Later events return
// ErrControllerDisposed.
func (c *Controller) Dispose() {
	c.events.Lock()
	defer c.events.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	c.vol.cancel()
	c.log.Debug("controller disposed")
}
