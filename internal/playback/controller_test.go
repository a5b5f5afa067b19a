package playback

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type songChange struct {
	title   string
	mediaID string
	at      float64
}

type harness struct {
	c       *Controller
	player  *recordingPlayer
	clock   *fakeClock
	mu      sync.Mutex
	changes []songChange
	trace   []string
}

func (h *harness) songChanges() []songChange {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]songChange(nil), h.changes...)
}

func playingTelemetry() Telemetry {
	return Telemetry{
		Ready:       true,
		Playing:     true,
		MediaID:     "m1",
		CurrentTime: 5,
		Duration:    100,
		Volume:      50,
		Muted:       boolPtr(false),
	}
}

// newHarness builds a controller over gappedCatalog with song A active.
// mutate may adjust the options before construction.
func newHarness(t *testing.T, tel Telemetry, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{player: newRecordingPlayer(tel), clock: newFakeClock()}
	h.player.trace = &h.trace

	cat := gappedCatalog()
	active := cat[2]
	opts := Options{
		Player: h.player,
		OnSongChange: func(song Interval, mediaID string, at float64) {
			h.mu.Lock()
			h.changes = append(h.changes, songChange{title: song.Title, mediaID: mediaID, at: at})
			h.trace = append(h.trace, "change:"+song.Title)
			h.mu.Unlock()
		},
		Clock:   h.clock,
		Catalog: cat,
		Active:  &active,
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := NewController(opts)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	h.c = c
	return h
}

func seeks(p *recordingPlayer) []float64 {
	var out []float64
	for _, c := range p.callsOf("seekTo") {
		out = append(out, c.arg)
	}
	return out
}

func TestNewController_requires_player(t *testing.T) {
	if _, err := NewController(Options{}); !errors.Is(err, ErrNoPlayer) {
		t.Errorf("expected ErrNoPlayer, got %v", err)
	}
}

func TestNewController_seeds_from_telemetry(t *testing.T) {
	tel := playingTelemetry()
	tel.CurrentTime = 50
	tel.Muted = boolPtr(true)
	h := newHarness(t, tel, nil)

	st := h.c.State()
	if st.TempSeekValue != 40 {
		t.Errorf("TempSeekValue = %v, want virtual 40", st.TempSeekValue)
	}
	if !st.IsMuted || st.TempVolumeValue != 50 || !st.Playing {
		t.Errorf("unexpected seed: %+v", st)
	}
	if st.SeekState != "idle" || st.IsSeeking {
		t.Errorf("expected idle seek state, got %q", st.SeekState)
	}
	if st.DurationText != "01:30" || st.CurrentTimeText != "00:40" {
		t.Errorf("text = %q / %q", st.CurrentTimeText, st.DurationText)
	}
	if len(st.SongsInVideo) != 3 || len(st.SongCumulativeMap) != 3 || !st.AllSongsHaveEnd {
		t.Errorf("index not exposed: %+v", st)
	}
	if st.VideoDuration != 100 || st.VideoStartTime != 0 || st.DisplayDuration != 90 {
		t.Errorf("durations: %v %v %v", st.VideoDuration, st.VideoStartTime, st.DisplayDuration)
	}
}

func TestController_drag_across_boundary(t *testing.T) {
	h := newHarness(t, playingTelemetry(), nil)

	if err := h.c.BeginSeek(); err != nil {
		t.Fatal(err)
	}
	for v := 5.0; v <= 45; v += 5 {
		if err := h.c.SeekInput(v); err != nil {
			t.Fatal(err)
		}
	}

	changes := h.songChanges()
	if len(changes) != 1 {
		t.Fatalf("expected one song change, got %+v", changes)
	}
	if changes[0].title != "B" || changes[0].at != 40 || changes[0].mediaID != "m1" {
		t.Errorf("song change = %+v, want B at 40", changes[0])
	}
	if got := len(seeks(h.player)); got != 9 {
		t.Errorf("expected 9 preview seeks, got %d", got)
	}
	if st := h.c.State(); !st.IsSeeking || st.SeekState != "dragging" || st.ActiveSong.Title != "B" {
		t.Errorf("unexpected drag state: %+v", st)
	}

	h.player.reset()
	if err := h.c.CommitSeek(); err != nil {
		t.Fatal(err)
	}
	if got := seeks(h.player); len(got) != 1 || got[0] != 55 {
		t.Errorf("commit seeks = %v, want [55]", got)
	}
	if len(h.songChanges()) != 1 {
		t.Error("commit inside the same song must not fire another change")
	}

	h.player.reset()
	if err := h.c.CommitSeek(); err != nil {
		t.Fatal(err)
	}
	if got := seeks(h.player); len(got) != 0 {
		t.Errorf("duplicate commit should be a no-op, got %v", got)
	}
}

func TestController_drag_ignores_telemetry(t *testing.T) {
	h := newHarness(t, playingTelemetry(), nil)

	h.c.BeginSeek()
	h.c.SeekInput(20)
	h.player.set(func(tel *Telemetry) { tel.CurrentTime = 80 })

	h.c.Tick()
	h.c.SetActiveSong(gappedCatalog()[0])
	if got := h.c.State().TempSeekValue; got != 20 {
		t.Errorf("TempSeekValue = %v during drag, want 20", got)
	}

	h.c.CommitSeek()
	h.player.set(func(tel *Telemetry) { tel.CurrentTime = 80 })
	h.c.Tick()
	if got := h.c.State().TempSeekValue; got != 70 {
		t.Errorf("TempSeekValue = %v after release, want 70", got)
	}
}

func TestController_seek_input_when_idle_jumps(t *testing.T) {
	h := newHarness(t, playingTelemetry(), nil)

	if err := h.c.SeekInput(30); err != nil {
		t.Fatal(err)
	}
	want := []string{"change:B", "seekTo:40"}
	if fmt.Sprint(h.trace) != fmt.Sprint(want) {
		t.Errorf("dispatch order = %v, want %v", h.trace, want)
	}
	if h.c.State().IsSeeking {
		t.Error("a jump must not enter dragging")
	}
}

func TestController_preview_throttle(t *testing.T) {
	h := newHarness(t, playingTelemetry(), func(o *Options) {
		o.PreviewInterval = 100 * time.Millisecond
	})

	h.c.BeginSeek()
	h.c.SeekInput(10)
	h.c.SeekInput(20)
	if got := seeks(h.player); len(got) != 1 || got[0] != 10 {
		t.Fatalf("throttled previews = %v, want [10]", got)
	}

	h.clock.Advance(100 * time.Millisecond)
	h.c.SeekInput(25)
	h.c.SeekInput(26)
	h.c.CommitSeek()

	if got := seeks(h.player); fmt.Sprint(got) != fmt.Sprint([]float64{10, 25, 26}) {
		t.Errorf("seeks = %v, want commit to bypass the throttle", got)
	}
}

func TestController_auto_skip(t *testing.T) {
	tel := playingTelemetry()
	tel.CurrentTime = 35
	h := newHarness(t, tel, nil)

	if err := h.c.Tick(); err != nil {
		t.Fatal(err)
	}
	if got := seeks(h.player); len(got) != 1 || got[0] != 40 {
		t.Fatalf("seeks = %v, want [40]", got)
	}
	changes := h.songChanges()
	if len(changes) != 1 || changes[0].title != "B" {
		t.Fatalf("expected change to B, got %+v", changes)
	}

	t.Run("cooldown", func(t *testing.T) {
		h.player.set(func(tel *Telemetry) { tel.CurrentTime = 35 })
		h.c.Tick()
		if got := seeks(h.player); len(got) != 1 {
			t.Errorf("second skip within cooldown: %v", got)
		}

		h.clock.Advance(time.Second)
		h.c.Tick()
		if got := seeks(h.player); len(got) != 2 {
			t.Errorf("skip after cooldown should seek again: %v", got)
		}
		if len(h.songChanges()) != 1 {
			t.Error("re-entering the same song must not fire a change")
		}
	})
}

func TestController_auto_skip_disarmed(t *testing.T) {
	tests := []struct {
		name   string
		tel    func(*Telemetry)
		mutate func(*Options)
		before func(*Controller)
	}{
		{name: "paused", tel: func(tel *Telemetry) { tel.Playing = false }},
		{name: "not_ready", tel: func(tel *Telemetry) { tel.Ready = false }},
		{name: "other_media_loaded", tel: func(tel *Telemetry) { tel.MediaID = "m2" }},
		{name: "past_last_song", tel: func(tel *Telemetry) { tel.CurrentTime = 110 }},
		{name: "dragging", before: func(c *Controller) { c.BeginSeek() }},
		{
			name: "absolute_mode",
			mutate: func(o *Options) {
				o.Catalog = []Interval{{MediaID: "m1", Start: 0, End: 30}, {MediaID: "m1", Start: 40}}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tel := playingTelemetry()
			tel.CurrentTime = 35
			if tt.tel != nil {
				tt.tel(&tel)
			}
			h := newHarness(t, tel, tt.mutate)
			if tt.before != nil {
				tt.before(h.c)
			}
			h.c.Tick()
			if got := seeks(h.player); len(got) != 0 {
				t.Errorf("unexpected seeks %v", got)
			}
		})
	}
}

func TestController_volume_debounce(t *testing.T) {
	h := newHarness(t, playingTelemetry(), nil)

	h.c.SetVolume(10)
	h.clock.Advance(20 * time.Millisecond)
	h.c.SetVolume(20)
	h.clock.Advance(20 * time.Millisecond)
	h.c.SetVolume(30)

	if got := h.c.State().TempVolumeValue; got != 30 {
		t.Errorf("TempVolumeValue = %v, want 30 immediately", got)
	}
	h.clock.Advance(99 * time.Millisecond)
	if got := h.player.callsOf("setVolume"); len(got) != 0 {
		t.Fatalf("write before the quiet period: %v", got)
	}
	h.clock.Advance(time.Millisecond)
	got := h.player.callsOf("setVolume")
	if len(got) != 1 || got[0].arg != 30 {
		t.Fatalf("setVolume calls = %v, want one write of 30", got)
	}
	if h.clock.pendingTimers() != 0 {
		t.Error("no timer should remain after the write")
	}
}

func TestController_volume_telemetry_sync(t *testing.T) {
	h := newHarness(t, playingTelemetry(), nil)

	h.c.SetVolume(80)
	h.player.set(func(tel *Telemetry) { tel.Volume = 10 })
	h.c.Tick()
	if got := h.c.State().TempVolumeValue; got != 80 {
		t.Errorf("pending write must not be overwritten by telemetry, got %v", got)
	}

	h.clock.Advance(DefaultVolumeDebounce)
	h.player.set(func(tel *Telemetry) { tel.Volume = 65 })
	h.c.Tick()
	if got := h.c.State().TempVolumeValue; got != 65 {
		t.Errorf("TempVolumeValue = %v, want telemetry 65", got)
	}
}

func TestController_volume_clamps(t *testing.T) {
	h := newHarness(t, playingTelemetry(), nil)
	h.c.SetVolume(150)
	if got := h.c.State().TempVolumeValue; got != 100 {
		t.Errorf("TempVolumeValue = %v, want 100", got)
	}
	h.c.SetVolume(-4)
	if got := h.c.State().TempVolumeValue; got != 0 {
		t.Errorf("TempVolumeValue = %v, want 0", got)
	}
}

func TestController_unmute_via_slider(t *testing.T) {
	tel := playingTelemetry()
	tel.Muted = boolPtr(true)
	h := newHarness(t, tel, nil)

	h.c.SetVolume(0)
	if len(h.player.callsOf("unMute")) != 0 || !h.c.State().IsMuted {
		t.Error("a zero volume must not unmute")
	}

	h.c.SetVolume(40)
	if len(h.player.callsOf("unMute")) != 1 {
		t.Errorf("expected one unMute, got %v", h.player.calls)
	}
	if h.c.State().IsMuted {
		t.Error("IsMuted should be false after raising the volume")
	}
}

func TestController_mute_toggle(t *testing.T) {
	h := newHarness(t, playingTelemetry(), nil)

	h.c.ToggleMute()
	if !h.c.State().IsMuted || len(h.player.callsOf("mute")) != 1 {
		t.Error("first toggle should mute")
	}
	h.c.ToggleMute()
	if h.c.State().IsMuted || len(h.player.callsOf("unMute")) != 1 {
		t.Error("second toggle should unmute")
	}
}

func TestController_volume_icon(t *testing.T) {
	t.Run("pointer", func(t *testing.T) {
		h := newHarness(t, playingTelemetry(), nil)
		h.c.VolumeIconClick()
		if len(h.player.callsOf("mute")) != 1 || h.c.State().ShowVolumeSlider {
			t.Error("pointer click should mute and leave the slider alone")
		}
		h.c.SetVolumeHover(true)
		if !h.c.State().ShowVolumeSlider {
			t.Error("hover should reveal the slider")
		}
		h.c.SetVolumeHover(false)
		if h.c.State().ShowVolumeSlider {
			t.Error("leaving should hide the slider")
		}
	})

	t.Run("touch", func(t *testing.T) {
		h := newHarness(t, playingTelemetry(), func(o *Options) { o.Touch = true })
		h.c.VolumeIconClick()
		if len(h.player.calls) != 0 || !h.c.State().ShowVolumeSlider {
			t.Error("touch click should only reveal the slider")
		}
		h.c.SetVolumeHover(false)
		if !h.c.State().ShowVolumeSlider {
			t.Error("touch devices ignore hover")
		}
		h.c.VolumeIconClick()
		if h.c.State().ShowVolumeSlider {
			t.Error("second touch click should hide the slider")
		}
	})
}

func TestController_mute_resync_on_ready(t *testing.T) {
	t.Run("inferred_from_volume", func(t *testing.T) {
		tel := playingTelemetry()
		tel.Ready = false
		tel.Muted = nil
		tel.Volume = 0
		h := newHarness(t, tel, nil)
		if h.c.State().IsMuted {
			t.Fatal("mute must not be inferred before ready")
		}

		h.player.set(func(tel *Telemetry) { tel.Ready = true })
		h.c.Tick()
		if !h.c.State().IsMuted {
			t.Error("zero volume on ready should read as muted")
		}
	})

	t.Run("explicit_flag", func(t *testing.T) {
		tel := playingTelemetry()
		tel.Ready = false
		tel.Volume = 0
		h := newHarness(t, tel, nil)

		h.player.set(func(tel *Telemetry) { tel.Ready = true })
		h.c.Tick()
		if h.c.State().IsMuted {
			t.Error("explicit unmuted flag should win over a zero volume")
		}
	})
}

func TestController_adapter_errors_are_swallowed(t *testing.T) {
	h := newHarness(t, playingTelemetry(), nil)
	h.player.fail["seekTo"] = errors.New("player gone")
	h.player.fail["setVolume"] = errors.New("player gone")

	if err := h.c.SeekInput(45); err != nil {
		t.Fatalf("SeekInput returned %v", err)
	}
	if got := h.c.State().TempSeekValue; got != 45 {
		t.Errorf("optimistic TempSeekValue = %v, want 45", got)
	}

	h.c.SetVolume(70)
	h.clock.Advance(DefaultVolumeDebounce)
	if got := h.c.State().TempVolumeValue; got != 70 {
		t.Errorf("optimistic TempVolumeValue = %v, want 70", got)
	}
}

func TestController_dispose(t *testing.T) {
	h := newHarness(t, playingTelemetry(), nil)

	h.c.SetVolume(20)
	h.c.Dispose()
	h.clock.Advance(time.Second)

	if got := h.player.callsOf("setVolume"); len(got) != 0 {
		t.Errorf("write after dispose: %v", got)
	}
	if err := h.c.SeekInput(10); !errors.Is(err, ErrControllerDisposed) {
		t.Errorf("expected ErrControllerDisposed, got %v", err)
	}
	if h.c.HoverAt(0.5, 100) != nil {
		t.Error("HoverAt after dispose should be nil")
	}
	h.c.Dispose()
}

func TestController_skip_next(t *testing.T) {
	t.Run("same_media", func(t *testing.T) {
		cat := gappedCatalog()
		h := newHarness(t, playingTelemetry(), func(o *Options) { o.Next = &cat[0] })

		h.c.SkipNext()
		if got := seeks(h.player); len(got) != 1 || got[0] != 70 {
			t.Errorf("seeks = %v, want [70]", got)
		}
		if c := h.songChanges(); len(c) != 1 || c[0].title != "C" {
			t.Errorf("changes = %+v", c)
		}
		if h.c.State().NextSong != nil {
			t.Error("next should be consumed")
		}
	})

	t.Run("other_media", func(t *testing.T) {
		cat := gappedCatalog()
		h := newHarness(t, playingTelemetry(), func(o *Options) { o.Next = &cat[1] })

		h.c.SkipNext()
		if got := seeks(h.player); len(got) != 0 {
			t.Errorf("cross-media skip must leave loading to the host, got seeks %v", got)
		}
		c := h.songChanges()
		if len(c) != 1 || c[0].mediaID != "m2" || c[0].at != 0 {
			t.Errorf("changes = %+v", c)
		}
		st := h.c.State()
		if st.ActiveSong.MediaID != "m2" || len(st.SongsInVideo) != 1 {
			t.Errorf("index should follow the new medium: %+v", st)
		}
	})

	t.Run("no_next", func(t *testing.T) {
		h := newHarness(t, playingTelemetry(), nil)
		h.c.SkipNext()
		if len(h.player.calls) != 0 || len(h.songChanges()) != 0 {
			t.Error("SkipNext without a next song should do nothing")
		}
	})
}

func TestController_restart_and_toggle_play(t *testing.T) {
	h := newHarness(t, playingTelemetry(), nil)

	h.c.SeekInput(50)
	h.player.reset()
	h.c.RestartSong()
	if got := seeks(h.player); len(got) != 1 || got[0] != 40 {
		t.Errorf("restart seeks = %v, want [40]", got)
	}

	h.c.TogglePlay()
	if len(h.player.callsOf("pause")) != 1 || h.c.State().Playing {
		t.Error("toggle while playing should pause")
	}
	h.c.TogglePlay()
	if len(h.player.callsOf("play")) != 1 || !h.c.State().Playing {
		t.Error("toggle while paused should play")
	}
}

func TestController_callback_may_reenter(t *testing.T) {
	var c *Controller
	var seen State
	p := newRecordingPlayer(playingTelemetry())
	cat := gappedCatalog()
	c, err := NewController(Options{
		Player:  p,
		Clock:   newFakeClock(),
		Catalog: cat,
		Active:  &cat[2],
		OnSongChange: func(song Interval, _ string, _ float64) {
			c.SetActiveSong(song)
			c.SetNext(&cat[0])
			seen = c.State()
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.SeekInput(45); err != nil {
		t.Fatal(err)
	}
	if seen.ActiveSong == nil || seen.ActiveSong.Title != "B" || seen.NextSong.Title != "C" {
		t.Errorf("state seen from callback = %+v", seen)
	}
}

func TestController_callback_defers_events(t *testing.T) {
	var c *Controller
	done := make(chan error, 1)
	var hovered *Hover
	p := newRecordingPlayer(playingTelemetry())
	cat := gappedCatalog()
	c, err := NewController(Options{
		Player:  p,
		Clock:   newFakeClock(),
		Catalog: cat,
		Active:  &cat[2],
		OnSongChange: func(Interval, string, float64) {
			hovered = c.HoverAt(0.5, 900)
			c.ClearHover()
			go func() { done <- c.RestartSong() }()
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.SeekInput(45); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("deferred RestartSong: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event started from the callback never ran")
	}

	if hovered == nil || hovered.Song.Title != "B" {
		t.Errorf("HoverAt from callback = %+v", hovered)
	}
	if got := seeks(p); fmt.Sprint(got) != fmt.Sprint([]float64{55, 40}) {
		t.Errorf("seeks = %v, want the jump then the restart", got)
	}
}

func TestController_media_change_ends_drag(t *testing.T) {
	t.Run("skip_next", func(t *testing.T) {
		cat := gappedCatalog()
		h := newHarness(t, playingTelemetry(), func(o *Options) { o.Next = &cat[1] })

		h.c.BeginSeek()
		h.c.SeekInput(45)
		h.player.reset()
		if err := h.c.SkipNext(); err != nil {
			t.Fatal(err)
		}

		st := h.c.State()
		if st.IsSeeking || st.SeekState != "idle" {
			t.Errorf("drag should end on media change: %+v", st)
		}
		if st.TempSeekValue != 0 {
			t.Errorf("TempSeekValue = %v, want the new song's track position 0", st.TempSeekValue)
		}
		h.c.CommitSeek()
		if got := seeks(h.player); len(got) != 0 {
			t.Errorf("stale drag value was committed: %v", got)
		}
	})

	t.Run("set_active_song", func(t *testing.T) {
		h := newHarness(t, playingTelemetry(), nil)

		h.c.BeginSeek()
		h.c.SeekInput(45)
		h.player.reset()
		h.c.SetActiveSong(gappedCatalog()[1])

		if h.c.State().IsSeeking {
			t.Error("drag should end when the host switches media")
		}
		h.c.CommitSeek()
		if got := seeks(h.player); len(got) != 0 {
			t.Errorf("stale drag value was committed: %v", got)
		}
	})

	t.Run("same_media_keeps_drag", func(t *testing.T) {
		h := newHarness(t, playingTelemetry(), nil)

		h.c.BeginSeek()
		h.c.SeekInput(45)
		h.c.SetActiveSong(gappedCatalog()[0])
		if !h.c.State().IsSeeking {
			t.Error("a song on the same medium must not end the drag")
		}
	})
}

func TestController_hover(t *testing.T) {
	h := newHarness(t, playingTelemetry(), nil)

	hov := h.c.HoverAt(0.5, 900)
	if hov == nil || hov.Song.Title != "B" {
		t.Fatalf("HoverAt = %+v", hov)
	}
	if st := h.c.State(); st.HoveredChapter == nil || st.HoveredChapter.Song.Title != "B" {
		t.Error("hover should be reflected in state")
	}
	h.c.ClearHover()
	if h.c.State().HoveredChapter != nil {
		t.Error("ClearHover should hide the tooltip")
	}
}

func TestController_set_catalog(t *testing.T) {
	h := newHarness(t, playingTelemetry(), nil)

	h.c.SetCatalog([]Interval{
		{MediaID: "m1", Start: 0, Title: "A"},
		{MediaID: "m1", Start: 50, Title: "B"},
	})
	st := h.c.State()
	if st.AllSongsHaveEnd || len(st.SongsInVideo) != 2 || st.SongCumulativeMap != nil {
		t.Errorf("catalog swap not applied: %+v", st)
	}
	if st.DisplayDuration != 100 {
		t.Errorf("DisplayDuration = %v, want player duration 100", st.DisplayDuration)
	}
}
