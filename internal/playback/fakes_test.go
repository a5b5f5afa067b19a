package playback

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// fakeClock is a manually advanced Clock. Due timers fire synchronously
// inside Advance, in deadline order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// pendingTimers counts timers that have neither fired nor been stopped.
func (c *fakeClock) pendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type playerCall struct {
	op  string
	arg float64
}

// recordingPlayer is an Adapter whose telemetry is set by the test and
// which records every command. Seek and volume writes are reflected in
// later telemetry reads.
type recordingPlayer struct {
	mu    sync.Mutex
	tel   Telemetry
	calls []playerCall
	fail  map[string]error
	trace *[]string
}

func newRecordingPlayer(tel Telemetry) *recordingPlayer {
	return &recordingPlayer{tel: tel, fail: map[string]error{}}
}

func boolPtr(b bool) *bool { return &b }

func (p *recordingPlayer) record(op string, arg float64) error {
	p.calls = append(p.calls, playerCall{op: op, arg: arg})
	if p.trace != nil {
		*p.trace = append(*p.trace, fmt.Sprintf("%s:%g", op, arg))
	}
	return p.fail[op]
}

func (p *recordingPlayer) Telemetry() Telemetry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tel
}

func (p *recordingPlayer) set(fn func(*Telemetry)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.tel)
}

func (p *recordingPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tel.Playing = true
	return p.record("play", 0)
}

func (p *recordingPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tel.Playing = false
	return p.record("pause", 0)
}

func (p *recordingPlayer) SeekTo(actual float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("seekTo", actual); err != nil {
		return err
	}
	p.tel.CurrentTime = actual
	return nil
}

func (p *recordingPlayer) SetVolume(v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("setVolume", v); err != nil {
		return err
	}
	p.tel.Volume = v
	return nil
}

func (p *recordingPlayer) Mute() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tel.Muted = boolPtr(true)
	return p.record("mute", 0)
}

func (p *recordingPlayer) UnMute() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tel.Muted = boolPtr(false)
	return p.record("unMute", 0)
}

// callsOf returns the recorded calls of op.
func (p *recordingPlayer) callsOf(op string) []playerCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []playerCall
	for _, c := range p.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (p *recordingPlayer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}
