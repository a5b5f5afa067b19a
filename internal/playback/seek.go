package playback

import "time"

// SeekState is the phase of the seek control.
type SeekState int

const (
	// SeekIdle mirrors player telemetry.
	SeekIdle SeekState = iota
	// SeekDragging buffers the user's scrub value, decoupled from telemetry.
	SeekDragging
)

func (s SeekState) String() string {
	if s == SeekDragging {
		return "dragging"
	}
	return "idle"
}

// seekMachine owns the drag/commit lifecycle of the seek control. It only
// tracks state; the controller turns its decisions into player commands.
type seekMachine struct {
	state SeekState
	value float64

	previewInterval time.Duration
	lastPreview     time.Time
}

func (m *seekMachine) dragging() bool {
	return m.state == SeekDragging
}

// begin enters Dragging. A repeated begin keeps the current buffer.
func (m *seekMachine) begin() {
	if m.state == SeekDragging {
		return
	}
	m.state = SeekDragging
	m.lastPreview = time.Time{}
}

// input buffers v and reports whether a live preview seek is due at now.
func (m *seekMachine) input(v float64, now time.Time) bool {
	m.value = v
	if m.state != SeekDragging {
		return false
	}
	if m.previewInterval > 0 && !m.lastPreview.IsZero() && now.Sub(m.lastPreview) < m.previewInterval {
		return false
	}
	m.lastPreview = now
	return true
}

// commit leaves Dragging and returns the value to seek to. ok is false when
// no drag was in progress, so duplicate release/blur events are no-ops.
func (m *seekMachine) commit() (v float64, ok bool) {
	if m.state != SeekDragging {
		return 0, false
	}
	m.state = SeekIdle
	return m.value, true
}

// sync mirrors telemetry into the buffer unless a drag is in progress.
func (m *seekMachine) sync(v float64) {
	if m.state == SeekDragging {
		return
	}
	m.value = v
}
