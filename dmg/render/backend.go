// Package render presents emulator frames on a host and turns host input
// into joypad events.
package render

import (
	"github.com/valerio/go-dmg/dmg/cpu"
	"github.com/valerio/go-dmg/dmg/memory"
	"github.com/valerio/go-dmg/dmg/video"
)

// Backend represents a host platform the emulator runs on.
// Backends are responsible for:
//   - presenting frames on their output (terminal, SDL window, files)
//   - translating platform input into joypad events
//   - backend specific features such as snapshots and debug panels
type Backend interface {
	// Init configures the backend, it must be called before Update.
	Init(config Config) error

	// Update presents a completed frame and returns the input received
	// since the previous call.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup releases the host resources.
	Cleanup() error
}

// Config holds configuration shared by all backends.
type Config struct {
	Title       string
	Scale       int
	ShowDebug   bool          // backends may ignore unsupported features
	SnapshotDir string        // where snapshots taken on demand are written
	Debug       DebugProvider // optional, feeds debug panels
	Callbacks   Callbacks
}

// Callbacks let a backend reach back into the host loop.
type Callbacks struct {
	// OnQuit is called when the backend requests shutdown (window closed,
	// quit key, signal, frame limit reached).
	OnQuit func()
}

// DebugProvider exposes emulator state to debug panels.
type DebugProvider interface {
	Registers() cpu.Registers
	Disassemble(count int) []cpu.DisassemblyLine
	FrameCount() uint64
}

// EventType distinguishes key presses from releases.
type EventType uint8

const (
	Press EventType = iota
	Release
)

func (t EventType) String() string {
	if t == Press {
		return "press"
	}
	return "release"
}

// InputEvent is a joypad key changing state.
type InputEvent struct {
	Key  memory.JoypadKey
	Type EventType
}

// Joypad is the part of the emulator input events are applied to.
type Joypad interface {
	Press(key memory.JoypadKey)
	Release(key memory.JoypadKey)
}

// Apply forwards events to the joypad in order.
func Apply(events []InputEvent, joypad Joypad) {
	for _, ev := range events {
		switch ev.Type {
		case Press:
			joypad.Press(ev.Key)
		case Release:
			joypad.Release(ev.Key)
		}
	}
}
