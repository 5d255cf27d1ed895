package render

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-dmg/dmg/cpu"
	"github.com/valerio/go-dmg/dmg/memory"
	"github.com/valerio/go-dmg/dmg/video"
)

type fakeDebug struct{}

func (fakeDebug) Registers() cpu.Registers { return cpu.Registers{PC: 0x0150, SP: 0xFFFE} }
func (fakeDebug) FrameCount() uint64       { return 42 }
func (fakeDebug) Disassemble(count int) []cpu.DisassemblyLine {
	return []cpu.DisassemblyLine{{Address: 0x0150, Instruction: "NOP", Length: 1}}
}

func newSimulatedTerminal(t *testing.T, config Config) (*Terminal, tcell.SimulationScreen) {
	t.Helper()

	sim := tcell.NewSimulationScreen("UTF-8")
	term := NewTerminal(NewLogBuffer(16))
	term.newScreen = func() (tcell.Screen, error) { return sim, nil }
	require.NoError(t, term.Init(config))
	sim.SetSize(220, 80)
	t.Cleanup(func() { _ = term.Cleanup() })

	return term, sim
}

func TestTerminalDrawsHalfBlocks(t *testing.T) {
	term, sim := newSimulatedTerminal(t, Config{})

	frame := video.NewFrameBuffer()
	frame.SetPixel(0, 0, video.BlackColor)
	frame.SetPixel(0, 1, video.LightGreyColor)
	frame.SetPixel(5, 143, video.DarkGreyColor)

	_, err := term.Update(frame)
	require.NoError(t, err)

	testCases := []struct {
		name       string
		x, y       int
		top, under video.GBColor
	}{
		{"first cell", 1, 1, video.BlackColor, video.LightGreyColor},
		{"white cell", 2, 1, video.WhiteColor, video.WhiteColor},
		{"last row", 6, screenRows, video.WhiteColor, video.DarkGreyColor},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _, style, _ := sim.GetContent(tc.x, tc.y)
			fg, bg, _ := style.Decompose()
			assert.Equal(t, '▀', r)
			assert.Equal(t, shadeColor(tc.top), fg)
			assert.Equal(t, shadeColor(tc.under), bg)
		})
	}
}

func TestTerminalDebugPanel(t *testing.T) {
	term, sim := newSimulatedTerminal(t, Config{ShowDebug: true, Debug: fakeDebug{}})

	_, err := term.Update(video.NewFrameBuffer())
	require.NoError(t, err)

	row := func(y int) string {
		var line []rune
		for x := panelX; x < panelX+30; x++ {
			r, _, _, _ := sim.GetContent(x, y)
			line = append(line, r)
		}
		return string(line)
	}
	assert.Contains(t, row(4), "PC 0150")
	assert.Contains(t, row(5), "frame 42")
	assert.Contains(t, row(1+debugLines+1), "0x0150: NOP")
}

func TestTerminalKeyPressAndRelease(t *testing.T) {
	term, _ := newSimulatedTerminal(t, Config{})
	start := time.Unix(1000, 0)

	term.handleKey(tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), start)
	term.handleKey(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), start)
	events := term.collect(start)
	assert.ElementsMatch(t, []InputEvent{
		{Key: memory.JoypadA, Type: Press},
		{Key: memory.JoypadUp, Type: Press},
	}, events)

	// repeats keep the key held without new events
	term.handleKey(tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), start.Add(50*time.Millisecond))
	assert.Empty(t, term.collect(start.Add(60*time.Millisecond)))

	// the arrow was not repeated and times out
	events = term.collect(start.Add(120 * time.Millisecond))
	assert.Equal(t, []InputEvent{{Key: memory.JoypadUp, Type: Release}}, events)

	events = term.collect(start.Add(200 * time.Millisecond))
	assert.Equal(t, []InputEvent{{Key: memory.JoypadA, Type: Release}}, events)
}

func TestTerminalNewestDirectionWins(t *testing.T) {
	term, _ := newSimulatedTerminal(t, Config{})
	now := time.Unix(1000, 0)

	term.handleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), now)
	term.collect(now)

	term.handleKey(tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone), now)
	events := term.collect(now)
	assert.ElementsMatch(t, []InputEvent{
		{Key: memory.JoypadRight, Type: Press},
		{Key: memory.JoypadLeft, Type: Release},
	}, events)
}

func TestTerminalQuit(t *testing.T) {
	testCases := []struct {
		name string
		ev   *tcell.EventKey
	}{
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)},
		{"q", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			quits := 0
			term, _ := newSimulatedTerminal(t, Config{Callbacks: Callbacks{OnQuit: func() { quits++ }}})

			term.handleKey(tc.ev, time.Now())
			term.handleKey(tc.ev, time.Now())
			assert.Equal(t, 1, quits)
		})
	}
}

func TestTerminalCleanupStopsPoller(t *testing.T) {
	term, sim := newSimulatedTerminal(t, Config{})

	// nobody calls Update, so the poller ends up blocked on a full channel
	require.Eventually(t, func() bool {
		sim.InjectKey(tcell.KeyRune, 'z', tcell.ModNone)
		return len(term.events) == cap(term.events)
	}, time.Second, time.Millisecond)

	cleaned := make(chan struct{})
	go func() {
		_ = term.Cleanup()
		close(cleaned)
	}()

	select {
	case <-cleaned:
	case <-time.After(time.Second):
		t.Fatal("Cleanup did not return")
	}
}
