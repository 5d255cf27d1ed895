package render

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-dmg/dmg/memory"
	"github.com/valerio/go-dmg/dmg/snapshot"
	"github.com/valerio/go-dmg/dmg/video"
)

const (
	// frame rows are drawn two pixels per cell
	screenRows  = video.FramebufferHeight / 2
	dividerX    = video.FramebufferWidth + 2
	panelX      = dividerX + 2
	debugLines  = 8
	disasmLines = 8
)

// keyTimeout is how long a key counts as held after the terminal last
// reported it. Terminals only send key downs (and repeats), so releases
// are inferred.
const keyTimeout = 100 * time.Millisecond

// tcellKeyNames converts tcell keys to the names used in DefaultKeyMap.
var tcellKeyNames = map[tcell.Key]string{
	tcell.KeyEnter:   "Enter",
	tcell.KeyTab:     "Tab",
	tcell.KeyBacktab: "Shift",
	tcell.KeyUp:      "Up",
	tcell.KeyDown:    "Down",
	tcell.KeyLeft:    "Left",
	tcell.KeyRight:   "Right",
	tcell.KeyEscape:  "Escape",
	tcell.KeyF9:      "F9",
	tcell.KeyF10:     "F10",
}

// Terminal draws frames in a terminal with half block characters, so each
// cell shows two vertically stacked pixels.
type Terminal struct {
	screen    tcell.Screen
	newScreen func() (tcell.Screen, error)
	config    Config
	logs      *LogBuffer
	now       func() time.Time

	events  chan tcell.Event
	done    chan struct{} // closed by Cleanup to stop the poller
	polling sync.WaitGroup
	signals chan os.Signal
	quit    bool

	held    map[memory.JoypadKey]time.Time // last time each key was reported
	active  map[memory.JoypadKey]bool      // keys reported as pressed
	current *video.FrameBuffer
}

// NewTerminal creates a terminal backend. Log records sent to logs are shown
// next to the screen, nil disables the log panel.
func NewTerminal(logs *LogBuffer) *Terminal {
	return &Terminal{
		newScreen: tcell.NewScreen,
		logs:      logs,
		now:       time.Now,
	}
}

func (t *Terminal) Init(config Config) error {
	t.config = config
	t.held = make(map[memory.JoypadKey]time.Time)
	t.active = make(map[memory.JoypadKey]bool)

	screen, err := t.newScreen()
	if err != nil {
		return fmt.Errorf("failed to create terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()
	t.screen = screen

	t.events = make(chan tcell.Event, 64)
	t.done = make(chan struct{})
	t.polling.Add(1)
	go t.pollEvents(screen, t.done)

	t.signals = make(chan os.Signal, 1)
	signal.Notify(t.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	slog.Info("terminal backend initialized")
	return nil
}

// pollEvents feeds the event channel until the screen is finalized or
// Cleanup is called, whichever comes first.
func (t *Terminal) pollEvents(screen tcell.Screen, done <-chan struct{}) {
	defer t.polling.Done()
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case t.events <- ev:
		case <-done:
			return
		}
	}
}

func (t *Terminal) Update(frame *video.FrameBuffer) ([]InputEvent, error) {
	now := t.now()

	for drained := false; !drained; {
		select {
		case ev := <-t.events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				t.handleKey(ev, now)
			case *tcell.EventResize:
				t.screen.Sync()
			}
		case <-t.signals:
			t.requestQuit()
		default:
			drained = true
		}
	}

	events := t.collect(now)
	if t.quit {
		return events, nil
	}

	t.current = frame
	t.draw(frame)
	t.screen.Show()

	return events, nil
}

func (t *Terminal) Cleanup() error {
	if t.signals != nil {
		signal.Stop(t.signals)
	}
	if t.done != nil {
		close(t.done)
		t.done = nil
	}
	if t.screen != nil {
		t.screen.Fini()
		t.screen = nil
	}
	t.polling.Wait()
	return nil
}

func (t *Terminal) requestQuit() {
	if t.quit {
		return
	}
	t.quit = true
	if t.config.Callbacks.OnQuit != nil {
		t.config.Callbacks.OnQuit()
	}
}

func (t *Terminal) handleKey(ev *tcell.EventKey, now time.Time) {
	name, ok := tcellKeyNames[ev.Key()]
	switch {
	case ev.Key() == tcell.KeyCtrlC:
		t.requestQuit()
		return
	case ev.Key() == tcell.KeyRune:
		name, ok = string(ev.Rune()), true
	}
	if !ok {
		return
	}

	binding, ok := LookupKey(name)
	if !ok {
		return
	}

	switch binding.Command {
	case CommandQuit:
		t.requestQuit()
	case CommandSnapshot:
		t.takeSnapshot()
	case CommandDebugToggle:
		t.config.ShowDebug = !t.config.ShowDebug
		slog.Info("debug panel toggled", "visible", t.config.ShowDebug)
	case CommandNone:
		if isDirection(binding.Key) {
			// a terminal cannot report two held arrows, the newest wins
			for key := range t.held {
				if isDirection(key) {
					delete(t.held, key)
				}
			}
		}
		t.held[binding.Key] = now
	}
}

// collect turns the held key timestamps into press and release events.
func (t *Terminal) collect(now time.Time) []InputEvent {
	var events []InputEvent

	current := make(map[memory.JoypadKey]bool)
	for key, last := range t.held {
		if now.Sub(last) >= keyTimeout {
			delete(t.held, key)
			continue
		}
		current[key] = true
		if !t.active[key] {
			events = append(events, InputEvent{Key: key, Type: Press})
		}
	}
	for key := range t.active {
		if !current[key] {
			events = append(events, InputEvent{Key: key, Type: Release})
		}
	}
	t.active = current

	for _, ev := range events {
		slog.Debug("key event", "key", ev.Key, "type", ev.Type)
	}
	return events
}

func (t *Terminal) takeSnapshot() {
	if t.current == nil {
		return
	}
	dir := t.config.SnapshotDir
	if dir == "" {
		dir = "."
	}
	name := "snapshot_" + t.now().Format("20060102_150405")
	path, err := snapshot.SaveToDir(t.current, name, dir, max(t.config.Scale, 1))
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path)
}

func (t *Terminal) draw(frame *video.FrameBuffer) {
	t.screen.Clear()

	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	_, termHeight := t.screen.Size()
	for y := 0; y < termHeight; y++ {
		t.screen.SetContent(dividerX, y, '│', nil, borderStyle)
	}
	title := t.config.Title
	if title == "" {
		title = "Game Boy"
	}
	t.drawText(1, 0, " "+title+" ", titleStyle)

	t.drawFrame(frame)

	y := 1
	if t.config.ShowDebug && t.config.Debug != nil {
		y = t.drawDebug(y)
	}
	t.drawLogs(y, termHeight)
}

func (t *Terminal) drawFrame(frame *video.FrameBuffer) {
	for row := 0; row < screenRows; row++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			top := shadeColor(frame.GetPixel(x, row*2))
			bottom := shadeColor(frame.GetPixel(x, row*2+1))
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			t.screen.SetContent(x+1, row+1, '▀', nil, style)
		}
	}
}

func shadeColor(c video.GBColor) tcell.Color {
	v := int32(c)
	return tcell.NewRGBColor(v, v, v)
}

func (t *Terminal) drawDebug(y int) int {
	labelStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	textStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	regs := t.config.Debug.Registers()
	t.drawText(panelX, y, "CPU", labelStyle)
	lines := []string{
		fmt.Sprintf("AF %04X  BC %04X", regs.AF, regs.BC),
		fmt.Sprintf("DE %04X  HL %04X", regs.DE, regs.HL),
		fmt.Sprintf("SP %04X  PC %04X", regs.SP, regs.PC),
		fmt.Sprintf("frame %d", t.config.Debug.FrameCount()),
	}
	for i, line := range lines {
		t.drawText(panelX, y+1+i, line, textStyle)
	}
	y += debugLines

	t.drawText(panelX, y, "Disassembly", labelStyle)
	for i, line := range t.config.Debug.Disassemble(disasmLines) {
		style := textStyle
		if i == 0 {
			style = style.Reverse(true)
		}
		t.drawText(panelX, y+1+i, line.String(), style)
	}
	return y + disasmLines + 2
}

func (t *Terminal) drawLogs(y, termHeight int) {
	if t.logs == nil {
		return
	}
	termWidth, _ := t.screen.Size()
	width := termWidth - panelX

	for _, entry := range t.logs.Recent(termHeight - y - 1) {
		style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
		switch {
		case entry.Level >= slog.LevelError:
			style = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
		case entry.Level >= slog.LevelWarn:
			style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
		case entry.Level < slog.LevelInfo:
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		}

		text := entry.String()
		if width > 3 && len(text) > width {
			text = text[:width-3] + "..."
		}
		t.drawText(panelX, y, text, style)
		y++
	}
}

func (t *Terminal) drawText(x, y int, text string, style tcell.Style) {
	for i, ch := range []rune(text) {
		t.screen.SetContent(x+i, y, ch, nil, style)
	}
}
