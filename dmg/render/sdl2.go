//go:build sdl2

package render

import (
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/valerio/go-dmg/dmg/snapshot"
	"github.com/valerio/go-dmg/dmg/video"
)

// sdlKeyNames converts SDL key codes to the names used in DefaultKeyMap.
var sdlKeyNames = map[sdl.Keycode]string{
	sdl.K_z:      "z",
	sdl.K_x:      "x",
	sdl.K_w:      "w",
	sdl.K_a:      "a",
	sdl.K_s:      "s",
	sdl.K_d:      "d",
	sdl.K_q:      "q",
	sdl.K_RETURN: "Enter",
	sdl.K_TAB:    "Tab",
	sdl.K_LSHIFT: "Shift",
	sdl.K_RSHIFT: "Shift",
	sdl.K_UP:     "Up",
	sdl.K_DOWN:   "Down",
	sdl.K_LEFT:   "Left",
	sdl.K_RIGHT:  "Right",
	sdl.K_ESCAPE: "Escape",
	sdl.K_F9:     "F9",
	sdl.K_F10:    "F10",
}

// SDL2 presents frames in a window through a streaming texture.
// Note: building this requires the SDL2 development libraries. Default
// builds use a stub, see the sdl2 build tag.
type SDL2 struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	config   Config
	running  bool
	current  *video.FrameBuffer
	events   []InputEvent
}

// NewSDL2 creates an SDL2 backend.
func NewSDL2() *SDL2 {
	return &SDL2{}
}

// Available reports whether the binary was built with SDL2 support.
func Available() bool { return true }

func (s *SDL2) Init(config Config) error {
	s.config = config
	scale := int32(max(config.Scale, 1))

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("failed to initialize SDL2: %w", err)
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		video.FramebufferWidth*scale,
		video.FramebufferHeight*scale,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("failed to create window: %w", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	s.renderer = renderer

	// frames are already RGB24, they are uploaded as is
	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGB24,
		sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth,
		video.FramebufferHeight,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create texture: %w", err)
	}
	s.texture = texture

	s.running = true
	slog.Info("SDL2 backend initialized", "scale", scale)
	return nil
}

func (s *SDL2) Update(frame *video.FrameBuffer) ([]InputEvent, error) {
	if !s.running {
		return nil, nil
	}

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		s.handleEvent(event)
	}
	events := s.events
	s.events = nil

	if !s.running {
		return events, nil
	}

	s.current = frame
	pixels := frame.ToSlice()
	if err := s.texture.Update(nil, unsafe.Pointer(&pixels[0]), video.FramebufferWidth*video.BytesPerPixel); err != nil {
		return events, fmt.Errorf("failed to update texture: %w", err)
	}
	s.renderer.SetDrawColor(0, 0, 0, 0xFF)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()

	return events, nil
}

func (s *SDL2) Cleanup() error {
	slog.Info("cleaning up SDL2 backend")
	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()
	return nil
}

func (s *SDL2) handleEvent(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		s.quit()
	case *sdl.KeyboardEvent:
		// auto repeat is not a new press
		if e.Repeat != 0 {
			return
		}
		name, ok := sdlKeyNames[e.Keysym.Sym]
		if !ok {
			return
		}
		binding, ok := LookupKey(name)
		if !ok {
			return
		}
		if e.Type == sdl.KEYDOWN {
			s.keyDown(binding)
		} else if e.Type == sdl.KEYUP && binding.Command == CommandNone {
			s.events = append(s.events, InputEvent{Key: binding.Key, Type: Release})
		}
	}
}

func (s *SDL2) keyDown(binding Binding) {
	switch binding.Command {
	case CommandQuit:
		s.quit()
	case CommandSnapshot:
		s.takeSnapshot()
	case CommandDebugToggle:
		s.config.ShowDebug = !s.config.ShowDebug
		slog.Info("debug output toggled", "enabled", s.config.ShowDebug)
	case CommandNone:
		s.events = append(s.events, InputEvent{Key: binding.Key, Type: Press})
	}
}

func (s *SDL2) quit() {
	if !s.running {
		return
	}
	s.running = false
	if s.config.Callbacks.OnQuit != nil {
		s.config.Callbacks.OnQuit()
	}
}

func (s *SDL2) takeSnapshot() {
	if s.current == nil {
		return
	}
	dir := s.config.SnapshotDir
	if dir == "" {
		dir = "."
	}
	name := "snapshot_" + time.Now().Format("20060102_150405")
	path, err := snapshot.SaveToDir(s.current, name, dir, max(s.config.Scale, 1))
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path)
}
