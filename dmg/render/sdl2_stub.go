//go:build !sdl2

package render

import (
	"errors"

	"github.com/valerio/go-dmg/dmg/video"
)

// ErrSDL2Unavailable is returned by the SDL2 backend in builds without SDL2.
var ErrSDL2Unavailable = errors.New("SDL2 backend not available, build with -tags sdl2 to enable")

// SDL2 stub for when SDL2 is not available.
type SDL2 struct{}

func NewSDL2() *SDL2 {
	return &SDL2{}
}

// Available reports whether the binary was built with SDL2 support.
func Available() bool { return false }

func (s *SDL2) Init(config Config) error {
	return ErrSDL2Unavailable
}

func (s *SDL2) Update(frame *video.FrameBuffer) ([]InputEvent, error) {
	return nil, ErrSDL2Unavailable
}

func (s *SDL2) Cleanup() error {
	return nil
}
