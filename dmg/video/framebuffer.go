package video

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	// BytesPerPixel is 3, one byte per RGB channel, all equal.
	BytesPerPixel   = 3
	FramebufferSize = FramebufferWidth * FramebufferHeight * BytesPerPixel
)

// GBColor is one of the four shades the LCD can show, as the value of each
// RGB channel.
type GBColor uint8

const (
	WhiteColor     GBColor = 0xFF
	LightGreyColor GBColor = 0xC0
	DarkGreyColor  GBColor = 0x60
	BlackColor     GBColor = 0x00
)

// Shades maps a palette entry (0-3) to its shade, 0 being the lightest.
var Shades = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// FrameBuffer is a 160x144 RGB image, row-major, 3 bytes per pixel.
type FrameBuffer struct {
	buffer []byte
}

// NewFrameBuffer creates a white frame buffer.
func NewFrameBuffer() *FrameBuffer {
	fb := &FrameBuffer{buffer: make([]byte, FramebufferSize)}
	fb.Clear(WhiteColor)
	return fb
}

func (fb *FrameBuffer) GetPixel(x, y int) GBColor {
	return GBColor(fb.buffer[(y*FramebufferWidth+x)*BytesPerPixel])
}

func (fb *FrameBuffer) SetPixel(x, y int, color GBColor) {
	i := (y*FramebufferWidth + x) * BytesPerPixel
	fb.buffer[i] = byte(color)
	fb.buffer[i+1] = byte(color)
	fb.buffer[i+2] = byte(color)
}

// Clear fills the whole buffer with a single shade.
func (fb *FrameBuffer) Clear(color GBColor) {
	for i := range fb.buffer {
		fb.buffer[i] = byte(color)
	}
}

// ToSlice returns the underlying RGB bytes. The slice aliases the buffer.
func (fb *FrameBuffer) ToSlice() []byte {
	return fb.buffer
}
