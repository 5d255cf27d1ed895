// Package snapshot turns completed frames into PNG images.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/valerio/go-dmg/dmg/video"
)

// Image converts a frame into a grayscale image, scaled up by an integer
// factor with nearest-neighbour sampling so pixels stay sharp.
func Image(frame *video.FrameBuffer, scale int) image.Image {
	src := image.NewGray(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			src.SetGray(x, y, color.Gray{Y: uint8(frame.GetPixel(x, y))})
		}
	}

	if scale <= 1 {
		return src
	}

	dst := image.NewGray(image.Rect(0, 0, video.FramebufferWidth*scale, video.FramebufferHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// WritePNG encodes a frame as PNG.
func WritePNG(w io.Writer, frame *video.FrameBuffer, scale int) error {
	return png.Encode(w, Image(frame, scale))
}

// SaveToDir writes a frame to <dir>/<baseName>.png and returns the path.
func SaveToDir(frame *video.FrameBuffer, baseName, dir string, scale int) (string, error) {
	path := filepath.Join(dir, baseName+".png")

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer file.Close()

	if err := WritePNG(file, frame, scale); err != nil {
		return "", fmt.Errorf("encode snapshot %s: %w", path, err)
	}
	return path, nil
}
