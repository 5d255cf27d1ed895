package video

import "github.com/valerio/go-dmg/dmg/bit"

const (
	oamSize           = 0xA0
	spriteCount       = 40
	maxSpritesPerLine = 10
)

// Sprite represents a single object in OAM (0xFE00-0xFE9F).
type Sprite struct {
	Y         int // screen Y of the top row (OAM value - 16)
	X         int // screen X of the leftmost column (OAM value - 8)
	TileIndex uint8
	Flags     uint8
	OAMIndex  int
	Height    int // 8 or 16 pixels, from LCDC bit 2

	PaletteOBP1 bool // false = OBP0, true = OBP1
	FlipX       bool
	FlipY       bool
	BehindBG    bool // background colours 1-3 are drawn over the sprite
}

func (s *Sprite) parseFlags() {
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
}

// rowOnLine returns the tile row of the sprite drawn on the given line,
// flip applied. For 8x16 sprites rows 8-15 fall into the second tile.
func (s *Sprite) rowOnLine(line int) int {
	row := line - s.Y
	if s.FlipY {
		row = s.Height - 1 - row
	}
	return row
}

// OAM is the raw object attribute memory, 4 bytes per sprite.
type OAM [oamSize]byte

// Sprite decodes the sprite at index (0-39).
func (o *OAM) Sprite(index, height int) Sprite {
	base := index * 4
	s := Sprite{
		Y:         int(o[base]) - 16,
		X:         int(o[base+1]) - 8,
		TileIndex: o[base+2],
		Flags:     o[base+3],
		OAMIndex:  index,
		Height:    height,
	}
	s.parseFlags()
	return s
}

// ScanLine collects, in OAM order, the first 10 sprites that overlap the
// given scanline. Horizontal position plays no part in the selection, so
// off-screen sprites still count towards the limit.
func (o *OAM) ScanLine(line, height int, buf []Sprite) []Sprite {
	sprites := buf[:0]
	for i := range spriteCount {
		y := int(o[i*4]) - 16
		if line < y || line >= y+height {
			continue
		}
		sprites = append(sprites, o.Sprite(i, height))
		if len(sprites) == maxSpritesPerLine {
			break
		}
	}
	return sprites
}
