package video

import "github.com/valerio/go-dmg/dmg/bit"

// Palette is the value of one of the BGP, OBP0 or OBP1 registers: four
// 2-bit entries, entry i at bits 2i+1..2i, selecting the shade of colour i.
type Palette uint8

// Shade resolves a tile colour index (0-3) to a shade.
func (p Palette) Shade(color uint8) GBColor {
	return Shades[bit.ExtractBits(uint8(p), color*2+1, color*2)]
}
