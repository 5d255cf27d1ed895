package video

import "github.com/valerio/go-dmg/dmg/bit"

// bytesPerTile is the size of an 8x8 tile in VRAM (8 rows of 2 bytes).
const bytesPerTile = 16

// TileRow represents one row of a tile pattern (8 pixels).
//
// Tiles are 8x8 pixels, with 2 bits per pixel allowing 4 colors.
// Each tile row uses 2 bytes in a bit-plane format:
//
//	Byte 1 (Low):  Bit plane 0 - provides bit 0 of each pixel's color
//	Byte 2 (High): Bit plane 1 - provides bit 1 of each pixel's color
//
// Bit 7 represents the leftmost pixel, bit 0 the rightmost:
//
//	Bit:     7 6 5 4 3 2 1 0
//	Pixel:   0 1 2 3 4 5 6 7
//
// Example: Bytes $3C and $7E represent a row:
//
//	Low  (0x3C): 0 0 1 1 1 1 0 0
//	High (0x7E): 0 1 1 1 1 1 1 0
//	            -----------------
//	Colors:      0 2 3 3 3 3 2 0
//
// The colour index is mapped to a shade by a palette register. For sprites,
// color 0 is always transparent.
type TileRow struct {
	Low  byte
	High byte
}

// GetPixel extracts a pixel color (0-3) from the tile row.
// pixelX should be 0-7, where 0 is the leftmost pixel.
func (t TileRow) GetPixel(pixelX int) uint8 {
	bitIndex := uint8(7 - pixelX)
	return bit.Value(bitIndex, t.High)<<1 | bit.Value(bitIndex, t.Low)
}

// GetPixelFlipped extracts a pixel color with horizontal flip.
func (t TileRow) GetPixelFlipped(pixelX int) uint8 {
	return t.GetPixel(7 - pixelX)
}

// tileRowAt reads the row starting at the given VRAM offset.
func (g *GPU) tileRowAt(offset int) TileRow {
	return TileRow{Low: g.vram[offset], High: g.vram[offset+1]}
}

// bgTileRow reads a background/window tile row. LCDC bit 4 picks between
// unsigned addressing from 0x8000 and signed addressing around 0x9000.
func (g *GPU) bgTileRow(tileIndex uint8, row int) TileRow {
	var base int
	if bit.IsSet(lcdcTileDataSelect, g.lcdc) {
		base = int(tileIndex) * bytesPerTile
	} else {
		base = 0x1000 + int(int8(tileIndex))*bytesPerTile
	}
	return g.tileRowAt(base + row*2)
}
