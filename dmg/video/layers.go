package video

import (
	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/bit"
)

const tileMapWidth = 32

func (g *GPU) spriteHeight() int {
	if bit.IsSet(lcdcSpriteSize, g.lcdc) {
		return 16
	}
	return 8
}

// windowVisibleOnLine reports whether any window pixel is drawn on the
// current line. On DMG, clearing LCDC bit 0 hides the window too.
func (g *GPU) windowVisibleOnLine() bool {
	return bit.IsSet(lcdcBGEnable, g.lcdc) &&
		bit.IsSet(lcdcWindowEnable, g.lcdc) &&
		g.ly >= g.wy &&
		int(g.wx)-7 < FramebufferWidth
}

func (g *GPU) tileMapOffset(selectBit uint8) int {
	if bit.IsSet(selectBit, g.lcdc) {
		return int(addr.TileMap1 - addr.VRAMStart)
	}
	return int(addr.TileMap0 - addr.VRAMStart)
}

// drawScanline composites background, window and sprites for the current
// line into the back buffer.
func (g *GPU) drawScanline() {
	y := int(g.ly)
	bgEnabled := bit.IsSet(lcdcBGEnable, g.lcdc)
	windowVisible := g.windowVisibleOnLine()
	windowX := int(g.wx) - 7

	bgMap := g.tileMapOffset(lcdcBGTileMap)
	windowMap := g.tileMapOffset(lcdcWindowTileMap)
	bgY := (y + int(g.scy)) & 0xFF

	for x := range FramebufferWidth {
		var color uint8
		switch {
		case !bgEnabled:
			color = 0
		case windowVisible && x >= windowX:
			color = g.mapPixel(windowMap, x-windowX, g.windowLine)
		default:
			color = g.mapPixel(bgMap, (x+int(g.scx))&0xFF, bgY)
		}

		g.bgColor[x] = color
		if bgEnabled {
			g.back.SetPixel(x, y, g.bgp.Shade(color))
		} else {
			g.back.SetPixel(x, y, WhiteColor)
		}
	}

	if windowVisible {
		g.windowLine++
	}

	if bit.IsSet(lcdcSpriteEnable, g.lcdc) {
		g.drawSprites(y)
	}
}

// mapPixel returns the colour index of pixel (x, y) of a 256x256 tile map.
func (g *GPU) mapPixel(mapOffset, x, y int) uint8 {
	tileIndex := g.vram[mapOffset+(y/8)*tileMapWidth+x/8]
	return g.bgTileRow(tileIndex, y%8).GetPixel(x % 8)
}

func (g *GPU) drawSprites(y int) {
	g.priority.Clear()

	for slot := range g.sprites {
		s := &g.sprites[slot]
		tile := s.TileIndex
		if s.Height == 16 {
			tile &= 0xFE
		}
		row := g.tileRowAt(int(tile)*bytesPerTile + s.rowOnLine(y)*2)

		for px := range 8 {
			var color uint8
			if s.FlipX {
				color = row.GetPixelFlipped(px)
			} else {
				color = row.GetPixel(px)
			}
			g.priority.TryClaimPixel(s.X+px, slot, s, color)
		}
	}

	for x := range FramebufferWidth {
		slot, color := g.priority.Winner(x)
		if slot < 0 {
			continue
		}
		s := &g.sprites[slot]
		if s.BehindBG && g.bgColor[x] != 0 {
			continue
		}
		palette := g.obp0
		if s.PaletteOBP1 {
			palette = g.obp1
		}
		g.back.SetPixel(x, y, palette.Shade(color))
	}
}
