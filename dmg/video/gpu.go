// Package video implements the pixel processing unit: the scanline state
// machine, VRAM/OAM and the framebuffers it renders into.
package video

import (
	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/bit"
)

// Mode is the PPU mode, with the values reported in STAT bits 0-1.
type Mode uint8

const (
	HBlank Mode = iota
	VBlank
	OAMScan
	PixelTransfer
)

func (m Mode) String() string {
	switch m {
	case HBlank:
		return "HBlank"
	case VBlank:
		return "VBlank"
	case OAMScan:
		return "OAMScan"
	default:
		return "PixelTransfer"
	}
}

const (
	oamScanCycles     = 80
	minTransferCycles = 172
	maxTransferCycles = 289
	spritePenalty     = 6
	windowPenalty     = 6

	// ScanlineCycles is the length of every line, visible or not.
	ScanlineCycles = 456
	visibleLines   = FramebufferHeight
	totalLines     = 154
	// FrameCycles is the length of a full frame, 154 lines.
	FrameCycles = ScanlineCycles * totalLines
)

// LCDC (LCD Control) register bits
const (
	lcdcBGEnable       = 0 // BG and window display (0=Off, 1=On)
	lcdcSpriteEnable   = 1
	lcdcSpriteSize     = 2 // 0=8x8, 1=8x16
	lcdcBGTileMap      = 3 // 0=9800-9BFF, 1=9C00-9FFF
	lcdcTileDataSelect = 4 // 0=8800-97FF, 1=8000-8FFF
	lcdcWindowEnable   = 5
	lcdcWindowTileMap  = 6 // 0=9800-9BFF, 1=9C00-9FFF
	lcdcDisplayEnable  = 7
)

// STAT interrupt source bits
const (
	statHBlankSource = 3
	statVBlankSource = 4
	statOAMSource    = 5
	statLYCSource    = 6
)

// GPU is the pixel processing unit. It owns VRAM, OAM and the video
// registers, and renders one scanline at a time into the back framebuffer.
type GPU struct {
	vram [0x2000]byte
	oam  OAM

	lcdc uint8
	stat uint8 // interrupt source bits (3-6) only
	scy  uint8
	scx  uint8
	ly   uint8
	lyc  uint8
	dma  uint8
	bgp  Palette
	obp0 Palette
	obp1 Palette
	wy   uint8
	wx   uint8

	mode           Mode
	dots           int // cycles spent in the current mode
	offDots        int // cycles counted while the LCD is off
	transferCycles int
	windowLine     int
	statLine       bool
	pendingIRQ     addr.Interrupt

	lineSprites [maxSpritesPerLine]Sprite
	sprites     []Sprite
	bgColor     [FramebufferWidth]uint8
	priority    SpritePriorityBuffer

	front      *FrameBuffer
	back       *FrameBuffer
	frameReady bool
}

// NewGPU creates a PPU with the LCD off, as at power on.
func NewGPU() *GPU {
	g := &GPU{
		front: NewFrameBuffer(),
		back:  NewFrameBuffer(),
		mode:  HBlank,
	}
	g.sprites = g.lineSprites[:0]
	return g
}

// SetPostBootState leaves the LCD on with LCDC 0x91 at the start of VBlank,
// where the boot program hands over to the cartridge.
func (g *GPU) SetPostBootState() {
	g.lcdc = 0x91
	g.ly = visibleLines
	g.mode = VBlank
	g.dots = 0
	g.windowLine = 0
	g.statLine = false
}

// Tick advances the PPU by the given number of cycles and returns the
// interrupts raised in the meantime.
func (g *GPU) Tick(cycles int) addr.Interrupt {
	irq := g.pendingIRQ
	g.pendingIRQ = 0

	if !g.lcdEnabled() {
		// keep the host fed with blank frames while the display is off
		g.offDots += cycles
		if g.offDots >= FrameCycles {
			g.offDots -= FrameCycles
			g.back.Clear(WhiteColor)
			g.swap()
		}
		return irq
	}

	g.dots += cycles
	for g.dots >= g.modeLength() {
		g.dots -= g.modeLength()
		irq |= g.advance()
	}
	return irq
}

// TakeFrame reports whether a frame was completed since the last call.
func (g *GPU) TakeFrame() bool {
	ready := g.frameReady
	g.frameReady = false
	return ready
}

// Frame returns the last completed frame. It is not modified until the
// next frame completes.
func (g *GPU) Frame() *FrameBuffer {
	return g.front
}

// Mode returns the current PPU mode.
func (g *GPU) Mode() Mode {
	return g.mode
}

// LY returns the current scanline.
func (g *GPU) LY() uint8 {
	return g.ly
}

func (g *GPU) lcdEnabled() bool {
	return bit.IsSet(lcdcDisplayEnable, g.lcdc)
}

func (g *GPU) modeLength() int {
	switch g.mode {
	case OAMScan:
		return oamScanCycles
	case PixelTransfer:
		return g.transferCycles
	case HBlank:
		return ScanlineCycles - oamScanCycles - g.transferCycles
	default:
		return ScanlineCycles
	}
}

// advance moves to the mode following the current one.
func (g *GPU) advance() addr.Interrupt {
	var irq addr.Interrupt

	switch g.mode {
	case OAMScan:
		g.sprites = g.oam.ScanLine(int(g.ly), g.spriteHeight(), g.lineSprites[:0])
		g.transferCycles = g.pixelTransferLength()
		g.mode = PixelTransfer
	case PixelTransfer:
		g.drawScanline()
		g.mode = HBlank
	case HBlank:
		g.ly++
		if g.ly == visibleLines {
			g.mode = VBlank
			g.swap()
			irq |= addr.VBlankInterrupt
		} else {
			g.mode = OAMScan
		}
	case VBlank:
		g.ly++
		if g.ly == totalLines {
			g.ly = 0
			g.windowLine = 0
			g.mode = OAMScan
		}
	}

	return irq | g.updateStatLine()
}

// pixelTransferLength approximates the mode 3 stall caused by fine
// scrolling, sprites and the window.
func (g *GPU) pixelTransferLength() int {
	n := minTransferCycles + int(g.scx%8) + spritePenalty*len(g.sprites)
	if g.windowVisibleOnLine() {
		n += windowPenalty
	}
	return min(n, maxTransferCycles)
}

func (g *GPU) swap() {
	g.front, g.back = g.back, g.front
	g.frameReady = true
}

// updateStatLine recomputes the STAT interrupt line; the interrupt fires on
// its rising edge only.
func (g *GPU) updateStatLine() addr.Interrupt {
	line := g.lcdEnabled() && ((bit.IsSet(statLYCSource, g.stat) && g.ly == g.lyc) ||
		(bit.IsSet(statHBlankSource, g.stat) && g.mode == HBlank) ||
		(bit.IsSet(statVBlankSource, g.stat) && g.mode == VBlank) ||
		(bit.IsSet(statOAMSource, g.stat) && g.mode == OAMScan))

	rising := line && !g.statLine
	g.statLine = line
	if rising {
		return addr.LCDSTATInterrupt
	}
	return 0
}

func (g *GPU) vramLocked() bool {
	return g.lcdEnabled() && g.mode == PixelTransfer
}

func (g *GPU) oamLocked() bool {
	return g.lcdEnabled() && (g.mode == OAMScan || g.mode == PixelTransfer)
}

// ReadVRAM reads 0x8000-0x9FFF as the CPU sees it, 0xFF while locked.
func (g *GPU) ReadVRAM(address uint16) uint8 {
	if g.vramLocked() {
		return 0xFF
	}
	return g.vram[address-addr.VRAMStart]
}

// WriteVRAM writes 0x8000-0x9FFF, dropped while locked.
func (g *GPU) WriteVRAM(address uint16, value uint8) {
	if g.vramLocked() {
		return
	}
	g.vram[address-addr.VRAMStart] = value
}

// ReadOAM reads 0xFE00-0xFE9F as the CPU sees it, 0xFF while locked.
func (g *GPU) ReadOAM(address uint16) uint8 {
	if g.oamLocked() {
		return 0xFF
	}
	return g.oam[address-addr.OAMStart]
}

// WriteOAM writes 0xFE00-0xFE9F, dropped while locked.
func (g *GPU) WriteOAM(address uint16, value uint8) {
	if g.oamLocked() {
		return
	}
	g.oam[address-addr.OAMStart] = value
}

// WriteOAMDirect stores into OAM regardless of the PPU mode. Used by DMA.
func (g *GPU) WriteOAMDirect(index int, value uint8) {
	g.oam[index] = value
}

// ReadRegister reads one of the registers in 0xFF40-0xFF4B.
func (g *GPU) ReadRegister(address uint16) uint8 {
	switch address {
	case addr.LCDC:
		return g.lcdc
	case addr.STAT:
		stat := 0x80 | g.stat | uint8(g.mode)
		if g.ly == g.lyc {
			stat = bit.Set(2, stat)
		}
		return stat
	case addr.SCY:
		return g.scy
	case addr.SCX:
		return g.scx
	case addr.LY:
		return g.ly
	case addr.LYC:
		return g.lyc
	case addr.DMA:
		return g.dma
	case addr.BGP:
		return uint8(g.bgp)
	case addr.OBP0:
		return uint8(g.obp0)
	case addr.OBP1:
		return uint8(g.obp1)
	case addr.WY:
		return g.wy
	case addr.WX:
		return g.wx
	}
	return 0xFF
}

// WriteRegister writes one of the registers in 0xFF40-0xFF4B. LY is read
// only; DMA only records the value, the copy is done by the bus.
func (g *GPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case addr.LCDC:
		g.writeLCDC(value)
	case addr.STAT:
		g.stat = value & 0x78
	case addr.SCY:
		g.scy = value
	case addr.SCX:
		g.scx = value
	case addr.LYC:
		g.lyc = value
	case addr.DMA:
		g.dma = value
	case addr.BGP:
		g.bgp = Palette(value)
	case addr.OBP0:
		g.obp0 = Palette(value)
	case addr.OBP1:
		g.obp1 = Palette(value)
	case addr.WY:
		g.wy = value
	case addr.WX:
		g.wx = value
	default:
		return
	}
	g.pendingIRQ |= g.updateStatLine()
}

func (g *GPU) writeLCDC(value uint8) {
	wasOn := g.lcdEnabled()
	g.lcdc = value
	isOn := g.lcdEnabled()

	switch {
	case wasOn && !isOn:
		g.ly = 0
		g.dots = 0
		g.offDots = 0
		g.mode = HBlank
		g.windowLine = 0
	case !wasOn && isOn:
		g.ly = 0
		g.dots = 0
		g.windowLine = 0
		g.mode = OAMScan
	}
}
