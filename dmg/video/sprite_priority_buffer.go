package video

// SpritePriorityBuffer manages sprite-to-pixel ownership for DMG sprite
// priority, see https://gbdev.io/pandocs/OAM.html#drawing-priority.
//
// The PPU enforces strict priority rules:
//   - sprites with lower X coordinates have priority
//   - when X coordinates match, lower OAM indices win.
//
// Example: overlap with same X coordinates
//
//	Pixels:    10 11 12 13 14 15 16 17 18 19 20 21 22 23 24 25
//	Sprite 1:           [-----D-----]                          (X=12, OAM=1)
//	Sprite 3:           [-----C-----]                          (X=12, OAM=3)
//	Sprite 5:  [-----E-----]                                   (X=10, OAM=5)
//	Result:    [-----E-----]--D-----]
//
// Only opaque pixels are claimed: where the winning sprite is transparent,
// a lower priority sprite underneath is visible.
//
// Instead of sorting sprites by priority, each sprite tries to claim the
// pixels it covers, in OAM order. A claim succeeds when the pixel is unowned
// or the sprite beats the current owner. The compositor then draws the
// winner of every pixel.
type SpritePriorityBuffer struct {
	// ownerIndex tracks which sprite (by OAM index) owns each pixel
	// -1 means no sprite owns this pixel
	ownerIndex [FramebufferWidth]int

	// ownerX tracks the X coordinate of the sprite that owns each pixel
	ownerX [FramebufferWidth]int

	// ownerSlot is the position of the owner in the scanline sprite list
	ownerSlot [FramebufferWidth]int

	// color is the owner's colour index (1-3) at that pixel
	color [FramebufferWidth]uint8
}

// Clear resets the buffer for a new scanline
func (s *SpritePriorityBuffer) Clear() {
	for i := range FramebufferWidth {
		s.ownerIndex[i] = -1
		s.ownerX[i] = 0xFF // max value ensures any sprite wins initially
		s.ownerSlot[i] = -1
		s.color[i] = 0
	}
}

// TryClaimPixel attempts to claim ownership of a pixel for a sprite.
// Returns true if the sprite wins priority and claims the pixel.
// Priority rules:
//  1. Transparent pixels (colour 0) never claim
//  2. If no sprite owns the pixel, this sprite wins
//  3. If this sprite has a lower X coordinate, it wins
//  4. If X coordinates match, lower OAM index wins
func (s *SpritePriorityBuffer) TryClaimPixel(pixelX, slot int, sprite *Sprite, color uint8) bool {
	if pixelX < 0 || pixelX >= FramebufferWidth || color == 0 {
		return false
	}

	currentOwner := s.ownerIndex[pixelX]
	currentX := s.ownerX[pixelX]

	wins := currentOwner == -1 ||
		sprite.X < currentX ||
		(sprite.X == currentX && sprite.OAMIndex < currentOwner)
	if !wins {
		return false
	}

	s.ownerIndex[pixelX] = sprite.OAMIndex
	s.ownerX[pixelX] = sprite.X
	s.ownerSlot[pixelX] = slot
	s.color[pixelX] = color
	return true
}

// Winner returns the scanline slot and colour index of the pixel owner,
// slot is -1 when no sprite is drawn there.
func (s *SpritePriorityBuffer) Winner(pixelX int) (slot int, color uint8) {
	return s.ownerSlot[pixelX], s.color[pixelX]
}
