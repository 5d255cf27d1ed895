package memory

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/valerio/go-dmg/dmg/bit"
)

const (
	entryPointAddress     = 0x100
	titleAddress          = 0x134
	titleLength           = 16
	cgbFlagAddress        = 0x143
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	versionNumberAddress  = 0x14C
	headerChecksumAddress = 0x14D
	globalChecksumAddress = 0x14E
	headerEnd             = 0x150
)

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000
)

var (
	ErrEmptyROM       = errors.New("rom image is empty")
	ErrTruncatedROM   = errors.New("rom image is truncated")
	ErrBadROMSize     = errors.New("invalid rom size code")
	ErrBadRAMSize     = errors.New("invalid ram size code")
	ErrHeaderChecksum = errors.New("header checksum mismatch")
	ErrUnsupportedMBC = errors.New("unsupported cartridge type")
)

// ramBanksBySize maps the RAM size header code to the number of 8KB banks.
// Code 0x01 (2KB) is rounded up to a single bank.
var ramBanksBySize = [...]int{0, 1, 1, 4, 16, 8}

// Header holds the fields of the cartridge header at 0x0100-0x014F.
type Header struct {
	Title          string
	CGBFlag        uint8
	CartridgeType  uint8
	ROMSizeCode    uint8
	RAMSizeCode    uint8
	Version        uint8
	HeaderChecksum uint8
	GlobalChecksum uint16

	ROMBanks int
	RAMBanks int
}

// ParseHeader decodes and validates the header of a ROM image. It checks
// that the image is large enough to hold the ROM size it declares.
func ParseHeader(rom []byte) (Header, error) {
	if len(rom) == 0 {
		return Header{}, ErrEmptyROM
	}
	if len(rom) < headerEnd {
		return Header{}, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncatedROM, len(rom), headerEnd)
	}

	h := Header{
		CGBFlag:        rom[cgbFlagAddress],
		CartridgeType:  rom[cartridgeTypeAddress],
		ROMSizeCode:    rom[romSizeAddress],
		RAMSizeCode:    rom[ramSizeAddress],
		Version:        rom[versionNumberAddress],
		HeaderChecksum: rom[headerChecksumAddress],
		GlobalChecksum: bit.Combine(rom[globalChecksumAddress], rom[globalChecksumAddress+1]),
	}

	titleLen := titleLength
	if bit.IsSet(7, h.CGBFlag) {
		titleLen--
	}
	h.Title = cleanTitle(rom[titleAddress : titleAddress+titleLen])

	if h.ROMSizeCode > 8 {
		return Header{}, fmt.Errorf("%w: 0x%02X", ErrBadROMSize, h.ROMSizeCode)
	}
	h.ROMBanks = 2 << h.ROMSizeCode
	if want := h.ROMBanks * romBankSize; len(rom) < want {
		return Header{}, fmt.Errorf("%w: %d bytes, header declares %d", ErrTruncatedROM, len(rom), want)
	}

	if int(h.RAMSizeCode) >= len(ramBanksBySize) {
		return Header{}, fmt.Errorf("%w: 0x%02X", ErrBadRAMSize, h.RAMSizeCode)
	}
	h.RAMBanks = ramBanksBySize[h.RAMSizeCode]

	return h, nil
}

// HeaderChecksum computes the checksum over 0x0134-0x014C the way the boot
// ROM does before handing control to the cartridge.
func HeaderChecksum(rom []byte) uint8 {
	var x uint8
	for _, b := range rom[titleAddress:headerChecksumAddress] {
		x = x - b - 1
	}
	return x
}

// cartridgeTypes lists the cartridge type codes that can be emulated.
var cartridgeTypes = map[uint8]cartridgeFeatures{
	0x00: {kind: NoMBC},
	0x08: {kind: NoMBC, ram: true},
	0x09: {kind: NoMBC, ram: true, battery: true},
	0x01: {kind: MBC1},
	0x02: {kind: MBC1, ram: true},
	0x03: {kind: MBC1, ram: true, battery: true},
	0x05: {kind: MBC2},
	0x06: {kind: MBC2, battery: true},
	0x0F: {kind: MBC3, timer: true, battery: true},
	0x10: {kind: MBC3, timer: true, ram: true, battery: true},
	0x11: {kind: MBC3},
	0x12: {kind: MBC3, ram: true},
	0x13: {kind: MBC3, ram: true, battery: true},
	0x19: {kind: MBC5},
	0x1A: {kind: MBC5, ram: true},
	0x1B: {kind: MBC5, ram: true, battery: true},
	0x1C: {kind: MBC5, rumble: true},
	0x1D: {kind: MBC5, rumble: true, ram: true},
	0x1E: {kind: MBC5, rumble: true, ram: true, battery: true},
}

type cartridgeFeatures struct {
	kind    MBCKind
	ram     bool
	battery bool
	timer   bool
	rumble  bool
}

func (h Header) features() (cartridgeFeatures, error) {
	f, ok := cartridgeTypes[h.CartridgeType]
	if !ok {
		return cartridgeFeatures{}, fmt.Errorf("%w: 0x%02X", ErrUnsupportedMBC, h.CartridgeType)
	}
	return f, nil
}

// Kind returns the banking controller declared by the header.
func (h Header) Kind() (MBCKind, error) {
	f, err := h.features()
	return f.kind, err
}

// cleanTitle turns the raw title bytes into a printable string: NUL bytes
// become spaces, unprintable bytes become '?', and the result is trimmed.
func cleanTitle(titleBytes []byte) string {
	runes := make([]rune, 0, len(titleBytes))
	for _, b := range titleBytes {
		r := rune(b)
		if r == 0 {
			r = ' '
		} else if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			r = '?'
		}
		runes = append(runes, r)
	}

	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}
	return title
}
