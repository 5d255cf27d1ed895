package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildROM creates an image of the size declared by romCode where every
// byte of a bank holds the bank number, with a valid header in bank 0.
func buildROM(cartType, romCode, ramCode uint8) []byte {
	rom := make([]byte, (2<<romCode)*romBankSize)
	for i := range rom {
		rom[i] = uint8(i / romBankSize)
	}
	for i := entryPointAddress; i < headerEnd; i++ {
		rom[i] = 0
	}
	copy(rom[titleAddress:], "TESTROM")
	rom[cartridgeTypeAddress] = cartType
	rom[romSizeAddress] = romCode
	rom[ramSizeAddress] = ramCode
	rom[headerChecksumAddress] = HeaderChecksum(rom)
	return rom
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func TestParseHeader(t *testing.T) {
	rom := buildROM(0x03, 0x02, 0x03)

	h, err := ParseHeader(rom)

	require.NoError(t, err)
	assert.Equal(t, "TESTROM", h.Title)
	assert.Equal(t, uint8(0x03), h.CartridgeType)
	assert.Equal(t, 8, h.ROMBanks)
	assert.Equal(t, 4, h.RAMBanks)

	kind, err := h.Kind()
	require.NoError(t, err)
	assert.Equal(t, MBC1, kind)
}

func TestParseHeader_cgbTitle(t *testing.T) {
	rom := buildROM(0x00, 0x00, 0x00)
	copy(rom[titleAddress:], "ABCDEFGHIJKLMNOP")
	rom[cgbFlagAddress] = 0x80

	h, err := ParseHeader(rom)

	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGHIJKLMNO", h.Title)
}

func TestNewCartridge_errors(t *testing.T) {
	withType := func(cartType uint8) []byte {
		return buildROM(cartType, 0x00, 0x00)
	}
	badChecksum := buildROM(0x00, 0x00, 0x00)
	badChecksum[headerChecksumAddress]++
	badROMCode := buildROM(0x00, 0x00, 0x00)
	badROMCode[romSizeAddress] = 0x09
	badRAMCode := buildROM(0x00, 0x00, 0x00)
	badRAMCode[ramSizeAddress] = 0x06

	tests := []struct {
		name string
		rom  []byte
		want error
	}{
		{"empty", nil, ErrEmptyROM},
		{"ten bytes", make([]byte, 10), ErrTruncatedROM},
		{"shorter than declared", buildROM(0x01, 0x02, 0x00)[:4*romBankSize], ErrTruncatedROM},
		{"bad rom size code", badROMCode, ErrBadROMSize},
		{"bad ram size code", badRAMCode, ErrBadRAMSize},
		{"bad checksum", badChecksum, ErrHeaderChecksum},
		{"unsupported type", withType(0xFC), ErrUnsupportedMBC},
		{"MBC6", withType(0x20), ErrUnsupportedMBC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := NewCartridge(tt.rom)

			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, cart)
		})
	}
}

func TestNewCartridge_skipChecksum(t *testing.T) {
	rom := buildROM(0x00, 0x00, 0x00)
	rom[headerChecksumAddress]++

	cart, err := NewCartridge(rom, WithSkipChecksum())

	require.NoError(t, err)
	assert.Equal(t, NoMBC, cart.Kind())
}

func TestNoMBC(t *testing.T) {
	cart, err := NewCartridge(buildROM(0x08, 0x00, 0x02))
	require.NoError(t, err)

	assert.Equal(t, uint8(1), cart.Read(0x4000))

	// ROM writes are ignored, RAM needs no enable
	cart.Write(0x4000, 0x42)
	assert.Equal(t, uint8(1), cart.Read(0x4000))
	cart.Write(0xA123, 0x42)
	assert.Equal(t, uint8(0x42), cart.Read(0xA123))

	romOnly, err := NewCartridge(buildROM(0x00, 0x00, 0x00))
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), romOnly.Read(0xA000))
}

func TestMBC1(t *testing.T) {
	t.Run("ROM bank switching", func(t *testing.T) {
		cart, err := NewCartridge(buildROM(0x01, 0x01, 0x00)) // 4 banks
		require.NoError(t, err)

		tests := []struct {
			name  string
			value uint8
			bank  uint8
		}{
			{"bank 2", 0x02, 2},
			{"bank 3", 0x03, 3},
			{"zero maps to 1", 0x00, 1},
			{"wraps around the bank count", 0x05, 1},
			{"wraps to bank 3", 0x07, 3},
			{"upper bits ignored", 0xE2, 2},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cart.Write(0x2000, tt.value)
				assert.Equal(t, tt.bank, cart.Read(0x4000))
				assert.Equal(t, uint8(0), cart.Read(0x0000))
			})
		}
	})

	t.Run("secondary register", func(t *testing.T) {
		cart, err := NewCartridge(buildROM(0x01, 0x05, 0x00)) // 64 banks
		require.NoError(t, err)

		cart.Write(0x4000, 0x01)
		assert.Equal(t, uint8(0x21), cart.Read(0x4000))
		assert.Equal(t, uint8(0x00), cart.Read(0x0000), "mode 0 keeps bank 0 fixed")

		cart.Write(0x6000, 0x01)
		assert.Equal(t, uint8(0x20), cart.Read(0x0000), "mode 1 applies the secondary register")
	})

	t.Run("RAM banking", func(t *testing.T) {
		cart, err := NewCartridge(buildROM(0x03, 0x00, 0x03)) // 4 RAM banks
		require.NoError(t, err)

		assert.Equal(t, uint8(0xFF), cart.Read(0xA000), "disabled by default")
		cart.Write(0xA000, 0x42)
		assert.Equal(t, uint8(0xFF), cart.Read(0xA000))

		cart.Write(0x0000, 0x0A)
		cart.Write(0xA000, 0x42)
		assert.Equal(t, uint8(0x42), cart.Read(0xA000))

		cart.Write(0x6000, 0x01)
		cart.Write(0x4000, 0x02)
		assert.Equal(t, uint8(0x00), cart.Read(0xA000))
		cart.Write(0xA000, 0x99)

		cart.Write(0x6000, 0x00)
		assert.Equal(t, uint8(0x42), cart.Read(0xA000))
		assert.Equal(t, uint8(0x99), cart.RAM()[2*ramBankSize])

		cart.Write(0x0000, 0x00)
		assert.Equal(t, uint8(0xFF), cart.Read(0xA000))
	})
}

func TestMBC2(t *testing.T) {
	cart, err := NewCartridge(buildROM(0x05, 0x02, 0x00))
	require.NoError(t, err)

	cart.Write(0x2100, 0x03)
	assert.Equal(t, uint8(3), cart.Read(0x4000))
	cart.Write(0x2100, 0x00)
	assert.Equal(t, uint8(1), cart.Read(0x4000))

	// bit 8 clear: RAM enable
	cart.Write(0x0000, 0x0A)
	cart.Write(0xA000, 0xAB)
	assert.Equal(t, uint8(0xFB), cart.Read(0xA000), "upper nibble reads as 1s")
	assert.Equal(t, uint8(0xFB), cart.Read(0xA200), "mirrored every 512 bytes")
	assert.Len(t, cart.RAM(), 512)
}

func TestMBC3(t *testing.T) {
	cart, err := NewCartridge(buildROM(0x13, 0x03, 0x03)) // 16 banks
	require.NoError(t, err)

	cart.Write(0x2000, 0x0A)
	assert.Equal(t, uint8(10), cart.Read(0x4000))
	cart.Write(0x2000, 0x00)
	assert.Equal(t, uint8(1), cart.Read(0x4000))
	cart.Write(0x2000, 0x11)
	assert.Equal(t, uint8(1), cart.Read(0x4000), "0x11 wraps to 1 over 16 banks")

	cart.Write(0x0000, 0x0A)
	cart.Write(0x4000, 0x01)
	cart.Write(0xA000, 0x55)
	cart.Write(0x4000, 0x00)
	assert.Equal(t, uint8(0x00), cart.Read(0xA000))
	cart.Write(0x4000, 0x01)
	assert.Equal(t, uint8(0x55), cart.Read(0xA000))

	// no clock on this cartridge
	cart.Write(0x4000, 0x08)
	assert.Equal(t, uint8(0xFF), cart.Read(0xA000))
}

func TestMBC3_RTC(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cart, err := NewCartridge(buildROM(0x10, 0x00, 0x03), WithClock(clock))
	require.NoError(t, err)

	latch := func() {
		cart.Write(0x6000, 0x00)
		cart.Write(0x6000, 0x01)
	}
	readRegister := func(reg uint8) uint8 {
		cart.Write(0x4000, reg)
		return cart.Read(0xA000)
	}

	cart.Write(0x0000, 0x0A)
	latch()
	assert.Equal(t, uint8(0), readRegister(rtcSeconds))

	clock.now = clock.now.Add(24*time.Hour + time.Hour + 2*time.Minute + 3*time.Second)
	assert.Equal(t, uint8(0), readRegister(rtcSeconds), "reads see the latched value")

	latch()
	assert.Equal(t, uint8(3), readRegister(rtcSeconds))
	assert.Equal(t, uint8(2), readRegister(rtcMinutes))
	assert.Equal(t, uint8(1), readRegister(rtcHours))
	assert.Equal(t, uint8(1), readRegister(rtcDaysLow))
	assert.Equal(t, uint8(0), readRegister(rtcDaysHigh))

	// halt the clock
	cart.Write(0x4000, rtcDaysHigh)
	cart.Write(0xA000, 0x40)
	clock.now = clock.now.Add(10 * time.Second)
	latch()
	assert.Equal(t, uint8(3), readRegister(rtcSeconds))
	assert.Equal(t, uint8(0x40), readRegister(rtcDaysHigh))

	// RAM banks are still reachable
	cart.Write(0x4000, 0x00)
	cart.Write(0xA000, 0x77)
	assert.Equal(t, uint8(0x77), cart.Read(0xA000))
}

func TestRTC_dayOverflow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	rtc := NewRTC(clock)

	clock.now = clock.now.Add(513 * 24 * time.Hour)
	rtc.Latch()

	assert.Equal(t, uint8(1), rtc.Read(rtcDaysLow))
	assert.Equal(t, uint8(0x80), rtc.Read(rtcDaysHigh), "carry set, day bit 8 clear")
}

func TestMBC5(t *testing.T) {
	cart, err := NewCartridge(buildROM(0x1B, 0x02, 0x03)) // 8 banks
	require.NoError(t, err)

	cart.Write(0x2000, 0x03)
	assert.Equal(t, uint8(3), cart.Read(0x4000))

	cart.Write(0x3000, 0x01)
	assert.Equal(t, uint8(3), cart.Read(0x4000), "bank 0x103 wraps over 8 banks")

	cart.Write(0x3000, 0x00)
	cart.Write(0x2000, 0x00)
	assert.Equal(t, uint8(0), cart.Read(0x4000), "bank 0 can be mapped high")

	cart.Write(0x0000, 0x0A)
	cart.Write(0x4000, 0x03)
	cart.Write(0xA000, 0x12)
	cart.Write(0x4000, 0x00)
	assert.Equal(t, uint8(0x00), cart.Read(0xA000))
	cart.Write(0x4000, 0x03)
	assert.Equal(t, uint8(0x12), cart.Read(0xA000))
	assert.True(t, cart.HasBattery())
}

func TestCartridge_LoadRAM(t *testing.T) {
	cart, err := NewCartridge(buildROM(0x03, 0x00, 0x02))
	require.NoError(t, err)

	assert.Error(t, cart.LoadRAM(make([]byte, 10)))

	save := make([]byte, ramBankSize)
	save[0] = 0x5A
	require.NoError(t, cart.LoadRAM(save))

	cart.Write(0x0000, 0x0A)
	assert.Equal(t, uint8(0x5A), cart.Read(0xA000))
}

func TestMBCKind_String(t *testing.T) {
	assert.Equal(t, "ROM ONLY", NoMBC.String())
	assert.Equal(t, "MBC3", MBC3.String())
	assert.Equal(t, "MBCKind(9)", MBCKind(9).String())
}
