package memory

// NoMBC cartridges map 32KB of ROM directly at 0x0000-0x7FFF, with an
// optional 8KB of RAM that is always accessible.
func (c *Cartridge) readNoMBC(address uint16) uint8 {
	if address <= 0x7FFF {
		return c.rom[address]
	}
	if c.ramBanks == 0 {
		return 0xFF
	}
	return c.ram[int(address&0x1FFF)%len(c.ram)]
}

func (c *Cartridge) writeNoMBC(address uint16, value uint8) {
	if address <= 0x7FFF || c.ramBanks == 0 {
		return
	}
	c.ram[int(address&0x1FFF)%len(c.ram)] = value
}

// MBC1 is the first and most common MBC chip:
//   - up to 2MB ROM, 32KB RAM
//   - a 5-bit ROM bank register (0 is treated as 1) and a 2-bit secondary
//     register that provides ROM bank bits 5-6 or the RAM bank
//   - mode 1 also applies the secondary register to 0x0000-0x3FFF and to RAM.
func (c *Cartridge) readMBC1(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		bank := 0
		if c.mode == 1 {
			bank = int(c.bankHigh) << 5
		}
		return c.readROM(bank, address)
	case address <= 0x7FFF:
		return c.readROM(int(c.bankHigh)<<5|int(c.romBank), address)
	case address >= 0xA000 && address <= 0xBFFF:
		return c.readRAM(c.mbc1RAMBank(), address)
	}
	return 0xFF
}

func (c *Cartridge) writeMBC1(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		c.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		bank := uint16(value & 0x1F)
		if bank == 0 {
			bank = 1
		}
		c.romBank = bank
	case address <= 0x5FFF:
		c.bankHigh = value & 0x03
	case address <= 0x7FFF:
		c.mode = value & 0x01
	case address >= 0xA000 && address <= 0xBFFF:
		c.writeRAM(c.mbc1RAMBank(), address, value)
	}
}

func (c *Cartridge) mbc1RAMBank() int {
	if c.mode == 1 {
		return int(c.bankHigh)
	}
	return 0
}

// MBC2 has up to 256KB of ROM and 512 4-bit RAM cells built in. Address
// bit 8 selects between the RAM enable (clear) and ROM bank (set) registers.
// The RAM is mirrored across 0xA000-0xBFFF and its upper nibble reads as 1s.
func (c *Cartridge) readMBC2(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return c.readROM(0, address)
	case address <= 0x7FFF:
		return c.readROM(int(c.romBank), address)
	case address >= 0xA000 && address <= 0xBFFF:
		if !c.ramEnabled {
			return 0xFF
		}
		return c.ram[address&0x1FF] | 0xF0
	}
	return 0xFF
}

func (c *Cartridge) writeMBC2(address uint16, value uint8) {
	switch {
	case address <= 0x3FFF:
		if address&0x0100 == 0 {
			c.ramEnabled = value&0x0F == 0x0A
			return
		}
		bank := uint16(value & 0x0F)
		if bank == 0 {
			bank = 1
		}
		c.romBank = bank
	case address >= 0xA000 && address <= 0xBFFF:
		if c.ramEnabled {
			c.ram[address&0x1FF] = value & 0x0F
		}
	}
}

// MBC3 has up to 2MB ROM, 32KB RAM and an optional real time clock whose
// registers are mapped in place of RAM when bank 0x08-0x0C is selected.
// Writing 0 then 1 to 0x6000-0x7FFF latches the clock.
func (c *Cartridge) readMBC3(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return c.readROM(0, address)
	case address <= 0x7FFF:
		return c.readROM(int(c.romBank), address)
	case address >= 0xA000 && address <= 0xBFFF:
		if c.ramBank <= 0x03 {
			return c.readRAM(int(c.ramBank), address)
		}
		if c.rtc != nil && c.ramEnabled && c.ramBank <= rtcLastRegister {
			return c.rtc.Read(c.ramBank)
		}
	}
	return 0xFF
}

func (c *Cartridge) writeMBC3(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		c.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		bank := uint16(value & 0x7F)
		if bank == 0 {
			bank = 1
		}
		c.romBank = bank
	case address <= 0x5FFF:
		c.ramBank = value & 0x0F
	case address <= 0x7FFF:
		if c.latchArmed && value == 0x01 && c.rtc != nil {
			c.rtc.Latch()
		}
		c.latchArmed = value == 0x00
	case address >= 0xA000 && address <= 0xBFFF:
		if c.ramBank <= 0x03 {
			c.writeRAM(int(c.ramBank), address, value)
			return
		}
		if c.rtc != nil && c.ramEnabled && c.ramBank <= rtcLastRegister {
			c.rtc.Write(c.ramBank, value)
		}
	}
}

// MBC5 has up to 8MB ROM and 128KB RAM. The 9-bit ROM bank register is split
// over 0x2000-0x2FFF (low 8 bits) and 0x3000-0x3FFF (bit 8); bank 0 can be
// mapped at 0x4000.
func (c *Cartridge) readMBC5(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return c.readROM(0, address)
	case address <= 0x7FFF:
		return c.readROM(int(c.romBank), address)
	case address >= 0xA000 && address <= 0xBFFF:
		return c.readRAM(int(c.ramBank), address)
	}
	return 0xFF
}

func (c *Cartridge) writeMBC5(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		c.ramEnabled = value&0x0F == 0x0A
	case address <= 0x2FFF:
		c.romBank = c.romBank&0x100 | uint16(value)
	case address <= 0x3FFF:
		c.romBank = c.romBank&0xFF | uint16(value&0x01)<<8
	case address <= 0x5FFF:
		// bit 3 drives the rumble motor on rumble carts
		if c.features.rumble {
			value &= 0x07
		}
		c.ramBank = value & 0x0F
	case address >= 0xA000 && address <= 0xBFFF:
		c.writeRAM(int(c.ramBank), address, value)
	}
}
