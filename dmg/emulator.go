// Package dmg is the emulation core: it wires the CPU, the memory bus and
// the devices behind it, and advances them one video frame at a time.
package dmg

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/valerio/go-dmg/dmg/cpu"
	"github.com/valerio/go-dmg/dmg/memory"
	"github.com/valerio/go-dmg/dmg/serial"
	"github.com/valerio/go-dmg/dmg/video"
)

// Emulator represents the root struct and entry point for running the emulation.
// An Emulator owns all of its state, separate instances never interact.
type Emulator struct {
	cpu    *cpu.CPU
	mem    *memory.MMU
	gpu    *video.GPU
	serial *serial.LogSink

	header memory.Header
	frames uint64
	cycles uint64
	halted error

	logger *slog.Logger
	trace  bool
}

type config struct {
	bootROM      []byte
	skipChecksum bool
	logger       *slog.Logger
	trace        bool
	clock        memory.Clock
}

// Option configures an Emulator.
type Option func(*config)

// WithBootROM supplies the 256 byte boot program, required when not skipping boot.
func WithBootROM(boot []byte) Option {
	return func(c *config) { c.bootROM = boot }
}

// WithSkipChecksum accepts ROMs whose header checksum does not match.
func WithSkipChecksum() Option {
	return func(c *config) { c.skipChecksum = true }
}

// WithLogger sets the logger used by the emulator and its devices.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithTrace logs every executed instruction at debug level.
func WithTrace() Option {
	return func(c *config) { c.trace = true }
}

// WithClock sets the time source of cartridges with a real time clock.
func WithClock(clock memory.Clock) Option {
	return func(c *config) { c.clock = clock }
}

// New creates an emulator with the given ROM image inserted. With skipBoot
// it starts at the cartridge entry point in the state the boot program
// leaves behind, otherwise it runs the boot program given with WithBootROM
// from address 0.
func New(rom []byte, skipBoot bool, opts ...Option) (*Emulator, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !skipBoot {
		switch {
		case len(cfg.bootROM) == 0:
			return nil, &LoadError{Err: ErrMissingBootROM}
		case len(cfg.bootROM) != memory.BootROMSize:
			return nil, &LoadError{Err: fmt.Errorf("%w: got %d bytes", ErrBadBootROM, len(cfg.bootROM))}
		}
	}

	var cartOpts []memory.CartridgeOption
	if cfg.skipChecksum {
		cartOpts = append(cartOpts, memory.WithSkipChecksum())
	}
	if cfg.clock != nil {
		cartOpts = append(cartOpts, memory.WithClock(cfg.clock))
	}
	cart, err := memory.NewCartridge(rom, cartOpts...)
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	sink := serial.NewLogSink(serial.WithLogger(cfg.logger))
	mmuOpts := []memory.MMUOption{
		memory.WithLogger(cfg.logger),
		memory.WithSerialPort(sink),
	}
	if !skipBoot {
		mmuOpts = append(mmuOpts, memory.WithBootROM(slices.Clone(cfg.bootROM)))
	}
	mem := memory.NewMMU(cart, mmuOpts...)

	e := &Emulator{
		cpu:    cpu.New(mem),
		mem:    mem,
		gpu:    mem.GPU(),
		serial: sink,
		header: cart.Header(),
		logger: cfg.logger,
		trace:  cfg.trace,
	}

	if skipBoot {
		mem.SetPostBootState()
		e.cpu.ResetPostBoot()
	}

	cfg.logger.Info("cartridge loaded",
		"title", e.header.Title,
		"kind", cart.Kind(),
		"rom_banks", e.header.ROMBanks,
		"ram_banks", e.header.RAMBanks,
		"skip_boot", skipBoot)

	return e, nil
}

// NewWithFile creates a new emulator instance and loads the file specified into it.
func NewWithFile(path string, skipBoot bool, opts ...Option) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	e, err := New(data, skipBoot, opts...)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}
	return e, nil
}

// RunFrame executes instructions until the PPU completes a frame. Once the
// CPU has halted on a fatal condition every call returns the same
// *HaltedExecutionError without advancing.
func (e *Emulator) RunFrame() error {
	if e.halted != nil {
		return e.halted
	}

	for {
		pc := e.cpu.PC()
		if e.trace {
			line := cpu.DisassembleAt(pc, e.mem)
			e.logger.Debug("exec", "pc", fmt.Sprintf("0x%04X", pc), "op", line.Instruction, "regs", e.cpu.Registers().String())
		}

		cycles, err := e.cpu.Step()
		if err != nil {
			e.halted = &HaltedExecutionError{PC: pc, Frame: e.frames, Err: err}
			e.logger.Error("execution halted", "pc", fmt.Sprintf("0x%04X", pc), "frame", e.frames, "error", err)
			return e.halted
		}
		e.cycles += uint64(cycles)

		irq := e.mem.Tick(cycles)
		irq |= e.gpu.Tick(cycles)
		if irq != 0 {
			e.mem.RequestInterrupt(irq)
		}

		if e.gpu.TakeFrame() {
			e.frames++
			return nil
		}
	}
}

// Screen returns a copy of the last completed frame: 160x144 pixels, row
// major, three equal bytes per pixel.
func (e *Emulator) Screen() []byte {
	return slices.Clone(e.gpu.Frame().ToSlice())
}

// Frame returns the last completed frame without copying. It is valid
// until the next call to RunFrame.
func (e *Emulator) Frame() *video.FrameBuffer {
	return e.gpu.Frame()
}

// Press holds down a joypad key.
func (e *Emulator) Press(key memory.JoypadKey) {
	e.mem.Joypad().Press(key)
}

// Release lets go of a joypad key.
func (e *Emulator) Release(key memory.JoypadKey) {
	e.mem.Joypad().Release(key)
}

// Header returns the header of the inserted cartridge.
func (e *Emulator) Header() memory.Header {
	return e.header
}

// FrameCount returns the number of frames completed so far.
func (e *Emulator) FrameCount() uint64 {
	return e.frames
}

// Cycles returns the number of cycles executed so far.
func (e *Emulator) Cycles() uint64 {
	return e.cycles
}

// SerialOutput returns every byte sent over the link port, as text.
func (e *Emulator) SerialOutput() string {
	return e.serial.Output()
}

// Registers returns the CPU registers.
func (e *Emulator) Registers() cpu.Registers {
	return e.cpu.Registers()
}

// Disassemble decodes count instructions starting at the current PC.
func (e *Emulator) Disassemble(count int) []cpu.DisassemblyLine {
	return cpu.DisassembleRange(e.cpu.PC(), count, e.mem)
}

// BatteryRAM returns a copy of the cartridge RAM if it is battery backed,
// nil otherwise.
func (e *Emulator) BatteryRAM() []byte {
	cart := e.mem.Cartridge()
	if !cart.HasBattery() {
		return nil
	}
	return slices.Clone(cart.RAM())
}

// LoadBatteryRAM restores cartridge RAM saved with BatteryRAM.
func (e *Emulator) LoadBatteryRAM(data []byte) error {
	return e.mem.Cartridge().LoadRAM(data)
}
