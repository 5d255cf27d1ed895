// Package serial provides the device plugged into the link port.
package serial

import (
	"log/slog"
	"strings"

	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/bit"
)

// cyclesPerByte is how long an internally clocked transfer takes on DMG
// (8 bits at 8192 Hz).
const cyclesPerByte = 4096

// LogSink implements a dummy serial device that just logs outgoing bytes as text.
// Handy for debugging test roms that output to serial.
type LogSink struct {
	sb, sc         byte
	transferActive bool
	countdown      int
	pending        addr.Interrupt
	logger         *slog.Logger

	// settings
	immediate bool
	defaultRX byte // value shifted in from the (absent) peer

	line   []byte
	output strings.Builder
}

type LogSinkOption func(*LogSink)

// WithFixedTiming sets the sink to complete transfers after the time a real
// transfer takes instead of immediately.
func WithFixedTiming() LogSinkOption { return func(s *LogSink) { s.immediate = false } }

// WithLogger sets the logger completed lines are written to.
func WithLogger(logger *slog.Logger) LogSinkOption {
	return func(s *LogSink) { s.logger = logger }
}

// NewLogSink creates a new logging serial device.
func NewLogSink(opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		immediate: true,
		defaultRX: 0xFF,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LogSink) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		s.sb = value
	case addr.SC:
		s.sc = value
		s.maybeStartTransfer()
	}
}

func (s *LogSink) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return s.sb
	case addr.SC:
		return s.sc | 0x7E
	default:
		return 0xFF
	}
}

// Tick advances a timed transfer and returns the serial interrupt when a
// transfer has completed since the last call.
func (s *LogSink) Tick(cycles int) addr.Interrupt {
	if !s.immediate && s.transferActive {
		s.countdown -= cycles
		if s.countdown <= 0 {
			s.completeTransfer()
		}
	}

	irq := s.pending
	s.pending = 0
	return irq
}

// Output returns everything sent over the link since the sink was created.
func (s *LogSink) Output() string {
	return s.output.String()
}

func (s *LogSink) maybeStartTransfer() {
	if s.transferActive {
		return
	}
	// a transfer starts when bit 7 (start) and bit 0 (internal clock) of SC are set.
	if !bit.IsSet(7, s.sc) || !bit.IsSet(0, s.sc) {
		return
	}

	b := s.sb
	s.output.WriteByte(b)
	if b == 0 || b == '\n' || b == '\r' {
		if len(s.line) > 0 {
			s.logger.Info("serial", "line", string(s.line))
			s.line = s.line[:0]
		}
	} else {
		s.line = append(s.line, b)
	}

	if s.immediate {
		s.completeTransfer()
		return
	}

	s.transferActive = true
	s.countdown = cyclesPerByte
}

func (s *LogSink) completeTransfer() {
	s.sb = s.defaultRX
	s.sc = bit.Reset(7, s.sc)
	s.transferActive = false
	s.countdown = 0
	s.pending |= addr.SerialInterrupt
}
