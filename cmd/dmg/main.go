package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/valerio/go-dmg/dmg"
	"github.com/valerio/go-dmg/dmg/render"
	"github.com/valerio/go-dmg/dmg/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "dmg"
	app.Description = "A Game Boy (DMG) emulator"
	app.Usage = "dmg [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.BoolTFlag{
			Name:  "skip-boot",
			Usage: "Start at the cartridge entry point in post-boot state (use --skip-boot=false to run a boot ROM)",
		},
		cli.StringFlag{
			Name:  "boot-rom",
			Usage: "Path to a 256 byte DMG boot ROM, required with --skip-boot=false",
		},
		cli.BoolFlag{
			Name:  "skip-checksum",
			Usage: "Accept ROMs with a bad header checksum",
		},
		cli.StringFlag{
			Name:  "save-file",
			Usage: "Battery save file (default: the ROM path with a .sav extension)",
		},
		cli.BoolFlag{
			Name:  "info",
			Usage: "Print the cartridge header and exit",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without any output",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (0 = until interrupted)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save PNG snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save snapshots to (default: temp directory)",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window and snapshot scale factor",
			Value: 1,
		},
		cli.BoolFlag{
			Name:  "sdl",
			Usage: "Render in an SDL2 window (requires a build with -tags sdl2)",
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "Log every executed instruction (implies --debug)",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging and the terminal debug panel",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	romPath := c.Args().First()
	if romPath == "" {
		cli.ShowAppHelp(c)
		return errors.New("no ROM path provided")
	}

	level := slog.LevelInfo
	if c.Bool("debug") || c.Bool("trace") {
		level = slog.LevelDebug
	}

	mode := chooseMode(c)

	// the terminal backend owns the tty, logs are shown in its side panel
	var logs *render.LogBuffer
	var handler slog.Handler
	if mode == modeTerminal {
		logs = render.NewLogBuffer(200)
		handler = render.NewLogBufferHandler(logs, level)
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	opts := []dmg.Option{dmg.WithLogger(logger)}
	if c.Bool("skip-checksum") {
		opts = append(opts, dmg.WithSkipChecksum())
	}
	if c.Bool("trace") {
		opts = append(opts, dmg.WithTrace())
	}
	if path := c.String("boot-rom"); path != "" {
		boot, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read boot rom: %w", err)
		}
		opts = append(opts, dmg.WithBootROM(boot))
	}

	emu, err := dmg.NewWithFile(romPath, c.BoolT("skip-boot"), opts...)
	if err != nil {
		return err
	}

	if c.Bool("info") {
		return printInfo(c.App.Writer, emu)
	}

	savePath := c.String("save-file")
	if savePath == "" {
		savePath = defaultSavePath(romPath)
	}
	if err := loadBattery(emu, savePath); err != nil {
		logger.Warn("ignoring battery save", "path", savePath, "error", err)
	}
	defer func() {
		if err := storeBattery(emu, savePath); err != nil {
			logger.Error("failed to write battery save", "path", savePath, "error", err)
		}
	}()

	config := render.Config{
		Title:     "dmg - " + emu.Header().Title,
		Scale:     c.Int("scale"),
		ShowDebug: c.Bool("debug"),
		Debug:     emu,
	}

	var backend render.Backend
	switch mode {
	case modeSDL:
		backend = render.NewSDL2()
	case modeTerminal:
		backend = render.NewTerminal(logs)
	default:
		snapshots, err := render.NewSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath)
		if err != nil {
			return err
		}
		backend = render.NewHeadless(c.Int("frames"), snapshots, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := timing.NewNoOpLimiter()
	if mode != modeHeadless {
		limiter = timing.NewSleepLimiter()
	}

	return run(ctx, emu, backend, config, limiter)
}

type runMode int

const (
	modeHeadless runMode = iota
	modeTerminal
	modeSDL
)

func chooseMode(c *cli.Context) runMode {
	switch {
	case c.Bool("headless"):
		return modeHeadless
	case c.Bool("sdl"):
		return modeSDL
	case !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())):
		slog.Warn("not running in a terminal, falling back to headless mode")
		return modeHeadless
	default:
		return modeTerminal
	}
}

// run drives the emulator one frame at a time until the backend asks to
// quit, the context is cancelled or emulation fails.
func run(ctx context.Context, emu *dmg.Emulator, backend render.Backend, config render.Config, limiter timing.Limiter) error {
	quit := false
	config.Callbacks.OnQuit = func() { quit = true }

	if err := backend.Init(config); err != nil {
		return err
	}
	defer backend.Cleanup()

	limiter.Reset()
	for !quit {
		if err := emu.RunFrame(); err != nil {
			return err
		}

		events, err := backend.Update(emu.Frame())
		if err != nil {
			return err
		}
		render.Apply(events, emu)

		select {
		case <-ctx.Done():
			return nil
		default:
		}
		limiter.WaitForNextFrame()
	}
	return nil
}

func printInfo(w io.Writer, emu *dmg.Emulator) error {
	h := emu.Header()
	_, err := fmt.Fprintf(w,
		"title:          %s\ncartridge type: 0x%02X\nrom banks:      %d\nram banks:      %d\nversion:        %d\ncgb flag:       0x%02X\nchecksum:       0x%02X\n",
		h.Title, h.CartridgeType, h.ROMBanks, h.RAMBanks, h.Version, h.CGBFlag, h.HeaderChecksum)
	return err
}
