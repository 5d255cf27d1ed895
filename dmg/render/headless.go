package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-dmg/dmg/snapshot"
	"github.com/valerio/go-dmg/dmg/video"
)

// progressInterval is how often (in frames) headless runs log progress.
const progressInterval = 60

// SnapshotConfig controls the periodic snapshots of a headless run.
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // save a snapshot every N frames
	Directory string // directory snapshots are written to
	ROMName   string // prefix of snapshot file names
}

// NewSnapshotConfig creates a snapshot configuration from CLI parameters.
// An empty directory means a fresh temporary one.
func NewSnapshotConfig(interval int, directory, romPath string) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
	}
	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		dir, err := os.MkdirTemp("", "dmg-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("create snapshot directory: %w", err)
		}
		directory = dir
	} else if err := os.MkdirAll(directory, 0o755); err != nil {
		return config, fmt.Errorf("create snapshot directory: %w", err)
	}
	config.Directory = directory

	name := filepath.Base(romPath)
	config.ROMName = strings.TrimSuffix(name, filepath.Ext(name))

	return config, nil
}

// Headless runs without any output for a fixed number of frames, saving
// PNG snapshots along the way. Useful for automated tests and batch runs.
type Headless struct {
	config    Config
	maxFrames int
	snapshots SnapshotConfig
	logger    *slog.Logger

	frameCount int
	saved      []string
	done       bool
}

func NewHeadless(maxFrames int, snapshots SnapshotConfig, logger *slog.Logger) *Headless {
	if logger == nil {
		logger = slog.Default()
	}
	return &Headless{
		maxFrames: maxFrames,
		snapshots: snapshots,
		logger:    logger,
	}
}

func (h *Headless) Init(config Config) error {
	h.config = config
	h.logger.Info("running headless",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshots.Interval,
		"snapshot_dir", h.snapshots.Directory)
	return nil
}

// Update counts the frame, saves a snapshot when due and requests shutdown
// once the frame limit is reached. Headless runs never produce input.
func (h *Headless) Update(frame *video.FrameBuffer) ([]InputEvent, error) {
	if h.done {
		return nil, nil
	}
	h.frameCount++

	due := h.snapshots.Enabled && h.frameCount%h.snapshots.Interval == 0
	if due {
		h.saveSnapshot(frame)
	}

	if h.frameCount%progressInterval == 0 {
		h.logger.Info("frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	if h.maxFrames > 0 && h.frameCount >= h.maxFrames {
		// always keep the last frame
		if h.snapshots.Enabled && !due {
			h.saveSnapshot(frame)
		}
		h.done = true
		h.logger.Info("headless run completed", "frames", h.frameCount, "snapshots", len(h.saved))
		if h.config.Callbacks.OnQuit != nil {
			h.config.Callbacks.OnQuit()
		}
	}

	return nil, nil
}

func (h *Headless) Cleanup() error {
	return nil
}

// FrameCount returns the number of frames presented so far.
func (h *Headless) FrameCount() int {
	return h.frameCount
}

// Snapshots returns the paths of the snapshots saved so far.
func (h *Headless) Snapshots() []string {
	return h.saved
}

func (h *Headless) saveSnapshot(frame *video.FrameBuffer) {
	name := fmt.Sprintf("%s_frame_%d", h.snapshots.ROMName, h.frameCount)
	path, err := snapshot.SaveToDir(frame, name, h.snapshots.Directory, max(h.config.Scale, 1))
	if err != nil {
		h.logger.Error("failed to save snapshot", "frame", h.frameCount, "error", err)
		return
	}
	h.saved = append(h.saved, path)
	h.logger.Debug("snapshot saved", "path", path)
}
