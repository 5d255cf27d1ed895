package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-dmg/dmg"
)

func defaultSavePath(romPath string) string {
	return strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav"
}

// loadBattery restores cartridge RAM from path. A missing file is not an error.
func loadBattery(emu *dmg.Emulator, path string) error {
	if emu.BatteryRAM() == nil {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return emu.LoadBatteryRAM(data)
}

// storeBattery writes cartridge RAM to path, through a temporary file so an
// interrupted write never truncates an existing save.
func storeBattery(emu *dmg.Emulator, path string) error {
	data := emu.BatteryRAM()
	if data == nil {
		return nil
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace save: %w", err)
	}
	return nil
}
