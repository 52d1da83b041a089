// Package engconfig persists engine-level preferences, adapted directly
// from the teacher's internal/config package: same Default/Path/Load/Save
// shape, same "never error, fall back to defaults" Load contract. The
// original C++ engine has no settings layer of its own (callers configure
// it in-process); this is new content added so a complete Go service
// wrapping the core has somewhere to keep its preferences, built the way
// the teacher already shows.
package engconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds persistent engine preferences.
type Config struct {
	OutputDeviceIndex int     `json:"output_device_index"`
	SampleRate        int     `json:"sample_rate"`
	BufferFrames      int     `json:"buffer_frames"`
	MasterVolume      float64 `json:"master_volume"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		OutputDeviceIndex: -1,
		SampleRate:        48000,
		BufferFrames:      1024,
		MasterVolume:      1.0,
	}
}

// Path returns the absolute path to the config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mixcore", "engine.json"), nil
}

// Load reads the config file and returns it. If the file is missing or
// unreadable, the default config is returned — never an error.
func Load() Config {
	path, err := Path()
	if err != nil {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default()
	}
	return cfg
}

// Save writes cfg to disk, creating the directory if needed.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
