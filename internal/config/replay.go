package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReplayConfig represents the optional JSON configuration for the replay
// daemon. Fields omitted from the file keep their defaults, so partial
// configs are safe; command-line flags override file values.
type ReplayConfig struct {
	// Dataset layout
	SensorDir      *string `json:"sensor_dir,omitempty"`      // subdirectory under the dataset root
	FrameExtension *string `json:"frame_extension,omitempty"` // frame file extension

	// Output channel
	Channel      *string `json:"channel,omitempty"`
	ListenAddr   *string `json:"listen_addr,omitempty"`
	HistoryDepth *int    `json:"history_depth,omitempty"`
	MaxClients   *int    `json:"max_clients,omitempty"`

	// Playback timing; duration strings like "100ms"
	SyncDelay *string `json:"sync_delay,omitempty"`
	LoopGap   *string `json:"loop_gap,omitempty"`
}

// EmptyReplayConfig returns a ReplayConfig with all fields unset.
func EmptyReplayConfig() *ReplayConfig {
	return &ReplayConfig{}
}

// LoadReplayConfig loads a ReplayConfig from a JSON file. The path must
// have a .json extension and the file must be under 1MB.
func LoadReplayConfig(path string) (*ReplayConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyReplayConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ReplayConfig) Validate() error {
	if c.SyncDelay != nil && *c.SyncDelay != "" {
		if _, err := time.ParseDuration(*c.SyncDelay); err != nil {
			return fmt.Errorf("invalid sync_delay '%s': %w", *c.SyncDelay, err)
		}
	}
	if c.LoopGap != nil && *c.LoopGap != "" {
		if _, err := time.ParseDuration(*c.LoopGap); err != nil {
			return fmt.Errorf("invalid loop_gap '%s': %w", *c.LoopGap, err)
		}
	}
	if c.HistoryDepth != nil && *c.HistoryDepth < 1 {
		return fmt.Errorf("history_depth must be positive, got %d", *c.HistoryDepth)
	}
	if c.MaxClients != nil && *c.MaxClients < 1 {
		return fmt.Errorf("max_clients must be positive, got %d", *c.MaxClients)
	}
	if c.FrameExtension != nil && *c.FrameExtension != "" && (*c.FrameExtension)[0] != '.' {
		return fmt.Errorf("frame_extension must start with '.', got %q", *c.FrameExtension)
	}
	return nil
}

// GetSensorDir returns the sensor subdirectory or the default.
func (c *ReplayConfig) GetSensorDir() string {
	if c.SensorDir == nil || *c.SensorDir == "" {
		return "velodyne_points"
	}
	return *c.SensorDir
}

// GetFrameExtension returns the frame file extension or the default.
func (c *ReplayConfig) GetFrameExtension() string {
	if c.FrameExtension == nil || *c.FrameExtension == "" {
		return ".bin"
	}
	return *c.FrameExtension
}

// GetChannel returns the output channel name or the default.
func (c *ReplayConfig) GetChannel() string {
	if c.Channel == nil || *c.Channel == "" {
		return "pointcloud"
	}
	return *c.Channel
}

// GetListenAddr returns the listen address or the default.
func (c *ReplayConfig) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return "localhost:50051"
	}
	return *c.ListenAddr
}

// GetHistoryDepth returns the per-client history depth or the default.
func (c *ReplayConfig) GetHistoryDepth() int {
	if c.HistoryDepth == nil {
		return 2
	}
	return *c.HistoryDepth
}

// GetMaxClients returns the subscriber limit or the default.
func (c *ReplayConfig) GetMaxClients() int {
	if c.MaxClients == nil {
		return 5
	}
	return *c.MaxClients
}

// GetSyncDelay parses and returns the startup synchronization delay.
func (c *ReplayConfig) GetSyncDelay() time.Duration {
	if c.SyncDelay == nil || *c.SyncDelay == "" {
		return 2 * time.Second // default
	}
	d, err := time.ParseDuration(*c.SyncDelay)
	if err != nil {
		return 2 * time.Second // default on parse error
	}
	return d
}

// GetLoopGap parses and returns the wraparound delay.
func (c *ReplayConfig) GetLoopGap() time.Duration {
	if c.LoopGap == nil || *c.LoopGap == "" {
		return 100 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.LoopGap)
	if err != nil {
		return 100 * time.Millisecond // default on parse error
	}
	return d
}
