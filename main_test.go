package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/cloudreplay/internal/config"
)

func resetFlags(t *testing.T) {
	t.Helper()
	*sensorDir = ""
	*frameExt = ""
	*listen = ""
	*channel = ""
	*syncDelay = -1
	*loopGap = -1
	*historyDepth = 0
	*maxClients = 0
}

func TestMergeSettingsDefaults(t *testing.T) {
	resetFlags(t)

	s := mergeSettings(config.EmptyReplayConfig())

	assert.Equal(t, "velodyne_points", s.sensorDir)
	assert.Equal(t, ".bin", s.frameExt)
	assert.Equal(t, "localhost:50051", s.listen)
	assert.Equal(t, "pointcloud", s.channel)
	assert.Equal(t, 2*time.Second, s.syncDelay)
	assert.Equal(t, 100*time.Millisecond, s.loopGap)
	assert.Equal(t, 2, s.historyDepth)
	assert.Equal(t, 5, s.maxClients)
}

func TestMergeSettingsConfigFileValues(t *testing.T) {
	resetFlags(t)

	dir := "lidar_scans"
	gap := "250ms"
	depth := 4
	cfg := &config.ReplayConfig{SensorDir: &dir, LoopGap: &gap, HistoryDepth: &depth}

	s := mergeSettings(cfg)
	assert.Equal(t, "lidar_scans", s.sensorDir)
	assert.Equal(t, 250*time.Millisecond, s.loopGap)
	assert.Equal(t, 4, s.historyDepth)
	// Unset fields stay at defaults.
	assert.Equal(t, "pointcloud", s.channel)
}

func TestMergeSettingsFlagsOverrideConfig(t *testing.T) {
	resetFlags(t)

	dir := "lidar_scans"
	gap := "250ms"
	cfg := &config.ReplayConfig{SensorDir: &dir, LoopGap: &gap}

	*sensorDir = "hdl64"
	*channel = "scans"
	*loopGap = 0 // explicit zero beats the config value
	*maxClients = 20

	s := mergeSettings(cfg)
	assert.Equal(t, "hdl64", s.sensorDir)
	assert.Equal(t, "scans", s.channel)
	assert.Equal(t, time.Duration(0), s.loopGap)
	assert.Equal(t, 20, s.maxClients)
}
