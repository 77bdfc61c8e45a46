// Command cloudreplay replays a recorded KITTI-style point cloud dataset
// onto a named pub/sub channel, reproducing the original inter-frame
// capture cadence and looping forever.
//
// Usage:
//
//	cloudreplay -data /path/to/2011_09_26_drive_0013_sync [flags]
//
// Flags:
//
//	-data         Dataset root directory (required)
//	-sensor-dir   Sensor subdirectory under the root (default: velodyne_points)
//	-ext          Frame file extension (default: .bin)
//	-listen       Feed listen address (default: localhost:50051)
//	-channel      Output channel name (default: pointcloud)
//	-config       Optional JSON config file; flags override file values
//	-sync-delay   One-time startup synchronization delay (default: 2s)
//	-loop-gap     Wraparound delay from last frame back to first (default: 100ms)
//	-version      Print version and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/banshee-data/cloudreplay/internal/cloud"
	"github.com/banshee-data/cloudreplay/internal/config"
	"github.com/banshee-data/cloudreplay/internal/dataset"
	"github.com/banshee-data/cloudreplay/internal/fsutil"
	"github.com/banshee-data/cloudreplay/internal/playback"
	"github.com/banshee-data/cloudreplay/internal/publish"
	"github.com/banshee-data/cloudreplay/internal/version"
)

var (
	dataPath     = flag.String("data", "", "Dataset root directory (required)")
	sensorDir    = flag.String("sensor-dir", "", "Sensor subdirectory under the dataset root")
	frameExt     = flag.String("ext", "", "Frame file extension")
	listen       = flag.String("listen", "", "Feed listen address")
	channel      = flag.String("channel", "", "Output channel name")
	configPath   = flag.String("config", "", "Path to JSON config file")
	syncDelay    = flag.Duration("sync-delay", -1, "Startup synchronization delay")
	loopGap      = flag.Duration("loop-gap", -1, "Wraparound delay from last frame to first")
	historyDepth = flag.Int("history-depth", 0, "Per-client history depth")
	maxClients   = flag.Int("max-clients", 0, "Maximum concurrent subscribers")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// settings is the merged runtime configuration: config file values with
// explicit flag overrides applied on top.
type settings struct {
	sensorDir    string
	frameExt     string
	listen       string
	channel      string
	syncDelay    time.Duration
	loopGap      time.Duration
	historyDepth int
	maxClients   int
}

func mergeSettings(cfg *config.ReplayConfig) settings {
	s := settings{
		sensorDir:    cfg.GetSensorDir(),
		frameExt:     cfg.GetFrameExtension(),
		listen:       cfg.GetListenAddr(),
		channel:      cfg.GetChannel(),
		syncDelay:    cfg.GetSyncDelay(),
		loopGap:      cfg.GetLoopGap(),
		historyDepth: cfg.GetHistoryDepth(),
		maxClients:   cfg.GetMaxClients(),
	}

	if *sensorDir != "" {
		s.sensorDir = *sensorDir
	}
	if *frameExt != "" {
		s.frameExt = *frameExt
	}
	if *listen != "" {
		s.listen = *listen
	}
	if *channel != "" {
		s.channel = *channel
	}
	if *syncDelay >= 0 {
		s.syncDelay = *syncDelay
	}
	if *loopGap >= 0 {
		s.loopGap = *loopGap
	}
	if *historyDepth > 0 {
		s.historyDepth = *historyDepth
	}
	if *maxClients > 0 {
		s.maxClients = *maxClients
	}
	return s
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *dataPath == "" {
		log.Fatal("Error: -data flag is required")
	}
	log.Printf("Starting %s", version.String())

	cfg := config.EmptyReplayConfig()
	if *configPath != "" {
		loaded, err := config.LoadReplayConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	s := mergeSettings(cfg)

	fsys := fsutil.OSFileSystem{}
	sensorPath := filepath.Join(*dataPath, s.sensorDir)
	if !fsys.Exists(sensorPath) {
		log.Fatalf("Sensor directory does not exist: %s", sensorPath)
	}

	// One-time load phase. Any failure here aborts startup entirely; there
	// is no partial playback.
	timestamps, err := dataset.ReadTimestamps(fsys, filepath.Join(sensorPath, dataset.TimestampFile))
	if err != nil {
		log.Fatalf("Failed to load timestamps: %v", err)
	}

	files, err := dataset.ListFrameFiles(fsys, filepath.Join(sensorPath, "data"), s.frameExt)
	if err != nil {
		log.Fatalf("Failed to list frame files: %v", err)
	}

	summary := dataset.Summarize(timestamps)
	log.Printf("Dataset: %d frames over %.2fs, mean interval %.1fms (±%.1fms), %.1f fps",
		summary.Frames,
		summary.Duration.Seconds(),
		summary.MeanNs/1e6,
		summary.StdDevNs/1e6,
		summary.MeanRate)

	parser := dataset.NewParser(fsys)
	cache, err := cloud.BuildCache(parser, timestamps, files, cloud.BuilderOptions{
		FrameID: s.channel,
	})
	if err != nil {
		log.Fatalf("Failed to build frame cache: %v", err)
	}
	log.Printf("Frame cache ready: %d frames cached, %d skipped", cache.Len(), cache.Skipped())

	pubCfg := publish.Config{
		ListenAddr:    s.listen,
		Channel:       s.channel,
		HistoryDepth:  s.historyDepth,
		MaxClients:    s.maxClients,
		StatsInterval: 5 * time.Second,
	}
	publisher := publish.NewPublisher(pubCfg)
	if err := publisher.Start(); err != nil {
		log.Fatalf("Failed to start publisher: %v", err)
	}
	defer publisher.Stop()

	scheduler, err := playback.New(cache, publisher, playback.Options{
		LoopGap:    s.loopGap,
		StartDelay: s.syncDelay,
	})
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Playback error: %v", err)
	}
	log.Printf("Shutting down...")
}
