// Package publish streams replayed point cloud frames to subscribers over
// gRPC. One named output channel is registered at startup; clients open a
// server-streaming Subscribe call against it and receive every frame the
// playback scheduler publishes, subject to a short per-client history
// depth (slow clients drop frames rather than stall playback).
package publish

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/banshee-data/cloudreplay/internal/cloud"
	"github.com/banshee-data/cloudreplay/internal/monitoring"
)

// DefaultChannel is the default output channel name.
const DefaultChannel = "pointcloud"

// Config holds configuration for the replay feed server.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "localhost:50051")
	ListenAddr string

	// Channel is the registered output channel name.
	Channel string

	// HistoryDepth is the per-client buffer depth. Mirrors a keep-last
	// QoS history: a client further behind than this drops frames.
	HistoryDepth int

	// MaxClients is the maximum number of concurrent subscribers.
	MaxClients int

	// StatsInterval is how often publish statistics are logged.
	StatsInterval time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    "localhost:50051",
		Channel:       DefaultChannel,
		HistoryDepth:  2,
		MaxClients:    5,
		StatsInterval: 5 * time.Second,
	}
}

// Publisher manages the gRPC server and frame broadcasting.
type Publisher struct {
	config   Config
	server   *grpc.Server
	listener net.Listener
	logf     func(format string, v ...interface{})

	// Frame broadcasting
	frameChan chan *cloud.Message
	clients   map[string]*subscriber
	clientsMu sync.RWMutex

	// Stats
	frameCount    atomic.Uint64
	droppedFrames atomic.Uint64
	clientCount   atomic.Int32
	lastStatsTime time.Time
	lastStatsMu   sync.Mutex

	// Lifecycle
	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// subscriber represents one connected streaming client.
type subscriber struct {
	id      string
	frameCh chan *cloud.Message
	doneCh  chan struct{}
}

// NewPublisher creates a Publisher with the given configuration.
func NewPublisher(cfg Config) *Publisher {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = 2
	}
	return &Publisher{
		config:    cfg,
		logf:      monitoring.Prefixed("Publish"),
		frameChan: make(chan *cloud.Message, 100),
		clients:   make(map[string]*subscriber),
		stopCh:    make(chan struct{}),
	}
}

// Channel returns the registered output channel name.
func (p *Publisher) Channel() string { return p.config.Channel }

// Addr returns the bound listen address, useful when the configured
// address used port 0.
func (p *Publisher) Addr() string {
	if p.listener == nil {
		return p.config.ListenAddr
	}
	return p.listener.Addr().String()
}

// Start binds the listener, registers the feed service, and begins
// broadcasting.
func (p *Publisher) Start() error {
	if p.running.Load() {
		return fmt.Errorf("publisher already running")
	}

	lis, err := net.Listen("tcp", p.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", p.config.ListenAddr, err)
	}
	p.listener = lis

	// Full-resolution KITTI frames run ~2MB; 16MB leaves headroom over
	// the 4MB grpc default.
	const maxMsgSize = 16 * 1024 * 1024
	p.server = grpc.NewServer(
		grpc.ForceServerCodec(Codec{}),
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
	)
	p.server.RegisterService(&feedServiceDesc, p)

	p.running.Store(true)

	p.wg.Add(1)
	go p.broadcastLoop()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.logf("feed listening on %s, channel %q", lis.Addr(), p.config.Channel)
		if err := p.server.Serve(lis); err != nil && p.running.Load() {
			p.logf("server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully stops the server and all subscriber streams.
func (p *Publisher) Stop() {
	if !p.running.Load() {
		return
	}
	p.running.Store(false)
	close(p.stopCh)

	if p.server != nil {
		p.server.GracefulStop()
	}
	if p.listener != nil {
		p.listener.Close()
	}

	p.wg.Wait()
	p.logf("stopped: published=%d dropped=%d", p.frameCount.Load(), p.droppedFrames.Load())
}

// Publish queues one frame for broadcast to all subscribers. Returns an
// error only when the publisher is not running; a full broadcast queue
// drops the frame and counts it, because playback cadence must never
// block on transport backpressure.
func (p *Publisher) Publish(msg *cloud.Message) error {
	if !p.running.Load() {
		return fmt.Errorf("publisher not running")
	}

	select {
	case p.frameChan <- msg:
		count := p.frameCount.Add(1)
		p.logPeriodicStats(count, msg.PointCount())
	default:
		dropped := p.droppedFrames.Add(1)
		p.logf("dropped frame (total dropped: %d), broadcast queue full", dropped)
	}
	return nil
}

// logPeriodicStats logs throughput at the configured interval.
func (p *Publisher) logPeriodicStats(frameCount uint64, pointCount int) {
	if p.config.StatsInterval <= 0 {
		return
	}

	p.lastStatsMu.Lock()
	defer p.lastStatsMu.Unlock()

	now := time.Now()
	if p.lastStatsTime.IsZero() {
		p.lastStatsTime = now
		return
	}
	if now.Sub(p.lastStatsTime) >= p.config.StatsInterval {
		p.logf("stats: published=%d dropped=%d clients=%d last_frame_points=%d",
			frameCount, p.droppedFrames.Load(), p.clientCount.Load(), pointCount)
		p.lastStatsTime = now
	}
}

// broadcastLoop distributes frames to all connected subscribers.
func (p *Publisher) broadcastLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case msg := <-p.frameChan:
			p.clientsMu.RLock()
			for _, client := range p.clients {
				select {
				case client.frameCh <- msg:
				default:
					// Client slower than its history depth allows.
					p.droppedFrames.Add(1)
				}
			}
			p.clientsMu.RUnlock()
		}
	}
}

// addClient registers a new subscriber.
func (p *Publisher) addClient() (*subscriber, error) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()

	if p.config.MaxClients > 0 && len(p.clients) >= p.config.MaxClients {
		return nil, fmt.Errorf("subscriber limit reached (%d)", p.config.MaxClients)
	}

	client := &subscriber{
		id:      uuid.NewString(),
		frameCh: make(chan *cloud.Message, p.config.HistoryDepth),
		doneCh:  make(chan struct{}),
	}
	p.clients[client.id] = client
	count := p.clientCount.Add(1)
	p.logf("client connected: %s (total: %d)", client.id, count)
	return client, nil
}

// removeClient unregisters a subscriber.
func (p *Publisher) removeClient(id string) {
	p.clientsMu.Lock()
	client, ok := p.clients[id]
	if ok {
		close(client.doneCh)
		delete(p.clients, id)
	}
	p.clientsMu.Unlock()

	if ok {
		remaining := p.clientCount.Add(-1)
		p.logf("client disconnected: %s (remaining: %d)", id, remaining)
	}
}

// Stats returns current publisher statistics.
func (p *Publisher) Stats() Stats {
	return Stats{
		Published: p.frameCount.Load(),
		Dropped:   p.droppedFrames.Load(),
		Clients:   p.clientCount.Load(),
		Running:   p.running.Load(),
	}
}

// Stats contains publisher statistics.
type Stats struct {
	Published uint64
	Dropped   uint64
	Clients   int32
	Running   bool
}
