// Package collector drives periodic telemetry sampling. One background
// goroutine assembles a Snapshot per tick from the probe set, publishes the
// latest one, maintains a bounded in-memory history and hands the result to
// registered callbacks.
package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/probe"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/telemetry"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

// SnapshotCallback receives each completed snapshot with its companion
// process samples, on the collector goroutine. Callbacks must not block.
type SnapshotCallback func(snapshot *model.Snapshot, processes []model.ProcessSample)

// Collector 采样调度器
type Collector struct {
	logger      *logger.Logger
	system      probe.SystemProbe
	processes   probe.ProcessProbe
	interval    time.Duration
	historySize int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// inFlight guards against overlapping ticks: a due tick is skipped
	// while the previous one is still executing.
	inFlight int32

	mutex       sync.RWMutex
	running     bool
	callbacks   []SnapshotCallback
	latest      *model.Snapshot
	latestProcs []model.ProcessSample
	history     []model.Snapshot
}

// New creates a collector sampling at the given interval.
func New(system probe.SystemProbe, processes probe.ProcessProbe, interval time.Duration,
	historySize int, logger *logger.Logger) *Collector {

	if interval <= 0 {
		interval = 5 * time.Second
	}
	if historySize <= 0 {
		historySize = 60
	}
	return &Collector{
		logger:      logger,
		system:      system,
		processes:   processes,
		interval:    interval,
		historySize: historySize,
	}
}

// OnSnapshot registers a callback. Register before Start.
func (c *Collector) OnSnapshot(callback SnapshotCallback) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.callbacks = append(c.callbacks, callback)
}

// Start begins periodic sampling. Calling Start on a running collector is
// a no-op.
func (c *Collector) Start() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.running {
		c.logger.Debug("Collector already running")
		return nil
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.running = true

	c.logger.Info("Starting collector with interval: %v", c.interval)

	c.wg.Add(1)
	go c.sampleLoop()

	return nil
}

// Stop halts sampling. After Stop returns, no further snapshots are
// produced or delivered to callbacks.
func (c *Collector) Stop() {
	c.mutex.Lock()
	if !c.running {
		c.mutex.Unlock()
		return
	}
	c.running = false
	c.cancel()
	c.mutex.Unlock()

	c.logger.Info("Stopping collector")
	c.wg.Wait()
}

// Refresh performs one immediate out-of-band sample on the caller's
// goroutine without disturbing the periodic schedule. It is skipped when a
// periodic tick is currently executing.
func (c *Collector) Refresh() {
	c.mutex.Lock()
	if !c.running {
		c.mutex.Unlock()
		return
	}
	ctx := c.ctx
	c.wg.Add(1)
	c.mutex.Unlock()
	defer c.wg.Done()

	c.tick(ctx)
}

// Latest returns the most recently published snapshot, or nil before the
// first tick. The snapshot is read-only for all consumers.
func (c *Collector) Latest() *model.Snapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.latest
}

// LatestProcesses returns the process samples from the latest tick.
func (c *Collector) LatestProcesses() []model.ProcessSample {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	out := make([]model.ProcessSample, len(c.latestProcs))
	copy(out, c.latestProcs)
	return out
}

// History returns up to historySize recent snapshots, oldest first.
func (c *Collector) History() []model.Snapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	out := make([]model.Snapshot, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Collector) sampleLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// First sample immediately rather than waiting a full interval.
	c.tick(c.ctx)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.tick(c.ctx)
		}
	}
}

// tick performs one collection pass. Overlapping passes are skipped.
func (c *Collector) tick(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&c.inFlight, 0, 1) {
		c.logger.Debug("Previous tick still running, skipping")
		telemetry.TicksSkipped.Inc()
		return
	}
	defer atomic.StoreInt32(&c.inFlight, 0)

	if ctx.Err() != nil {
		return
	}

	snapshot := c.assemble(ctx)

	procs, err := c.processes.Processes(ctx)
	if err != nil {
		c.logger.Warn("Failed to collect process samples: %v", err)
		telemetry.ProbeFailures.WithLabelValues("process").Inc()
		procs = nil
	}

	if ctx.Err() != nil {
		// Stopped while sampling: do not publish or deliver.
		return
	}

	c.mutex.Lock()
	c.latest = snapshot
	c.latestProcs = procs
	c.history = append(c.history, *snapshot)
	if len(c.history) > c.historySize {
		c.history = c.history[len(c.history)-c.historySize:]
	}
	callbacks := make([]SnapshotCallback, len(c.callbacks))
	copy(callbacks, c.callbacks)
	c.mutex.Unlock()

	for _, callback := range callbacks {
		callback(snapshot, procs)
	}

	telemetry.TicksTotal.Inc()
}

// assemble queries every probe group. A failed probe degrades that group to
// its zero value; the tick always completes with a full snapshot.
func (c *Collector) assemble(ctx context.Context) *model.Snapshot {
	snapshot := &model.Snapshot{Timestamp: time.Now()}

	var err error
	if snapshot.CPU, err = c.system.CPU(ctx); err != nil {
		c.logger.Warn("Failed to collect CPU metrics: %v", err)
		telemetry.ProbeFailures.WithLabelValues("cpu").Inc()
	}
	if snapshot.Memory, err = c.system.Memory(ctx); err != nil {
		c.logger.Warn("Failed to collect memory metrics: %v", err)
		telemetry.ProbeFailures.WithLabelValues("memory").Inc()
	}
	if snapshot.GPU, err = c.system.GPU(ctx); err != nil {
		c.logger.Warn("Failed to collect GPU metrics: %v", err)
		telemetry.ProbeFailures.WithLabelValues("gpu").Inc()
	}
	if snapshot.Disk, err = c.system.Disk(ctx); err != nil {
		c.logger.Warn("Failed to collect disk metrics: %v", err)
		telemetry.ProbeFailures.WithLabelValues("disk").Inc()
	}
	if snapshot.Thermal, err = c.system.Thermal(ctx); err != nil {
		c.logger.Debug("Failed to collect thermal metrics: %v", err)
		telemetry.ProbeFailures.WithLabelValues("thermal").Inc()
	}
	if snapshot.Network, err = c.system.Network(ctx); err != nil {
		c.logger.Warn("Failed to collect network metrics: %v", err)
		telemetry.ProbeFailures.WithLabelValues("network").Inc()
	}

	return snapshot
}
