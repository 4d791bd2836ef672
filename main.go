package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/config"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/anomaly"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/collector"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/correlation"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/insight"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/probe"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/store"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/stream"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/trend"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

func main() {
	var (
		configFile = flag.String("config", "config.json", "Configuration file path")
		dbPath     = flag.String("db", "", "Snapshot database path (overrides config)")
		listenAddr = flag.String("listen", "", "Diagnostic server address (overrides config)")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Override config with command line arguments
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
	if *listenAddr != "" {
		cfg.Stream.ListenAddr = *listenAddr
	}

	log.SetLevel(logger.ParseLevel(cfg.LogLevel))

	// Persistence is best-effort: a store that fails to initialize leaves
	// the agent running in a degraded, memory-only mode.
	snapshotStore := store.New(cfg.Store.Path, cfg.Store.QueueSize, log)
	if err := snapshotStore.Initialize(); err != nil {
		log.Error("Snapshot store unavailable, running without persistence: %v", err)
	}

	systemProbe := probe.NewSystemSampler(log)
	processProbe := probe.NewProcessSampler(log)

	coll := collector.New(systemProbe, processProbe, cfg.Collector.Interval(),
		cfg.Collector.HistorySize, log)

	detector := anomaly.NewDetector(cfg.Collector.HistorySize,
		cfg.Thresholds.AnomalyMinSample, cfg.Thresholds.AnomalyZScore, log)
	correlator := correlation.NewEngine(log)
	insightEngine := insight.NewEngine(insight.BuiltinRules(insight.Thresholds{
		CPUWarning:     cfg.Thresholds.CPUWarning,
		CPUCritical:    cfg.Thresholds.CPUCritical,
		DiskIOWarning:  cfg.Thresholds.DiskIOWarning,
		DiskIOCritical: cfg.Thresholds.DiskIOCritical,
	}), log)
	trendAnalyzer := trend.NewAnalyzer(snapshotStore, log)

	var streamServer *stream.Server
	if cfg.Stream.Enabled {
		streamServer = stream.NewServer(cfg.Stream.ListenAddr, coll, insightEngine, trendAnalyzer, log)
	}

	// The analysis pipeline runs on the collector goroutine: anomaly
	// windows and insight history stay single-owner.
	tickCount := 0
	coll.OnSnapshot(func(snapshot *model.Snapshot, processes []model.ProcessSample) {
		anomalies := detector.Observe(snapshot)
		correlations := correlator.Correlate(snapshot, processes)
		report := insightEngine.Analyze(snapshot, processes, correlations, anomalies)

		tickCount++
		if snapshotStore.Ready() && tickCount%cfg.Store.PersistEvery == 0 {
			snapshotStore.Save(snapshot)
		}

		if streamServer != nil {
			streamServer.Broadcast(stream.Frame{
				Snapshot:     snapshot,
				Insights:     report.Insights,
				Status:       report.Status,
				Anomalies:    anomalies,
				Correlations: correlations,
			})
		}
	})

	// Hot-reload the tunable thresholds when the config file changes.
	watcher := config.NewWatcher(*configFile, log, func(next *config.Config) {
		log.SetLevel(logger.ParseLevel(next.LogLevel))
		detector.SetThreshold(next.Thresholds.AnomalyZScore)
	})
	if err := watcher.Start(); err != nil {
		log.Warn("Config watcher unavailable: %v", err)
	}

	if streamServer != nil {
		if err := streamServer.Start(); err != nil {
			log.Error("Failed to start diagnostic server: %v", err)
		}
	}

	if err := coll.Start(); err != nil {
		log.Error("Failed to start collector: %v", err)
		os.Exit(1)
	}

	// Periodic retention sweep.
	cleanupStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Store.CleanupInterval) * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupStop:
				return
			case <-ticker.C:
				if !snapshotStore.Ready() {
					continue
				}
				if _, err := snapshotStore.Cleanup(cfg.Store.RetentionDays); err != nil {
					log.Warn("Retention sweep failed: %v", err)
				}
			}
		}
	}()

	log.Info("xInsight agent started (interval %v, retention %d days)",
		cfg.Collector.Interval(), cfg.Store.RetentionDays)

	// Setup graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info("Shutting down gracefully...")
	coll.Stop()
	close(cleanupStop)
	watcher.Stop()
	if streamServer != nil {
		streamServer.Stop()
	}
	if err := snapshotStore.Close(); err != nil {
		log.Warn("Failed to close store: %v", err)
	}
}
