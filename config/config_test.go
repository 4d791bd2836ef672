package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFallsBackToEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("no_such_file.json")
	if err != nil {
		t.Fatalf("Failed to load embedded config: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Fatalf("Expected default log level 'info', got %q", cfg.LogLevel)
	}
	if cfg.Collector.Interval() != 5*time.Second {
		t.Fatalf("Expected default interval 5s, got %v", cfg.Collector.Interval())
	}
	if cfg.Collector.HistorySize != 60 {
		t.Fatalf("Expected default history size 60, got %d", cfg.Collector.HistorySize)
	}
	if cfg.Store.RetentionDays != 30 {
		t.Fatalf("Expected default retention 30 days, got %d", cfg.Store.RetentionDays)
	}
	if cfg.Thresholds.CPUWarning != 80 || cfg.Thresholds.CPUCritical != 95 {
		t.Fatalf("Unexpected CPU thresholds: %+v", cfg.Thresholds)
	}
	if cfg.Thresholds.DiskIOWarning != 100 || cfg.Thresholds.DiskIOCritical != 250 {
		t.Fatalf("Unexpected disk thresholds: %+v", cfg.Thresholds)
	}
	if cfg.Thresholds.AnomalyZScore != 2.0 || cfg.Thresholds.AnomalyMinSample != 10 {
		t.Fatalf("Unexpected anomaly thresholds: %+v", cfg.Thresholds)
	}
	if cfg.Stream.ListenAddr == "" {
		t.Fatal("Expected a default stream listen address")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "xinsight_config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "config.json")
	original := &Config{
		LogLevel: "debug",
		Collector: CollectorConfig{
			IntervalSeconds: 2,
			HistorySize:     120,
		},
		Store: StoreConfig{
			Path:          filepath.Join(tmpDir, "data.db"),
			RetentionDays: 7,
			QueueSize:     64,
			PersistEvery:  3,
		},
		Thresholds: ThresholdConfig{
			CPUWarning:  70,
			CPUCritical: 90,
		},
		Stream: StreamConfig{
			Enabled:    true,
			ListenAddr: "127.0.0.1:9999",
		},
	}

	if err := original.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.LogLevel != "debug" {
		t.Fatalf("Expected log level 'debug', got %q", loaded.LogLevel)
	}
	if loaded.Collector.Interval() != 2*time.Second {
		t.Fatalf("Expected interval 2s, got %v", loaded.Collector.Interval())
	}
	if loaded.Store.RetentionDays != 7 || loaded.Store.PersistEvery != 3 {
		t.Fatalf("Store config did not survive the round trip: %+v", loaded.Store)
	}
	if loaded.Thresholds.CPUWarning != 70 || loaded.Thresholds.CPUCritical != 90 {
		t.Fatalf("Thresholds did not survive the round trip: %+v", loaded.Thresholds)
	}
	if !loaded.Stream.Enabled || loaded.Stream.ListenAddr != "127.0.0.1:9999" {
		t.Fatalf("Stream config did not survive the round trip: %+v", loaded.Stream)
	}

	// Zeroed fields still pick up defaults on load.
	if loaded.Store.CleanupInterval != 6 {
		t.Fatalf("Expected default cleanup interval 6h, got %d", loaded.Store.CleanupInterval)
	}
	if loaded.Thresholds.AnomalyZScore != 2.0 {
		t.Fatalf("Expected default z-score threshold, got %f", loaded.Thresholds.AnomalyZScore)
	}
}
