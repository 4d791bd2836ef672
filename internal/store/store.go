// Package store is the durable snapshot log. One append-only SQLite table,
// a single serialized writer goroutine, and on-demand aggregation queries
// that run concurrently with writes (WAL). Rows are never updated in place;
// the only deletion path is the explicit retention sweep.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/telemetry"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	cpu_usage REAL NOT NULL DEFAULT 0,
	perf_core_usage REAL NOT NULL DEFAULT 0,
	eff_core_usage REAL NOT NULL DEFAULT 0,
	core_count INTEGER NOT NULL DEFAULT 0,
	memory_used INTEGER NOT NULL DEFAULT 0,
	memory_total INTEGER NOT NULL DEFAULT 0,
	memory_usage REAL NOT NULL DEFAULT 0,
	memory_swap INTEGER NOT NULL DEFAULT 0,
	memory_wired INTEGER NOT NULL DEFAULT 0,
	memory_compressed INTEGER NOT NULL DEFAULT 0,
	memory_pressure TEXT NOT NULL DEFAULT 'normal',
	gpu_usage REAL NOT NULL DEFAULT 0,
	gpu_memory INTEGER NOT NULL DEFAULT 0,
	gpu_temperature REAL NOT NULL DEFAULT 0,
	disk_read_mbps REAL NOT NULL DEFAULT 0,
	disk_write_mbps REAL NOT NULL DEFAULT 0,
	disk_read_ops INTEGER NOT NULL DEFAULT 0,
	disk_write_ops INTEGER NOT NULL DEFAULT 0,
	thermal_state TEXT NOT NULL DEFAULT 'nominal',
	fan_rpm REAL NOT NULL DEFAULT 0,
	cpu_temperature REAL NOT NULL DEFAULT 0,
	thermal_gpu_temperature REAL NOT NULL DEFAULT 0,
	network_in_bps REAL NOT NULL DEFAULT 0,
	network_out_bps REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts);
`

// metricColumns maps metric stream names to their snapshot-table column.
// Only columns listed here can be aggregated.
var metricColumns = map[string]string{
	model.MetricCPUUsage:       "cpu_usage",
	model.MetricMemoryUsage:    "memory_usage",
	model.MetricGPUUsage:       "gpu_usage",
	model.MetricDiskReadMBps:   "disk_read_mbps",
	model.MetricDiskWriteMBps:  "disk_write_mbps",
	model.MetricNetworkInBps:   "network_in_bps",
	model.MetricNetworkOutBps:  "network_out_bps",
	model.MetricCPUTemperature: "cpu_temperature",
}

// Store is a SQLite-backed append-only snapshot log.
type Store struct {
	dbPath string
	logger *logger.Logger
	db     *sql.DB

	queue  chan *model.Snapshot
	wg     sync.WaitGroup
	mutex  sync.RWMutex
	closed bool
}

// New creates a store client. Initialize must be called before use.
func New(dbPath string, queueSize int, logger *logger.Logger) *Store {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Store{
		dbPath: dbPath,
		logger: logger,
		queue:  make(chan *model.Snapshot, queueSize),
	}
}

// Initialize opens the database, sets WAL mode, creates the schema and
// starts the writer goroutine. A failure here leaves the store unusable;
// callers are expected to keep running in a degraded, persistence-free mode.
func (s *Store) Initialize() error {
	if s.db != nil {
		if err := s.db.Ping(); err == nil {
			s.logger.Debug("Database connection already active")
			return nil
		}
		s.logger.Warn("Existing database connection failed, reinitializing...")
		s.db.Close()
		s.db = nil
	}

	s.logger.Info("Initializing snapshot store: %s", s.dbPath)

	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		if strings.Contains(err.Error(), "CGO_ENABLED=0") {
			return fmt.Errorf("SQLite driver requires CGO to be enabled. Please rebuild with CGO_ENABLED=1: %w", err)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "database is locked") {
			return fmt.Errorf("database is locked, another process may be using it: %w", err)
		}
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL lets aggregation reads run concurrently with the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.db = db

	s.wg.Add(1)
	go s.writerLoop()

	return nil
}

// Ready reports whether the store survived initialization.
func (s *Store) Ready() bool {
	return s.db != nil
}

// Save enqueues one snapshot for the writer goroutine. It never blocks:
// when the queue is full or the store is closed the snapshot is dropped
// with a warning. Telemetry is best-effort, not a ledger.
func (s *Store) Save(snapshot *model.Snapshot) {
	if snapshot == nil {
		return
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed || s.db == nil {
		return
	}

	select {
	case s.queue <- snapshot:
	default:
		s.logger.Warn("Store write queue full, dropping snapshot from %s", snapshot.Timestamp.Format(time.RFC3339))
		telemetry.WritesDropped.Inc()
	}
}

// writerLoop is the single writer. All INSERTs happen here, in production
// order; a failed insert is logged and dropped.
func (s *Store) writerLoop() {
	defer s.wg.Done()

	for snapshot := range s.queue {
		if err := s.insert(snapshot); err != nil {
			s.logger.Warn("Failed to persist snapshot: %v", err)
			telemetry.WritesDropped.Inc()
			continue
		}
		telemetry.SnapshotsPersisted.Inc()
	}
}

func (s *Store) insert(snap *model.Snapshot) error {
	_, err := s.db.Exec(`INSERT INTO snapshots (
		ts, cpu_usage, perf_core_usage, eff_core_usage, core_count,
		memory_used, memory_total, memory_usage, memory_swap, memory_wired,
		memory_compressed, memory_pressure,
		gpu_usage, gpu_memory, gpu_temperature,
		disk_read_mbps, disk_write_mbps, disk_read_ops, disk_write_ops,
		thermal_state, fan_rpm, cpu_temperature, thermal_gpu_temperature,
		network_in_bps, network_out_bps
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		snap.Timestamp.Unix(),
		snap.CPU.Usage, snap.CPU.PerformanceCoreUsage, snap.CPU.EfficiencyCoreUsage, snap.CPU.CoreCount,
		int64(snap.Memory.Used), int64(snap.Memory.Total), snap.MemoryUsagePercent(),
		int64(snap.Memory.Swap), int64(snap.Memory.Wired), int64(snap.Memory.Compressed),
		string(snap.Memory.Pressure),
		snap.GPU.Usage, int64(snap.GPU.MemoryUsed), snap.GPU.Temperature,
		snap.Disk.ReadMBps, snap.Disk.WriteMBps, int64(snap.Disk.ReadOps), int64(snap.Disk.WriteOps),
		string(snap.Thermal.State), snap.Thermal.FanRPM, snap.Thermal.CPUTemperature, snap.Thermal.GPUTemperature,
		snap.Network.InBytesPerSec, snap.Network.OutBytesPerSec,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot row: %w", err)
	}
	return nil
}

// QueryRange returns the snapshots whose timestamp falls in [start, end],
// ascending. Callers treat an error as an empty result.
func (s *Store) QueryRange(start, end time.Time) ([]model.Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}

	rows, err := s.db.Query(`SELECT
		ts, cpu_usage, perf_core_usage, eff_core_usage, core_count,
		memory_used, memory_total, memory_swap, memory_wired,
		memory_compressed, memory_pressure,
		gpu_usage, gpu_memory, gpu_temperature,
		disk_read_mbps, disk_write_mbps, disk_read_ops, disk_write_ops,
		thermal_state, fan_rpm, cpu_temperature, thermal_gpu_temperature,
		network_in_bps, network_out_bps
	FROM snapshots WHERE ts >= ? AND ts <= ? ORDER BY ts ASC`,
		start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var result []model.Snapshot
	for rows.Next() {
		var (
			snap                                 model.Snapshot
			ts                                   int64
			memUsed, memTotal, memSwap, memWired int64
			memCompressed, gpuMemory             int64
			readOps, writeOps                    int64
			pressure, thermalState               string
		)
		if err := rows.Scan(
			&ts, &snap.CPU.Usage, &snap.CPU.PerformanceCoreUsage, &snap.CPU.EfficiencyCoreUsage, &snap.CPU.CoreCount,
			&memUsed, &memTotal, &memSwap, &memWired, &memCompressed, &pressure,
			&snap.GPU.Usage, &gpuMemory, &snap.GPU.Temperature,
			&snap.Disk.ReadMBps, &snap.Disk.WriteMBps, &readOps, &writeOps,
			&thermalState, &snap.Thermal.FanRPM, &snap.Thermal.CPUTemperature, &snap.Thermal.GPUTemperature,
			&snap.Network.InBytesPerSec, &snap.Network.OutBytesPerSec,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snap.Timestamp = time.Unix(ts, 0)
		snap.Memory.Used = uint64(memUsed)
		snap.Memory.Total = uint64(memTotal)
		snap.Memory.Swap = uint64(memSwap)
		snap.Memory.Wired = uint64(memWired)
		snap.Memory.Compressed = uint64(memCompressed)
		snap.Memory.Pressure = model.MemoryPressure(pressure)
		snap.GPU.MemoryUsed = uint64(gpuMemory)
		snap.Disk.ReadOps = uint64(readOps)
		snap.Disk.WriteOps = uint64(writeOps)
		snap.Thermal.State = model.ThermalState(thermalState)
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return result, nil
}

// HourlyAverages aggregates one metric into hour buckets over [start, end].
func (s *Store) HourlyAverages(metric string, start, end time.Time) ([]model.AggregateRow, error) {
	return s.aggregate(metric, 3600, start, end)
}

// DailyAverages aggregates one metric into day buckets over [start, end].
func (s *Store) DailyAverages(metric string, start, end time.Time) ([]model.AggregateRow, error) {
	return s.aggregate(metric, 86400, start, end)
}

// aggregate groups rows by truncated epoch timestamp. Buckets are derived
// from persisted rows on every call, never stored.
func (s *Store) aggregate(metric string, bucketSeconds int64, start, end time.Time) ([]model.AggregateRow, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}

	column, ok := metricColumns[metric]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}

	query := fmt.Sprintf(`SELECT
		(ts / %d) * %d AS bucket, AVG(%s), MAX(%s), COUNT(*)
	FROM snapshots WHERE ts >= ? AND ts <= ?
	GROUP BY bucket ORDER BY bucket ASC`, bucketSeconds, bucketSeconds, column, column)

	rows, err := s.db.Query(query, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregates: %w", err)
	}
	defer rows.Close()

	var result []model.AggregateRow
	for rows.Next() {
		var (
			bucket int64
			row    model.AggregateRow
		)
		if err := rows.Scan(&bucket, &row.Avg, &row.Max, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		row.Bucket = time.Unix(bucket, 0)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregate rows: %w", err)
	}

	return result, nil
}

// Cleanup deletes rows older than the retention horizon and reclaims the
// freed space. Returns the number of rows removed.
func (s *Store) Cleanup(retentionDays int) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store not initialized")
	}
	if retentionDays <= 0 {
		retentionDays = 30
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()
	result, err := s.db.Exec("DELETE FROM snapshots WHERE ts < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired rows: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if removed > 0 {
		s.logger.Info("Retention sweep removed %d rows older than %d days", removed, retentionDays)
		if _, err := s.db.Exec("VACUUM"); err != nil {
			s.logger.Warn("Failed to vacuum database: %v", err)
		}
	}

	return removed, nil
}

// Close stops accepting writes, drains the queue and closes the database.
func (s *Store) Close() error {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return nil
	}
	s.closed = true
	s.mutex.Unlock()

	close(s.queue)
	s.wg.Wait()

	if s.db != nil {
		s.logger.Info("Closing snapshot store")
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}
