package config

import (
	"embed"
	"encoding/json"
	"os"
	"time"
)

//go:embed config.json
var embeddedConfig embed.FS

// CollectorConfig holds sampling configuration
type CollectorConfig struct {
	IntervalSeconds int `json:"interval_seconds"` // 采样间隔（秒）
	HistorySize     int `json:"history_size"`     // 内存中保留的快照数量
}

// Interval returns the sampling interval as a duration, defaulting to 5s.
func (c CollectorConfig) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

// StoreConfig holds persistence configuration
type StoreConfig struct {
	Path            string `json:"path"`              // SQLite 数据库文件路径
	RetentionDays   int    `json:"retention_days"`    // 数据保留天数
	QueueSize       int    `json:"queue_size"`        // 写入队列大小
	CleanupInterval int    `json:"cleanup_hours"`     // 清理任务间隔（小时）
	PersistEvery    int    `json:"persist_every_nth"` // 每 N 个快照持久化一次
}

// ThresholdConfig holds the trigger thresholds for insight rules and the
// correlation engine. Zero values fall back to the built-in defaults.
type ThresholdConfig struct {
	CPUWarning       float64 `json:"cpu_warning"`        // CPU 使用率警告阈值
	CPUCritical      float64 `json:"cpu_critical"`       // CPU 使用率严重阈值
	DiskIOWarning    float64 `json:"disk_io_warning"`    // 磁盘 IO 警告阈值（MB/s）
	DiskIOCritical   float64 `json:"disk_io_critical"`   // 磁盘 IO 严重阈值（MB/s）
	AnomalyZScore    float64 `json:"anomaly_z_score"`    // 异常检测 z 分数阈值
	AnomalyMinSample int     `json:"anomaly_min_sample"` // 异常检测最小样本数
}

// StreamConfig holds the diagnostic HTTP/WebSocket server configuration
type StreamConfig struct {
	Enabled    bool   `json:"enabled"`
	ListenAddr string `json:"listen_addr"`
}

// Config holds the configuration for the xInsight agent
type Config struct {
	LogLevel   string          `json:"log_level"`
	Collector  CollectorConfig `json:"collector"`
	Store      StoreConfig     `json:"store"`
	Thresholds ThresholdConfig `json:"thresholds"`
	Stream     StreamConfig    `json:"stream"`
}

// Load loads configuration from embedded config or external file
func Load(filename string) (*Config, error) {
	// 首先尝试读取外部文件，失败时回退到嵌入的默认配置
	var err error
	var data []byte
	if data, err = os.ReadFile(filename); err != nil {
		data, err = embeddedConfig.ReadFile("config.json")
		if err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err = json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// Save saves configuration to a JSON file
func (c *Config) Save(filename string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Collector.HistorySize <= 0 {
		c.Collector.HistorySize = 60
	}
	if c.Store.Path == "" {
		c.Store.Path = "xinsight.db"
	}
	if c.Store.RetentionDays <= 0 {
		c.Store.RetentionDays = 30
	}
	if c.Store.QueueSize <= 0 {
		c.Store.QueueSize = 256
	}
	if c.Store.CleanupInterval <= 0 {
		c.Store.CleanupInterval = 6
	}
	if c.Store.PersistEvery <= 0 {
		c.Store.PersistEvery = 1
	}
	if c.Thresholds.CPUWarning <= 0 {
		c.Thresholds.CPUWarning = 80
	}
	if c.Thresholds.CPUCritical <= 0 {
		c.Thresholds.CPUCritical = 95
	}
	if c.Thresholds.DiskIOWarning <= 0 {
		c.Thresholds.DiskIOWarning = 100
	}
	if c.Thresholds.DiskIOCritical <= 0 {
		c.Thresholds.DiskIOCritical = 250
	}
	if c.Thresholds.AnomalyZScore <= 0 {
		c.Thresholds.AnomalyZScore = 2.0
	}
	if c.Thresholds.AnomalyMinSample <= 0 {
		c.Thresholds.AnomalyMinSample = 10
	}
	if c.Stream.ListenAddr == "" {
		c.Stream.ListenAddr = "127.0.0.1:9180"
	}
}
