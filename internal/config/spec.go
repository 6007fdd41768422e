package config

import (
	"io"
	"os"

	"github.com/stevenberge/tikv/internal/core/domain"
	"github.com/stevenberge/tikv/internal/core/service"
	"github.com/stevenberge/tikv/internal/storage"
	"github.com/stevenberge/tikv/internal/telemetry/logger"
)

// Config is the root configuration of the kvsum tool.
type Config struct {
	Storage  StorageSection  `koanf:"storage" yaml:"storage"`
	Checksum ChecksumSection `koanf:"checksum" yaml:"checksum"`
	Log      LogSection      `koanf:"log" yaml:"log"`
	Metrics  MetricsSection  `koanf:"metrics" yaml:"metrics"`
}

// StorageSection selects and tunes the storage engine.
type StorageSection struct {
	// Backend is "badger" (persistent) or "memory".
	Backend      string        `koanf:"backend" yaml:"backend"`
	DataDir      string        `koanf:"data_dir" yaml:"data_dir"`
	MemoryDegree int           `koanf:"memory_degree" yaml:"memory_degree"`
	Badger       BadgerSection `koanf:"badger" yaml:"badger"`
}

// BadgerSection mirrors storage.BadgerConfig.
type BadgerSection struct {
	GCInterval              string  `koanf:"gc_interval" yaml:"gc_interval"`
	GCThreshold             float64 `koanf:"gc_threshold" yaml:"gc_threshold"`
	CacheSize               int64   `koanf:"cache_size" yaml:"cache_size"`
	ValueLogFileSize        int64   `koanf:"value_log_file_size" yaml:"value_log_file_size"`
	NumMemtables            int     `koanf:"num_memtables" yaml:"num_memtables"`
	NumLevelZeroTables      int     `koanf:"num_level_zero_tables" yaml:"num_level_zero_tables"`
	NumLevelZeroTablesStall int     `koanf:"num_level_zero_tables_stall" yaml:"num_level_zero_tables_stall"`
	SyncWrites              bool    `koanf:"sync_writes" yaml:"sync_writes"`
}

// ChecksumSection holds request defaults.
type ChecksumSection struct {
	// Isolation is "si" or "rc".
	Isolation    string `koanf:"isolation" yaml:"isolation"`
	FillCache    bool   `koanf:"fill_cache" yaml:"fill_cache"`
	StrictLayout bool   `koanf:"strict_layout" yaml:"strict_layout"`
	// ScanOn is "table" or "index".
	ScanOn string `koanf:"scan_on" yaml:"scan_on"`
	// LoadBatch is the number of fixture rows written per commit.
	LoadBatch int `koanf:"load_batch" yaml:"load_batch"`
}

// LogSection configures logging.
type LogSection struct {
	Level   string `koanf:"level" yaml:"level"`
	Format  string `koanf:"format" yaml:"format"`
	Backend string `koanf:"backend" yaml:"backend"`
	// File receives log output; empty means stderr.
	File string `koanf:"file" yaml:"file"`
}

// MetricsSection controls the metrics dump.
type MetricsSection struct {
	// Dump writes the Prometheus text exposition after each command.
	Dump bool `koanf:"dump" yaml:"dump"`
	// File receives the dump; empty means stderr.
	File string `koanf:"file" yaml:"file"`
}

// StorageConfig converts the section into a storage.Config.
func (c *Config) StorageConfig(log logger.Logger) storage.Config {
	b := c.Storage.Badger
	return storage.Config{
		Backend:      c.Storage.Backend,
		DataDir:      c.Storage.DataDir,
		MemoryDegree: c.Storage.MemoryDegree,
		Logger:       log,
		Badger: storage.BadgerConfig{
			GCInterval:              b.GCInterval,
			GCThreshold:             b.GCThreshold,
			CacheSize:               b.CacheSize,
			ValueLogFileSize:        b.ValueLogFileSize,
			NumMemtables:            b.NumMemtables,
			NumLevelZeroTables:      b.NumLevelZeroTables,
			NumLevelZeroTablesStall: b.NumLevelZeroTablesStall,
			SyncWrites:              b.SyncWrites,
		},
	}
}

// LoggerConfig converts the section into a logger.Config writing to out.
// A nil out means stderr.
func (c *Config) LoggerConfig(out io.Writer) logger.Config {
	if out == nil {
		out = os.Stderr
	}
	return logger.Config{
		Level:   c.Log.Level,
		Format:  c.Log.Format,
		Backend: c.Log.Backend,
		Output:  out,
	}
}

// ReqContext returns the request context defaults. Verify has already
// rejected unknown isolation levels.
func (c *Config) ReqContext() (service.ReqContext, error) {
	iso, err := domain.ParseIsolationLevel(c.Checksum.Isolation)
	if err != nil {
		return service.ReqContext{}, err
	}
	return service.ReqContext{
		Isolation:    iso,
		FillCache:    c.Checksum.FillCache,
		StrictLayout: c.Checksum.StrictLayout,
	}, nil
}
