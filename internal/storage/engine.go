package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/stevenberge/tikv/internal/storage/memory"
	"github.com/stevenberge/tikv/internal/storage/mvcc"
	"github.com/stevenberge/tikv/internal/telemetry/logger"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// DefaultBadgerDir is the Badger directory below the data dir.
const DefaultBadgerDir = "badger"

// Config configures the storage engine.
type Config struct {
	// Backend selects the engine ("badger", "memory").
	Backend string

	// DataDir is the base directory for all storage files.
	DataDir string

	// Badger configuration
	Badger BadgerConfig

	// MemoryDegree is the B-tree degree of the memory backend.
	MemoryDegree int

	// Logger is the structured logger.
	Logger logger.Logger
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value log GC runs.
	// Empty or "0" disables automatic GC.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 1GB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int

	// NumLevelZeroTables is the number of Level 0 tables before compaction.
	// Default: 5
	NumLevelZeroTables int

	// NumLevelZeroTablesStall is the number of Level 0 tables that triggers write stall.
	// Default: 10
	NumLevelZeroTablesStall int

	// SyncWrites enables sync writes (fsync after each write).
	// Default: true
	SyncWrites bool
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		Backend:      BackendBadger,
		DataDir:      dataDir,
		Badger:       DefaultBadgerConfig(),
		MemoryDegree: memory.DefaultDegree,
		Logger:       logger.Default(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:              "10m",
		GCThreshold:             0.5,
		CacheSize:               64 << 20, // 64MB
		ValueLogFileSize:        1 << 30,  // 1GB
		NumMemtables:            2,
		NumLevelZeroTables:      5,
		NumLevelZeroTablesStall: 10,
		SyncWrites:              true,
	}
}

// Open creates the configured engine.
func Open(cfg Config) (mvcc.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	switch strings.ToLower(cfg.Backend) {
	case BackendMemory:
		cfg.Logger.Debug("opening memory engine", "degree", cfg.MemoryDegree)
		return memory.New(memory.WithDegree(cfg.MemoryDegree)), nil
	case "", BackendBadger:
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("storage: data_dir is required for the badger backend")
		}
		return NewBadgerEngine(filepath.Join(cfg.DataDir, DefaultBadgerDir), cfg.Badger, cfg.Logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
