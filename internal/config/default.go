package config

import (
	"github.com/stevenberge/tikv/internal/storage"
	"github.com/stevenberge/tikv/internal/storage/memory"
)

// Default configuration values.
const (
	DefaultBackend   = storage.BackendBadger
	DefaultDataDir   = "./kvsum-data"
	DefaultIsolation = "si"
	DefaultScanOn    = "table"
	DefaultLoadBatch = 1000

	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultLogBackend = "slog"
)

// Default returns the default configuration.
func Default() *Config {
	b := storage.DefaultBadgerConfig()
	return &Config{
		Storage: StorageSection{
			Backend:      DefaultBackend,
			DataDir:      DefaultDataDir,
			MemoryDegree: memory.DefaultDegree,
			Badger: BadgerSection{
				// A CLI run is too short for periodic GC to matter.
				GCInterval:              "",
				GCThreshold:             b.GCThreshold,
				CacheSize:               b.CacheSize,
				ValueLogFileSize:        b.ValueLogFileSize,
				NumMemtables:            b.NumMemtables,
				NumLevelZeroTables:      b.NumLevelZeroTables,
				NumLevelZeroTablesStall: b.NumLevelZeroTablesStall,
				SyncWrites:              b.SyncWrites,
			},
		},
		Checksum: ChecksumSection{
			Isolation: DefaultIsolation,
			FillCache: true,
			ScanOn:    DefaultScanOn,
			LoadBatch: DefaultLoadBatch,
		},
		Log: LogSection{
			Level:   DefaultLogLevel,
			Format:  DefaultLogFormat,
			Backend: DefaultLogBackend,
		},
	}
}
