package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stevenberge/tikv/internal/core/domain"
	"github.com/stevenberge/tikv/internal/storage"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyChecksum(&cfg.Checksum); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyStorage(cfg *StorageSection) error {
	switch strings.ToLower(cfg.Backend) {
	case storage.BackendMemory:
	case storage.BackendBadger:
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required for the badger backend")
		}
		if t := cfg.Badger.GCThreshold; t <= 0 || t >= 1 {
			return fmt.Errorf("storage.badger.gc_threshold must be in (0, 1), got %v", t)
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q",
			storage.BackendBadger, storage.BackendMemory, cfg.Backend)
	}

	if cfg.MemoryDegree < 2 {
		return errors.New("storage.memory_degree must be at least 2")
	}
	return nil
}

func verifyChecksum(cfg *ChecksumSection) error {
	if _, err := domain.ParseIsolationLevel(cfg.Isolation); err != nil {
		return fmt.Errorf("checksum.isolation: %w", err)
	}
	if _, err := domain.ParseScanOn(cfg.ScanOn); err != nil {
		return fmt.Errorf("checksum.scan_on: %w", err)
	}
	if cfg.LoadBatch < 1 {
		return errors.New("checksum.load_batch must be at least 1")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	switch strings.ToLower(cfg.Backend) {
	case "", "slog", "zap":
	default:
		return fmt.Errorf("log.backend: unknown backend %q", cfg.Backend)
	}
	return nil
}
