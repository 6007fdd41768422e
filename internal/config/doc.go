// Package config defines the kvsum configuration structure.
//
// Example kvsum.yaml:
//
//	storage:
//	  backend: badger
//	  data_dir: /var/lib/kvsum
//	  badger:
//	    sync_writes: false
//	checksum:
//	  isolation: si
//	  fill_cache: false
//	log:
//	  level: debug
//	  backend: zap
package config
