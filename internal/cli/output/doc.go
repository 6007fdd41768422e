// Package output renders command results for kvsum.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables for terminals
//   - json.go, yaml.go: machine readable output
//   - progress.go: running row count for long loads
package output
