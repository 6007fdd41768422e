// Package command defines the kvsum commands using urfave/cli/v2:
//
//   - root.go: application, global flags, configuration and teardown
//   - load.go: write fixture rows into the store
//   - checksum.go: checksum key ranges at a snapshot
//   - combine.go: merge partial results
//   - stats.go: storage statistics
//   - version.go: build information
package command
