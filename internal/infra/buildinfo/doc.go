// Package buildinfo provides build information for kvsum.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/stevenberge/tikv/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo
