// Package logger provides structured logging for kvsum.
//
// Two backends implement the same Logger interface:
//
//   - logger.go: log/slog JSON and text handlers (default)
//   - zap.go: go.uber.org/zap cores, selected with Backend "zap"
//   - context.go: context-aware logging with request IDs
//   - redact.go: key and value redaction
//
// User keys and values are row data. They are never written raw: byte
// slices render as truncated hex and value-like attributes are masked.
package logger
