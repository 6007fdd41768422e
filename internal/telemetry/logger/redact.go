package logger

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Attribute names whose string values are row payload and get masked.
var sensitiveKeyPatterns = []string{
	"value",
	"password",
	"secret",
	"credential",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// maxKeyBytes is how many bytes of a key are rendered before truncation.
const maxKeyBytes = 16

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if IsSensitiveKey(a.Key) && a.Value.String() != "" {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindAny:
		if b, ok := a.Value.Any().([]byte); ok {
			if IsSensitiveKey(a.Key) {
				return slog.String(a.Key, fmt.Sprintf("%s(%d bytes)", redactedValue, len(b)))
			}
			return slog.String(a.Key, RedactKey(b))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// RedactKey renders a raw key as hex, truncated to a short prefix.
//
//	RedactKey([]byte("k1"))      == "6b31"
//	RedactKey(make([]byte, 20))  == "00000000000000000000000000000000...(20 bytes)"
func RedactKey(key []byte) string {
	if len(key) <= maxKeyBytes {
		return hex.EncodeToString(key)
	}
	return fmt.Sprintf("%s...(%d bytes)", hex.EncodeToString(key[:maxKeyBytes]), len(key))
}

// IsSensitiveKey checks if an attribute name suggests row payload.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
