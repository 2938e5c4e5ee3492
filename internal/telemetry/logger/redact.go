package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

// Attribute keys whose values are client payloads. Only the size is logged.
var payloadKeys = map[string]struct{}{
	"value":   {},
	"payload": {},
	"message": {},
}

// Key patterns whose values are never written out.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
	"auth",
}

const redactedValue = "***REDACTED***"

// redactAttr rewrites an attribute before the handler formats it.
func redactAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if _, ok := payloadKeys[strings.ToLower(a.Key)]; ok {
			return slog.String(a.Key, SizeOf(s))
		}
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactAttr(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// SizeOf renders a payload as its length, e.g. "<12 bytes>".
func SizeOf(s string) string {
	return "<" + strconv.Itoa(len(s)) + " bytes>"
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
