package events

import (
	"regexp"
	"strings"
)

// Transition fields flow to an externally readable stream, so anything
// that smells like a credential or personal identifier is masked before
// publishing.
var (
	fieldEmailRegex      = regexp.MustCompile(`(?i)\b[\w.+-]+@[\w.-]+\.[a-z]{2,}\b`)
	fieldBearerRegex     = regexp.MustCompile(`(?i)\bbearer\s+[a-z0-9._~+/=-]{8,}\b`)
	fieldHexTokenRegex   = regexp.MustCompile(`(?i)\b[0-9a-f]{24,}\b`)
	fieldLongNumberRegex = regexp.MustCompile(`\b\d{12,19}\b`)
)

const maxFieldLength = 2_000

func redactFieldValue(key, value string) string {
	if isSensitiveFieldKey(strings.ToLower(strings.TrimSpace(key))) {
		return "<redacted>"
	}

	redacted := value
	redacted = fieldEmailRegex.ReplaceAllString(redacted, "<email>")
	redacted = fieldBearerRegex.ReplaceAllString(redacted, "<token>")
	redacted = fieldHexTokenRegex.ReplaceAllString(redacted, "<token>")
	redacted = fieldLongNumberRegex.ReplaceAllString(redacted, "<long-number>")
	if len(redacted) > maxFieldLength {
		return redacted[:maxFieldLength]
	}
	return redacted
}

func isSensitiveFieldKey(key string) bool {
	if key == "" {
		return false
	}
	return strings.Contains(key, "password") ||
		strings.Contains(key, "secret") ||
		strings.Contains(key, "token") ||
		strings.Contains(key, "authorization") ||
		strings.Contains(key, "cookie") ||
		strings.Contains(key, "api_key") ||
		strings.Contains(key, "apikey") ||
		strings.Contains(key, "email")
}
