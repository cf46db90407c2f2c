package genai

import (
	"errors"
	"fmt"
	"strings"
)

// QuotaMessage is the user-facing message for quota exhaustion. The
// outage monitor is tripped whenever a failure classifies as quota.
const QuotaMessage = "The API key has exceeded its quota or is invalid. Please check your billing details or API key."

// MalformedMessage is the fixed user-facing message for responses that
// could not be parsed into the expected shape.
const MalformedMessage = "AI analysis failed. The AI returned an invalid data format."

// QuotaError signals quota or rate-limit exhaustion at the service.
type QuotaError struct {
	Status int
	Raw    string
}

func (e *QuotaError) Error() string {
	return QuotaMessage
}

// MalformedError signals a response that failed strict parsing.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return MalformedMessage
}

// IsQuota reports whether err, anywhere in its chain, indicates quota
// exhaustion. Falls back to message-pattern detection for errors that
// were not produced by this package.
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	var quotaErr *QuotaError
	if errors.As(err, &quotaErr) {
		return true
	}

	message := strings.ToLower(err.Error())
	return strings.Contains(message, "429") ||
		strings.Contains(message, "quota") ||
		strings.Contains(message, "resource_exhausted")
}

// IsMalformed reports whether err indicates an unparseable result.
func IsMalformed(err error) bool {
	var malformedErr *MalformedError
	return errors.As(err, &malformedErr)
}

// classifyStatus turns a non-2xx upstream response into a typed error.
func classifyStatus(status int, body string) error {
	if status == 429 || looksLikeQuota(body) {
		return &QuotaError{Status: status, Raw: body}
	}
	return fmt.Errorf("generation service returned status %d: %s", status, truncate(body, 512))
}

func looksLikeQuota(body string) bool {
	lowered := strings.ToLower(body)
	return strings.Contains(lowered, "quota") || strings.Contains(lowered, "resource_exhausted")
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
