package orchestrator

import (
	"errors"

	"venturelens/internal/genai"
)

// ValidationError is a precondition failure handled locally: it yields
// a domain failure transition and never reaches the external service.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

const (
	errSessionNotInitiated = "Analysis session not initiated."
	errServiceUnavailable  = "The analysis service is temporarily unavailable. Please try again once it recovers."
)

// failureMessage maps an orchestrator error onto the user-facing
// message for the domain failure transition, tripping the outage
// monitor when the error classifies as quota exhaustion.
func (o *Orchestrators) failureMessage(err error, fallback string) string {
	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case genai.IsQuota(err):
		message := err.Error()
		o.outage.Trip(message)
		return message
	case genai.IsMalformed(err):
		return err.Error()
	default:
		return fallback
	}
}

// IsUnavailable reports whether err is the availability-gate rejection,
// as opposed to an input validation failure.
func IsUnavailable(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation) && validation.Message == errServiceUnavailable
}

// checkPreconditions gates workflow starts on service availability and,
// when required, an initiated session.
func (o *Orchestrators) checkPreconditions(requireSession bool) error {
	if !o.store.Available() {
		return &ValidationError{Message: errServiceUnavailable}
	}
	if requireSession && !o.store.Snapshot().Session.Initiated {
		return &ValidationError{Message: errSessionNotInitiated}
	}
	return nil
}
