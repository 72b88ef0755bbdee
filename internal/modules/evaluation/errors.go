package evaluation

import (
	"errors"
	"fmt"
)

// ErrDisabled is returned when the evaluation pipeline is switched off in
// the dynamic configuration.
var ErrDisabled = errors.New("evaluation is disabled")

// ConfigurationError marks an invoker setup problem (missing provider,
// empty or placeholder credential). It is detected once, before any item is
// scheduled, because retrying would reproduce the identical failure for
// every item in the batch.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("evaluation configuration error: %s", e.Reason)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// TransientInvocationError marks a per-item call failure: network error,
// timeout, non-success status, or an empty response envelope. It never
// aborts the batch; the scheduler converts it into a fallback result.
type TransientInvocationError struct {
	Reason string
	Err    error
}

func (e *TransientInvocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evaluation call failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("evaluation call failed: %s", e.Reason)
}

func (e *TransientInvocationError) Unwrap() error { return e.Err }

func transientErr(reason string, err error) error {
	return &TransientInvocationError{Reason: reason, Err: err}
}
