package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Typed errors below unwrap to these.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrSourceUnavailable = errors.New("watch-list source unavailable")
	ErrFetch             = errors.New("news fetch failed")
	ErrAnalysisBackend   = errors.New("analysis backend error")
	ErrDelivery          = errors.New("delivery error")
)

// ConfigurationError reports a missing or contradictory configuration.
// It is the only failure raised before any cycle runs.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// SourceUnavailableError reports that the watch-list backend could not be reached,
// authenticated against, or was never configured.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("watch-list source %s unavailable", e.Source)
	}
	return fmt.Sprintf("watch-list source %s unavailable: %v", e.Source, e.Err)
}

// Is matches ErrSourceUnavailable.
func (e *SourceUnavailableError) Is(target error) bool { return target == ErrSourceUnavailable }

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// FetchError reports a news retrieval failure for one watch entry.
type FetchError struct {
	Backend string
	Ticker  string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s news for %s: %v", e.Backend, e.Ticker, e.Err)
}

// Is matches ErrFetch.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

func (e *FetchError) Unwrap() error { return e.Err }

// AnalysisBackendError carries the scoring backend's status and message.
type AnalysisBackendError struct {
	Backend string
	Status  int
	Message string
	Err     error
}

func (e *AnalysisBackendError) Error() string {
	return fmt.Sprintf("error analyzing news with %s: %d - %s", e.Backend, e.Status, e.Message)
}

// Is matches ErrAnalysisBackend.
func (e *AnalysisBackendError) Is(target error) bool { return target == ErrAnalysisBackend }

func (e *AnalysisBackendError) Unwrap() error { return e.Err }

// DeliveryError reports that the destination channel rejected a message.
type DeliveryError struct {
	Channel string
	Status  int
	Message string
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("delivery to %s failed: %s", e.Channel, e.Message)
	}
	return fmt.Sprintf("delivery to %s failed: %d - %s", e.Channel, e.Status, e.Message)
}

// Is matches ErrDelivery.
func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }

func (e *DeliveryError) Unwrap() error { return e.Err }
