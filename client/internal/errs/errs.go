// Package errs classifies gateway failures so retry policy can be
// decided in one place: transport-level trouble is retried with
// backoff, terminal rejections fail fast.
package errs

import "fmt"

// Category determines how a failure is handled by retry logic.
type Category int

const (
	// Transient failures may succeed on retry: 5xx responses,
	// timeouts, connection resets.
	Transient Category = iota

	// Terminal failures will not improve on retry: 4xx rejections
	// other than 408/429.
	Terminal
)

func (c Category) String() string {
	switch c {
	case Transient:
		return "Transient"
	case Terminal:
		return "Terminal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// TransportError wraps a gateway failure with its category and, for
// HTTP failures, the status code.
type TransportError struct {
	Category   Category
	StatusCode int // 0 for non-HTTP failures
	Underlying error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] HTTP %d: %v", e.Category, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("[%s] %v", e.Category, e.Underlying)
}

func (e *TransportError) Unwrap() error { return e.Underlying }

// IsTerminal reports whether err should not be retried.
func IsTerminal(err error) bool {
	if te, ok := err.(*TransportError); ok {
		return te.Category == Terminal
	}
	return false
}

// FromStatus builds a TransportError for an HTTP failure.
func FromStatus(statusCode int, operation string) *TransportError {
	return &TransportError{
		Category:   categoryFor(statusCode),
		StatusCode: statusCode,
		Underlying: fmt.Errorf("%s: status %d", operation, statusCode),
	}
}

// FromNetwork builds a TransportError for a network-level failure.
// Network failures are always transient.
func FromNetwork(operation string, err error) *TransportError {
	return &TransportError{
		Category:   Transient,
		Underlying: fmt.Errorf("%s: %w", operation, err),
	}
}

func categoryFor(statusCode int) Category {
	switch {
	case statusCode >= 400 && statusCode < 500:
		switch statusCode {
		case 408, 429:
			return Transient
		default:
			return Terminal
		}
	default:
		// 5xx and anything unexpected: retry conservatively.
		return Transient
	}
}
