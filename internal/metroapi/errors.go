package metroapi

import "fmt"

// TransportError reports an upstream call that failed after the bounded
// retries: a network or timeout error (Status zero) or a non-2xx response.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("metro api: %s returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("metro api: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// statusError is the pre-wrap form of a non-2xx response inside the retry
// loop.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("status %d", e.code)
	}
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}
