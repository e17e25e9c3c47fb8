package llm

import "fmt"

// InvocationError wraps a failed call to the LLM provider. Timeout marks
// calls that hit the configured deadline rather than a provider fault.
// Nothing retries these; they surface to the caller with the
// negotiation's persisted state unchanged.
type InvocationError struct {
	Timeout bool
	Err     error
}

func (e *InvocationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("llm invocation timed out: %v", e.Err)
	}
	return fmt.Sprintf("llm invocation failed: %v", e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// MalformedToolArgumentsError reports resolve arguments that could not
// be parsed. It propagates unrecovered; the turn persists nothing.
type MalformedToolArgumentsError struct {
	Arguments string
	Err       error
}

func (e *MalformedToolArgumentsError) Error() string {
	return fmt.Sprintf("malformed tool arguments %q: %v", e.Arguments, e.Err)
}

func (e *MalformedToolArgumentsError) Unwrap() error {
	return e.Err
}
