package transform

import "fmt"

// Error reports a failed pipeline step.
type Error struct {
	// Index is the zero-based position of the step in the pipeline.
	Index int
	Name  string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transform %q (step %d): %v", e.Name, e.Index+1, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
