package scanner

import "fmt"

// ScanError reports a failed scanning operation together with the state at
// the point of failure.
type ScanError struct {
	State State
	Msg   string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed at line %d, column %d: %s", e.State.Line, e.State.Column, e.Msg)
}
