package mapping

import (
	"fmt"

	"moneyScope/internal/events"
)

// HandlerError is a failed handler invocation. Its writes were discarded.
type HandlerError struct {
	Family events.Family
	Name   string
	Block  uint64
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s %s at block %d: %v", e.Family, e.Name, e.Block, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
