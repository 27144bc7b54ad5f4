package sandbox

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind    = errors.New("unknown body kind")
	ErrUnknownSetting = errors.New("unknown setting")
	ErrBadSettings    = errors.New("invalid settings")
	ErrBadFlowStage   = errors.New("invalid flow stage")
	ErrNoTarget       = errors.New("no matching body")
)

// ConstructionError rejects a single body creation. Nothing is registered.
type ConstructionError struct {
	Body   string // "particle" or "object"
	Field  string
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct %s: %s %s", e.Body, e.Field, e.Reason)
}
