package store

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence is matched by every error returned from a failed persist cycle.
	ErrPersistence = errors.New("persistence failure")
	// ErrNoDocument is returned when no canonical document exists yet.
	ErrNoDocument = errors.New("no persisted document")
)

// Step names one stage of the atomic write sequence.
type Step string

const (
	StepWriteTemp  Step = "write_temp"
	StepVerifyTemp Step = "verify_temp"
	StepBackup     Step = "backup"
	StepReplace    Step = "replace"
	StepEncode     Step = "encode"
)

// PersistError identifies the step at which a persist cycle aborted. The
// canonical file is untouched whenever a PersistError is returned.
type PersistError struct {
	Step Step
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %s: %v", e.Path, e.Step, e.Err)
}

// Unwrap exposes both ErrPersistence and the underlying cause.
func (e *PersistError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
