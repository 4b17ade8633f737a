package approval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raids-lab/approvalflow/pkg/workflow"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidTemplate = errors.New("invalid template")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("concurrent modification")
	ErrNotActionable   = errors.New("request is not actionable")

	// Engine errors, re-exported so callers only need this package.
	ErrInvalidStep      = workflow.ErrInvalidStep
	ErrInvalidAction    = workflow.ErrInvalidAction
	ErrInvalidCondition = workflow.ErrInvalidCondition
)

// ValidationError lists the required form fields that were left empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", ErrValidation, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
