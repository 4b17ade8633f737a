// Package workflow implements the approval state machine. It is pure: callers
// load the step list and form data, apply an action, and persist the result.
package workflow

import (
	"errors"
	"fmt"

	"github.com/raids-lab/approvalflow/dao/model"
)

var (
	ErrNoSteps          = errors.New("workflow has no steps")
	ErrInvalidStep      = errors.New("invalid step")
	ErrInvalidAction    = errors.New("invalid action")
	ErrInvalidCondition = errors.New("invalid condition")
)

// Transition is the state a request moves to after an action.
type Transition struct {
	Status    model.ApprovalRequestStatus
	StepIndex int
}

// Start returns the state of a freshly submitted request.
func Start(steps []model.WorkflowStep) (Transition, error) {
	if len(steps) == 0 {
		return Transition{}, ErrNoSteps
	}
	return Transition{Status: model.ApprovalStatusPending, StepIndex: 0}, nil
}

// Apply computes the next state for action taken against steps[current].
// It does not look at the request status; refusing actions on finished
// requests is up to the caller.
func Apply(
	steps []model.WorkflowStep,
	current int,
	formData map[string]any,
	action model.ApprovalAction,
) (Transition, error) {
	if current < 0 || current >= len(steps) {
		return Transition{}, fmt.Errorf("%w: index %d with %d steps", ErrInvalidStep, current, len(steps))
	}

	switch action {
	case model.ApprovalActionReject:
		return Transition{Status: model.ApprovalStatusRejected, StepIndex: current}, nil
	case model.ApprovalActionReturn:
		return Transition{Status: model.ApprovalStatusReturned, StepIndex: max(0, current-1)}, nil
	case model.ApprovalActionApprove:
		return approve(steps, current, formData)
	default:
		return Transition{}, fmt.Errorf("%w: %q is not a transition", ErrInvalidAction, action)
	}
}

// approve advances past steps[idx]. A conditional next step whose condition
// fails is skipped; only one level of skipping is evaluated, so the step after
// a skipped one becomes current even if it carries a condition of its own.
func approve(steps []model.WorkflowStep, idx int, formData map[string]any) (Transition, error) {
	next := idx + 1
	if next >= len(steps) {
		return Transition{Status: model.ApprovalStatusApproved, StepIndex: idx}, nil
	}

	cond := steps[next].Condition
	if cond == nil {
		return Transition{Status: model.ApprovalStatusPending, StepIndex: next}, nil
	}

	ok, err := Evaluate(cond, formData)
	if err != nil {
		return Transition{}, fmt.Errorf("step %q: %w", steps[next].Name, err)
	}
	if ok {
		return Transition{Status: model.ApprovalStatusPending, StepIndex: next}, nil
	}
	if next+1 < len(steps) {
		return Transition{Status: model.ApprovalStatusPending, StepIndex: next + 1}, nil
	}
	return Transition{Status: model.ApprovalStatusApproved, StepIndex: idx}, nil
}

// StepName returns the name of steps[idx], or "" when idx is out of range.
func StepName(steps []model.WorkflowStep, idx int) string {
	if idx < 0 || idx >= len(steps) {
		return ""
	}
	return steps[idx].Name
}
