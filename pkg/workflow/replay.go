package workflow

import (
	"fmt"

	"github.com/raids-lab/approvalflow/dao/model"
)

// Replay rebuilds a request's state from the actions recorded in its log.
// The sequence must open with Submit; Comment entries do not change state.
func Replay(steps []model.WorkflowStep, formData map[string]any, actions []model.ApprovalAction) (Transition, error) {
	if len(actions) == 0 || actions[0] != model.ApprovalActionSubmit {
		return Transition{}, fmt.Errorf("%w: log must start with %s", ErrInvalidAction, model.ApprovalActionSubmit)
	}

	state, err := Start(steps)
	if err != nil {
		return Transition{}, err
	}

	for i, action := range actions[1:] {
		switch {
		case action == model.ApprovalActionComment:
			continue
		case !action.IsTransition():
			return Transition{}, fmt.Errorf("%w: entry %d is %q", ErrInvalidAction, i+1, action)
		case state.Status != model.ApprovalStatusPending:
			return Transition{}, fmt.Errorf("%w: entry %d (%s) after request became %s",
				ErrInvalidAction, i+1, action, state.Status)
		}

		state, err = Apply(steps, state.StepIndex, formData, action)
		if err != nil {
			return Transition{}, fmt.Errorf("replay entry %d: %w", i+1, err)
		}
	}
	return state, nil
}
