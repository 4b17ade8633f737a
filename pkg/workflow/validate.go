package workflow

import (
	"fmt"
	"strings"

	"github.com/raids-lab/approvalflow/dao/model"
)

// ValidateSteps checks a step list before it is stored in a template.
func ValidateSteps(steps []model.WorkflowStep) error {
	if len(steps) == 0 {
		return ErrNoSteps
	}

	seen := make(map[string]struct{}, len(steps))
	for i := range steps {
		step := &steps[i]
		if strings.TrimSpace(step.ID) == "" {
			return fmt.Errorf("%w: step %d has no id", ErrInvalidStep, i)
		}
		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("%w: duplicate step id %q", ErrInvalidStep, step.ID)
		}
		seen[step.ID] = struct{}{}

		if strings.TrimSpace(step.Name) == "" {
			return fmt.Errorf("%w: step %q has no name", ErrInvalidStep, step.ID)
		}
		if !step.Type.IsValid() {
			return fmt.Errorf("%w: step %q has type %q", ErrInvalidStep, step.ID, step.Type)
		}
		if step.Condition != nil {
			if err := validateCondition(step.Condition); err != nil {
				return fmt.Errorf("step %q: %w", step.ID, err)
			}
		}
	}
	return nil
}
