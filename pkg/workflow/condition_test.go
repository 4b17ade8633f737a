package workflow

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/approvalflow/dao/model"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		op    model.ConditionOperator
		value any
		form  map[string]any
		want  bool
	}{
		{"greater number", model.OperatorGreaterThan, 10, map[string]any{"f": 15}, true},
		{"greater float from json", model.OperatorGreaterThan, float64(10), map[string]any{"f": float64(10.5)}, true},
		{"greater equal bound", model.OperatorGreaterThan, 10, map[string]any{"f": 10}, false},
		{"greater numeric string", model.OperatorGreaterThan, "10", map[string]any{"f": " 12.5 "}, true},
		{"greater non numeric", model.OperatorGreaterThan, 10, map[string]any{"f": "abc"}, false},
		{"less non numeric", model.OperatorLessThan, 10, map[string]any{"f": "abc"}, false},
		{"greater missing", model.OperatorGreaterThan, -1, map[string]any{}, false},
		{"less null is zero", model.OperatorLessThan, 1, map[string]any{"f": nil}, true},
		{"less empty string is zero", model.OperatorLessThan, 1, map[string]any{"f": ""}, true},
		{"less bool", model.OperatorLessThan, 2, map[string]any{"f": true}, true},
		{"less json number", model.OperatorLessThan, json.Number("3"), map[string]any{"f": json.Number("2.9")}, true},
		{"greater exponent", model.OperatorGreaterThan, 999, map[string]any{"f": "1e3"}, true},
		{"equal same string", model.OperatorEqual, "yes", map[string]any{"f": "yes"}, true},
		{"equal different string", model.OperatorEqual, "yes", map[string]any{"f": "no"}, false},
		{"equal number and string", model.OperatorEqual, "15", map[string]any{"f": float64(15)}, true},
		{"equal decimal forms", model.OperatorEqual, "15.0", map[string]any{"f": 15}, true},
		{"equal bool and number", model.OperatorEqual, 1, map[string]any{"f": true}, true},
		{"equal bool and string", model.OperatorEqual, "1", map[string]any{"f": true}, true},
		{"equal bools", model.OperatorEqual, false, map[string]any{"f": false}, true},
		{"equal missing and null", model.OperatorEqual, nil, map[string]any{}, true},
		{"equal null and zero", model.OperatorEqual, 0, map[string]any{"f": nil}, false},
		{"equal array joined", model.OperatorEqual, "a,b", map[string]any{"f": []any{"a", "b"}}, true},
		{"equal single element array", model.OperatorEqual, 3, map[string]any{"f": []any{"3"}}, true},
		{"equal non numeric strings vs number", model.OperatorEqual, 0, map[string]any{"f": "abc"}, false},
		{"not equal", model.OperatorNotEqual, "finance", map[string]any{"f": "hr"}, true},
		{"not equal same", model.OperatorNotEqual, 5, map[string]any{"f": "5"}, false},
		{"not equal missing", model.OperatorNotEqual, "x", map[string]any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(&model.StepCondition{Field: "f", Operator: tt.op, Value: tt.value}, tt.form)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateRejectsMalformedConditions(t *testing.T) {
	_, err := Evaluate(&model.StepCondition{Field: "f", Operator: "contains", Value: "x"}, nil)
	require.True(t, errors.Is(err, ErrInvalidCondition))

	_, err = Evaluate(&model.StepCondition{Field: " ", Operator: model.OperatorEqual, Value: "x"}, nil)
	require.True(t, errors.Is(err, ErrInvalidCondition))

	ok, err := Evaluate(nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidateSteps(t *testing.T) {
	require.ErrorIs(t, ValidateSteps(nil), ErrNoSteps)
	require.NoError(t, ValidateSteps([]model.WorkflowStep{
		step("a"),
		conditional("b", "amount", model.OperatorLessThan, 3),
		{ID: "c", Name: "notify", Type: model.WorkflowStepCC},
	}))

	require.ErrorIs(t, ValidateSteps([]model.WorkflowStep{step("a"), step("a")}), ErrInvalidStep)
	require.ErrorIs(t, ValidateSteps([]model.WorkflowStep{{ID: "a", Name: "x", Type: "vote"}}), ErrInvalidStep)
	require.ErrorIs(t, ValidateSteps([]model.WorkflowStep{{ID: "a", Type: model.WorkflowStepApproval}}), ErrInvalidStep)
	require.ErrorIs(t, ValidateSteps([]model.WorkflowStep{conditional("a", "x", "~", 1)}), ErrInvalidCondition)
}
