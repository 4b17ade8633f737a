package approval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/pkg/approval"
)

func TestValidateFormData(t *testing.T) {
	schema := []model.FormField{
		{ID: "title", Type: model.FormFieldText, Required: true},
		{ID: "amount", Type: model.FormFieldNumber, Required: true},
		{ID: "files", Type: model.FormFieldFileMultiple, Required: true},
		{ID: "note", Type: model.FormFieldTextarea},
	}

	require.NoError(t, approval.ValidateFormData(schema, map[string]any{
		"title": "GPU", "amount": 0, "files": []any{"a.pdf"},
	}))

	err := approval.ValidateFormData(schema, map[string]any{
		"title": "   ", "files": []any{},
	})
	require.ErrorIs(t, err, approval.ErrValidation)

	var verr *approval.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"title", "amount", "files"}, verr.Fields)
	assert.True(t, approval.IsClientError(err))
}
