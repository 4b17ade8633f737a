package approval

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/raids-lab/approvalflow/dao/model"
)

var validate = validator.New()

// ValidateFormData checks that every required field of schema has a value.
// Numbers and booleans count as present even when zero or false.
func ValidateFormData(schema []model.FormField, data map[string]any) error {
	var missing []string
	for i := range schema {
		field := &schema[i]
		if !field.Required {
			continue
		}
		if !hasValue(data[field.ID]) {
			missing = append(missing, field.ID)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

func hasValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return validate.Var(strings.TrimSpace(t), "required") == nil
	case []any, []string, map[string]any:
		return validate.Var(t, "required,min=1") == nil
	}
	return true
}
