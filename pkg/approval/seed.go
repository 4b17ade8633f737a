package approval

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"sigs.k8s.io/yaml"

	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/pkg/logutils"
)

type (
	TemplateSeed struct {
		Name          string               `json:"name"`
		Description   string               `json:"description"`
		WorkspaceID   uint                 `json:"workspaceID"`
		FormSchema    []model.FormField    `json:"formSchema"`
		WorkflowSteps []model.WorkflowStep `json:"workflowSteps"`
	}

	SeedFile struct {
		Templates []TemplateSeed `json:"templates"`
	}
)

// ParseSeed reads a YAML (or JSON) seed file.
func ParseSeed(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.UnmarshalStrict(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &seed, nil
}

// SeedTemplates creates the templates that do not exist yet, matched by name
// within their workspace. Templates are immutable, so an existing one is never
// overwritten.
func (s *Service) SeedTemplates(ctx context.Context, seed *SeedFile) (created int, err error) {
	for i := range seed.Templates {
		t := &seed.Templates[i]
		existing, err := s.store.ListTemplates(ctx, t.WorkspaceID)
		if err != nil {
			return created, err
		}
		if hasTemplate(existing, t) {
			logutils.Log.WithField("template", t.Name).Debug("seed template exists, skip")
			continue
		}

		_, err = s.CreateTemplate(ctx, &model.ApprovalTemplate{
			Name:          t.Name,
			Description:   t.Description,
			WorkspaceID:   t.WorkspaceID,
			FormSchema:    datatypes.JSONSlice[model.FormField](t.FormSchema),
			WorkflowSteps: datatypes.JSONSlice[model.WorkflowStep](t.WorkflowSteps),
		})
		if err != nil {
			return created, fmt.Errorf("seed template %q: %w", t.Name, err)
		}
		created++
	}
	return created, nil
}

func hasTemplate(existing []*model.ApprovalTemplate, t *TemplateSeed) bool {
	for _, e := range existing {
		if e.Name == t.Name && e.WorkspaceID == t.WorkspaceID {
			return true
		}
	}
	return false
}
