package approval_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/pkg/approval"
)

func TestSeedTemplates(t *testing.T) {
	data, err := os.ReadFile("../../etc/seed-templates.yaml")
	require.NoError(t, err)
	seed, err := approval.ParseSeed(data)
	require.NoError(t, err)
	require.NotEmpty(t, seed.Templates)

	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.SeedTemplates(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, len(seed.Templates), created)

	created, err = svc.SeedTemplates(ctx, seed)
	require.NoError(t, err)
	assert.Zero(t, created, "seeding twice creates nothing")

	templates, err := svc.ListTemplates(ctx, 0)
	require.NoError(t, err)
	cond := templates[0].WorkflowSteps[1].Condition
	require.NotNil(t, cond)
	assert.Equal(t, model.OperatorGreaterThan, cond.Operator)
}

func TestParseSeedRejectsUnknownKeys(t *testing.T) {
	_, err := approval.ParseSeed([]byte("templates:\n  - name: x\n    steps: []\n"))
	require.Error(t, err)
}

func TestSeedTemplatesStopsOnInvalid(t *testing.T) {
	svc, _ := newService(t)
	seed, err := approval.ParseSeed([]byte(`
templates:
  - name: ok
    workflowSteps:
      - {id: a, name: A, type: approval}
  - name: broken
    workflowSteps: []
`))
	require.NoError(t, err)

	created, err := svc.SeedTemplates(context.Background(), seed)
	require.ErrorIs(t, err, approval.ErrInvalidTemplate)
	assert.Equal(t, 1, created)
}
