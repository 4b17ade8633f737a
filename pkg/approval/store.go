package approval

import (
	"context"

	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/pkg/workflow"
)

// RequestFilter narrows ListRequests. Zero values match everything.
type RequestFilter struct {
	WorkspaceID uint
	TemplateID  uint
	RequesterID uint
	Statuses    []model.ApprovalRequestStatus
	// Search is matched fuzzily against requester and template names by the service.
	Search string
}

// Store persists templates, requests and their logs.
// Lookups of missing records fail with an error wrapping ErrNotFound.
type Store interface {
	CreateTemplate(ctx context.Context, tmpl *model.ApprovalTemplate) error
	GetTemplate(ctx context.Context, id uint) (*model.ApprovalTemplate, error)
	ListTemplates(ctx context.Context, workspaceID uint) ([]*model.ApprovalTemplate, error)

	// CreateRequest inserts req together with its Submit log entry.
	CreateRequest(ctx context.Context, req *model.ApprovalRequest, submit *model.ApprovalLog) error
	GetRequest(ctx context.Context, id uint) (*model.ApprovalRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]*model.ApprovalRequest, error)
	DeleteRequest(ctx context.Context, id uint) error
	CountRequestsByStatus(ctx context.Context) (map[model.ApprovalRequestStatus]int64, error)

	// CommitTransition moves req to next only if its stored version still equals
	// req.Version, appending entry in the same transaction. A stale version fails
	// with ErrConflict. On success req reflects the stored row.
	CommitTransition(ctx context.Context, req *model.ApprovalRequest, next workflow.Transition, entry *model.ApprovalLog) error

	AppendLog(ctx context.Context, entry *model.ApprovalLog) error
	ListLogs(ctx context.Context, requestID uint) ([]*model.ApprovalLog, error)
}
