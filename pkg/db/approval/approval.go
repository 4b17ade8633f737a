package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raids-lab/approvalflow/dao/model"
	appr "github.com/raids-lab/approvalflow/pkg/approval"
	"github.com/raids-lab/approvalflow/pkg/workflow"
)

type service struct {
	db *gorm.DB
}

// NewDBService returns an approval.Store backed by db.
func NewDBService(db *gorm.DB) appr.Store {
	return &service{db: db}
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", appr.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

func (s *service) CreateTemplate(ctx context.Context, tmpl *model.ApprovalTemplate) error {
	return s.db.WithContext(ctx).Create(tmpl).Error
}

func (s *service) GetTemplate(ctx context.Context, id uint) (*model.ApprovalTemplate, error) {
	var tmpl model.ApprovalTemplate
	if err := s.db.WithContext(ctx).First(&tmpl, id).Error; err != nil {
		return nil, notFound(err, "template %d", id)
	}
	return &tmpl, nil
}

func (s *service) ListTemplates(ctx context.Context, workspaceID uint) ([]*model.ApprovalTemplate, error) {
	var templates []*model.ApprovalTemplate
	q := s.db.WithContext(ctx).Order("id ASC")
	if workspaceID != 0 {
		q = q.Where("workspace_id = ?", workspaceID)
	}
	if err := q.Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *service) CreateRequest(ctx context.Context, req *model.ApprovalRequest, submit *model.ApprovalLog) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(req).Error; err != nil {
			return err
		}
		submit.RequestID = req.ID
		return tx.Create(submit).Error
	})
}

func (s *service) GetRequest(ctx context.Context, id uint) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := s.db.WithContext(ctx).Preload("Template").First(&req, id).Error; err != nil {
		return nil, notFound(err, "request %d", id)
	}
	return &req, nil
}

func (s *service) ListRequests(ctx context.Context, filter appr.RequestFilter) ([]*model.ApprovalRequest, error) {
	q := s.db.WithContext(ctx).Preload("Template").Order("created_at DESC, id DESC")
	if filter.WorkspaceID != 0 {
		q = q.Where("workspace_id = ?", filter.WorkspaceID)
	}
	if filter.TemplateID != 0 {
		q = q.Where("template_id = ?", filter.TemplateID)
	}
	if filter.RequesterID != 0 {
		q = q.Where("requester_id = ?", filter.RequesterID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}

	var requests []*model.ApprovalRequest
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *service) DeleteRequest(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.ApprovalRequest{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: request %d", appr.ErrNotFound, id)
	}
	return nil
}

func (s *service) CountRequestsByStatus(ctx context.Context) (map[model.ApprovalRequestStatus]int64, error) {
	var rows []struct {
		Status model.ApprovalRequestStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&model.ApprovalRequest{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.ApprovalRequestStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *service) CommitTransition(
	ctx context.Context,
	req *model.ApprovalRequest,
	next workflow.Transition,
	entry *model.ApprovalLog,
) error {
	now := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ApprovalRequest{}).
			Where("id = ? AND version = ?", req.ID, req.Version).
			Updates(map[string]any{
				"status":             next.Status,
				"current_step_index": next.StepIndex,
				"version":            gorm.Expr("version + ?", 1),
				"updated_at":         now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.ApprovalRequest{}).Where("id = ?", req.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("%w: request %d", appr.ErrNotFound, req.ID)
			}
			return fmt.Errorf("%w: request %d changed since version %d", appr.ErrConflict, req.ID, req.Version)
		}

		entry.RequestID = req.ID
		return tx.Create(entry).Error
	})
	if err != nil {
		return err
	}

	req.Status = next.Status
	req.CurrentStepIndex = next.StepIndex
	req.Version++
	req.UpdatedAt = now
	return nil
}

func (s *service) AppendLog(ctx context.Context, entry *model.ApprovalLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *service) ListLogs(ctx context.Context, requestID uint) ([]*model.ApprovalLog, error) {
	var logs []*model.ApprovalLog
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
