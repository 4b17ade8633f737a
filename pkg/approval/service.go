// Package approval runs approval requests through their template's workflow.
//
// The service loads state from a Store, asks the workflow engine for the next
// (status, step) pair and commits it together with one audit log entry.
package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"gorm.io/datatypes"

	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/pkg/logutils"
	"github.com/raids-lab/approvalflow/pkg/workflow"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type (
	SubmitParams struct {
		TemplateID  uint
		WorkspaceID uint
		FormData    map[string]any
	}

	ProcessParams struct {
		RequestID  uint
		Action     model.ApprovalAction
		Comment    *string
		Attachment *string
	}

	// Result carries what a caller needs to report a transition,
	// e.g. to build a notification.
	Result struct {
		Request        *model.ApprovalRequest
		Log            *model.ApprovalLog
		TemplateName   string
		PreviousStatus model.ApprovalRequestStatus
		// StepName is the step the action was taken against.
		StepName string
	}
)

// CreateTemplate validates and stores a new template. Templates are never
// updated afterwards.
func (s *Service) CreateTemplate(ctx context.Context, tmpl *model.ApprovalTemplate) (*model.ApprovalTemplate, error) {
	if strings.TrimSpace(tmpl.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if err := workflow.ValidateSteps(tmpl.WorkflowSteps); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	seen := make(map[string]struct{}, len(tmpl.FormSchema))
	for i := range tmpl.FormSchema {
		field := &tmpl.FormSchema[i]
		if strings.TrimSpace(field.ID) == "" || !field.Type.IsValid() {
			return nil, fmt.Errorf("%w: form field %d is malformed", ErrInvalidTemplate, i)
		}
		if _, dup := seen[field.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate form field %q", ErrInvalidTemplate, field.ID)
		}
		seen[field.ID] = struct{}{}
	}

	if err := s.store.CreateTemplate(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("create template %q: %w", tmpl.Name, err)
	}
	logutils.Log.WithFields(logutils.Fields{"template": tmpl.ID, "steps": len(tmpl.WorkflowSteps)}).
		Info("approval template created")
	return tmpl, nil
}

func (s *Service) GetTemplate(ctx context.Context, id uint) (*model.ApprovalTemplate, error) {
	return s.store.GetTemplate(ctx, id)
}

func (s *Service) ListTemplates(ctx context.Context, workspaceID uint) ([]*model.ApprovalTemplate, error) {
	return s.store.ListTemplates(ctx, workspaceID)
}

// Submit creates a Pending request at step 0 and logs the Submit action against
// that step. Required form fields are expected to be checked by the caller with
// ValidateFormData.
func (s *Service) Submit(ctx context.Context, params SubmitParams, actor model.Actor) (*model.ApprovalRequest, error) {
	tmpl, err := s.store.GetTemplate(ctx, params.TemplateID)
	if err != nil {
		return nil, err
	}

	state, err := workflow.Start(tmpl.WorkflowSteps)
	if err != nil {
		return nil, fmt.Errorf("%w: template %d: %w", ErrInvalidTemplate, tmpl.ID, err)
	}

	formData := params.FormData
	if formData == nil {
		formData = map[string]any{}
	}
	workspaceID := params.WorkspaceID
	if workspaceID == 0 {
		workspaceID = tmpl.WorkspaceID
	}

	req := &model.ApprovalRequest{
		Serial:           uuid.NewString(),
		TemplateID:       tmpl.ID,
		WorkspaceID:      workspaceID,
		RequesterID:      actor.ID,
		RequesterName:    actor.Name,
		RequesterAvatar:  actor.Avatar,
		CurrentStepIndex: state.StepIndex,
		Status:           state.Status,
		FormData:         datatypes.JSONMap(formData),
		WorkflowSteps:    append(datatypes.JSONSlice[model.WorkflowStep]{}, tmpl.WorkflowSteps...),
		Version:          1,
	}
	entry := newLog(actor, model.ApprovalActionSubmit, nil, nil, workflow.StepName(req.WorkflowSteps, state.StepIndex))

	if err := s.store.CreateRequest(ctx, req, entry); err != nil {
		return nil, fmt.Errorf("submit request for template %d: %w", tmpl.ID, err)
	}
	req.Template = *tmpl

	logutils.Log.WithFields(logutils.Fields{
		"request":  req.ID,
		"template": tmpl.ID,
		"user":     actor.ID,
	}).Info("approval request submitted")
	return req, nil
}

// Process applies an Approve, Reject or Return action to a Pending request.
// Nothing is written when the transition fails.
func (s *Service) Process(ctx context.Context, params ProcessParams, actor model.Actor) (*Result, error) {
	if !params.Action.IsTransition() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, params.Action)
	}

	req, err := s.store.GetRequest(ctx, params.RequestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.ApprovalStatusPending {
		return nil, fmt.Errorf("%w: request %d is %s", ErrNotActionable, req.ID, req.Status)
	}

	steps := stepsOf(req)
	next, err := workflow.Apply(steps, req.CurrentStepIndex, req.FormData, params.Action)
	if err != nil {
		return nil, fmt.Errorf("request %d: %w", req.ID, err)
	}

	result := &Result{
		TemplateName:   req.Template.Name,
		PreviousStatus: req.Status,
		StepName:       steps[req.CurrentStepIndex].Name,
	}
	entry := newLog(actor, params.Action, params.Comment, params.Attachment, result.StepName)
	if err := s.store.CommitTransition(ctx, req, next, entry); err != nil {
		return nil, err
	}
	result.Request = req
	result.Log = entry

	logutils.Log.WithFields(logutils.Fields{
		"request": req.ID,
		"action":  params.Action,
		"status":  req.Status,
		"step":    req.CurrentStepIndex,
		"user":    actor.ID,
	}).Info("approval request processed")
	return result, nil
}

// Comment records a remark against the request's current step without
// changing its state. It is allowed in any status.
func (s *Service) Comment(ctx context.Context, requestID uint, actor model.Actor, comment string, attachment *string) (*model.ApprovalLog, error) {
	if strings.TrimSpace(comment) == "" && attachment == nil {
		return nil, &ValidationError{Fields: []string{"comment"}}
	}
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	entry := newLog(actor, model.ApprovalActionComment, lo.EmptyableToPtr(strings.TrimSpace(comment)), attachment,
		workflow.StepName(stepsOf(req), req.CurrentStepIndex))
	entry.RequestID = req.ID
	if err := s.store.AppendLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("comment on request %d: %w", req.ID, err)
	}
	return entry, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*model.ApprovalRequest, error) {
	return s.store.GetRequest(ctx, id)
}

// List returns requests matching filter, newest first.
func (s *Service) List(ctx context.Context, filter RequestFilter) ([]*model.ApprovalRequest, error) {
	requests, err := s.store.ListRequests(ctx, filter)
	if err != nil {
		return nil, err
	}
	search := strings.TrimSpace(filter.Search)
	if search == "" {
		return requests, nil
	}
	return lo.Filter(requests, func(r *model.ApprovalRequest, _ int) bool {
		return fuzzy.MatchFold(search, r.RequesterName) ||
			fuzzy.MatchFold(search, r.Template.Name) ||
			strings.HasPrefix(r.Serial, search)
	}), nil
}

// GetLogs returns the request's audit trail in timeline order.
func (s *Service) GetLogs(ctx context.Context, requestID uint) ([]*model.ApprovalLog, error) {
	if _, err := s.store.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}
	return s.store.ListLogs(ctx, requestID)
}

// Replay recomputes the request's state from its log and reports whether it
// matches what is stored.
func (s *Service) Replay(ctx context.Context, requestID uint) (workflow.Transition, bool, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return workflow.Transition{}, false, err
	}
	logs, err := s.store.ListLogs(ctx, requestID)
	if err != nil {
		return workflow.Transition{}, false, err
	}

	actions := lo.Map(logs, func(l *model.ApprovalLog, _ int) model.ApprovalAction { return l.Action })
	state, err := workflow.Replay(stepsOf(req), req.FormData, actions)
	if err != nil {
		return workflow.Transition{}, false, fmt.Errorf("replay request %d: %w", req.ID, err)
	}
	match := state.Status == req.Status && state.StepIndex == req.CurrentStepIndex
	return state, match, nil
}

// Delete soft-deletes a request. It is an administrative operation outside the
// workflow; logs are kept.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.store.DeleteRequest(ctx, id); err != nil {
		return err
	}
	logutils.Log.WithField("request", id).Warn("approval request deleted")
	return nil
}

// IsClientError reports whether err was caused by the caller's input or the
// request's state rather than by the store.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidTemplate, ErrValidation, ErrConflict, ErrNotActionable,
		ErrInvalidStep, ErrInvalidAction, ErrInvalidCondition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// stepsOf prefers the snapshot taken at submission and falls back to the
// template for rows created before snapshots existed.
func stepsOf(req *model.ApprovalRequest) []model.WorkflowStep {
	if len(req.WorkflowSteps) > 0 {
		return req.WorkflowSteps
	}
	return req.Template.WorkflowSteps
}

func newLog(actor model.Actor, action model.ApprovalAction, comment, attachment *string, stepName string) *model.ApprovalLog {
	entry := &model.ApprovalLog{
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     action,
		Comment:    comment,
		Attachment: attachment,
		StepName:   stepName,
	}
	if actor.Avatar != "" {
		entry.UserAvatar = lo.ToPtr(actor.Avatar)
	}
	return entry
}
