package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"k8s.io/klog/v2"

	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/internal/payload"
	"github.com/raids-lab/approvalflow/internal/resputil"
	"github.com/raids-lab/approvalflow/internal/util"
	"github.com/raids-lab/approvalflow/pkg/alert"
	"github.com/raids-lab/approvalflow/pkg/approval"
	"github.com/raids-lab/approvalflow/pkg/metrics"
	"github.com/raids-lab/approvalflow/pkg/workflow"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewApprovalRequestMgr)
}

const notifyTimeout = 10 * time.Second

type ApprovalRequestMgr struct {
	name     string
	service  *approval.Service
	notifier alert.Notifier
}

func NewApprovalRequestMgr(conf *RegisterConfig) Manager {
	return &ApprovalRequestMgr{
		name:     "approval/requests",
		service:  conf.Service,
		notifier: conf.Notifier,
	}
}

func (mgr *ApprovalRequestMgr) GetName() string { return mgr.name }

func (mgr *ApprovalRequestMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ApprovalRequestMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("", mgr.SubmitRequest)               // 提交审批单
	g.GET("", mgr.ListRequests)                 // 获取审批单列表
	g.GET("/:id", mgr.GetRequest)               // 获取审批单详情
	g.POST("/:id/actions", mgr.ProcessRequest)  // 通过、驳回或退回
	g.POST("/:id/comments", mgr.CommentRequest) // 评论，不改变审批状态
	g.GET("/:id/logs", mgr.GetRequestLogs)      // 获取审批日志
}

func (mgr *ApprovalRequestMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListAllRequests)           // 获取所有审批单
	g.DELETE("/:id", mgr.DeleteRequest)      // 删除审批单，日志保留
	g.GET("/:id/replay", mgr.ReplayRequest) // 根据日志重放并校验当前状态
}

type (
	ApprovalRequestResp struct {
		ID              uint                        `json:"id"`
		Serial          string                      `json:"serial"`
		TemplateID      uint                        `json:"templateID"`
		TemplateName    string                      `json:"templateName"`
		WorkspaceID     uint                        `json:"workspaceID"`
		RequesterID     uint                        `json:"requesterID"`
		Requester       model.UserInfo              `json:"requester"`
		CurrentStep     int                         `json:"currentStepIndex"`
		CurrentStepName string                      `json:"currentStepName"`
		Status          model.ApprovalRequestStatus `json:"status"`
		FormData        map[string]any              `json:"formData"`
		WorkflowSteps   []model.WorkflowStep        `json:"workflowSteps"`
		Version         uint                        `json:"version"`
		CreatedAt       time.Time                   `json:"createdAt"`
		UpdatedAt       time.Time                   `json:"updatedAt"`
	}

	ApprovalLogResp struct {
		ID         uint                 `json:"id"`
		RequestID  uint                 `json:"requestID"`
		UserID     uint                 `json:"userID"`
		User       model.UserInfo       `json:"user"`
		Action     model.ApprovalAction `json:"action"`
		Comment    *string              `json:"comment,omitempty"`
		Attachment *string              `json:"attachment,omitempty"`
		StepName   string               `json:"stepName"`
		CreatedAt  time.Time            `json:"createdAt"`
	}

	SubmitRequestReq struct {
		TemplateID  uint           `json:"templateID" binding:"required"`
		WorkspaceID uint           `json:"workspaceID"`
		FormData    map[string]any `json:"formData"`
	}

	// ListRequestsReq 分页参数可选，不传则返回全部
	ListRequestsReq struct {
		PageIndex   *int                          `form:"page_index" binding:"omitempty,min=0"`
		PageSize    *int                          `form:"page_size" binding:"omitempty,min=1"`
		TemplateID  uint                          `form:"template_id"`
		WorkspaceID uint                          `form:"workspace_id"`
		Status      []model.ApprovalRequestStatus `form:"status"`
		Mine        bool                          `form:"mine"`
		Search      string                        `form:"search"`
	}

	ProcessRequestReq struct {
		Action     model.ApprovalAction `json:"action" binding:"required"`
		Comment    *string              `json:"comment"`
		Attachment *string              `json:"attachment"`
	}

	CommentRequestReq struct {
		Comment    string  `json:"comment"`
		Attachment *string `json:"attachment"`
	}

	ReplayResp struct {
		Status    model.ApprovalRequestStatus `json:"status"`
		StepIndex int                         `json:"currentStepIndex"`
		Match     bool                        `json:"match"`
	}
)

func convertRequest(req *model.ApprovalRequest) ApprovalRequestResp {
	steps := req.WorkflowSteps
	if len(steps) == 0 {
		steps = req.Template.WorkflowSteps
	}
	return ApprovalRequestResp{
		ID:           req.ID,
		Serial:       req.Serial,
		TemplateID:   req.TemplateID,
		TemplateName: req.Template.Name,
		WorkspaceID:  req.WorkspaceID,
		RequesterID:  req.RequesterID,
		Requester: model.UserInfo{
			Username: req.RequesterName,
			Avatar:   req.RequesterAvatar,
		},
		CurrentStep:     req.CurrentStepIndex,
		CurrentStepName: workflow.StepName(steps, req.CurrentStepIndex),
		Status:          req.Status,
		FormData:        req.FormData,
		WorkflowSteps:   steps,
		Version:         req.Version,
		CreatedAt:       req.CreatedAt,
		UpdatedAt:       req.UpdatedAt,
	}
}

func convertRequests(requests []*model.ApprovalRequest) []ApprovalRequestResp {
	return lo.Map(requests, func(r *model.ApprovalRequest, _ int) ApprovalRequestResp {
		return convertRequest(r)
	})
}

func convertLog(l *model.ApprovalLog) ApprovalLogResp {
	return ApprovalLogResp{
		ID:        l.ID,
		RequestID: l.RequestID,
		UserID:    l.UserID,
		User: model.UserInfo{
			Username: l.UserName,
			Avatar:   lo.FromPtr(l.UserAvatar),
		},
		Action:     l.Action,
		Comment:    l.Comment,
		Attachment: l.Attachment,
		StepName:   l.StepName,
		CreatedAt:  l.CreatedAt,
	}
}

// notify 发送审批通知，失败只记录日志
func (mgr *ApprovalRequestMgr) notify(c *gin.Context, req *model.ApprovalRequest, entry *model.ApprovalLog) {
	if mgr.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), notifyTimeout)
	defer cancel()

	err := mgr.notifier.Notify(ctx, &alert.Notification{
		RequestID:    req.ID,
		Serial:       req.Serial,
		TemplateName: req.Template.Name,
		Action:       entry.Action,
		Status:       req.Status,
		StepName:     entry.StepName,
		Actor:        model.Actor{ID: entry.UserID, Name: entry.UserName},
		Requester:    req.RequesterName,
		Comment:      lo.FromPtr(entry.Comment),
	})
	if err != nil {
		klog.Warningf("approval notification failed, requestID: %d, err: %v", req.ID, err)
	}
}

// SubmitRequest godoc
//
//	@Summary		提交审批单
//	@Description	校验必填字段后创建审批单，状态为 Pending，当前节点为第一个节点
//	@Tags			approval
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			data	body		SubmitRequestReq						true	"表单数据"
//	@Success		200		{object}	resputil.Response[ApprovalRequestResp]	"提交成功"
//	@Failure		400		{object}	resputil.Response[any]					"必填字段缺失"
//	@Failure		404		{object}	resputil.Response[any]					"模板不存在"
//	@Failure		422		{object}	resputil.Response[any]					"模板没有流程节点"
//	@Router			/v1/approval/requests [post]
func (mgr *ApprovalRequestMgr) SubmitRequest(c *gin.Context) {
	var req SubmitRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)

	// 1. 校验表单必填字段
	tmpl, err := mgr.service.GetTemplate(c, req.TemplateID)
	if err != nil {
		serviceError(c, err)
		return
	}
	if err = approval.ValidateFormData(tmpl.FormSchema, req.FormData); err != nil {
		serviceError(c, err)
		return
	}

	// 2. 创建审批单，工作空间默认取当前 token 的工作空间
	workspaceID := req.WorkspaceID
	if workspaceID == 0 {
		workspaceID = token.WorkspaceID
	}
	created, err := mgr.service.Submit(c, approval.SubmitParams{
		TemplateID:  req.TemplateID,
		WorkspaceID: workspaceID,
		FormData:    req.FormData,
	}, token.Actor())
	if err != nil {
		serviceError(c, err)
		return
	}
	metrics.SubmissionsTotal.Inc()

	// 3. 通知审批人
	mgr.notify(c, created, &model.ApprovalLog{
		UserID:   token.UserID,
		UserName: token.Username,
		Action:   model.ApprovalActionSubmit,
		StepName: workflow.StepName(created.WorkflowSteps, 0),
	})
	resputil.Success(c, convertRequest(created))
}

func (mgr *ApprovalRequestMgr) listRequests(c *gin.Context, filter approval.RequestFilter, req *ListRequestsReq) {
	requests, err := mgr.service.List(c, filter)
	if err != nil {
		serviceError(c, err)
		return
	}

	count := int64(len(requests))
	if req.PageSize != nil {
		offset := lo.FromPtr(req.PageIndex) * *req.PageSize
		requests = lo.Subset(requests, offset, uint(*req.PageSize))
	}
	resputil.Success(c, payload.ListResp[ApprovalRequestResp]{
		Rows:  convertRequests(requests),
		Count: count,
	})
}

// ListRequests godoc
//
//	@Summary		获取审批单列表
//	@Description	默认返回当前工作空间的审批单，mine=true 时只返回自己提交的
//	@Tags			approval
//	@Produce		json
//	@Security		Bearer
//	@Param			page_index		query		int		false	"页码，从 0 开始"
//	@Param			page_size		query		int		false	"每页数量"
//	@Param			template_id		query		int		false	"模板ID"
//	@Param			status			query		[]string	false	"状态"
//	@Param			mine			query		bool	false	"只看自己提交的"
//	@Param			search			query		string	false	"模糊搜索申请人、模板名或单号前缀"
//	@Success		200				{object}	resputil.Response[payload.ListResp[ApprovalRequestResp]]	"审批单列表"
//	@Failure		400				{object}	resputil.Response[any]									"请求参数错误"
//	@Router			/v1/approval/requests [get]
func (mgr *ApprovalRequestMgr) ListRequests(c *gin.Context) {
	var req ListRequestsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)

	filter := approval.RequestFilter{
		WorkspaceID: token.WorkspaceID,
		TemplateID:  req.TemplateID,
		Statuses:    req.Status,
		Search:      req.Search,
	}
	if req.Mine {
		filter.WorkspaceID = 0
		filter.RequesterID = token.UserID
	}
	mgr.listRequests(c, filter, &req)
}

// ListAllRequests godoc
//
//	@Summary		管理员获取所有审批单
//	@Tags			approval
//	@Produce		json
//	@Security		Bearer
//	@Param			workspace_id	query		int		false	"工作空间ID"
//	@Param			status			query		[]string	false	"状态"
//	@Success		200				{object}	resputil.Response[payload.ListResp[ApprovalRequestResp]]	"审批单列表"
//	@Router			/v1/admin/approval/requests [get]
func (mgr *ApprovalRequestMgr) ListAllRequests(c *gin.Context) {
	var req ListRequestsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	klog.Infof("List all approval requests")

	mgr.listRequests(c, approval.RequestFilter{
		WorkspaceID: req.WorkspaceID,
		TemplateID:  req.TemplateID,
		Statuses:    req.Status,
		Search:      req.Search,
	}, &req)
}

// GetRequest godoc
//
//	@Summary		获取审批单详情
//	@Tags			approval
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path		int										true	"审批单ID"
//	@Success		200	{object}	resputil.Response[ApprovalRequestResp]	"审批单详情"
//	@Failure		404	{object}	resputil.Response[any]					"审批单不存在"
//	@Router			/v1/approval/requests/{id} [get]
func (mgr *ApprovalRequestMgr) GetRequest(c *gin.Context) {
	var uri IDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	req, err := mgr.service.Get(c, uri.ID)
	if err != nil {
		serviceError(c, err)
		return
	}
	resputil.Success(c, convertRequest(req))
}

// ProcessRequest godoc
//
//	@Summary		处理审批单
//	@Description	action 为 Approve、Reject 或 Return，只有 Pending 状态的审批单可以处理
//	@Tags			approval
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int										true	"审批单ID"
//	@Param			data	body		ProcessRequestReq						true	"审批动作"
//	@Success		200		{object}	resputil.Response[ApprovalRequestResp]	"处理后的审批单"
//	@Failure		400		{object}	resputil.Response[any]					"动作不合法"
//	@Failure		404		{object}	resputil.Response[any]					"审批单不存在"
//	@Failure		409		{object}	resputil.Response[any]					"审批单已被他人处理或已结束"
//	@Router			/v1/approval/requests/{id}/actions [post]
func (mgr *ApprovalRequestMgr) ProcessRequest(c *gin.Context) {
	var uri IDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req ProcessRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)

	// 1. 计算并提交状态转移
	result, err := mgr.service.Process(c, approval.ProcessParams{
		RequestID:  uri.ID,
		Action:     req.Action,
		Comment:    req.Comment,
		Attachment: req.Attachment,
	}, token.Actor())
	if err != nil {
		serviceError(c, err)
		return
	}
	metrics.RecordTransition(req.Action, result.Request.Status)

	// 2. 通知，失败不影响审批结果
	mgr.notify(c, result.Request, result.Log)
	resputil.Success(c, convertRequest(result.Request))
}

// CommentRequest godoc
//
//	@Summary		评论审批单
//	@Description	在当前节点追加一条评论日志，不改变审批状态
//	@Tags			approval
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int									true	"审批单ID"
//	@Param			data	body		CommentRequestReq					true	"评论内容"
//	@Success		200		{object}	resputil.Response[ApprovalLogResp]	"评论日志"
//	@Failure		400		{object}	resputil.Response[any]				"评论为空"
//	@Router			/v1/approval/requests/{id}/comments [post]
func (mgr *ApprovalRequestMgr) CommentRequest(c *gin.Context) {
	var uri IDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req CommentRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := util.GetToken(c)

	entry, err := mgr.service.Comment(c, uri.ID, token.Actor(), req.Comment, req.Attachment)
	if err != nil {
		serviceError(c, err)
		return
	}
	resputil.Success(c, convertLog(entry))
}

// GetRequestLogs godoc
//
//	@Summary		获取审批日志
//	@Description	按时间正序返回
//	@Tags			approval
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path		int									true	"审批单ID"
//	@Success		200	{object}	resputil.Response[[]ApprovalLogResp]	"审批日志"
//	@Failure		404	{object}	resputil.Response[any]				"审批单不存在"
//	@Router			/v1/approval/requests/{id}/logs [get]
func (mgr *ApprovalRequestMgr) GetRequestLogs(c *gin.Context) {
	var uri IDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	logs, err := mgr.service.GetLogs(c, uri.ID)
	if err != nil {
		serviceError(c, err)
		return
	}
	resputil.Success(c, lo.Map(logs, func(l *model.ApprovalLog, _ int) ApprovalLogResp { return convertLog(l) }))
}

// DeleteRequest godoc
//
//	@Summary		删除审批单
//	@Description	软删除，审批日志保留
//	@Tags			approval
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path		int						true	"审批单ID"
//	@Success		200	{object}	resputil.Response[string]	"删除成功"
//	@Failure		404	{object}	resputil.Response[any]	"审批单不存在"
//	@Router			/v1/admin/approval/requests/{id} [delete]
func (mgr *ApprovalRequestMgr) DeleteRequest(c *gin.Context) {
	var uri IDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := mgr.service.Delete(c, uri.ID); err != nil {
		serviceError(c, err)
		return
	}
	klog.Infof("approval request %d deleted by %s", uri.ID, util.GetToken(c).Username)
	resputil.Success(c, "")
}

// ReplayRequest godoc
//
//	@Summary		重放审批日志
//	@Description	根据审批日志重新计算状态，并与数据库中的状态比对
//	@Tags			approval
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path		int							true	"审批单ID"
//	@Success		200	{object}	resputil.Response[ReplayResp]	"重放结果"
//	@Router			/v1/admin/approval/requests/{id}/replay [get]
func (mgr *ApprovalRequestMgr) ReplayRequest(c *gin.Context) {
	var uri IDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	state, match, err := mgr.service.Replay(c, uri.ID)
	if err != nil {
		serviceError(c, err)
		return
	}
	if !match {
		klog.Warningf("approval request %d diverges from its log: replayed %s@%d", uri.ID, state.Status, state.StepIndex)
	}
	resputil.Success(c, ReplayResp{Status: state.Status, StepIndex: state.StepIndex, Match: match})
}
