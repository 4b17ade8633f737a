package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"k8s.io/klog/v2"

	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/internal/resputil"
	"github.com/raids-lab/approvalflow/pkg/approval"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewApprovalTemplateMgr)
}

type ApprovalTemplateMgr struct {
	name    string
	service *approval.Service
}

func NewApprovalTemplateMgr(conf *RegisterConfig) Manager {
	return &ApprovalTemplateMgr{
		name:    "approval/templates",
		service: conf.Service,
	}
}

func (mgr *ApprovalTemplateMgr) GetName() string { return mgr.name }

func (mgr *ApprovalTemplateMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ApprovalTemplateMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.ListTemplates)  // 获取审批模板列表
	g.GET("/:id", mgr.GetTemplate) // 获取审批模板详情
}

func (mgr *ApprovalTemplateMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.POST("", mgr.CreateTemplate) // 创建审批模板，模板创建后不可修改
}

type (
	ApprovalTemplateResp struct {
		ID            uint                 `json:"id"`
		Name          string               `json:"name"`
		Description   string               `json:"description"`
		WorkspaceID   uint                 `json:"workspaceID"`
		FormSchema    []model.FormField    `json:"formSchema"`
		WorkflowSteps []model.WorkflowStep `json:"workflowSteps"`
		CreatedAt     time.Time            `json:"createdAt"`
	}

	ListTemplatesReq struct {
		WorkspaceID uint `form:"workspace_id"`
	}

	IDReq struct {
		ID uint `uri:"id" binding:"required"`
	}

	CreateTemplateReq struct {
		Name          string               `json:"name" binding:"required"`
		Description   string               `json:"description"`
		WorkspaceID   uint                 `json:"workspaceID"`
		FormSchema    []model.FormField    `json:"formSchema"`
		WorkflowSteps []model.WorkflowStep `json:"workflowSteps" binding:"required"`
	}
)

func convertTemplate(tmpl *model.ApprovalTemplate) ApprovalTemplateResp {
	resp := ApprovalTemplateResp{
		ID:            tmpl.ID,
		Name:          tmpl.Name,
		Description:   tmpl.Description,
		WorkspaceID:   tmpl.WorkspaceID,
		FormSchema:    tmpl.FormSchema,
		WorkflowSteps: tmpl.WorkflowSteps,
		CreatedAt:     tmpl.CreatedAt,
	}
	if resp.FormSchema == nil {
		resp.FormSchema = []model.FormField{}
	}
	return resp
}

// ListTemplates godoc
//
//	@Summary		获取审批模板列表
//	@Description	按工作空间筛选，不传则返回全部模板
//	@Tags			approval
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			workspace_id	query		int										false	"工作空间ID"
//	@Success		200				{object}	resputil.Response[[]ApprovalTemplateResp]	"模板列表"
//	@Failure		400				{object}	resputil.Response[any]					"请求参数错误"
//	@Failure		500				{object}	resputil.Response[any]					"其他错误"
//	@Router			/v1/approval/templates [get]
func (mgr *ApprovalTemplateMgr) ListTemplates(c *gin.Context) {
	var req ListTemplatesReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	templates, err := mgr.service.ListTemplates(c, req.WorkspaceID)
	if err != nil {
		serviceError(c, err)
		return
	}
	resputil.Success(c, lo.Map(templates, func(t *model.ApprovalTemplate, _ int) ApprovalTemplateResp {
		return convertTemplate(t)
	}))
}

// GetTemplate godoc
//
//	@Summary		获取审批模板详情
//	@Tags			approval
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path		int										true	"模板ID"
//	@Success		200	{object}	resputil.Response[ApprovalTemplateResp]	"模板详情"
//	@Failure		404	{object}	resputil.Response[any]					"模板不存在"
//	@Router			/v1/approval/templates/{id} [get]
func (mgr *ApprovalTemplateMgr) GetTemplate(c *gin.Context) {
	var uri IDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	tmpl, err := mgr.service.GetTemplate(c, uri.ID)
	if err != nil {
		serviceError(c, err)
		return
	}
	resputil.Success(c, convertTemplate(tmpl))
}

// CreateTemplate godoc
//
//	@Summary		创建审批模板
//	@Description	校验流程节点与表单字段后保存，模板创建后不可修改
//	@Tags			approval
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			data	body		CreateTemplateReq						true	"模板定义"
//	@Success		200		{object}	resputil.Response[ApprovalTemplateResp]	"创建成功"
//	@Failure		400		{object}	resputil.Response[any]					"请求参数错误"
//	@Failure		422		{object}	resputil.Response[any]					"模板定义不合法"
//	@Router			/v1/admin/approval/templates [post]
func (mgr *ApprovalTemplateMgr) CreateTemplate(c *gin.Context) {
	var req CreateTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	tmpl, err := mgr.service.CreateTemplate(c, &model.ApprovalTemplate{
		Name:          req.Name,
		Description:   req.Description,
		WorkspaceID:   req.WorkspaceID,
		FormSchema:    datatypes.JSONSlice[model.FormField](req.FormSchema),
		WorkflowSteps: datatypes.JSONSlice[model.WorkflowStep](req.WorkflowSteps),
	})
	if err != nil {
		serviceError(c, err)
		return
	}
	klog.Infof("approval template %d (%s) created", tmpl.ID, tmpl.Name)
	resputil.Success(c, convertTemplate(tmpl))
}
