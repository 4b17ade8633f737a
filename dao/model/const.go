// 定义与数据库表字段对应的常量
// 由于 Gin 框架在进行参数校验时，如果给了 required 标签，则不能传入零值
// 所以在定义数值常量时，最好将零值排除在外，请使用 iota + 1 定义第一个常量
package model

// User role in platform
type Role uint8

const (
	RoleGuest Role = iota + 1
	RoleUser
	RoleAdmin
)

// ApprovalRequestStatus 审批请求状态
type ApprovalRequestStatus string

const (
	ApprovalStatusDraft    ApprovalRequestStatus = "Draft"
	ApprovalStatusPending  ApprovalRequestStatus = "Pending"
	ApprovalStatusApproved ApprovalRequestStatus = "Approved"
	ApprovalStatusRejected ApprovalRequestStatus = "Rejected"
	ApprovalStatusReturned ApprovalRequestStatus = "Returned"
)

// AllApprovalStatuses lists statuses in display order.
var AllApprovalStatuses = []ApprovalRequestStatus{
	ApprovalStatusDraft,
	ApprovalStatusPending,
	ApprovalStatusApproved,
	ApprovalStatusRejected,
	ApprovalStatusReturned,
}

func (s ApprovalRequestStatus) IsValid() bool {
	switch s {
	case ApprovalStatusDraft, ApprovalStatusPending, ApprovalStatusApproved,
		ApprovalStatusRejected, ApprovalStatusReturned:
		return true
	}
	return false
}

// ApprovalAction 审批动作
type ApprovalAction string

const (
	ApprovalActionSubmit  ApprovalAction = "Submit"
	ApprovalActionApprove ApprovalAction = "Approve"
	ApprovalActionReject  ApprovalAction = "Reject"
	ApprovalActionReturn  ApprovalAction = "Return"
	ApprovalActionComment ApprovalAction = "Comment"
)

// IsTransition reports whether the action moves a request between states.
func (a ApprovalAction) IsTransition() bool {
	return a == ApprovalActionApprove || a == ApprovalActionReject || a == ApprovalActionReturn
}

// FormFieldType 表单字段类型
type FormFieldType string

const (
	FormFieldText            FormFieldType = "text"
	FormFieldNumber          FormFieldType = "number"
	FormFieldTextarea        FormFieldType = "textarea"
	FormFieldDate            FormFieldType = "date"
	FormFieldSelect          FormFieldType = "select"
	FormFieldFile            FormFieldType = "file"
	FormFieldFileMultiple    FormFieldType = "file_multiple"
	FormFieldUserSelect      FormFieldType = "user_select"
	FormFieldWorkspaceSelect FormFieldType = "workspace_select"
)

func (t FormFieldType) IsValid() bool {
	switch t {
	case FormFieldText, FormFieldNumber, FormFieldTextarea, FormFieldDate, FormFieldSelect,
		FormFieldFile, FormFieldFileMultiple, FormFieldUserSelect, FormFieldWorkspaceSelect:
		return true
	}
	return false
}

// WorkflowStepType 审批节点类型
type WorkflowStepType string

const (
	WorkflowStepApproval WorkflowStepType = "approval" // 审批节点
	WorkflowStepCC       WorkflowStepType = "cc"       // 抄送节点
)

func (t WorkflowStepType) IsValid() bool {
	return t == WorkflowStepApproval || t == WorkflowStepCC
}
