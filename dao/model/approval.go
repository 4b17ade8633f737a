package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FormField 表单字段定义，引擎不关心其语义，仅作为 form_data 的键
type FormField struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Type     FormFieldType `json:"type"`
	Required bool          `json:"required"`
	Options  []string      `json:"options,omitempty"`
}

// ConditionOperator is the closed set of comparison operators a step condition may use.
type ConditionOperator string

const (
	OperatorGreaterThan ConditionOperator = ">"
	OperatorLessThan    ConditionOperator = "<"
	OperatorEqual       ConditionOperator = "=="
	OperatorNotEqual    ConditionOperator = "!="
)

func (o ConditionOperator) IsValid() bool {
	switch o {
	case OperatorGreaterThan, OperatorLessThan, OperatorEqual, OperatorNotEqual:
		return true
	}
	return false
}

// StepCondition 条件节点：读取 form_data[Field] 与 Value 比较
type StepCondition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    any               `json:"value"`
}

// WorkflowStep 审批流程中的一个节点，节点下标即其在模板中的位置
type WorkflowStep struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         WorkflowStepType `json:"type"`
	ApproverRole string           `json:"approver_role,omitempty"`
	ApproverID   *uint            `json:"approver_id,omitempty"`
	Condition    *StepCondition   `json:"condition,omitempty"`
}

// ApprovalTemplate 审批模板，创建后不可修改
type ApprovalTemplate struct {
	gorm.Model
	Name          string                            `gorm:"type:varchar(256);not null;comment:模板名称"`
	Description   string                            `gorm:"type:text;comment:模板描述"`
	WorkspaceID   uint                              `gorm:"index;comment:所属工作空间"`
	FormSchema    datatypes.JSONSlice[FormField]    `gorm:"comment:表单字段定义"`
	WorkflowSteps datatypes.JSONSlice[WorkflowStep] `gorm:"comment:审批流程节点"`
}

// ApprovalRequest 审批请求
type ApprovalRequest struct {
	gorm.Model
	Serial     string           `gorm:"uniqueIndex;type:varchar(64);not null;comment:审批单号"`
	TemplateID uint             `gorm:"index;not null;comment:模板ID"`
	Template   ApprovalTemplate `gorm:"foreignKey:TemplateID"`

	WorkspaceID     uint   `gorm:"index;comment:所属工作空间"`
	RequesterID     uint   `gorm:"index;not null;comment:申请人ID"`
	RequesterName   string `gorm:"type:varchar(128);comment:申请人名称"`
	RequesterAvatar string `gorm:"type:varchar(512);comment:申请人头像"`

	CurrentStepIndex int                   `gorm:"not null;default:0;comment:当前节点下标"`
	Status           ApprovalRequestStatus `gorm:"type:varchar(32);not null;default:Pending;index;comment:审批状态"`
	FormData         datatypes.JSONMap     `gorm:"comment:表单数据"`

	// WorkflowSteps is the template's step list captured at submission time.
	WorkflowSteps datatypes.JSONSlice[WorkflowStep] `gorm:"comment:提交时的流程快照"`
	// Version is bumped by every committed transition.
	Version uint `gorm:"not null;default:1;comment:乐观锁版本号"`
}

// ApprovalLog 审批日志，只追加，不修改
type ApprovalLog struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`

	RequestID  uint           `gorm:"index;not null;comment:审批请求ID"`
	UserID     uint           `gorm:"not null;comment:操作人ID"`
	UserName   string         `gorm:"type:varchar(128);comment:操作人名称"`
	UserAvatar *string        `gorm:"type:varchar(512);comment:操作人头像"`
	Action     ApprovalAction `gorm:"type:varchar(32);not null;comment:操作类型"`
	Comment    *string        `gorm:"type:text;comment:审批意见"`
	Attachment *string        `gorm:"type:varchar(1024);comment:附件"`
	StepName   string         `gorm:"type:varchar(256);comment:操作时所在节点"`
}
