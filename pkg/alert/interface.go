package alert

import (
	"context"

	"github.com/raids-lab/approvalflow/dao/model"
)

// Notification describes an action taken on an approval request.
type Notification struct {
	RequestID    uint
	Serial       string
	TemplateName string
	Action       model.ApprovalAction
	Status       model.ApprovalRequestStatus
	StepName     string
	Actor        model.Actor
	Requester    string
	Comment      string
}

// Notifier 是审批流程对外的通知组件，处理器发送失败不影响审批结果
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}

// alertHandlerInterface 是具体的通知组件对外部提供的接口，WPS Robot 或者 SMTP 邮件通知都应该实现这个接口
type alertHandlerInterface interface {
	Name() string
	SendMessageTo(ctx context.Context, receiver, subject, body string) error
}
