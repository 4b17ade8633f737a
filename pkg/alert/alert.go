package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/pkg/config"
	"github.com/raids-lab/approvalflow/pkg/logutils"
)

type alertMgr struct {
	receiver string
	handlers []alertHandlerInterface
}

var (
	once    sync.Once
	alerter *alertMgr
)

func GetAlertMgr() Notifier {
	once.Do(func() {
		alerter = NewAlertMgr(config.GetConfig())
	})
	return alerter
}

// NewAlertMgr enables SMTP when a host is configured and the webhook when a
// URL is. With neither, Notify only logs.
func NewAlertMgr(cfg *config.Config) *alertMgr {
	mgr := &alertMgr{receiver: cfg.SMTP.Notify}
	if cfg.SMTP.Host != "" {
		smtpHandler, err := newSMTPAlerter(cfg)
		if err != nil {
			logutils.Log.WithError(err).Error("smtp alerter disabled")
		} else {
			mgr.handlers = append(mgr.handlers, smtpHandler)
		}
	}
	if cfg.Webhook.URL != "" {
		mgr.handlers = append(mgr.handlers, newWebhookAlerter(cfg.Webhook.URL, cfg.Webhook.Timeout))
	}
	return mgr
}

// Notify sends n through every handler. A failing handler does not stop the
// others; their errors are joined.
func (a *alertMgr) Notify(ctx context.Context, n *Notification) error {
	subject, body := render(n)
	if len(a.handlers) == 0 {
		logutils.Log.WithField("request", n.RequestID).Debug("no alert handler configured: ", subject)
		return nil
	}

	var errs []error
	for _, h := range a.handlers {
		if err := h.SendMessageTo(ctx, a.receiver, subject, body); err != nil {
			logutils.Log.WithError(err).WithField("handler", h.Name()).Error("send approval notification")
			errs = append(errs, fmt.Errorf("%s: %w", h.Name(), err))
		}
	}
	return errors.Join(errs...)
}

var actionText = map[model.ApprovalAction]string{
	model.ApprovalActionSubmit:  "提交了",
	model.ApprovalActionApprove: "通过了",
	model.ApprovalActionReject:  "驳回了",
	model.ApprovalActionReturn:  "退回了",
	model.ApprovalActionComment: "评论了",
}

func render(n *Notification) (subject, body string) {
	verb, ok := actionText[n.Action]
	if !ok {
		verb = string(n.Action)
	}
	subject = fmt.Sprintf("审批通知：%s (%s)", n.TemplateName, n.Status)
	body = fmt.Sprintf("%s 在节点「%s」%s %s 的审批单 %s，当前状态：%s。",
		n.Actor.Name, n.StepName, verb, n.Requester, n.Serial, n.Status)
	if n.Comment != "" {
		body += "\n审批意见：" + n.Comment
	}
	return subject, body
}
