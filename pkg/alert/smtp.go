package alert

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/raids-lab/approvalflow/pkg/config"
	"github.com/raids-lab/approvalflow/pkg/logutils"
)

type SMTPAlerter struct {
	from   string
	dialer *gomail.Dialer
}

func newSMTPAlerter(cfg *config.Config) (alertHandlerInterface, error) {
	port, err := strconv.Atoi(cfg.SMTP.Port)
	if err != nil {
		return nil, fmt.Errorf("smtp port %q: %w", cfg.SMTP.Port, err)
	}
	dialer := gomail.NewDialer(cfg.SMTP.Host, port, cfg.SMTP.User, cfg.SMTP.Password)
	dialer.Auth = getLoginAuth(cfg.SMTP.User, cfg.SMTP.Password)
	return &SMTPAlerter{from: cfg.SMTP.User, dialer: dialer}, nil
}

// 使用的服务器不支持tls，所以把smtpAuth相关的一些部分重写以绕过tls的检验。
type loginAuth struct {
	username, password string
}

func getLoginAuth(username, password string) smtp.Auth {
	return &loginAuth{username, password}
}

func (a *loginAuth) Start(_ *smtp.ServerInfo) (proto string, toServe []byte, err error) {
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	command := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(string(fromServer)), ":"))
	switch command {
	case "username":
		return []byte(a.username), nil
	case "password":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected server challenge: %s", command)
	}
}

func (sa *SMTPAlerter) Name() string { return "smtp" }

func (sa *SMTPAlerter) SendMessageTo(_ context.Context, receiver, subject, body string) error {
	if receiver == "" {
		logutils.Log.Warn("smtp.notify is empty, skip approval mail")
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", sa.from)
	msg.SetHeader("To", receiver)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := sa.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", receiver, err)
	}
	logutils.Log.Infof("Sent email to %s", receiver)
	return nil
}
