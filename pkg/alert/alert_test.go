package alert

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/pkg/config"
)

type recordingHandler struct {
	name  string
	err   error
	calls []string
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) SendMessageTo(_ context.Context, receiver, subject, _ string) error {
	h.calls = append(h.calls, receiver+"|"+subject)
	return h.err
}

func sampleNotification() *Notification {
	return &Notification{
		RequestID:    4,
		Serial:       "a1b2",
		TemplateName: "GPU quota",
		Action:       model.ApprovalActionReject,
		Status:       model.ApprovalStatusRejected,
		StepName:     "Admin",
		Actor:        model.Actor{ID: 2, Name: "bob"},
		Requester:    "alice",
		Comment:      "budget exhausted",
	}
}

func TestNotifyFansOut(t *testing.T) {
	failing := &recordingHandler{name: "smtp", err: errors.New("connection refused")}
	ok := &recordingHandler{name: "webhook"}
	mgr := &alertMgr{receiver: "ops@example.com", handlers: []alertHandlerInterface{failing, ok}}

	err := mgr.Notify(context.Background(), sampleNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp")
	assert.Len(t, failing.calls, 1)
	require.Len(t, ok.calls, 1, "a failing handler must not stop the others")
	assert.Equal(t, "ops@example.com|审批通知：GPU quota (Rejected)", ok.calls[0])
}

func TestNotifyWithoutHandlers(t *testing.T) {
	mgr := NewAlertMgr(&config.Config{})
	assert.Empty(t, mgr.handlers)
	assert.NoError(t, mgr.Notify(context.Background(), sampleNotification()))
}

func TestRender(t *testing.T) {
	_, body := render(sampleNotification())
	assert.Contains(t, body, "bob 在节点「Admin」驳回了 alice 的审批单 a1b2")
	assert.Contains(t, body, "审批意见：budget exhausted")
}

func TestWebhookAlerter(t *testing.T) {
	var got Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.Config{}
	cfg.Webhook.URL = server.URL
	cfg.Webhook.Timeout = 2
	mgr := NewAlertMgr(cfg)
	require.Len(t, mgr.handlers, 1)

	require.NoError(t, mgr.Notify(context.Background(), sampleNotification()))
	assert.Equal(t, "text", got.Msgtype)
	assert.Contains(t, got.Text.Content, "GPU quota")
}

func TestWebhookAlerterErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	h := newWebhookAlerter(server.URL, 2)
	err := h.SendMessageTo(context.Background(), "", "s", "b")
	require.ErrorContains(t, err, "502")
}
