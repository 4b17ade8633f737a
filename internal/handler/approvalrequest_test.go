package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/internal"
	"github.com/raids-lab/approvalflow/internal/handler"
	"github.com/raids-lab/approvalflow/internal/resputil"
	"github.com/raids-lab/approvalflow/internal/util"
	"github.com/raids-lab/approvalflow/pkg/alert"
	"github.com/raids-lab/approvalflow/pkg/approval"
	dbapproval "github.com/raids-lab/approvalflow/pkg/db/approval"
	"github.com/raids-lab/approvalflow/pkg/db/dbtest"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*alert.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n *alert.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

type testServer struct {
	t        *testing.T
	engine   *gin.Engine
	tokenMgr *util.TokenManager
	notifier *fakeNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokenMgr := util.NewTokenManager("test-secret", time.Hour)
	notifier := &fakeNotifier{}
	backend := internal.Register(&handler.RegisterConfig{
		Service:  approval.NewService(dbapproval.NewDBService(dbtest.Open(t))),
		Notifier: notifier,
		TokenMgr: tokenMgr,
	})
	return &testServer{t: t, engine: backend.R, tokenMgr: tokenMgr, notifier: notifier}
}

func (s *testServer) token(id uint, name string, role model.Role) string {
	s.t.Helper()
	token, err := s.tokenMgr.CreateToken(&util.JWTMessage{
		UserID: id, Username: name, WorkspaceID: 1, RolePlatform: role,
	})
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body any) (int, resputil.Response[json.RawMessage]) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var resp resputil.Response[json.RawMessage]
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func createTemplate(t *testing.T, s *testServer, admin string) uint {
	t.Helper()
	code, resp := s.do(http.MethodPost, "/v1/admin/approval/templates", admin, handler.CreateTemplateReq{
		Name: "Purchase",
		FormSchema: []model.FormField{
			{ID: "amount", Label: "Amount", Type: model.FormFieldNumber, Required: true},
		},
		WorkflowSteps: []model.WorkflowStep{
			{ID: "lead", Name: "Team lead", Type: model.WorkflowStepApproval},
			{ID: "cfo", Name: "CFO", Type: model.WorkflowStepApproval,
				Condition: &model.StepCondition{Field: "amount", Operator: model.OperatorGreaterThan, Value: 1000}},
			{ID: "finance", Name: "Finance", Type: model.WorkflowStepApproval},
		},
	})
	require.Equal(t, http.StatusOK, code, resp.Msg)
	return decode[handler.ApprovalTemplateResp](t, resp.Data).ID
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/v1/approval/templates", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodGet, "/v1/approval/templates", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	user := s.token(2, "bob", model.RoleUser)
	code, resp := s.do(http.MethodPost, "/v1/admin/approval/templates", user, handler.CreateTemplateReq{Name: "x"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, resputil.UserNotAllowed, resp.Code)

	code, _ = s.do(http.MethodGet, "/v1/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestApprovalFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(1, "admin", model.RoleAdmin)
	alice := s.token(2, "alice", model.RoleUser)
	bob := s.token(3, "bob", model.RoleUser)
	templateID := createTemplate(t, s, admin)

	// Required field missing.
	code, resp := s.do(http.MethodPost, "/v1/approval/requests", alice, handler.SubmitRequestReq{
		TemplateID: templateID, FormData: map[string]any{},
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, resputil.ValidationFailed, resp.Code)

	code, resp = s.do(http.MethodPost, "/v1/approval/requests", alice, handler.SubmitRequestReq{
		TemplateID: templateID, FormData: map[string]any{"amount": 300},
	})
	require.Equal(t, http.StatusOK, code, resp.Msg)
	submitted := decode[handler.ApprovalRequestResp](t, resp.Data)
	assert.Equal(t, model.ApprovalStatusPending, submitted.Status)
	assert.Equal(t, "Team lead", submitted.CurrentStepName)
	assert.Equal(t, uint(1), submitted.WorkspaceID)

	path := "/v1/approval/requests/" + itoa(submitted.ID)

	// CFO is skipped because the amount is small.
	code, resp = s.do(http.MethodPost, path+"/actions", bob, handler.ProcessRequestReq{Action: model.ApprovalActionApprove})
	require.Equal(t, http.StatusOK, code, resp.Msg)
	approved := decode[handler.ApprovalRequestResp](t, resp.Data)
	assert.Equal(t, 2, approved.CurrentStep)
	assert.Equal(t, "Finance", approved.CurrentStepName)

	code, _ = s.do(http.MethodPost, path+"/comments", bob, handler.CommentRequestReq{Comment: "quote attached"})
	require.Equal(t, http.StatusOK, code)

	code, resp = s.do(http.MethodPost, path+"/actions", bob, handler.ProcessRequestReq{
		Action: model.ApprovalActionReject, Comment: ptr.To("over budget"),
	})
	require.Equal(t, http.StatusOK, code, resp.Msg)
	assert.Equal(t, model.ApprovalStatusRejected, decode[handler.ApprovalRequestResp](t, resp.Data).Status)

	// Finished requests refuse further transitions.
	code, resp = s.do(http.MethodPost, path+"/actions", bob, handler.ProcessRequestReq{Action: model.ApprovalActionApprove})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, resputil.NotActionable, resp.Code)

	code, resp = s.do(http.MethodPost, path+"/actions", bob, handler.ProcessRequestReq{Action: model.ApprovalActionSubmit})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, resputil.InvalidAction, resp.Code)

	code, resp = s.do(http.MethodGet, path+"/logs", alice, nil)
	require.Equal(t, http.StatusOK, code)
	logs := decode[[]handler.ApprovalLogResp](t, resp.Data)
	require.Len(t, logs, 4)
	assert.Equal(t, []model.ApprovalAction{
		model.ApprovalActionSubmit, model.ApprovalActionApprove, model.ApprovalActionComment, model.ApprovalActionReject,
	}, []model.ApprovalAction{logs[0].Action, logs[1].Action, logs[2].Action, logs[3].Action})
	assert.Equal(t, "Team lead", logs[1].StepName)
	assert.Equal(t, "Finance", logs[3].StepName)
	assert.Equal(t, ptr.To("over budget"), logs[3].Comment)

	code, resp = s.do(http.MethodGet, "/v1/admin/approval/requests/"+itoa(submitted.ID)+"/replay", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[handler.ReplayResp](t, resp.Data).Match)

	s.notifier.mu.Lock()
	assert.Len(t, s.notifier.sent, 3, "submit, approve and reject notify")
	s.notifier.mu.Unlock()
}

func TestListAndDelete(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(1, "admin", model.RoleAdmin)
	alice := s.token(2, "alice", model.RoleUser)
	templateID := createTemplate(t, s, admin)

	var ids []uint
	for i := 0; i < 3; i++ {
		code, resp := s.do(http.MethodPost, "/v1/approval/requests", alice, handler.SubmitRequestReq{
			TemplateID: templateID, FormData: map[string]any{"amount": 5},
		})
		require.Equal(t, http.StatusOK, code)
		ids = append(ids, decode[handler.ApprovalRequestResp](t, resp.Data).ID)
	}

	code, resp := s.do(http.MethodGet, "/v1/approval/requests?mine=true&page_index=0&page_size=2", alice, nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[listResp](t, resp.Data)
	assert.Equal(t, int64(3), page.Count)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, ids[2], page.Rows[0].ID)

	code, _ = s.do(http.MethodDelete, "/v1/admin/approval/requests/"+itoa(ids[0]), admin, nil)
	require.Equal(t, http.StatusOK, code)

	code, resp = s.do(http.MethodGet, "/v1/approval/requests/"+itoa(ids[0]), alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, resputil.ResourceNotFound, resp.Code)

	code, resp = s.do(http.MethodGet, "/v1/admin/approval/requests?status=Pending", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(2), decode[listResp](t, resp.Data).Count)
}

func TestCreateTemplateRejectsUnknownOperator(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(1, "admin", model.RoleAdmin)

	code, resp := s.do(http.MethodPost, "/v1/admin/approval/templates", admin, handler.CreateTemplateReq{
		Name: "bad",
		WorkflowSteps: []model.WorkflowStep{
			{ID: "a", Name: "A", Type: model.WorkflowStepApproval},
			{ID: "b", Name: "B", Type: model.WorkflowStepApproval,
				Condition: &model.StepCondition{Field: "amount", Operator: "contains", Value: "x"}},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, resputil.InvalidTemplate, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/metrics", http.NoBody)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "approval_submissions_total")
}

type listResp struct {
	Rows  []handler.ApprovalRequestResp `json:"rows"`
	Count int64                         `json:"count"`
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestVerifyToken(t *testing.T) {
	s := newTestServer(t)
	code, resp := s.do(http.MethodGet, "/v1/token/verify", s.token(7, "carol", model.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, code)

	msg := decode[util.JWTMessage](t, resp.Data)
	assert.Equal(t, uint(7), msg.UserID)
	assert.Equal(t, "carol", msg.Username)
	assert.Equal(t, model.RoleAdmin, msg.RolePlatform)
}
