package http

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-platform/internal/agent/purchase"
	"procurement-platform/internal/agent/requisition"
	"procurement-platform/internal/api/http/middleware"
	"procurement-platform/internal/session"
	"procurement-platform/pkg/metrics"
)

// fakePurchase 写入推荐并返回固定应答
type fakePurchase struct {
	store *session.Store
}

func (f *fakePurchase) Chat(ctx context.Context, sessionID, message string) purchase.Reply {
	s, release := f.store.Acquire(sessionID)
	defer release()
	s.State = session.StateWaitingConfirmation
	s.CurrentRecommendation = "ThinkPad X1 Carbon"
	s.Touch()
	return purchase.Reply{SessionID: s.ID, State: s.State, Text: "📋 需求分析完成"}
}

type fakeRequisition struct {
	store *session.Store
}

func (f *fakeRequisition) Chat(ctx context.Context, sessionID, message string) requisition.Reply {
	s, release := f.store.Acquire(sessionID)
	defer release()
	s.State = session.StateReviewingRequests
	s.Touch()
	return requisition.Reply{SessionID: s.ID, State: s.State, Text: "📋 待審核的請購單列表"}
}

func newTestServer() (*Handler, *session.Store, *session.Store) {
	ps := session.NewStore(session.UserContext{Requester: "系統使用者", Department: "IT部門"})
	rs := session.NewStore(session.UserContext{Requester: "採購專員", Department: "採購部"})
	h := NewHandler(&fakePurchase{store: ps}, &fakeRequisition{store: rs}, ps, rs)
	return h, ps, rs
}

func performJSON(t *testing.T, h *Handler, method, path string, body []byte) *ut.ResponseRecorder {
	t.Helper()
	s := NewRouter(h, middleware.NewMiddleware()).Build(":0")
	return ut.PerformRequest(s.Engine, method, path,
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func TestChatReturnsEnvelope(t *testing.T) {
	h, _, _ := newTestServer()

	body := []byte(`{"message":"我需要筆記型電腦","session_id":"s1"}`)
	w := performJSON(t, h, "POST", "/api/chat", body)
	require.Equal(t, 200, w.Result().StatusCode())

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, string(session.StateWaitingConfirmation), resp.ConversationState)
	assert.True(t, resp.HasRecommendation)
	assert.False(t, resp.HasConfirmedOrder)
	assert.Contains(t, resp.Response, "需求分析完成")
}

func TestChatGeneratesSessionID(t *testing.T) {
	h, ps, _ := newTestServer()

	body := []byte(`{"message":"我需要筆記型電腦"}`)
	w := performJSON(t, h, "POST", "/api/chat", body)
	require.Equal(t, 200, w.Result().StatusCode())

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.NotNil(t, ps.Get(resp.SessionID))
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	h, _, _ := newTestServer()

	w := performJSON(t, h, "POST", "/api/chat", []byte(`{"session_id":"s1"}`))
	assert.Equal(t, 400, w.Result().StatusCode())
}

func TestRequisitionChatRoute(t *testing.T) {
	h, _, rs := newTestServer()

	body := []byte(`{"message":"查看請購單","session_id":"officer-1"}`)
	w := performJSON(t, h, "POST", "/api/requisition/chat", body)
	require.Equal(t, 200, w.Result().StatusCode())

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.Equal(t, string(session.StateReviewingRequests), resp.ConversationState)
	assert.NotNil(t, rs.Get("officer-1"))
}

func TestGetSessionSnapshot(t *testing.T) {
	h, ps, _ := newTestServer()

	s, release := ps.Acquire("s1")
	s.State = session.StateWaitingOrderDetails
	s.AddMessage("user", "我需要筆記型電腦")
	release()

	w := performJSON(t, h, "GET", "/api/chat/session/s1", nil)
	require.Equal(t, 200, w.Result().StatusCode())

	var snapshot map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &snapshot))
	assert.Equal(t, "s1", snapshot["id"])
	assert.Equal(t, string(session.StateWaitingOrderDetails), snapshot["conversation_state"])
	assert.NotEmpty(t, snapshot["chat_history"])
}

func TestGetSessionNotFound(t *testing.T) {
	h, _, _ := newTestServer()

	w := performJSON(t, h, "GET", "/api/chat/session/missing", nil)
	assert.Equal(t, 404, w.Result().StatusCode())
}

func TestDeleteSession(t *testing.T) {
	h, ps, _ := newTestServer()

	_, release := ps.Acquire("s1")
	release()

	w := performJSON(t, h, "DELETE", "/api/chat/session/s1", nil)
	assert.Equal(t, 200, w.Result().StatusCode())
	assert.Nil(t, ps.Get("s1"))

	w = performJSON(t, h, "DELETE", "/api/chat/session/s1", nil)
	assert.Equal(t, 404, w.Result().StatusCode())
}

func TestListSessionsMergesBothSides(t *testing.T) {
	h, ps, rs := newTestServer()

	_, release := ps.Acquire("req-1")
	release()
	_, release = rs.Acquire("officer-1")
	release()

	w := performJSON(t, h, "GET", "/api/chat/sessions", nil)
	require.Equal(t, 200, w.Result().StatusCode())

	var resp struct {
		Sessions []session.Summary `json:"sessions"`
		Count    int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestHealthCheck(t *testing.T) {
	h, _, _ := newTestServer()

	w := performJSON(t, h, "GET", "/api/health", nil)
	assert.Equal(t, 200, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _, _ := newTestServer()
	metrics.ChatTurnTotal.WithLabelValues("purchase", "initial").Inc()

	w := performJSON(t, h, "GET", "/metrics", nil)
	assert.Equal(t, 200, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), "procurement_chat_turn_total")
}
