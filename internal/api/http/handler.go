// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package http 暴露对话编排的 HTTP 接口。
package http

import (
	"bytes"
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"procurement-platform/internal/agent/purchase"
	"procurement-platform/internal/agent/requisition"
	"procurement-platform/internal/session"
	"procurement-platform/pkg/metrics"
)

// purchaseChat 请购端对话入口
type purchaseChat interface {
	Chat(ctx context.Context, sessionID, message string) purchase.Reply
}

// requisitionChat 采购专员端对话入口
type requisitionChat interface {
	Chat(ctx context.Context, sessionID, message string) requisition.Reply
}

// Handler HTTP 请求处理器。会话查询接口同时覆盖两侧的会话仓库。
type Handler struct {
	purchase         purchaseChat
	requisition      requisitionChat
	purchaseStore    *session.Store
	requisitionStore *session.Store
}

// NewHandler 创建处理器
func NewHandler(pc purchaseChat, rc requisitionChat, ps, rs *session.Store) *Handler {
	return &Handler{
		purchase:         pc,
		requisition:      rc,
		purchaseStore:    ps,
		requisitionStore: rs,
	}
}

// ChatRequest POST /api/chat 请求体
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatResponse 对话应答
type ChatResponse struct {
	Response          string `json:"response"`
	SessionID         string `json:"session_id"`
	ConversationState string `json:"conversation_state"`
	HasRecommendation bool   `json:"has_recommendation"`
	HasConfirmedOrder bool   `json:"has_confirmed_order"`
}

// Chat 请购端对话
// POST /api/chat
func (h *Handler) Chat(c context.Context, ctx *app.RequestContext) {
	var req ChatRequest
	if err := ctx.BindJSON(&req); err != nil || req.Message == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "message is required",
		})
		return
	}

	reply := h.purchase.Chat(c, req.SessionID, req.Message)
	ctx.JSON(consts.StatusOK, h.chatResponse(h.purchaseStore, reply.SessionID, string(reply.State), reply.Text))
}

// RequisitionChat 采购专员端对话
// POST /api/requisition/chat
func (h *Handler) RequisitionChat(c context.Context, ctx *app.RequestContext) {
	var req ChatRequest
	if err := ctx.BindJSON(&req); err != nil || req.Message == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "message is required",
		})
		return
	}

	reply := h.requisition.Chat(c, req.SessionID, req.Message)
	ctx.JSON(consts.StatusOK, h.chatResponse(h.requisitionStore, reply.SessionID, string(reply.State), reply.Text))
}

func (h *Handler) chatResponse(store *session.Store, sessionID, state, text string) ChatResponse {
	resp := ChatResponse{
		Response:          text,
		SessionID:         sessionID,
		ConversationState: state,
	}
	if store != nil {
		if s := store.Get(sessionID); s != nil {
			summary := s.Summarize()
			resp.HasRecommendation = summary.HasRecommendation
			resp.HasConfirmedOrder = summary.HasConfirmedOrder
		}
	}
	return resp
}

// GetSession 返回会话完整快照
// GET /api/chat/session/:id
func (h *Handler) GetSession(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	s := h.lookupSession(id)
	if s == nil {
		ctx.JSON(consts.StatusNotFound, map[string]string{
			"error": "session not found",
		})
		return
	}
	ctx.JSON(consts.StatusOK, s.Snapshot())
}

// DeleteSession 丢弃会话
// DELETE /api/chat/session/:id
func (h *Handler) DeleteSession(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	deleted := false
	if h.purchaseStore != nil && h.purchaseStore.Delete(id) {
		deleted = true
	}
	if h.requisitionStore != nil && h.requisitionStore.Delete(id) {
		deleted = true
	}
	if !deleted {
		ctx.JSON(consts.StatusNotFound, map[string]string{
			"error": "session not found",
		})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]string{
		"status": "deleted",
	})
}

// ListSessions 列出全部会话摘要，按更新时间倒序
// GET /api/chat/sessions
func (h *Handler) ListSessions(c context.Context, ctx *app.RequestContext) {
	var out []session.Summary
	if h.purchaseStore != nil {
		out = append(out, h.purchaseStore.List()...)
	}
	if h.requisitionStore != nil {
		out = append(out, h.requisitionStore.List()...)
	}
	if out == nil {
		out = []session.Summary{}
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"sessions": out,
		"count":    len(out),
	})
}

// HealthCheck 健康检查
// GET /api/health
func (h *Handler) HealthCheck(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Metrics Prometheus 文本格式指标
// GET /metrics
func (h *Handler) Metrics(c context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		hlog.CtxErrorf(c, "write metrics failed: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "failed to collect metrics",
		})
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

// lookupSession 依次在两侧仓库中查找会话
func (h *Handler) lookupSession(id string) *session.Session {
	if h.purchaseStore != nil {
		if s := h.purchaseStore.Get(id); s != nil {
			return s
		}
	}
	if h.requisitionStore != nil {
		if s := h.requisitionStore.Get(id); s != nil {
			return s
		}
	}
	return nil
}
