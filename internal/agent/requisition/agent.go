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

// Package requisition 实现采购专员端对话 Agent：审核请购单、
// 采购决策分析、创建并执行采购单。输入中出现的请购单号优先于
// 意图分类，直接进入决策分析。
package requisition

import (
	"context"
	"strings"
	"time"

	"procurement-platform/internal/oracle"
	"procurement-platform/internal/records"
	"procurement-platform/internal/session"
	"procurement-platform/pkg/log"
	"procurement-platform/pkg/metrics"
)

// generative Agent 所需的生成式服务调用面
type generative interface {
	ClassifyOfficerIntent(ctx context.Context, currentState, userInput string, history []oracle.Message) (*oracle.OfficerIntentResult, error)
	ValidateRequestStatus(ctx context.Context, requestInfo string) (*oracle.StatusVerdict, error)
	AnalyzeDecision(ctx context.Context, requestInfo, historyInfo, inventoryInfo string) (*oracle.DecisionAnalysis, error)
	BuildPurchaseOrder(ctx context.Context, requestInfo, decisionInfo string) (*records.PurchaseOrderDraft, error)
	OfficerGuidance(ctx context.Context, userInput, currentState string) (string, error)
}

// recordService Agent 所需的记录服务调用面
type recordService interface {
	ListRequests(ctx context.Context, status string) ([]records.PurchaseRequest, error)
	GetRequest(ctx context.Context, requestID string) (*records.PurchaseRequest, error)
	PurchaseHistory(ctx context.Context, filter records.HistoryFilter) ([]records.HistoricalRecord, error)
	Inventory(ctx context.Context, filter records.InventoryFilter) ([]records.StockEntry, error)
	CreateOrderFromRequest(ctx context.Context, requestID string, draft *records.PurchaseOrderDraft) (*records.CreateOrderResponse, error)
}

// Agent 采购专员端对话 Agent
type Agent struct {
	oracle  generative
	records recordService
	store   *session.Store
	logger  *log.Logger
}

// NewAgent 创建采购专员 Agent
func NewAgent(gen generative, rec recordService, store *session.Store, logger *log.Logger) *Agent {
	return &Agent{oracle: gen, records: rec, store: store, logger: logger}
}

// Reply 单轮对话结果
type Reply struct {
	SessionID string
	State     session.State
	Text      string
}

// Chat 处理一轮审核对话
func (a *Agent) Chat(ctx context.Context, sessionID, userInput string) Reply {
	sess, release := a.store.Acquire(sessionID)
	defer release()

	start := time.Now()
	defer func() {
		metrics.ChatTurnDuration.WithLabelValues("requisition").Observe(time.Since(start).Seconds())
		metrics.ChatTurnTotal.WithLabelValues("requisition", string(sess.State)).Inc()
	}()

	sess.AddMessage("user", userInput)
	response := a.route(ctx, sess, userInput)
	sess.AddMessage("assistant", response)

	return Reply{SessionID: sess.ID, State: sess.State, Text: response}
}

// route 请购单号优先于意图分类；其余按意图与状态分发
func (a *Agent) route(ctx context.Context, sess *session.Session, userInput string) string {
	// 单号覆写：无论当前状态，直接进入决策分析
	if id := ExtractRequestID(userInput); id != "" {
		return a.handleAnalyzeDecision(ctx, sess, id)
	}

	// 确认阶段的关键字分支不走生成式服务
	if sess.State == session.StateConfirmingPurchaseOrder {
		return a.handleConfirmOrder(ctx, sess, userInput)
	}

	// 任意状态下取消都回到初始
	if sess.State != session.StateInitial && matchAny(userInput, cancelKeywords) {
		sess.ResetReview()
		return "已取消本次審核。如果您需要審核其他請購單，請重新開始。"
	}

	intent := a.classifyIntent(ctx, sess, userInput)

	if !intent.IsProcurementRelated {
		return a.handleOffTopic(ctx, sess, userInput, intent)
	}

	switch {
	case intent.Intent == oracle.IntentReviewRequests || sess.State == session.StateInitial:
		return a.handleReviewRequests(ctx, sess)

	case intent.Intent == oracle.IntentAnalyzePurchaseDecision || sess.State == session.StateReviewingRequests:
		// 没有单号无从分析
		return "請提供請購單號，例如：「審核 PR20250107ABCDEF」"

	case intent.Intent == oracle.IntentCreatePurchaseOrder || sess.State == session.StateAnalyzingDecision || sess.State == session.StateCreatingPurchaseOrder:
		return a.handleCreateOrder(ctx, sess, userInput)

	case sess.State == session.StatePurchaseOrderCompleted:
		sess.ResetReview()
		return a.handleReviewRequests(ctx, sess)

	default:
		return "請告訴我您想要審核哪個請購單？您可以輸入「查看請購單」來查看所有待審核的請購單。"
	}
}

// classifyIntent 意图分类；失败时降级为 unclear / 非审核相关
func (a *Agent) classifyIntent(ctx context.Context, sess *session.Session, userInput string) *oracle.OfficerIntentResult {
	history := toOracleMessages(sess.RecentHistory(5))
	result, err := a.oracle.ClassifyOfficerIntent(ctx, string(sess.State), userInput, history)
	if err != nil {
		a.logger.Error("意圖分類失敗", "session_id", sess.ID, "error", err)
		return &oracle.OfficerIntentResult{
			Intent:               oracle.IntentUnclear,
			IsProcurementRelated: false,
			GuidanceMessage:      "抱歉，我無法理解您的需求。請告訴我您想要處理哪個請購單？",
		}
	}
	return result
}

// handleOffTopic 偏题输入：请求引导消息，不改会话状态
func (a *Agent) handleOffTopic(ctx context.Context, sess *session.Session, userInput string, intent *oracle.OfficerIntentResult) string {
	guidance, err := a.oracle.OfficerGuidance(ctx, userInput, string(sess.State))
	if err != nil {
		a.logger.Warn("生成引導訊息失敗", "session_id", sess.ID, "error", err)
		if intent.GuidanceMessage != "" {
			return intent.GuidanceMessage
		}
		return "我是專門協助您處理採購審核相關事務的助手。請告訴我您想要審核哪個請購單？"
	}
	return guidance
}

func toOracleMessages(msgs []session.Message) []oracle.Message {
	out := make([]oracle.Message, len(msgs))
	for i, m := range msgs {
		out[i] = oracle.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

// containsProduct 大小写不敏感的产品名包含判断（记录服务不支持按品名过滤，客户端自行收窄）
func containsProduct(name, product string) bool {
	if product == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(product))
}
