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

// Package purchase 实现请购端对话 Agent：接收使用者输入，分类意图，
// 驱动 INITIAL → WAITING_CONFIRMATION → … → COMPLETED 状态机，
// 最终向记录服务提交请购单。
package purchase

import (
	"context"
	"time"

	"procurement-platform/internal/oracle"
	"procurement-platform/internal/records"
	"procurement-platform/internal/session"
	"procurement-platform/pkg/log"
	"procurement-platform/pkg/metrics"
)

// generative Agent 所需的生成式服务调用面
type generative interface {
	ClassifyIntent(ctx context.Context, currentState, userInput string, history []oracle.Message) (*oracle.IntentResult, error)
	ExtractRequirement(ctx context.Context, userRequest string) (*oracle.Requirement, error)
	Recommend(ctx context.Context, userRequest, historyText string) (string, error)
	Adjust(ctx context.Context, currentRecommendation, adjustmentRequest, historyText string) (string, error)
	ExtractOrderFields(ctx context.Context, userInput string) (*oracle.OrderFields, error)
	ExtractProductDefaults(ctx context.Context, recommendation string) (*oracle.ProductDefaults, error)
	Guidance(ctx context.Context, userInput, currentState string) (string, error)
}

// recordService Agent 所需的记录服务调用面
type recordService interface {
	PurchaseHistory(ctx context.Context, filter records.HistoryFilter) ([]records.HistoricalRecord, error)
	CreateRequest(ctx context.Context, draft records.OrderDraft) (*records.CreateRequestResponse, error)
}

// Agent 请购端对话 Agent
type Agent struct {
	oracle  generative
	records recordService
	store   *session.Store
	logger  *log.Logger
}

// NewAgent 创建请购 Agent
func NewAgent(gen generative, rec recordService, store *session.Store, logger *log.Logger) *Agent {
	return &Agent{oracle: gen, records: rec, store: store, logger: logger}
}

// Reply 单轮对话结果
type Reply struct {
	SessionID string
	State     session.State
	Text      string
}

// handler 按状态分发的处理函数
type handler func(ctx context.Context, sess *session.Session, userInput string) string

// Chat 处理一轮对话。所有失败都落为文本回复和确定的状态，从不向上抛错。
func (a *Agent) Chat(ctx context.Context, sessionID, userInput string) Reply {
	sess, release := a.store.Acquire(sessionID)
	defer release()

	start := time.Now()
	defer func() {
		metrics.ChatTurnDuration.WithLabelValues("purchase").Observe(time.Since(start).Seconds())
		metrics.ChatTurnTotal.WithLabelValues("purchase", string(sess.State)).Inc()
	}()

	sess.AddMessage("user", userInput)
	response := a.route(ctx, sess, userInput)
	sess.AddMessage("assistant", response)

	return Reply{SessionID: sess.ID, State: sess.State, Text: response}
}

// route 路由优先级：偏题 → 产品变更 → 新需求 → 按状态分发
func (a *Agent) route(ctx context.Context, sess *session.Session, userInput string) string {
	intent := a.classifyIntent(ctx, sess, userInput)

	if !intent.IsPurchaseRelated {
		return a.handleOffTopic(ctx, sess, userInput, intent)
	}

	if intent.IsProductChange {
		return a.handleProductChange(ctx, sess, userInput)
	}

	if intent.Intent == oracle.IntentNewRequest || sess.State == session.StateInitial || sess.State == session.StateCompleted {
		if sess.State == session.StateCompleted {
			sess.ResetPurchase()
		}
		return a.handleNewRequest(ctx, sess, userInput)
	}

	handlers := map[session.State]handler{
		session.StateWaitingConfirmation: a.handleConfirmation,
		session.StateAdjusting:           a.handleAdjustment,
		session.StateWaitingOrderDetails: a.handleOrderDetails,
		session.StateConfirmingOrder:     a.handleOrderConfirmation,
	}
	if h, ok := handlers[sess.State]; ok {
		return h(ctx, sess, userInput)
	}
	return "請告訴我您想要採購什麼產品？"
}

// classifyIntent 意图分类；失败时降级为 unclear / 非采购相关
func (a *Agent) classifyIntent(ctx context.Context, sess *session.Session, userInput string) *oracle.IntentResult {
	history := toOracleMessages(sess.RecentHistory(5))
	result, err := a.oracle.ClassifyIntent(ctx, string(sess.State), userInput, history)
	if err != nil {
		a.logger.Error("意圖分類失敗", "session_id", sess.ID, "error", err)
		return &oracle.IntentResult{
			Intent:            oracle.IntentUnclear,
			IsPurchaseRelated: false,
			GuidanceMessage:   "抱歉，我無法理解您的需求。請告訴我您想要採購什麼產品？",
		}
	}
	return result
}

func toOracleMessages(msgs []session.Message) []oracle.Message {
	out := make([]oracle.Message, len(msgs))
	for i, m := range msgs {
		out[i] = oracle.Message{Role: m.Role, Content: m.Content}
	}
	return out
}
