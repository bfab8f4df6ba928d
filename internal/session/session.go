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

package session

import (
	"sync"
	"time"

	"procurement-platform/internal/oracle"
	"procurement-platform/internal/records"
)

// 对话历史只保留最近 maxHistory 条，作为模型上下文，从不回放给使用者
const maxHistory = 20

// Message 对话消息（role + 内容）
type Message struct {
	Role    string `json:"role"` // user | assistant
	Content string `json:"content"`
}

// UserContext 会话的缺省请购人/部门
type UserContext struct {
	Requester  string `json:"requester"`
	Department string `json:"department"`
}

// OrderDetails 请购单详情收集的中间态。三项必填字段允许分多轮补齐，
// 已知字段不会被重复询问。
type OrderDetails struct {
	Quantity             int    `json:"quantity"`
	Requester            string `json:"requester"`
	ExpectedDeliveryDate string `json:"expected_delivery_date"`
	Reason               string `json:"reason,omitempty"`
	Urgent               bool   `json:"urgent,omitempty"`
}

// Complete 三项必填字段是否齐全
func (d OrderDetails) Complete() bool {
	return d.Quantity > 0 && d.Requester != "" && d.ExpectedDeliveryDate != ""
}

// Missing 尚缺的字段名（面向使用者的描述）
func (d OrderDetails) Missing() []string {
	var out []string
	if d.Quantity <= 0 {
		out = append(out, "數量")
	}
	if d.Requester == "" {
		out = append(out, "請購人姓名")
	}
	if d.ExpectedDeliveryDate == "" {
		out = append(out, "預期交貨日期")
	}
	return out
}

// ReviewContext 一次审核周期的上下文，完成或取消后整体丢弃
type ReviewContext struct {
	CurrentRequest  *records.PurchaseRequest    `json:"current_request,omitempty"`
	PendingRequests []records.PurchaseRequest   `json:"pending_requests,omitempty"`
	PurchaseHistory []records.HistoricalRecord  `json:"purchase_history,omitempty"`
	Inventory       []records.StockEntry        `json:"inventory,omitempty"`
	Decision        *oracle.DecisionAnalysis    `json:"decision,omitempty"`
	OrderDraft      *records.PurchaseOrderDraft `json:"order_draft,omitempty"`
}

// Session 单个会话的全部可变状态。仅存在于内存；进程重启即丢失。
// 每轮恰好一个 handler 在持有轮锁的情况下原地修改。
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	State       State     `json:"conversation_state"`
	ChatHistory []Message `json:"chat_history"`

	UserRequest           string                      `json:"user_request,omitempty"`
	Requirement           *oracle.Requirement         `json:"requirement,omitempty"`
	PurchaseHistory       []records.HistoricalRecord  `json:"purchase_history,omitempty"`
	CurrentRecommendation string                      `json:"current_recommendation,omitempty"`
	SelectedProduct       *records.HistoricalRecord   `json:"selected_product,omitempty"`
	PartialDetails        OrderDetails                `json:"partial_details,omitempty"`
	ConfirmedOrder        *records.OrderDraft         `json:"confirmed_order,omitempty"`
	LastSubmission        *records.CreateRequestResponse `json:"last_submission,omitempty"`
	UserContext           UserContext                 `json:"user_context"`

	Review *ReviewContext `json:"review,omitempty"`

	// turnMu 轮级互斥：同一会话的并发轮次串行执行（单写者）
	turnMu sync.Mutex
}

// New 创建初始状态的会话
func New(id string, userCtx UserContext) *Session {
	now := time.Now()
	return &Session{
		ID:          id,
		CreatedAt:   now,
		UpdatedAt:   now,
		State:       StateInitial,
		UserContext: userCtx,
	}
}

// Lock 获取轮锁；一轮处理从 Lock 到 Unlock 之间独占会话
func (s *Session) Lock() { s.turnMu.Lock() }

// Unlock 释放轮锁
func (s *Session) Unlock() { s.turnMu.Unlock() }

// Touch 更新修改时间
func (s *Session) Touch() { s.UpdatedAt = time.Now() }

// AddMessage 追加对话消息并裁剪到最近 maxHistory 条
func (s *Session) AddMessage(role, content string) {
	s.ChatHistory = append(s.ChatHistory, Message{Role: role, Content: content})
	if len(s.ChatHistory) > maxHistory {
		s.ChatHistory = s.ChatHistory[len(s.ChatHistory)-maxHistory:]
	}
	s.Touch()
}

// RecentHistory 返回最近 n 条消息（模型上下文用）
func (s *Session) RecentHistory(n int) []Message {
	if n <= 0 || len(s.ChatHistory) == 0 {
		return nil
	}
	if len(s.ChatHistory) <= n {
		return s.ChatHistory
	}
	return s.ChatHistory[len(s.ChatHistory)-n:]
}

// ResetPurchase 清空请购流程字段，回到初始状态（取消或完成后重开）
func (s *Session) ResetPurchase() {
	s.State = StateInitial
	s.UserRequest = ""
	s.Requirement = nil
	s.PurchaseHistory = nil
	s.CurrentRecommendation = ""
	s.SelectedProduct = nil
	s.PartialDetails = OrderDetails{}
	s.ConfirmedOrder = nil
	s.Touch()
}

// ResetReview 丢弃审核上下文，回到初始状态
func (s *Session) ResetReview() {
	s.State = StateInitial
	s.Review = nil
	s.Touch()
}

// Summary 会话摘要（列表端点用）
type Summary struct {
	ID                string    `json:"id"`
	State             State     `json:"conversation_state"`
	HasRecommendation bool      `json:"has_recommendation"`
	HasConfirmedOrder bool      `json:"has_confirmed_order"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Snapshot 在轮锁下生成会话副本，供查询端点序列化。
// 进行中的轮次与序列化不共享可变字段。
func (s *Session) Snapshot() *Session {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	out := &Session{
		ID:                    s.ID,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
		State:                 s.State,
		ChatHistory:           append([]Message(nil), s.ChatHistory...),
		UserRequest:           s.UserRequest,
		Requirement:           s.Requirement,
		PurchaseHistory:       s.PurchaseHistory,
		CurrentRecommendation: s.CurrentRecommendation,
		SelectedProduct:       s.SelectedProduct,
		PartialDetails:        s.PartialDetails,
		ConfirmedOrder:        s.ConfirmedOrder,
		LastSubmission:        s.LastSubmission,
		UserContext:           s.UserContext,
	}
	if s.Review != nil {
		review := *s.Review
		out.Review = &review
	}
	return out
}

// Summarize 生成摘要；在轮锁下读取，与进行中的轮次串行
func (s *Session) Summarize() Summary {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	return Summary{
		ID:                s.ID,
		State:             s.State,
		HasRecommendation: s.CurrentRecommendation != "",
		HasConfirmedOrder: s.ConfirmedOrder != nil,
		UpdatedAt:         s.UpdatedAt,
	}
}
