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

package purchase

import (
	"context"
	"fmt"
	"strings"

	"procurement-platform/internal/matcher"
	"procurement-platform/internal/oracle"
	"procurement-platform/internal/records"
	"procurement-platform/internal/session"
)

// handleNewRequest 处理新的请购需求：抽取需求 → 拉取采购历史 →
// 生成推荐 → 解析到具体历史记录 → 等待确认。
// 任一外部调用失败都停在当前状态并返回诊断信息。
func (a *Agent) handleNewRequest(ctx context.Context, sess *session.Session, userInput string) string {
	requirement, err := a.oracle.ExtractRequirement(ctx, userInput)
	if err != nil {
		a.logger.Error("需求抽取失敗", "session_id", sess.ID, "error", err)
		return "抱歉，處理您的請求時發生錯誤，請重新描述您的採購需求。"
	}

	history, err := a.records.PurchaseHistory(ctx, records.HistoryFilter{Category: requirement.ProductType})
	if err != nil {
		a.logger.Error("獲取採購歷史失敗", "session_id", sess.ID, "error", err)
		return "抱歉，目前無法取得採購歷史資料，請稍後重試。"
	}

	recommendation, err := a.oracle.Recommend(ctx, userInput, formatHistory(history))
	if err != nil {
		a.logger.Error("產品推薦失敗", "session_id", sess.ID, "error", err)
		return "抱歉，產生推薦時發生錯誤，請稍後重試。"
	}

	selected := matcher.Resolve(recommendation, history)
	if selected == nil && requirement.ProductType != "" {
		selected = matcher.ResolveRequirement(matcher.Requirement{
			ProductType: requirement.ProductType,
			Budget:      requirement.Budget,
		}, recommendation, history)
	}

	sess.State = session.StateWaitingConfirmation
	sess.UserRequest = userInput
	sess.Requirement = requirement
	sess.PurchaseHistory = history
	sess.CurrentRecommendation = recommendation
	sess.SelectedProduct = selected
	sess.PartialDetails = session.OrderDetails{}
	sess.ConfirmedOrder = nil
	sess.Touch()

	header := "🎯 推薦產品"
	if len(history) > 0 {
		header = "🎯 智能推薦 (基於採購歷史分析)"
	}
	return fmt.Sprintf("📋 需求分析完成\n\n%s\n\n%s\n\n請確認是否同意此推薦？\n- 輸入「同意」來接受推薦\n- 輸入「不同意」來調整推薦", header, recommendation)
}

// handleConfirmation 处理推荐确认。肯定/否定用本地关键字族判定；
// 否定先于肯定检查（「不同意」含「同意」子串）。模糊输入重新提问，不转移状态。
func (a *Agent) handleConfirmation(ctx context.Context, sess *session.Session, userInput string) string {
	switch {
	case matchAny(userInput, negativeKeywords):
		sess.State = session.StateAdjusting
		sess.Touch()
		return "我理解您想要調整推薦。請告訴我您的具體需求：\n\n1. 如果您想要歷史記錄中的特定產品，請說明產品名稱\n2. 如果您想要全新的產品，請提供產品名稱和預期價格\n\n請詳細描述您的需求。"

	case matchAny(userInput, affirmativeKeywords):
		sess.State = session.StateWaitingOrderDetails
		sess.Touch()
		confirmed := "✅ 推薦確認"
		if sess.SelectedProduct != nil {
			confirmed = "✅ 產品確認：" + sess.SelectedProduct.ProductName
		}
		return confirmed + "\n\n現在請提供以下資訊以完成請購單：\n\n1. **數量**：您需要多少台/個？\n2. **請購人姓名**：請購人的完整姓名\n3. **預期交貨日期**：希望什麼時候交貨？（格式：YYYY-MM-DD）\n\n例如：「數量：2台，請購人：張三，交貨日期：2025-07-15」"

	default:
		return "請明確回答是否同意此推薦？\n- 輸入「同意」或「確認」來接受推薦\n- 輸入「不同意」或「調整」來修改推薦"
	}
}

// handleAdjustment 根据调整要求重新推荐并回到等待确认
func (a *Agent) handleAdjustment(ctx context.Context, sess *session.Session, userInput string) string {
	history := sess.PurchaseHistory
	if len(history) == 0 {
		fetched, err := a.records.PurchaseHistory(ctx, records.HistoryFilter{})
		if err != nil {
			a.logger.Error("獲取採購歷史失敗", "session_id", sess.ID, "error", err)
			return "抱歉，目前無法取得採購歷史資料，請稍後重試。"
		}
		history = fetched
		sess.PurchaseHistory = fetched
	}

	adjusted, err := a.oracle.Adjust(ctx, sess.CurrentRecommendation, userInput, formatHistory(history))
	if err != nil {
		a.logger.Error("調整推薦失敗", "session_id", sess.ID, "error", err)
		return "抱歉，調整推薦時發生錯誤，請重新描述您的調整需求。"
	}

	sess.State = session.StateWaitingConfirmation
	sess.CurrentRecommendation = adjusted
	sess.SelectedProduct = matcher.Resolve(adjusted, history)
	sess.Touch()

	return fmt.Sprintf("🔄 推薦已調整 (基於採購歷史智能分析)\n\n%s\n\n請確認是否同意此調整後的推薦？\n- 輸入「同意」來接受推薦\n- 輸入「不同意」來進一步調整", adjusted)
}

// handleProductChange 产品变更：无视当前状态，按新约束重新推荐
func (a *Agent) handleProductChange(ctx context.Context, sess *session.Session, userInput string) string {
	history := sess.PurchaseHistory
	if len(history) == 0 {
		fetched, err := a.records.PurchaseHistory(ctx, records.HistoryFilter{})
		if err != nil {
			a.logger.Error("獲取採購歷史失敗", "session_id", sess.ID, "error", err)
			return "抱歉，目前無法取得採購歷史資料，請稍後重試。"
		}
		history = fetched
	}

	recommendation, err := a.oracle.Recommend(ctx, userInput, formatHistory(history))
	if err != nil {
		a.logger.Error("產品變更推薦失敗", "session_id", sess.ID, "error", err)
		return "抱歉，處理您的產品變更請求時發生錯誤，請重新描述您的需求。"
	}

	sess.State = session.StateWaitingConfirmation
	sess.PurchaseHistory = history
	sess.CurrentRecommendation = recommendation
	sess.SelectedProduct = matcher.Resolve(recommendation, history)
	sess.PartialDetails = session.OrderDetails{}
	sess.ConfirmedOrder = nil
	sess.Touch()

	return fmt.Sprintf("🔄 產品變更推薦 (基於採購歷史智能分析)\n\n%s\n\n請確認是否選擇此產品？\n- 輸入「同意」來接受推薦\n- 輸入「不同意」來進一步調整", recommendation)
}

// handleOrderDetails 收集请购单详情。三项必填允许分多轮补齐，
// 已知字段不再询问；齐全后组装请购单草稿并进入最终确认。
func (a *Agent) handleOrderDetails(ctx context.Context, sess *session.Session, userInput string) string {
	fields, err := a.oracle.ExtractOrderFields(ctx, userInput)
	if err != nil {
		a.logger.Warn("請購單詳情抽取失敗", "session_id", sess.ID, "error", err)
		return askForMissing(sess.PartialDetails.Missing())
	}

	mergeDetails(&sess.PartialDetails, fields)
	sess.Touch()

	if !sess.PartialDetails.Complete() {
		return askForMissing(sess.PartialDetails.Missing())
	}

	draft, errMsg := a.assembleDraft(ctx, sess)
	if errMsg != "" {
		return errMsg
	}

	sess.State = session.StateConfirmingOrder
	sess.ConfirmedOrder = draft
	sess.Touch()

	return fmt.Sprintf("📋 請購單已創建\n\n%s\n\n請確認請購單資訊是否正確？\n- 輸入「確認提交」來提交請購單\n- 輸入「修改」來調整請購單\n- 輸入「取消」來取消請購", formatOrder(*draft))
}

// assembleDraft 从选定产品（或推荐缺省值）组装请购单草稿。
// 返回的错误消息非空时表示组装失败，状态不变。
func (a *Agent) assembleDraft(ctx context.Context, sess *session.Session) (*records.OrderDraft, string) {
	details := sess.PartialDetails

	var productName, category string
	var unitPrice int
	if sess.SelectedProduct != nil {
		productName = sess.SelectedProduct.ProductName
		category = sess.SelectedProduct.Category
		unitPrice = sess.SelectedProduct.UnitPrice
	} else {
		defaults, err := a.oracle.ExtractProductDefaults(ctx, sess.CurrentRecommendation)
		if err != nil {
			a.logger.Error("提取推薦產品資訊失敗", "session_id", sess.ID, "error", err)
			return nil, "抱歉，無法從推薦中確定產品資訊，請重新確認推薦或提出新的採購需求。"
		}
		productName = defaults.ProductName
		category = defaults.Category
		unitPrice = defaults.UnitPrice
	}

	requester := details.Requester
	if requester == "" {
		requester = sess.UserContext.Requester
	}
	reason := details.Reason
	if reason == "" {
		reason = "業務需求"
	}

	return &records.OrderDraft{
		ProductName:          productName,
		Category:             category,
		Quantity:             details.Quantity,
		UnitPrice:            unitPrice,
		Requester:            requester,
		Department:           sess.UserContext.Department,
		Reason:               reason,
		Urgent:               details.Urgent,
		ExpectedDeliveryDate: details.ExpectedDeliveryDate,
	}, ""
}

// handleOrderConfirmation 最终确认：提交 / 修改 / 取消
func (a *Agent) handleOrderConfirmation(ctx context.Context, sess *session.Session, userInput string) string {
	switch {
	case matchAny(userInput, cancelKeywords):
		sess.ResetPurchase()
		return "已取消本次請購。如果您有其他採購需求，請隨時告訴我。"

	case matchAny(userInput, submitKeywords):
		return a.submitOrder(ctx, sess)

	case matchAny(userInput, modifyKeywords):
		sess.State = session.StateWaitingConfirmation
		sess.ConfirmedOrder = nil
		sess.Touch()
		return "請告訴我您要修改請購單的哪個部分？我會重新為您調整推薦。"

	default:
		return "請明確回答：\n- 輸入「確認提交」來提交請購單\n- 輸入「修改」來調整請購單\n- 輸入「取消」來取消請購"
	}
}

// submitOrder 向记录服务提交请购单；失败时状态不变以便重试
func (a *Agent) submitOrder(ctx context.Context, sess *session.Session) string {
	if sess.ConfirmedOrder == nil {
		return "目前沒有待提交的請購單，請先完成請購流程。"
	}

	resp, err := a.records.CreateRequest(ctx, *sess.ConfirmedOrder)
	if err != nil {
		a.logger.Error("提交請購單失敗", "session_id", sess.ID, "error", err)
		return "❌ 請購單提交失敗\n\n請檢查網路連線或稍後重試。"
	}

	sess.State = session.StateCompleted
	sess.LastSubmission = resp
	sess.Touch()

	order := sess.ConfirmedOrder
	return fmt.Sprintf(`✅ 請購單提交成功！

📄 請購單詳情：
- 請購單號：%s
- 產品：%s
- 數量：%d
- 預估金額：NT$ %d
- 狀態：%s

您可以使用請購單號查詢審核進度。
如果您還有其他採購需求，請隨時告訴我。`,
		resp.RequestID, order.ProductName, order.Quantity, order.TotalAmount(), resp.Data.Status)
}

// handleOffTopic 偏题输入：请求引导消息，不改会话状态
func (a *Agent) handleOffTopic(ctx context.Context, sess *session.Session, userInput string, intent *oracle.IntentResult) string {
	guidance, err := a.oracle.Guidance(ctx, userInput, string(sess.State))
	if err != nil {
		a.logger.Warn("生成引導訊息失敗", "session_id", sess.ID, "error", err)
		if intent.GuidanceMessage != "" {
			return intent.GuidanceMessage
		}
		return "我是專門協助您處理採購相關事務的助手。請告訴我您想要採購什麼產品，我會為您提供最合適的推薦。"
	}
	return guidance
}

// mergeDetails 把新抽取的字段并入已收集的详情，已有值不被覆盖
func mergeDetails(dst *session.OrderDetails, src *oracle.OrderFields) {
	if dst.Quantity <= 0 && src.Quantity > 0 {
		dst.Quantity = src.Quantity
	}
	if dst.Requester == "" && src.Requester != "" {
		dst.Requester = src.Requester
	}
	if dst.ExpectedDeliveryDate == "" && src.ExpectedDeliveryDate != "" {
		dst.ExpectedDeliveryDate = src.ExpectedDeliveryDate
	}
	if src.Reason != "" {
		dst.Reason = src.Reason
	}
	if src.Urgent {
		dst.Urgent = true
	}
}

// askForMissing 只询问尚缺的字段
func askForMissing(missing []string) string {
	if len(missing) == 0 {
		return "請提供請購單的詳細資訊（數量、請購人姓名、預期交貨日期）。"
	}
	var b strings.Builder
	b.WriteString("請提供以下缺少的資訊：\n")
	for _, m := range missing {
		b.WriteString("- ")
		b.WriteString(m)
		b.WriteString("\n")
	}
	return b.String()
}

// formatHistory 格式化采购历史供生成式服务分析
func formatHistory(history []records.HistoricalRecord) string {
	if len(history) == 0 {
		return "沒有相關的採購歷史資料。"
	}
	var b strings.Builder
	for _, item := range history {
		fmt.Fprintf(&b, "產品: %s\n類別: %s\n供應商: %s\n數量: %d\n單價: NT$ %d\n購買日期: %s\n部門: %s\n---\n",
			item.ProductName, item.Category, item.Supplier, item.Quantity, item.UnitPrice, item.PurchaseDate, item.Department)
	}
	return b.String()
}

// formatOrder 格式化请购单展示；总金额一律重算
func formatOrder(order records.OrderDraft) string {
	urgent := "否"
	if order.Urgent {
		urgent = "是"
	}
	return fmt.Sprintf(`產品名稱：%s
產品類別：%s
數量：%d
單價：NT$ %d
總金額：NT$ %d
請購人：%s
部門：%s
請購理由：%s
是否緊急：%s
預期交貨日期：%s`,
		order.ProductName, order.Category, order.Quantity, order.UnitPrice, order.TotalAmount(),
		order.Requester, order.Department, order.Reason, urgent, order.ExpectedDeliveryDate)
}
