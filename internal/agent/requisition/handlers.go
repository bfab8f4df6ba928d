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

package requisition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"procurement-platform/internal/records"
	"procurement-platform/internal/session"
	apperrors "procurement-platform/pkg/errors"
)

// 确认执行/取消用本地关键字判定
var executeKeywords = []string{"確認執行", "確認", "執行", "execute"}

var cancelKeywords = []string{"取消", "不要", "放棄", "cancel"}

func matchAny(input string, keywords []string) bool {
	lower := strings.ToLower(strings.TrimSpace(input))
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// handleReviewRequests 列出待审核请购单
func (a *Agent) handleReviewRequests(ctx context.Context, sess *session.Session) string {
	pending, err := a.records.ListRequests(ctx, records.StatusPending)
	if err != nil {
		a.logger.Error("獲取請購單失敗", "session_id", sess.ID, "error", err)
		return "抱歉，目前無法取得請購單列表，請稍後重試。"
	}

	if len(pending) == 0 {
		return "目前沒有待審核的請購單。"
	}

	sess.State = session.StateReviewingRequests
	sess.Review = &session.ReviewContext{PendingRequests: pending}
	sess.Touch()

	var b strings.Builder
	b.WriteString("📋 待審核的請購單列表：\n\n")
	for i, req := range pending {
		fmt.Fprintf(&b, "%d. **請購單號**: %s\n", i+1, req.RequestID)
		fmt.Fprintf(&b, "   產品: %s\n", req.ProductName)
		fmt.Fprintf(&b, "   數量: %d\n", req.Quantity)
		fmt.Fprintf(&b, "   單價: NT$ %d\n", req.UnitPrice)
		fmt.Fprintf(&b, "   總金額: NT$ %d\n", req.Quantity*req.UnitPrice)
		fmt.Fprintf(&b, "   請購人: %s\n", req.Requester)
		fmt.Fprintf(&b, "   部門: %s\n", req.Department)
		fmt.Fprintf(&b, "   狀態: %s\n\n", req.Status)
	}
	b.WriteString("請輸入請購單號來進行詳細審核，例如：「審核 PR20250107ABCDEF」")
	return b.String()
}

// handleAnalyzeDecision 采购决策分析：取单 → 状态校验 → 拉取历史与库存 →
// 结构化决策。非可审核判定只返回说明，不改状态。
func (a *Agent) handleAnalyzeDecision(ctx context.Context, sess *session.Session, requestID string) string {
	request, err := a.records.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Sprintf("找不到請購單 %s，請檢查請購單號是否正確。", requestID)
		}
		a.logger.Error("獲取請購單失敗", "session_id", sess.ID, "request_id", requestID, "error", err)
		return "抱歉，目前無法取得請購單資料，請稍後重試。"
	}

	requestInfo := formatRequest(request)

	verdict, err := a.oracle.ValidateRequestStatus(ctx, requestInfo)
	if err != nil {
		a.logger.Warn("狀態驗證失敗，回退到基本檢查", "session_id", sess.ID, "error", err)
		// 生成式校验不可用时只挡明确已结案的单
		if request.Status == records.StatusCompleted {
			return fmt.Sprintf("請購單 %s 已經處理完成，無需再次審核。", requestID)
		}
	} else if !verdict.CanReview {
		if verdict.UserMessage != "" {
			return verdict.UserMessage
		}
		return "此請購單目前無法進行審核。"
	}

	history, err := a.records.PurchaseHistory(ctx, records.HistoryFilter{Category: request.Category})
	if err != nil {
		a.logger.Error("獲取採購歷史失敗", "session_id", sess.ID, "error", err)
		return "抱歉，目前無法取得採購歷史資料，請稍後重試。"
	}
	history = filterHistoryByProduct(history, request.ProductName)

	inventory, err := a.records.Inventory(ctx, records.InventoryFilter{Category: request.Category})
	if err != nil {
		a.logger.Error("獲取庫存資訊失敗", "session_id", sess.ID, "error", err)
		return "抱歉，目前無法取得庫存資訊，請稍後重試。"
	}
	inventory = filterInventoryByProduct(inventory, request.ProductName)

	decision, err := a.oracle.AnalyzeDecision(ctx, requestInfo, formatHistory(history), formatInventory(inventory))
	if err != nil {
		a.logger.Error("採購決策分析失敗", "session_id", sess.ID, "error", err)
		return "抱歉，分析採購決策時發生錯誤，請稍後重試。"
	}

	sess.State = session.StateAnalyzingDecision
	sess.Review = &session.ReviewContext{
		CurrentRequest:  request,
		PurchaseHistory: history,
		Inventory:       inventory,
		Decision:        decision,
	}
	sess.Touch()

	var b strings.Builder
	fmt.Fprintf(&b, "📊 採購決策分析報告 - 請購單號: %s\n\n", requestID)
	fmt.Fprintf(&b, "🔍 **庫存狀況**: %s\n\n", decision.AnalysisResult.InventoryStatus)
	fmt.Fprintf(&b, "💰 **價格比較**: %s\n\n", decision.AnalysisResult.PriceComparison)
	fmt.Fprintf(&b, "📋 **採購建議**: %s\n\n", decision.AnalysisResult.Recommendation)
	fmt.Fprintf(&b, "📝 **詳細說明**: %s\n\n", decision.DetailedExplanation)
	fmt.Fprintf(&b, "⚠️ **風險評估**: %s\n\n", decision.RiskAssessment)

	if decision.ShouldCreatePurchaseOrder {
		b.WriteString("✅ **建議**: 可以創建採購單\n\n請輸入「確認創建採購單」來繼續，或輸入「取消」來結束審核。")
	} else {
		b.WriteString("❌ **建議**: 不建議創建採購單\n\n請輸入「強制創建採購單」來強制創建，或輸入「取消」來結束審核。")
	}
	return b.String()
}

// handleCreateOrder 组装采购单草稿并进入最终确认。
// 决策建议为否时照样可以走到这里（强制创建），风险评估已在上一步呈现。
func (a *Agent) handleCreateOrder(ctx context.Context, sess *session.Session, userInput string) string {
	if matchAny(userInput, cancelKeywords) {
		sess.ResetReview()
		return "已取消本次審核。如果您需要審核其他請購單，請重新開始。"
	}

	review := sess.Review
	if review == nil || review.CurrentRequest == nil || review.Decision == nil {
		return "請先進行採購決策分析。"
	}

	decisionJSON, _ := json.Marshal(review.Decision)
	draft, err := a.oracle.BuildPurchaseOrder(ctx, formatRequest(review.CurrentRequest), string(decisionJSON))
	if err != nil {
		// 失败时状态保持不变，下一轮可以重试
		a.logger.Error("創建採購單失敗", "session_id", sess.ID, "error", err)
		return "抱歉，創建採購單時發生錯誤，請稍後重試。"
	}

	review.OrderDraft = draft
	sess.State = session.StateConfirmingPurchaseOrder
	sess.Touch()

	var b strings.Builder
	b.WriteString("📋 採購單預覽\n\n")
	fmt.Fprintf(&b, "供應商ID: %s\n", draft.SupplierID)
	fmt.Fprintf(&b, "產品名稱: %s\n", draft.ProductName)
	fmt.Fprintf(&b, "產品類別: %s\n", draft.Category)
	fmt.Fprintf(&b, "數量: %d\n", draft.Quantity)
	fmt.Fprintf(&b, "單價: NT$ %d\n", draft.UnitPrice)
	fmt.Fprintf(&b, "總金額: NT$ %d\n", draft.TotalAmount())
	fmt.Fprintf(&b, "請購人: %s\n", draft.Requester)
	fmt.Fprintf(&b, "部門: %s\n\n", draft.Department)
	b.WriteString("請確認是否執行採購單創建？\n- 輸入「確認執行」來創建採購單並更新請購單狀態\n- 輸入「取消」來取消創建")
	return b.String()
}

// handleConfirmOrder 最终确认：确认执行 / 取消
func (a *Agent) handleConfirmOrder(ctx context.Context, sess *session.Session, userInput string) string {
	switch {
	case matchAny(userInput, cancelKeywords):
		sess.ResetReview()
		return "已取消採購單創建。如果您需要審核其他請購單，請重新開始。"

	case matchAny(userInput, executeKeywords):
		return a.executeOrder(ctx, sess)

	default:
		return "請明確回答：\n- 輸入「確認執行」來創建採購單\n- 輸入「取消」來取消創建"
	}
}

// executeOrder 调用原子端点创建采购单并由服务端把请购单置为已完成
func (a *Agent) executeOrder(ctx context.Context, sess *session.Session) string {
	review := sess.Review
	if review == nil || review.OrderDraft == nil || review.CurrentRequest == nil {
		return "缺少必要資訊，無法創建採購單。"
	}

	requestID := review.CurrentRequest.RequestID
	resp, err := a.records.CreateOrderFromRequest(ctx, requestID, review.OrderDraft)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return fmt.Sprintf("❌ 創建採購單失敗\n\n找不到請購單 %s 或指定的供應商，請重新確認。", requestID)
		case errors.Is(err, apperrors.ErrNotReviewable):
			return fmt.Sprintf("❌ 創建採購單失敗\n\n請購單 %s 目前的狀態不可執行採購，可能已被處理。", requestID)
		default:
			a.logger.Error("執行採購單創建失敗", "session_id", sess.ID, "request_id", requestID, "error", err)
			return "❌ 創建採購單失敗\n\n網路錯誤，請檢查連線或稍後重試。"
		}
	}

	draft := review.OrderDraft
	sess.State = session.StatePurchaseOrderCompleted
	sess.Touch()

	return fmt.Sprintf(`✅ 採購單創建成功！

📄 採購單詳情：
- 採購單號：%s
- 請購單號：%s
- 產品：%s
- 數量：%d
- 總金額：NT$ %d
- 供應商ID：%s

📋 請購單狀態已更新為「%s」

如果您需要審核其他請購單，請重新開始。`,
		resp.OrderID, requestID, draft.ProductName, draft.Quantity, draft.TotalAmount(), draft.SupplierID, records.StatusCompleted)
}

// filterHistoryByProduct 按品名收窄采购历史
func filterHistoryByProduct(history []records.HistoricalRecord, product string) []records.HistoricalRecord {
	if product == "" {
		return history
	}
	var out []records.HistoricalRecord
	for _, h := range history {
		if containsProduct(h.ProductName, product) {
			out = append(out, h)
		}
	}
	return out
}

// filterInventoryByProduct 按品名收窄库存
func filterInventoryByProduct(inventory []records.StockEntry, product string) []records.StockEntry {
	if product == "" {
		return inventory
	}
	var out []records.StockEntry
	for _, s := range inventory {
		if containsProduct(s.ProductName, product) {
			out = append(out, s)
		}
	}
	return out
}

// formatRequest 格式化请购单供生成式服务分析
func formatRequest(req *records.PurchaseRequest) string {
	urgent := "否"
	if req.Urgent {
		urgent = "是"
	}
	return fmt.Sprintf(`請購單號: %s
產品名稱: %s
產品類別: %s
數量: %d
單價: NT$ %d
總金額: NT$ %d
請購人: %s
部門: %s
請購理由: %s
是否緊急: %s
預期交貨日期: %s
狀態: %s
創建日期: %s`,
		req.RequestID, req.ProductName, req.Category, req.Quantity, req.UnitPrice,
		req.Quantity*req.UnitPrice, req.Requester, req.Department, req.Reason,
		urgent, req.ExpectedDeliveryDate, req.Status, req.CreatedDate)
}

// formatHistory 格式化采购历史
func formatHistory(history []records.HistoricalRecord) string {
	if len(history) == 0 {
		return "沒有相關的採購歷史資料。"
	}
	var b strings.Builder
	for _, item := range history {
		fmt.Fprintf(&b, "產品: %s\n類別: %s\n供應商: %s\n數量: %d\n單價: NT$ %d\n購買日期: %s\n---\n",
			item.ProductName, item.Category, item.Supplier, item.Quantity, item.UnitPrice, item.PurchaseDate)
	}
	return b.String()
}

// formatInventory 格式化库存
func formatInventory(inventory []records.StockEntry) string {
	if len(inventory) == 0 {
		return "沒有相關的庫存資料。"
	}
	var b strings.Builder
	for _, item := range inventory {
		fmt.Fprintf(&b, "產品: %s\n類別: %s\n目前庫存: %d\n可用庫存: %d\n預留庫存: %d\n最低庫存: %d\n最高庫存: %d\n成本: NT$ %d\n位置: %s\n更新日期: %s\n---\n",
			item.ProductName, item.Category, item.CurrentStock, item.AvailableStock, item.ReservedStock,
			item.MinStockLevel, item.MaxStockLevel, item.UnitCost, item.Location, item.LastUpdated)
	}
	return b.String()
}
