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

// Package oracle 封装对生成式服务的全部类型化调用：意图分类、
// 信息抽取、产品推荐与采购决策分析。服务无状态，所有上下文随调用传入；
// 输出一律按固定结构严格解析，解析失败返回 ErrOracleOutput 交由上层降级。
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"procurement-platform/internal/records"
	apperrors "procurement-platform/pkg/errors"
	"procurement-platform/pkg/metrics"
)

// catalogYear 目录年份：交货日期必须落在该年内
const catalogYear = 2025

// Oracle 类型化的生成式服务入口
type Oracle struct {
	client Client
	opts   GenerateOptions
}

// New 创建 Oracle；maxTokens/temperature 作用于所有调用
func New(client Client, maxTokens int, temperature float64) *Oracle {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Oracle{
		client: client,
		opts:   GenerateOptions{MaxTokens: maxTokens, Temperature: temperature},
	}
}

// ClassifyIntent 请购端意图分类
func (o *Oracle) ClassifyIntent(ctx context.Context, currentState string, userInput string, history []Message) (*IntentResult, error) {
	systemPrompt := `你是一個請購系統的意圖分類器。根據目前對話狀態、對話歷史和使用者最新輸入，判斷使用者意圖。

意圖類型（只能是以下之一）：
- new_request: 提出新的採購需求
- confirm_recommendation: 確認或拒絕產品推薦
- request_adjustment: 要求調整推薦
- product_change: 想換成另一個產品（例如「我要歷史記錄裡的 ThinkPad」）
- confirm_order: 確認請購單內容
- submit_order: 提交請購單
- off_topic: 與採購無關的話題
- unclear: 無法判斷

輸出格式（僅輸出合法 JSON，不要其他文字）：
{"intent":"意圖類型","next_state":"建議的下一個狀態","is_purchase_related":true或false,"guidance_message":"給使用者的引導訊息","is_product_change":true或false}`

	userPrompt := fmt.Sprintf("目前狀態：%s\n\n對話歷史：\n%s\n\n使用者輸入：%s",
		currentState, formatHistory(history), userInput)

	var result IntentResult
	if err := o.chatJSON(ctx, "classify_intent", systemPrompt, userPrompt, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ClassifyOfficerIntent 采购专员端意图分类
func (o *Oracle) ClassifyOfficerIntent(ctx context.Context, currentState string, userInput string, history []Message) (*OfficerIntentResult, error) {
	systemPrompt := `你是一個採購審核系統的意圖分類器。根據目前對話狀態、對話歷史和採購專員最新輸入，判斷專員意圖。

意圖類型（只能是以下之一）：
- review_requests: 查看待審核的請購單列表
- analyze_purchase_decision: 審核特定請購單並進行採購決策分析
- create_purchase_order: 確認創建採購單（含強制創建）
- off_topic: 與採購審核無關的話題
- unclear: 無法判斷

輸出格式（僅輸出合法 JSON，不要其他文字）：
{"intent":"意圖類型","next_state":"建議的下一個狀態","is_procurement_related":true或false,"guidance_message":"給專員的引導訊息"}`

	userPrompt := fmt.Sprintf("目前狀態：%s\n\n對話歷史：\n%s\n\n專員輸入：%s",
		currentState, formatHistory(history), userInput)

	var result OfficerIntentResult
	if err := o.chatJSON(ctx, "classify_officer_intent", systemPrompt, userPrompt, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExtractRequirement 从请购需求中抽取结构化信息
func (o *Oracle) ExtractRequirement(ctx context.Context, userRequest string) (*Requirement, error) {
	systemPrompt := `你是一個採購需求分析師。從使用者的請購需求中提取關鍵資訊。

輸出格式（僅輸出合法 JSON，不要其他文字）：
{"product_name":"具體產品名稱（無則空字串）","product_type":"產品類別（如 筆記型電腦、顯示器）","budget":預算金額整數（無則0）,"quantity":數量整數（無則0）,"purpose":"使用用途（無則空字串）"}`

	var result Requirement
	if err := o.chatJSON(ctx, "extract_requirement", systemPrompt, "使用者請購需求："+userRequest, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Recommend 基于采购历史生成产品推荐（自由文本）
func (o *Oracle) Recommend(ctx context.Context, userRequest, historyText string) (string, error) {
	systemPrompt := `你是一個專業的採購顧問。根據使用者需求和採購歷史資料，推薦最合適的產品規格。

分析依據：
1. 採購歷史中的產品規格、價格、供應商表現
2. 使用者的具體需求
3. 成本效益分析

請提供具體的產品推薦，包括產品名稱和規格、建議供應商、建議數量和單價、推薦理由。
請用繁體中文回覆。`

	userPrompt := fmt.Sprintf("使用者需求：%s\n\n採購歷史資料：\n%s\n\n請提供產品推薦。", userRequest, historyText)
	return o.chatText(ctx, "recommend", systemPrompt, userPrompt)
}

// Adjust 基于调整要求生成修订后的推荐（自由文本）
func (o *Oracle) Adjust(ctx context.Context, currentRecommendation, adjustmentRequest, historyText string) (string, error) {
	systemPrompt := `你是一個專業的採購顧問。使用者對目前的推薦不滿意，請根據使用者的調整要求和採購歷史資料，提供修訂後的產品推薦。
請提供具體的產品推薦，包括產品名稱和規格、建議供應商、建議數量和單價、調整理由。
請用繁體中文回覆。`

	userPrompt := fmt.Sprintf("目前推薦：\n%s\n\n使用者調整要求：%s\n\n採購歷史資料：\n%s\n\n請提供調整後的推薦。",
		currentRecommendation, adjustmentRequest, historyText)
	return o.chatText(ctx, "adjust", systemPrompt, userPrompt)
}

// ExtractOrderFields 从使用者输入中抽取请购单详情字段
func (o *Oracle) ExtractOrderFields(ctx context.Context, userInput string) (*OrderFields, error) {
	systemPrompt := `你是一個請購單助手。從使用者輸入中提取請購單的詳細資訊。未提及的欄位填零值。

輸出格式（僅輸出合法 JSON，不要其他文字）：
{"quantity":數量整數（無則0）,"requester":"請購人姓名（無則空字串）","expected_delivery_date":"預期交貨日期 YYYY-MM-DD（無則空字串）","reason":"請購理由（無則空字串）","urgent":true或false}`

	var result OrderFields
	if err := o.chatJSON(ctx, "extract_order_fields", systemPrompt, "使用者輸入："+userInput, &result); err != nil {
		return nil, err
	}
	result.ExpectedDeliveryDate = NormalizeDeliveryDate(result.ExpectedDeliveryDate)
	return &result, nil
}

// ExtractProductDefaults 从推荐文本中抽取产品缺省信息
// （没有解析到具体历史记录时的回退路径）
func (o *Oracle) ExtractProductDefaults(ctx context.Context, recommendation string) (*ProductDefaults, error) {
	systemPrompt := `你是一個請購單助手。從產品推薦文本中提取被推薦產品的資訊。

輸出格式（僅輸出合法 JSON，不要其他文字）：
{"product_name":"產品名稱","category":"產品類別","unit_price":單價整數,"supplier":"供應商名稱（無則空字串）"}`

	var result ProductDefaults
	if err := o.chatJSON(ctx, "extract_product_defaults", systemPrompt, "產品推薦：\n"+recommendation, &result); err != nil {
		return nil, err
	}
	if result.UnitPrice < 0 {
		return nil, apperrors.Wrap(apperrors.ErrOracleOutput, "單價為負數")
	}
	return &result, nil
}

// Guidance 生成把使用者拉回采购主题的引导消息
func (o *Oracle) Guidance(ctx context.Context, userInput, currentState string) (string, error) {
	systemPrompt := `你是一個採購助手。使用者的輸入偏離了採購主題，請禮貌地把對話引導回採購流程。
簡短回覆，說明你只能協助採購相關事務，並根據目前狀態提示使用者下一步可以做什麼。
請用繁體中文回覆。`

	userPrompt := fmt.Sprintf("目前狀態：%s\n使用者輸入：%s", currentState, userInput)
	return o.chatText(ctx, "guidance", systemPrompt, userPrompt)
}

// OfficerGuidance 生成把采购专员拉回审核主题的引导消息
func (o *Oracle) OfficerGuidance(ctx context.Context, userInput, currentState string) (string, error) {
	systemPrompt := `你是一個採購審核助手。採購專員的輸入偏離了審核主題，請禮貌地把對話引導回審核流程。
簡短回覆，說明你只能協助採購審核相關事務，並提示專員可以輸入「查看請購單」或提供請購單號。
請用繁體中文回覆。`

	userPrompt := fmt.Sprintf("目前狀態：%s\n專員輸入：%s", currentState, userInput)
	return o.chatText(ctx, "officer_guidance", systemPrompt, userPrompt)
}

// ValidateRequestStatus 判定请购单当前状态是否可审核。
// 不硬编码单一状态字串，交由生成式服务根据状态语义判断。
func (o *Oracle) ValidateRequestStatus(ctx context.Context, requestInfo string) (*StatusVerdict, error) {
	systemPrompt := `你是一個採購審核助手。判斷以下請購單目前的狀態是否可以進行審核。
一般而言，待處理或審核中的請購單可以審核；已經處理完成、已拒絕或已取消的請購單不可再審核。

輸出格式（僅輸出合法 JSON，不要其他文字）：
{"can_review":true或false,"user_message":"不可審核時給專員的說明訊息（可審核時空字串）"}`

	var result StatusVerdict
	if err := o.chatJSON(ctx, "validate_request_status", systemPrompt, "請購單資訊：\n"+requestInfo, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeDecision 采购决策分析
func (o *Oracle) AnalyzeDecision(ctx context.Context, requestInfo, historyInfo, inventoryInfo string) (*DecisionAnalysis, error) {
	systemPrompt := `你是一個專業的採購決策分析師。根據請購單、採購歷史和庫存資訊，分析是否應該創建採購單。

分析要點：
1. 庫存狀況：現有庫存是否已能滿足需求
2. 價格比較：請購單價與歷史採購價格的比較
3. 採購建議：綜合判斷

輸出格式（僅輸出合法 JSON，不要其他文字）：
{"should_create_purchase_order":true或false,"analysis_result":{"inventory_status":"庫存狀況分析","price_comparison":"價格比較分析","recommendation":"採購建議"},"detailed_explanation":"詳細說明","risk_assessment":"風險評估"}`

	userPrompt := fmt.Sprintf("請購單資訊：\n%s\n\n採購歷史資料：\n%s\n\n庫存資訊：\n%s",
		requestInfo, historyInfo, inventoryInfo)

	var result DecisionAnalysis
	if err := o.chatJSON(ctx, "analyze_decision", systemPrompt, userPrompt, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BuildPurchaseOrder 根据请购单与决策分析组装采购单草稿
func (o *Oracle) BuildPurchaseOrder(ctx context.Context, requestInfo, decisionInfo string) (*records.PurchaseOrderDraft, error) {
	systemPrompt := `你是一個採購單助手。根據請購單和採購決策分析結果，創建採購單草稿。供應商從分析建議中選取。

輸出格式（僅輸出合法 JSON，不要其他文字）：
{"supplier_id":"供應商ID","product_name":"產品名稱","category":"產品類別","quantity":數量整數,"unit_price":單價整數,"requester":"請購人","department":"部門"}`

	userPrompt := fmt.Sprintf("請購單資訊：\n%s\n\n決策分析：\n%s\n\n請創建採購單。", requestInfo, decisionInfo)

	var result records.PurchaseOrderDraft
	if err := o.chatJSON(ctx, "build_purchase_order", systemPrompt, userPrompt, &result); err != nil {
		return nil, err
	}
	if result.Quantity <= 0 || result.UnitPrice <= 0 {
		return nil, apperrors.Wrap(apperrors.ErrOracleOutput, "採購單數量或單價非法")
	}
	return &result, nil
}

// chatText 自由文本调用
func (o *Oracle) chatText(ctx context.Context, call, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	reply, err := o.client.ChatWithContext(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, o.opts)
	metrics.OracleCallDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OracleCallTotal.WithLabelValues(call, "error").Inc()
		return "", apperrors.Wrapf(err, "生成式服务调用失败: %s", call)
	}
	metrics.OracleCallTotal.WithLabelValues(call, "ok").Inc()
	return strings.TrimSpace(reply), nil
}

// chatJSON 结构化调用：提取 JSON 后严格解码到 out
func (o *Oracle) chatJSON(ctx context.Context, call, systemPrompt, userPrompt string, out any) error {
	start := time.Now()
	reply, err := o.client.ChatWithContext(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, o.opts)
	metrics.OracleCallDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OracleCallTotal.WithLabelValues(call, "error").Inc()
		return apperrors.Wrapf(err, "生成式服务调用失败: %s", call)
	}

	if err := decodeStrict(extractJSON(reply), out); err != nil {
		metrics.OracleCallTotal.WithLabelValues(call, "parse_error").Inc()
		return apperrors.Wrapf(apperrors.ErrOracleOutput, "%s: %v", call, err)
	}
	metrics.OracleCallTotal.WithLabelValues(call, "ok").Inc()
	return nil
}

// extractJSON 从回复中提取 JSON（可能被 markdown 包裹）
func extractJSON(reply string) string {
	reply = strings.TrimSpace(reply)
	if idx := strings.Index(reply, "{"); idx >= 0 {
		if end := strings.LastIndex(reply, "}"); end > idx {
			return reply[idx : end+1]
		}
	}
	return reply
}

// decodeStrict 严格解码：拒绝未知字段
func decodeStrict(raw string, out any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// formatHistory 将最近对话拼为上下文文本
func formatHistory(history []Message) string {
	if len(history) == 0 {
		return "（無）"
	}
	var b strings.Builder
	for _, m := range history {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// NormalizeDeliveryDate 校验并归一交货日期：必须是合法日历日期，
// 年份归到目录年份；非法输入归零交回上层重新询问。
func NormalizeDeliveryDate(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return ""
	}
	if t.Year() != catalogYear {
		shifted := fmt.Sprintf("%04d%s", catalogYear, s[4:])
		if _, err := time.Parse("2006-01-02", shifted); err != nil {
			return ""
		}
		return shifted
	}
	return t.Format("2006-01-02")
}
