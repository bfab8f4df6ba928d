package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "procurement-platform/pkg/errors"
)

// fakeClient 固定回复的 Client，用于测试解析与降级路径
type fakeClient struct {
	reply string
	err   error
}

func (f *fakeClient) Generate(prompt string, options GenerateOptions) (string, error) {
	return f.reply, f.err
}

func (f *fakeClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	return f.reply, f.err
}

func (f *fakeClient) Chat(messages []Message, options GenerateOptions) (string, error) {
	return f.reply, f.err
}

func (f *fakeClient) ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	return f.reply, f.err
}

func (f *fakeClient) Model() string    { return "fake" }
func (f *fakeClient) Provider() string { return "fake" }

func TestClassifyIntentParsesMarkdownWrappedJSON(t *testing.T) {
	c := &fakeClient{reply: "```json\n{\"intent\":\"new_request\",\"next_state\":\"initial\",\"is_purchase_related\":true,\"guidance_message\":\"\",\"is_product_change\":false}\n```"}
	o := New(c, 1024, 0.3)

	result, err := o.ClassifyIntent(context.Background(), "initial", "我想買筆電", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentNewRequest, result.Intent)
	assert.True(t, result.IsPurchaseRelated)
	assert.False(t, result.IsProductChange)
}

func TestClassifyIntentRejectsUnknownFields(t *testing.T) {
	c := &fakeClient{reply: `{"intent":"new_request","surprise":"field"}`}
	o := New(c, 1024, 0.3)

	_, err := o.ClassifyIntent(context.Background(), "initial", "hi", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrOracleOutput))
}

func TestClassifyIntentTransportError(t *testing.T) {
	c := &fakeClient{err: errors.New("connection refused")}
	o := New(c, 1024, 0.3)

	_, err := o.ClassifyIntent(context.Background(), "initial", "hi", nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrOracleOutput))
}

func TestExtractOrderFieldsRejectsFractionalQuantity(t *testing.T) {
	c := &fakeClient{reply: `{"quantity":2.5,"requester":"張三","expected_delivery_date":"2025-07-15","reason":"","urgent":false}`}
	o := New(c, 1024, 0.3)

	_, err := o.ExtractOrderFields(context.Background(), "數量 2.5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrOracleOutput))
}

func TestExtractOrderFieldsNormalizesDate(t *testing.T) {
	c := &fakeClient{reply: `{"quantity":2,"requester":"張三","expected_delivery_date":"2023-07-15","reason":"","urgent":true}`}
	o := New(c, 1024, 0.3)

	fields, err := o.ExtractOrderFields(context.Background(), "數量2 張三 7/15")
	require.NoError(t, err)
	assert.Equal(t, 2, fields.Quantity)
	assert.Equal(t, "2025-07-15", fields.ExpectedDeliveryDate)
	assert.True(t, fields.Urgent)
}

func TestBuildPurchaseOrderValidatesAmounts(t *testing.T) {
	c := &fakeClient{reply: `{"supplier_id":"SUP001","product_name":"ThinkPad X1","category":"筆記型電腦","quantity":0,"unit_price":55000,"requester":"採購專員","department":"採購部"}`}
	o := New(c, 1024, 0.3)

	_, err := o.BuildPurchaseOrder(context.Background(), "req", "analysis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrOracleOutput))
}

func TestAnalyzeDecisionNestedPayload(t *testing.T) {
	c := &fakeClient{reply: `{"should_create_purchase_order":true,"analysis_result":{"inventory_status":"庫存不足","price_comparison":"價格合理","recommendation":"建議採購"},"detailed_explanation":"說明","risk_assessment":"低風險"}`}
	o := New(c, 1024, 0.3)

	decision, err := o.AnalyzeDecision(context.Background(), "req", "history", "inventory")
	require.NoError(t, err)
	assert.True(t, decision.ShouldCreatePurchaseOrder)
	assert.Equal(t, "庫存不足", decision.AnalysisResult.InventoryStatus)
	assert.Equal(t, "低風險", decision.RiskAssessment)
}

func TestNormalizeDeliveryDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"目录年内合法日期", "2025-07-15", "2025-07-15"},
		{"年份归一", "2023-07-15", "2025-07-15"},
		{"非法日历日期", "2025-02-30", ""},
		{"归一后非法", "2024-02-29", ""},
		{"非日期文本", "下週五", ""},
		{"空输入", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDeliveryDate(tt.in))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("前言 {\"a\":1} 後記"))
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "no json here", extractJSON("no json here"))
}
