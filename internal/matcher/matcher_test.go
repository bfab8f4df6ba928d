package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-platform/internal/records"
)

var history = []records.HistoricalRecord{
	{PurchaseID: "PH001", ProductName: "MacBook Pro 16吋", Category: "筆記型電腦", Supplier: "Apple Inc.", UnitPrice: 75000},
	{PurchaseID: "PH002", ProductName: "iPhone 15 Pro", Category: "智慧型手機", Supplier: "Apple Inc.", UnitPrice: 35000},
	{PurchaseID: "PH003", ProductName: "Dell Monitor 27吋 4K", Category: "顯示器", Supplier: "Dell Technologies", UnitPrice: 18000},
}

func TestResolveByNameKeywords(t *testing.T) {
	got := Resolve("推薦 macbook pro 系列，適合開發工作", history)
	require.NotNil(t, got)
	assert.Equal(t, "PH001", got.PurchaseID)
}

func TestResolveByExactPrice(t *testing.T) {
	got := Resolve("建議採購單價 18000 的顯示器", history)
	require.NotNil(t, got)
	assert.Equal(t, "PH003", got.PurchaseID)
}

func TestResolveNoMatchBelowThreshold(t *testing.T) {
	assert.Nil(t, Resolve("完全無關的文字", history))
}

func TestResolveDeterministicAndStableTie(t *testing.T) {
	// 两条记录对同一文本得分相同时，保留列表中靠前者
	twins := []records.HistoricalRecord{
		{PurchaseID: "A", ProductName: "ThinkPad X1", Category: "筆記型電腦", UnitPrice: 50000},
		{PurchaseID: "B", ProductName: "ThinkPad X9", Category: "筆記型電腦", UnitPrice: 52000},
	}
	text := "推薦 thinkpad 筆記型電腦"
	first := Resolve(text, twins)
	require.NotNil(t, first)
	assert.Equal(t, "A", first.PurchaseID)
	for i := 0; i < 10; i++ {
		again := Resolve(text, twins)
		require.NotNil(t, again)
		assert.Equal(t, first.PurchaseID, again.PurchaseID)
	}
}

func TestResolveThresholdBoundary(t *testing.T) {
	// 仅单价命中 → 3 分，等于一般阈值，应接受
	recs := []records.HistoricalRecord{
		{PurchaseID: "P", ProductName: "未知產品", Category: "未知", UnitPrice: 12345},
	}
	got := Resolve("報價 12345 元", recs)
	require.NotNil(t, got)
	assert.Equal(t, "P", got.PurchaseID)
}

func TestResolveRequirementBoundaryRejectsFourPoints(t *testing.T) {
	// 预算符合(+3) + 超出 10% 弹性外的其他要素不加分 → 仅 4 分（预算 3 + 类型关键字 1），低于需求阈值 5 则拒绝
	recs := []records.HistoricalRecord{
		{PurchaseID: "Q", ProductName: "widget", Category: "零件", UnitPrice: 40000},
	}
	req := Requirement{ProductType: "widget", Budget: 55000}
	assert.Nil(t, ResolveRequirement(req, "", recs))

	// 再加上单价原样出现(+3) → 7 分，达到阈值后接受
	got := ResolveRequirement(req, "單價 40000", recs)
	require.NotNil(t, got)
	assert.Equal(t, "Q", got.PurchaseID)
}

func TestResolveRequirementBudgetFlex(t *testing.T) {
	recs := []records.HistoricalRecord{
		{PurchaseID: "R", ProductName: "MacBook Air", Category: "筆記型電腦", UnitPrice: 56000},
	}
	// 预算 55000，单价 56000 在 10% 弹性内（+1），关键字与类别从文本补足
	got := ResolveRequirement(Requirement{ProductType: "筆記型電腦", Budget: 55000},
		"推薦 macbook air 筆記型電腦", recs)
	require.NotNil(t, got)
	assert.Equal(t, "R", got.PurchaseID)
}
