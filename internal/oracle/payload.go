package oracle

// 生成式服务的结构化输出。边界处严格解码：未知字段一律拒绝，
// 金额、布尔、日期字段在解码后还要二次校验。

// IntentResult 请购端意图分类结果
type IntentResult struct {
	Intent            string `json:"intent"`
	NextState         string `json:"next_state"`
	IsPurchaseRelated bool   `json:"is_purchase_related"`
	GuidanceMessage   string `json:"guidance_message"`
	IsProductChange   bool   `json:"is_product_change"`
}

// OfficerIntentResult 采购专员端意图分类结果
type OfficerIntentResult struct {
	Intent               string `json:"intent"`
	NextState            string `json:"next_state"`
	IsProcurementRelated bool   `json:"is_procurement_related"`
	GuidanceMessage      string `json:"guidance_message"`
}

// 请购端意图枚举
const (
	IntentNewRequest            = "new_request"
	IntentConfirmRecommendation = "confirm_recommendation"
	IntentRequestAdjustment     = "request_adjustment"
	IntentProductChange         = "product_change"
	IntentConfirmOrder          = "confirm_order"
	IntentSubmitOrder           = "submit_order"
	IntentOffTopic              = "off_topic"
	IntentUnclear               = "unclear"
)

// 采购专员端意图枚举
const (
	IntentReviewRequests          = "review_requests"
	IntentAnalyzePurchaseDecision = "analyze_purchase_decision"
	IntentCreatePurchaseOrder     = "create_purchase_order"
)

// Requirement 从请购需求中抽取的结构化信息
type Requirement struct {
	ProductName string `json:"product_name"`
	ProductType string `json:"product_type"`
	Budget      int    `json:"budget"`
	Quantity    int    `json:"quantity"`
	Purpose     string `json:"purpose"`
}

// OrderFields 请购单详情抽取结果（三项必填允许分多轮补齐）
type OrderFields struct {
	Quantity             int    `json:"quantity"`
	Requester            string `json:"requester"`
	ExpectedDeliveryDate string `json:"expected_delivery_date"`
	Reason               string `json:"reason"`
	Urgent               bool   `json:"urgent"`
}

// ProductDefaults 从推荐文本中抽取的产品缺省信息，
// 仅在没有解析到具体历史记录时用于填充请购单
type ProductDefaults struct {
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	UnitPrice   int    `json:"unit_price"`
	Supplier    string `json:"supplier"`
}

// StatusVerdict 请购单状态是否可审核的判定
type StatusVerdict struct {
	CanReview   bool   `json:"can_review"`
	UserMessage string `json:"user_message"`
}

// AnalysisResult 采购决策分析的结构化结论
type AnalysisResult struct {
	InventoryStatus string `json:"inventory_status"`
	PriceComparison string `json:"price_comparison"`
	Recommendation  string `json:"recommendation"`
}

// DecisionAnalysis 采购决策分析完整结果
type DecisionAnalysis struct {
	ShouldCreatePurchaseOrder bool           `json:"should_create_purchase_order"`
	AnalysisResult            AnalysisResult `json:"analysis_result"`
	DetailedExplanation       string         `json:"detailed_explanation"`
	RiskAssessment            string         `json:"risk_assessment"`
}
