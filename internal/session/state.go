package session

// State 对话状态，闭合枚举。请购与审核两条生命周期共用一个枚举，
// 单个会话在任一时刻只处于其中一条生命周期。
type State string

const (
	// 请购（requester）生命周期
	StateInitial             State = "initial"
	StateWaitingConfirmation State = "waiting_confirmation"
	StateAdjusting           State = "adjusting"
	StateWaitingOrderDetails State = "waiting_order_details"
	StateConfirmingOrder     State = "confirming_order"
	StateCompleted           State = "completed"
	StateError               State = "error"

	// 审核（officer）生命周期
	StateReviewingRequests        State = "reviewing_requests"
	StateAnalyzingDecision        State = "analyzing_purchase_decision"
	StateCreatingPurchaseOrder    State = "creating_purchase_order"
	StateConfirmingPurchaseOrder  State = "confirming_purchase_order"
	StatePurchaseOrderCompleted   State = "purchase_order_completed"
)

// Valid 是否为已定义状态
func (s State) Valid() bool {
	switch s {
	case StateInitial, StateWaitingConfirmation, StateAdjusting,
		StateWaitingOrderDetails, StateConfirmingOrder, StateCompleted, StateError,
		StateReviewingRequests, StateAnalyzingDecision, StateCreatingPurchaseOrder,
		StateConfirmingPurchaseOrder, StatePurchaseOrderCompleted:
		return true
	}
	return false
}
