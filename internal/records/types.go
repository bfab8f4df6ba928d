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

package records

// 请购单/采购单状态（与记录服务约定一致）
const (
	StatusPending   = "待審核"
	StatusReviewing = "審核中"
	StatusApproved  = "已批准"
	StatusOrdering  = "採購中"
	StatusCompleted = "已完成"
	StatusRejected  = "已拒絕"
)

// HistoricalRecord 历史采购记录快照，对编排层只读
type HistoricalRecord struct {
	PurchaseID   string `json:"purchase_id"`
	ProductName  string `json:"product_name"`
	Category     string `json:"category"`
	Supplier     string `json:"supplier"`
	Quantity     int    `json:"quantity"`
	UnitPrice    int    `json:"unit_price"`
	TotalAmount  int    `json:"total_amount"`
	PurchaseDate string `json:"purchase_date"`
	Status       string `json:"status,omitempty"`
	Requester    string `json:"requester,omitempty"`
	Department   string `json:"department,omitempty"`
}

// StockEntry 库存条目
type StockEntry struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Category       string `json:"category"`
	CurrentStock   int    `json:"current_stock"`
	ReservedStock  int    `json:"reserved_stock"`
	AvailableStock int    `json:"available_stock"`
	MinStockLevel  int    `json:"min_stock_level"`
	MaxStockLevel  int    `json:"max_stock_level"`
	UnitCost       int    `json:"unit_cost"`
	Location       string `json:"location"`
	LastUpdated    string `json:"last_updated"`
}

// OrderDraft 会话内尚未提交的请购单草稿。
// 金额不作为字段存储：TotalAmount 永远按当前数量与单价重算，不信任上游给出的总额。
type OrderDraft struct {
	ProductName          string `json:"product_name"`
	Category             string `json:"category"`
	Quantity             int    `json:"quantity"`
	UnitPrice            int    `json:"unit_price"`
	Requester            string `json:"requester"`
	Department           string `json:"department"`
	Reason               string `json:"reason"`
	Urgent               bool   `json:"urgent"`
	ExpectedDeliveryDate string `json:"expected_delivery_date"`
}

// TotalAmount 重算总金额（数量 × 单价）
func (d OrderDraft) TotalAmount() int {
	return d.Quantity * d.UnitPrice
}

// PurchaseRequest 记录服务中的请购单（已提交）
type PurchaseRequest struct {
	RequestID            string `json:"request_id"`
	ProductName          string `json:"product_name"`
	Category             string `json:"category"`
	Quantity             int    `json:"quantity"`
	UnitPrice            int    `json:"unit_price"`
	TotalAmount          int    `json:"total_amount"`
	Requester            string `json:"requester"`
	Department           string `json:"department"`
	Reason               string `json:"reason"`
	Urgent               bool   `json:"urgent"`
	ExpectedDeliveryDate string `json:"expected_delivery_date"`
	Status               string `json:"status"`
	CreatedDate          string `json:"created_date"`
	TrackingNumber       string `json:"tracking_number,omitempty"`
}

// PurchaseOrderDraft 采购单草稿（审核通过后由决策分析组装）
type PurchaseOrderDraft struct {
	SupplierID  string `json:"supplier_id"`
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int    `json:"unit_price"`
	Requester   string `json:"requester"`
	Department  string `json:"department"`
}

// TotalAmount 重算采购单总金额
func (d PurchaseOrderDraft) TotalAmount() int {
	return d.Quantity * d.UnitPrice
}

// PurchaseOrder 已创建的采购单
type PurchaseOrder struct {
	OrderID     string `json:"order_id"`
	RequestID   string `json:"request_id"`
	SupplierID  string `json:"supplier_id"`
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int    `json:"unit_price"`
	TotalAmount int    `json:"total_amount"`
	OrderDate   string `json:"order_date"`
	Status      string `json:"status"`
}

// Supplier 供应商
type Supplier struct {
	SupplierID string `json:"supplier_id"`
	Name       string `json:"name"`
	Contact    string `json:"contact,omitempty"`
}

// CreateRequestResponse POST /api/purchase-request 的应答
type CreateRequestResponse struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      PurchaseRequest `json:"data"`
}

// CreateOrderResponse POST /api/purchase-order/from-request/:id 的应答
type CreateOrderResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	OrderID string        `json:"order_id"`
	Data    PurchaseOrder `json:"data"`
}

// HistoryFilter 采购历史查询条件
type HistoryFilter struct {
	Category  string
	Supplier  string
	StartDate string
	EndDate   string
}

// InventoryFilter 库存查询条件
type InventoryFilter struct {
	Category string
	LowStock bool
	Location string
}
