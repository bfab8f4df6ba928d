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

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"procurement-platform/pkg/errors"
	"procurement-platform/pkg/metrics"
)

// Client 记录服务的类型化 HTTP/JSON 客户端。
// 只读写远端记录，从不直接改动会话状态。
type Client struct {
	client *resty.Client
}

// NewClient 创建记录服务客户端；timeout 为外部调用硬上限（<=0 时取 10s）
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{client: c}
}

// listEnvelope data 字段为列表的通用应答
type listEnvelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    []T    `json:"data"`
}

// itemEnvelope data 字段为单条记录的通用应答
type itemEnvelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// PurchaseHistory 获取采购历史，filter 各字段为空时不过滤
func (c *Client) PurchaseHistory(ctx context.Context, filter HistoryFilter) ([]HistoricalRecord, error) {
	var out listEnvelope[HistoricalRecord]
	req := c.client.R().SetContext(ctx).SetResult(&out)
	if filter.Category != "" {
		req.SetQueryParam("category", filter.Category)
	}
	if filter.Supplier != "" {
		req.SetQueryParam("supplier", filter.Supplier)
	}
	if filter.StartDate != "" {
		req.SetQueryParam("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		req.SetQueryParam("end_date", filter.EndDate)
	}
	resp, err := req.Get("/api/purchase-history")
	if err != nil {
		metrics.RecordCallTotal.WithLabelValues("purchase_history", "error").Inc()
		return nil, errors.Wrap(err, "获取采购历史失败")
	}
	if resp.StatusCode() != http.StatusOK {
		metrics.RecordCallTotal.WithLabelValues("purchase_history", "error").Inc()
		return nil, fmt.Errorf("获取采购历史失败: HTTP %d", resp.StatusCode())
	}
	metrics.RecordCallTotal.WithLabelValues("purchase_history", "ok").Inc()
	return out.Data, nil
}

// Inventory 获取库存条目
func (c *Client) Inventory(ctx context.Context, filter InventoryFilter) ([]StockEntry, error) {
	var out listEnvelope[StockEntry]
	req := c.client.R().SetContext(ctx).SetResult(&out)
	if filter.Category != "" {
		req.SetQueryParam("category", filter.Category)
	}
	if filter.LowStock {
		req.SetQueryParam("low_stock", "true")
	}
	if filter.Location != "" {
		req.SetQueryParam("location", filter.Location)
	}
	resp, err := req.Get("/api/inventory")
	if err != nil {
		metrics.RecordCallTotal.WithLabelValues("inventory", "error").Inc()
		return nil, errors.Wrap(err, "获取库存失败")
	}
	if resp.StatusCode() != http.StatusOK {
		metrics.RecordCallTotal.WithLabelValues("inventory", "error").Inc()
		return nil, fmt.Errorf("获取库存失败: HTTP %d", resp.StatusCode())
	}
	metrics.RecordCallTotal.WithLabelValues("inventory", "ok").Inc()
	return out.Data, nil
}

// CreateRequest 提交请购单，成功返回带 request_id 的应答（201）
func (c *Client) CreateRequest(ctx context.Context, draft OrderDraft) (*CreateRequestResponse, error) {
	var out CreateRequestResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(draft).
		SetResult(&out).
		Post("/api/purchase-request")
	if err != nil {
		metrics.RecordCallTotal.WithLabelValues("create_request", "error").Inc()
		return nil, errors.Wrap(err, "提交请购单失败")
	}
	if resp.StatusCode() != http.StatusCreated {
		metrics.RecordCallTotal.WithLabelValues("create_request", "error").Inc()
		return nil, fmt.Errorf("提交请购单失败: HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	metrics.RecordCallTotal.WithLabelValues("create_request", "ok").Inc()
	return &out, nil
}

// GetRequest 查询单个请购单（含当前状态）
func (c *Client) GetRequest(ctx context.Context, requestID string) (*PurchaseRequest, error) {
	var out itemEnvelope[PurchaseRequest]
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/purchase-request/" + requestID)
	if err != nil {
		metrics.RecordCallTotal.WithLabelValues("get_request", "error").Inc()
		return nil, errors.Wrapf(err, "查询请购单 %s 失败", requestID)
	}
	if resp.StatusCode() == http.StatusNotFound {
		metrics.RecordCallTotal.WithLabelValues("get_request", "not_found").Inc()
		return nil, errors.Wrapf(errors.ErrNotFound, "请购单 %s", requestID)
	}
	if resp.StatusCode() != http.StatusOK {
		metrics.RecordCallTotal.WithLabelValues("get_request", "error").Inc()
		return nil, fmt.Errorf("查询请购单 %s 失败: HTTP %d", requestID, resp.StatusCode())
	}
	metrics.RecordCallTotal.WithLabelValues("get_request", "ok").Inc()
	return &out.Data, nil
}

// ListRequests 按状态过滤请购单；status 为空时返回全部
func (c *Client) ListRequests(ctx context.Context, status string) ([]PurchaseRequest, error) {
	var out listEnvelope[PurchaseRequest]
	req := c.client.R().SetContext(ctx).SetResult(&out)
	if status != "" {
		req.SetQueryParam("status", status)
	}
	resp, err := req.Get("/api/purchase-requests")
	if err != nil {
		metrics.RecordCallTotal.WithLabelValues("list_requests", "error").Inc()
		return nil, errors.Wrap(err, "获取请购单列表失败")
	}
	if resp.StatusCode() != http.StatusOK {
		metrics.RecordCallTotal.WithLabelValues("list_requests", "error").Inc()
		return nil, fmt.Errorf("获取请购单列表失败: HTTP %d", resp.StatusCode())
	}
	metrics.RecordCallTotal.WithLabelValues("list_requests", "ok").Inc()
	return out.Data, nil
}

// createOrderBody from-request 请求体；supplier_id 可为空由服务端按历史选择
type createOrderBody struct {
	SupplierID string `json:"supplier_id,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
	UnitPrice  int    `json:"unit_price,omitempty"`
}

// CreateOrderFromRequest 调用原子端点：创建采购单并在服务端把来源请购单置为已完成。
// 编排器不把这两步拆成两次调用。404 → ErrNotFound；400 → ErrNotReviewable。
func (c *Client) CreateOrderFromRequest(ctx context.Context, requestID string, draft *PurchaseOrderDraft) (*CreateOrderResponse, error) {
	body := createOrderBody{}
	if draft != nil {
		body.SupplierID = draft.SupplierID
		body.Quantity = draft.Quantity
		body.UnitPrice = draft.UnitPrice
	}
	var out CreateOrderResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/api/purchase-order/from-request/" + requestID)
	if err != nil {
		metrics.RecordCallTotal.WithLabelValues("create_order", "error").Inc()
		return nil, errors.Wrapf(err, "创建采购单失败（请购单 %s）", requestID)
	}
	switch resp.StatusCode() {
	case http.StatusCreated:
		metrics.RecordCallTotal.WithLabelValues("create_order", "ok").Inc()
		return &out, nil
	case http.StatusNotFound:
		metrics.RecordCallTotal.WithLabelValues("create_order", "not_found").Inc()
		return nil, errors.Wrapf(errors.ErrNotFound, "请购单或供应商（%s）", requestID)
	case http.StatusBadRequest:
		metrics.RecordCallTotal.WithLabelValues("create_order", "not_reviewable").Inc()
		return nil, errors.Wrapf(errors.ErrNotReviewable, "请购单 %s", requestID)
	default:
		metrics.RecordCallTotal.WithLabelValues("create_order", "error").Inc()
		return nil, fmt.Errorf("创建采购单失败: HTTP %d: %s", resp.StatusCode(), resp.String())
	}
}
