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

package recordsvc

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"procurement-platform/internal/records"
	apperrors "procurement-platform/pkg/errors"
)

// Server 记录服务 HTTP 层
type Server struct {
	store *SQLiteStore
}

// NewServer 创建记录服务
func NewServer(store *SQLiteStore) *Server {
	return &Server{store: store}
}

// Build 创建 Hertz 服务并注册全部路由
func (srv *Server) Build(addr string, opts ...config.Option) *server.Hertz {
	serverOpts := append([]config.Option{server.WithHostPorts(addr)}, opts...)
	h := server.Default(serverOpts...)

	api := h.Group("/api")
	api.GET("/health", srv.HealthCheck)
	api.GET("/purchase-history", srv.PurchaseHistory)
	api.GET("/purchase-history/:id", srv.GetHistoryRecord)
	api.GET("/inventory", srv.Inventory)
	api.POST("/purchase-request", srv.CreateRequest)
	api.GET("/purchase-request/:id", srv.GetRequest)
	api.GET("/purchase-requests", srv.ListRequests)
	api.POST("/purchase-order/from-request/:id", srv.CreateOrderFromRequest)

	return h
}

// HealthCheck 健康检查
func (srv *Server) HealthCheck(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

// PurchaseHistory 采购历史查询
// GET /api/purchase-history?category=&supplier=&start_date=&end_date=
func (srv *Server) PurchaseHistory(c context.Context, ctx *app.RequestContext) {
	filter := records.HistoryFilter{
		Category:  ctx.Query("category"),
		Supplier:  ctx.Query("supplier"),
		StartDate: ctx.Query("start_date"),
		EndDate:   ctx.Query("end_date"),
	}
	history, err := srv.store.History(c, filter)
	if err != nil {
		hlog.CtxErrorf(c, "query purchase history failed: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"status": "error", "message": "查詢採購歷史失敗",
		})
		return
	}
	if history == nil {
		history = []records.HistoricalRecord{}
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"status":        "success",
		"message":       "成功取得採購歷史",
		"total_records": len(history),
		"data":          history,
	})
}

// GetHistoryRecord 查询单笔采购历史
// GET /api/purchase-history/:id
func (srv *Server) GetHistoryRecord(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	record, err := srv.store.GetHistoryRecord(c, id)
	if err != nil {
		hlog.CtxErrorf(c, "get purchase history %s failed: %v", id, err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"status": "error", "message": "查詢採購歷史失敗",
		})
		return
	}
	if record == nil {
		ctx.JSON(consts.StatusNotFound, map[string]string{
			"status": "error", "message": "找不到採購記錄 " + id,
		})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "成功取得採購記錄詳情",
		"data":    record,
	})
}

// Inventory 库存查询
// GET /api/inventory?category=&low_stock=&location=
func (srv *Server) Inventory(c context.Context, ctx *app.RequestContext) {
	filter := records.InventoryFilter{
		Category: ctx.Query("category"),
		LowStock: ctx.Query("low_stock") == "true",
		Location: ctx.Query("location"),
	}
	inventory, err := srv.store.Inventory(c, filter)
	if err != nil {
		hlog.CtxErrorf(c, "query inventory failed: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"status": "error", "message": "查詢庫存失敗",
		})
		return
	}
	if inventory == nil {
		inventory = []records.StockEntry{}
	}
	totalValue := 0
	for _, e := range inventory {
		totalValue += e.CurrentStock * e.UnitCost
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"status":                "success",
		"message":               "成功取得庫存資訊",
		"total_items":           len(inventory),
		"total_inventory_value": totalValue,
		"data":                  inventory,
	})
}

// CreateRequest 创建请购单
// POST /api/purchase-request
func (srv *Server) CreateRequest(c context.Context, ctx *app.RequestContext) {
	var draft records.OrderDraft
	if err := ctx.BindJSON(&draft); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"status": "error", "message": "請求格式錯誤",
		})
		return
	}

	req, err := srv.store.CreateRequest(c, draft)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidArg) {
			ctx.JSON(consts.StatusBadRequest, map[string]string{
				"status": "error", "message": "缺少必要欄位",
			})
			return
		}
		hlog.CtxErrorf(c, "create purchase request failed: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"status": "error", "message": "創建請購單失敗",
		})
		return
	}

	ctx.JSON(consts.StatusCreated, map[string]interface{}{
		"status":     "success",
		"message":    "請購單創建成功",
		"request_id": req.RequestID,
		"data":       req,
	})
}

// GetRequest 查询单个请购单
// GET /api/purchase-request/:id
func (srv *Server) GetRequest(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	req, err := srv.store.GetRequest(c, id)
	if err != nil {
		hlog.CtxErrorf(c, "get purchase request %s failed: %v", id, err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"status": "error", "message": "查詢請購單失敗",
		})
		return
	}
	if req == nil {
		ctx.JSON(consts.StatusNotFound, map[string]string{
			"status": "error", "message": "找不到請購單 " + id,
		})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "成功取得請購單資訊",
		"data":    req,
	})
}

// ListRequests 请购单列表
// GET /api/purchase-requests?status=&requester=&department=
func (srv *Server) ListRequests(c context.Context, ctx *app.RequestContext) {
	list, err := srv.store.ListRequests(c, ctx.Query("status"), ctx.Query("requester"), ctx.Query("department"))
	if err != nil {
		hlog.CtxErrorf(c, "list purchase requests failed: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"status": "error", "message": "查詢請購單列表失敗",
		})
		return
	}
	if list == nil {
		list = []records.PurchaseRequest{}
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"status":         "success",
		"message":        "成功取得所有請購單",
		"total_requests": len(list),
		"data":           list,
	})
}

// createOrderBody from-request 请求体
type createOrderBody struct {
	SupplierID string `json:"supplier_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int    `json:"unit_price"`
}

// CreateOrderFromRequest 原子端点：创建采购单并把来源请购单置为已完成
// POST /api/purchase-order/from-request/:id
func (srv *Server) CreateOrderFromRequest(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	var body createOrderBody
	// 请求体可为空，全部字段从请购单继承
	_ = ctx.BindJSON(&body)

	order, err := srv.store.CreateOrderFromRequest(c, id, body.SupplierID, body.Quantity, body.UnitPrice)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			ctx.JSON(consts.StatusNotFound, map[string]string{
				"status": "error", "message": err.Error(),
			})
		case errors.Is(err, apperrors.ErrNotReviewable):
			ctx.JSON(consts.StatusBadRequest, map[string]string{
				"status": "error", "message": err.Error(),
			})
		default:
			hlog.CtxErrorf(c, "create order from request %s failed: %v", id, err)
			ctx.JSON(consts.StatusInternalServerError, map[string]string{
				"status": "error", "message": "創建採購單失敗",
			})
		}
		return
	}

	ctx.JSON(consts.StatusCreated, map[string]interface{}{
		"status":   "success",
		"message":  "採購單創建成功",
		"order_id": order.OrderID,
		"data":     order,
	})
}
