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

// Package recordsvc 记录服务：采购历史、库存、请购单与采购单的
// CRUD HTTP/JSON 服务，sqlite 持久化。
package recordsvc

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"procurement-platform/internal/records"
	apperrors "procurement-platform/pkg/errors"
)

// reviewableStatuses 可执行采购的请购单状态
var reviewableStatuses = map[string]bool{
	records.StatusPending:   true,
	records.StatusReviewing: true,
	records.StatusApproved:  true,
}

// SQLiteStore 基于 sqlite 的记录存储
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore 打开数据库、建表并灌入种子数据
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 内存库多连接会各自建库，收敛到单连接
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("启用外键失败: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("建表失败: %w", err)
	}
	if err := store.seed(); err != nil {
		db.Close()
		return nil, fmt.Errorf("灌入种子数据失败: %w", err)
	}
	return store, nil
}

// Close 关闭数据库连接
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS purchase_history (
			purchase_id TEXT PRIMARY KEY,
			product_name TEXT NOT NULL,
			category TEXT NOT NULL,
			supplier TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price INTEGER NOT NULL,
			total_amount INTEGER NOT NULL,
			purchase_date TEXT NOT NULL,
			status TEXT NOT NULL,
			requester TEXT,
			department TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_category ON purchase_history(category)`,
		`CREATE TABLE IF NOT EXISTS inventory (
			product_id TEXT PRIMARY KEY,
			product_name TEXT NOT NULL,
			category TEXT NOT NULL,
			current_stock INTEGER NOT NULL,
			reserved_stock INTEGER NOT NULL,
			available_stock INTEGER NOT NULL,
			min_stock_level INTEGER NOT NULL,
			max_stock_level INTEGER NOT NULL,
			unit_cost INTEGER NOT NULL,
			location TEXT,
			last_updated TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS suppliers (
			supplier_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			contact TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS purchase_requests (
			request_id TEXT PRIMARY KEY,
			product_name TEXT NOT NULL,
			category TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price INTEGER NOT NULL,
			total_amount INTEGER NOT NULL,
			requester TEXT NOT NULL,
			department TEXT NOT NULL,
			reason TEXT,
			urgent INTEGER NOT NULL DEFAULT 0,
			expected_delivery_date TEXT,
			status TEXT NOT NULL,
			created_date TEXT NOT NULL,
			tracking_number TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_status ON purchase_requests(status)`,
		`CREATE TABLE IF NOT EXISTS purchase_orders (
			order_id TEXT PRIMARY KEY,
			request_id TEXT NOT NULL,
			supplier_id TEXT NOT NULL,
			product_name TEXT NOT NULL,
			category TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price INTEGER NOT NULL,
			total_amount INTEGER NOT NULL,
			order_date TEXT NOT NULL,
			status TEXT NOT NULL,
			FOREIGN KEY (request_id) REFERENCES purchase_requests(request_id),
			FOREIGN KEY (supplier_id) REFERENCES suppliers(supplier_id)
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// seed 灌入 3C 产品的采购历史、库存与供应商种子数据；幂等
func (s *SQLiteStore) seed() error {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM purchase_history`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	history := []records.HistoricalRecord{
		{PurchaseID: "PH001", ProductName: "MacBook Pro 16吋", Category: "筆記型電腦", Supplier: "Apple Inc.", Quantity: 10, UnitPrice: 75000, TotalAmount: 750000, PurchaseDate: "2024-12-15", Status: "已完成", Requester: "張小明", Department: "IT部門"},
		{PurchaseID: "PH002", ProductName: "iPhone 15 Pro", Category: "智慧型手機", Supplier: "Apple Inc.", Quantity: 25, UnitPrice: 35000, TotalAmount: 875000, PurchaseDate: "2024-12-10", Status: "已完成", Requester: "李小華", Department: "業務部門"},
		{PurchaseID: "PH003", ProductName: "Dell Monitor 27吋 4K", Category: "顯示器", Supplier: "Dell Technologies", Quantity: 15, UnitPrice: 18000, TotalAmount: 270000, PurchaseDate: "2024-12-05", Status: "已完成", Requester: "王小芳", Department: "設計部門"},
		{PurchaseID: "PH004", ProductName: "iPad Pro 12.9吋", Category: "平板電腦", Supplier: "Apple Inc.", Quantity: 8, UnitPrice: 35000, TotalAmount: 280000, PurchaseDate: "2024-11-28", Status: "已完成", Requester: "陳小強", Department: "行銷部門"},
		{PurchaseID: "PH005", ProductName: "Surface Laptop Studio", Category: "筆記型電腦", Supplier: "Microsoft", Quantity: 5, UnitPrice: 65000, TotalAmount: 325000, PurchaseDate: "2024-11-20", Status: "已完成", Requester: "林小美", Department: "研發部門"},
	}
	for _, h := range history {
		if _, err := s.db.Exec(
			`INSERT INTO purchase_history (purchase_id, product_name, category, supplier, quantity, unit_price, total_amount, purchase_date, status, requester, department)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.PurchaseID, h.ProductName, h.Category, h.Supplier, h.Quantity, h.UnitPrice, h.TotalAmount, h.PurchaseDate, h.Status, h.Requester, h.Department); err != nil {
			return err
		}
	}

	inventory := []records.StockEntry{
		{ProductID: "INV001", ProductName: "MacBook Pro 16吋", Category: "筆記型電腦", CurrentStock: 25, ReservedStock: 5, AvailableStock: 20, MinStockLevel: 10, MaxStockLevel: 50, UnitCost: 75000, Location: "倉庫A-1", LastUpdated: "2025-01-15"},
		{ProductID: "INV002", ProductName: "iPhone 15 Pro", Category: "智慧型手機", CurrentStock: 45, ReservedStock: 8, AvailableStock: 37, MinStockLevel: 20, MaxStockLevel: 80, UnitCost: 35000, Location: "倉庫A-2", LastUpdated: "2025-01-14"},
		{ProductID: "INV003", ProductName: "Dell Monitor 27吋 4K", Category: "顯示器", CurrentStock: 32, ReservedStock: 3, AvailableStock: 29, MinStockLevel: 15, MaxStockLevel: 60, UnitCost: 18000, Location: "倉庫B-1", LastUpdated: "2025-01-13"},
		{ProductID: "INV004", ProductName: "iPad Pro 12.9吋", Category: "平板電腦", CurrentStock: 18, ReservedStock: 2, AvailableStock: 16, MinStockLevel: 8, MaxStockLevel: 40, UnitCost: 35000, Location: "倉庫A-3", LastUpdated: "2025-01-12"},
		{ProductID: "INV005", ProductName: "Surface Laptop Studio", Category: "筆記型電腦", CurrentStock: 12, ReservedStock: 1, AvailableStock: 11, MinStockLevel: 5, MaxStockLevel: 25, UnitCost: 65000, Location: "倉庫C-1", LastUpdated: "2025-01-11"},
	}
	for _, e := range inventory {
		if _, err := s.db.Exec(
			`INSERT INTO inventory (product_id, product_name, category, current_stock, reserved_stock, available_stock, min_stock_level, max_stock_level, unit_cost, location, last_updated)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ProductID, e.ProductName, e.Category, e.CurrentStock, e.ReservedStock, e.AvailableStock, e.MinStockLevel, e.MaxStockLevel, e.UnitCost, e.Location, e.LastUpdated); err != nil {
			return err
		}
	}

	suppliers := []records.Supplier{
		{SupplierID: "SUP001", Name: "Apple Inc.", Contact: "apple-sales@example.com"},
		{SupplierID: "SUP002", Name: "Dell Technologies", Contact: "dell-sales@example.com"},
		{SupplierID: "SUP003", Name: "Microsoft", Contact: "ms-sales@example.com"},
	}
	for _, sp := range suppliers {
		if _, err := s.db.Exec(
			`INSERT INTO suppliers (supplier_id, name, contact) VALUES (?, ?, ?)`,
			sp.SupplierID, sp.Name, sp.Contact); err != nil {
			return err
		}
	}
	return nil
}

// History 查询采购历史；filter 各字段为空时不过滤，类别与供应商为子串匹配
func (s *SQLiteStore) History(ctx context.Context, filter records.HistoryFilter) ([]records.HistoricalRecord, error) {
	query := `SELECT purchase_id, product_name, category, supplier, quantity, unit_price, total_amount, purchase_date, status, requester, department FROM purchase_history WHERE 1=1`
	var args []interface{}
	if filter.Category != "" {
		query += ` AND lower(category) LIKE ?`
		args = append(args, "%"+strings.ToLower(filter.Category)+"%")
	}
	if filter.Supplier != "" {
		query += ` AND lower(supplier) LIKE ?`
		args = append(args, "%"+strings.ToLower(filter.Supplier)+"%")
	}
	if filter.StartDate != "" {
		query += ` AND purchase_date >= ?`
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		query += ` AND purchase_date <= ?`
		args = append(args, filter.EndDate)
	}
	query += ` ORDER BY purchase_date DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []records.HistoricalRecord
	for rows.Next() {
		var h records.HistoricalRecord
		var requester, department sql.NullString
		if err := rows.Scan(&h.PurchaseID, &h.ProductName, &h.Category, &h.Supplier, &h.Quantity, &h.UnitPrice, &h.TotalAmount, &h.PurchaseDate, &h.Status, &requester, &department); err != nil {
			return nil, err
		}
		h.Requester = requester.String
		h.Department = department.String
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetHistoryRecord 查询单笔采购历史，不存在时返回 (nil, nil)
func (s *SQLiteStore) GetHistoryRecord(ctx context.Context, purchaseID string) (*records.HistoricalRecord, error) {
	var h records.HistoricalRecord
	var requester, department sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT purchase_id, product_name, category, supplier, quantity, unit_price, total_amount, purchase_date, status, requester, department
		 FROM purchase_history WHERE purchase_id = ?`, purchaseID).
		Scan(&h.PurchaseID, &h.ProductName, &h.Category, &h.Supplier, &h.Quantity, &h.UnitPrice, &h.TotalAmount, &h.PurchaseDate, &h.Status, &requester, &department)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	h.Requester = requester.String
	h.Department = department.String
	return &h, nil
}

// Inventory 查询库存；low_stock 为 true 时仅返回可用库存不高于最低水位的条目
func (s *SQLiteStore) Inventory(ctx context.Context, filter records.InventoryFilter) ([]records.StockEntry, error) {
	query := `SELECT product_id, product_name, category, current_stock, reserved_stock, available_stock, min_stock_level, max_stock_level, unit_cost, location, last_updated FROM inventory WHERE 1=1`
	var args []interface{}
	if filter.Category != "" {
		query += ` AND lower(category) LIKE ?`
		args = append(args, "%"+strings.ToLower(filter.Category)+"%")
	}
	if filter.LowStock {
		query += ` AND available_stock <= min_stock_level`
	}
	if filter.Location != "" {
		query += ` AND lower(location) LIKE ?`
		args = append(args, "%"+strings.ToLower(filter.Location)+"%")
	}
	query += ` ORDER BY product_id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []records.StockEntry
	for rows.Next() {
		var e records.StockEntry
		var location, updated sql.NullString
		if err := rows.Scan(&e.ProductID, &e.ProductName, &e.Category, &e.CurrentStock, &e.ReservedStock, &e.AvailableStock, &e.MinStockLevel, &e.MaxStockLevel, &e.UnitCost, &location, &updated); err != nil {
			return nil, err
		}
		e.Location = location.String
		e.LastUpdated = updated.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateRequest 创建请购单。总金额在服务端按数量与单价重算。
func (s *SQLiteStore) CreateRequest(ctx context.Context, draft records.OrderDraft) (*records.PurchaseRequest, error) {
	if draft.ProductName == "" || draft.Quantity <= 0 || draft.UnitPrice <= 0 || draft.Requester == "" || draft.Department == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidArg, "缺少必要欄位")
	}

	category := draft.Category
	if category == "" {
		category = "3C產品"
	}
	requestID := newRecordID("PR")
	req := &records.PurchaseRequest{
		RequestID:            requestID,
		ProductName:          draft.ProductName,
		Category:             category,
		Quantity:             draft.Quantity,
		UnitPrice:            draft.UnitPrice,
		TotalAmount:          draft.Quantity * draft.UnitPrice,
		Requester:            draft.Requester,
		Department:           draft.Department,
		Reason:               draft.Reason,
		Urgent:               draft.Urgent,
		ExpectedDeliveryDate: draft.ExpectedDeliveryDate,
		Status:               records.StatusPending,
		CreatedDate:          time.Now().Format("2006-01-02 15:04:05"),
		TrackingNumber:       "TRK-" + requestID,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO purchase_requests (request_id, product_name, category, quantity, unit_price, total_amount, requester, department, reason, urgent, expected_delivery_date, status, created_date, tracking_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.RequestID, req.ProductName, req.Category, req.Quantity, req.UnitPrice, req.TotalAmount,
		req.Requester, req.Department, req.Reason, boolToInt(req.Urgent), req.ExpectedDeliveryDate,
		req.Status, req.CreatedDate, req.TrackingNumber)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// GetRequest 查询请购单，不存在时返回 (nil, nil)
func (s *SQLiteStore) GetRequest(ctx context.Context, requestID string) (*records.PurchaseRequest, error) {
	var req records.PurchaseRequest
	var reason, expected, tracking sql.NullString
	var urgent int
	err := s.db.QueryRowContext(ctx,
		`SELECT request_id, product_name, category, quantity, unit_price, total_amount, requester, department, reason, urgent, expected_delivery_date, status, created_date, tracking_number
		 FROM purchase_requests WHERE request_id = ?`, requestID).
		Scan(&req.RequestID, &req.ProductName, &req.Category, &req.Quantity, &req.UnitPrice, &req.TotalAmount,
			&req.Requester, &req.Department, &reason, &urgent, &expected, &req.Status, &req.CreatedDate, &tracking)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	req.Reason = reason.String
	req.Urgent = urgent != 0
	req.ExpectedDeliveryDate = expected.String
	req.TrackingNumber = tracking.String
	return &req, nil
}

// ListRequests 按状态、申请人、部门过滤请购单；空字段不过滤，按创建时间倒序
func (s *SQLiteStore) ListRequests(ctx context.Context, status, requester, department string) ([]records.PurchaseRequest, error) {
	query := `SELECT request_id, product_name, category, quantity, unit_price, total_amount, requester, department, reason, urgent, expected_delivery_date, status, created_date, tracking_number FROM purchase_requests WHERE 1=1`
	var args []interface{}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if requester != "" {
		query += ` AND requester = ?`
		args = append(args, requester)
	}
	if department != "" {
		query += ` AND department = ?`
		args = append(args, department)
	}
	query += ` ORDER BY created_date DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []records.PurchaseRequest
	for rows.Next() {
		var req records.PurchaseRequest
		var reason, expected, tracking sql.NullString
		var urgent int
		if err := rows.Scan(&req.RequestID, &req.ProductName, &req.Category, &req.Quantity, &req.UnitPrice, &req.TotalAmount,
			&req.Requester, &req.Department, &reason, &urgent, &expected, &req.Status, &req.CreatedDate, &tracking); err != nil {
			return nil, err
		}
		req.Reason = reason.String
		req.Urgent = urgent != 0
		req.ExpectedDeliveryDate = expected.String
		req.TrackingNumber = tracking.String
		out = append(out, req)
	}
	return out, rows.Err()
}

// CreateOrderFromRequest 原子创建采购单并把来源请购单置为已完成。
// 单事务内完成状态检查、下单与状态翻转，不存在两步间的可见中间态。
func (s *SQLiteStore) CreateOrderFromRequest(ctx context.Context, requestID, supplierID string, quantity, unitPrice int) (*records.PurchaseOrder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var req records.PurchaseRequest
	err = tx.QueryRowContext(ctx,
		`SELECT request_id, product_name, category, quantity, unit_price, status FROM purchase_requests WHERE request_id = ?`,
		requestID).Scan(&req.RequestID, &req.ProductName, &req.Category, &req.Quantity, &req.UnitPrice, &req.Status)
	if err == sql.ErrNoRows {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "請購單 %s", requestID)
	}
	if err != nil {
		return nil, err
	}
	if !reviewableStatuses[req.Status] {
		return nil, apperrors.Wrapf(apperrors.ErrNotReviewable, "請購單 %s 狀態為 %s", requestID, req.Status)
	}

	supplier, err := s.resolveSupplier(ctx, tx, supplierID, req.ProductName)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		quantity = req.Quantity
	}
	if unitPrice <= 0 {
		unitPrice = req.UnitPrice
	}

	order := &records.PurchaseOrder{
		OrderID:     newRecordID("PO"),
		RequestID:   requestID,
		SupplierID:  supplier.SupplierID,
		ProductName: req.ProductName,
		Category:    req.Category,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalAmount: quantity * unitPrice,
		OrderDate:   time.Now().Format("2006-01-02 15:04:05"),
		Status:      "已下單",
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO purchase_orders (order_id, request_id, supplier_id, product_name, category, quantity, unit_price, total_amount, order_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.OrderID, order.RequestID, order.SupplierID, order.ProductName, order.Category,
		order.Quantity, order.UnitPrice, order.TotalAmount, order.OrderDate, order.Status); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE purchase_requests SET status = ? WHERE request_id = ?`,
		records.StatusCompleted, requestID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return order, nil
}

// resolveSupplier 指定 supplier_id 时校验其存在；为空时按产品的
// 历史供应商反查，最后兜底到第一个供应商。
func (s *SQLiteStore) resolveSupplier(ctx context.Context, tx *sql.Tx, supplierID, productName string) (*records.Supplier, error) {
	var sp records.Supplier
	var contact sql.NullString

	if supplierID != "" {
		err := tx.QueryRowContext(ctx,
			`SELECT supplier_id, name, contact FROM suppliers WHERE supplier_id = ?`, supplierID).
			Scan(&sp.SupplierID, &sp.Name, &contact)
		if err == sql.ErrNoRows {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "供應商 %s", supplierID)
		}
		if err != nil {
			return nil, err
		}
		sp.Contact = contact.String
		return &sp, nil
	}

	err := tx.QueryRowContext(ctx,
		`SELECT s.supplier_id, s.name, s.contact FROM suppliers s
		 JOIN purchase_history h ON h.supplier = s.name
		 WHERE h.product_name = ? LIMIT 1`, productName).
		Scan(&sp.SupplierID, &sp.Name, &contact)
	if err == sql.ErrNoRows {
		err = tx.QueryRowContext(ctx,
			`SELECT supplier_id, name, contact FROM suppliers ORDER BY supplier_id LIMIT 1`).
			Scan(&sp.SupplierID, &sp.Name, &contact)
	}
	if err != nil {
		return nil, err
	}
	sp.Contact = contact.String
	return &sp, nil
}

// newRecordID 生成 "PR"/"PO" + 日期 + uuid 片段的记录号
func newRecordID(prefix string) string {
	return prefix + time.Now().Format("20060102") + strings.ToUpper(uuid.NewString()[:6])
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
