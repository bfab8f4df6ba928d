package recordsvc

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-platform/internal/records"
	apperrors "procurement-platform/pkg/errors"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func validDraft() records.OrderDraft {
	return records.OrderDraft{
		ProductName: "ThinkPad X1 Carbon",
		Category:    "筆記型電腦",
		Quantity:    2,
		UnitPrice:   55000,
		Requester:   "Chen",
		Department:  "IT部門",
		Reason:      "開發用機",
	}
}

func TestSeedData(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	history, err := store.History(ctx, records.HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, history, 5)

	inventory, err := store.Inventory(ctx, records.InventoryFilter{})
	require.NoError(t, err)
	assert.Len(t, inventory, 5)
}

func TestHistoryCategoryFilter(t *testing.T) {
	store := newTestStore(t)

	history, err := store.History(context.Background(), records.HistoryFilter{Category: "筆記型電腦"})
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, h := range history {
		assert.Equal(t, "筆記型電腦", h.Category)
	}
}

func TestHistoryDateRangeFilter(t *testing.T) {
	store := newTestStore(t)

	history, err := store.History(context.Background(), records.HistoryFilter{
		StartDate: "2024-12-01",
		EndDate:   "2024-12-31",
	})
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestInventoryLowStock(t *testing.T) {
	store := newTestStore(t)

	// 种子数据里没有低于最低水位的条目
	low, err := store.Inventory(context.Background(), records.InventoryFilter{LowStock: true})
	require.NoError(t, err)
	assert.Empty(t, low)
}

func TestCreateRequest(t *testing.T) {
	store := newTestStore(t)

	req, err := store.CreateRequest(context.Background(), validDraft())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(req.RequestID, "PR"))
	assert.Len(t, req.RequestID, 16)
	assert.Equal(t, records.StatusPending, req.Status)
	assert.Equal(t, 110000, req.TotalAmount)
	assert.Equal(t, "TRK-"+req.RequestID, req.TrackingNumber)

	fetched, err := store.GetRequest(context.Background(), req.RequestID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, req.ProductName, fetched.ProductName)
}

func TestCreateRequestMissingFields(t *testing.T) {
	store := newTestStore(t)

	draft := validDraft()
	draft.Requester = ""
	_, err := store.CreateRequest(context.Background(), draft)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArg)

	draft = validDraft()
	draft.Quantity = 0
	_, err = store.CreateRequest(context.Background(), draft)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArg)
}

func TestGetRequestMissing(t *testing.T) {
	store := newTestStore(t)

	req, err := store.GetRequest(context.Background(), "PR20250101FFFFFF")
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestListRequestsByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateRequest(ctx, validDraft())
	require.NoError(t, err)
	_, err = store.CreateRequest(ctx, validDraft())
	require.NoError(t, err)

	pending, err := store.ListRequests(ctx, records.StatusPending, "", "")
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	completed, err := store.ListRequests(ctx, records.StatusCompleted, "", "")
	require.NoError(t, err)
	assert.Empty(t, completed)

	byRequester, err := store.ListRequests(ctx, "", "Chen", "IT部門")
	require.NoError(t, err)
	assert.Len(t, byRequester, 2)

	none, err := store.ListRequests(ctx, "", "Wang", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateOrderFromRequestAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req, err := store.CreateRequest(ctx, validDraft())
	require.NoError(t, err)

	order, err := store.CreateOrderFromRequest(ctx, req.RequestID, "SUP002", 0, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(order.OrderID, "PO"))
	assert.Equal(t, req.RequestID, order.RequestID)
	assert.Equal(t, "SUP002", order.SupplierID)
	// 请求体未覆盖数量与单价时从请购单继承
	assert.Equal(t, 2, order.Quantity)
	assert.Equal(t, 55000, order.UnitPrice)
	assert.Equal(t, 110000, order.TotalAmount)

	// 同一事务内来源请购单已置为已完成
	updated, err := store.GetRequest(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, records.StatusCompleted, updated.Status)
}

func TestCreateOrderTwiceRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req, err := store.CreateRequest(ctx, validDraft())
	require.NoError(t, err)

	_, err = store.CreateOrderFromRequest(ctx, req.RequestID, "SUP001", 0, 0)
	require.NoError(t, err)

	_, err = store.CreateOrderFromRequest(ctx, req.RequestID, "SUP001", 0, 0)
	assert.ErrorIs(t, err, apperrors.ErrNotReviewable)
}

func TestCreateOrderUnknownRequest(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateOrderFromRequest(context.Background(), "PR20250101FFFFFF", "SUP001", 0, 0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateOrderUnknownSupplier(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req, err := store.CreateRequest(ctx, validDraft())
	require.NoError(t, err)

	_, err = store.CreateOrderFromRequest(ctx, req.RequestID, "SUP999", 0, 0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// 失败后请购单仍可审核
	unchanged, err := store.GetRequest(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, records.StatusPending, unchanged.Status)
}

func TestCreateOrderResolvesSupplierFromHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	draft := validDraft()
	draft.ProductName = "MacBook Pro 16吋"
	req, err := store.CreateRequest(ctx, draft)
	require.NoError(t, err)

	order, err := store.CreateOrderFromRequest(ctx, req.RequestID, "", 0, 0)
	require.NoError(t, err)
	// MacBook 的历史供应商是 Apple Inc. → SUP001
	assert.Equal(t, "SUP001", order.SupplierID)
}
