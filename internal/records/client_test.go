package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-platform/pkg/errors"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestPurchaseHistoryFilters(t *testing.T) {
	var gotCategory string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/purchase-history", r.URL.Path)
		gotCategory = r.URL.Query().Get("category")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": []HistoricalRecord{
				{PurchaseID: "PH001", ProductName: "MacBook Pro 16吋", Category: "筆記型電腦", UnitPrice: 75000},
			},
		})
	})

	recs, err := c.PurchaseHistory(context.Background(), HistoryFilter{Category: "筆記型電腦"})
	require.NoError(t, err)
	assert.Equal(t, "筆記型電腦", gotCategory)
	require.Len(t, recs, 1)
	assert.Equal(t, "MacBook Pro 16吋", recs[0].ProductName)
}

func TestCreateRequestReturnsID(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var draft OrderDraft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		assert.Equal(t, 2, draft.Quantity)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CreateRequestResponse{
			Status:    "success",
			RequestID: "PR20250107ABCDEF",
			Data:      PurchaseRequest{RequestID: "PR20250107ABCDEF", Status: StatusPending},
		})
	})

	resp, err := c.CreateRequest(context.Background(), OrderDraft{ProductName: "MacBook Pro 14吋", Quantity: 2, UnitPrice: 65000})
	require.NoError(t, err)
	assert.Equal(t, "PR20250107ABCDEF", resp.RequestID)
	assert.Equal(t, StatusPending, resp.Data.Status)
}

func TestCreateRequestNon201(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "缺少必要欄位: quantity"})
	})
	_, err := c.CreateRequest(context.Background(), OrderDraft{})
	assert.Error(t, err)
}

func TestGetRequestNotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"status": "error"})
	})
	_, err := c.GetRequest(context.Background(), "PR20250101XXXXXX")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestCreateOrderFromRequestStatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		code     int
		sentinel error
	}{
		{"not_found", http.StatusNotFound, errors.ErrNotFound},
		{"not_reviewable", http.StatusBadRequest, errors.ErrNotReviewable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				json.NewEncoder(w).Encode(map[string]string{"status": "error"})
			})
			_, err := c.CreateOrderFromRequest(context.Background(), "PR20250107ABCDEF", nil)
			assert.ErrorIs(t, err, tc.sentinel)
		})
	}
}

func TestCreateOrderFromRequestSuccess(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/purchase-order/from-request/PR20250107ABCDEF", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CreateOrderResponse{
			Status:  "success",
			OrderID: "PO20250108AB12CD",
			Data:    PurchaseOrder{OrderID: "PO20250108AB12CD", RequestID: "PR20250107ABCDEF"},
		})
	})
	resp, err := c.CreateOrderFromRequest(context.Background(), "PR20250107ABCDEF", &PurchaseOrderDraft{SupplierID: "SUP001"})
	require.NoError(t, err)
	assert.Equal(t, "PO20250108AB12CD", resp.OrderID)
}

func TestOrderDraftTotalAmount(t *testing.T) {
	d := OrderDraft{Quantity: 3, UnitPrice: 65000}
	assert.Equal(t, 195000, d.TotalAmount())
}
