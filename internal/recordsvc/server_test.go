package recordsvc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-platform/internal/records"
)

func newTestServer(t *testing.T) (*server.Hertz, *SQLiteStore) {
	t.Helper()
	store := newTestStore(t)
	return NewServer(store).Build(":0"), store
}

func perform(t *testing.T, h *server.Hertz, method, path string, body []byte) *ut.ResponseRecorder {
	t.Helper()
	return ut.PerformRequest(h.Engine, method, path,
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func TestPurchaseHistoryEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	w := perform(t, h, "GET", "/api/purchase-history", nil)
	require.Equal(t, 200, w.Result().StatusCode())

	var resp struct {
		Status       string                     `json:"status"`
		TotalRecords int                        `json:"total_records"`
		Data         []records.HistoricalRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 5, resp.TotalRecords)

	w = perform(t, h, "GET", "/api/purchase-history?category=%E9%A1%AF%E7%A4%BA%E5%99%A8", nil)
	require.Equal(t, 200, w.Result().StatusCode())
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Dell Monitor 27吋 4K", resp.Data[0].ProductName)
}

func TestGetHistoryRecordEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	w := perform(t, h, "GET", "/api/purchase-history/PH003", nil)
	require.Equal(t, 200, w.Result().StatusCode())

	var resp struct {
		Status string                   `json:"status"`
		Data   records.HistoricalRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Dell Monitor 27吋 4K", resp.Data.ProductName)

	w = perform(t, h, "GET", "/api/purchase-history/PH999", nil)
	assert.Equal(t, 404, w.Result().StatusCode())
}

func TestInventoryEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	w := perform(t, h, "GET", "/api/inventory", nil)
	require.Equal(t, 200, w.Result().StatusCode())

	var resp struct {
		Status              string               `json:"status"`
		TotalItems          int                  `json:"total_items"`
		TotalInventoryValue int                  `json:"total_inventory_value"`
		Data                []records.StockEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.Equal(t, 5, resp.TotalItems)
	assert.Positive(t, resp.TotalInventoryValue)
}

func TestCreateRequestEndpoint(t *testing.T) {
	h, store := newTestServer(t)

	body, _ := json.Marshal(validDraft())
	w := perform(t, h, "POST", "/api/purchase-request", body)
	require.Equal(t, 201, w.Result().StatusCode())

	var resp records.CreateRequestResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, records.StatusPending, resp.Data.Status)

	stored, err := store.GetRequest(t.Context(), resp.RequestID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestCreateRequestMissingFieldsEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	w := perform(t, h, "POST", "/api/purchase-request", []byte(`{"product_name":"Laptop"}`))
	assert.Equal(t, 400, w.Result().StatusCode())
}

func TestGetRequestNotFoundEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	w := perform(t, h, "GET", "/api/purchase-request/PR20250101FFFFFF", nil)
	assert.Equal(t, 404, w.Result().StatusCode())
}

func TestListRequestsEndpoint(t *testing.T) {
	h, store := newTestServer(t)

	_, err := store.CreateRequest(t.Context(), validDraft())
	require.NoError(t, err)

	w := perform(t, h, "GET", "/api/purchase-requests?status=%E5%BE%85%E5%AF%A9%E6%A0%B8", nil)
	require.Equal(t, 200, w.Result().StatusCode())

	var resp struct {
		TotalRequests int                       `json:"total_requests"`
		Data          []records.PurchaseRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.Equal(t, 1, resp.TotalRequests)
}

func TestCreateOrderFromRequestEndpoint(t *testing.T) {
	h, store := newTestServer(t)

	req, err := store.CreateRequest(t.Context(), validDraft())
	require.NoError(t, err)

	w := perform(t, h, "POST", "/api/purchase-order/from-request/"+req.RequestID, []byte(`{"supplier_id":"SUP003"}`))
	require.Equal(t, 201, w.Result().StatusCode())

	var resp records.CreateOrderResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, "SUP003", resp.Data.SupplierID)

	// 已完成的请购单再次下单 → 400
	w = perform(t, h, "POST", "/api/purchase-order/from-request/"+req.RequestID, []byte(`{}`))
	assert.Equal(t, 400, w.Result().StatusCode())
}

func TestCreateOrderUnknownRequestEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	w := perform(t, h, "POST", "/api/purchase-order/from-request/PR20250101FFFFFF", []byte(`{}`))
	assert.Equal(t, 404, w.Result().StatusCode())
}
