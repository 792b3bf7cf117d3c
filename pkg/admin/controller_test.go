package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/flaboy/aira-pay/pkg/database"
	"github.com/flaboy/aira-pay/pkg/extensions/payment"
	"github.com/flaboy/aira-pay/pkg/extensions/payment/novalnet"
	"github.com/flaboy/aira-pay/pkg/migration"
	"github.com/flaboy/aira-pay/pkg/models"
	"github.com/flaboy/aira-pay/pkg/transactions"
	"github.com/flaboy/aira-pay/pkg/types"
)

var dbSeq atomic.Int64

// fakeGateway 按动作记录调用次数的网关桩
type fakeGateway struct {
	resp  *novalnet.Response
	calls int
}

func (f *fakeGateway) call() (*novalnet.Response, error) {
	f.calls++
	if f.resp != nil {
		return f.resp, nil
	}
	return &novalnet.Response{Result: novalnet.Result{Status: "SUCCESS", StatusCode: 100}}, nil
}

func (f *fakeGateway) Capture(tid int64) (*novalnet.Response, error) { return f.call() }
func (f *fakeGateway) Cancel(tid int64) (*novalnet.Response, error)  { return f.call() }
func (f *fakeGateway) Refund(tid int64, amount int64, reason string) (*novalnet.Response, error) {
	return f.call()
}
func (f *fakeGateway) Book(tid int64, amount int64, currency, orderNo string) (*novalnet.Response, error) {
	return f.call()
}
func (f *fakeGateway) InstalmentCancel(tid int64, cancelType string) (*novalnet.Response, error) {
	return f.call()
}
func (f *fakeGateway) TransactionDetails(tid int64) (*novalnet.Response, error) { return f.call() }

func setupRouter(t *testing.T) (*gin.Engine, *fakeGateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin%d?mode=memory&cache=shared", dbSeq.Add(1))
	err := database.Init(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(database.Database()))

	payment.Init()

	gateway := &fakeGateway{}
	controller := NewController(transactions.NewHelper(gateway), nil, "en")

	r := gin.New()
	controller.RegisterRoutes(r.Group("/admin/payment"))
	return r, gateway
}

func post(t *testing.T, r *gin.Engine, path string, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return decoded
}

func seedTransaction(t *testing.T, record *models.TransactionRecord) *models.TransactionRecord {
	t.Helper()
	require.NoError(t, transactions.Create(record))
	return record
}

func resultOf(t *testing.T, payload map[string]interface{}) map[string]interface{} {
	t.Helper()
	result, ok := payload["result"].(map[string]interface{})
	require.True(t, ok, "payload has no result object: %v", payload)
	return result
}

func TestUnresolvableOrderReturnsEmptyObject(t *testing.T) {
	r, gateway := setupRouter(t)

	for _, path := range []string{
		"/admin/payment/transaction-amount",
		"/admin/payment/refund-amount",
		"/admin/payment/manage-payment",
		"/admin/payment/book-amount",
		"/admin/payment/novalnet-paymentmethod",
		"/admin/payment/instalment-cancel",
	} {
		payload := post(t, r, path, map[string]interface{}{"orderNumber": "missing"})
		require.Empty(t, payload, "expected empty object for %s", path)
	}
	require.Zero(t, gateway.calls)
}

func TestMalformedBodyDegradesToEmptyObject(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/payment/refund-amount", bytes.NewBufferString("not-json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "{}", w.Body.String())
}

func TestRefundRejectedWhenAmountExceedsRemainder(t *testing.T) {
	r, gateway := setupRouter(t)
	seedTransaction(t, &models.TransactionRecord{
		TID: 600, OrderNo: "ord-r1", Amount: 5000, PaidAmount: 5000,
		RefundedAmount: 4000, Currency: "EUR", GatewayStatus: types.StatusConfirmed,
	})

	payload := post(t, r, "/admin/payment/refund-amount", map[string]interface{}{
		"orderNumber": "ord-r1", "refundAmount": 2000,
	})
	result := resultOf(t, payload)
	require.Equal(t, "FAILURE", result["status"])
	require.Equal(t, "Please enter a valid refund amount", result["status_text"])
	require.Zero(t, gateway.calls)

	// 存储不得发生任何变更
	record, err := transactions.FindByOrderNumber("ord-r1")
	require.NoError(t, err)
	require.EqualValues(t, 4000, record.RefundedAmount)
	require.Zero(t, record.Version)
}

func TestRefundRejectedWhenAlreadyFullyRefunded(t *testing.T) {
	r, gateway := setupRouter(t)
	seedTransaction(t, &models.TransactionRecord{
		TID: 601, OrderNo: "ord-r2", Amount: 5000, PaidAmount: 5000,
		RefundedAmount: 5000, Currency: "EUR", GatewayStatus: types.StatusConfirmed,
	})

	payload := post(t, r, "/admin/payment/refund-amount", map[string]interface{}{
		"orderNumber": "ord-r2", "refundAmount": 100,
	})
	result := resultOf(t, payload)
	require.Equal(t, "FAILURE", result["status"])
	require.Equal(t, "The transaction has already been fully refunded", result["status_text"])
	require.Zero(t, gateway.calls)
}

func TestRefundSuccessUpdatesRecord(t *testing.T) {
	r, gateway := setupRouter(t)
	seedTransaction(t, &models.TransactionRecord{
		TID: 602, OrderNo: "ord-r3", Amount: 5000, PaidAmount: 5000,
		Currency: "EUR", GatewayStatus: types.StatusConfirmed,
	})

	payload := post(t, r, "/admin/payment/refund-amount", map[string]interface{}{
		"orderNumber": "ord-r3", "refundAmount": 1500,
	})
	result := resultOf(t, payload)
	require.Equal(t, "SUCCESS", result["status"])
	require.Contains(t, result["status_text"], "15.00 EUR")
	require.EqualValues(t, 1, gateway.calls)

	record, err := transactions.FindByOrderNumber("ord-r3")
	require.NoError(t, err)
	require.EqualValues(t, 1500, record.RefundedAmount)
}

func TestManagePaymentRoutesCaptureAndVoid(t *testing.T) {
	r, gateway := setupRouter(t)
	seedTransaction(t, &models.TransactionRecord{
		TID: 603, OrderNo: "ord-m1", Amount: 3000, Currency: "EUR",
		GatewayStatus: types.StatusOnHold,
	})

	payload := post(t, r, "/admin/payment/manage-payment", map[string]interface{}{
		"orderNumber": "ord-m1", "status": 100,
	})
	result := resultOf(t, payload)
	require.Equal(t, "SUCCESS", result["status"])
	require.Equal(t, types.StatusConfirmed, payload["gateway_status"])

	seedTransaction(t, &models.TransactionRecord{
		TID: 604, OrderNo: "ord-m2", Amount: 3000, Currency: "EUR",
		GatewayStatus: types.StatusOnHold,
	})
	payload = post(t, r, "/admin/payment/manage-payment", map[string]interface{}{
		"orderNumber": "ord-m2", "status": 103,
	})
	result = resultOf(t, payload)
	require.Equal(t, "SUCCESS", result["status"])
	require.Equal(t, types.StatusCancelled, payload["gateway_status"])
	require.EqualValues(t, 2, gateway.calls)
}

func TestManagePaymentRejectsRecordNotOnHold(t *testing.T) {
	r, gateway := setupRouter(t)
	seedTransaction(t, &models.TransactionRecord{
		TID: 610, OrderNo: "ord-m4", Amount: 3000, PaidAmount: 3000,
		Currency: "EUR", GatewayStatus: types.StatusConfirmed,
	})

	for _, status := range []int{100, 103} {
		payload := post(t, r, "/admin/payment/manage-payment", map[string]interface{}{
			"orderNumber": "ord-m4", "status": status,
		})
		result := resultOf(t, payload)
		require.Equal(t, "FAILURE", result["status"])
		require.Equal(t, "The transaction is not awaiting a capture or void decision", result["status_text"])
	}
	require.Zero(t, gateway.calls)

	record, err := transactions.FindByOrderNumber("ord-m4")
	require.NoError(t, err)
	require.Equal(t, types.StatusConfirmed, record.GatewayStatus)
}

func TestManagePaymentUnknownStatusReturnsEmpty(t *testing.T) {
	r, gateway := setupRouter(t)
	seedTransaction(t, &models.TransactionRecord{
		TID: 605, OrderNo: "ord-m3", Amount: 3000, Currency: "EUR",
		GatewayStatus: types.StatusOnHold,
	})

	payload := post(t, r, "/admin/payment/manage-payment", map[string]interface{}{
		"orderNumber": "ord-m3", "status": 42,
	})
	require.Empty(t, payload)
	require.Zero(t, gateway.calls)
}

func TestInstalmentCancelRequiresCancelType(t *testing.T) {
	r, gateway := setupRouter(t)
	seedTransaction(t, &models.TransactionRecord{
		TID: 606, OrderNo: "ord-i1", Amount: 3000, Currency: "EUR",
		GatewayStatus: types.StatusConfirmed,
	})

	payload := post(t, r, "/admin/payment/instalment-cancel", map[string]interface{}{
		"orderNumber": "ord-i1",
	})
	require.Empty(t, payload)
	require.Zero(t, gateway.calls)

	payload = post(t, r, "/admin/payment/instalment-cancel", map[string]interface{}{
		"orderNumber": "ord-i1", "cancelType": "REMAINING_CYCLES",
	})
	result := resultOf(t, payload)
	require.Equal(t, "SUCCESS", result["status"])
	require.EqualValues(t, 1, gateway.calls)
}

func TestGatewayFailureTextPassesThroughVerbatim(t *testing.T) {
	r, gateway := setupRouter(t)
	gateway.resp = &novalnet.Response{Result: novalnet.Result{
		Status: "FAILURE", StatusCode: 204, StatusText: "Gateway said no",
	}}
	seedTransaction(t, &models.TransactionRecord{
		TID: 607, OrderNo: "ord-g1", Amount: 3000, PaidAmount: 3000,
		Currency: "EUR", GatewayStatus: types.StatusConfirmed,
	})

	payload := post(t, r, "/admin/payment/refund-amount", map[string]interface{}{
		"orderNumber": "ord-g1", "refundAmount": 100,
	})
	result := resultOf(t, payload)
	require.Equal(t, "FAILURE", result["status"])
	require.Equal(t, "Gateway said no", result["status_text"])
	require.EqualValues(t, 204, result["status_code"])
}

func TestTransactionAmountReturnsRecordData(t *testing.T) {
	r, _ := setupRouter(t)
	seedTransaction(t, &models.TransactionRecord{
		TID: 608, OrderNo: "ord-t1", Amount: 9900, PaidAmount: 9900,
		RefundedAmount: 100, Currency: "EUR", GatewayStatus: types.StatusConfirmed,
		PaymentType: "CREDITCARD",
	})

	payload := post(t, r, "/admin/payment/transaction-amount", map[string]interface{}{
		"orderNumber": "ord-t1",
	})
	data, ok := payload["data"].(map[string]interface{})
	require.True(t, ok)
	require.EqualValues(t, 9900, data["amount"])
	require.EqualValues(t, 100, data["refunded_amount"])
	require.Equal(t, "CONFIRMED", data["gateway_status"])
}

func TestPaymentMethodLookup(t *testing.T) {
	r, _ := setupRouter(t)
	seedTransaction(t, &models.TransactionRecord{
		TID: 609, OrderNo: "ord-p1", Amount: 1000, Currency: "EUR",
		GatewayStatus: types.StatusConfirmed, PaymentType: "DIRECT_DEBIT_SEPA",
	})

	payload := post(t, r, "/admin/payment/novalnet-paymentmethod", map[string]interface{}{
		"orderNumber": "ord-p1",
	})
	method, ok := payload["payment_method"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "novalnet_sepa", method["code"])
	require.Equal(t, "Direct Debit SEPA", method["name"])
}
