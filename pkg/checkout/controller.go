package checkout

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/flaboy/aira-pay/pkg/config"
	"github.com/flaboy/aira-pay/pkg/extensions/payment"
	"github.com/flaboy/aira-pay/pkg/extensions/payment/novalnet"
	ptypes "github.com/flaboy/aira-pay/pkg/extensions/payment/types"
	"github.com/flaboy/aira-pay/pkg/extensions/payment/utils"
	"github.com/flaboy/aira-pay/pkg/models"
	"github.com/flaboy/aira-pay/pkg/tokens"
	"github.com/flaboy/aira-pay/pkg/transactions"
	"github.com/flaboy/aira-pay/pkg/types"
)

// PaymentGateway 结账侧需要的网关调用面
type PaymentGateway interface {
	Payment(tx *novalnet.TransactionData, customer *novalnet.CustomerData, instalment *novalnet.InstalmentData) (*novalnet.Response, error)
	Authorize(tx *novalnet.TransactionData, customer *novalnet.CustomerData) (*novalnet.Response, error)
}

// Controller 店面侧结账接口：支付表单数据、会话表单暂存、已存凭证管理、支付发起。
// 与管理端一致，全部POST、HTTP恒为200、失败以载荷表达。
type Controller struct {
	sessions *SessionStore
	gateway  PaymentGateway
}

func NewController(sessions *SessionStore, gateway PaymentGateway) *Controller {
	return &Controller{sessions: sessions, gateway: gateway}
}

func (cc *Controller) RegisterRoutes(r gin.IRouter) {
	r.POST("/load-payment-form", cc.LoadPaymentForm)
	r.POST("/payment-value-data", cc.PaymentValueData)
	r.POST("/payment-tokens", cc.ListTokens)
	r.POST("/payment-tokens/delete", cc.DeleteToken)
	r.POST("/payment", cc.InitiatePayment)
	r.POST("/checkout-finish", cc.CheckoutFinish)
}

func parseBody(c *gin.Context) map[string]interface{} {
	body := map[string]interface{}{}
	if err := c.ShouldBindJSON(&body); err != nil {
		return map[string]interface{}{}
	}
	return body
}

// LoadPaymentForm POST /load-payment-form 结账页支付组件所需数据
func (cc *Controller) LoadPaymentForm(c *gin.Context) {
	body := parseBody(c)
	sessionID := cast.ToString(body["sessionId"])
	customerID := cast.ToString(body["customerId"])

	saved := cc.savedTokens(customerID)

	var sc *SessionContext
	if sessionID != "" {
		var err error
		sc, err = cc.sessions.Load(c.Request.Context(), sessionID)
		if err != nil {
			slog.Error("[Checkout] Session load failed", "session", sessionID, "error", err)
			sc = &SessionContext{SessionID: sessionID}
		}
	}

	payload := gin.H{
		"client_key":   config.Config.Gateway.ClientKey,
		"test_mode":    config.Config.Gateway.TestMode,
		"methods":      payment.AvailableMethods(),
		"saved_tokens": saved,
	}
	if sc != nil {
		payload["form_values"] = gin.H{
			"selected_method": sc.SelectedMethod,
			"selected_token":  sc.SelectedToken,
			"iban":            sc.IBAN,
			"dob":             sc.DOB,
		}
	}
	c.JSON(200, payload)
}

// PaymentValueData POST /payment-value-data 页面跳转间暂存表单值
func (cc *Controller) PaymentValueData(c *gin.Context) {
	body := parseBody(c)
	sessionID := cast.ToString(body["sessionId"])
	if sessionID == "" {
		c.JSON(200, gin.H{})
		return
	}

	sc, err := cc.sessions.Load(c.Request.Context(), sessionID)
	if err != nil {
		slog.Error("[Checkout] Session load failed", "session", sessionID, "error", err)
		c.JSON(200, gin.H{})
		return
	}

	if v, ok := body["customerId"]; ok {
		sc.CustomerID = cast.ToString(v)
	}
	if v, ok := body["selectedMethod"]; ok {
		sc.SelectedMethod = cast.ToString(v)
	}
	if v, ok := body["selectedToken"]; ok {
		sc.SelectedToken = cast.ToString(v)
	}
	if v, ok := body["iban"]; ok {
		sc.IBAN = cast.ToString(v)
	}
	if v, ok := body["dob"]; ok {
		sc.DOB = cast.ToString(v)
	}
	if v, ok := body["panHash"]; ok {
		sc.PanHash = cast.ToString(v)
	}
	if v, ok := body["uniqueId"]; ok {
		sc.UniqueID = cast.ToString(v)
	}
	if v, ok := body["walletToken"]; ok {
		sc.WalletToken = cast.ToString(v)
	}

	if err := cc.sessions.Save(c.Request.Context(), sc); err != nil {
		slog.Error("[Checkout] Session save failed", "session", sessionID, "error", err)
		c.JSON(200, gin.H{})
		return
	}

	c.JSON(200, gin.H{
		"form_values": gin.H{
			"selected_method": sc.SelectedMethod,
			"selected_token":  sc.SelectedToken,
			"iban":            sc.IBAN,
			"dob":             sc.DOB,
		},
	})
}

// ListTokens POST /payment-tokens 账户页的已存支付方式列表
func (cc *Controller) ListTokens(c *gin.Context) {
	body := parseBody(c)
	customerID := cast.ToString(body["customerId"])
	c.JSON(200, gin.H{"tokens": cc.savedTokens(customerID)})
}

// DeleteToken POST /payment-tokens/delete 删除已存支付方式，未命中为no-op
func (cc *Controller) DeleteToken(c *gin.Context) {
	body := parseBody(c)
	customerID := cast.ToString(body["customerId"])
	tokenHashID := cast.ToString(body["tokenId"])

	id, err := utils.DecodeTokenHashID(tokenHashID)
	if err != nil {
		c.JSON(200, gin.H{})
		return
	}

	token, err := tokens.Latest(customerID, map[string]interface{}{"id": id})
	if err != nil || token == nil {
		c.JSON(200, gin.H{})
		return
	}
	if err := tokens.Delete(customerID, tokens.Filter{Token: token.Token}); err != nil {
		slog.Error("[Checkout] Token delete failed", "customer", customerID, "error", err)
		c.JSON(200, gin.H{})
		return
	}
	c.JSON(200, gin.H{"deleted": true})
}

// InitiatePayment POST /payment 发起支付：组装网关请求、建交易档、回存token
func (cc *Controller) InitiatePayment(c *gin.Context) {
	body := parseBody(c)
	sessionID := cast.ToString(body["sessionId"])
	orderNo := cast.ToString(body["orderNumber"])
	amount := cast.ToInt64(body["amount"])
	currency := cast.ToString(body["currency"])
	methodCode := cast.ToString(body["method"])

	method := payment.Get(methodCode)
	if orderNo == "" || amount <= 0 || method == nil {
		c.JSON(200, gin.H{})
		return
	}

	var sc *SessionContext
	if sessionID != "" {
		var err error
		sc, err = cc.sessions.Load(c.Request.Context(), sessionID)
		if err != nil {
			slog.Error("[Checkout] Session load failed", "session", sessionID, "error", err)
			sc = &SessionContext{SessionID: sessionID}
		}
	} else {
		sc = &SessionContext{}
	}

	tx := &novalnet.TransactionData{
		PaymentType: method.Type,
		Amount:      amount,
		Currency:    currency,
		OrderNo:     orderNo,
		PaymentData: cc.paymentData(sc),
	}
	if method.Tokenizable && cast.ToBool(body["storePayment"]) {
		tx.CreateToken = 1
	}

	customer := &novalnet.CustomerData{
		CustomerNo: sc.CustomerID,
		Email:      cast.ToString(body["email"]),
		Birthdate:  sc.DOB,
	}

	var resp *novalnet.Response
	var err error
	if method.Instalment {
		resp, err = cc.gateway.Payment(tx, customer, &novalnet.InstalmentData{
			Interval: "1m",
			Cycles:   cast.ToInt(body["cycles"]),
		})
	} else if method.OnHoldCapable && cast.ToBool(body["authorizeOnly"]) {
		resp, err = cc.gateway.Authorize(tx, customer)
	} else {
		resp, err = cc.gateway.Payment(tx, customer, nil)
	}
	if err != nil {
		slog.Error("[Checkout] Gateway payment call failed", "order", orderNo, "error", err)
		c.JSON(200, gin.H{"result": gin.H{"status": "FAILURE", "status_text": "Payment could not be initiated"}})
		return
	}
	if !resp.Result.Success() {
		c.JSON(200, gin.H{"result": gin.H{
			"status":      resp.Result.Status,
			"status_code": resp.Result.StatusCode,
			"status_text": resp.Result.StatusText,
		}})
		return
	}

	record := cc.buildRecord(orderNo, sc.CustomerID, method.Type, amount, currency, resp)
	if err := transactions.Create(record); err != nil {
		slog.Error("[Checkout] Failed to create transaction record", "order", orderNo, "error", err)
	}

	cc.storeToken(sc, method.Type, resp)

	if sessionID != "" {
		if err := cc.sessions.Clear(c.Request.Context(), sessionID); err != nil {
			slog.Error("[Checkout] Session clear failed", "session", sessionID, "error", err)
		}
	}

	c.JSON(200, ptypes.InitiatePaymentResult{
		Success:  true,
		TID:      record.TID,
		Status:   record.GatewayStatus,
		OrderNo:  orderNo,
		Amount:   amount,
		Currency: currency,
	})
}

// CheckoutFinish POST /checkout-finish 到达完成页，清掉会话暂存
func (cc *Controller) CheckoutFinish(c *gin.Context) {
	body := parseBody(c)
	sessionID := cast.ToString(body["sessionId"])
	if sessionID != "" {
		if err := cc.sessions.Clear(c.Request.Context(), sessionID); err != nil {
			slog.Error("[Checkout] Session clear failed", "session", sessionID, "error", err)
		}
	}
	c.JSON(200, gin.H{})
}

// paymentData 会话暂存值转网关支付凭据，已存token优先
func (cc *Controller) paymentData(sc *SessionContext) *novalnet.PaymentData {
	if sc.SelectedToken != "" {
		return &novalnet.PaymentData{Token: sc.SelectedToken}
	}
	if sc.PanHash != "" {
		return &novalnet.PaymentData{PanHash: sc.PanHash, UniqueID: sc.UniqueID}
	}
	if sc.IBAN != "" {
		return &novalnet.PaymentData{IBAN: sc.IBAN}
	}
	return nil
}

func (cc *Controller) buildRecord(orderNo, customerNo, paymentType string, amount int64, currency string, resp *novalnet.Response) *models.TransactionRecord {
	record := &models.TransactionRecord{
		PaymentType:   paymentType,
		Amount:        amount,
		Currency:      currency,
		OrderNo:       orderNo,
		CustomerNo:    customerNo,
		GatewayStatus: types.StatusPending,
	}

	if resp.Transaction != nil {
		record.TID = resp.Transaction.TID
		if resp.Transaction.Status != "" {
			record.GatewayStatus = resp.Transaction.Status
		}
		if types.IsConfirmed(record.GatewayStatus) {
			record.PaidAmount = amount
		}

		details := &types.AdditionalDetails{}
		if resp.Transaction.BankDetails != nil {
			details.BankDetails = &types.BankDetails{
				AccountHolder: resp.Transaction.BankDetails.AccountHolder,
				IBAN:          resp.Transaction.BankDetails.IBAN,
				BIC:           resp.Transaction.BankDetails.BIC,
				BankName:      resp.Transaction.BankDetails.BankName,
				BankPlace:     resp.Transaction.BankDetails.BankPlace,
			}
		}
		if resp.Transaction.CheckoutToken != "" {
			details.CashPayment = &types.CashPaymentDetails{
				CheckoutToken: resp.Transaction.CheckoutToken,
				CheckoutJS:    resp.Transaction.CheckoutJS,
				DueDate:       resp.Transaction.DueDate,
			}
		}
		if resp.Instalment != nil {
			details.Instalment = buildInstalmentDetails(amount, currency, resp.Instalment)
		}
		if serialized, err := details.Serialize(); err == nil {
			record.AdditionalDetails = serialized
		}
	}
	return record
}

// buildInstalmentDetails 首周期已随支付扣款，其余按计划排期
func buildInstalmentDetails(amount int64, currency string, ir *novalnet.InstalmentResult) *types.InstalmentDetails {
	total := len(ir.PendingCycles) + 1
	details := &types.InstalmentDetails{
		CycleAmount: ir.CycleAmount,
		TotalCycles: total,
		Currency:    currency,
		Cycles: []types.InstalmentCycle{
			{Cycle: 1, TID: ir.TID, Amount: ir.CycleAmount, Status: "PAID", Date: time.Now().Format("2006-01-02")},
		},
	}
	for i := 2; i <= total; i++ {
		details.Cycles = append(details.Cycles, types.InstalmentCycle{
			Cycle:  i,
			Amount: ir.CycleAmount,
			Status: "PENDING",
		})
	}
	return details
}

// storeToken 网关返回token时回存，无客户时静默跳过
func (cc *Controller) storeToken(sc *SessionContext, paymentType string, resp *novalnet.Response) {
	if resp.Transaction == nil || resp.Transaction.Token == "" {
		return
	}

	accountData := ""
	if resp.Transaction.PaymentData != nil {
		accountData = resp.Transaction.PaymentData.IBAN
	}
	_, err := tokens.Upsert(sc.CustomerID, tokens.UpsertInput{
		PaymentType: paymentType,
		AccountData: accountData,
		TokenType:   "gateway",
		Token:       resp.Transaction.Token,
		TID:         resp.Transaction.TID,
	})
	if err != nil {
		slog.Error("[Checkout] Token upsert failed", "customer", sc.CustomerID, "error", err)
	}
}

// savedTokens 客户的已存凭证，无客户时返回空
func (cc *Controller) savedTokens(customerID string) []ptypes.SavedToken {
	list, err := tokens.List(customerID, nil)
	if err != nil {
		slog.Error("[Checkout] Token list failed", "customer", customerID, "error", err)
		return nil
	}

	saved := make([]ptypes.SavedToken, 0, len(list))
	for _, t := range list {
		st := ptypes.SavedToken{
			TokenID:     utils.EncodeTokenID(t.ID),
			PaymentType: t.PaymentType,
			AccountData: t.AccountData,
		}
		if t.ExpiryDate != nil {
			st.Expiry = t.ExpiryDate.Format("01/06")
		}
		saved = append(saved, st)
	}
	return saved
}
