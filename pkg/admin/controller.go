package admin

import (
	goerrors "errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/flaboy/aira-pay/pkg/errors"
	"github.com/flaboy/aira-pay/pkg/events"
	"github.com/flaboy/aira-pay/pkg/extensions/payment"
	"github.com/flaboy/aira-pay/pkg/extensions/payment/novalnet"
	"github.com/flaboy/aira-pay/pkg/extensions/payment/utils"
	"github.com/flaboy/aira-pay/pkg/locale"
	"github.com/flaboy/aira-pay/pkg/models"
	"github.com/flaboy/aira-pay/pkg/transactions"
	"github.com/flaboy/aira-pay/pkg/types"
	"github.com/flaboy/aira-pay/pkg/usererrors"
)

// Controller 管理端动作调度器。所有接口POST、永远HTTP 200，
// 结果一律通过载荷体表达：{result:{...}} 或 {}。
type Controller struct {
	engine *Engine
	client *novalnet.Client
	lang   string
}

func NewController(helper *transactions.Helper, client *novalnet.Client, lang string) *Controller {
	return &Controller{
		engine: buildEngine(helper),
		client: client,
		lang:   lang,
	}
}

// RegisterRoutes 挂载管理端路由
func (ac *Controller) RegisterRoutes(r gin.IRouter) {
	r.POST("/transaction-amount", ac.TransactionAmount)
	r.POST("/refund-amount", ac.RefundAmount)
	r.POST("/manage-payment", ac.ManagePayment)
	r.POST("/book-amount", ac.BookAmount)
	r.POST("/novalnet-paymentmethod", ac.PaymentMethodOfOrder)
	r.POST("/instalment-cancel", ac.InstalmentCancel)
	r.POST("/validate-api-credentials", ac.ValidateAPICredentials)
	r.POST("/webhook-url-configure", ac.WebhookURLConfigure)
}

// parseBody 宽松解析请求体，畸形输入降级为空map而不是报错
func parseBody(c *gin.Context) map[string]interface{} {
	body := map[string]interface{}{}
	if err := c.ShouldBindJSON(&body); err != nil {
		return map[string]interface{}{}
	}
	return body
}

func respondEmpty(c *gin.Context) {
	c.JSON(200, gin.H{})
}

func (ac *Controller) respondFailure(c *gin.Context, err error) {
	var ue *usererrors.UserError
	if goerrors.As(err, &ue) {
		c.JSON(200, gin.H{
			"result": gin.H{
				"status":      "FAILURE",
				"status_text": locale.Text(ac.lang, ue.Code),
			},
		})
		return
	}
	// 基础设施错误同样以数据形式返回，不暴露内部细节
	slog.Error("[Admin] Action failed", "error", err)
	c.JSON(200, gin.H{
		"result": gin.H{
			"status":      "FAILURE",
			"status_text": "The action could not be completed",
		},
	})
}

// respondGatewayFailure 网关业务失败的status_text原样透传
func respondGatewayFailure(c *gin.Context, result novalnet.Result) {
	c.JSON(200, gin.H{
		"result": gin.H{
			"status":      result.Status,
			"status_code": result.StatusCode,
			"status_text": result.StatusText,
		},
	})
}

func (ac *Controller) respondSuccess(c *gin.Context, statusText string, extra gin.H) {
	result := gin.H{
		"status":      "SUCCESS",
		"status_code": 100,
		"status_text": statusText,
	}
	payload := gin.H{"result": result}
	for k, v := range extra {
		payload[k] = v
	}
	c.JSON(200, payload)
}

// resolveRecord 订单号到交易记录，未命中返回nil
func (ac *Controller) resolveRecord(body map[string]interface{}) *models.TransactionRecord {
	orderNo := cast.ToString(body["orderNumber"])
	record, err := transactions.FindByOrderNumber(orderNo)
	if err != nil {
		slog.Error("[Admin] Transaction lookup failed", "order", orderNo, "error", err)
		return nil
	}
	return record
}

// resolveOrder 订单聚合解析。宿主注册了解析器时以宿主为准，
// 否则从交易记录合成只读视图。
func (ac *Controller) resolveOrder(record *models.TransactionRecord) *types.OrderAggregate {
	if events.HasOrderResolver() {
		order, err := events.ResolveOrder(record.OrderNo)
		if err != nil {
			slog.Error("[Admin] Order lookup failed", "order", record.OrderNo, "error", err)
			return nil
		}
		return order
	}
	return &types.OrderAggregate{
		OrderNo:     record.OrderNo,
		CustomerNo:  record.CustomerNo,
		Currency:    record.Currency,
		TotalAmount: record.Amount,
	}
}

// TransactionAmount POST /transaction-amount 管理界面查询金额数据
func (ac *Controller) TransactionAmount(c *gin.Context) {
	body := parseBody(c)
	record := ac.resolveRecord(body)
	if record == nil {
		respondEmpty(c)
		return
	}

	ac.respondSuccess(c, "", gin.H{
		"data": gin.H{
			"tid":             record.TID,
			"payment_type":    record.PaymentType,
			"amount":          record.Amount,
			"paid_amount":     record.PaidAmount,
			"refunded_amount": record.RefundedAmount,
			"currency":        record.Currency,
			"gateway_status":  record.GatewayStatus,
		},
	})
}

// RefundAmount POST /refund-amount
func (ac *Controller) RefundAmount(c *gin.Context) {
	body := parseBody(c)
	record := ac.resolveRecord(body)
	if record == nil {
		respondEmpty(c)
		return
	}
	order := ac.resolveOrder(record)
	if order == nil {
		respondEmpty(c)
		return
	}

	params := ActionParams{
		RefundAmount: cast.ToInt64(body["refundAmount"]),
		Reason:       cast.ToString(body["reason"]),
	}
	ctx := &ActionContext{Record: record, Order: order, Params: params}
	resp, err := ac.engine.Execute(ActionRefund, ctx)
	if err != nil {
		ac.respondFailure(c, err)
		return
	}
	if !resp.Result.Success() {
		respondGatewayFailure(c, resp.Result)
		return
	}

	ac.respondSuccess(c, locale.Textf(ac.lang, "payment.refund_success",
		utils.FormatAmount(params.RefundAmount, record.Currency), record.TID), nil)
}

// ManagePayment POST /manage-payment 挂起交易的捕获(100)与作废(103)
func (ac *Controller) ManagePayment(c *gin.Context) {
	body := parseBody(c)
	record := ac.resolveRecord(body)
	if record == nil {
		respondEmpty(c)
		return
	}
	order := ac.resolveOrder(record)
	if order == nil {
		respondEmpty(c)
		return
	}

	status := cast.ToInt(body["status"])
	var actionType ActionType
	var messageKey string
	switch status {
	case types.ManageActionCapture:
		actionType = ActionCapture
		messageKey = "payment.capture_success"
	case types.ManageActionVoid:
		actionType = ActionVoid
		messageKey = "payment.void_success"
	default:
		respondEmpty(c)
		return
	}

	ctx := &ActionContext{Record: record, Order: order, Params: ActionParams{ManageStatus: status}}
	resp, err := ac.engine.Execute(actionType, ctx)
	if err != nil {
		ac.respondFailure(c, err)
		return
	}
	if !resp.Result.Success() {
		respondGatewayFailure(c, resp.Result)
		return
	}

	ac.respondSuccess(c, locale.Textf(ac.lang, messageKey, time.Now().Format("2006-01-02 15:04:05")), gin.H{
		"gateway_status": record.GatewayStatus,
	})
}

// BookAmount POST /book-amount 用既有凭据追加记账
func (ac *Controller) BookAmount(c *gin.Context) {
	body := parseBody(c)
	record := ac.resolveRecord(body)
	if record == nil {
		respondEmpty(c)
		return
	}
	order := ac.resolveOrder(record)
	if order == nil {
		respondEmpty(c)
		return
	}

	params := ActionParams{BookAmount: cast.ToInt64(body["bookAmount"])}
	ctx := &ActionContext{Record: record, Order: order, Params: params}
	resp, err := ac.engine.Execute(ActionBook, ctx)
	if err != nil {
		ac.respondFailure(c, err)
		return
	}
	if !resp.Result.Success() {
		respondGatewayFailure(c, resp.Result)
		return
	}

	ac.respondSuccess(c, locale.Textf(ac.lang, "payment.book_success",
		utils.FormatAmount(params.BookAmount, record.Currency), record.TID), gin.H{
		"tid": record.TID,
	})
}

// PaymentMethodOfOrder POST /novalnet-paymentmethod 订单是否由本插件支付及方式名
func (ac *Controller) PaymentMethodOfOrder(c *gin.Context) {
	body := parseBody(c)
	record := ac.resolveRecord(body)
	if record == nil {
		respondEmpty(c)
		return
	}

	method := payment.GetByType(record.PaymentType)
	name := record.PaymentType
	code := ""
	if method != nil {
		name = method.Name
		code = method.Code
	}
	ac.respondSuccess(c, "", gin.H{
		"payment_method": gin.H{
			"code": code,
			"type": record.PaymentType,
			"name": name,
		},
	})
}

// InstalmentCancel POST /instalment-cancel
func (ac *Controller) InstalmentCancel(c *gin.Context) {
	body := parseBody(c)
	record := ac.resolveRecord(body)
	if record == nil {
		respondEmpty(c)
		return
	}
	order := ac.resolveOrder(record)
	if order == nil {
		respondEmpty(c)
		return
	}

	cancelType := cast.ToString(body["cancelType"])
	if cancelType == "" {
		respondEmpty(c)
		return
	}

	ctx := &ActionContext{Record: record, Order: order, Params: ActionParams{CancelType: cancelType}}
	resp, err := ac.engine.Execute(ActionInstalmentCancel, ctx)
	if err != nil {
		ac.respondFailure(c, err)
		return
	}
	if !resp.Result.Success() {
		respondGatewayFailure(c, resp.Result)
		return
	}

	ac.respondSuccess(c, locale.Textf(ac.lang, "payment.instalment_cancelled",
		time.Now().Format("2006-01-02 15:04:05")), nil)
}

// ValidateAPICredentials POST /validate-api-credentials 调商户详情接口验证凭证
func (ac *Controller) ValidateAPICredentials(c *gin.Context) {
	body := parseBody(c)
	signature := cast.ToString(body["productActivationKey"])
	accessKey := cast.ToString(body["paymentAccessKey"])
	tariff := cast.ToString(body["tariff"])

	resp, err := ac.client.ValidateCredentials(signature, accessKey, tariff)
	if err != nil {
		ac.respondFailure(c, errors.ErrGatewayUnavailable)
		return
	}
	if !resp.Result.Success() {
		respondGatewayFailure(c, resp.Result)
		return
	}

	ac.respondSuccess(c, "", gin.H{"merchant": resp.Merchant})
}

// WebhookURLConfigure POST /webhook-url-configure 在网关登记回调URL
func (ac *Controller) WebhookURLConfigure(c *gin.Context) {
	body := parseBody(c)
	url := cast.ToString(body["url"])
	if url == "" {
		respondEmpty(c)
		return
	}

	resp, err := ac.client.ConfigureWebhook(url)
	if err != nil {
		ac.respondFailure(c, errors.ErrGatewayUnavailable)
		return
	}
	if !resp.Result.Success() {
		respondGatewayFailure(c, resp.Result)
		return
	}

	ac.respondSuccess(c, locale.Text(ac.lang, "payment.webhook_configured"), nil)
}
