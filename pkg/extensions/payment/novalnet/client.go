package novalnet

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/valyala/fasthttp"
)

// Client 网关v2 API客户端
type Client struct {
	apiBase   string
	signature string
	tariff    string
	accessKey string
	lang      string
	testMode  bool

	httpClient *fasthttp.Client
}

type ClientConfig struct {
	APIBase          string
	Signature        string
	TariffID         string
	PaymentAccessKey string
	Lang             string
	TestMode         bool
}

func NewClient(cfg ClientConfig) *Client {
	return &Client{
		apiBase:   cfg.APIBase,
		signature: cfg.Signature,
		tariff:    cfg.TariffID,
		accessKey: cfg.PaymentAccessKey,
		lang:      cfg.Lang,
		testMode:  cfg.TestMode,
		httpClient: &fasthttp.Client{
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// AccessKey 原始支付访问密钥，回调校验使用
func (c *Client) AccessKey() string {
	return c.accessKey
}

func (c *Client) merchant() *MerchantData {
	return &MerchantData{Signature: c.signature, Tariff: c.tariff}
}

func (c *Client) custom() *CustomData {
	return &CustomData{Lang: c.lang}
}

// call 发送JSON请求并解码应答，网关对业务失败同样返回HTTP 200
func (c *Client) call(path string, payload *Request, accessKey string) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gateway request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.apiBase + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Charset", "utf-8")
	req.Header.Set("X-NN-Access-Key", base64.StdEncoding.EncodeToString([]byte(accessKey)))
	req.SetBody(body)

	if err := c.httpClient.Do(req, resp); err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}

	var response Response
	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	slog.Info("[Gateway] API call completed", "path", path,
		"status", response.Result.Status, "status_code", response.Result.StatusCode)

	return &response, nil
}

// Payment 发起支付
func (c *Client) Payment(tx *TransactionData, customer *CustomerData, instalment *InstalmentData) (*Response, error) {
	if c.testMode {
		tx.TestMode = 1
	}
	return c.call("/payment", &Request{
		Merchant:    c.merchant(),
		Transaction: tx,
		Customer:    customer,
		Instalment:  instalment,
		Custom:      c.custom(),
	}, c.accessKey)
}

// Authorize 发起挂起支付，需后续人工捕获或作废
func (c *Client) Authorize(tx *TransactionData, customer *CustomerData) (*Response, error) {
	if c.testMode {
		tx.TestMode = 1
	}
	return c.call("/authorize", &Request{
		Merchant:    c.merchant(),
		Transaction: tx,
		Customer:    customer,
		Custom:      c.custom(),
	}, c.accessKey)
}

// Capture 捕获挂起交易
func (c *Client) Capture(tid int64) (*Response, error) {
	return c.call("/transaction/capture", &Request{
		Transaction: &TransactionData{TID: tid},
		Custom:      c.custom(),
	}, c.accessKey)
}

// Cancel 作废挂起交易
func (c *Client) Cancel(tid int64) (*Response, error) {
	return c.call("/transaction/cancel", &Request{
		Transaction: &TransactionData{TID: tid},
		Custom:      c.custom(),
	}, c.accessKey)
}

// Refund 对交易发起退款，amount为最小货币单位
func (c *Client) Refund(tid int64, amount int64, reason string) (*Response, error) {
	return c.call("/transaction/refund", &Request{
		Transaction: &TransactionData{TID: tid, Amount: amount, Reason: reason},
		Custom:      c.custom(),
	}, c.accessKey)
}

// Book 借助既有交易的支付凭据追加记账
func (c *Client) Book(tid int64, amount int64, currency, orderNo string) (*Response, error) {
	return c.call("/payment", &Request{
		Merchant: c.merchant(),
		Transaction: &TransactionData{
			Amount:      amount,
			Currency:    currency,
			OrderNo:     orderNo,
			PaymentData: &PaymentData{PaymentRef: &PaymentRef{TID: tid}},
		},
		Custom: c.custom(),
	}, c.accessKey)
}

// InstalmentCancel 取消分期，cancelType为ALL_CYCLES或REMAINING_CYCLES
func (c *Client) InstalmentCancel(tid int64, cancelType string) (*Response, error) {
	return c.call("/instalment/cancel", &Request{
		Instalment: &InstalmentData{TID: tid, CancelType: cancelType},
		Custom:     c.custom(),
	}, c.accessKey)
}

// TransactionDetails 查询交易详情
func (c *Client) TransactionDetails(tid int64) (*Response, error) {
	return c.call("/transaction/details", &Request{
		Transaction: &TransactionData{TID: tid},
		Custom:      c.custom(),
	}, c.accessKey)
}

// ValidateCredentials 用给定凭证调商户详情接口验证有效性
func (c *Client) ValidateCredentials(signature, accessKey, tariff string) (*Response, error) {
	if signature == "" {
		signature = c.signature
	}
	if accessKey == "" {
		accessKey = c.accessKey
	}
	if tariff == "" {
		tariff = c.tariff
	}
	return c.call("/merchant/details", &Request{
		Merchant: &MerchantData{Signature: signature, Tariff: tariff},
		Custom:   c.custom(),
	}, accessKey)
}

// ConfigureWebhook 在网关侧登记回调通知URL
func (c *Client) ConfigureWebhook(url string) (*Response, error) {
	return c.call("/webhook/configure", &Request{
		Merchant: c.merchant(),
		Webhook:  &WebhookData{URL: url},
		Custom:   c.custom(),
	}, c.accessKey)
}
