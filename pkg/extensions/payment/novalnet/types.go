package novalnet

// 网关v2 API的请求/应答报文

type Request struct {
	Merchant    *MerchantData    `json:"merchant,omitempty"`
	Transaction *TransactionData `json:"transaction,omitempty"`
	Customer    *CustomerData    `json:"customer,omitempty"`
	Instalment  *InstalmentData  `json:"instalment,omitempty"`
	Webhook     *WebhookData     `json:"webhook,omitempty"`
	Custom      *CustomData      `json:"custom,omitempty"`
}

type MerchantData struct {
	Signature string `json:"signature"`
	Tariff    string `json:"tariff"`
}

type TransactionData struct {
	TID         int64        `json:"tid,omitempty"`
	PaymentType string       `json:"payment_type,omitempty"`
	Amount      int64        `json:"amount,omitempty"`
	Currency    string       `json:"currency,omitempty"`
	OrderNo     string       `json:"order_no,omitempty"`
	TestMode    int          `json:"test_mode,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	CreateToken int          `json:"create_token,omitempty"`
	PaymentData *PaymentData `json:"payment_data,omitempty"`
}

// PaymentData 支付凭据：新录入的卡/账户数据或已存token引用
type PaymentData struct {
	Token         string      `json:"token,omitempty"`
	PanHash       string      `json:"pan_hash,omitempty"`
	UniqueID      string      `json:"unique_id,omitempty"`
	IBAN          string      `json:"iban,omitempty"`
	AccountHolder string      `json:"account_holder,omitempty"`
	PaymentRef    *PaymentRef `json:"payment_ref,omitempty"`
}

// PaymentRef 引用既有交易完成追加记账
type PaymentRef struct {
	TID int64 `json:"tid"`
}

type CustomerData struct {
	CustomerNo string `json:"customer_no,omitempty"`
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Birthdate  string `json:"birth_date,omitempty"`
}

type InstalmentData struct {
	TID        int64  `json:"tid,omitempty"`
	Interval   string `json:"interval,omitempty"`
	Cycles     int    `json:"cycles,omitempty"`
	CancelType string `json:"cancel_type,omitempty"` // ALL_CYCLES 或 REMAINING_CYCLES
}

type WebhookData struct {
	URL string `json:"url"`
}

type CustomData struct {
	Lang     string `json:"lang,omitempty"`
	InputVal string `json:"input1,omitempty"`
}

// Result 网关标记结果，status为SUCCESS或FAILURE
type Result struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	StatusText string `json:"status_text"`
}

func (r *Result) Success() bool {
	return r.Status == "SUCCESS"
}

type Response struct {
	Result      Result                 `json:"result"`
	Transaction *TransactionResult     `json:"transaction,omitempty"`
	Merchant    map[string]interface{} `json:"merchant,omitempty"`
	Instalment  *InstalmentResult      `json:"instalment,omitempty"`
}

type TransactionResult struct {
	TID            int64         `json:"tid,omitempty"`
	PaymentType    string        `json:"payment_type,omitempty"`
	Status         string        `json:"status,omitempty"`
	StatusCode     int           `json:"status_code,omitempty"`
	Amount         int64         `json:"amount,omitempty"`
	Currency       string        `json:"currency,omitempty"`
	RefundedAmount int64         `json:"refunded_amount,omitempty"`
	DueDate        string        `json:"due_date,omitempty"`
	OrderNo        string        `json:"order_no,omitempty"`
	TestMode       int           `json:"test_mode,omitempty"`
	Refund         *RefundResult `json:"refund,omitempty"`
	Token          string        `json:"token,omitempty"`
	BankDetails    *BankDetails  `json:"bank_details,omitempty"`
	CheckoutToken  string        `json:"checkout_token,omitempty"`
	CheckoutJS     string        `json:"checkout_js,omitempty"`
	PaymentData    *PaymentData  `json:"payment_data,omitempty"`
}

type RefundResult struct {
	TID      int64  `json:"tid,omitempty"` // 部分网关退款会生成新TID
	Amount   int64  `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type BankDetails struct {
	AccountHolder string `json:"account_holder,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	BIC           string `json:"bic,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	BankPlace     string `json:"bank_place,omitempty"`
}

type InstalmentResult struct {
	TID           int64  `json:"tid,omitempty"`
	CycleAmount   int64  `json:"cycle_amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
	CyclesTotal   int    `json:"cycles_executed,omitempty"`
	PendingCycles []int  `json:"pending_cycles,omitempty"`
	NextCycleDate string `json:"next_cycle_date,omitempty"`
}
