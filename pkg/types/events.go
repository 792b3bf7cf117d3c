package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentCompletedEvent 支付确认完成事件
type PaymentCompletedEvent struct {
	OrderNo     string           `json:"order_no"`
	TID         int64            `json:"tid"`
	PaymentType string           `json:"payment_type"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    string           `json:"currency"`
	CompletedAt time.Time        `json:"completed_at"`
}

// RefundExecutedEvent 退款执行事件
type RefundExecutedEvent struct {
	OrderNo       string           `json:"order_no"`
	TID           int64            `json:"tid"`
	RefundTID     int64            `json:"refund_tid"` // 网关为退款生成的新TID，可能为0
	Amount        *decimal.Decimal `json:"amount"`
	Currency      string           `json:"currency"`
	RefundedTotal int64            `json:"refunded_total"` // 累计已退款（最小货币单位）
	ExecutedAt    time.Time        `json:"executed_at"`
}

// TransactionUpdatedEvent 交易状态变更事件，捕获/作废/回调通知都会触发
type TransactionUpdatedEvent struct {
	OrderNo        string    `json:"order_no"`
	TID            int64     `json:"tid"`
	PaymentType    string    `json:"payment_type"`
	PreviousStatus string    `json:"previous_status"`
	GatewayStatus  string    `json:"gateway_status"`
	PaidAmount     int64     `json:"paid_amount"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TokenStoredEvent 支付凭证入库事件
type TokenStoredEvent struct {
	CustomerID  string    `json:"customer_id"`
	PaymentType string    `json:"payment_type"`
	AccountData string    `json:"account_data"`
	TID         int64     `json:"tid"`
	StoredAt    time.Time `json:"stored_at"`
}
