package types

import "encoding/json"

// AdditionalDetails 交易记录上的网关附加数据，序列化为JSON存储
type AdditionalDetails struct {
	Instalment  *InstalmentDetails  `json:"instalment,omitempty"`
	CashPayment *CashPaymentDetails `json:"cash_payment,omitempty"`
	BankDetails *BankDetails        `json:"bank_details,omitempty"`

	// instalment-cancel动作写入的取消类型标记
	CancelType string `json:"cancel_type,omitempty"`

	// 历次退款产生的网关TID
	RefundTIDs []int64 `json:"refund_tids,omitempty"`

	// 追加记账产生的TID
	BookedTID int64 `json:"booked_tid,omitempty"`
}

// InstalmentDetails 分期付款计划
type InstalmentDetails struct {
	CycleAmount int64             `json:"cycle_amount"`
	TotalCycles int               `json:"total_cycles"`
	Currency    string            `json:"currency"`
	Cycles      []InstalmentCycle `json:"cycles"`
}

// InstalmentCycle 单个分期周期
type InstalmentCycle struct {
	Cycle          int    `json:"cycle"`
	TID            int64  `json:"tid,omitempty"`
	Amount         int64  `json:"amount"`
	RefundedAmount int64  `json:"refunded_amount,omitempty"`
	Date           string `json:"date,omitempty"`
	Status         string `json:"status"` // PAID, PENDING, REFUNDED, CANCELLED
}

// CashPaymentDetails 现金支付（便利店/门店缴费）说明
type CashPaymentDetails struct {
	CheckoutToken string `json:"checkout_token,omitempty"`
	CheckoutJS    string `json:"checkout_js,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
}

// BankDetails 预付款/发票支付的转账收款账户
type BankDetails struct {
	AccountHolder    string `json:"account_holder,omitempty"`
	IBAN             string `json:"iban,omitempty"`
	BIC              string `json:"bic,omitempty"`
	BankName         string `json:"bank_name,omitempty"`
	BankPlace        string `json:"bank_place,omitempty"`
	PaymentReference string `json:"payment_reference,omitempty"`
}

// ParseAdditionalDetails 反序列化附加数据，空串返回零值
func ParseAdditionalDetails(data string) (*AdditionalDetails, error) {
	details := &AdditionalDetails{}
	if data == "" {
		return details, nil
	}
	if err := json.Unmarshal([]byte(data), details); err != nil {
		return nil, err
	}
	return details, nil
}

// Serialize 序列化附加数据
func (d *AdditionalDetails) Serialize() (string, error) {
	data, err := json.Marshal(d)
	return string(data), err
}
