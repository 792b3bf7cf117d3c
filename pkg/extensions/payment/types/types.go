package types

// InitiatePaymentResult 发起支付的结果
type InitiatePaymentResult struct {
	Success     bool   `json:"success"`
	TID         int64  `json:"tid"`
	Status      string `json:"status"` // 网关交易状态
	OrderNo     string `json:"order_no"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	RedirectURL string `json:"redirect_url,omitempty"` // 跳转类支付方式需要
	Message     string `json:"message,omitempty"`

	// 传递给前端托管SDK的参数
	ClientArgs map[string]interface{} `json:"client_args,omitempty"`
}

// SavedToken 储存凭证的对外展示形式
type SavedToken struct {
	TokenID     string `json:"token_id"` // hashid编码
	PaymentType string `json:"payment_type"`
	AccountData string `json:"account_data"`
	Expiry      string `json:"expiry,omitempty"`
}
