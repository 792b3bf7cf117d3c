package types

// OrderAggregate 宿主系统订单聚合的只读视图
type OrderAggregate struct {
	OrderNo     string `json:"order_no"`
	CustomerNo  string `json:"customer_no"`
	Currency    string `json:"currency"`
	Locale      string `json:"locale"`
	TotalAmount int64  `json:"total_amount"` // 最小货币单位
}
