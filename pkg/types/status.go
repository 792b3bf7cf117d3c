package types

// 网关交易状态
const (
	StatusPending   = "PENDING"
	StatusOnHold    = "ON_HOLD"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
	StatusFailure   = "FAILURE"
)

// 历史接口返回的数字挂起子状态，语义上等同ON_HOLD
var onHoldSubstates = map[string]bool{
	"75": true,
	"85": true,
	"91": true,
	"98": true,
	"99": true,
}

// 管理端manage-payment动作编码
const (
	ManageActionCapture = 100
	ManageActionVoid    = 103
)

// IsOnHold 状态是否处于等待捕获/作废决定
func IsOnHold(status string) bool {
	return status == StatusOnHold || onHoldSubstates[status]
}

// IsConfirmed 状态是否已确认
func IsConfirmed(status string) bool {
	return status == StatusConfirmed || status == "100"
}

// IsCancelled 状态是否已取消
func IsCancelled(status string) bool {
	return status == StatusCancelled || status == "DEACTIVATED" || status == "103"
}
