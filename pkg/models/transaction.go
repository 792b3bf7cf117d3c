package models

import (
	"time"

	"github.com/flaboy/aira-pay/pkg/migration"
)

// TransactionRecord 每笔订单支付一条记录
type TransactionRecord struct {
	ID          uint   `gorm:"primaryKey"`
	TID         int64  `gorm:"column:tid;index"` // 网关交易号
	PaymentType string `gorm:"size:64"`

	Amount         int64  `gorm:"not null"` // 请求金额（最小货币单位）
	Currency       string `gorm:"size:10;default:'EUR'"`
	PaidAmount     int64  // 累计已捕获金额
	RefundedAmount int64  // 累计已退款金额

	// 网关侧状态：PENDING, ON_HOLD, CONFIRMED, CANCELLED 或数字挂起子状态
	GatewayStatus string `gorm:"size:32"`

	OrderNo    string `gorm:"size:64;uniqueIndex"`
	CustomerNo string `gorm:"size:64;index"`

	// 网关附加数据JSON：分期计划、现金支付说明、取消类型标记、退款TID等
	AdditionalDetails string `gorm:"type:text"`

	// 乐观锁版本号，读-校验-写所有变更都要CAS
	Version uint `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *TransactionRecord) TableName() string {
	return "ap_transactions"
}

func init() {
	migration.RegisterAutoMigrateModels(&TransactionRecord{})
}
