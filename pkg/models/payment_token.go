package models

import (
	"time"

	"github.com/flaboy/aira-pay/pkg/migration"
)

// PaymentToken 客户可复用的支付凭证引用
type PaymentToken struct {
	ID          uint       `gorm:"primaryKey"`
	CustomerID  string     `gorm:"size:64;index;not null"` // 所属客户
	PaymentType string     `gorm:"size:64"`                // 支付方式：CREDITCARD, DIRECT_DEBIT_SEPA等
	AccountData string     `gorm:"size:64;index"`          // 掩码后的卡号/IBAN引用
	TokenType   string     `gorm:"size:32"`                // token种类
	Token       string     `gorm:"size:255;index"`         // 网关返回的不透明凭证引用
	TID         int64      `gorm:"column:tid;index"`       // 产生该token的网关交易号
	ExpiryDate  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *PaymentToken) TableName() string {
	return "ap_payment_tokens"
}

func init() {
	migration.RegisterAutoMigrateModels(&PaymentToken{})
}
