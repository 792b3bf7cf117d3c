package utils

import (
	"github.com/flaboy/aira-pay/pkg/hashid"
	"github.com/shopspring/decimal"
)

var HashIDTypeToken = hashid.NewType("tk-", "payment-token", 6)

// EncodeTokenID 编码token数据库ID为对外ID
func EncodeTokenID(id uint) string {
	return hashid.Encode(HashIDTypeToken, id)
}

// DecodeTokenHashID 解码对外token ID
func DecodeTokenHashID(hashID string) (uint, error) {
	return hashid.Decode(HashIDTypeToken, hashID)
}

var Dec100 = decimal.NewFromInt(100)

// ConvertIntToDecimal 最小货币单位转十进制金额
func ConvertIntToDecimal(v int64) *decimal.Decimal {
	v2 := decimal.NewFromInt(v).Div(Dec100)
	return &v2
}

// FormatAmount 金额展示文本，如 "12.50 EUR"
func FormatAmount(v int64, currency string) string {
	return ConvertIntToDecimal(v).StringFixed(2) + " " + currency
}
