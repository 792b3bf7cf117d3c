package payment

import "sort"

// PaymentMethod 网关支付方式描述
type PaymentMethod struct {
	Code          string `json:"code"`        // 插件内部编码，如 novalnet_cc
	Type          string `json:"type"`        // 网关payment_type，如 CREDITCARD
	Name          string `json:"name"`        // 展示名称
	Tokenizable   bool   `json:"tokenizable"` // 支持存储复用凭证
	OnHoldCapable bool   `json:"onhold"`      // 支持挂起后人工捕获/作废
	Instalment    bool   `json:"instalment"`  // 分期方式
	Refundable    bool   `json:"refundable"`  // 支持退款
}

var paymentMethods map[string]*PaymentMethod

func Init() {
	paymentMethods = make(map[string]*PaymentMethod)

	register := func(m *PaymentMethod) {
		paymentMethods[m.Code] = m
	}

	register(&PaymentMethod{Code: "novalnet_cc", Type: "CREDITCARD", Name: "Credit/Debit Cards", Tokenizable: true, OnHoldCapable: true, Refundable: true})
	register(&PaymentMethod{Code: "novalnet_sepa", Type: "DIRECT_DEBIT_SEPA", Name: "Direct Debit SEPA", Tokenizable: true, OnHoldCapable: true, Refundable: true})
	register(&PaymentMethod{Code: "novalnet_invoice", Type: "INVOICE", Name: "Invoice", OnHoldCapable: true, Refundable: true})
	register(&PaymentMethod{Code: "novalnet_prepayment", Type: "PREPAYMENT", Name: "Prepayment", Refundable: true})
	register(&PaymentMethod{Code: "novalnet_cashpayment", Type: "CASHPAYMENT", Name: "Barzahlen/viacash", Refundable: true})
	register(&PaymentMethod{Code: "novalnet_instalment_invoice", Type: "INSTALMENT_INVOICE", Name: "Instalment by Invoice", OnHoldCapable: true, Instalment: true, Refundable: true})
	register(&PaymentMethod{Code: "novalnet_instalment_sepa", Type: "INSTALMENT_DIRECT_DEBIT_SEPA", Name: "Instalment by SEPA Direct Debit", Tokenizable: true, OnHoldCapable: true, Instalment: true, Refundable: true})
}

func Get(code string) *PaymentMethod {
	return paymentMethods[code]
}

// GetByType 按网关payment_type查找
func GetByType(paymentType string) *PaymentMethod {
	for _, m := range paymentMethods {
		if m.Type == paymentType {
			return m
		}
	}
	return nil
}

// AvailableMethods 获取所有可用的支付方式，按编码排序
func AvailableMethods() []*PaymentMethod {
	methods := make([]*PaymentMethod, 0, len(paymentMethods))
	for _, m := range paymentMethods {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].Code < methods[j].Code })
	return methods
}
