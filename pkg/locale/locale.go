package locale

import "fmt"

// 管理端提示消息的本地化表，键与usererrors错误码对应
var messages = map[string]map[string]string{
	"en": {
		"payment.already_refunded":        "The transaction has already been fully refunded",
		"payment.invalid_refund_amount":   "Please enter a valid refund amount",
		"payment.capture_success":         "The transaction has been confirmed on %s",
		"payment.void_success":            "The transaction has been cancelled on %s",
		"payment.refund_success":          "Refund of %s has been initiated for the transaction TID: %d",
		"payment.book_success":            "Your order has been booked with the amount of %s. Your new TID for the booked amount: %d",
		"payment.instalment_cancelled":    "Instalment has been cancelled on %s",
		"payment.credentials_invalid":     "Invalid product activation key or payment access key",
		"payment.webhook_configured":      "Notification URL has been configured successfully",
		"payment.transaction_not_on_hold": "The transaction is not awaiting a capture or void decision",
	},
	"de": {
		"payment.already_refunded":        "Die Transaktion wurde bereits vollständig zurückerstattet",
		"payment.invalid_refund_amount":   "Bitte geben Sie einen gültigen Rückerstattungsbetrag ein",
		"payment.capture_success":         "Die Transaktion wurde am %s bestätigt",
		"payment.void_success":            "Die Transaktion wurde am %s storniert",
		"payment.refund_success":          "Die Rückerstattung von %s wurde für die Transaktion TID: %d veranlasst",
		"payment.book_success":            "Ihre Bestellung wurde mit dem Betrag von %s gebucht. Ihre neue TID für den gebuchten Betrag: %d",
		"payment.instalment_cancelled":    "Die Ratenzahlung wurde am %s storniert",
		"payment.credentials_invalid":     "Ungültiger Produktaktivierungsschlüssel oder Zahlungszugriffsschlüssel",
		"payment.webhook_configured":      "Die Benachrichtigungs-URL wurde erfolgreich konfiguriert",
		"payment.transaction_not_on_hold": "Die Transaktion wartet nicht auf eine Buchungs- oder Stornoentscheidung",
	},
}

// Text 取指定语言的消息文本，未命中回退英文，再未命中返回键本身
func Text(lang, key string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if s, ok := messages["en"][key]; ok {
		return s
	}
	return key
}

// Textf 带参数格式化的消息文本
func Textf(lang, key string, args ...interface{}) string {
	return fmt.Sprintf(Text(lang, key), args...)
}
