package errors

import "github.com/flaboy/aira-pay/pkg/usererrors"

// 支付相关错误
var (
	ErrTransactionNotFound  = usererrors.New("payment.transaction_not_found", "Transaction not found for this order")
	ErrOrderNotFound        = usererrors.New("payment.order_not_found", "Order could not be resolved")
	ErrAlreadyRefunded      = usererrors.New("payment.already_refunded", "Transaction is already fully refunded")
	ErrInvalidRefundAmount  = usererrors.New("payment.invalid_refund_amount", "Invalid refund amount")
	ErrInvalidManageAction  = usererrors.New("payment.invalid_manage_action", "Unsupported manage payment action")
	ErrCancelTypeMissing    = usererrors.New("payment.cancel_type_missing", "Instalment cancel type is missing")
	ErrMethodNotFound       = usererrors.New("payment.method_not_found", "Payment method not found")
	ErrCredentialsInvalid   = usererrors.New("payment.credentials_invalid", "Gateway API credentials are invalid")
	ErrGatewayUnavailable   = usererrors.New("payment.gateway_unavailable", "Payment gateway is unreachable")
	ErrChecksumMismatch     = usererrors.New("payment.checksum_mismatch", "Webhook checksum verification failed")
	ErrVersionConflict      = usererrors.New("payment.version_conflict", "Transaction record was modified concurrently")
	ErrSessionNotFound      = usererrors.New("payment.session_not_found", "Checkout session not found")
	ErrCustomerMissing      = usererrors.New("payment.customer_missing", "No authenticated customer in scope")
	ErrTokenNotFound        = usererrors.New("payment.token_not_found", "Stored payment token not found")
	ErrAmountNotBookable    = usererrors.New("payment.amount_not_bookable", "Additional amount cannot be booked")
	ErrTransactionNotOnHold = usererrors.New("payment.transaction_not_on_hold", "Transaction is not awaiting a capture or void decision")
)
