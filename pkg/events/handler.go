package events

import "github.com/flaboy/aira-pay/pkg/types"

type EventHandler interface {
	OnPaymentCompleted(event *types.PaymentCompletedEvent) error
	OnRefundExecuted(event *types.RefundExecutedEvent) error
	OnTransactionUpdated(event *types.TransactionUpdatedEvent) error
	OnTokenStored(event *types.TokenStoredEvent) error
}

var handler EventHandler

func SetEventHandler(h EventHandler) {
	handler = h
}

func EmitPaymentCompleted(event *types.PaymentCompletedEvent) error {
	if handler != nil {
		return handler.OnPaymentCompleted(event)
	}
	return nil
}

func EmitRefundExecuted(event *types.RefundExecutedEvent) error {
	if handler != nil {
		return handler.OnRefundExecuted(event)
	}
	return nil
}

func EmitTransactionUpdated(event *types.TransactionUpdatedEvent) error {
	if handler != nil {
		return handler.OnTransactionUpdated(event)
	}
	return nil
}

func EmitTokenStored(event *types.TokenStoredEvent) error {
	if handler != nil {
		return handler.OnTokenStored(event)
	}
	return nil
}
