package transactions

import (
	goerrors "errors"
	"log/slog"
	"time"

	"github.com/flaboy/aira-pay/pkg/errors"
	"github.com/flaboy/aira-pay/pkg/events"
	"github.com/flaboy/aira-pay/pkg/extensions/payment/novalnet"
	"github.com/flaboy/aira-pay/pkg/extensions/payment/utils"
	"github.com/flaboy/aira-pay/pkg/models"
	"github.com/flaboy/aira-pay/pkg/types"
)

// Gateway 执行层依赖的网关调用面，由novalnet.Client实现
type Gateway interface {
	Capture(tid int64) (*novalnet.Response, error)
	Cancel(tid int64) (*novalnet.Response, error)
	Refund(tid int64, amount int64, reason string) (*novalnet.Response, error)
	Book(tid int64, amount int64, currency, orderNo string) (*novalnet.Response, error)
	InstalmentCancel(tid int64, cancelType string) (*novalnet.Response, error)
	TransactionDetails(tid int64) (*novalnet.Response, error)
}

// Helper 订单交易执行器：调网关、落库、发事件。
// 前置校验由管理端调度器负责，这里只做执行与持久化。
type Helper struct {
	gateway Gateway
}

func NewHelper(gateway Gateway) *Helper {
	return &Helper{gateway: gateway}
}

// WithRetry CAS冲突时重读记录重试一次
func WithRetry(record *models.TransactionRecord, mutate func() error) error {
	err := mutate()
	if goerrors.Is(err, errors.ErrVersionConflict) {
		if err := Reload(record); err != nil {
			return err
		}
		return mutate()
	}
	return err
}

// Capture 捕获挂起交易
func (h *Helper) Capture(record *models.TransactionRecord) (*novalnet.Response, error) {
	resp, err := h.gateway.Capture(record.TID)
	if err != nil {
		return nil, err
	}
	if !resp.Result.Success() {
		return resp, nil
	}

	status := types.StatusConfirmed
	captured := record.Amount - record.PaidAmount
	if resp.Transaction != nil {
		if resp.Transaction.Status != "" {
			status = resp.Transaction.Status
		}
		if resp.Transaction.Amount > 0 {
			captured = resp.Transaction.Amount - record.PaidAmount
		}
	}
	if captured < 0 {
		captured = 0
	}

	previous := record.GatewayStatus
	err = WithRetry(record, func() error {
		return MarkCaptured(record, captured, status)
	})
	if err != nil {
		return nil, err
	}

	h.emitUpdated(record, previous)
	if types.IsConfirmed(record.GatewayStatus) {
		err := events.EmitPaymentCompleted(&types.PaymentCompletedEvent{
			OrderNo:     record.OrderNo,
			TID:         record.TID,
			PaymentType: record.PaymentType,
			Amount:      utils.ConvertIntToDecimal(record.PaidAmount),
			Currency:    record.Currency,
			CompletedAt: time.Now(),
		})
		if err != nil {
			slog.Error("[TransactionHelper] Payment completed handler failed", "order", record.OrderNo, "error", err)
		}
	}
	return resp, nil
}

// Void 作废挂起交易
func (h *Helper) Void(record *models.TransactionRecord) (*novalnet.Response, error) {
	resp, err := h.gateway.Cancel(record.TID)
	if err != nil {
		return nil, err
	}
	if !resp.Result.Success() {
		return resp, nil
	}

	previous := record.GatewayStatus
	err = WithRetry(record, func() error {
		return MarkVoided(record)
	})
	if err != nil {
		return nil, err
	}

	h.emitUpdated(record, previous)
	return resp, nil
}

// Refund 对交易退款并累计退款金额，分期交易同步更新对应周期
func (h *Helper) Refund(record *models.TransactionRecord, amount int64, reason string) (*novalnet.Response, error) {
	resp, err := h.gateway.Refund(record.TID, amount, reason)
	if err != nil {
		return nil, err
	}
	if !resp.Result.Success() {
		return resp, nil
	}

	var refundTID int64
	if resp.Transaction != nil && resp.Transaction.Refund != nil {
		refundTID = resp.Transaction.Refund.TID
	}

	err = WithRetry(record, func() error {
		return ApplyRefund(record, amount, refundTID)
	})
	if err != nil {
		return nil, err
	}

	if err := h.applyInstalmentRefund(record, amount); err != nil {
		slog.Error("[TransactionHelper] Failed to update instalment cycle after refund",
			"order", record.OrderNo, "error", err)
	}

	err = events.EmitRefundExecuted(&types.RefundExecutedEvent{
		OrderNo:       record.OrderNo,
		TID:           record.TID,
		RefundTID:     refundTID,
		Amount:        utils.ConvertIntToDecimal(amount),
		Currency:      record.Currency,
		RefundedTotal: record.RefundedAmount,
		ExecutedAt:    time.Now(),
	})
	if err != nil {
		slog.Error("[TransactionHelper] Refund handler failed", "order", record.OrderNo, "error", err)
	}
	return resp, nil
}

// Book 追加记账，成功后记录挂到网关新TID上
func (h *Helper) Book(record *models.TransactionRecord, amount int64) (*novalnet.Response, error) {
	resp, err := h.gateway.Book(record.TID, amount, record.Currency, record.OrderNo)
	if err != nil {
		return nil, err
	}
	if !resp.Result.Success() {
		return resp, nil
	}

	newTID := record.TID
	if resp.Transaction != nil && resp.Transaction.TID != 0 {
		newTID = resp.Transaction.TID
	}

	err = WithRetry(record, func() error {
		return ApplyBooked(record, amount, newTID)
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// InstalmentCancel 取消分期。ALL_CYCLES退全部已付金额，REMAINING_CYCLES只停未扣周期。
func (h *Helper) InstalmentCancel(record *models.TransactionRecord, cancelType string) (*novalnet.Response, error) {
	resp, err := h.gateway.InstalmentCancel(record.TID, cancelType)
	if err != nil {
		return nil, err
	}
	if !resp.Result.Success() {
		return resp, nil
	}

	details, err := types.ParseAdditionalDetails(record.AdditionalDetails)
	if err != nil {
		return nil, err
	}
	details.CancelType = cancelType
	if details.Instalment != nil {
		for i := range details.Instalment.Cycles {
			cycle := &details.Instalment.Cycles[i]
			switch cycle.Status {
			case "PAID":
				if cancelType == "ALL_CYCLES" {
					cycle.RefundedAmount = cycle.Amount
					cycle.Status = "REFUNDED"
				}
			case "PENDING":
				cycle.Status = "CANCELLED"
			}
		}
	}

	err = WithRetry(record, func() error {
		return UpdateAdditionalDetails(record, details)
	})
	if err != nil {
		return nil, err
	}

	if cancelType == "ALL_CYCLES" {
		refunded := record.PaidAmount - record.RefundedAmount
		if refunded > 0 {
			err = WithRetry(record, func() error {
				return ApplyRefund(record, refunded, 0)
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return resp, nil
}

// applyInstalmentRefund 把退款金额摊到最早一个未退完的已付周期
func (h *Helper) applyInstalmentRefund(record *models.TransactionRecord, amount int64) error {
	details, err := types.ParseAdditionalDetails(record.AdditionalDetails)
	if err != nil {
		return err
	}
	if details.Instalment == nil {
		return nil
	}

	for i := range details.Instalment.Cycles {
		cycle := &details.Instalment.Cycles[i]
		if cycle.Status != "PAID" || cycle.RefundedAmount >= cycle.Amount {
			continue
		}
		cycle.RefundedAmount += amount
		if cycle.RefundedAmount >= cycle.Amount {
			cycle.RefundedAmount = cycle.Amount
			cycle.Status = "REFUNDED"
		}
		break
	}

	return WithRetry(record, func() error {
		return UpdateAdditionalDetails(record, details)
	})
}

func (h *Helper) emitUpdated(record *models.TransactionRecord, previous string) {
	err := events.EmitTransactionUpdated(&types.TransactionUpdatedEvent{
		OrderNo:        record.OrderNo,
		TID:            record.TID,
		PaymentType:    record.PaymentType,
		PreviousStatus: previous,
		GatewayStatus:  record.GatewayStatus,
		PaidAmount:     record.PaidAmount,
		UpdatedAt:      time.Now(),
	})
	if err != nil {
		slog.Error("[TransactionHelper] Transaction updated handler failed", "order", record.OrderNo, "error", err)
	}
}
