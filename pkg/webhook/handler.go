package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flaboy/aira-pay/pkg/events"
	"github.com/flaboy/aira-pay/pkg/extensions/payment/novalnet"
	"github.com/flaboy/aira-pay/pkg/extensions/payment/utils"
	"github.com/flaboy/aira-pay/pkg/models"
	"github.com/flaboy/aira-pay/pkg/transactions"
	"github.com/flaboy/aira-pay/pkg/types"
)

// 网关异步通知的事件类型
const (
	EventPayment            = "PAYMENT"
	EventTransactionCapture = "TRANSACTION_CAPTURE"
	EventTransactionCancel  = "TRANSACTION_CANCEL"
	EventTransactionRefund  = "TRANSACTION_REFUND"
	EventCredit             = "CREDIT"
	EventInstalment         = "INSTALMENT"
)

// EventPayload 网关回调报文
type EventPayload struct {
	Event struct {
		Type     string `json:"type"`
		Checksum string `json:"checksum"`
		TID      int64  `json:"tid"`
	} `json:"event"`
	Result      novalnet.Result             `json:"result"`
	Transaction *novalnet.TransactionResult `json:"transaction"`
	Instalment  *novalnet.InstalmentResult  `json:"instalment"`
}

// Handler 网关异步通知处理器。应答恒为HTTP 200文本，
// 网关按应答体判断投递结果并决定是否重发。
type Handler struct {
	accessKey string
	allowedIP string
}

func NewHandler(accessKey, allowedIP string) *Handler {
	return &Handler{accessKey: accessKey, allowedIP: allowedIP}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/webhook/novalnet", h.Handle)
}

// Handle POST /webhook/novalnet
func (h *Handler) Handle(c *gin.Context) {
	eventID := uuid.NewString()

	if h.allowedIP != "" && c.ClientIP() != h.allowedIP {
		slog.Warn("[Webhook] Rejected notification from unauthorized IP",
			"event_id", eventID, "ip", c.ClientIP())
		c.String(200, "Unauthorized sender IP")
		return
	}

	var payload EventPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		slog.Warn("[Webhook] Malformed notification payload", "event_id", eventID, "error", err)
		c.String(200, "Malformed notification payload")
		return
	}

	if !h.verifyChecksum(&payload) {
		slog.Warn("[Webhook] Checksum verification failed",
			"event_id", eventID, "tid", payload.Event.TID, "type", payload.Event.Type)
		c.String(200, "Checksum verification failed")
		return
	}

	slog.Info("[Webhook] Notification received", "event_id", eventID,
		"type", payload.Event.Type, "tid", payload.Event.TID, "status", payload.Result.Status)

	message, err := h.dispatch(&payload)
	if err != nil {
		slog.Error("[Webhook] Notification handling failed",
			"event_id", eventID, "tid", payload.Event.TID, "error", err)
		c.String(200, "Notification handling failed")
		return
	}
	c.String(200, message)
}

// verifyChecksum sha256(tid + type + result.status + 反转访问密钥)
func (h *Handler) verifyChecksum(payload *EventPayload) bool {
	if payload.Event.Checksum == "" {
		return false
	}

	reversed := []byte(h.accessKey)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}

	raw := strconv.FormatInt(payload.Event.TID, 10) + payload.Event.Type + payload.Result.Status + string(reversed)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:]) == payload.Event.Checksum
}

func (h *Handler) dispatch(payload *EventPayload) (string, error) {
	record, err := h.resolveRecord(payload)
	if err != nil {
		return "", err
	}

	switch payload.Event.Type {
	case EventPayment:
		return h.handlePayment(record, payload)
	case EventTransactionCapture:
		return h.handleCapture(record, payload)
	case EventTransactionCancel:
		return h.handleCancel(record)
	case EventTransactionRefund:
		return h.handleRefund(record, payload)
	case EventCredit:
		return h.handleCredit(record, payload)
	case EventInstalment:
		return h.handleInstalment(record, payload)
	default:
		// 未知事件确认收到但不处理，避免网关无谓重发
		return fmt.Sprintf("Event type %s is not handled", payload.Event.Type), nil
	}
}

// resolveRecord 按事件TID定位交易记录，PAYMENT事件允许缺档
func (h *Handler) resolveRecord(payload *EventPayload) (*models.TransactionRecord, error) {
	record, err := transactions.FindByTID(payload.Event.TID)
	if err != nil {
		return nil, err
	}
	if record == nil && payload.Transaction != nil {
		record, err = transactions.FindByOrderNumber(payload.Transaction.OrderNo)
		if err != nil {
			return nil, err
		}
	}
	if record == nil && payload.Event.Type != EventPayment {
		return nil, fmt.Errorf("no transaction record for TID %d", payload.Event.TID)
	}
	return record, nil
}

// handlePayment 初始支付通知：缺档补建，已有则只落状态
func (h *Handler) handlePayment(record *models.TransactionRecord, payload *EventPayload) (string, error) {
	tx := payload.Transaction
	if tx == nil {
		return "Notification carries no transaction data", nil
	}

	if record == nil {
		record = &models.TransactionRecord{
			TID:           tx.TID,
			PaymentType:   tx.PaymentType,
			Amount:        tx.Amount,
			Currency:      tx.Currency,
			OrderNo:       tx.OrderNo,
			GatewayStatus: tx.Status,
		}
		if types.IsConfirmed(tx.Status) {
			record.PaidAmount = tx.Amount
		}
		if err := transactions.Create(record); err != nil {
			return "", err
		}
		return fmt.Sprintf("Transaction record created for TID %d", tx.TID), nil
	}

	if record.GatewayStatus == tx.Status {
		return fmt.Sprintf("Transaction %d already up to date", tx.TID), nil
	}
	err := transactions.WithRetry(record, func() error {
		return transactions.UpdateGatewayStatus(record, tx.Status, 0)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Transaction %d status updated to %s", tx.TID, tx.Status), nil
}

func (h *Handler) handleCapture(record *models.TransactionRecord, payload *EventPayload) (string, error) {
	if types.IsConfirmed(record.GatewayStatus) {
		return fmt.Sprintf("Transaction %d already confirmed", record.TID), nil
	}

	status := types.StatusConfirmed
	captured := record.Amount - record.PaidAmount
	if payload.Transaction != nil && payload.Transaction.Status != "" {
		status = payload.Transaction.Status
	}
	if captured < 0 {
		captured = 0
	}

	previous := record.GatewayStatus
	err := transactions.WithRetry(record, func() error {
		return transactions.MarkCaptured(record, captured, status)
	})
	if err != nil {
		return "", err
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
			slog.Error("[Webhook] Payment completed handler failed", "order", record.OrderNo, "error", err)
		}
	}
	return fmt.Sprintf("Transaction %d has been captured", record.TID), nil
}

func (h *Handler) handleCancel(record *models.TransactionRecord) (string, error) {
	if types.IsCancelled(record.GatewayStatus) {
		return fmt.Sprintf("Transaction %d already cancelled", record.TID), nil
	}

	previous := record.GatewayStatus
	err := transactions.WithRetry(record, func() error {
		return transactions.MarkVoided(record)
	})
	if err != nil {
		return "", err
	}
	h.emitUpdated(record, previous)
	return fmt.Sprintf("Transaction %d has been cancelled", record.TID), nil
}

func (h *Handler) handleRefund(record *models.TransactionRecord, payload *EventPayload) (string, error) {
	var amount, refundTID int64
	if payload.Transaction != nil && payload.Transaction.Refund != nil {
		amount = payload.Transaction.Refund.Amount
		refundTID = payload.Transaction.Refund.TID
	}
	if amount <= 0 {
		return "Refund notification carries no amount", nil
	}

	// 网关会对其认为投递失败的通知重发，按退款TID去重
	details, err := types.ParseAdditionalDetails(record.AdditionalDetails)
	if err != nil {
		return "", err
	}
	if refundTID != 0 {
		for _, tid := range details.RefundTIDs {
			if tid == refundTID {
				return fmt.Sprintf("Refund %d already applied to transaction %d", refundTID, record.TID), nil
			}
		}
	}
	if remaining := record.Amount - record.RefundedAmount; amount > remaining {
		if remaining <= 0 {
			return fmt.Sprintf("Transaction %d already fully refunded", record.TID), nil
		}
		amount = remaining
	}

	err = transactions.WithRetry(record, func() error {
		return transactions.ApplyRefund(record, amount, refundTID)
	})
	if err != nil {
		return "", err
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
		slog.Error("[Webhook] Refund handler failed", "order", record.OrderNo, "error", err)
	}
	return fmt.Sprintf("Refund of %d applied to transaction %d", amount, record.TID), nil
}

// handleCredit 发票/预付款的入账通知，累计已付金额
func (h *Handler) handleCredit(record *models.TransactionRecord, payload *EventPayload) (string, error) {
	var amount int64
	if payload.Transaction != nil {
		amount = payload.Transaction.Amount
	}
	if amount <= 0 {
		return "Credit notification carries no amount", nil
	}

	// 重发的入账通知不再累计，超出请求金额的部分截断
	if remaining := record.Amount - record.PaidAmount; amount > remaining {
		if remaining <= 0 {
			return fmt.Sprintf("Transaction %d already paid in full", record.TID), nil
		}
		amount = remaining
	}

	status := record.GatewayStatus
	if record.PaidAmount+amount >= record.Amount {
		status = types.StatusConfirmed
	}

	previous := record.GatewayStatus
	err := transactions.WithRetry(record, func() error {
		return transactions.MarkCaptured(record, amount, status)
	})
	if err != nil {
		return "", err
	}
	h.emitUpdated(record, previous)
	return fmt.Sprintf("Credit of %d applied to transaction %d", amount, record.TID), nil
}

// handleInstalment 后续分期周期扣款通知，补齐周期明细
func (h *Handler) handleInstalment(record *models.TransactionRecord, payload *EventPayload) (string, error) {
	details, err := types.ParseAdditionalDetails(record.AdditionalDetails)
	if err != nil {
		return "", err
	}
	if details.Instalment == nil {
		return fmt.Sprintf("Transaction %d is not an instalment", record.TID), nil
	}

	var cycleTID, cycleAmount int64
	if payload.Transaction != nil {
		cycleTID = payload.Transaction.TID
		cycleAmount = payload.Transaction.Amount
	}

	// 同一周期TID的重发通知不再入账
	if cycleTID != 0 {
		for _, cycle := range details.Instalment.Cycles {
			if cycle.TID == cycleTID {
				return fmt.Sprintf("Instalment cycle %d already recorded for transaction %d", cycleTID, record.TID), nil
			}
		}
	}

	for i := range details.Instalment.Cycles {
		cycle := &details.Instalment.Cycles[i]
		if cycle.Status != "PENDING" {
			continue
		}
		cycle.TID = cycleTID
		if cycleAmount > 0 {
			cycle.Amount = cycleAmount
		}
		cycle.Status = "PAID"
		cycle.Date = time.Now().Format("2006-01-02")
		break
	}

	err = transactions.WithRetry(record, func() error {
		return transactions.UpdateAdditionalDetails(record, details)
	})
	if err != nil {
		return "", err
	}

	if cycleAmount > 0 {
		err = transactions.WithRetry(record, func() error {
			return transactions.MarkCaptured(record, cycleAmount, record.GatewayStatus)
		})
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Instalment cycle recorded for transaction %d", record.TID), nil
}

func (h *Handler) emitUpdated(record *models.TransactionRecord, previous string) {
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
		slog.Error("[Webhook] Transaction updated handler failed", "order", record.OrderNo, "error", err)
	}
}
