package transactions

import (
	"github.com/flaboy/aira-pay/pkg/database"
	"github.com/flaboy/aira-pay/pkg/errors"
	"github.com/flaboy/aira-pay/pkg/models"
	"github.com/flaboy/aira-pay/pkg/types"
)

// FindByOrderNumber 按订单号取交易记录，未命中返回nil而非错误
func FindByOrderNumber(orderNo string) (*models.TransactionRecord, error) {
	if orderNo == "" {
		return nil, nil
	}

	var record models.TransactionRecord
	err := database.Database().Where("order_no = ?", orderNo).Limit(1).Find(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

// FindByTID 按网关交易号取记录
func FindByTID(tid int64) (*models.TransactionRecord, error) {
	if tid == 0 {
		return nil, nil
	}

	var record models.TransactionRecord
	err := database.Database().Where("tid = ?", tid).Limit(1).Find(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

// Create 支付发起时建档
func Create(record *models.TransactionRecord) error {
	return database.Database().Create(record).Error
}

// casUpdate 带版本号比较的条件更新，并发冲突返回ErrVersionConflict。
// 成功后同步内存中的记录字段。
func casUpdate(record *models.TransactionRecord, updates map[string]interface{}) error {
	updates["version"] = record.Version + 1

	res := database.Database().Model(&models.TransactionRecord{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.ErrVersionConflict
	}

	record.Version++
	return nil
}

// Reload 重读记录最新状态，CAS冲突后调用方重试前使用
func Reload(record *models.TransactionRecord) error {
	return database.Database().First(record, record.ID).Error
}

// MarkCaptured 捕获成功：累计已付金额并落网关新状态
func MarkCaptured(record *models.TransactionRecord, capturedAmount int64, status string) error {
	paid := record.PaidAmount + capturedAmount
	err := casUpdate(record, map[string]interface{}{
		"paid_amount":    paid,
		"gateway_status": status,
	})
	if err != nil {
		return err
	}
	record.PaidAmount = paid
	record.GatewayStatus = status
	return nil
}

// MarkVoided 作废挂起交易
func MarkVoided(record *models.TransactionRecord) error {
	err := casUpdate(record, map[string]interface{}{
		"gateway_status": types.StatusCancelled,
	})
	if err != nil {
		return err
	}
	record.GatewayStatus = types.StatusCancelled
	return nil
}

// ApplyRefund 累计退款金额并在附加数据中留退款TID痕迹
func ApplyRefund(record *models.TransactionRecord, amount int64, refundTID int64) error {
	details, err := types.ParseAdditionalDetails(record.AdditionalDetails)
	if err != nil {
		return err
	}
	if refundTID != 0 {
		details.RefundTIDs = append(details.RefundTIDs, refundTID)
	}
	serialized, err := details.Serialize()
	if err != nil {
		return err
	}

	refunded := record.RefundedAmount + amount
	err = casUpdate(record, map[string]interface{}{
		"refunded_amount":    refunded,
		"additional_details": serialized,
	})
	if err != nil {
		return err
	}
	record.RefundedAmount = refunded
	record.AdditionalDetails = serialized
	return nil
}

// ApplyBooked 追加记账：网关生成新TID，请求金额与已付金额随之抬升
func ApplyBooked(record *models.TransactionRecord, bookedAmount int64, newTID int64) error {
	details, err := types.ParseAdditionalDetails(record.AdditionalDetails)
	if err != nil {
		return err
	}
	details.BookedTID = newTID
	serialized, err := details.Serialize()
	if err != nil {
		return err
	}

	amount := record.Amount + bookedAmount
	paid := record.PaidAmount + bookedAmount
	err = casUpdate(record, map[string]interface{}{
		"tid":                newTID,
		"amount":             amount,
		"paid_amount":        paid,
		"additional_details": serialized,
	})
	if err != nil {
		return err
	}
	record.TID = newTID
	record.Amount = amount
	record.PaidAmount = paid
	record.AdditionalDetails = serialized
	return nil
}

// UpdateGatewayStatus 回调通知等路径落网关状态
func UpdateGatewayStatus(record *models.TransactionRecord, status string, paidAmount int64) error {
	updates := map[string]interface{}{"gateway_status": status}
	if paidAmount > 0 {
		updates["paid_amount"] = paidAmount
	}
	err := casUpdate(record, updates)
	if err != nil {
		return err
	}
	record.GatewayStatus = status
	if paidAmount > 0 {
		record.PaidAmount = paidAmount
	}
	return nil
}

// UpdateAdditionalDetails 重写附加数据JSON
func UpdateAdditionalDetails(record *models.TransactionRecord, details *types.AdditionalDetails) error {
	serialized, err := details.Serialize()
	if err != nil {
		return err
	}
	err = casUpdate(record, map[string]interface{}{"additional_details": serialized})
	if err != nil {
		return err
	}
	record.AdditionalDetails = serialized
	return nil
}
