package tokens

import (
	"log/slog"
	"time"

	"github.com/flaboy/aira-pay/pkg/database"
	"github.com/flaboy/aira-pay/pkg/events"
	"github.com/flaboy/aira-pay/pkg/models"
	"github.com/flaboy/aira-pay/pkg/types"
)

// Filter token查找条件：accountData+paymentType 或 token 二选一
type Filter struct {
	AccountData string
	PaymentType string
	Token       string
}

// UpsertInput 写入token的字段
type UpsertInput struct {
	PaymentType string
	AccountData string
	TokenType   string
	Token       string
	TID         int64
	ExpiryDate  *time.Time
}

// Upsert 按(customerID, accountData, paymentType)或(customerID, token)匹配既有记录，
// 命中则原地更新保持ID不变，否则新建。无客户时静默跳过，这是守卫不是错误。
func Upsert(customerID string, input UpsertInput) (uint, error) {
	if customerID == "" {
		return 0, nil
	}

	existing, err := Find(customerID, Filter{
		AccountData: input.AccountData,
		PaymentType: input.PaymentType,
		Token:       input.Token,
	})
	if err != nil {
		return 0, err
	}

	if existing != nil {
		err = database.Database().Model(existing).Updates(map[string]interface{}{
			"payment_type": input.PaymentType,
			"account_data": input.AccountData,
			"token_type":   input.TokenType,
			"token":        input.Token,
			"tid":          input.TID,
			"expiry_date":  input.ExpiryDate,
		}).Error
		if err != nil {
			return 0, err
		}
		slog.Info("[TokenStore] Updated stored token", "customer", customerID, "payment_type", input.PaymentType)
		emitStored(customerID, input)
		return existing.ID, nil
	}

	record := &models.PaymentToken{
		CustomerID:  customerID,
		PaymentType: input.PaymentType,
		AccountData: input.AccountData,
		TokenType:   input.TokenType,
		Token:       input.Token,
		TID:         input.TID,
		ExpiryDate:  input.ExpiryDate,
	}
	if err := database.Database().Create(record).Error; err != nil {
		return 0, err
	}

	slog.Info("[TokenStore] Stored new token", "customer", customerID, "payment_type", input.PaymentType)
	emitStored(customerID, input)
	return record.ID, nil
}

// Find 精确匹配查找，优先accountData+paymentType，否则按token。未命中返回nil而非错误。
func Find(customerID string, f Filter) (*models.PaymentToken, error) {
	if customerID == "" {
		return nil, nil
	}

	tx := database.Database().Where("customer_id = ?", customerID)
	switch {
	case f.AccountData != "":
		tx = tx.Where("account_data = ? AND payment_type = ?", f.AccountData, f.PaymentType)
	case f.Token != "":
		tx = tx.Where("token = ?", f.Token)
	default:
		return nil, nil
	}

	var token models.PaymentToken
	err := tx.Order("updated_at DESC, created_at DESC").Limit(1).Find(&token).Error
	if err != nil {
		return nil, err
	}
	if token.ID == 0 {
		return nil, nil
	}
	return &token, nil
}

// Latest 附加任意等值过滤，按更新时间倒序取最新一条
func Latest(customerID string, extraFilters map[string]interface{}) (*models.PaymentToken, error) {
	if customerID == "" {
		return nil, nil
	}

	tx := database.Database().Where("customer_id = ?", customerID)
	for column, value := range extraFilters {
		tx = tx.Where(column+" = ?", value)
	}

	var token models.PaymentToken
	err := tx.Order("updated_at DESC, created_at DESC").Limit(1).Find(&token).Error
	if err != nil {
		return nil, err
	}
	if token.ID == 0 {
		return nil, nil
	}
	return &token, nil
}

// List 同Latest的过滤与排序，返回全部匹配
func List(customerID string, extraFilters map[string]interface{}) ([]models.PaymentToken, error) {
	if customerID == "" {
		return nil, nil
	}

	tx := database.Database().Where("customer_id = ?", customerID)
	for column, value := range extraFilters {
		tx = tx.Where(column+" = ?", value)
	}

	var list []models.PaymentToken
	err := tx.Order("updated_at DESC, created_at DESC").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Delete 按Find语义定位后删除，未命中或无客户时为no-op
func Delete(customerID string, f Filter) error {
	token, err := Find(customerID, f)
	if err != nil {
		return err
	}
	if token == nil {
		return nil
	}
	return database.Database().Delete(&models.PaymentToken{}, token.ID).Error
}

func emitStored(customerID string, input UpsertInput) {
	err := events.EmitTokenStored(&types.TokenStoredEvent{
		CustomerID:  customerID,
		PaymentType: input.PaymentType,
		AccountData: input.AccountData,
		TID:         input.TID,
		StoredAt:    time.Now(),
	})
	if err != nil {
		slog.Error("[TokenStore] Event handler failed", "error", err)
	}
}
