package transactions

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/flaboy/aira-pay/pkg/database"
	"github.com/flaboy/aira-pay/pkg/errors"
	"github.com/flaboy/aira-pay/pkg/migration"
	"github.com/flaboy/aira-pay/pkg/models"
	"github.com/flaboy/aira-pay/pkg/types"
)

var dbSeq atomic.Int64

func setupDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:transactions%d?mode=memory&cache=shared", dbSeq.Add(1))
	err := database.Init(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(database.Database()))
}

func seedRecord(t *testing.T, record *models.TransactionRecord) *models.TransactionRecord {
	t.Helper()
	require.NoError(t, Create(record))
	return record
}

func TestFindByOrderNumberMissReturnsNil(t *testing.T) {
	setupDB(t)

	record, err := FindByOrderNumber("no-such-order")
	require.NoError(t, err)
	require.Nil(t, record)

	record, err = FindByOrderNumber("")
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestMarkCapturedAccumulatesPaidAmount(t *testing.T) {
	setupDB(t)
	record := seedRecord(t, &models.TransactionRecord{
		TID: 100, OrderNo: "ord-1", Amount: 5000, Currency: "EUR",
		GatewayStatus: types.StatusOnHold,
	})

	require.NoError(t, MarkCaptured(record, 5000, types.StatusConfirmed))
	require.EqualValues(t, 5000, record.PaidAmount)
	require.Equal(t, types.StatusConfirmed, record.GatewayStatus)

	reloaded, err := FindByOrderNumber("ord-1")
	require.NoError(t, err)
	require.EqualValues(t, 5000, reloaded.PaidAmount)
	require.EqualValues(t, 1, reloaded.Version)
}

func TestApplyRefundAccumulatesAndTracksTIDs(t *testing.T) {
	setupDB(t)
	record := seedRecord(t, &models.TransactionRecord{
		TID: 101, OrderNo: "ord-2", Amount: 5000, PaidAmount: 5000,
		Currency: "EUR", GatewayStatus: types.StatusConfirmed,
	})

	require.NoError(t, ApplyRefund(record, 1500, 900001))
	require.NoError(t, ApplyRefund(record, 500, 900002))
	require.EqualValues(t, 2000, record.RefundedAmount)

	details, err := types.ParseAdditionalDetails(record.AdditionalDetails)
	require.NoError(t, err)
	require.Equal(t, []int64{900001, 900002}, details.RefundTIDs)
}

func TestApplyBookedMovesRecordToNewTID(t *testing.T) {
	setupDB(t)
	record := seedRecord(t, &models.TransactionRecord{
		TID: 102, OrderNo: "ord-3", Amount: 3000, PaidAmount: 3000,
		Currency: "EUR", GatewayStatus: types.StatusConfirmed,
	})

	require.NoError(t, ApplyBooked(record, 1000, 200200))
	require.EqualValues(t, 200200, record.TID)
	require.EqualValues(t, 4000, record.Amount)
	require.EqualValues(t, 4000, record.PaidAmount)

	details, err := types.ParseAdditionalDetails(record.AdditionalDetails)
	require.NoError(t, err)
	require.EqualValues(t, 200200, details.BookedTID)
}

func TestCASConflictDetected(t *testing.T) {
	setupDB(t)
	record := seedRecord(t, &models.TransactionRecord{
		TID: 103, OrderNo: "ord-4", Amount: 2000, Currency: "EUR",
		GatewayStatus: types.StatusOnHold,
	})

	// 模拟并发修改：版本号在外部被推进
	require.NoError(t, database.Database().Model(&models.TransactionRecord{}).
		Where("id = ?", record.ID).Update("version", record.Version+1).Error)

	err := MarkVoided(record)
	require.ErrorIs(t, err, errors.ErrVersionConflict)

	// 重读后重试成功
	require.NoError(t, Reload(record))
	require.NoError(t, MarkVoided(record))
	require.Equal(t, types.StatusCancelled, record.GatewayStatus)
}

func TestWithRetryRecoversFromSingleConflict(t *testing.T) {
	setupDB(t)
	record := seedRecord(t, &models.TransactionRecord{
		TID: 104, OrderNo: "ord-5", Amount: 2000, Currency: "EUR",
		GatewayStatus: types.StatusOnHold,
	})

	require.NoError(t, database.Database().Model(&models.TransactionRecord{}).
		Where("id = ?", record.ID).Update("version", record.Version+1).Error)

	err := WithRetry(record, func() error {
		return MarkCaptured(record, 2000, types.StatusConfirmed)
	})
	require.NoError(t, err)
	require.Equal(t, types.StatusConfirmed, record.GatewayStatus)
}
