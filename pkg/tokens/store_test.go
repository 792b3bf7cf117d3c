package tokens

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/flaboy/aira-pay/pkg/database"
	"github.com/flaboy/aira-pay/pkg/migration"
	"github.com/flaboy/aira-pay/pkg/models"
)

var dbSeq atomic.Int64

func setupDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:tokens%d?mode=memory&cache=shared", dbSeq.Add(1))
	err := database.Init(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(database.Database()))
}

func TestUpsertInsertsThenUpdatesInPlace(t *testing.T) {
	setupDB(t)

	id1, err := Upsert("cust-1", UpsertInput{
		PaymentType: "CREDITCARD",
		AccountData: "411111******1111",
		TokenType:   "gateway",
		Token:       "tok-a",
		TID:         14700001,
	})
	require.NoError(t, err)
	require.NotZero(t, id1)

	// 同一(customer, accountData, paymentType)组合再次写入应原地更新
	id2, err := Upsert("cust-1", UpsertInput{
		PaymentType: "CREDITCARD",
		AccountData: "411111******1111",
		TokenType:   "gateway",
		Token:       "tok-b",
		TID:         14700002,
	})
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	stored, err := Find("cust-1", Filter{AccountData: "411111******1111", PaymentType: "CREDITCARD"})
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "tok-b", stored.Token)
	require.EqualValues(t, 14700002, stored.TID)

	// 新组合插入新记录
	id3, err := Upsert("cust-1", UpsertInput{
		PaymentType: "DIRECT_DEBIT_SEPA",
		AccountData: "DE44***3000",
		Token:       "tok-c",
	})
	require.NoError(t, err)
	require.NotEqual(t, id1, id3)
}

func TestUpsertMatchesByTokenWhenNoAccountData(t *testing.T) {
	setupDB(t)

	id1, err := Upsert("cust-1", UpsertInput{PaymentType: "CREDITCARD", Token: "tok-x", TID: 1})
	require.NoError(t, err)

	id2, err := Upsert("cust-1", UpsertInput{PaymentType: "CREDITCARD", Token: "tok-x", TID: 2})
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}

func TestLatestAndListOrdering(t *testing.T) {
	setupDB(t)

	base := time.Now().Add(-time.Hour)
	for i, token := range []string{"tok-old", "tok-mid", "tok-new"} {
		record := &models.PaymentToken{
			CustomerID:  "cust-1",
			PaymentType: "CREDITCARD",
			AccountData: fmt.Sprintf("card-%d", i),
			Token:       token,
		}
		require.NoError(t, database.Database().Create(record).Error)
		// 显式错开updated_at
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, database.Database().Model(record).
			UpdateColumns(map[string]interface{}{"updated_at": ts, "created_at": ts}).Error)
	}

	latest, err := Latest("cust-1", map[string]interface{}{"payment_type": "CREDITCARD"})
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, "tok-new", latest.Token)

	list, err := List("cust-1", nil)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "tok-new", list[0].Token)
	require.Equal(t, "tok-old", list[2].Token)
}

func TestOperationsWithoutCustomerAreNoOps(t *testing.T) {
	setupDB(t)

	id, err := Upsert("", UpsertInput{PaymentType: "CREDITCARD", Token: "tok"})
	require.NoError(t, err)
	require.Zero(t, id)

	found, err := Find("", Filter{Token: "tok"})
	require.NoError(t, err)
	require.Nil(t, found)

	latest, err := Latest("", nil)
	require.NoError(t, err)
	require.Nil(t, latest)

	list, err := List("", nil)
	require.NoError(t, err)
	require.Nil(t, list)

	require.NoError(t, Delete("", Filter{Token: "tok"}))
}

func TestDeleteRemovesMatchAndIgnoresMiss(t *testing.T) {
	setupDB(t)

	_, err := Upsert("cust-1", UpsertInput{PaymentType: "CREDITCARD", Token: "tok-del"})
	require.NoError(t, err)

	require.NoError(t, Delete("cust-1", Filter{Token: "tok-del"}))
	found, err := Find("cust-1", Filter{Token: "tok-del"})
	require.NoError(t, err)
	require.Nil(t, found)

	// 未命中时no-op
	require.NoError(t, Delete("cust-1", Filter{Token: "missing"}))
}
