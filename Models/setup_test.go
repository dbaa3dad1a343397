package Models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&User{}, &Depo{}, &Customer{}, &Vehicle{}, &BankAccount{},
		&CashEntry{}, &PoolEntry{}, &Transaction{},
		&Trip{}, &TripProduct{}, &TripDepo{}, &Sale{},
		&Payment{}, &Recovery{}, &ApiLog{},
	)
	require.NoError(t, err)
	return db
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}
