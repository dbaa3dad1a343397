package Models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FuelDesk/Ledger"
)

func TestRecordCashEntry(t *testing.T) {
	db := setupTestDB(t)

	t.Run("credit then debit", func(t *testing.T) {
		entry, err := RecordCashEntry(db, decimal.Zero, d("500"), "opening cash", time.Time{})
		require.NoError(t, err)
		assert.True(t, entry.Balance.Equal(d("500")))

		entry, err = RecordCashEntry(db, d("200"), decimal.Zero, "fuel purchase", time.Time{})
		require.NoError(t, err)
		assert.True(t, entry.Balance.Equal(d("300")))
	})

	t.Run("debit beyond balance rejected", func(t *testing.T) {
		_, err := RecordCashEntry(db, d("10000"), decimal.Zero, "too much", time.Time{})
		require.Error(t, err)
		var insufficientErr *Ledger.InsufficientFundsError
		require.ErrorAs(t, err, &insufficientErr)
		assert.True(t, insufficientErr.Available.Equal(d("300")))
		assert.True(t, insufficientErr.Required.Equal(d("10000")))

		// Nothing was written.
		var count int64
		db.Model(&CashEntry{}).Count(&count)
		assert.EqualValues(t, 2, count)
	})

	t.Run("negative amounts rejected", func(t *testing.T) {
		_, err := RecordCashEntry(db, d("-5"), decimal.Zero, "bad", time.Time{})
		assert.Error(t, err)
	})
}

func TestReverseCashEntry(t *testing.T) {
	db := setupTestDB(t)

	first, err := RecordCashEntry(db, decimal.Zero, d("500"), "opening cash", time.Time{})
	require.NoError(t, err)
	_, err = RecordCashEntry(db, d("200"), decimal.Zero, "fuel purchase", time.Time{})
	require.NoError(t, err)

	// Reversing the credit that a later debit spent drives the replayed
	// balance negative. Allowed as a modeled overdraft; only new debits are
	// gated on available funds.
	require.NoError(t, ReverseCashEntry(db, first.ID))

	var entries []CashEntry
	require.NoError(t, db.Order("date ASC, id ASC").Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Balance.Equal(d("-200")))

	balance, err := CashBalance(db)
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("-200")))
}

func TestRecomputeCash(t *testing.T) {
	db := setupTestDB(t)

	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := RecordCashEntry(db, decimal.Zero, d("1000"), "opening cash", day)
	require.NoError(t, err)
	_, err = RecordCashEntry(db, d("300"), decimal.Zero, "purchase", day.Add(time.Hour))
	require.NoError(t, err)
	_, err = RecordCashEntry(db, decimal.Zero, d("50"), "recovery", day.Add(2*time.Hour))
	require.NoError(t, err)

	// Corrupt a stored balance, then replay.
	require.NoError(t, db.Model(&CashEntry{}).Where("purpose = ?", "purchase").
		UpdateColumn("balance", d("9999")).Error)
	require.NoError(t, RecomputeCash(db))

	var entries []CashEntry
	require.NoError(t, db.Order("date ASC, id ASC").Find(&entries).Error)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Balance.Equal(d("1000")))
	assert.True(t, entries[1].Balance.Equal(d("700")))
	assert.True(t, entries[2].Balance.Equal(d("750")))

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, RecomputeCash(db))
		var again []CashEntry
		require.NoError(t, db.Order("date ASC, id ASC").Find(&again).Error)
		for i := range entries {
			assert.True(t, again[i].Balance.Equal(entries[i].Balance))
		}
	})

	t.Run("backdated entry reorders the replay", func(t *testing.T) {
		// Inserted last but dated first: replay order is (date, id).
		_, err := RecordCashEntry(db, decimal.Zero, d("100"), "backdated deposit", day.Add(-time.Hour))
		require.NoError(t, err)
		require.NoError(t, RecomputeCash(db))

		var ordered []CashEntry
		require.NoError(t, db.Order("date ASC, id ASC").Find(&ordered).Error)
		require.Len(t, ordered, 4)
		assert.Equal(t, "backdated deposit", ordered[0].Purpose)
		assert.True(t, ordered[0].Balance.Equal(d("100")))
		assert.True(t, ordered[3].Balance.Equal(d("850")))
	})
}

func TestCashBalanceIgnoresDenormalizedColumn(t *testing.T) {
	db := setupTestDB(t)

	_, err := RecordCashEntry(db, decimal.Zero, d("400"), "opening cash", time.Time{})
	require.NoError(t, err)
	require.NoError(t, db.Model(&CashEntry{}).Where("1 = 1").
		UpdateColumn("balance", d("123456")).Error)

	balance, err := CashBalance(db)
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("400")))
}
