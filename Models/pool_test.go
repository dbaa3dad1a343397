package Models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"FuelDesk/Ledger"
)

func seedDepo(t *testing.T, db *gorm.DB, name, ceiling string) *Depo {
	t.Helper()
	depo := Depo{Name: name, Balance: d(ceiling)}
	require.NoError(t, db.Create(&depo).Error)
	_, err := SeedPool(db, depo.ID, d(ceiling))
	require.NoError(t, err)
	return &depo
}

func TestSeedPool(t *testing.T) {
	db := setupTestDB(t)
	depo := seedDepo(t, db, "Alpha Depot", "10000")

	ceiling, err := PoolCeiling(db, depo.ID)
	require.NoError(t, err)
	assert.True(t, ceiling.Equal(d("10000")))

	t.Run("second sentinel refused", func(t *testing.T) {
		_, err := SeedPool(db, depo.ID, d("5000"))
		assert.Error(t, err)
	})
}

func TestDrawPool(t *testing.T) {
	db := setupTestDB(t)
	depo := seedDepo(t, db, "Alpha Depot", "10000")
	tripID := uint(1)

	t.Run("draw decreases available by exactly the amount", func(t *testing.T) {
		entry, err := DrawPool(db, depo.ID, tripID, d("3000"))
		require.NoError(t, err)
		assert.True(t, entry.DepoLimit.Equal(d("7000")))

		available, err := PoolAvailable(db, depo.ID)
		require.NoError(t, err)
		assert.True(t, available.Equal(d("7000")))

		used, err := PoolUsed(db, depo.ID)
		require.NoError(t, err)
		assert.True(t, used.Equal(d("3000")))
	})

	t.Run("depot balance mirrors the latest limit", func(t *testing.T) {
		var reloaded Depo
		require.NoError(t, db.First(&reloaded, depo.ID).Error)
		assert.True(t, reloaded.Balance.Equal(d("7000")))
	})

	t.Run("draw beyond available rejected", func(t *testing.T) {
		_, err := DrawPool(db, depo.ID, tripID, d("8000"))
		require.Error(t, err)
		var limitErr *Ledger.CreditLimitExceededError
		require.ErrorAs(t, err, &limitErr)
		assert.True(t, limitErr.Available.Equal(d("7000")))

		available, err := PoolAvailable(db, depo.ID)
		require.NoError(t, err)
		assert.True(t, available.Equal(d("7000")))
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		_, err := DrawPool(db, depo.ID, tripID, d("0"))
		assert.Error(t, err)
	})
}

func TestRestorePool(t *testing.T) {
	db := setupTestDB(t)
	depo := seedDepo(t, db, "Alpha Depot", "10000")
	tripID := uint(1)
	paymentID := uint(7)

	_, err := DrawPool(db, depo.ID, tripID, d("4000"))
	require.NoError(t, err)

	t.Run("requires a payment or recovery reference", func(t *testing.T) {
		_, err := RestorePool(db, depo.ID, d("1000"), &tripID, nil, nil)
		assert.Error(t, err)
	})

	t.Run("restore increases the limit", func(t *testing.T) {
		entry, err := RestorePool(db, depo.ID, d("1500"), &tripID, &paymentID, nil)
		require.NoError(t, err)
		assert.True(t, entry.DepoLimit.Equal(d("7500")))

		available, err := PoolAvailable(db, depo.ID)
		require.NoError(t, err)
		assert.True(t, available.Equal(d("7500")))
	})
}

func TestRecalculatePool(t *testing.T) {
	db := setupTestDB(t)
	depo := seedDepo(t, db, "Alpha Depot", "10000")

	// Trip A draws 3000, trip B draws 4000.
	tripA, tripB := uint(1), uint(2)
	drawA, err := DrawPool(db, depo.ID, tripA, d("3000"))
	require.NoError(t, err)
	_, err = DrawPool(db, depo.ID, tripB, d("4000"))
	require.NoError(t, err)

	available, err := PoolAvailable(db, depo.ID)
	require.NoError(t, err)
	require.True(t, available.Equal(d("3000")))

	t.Run("deleting an earlier draw replays the later ones", func(t *testing.T) {
		require.NoError(t, db.Delete(&PoolEntry{}, drawA.ID).Error)
		require.NoError(t, RecalculatePool(db, depo.ID, drawA.ID))

		// 3000 restored on top of the remaining 3000, not 7000.
		available, err := PoolAvailable(db, depo.ID)
		require.NoError(t, err)
		assert.True(t, available.Equal(d("6000")))

		var reloaded Depo
		require.NoError(t, db.First(&reloaded, depo.ID).Error)
		assert.True(t, reloaded.Balance.Equal(d("6000")))
	})

	t.Run("idempotent", func(t *testing.T) {
		var before []PoolEntry
		require.NoError(t, db.Where("depo_id = ?", depo.ID).Order("id ASC").Find(&before).Error)

		require.NoError(t, RecalculatePool(db, depo.ID, 0))

		var after []PoolEntry
		require.NoError(t, db.Where("depo_id = ?", depo.ID).Order("id ASC").Find(&after).Error)
		require.Len(t, after, len(before))
		for i := range before {
			assert.True(t, after[i].DepoLimit.Equal(before[i].DepoLimit))
		}
	})

	t.Run("ceiling change on the sentinel cascades", func(t *testing.T) {
		var sentinel PoolEntry
		require.NoError(t, db.Where("depo_id = ? AND trip_id IS NULL AND payment_id IS NULL AND recovery_id IS NULL", depo.ID).
			First(&sentinel).Error)
		require.NoError(t, db.Model(&sentinel).UpdateColumns(map[string]interface{}{
			"credit":     d("12000"),
			"depo_limit": d("12000"),
		}).Error)
		require.NoError(t, RecalculatePool(db, depo.ID, 0))

		available, err := PoolAvailable(db, depo.ID)
		require.NoError(t, err)
		assert.True(t, available.Equal(d("8000")))
	})
}

func TestPoolAvailableClampsNegative(t *testing.T) {
	db := setupTestDB(t)
	depo := seedDepo(t, db, "Alpha Depot", "1000")
	tripID := uint(1)

	_, err := DrawPool(db, depo.ID, tripID, d("1000"))
	require.NoError(t, err)

	// Force the raw limit negative the way a reversal cascade can, then check
	// the reporting clamp.
	require.NoError(t, db.Model(&PoolEntry{}).
		Where("depo_id = ? AND trip_id IS NOT NULL", depo.ID).
		UpdateColumn("depo_limit", d("-250")).Error)

	available, err := PoolAvailable(db, depo.ID)
	require.NoError(t, err)
	assert.True(t, available.IsZero())

	used, err := PoolUsed(db, depo.ID)
	require.NoError(t, err)
	assert.True(t, used.Equal(d("1000")))
}

func TestLatestPoolLimitFallsBackToDepoBalance(t *testing.T) {
	db := setupTestDB(t)
	depo := Depo{Name: "No Pool Yet", Balance: d("2500")}
	require.NoError(t, db.Create(&depo).Error)

	available, err := PoolAvailable(db, depo.ID)
	require.NoError(t, err)
	assert.True(t, available.Equal(d("2500")))
}
