package Models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"FuelDesk/Ledger"
)

// PoolEntry is one row of a depot's credit-pool ledger. Exactly one row per
// depot has all three reference ids NULL: the sentinel seeding DepoLimit with
// the depot's credit ceiling. Debits draw the limit down (credit/advance
// purchases), credits restore it (payments, recoveries, ceiling adjustments).
type PoolEntry struct {
	gorm.Model
	DepoID     uint            `json:"depo_id" gorm:"index;not null"`
	TripID     *uint           `json:"trip_id" gorm:"index"`
	PaymentID  *uint           `json:"payment_id" gorm:"index"`
	RecoveryID *uint           `json:"recovery_id" gorm:"index"`
	Debit      decimal.Decimal `json:"debit" gorm:"type:decimal(20,2);not null"`
	Credit     decimal.Decimal `json:"credit" gorm:"type:decimal(20,2);not null"`
	DepoLimit  decimal.Decimal `json:"depo_limit" gorm:"type:decimal(20,2);not null"`
}

func (PoolEntry) TableName() string {
	return "pool"
}

// IsSentinel reports whether this is the depot's initial balance row.
func (e *PoolEntry) IsSentinel() bool {
	return e.TripID == nil && e.PaymentID == nil && e.RecoveryID == nil
}

// SeedPool inserts the sentinel row for a new depot. A second sentinel for
// the same depot is a defect and is refused.
func SeedPool(tx *gorm.DB, depoID uint, ceiling decimal.Decimal) (*PoolEntry, error) {
	var count int64
	err := tx.Model(&PoolEntry{}).
		Where("depo_id = ? AND trip_id IS NULL AND payment_id IS NULL AND recovery_id IS NULL", depoID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("depot %d already has an initial balance row", depoID)
	}

	sentinel := PoolEntry{
		DepoID:    depoID,
		Credit:    ceiling,
		DepoLimit: ceiling,
	}
	if err := tx.Create(&sentinel).Error; err != nil {
		return nil, err
	}
	return &sentinel, nil
}

// DrawPool draws credit from a depot's pool for a trip. The draw is refused
// with CreditLimitExceededError when it exceeds the latest active depoLimit.
func DrawPool(tx *gorm.DB, depoID, tripID uint, amount decimal.Decimal) (*PoolEntry, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("pool draw amount must be positive")
	}

	available, err := latestPoolLimit(tx, depoID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(available) {
		return nil, &Ledger.CreditLimitExceededError{DepoID: depoID, Available: available, Required: amount}
	}

	entry := PoolEntry{
		DepoID:    depoID,
		TripID:    &tripID,
		Debit:     amount,
		DepoLimit: available.Sub(amount),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	if err := mirrorDepoBalance(tx, depoID, entry.DepoLimit); err != nil {
		return nil, err
	}
	return &entry, nil
}

// RestorePool credits a depot's pool, tagged with the originating payment or
// recovery for the audit trail. tripID may link the restore to the trip that
// drew the credit.
func RestorePool(tx *gorm.DB, depoID uint, amount decimal.Decimal, tripID, paymentID, recoveryID *uint) (*PoolEntry, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("pool restore amount must be positive")
	}
	if paymentID == nil && recoveryID == nil {
		return nil, fmt.Errorf("pool restore needs a payment or recovery reference")
	}

	current, err := latestPoolLimit(tx, depoID)
	if err != nil {
		return nil, err
	}

	entry := PoolEntry{
		DepoID:     depoID,
		TripID:     tripID,
		PaymentID:  paymentID,
		RecoveryID: recoveryID,
		Credit:     amount,
		DepoLimit:  current.Add(amount),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	if err := mirrorDepoBalance(tx, depoID, entry.DepoLimit); err != nil {
		return nil, err
	}
	return &entry, nil
}

// RecalculatePool replays depoLimit[i] = depoLimit[i-1] - debit[i] + credit[i]
// for the depot's active rows at or after fromRowID (all non-sentinel rows
// when fromRowID is zero). The seed is the active row immediately preceding
// fromRowID, or the sentinel. Earlier rows are untouched. The depot's
// mirrored Balance is set to the final limit.
func RecalculatePool(tx *gorm.DB, depoID uint, fromRowID uint) error {
	var sentinel PoolEntry
	err := tx.Where("depo_id = ? AND trip_id IS NULL AND payment_id IS NULL AND recovery_id IS NULL", depoID).
		First(&sentinel).Error
	if err != nil {
		return fmt.Errorf("depot %d has no initial balance row: %w", depoID, err)
	}

	seed := sentinel.DepoLimit
	if fromRowID > 0 {
		var prev PoolEntry
		err := tx.Where("depo_id = ? AND id < ? AND id != ?", depoID, fromRowID, sentinel.ID).
			Order("id DESC").First(&prev).Error
		if err == nil {
			seed = prev.DepoLimit
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
	}

	var entries []PoolEntry
	query := tx.Where("depo_id = ? AND id != ?", depoID, sentinel.ID).Order("id ASC")
	if fromRowID > 0 {
		query = query.Where("id >= ?", fromRowID)
	}
	if err := query.Find(&entries).Error; err != nil {
		return err
	}

	replay := make([]Ledger.Entry, len(entries))
	for i, e := range entries {
		replay[i] = Ledger.Entry{Debit: e.Debit, Credit: e.Credit}
	}
	limits := Ledger.Replay(seed, replay)

	final := seed
	for i := range entries {
		final = limits[i]
		if entries[i].DepoLimit.Equal(limits[i]) {
			continue
		}
		err := tx.Model(&PoolEntry{}).Where("id = ?", entries[i].ID).
			UpdateColumn("depo_limit", limits[i]).Error
		if err != nil {
			return err
		}
	}
	return mirrorDepoBalance(tx, depoID, final)
}

// PoolAvailable is the depot's available credit, clamped at zero for
// reporting even when the raw limit has gone negative.
func PoolAvailable(tx *gorm.DB, depoID uint) (decimal.Decimal, error) {
	limit, err := latestPoolLimit(tx, depoID)
	if err != nil {
		return decimal.Zero, err
	}
	if limit.IsNegative() {
		return decimal.Zero, nil
	}
	return limit, nil
}

// PoolUsed is ceiling - available.
func PoolUsed(tx *gorm.DB, depoID uint) (decimal.Decimal, error) {
	ceiling, err := PoolCeiling(tx, depoID)
	if err != nil {
		return decimal.Zero, err
	}
	available, err := PoolAvailable(tx, depoID)
	if err != nil {
		return decimal.Zero, err
	}
	return ceiling.Sub(available), nil
}

// PoolCeiling reads the configured credit ceiling off the sentinel row.
func PoolCeiling(tx *gorm.DB, depoID uint) (decimal.Decimal, error) {
	var sentinel PoolEntry
	err := tx.Where("depo_id = ? AND trip_id IS NULL AND payment_id IS NULL AND recovery_id IS NULL", depoID).
		First(&sentinel).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sentinel.Credit, nil
}

// latestPoolLimit returns the latest active depoLimit, falling back to the
// depot's stored Balance when the depot has no pool rows yet.
func latestPoolLimit(tx *gorm.DB, depoID uint) (decimal.Decimal, error) {
	var last PoolEntry
	err := tx.Where("depo_id = ?", depoID).Order("id DESC").First(&last).Error
	if err == gorm.ErrRecordNotFound {
		var depo Depo
		if err := tx.First(&depo, depoID).Error; err != nil {
			return decimal.Zero, err
		}
		return depo.Balance, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return last.DepoLimit, nil
}

func mirrorDepoBalance(tx *gorm.DB, depoID uint, limit decimal.Decimal) error {
	return tx.Model(&Depo{}).Where("id = ?", depoID).
		UpdateColumn("balance", limit).Error
}
