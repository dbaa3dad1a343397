package Models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"FuelDesk/Ledger"
)

// CashEntry is one row of the cash-in-hand ledger. Balance is a denormalized
// running sum maintained by RecomputeCash; rows are only ever soft-deleted so
// the full history stays replayable.
type CashEntry struct {
	gorm.Model
	Debit   decimal.Decimal `json:"debit" gorm:"type:decimal(20,2);not null"`
	Credit  decimal.Decimal `json:"credit" gorm:"type:decimal(20,2);not null"`
	Balance decimal.Decimal `json:"balance" gorm:"type:decimal(20,2);not null"`
	Purpose string          `json:"purpose"`
	Date    time.Time       `json:"date" gorm:"index"` // occurred-at, may be backdated
}

func (CashEntry) TableName() string {
	return "cash_in_hand"
}

// RecordCashEntry appends a ledger entry. The new balance extends the most
// recently inserted active entry (creation order, not occurred-at: backdated
// entries still append at the tail). Debits beyond the available balance are
// rejected with InsufficientFundsError.
func RecordCashEntry(tx *gorm.DB, debit, credit decimal.Decimal, purpose string, date time.Time) (*CashEntry, error) {
	if debit.IsNegative() || credit.IsNegative() {
		return nil, fmt.Errorf("cash entry amounts must not be negative")
	}

	last, err := lastCashBalance(tx)
	if err != nil {
		return nil, err
	}
	if debit.IsPositive() && last.LessThan(debit) {
		return nil, &Ledger.InsufficientFundsError{Available: last, Required: debit}
	}

	if date.IsZero() {
		date = time.Now()
	}
	entry := CashEntry{
		Debit:   debit,
		Credit:  credit,
		Balance: last.Add(credit).Sub(debit),
		Purpose: purpose,
		Date:    date,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ReverseCashEntry soft-deletes an entry and replays the whole ledger so the
// denormalized balances stay consistent.
func ReverseCashEntry(tx *gorm.DB, id uint) error {
	var entry CashEntry
	if err := tx.First(&entry, id).Error; err != nil {
		return err
	}
	if err := tx.Delete(&entry).Error; err != nil {
		return err
	}
	return RecomputeCash(tx)
}

// RecomputeCash replays every active entry ordered by (date, id) and rewrites
// each row's balance column. O(n) full replay; entry volume is bounded by
// business activity, not request rate.
func RecomputeCash(tx *gorm.DB) error {
	var entries []CashEntry
	if err := tx.Order("date ASC, id ASC").Find(&entries).Error; err != nil {
		return err
	}

	replay := make([]Ledger.Entry, len(entries))
	for i, e := range entries {
		replay[i] = Ledger.Entry{Debit: e.Debit, Credit: e.Credit}
	}
	balances := Ledger.Replay(decimal.Zero, replay)

	for i := range entries {
		if entries[i].Balance.Equal(balances[i]) {
			continue
		}
		err := tx.Model(&CashEntry{}).Where("id = ?", entries[i].ID).
			UpdateColumn("balance", balances[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// CashBalance is the authoritative balance: SUM(credit) - SUM(debit) over
// active rows, never trusting the last row's denormalized column.
func CashBalance(tx *gorm.DB) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&CashEntry{}).
		Select("COALESCE(SUM(credit), 0) - COALESCE(SUM(debit), 0)").
		Scan(&total).Error
	return total, err
}

// lastCashBalance returns the balance of the most recently inserted active
// entry, zero for an empty ledger.
func lastCashBalance(tx *gorm.DB) (decimal.Decimal, error) {
	var last CashEntry
	err := tx.Order("id DESC").First(&last).Error
	if err == gorm.ErrRecordNotFound {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return last.Balance, nil
}
