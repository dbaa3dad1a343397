package Models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Depo is a fuel supplier extending a credit ceiling against which trips
// purchase fuel. Balance mirrors the latest active pool depoLimit; the
// authoritative ceiling lives on the pool sentinel row.
type Depo struct {
	gorm.Model
	Name    string          `json:"name" gorm:"not null;uniqueIndex"`
	Contact string          `json:"contact"`
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance" gorm:"type:decimal(20,2);not null"`
}

// ActiveTripDepoCount counts the depot's active trip references. A nonzero
// count locks the credit ceiling against edits, since a ceiling change
// rewrites pool history that reports already reflect.
func ActiveTripDepoCount(tx *gorm.DB, depoID uint) (int64, error) {
	var count int64
	err := tx.Model(&TripDepo{}).Where("depo_id = ?", depoID).Count(&count).Error
	return count, err
}
