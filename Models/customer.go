package Models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Customer struct {
	gorm.Model
	Name    string `json:"name" gorm:"not null;index"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Payment method tags shared by trip purchases, payments and recoveries.
const (
	MethodCashInHand = "cash_in_hand"
	MethodBank       = "bank"
)

// Payment is money paid out to a depot, restoring its credit pool. When tied
// to a trip it also settles that trip's outstanding credit/advance lines.
type Payment struct {
	gorm.Model
	DepoID    uint            `json:"depo_id" gorm:"index;not null"`
	TripID    *uint           `json:"trip_id" gorm:"index"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Method    string          `json:"method" gorm:"type:varchar(20);not null"`
	AccountID *uint           `json:"account_id"`
	Date      string          `json:"date" gorm:"index"`
	Notes     string          `json:"notes"`
}

// Recovery is a customer payment collected against outstanding sales debt.
// When tied to a depot it is passed on as a pool restore tagged with the
// recovery id.
type Recovery struct {
	gorm.Model
	CustomerID uint            `json:"customer_id" gorm:"index;not null"`
	DepoID     *uint           `json:"depo_id" gorm:"index"`
	TripID     *uint           `json:"trip_id" gorm:"index"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Method     string          `json:"method" gorm:"type:varchar(20);not null"`
	AccountID  *uint           `json:"account_id"`
	Date       string          `json:"date" gorm:"index"`
	Notes      string          `json:"notes"`
}
