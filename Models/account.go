package Models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BankAccount is a payment account with a directly maintained balance,
// distinct from the replayed cash-in-hand ledger.
type BankAccount struct {
	gorm.Model
	Name        string          `json:"name" gorm:"not null;uniqueIndex"`
	Bank        string          `json:"bank"`
	AccountNo   string          `json:"account_no"`
	Balance     decimal.Decimal `json:"balance" gorm:"type:decimal(20,2);not null"`
	QRImagePath string          `json:"qr_image_path"`
}

// Transaction is the additive audit trail written by every money-moving
// workflow. The ledger logic never reads it except during the trip deletion
// reversal walk, which uses the references here to undo cash entries and
// bank balances.
type Transaction struct {
	gorm.Model
	AccountID    *uint           `json:"account_id" gorm:"index"`
	CashInHandID *uint           `json:"cash_in_hand_id" gorm:"index"`
	TripID       *uint           `json:"trip_id" gorm:"index"`
	PaymentID    *uint           `json:"payment_id" gorm:"index"`
	RecoveryID   *uint           `json:"recovery_id" gorm:"index"`
	Debit        decimal.Decimal `json:"debit" gorm:"type:decimal(20,2);not null"`
	Credit       decimal.Decimal `json:"credit" gorm:"type:decimal(20,2);not null"`
	Purpose      string          `json:"purpose"`
}
