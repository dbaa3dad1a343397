package Ledger

import (
	"github.com/shopspring/decimal"
)

// PurchaseType classifies how a trip product line is paid for.
type PurchaseType string

const (
	PurchaseCash    PurchaseType = "cash"    // paid in full from an account or cash-in-hand
	PurchaseAdvance PurchaseType = "advance" // partial prepayment, remainder on the depot pool
	PurchaseCredit  PurchaseType = "credit"  // fully on the depot pool
)

// Valid reports whether p is one of the known purchase types.
func (p PurchaseType) Valid() bool {
	switch p {
	case PurchaseCash, PurchaseAdvance, PurchaseCredit:
		return true
	}
	return false
}

// PaidAmount returns the paid amount recorded on the trip_depos row at
// creation time. Cash lines are settled in full, advance lines carry the
// prepayment capped at the payable amount, credit lines start at zero.
func (p PurchaseType) PaidAmount(payable, prepaid decimal.Decimal) decimal.Decimal {
	switch p {
	case PurchaseCash:
		return payable
	case PurchaseAdvance:
		if prepaid.GreaterThan(payable) {
			return payable
		}
		return prepaid
	default:
		return decimal.Zero
	}
}

// DrawsPool reports whether the line's outstanding amount draws down the
// depot's credit pool.
func (p PurchaseType) DrawsPool() bool {
	return p == PurchaseCredit || p == PurchaseAdvance
}

// DebitsAccount reports whether the line debits a payment account
// (bank or cash-in-hand) at trip creation.
func (p PurchaseType) DebitsAccount() bool {
	return p == PurchaseCash || p == PurchaseAdvance
}
