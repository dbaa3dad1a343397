package Ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InsufficientFundsError is returned when a debit would exceed the
// cash-in-hand or bank account balance. Surfaced verbatim to the caller
// with both amounts.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s, required %s",
		e.Available.StringFixed(2), e.Required.StringFixed(2))
}

// CreditLimitExceededError is returned when a pool draw would exceed the
// depot's available credit.
type CreditLimitExceededError struct {
	DepoID    uint
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *CreditLimitExceededError) Error() string {
	return fmt.Sprintf("credit limit exceeded for depot %d: available %s, required %s",
		e.DepoID, e.Available.StringFixed(2), e.Required.StringFixed(2))
}

// QuantityExceededError is returned when a sale asks for more fuel than the
// trip product still holds.
type QuantityExceededError struct {
	Remaining decimal.Decimal
	Requested decimal.Decimal
}

func (e *QuantityExceededError) Error() string {
	return fmt.Sprintf("quantity exceeded: remaining %s L, requested %s L",
		e.Remaining.StringFixed(2), e.Requested.StringFixed(2))
}
