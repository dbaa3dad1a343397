package Ledger

import (
	"github.com/shopspring/decimal"
)

// Entry is one ledger row as seen by the replay routine. Both the
// cash-in-hand ledger and the depot pool ledger share the same running-sum
// formula, they only differ in the seed value (zero for cash, the depot's
// credit ceiling for the pool).
type Entry struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Replay recomputes the running balances for an ordered sequence of entries:
//
//	balance[i] = balance[i-1] + credit[i] - debit[i]
//
// with balance[-1] = seed. The result has the same length and order as the
// input. Negative balances are returned as-is, callers decide whether to
// clamp for reporting.
func Replay(seed decimal.Decimal, entries []Entry) []decimal.Decimal {
	balances := make([]decimal.Decimal, len(entries))
	running := seed
	for i, e := range entries {
		running = running.Add(e.Credit).Sub(e.Debit)
		balances[i] = running
	}
	return balances
}

// Sum returns SUM(credit) - SUM(debit) over the entries. Used as the
// authoritative balance check, independent of any denormalized column.
func Sum(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Credit).Sub(e.Debit)
	}
	return total
}
