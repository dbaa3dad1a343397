package Ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestReplay(t *testing.T) {
	t.Run("running balance formula", func(t *testing.T) {
		entries := []Entry{
			{Credit: d("500")},
			{Debit: d("200")},
			{Credit: d("100"), Debit: d("50")},
		}
		balances := Replay(decimal.Zero, entries)
		require.Len(t, balances, 3)
		assert.True(t, balances[0].Equal(d("500")))
		assert.True(t, balances[1].Equal(d("300")))
		assert.True(t, balances[2].Equal(d("350")))
	})

	t.Run("seed carries into first balance", func(t *testing.T) {
		balances := Replay(d("10000"), []Entry{{Debit: d("3000")}, {Debit: d("4000")}})
		require.Len(t, balances, 2)
		assert.True(t, balances[0].Equal(d("7000")))
		assert.True(t, balances[1].Equal(d("3000")))
	})

	t.Run("negative balances are not clamped", func(t *testing.T) {
		balances := Replay(decimal.Zero, []Entry{{Debit: d("200")}})
		require.Len(t, balances, 1)
		assert.True(t, balances[0].Equal(d("-200")))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Replay(d("50"), nil))
	})
}

func TestSum(t *testing.T) {
	entries := []Entry{
		{Credit: d("500")},
		{Debit: d("200")},
		{Credit: d("25.50")},
	}
	assert.True(t, Sum(entries).Equal(d("325.50")))
	assert.True(t, Sum(nil).Equal(decimal.Zero))
}
