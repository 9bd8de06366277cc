package weighted

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const t0 = uint64(1_600_000_000)

func day(n uint64) uint64 { return t0 + n*SecondsPerDay }

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestDepositIntegratesPriorBalance(t *testing.T) {
	p := NewPosition(t0)

	require.NoError(t, p.Deposit(day(10), d("100")))
	assert.True(t, p.Balance.Equal(d("100")))
	assert.True(t, p.Age.IsZero(), "no balance to integrate before the first deposit")

	require.NoError(t, p.Deposit(day(20), d("50")))
	assert.True(t, p.Balance.Equal(d("150")))
	assert.True(t, p.Age.Equal(d("1000")), "age = %s", p.Age)
	assert.Equal(t, day(20), p.UpdatedAt)
}

func TestWithdrawRemovesProportionalAge(t *testing.T) {
	p := Position{
		Balance:    d("150"),
		Age:        d("1000"),
		AgeRemoved: decimal.Zero,
		Deposited:  d("150"),
		Withdrawn:  decimal.Zero,
		UpdatedAt:  day(20),
	}

	removed, err := p.Withdraw(day(25), d("50"))
	require.NoError(t, err)

	assert.InDelta(t, 583.3333, removed.InexactFloat64(), 1e-3)
	assert.InDelta(t, 1166.6667, p.Age.InexactFloat64(), 1e-3)
	assert.True(t, p.Balance.Equal(d("100")))
	assert.True(t, p.AgeRemoved.Equal(removed))
	assert.True(t, p.Withdrawn.Equal(d("50")))
}

func TestWithdrawKeepsAgeOfSmallShares(t *testing.T) {
	p := Position{
		Balance:    d("300000000000000000000"),
		Age:        d("1"),
		AgeRemoved: decimal.Zero,
		Deposited:  d("300000000000000000000"),
		Withdrawn:  decimal.Zero,
		UpdatedAt:  day(1),
	}

	removed, err := p.Withdraw(day(1), d("1"))
	require.NoError(t, err)
	require.False(t, removed.IsZero(), "a one unit share of a large balance still carries age")
	assert.True(t, removed.Mul(d("300000000000000000000")).Sub(d("1")).Abs().LessThan(d("1e-15")), "removed = %s", removed)
	assert.True(t, p.Age.Add(removed).Equal(d("1")))
}

func TestWithdrawFullBalanceClearsAge(t *testing.T) {
	p := NewPosition(t0)
	require.NoError(t, p.Deposit(t0, d("3")))

	removed, err := p.Withdraw(day(7), d("3"))
	require.NoError(t, err)
	assert.True(t, removed.Equal(d("21")))
	assert.True(t, p.Age.IsZero())
	assert.True(t, p.Balance.IsZero())
}

func TestWithdrawFromEmptyPositionIsGuarded(t *testing.T) {
	p := NewPosition(t0)

	_, err := p.Withdraw(day(1), d("1"))
	assert.ErrorIs(t, err, ErrZeroBalance)
	assert.True(t, p.Balance.IsZero())
	assert.True(t, p.Age.IsZero())
	assert.Equal(t, day(1), p.UpdatedAt)

	removed, err := p.Withdraw(day(2), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, removed.IsZero())
}

func TestWithdrawAboveBalanceIsGuarded(t *testing.T) {
	p := NewPosition(t0)
	require.NoError(t, p.Deposit(t0, d("5")))

	_, err := p.Withdraw(day(1), d("6"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, p.Balance.Equal(d("5")))
	assert.True(t, p.Age.Equal(d("5")), "accrual still applies")
}

func TestAccrueRejectsOlderTimestamp(t *testing.T) {
	p := NewPosition(day(3))
	assert.ErrorIs(t, p.Accrue(day(2)), ErrClockSkew)
	assert.Equal(t, day(3), p.UpdatedAt)
}

func TestTransferMovesAge(t *testing.T) {
	from := NewPosition(t0)
	to := NewPosition(t0)
	require.NoError(t, from.Deposit(t0, d("10")))
	require.NoError(t, to.Deposit(t0, d("4")))

	moved, err := from.TransferOut(day(2), d("5"))
	require.NoError(t, err)
	assert.True(t, moved.Equal(d("10")), "half of 20 balance-days")
	assert.True(t, from.Age.Equal(d("10")))
	assert.True(t, from.Withdrawn.IsZero(), "transfers are not withdrawals")

	require.NoError(t, to.TransferIn(day(2), d("5"), moved))
	assert.True(t, to.Age.Equal(d("18")), "own accrual 8 plus moved 10")
	assert.True(t, to.Balance.Equal(d("9")))
}

func TestRandomSequenceKeepsInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := NewPosition(t0)
	deposited := decimal.Zero
	withdrawn := decimal.Zero
	now := t0

	for i := 0; i < 500; i++ {
		now += uint64(rng.Intn(3 * SecondsPerDay))
		amount := decimal.NewFromInt(int64(rng.Intn(1000))).Shift(-2)

		if rng.Intn(2) == 0 || p.Balance.IsZero() {
			require.NoError(t, p.Deposit(now, amount))
			deposited = deposited.Add(amount)
		} else {
			if amount.GreaterThan(p.Balance) {
				amount = p.Balance
			}
			_, err := p.Withdraw(now, amount)
			require.NoError(t, err)
			withdrawn = withdrawn.Add(amount)
		}

		require.True(t, p.Balance.Equal(deposited.Sub(withdrawn)), "step %d", i)
		require.False(t, p.Age.IsNegative(), "step %d: age %s", i, p.Age)
	}
}
