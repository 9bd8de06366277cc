// Package weighted implements the time-weighted balance accumulator shared by
// every handler family. A Position integrates its balance over elapsed days
// ("age") and gives back a proportional share of that age on withdrawal.
package weighted

import (
	"errors"

	"github.com/shopspring/decimal"
)

// SecondsPerDay converts block timestamp deltas into day units.
const SecondsPerDay = 86400

var (
	// ErrZeroBalance is returned when an amount is removed from an empty position.
	ErrZeroBalance = errors.New("withdraw from zero balance")
	// ErrInsufficientBalance is returned when an amount exceeds the current balance.
	ErrInsufficientBalance = errors.New("withdraw exceeds balance")
	// ErrClockSkew is returned when an update is older than the last one applied.
	ErrClockSkew = errors.New("timestamp before last update")
)

var secondsPerDay = decimal.NewFromInt(SecondsPerDay)

// divPrecision is the number of decimal places kept by accumulator divisions.
const divPrecision = 36

// Position is the {balance, age, ageRemoved, updatedAt} tuple kept at every
// tracked granularity. Deposited and Withdrawn are running totals, so
// Balance == Deposited - Withdrawn holds after every successful update.
type Position struct {
	Balance    decimal.Decimal `json:"balance"`
	Age        decimal.Decimal `json:"age"`
	AgeRemoved decimal.Decimal `json:"ageRemoved"`
	Deposited  decimal.Decimal `json:"deposited"`
	Withdrawn  decimal.Decimal `json:"withdrawn"`
	UpdatedAt  uint64          `json:"updatedAt"`
}

// NewPosition returns an empty position anchored at ts.
func NewPosition(ts uint64) Position {
	return Position{
		Balance:    decimal.Zero,
		Age:        decimal.Zero,
		AgeRemoved: decimal.Zero,
		Deposited:  decimal.Zero,
		Withdrawn:  decimal.Zero,
		UpdatedAt:  ts,
	}
}

// ElapsedDays returns the real-valued number of days between from and to.
func ElapsedDays(from, to uint64) decimal.Decimal {
	if to <= from {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(to - from)).DivRound(secondsPerDay, divPrecision)
}

// Accrue integrates the current balance up to now. A timestamp older than the
// last update accrues nothing and keeps UpdatedAt unchanged.
func (p *Position) Accrue(now uint64) error {
	if now < p.UpdatedAt {
		return ErrClockSkew
	}
	if !p.Balance.IsZero() {
		p.Age = p.Age.Add(ElapsedDays(p.UpdatedAt, now).Mul(p.Balance))
	}
	p.UpdatedAt = now
	return nil
}

// Deposit accrues age and adds amount to the balance.
func (p *Position) Deposit(now uint64, amount decimal.Decimal) error {
	if err := p.Accrue(now); err != nil {
		return err
	}
	p.Deposited = p.Deposited.Add(amount)
	p.Balance = p.Balance.Add(amount)
	return nil
}

// Withdraw accrues age, removes the withdrawn amount's proportional share of
// age and returns that share. On error only the accrual is applied.
func (p *Position) Withdraw(now uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	removed, err := p.take(now, amount)
	if err != nil {
		return decimal.Zero, err
	}
	p.AgeRemoved = p.AgeRemoved.Add(removed)
	p.Withdrawn = p.Withdrawn.Add(amount)
	return removed, nil
}

// WithdrawAge accrues age and removes amount together with an age computed by
// the caller, for aggregates whose age is attributed by a lower level.
func (p *Position) WithdrawAge(now uint64, amount, age decimal.Decimal) error {
	if err := p.Accrue(now); err != nil {
		return err
	}
	p.Age = p.Age.Sub(age)
	p.AgeRemoved = p.AgeRemoved.Add(age)
	p.Withdrawn = p.Withdrawn.Add(amount)
	p.Balance = p.Balance.Sub(amount)
	return nil
}

// TransferOut moves amount and its share of age out of the position without
// counting it as withdrawn. The moved age is returned for the receiving side.
func (p *Position) TransferOut(now uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	return p.take(now, amount)
}

// TransferIn accrues age and then credits amount along with age moved from
// another position.
func (p *Position) TransferIn(now uint64, amount, age decimal.Decimal) error {
	if err := p.Accrue(now); err != nil {
		return err
	}
	p.Age = p.Age.Add(age)
	p.Balance = p.Balance.Add(amount)
	return nil
}

func (p *Position) take(now uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := p.Accrue(now); err != nil {
		return decimal.Zero, err
	}
	if amount.IsZero() {
		return decimal.Zero, nil
	}
	if p.Balance.Sign() <= 0 {
		return decimal.Zero, ErrZeroBalance
	}
	if amount.GreaterThan(p.Balance) {
		return decimal.Zero, ErrInsufficientBalance
	}

	var removed decimal.Decimal
	if amount.Equal(p.Balance) {
		removed = p.Age
	} else {
		removed = p.Age.Mul(amount).DivRound(p.Balance, divPrecision)
		// division rounding must never push age below zero
		if removed.GreaterThan(p.Age) {
			removed = p.Age
		}
	}
	p.Age = p.Age.Sub(removed)
	p.Balance = p.Balance.Sub(amount)
	return removed, nil
}
