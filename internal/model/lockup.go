package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// LockupID is the id of the single lockup snapshot.
const LockupID = "0"

// Lockup freezes chef pool weights at the lockup call.
type Lockup struct {
	ID              string   `json:"id"`
	Block           uint64   `json:"block"`
	PoolLength      *big.Int `json:"poolLength"`
	TotalAllocPoint *big.Int `json:"totalAllocPoint"`
}

func (l *Lockup) EntityKind() string { return KindLockup }
func (l *Lockup) EntityID() string   { return l.ID }

type LockupPool struct {
	ID            string   `json:"id"`
	Lockup        *string  `json:"lockup"`
	AllocPoint    *big.Int `json:"allocPoint"`
	MoneyPerShare *big.Int `json:"moneyPerShare"`
}

func (p *LockupPool) EntityKind() string { return KindLockupPool }
func (p *LockupPool) EntityID() string   { return p.ID }

func NewLockupPool(id string) *LockupPool {
	return &LockupPool{
		ID:            id,
		AllocPoint:    new(big.Int),
		MoneyPerShare: new(big.Int),
	}
}

type LockupUser struct {
	ID                           string          `json:"id"`
	Lockup                       string          `json:"lockup"`
	Pool                         string          `json:"pool"`
	Address                      string          `json:"address"`
	Amount                       *big.Int        `json:"amount"`
	RewardDebt                   *big.Int        `json:"rewardDebt"`
	MoneyHarvestedSinceLockup    decimal.Decimal `json:"moneyHarvestedSinceLockup"`
	MoneyHarvestedSinceLockupUSD decimal.Decimal `json:"moneyHarvestedSinceLockupUSD"`
}

func (u *LockupUser) EntityKind() string { return KindLockupUser }
func (u *LockupUser) EntityID() string   { return u.ID }

func NewLockupUser(id, pool, address string) *LockupUser {
	return &LockupUser{
		ID:                           id,
		Lockup:                       LockupID,
		Pool:                         pool,
		Address:                      address,
		Amount:                       new(big.Int),
		RewardDebt:                   new(big.Int),
		MoneyHarvestedSinceLockup:    decimal.Zero,
		MoneyHarvestedSinceLockupUSD: decimal.Zero,
	}
}
