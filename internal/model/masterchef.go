package model

import (
	"math/big"

	"github.com/shopspring/decimal"

	"moneyScope/internal/weighted"
)

// MasterChef is the global aggregate of the chef contract; SLP tracks LP
// tokens deposited across all pools.
type MasterChef struct {
	ID              string            `json:"id"`
	Owner           string            `json:"owner"`
	Devaddr         string            `json:"devaddr"`
	Money           string            `json:"money"`
	TotalAllocPoint *big.Int          `json:"totalAllocPoint"`
	PoolCount       uint64            `json:"poolCount"`
	SLP             weighted.Position `json:"slp"`
}

func (m *MasterChef) EntityKind() string { return KindMasterChef }
func (m *MasterChef) EntityID() string   { return m.ID }

func NewMasterChef(id string, ts uint64) *MasterChef {
	return &MasterChef{
		ID:              id,
		TotalAllocPoint: new(big.Int),
		SLP:             weighted.NewPosition(ts),
	}
}

// MasterChefPool is one chef pool keyed by pid.
type MasterChefPool struct {
	ID                string            `json:"id"`
	Owner             string            `json:"owner"`
	Pair              string            `json:"pair"`
	AllocPoint        *big.Int          `json:"allocPoint"`
	LastRewardBlock   *big.Int          `json:"lastRewardBlock"`
	AccMoneyPerShare  *big.Int          `json:"accMoneyPerShare"`
	Balance           *big.Int          `json:"balance"`
	UserCount         uint64            `json:"userCount"`
	SLP               weighted.Position `json:"slp"`
	EntryUSD          decimal.Decimal   `json:"entryUSD"`
	ExitUSD           decimal.Decimal   `json:"exitUSD"`
	MoneyHarvested    decimal.Decimal   `json:"moneyHarvested"`
	MoneyHarvestedUSD decimal.Decimal   `json:"moneyHarvestedUSD"`
	Timestamp         uint64            `json:"timestamp"`
	Block             uint64            `json:"block"`
}

func (p *MasterChefPool) EntityKind() string { return KindMasterChefPool }
func (p *MasterChefPool) EntityID() string   { return p.ID }

func NewMasterChefPool(id, owner string, block Block) *MasterChefPool {
	return &MasterChefPool{
		ID:                id,
		Owner:             owner,
		AllocPoint:        new(big.Int),
		LastRewardBlock:   new(big.Int),
		AccMoneyPerShare:  new(big.Int),
		Balance:           new(big.Int),
		SLP:               weighted.NewPosition(block.Timestamp),
		EntryUSD:          decimal.Zero,
		ExitUSD:           decimal.Zero,
		MoneyHarvested:    decimal.Zero,
		MoneyHarvestedUSD: decimal.Zero,
		Timestamp:         block.Timestamp,
		Block:             block.Number,
	}
}

// MasterChefUser is a (pid, address) position. Pool is set while the user
// holds a nonzero amount.
type MasterChefUser struct {
	ID                string          `json:"id"`
	Address           string          `json:"address"`
	Pool              *string         `json:"pool"`
	Amount            *big.Int        `json:"amount"`
	RewardDebt        *big.Int        `json:"rewardDebt"`
	MoneyHarvested    decimal.Decimal `json:"moneyHarvested"`
	MoneyHarvestedUSD decimal.Decimal `json:"moneyHarvestedUSD"`
	EntryUSD          decimal.Decimal `json:"entryUSD"`
	ExitUSD           decimal.Decimal `json:"exitUSD"`
	Timestamp         uint64          `json:"timestamp"`
	Block             uint64          `json:"block"`
}

func (u *MasterChefUser) EntityKind() string { return KindMasterChefUser }
func (u *MasterChefUser) EntityID() string   { return u.ID }

func NewMasterChefUser(id, address string, block Block) *MasterChefUser {
	return &MasterChefUser{
		ID:                id,
		Address:           address,
		Amount:            new(big.Int),
		RewardDebt:        new(big.Int),
		MoneyHarvested:    decimal.Zero,
		MoneyHarvestedUSD: decimal.Zero,
		EntryUSD:          decimal.Zero,
		ExitUSD:           decimal.Zero,
		Timestamp:         block.Timestamp,
		Block:             block.Number,
	}
}

// MasterChefHistory is the chef's day bucket. SLP balance and age mirror the
// chef; deposited, withdrawn and ageRemoved are day sums.
type MasterChefHistory struct {
	ID        string            `json:"id"`
	Owner     string            `json:"owner"`
	SLP       weighted.Position `json:"slp"`
	Timestamp uint64            `json:"timestamp"`
	Block     uint64            `json:"block"`
}

func (h *MasterChefHistory) EntityKind() string { return KindMasterChefHistory }
func (h *MasterChefHistory) EntityID() string   { return h.ID }

func NewMasterChefHistory(owner string, block Block) *MasterChefHistory {
	return &MasterChefHistory{
		ID:        DayBucketID(owner, block.Timestamp),
		Owner:     owner,
		SLP:       weighted.NewPosition(block.Timestamp),
		Timestamp: block.Timestamp,
		Block:     block.Number,
	}
}

// MasterChefPoolHistory is a pool's day bucket.
type MasterChefPoolHistory struct {
	ID                string            `json:"id"`
	Pool              string            `json:"pool"`
	SLP               weighted.Position `json:"slp"`
	UserCount         uint64            `json:"userCount"`
	EntryUSD          decimal.Decimal   `json:"entryUSD"`
	ExitUSD           decimal.Decimal   `json:"exitUSD"`
	MoneyHarvested    decimal.Decimal   `json:"moneyHarvested"`
	MoneyHarvestedUSD decimal.Decimal   `json:"moneyHarvestedUSD"`
	Timestamp         uint64            `json:"timestamp"`
	Block             uint64            `json:"block"`
}

func (h *MasterChefPoolHistory) EntityKind() string { return KindMasterChefPoolHistory }
func (h *MasterChefPoolHistory) EntityID() string   { return h.ID }

func NewMasterChefPoolHistory(pool string, block Block) *MasterChefPoolHistory {
	return &MasterChefPoolHistory{
		ID:                DayBucketID(pool, block.Timestamp),
		Pool:              pool,
		SLP:               weighted.NewPosition(block.Timestamp),
		EntryUSD:          decimal.Zero,
		ExitUSD:           decimal.Zero,
		MoneyHarvested:    decimal.Zero,
		MoneyHarvestedUSD: decimal.Zero,
		Timestamp:         block.Timestamp,
		Block:             block.Number,
	}
}
