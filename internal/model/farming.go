package model

import (
	"math/big"

	"github.com/shopspring/decimal"

	"moneyScope/internal/weighted"
)

// Farming is the farm factory aggregate; HVLP tracks LP tokens staked across
// every farm it created.
type Farming struct {
	ID                               string            `json:"id"`
	Owner                            string            `json:"owner"`
	Money                            string            `json:"money"`
	FeeAddress                       string            `json:"feeAddress"`
	Reserve                          string            `json:"reserve"`
	TotalAllocPoint                  *big.Int          `json:"totalAllocPoint"`
	ReserveDistributionSchedule      *big.Int          `json:"reserveDistributionSchedule"`
	LastReserveDistributionTimestamp *big.Int          `json:"lastReserveDistributionTimestamp"`
	DepositPeriod                    *big.Int          `json:"depositPeriod"`
	GlobalRoundID                    *big.Int          `json:"globalRoundId"`
	Rewards                          []*big.Int        `json:"rewards"`
	AvailableRewards                 *big.Int          `json:"availableRewards"`
	PoolCount                        uint64            `json:"poolCount"`
	HVLP                             weighted.Position `json:"hvlp"`
}

func (f *Farming) EntityKind() string { return KindFarming }
func (f *Farming) EntityID() string   { return f.ID }

func NewFarming(id string, ts uint64) *Farming {
	return &Farming{
		ID:                               id,
		TotalAllocPoint:                  new(big.Int),
		ReserveDistributionSchedule:      new(big.Int),
		LastReserveDistributionTimestamp: new(big.Int),
		DepositPeriod:                    new(big.Int),
		GlobalRoundID:                    new(big.Int),
		Rewards:                          []*big.Int{},
		AvailableRewards:                 new(big.Int),
		HVLP:                             weighted.NewPosition(ts),
	}
}

// FarmPool is one farm contract created by the factory, keyed by address.
type FarmPool struct {
	ID                string            `json:"id"`
	Owner             string            `json:"owner"`
	Pair              string            `json:"pair"`
	PoolStartTime     *big.Int          `json:"poolStartTime"`
	GlobalRoundID     *big.Int          `json:"globalRoundId"`
	AllocPoint        *big.Int          `json:"allocPoint"`
	DepositFeeBP      uint16            `json:"depositFeeBP"`
	LastRewardBlock   *big.Int          `json:"lastRewardBlock"`
	CurrentRound      *big.Int          `json:"currentRound"`
	Balance           *big.Int          `json:"balance"`
	UserCount         uint64            `json:"userCount"`
	HVLP              weighted.Position `json:"hvlp"`
	EntryUSD          decimal.Decimal   `json:"entryUSD"`
	ExitUSD           decimal.Decimal   `json:"exitUSD"`
	MoneyHarvested    decimal.Decimal   `json:"moneyHarvested"`
	MoneyHarvestedUSD decimal.Decimal   `json:"moneyHarvestedUSD"`
	Timestamp         uint64            `json:"timestamp"`
	Block             uint64            `json:"block"`
}

func (p *FarmPool) EntityKind() string { return KindFarmPool }
func (p *FarmPool) EntityID() string   { return p.ID }

func NewFarmPool(id, owner string, block Block) *FarmPool {
	return &FarmPool{
		ID:                id,
		Owner:             owner,
		PoolStartTime:     new(big.Int),
		GlobalRoundID:     new(big.Int),
		AllocPoint:        new(big.Int),
		LastRewardBlock:   new(big.Int),
		CurrentRound:      new(big.Int),
		Balance:           new(big.Int),
		HVLP:              weighted.NewPosition(block.Timestamp),
		EntryUSD:          decimal.Zero,
		ExitUSD:           decimal.Zero,
		MoneyHarvested:    decimal.Zero,
		MoneyHarvestedUSD: decimal.Zero,
		Timestamp:         block.Timestamp,
		Block:             block.Number,
	}
}

// FarmPoolRound is a farm subdivided by reward round. AccMoneyPerShare is
// fixed for a closed round and only written once the round boundary passes.
type FarmPoolRound struct {
	ID                string            `json:"id"`
	Pool              string            `json:"pool"`
	Round             *big.Int          `json:"round"`
	AccMoneyPerShare  *big.Int          `json:"accMoneyPerShare"`
	Deposits          *big.Int          `json:"deposits"`
	UserCount         uint64            `json:"userCount"`
	HVLP              weighted.Position `json:"hvlp"`
	EntryUSD          decimal.Decimal   `json:"entryUSD"`
	ExitUSD           decimal.Decimal   `json:"exitUSD"`
	MoneyHarvested    decimal.Decimal   `json:"moneyHarvested"`
	MoneyHarvestedUSD decimal.Decimal   `json:"moneyHarvestedUSD"`
	Timestamp         uint64            `json:"timestamp"`
	Block             uint64            `json:"block"`
}

func (r *FarmPoolRound) EntityKind() string { return KindFarmPoolRound }
func (r *FarmPoolRound) EntityID() string   { return r.ID }

func NewFarmPoolRound(pool string, round *big.Int, block Block) *FarmPoolRound {
	return &FarmPoolRound{
		ID:                JoinID(pool, round.String()),
		Pool:              pool,
		Round:             new(big.Int).Set(round),
		AccMoneyPerShare:  new(big.Int),
		Deposits:          new(big.Int),
		HVLP:              weighted.NewPosition(block.Timestamp),
		EntryUSD:          decimal.Zero,
		ExitUSD:           decimal.Zero,
		MoneyHarvested:    decimal.Zero,
		MoneyHarvestedUSD: decimal.Zero,
		Timestamp:         block.Timestamp,
		Block:             block.Number,
	}
}

// FarmUser is a (farmId, address) position.
type FarmUser struct {
	ID                string          `json:"id"`
	Address           string          `json:"address"`
	Pool              *string         `json:"pool"`
	EntryRound        *big.Int        `json:"entryRound"`
	Amount            *big.Int        `json:"amount"`
	MoneyHarvested    decimal.Decimal `json:"moneyHarvested"`
	MoneyHarvestedUSD decimal.Decimal `json:"moneyHarvestedUSD"`
	EntryUSD          decimal.Decimal `json:"entryUSD"`
	ExitUSD           decimal.Decimal `json:"exitUSD"`
	Timestamp         uint64          `json:"timestamp"`
	Block             uint64          `json:"block"`
}

func (u *FarmUser) EntityKind() string { return KindFarmUser }
func (u *FarmUser) EntityID() string   { return u.ID }

func NewFarmUser(id, address string, block Block) *FarmUser {
	return &FarmUser{
		ID:                id,
		Address:           address,
		Amount:            new(big.Int),
		MoneyHarvested:    decimal.Zero,
		MoneyHarvestedUSD: decimal.Zero,
		EntryUSD:          decimal.Zero,
		ExitUSD:           decimal.Zero,
		Timestamp:         block.Timestamp,
		Block:             block.Number,
	}
}

// FarmingHistory is the factory's day bucket.
type FarmingHistory struct {
	ID        string            `json:"id"`
	Owner     string            `json:"owner"`
	HVLP      weighted.Position `json:"hvlp"`
	Timestamp uint64            `json:"timestamp"`
	Block     uint64            `json:"block"`
}

func (h *FarmingHistory) EntityKind() string { return KindFarmingHistory }
func (h *FarmingHistory) EntityID() string   { return h.ID }

func NewFarmingHistory(owner string, block Block) *FarmingHistory {
	return &FarmingHistory{
		ID:        DayBucketID(owner, block.Timestamp),
		Owner:     owner,
		HVLP:      weighted.NewPosition(block.Timestamp),
		Timestamp: block.Timestamp,
		Block:     block.Number,
	}
}

// FarmPoolHistory is a farm's day bucket.
type FarmPoolHistory struct {
	ID                string            `json:"id"`
	Pool              string            `json:"pool"`
	HVLP              weighted.Position `json:"hvlp"`
	UserCount         uint64            `json:"userCount"`
	EntryUSD          decimal.Decimal   `json:"entryUSD"`
	ExitUSD           decimal.Decimal   `json:"exitUSD"`
	MoneyHarvested    decimal.Decimal   `json:"moneyHarvested"`
	MoneyHarvestedUSD decimal.Decimal   `json:"moneyHarvestedUSD"`
	Timestamp         uint64            `json:"timestamp"`
	Block             uint64            `json:"block"`
}

func (h *FarmPoolHistory) EntityKind() string { return KindFarmPoolHistory }
func (h *FarmPoolHistory) EntityID() string   { return h.ID }

func NewFarmPoolHistory(pool string, block Block) *FarmPoolHistory {
	return &FarmPoolHistory{
		ID:                DayBucketID(pool, block.Timestamp),
		Pool:              pool,
		HVLP:              weighted.NewPosition(block.Timestamp),
		EntryUSD:          decimal.Zero,
		ExitUSD:           decimal.Zero,
		MoneyHarvested:    decimal.Zero,
		MoneyHarvestedUSD: decimal.Zero,
		Timestamp:         block.Timestamp,
		Block:             block.Number,
	}
}
