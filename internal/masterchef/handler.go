// Package masterchef maps the MasterChef contract: pool registration and
// weights from calls, LP deposits and withdrawals from events.
package masterchef

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"moneyScope/internal/config"
	"moneyScope/internal/contracts"
	"moneyScope/internal/model"
	"moneyScope/internal/storage"
)

// ErrUnknownPool is returned for a pid at or beyond the chef's poolLength.
var ErrUnknownPool = errors.New("pool id beyond poolLength")

// Chain is the subset of contract reads the chef mapping needs.
type Chain interface {
	Owner(ctx context.Context, contract common.Address, block uint64) (common.Address, error)
	Money(ctx context.Context, contract common.Address, block uint64) (common.Address, error)
	TotalAllocPoint(ctx context.Context, contract common.Address, block uint64) (*big.Int, error)
	PoolLength(ctx context.Context, chef common.Address, block uint64) (*big.Int, error)
	PoolInfo(ctx context.Context, chef common.Address, pid *big.Int, block uint64) (contracts.PoolInfo, error)
	UserInfo(ctx context.Context, chef common.Address, pid *big.Int, user common.Address, block uint64) (contracts.UserInfo, error)
	BalanceOf(ctx context.Context, token, owner common.Address, block uint64) (*big.Int, error)
}

// Pricer values harvested money and LP positions.
type Pricer interface {
	MoneyPrice(ctx context.Context, block uint64) decimal.Decimal
	PairShareUSD(ctx context.Context, pair common.Address, liquidity *big.Int, block uint64) (decimal.Decimal, bool)
}

// Handler maps MasterChef events and calls.
type Handler struct {
	net    config.Network
	chain  Chain
	prices Pricer
	logger *zap.Logger
}

func NewHandler(net config.Network, chain Chain, prices Pricer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{net: net, chain: chain, prices: prices, logger: logger}
}

func (h *Handler) chefID() string {
	return model.AddressID(h.net.MasterChef)
}

func (h *Handler) getMasterChef(ctx context.Context, s *storage.Session, block model.Block) (*model.MasterChef, error) {
	chef, _, err := h.loadMasterChef(ctx, s, block)
	return chef, err
}

// loadMasterChef creates the chef from its state at block, so a chef created
// by an add call already counts the pool being added.
func (h *Handler) loadMasterChef(ctx context.Context, s *storage.Session, block model.Block) (*model.MasterChef, bool, error) {
	id := h.chefID()
	chef, created, err := storage.LoadOrCreate(ctx, s, id, func() *model.MasterChef {
		return model.NewMasterChef(id, block.Timestamp)
	})
	if err != nil || !created {
		return chef, created, err
	}

	total, err := h.chain.TotalAllocPoint(ctx, h.net.MasterChef, block.Number)
	if err != nil {
		return nil, false, fmt.Errorf("read chef totalAllocPoint: %w", err)
	}
	length, err := h.chain.PoolLength(ctx, h.net.MasterChef, block.Number)
	if err != nil {
		return nil, false, fmt.Errorf("read chef poolLength: %w", err)
	}
	chef.TotalAllocPoint = total
	chef.PoolCount = length.Uint64()
	if owner, err := h.chain.Owner(ctx, h.net.MasterChef, block.Number); err == nil {
		chef.Owner = model.AddressID(owner)
		chef.Devaddr = chef.Owner
	} else {
		h.logger.Warn("chef owner unavailable", zap.Error(err))
	}
	if money, err := h.chain.Money(ctx, h.net.MasterChef, block.Number); err == nil {
		chef.Money = model.AddressID(money)
	} else {
		chef.Money = model.AddressID(h.net.MoneyToken)
	}
	return chef, true, nil
}

// getPool loads pool pid, creating it from poolInfo when the chef knows it.
func (h *Handler) getPool(ctx context.Context, s *storage.Session, pid *big.Int, block model.Block) (*model.MasterChefPool, error) {
	id := pid.String()
	pool, found, err := storage.Load(ctx, s, id, func() *model.MasterChefPool {
		return model.NewMasterChefPool(id, h.chefID(), block)
	})
	if err != nil || found {
		return pool, err
	}

	length, err := h.chain.PoolLength(ctx, h.net.MasterChef, block.Number)
	if err != nil {
		return nil, fmt.Errorf("read chef poolLength: %w", err)
	}
	if pid.Cmp(length) >= 0 {
		return nil, fmt.Errorf("pool %s (poolLength %s): %w", id, length, ErrUnknownPool)
	}
	info, err := h.chain.PoolInfo(ctx, h.net.MasterChef, pid, block.Number)
	if err != nil {
		return nil, fmt.Errorf("read poolInfo %s: %w", id, err)
	}

	pool.Pair = model.AddressID(info.LPToken)
	pool.AllocPoint = info.AllocPoint
	pool.LastRewardBlock = info.LastRewardBlock
	pool.AccMoneyPerShare = info.AccMoneyPerShare
	s.Save(pool)
	return pool, nil
}

func (h *Handler) getUser(ctx context.Context, s *storage.Session, pid *big.Int, addr common.Address, block model.Block) (*model.MasterChefUser, error) {
	id := model.JoinID(pid.String(), model.AddressID(addr))
	user, _, err := storage.LoadOrCreate(ctx, s, id, func() *model.MasterChefUser {
		return model.NewMasterChefUser(id, model.AddressID(addr), block)
	})
	return user, err
}

func (h *Handler) getHistory(ctx context.Context, s *storage.Session, block model.Block) (*model.MasterChefHistory, error) {
	owner := h.chefID()
	history, _, err := storage.LoadOrCreate(ctx, s, model.DayBucketID(owner, block.Timestamp), func() *model.MasterChefHistory {
		return model.NewMasterChefHistory(owner, block)
	})
	return history, err
}

func (h *Handler) getPoolHistory(ctx context.Context, s *storage.Session, pool string, block model.Block) (*model.MasterChefPoolHistory, error) {
	history, _, err := storage.LoadOrCreate(ctx, s, model.DayBucketID(pool, block.Timestamp), func() *model.MasterChefPoolHistory {
		return model.NewMasterChefPoolHistory(pool, block)
	})
	return history, err
}

// PendingReward is the money owed to a chef position before the chef settles
// it: (amount*accMoneyPerShare/1e12 - rewardDebt)/1e18.
func PendingReward(amount, accMoneyPerShare, rewardDebt *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(amount, 0).
		Mul(decimal.NewFromBigInt(accMoneyPerShare, 0)).
		Shift(-12).
		Sub(decimal.NewFromBigInt(rewardDebt, 0)).
		Shift(-18)
}
