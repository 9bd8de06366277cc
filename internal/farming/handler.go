// Package farming maps the farm factory and the round-based farms it
// deploys. Farm logs are only mapped once the factory announced the farm.
package farming

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

// ErrUnknownFarm is returned for farm logs from an address no NewPool registered.
var ErrUnknownFarm = errors.New("farm not registered by the factory")

// Chain is the subset of contract reads the farming mapping needs.
type Chain interface {
	FactoryState(ctx context.Context, factory common.Address, block uint64) (contracts.FactoryState, error)
	FarmInfo(ctx context.Context, farm common.Address, block uint64) (contracts.FarmInfo, error)
	FarmID(ctx context.Context, farm common.Address, block uint64) (*big.Int, error)
	AvailableRewards(ctx context.Context, farm common.Address, block uint64) (*big.Int, error)
	CurrentRoundID(ctx context.Context, farm common.Address, block uint64) (*big.Int, error)
	MoneyPerShare(ctx context.Context, farm common.Address, round *big.Int, block uint64) (*big.Int, error)
	PoolDeposits(ctx context.Context, farm common.Address, round *big.Int, block uint64) (*big.Int, error)
	FarmUserInfo(ctx context.Context, farm, user common.Address, block uint64) (contracts.FarmUserInfo, error)
	BalanceOf(ctx context.Context, token, owner common.Address, block uint64) (*big.Int, error)
}

// Pricer values harvested money and LP positions.
type Pricer interface {
	MoneyPrice(ctx context.Context, block uint64) decimal.Decimal
	PairShareUSD(ctx context.Context, pair common.Address, liquidity *big.Int, block uint64) (decimal.Decimal, bool)
}

// Handler maps farm factory and farm events and calls.
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

func (h *Handler) farmingID() string {
	return model.AddressID(h.net.FarmFactory)
}

func (h *Handler) getFarming(ctx context.Context, s *storage.Session, block model.Block) (*model.Farming, error) {
	farming, _, err := h.loadFarming(ctx, s, block)
	return farming, err
}

// loadFarming creates the factory aggregate from its state at block.
func (h *Handler) loadFarming(ctx context.Context, s *storage.Session, block model.Block) (*model.Farming, bool, error) {
	id := h.farmingID()
	farming, created, err := storage.LoadOrCreate(ctx, s, id, func() *model.Farming {
		return model.NewFarming(id, block.Timestamp)
	})
	if err != nil || !created {
		return farming, created, err
	}

	state, err := h.chain.FactoryState(ctx, h.net.FarmFactory, block.Number)
	if err != nil {
		return nil, false, fmt.Errorf("read farm factory state: %w", err)
	}
	farming.Owner = model.AddressID(state.Owner)
	farming.Money = model.AddressID(state.Money)
	farming.FeeAddress = model.AddressID(state.FeeAddress)
	farming.Reserve = model.AddressID(state.Reserve)
	farming.TotalAllocPoint = state.TotalAllocPoint
	farming.ReserveDistributionSchedule = state.ReserveDistributionSchedule
	farming.LastReserveDistributionTimestamp = state.LastReserveDistributionTimestamp
	farming.DepositPeriod = state.DepositPeriod
	farming.GlobalRoundID = state.GlobalRoundID
	return farming, true, nil
}

// registeredPool loads a farm announced by NewPool.
func (h *Handler) registeredPool(ctx context.Context, s *storage.Session, farm common.Address) (*model.FarmPool, error) {
	id := model.AddressID(farm)
	pool, found, err := storage.Load(ctx, s, id, func() *model.FarmPool {
		return model.NewFarmPool(id, h.farmingID(), model.Block{})
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("farm %s: %w", id, ErrUnknownFarm)
	}
	return pool, nil
}

// getRound loads a farm round, reading its settled share and deposits on
// creation. Rounds that are not open yet revert; they start at zero.
func (h *Handler) getRound(ctx context.Context, s *storage.Session, farm common.Address, round *big.Int, block model.Block) (*model.FarmPoolRound, error) {
	pool := model.AddressID(farm)
	r, created, err := storage.LoadOrCreate(ctx, s, model.JoinID(pool, round.String()), func() *model.FarmPoolRound {
		return model.NewFarmPoolRound(pool, round, block)
	})
	if err != nil || !created {
		return r, err
	}

	if acc, err := h.chain.MoneyPerShare(ctx, farm, round, block.Number); err == nil {
		r.AccMoneyPerShare = acc
	} else {
		h.logger.Debug("round share unavailable", zap.String("round", r.ID), zap.Error(err))
	}
	if deposits, err := h.chain.PoolDeposits(ctx, farm, round, block.Number); err == nil {
		r.Deposits = deposits
	} else {
		h.logger.Debug("round deposits unavailable", zap.String("round", r.ID), zap.Error(err))
	}
	return r, nil
}

func (h *Handler) getUser(ctx context.Context, s *storage.Session, farmID *big.Int, addr common.Address, block model.Block) (*model.FarmUser, error) {
	id := model.JoinID(farmID.String(), model.AddressID(addr))
	user, _, err := storage.LoadOrCreate(ctx, s, id, func() *model.FarmUser {
		return model.NewFarmUser(id, model.AddressID(addr), block)
	})
	return user, err
}

func (h *Handler) getHistory(ctx context.Context, s *storage.Session, block model.Block) (*model.FarmingHistory, error) {
	owner := h.farmingID()
	history, _, err := storage.LoadOrCreate(ctx, s, model.DayBucketID(owner, block.Timestamp), func() *model.FarmingHistory {
		return model.NewFarmingHistory(owner, block)
	})
	return history, err
}

func (h *Handler) getPoolHistory(ctx context.Context, s *storage.Session, pool string, block model.Block) (*model.FarmPoolHistory, error) {
	history, _, err := storage.LoadOrCreate(ctx, s, model.DayBucketID(pool, block.Timestamp), func() *model.FarmPoolHistory {
		return model.NewFarmPoolHistory(pool, block)
	})
	return history, err
}
