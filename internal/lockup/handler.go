// Package lockup snapshots MasterChef pool weights at the lockup call and
// tracks money harvested by chef users after the lockup block.
package lockup

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"moneyScope/internal/config"
	"moneyScope/internal/contracts"
	"moneyScope/internal/events"
	"moneyScope/internal/masterchef"
	"moneyScope/internal/model"
	"moneyScope/internal/storage"
)

// Chain is the subset of chef reads the lockup mapping needs.
type Chain interface {
	TotalAllocPoint(ctx context.Context, contract common.Address, block uint64) (*big.Int, error)
	PoolLength(ctx context.Context, chef common.Address, block uint64) (*big.Int, error)
	PoolInfo(ctx context.Context, chef common.Address, pid *big.Int, block uint64) (contracts.PoolInfo, error)
	UserInfo(ctx context.Context, chef common.Address, pid *big.Int, user common.Address, block uint64) (contracts.UserInfo, error)
}

// Pricer prices the money token.
type Pricer interface {
	MoneyPrice(ctx context.Context, block uint64) decimal.Decimal
}

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

// Set freezes every pool's weight when the lockup pool is set. Pools whose
// poolInfo reverts are skipped.
func (h *Handler) Set(ctx context.Context, s *storage.Session, call events.ChefSet) error {
	if call.Pid.Cmp(big.NewInt(config.LockupPoolNumber)) != 0 {
		return nil
	}
	h.logger.Info("lockup snapshot", zap.Uint64("block", call.Block.Number))

	chef := h.net.MasterChef
	length, err := h.chain.PoolLength(ctx, chef, call.Block.Number)
	if err != nil {
		return fmt.Errorf("read chef poolLength: %w", err)
	}
	total, err := h.chain.TotalAllocPoint(ctx, chef, call.Block.Number)
	if err != nil {
		return fmt.Errorf("read chef totalAllocPoint: %w", err)
	}
	lockup := &model.Lockup{
		ID:              model.LockupID,
		Block:           call.Block.Number,
		PoolLength:      length,
		TotalAllocPoint: total,
	}
	s.Save(lockup)

	for i := int64(0); i < length.Int64(); i++ {
		pid := big.NewInt(i)
		info, err := h.chain.PoolInfo(ctx, chef, pid, call.Block.Number)
		if err != nil {
			h.logger.Warn("lockup pool skipped", zap.Int64("pid", i), zap.Error(err))
			continue
		}
		pool := model.NewLockupPool(pid.String())
		pool.Lockup = model.StringRef(lockup.ID)
		pool.AllocPoint = info.AllocPoint
		pool.MoneyPerShare = info.AccMoneyPerShare
		s.Save(pool)
	}
	return nil
}

func (h *Handler) Deposit(ctx context.Context, s *storage.Session, ev events.ChefDeposit) error {
	return h.settle(ctx, s, ev.Pid, ev.User, ev.Meta)
}

func (h *Handler) Withdraw(ctx context.Context, s *storage.Session, ev events.ChefWithdraw) error {
	return h.settle(ctx, s, ev.Pid, ev.User, ev.Meta)
}

// settle credits money paid to the user since the lockup and refreshes its
// chef position.
func (h *Handler) settle(ctx context.Context, s *storage.Session, pid *big.Int, addr common.Address, meta events.Meta) error {
	chef := h.net.MasterChef
	block := meta.Block

	id := model.JoinID(pid.String(), model.AddressID(addr))
	user, _, err := storage.LoadOrCreate(ctx, s, id, func() *model.LockupUser {
		return model.NewLockupUser(id, pid.String(), model.AddressID(addr))
	})
	if err != nil {
		return err
	}

	info, err := h.chain.PoolInfo(ctx, chef, pid, block.Number)
	if err != nil {
		return fmt.Errorf("read poolInfo %s: %w", pid, err)
	}
	pool, created, err := storage.LoadOrCreate(ctx, s, pid.String(), func() *model.LockupPool {
		return model.NewLockupPool(pid.String())
	})
	if err != nil {
		return err
	}
	if created {
		pool.AllocPoint = info.AllocPoint
	}
	pool.MoneyPerShare = info.AccMoneyPerShare

	if block.Number >= h.net.LockupBlock {
		owed := masterchef.PendingReward(user.Amount, pool.MoneyPerShare, user.RewardDebt)
		if owed.IsPositive() {
			user.MoneyHarvestedSinceLockup = user.MoneyHarvestedSinceLockup.Add(owed)
			usd := owed.Mul(h.prices.MoneyPrice(ctx, block.Number))
			user.MoneyHarvestedSinceLockupUSD = user.MoneyHarvestedSinceLockupUSD.Add(usd)
		}
	}

	userInfo, err := h.chain.UserInfo(ctx, chef, pid, addr, block.Number)
	if err != nil {
		return fmt.Errorf("read userInfo %s: %w", id, err)
	}
	user.Amount = userInfo.Amount
	user.RewardDebt = userInfo.RewardDebt

	s.Save(pool)
	s.Save(user)
	return nil
}
