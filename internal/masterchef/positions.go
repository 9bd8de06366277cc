package masterchef

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"moneyScope/internal/contracts"
	"moneyScope/internal/events"
	"moneyScope/internal/model"
	"moneyScope/internal/storage"
	"moneyScope/internal/weighted"
)

// leg is the shared state of one deposit or withdrawal.
type leg struct {
	pid    *big.Int
	user   common.Address
	amount *big.Int
	value  decimal.Decimal
	block  model.Block
	tx     string

	info    contracts.PoolInfo
	pool    *model.MasterChefPool
	history *model.MasterChefPoolHistory
}

func (h *Handler) openLeg(ctx context.Context, s *storage.Session, pid *big.Int, user common.Address, amount *big.Int, meta events.Meta) (*leg, error) {
	l := &leg{
		pid:    pid,
		user:   user,
		amount: amount,
		value:  decimal.NewFromBigInt(amount, -18),
		block:  meta.Block,
		tx:     meta.TxHash,
	}

	info, err := h.chain.PoolInfo(ctx, h.net.MasterChef, pid, meta.Block.Number)
	if err != nil {
		return nil, fmt.Errorf("read poolInfo %s: %w", pid, err)
	}
	l.info = info

	pool, err := h.getPool(ctx, s, pid, meta.Block)
	if err != nil {
		return nil, err
	}
	balance, err := h.chain.BalanceOf(ctx, info.LPToken, h.net.MasterChef, meta.Block.Number)
	if err != nil {
		return nil, fmt.Errorf("read pool %s lp balance: %w", pool.ID, err)
	}
	pool.Balance = balance
	pool.LastRewardBlock = info.LastRewardBlock
	pool.AccMoneyPerShare = info.AccMoneyPerShare
	l.pool = pool

	l.history, err = h.getPoolHistory(ctx, s, pool.ID, meta.Block)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Deposit applies a chef Deposit: LP enters the pool, pending money is
// harvested and the user's amount is refreshed from userInfo.
func (h *Handler) Deposit(ctx context.Context, s *storage.Session, ev events.ChefDeposit) error {
	l, err := h.openLeg(ctx, s, ev.Pid, ev.User, ev.Amount, ev.Meta)
	if err != nil {
		return err
	}
	pool := l.pool

	if err := pool.SLP.Deposit(l.block.Timestamp, l.value); err != nil {
		h.warnPosition("pool slp", pool.ID, l, err)
	}

	info, err := h.chain.UserInfo(ctx, h.net.MasterChef, l.pid, l.user, l.block.Number)
	if err != nil {
		return fmt.Errorf("read userInfo %s: %w", pool.ID, err)
	}
	user, err := h.getUser(ctx, s, l.pid, l.user, l.block)
	if err != nil {
		return err
	}

	if user.Pool == nil && l.amount.Sign() > 0 {
		user.Pool = model.StringRef(pool.ID)
		pool.UserCount++
	}

	h.harvest(ctx, l, user)
	user.Amount = info.Amount
	user.RewardDebt = info.RewardDebt

	if l.amount.Sign() > 0 {
		if usd, ok := h.prices.PairShareUSD(ctx, l.info.LPToken, l.amount, l.block.Number); ok {
			user.EntryUSD = user.EntryUSD.Add(usd)
			pool.EntryUSD = pool.EntryUSD.Add(usd)
		} else {
			h.logger.Info("deposit reserves unavailable", zap.String("pair", pool.Pair), zap.String("tx", l.tx))
		}
	}

	chef, err := h.getMasterChef(ctx, s, l.block)
	if err != nil {
		return err
	}
	if err := chef.SLP.Deposit(l.block.Timestamp, l.value); err != nil {
		h.warnPosition("chef slp", chef.ID, l, err)
	}
	history, err := h.getHistory(ctx, s, l.block)
	if err != nil {
		return err
	}
	mirror(&history.SLP, chef.SLP)
	history.SLP.Deposited = history.SLP.Deposited.Add(l.value)

	mirrorPool(l)
	l.history.SLP.Deposited = l.history.SLP.Deposited.Add(l.value)

	s.Save(user)
	s.Save(pool)
	s.Save(chef)
	s.Save(history)
	s.Save(l.history)
	return nil
}

// Withdraw applies a chef Withdraw. Pending money is harvested against the
// amount held before the withdrawal.
func (h *Handler) Withdraw(ctx context.Context, s *storage.Session, ev events.ChefWithdraw) error {
	l, err := h.openLeg(ctx, s, ev.Pid, ev.User, ev.Amount, ev.Meta)
	if err != nil {
		return err
	}
	pool := l.pool

	user, err := h.getUser(ctx, s, l.pid, l.user, l.block)
	if err != nil {
		return err
	}
	h.harvest(ctx, l, user)

	info, err := h.chain.UserInfo(ctx, h.net.MasterChef, l.pid, l.user, l.block.Number)
	if err != nil {
		return fmt.Errorf("read userInfo %s: %w", pool.ID, err)
	}
	user.Amount = info.Amount
	user.RewardDebt = info.RewardDebt

	if l.amount.Sign() > 0 {
		if usd, ok := h.prices.PairShareUSD(ctx, l.info.LPToken, l.amount, l.block.Number); ok {
			user.ExitUSD = user.ExitUSD.Add(usd)
			pool.ExitUSD = pool.ExitUSD.Add(usd)
		} else {
			h.logger.Info("withdraw reserves unavailable", zap.String("pair", pool.Pair), zap.String("tx", l.tx))
		}
	}

	if user.Amount.Sign() == 0 {
		h.leave(user, pool)
	}
	s.Save(user)
	return h.withdrawSLP(ctx, s, l)
}

// EmergencyWithdraw returns a user's whole LP balance without rewards.
func (h *Handler) EmergencyWithdraw(ctx context.Context, s *storage.Session, ev events.ChefEmergencyWithdraw) error {
	h.logger.Info("emergency withdrawal",
		zap.String("user", model.AddressID(ev.User)),
		zap.String("pid", ev.Pid.String()),
		zap.String("amount", ev.Amount.String()),
	)
	l, err := h.openLeg(ctx, s, ev.Pid, ev.User, ev.Amount, ev.Meta)
	if err != nil {
		return err
	}

	user, err := h.getUser(ctx, s, l.pid, l.user, l.block)
	if err != nil {
		return err
	}
	user.Amount = new(big.Int)
	user.RewardDebt = new(big.Int)
	h.leave(user, l.pool)
	s.Save(user)
	return h.withdrawSLP(ctx, s, l)
}

func (h *Handler) withdrawSLP(ctx context.Context, s *storage.Session, l *leg) error {
	pool := l.pool
	poolRemoved, err := pool.SLP.Withdraw(l.block.Timestamp, l.value)
	if err != nil {
		h.warnPosition("pool slp", pool.ID, l, err)
	}

	chef, err := h.getMasterChef(ctx, s, l.block)
	if err != nil {
		return err
	}
	chefRemoved, err := chef.SLP.Withdraw(l.block.Timestamp, l.value)
	if err != nil {
		h.warnPosition("chef slp", chef.ID, l, err)
	}
	history, err := h.getHistory(ctx, s, l.block)
	if err != nil {
		return err
	}
	mirror(&history.SLP, chef.SLP)
	history.SLP.AgeRemoved = history.SLP.AgeRemoved.Add(chefRemoved)
	history.SLP.Withdrawn = history.SLP.Withdrawn.Add(l.value)

	mirrorPool(l)
	l.history.SLP.AgeRemoved = l.history.SLP.AgeRemoved.Add(poolRemoved)
	l.history.SLP.Withdrawn = l.history.SLP.Withdrawn.Add(l.value)

	s.Save(pool)
	s.Save(chef)
	s.Save(history)
	s.Save(l.history)
	return nil
}

// harvest credits money pending on the user's prior amount.
func (h *Handler) harvest(ctx context.Context, l *leg, user *model.MasterChefUser) {
	if l.block.Number <= h.net.FarmingStartBlock || user.Amount.Sign() <= 0 {
		return
	}
	owed := PendingReward(user.Amount, l.pool.AccMoneyPerShare, user.RewardDebt)
	if !owed.IsPositive() {
		return
	}
	usd := owed.Mul(h.prices.MoneyPrice(ctx, l.block.Number))
	user.MoneyHarvested = user.MoneyHarvested.Add(owed)
	user.MoneyHarvestedUSD = user.MoneyHarvestedUSD.Add(usd)
	l.pool.MoneyHarvested = l.pool.MoneyHarvested.Add(owed)
	l.pool.MoneyHarvestedUSD = l.pool.MoneyHarvestedUSD.Add(usd)
}

func (h *Handler) leave(user *model.MasterChefUser, pool *model.MasterChefPool) {
	if user.Pool == nil {
		return
	}
	user.Pool = nil
	if pool.UserCount > 0 {
		pool.UserCount--
	}
}

func (h *Handler) warnPosition(scope, id string, l *leg, err error) {
	h.logger.Warn("accumulator update skipped",
		zap.String("scope", scope),
		zap.String("id", id),
		zap.Uint64("block", l.block.Number),
		zap.String("tx", l.tx),
		zap.Error(err),
	)
}

// mirror copies the running balance and age of an aggregate into its day
// bucket; the bucket keeps its own day sums.
func mirror(dst *weighted.Position, src weighted.Position) {
	dst.Balance = src.Balance
	dst.Age = src.Age
	dst.UpdatedAt = src.UpdatedAt
}

// mirrorPool snapshots the pool into its day bucket. The bucket balance is the
// LP actually held by the chef.
func mirrorPool(l *leg) {
	pool, history := l.pool, l.history
	mirror(&history.SLP, pool.SLP)
	history.SLP.Balance = decimal.NewFromBigInt(pool.Balance, -18)
	history.UserCount = pool.UserCount
	history.EntryUSD = pool.EntryUSD
	history.ExitUSD = pool.ExitUSD
	history.MoneyHarvested = pool.MoneyHarvested
	history.MoneyHarvestedUSD = pool.MoneyHarvestedUSD
}
