package farming

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"moneyScope/internal/events"
	"moneyScope/internal/model"
	"moneyScope/internal/storage"
	"moneyScope/internal/weighted"
)

// PoolUpdated writes the settled share of every round closed since the
// farm's current round. currentRound only advances to the last round whose
// share is already nonzero, so unsettled rounds are revisited next time.
func (h *Handler) PoolUpdated(ctx context.Context, s *storage.Session, ev events.PoolUpdated) error {
	pool, err := h.registeredPool(ctx, s, ev.Address)
	if err != nil {
		return err
	}
	chainRound, err := h.chain.CurrentRoundID(ctx, ev.Address, ev.Block.Number)
	if err != nil {
		return fmt.Errorf("read farm %s current round: %w", pool.ID, err)
	}
	last := pool.CurrentRound
	if last.Cmp(chainRound) == 0 {
		return nil
	}

	updated := new(big.Int).Set(last)
	one := big.NewInt(1)
	for index := new(big.Int).Add(last, one); index.Cmp(chainRound) < 0; index = new(big.Int).Add(index, one) {
		round, err := h.getRound(ctx, s, ev.Address, index, ev.Block)
		if err != nil {
			return err
		}
		acc, err := h.chain.MoneyPerShare(ctx, ev.Address, index, ev.Block.Number)
		if err != nil {
			return fmt.Errorf("read farm %s round %s share: %w", pool.ID, index, err)
		}
		round.AccMoneyPerShare = acc
		if acc.Sign() > 0 {
			updated = new(big.Int).Set(index)
		}
		s.Save(round)
	}

	if updated.Cmp(last) > 0 {
		pool.CurrentRound = updated
		s.Save(pool)
	}
	return nil
}

// position is the shared state of one farm deposit or withdrawal.
type position struct {
	farm    common.Address
	user    common.Address
	amount  *big.Int
	value   decimal.Decimal
	rewards decimal.Decimal
	block   model.Block
	tx      string

	farming *model.Farming
	pool    *model.FarmPool
	round   *model.FarmPoolRound
	history *model.FarmPoolHistory
}

func (h *Handler) open(ctx context.Context, s *storage.Session, meta events.Meta, user common.Address, amount, roundID, rewards *big.Int) (*position, error) {
	p := &position{
		farm:    meta.Address,
		user:    user,
		amount:  amount,
		value:   decimal.NewFromBigInt(amount, -18),
		rewards: decimal.NewFromBigInt(rewards, -18),
		block:   meta.Block,
		tx:      meta.TxHash,
	}

	var err error
	if p.pool, err = h.registeredPool(ctx, s, p.farm); err != nil {
		return nil, err
	}
	if p.farming, err = h.getFarming(ctx, s, p.block); err != nil {
		return nil, err
	}
	if p.round, err = h.getRound(ctx, s, p.farm, roundID, p.block); err != nil {
		return nil, err
	}
	if p.history, err = h.getPoolHistory(ctx, s, p.pool.ID, p.block); err != nil {
		return nil, err
	}

	balance, err := h.chain.BalanceOf(ctx, common.HexToAddress(p.pool.Pair), p.farm, p.block.Number)
	if err != nil {
		return nil, fmt.Errorf("read farm %s lp balance: %w", p.pool.ID, err)
	}
	p.pool.Balance = balance
	return p, nil
}

// refreshUser loads the farm user and returns its on-chain position.
func (h *Handler) refreshUser(ctx context.Context, s *storage.Session, p *position) (*model.FarmUser, *big.Int, *big.Int, error) {
	info, err := h.chain.FarmUserInfo(ctx, p.farm, p.user, p.block.Number)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read farm %s userInfo: %w", p.pool.ID, err)
	}
	farmID, err := h.chain.FarmID(ctx, p.farm, p.block.Number)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read farm %s id: %w", p.pool.ID, err)
	}
	user, err := h.getUser(ctx, s, farmID, p.user, p.block)
	if err != nil {
		return nil, nil, nil, err
	}
	return user, info.Amount, info.EntryRound, nil
}

// Deposit applies a farm Deposit into the given round.
func (h *Handler) Deposit(ctx context.Context, s *storage.Session, ev events.FarmDeposit) error {
	if ev.Amount.Sign() == 0 {
		h.logger.Info("deposit zero amount", zap.String("tx", ev.TxHash))
	}
	p, err := h.open(ctx, s, ev.Meta, ev.User, ev.Amount, ev.RoundID, ev.Rewards)
	if err != nil {
		return err
	}
	pool, round := p.pool, p.round
	ts := p.block.Timestamp

	if err := round.HVLP.Deposit(ts, p.value); err != nil {
		h.warnPosition("round hvlp", round.ID, p, err)
	}
	if err := pool.HVLP.Deposit(ts, p.value); err != nil {
		h.warnPosition("pool hvlp", pool.ID, p, err)
	}

	user, amount, entryRound, err := h.refreshUser(ctx, s, p)
	if err != nil {
		return err
	}
	if user.Pool == nil && p.amount.Sign() > 0 {
		user.Pool = model.StringRef(pool.ID)
		pool.UserCount++
		round.UserCount++
	}
	h.harvest(ctx, p, user)
	user.Amount = amount
	user.EntryRound = entryRound

	if p.amount.Sign() > 0 {
		if usd, ok := h.prices.PairShareUSD(ctx, common.HexToAddress(pool.Pair), p.amount, p.block.Number); ok {
			user.EntryUSD = user.EntryUSD.Add(usd)
			pool.EntryUSD = pool.EntryUSD.Add(usd)
			round.EntryUSD = round.EntryUSD.Add(usd)
		} else {
			h.logger.Info("deposit reserves unavailable", zap.String("pair", pool.Pair), zap.String("tx", p.tx))
		}
	}
	pool.CurrentRound = new(big.Int).Set(ev.RoundID)

	if err := p.farming.HVLP.Deposit(ts, p.value); err != nil {
		h.warnPosition("farming hvlp", p.farming.ID, p, err)
	}
	h.refreshRewards(ctx, p)

	history, err := h.getHistory(ctx, s, p.block)
	if err != nil {
		return err
	}
	mirror(&history.HVLP, p.farming.HVLP)
	history.HVLP.Deposited = history.HVLP.Deposited.Add(p.value)

	mirrorPool(p)
	p.history.HVLP.Deposited = p.history.HVLP.Deposited.Add(p.value)

	s.Save(user)
	s.Save(pool)
	s.Save(round)
	s.Save(p.farming)
	s.Save(history)
	s.Save(p.history)
	return nil
}

// Withdraw applies a farm Withdraw from the given round.
func (h *Handler) Withdraw(ctx context.Context, s *storage.Session, ev events.FarmWithdraw) error {
	p, err := h.open(ctx, s, ev.Meta, ev.User, ev.Amount, ev.RoundID, ev.Rewards)
	if err != nil {
		return err
	}
	pool, round := p.pool, p.round
	ts := p.block.Timestamp

	poolRemoved, err := pool.HVLP.Withdraw(ts, p.value)
	if err != nil {
		h.warnPosition("pool hvlp", pool.ID, p, err)
	}
	if _, err := round.HVLP.Withdraw(ts, p.value); err != nil {
		h.warnPosition("round hvlp", round.ID, p, err)
	}

	user, amount, entryRound, err := h.refreshUser(ctx, s, p)
	if err != nil {
		return err
	}
	h.harvest(ctx, p, user)
	user.Amount = amount
	user.EntryRound = entryRound

	if p.amount.Sign() > 0 {
		if usd, ok := h.prices.PairShareUSD(ctx, common.HexToAddress(pool.Pair), p.amount, p.block.Number); ok {
			user.ExitUSD = user.ExitUSD.Add(usd)
			pool.ExitUSD = pool.ExitUSD.Add(usd)
			round.ExitUSD = round.ExitUSD.Add(usd)
		} else {
			h.logger.Info("withdraw reserves unavailable", zap.String("pair", pool.Pair), zap.String("tx", p.tx))
		}
	}

	if user.Amount.Sign() == 0 && user.Pool != nil {
		user.Pool = nil
		if pool.UserCount > 0 {
			pool.UserCount--
		}
	}

	farmingRemoved, err := p.farming.HVLP.Withdraw(ts, p.value)
	if err != nil {
		h.warnPosition("farming hvlp", p.farming.ID, p, err)
	}
	h.refreshRewards(ctx, p)

	history, err := h.getHistory(ctx, s, p.block)
	if err != nil {
		return err
	}
	mirror(&history.HVLP, p.farming.HVLP)
	history.HVLP.AgeRemoved = history.HVLP.AgeRemoved.Add(farmingRemoved)
	history.HVLP.Withdrawn = history.HVLP.Withdrawn.Add(p.value)

	mirrorPool(p)
	p.history.HVLP.AgeRemoved = p.history.HVLP.AgeRemoved.Add(poolRemoved)
	p.history.HVLP.Withdrawn = p.history.HVLP.Withdrawn.Add(p.value)

	s.Save(user)
	s.Save(pool)
	s.Save(round)
	s.Save(p.farming)
	s.Save(history)
	s.Save(p.history)
	return nil
}

// harvest credits the rewards the farm paid out with this event, when the
// user already held a position.
func (h *Handler) harvest(ctx context.Context, p *position, user *model.FarmUser) {
	if p.block.Number <= h.net.FarmingStartBlock || user.Amount.Sign() <= 0 || !p.rewards.IsPositive() {
		return
	}
	usd := p.rewards.Mul(h.prices.MoneyPrice(ctx, p.block.Number))
	user.MoneyHarvested = user.MoneyHarvested.Add(p.rewards)
	user.MoneyHarvestedUSD = user.MoneyHarvestedUSD.Add(usd)
	p.pool.MoneyHarvested = p.pool.MoneyHarvested.Add(p.rewards)
	p.pool.MoneyHarvestedUSD = p.pool.MoneyHarvestedUSD.Add(usd)
	p.round.MoneyHarvested = p.round.MoneyHarvested.Add(p.rewards)
	p.round.MoneyHarvestedUSD = p.round.MoneyHarvestedUSD.Add(usd)
}

func (h *Handler) refreshRewards(ctx context.Context, p *position) {
	available, err := h.chain.AvailableRewards(ctx, p.farm, p.block.Number)
	if err != nil {
		h.logger.Warn("available rewards unavailable", zap.String("farm", p.pool.ID), zap.Error(err))
		return
	}
	p.farming.AvailableRewards = available
}

func (h *Handler) warnPosition(scope, id string, p *position, err error) {
	h.logger.Warn("accumulator update skipped",
		zap.String("scope", scope),
		zap.String("id", id),
		zap.Uint64("block", p.block.Number),
		zap.String("tx", p.tx),
		zap.Error(err),
	)
}

func mirror(dst *weighted.Position, src weighted.Position) {
	dst.Balance = src.Balance
	dst.Age = src.Age
	dst.UpdatedAt = src.UpdatedAt
}

// mirrorPool snapshots the farm into its day bucket; the bucket balance is
// the LP the farm actually holds.
func mirrorPool(p *position) {
	pool, history := p.pool, p.history
	mirror(&history.HVLP, pool.HVLP)
	history.HVLP.Balance = decimal.NewFromBigInt(pool.Balance, -18)
	history.UserCount = pool.UserCount
	history.EntryUSD = pool.EntryUSD
	history.ExitUSD = pool.ExitUSD
	history.MoneyHarvested = pool.MoneyHarvested
	history.MoneyHarvestedUSD = pool.MoneyHarvestedUSD
}
