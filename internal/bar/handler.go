// Package bar maps transfers of the xMoney staking receipt token into the Bar,
// BarUser and BarHistory entities.
package bar

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
	"moneyScope/internal/model"
	"moneyScope/internal/storage"
)

// divPrecision is the number of decimal places kept by the bar ratio.
const divPrecision = 36

// Chain is the subset of contract reads the bar mapping needs.
type Chain interface {
	TotalSupply(ctx context.Context, token common.Address, block uint64) (*big.Int, error)
	BalanceOf(ctx context.Context, token, owner common.Address, block uint64) (*big.Int, error)
	TokenMeta(ctx context.Context, token common.Address, block uint64) (contracts.TokenMeta, error)
	Money(ctx context.Context, contract common.Address, block uint64) (common.Address, error)
}

// Pricer prices the money token.
type Pricer interface {
	MoneyPrice(ctx context.Context, block uint64) decimal.Decimal
}

// Handler maps bar events.
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

// Transfer applies an xMoney Transfer. Mints stake money into the bar, burns
// harvest it, and address-to-address transfers move age between users.
func (h *Handler) Transfer(ctx context.Context, s *storage.Session, ev events.Transfer) error {
	value := decimal.NewFromBigInt(ev.Value, -18)
	if value.IsZero() {
		h.logger.Warn("transfer zero value", zap.String("value", ev.Value.String()), zap.String("tx", ev.TxHash))
		return nil
	}

	block := ev.Block
	barAddr := ev.Address
	bar, err := h.getBar(ctx, s, barAddr, block)
	if err != nil {
		return err
	}

	moneyPrice := h.prices.MoneyPrice(ctx, block.Number)

	supply, err := h.chain.TotalSupply(ctx, barAddr, block.Number)
	if err != nil {
		return fmt.Errorf("read bar totalSupply: %w", err)
	}
	staked, err := h.chain.BalanceOf(ctx, h.net.MoneyToken, barAddr, block.Number)
	if err != nil {
		return fmt.Errorf("read bar money balance: %w", err)
	}
	bar.TotalSupply = decimal.NewFromBigInt(supply, -18)
	bar.MoneyStaked = decimal.NewFromBigInt(staked, -18)
	if bar.TotalSupply.IsZero() {
		h.logger.Warn("bar supply is zero, ratio unset", zap.Uint64("block", block.Number), zap.String("tx", ev.TxHash))
		bar.Ratio = decimal.Zero
	} else {
		bar.Ratio = bar.MoneyStaked.DivRound(bar.TotalSupply, divPrecision)
	}

	what := value.Mul(bar.Ratio)
	zero := common.Address{}

	switch {
	case ev.From == zero:
		if err := h.mint(ctx, s, bar, ev, value, what, moneyPrice); err != nil {
			return err
		}
	case ev.To == zero:
		if err := h.burn(ctx, s, bar, ev, value, what, moneyPrice); err != nil {
			return err
		}
	default:
		if err := h.move(ctx, s, bar, ev, value, what, moneyPrice); err != nil {
			return err
		}
	}

	s.Save(bar)
	return nil
}

func (h *Handler) mint(ctx context.Context, s *storage.Session, bar *model.Bar, ev events.Transfer, value, what, price decimal.Decimal) error {
	ts := ev.Block.Timestamp
	user, err := h.getUser(ctx, s, ev.To, ts)
	if err != nil {
		return err
	}

	h.logger.Info("minted xMoney",
		zap.String("user", user.ID),
		zap.String("xMoney", value.String()),
		zap.String("money", what.String()),
	)

	if user.XMoney.Balance.IsZero() {
		h.logger.Info("user entered the bar", zap.String("user", user.ID))
		user.Bar = model.StringRef(bar.ID)
	}

	stakedUSD := what.Mul(price)
	user.MoneyStaked = user.MoneyStaked.Add(what)
	user.MoneyStakedUSD = user.MoneyStakedUSD.Add(stakedUSD)
	if err := user.XMoney.Deposit(ts, value); err != nil {
		h.warnPosition("user xMoney", user.ID, ev, err)
	}
	s.Save(user)

	if err := bar.XMoney.Deposit(ts, value); err != nil {
		h.warnPosition("bar xMoney", bar.ID, ev, err)
	}
	bar.MoneyStakedUSD = bar.MoneyStakedUSD.Add(stakedUSD)

	history, err := h.getHistory(ctx, s, bar.ID, ts)
	if err != nil {
		return err
	}
	history.XMoneyAge = bar.XMoney.Age
	history.XMoneyMinted = history.XMoneyMinted.Add(value)
	history.XMoneySupply = bar.TotalSupply
	history.MoneyStaked = history.MoneyStaked.Add(what)
	history.MoneyStakedUSD = history.MoneyStakedUSD.Add(stakedUSD)
	history.Ratio = bar.Ratio
	s.Save(history)
	return nil
}

func (h *Handler) burn(ctx context.Context, s *storage.Session, bar *model.Bar, ev events.Transfer, value, what, price decimal.Decimal) error {
	ts := ev.Block.Timestamp
	user, err := h.getUser(ctx, s, ev.From, ts)
	if err != nil {
		return err
	}

	h.logger.Info("burned xMoney", zap.String("user", user.ID), zap.String("xMoney", value.String()))

	harvestedUSD := what.Mul(price)
	user.MoneyHarvested = user.MoneyHarvested.Add(what)
	user.MoneyHarvestedUSD = user.MoneyHarvestedUSD.Add(harvestedUSD)

	destroyed, withdrawErr := user.XMoney.Withdraw(ts, value)
	if withdrawErr != nil {
		h.warnPosition("user xMoney", user.ID, ev, withdrawErr)
	}
	if user.XMoney.Balance.IsZero() {
		h.logger.Info("user left the bar", zap.String("user", user.ID))
		user.Bar = nil
	}
	s.Save(user)

	// the bar position only gives up what some user position gave up
	if withdrawErr == nil {
		if err := bar.XMoney.WithdrawAge(ts, value, destroyed); err != nil {
			h.warnPosition("bar xMoney", bar.ID, ev, err)
		}
	}
	bar.MoneyHarvested = bar.MoneyHarvested.Add(what)
	bar.MoneyHarvestedUSD = bar.MoneyHarvestedUSD.Add(harvestedUSD)

	history, err := h.getHistory(ctx, s, bar.ID, ts)
	if err != nil {
		return err
	}
	history.XMoneySupply = bar.TotalSupply
	history.XMoneyBurned = history.XMoneyBurned.Add(value)
	history.XMoneyAge = bar.XMoney.Age
	history.XMoneyAgeDestroyed = history.XMoneyAgeDestroyed.Add(destroyed)
	history.MoneyHarvested = history.MoneyHarvested.Add(what)
	history.MoneyHarvestedUSD = history.MoneyHarvestedUSD.Add(harvestedUSD)
	history.Ratio = bar.Ratio
	s.Save(history)
	return nil
}

// move handles a transfer between two holders. The receiver's net inflow
// beyond its offset is attributed to moneyStaked at the current ratio, and the
// offset absorbs it so later transfers do not count it again.
func (h *Handler) move(ctx context.Context, s *storage.Session, bar *model.Bar, ev events.Transfer, value, what, price decimal.Decimal) error {
	ts := ev.Block.Timestamp
	h.logger.Info("transferred xMoney",
		zap.String("from", model.AddressID(ev.From)),
		zap.String("to", model.AddressID(ev.To)),
		zap.String("xMoney", value.String()),
	)

	from, err := h.getUser(ctx, s, ev.From, ts)
	if err != nil {
		return err
	}
	moved, err := from.XMoney.TransferOut(ts, value)
	if err != nil {
		// nothing left the sender, so nothing reaches the receiver
		h.warnPosition("user xMoney", from.ID, ev, err)
		return nil
	}
	usd := what.Mul(price)
	from.XMoneyOut = from.XMoneyOut.Add(value)
	from.MoneyOut = from.MoneyOut.Add(what)
	from.USDOut = from.USDOut.Add(usd)
	if from.XMoney.Balance.IsZero() {
		h.logger.Info("user left the bar by transfer out", zap.String("user", from.ID))
		from.Bar = nil
	}
	s.Save(from)

	to, err := h.getUser(ctx, s, ev.To, ts)
	if err != nil {
		return err
	}
	if to.Bar == nil {
		h.logger.Info("user entered the bar by transfer in", zap.String("user", to.ID))
		to.Bar = model.StringRef(bar.ID)
	}
	if err := to.XMoney.TransferIn(ts, value, moved); err != nil {
		h.warnPosition("user xMoney", to.ID, ev, err)
	}
	to.XMoneyIn = to.XMoneyIn.Add(value)
	to.MoneyIn = to.MoneyIn.Add(what)
	to.USDIn = to.USDIn.Add(usd)

	difference := to.XMoneyIn.Sub(to.XMoneyOut).Sub(to.XMoneyOffset)
	if difference.IsPositive() {
		money := to.MoneyIn.Sub(to.MoneyOut).Sub(to.MoneyOffset)
		usdDiff := to.USDIn.Sub(to.USDOut).Sub(to.USDOffset)

		to.MoneyStaked = to.MoneyStaked.Add(money)
		to.MoneyStakedUSD = to.MoneyStakedUSD.Add(usdDiff)
		to.XMoneyOffset = to.XMoneyOffset.Add(difference)
		to.MoneyOffset = to.MoneyOffset.Add(money)
		to.USDOffset = to.USDOffset.Add(usdDiff)
	}
	s.Save(to)
	return nil
}

func (h *Handler) getBar(ctx context.Context, s *storage.Session, addr common.Address, block model.Block) (*model.Bar, error) {
	id := model.AddressID(addr)
	bar, created, err := storage.LoadOrCreate(ctx, s, id, func() *model.Bar {
		return model.NewBar(id, block.Timestamp)
	})
	if err != nil {
		return nil, err
	}
	if !created {
		return bar, nil
	}

	if meta, err := h.chain.TokenMeta(ctx, addr, block.Number); err == nil {
		bar.Decimals = meta.Decimals
		bar.Name = meta.Name
		bar.Symbol = meta.Symbol
	} else {
		h.logger.Warn("bar metadata unavailable", zap.String("bar", id), zap.Error(err))
	}
	if money, err := h.chain.Money(ctx, addr, block.Number); err == nil {
		bar.Money = model.AddressID(money)
	} else {
		bar.Money = model.AddressID(h.net.MoneyToken)
	}
	return bar, nil
}

func (h *Handler) getUser(ctx context.Context, s *storage.Session, addr common.Address, ts uint64) (*model.BarUser, error) {
	id := model.AddressID(addr)
	user, _, err := storage.LoadOrCreate(ctx, s, id, func() *model.BarUser {
		return model.NewBarUser(id, ts)
	})
	return user, err
}

func (h *Handler) getHistory(ctx context.Context, s *storage.Session, barID string, ts uint64) (*model.BarHistory, error) {
	id := model.DayBucketID(barID, ts)
	history, _, err := storage.LoadOrCreate(ctx, s, id, func() *model.BarHistory {
		return model.NewBarHistory(barID, ts)
	})
	return history, err
}

func (h *Handler) warnPosition(scope, id string, ev events.Transfer, err error) {
	h.logger.Warn("accumulator update skipped",
		zap.String("scope", scope),
		zap.String("id", id),
		zap.Uint64("block", ev.Block.Number),
		zap.String("tx", ev.TxHash),
		zap.Error(err),
	)
}
