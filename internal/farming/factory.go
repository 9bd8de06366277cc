package farming

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"moneyScope/internal/events"
	"moneyScope/internal/model"
	"moneyScope/internal/storage"
)

// NewPool registers a farm deployed by the factory.
func (h *Handler) NewPool(ctx context.Context, s *storage.Session, ev events.NewPool) error {
	farming, created, err := h.loadFarming(ctx, s, ev.Block)
	if err != nil {
		return err
	}

	id := model.AddressID(ev.Farm)
	h.logger.Info("add farm", zap.String("farm", id), zap.Uint64("poolCount", farming.PoolCount))

	pool, found, err := storage.Load(ctx, s, id, func() *model.FarmPool {
		return model.NewFarmPool(id, farming.ID, ev.Block)
	})
	if err != nil {
		return err
	}
	if found {
		h.logger.Warn("farm already registered", zap.String("farm", id), zap.String("tx", ev.TxHash))
		return nil
	}

	info, err := h.chain.FarmInfo(ctx, ev.Farm, ev.Block.Number)
	if err != nil {
		return fmt.Errorf("read farm %s: %w", id, err)
	}
	pool.Pair = model.AddressID(ev.LPToken)
	pool.PoolStartTime = info.PoolStartTime
	pool.GlobalRoundID = info.GlobalRoundID
	pool.AllocPoint = new(big.Int).Set(ev.AllocPoint)
	pool.DepositFeeBP = ev.DepositFeeBP

	// factory state read at this block already counts the new farm
	if !created {
		farming.TotalAllocPoint = new(big.Int).Add(farming.TotalAllocPoint, pool.AllocPoint)
	}
	farming.LastReserveDistributionTimestamp = new(big.Int).SetUint64(ev.Block.Timestamp)
	farming.PoolCount++

	s.Save(pool)
	s.Save(farming)
	return nil
}

// UpdatePool moves a farm's allocation and fee.
func (h *Handler) UpdatePool(ctx context.Context, s *storage.Session, ev events.UpdatePool) error {
	pool, err := h.registeredPool(ctx, s, ev.Farm)
	if err != nil {
		return err
	}
	farming, created, err := h.loadFarming(ctx, s, ev.Block)
	if err != nil {
		return err
	}

	if !created {
		delta := new(big.Int).Sub(ev.AllocPoint, pool.AllocPoint)
		farming.TotalAllocPoint = new(big.Int).Add(farming.TotalAllocPoint, delta)
	}
	pool.AllocPoint = new(big.Int).Set(ev.AllocPoint)
	pool.DepositFeeBP = ev.DepositFeeBP

	s.Save(farming)
	s.Save(pool)
	return nil
}

// PullRewards opens the next global round and records the rewards it pulled.
func (h *Handler) PullRewards(ctx context.Context, s *storage.Session, call events.PullRewards) error {
	farming, err := h.getFarming(ctx, s, call.Block)
	if err != nil {
		return err
	}
	farming.GlobalRoundID = new(big.Int).Add(farming.GlobalRoundID, big.NewInt(1))
	farming.LastReserveDistributionTimestamp = new(big.Int).SetUint64(call.Block.Timestamp)
	farming.Rewards = append(farming.Rewards, new(big.Int).Set(call.RewardAccumulated))
	s.Save(farming)
	return nil
}

func (h *Handler) TransferOwnership(ctx context.Context, s *storage.Session, call events.TransferOwnership) error {
	h.logger.Info("farm factory owner changed", zap.String("newOwner", model.AddressID(call.NewOwner)))
	return h.updateFarming(ctx, s, call.Block, func(f *model.Farming) {
		f.Owner = model.AddressID(call.NewOwner)
	})
}

func (h *Handler) OwnershipTransferred(ctx context.Context, s *storage.Session, ev events.OwnershipTransferred) error {
	h.logger.Info("farm factory ownership transferred",
		zap.String("previousOwner", model.AddressID(ev.PreviousOwner)),
		zap.String("newOwner", model.AddressID(ev.NewOwner)),
	)
	return h.updateFarming(ctx, s, ev.Block, func(f *model.Farming) {
		f.Owner = model.AddressID(ev.NewOwner)
	})
}

func (h *Handler) UpdateReserveDistributionSchedule(ctx context.Context, s *storage.Session, call events.UpdateReserveDistributionSchedule) error {
	h.logger.Info("reserve distribution schedule changed", zap.String("schedule", call.Schedule.String()))
	return h.updateFarming(ctx, s, call.Block, func(f *model.Farming) {
		f.ReserveDistributionSchedule = new(big.Int).Set(call.Schedule)
	})
}

func (h *Handler) SetReserveAddress(ctx context.Context, s *storage.Session, call events.SetReserveAddress) error {
	h.logger.Info("reserve address changed", zap.String("reserve", model.AddressID(call.Reserve)))
	return h.updateFarming(ctx, s, call.Block, func(f *model.Farming) {
		f.Reserve = model.AddressID(call.Reserve)
	})
}

func (h *Handler) SetFeeAddress(ctx context.Context, s *storage.Session, call events.SetFeeAddress) error {
	h.logger.Info("fee address changed", zap.String("feeAddress", model.AddressID(call.FeeAddress)))
	return h.updateFarming(ctx, s, call.Block, func(f *model.Farming) {
		f.FeeAddress = model.AddressID(call.FeeAddress)
	})
}

func (h *Handler) updateFarming(ctx context.Context, s *storage.Session, block model.Block, apply func(*model.Farming)) error {
	farming, err := h.getFarming(ctx, s, block)
	if err != nil {
		return err
	}
	apply(farming)
	s.Save(farming)
	return nil
}
