package masterchef

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"moneyScope/internal/events"
	"moneyScope/internal/model"
	"moneyScope/internal/storage"
)

// Add registers the pool appended by an add call. The new pid is the chef's
// running poolCount.
func (h *Handler) Add(ctx context.Context, s *storage.Session, call events.ChefAdd) error {
	chef, created, err := h.loadMasterChef(ctx, s, call.Block)
	if err != nil {
		return err
	}
	count := chef.PoolCount
	if created {
		// state read at this block already includes the added pool
		if count == 0 {
			return fmt.Errorf("add pool: chef reports no pools: %w", ErrUnknownPool)
		}
		count--
	}
	pid := new(big.Int).SetUint64(count)
	h.logger.Info("add pool", zap.String("pid", pid.String()), zap.String("lpToken", model.AddressID(call.LPToken)))

	pool, err := h.getPool(ctx, s, pid, call.Block)
	if err != nil {
		return fmt.Errorf("add pool: %w", err)
	}

	if !created {
		chef.TotalAllocPoint = new(big.Int).Add(chef.TotalAllocPoint, pool.AllocPoint)
		chef.PoolCount++
	}
	s.Save(chef)
	return nil
}

// Set moves a pool's allocation and keeps the chef's total in step.
func (h *Handler) Set(ctx context.Context, s *storage.Session, call events.ChefSet) error {
	h.logger.Info("set pool",
		zap.String("pid", call.Pid.String()),
		zap.String("allocPoint", call.AllocPoint.String()),
		zap.Bool("withUpdate", call.WithUpdate),
	)

	pool, err := h.getPool(ctx, s, call.Pid, call.Block)
	if err != nil {
		return fmt.Errorf("set pool: %w", err)
	}
	chef, created, err := h.loadMasterChef(ctx, s, call.Block)
	if err != nil {
		return err
	}

	if !created {
		delta := new(big.Int).Sub(call.AllocPoint, pool.AllocPoint)
		chef.TotalAllocPoint = new(big.Int).Add(chef.TotalAllocPoint, delta)
	}
	pool.AllocPoint = new(big.Int).Set(call.AllocPoint)
	s.Save(chef)
	s.Save(pool)
	return nil
}

// UpdatePool refreshes a pool's reward accounting from poolInfo.
func (h *Handler) UpdatePool(ctx context.Context, s *storage.Session, call events.ChefUpdatePool) error {
	info, err := h.chain.PoolInfo(ctx, h.net.MasterChef, call.Pid, call.Block.Number)
	if err != nil {
		return fmt.Errorf("read poolInfo %s: %w", call.Pid, err)
	}
	pool, err := h.getPool(ctx, s, call.Pid, call.Block)
	if err != nil {
		return fmt.Errorf("update pool: %w", err)
	}
	pool.LastRewardBlock = info.LastRewardBlock
	pool.AccMoneyPerShare = info.AccMoneyPerShare
	s.Save(pool)
	return nil
}

// MassUpdatePools carries no per-pool data; pools refresh on their next event.
func (h *Handler) MassUpdatePools(_ context.Context, _ *storage.Session, call events.MassUpdatePools) error {
	h.logger.Info("mass update pools", zap.Uint64("block", call.Block.Number))
	return nil
}

// TransferOwnership records the chef's new dev address.
func (h *Handler) TransferOwnership(ctx context.Context, s *storage.Session, call events.TransferOwnership) error {
	h.logger.Info("dev changed", zap.String("newOwner", model.AddressID(call.NewOwner)))
	chef, err := h.getMasterChef(ctx, s, call.Block)
	if err != nil {
		return err
	}
	chef.Devaddr = model.AddressID(call.NewOwner)
	s.Save(chef)
	return nil
}

func (h *Handler) OwnershipTransferred(ctx context.Context, s *storage.Session, ev events.OwnershipTransferred) error {
	h.logger.Info("ownership transferred",
		zap.String("previousOwner", model.AddressID(ev.PreviousOwner)),
		zap.String("newOwner", model.AddressID(ev.NewOwner)),
	)
	chef, err := h.getMasterChef(ctx, s, ev.Block)
	if err != nil {
		return err
	}
	chef.Owner = model.AddressID(ev.NewOwner)
	s.Save(chef)
	return nil
}
