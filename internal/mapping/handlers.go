package mapping

import (
	"context"

	"moneyScope/internal/events"
	"moneyScope/internal/storage"
)

// BarHandler maps the xMoney token.
type BarHandler interface {
	Transfer(ctx context.Context, s *storage.Session, ev events.Transfer) error
}

// ChefHandler maps the MasterChef.
type ChefHandler interface {
	Add(ctx context.Context, s *storage.Session, call events.ChefAdd) error
	Set(ctx context.Context, s *storage.Session, call events.ChefSet) error
	UpdatePool(ctx context.Context, s *storage.Session, call events.ChefUpdatePool) error
	MassUpdatePools(ctx context.Context, s *storage.Session, call events.MassUpdatePools) error
	TransferOwnership(ctx context.Context, s *storage.Session, call events.TransferOwnership) error
	OwnershipTransferred(ctx context.Context, s *storage.Session, ev events.OwnershipTransferred) error
	Deposit(ctx context.Context, s *storage.Session, ev events.ChefDeposit) error
	Withdraw(ctx context.Context, s *storage.Session, ev events.ChefWithdraw) error
	EmergencyWithdraw(ctx context.Context, s *storage.Session, ev events.ChefEmergencyWithdraw) error
}

// LockupHandler maps the lockup snapshot off MasterChef traffic.
type LockupHandler interface {
	Set(ctx context.Context, s *storage.Session, call events.ChefSet) error
	Deposit(ctx context.Context, s *storage.Session, ev events.ChefDeposit) error
	Withdraw(ctx context.Context, s *storage.Session, ev events.ChefWithdraw) error
}

// FarmingHandler maps the farm factory and its farms.
type FarmingHandler interface {
	NewPool(ctx context.Context, s *storage.Session, ev events.NewPool) error
	UpdatePool(ctx context.Context, s *storage.Session, ev events.UpdatePool) error
	OwnershipTransferred(ctx context.Context, s *storage.Session, ev events.OwnershipTransferred) error
	PullRewards(ctx context.Context, s *storage.Session, call events.PullRewards) error
	TransferOwnership(ctx context.Context, s *storage.Session, call events.TransferOwnership) error
	UpdateReserveDistributionSchedule(ctx context.Context, s *storage.Session, call events.UpdateReserveDistributionSchedule) error
	SetReserveAddress(ctx context.Context, s *storage.Session, call events.SetReserveAddress) error
	SetFeeAddress(ctx context.Context, s *storage.Session, call events.SetFeeAddress) error
	PoolUpdated(ctx context.Context, s *storage.Session, ev events.PoolUpdated) error
	Deposit(ctx context.Context, s *storage.Session, ev events.FarmDeposit) error
	Withdraw(ctx context.Context, s *storage.Session, ev events.FarmWithdraw) error
}

// Handlers wires one handler per family. A nil handler disables its family.
type Handlers struct {
	Bar        BarHandler
	MasterChef ChefHandler
	Lockup     LockupHandler
	Farming    FarmingHandler
}

// invocation is one handler call over its own session.
type invocation struct {
	family events.Family
	name   string
	run    func(ctx context.Context, s *storage.Session) error
	// register marks a successful NewPool so the farm's logs start routing.
	register *events.NewPool
}

// plan lists the handler invocations a decoded event triggers, in order.
func (h Handlers) plan(family events.Family, ev events.Event) []invocation {
	name := ev.EventMeta().Name
	one := func(run func(context.Context, *storage.Session) error) []invocation {
		return []invocation{{family: family, name: name, run: run}}
	}

	switch family {
	case events.FamilyBar:
		if h.Bar == nil {
			return nil
		}
		if e, ok := ev.(events.Transfer); ok {
			return one(func(ctx context.Context, s *storage.Session) error { return h.Bar.Transfer(ctx, s, e) })
		}
	case events.FamilyMasterChef:
		return h.planChef(ev)
	case events.FamilyFarmFactory, events.FamilyFarm:
		if h.Farming == nil {
			return nil
		}
		return h.planFarming(family, ev)
	}
	return nil
}

func (h Handlers) planChef(ev events.Event) []invocation {
	name := ev.EventMeta().Name
	var out []invocation
	chef := func(run func(context.Context, *storage.Session) error) {
		if h.MasterChef != nil {
			out = append(out, invocation{family: events.FamilyMasterChef, name: name, run: run})
		}
	}
	lockup := func(run func(context.Context, *storage.Session) error) {
		if h.Lockup != nil {
			out = append(out, invocation{family: "lockup", name: name, run: run})
		}
	}

	switch e := ev.(type) {
	case events.ChefAdd:
		chef(func(ctx context.Context, s *storage.Session) error { return h.MasterChef.Add(ctx, s, e) })
	case events.ChefSet:
		chef(func(ctx context.Context, s *storage.Session) error { return h.MasterChef.Set(ctx, s, e) })
		lockup(func(ctx context.Context, s *storage.Session) error { return h.Lockup.Set(ctx, s, e) })
	case events.ChefUpdatePool:
		chef(func(ctx context.Context, s *storage.Session) error { return h.MasterChef.UpdatePool(ctx, s, e) })
	case events.MassUpdatePools:
		chef(func(ctx context.Context, s *storage.Session) error { return h.MasterChef.MassUpdatePools(ctx, s, e) })
	case events.TransferOwnership:
		chef(func(ctx context.Context, s *storage.Session) error { return h.MasterChef.TransferOwnership(ctx, s, e) })
	case events.OwnershipTransferred:
		chef(func(ctx context.Context, s *storage.Session) error { return h.MasterChef.OwnershipTransferred(ctx, s, e) })
	case events.ChefDeposit:
		chef(func(ctx context.Context, s *storage.Session) error { return h.MasterChef.Deposit(ctx, s, e) })
		lockup(func(ctx context.Context, s *storage.Session) error { return h.Lockup.Deposit(ctx, s, e) })
	case events.ChefWithdraw:
		chef(func(ctx context.Context, s *storage.Session) error { return h.MasterChef.Withdraw(ctx, s, e) })
		lockup(func(ctx context.Context, s *storage.Session) error { return h.Lockup.Withdraw(ctx, s, e) })
	case events.ChefEmergencyWithdraw:
		chef(func(ctx context.Context, s *storage.Session) error { return h.MasterChef.EmergencyWithdraw(ctx, s, e) })
	}
	return out
}

func (h Handlers) planFarming(family events.Family, ev events.Event) []invocation {
	name := ev.EventMeta().Name
	inv := invocation{family: family, name: name}
	f := h.Farming

	switch e := ev.(type) {
	case events.NewPool:
		inv.run = func(ctx context.Context, s *storage.Session) error { return f.NewPool(ctx, s, e) }
		inv.register = &e
	case events.UpdatePool:
		inv.run = func(ctx context.Context, s *storage.Session) error { return f.UpdatePool(ctx, s, e) }
	case events.OwnershipTransferred:
		inv.run = func(ctx context.Context, s *storage.Session) error { return f.OwnershipTransferred(ctx, s, e) }
	case events.PullRewards:
		inv.run = func(ctx context.Context, s *storage.Session) error { return f.PullRewards(ctx, s, e) }
	case events.TransferOwnership:
		inv.run = func(ctx context.Context, s *storage.Session) error { return f.TransferOwnership(ctx, s, e) }
	case events.UpdateReserveDistributionSchedule:
		inv.run = func(ctx context.Context, s *storage.Session) error { return f.UpdateReserveDistributionSchedule(ctx, s, e) }
	case events.SetReserveAddress:
		inv.run = func(ctx context.Context, s *storage.Session) error { return f.SetReserveAddress(ctx, s, e) }
	case events.SetFeeAddress:
		inv.run = func(ctx context.Context, s *storage.Session) error { return f.SetFeeAddress(ctx, s, e) }
	case events.PoolUpdated:
		inv.run = func(ctx context.Context, s *storage.Session) error { return f.PoolUpdated(ctx, s, e) }
	case events.FarmDeposit:
		inv.run = func(ctx context.Context, s *storage.Session) error { return f.Deposit(ctx, s, e) }
	case events.FarmWithdraw:
		inv.run = func(ctx context.Context, s *storage.Session) error { return f.Withdraw(ctx, s, e) }
	default:
		return nil
	}
	return []invocation{inv}
}
