package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"moneyScope/internal/model"
)

// Family identifies which contract ABI a record is decoded against.
type Family string

const (
	FamilyBar         Family = "bar"
	FamilyMasterChef  Family = "masterchef"
	FamilyFarmFactory Family = "farmfactory"
	FamilyFarm        Family = "farm"
)

// Meta carries the ambient metadata of a decoded log or call.
type Meta struct {
	Block    model.Block
	TxHash   string
	TxIndex  uint64
	Index    uint64
	Address  common.Address
	Name     string
	Topic0   string
	Selector string
}

// EventMeta returns the embedded metadata.
func (m Meta) EventMeta() Meta { return m }

// Event is any decoded log or call.
type Event interface {
	EventMeta() Meta
}

// Transfer is the bar's ERC20 Transfer log.
type Transfer struct {
	Meta
	From  common.Address
	To    common.Address
	Value *big.Int
}

// ChefDeposit is a MasterChef Deposit log.
type ChefDeposit struct {
	Meta
	User   common.Address
	Pid    *big.Int
	Amount *big.Int
}

// ChefWithdraw is a MasterChef Withdraw log.
type ChefWithdraw struct {
	Meta
	User   common.Address
	Pid    *big.Int
	Amount *big.Int
}

// ChefEmergencyWithdraw is a MasterChef EmergencyWithdraw log.
type ChefEmergencyWithdraw struct {
	Meta
	User   common.Address
	Pid    *big.Int
	Amount *big.Int
}

// OwnershipTransferred is emitted by the MasterChef and the farm factory.
type OwnershipTransferred struct {
	Meta
	PreviousOwner common.Address
	NewOwner      common.Address
}

// NewPool is the farm factory log announcing a farm template instance.
type NewPool struct {
	Meta
	Farm         common.Address
	LPToken      common.Address
	AllocPoint   *big.Int
	DepositFeeBP uint16
}

// UpdatePool is the farm factory log changing a farm's weight.
type UpdatePool struct {
	Meta
	Farm         common.Address
	AllocPoint   *big.Int
	DepositFeeBP uint16
}

// FarmDeposit is a farm template Deposit log.
type FarmDeposit struct {
	Meta
	User    common.Address
	Amount  *big.Int
	RoundID *big.Int
	Rewards *big.Int
}

// FarmWithdraw is a farm template Withdraw log.
type FarmWithdraw struct {
	Meta
	User    common.Address
	Amount  *big.Int
	RoundID *big.Int
	Rewards *big.Int
}

// PoolUpdated is a farm template log emitted when rewards are settled.
type PoolUpdated struct {
	Meta
	RoundID          *big.Int
	AccMoneyPerShare *big.Int
}

// ChefAdd is a MasterChef add call.
type ChefAdd struct {
	Meta
	AllocPoint   *big.Int
	LPToken      common.Address
	DepositFeeBP uint16
	WithUpdate   bool
}

// ChefSet is a MasterChef set call.
type ChefSet struct {
	Meta
	Pid          *big.Int
	AllocPoint   *big.Int
	DepositFeeBP uint16
	WithUpdate   bool
}

// ChefUpdatePool is a MasterChef updatePool call.
type ChefUpdatePool struct {
	Meta
	Pid *big.Int
}

// MassUpdatePools is a MasterChef massUpdatePools call.
type MassUpdatePools struct {
	Meta
}

// TransferOwnership is a transferOwnership call on the MasterChef (dev
// address) or the farm factory (owner).
type TransferOwnership struct {
	Meta
	NewOwner common.Address
}

// PullRewards is a farm factory pullRewards call with its return value.
type PullRewards struct {
	Meta
	RewardAccumulated *big.Int
}

type UpdateReserveDistributionSchedule struct {
	Meta
	Schedule *big.Int
}

type SetReserveAddress struct {
	Meta
	Reserve common.Address
}

type SetFeeAddress struct {
	Meta
	FeeAddress common.Address
}
