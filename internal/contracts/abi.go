package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const pairABIJSON = `[
  {"inputs": [], "name": "getReserves", "outputs": [{"name": "reserve0", "type": "uint112"}, {"name": "reserve1", "type": "uint112"}, {"name": "blockTimestampLast", "type": "uint32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "token0", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "token1", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalSupply", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "owner", "type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const factoryABIJSON = `[
  {"inputs": [{"name": "tokenA", "type": "address"}, {"name": "tokenB", "type": "address"}], "name": "getPair", "outputs": [{"name": "pair", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIStringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalSupply", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "owner", "type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

const barABIJSON = `[
  {"anonymous": false, "inputs": [{"indexed": true, "name": "from", "type": "address"}, {"indexed": true, "name": "to", "type": "address"}, {"indexed": false, "name": "value", "type": "uint256"}], "name": "Transfer", "type": "event"},
  {"inputs": [], "name": "money", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"}
]`

const masterChefABIJSON = `[
  {"anonymous": false, "inputs": [{"indexed": true, "name": "user", "type": "address"}, {"indexed": true, "name": "pid", "type": "uint256"}, {"indexed": false, "name": "amount", "type": "uint256"}], "name": "Deposit", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": true, "name": "user", "type": "address"}, {"indexed": true, "name": "pid", "type": "uint256"}, {"indexed": false, "name": "amount", "type": "uint256"}], "name": "Withdraw", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": true, "name": "user", "type": "address"}, {"indexed": true, "name": "pid", "type": "uint256"}, {"indexed": false, "name": "amount", "type": "uint256"}], "name": "EmergencyWithdraw", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": true, "name": "previousOwner", "type": "address"}, {"indexed": true, "name": "newOwner", "type": "address"}], "name": "OwnershipTransferred", "type": "event"},
  {"inputs": [], "name": "owner", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "money", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalAllocPoint", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "poolLength", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "", "type": "uint256"}], "name": "poolInfo", "outputs": [{"name": "lpToken", "type": "address"}, {"name": "allocPoint", "type": "uint256"}, {"name": "lastRewardBlock", "type": "uint256"}, {"name": "accMoneyPerShare", "type": "uint256"}, {"name": "depositFeeBP", "type": "uint16"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "", "type": "uint256"}, {"name": "", "type": "address"}], "name": "userInfo", "outputs": [{"name": "amount", "type": "uint256"}, {"name": "rewardDebt", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "_allocPoint", "type": "uint256"}, {"name": "_lpToken", "type": "address"}, {"name": "_depositFeeBP", "type": "uint16"}, {"name": "_withUpdate", "type": "bool"}], "name": "add", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "_pid", "type": "uint256"}, {"name": "_allocPoint", "type": "uint256"}, {"name": "_depositFeeBP", "type": "uint16"}, {"name": "_withUpdate", "type": "bool"}], "name": "set", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "_pid", "type": "uint256"}], "name": "updatePool", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [], "name": "massUpdatePools", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "newOwner", "type": "address"}], "name": "transferOwnership", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

const farmFactoryABIJSON = `[
  {"anonymous": false, "inputs": [{"indexed": true, "name": "farm", "type": "address"}, {"indexed": true, "name": "lpToken", "type": "address"}, {"indexed": false, "name": "allocPoint", "type": "uint256"}, {"indexed": false, "name": "depositFeeBP", "type": "uint16"}], "name": "NewPool", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": true, "name": "farm", "type": "address"}, {"indexed": false, "name": "allocPoint", "type": "uint256"}, {"indexed": false, "name": "depositFeeBP", "type": "uint16"}], "name": "UpdatePool", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": true, "name": "previousOwner", "type": "address"}, {"indexed": true, "name": "newOwner", "type": "address"}], "name": "OwnershipTransferred", "type": "event"},
  {"inputs": [], "name": "owner", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "money", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "feeAddress", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "reserve", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalAllocPoint", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "reserveDistributionSchedule", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "lastReserveDistributionTimestamp", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "depositPeriod", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "globalRoundId", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "pullRewards", "outputs": [{"name": "rewardAccumulated", "type": "uint256"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "newOwner", "type": "address"}], "name": "transferOwnership", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "_reserveDistributionSchedule", "type": "uint256"}], "name": "updateReserveDistributionSchedule", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "_reserveAddress", "type": "address"}], "name": "setReserveAddress", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "_feeAddress", "type": "address"}], "name": "setFeeAddress", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

const farmABIJSON = `[
  {"anonymous": false, "inputs": [{"indexed": true, "name": "user", "type": "address"}, {"indexed": false, "name": "amount", "type": "uint256"}, {"indexed": false, "name": "roundId", "type": "uint256"}, {"indexed": false, "name": "rewards", "type": "uint256"}], "name": "Deposit", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": true, "name": "user", "type": "address"}, {"indexed": false, "name": "amount", "type": "uint256"}, {"indexed": false, "name": "roundId", "type": "uint256"}, {"indexed": false, "name": "rewards", "type": "uint256"}], "name": "Withdraw", "type": "event"},
  {"anonymous": false, "inputs": [{"indexed": false, "name": "roundId", "type": "uint256"}, {"indexed": false, "name": "accMoneyPerShare", "type": "uint256"}], "name": "PoolUpdated", "type": "event"},
  {"inputs": [], "name": "lpToken", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "poolStartTime", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "globalRoundId", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "allocPoint", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "depositFeeBP", "outputs": [{"type": "uint16"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "farmId", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "availableRewards", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getCurrentRoundId", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "roundId", "type": "uint256"}], "name": "getMoneyPerShare", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "roundId", "type": "uint256"}], "name": "getPoolDeposits", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "", "type": "address"}], "name": "userInfo", "outputs": [{"name": "amount", "type": "uint256"}, {"name": "entryRound", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

type lazyABI struct {
	json   string
	once   sync.Once
	parsed abi.ABI
	err    error
}

func (l *lazyABI) get() (abi.ABI, error) {
	l.once.Do(func() {
		l.parsed, l.err = abi.JSON(strings.NewReader(l.json))
	})
	return l.parsed, l.err
}

var (
	pairABI         = &lazyABI{json: pairABIJSON}
	factoryABI      = &lazyABI{json: factoryABIJSON}
	erc20StringABI  = &lazyABI{json: erc20ABIStringJSON}
	erc20Bytes32ABI = &lazyABI{json: erc20ABIBytes32JSON}
	barABI          = &lazyABI{json: barABIJSON}
	masterChefABI   = &lazyABI{json: masterChefABIJSON}
	farmFactoryABI  = &lazyABI{json: farmFactoryABIJSON}
	farmABI         = &lazyABI{json: farmABIJSON}
)

// PairABI returns the parsed liquidity pair ABI.
func PairABI() (abi.ABI, error) { return pairABI.get() }

// FactoryABI returns the parsed pair factory ABI.
func FactoryABI() (abi.ABI, error) { return factoryABI.get() }

// ERC20ABI returns the parsed ERC20 ABI with string metadata.
func ERC20ABI() (abi.ABI, error) { return erc20StringABI.get() }

// BarABI returns the staking bar ABI.
func BarABI() (abi.ABI, error) { return barABI.get() }

// MasterChefABI returns the MasterChef ABI.
func MasterChefABI() (abi.ABI, error) { return masterChefABI.get() }

// FarmFactoryABI returns the farm factory ABI.
func FarmFactoryABI() (abi.ABI, error) { return farmFactoryABI.get() }

// FarmABI returns the farm template ABI.
func FarmABI() (abi.ABI, error) { return farmABI.get() }
