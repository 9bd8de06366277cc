package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Caller performs eth_call at a block height.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reserves is the result of a pair's getReserves.
type Reserves struct {
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// TokenMeta holds ERC20 metadata.
type TokenMeta struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// PoolInfo is a MasterChef poolInfo row.
type PoolInfo struct {
	LPToken          common.Address
	AllocPoint       *big.Int
	LastRewardBlock  *big.Int
	AccMoneyPerShare *big.Int
	DepositFeeBP     uint16
}

// UserInfo is a MasterChef userInfo row.
type UserInfo struct {
	Amount     *big.Int
	RewardDebt *big.Int
}

// FactoryState is the farm factory configuration read when the Farming
// aggregate is first created.
type FactoryState struct {
	Owner                            common.Address
	Money                            common.Address
	FeeAddress                       common.Address
	Reserve                          common.Address
	TotalAllocPoint                  *big.Int
	ReserveDistributionSchedule      *big.Int
	LastReserveDistributionTimestamp *big.Int
	DepositPeriod                    *big.Int
	GlobalRoundID                    *big.Int
}

// FarmInfo is the immutable-ish configuration of a farm template contract.
type FarmInfo struct {
	LPToken       common.Address
	PoolStartTime *big.Int
	GlobalRoundID *big.Int
	AllocPoint    *big.Int
	DepositFeeBP  uint16
}

// FarmUserInfo is a farm userInfo row.
type FarmUserInfo struct {
	Amount     *big.Int
	EntryRound *big.Int
}

// Reader issues typed view calls against the protocol contracts. Every read is
// pinned to the block passed in; block 0 means latest.
type Reader struct {
	caller Caller
	logger *zap.Logger
}

func NewReader(caller Caller, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{caller: caller, logger: logger}
}

func (r *Reader) call(ctx context.Context, lazy *lazyABI, to common.Address, block uint64, method string, args ...interface{}) ([]interface{}, error) {
	if r.caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	parsed, err := lazy.get()
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	var blockPtr *big.Int
	if block > 0 {
		blockPtr = new(big.Int).SetUint64(block)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := r.caller.CallContract(ctx, msg, blockPtr)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s on %s: %w", method, to.Hex(), err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s on %s returned no values", method, to.Hex())
	}
	return values, nil
}

func (r *Reader) callUint(ctx context.Context, lazy *lazyABI, to common.Address, block uint64, method string, args ...interface{}) (*big.Int, error) {
	values, err := r.call(ctx, lazy, to, block, method, args...)
	if err != nil {
		return nil, err
	}
	v, err := AsBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return v, nil
}

func (r *Reader) callAddress(ctx context.Context, lazy *lazyABI, to common.Address, block uint64, method string, args ...interface{}) (common.Address, error) {
	values, err := r.call(ctx, lazy, to, block, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	v, err := AsAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", method, err)
	}
	return v, nil
}

// GetReserves reads a pair's reserves.
func (r *Reader) GetReserves(ctx context.Context, pair common.Address, block uint64) (Reserves, error) {
	values, err := r.call(ctx, pairABI, pair, block, "getReserves")
	if err != nil {
		return Reserves{}, err
	}
	if len(values) < 2 {
		return Reserves{}, fmt.Errorf("unexpected getReserves values: %d", len(values))
	}
	r0, err := AsBigInt(values[0])
	if err != nil {
		return Reserves{}, fmt.Errorf("reserve0: %w", err)
	}
	r1, err := AsBigInt(values[1])
	if err != nil {
		return Reserves{}, fmt.Errorf("reserve1: %w", err)
	}
	return Reserves{Reserve0: r0, Reserve1: r1}, nil
}

func (r *Reader) Token0(ctx context.Context, pair common.Address, block uint64) (common.Address, error) {
	return r.callAddress(ctx, pairABI, pair, block, "token0")
}

func (r *Reader) Token1(ctx context.Context, pair common.Address, block uint64) (common.Address, error) {
	return r.callAddress(ctx, pairABI, pair, block, "token1")
}

// TotalSupply reads an ERC20 (or LP token) total supply.
func (r *Reader) TotalSupply(ctx context.Context, token common.Address, block uint64) (*big.Int, error) {
	return r.callUint(ctx, erc20StringABI, token, block, "totalSupply")
}

// BalanceOf reads an ERC20 (or LP token) balance.
func (r *Reader) BalanceOf(ctx context.Context, token, owner common.Address, block uint64) (*big.Int, error) {
	return r.callUint(ctx, erc20StringABI, token, block, "balanceOf", owner)
}

// GetPair looks up the pair of two tokens in a factory; zero address means none.
func (r *Reader) GetPair(ctx context.Context, factory, tokenA, tokenB common.Address, block uint64) (common.Address, error) {
	return r.callAddress(ctx, factoryABI, factory, block, "getPair", tokenA, tokenB)
}

// Decimals reads an ERC20's decimals.
func (r *Reader) Decimals(ctx context.Context, token common.Address, block uint64) (uint8, error) {
	values, err := r.call(ctx, erc20StringABI, token, block, "decimals")
	if err != nil {
		return 0, err
	}
	return asUint8(values[0])
}

// TokenMeta loads token metadata, falling back to bytes32 name and symbol.
func (r *Reader) TokenMeta(ctx context.Context, token common.Address, block uint64) (TokenMeta, error) {
	var meta TokenMeta
	decimals, err := r.Decimals(ctx, token, block)
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := r.call(ctx, erc20StringABI, token, block, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := r.call(ctx, erc20Bytes32ABI, token, block, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		r.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := r.call(ctx, erc20StringABI, token, block, "name"); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := r.call(ctx, erc20Bytes32ABI, token, block, "name"); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else {
		r.logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

// Money reads the reward token address of the bar, MasterChef or farm factory.
func (r *Reader) Money(ctx context.Context, contract common.Address, block uint64) (common.Address, error) {
	return r.callAddress(ctx, barABI, contract, block, "money")
}

// Owner reads an Ownable contract's owner.
func (r *Reader) Owner(ctx context.Context, contract common.Address, block uint64) (common.Address, error) {
	return r.callAddress(ctx, masterChefABI, contract, block, "owner")
}

// TotalAllocPoint reads the MasterChef or farm factory allocation total.
func (r *Reader) TotalAllocPoint(ctx context.Context, contract common.Address, block uint64) (*big.Int, error) {
	return r.callUint(ctx, masterChefABI, contract, block, "totalAllocPoint")
}

func (r *Reader) PoolLength(ctx context.Context, chef common.Address, block uint64) (*big.Int, error) {
	return r.callUint(ctx, masterChefABI, chef, block, "poolLength")
}

// PoolInfo reads the MasterChef pool row for pid.
func (r *Reader) PoolInfo(ctx context.Context, chef common.Address, pid *big.Int, block uint64) (PoolInfo, error) {
	values, err := r.call(ctx, masterChefABI, chef, block, "poolInfo", pid)
	if err != nil {
		return PoolInfo{}, err
	}
	if len(values) < 4 {
		return PoolInfo{}, fmt.Errorf("unexpected poolInfo values: %d", len(values))
	}
	var info PoolInfo
	if info.LPToken, err = AsAddress(values[0]); err != nil {
		return PoolInfo{}, fmt.Errorf("lpToken: %w", err)
	}
	if info.AllocPoint, err = AsBigInt(values[1]); err != nil {
		return PoolInfo{}, fmt.Errorf("allocPoint: %w", err)
	}
	if info.LastRewardBlock, err = AsBigInt(values[2]); err != nil {
		return PoolInfo{}, fmt.Errorf("lastRewardBlock: %w", err)
	}
	if info.AccMoneyPerShare, err = AsBigInt(values[3]); err != nil {
		return PoolInfo{}, fmt.Errorf("accMoneyPerShare: %w", err)
	}
	if len(values) > 4 {
		if info.DepositFeeBP, err = AsUint16(values[4]); err != nil {
			return PoolInfo{}, fmt.Errorf("depositFeeBP: %w", err)
		}
	}
	return info, nil
}

// UserInfo reads the MasterChef position of user in pid.
func (r *Reader) UserInfo(ctx context.Context, chef common.Address, pid *big.Int, user common.Address, block uint64) (UserInfo, error) {
	values, err := r.call(ctx, masterChefABI, chef, block, "userInfo", pid, user)
	if err != nil {
		return UserInfo{}, err
	}
	if len(values) < 2 {
		return UserInfo{}, fmt.Errorf("unexpected userInfo values: %d", len(values))
	}
	amount, err := AsBigInt(values[0])
	if err != nil {
		return UserInfo{}, fmt.Errorf("amount: %w", err)
	}
	debt, err := AsBigInt(values[1])
	if err != nil {
		return UserInfo{}, fmt.Errorf("rewardDebt: %w", err)
	}
	return UserInfo{Amount: amount, RewardDebt: debt}, nil
}

// FactoryState reads the farm factory configuration.
func (r *Reader) FactoryState(ctx context.Context, factory common.Address, block uint64) (FactoryState, error) {
	var (
		state FactoryState
		err   error
	)
	addresses := []struct {
		method string
		dst    *common.Address
	}{
		{"owner", &state.Owner},
		{"money", &state.Money},
		{"feeAddress", &state.FeeAddress},
		{"reserve", &state.Reserve},
	}
	for _, field := range addresses {
		if *field.dst, err = r.callAddress(ctx, farmFactoryABI, factory, block, field.method); err != nil {
			return FactoryState{}, err
		}
	}
	uints := []struct {
		method string
		dst    **big.Int
	}{
		{"totalAllocPoint", &state.TotalAllocPoint},
		{"reserveDistributionSchedule", &state.ReserveDistributionSchedule},
		{"lastReserveDistributionTimestamp", &state.LastReserveDistributionTimestamp},
		{"depositPeriod", &state.DepositPeriod},
		{"globalRoundId", &state.GlobalRoundID},
	}
	for _, field := range uints {
		if *field.dst, err = r.callUint(ctx, farmFactoryABI, factory, block, field.method); err != nil {
			return FactoryState{}, err
		}
	}
	return state, nil
}

// FarmInfo reads a farm template's pool configuration.
func (r *Reader) FarmInfo(ctx context.Context, farm common.Address, block uint64) (FarmInfo, error) {
	var (
		info FarmInfo
		err  error
	)
	if info.LPToken, err = r.callAddress(ctx, farmABI, farm, block, "lpToken"); err != nil {
		return FarmInfo{}, err
	}
	if info.PoolStartTime, err = r.callUint(ctx, farmABI, farm, block, "poolStartTime"); err != nil {
		return FarmInfo{}, err
	}
	if info.GlobalRoundID, err = r.callUint(ctx, farmABI, farm, block, "globalRoundId"); err != nil {
		return FarmInfo{}, err
	}
	if info.AllocPoint, err = r.callUint(ctx, farmABI, farm, block, "allocPoint"); err != nil {
		return FarmInfo{}, err
	}
	values, err := r.call(ctx, farmABI, farm, block, "depositFeeBP")
	if err != nil {
		return FarmInfo{}, err
	}
	if info.DepositFeeBP, err = AsUint16(values[0]); err != nil {
		return FarmInfo{}, fmt.Errorf("depositFeeBP: %w", err)
	}
	return info, nil
}

func (r *Reader) FarmID(ctx context.Context, farm common.Address, block uint64) (*big.Int, error) {
	return r.callUint(ctx, farmABI, farm, block, "farmId")
}

func (r *Reader) AvailableRewards(ctx context.Context, farm common.Address, block uint64) (*big.Int, error) {
	return r.callUint(ctx, farmABI, farm, block, "availableRewards")
}

func (r *Reader) CurrentRoundID(ctx context.Context, farm common.Address, block uint64) (*big.Int, error) {
	return r.callUint(ctx, farmABI, farm, block, "getCurrentRoundId")
}

// MoneyPerShare reads the accumulated reward per share of a farm round.
func (r *Reader) MoneyPerShare(ctx context.Context, farm common.Address, round *big.Int, block uint64) (*big.Int, error) {
	return r.callUint(ctx, farmABI, farm, block, "getMoneyPerShare", round)
}

// PoolDeposits reads the deposits of a farm round.
func (r *Reader) PoolDeposits(ctx context.Context, farm common.Address, round *big.Int, block uint64) (*big.Int, error) {
	return r.callUint(ctx, farmABI, farm, block, "getPoolDeposits", round)
}

// FarmUserInfo reads a farm position.
func (r *Reader) FarmUserInfo(ctx context.Context, farm, user common.Address, block uint64) (FarmUserInfo, error) {
	values, err := r.call(ctx, farmABI, farm, block, "userInfo", user)
	if err != nil {
		return FarmUserInfo{}, err
	}
	if len(values) < 2 {
		return FarmUserInfo{}, fmt.Errorf("unexpected userInfo values: %d", len(values))
	}
	amount, err := AsBigInt(values[0])
	if err != nil {
		return FarmUserInfo{}, fmt.Errorf("amount: %w", err)
	}
	entry, err := AsBigInt(values[1])
	if err != nil {
		return FarmUserInfo{}, fmt.Errorf("entryRound: %w", err)
	}
	return FarmUserInfo{Amount: amount, EntryRound: entry}, nil
}

// Method returns the ABI method for a 4-byte selector of the named contract ABI.
func Method(parsed abi.ABI, selector [4]byte) (*abi.Method, error) {
	return parsed.MethodById(selector[:])
}
