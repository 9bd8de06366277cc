package contracts

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCaller struct {
	responses map[string][]byte
	blocks    []*big.Int
}

func (f *fakeCaller) set(t *testing.T, parsed abi.ABI, to common.Address, method string, values ...interface{}) {
	t.Helper()
	out, err := parsed.Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	if f.responses == nil {
		f.responses = make(map[string][]byte)
	}
	f.responses[to.Hex()+string(parsed.Methods[method].ID)] = out
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	f.blocks = append(f.blocks, block)
	resp, ok := f.responses[msg.To.Hex()+string(msg.Data[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return resp, nil
}

func TestReaderGetReserves(t *testing.T) {
	parsed, err := PairABI()
	require.NoError(t, err)

	pair := common.HexToAddress("0x1111111111111111111111111111111111111111")
	caller := &fakeCaller{}
	caller.set(t, parsed, pair, "getReserves", big.NewInt(500), big.NewInt(1500), uint32(7))

	reader := NewReader(caller, zap.NewNop())
	reserves, err := reader.GetReserves(context.Background(), pair, 42)
	require.NoError(t, err)
	assert.Equal(t, "500", reserves.Reserve0.String())
	assert.Equal(t, "1500", reserves.Reserve1.String())
	require.Len(t, caller.blocks, 1)
	assert.Equal(t, "42", caller.blocks[0].String())

	_, err = reader.GetReserves(context.Background(), common.HexToAddress("0x2222222222222222222222222222222222222222"), 42)
	require.Error(t, err)
}

func TestReaderTokenMetaBytes32Fallback(t *testing.T) {
	stringABI, err := ERC20ABI()
	require.NoError(t, err)
	bytesABI, err := erc20Bytes32ABI.get()
	require.NoError(t, err)

	token := common.HexToAddress("0x3333333333333333333333333333333333333333")
	var symbol [32]byte
	copy(symbol[:], "MKR")

	caller := &fakeCaller{}
	caller.set(t, stringABI, token, "decimals", uint8(18))
	caller.set(t, bytesABI, token, "symbol", symbol)
	caller.set(t, stringABI, token, "name", "Maker")

	// string and bytes32 share a selector, so the string decode of the
	// bytes32 response fails and the fallback is used.
	meta, err := NewReader(caller, nil).TokenMeta(context.Background(), token, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), meta.Decimals)
	assert.Equal(t, "MKR", meta.Symbol)
	assert.Equal(t, "Maker", meta.Name)
	assert.Nil(t, caller.blocks[0])
}

func TestReaderPoolInfo(t *testing.T) {
	parsed, err := MasterChefABI()
	require.NoError(t, err)

	chef := common.HexToAddress("0x4444444444444444444444444444444444444444")
	lp := common.HexToAddress("0x5555555555555555555555555555555555555555")
	caller := &fakeCaller{}
	caller.set(t, parsed, chef, "poolInfo", lp, big.NewInt(100), big.NewInt(12), big.NewInt(3e12), uint16(400))

	info, err := NewReader(caller, nil).PoolInfo(context.Background(), chef, big.NewInt(0), 100)
	require.NoError(t, err)
	assert.Equal(t, lp, info.LPToken)
	assert.Equal(t, "100", info.AllocPoint.String())
	assert.Equal(t, "12", info.LastRewardBlock.String())
	assert.Equal(t, "3000000000000", info.AccMoneyPerShare.String())
	assert.Equal(t, uint16(400), info.DepositFeeBP)
}

func TestReaderFactoryStateStopsOnRevert(t *testing.T) {
	parsed, err := FarmFactoryABI()
	require.NoError(t, err)

	factory := common.HexToAddress("0x6666666666666666666666666666666666666666")
	caller := &fakeCaller{}
	caller.set(t, parsed, factory, "owner", common.HexToAddress("0x01"))

	_, err = NewReader(caller, nil).FactoryState(context.Background(), factory, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call money")
}
