package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// LockupPoolNumber is the MasterChef pid whose set() call freezes the lockup snapshot.
	LockupPoolNumber = 29
	// PriceCutoverBlock switches the oracle from the legacy factory and WETH/USDT pair.
	PriceCutoverBlock = 11305148
	// MoneyPairCutoverBlock switches the money/USDT pair from the legacy pair.
	MoneyPairCutoverBlock = 11432276
)

// Network is the constant address and block table for one deployment.
type Network struct {
	Name string

	Bar             common.Address
	MoneyToken      common.Address
	MasterChef      common.Address
	FarmFactory     common.Address
	Factory         common.Address
	LegacyFactory   common.Address
	WETH            common.Address
	USDT            common.Address
	WETHUSDTPair    common.Address
	LegacyWETHUSDT  common.Address
	MoneyUSDTPair   common.Address
	LegacyMoneyUSDT common.Address

	LockupBlock              uint64
	FarmingStartBlock        uint64
	MoneyFirstLiquidityBlock uint64
	PriceCutoverBlock        uint64
	MoneyPairCutoverBlock    uint64
}

// Contracts returns the static contract addresses whose logs the mapping consumes.
func (n Network) Contracts() []common.Address {
	seen := make(map[common.Address]struct{})
	out := make([]common.Address, 0, 3)
	for _, addr := range []common.Address{n.Bar, n.MasterChef, n.FarmFactory} {
		if addr == (common.Address{}) {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

var networks = map[string]Network{
	"ropsten": {
		Name:                     "ropsten",
		Bar:                      common.HexToAddress("0x154B6B7891B797f991B15B2c7BBD89D3bDeDCeAA"),
		MoneyToken:               common.HexToAddress("0xD224DC5E2005c315A944a4f9635dbecC4FE2C451"),
		MasterChef:               common.HexToAddress("0xb8d496c4b8d2E3b2Fd44FFFe8D6dEd42F2C1833B"),
		FarmFactory:              common.HexToAddress("0xb8d496c4b8d2E3b2Fd44FFFe8D6dEd42F2C1833B"),
		Factory:                  common.HexToAddress("0x96F3aD81A8F1C688465F4818feEc33e483f821AE"),
		LegacyFactory:            common.HexToAddress("0x5c69bee701ef814a2b6a3edd4b1652cb9cc5aa6f"),
		WETH:                     common.HexToAddress("0xc778417e063141139fce010982780140aa0cd5ab"),
		LockupBlock:              10959148,
		FarmingStartBlock:        10750000,
		MoneyFirstLiquidityBlock: 10750005,
		PriceCutoverBlock:        PriceCutoverBlock,
		MoneyPairCutoverBlock:    MoneyPairCutoverBlock,
	},
	"mainnet": {
		Name:                     "mainnet",
		Bar:                      common.HexToAddress("0x2D3882b6451c93e0707bbF0C4F1F05EeB096afd5"),
		MoneyToken:               common.HexToAddress("0xe366ecf71a1a3c57a79f58cd6295437ee9b9b71d"),
		MasterChef:               common.HexToAddress("0xef0881ec094552b2e128cf945ef17a6752b4ec5d"),
		FarmFactory:              common.HexToAddress("0x816822D1AAfD3186873c702a96213fd41884BA38"),
		Factory:                  common.HexToAddress("0xae8b490cfeE5956925d81f8A729cF0C2f2C33ba4"),
		LegacyFactory:            common.HexToAddress("0x5c69bee701ef814a2b6a3edd4b1652cb9cc5aa6f"),
		WETH:                     common.HexToAddress("0xA3B45B73067fd2282aAB67436747e9b310254EBd"),
		USDT:                     common.HexToAddress("0x110a13FC3efE6A245B50102D2d79B3E76125Ae83"),
		WETHUSDTPair:             common.HexToAddress("0xdef1321eea011ee46c84a68f5f7bc2c4d6561e6c"),
		LegacyWETHUSDT:           common.HexToAddress("0xE5133CA897f1c5cdd273775EEFB950f3055F125D"),
		MoneyUSDTPair:            common.HexToAddress("0x0c8f77ffbb337e3cb6d903c64f7abe8db67c74c8"),
		LegacyMoneyUSDT:          common.HexToAddress("0x05dBf042D2dCbBD0552f90980F6d7a9f7dE92e2E"),
		LockupBlock:              11432276,
		FarmingStartBlock:        11427232,
		MoneyFirstLiquidityBlock: 11432276,
		PriceCutoverBlock:        PriceCutoverBlock,
		MoneyPairCutoverBlock:    MoneyPairCutoverBlock,
	},
}

// NetworkByName returns the network table for a deployment label.
func NetworkByName(name string) (Network, error) {
	n, ok := networks[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q (known: %s)", name, strings.Join(NetworkNames(), ", "))
	}
	return n, nil
}

// NetworkNames lists the known deployment labels.
func NetworkNames() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
