package config

import (
	"github.com/spf13/pflag"
)

// PriceConfig holds configuration for one-off oracle queries.
type PriceConfig struct {
	RPCURL   string
	Network  string
	Token    string
	Block    uint64
	LogLevel string
}

// LoadPrice merges config file, environment variables, and flags into PriceConfig.
func LoadPrice(cfgFile string, flags *pflag.FlagSet) (PriceConfig, error) {
	v := newViper()
	v.SetDefault("network", "mainnet")
	v.SetDefault("log-level", "info")

	if err := readInto(v, cfgFile, flags); err != nil {
		return PriceConfig{}, err
	}

	return PriceConfig{
		RPCURL:   v.GetString("rpc"),
		Network:  v.GetString("network"),
		Token:    v.GetString("token"),
		Block:    v.GetUint64("block"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
