package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMapFlagsAndEnv(t *testing.T) {
	t.Setenv("INDEXER_REDIS_DB", "3")

	flags := pflag.NewFlagSet("map", pflag.ContinueOnError)
	flags.String("store", "memory", "")
	flags.String("in", "", "")
	require.NoError(t, flags.Parse([]string{"--store", "Redis", "--in", "logs.jsonl"}))

	cfg, err := LoadMap("", flags)
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "logs.jsonl", cfg.In)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, "mapping", cfg.StateName)
}

func TestLoadMapRejectsUnknownStore(t *testing.T) {
	flags := pflag.NewFlagSet("map", pflag.ContinueOnError)
	flags.String("store", "", "")
	require.NoError(t, flags.Parse([]string{"--store", "sqlite"}))

	_, err := LoadMap("", flags)
	assert.Error(t, err)
}

func TestLoadAddressesFromString(t *testing.T) {
	t.Setenv("INDEXER_ADDRESS", "0x01, ,0x02")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"0x01", "0x02"}, cfg.Addresses)
	assert.Equal(t, uint64(2000), cfg.BatchSize)
}
