package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Store backends accepted by the map command.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// MapConfig holds configuration for replaying logs through the mapping handlers.
type MapConfig struct {
	RPCURL        string
	Network       string
	In            string
	Calls         string
	Errors        string
	Store         string
	PGDSN         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	StateFile     string
	StateName     string
	MetricsAddr   string
	LogLevel      string
}

// LoadMap merges config file, environment variables, and flags into MapConfig.
func LoadMap(cfgFile string, flags *pflag.FlagSet) (MapConfig, error) {
	v := newViper()
	v.SetDefault("network", "mainnet")
	v.SetDefault("errors", "./data/map_errors.jsonl")
	v.SetDefault("store", StoreMemory)
	v.SetDefault("redis-addr", "localhost:6379")
	v.SetDefault("redis-prefix", "moneyscope")
	v.SetDefault("state-name", "mapping")
	v.SetDefault("log-level", "info")

	if err := readInto(v, cfgFile, flags); err != nil {
		return MapConfig{}, err
	}

	cfg := MapConfig{
		RPCURL:        v.GetString("rpc"),
		Network:       v.GetString("network"),
		In:            v.GetString("in"),
		Calls:         v.GetString("calls"),
		Errors:        v.GetString("errors"),
		Store:         strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		PGDSN:         v.GetString("pg-dsn"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		RedisPrefix:   v.GetString("redis-prefix"),
		StateFile:     v.GetString("state-file"),
		StateName:     v.GetString("state-name"),
		MetricsAddr:   v.GetString("metrics-addr"),
		LogLevel:      v.GetString("log-level"),
	}

	switch cfg.Store {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return MapConfig{}, fmt.Errorf("unsupported store %q", cfg.Store)
	}

	return cfg, nil
}
