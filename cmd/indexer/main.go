package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"moneyScope/internal/chain"
	"moneyScope/internal/config"
	"moneyScope/internal/events"
	"moneyScope/internal/indexer"
	"moneyScope/internal/state"
	"moneyScope/internal/storage"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "money protocol log indexer and entity mapper",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the network's contract logs into JSONL",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("rpc", "", "RPC URL")
	runCmd.Flags().String("network", "mainnet", "network table ("+joinNames()+")")
	runCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	runCmd.Flags().StringSlice("address", nil, "extra contract addresses (comma-separated)")
	runCmd.Flags().StringSlice("topic0", nil, "topic0 filter (comma-separated), defaults to every mapped event")
	runCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	runCmd.Flags().String("out", "./data/logs.jsonl", "output JSONL path")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	mapCmd := &cobra.Command{
		Use:   "map",
		Short: "Replay logs and calls through the mapping handlers",
		RunE:  runMap,
	}

	mapCmd.Flags().String("rpc", "", "archive RPC URL for handler reads")
	mapCmd.Flags().String("network", "mainnet", "network table ("+joinNames()+")")
	mapCmd.Flags().String("in", "", "input raw logs JSONL")
	mapCmd.Flags().String("calls", "", "optional contract calls JSONL")
	mapCmd.Flags().String("errors", "./data/map_errors.jsonl", "unmapped records JSONL")
	mapCmd.Flags().String("store", config.StoreMemory, "entity store (memory, postgres, redis)")
	mapCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	mapCmd.Flags().String("redis-addr", "localhost:6379", "Redis address")
	mapCmd.Flags().String("redis-password", "", "Redis password")
	mapCmd.Flags().Int("redis-db", 0, "Redis database")
	mapCmd.Flags().String("redis-prefix", "moneyscope", "Redis key prefix")
	mapCmd.Flags().String("state-file", "", "local progress file, used instead of the store's state")
	mapCmd.Flags().String("state-name", "mapping", "progress row name in the store")
	mapCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	mapCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(mapCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Query the price oracle at a block",
		RunE:  runPrice,
	}

	priceCmd.Flags().String("rpc", "", "archive RPC URL")
	priceCmd.Flags().String("network", "mainnet", "network table ("+joinNames()+")")
	priceCmd.Flags().String("token", "", "token address, empty for the money token")
	priceCmd.Flags().Uint64("block", 0, "block number, 0 means latest")
	priceCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(priceCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	net, err := config.NetworkByName(cfg.Network)
	if err != nil {
		return err
	}

	extra, err := indexer.ParseAddresses(cfg.Addresses)
	if err != nil {
		return err
	}
	addresses := indexer.MergeAddresses(net.Contracts(), extra...)

	topic0, err := indexer.ParseTopic0(cfg.Topic0)
	if err != nil {
		return err
	}
	if len(topic0) == 0 {
		if topic0, err = mappedTopics(); err != nil {
			return err
		}
	}

	discover, err := indexer.FarmDiscoverer(net.FarmFactory)
	if err != nil {
		return err
	}
	farms, err := knownFarms(cfg.Out, discover)
	if err != nil {
		return err
	}
	addresses = indexer.MergeAddresses(addresses, farms...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	storageSink := storage.NewJsonlStorage(cfg.Out)

	var checkpoint state.Store
	if cfg.CheckpointEnabled {
		checkpoint = &state.FileStore{Path: cfg.Checkpoint}
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:    cfg.FromBlock,
		ToBlock:      cfg.ToBlock,
		Addresses:    addresses,
		Topic0:       topic0,
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Discover:     discover,
	}, chainClient, storageSink, checkpoint, logger)

	logger.Info("indexer start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("network", net.Name),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("addresses", len(addresses)),
		zap.Int("known_farms", len(farms)),
		zap.Int("topic0", len(topic0)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return runner.Run(ctx)
}

// mappedTopics is the union of topic0 hashes every handler family decodes.
func mappedTopics() ([]common.Hash, error) {
	decoder, err := events.NewDecoder()
	if err != nil {
		return nil, err
	}
	seen := make(map[common.Hash]struct{})
	var out []common.Hash
	for _, family := range []events.Family{events.FamilyBar, events.FamilyMasterChef, events.FamilyFarmFactory, events.FamilyFarm} {
		for _, topic := range decoder.Topic0(family) {
			if _, ok := seen[topic]; ok {
				continue
			}
			seen[topic] = struct{}{}
			out = append(out, topic)
		}
	}
	return out, nil
}

// knownFarms re-reads farms announced in an earlier run's output.
func knownFarms(path string, discover indexer.Discoverer) ([]common.Address, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open previous output: %w", err)
	}
	defer file.Close()
	return indexer.DiscoverFromRecords(file, discover)
}

func joinNames() string {
	return strings.Join(config.NetworkNames(), ", ")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
