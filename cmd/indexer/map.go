package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"moneyScope/internal/bar"
	"moneyScope/internal/chain"
	"moneyScope/internal/config"
	"moneyScope/internal/contracts"
	"moneyScope/internal/events"
	"moneyScope/internal/farming"
	"moneyScope/internal/lockup"
	"moneyScope/internal/mapping"
	"moneyScope/internal/masterchef"
	"moneyScope/internal/metrics"
	"moneyScope/internal/pricing"
	"moneyScope/internal/state"
	"moneyScope/internal/storage"
	"moneyScope/internal/storage/postgres"
	"moneyScope/internal/storage/redis"
)

func runMap(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadMap(cfgFile, cmd.Flags())
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
	if cfg.In == "" && cfg.Calls == "" {
		return fmt.Errorf("input path is required")
	}
	net, err := config.NetworkByName(cfg.Network)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	store, backend, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var progress state.Store
	switch {
	case cfg.StateFile != "":
		progress = &state.FileStore{Path: cfg.StateFile}
	case backend != nil:
		progress = &state.BackendStore{Backend: backend, Name: cfg.StateName}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	replayMetrics := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer shutdown()
	}

	errWriter, err := storage.NewJsonlWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	decoder, err := events.NewDecoder()
	if err != nil {
		return err
	}

	reader := contracts.NewReader(chainClient, logger)
	oracle := pricing.NewOracle(net, reader, logger)

	mapper, err := mapping.NewMapper(mapping.Config{
		Network: net,
		Decoder: decoder,
		Handlers: mapping.Handlers{
			Bar:        bar.NewHandler(net, reader, oracle, logger.Named("bar")),
			MasterChef: masterchef.NewHandler(net, reader, oracle, logger.Named("masterchef")),
			Lockup:     lockup.NewHandler(net, reader, oracle, logger.Named("lockup")),
			Farming:    farming.NewHandler(net, reader, oracle, logger.Named("farming")),
		},
		Store:   store,
		State:   progress,
		Metrics: replayMetrics,
		Errors:  errWriter,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	logs, closeLogs, err := openInput(cfg.In)
	if err != nil {
		return err
	}
	defer closeLogs()
	calls, closeCalls, err := openInput(cfg.Calls)
	if err != nil {
		return err
	}
	defer closeCalls()

	logger.Info("map start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("network", net.Name),
		zap.String("in", cfg.In),
		zap.String("calls", cfg.Calls),
		zap.String("store", cfg.Store),
		zap.String("errors", cfg.Errors),
		zap.Bool("resumable", progress != nil),
	)

	stats, err := mapper.Run(ctx, logs, calls)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("map interrupted", zap.Uint64("last_block", stats.LastBlock))
			return nil
		}
		return err
	}

	if mem, ok := store.(*storage.MemoryStore); ok {
		logger.Info("memory store contents", zap.Int("entities", mem.Len()))
	}
	return nil
}

// openStore returns the entity store, its progress backend when it keeps one,
// and a close func.
func openStore(ctx context.Context, cfg config.MapConfig, logger *zap.Logger) (storage.Store, state.Backend, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, nil, err
		}
		return pg, pg, pg.Close, nil
	case config.StoreRedis:
		rs, err := redis.NewStore(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return rs, rs, func() { _ = rs.Close() }, nil
	default:
		return storage.NewMemoryStore(), nil, func() {}, nil
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return file, func() { file.Close() }, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
