package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"moneyScope/internal/chain"
	"moneyScope/internal/config"
	"moneyScope/internal/contracts"
	"moneyScope/internal/pricing"
)

func runPrice(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPrice(cfgFile, cmd.Flags())
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	block := cfg.Block
	if block == 0 {
		if block, err = chainClient.LatestBlockNumber(ctx); err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
	}

	oracle := pricing.NewOracle(net, contracts.NewReader(chainClient, logger), logger)

	if cfg.Token == "" {
		price := oracle.MoneyPrice(ctx, block)
		logger.Info("money price", zap.Uint64("block", block), zap.String("usd", price.String()))
		fmt.Println(price.String())
		return nil
	}

	if !common.IsHexAddress(cfg.Token) {
		return fmt.Errorf("invalid token address: %s", cfg.Token)
	}
	price := oracle.USDRate(ctx, common.HexToAddress(cfg.Token), block)
	logger.Info("token price",
		zap.Uint64("block", block),
		zap.String("token", cfg.Token),
		zap.String("usd", price.String()),
	)
	fmt.Println(price.String())
	return nil
}
