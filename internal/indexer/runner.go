package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"moneyScope/internal/model"
	"moneyScope/internal/state"
	"moneyScope/internal/storage"
)

// LogSource is the chain surface the runner reads from.
type LogSource interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock    uint64
	ToBlock      uint64
	Addresses    []common.Address
	Topic0       []common.Hash
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
	// Discover reports contracts announced by a log, such as farms created
	// by the factory. Their logs are fetched from the announcing block on.
	Discover Discoverer
}

// Runner streams logs from the chain and writes them to storage.
type Runner struct {
	cfg        RunConfig
	chain      LogSource
	storage    storage.Storage
	logger     *zap.Logger
	seen       map[string]struct{}
	addresses  map[common.Address]struct{}
	checkpoint state.Store
}

// NewRunner builds a Runner with its dependencies. A nil checkpoint disables resume.
func NewRunner(cfg RunConfig, chainClient LogSource, storageSink storage.Storage, checkpoint state.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	addresses := make(map[common.Address]struct{}, len(cfg.Addresses))
	for _, addr := range cfg.Addresses {
		addresses[addr] = struct{}{}
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainClient,
		storage:    storageSink,
		logger:     logger,
		seen:       make(map[string]struct{}),
		addresses:  addresses,
		checkpoint: checkpoint,
	}
}

// Addresses returns every address the runner currently fetches logs for.
func (r *Runner) Addresses() []common.Address {
	out := make([]common.Address, 0, len(r.addresses))
	for _, addr := range r.cfg.Addresses {
		out = append(out, addr)
	}
	for addr := range r.addresses {
		if !containsAddress(r.cfg.Addresses, addr) {
			out = append(out, addr)
		}
	}
	return out
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.addresses) == 0 {
		return fmt.Errorf("at least one address is required")
	}

	chainID, err := r.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if r.checkpoint != nil {
		last, ok, err := r.checkpoint.Load(ctx)
		if err != nil {
			return err
		}
		if ok && last >= from {
			from = last + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", from))
		}
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch logs", zap.Stringer("range", blockRange), zap.Uint64("blocks", blockRange.Len()))

		logs, err := r.fetchRange(ctx, blockRange)
		if err != nil {
			return err
		}

		ingestedAt := time.Now().UTC()
		records := make([]model.LogRecord, 0, len(logs))
		for _, log := range logs {
			if r.isDuplicate(log) {
				continue
			}

			ts, err := r.blockTimestampWithRetry(ctx, log.BlockNumber)
			if err != nil {
				return fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
			}
			records = append(records, toLogRecord(chainIDValue, log, ts, ingestedAt))
		}

		if err := r.storage.PutLogBatch(records); err != nil {
			return fmt.Errorf("store logs: %w", err)
		}

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(ctx, blockRange.To); err != nil {
				return err
			}
		}

		r.logger.Info("batch complete", zap.Int("logs", len(records)), zap.Stringer("range", blockRange))
	}

	return nil
}

// fetchRange returns the range's logs in chain order. Contracts discovered in
// the range are queried again over the same range so their first logs are kept.
func (r *Runner) fetchRange(ctx context.Context, blockRange BlockRange) ([]types.Log, error) {
	logs, err := r.filterLogsWithRetry(ctx, blockRange.From, blockRange.To, r.Addresses())
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", err)
	}

	pending := logs
	for len(pending) > 0 {
		found := r.discover(pending)
		if len(found) == 0 {
			break
		}
		extra, err := r.filterLogsWithRetry(ctx, blockRange.From, blockRange.To, found)
		if err != nil {
			return nil, fmt.Errorf("filter discovered logs: %w", err)
		}
		logs = append(logs, extra...)
		pending = extra
	}

	sortLogs(logs)
	return logs, nil
}

func (r *Runner) discover(logs []types.Log) []common.Address {
	if r.cfg.Discover == nil {
		return nil
	}
	var found []common.Address
	for _, log := range logs {
		if log.Removed {
			continue
		}
		addr, ok := r.cfg.Discover(log.Address, log.Topics)
		if !ok {
			continue
		}
		if _, known := r.addresses[addr]; known {
			continue
		}
		r.addresses[addr] = struct{}{}
		found = append(found, addr)
		r.logger.Info("contract discovered", zap.String("address", addr.Hex()), zap.Uint64("block", log.BlockNumber))
	}
	return found
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = r.chain.FilterLogs(ctx, fromBlock, toBlock, addresses, r.cfg.Topic0)
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (r *Runner) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = r.chain.BlockTimestamp(ctx, blockNumber)
		if err != nil {
			r.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}

func containsAddress(list []common.Address, addr common.Address) bool {
	for _, item := range list {
		if item == addr {
			return true
		}
	}
	return false
}

func sortLogs(logs []types.Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
}
