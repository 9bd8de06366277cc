// Package mapping replays indexed logs and calls through the handler families
// and commits the resulting entities one block at a time.
package mapping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"moneyScope/internal/config"
	"moneyScope/internal/events"
	"moneyScope/internal/metrics"
	"moneyScope/internal/model"
	"moneyScope/internal/state"
	"moneyScope/internal/storage"
)

// ErrorSink receives one MapError per record that could not be mapped.
type ErrorSink interface {
	Write(value interface{}) error
}

// Config wires a Mapper. Store and Decoder are required.
type Config struct {
	Network  config.Network
	Decoder  *events.Decoder
	Handlers Handlers
	Store    storage.Store
	State    state.Store
	Metrics  *metrics.Metrics
	Errors   ErrorSink
	Logger   *zap.Logger
	// Farms seeds the registry with farms known before the replay starts.
	Farms []common.Address
}

// Stats summarizes one Run.
type Stats struct {
	Total     int
	Mapped    int
	Skipped   int
	Failed    int
	LastBlock uint64
}

// Mapper routes records to handler families by contract address.
type Mapper struct {
	net      config.Network
	decoder  *events.Decoder
	handlers Handlers
	store    storage.Store
	state    state.Store
	metrics  *metrics.Metrics
	errors   ErrorSink
	logger   *zap.Logger
	farms    *xsync.Map[common.Address, struct{}]
}

func NewMapper(cfg Config) (*Mapper, error) {
	if cfg.Decoder == nil {
		return nil, fmt.Errorf("decoder is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(prometheus.NewRegistry())
	}

	m := &Mapper{
		net:      cfg.Network,
		decoder:  cfg.Decoder,
		handlers: cfg.Handlers,
		store:    cfg.Store,
		state:    cfg.State,
		metrics:  cfg.Metrics,
		errors:   cfg.Errors,
		logger:   cfg.Logger,
		farms:    xsync.NewMap[common.Address, struct{}](),
	}
	for _, farm := range cfg.Farms {
		m.registerFarm(farm)
	}
	return m, nil
}

// Farms returns the registered farm addresses.
func (m *Mapper) Farms() []common.Address {
	out := make([]common.Address, 0, m.farms.Size())
	m.farms.Range(func(addr common.Address, _ struct{}) bool {
		out = append(out, addr)
		return true
	})
	return out
}

func (m *Mapper) registerFarm(addr common.Address) {
	if _, loaded := m.farms.LoadOrStore(addr, struct{}{}); !loaded {
		m.metrics.FarmsRegistered.Set(float64(m.farms.Size()))
	}
}

// Run replays logs and calls, each JSONL in chain order; either may be nil.
// Blocks at or below the saved checkpoint are skipped, except that their
// NewPool logs still register farms. A canceled context drops the block in
// progress without committing it.
func (m *Mapper) Run(ctx context.Context, logs, calls io.Reader) (Stats, error) {
	var stats Stats

	checkpoint, resumed, err := m.loadCheckpoint(ctx)
	if err != nil {
		return stats, err
	}
	if resumed {
		m.logger.Info("resuming mapping", zap.Uint64("checkpoint", checkpoint))
	}

	src := &merger{}
	if logs != nil {
		src.logs = storage.NewJsonlReader[model.LogRecord](logs)
	}
	if calls != nil {
		src.calls = storage.NewJsonlReader[model.CallRecord](calls)
	}

	buf := storage.NewBuffer(m.store)
	var current uint64
	open := false

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rec, ok, err := src.Next()
		if err != nil {
			return stats, fmt.Errorf("read input: %w", err)
		}
		if !ok {
			break
		}
		stats.Total++

		block := rec.block()
		if open && block != current {
			if err := m.commit(ctx, buf, current); err != nil {
				return stats, err
			}
			stats.LastBlock = current
			open = false
		}

		if resumed && block <= checkpoint {
			m.rebuild(rec)
			stats.Skipped++
			continue
		}
		current = block
		open = true

		result, err := m.process(ctx, buf, rec)
		if err != nil {
			return stats, err
		}
		switch result {
		case outcomeMapped:
			stats.Mapped++
		case outcomeFailed:
			stats.Failed++
		default:
			stats.Skipped++
		}
	}

	if open {
		if err := m.commit(ctx, buf, current); err != nil {
			return stats, err
		}
		stats.LastBlock = current
	}

	m.logger.Info("mapping complete",
		zap.Int("total", stats.Total),
		zap.Int("mapped", stats.Mapped),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Uint64("last_block", stats.LastBlock),
		zap.Int("farms", m.farms.Size()),
	)
	return stats, nil
}

func (m *Mapper) loadCheckpoint(ctx context.Context) (uint64, bool, error) {
	if m.state == nil {
		return 0, false, nil
	}
	block, ok, err := m.state.Load(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("load state: %w", err)
	}
	return block, ok, nil
}

func (m *Mapper) commit(ctx context.Context, buf *storage.Buffer, block uint64) error {
	staged := buf.Staged()
	if err := buf.Commit(ctx); err != nil {
		m.metrics.ErrorsTotal.WithLabelValues("", "commit").Inc()
		return fmt.Errorf("commit block %d: %w", block, err)
	}
	if m.state != nil {
		if err := m.state.Save(ctx, block); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	m.metrics.LastProcessedBlock.Set(float64(block))
	if staged > 0 {
		m.logger.Debug("block committed", zap.Uint64("block", block), zap.Int("records", staged))
	}
	return nil
}

// rebuild re-registers farms announced in an already mapped block.
func (m *Mapper) rebuild(rec record) {
	if rec.log == nil || rec.log.Removed {
		return
	}
	addr, err := parseAddress(rec.address())
	if err != nil || addr != m.net.FarmFactory {
		return
	}
	ev, err := m.decoder.DecodeLog(events.FamilyFarmFactory, *rec.log)
	if err != nil {
		return
	}
	if created, ok := ev.(events.NewPool); ok {
		m.registerFarm(created.Farm)
	}
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeMapped
	outcomeFailed
)

// process decodes rec for every family its address belongs to and runs the
// resulting handlers. Only context cancellation is returned as an error.
func (m *Mapper) process(ctx context.Context, buf *storage.Buffer, rec record) (outcome, error) {
	if rec.log != nil && rec.log.Removed {
		return outcomeSkipped, nil
	}
	addr, err := parseAddress(rec.address())
	if err != nil {
		m.fail(rec, "", "decode", err)
		return outcomeFailed, nil
	}

	result := outcomeSkipped
	for _, family := range m.route(addr) {
		ev, err := m.decode(family, rec)
		if err != nil {
			if errors.Is(err, events.ErrUnknownEvent) || errors.Is(err, events.ErrUnknownMethod) {
				continue
			}
			m.fail(rec, family, "decode", err)
			result = outcomeFailed
			continue
		}

		for _, inv := range m.handlers.plan(family, ev) {
			if err := m.invoke(ctx, buf, inv); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return result, ctxErr
				}
				m.fail(rec, inv.family, "handle", &HandlerError{Family: inv.family, Name: inv.name, Block: rec.block(), Err: err})
				result = outcomeFailed
				continue
			}
			if result != outcomeFailed {
				result = outcomeMapped
			}
		}
	}
	return result, nil
}

func (m *Mapper) route(addr common.Address) []events.Family {
	var out []events.Family
	if addr == m.net.Bar {
		out = append(out, events.FamilyBar)
	}
	if addr == m.net.MasterChef {
		out = append(out, events.FamilyMasterChef)
	}
	if addr == m.net.FarmFactory {
		out = append(out, events.FamilyFarmFactory)
	}
	if _, ok := m.farms.Load(addr); ok {
		out = append(out, events.FamilyFarm)
	}
	return out
}

func (m *Mapper) decode(family events.Family, rec record) (events.Event, error) {
	if rec.call != nil {
		return m.decoder.DecodeCall(family, *rec.call)
	}
	return m.decoder.DecodeLog(family, *rec.log)
}

// invoke runs one handler over a fresh session; a failed session is
// discarded so none of its writes reach the block buffer.
func (m *Mapper) invoke(ctx context.Context, buf *storage.Buffer, inv invocation) error {
	family := string(inv.family)
	m.metrics.RecordsTotal.WithLabelValues(family, inv.name).Inc()

	session := storage.NewSession(buf)
	start := time.Now()
	err := inv.run(ctx, session)
	m.metrics.HandlerDuration.WithLabelValues(family).Observe(time.Since(start).Seconds())
	if err != nil {
		session.Discard()
		return err
	}

	written := session.Pending()
	if err := session.Flush(ctx); err != nil {
		session.Discard()
		return fmt.Errorf("flush: %w", err)
	}
	m.metrics.EntitiesWritten.Add(float64(written))

	if inv.register != nil {
		m.registerFarm(inv.register.Farm)
		m.logger.Info("farm registered",
			zap.String("farm", inv.register.Farm.Hex()),
			zap.Uint64("block", inv.register.Block.Number),
		)
	}
	return nil
}

func (m *Mapper) fail(rec record, family events.Family, stage string, err error) {
	m.metrics.ErrorsTotal.WithLabelValues(string(family), stage).Inc()
	m.logger.Warn("record not mapped",
		zap.Uint64("block", rec.block()),
		zap.String("address", rec.address()),
		zap.String("family", string(family)),
		zap.String("stage", stage),
		zap.Error(err),
	)
	if m.errors == nil {
		return
	}
	if werr := m.errors.Write(mapErrorFromRecord(rec, family, err)); werr != nil {
		m.logger.Warn("write map error", zap.Error(werr))
	}
}

func mapErrorFromRecord(rec record, family events.Family, err error) model.MapError {
	out := model.MapError{
		BlockNumber: rec.block(),
		Index:       rec.index(),
		Address:     rec.address(),
		Family:      string(family),
		Error:       err.Error(),
	}
	if rec.call != nil {
		out.ChainID = rec.call.ChainID
		out.TxHash = rec.call.TxHash
		out.Source = "call"
		if len(rec.call.Input) >= 10 {
			out.Topic0 = rec.call.Input[:10]
		}
		return out
	}
	out.ChainID = rec.log.ChainID
	out.TxHash = rec.log.TxHash
	out.Source = "log"
	out.Topic0 = rec.log.Topic0()
	return out
}

func parseAddress(raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(raw), nil
}
