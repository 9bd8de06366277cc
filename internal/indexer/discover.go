package indexer

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"

	"moneyScope/internal/contracts"
	"moneyScope/internal/model"
	"moneyScope/internal/storage"
)

// Discoverer reports the contract a log announces, if any.
type Discoverer func(address common.Address, topics []common.Hash) (common.Address, bool)

// FarmDiscoverer recognizes the factory's NewPool log and returns the farm it created.
func FarmDiscoverer(factory common.Address) (Discoverer, error) {
	parsed, err := contracts.FarmFactoryABI()
	if err != nil {
		return nil, err
	}
	newPool, ok := parsed.Events["NewPool"]
	if !ok {
		return nil, fmt.Errorf("farm factory abi has no NewPool event")
	}
	topic := newPool.ID

	return func(address common.Address, topics []common.Hash) (common.Address, bool) {
		if address != factory || len(topics) < 2 || topics[0] != topic {
			return common.Address{}, false
		}
		return common.BytesToAddress(topics[1].Bytes()), true
	}, nil
}

// DiscoverFromRecords replays a log JSONL written by an earlier run and
// returns every contract announced in it, in order of first appearance.
func DiscoverFromRecords(r io.Reader, discover Discoverer) ([]common.Address, error) {
	reader := storage.NewJsonlReader[model.LogRecord](r)
	seen := make(map[common.Address]struct{})
	var out []common.Address
	for {
		rec, ok, err := reader.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		if rec.Removed {
			continue
		}
		emitter, ok := rec.Emitter()
		if !ok {
			continue
		}
		addr, found := discover(emitter, rec.TopicHashes())
		if !found {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
}
