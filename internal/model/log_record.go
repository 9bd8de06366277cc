package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// LogRecord is one contract log as the indexer writes it to the log JSONL
// and the mapper replays it. Topics and Data stay hex encoded. Removed marks
// a log dropped by a reorg, which replay skips.
type LogRecord struct {
	ChainID     uint64   `json:"chain_id"`
	BlockNumber uint64   `json:"block_number"`
	BlockHash   string   `json:"block_hash"`
	TxHash      string   `json:"tx_hash"`
	TxIndex     uint64   `json:"tx_index"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Removed     bool     `json:"removed"`
	Timestamp   uint64   `json:"timestamp"`
	IngestedAt  string   `json:"ingested_at"`
}

// Topic0 returns the event signature topic, or "" for an anonymous log.
func (lr LogRecord) Topic0() string {
	if len(lr.Topics) == 0 {
		return ""
	}
	return lr.Topics[0]
}

// Emitter returns the contract that emitted the log. ok is false when the
// stored address is not a hex address.
func (lr LogRecord) Emitter() (common.Address, bool) {
	if !common.IsHexAddress(lr.Address) {
		return common.Address{}, false
	}
	return common.HexToAddress(lr.Address), true
}

// TopicHashes returns the topics decoded back to hashes.
func (lr LogRecord) TopicHashes() []common.Hash {
	hashes := make([]common.Hash, len(lr.Topics))
	for i, topic := range lr.Topics {
		hashes[i] = common.HexToHash(topic)
	}
	return hashes
}
