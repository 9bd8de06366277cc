package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CallRecord is a successful top-level or internal contract call extracted
// from traces, stored as JSONL next to the raw logs.
type CallRecord struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	TxHash      string `json:"tx_hash"`
	TxIndex     uint64 `json:"tx_index"`
	CallIndex   uint64 `json:"call_index"`
	From        string `json:"from"`
	To          string `json:"to"`
	Input       string `json:"input"`
	Output      string `json:"output"`
	Reverted    bool   `json:"reverted"`
	Timestamp   uint64 `json:"timestamp"`
}

// Selector returns the 4-byte method id and the encoded arguments of the call.
func (c CallRecord) Selector() ([4]byte, []byte, error) {
	var id [4]byte
	data, err := hexutil.Decode(c.Input)
	if err != nil {
		return id, nil, fmt.Errorf("invalid input: %w", err)
	}
	if len(data) < 4 {
		return id, nil, fmt.Errorf("input too short: %d bytes", len(data))
	}
	copy(id[:], data[:4])
	return id, data[4:], nil
}
