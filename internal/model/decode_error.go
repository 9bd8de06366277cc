package model

// MapError records a log or call that could not be mapped.
type MapError struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	Index       uint64 `json:"index"`
	Address     string `json:"address"`
	Source      string `json:"source"`
	Family      string `json:"family,omitempty"`
	Topic0      string `json:"topic0,omitempty"`
	Error       string `json:"error"`
}
