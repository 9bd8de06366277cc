package model

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestLogRecordWireFormat(t *testing.T) {
	line := []byte(`{"chain_id":1,"block_number":11432276,"tx_hash":"0xdef456","tx_index":7,"log_index":12,` +
		`"address":"0x2D3882b6451c93e0707bbF0C4F1F05EeB096afd5",` +
		`"topics":["0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef","0x000000000000000000000000000000000000000000000000000000000000000b"],` +
		`"data":"0xdeadbeef","removed":true,"timestamp":1607600000}`)

	var rec LogRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if rec.BlockNumber != 11432276 || rec.TxIndex != 7 || rec.LogIndex != 12 || !rec.Removed || rec.Timestamp != 1607600000 {
		t.Fatalf("fields mismatch: %+v", rec)
	}

	emitter, ok := rec.Emitter()
	if !ok || emitter != common.HexToAddress("0x2D3882b6451c93e0707bbF0C4F1F05EeB096afd5") {
		t.Fatalf("emitter mismatch: %s %v", emitter.Hex(), ok)
	}
	if rec.Topic0() != "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef" {
		t.Fatalf("topic0 mismatch: %s", rec.Topic0())
	}
	hashes := rec.TopicHashes()
	if len(hashes) != 2 || hashes[1] != common.BigToHash(big.NewInt(11)) {
		t.Fatalf("topics mismatch: %v", hashes)
	}
}

func TestLogRecordWithoutTopicsOrAddress(t *testing.T) {
	rec := LogRecord{Address: "not-an-address"}
	if rec.Topic0() != "" {
		t.Fatalf("expected empty topic0, got %s", rec.Topic0())
	}
	if len(rec.TopicHashes()) != 0 {
		t.Fatalf("expected no topics")
	}
	if _, ok := rec.Emitter(); ok {
		t.Fatalf("expected invalid emitter")
	}
}

func TestCallRecordSelector(t *testing.T) {
	call := CallRecord{Input: "0x51eb05a60000000000000000000000000000000000000000000000000000000000000003"}

	id, args, err := call.Selector()
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	if id != [4]byte{0x51, 0xeb, 0x05, 0xa6} {
		t.Fatalf("selector mismatch: %x", id)
	}
	if len(args) != 32 || args[31] != 3 {
		t.Fatalf("args mismatch: %x", args)
	}

	if _, _, err := (CallRecord{Input: "0x01"}).Selector(); err == nil {
		t.Fatalf("expected error for short input")
	}
}

func TestDayBucketID(t *testing.T) {
	if got := DayBucketID("7", 86400*3+5); got != "7-3" {
		t.Fatalf("bucket id mismatch: %s", got)
	}
	if got := JoinID("0xfarm", "12"); got != "0xfarm-12" {
		t.Fatalf("join id mismatch: %s", got)
	}
}
