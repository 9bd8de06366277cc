package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseAddressesDedupes(t *testing.T) {
	got, err := ParseAddresses([]string{
		"0x00000000000000000000000000000000000000aa",
		" ",
		"0x00000000000000000000000000000000000000AA",
		"0x00000000000000000000000000000000000000bb",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 addresses, got %v", got)
	}

	if _, err := ParseAddresses([]string{"0x0000000000000000000000000000000000000000"}); err == nil {
		t.Fatalf("expected error for zero address")
	}
	if _, err := ParseAddresses([]string{"0x1234"}); err == nil {
		t.Fatalf("expected error for short address")
	}
}

func TestMergeAddresses(t *testing.T) {
	a := common.HexToAddress("0x01")
	b := common.HexToAddress("0x02")
	got := MergeAddresses([]common.Address{a}, b, a, b)
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("merge mismatch: %v", got)
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return context.Canceled
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("expected one canceled attempt, got calls=%d err=%v", calls, err)
	}
}

func TestWithRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("rpc timeout")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third attempt, got calls=%d err=%v", calls, err)
	}
}
