package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordsTotal.WithLabelValues("bar", "Transfer").Inc()
	m.LastProcessedBlock.Set(42)

	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues("bar", "Transfer")); got != 1 {
		t.Fatalf("expected 1 record, got %v", got)
	}
	if got := testutil.ToFloat64(m.LastProcessedBlock); got != 42 {
		t.Fatalf("expected block 42, got %v", got)
	}

	// a second registration on the same registry collides
	defer func() {
		if recover() == nil {
			t.Fatalf("expected duplicate registration to panic")
		}
	}()
	New(reg)
}
