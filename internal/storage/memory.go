package storage

import (
	"context"
	"sort"

	"github.com/puzpuzpuz/xsync/v4"
)

// MemoryStore keeps entities in process memory.
type MemoryStore struct {
	data *xsync.Map[string, Record]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: xsync.NewMap[string, Record]()}
}

func (m *MemoryStore) Get(_ context.Context, kind, id string) ([]byte, bool, error) {
	rec, ok := m.data.Load(recordKey(kind, id))
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), rec.Data...), true, nil
}

func (m *MemoryStore) Put(_ context.Context, kind, id string, data []byte) error {
	m.data.Store(recordKey(kind, id), Record{Kind: kind, ID: id, Data: append([]byte(nil), data...)})
	return nil
}

func (m *MemoryStore) PutBatch(ctx context.Context, records []Record) error {
	for _, rec := range records {
		if err := m.Put(ctx, rec.Kind, rec.ID, rec.Data); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored entities.
func (m *MemoryStore) Len() int {
	return m.data.Size()
}

// Snapshot returns every record ordered by kind and id.
func (m *MemoryStore) Snapshot() []Record {
	out := make([]Record, 0, m.data.Size())
	m.data.Range(func(_ string, rec Record) bool {
		out = append(out, rec)
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out
}
