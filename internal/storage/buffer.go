package storage

import (
	"context"
	"fmt"
)

// Buffer stages writes over a backing store until Commit. Reads see staged
// writes first, so a block's handler invocations observe each other.
type Buffer struct {
	base   Store
	staged map[string]Record
	order  []string
}

func NewBuffer(base Store) *Buffer {
	return &Buffer{base: base, staged: make(map[string]Record)}
}

func (b *Buffer) Get(ctx context.Context, kind, id string) ([]byte, bool, error) {
	if rec, ok := b.staged[recordKey(kind, id)]; ok {
		return rec.Data, true, nil
	}
	return b.base.Get(ctx, kind, id)
}

func (b *Buffer) Put(_ context.Context, kind, id string, data []byte) error {
	key := recordKey(kind, id)
	if _, ok := b.staged[key]; !ok {
		b.order = append(b.order, key)
	}
	b.staged[key] = Record{Kind: kind, ID: id, Data: data}
	return nil
}

func (b *Buffer) PutBatch(ctx context.Context, records []Record) error {
	for _, rec := range records {
		if err := b.Put(ctx, rec.Kind, rec.ID, rec.Data); err != nil {
			return err
		}
	}
	return nil
}

// Staged returns the number of records waiting for Commit.
func (b *Buffer) Staged() int {
	return len(b.order)
}

// Commit writes the staged records to the backing store in first-write order.
func (b *Buffer) Commit(ctx context.Context) error {
	if len(b.order) == 0 {
		return nil
	}
	records := make([]Record, 0, len(b.order))
	for _, key := range b.order {
		records = append(records, b.staged[key])
	}
	if err := PutAll(ctx, b.base, records); err != nil {
		return fmt.Errorf("commit %d records: %w", len(records), err)
	}
	b.staged = make(map[string]Record)
	b.order = nil
	return nil
}
