package storage

import (
	"context"

	"moneyScope/internal/model"
)

// Storage defines a sink for log records.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
}

// Record is one persisted entity.
type Record struct {
	Kind string
	ID   string
	Data []byte
}

// Store is the keyed entity store the mappings persist into.
type Store interface {
	Get(ctx context.Context, kind, id string) ([]byte, bool, error)
	Put(ctx context.Context, kind, id string, data []byte) error
}

// BatchStore writes a group of records atomically.
type BatchStore interface {
	Store
	PutBatch(ctx context.Context, records []Record) error
}

// PutAll writes records through PutBatch when the store supports it.
func PutAll(ctx context.Context, store Store, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if batch, ok := store.(BatchStore); ok {
		return batch.PutBatch(ctx, records)
	}
	for _, rec := range records {
		if err := store.Put(ctx, rec.Kind, rec.ID, rec.Data); err != nil {
			return err
		}
	}
	return nil
}

func recordKey(kind, id string) string {
	return kind + "/" + id
}
