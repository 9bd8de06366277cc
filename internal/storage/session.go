package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"moneyScope/internal/model"
)

// Session is the identity map of one handler invocation. Entities loaded
// through it are shared by pointer; only entities passed to Save are written
// by Flush, and a session that is never flushed writes nothing.
type Session struct {
	store  Store
	loaded map[string]model.Entity
	dirty  []string
	saved  map[string]struct{}
}

// NewSession opens a session over store.
func NewSession(store Store) *Session {
	return &Session{
		store:  store,
		loaded: make(map[string]model.Entity),
		saved:  make(map[string]struct{}),
	}
}

// LoadOrCreate returns the entity with id, or the result of create when it
// does not exist yet. Stored fields are decoded over the created defaults.
func LoadOrCreate[T model.Entity](ctx context.Context, s *Session, id string, create func() T) (T, bool, error) {
	entity, found, err := Load(ctx, s, id, create)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if !found {
		s.loaded[recordKey(entity.EntityKind(), id)] = entity
	}
	return entity, !found, nil
}

// Load returns the entity with id and whether it exists. When it does not,
// the returned value is the fresh result of empty and is not tracked.
func Load[T model.Entity](ctx context.Context, s *Session, id string, empty func() T) (T, bool, error) {
	entity := empty()
	key := recordKey(entity.EntityKind(), id)

	if cached, ok := s.loaded[key]; ok {
		typed, ok := cached.(T)
		if !ok {
			var zero T
			return zero, false, fmt.Errorf("entity %s has type %T", key, cached)
		}
		return typed, true, nil
	}

	data, ok, err := s.store.Get(ctx, entity.EntityKind(), id)
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return entity, false, nil
	}
	if err := json.Unmarshal(data, entity); err != nil {
		var zero T
		return zero, false, fmt.Errorf("decode %s: %w", key, err)
	}
	s.loaded[key] = entity
	return entity, true, nil
}

// Save marks entity for writing on Flush.
func (s *Session) Save(entity model.Entity) {
	key := recordKey(entity.EntityKind(), entity.EntityID())
	s.loaded[key] = entity
	if _, ok := s.saved[key]; ok {
		return
	}
	s.saved[key] = struct{}{}
	s.dirty = append(s.dirty, key)
}

// Pending returns the number of entities waiting for Flush.
func (s *Session) Pending() int {
	return len(s.dirty)
}

// Flush writes every saved entity in save order and resets the session.
func (s *Session) Flush(ctx context.Context) error {
	records := make([]Record, 0, len(s.dirty))
	for _, key := range s.dirty {
		entity := s.loaded[key]
		data, err := json.Marshal(entity)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		records = append(records, Record{Kind: entity.EntityKind(), ID: entity.EntityID(), Data: data})
	}
	if err := PutAll(ctx, s.store, records); err != nil {
		return fmt.Errorf("flush session: %w", err)
	}
	s.Discard()
	return nil
}

// Discard drops every loaded and saved entity.
func (s *Session) Discard() {
	s.loaded = make(map[string]model.Entity)
	s.saved = make(map[string]struct{})
	s.dirty = nil
}
