package state

import "context"

// Backend is an entity store that also keeps named progress rows, such as
// the Postgres indexer_state table or Redis state keys.
type Backend interface {
	LoadState(ctx context.Context, name string) (uint64, bool, error)
	SaveState(ctx context.Context, name string, block uint64) error
}

// BackendStore keeps progress next to the entities it describes.
type BackendStore struct {
	Backend Backend
	Name    string
}

func (s *BackendStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Backend == nil {
		return 0, false, nil
	}
	return s.Backend.LoadState(ctx, s.Name)
}

func (s *BackendStore) Save(ctx context.Context, block uint64) error {
	if s == nil || s.Backend == nil {
		return nil
	}
	return s.Backend.SaveState(ctx, s.Name, block)
}
