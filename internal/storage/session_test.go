package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneyScope/internal/model"
)

func TestSessionLoadOrCreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	session := NewSession(store)
	bar, created, err := LoadOrCreate(ctx, session, "0xbar", func() *model.Bar { return model.NewBar("0xbar", 100) })
	require.NoError(t, err)
	assert.True(t, created)
	bar.TotalSupply = decimal.NewFromInt(42)

	again, created, err := LoadOrCreate(ctx, session, "0xbar", func() *model.Bar { return model.NewBar("0xbar", 100) })
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, bar, again)

	session.Save(bar)
	session.Save(bar)
	assert.Equal(t, 1, session.Pending())
	require.NoError(t, session.Flush(ctx))
	assert.Equal(t, 0, session.Pending())

	next := NewSession(store)
	loaded, found, err := Load(ctx, next, "0xbar", func() *model.Bar { return model.NewBar("0xbar", 0) })
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, loaded.TotalSupply.Equal(decimal.NewFromInt(42)))
	assert.Equal(t, uint64(100), loaded.XMoney.UpdatedAt)
}

func TestSessionDropsUnsavedEntities(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	session := NewSession(store)
	_, _, err := LoadOrCreate(ctx, session, "1", func() *model.LockupPool { return model.NewLockupPool("1") })
	require.NoError(t, err)
	require.NoError(t, session.Flush(ctx))
	assert.Equal(t, 0, store.Len())

	saved := NewSession(store)
	pool, _, err := LoadOrCreate(ctx, saved, "1", func() *model.LockupPool { return model.NewLockupPool("1") })
	require.NoError(t, err)
	saved.Save(pool)
	saved.Discard()
	require.NoError(t, saved.Flush(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestLoadMissingIsNotTracked(t *testing.T) {
	ctx := context.Background()
	session := NewSession(NewMemoryStore())

	user, found, err := Load(ctx, session, "0xabc", func() *model.BarUser { return model.NewBarUser("0xabc", 0) })
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "0xabc", user.ID)
	assert.Equal(t, 0, session.Pending())
}

func TestLoadRejectsCorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, model.KindBar, "0xbar", []byte("{not json")))

	_, _, err := Load(ctx, NewSession(store), "0xbar", func() *model.Bar { return model.NewBar("0xbar", 0) })
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "decode Bar/0xbar"))
}

func TestBufferCommit(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	buf := NewBuffer(base)

	require.NoError(t, buf.Put(ctx, "B", "2", []byte(`"b2"`)))
	require.NoError(t, buf.Put(ctx, "A", "1", []byte(`"a1"`)))
	require.NoError(t, buf.Put(ctx, "B", "2", []byte(`"b2-updated"`)))
	assert.Equal(t, 2, buf.Staged())

	data, ok, err := buf.Get(ctx, "B", "2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"b2-updated"`, string(data))

	_, ok, err = base.Get(ctx, "B", "2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, buf.Commit(ctx))
	assert.Equal(t, 0, buf.Staged())

	snapshot := base.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "A", snapshot[0].Kind)
	assert.Equal(t, "B", snapshot[1].Kind)
	assert.Equal(t, `"b2-updated"`, string(snapshot[1].Data))
}

func TestJsonlReaderSkipsBlankLines(t *testing.T) {
	input := "{\"block_number\":1}\n\n{\"block_number\":2}\n"
	reader := NewJsonlReader[model.CallRecord](strings.NewReader(input))

	first, ok, err := reader.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), first.BlockNumber)

	second, ok, err := reader.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), second.BlockNumber)

	_, ok, err = reader.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}
