package audit

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return newSQLiteStore(t) })
}

func TestSQLiteStore_ConcurrentAppends(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < 4; w++ {
		g.Go(func() error {
			for i := 0; i < 25; i++ {
				err := s.Append(gctx, NewEntry(Decision{
					EventType: EventOutputDelivered,
					Role:      "investigator",
					Input:     fmt.Sprintf("w%d-%d", w, i),
				}))
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	entries, err := s.Tail(ctx, 1000, Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 100)
}

func TestSQLiteStore_ReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.db")

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, NewEntry(Decision{EventType: EventInputAllowed, Input: "persisted"})))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.Tail(ctx, 5, Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "persisted", entries[0].InputPreview)
	assert.Equal(t, path, s.Path())
}
