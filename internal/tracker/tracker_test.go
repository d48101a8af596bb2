package tracker

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func trackers(t *testing.T) map[string]Tracker {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return map[string]Tracker{
		"memory": NewMemory(),
		"sqlite": s,
	}
}

func TestMarkAndLookup(t *testing.T) {
	ctx := context.Background()
	for name, tr := range trackers(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := tr.IsProcessed(ctx, "h1")
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, tr.MarkProcessed(ctx, Entry{Hash: "h1", DocID: "d1", Filename: "q4.pdf"}))

			ok, err = tr.IsProcessed(ctx, "h1")
			require.NoError(t, err)
			require.True(t, ok)

			e, found, err := tr.Lookup(ctx, "h1")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, "d1", e.DocID)
			require.Equal(t, "q4.pdf", e.Filename)
			require.False(t, e.ProcessedAt.IsZero())
		})
	}
}

func TestMarkProcessedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, tr := range trackers(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tr.MarkProcessed(ctx, Entry{Hash: "h1", DocID: "d1", Filename: "a.pdf"}))
			require.NoError(t, tr.MarkProcessed(ctx, Entry{Hash: "h1", DocID: "d1", Filename: "a.pdf"}))
			entries, err := tr.List(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 1)
		})
	}
}

func TestDeleteByDocID(t *testing.T) {
	ctx := context.Background()
	for name, tr := range trackers(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tr.MarkProcessed(ctx, Entry{Hash: "h1", DocID: "d1", Filename: "a.pdf"}))
			require.NoError(t, tr.MarkProcessed(ctx, Entry{Hash: "h2", DocID: "d2", Filename: "b.pdf"}))
			require.NoError(t, tr.DeleteByDocID(ctx, "d1"))

			ok, err := tr.IsProcessed(ctx, "h1")
			require.NoError(t, err)
			require.False(t, ok)

			ok, err = tr.IsProcessed(ctx, "h2")
			require.NoError(t, err)
			require.True(t, ok)
		})
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	for name, tr := range trackers(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tr.MarkProcessed(ctx, Entry{Hash: "h1", DocID: "d1", Filename: "a.pdf"}))
			require.NoError(t, tr.Clear(ctx))
			entries, err := tr.List(ctx)
			require.NoError(t, err)
			require.Empty(t, entries)
		})
	}
}
