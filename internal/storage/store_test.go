package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prefs struct {
	PageSize int               `json:"page_size"`
	Columns  []string          `json:"columns"`
	Filters  map[string]string `json:"filters"`
}

// backends returns every backend that can run in this environment.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	ctx := context.Background()

	out := map[string]Backend{"memory": NewMemoryBackend()}

	sqlite, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "kv", "fg.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	out["sqlite"] = sqlite

	if url := os.Getenv("FG_TEST_DATABASE_URL"); url != "" {
		pool, err := pgxpool.New(ctx, url)
		require.NoError(t, err)
		t.Cleanup(pool.Close)
		pg, err := NewPostgresBackend(ctx, pool)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `DELETE FROM fg_kv`)
		require.NoError(t, err)
		out["postgres"] = pg
	}

	return out
}

func TestStore_RoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(b, "", nil)

			in := prefs{PageSize: 25, Columns: []string{"amount", "risk"}, Filters: map[string]string{"risk": "high"}}
			require.NoError(t, s.Set(ctx, "prefs", in))

			var out prefs
			found, err := s.Get(ctx, "prefs", &out)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, in, out)

			require.NoError(t, s.Set(ctx, "count", 3))
			var n int
			found, err = s.Get(ctx, "count", &n)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, 3, n)

			require.NoError(t, s.Remove(ctx, "prefs"))
			found, err = s.Get(ctx, "prefs", &out)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(b, "", nil)

			require.NoError(t, s.Set(ctx, "theme", "light"))
			require.NoError(t, s.Set(ctx, "theme", "dark"))

			var theme string
			found, err := s.Get(ctx, "theme", &theme)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "dark", theme)
		})
	}
}

func TestStore_ClearOnlyTouchesPrefix(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// Unrelated entries written straight to the backend.
			require.NoError(t, b.Put(ctx, "other_app", []byte(`1`)))
			require.NoError(t, b.Put(ctx, "fgx", []byte(`2`)))
			require.NoError(t, b.Put(ctx, "fg", []byte(`3`)))

			s := New(b, "", nil)
			require.NoError(t, s.Set(ctx, "a", 1))
			require.NoError(t, s.Set(ctx, "b", 2))

			require.NoError(t, s.Clear(ctx))

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Empty(t, keys)

			for _, k := range []string{"other_app", "fgx", "fg"} {
				_, found, err := b.Fetch(ctx, k)
				require.NoError(t, err)
				assert.True(t, found, "clear removed foreign key %q", k)
			}
		})
	}
}

func TestStore_ScopeIsolation(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	root := New(b, "", nil)
	alice := root.Scope("alice")
	bob := root.Scope("bob")

	require.NoError(t, root.Set(ctx, "shared", true))
	require.NoError(t, alice.Set(ctx, "k", "a"))
	require.NoError(t, bob.Set(ctx, "k", "b"))

	assert.Equal(t, "fg_alice:", alice.Prefix())

	var got string
	_, err := alice.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	require.NoError(t, alice.Clear(ctx))

	found, err := bob.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b", got)

	var shared bool
	found, err = root.Get(ctx, "shared", &shared)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, b.Len())
}

func TestStore_KeysArePrefixed(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	s := New(b, "", nil)

	require.NoError(t, s.Set(ctx, "columns", []string{"a"}))

	_, found, err := b.Fetch(ctx, "fg_columns")
	require.NoError(t, err)
	assert.True(t, found)

	raw, found, err := s.GetRaw(ctx, "columns")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `["a"]`, string(raw))
}

func TestStore_InvalidKey(t *testing.T) {
	s := New(NewMemoryBackend(), "", nil)
	ctx := context.Background()

	assert.ErrorIs(t, s.Set(ctx, "", 1), ErrInvalidKey)
	_, err := s.Get(ctx, "", new(int))
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, s.Remove(ctx, ""), ErrInvalidKey)
}

func TestStore_EncodeError(t *testing.T) {
	s := New(NewMemoryBackend(), "", nil)
	err := s.Set(context.Background(), "ch", make(chan int))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestStore_DecodeMismatch(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), "", nil)
	require.NoError(t, s.Set(ctx, "n", "not a number"))

	var n int
	found, err := s.Get(ctx, "n", &n)
	assert.False(t, found)
	assert.Error(t, err)
}

// brokenBackend fails every call, like storage that is disabled or full.
type brokenBackend struct{}

var errQuota = errors.New("quota exceeded")

func (brokenBackend) Put(context.Context, string, []byte) error { return errQuota }
func (brokenBackend) Fetch(context.Context, string) ([]byte, bool, error) {
	return nil, false, errQuota
}
func (brokenBackend) Delete(context.Context, string) error { return errQuota }
func (brokenBackend) KeysWithPrefix(context.Context, string) ([]string, error) {
	return nil, errQuota
}

func TestStore_UnavailableBackend(t *testing.T) {
	ctx := context.Background()
	s := New(brokenBackend{}, "", nil)

	assert.ErrorIs(t, s.Set(ctx, "k", 1), ErrUnavailable)

	var v int
	found, err := s.Get(ctx, "k", &v)
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.ErrorIs(t, s.Remove(ctx, "k"), ErrUnavailable)
	assert.ErrorIs(t, s.Clear(ctx), ErrUnavailable)
}
