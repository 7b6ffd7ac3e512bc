package storage

import (
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func substrates(t *testing.T) map[string]Store {
	t.Helper()
	dir, err := OpenDir(t.TempDir())
	require.NoError(t, err)
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return map[string]Store{
		"memory": NewMemory(0),
		"dir":    dir,
		"sqlite": db,
	}
}

func TestStore_Contract(t *testing.T) {
	for name, s := range substrates(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok, "absent key should miss")

			require.NoError(t, s.Set("a", `{"x":1}`))
			v, ok, err := s.Get("a")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `{"x":1}`, v)

			// Overwrite replaces, never merges.
			require.NoError(t, s.Set("a", `{"y":2}`))
			v, _, _ = s.Get("a")
			assert.Equal(t, `{"y":2}`, v)

			require.NoError(t, s.Remove("a"))
			_, ok, _ = s.Get("a")
			assert.False(t, ok)

			// Removing an absent key is fine, twice.
			require.NoError(t, s.Remove("a"))
			require.NoError(t, s.Remove("a"))
		})
	}
}

func TestStore_KeysWithPrefix(t *testing.T) {
	for name, s := range substrates(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"ns_a", "ns_b", "other_c", "ns%_d", "nsx"} {
				require.NoError(t, s.Set(k, "v"))
			}

			all, err := s.Keys()
			require.NoError(t, err)
			assert.Len(t, all, 5)

			got, err := KeysWithPrefix(s, "ns_")
			require.NoError(t, err)
			sort.Strings(got)
			assert.Equal(t, []string{"ns_a", "ns_b"}, got)

			got, err = KeysWithPrefix(s, "ns%")
			require.NoError(t, err)
			assert.Equal(t, []string{"ns%_d"}, got)
		})
	}
}

// keysOnly hides the PrefixLister of the wrapped store.
type keysOnly struct{ Store }

func TestKeysWithPrefix_FallbackScan(t *testing.T) {
	m := NewMemory(0)
	require.NoError(t, m.Set("p1", "v"))
	require.NoError(t, m.Set("q1", "v"))

	got, err := KeysWithPrefix(keysOnly{m}, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, got)
}

func TestMemory_Quota(t *testing.T) {
	m := NewMemory(10)
	require.NoError(t, m.Set("k", "12345")) // 6 bytes
	assert.Equal(t, 6, m.Used())

	err := m.Set("j", "123456") // would be 13
	assert.True(t, errors.Is(err, ErrQuotaExceeded))
	_, ok, _ := m.Get("j")
	assert.False(t, ok, "rejected write must not be stored")

	// Replacing an existing value only counts the difference.
	require.NoError(t, m.Set("k", "123456789"))
	assert.Equal(t, 10, m.Used())

	require.NoError(t, m.Remove("k"))
	assert.Equal(t, 0, m.Used())
}

func TestDir_PersistsAcrossOpens(t *testing.T) {
	path := t.TempDir()
	d1, err := OpenDir(path)
	require.NoError(t, err)
	require.NoError(t, d1.Set("fetch_https://example.com/a?b=c_{}", "payload"))

	d2, err := OpenDir(path)
	require.NoError(t, err)
	v, ok, err := d2.Get("fetch_https://example.com/a?b=c_{}")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "payload", v)

	keys, err := d2.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch_https://example.com/a?b=c_{}"}, keys)
}

func TestSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}

func TestSQLite_ClosedIsUnavailable(t *testing.T) {
	var s *SQLite
	assert.ErrorIs(t, s.Set("k", "v"), ErrUnavailable)
	_, err := s.Keys()
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpen(t *testing.T) {
	s, err := Open(BackendMemory, "", 0)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(BackendDir, t.TempDir(), 0)
	require.NoError(t, err)
	assert.IsType(t, &Dir{}, s)

	s, err = Open(BackendSQLite, filepath.Join(t.TempDir(), "sub", "c.db"), 0)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	assert.NoError(t, Close(s))

	_, err = Open("redis", "", 0)
	assert.Error(t, err)
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("test")
	assert.Equal(t, h1, HashKey("test"))
	assert.NotEqual(t, h1, HashKey("other"))
	assert.Len(t, h1, 64)
}
