package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/citecheck/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("extract", "gpt-4o", "brief text")
	assert.Equal(t, a, Key("extract", "gpt-4o", "brief text"))
	assert.NotEqual(t, a, Key("verify", "gpt-4o", "brief text"))
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.Contains(t, a, "citecheck:v1:")
}

func TestNew(t *testing.T) {
	assert.Nil(t, New(model.CacheConfig{Enabled: false}))

	_, ok := New(model.CacheConfig{Enabled: true}).(*MemoryCache)
	assert.True(t, ok, "memory only without a directory")

	_, ok = New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}).(*LayeredCache)
	assert.True(t, ok, "layered with a directory")
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	key := Key("x")

	_, found := c.Get(key)
	assert.False(t, found)

	value := []byte("response")
	require.NoError(t, c.Set(key, value, 0))
	value[0] = 'X'

	got, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, "response", string(got), "stored value is a copy")
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(key))
	_, found = c.Get(key)
	assert.False(t, found)

	require.NoError(t, c.Set(key, value, 0))
	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, found := c.Get("k")
	assert.False(t, found)
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("verify", "theus")

	require.NoError(t, c.Set(key, []byte(`[{"index":1}]`), 0))

	got, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, `[{"index":1}]`, string(got))

	// Sharded, no temp files left behind
	path := c.path(key)
	assert.Equal(t, dir, filepath.Dir(filepath.Dir(path)))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, c.Delete(key))
	require.NoError(t, c.Delete(key), "deleting a missing key")
	_, found = c.Get(key)
	assert.False(t, found)
}

func TestDiskCache_ExpiredAndCorrupt(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	require.NoError(t, c.Set("old", []byte("v"), -time.Second))
	_, found := c.Get("old")
	assert.False(t, found)
	_, err := os.Stat(c.path("old"))
	assert.True(t, os.IsNotExist(err), "expired entry is removed")

	path := c.path("bad")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, found = c.Get("bad")
	assert.False(t, found)
}

func TestDiskCache_PathSanitized(t *testing.T) {
	c := NewDiskCache("/cache", time.Hour)
	path := c.path("weird/../key")
	assert.Equal(t, "/cache", filepath.Dir(filepath.Dir(path)))
}

func TestLayeredCache(t *testing.T) {
	dir := t.TempDir()
	first := NewLayeredCache(time.Hour, dir, time.Hour)
	require.NoError(t, first.Set("k", []byte("v"), 0))

	// A new run over the same directory sees the disk entry
	second := NewLayeredCache(time.Hour, dir, time.Hour)
	got, found := second.Get("k")
	require.True(t, found)
	assert.Equal(t, "v", string(got))

	mem := second.memory.(*MemoryCache)
	assert.Equal(t, 1, mem.Len(), "disk hit promoted to memory")

	require.NoError(t, second.Delete("k"))
	_, found = first.disk.Get("k")
	assert.False(t, found)

	require.NoError(t, first.Set("k2", []byte("v"), 0))
	require.NoError(t, first.Clear())
	_, found = first.Get("k2")
	assert.False(t, found)
}
