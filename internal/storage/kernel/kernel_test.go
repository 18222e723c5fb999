package kernel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func TestKernel_SaveLoadRoundTrip(t *testing.T) {
	k, err := New(nil, t.TempDir())
	require.NoError(t, err)

	in := sample{Name: "greenhouse", N: 3}
	require.NoError(t, k.Save("pipeline/jobs.json", &in))

	var out sample
	require.NoError(t, k.Load("pipeline/jobs.json", &out))
	assert.Equal(t, in, out)
}

func TestKernel_LoadMissingFileLeavesZeroValue(t *testing.T) {
	k, err := New(nil, t.TempDir())
	require.NoError(t, err)

	out := sample{Name: "untouched"}
	require.NoError(t, k.Load("pipeline/does-not-exist.json", &out))
	assert.Equal(t, "untouched", out.Name)
}

func TestKernel_LoadMalformedFileDoesNotError(t *testing.T) {
	dir := t.TempDir()
	k, err := New(nil, dir)
	require.NoError(t, err)

	require.NoError(t, k.Save("bad.json", &sample{Name: "ok"}))
	// Corrupt the file directly.
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	var out sample
	assert.NoError(t, k.Load("bad.json", &out))
}

func TestKernel_ExistsAndDelete(t *testing.T) {
	k, err := New(nil, t.TempDir())
	require.NoError(t, err)

	assert.False(t, k.Exists("x.json"))
	require.NoError(t, k.Save("x.json", &sample{Name: "x"}))
	assert.True(t, k.Exists("x.json"))

	require.NoError(t, k.Delete("x.json"))
	assert.False(t, k.Exists("x.json"))

	// Deleting again is not an error.
	assert.NoError(t, k.Delete("x.json"))
}

func TestKernel_SaveCreatesNestedDirectories(t *testing.T) {
	k, err := New(nil, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, k.Save("a/b/c.json", &sample{Name: "nested"}))
	assert.True(t, k.Exists("a/b/c.json"))
}
