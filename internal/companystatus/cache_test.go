package companystatus

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vellum/internal/models"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := New(filepath.Join(t.TempDir(), "companystatus"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCache_PutThenGetRoundTrips(t *testing.T) {
	cache := newTestCache(t)

	status := models.CompanyFetchStatus{
		Profile:   "default",
		Company:   "Acme",
		ATS:       "greenhouse",
		URL:       "https://boards.greenhouse.io/acme",
		OK:        true,
		JobCount:  42,
		CheckedAt: time.Now(),
	}
	require.NoError(t, cache.Put(status))

	got, found, err := cache.Get("default", "Acme")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "greenhouse", got.ATS)
	assert.Equal(t, 42, got.JobCount)
}

func TestCache_GetMissingReturnsFalseNotError(t *testing.T) {
	cache := newTestCache(t)

	_, found, err := cache.Get("default", "Nonexistent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_PutOverwritesPriorRecordForSamePair(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Put(models.CompanyFetchStatus{Profile: "default", Company: "Acme", OK: false, Error: "timeout"}))
	require.NoError(t, cache.Put(models.CompanyFetchStatus{Profile: "default", Company: "Acme", OK: true}))

	got, found, err := cache.Get("default", "Acme")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.OK)
	assert.Empty(t, got.Error)
}

func TestCache_ListByProfileReturnsOnlyMatchingProfile(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Put(models.CompanyFetchStatus{Profile: "default", Company: "Acme"}))
	require.NoError(t, cache.Put(models.CompanyFetchStatus{Profile: "default", Company: "Globex"}))
	require.NoError(t, cache.Put(models.CompanyFetchStatus{Profile: "other", Company: "Initech"}))

	statuses, err := cache.ListByProfile("default")
	require.NoError(t, err)
	assert.Len(t, statuses, 2)
}
