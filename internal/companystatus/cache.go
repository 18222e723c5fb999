// Package companystatus implements the Company Fetch-Status Cache
// (component O): an embedded badger/badgerhold key-value store, separate
// from the durable Storage Kernel, recording the health of the most
// recent ingestion attempt per (profile, company) pair.
package companystatus

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

// Cache implements interfaces.CompanyStatusCache over a badgerhold store
// opened once at startup and closed on shutdown.
type Cache struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

var _ interfaces.CompanyStatusCache = (*Cache)(nil)

// New opens (creating if necessary) the badger database at path.
func New(path string, logger arbor.ILogger) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("companystatus: creating data directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("companystatus: opening badger database at %s: %w", path, err)
	}

	return &Cache{store: store, logger: logger}, nil
}

// Put upserts status keyed by (profile, company), overwriting any prior
// record for the pair — only the most recent fetch attempt matters.
func (c *Cache) Put(status models.CompanyFetchStatus) error {
	if err := c.store.Upsert(status.Key(), &status); err != nil {
		return fmt.Errorf("companystatus: upserting %s: %w", status.Key(), err)
	}
	return nil
}

// Get looks up the status for a single (profile, company) pair.
func (c *Cache) Get(profile, company string) (models.CompanyFetchStatus, bool, error) {
	key := models.CompanyFetchStatus{Profile: profile, Company: company}.Key()

	var status models.CompanyFetchStatus
	err := c.store.Get(key, &status)
	if err == badgerhold.ErrNotFound {
		return models.CompanyFetchStatus{}, false, nil
	}
	if err != nil {
		return models.CompanyFetchStatus{}, false, fmt.Errorf("companystatus: getting %s: %w", key, err)
	}
	return status, true, nil
}

// ListByProfile returns every status record for the given profile, for
// the /companies endpoint.
func (c *Cache) ListByProfile(profile string) ([]models.CompanyFetchStatus, error) {
	var statuses []models.CompanyFetchStatus
	query := badgerhold.Where("Profile").Eq(profile)
	if err := c.store.Find(&statuses, query); err != nil {
		return nil, fmt.Errorf("companystatus: listing profile %s: %w", profile, err)
	}
	return statuses, nil
}

// Close closes the underlying badger database.
func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
