// Package learned implements the Learned-answer DB (component J): a
// single-writer, mutex-guarded cache of question-label -> answer pairs
// that survived verification, persisted via the Storage Kernel.
package learned

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

const answersKey = "learned/answers.json"

var keyStripPattern = regexp.MustCompile(`[*?!:\-_()"']`)
var whitespacePattern = regexp.MustCompile(`\s+`)

// NormalizeKey implements spec.md §4.J's key normalization: lowercase,
// strip `*?!:-_()"'`, collapse whitespace, truncate to 100 chars. Applied
// both on Record and on Lookup so recall does not depend on incidental
// punctuation differences between the label a field carried this time and
// the label it carried when the answer was first learned.
func NormalizeKey(label string) string {
	k := strings.ToLower(strings.TrimSpace(label))
	k = keyStripPattern.ReplaceAllString(k, "")
	k = whitespacePattern.ReplaceAllString(k, " ")
	k = strings.TrimSpace(k)
	if len(k) > 100 {
		k = k[:100]
	}
	return k
}

// DB is the concrete LearnedDB.
type DB struct {
	kernel interfaces.StorageKernel
	logger arbor.ILogger

	mu   sync.Mutex
	data models.LearnedAnswers
}

var _ interfaces.LearnedDB = (*DB)(nil)

// New loads the existing learned-answer file (if any) and returns a
// ready-to-use DB.
func New(kernel interfaces.StorageKernel, logger arbor.ILogger) (*DB, error) {
	db := &DB{kernel: kernel, logger: logger, data: models.NewLearnedAnswers()}
	if err := kernel.Load(answersKey, &db.data); err != nil {
		return nil, err
	}
	if db.data.ByCompany == nil {
		db.data.ByCompany = make(map[string]map[string]models.LearnedAnswer)
	}
	if db.data.Global == nil {
		db.data.Global = make(map[string]models.LearnedAnswer)
	}
	return db, nil
}

// Lookup tries the normalized exact key first, then substring containment
// in both directions against every key at the applicable scope, per
// spec.md §4.J.
func (d *DB) Lookup(company, label string) (models.LearnedAnswer, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := NormalizeKey(label)

	if a, ok := d.data.Lookup(company, key); ok {
		return a, true, nil
	}

	if company != "" {
		if byLabel, ok := d.data.ByCompany[company]; ok {
			if a, ok := containsMatch(byLabel, key); ok {
				return a, true, nil
			}
		}
	}
	if a, ok := containsMatch(d.data.Global, key); ok {
		return a, true, nil
	}

	return models.LearnedAnswer{}, false, nil
}

func containsMatch(m map[string]models.LearnedAnswer, key string) (models.LearnedAnswer, bool) {
	for k, a := range m {
		if strings.Contains(k, key) || strings.Contains(key, k) {
			return a, true
		}
	}
	return models.LearnedAnswer{}, false
}

// Record upserts an answer and persists the full table.
func (d *DB) Record(company, label, value string, ft models.FieldType, confirmed bool, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := NormalizeKey(label)
	d.data.Record(company, key, value, ft, confirmed, at)

	if err := d.kernel.Save(answersKey, d.data); err != nil {
		if d.logger != nil {
			d.logger.Error().Err(err).Str("label", key).Msg("learned db: failed to persist")
		}
		return err
	}
	return nil
}

// All returns a snapshot of the full table, used by the /learned
// inspection endpoint (if wired) and by tests.
func (d *DB) All() (models.LearnedAnswers, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data, nil
}
