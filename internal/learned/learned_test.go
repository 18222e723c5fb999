package learned

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vellum/internal/models"
)

type memKernel struct {
	files map[string]string
}

func newMemKernel() *memKernel { return &memKernel{files: make(map[string]string)} }

func (m *memKernel) Load(key string, target interface{}) error {
	raw, ok := m.files[key]
	if !ok {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}

func (m *memKernel) Save(key string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.files[key] = string(raw)
	return nil
}

func (m *memKernel) Exists(key string) bool {
	_, ok := m.files[key]
	return ok
}

func (m *memKernel) Delete(key string) error {
	delete(m.files, key)
	return nil
}

func TestNormalizeKey_StripsPunctuationAndCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "are you authorizedtowork", NormalizeKey(" Are you   authorized-to-work?! "))
}

func TestNormalizeKey_TruncatesTo100Chars(t *testing.T) {
	long := ""
	for i := 0; i < 200; i++ {
		long += "a"
	}
	assert.Len(t, NormalizeKey(long), 100)
}

func TestDB_RecordThenLookupExact(t *testing.T) {
	db, err := New(newMemKernel(), nil)
	require.NoError(t, err)

	require.NoError(t, db.Record("Acme", "What is your email?", "a@b.com", models.FieldText, true, time.Unix(0, 0)))

	a, ok, err := db.Lookup("Acme", "What is your email?")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a@b.com", a.Value)
}

func TestDB_LookupFallsBackToSubstringContainment(t *testing.T) {
	db, err := New(newMemKernel(), nil)
	require.NoError(t, err)
	require.NoError(t, db.Record("Acme", "non-compete agreement", "No", models.FieldRadio, true, time.Unix(0, 0)))

	a, ok, err := db.Lookup("Acme", "do you agree to the non-compete agreement terms")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "No", a.Value)
}

func TestDB_LookupFallsBackToGlobalWhenNoCompanyEntry(t *testing.T) {
	db, err := New(newMemKernel(), nil)
	require.NoError(t, err)
	require.NoError(t, db.Record("", "email", "a@b.com", models.FieldText, true, time.Unix(0, 0)))

	a, ok, err := db.Lookup("OtherCo", "email")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a@b.com", a.Value)
}

func TestDB_LookupMissReturnsFalseNotError(t *testing.T) {
	db, err := New(newMemKernel(), nil)
	require.NoError(t, err)

	_, ok, err := db.Lookup("Acme", "some never seen question")
	require.NoError(t, err)
	assert.False(t, ok)
}
