// Package interfaces collects the narrow collaborator contracts that the
// Pipeline Store, Ingestion Orchestrator, and Autofill Engine depend on.
// Concrete implementations are injected at construction time in
// internal/app; nothing in this package imports a concrete adapter.
package interfaces

// StorageKernel is the atomic JSON file persistence contract (component A).
// Load into a pointer target; on a missing or malformed file it returns
// nil and leaves target at its zero value rather than erroring, so callers
// can treat "never written" and "freshly initialized" identically.
type StorageKernel interface {
	// Load reads the JSON file at key into target. target must be a
	// pointer. A missing file is not an error.
	Load(key string, target interface{}) error

	// Save atomically writes data as JSON to key: temp file in the same
	// directory, fsync, rename, fsync directory.
	Save(key string, data interface{}) error

	// Exists reports whether key has ever been written.
	Exists(key string) bool

	// Delete removes the file at key. Deleting a missing key is not an
	// error.
	Delete(key string) error
}
