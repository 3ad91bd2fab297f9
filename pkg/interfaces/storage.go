package interfaces

import (
	"github.com/goliatone/go-press/pkg/storage"
)

// StorageProvider preserves backwards compatibility for callers still importing
// the legacy interface location. Implementations should prefer satisfying
// pkg/storage.Provider directly.
type StorageProvider = storage.Provider

// WriteRequest aliases the storage write descriptor.
type WriteRequest = storage.WriteRequest
