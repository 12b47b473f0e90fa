package tokenstore

import (
	"fmt"

	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
)

// Store kinds accepted by New.
const (
	KindMemory   = "memory"
	KindSQLite   = "sqlite"
	KindKeychain = "keychain"
)

// New creates the store named by kind. path is used by the sqlite store.
func New(kind, path string) (driven.TokenStore, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return NewSQLiteStore(path)
	case KindKeychain:
		return NewKeychainStore(""), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", kind)
	}
}
