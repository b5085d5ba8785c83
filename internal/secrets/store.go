// Package secrets provides storage for the gate's secret strings and
// reference PIN.
//
// The firmware compiled its secrets into the binary; the daemon instead
// loads them at startup from a backing store into an immutable, dense-index
// Table. On macOS the backing store is the system Keychain (generic
// passwords under the "com.keygate" service, device-only, never synced);
// elsewhere it is a 0600 JSON file. Secret values never leave the process
// except as synthesized keystrokes while the gate is unlocked.
package secrets

import "errors"

// ErrNotFound is returned when a secret does not exist in the store.
var ErrNotFound = errors.New("secret not found")

// Store is the interface for secret storage operations.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	List() ([]string, error)
	Delete(key string) error
	GetMultiple(keys []string) (map[string]string, error)
}
