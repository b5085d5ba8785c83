//go:build !darwin

package secrets

// NewSystemStore returns a FileStore on non-darwin platforms. The macOS
// Keychain is not available outside of macOS; secrets are kept in a 0600
// JSON file under the keygate state directory.
func NewSystemStore(dir string) *FileStore {
	return NewFileStore(dir)
}
