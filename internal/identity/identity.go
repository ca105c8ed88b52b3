// Package identity manages the device's opaque identifier.
//
// The identity is a random UUID generated once, on first launch, and
// persisted in the user's config directory under a fixed namespace and
// key. Every later launch reads the same value back. The app never
// destroys or rotates it — deleting the file is the only way to become a
// new identity, which is exactly the anonymous-but-stable contract the
// shared board is built on.
//
// Per the redesign of the original global, the identifier is loaded once
// at startup and passed explicitly to whatever needs it; nothing in this
// package is process-global.
package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// The preference namespace and key, fixed for the lifetime of the app —
// changing either orphans every existing install's identity.
const (
	prefsDir = "WhenBabePrefs"
	idFile   = "user_id"
)

// Load returns the device identity, creating and persisting a new one if
// none exists yet. baseDir is the preference storage root (usually
// os.UserConfigDir()); tests pass a temp dir.
//
// The boolean reports whether the identity was created on this call —
// the caller uses that to announce a first launch to the board.
func Load(baseDir string) (string, bool, error) {
	path := filepath.Join(baseDir, prefsDir, idFile)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		id := strings.TrimSpace(string(data))
		if id == "" {
			// Corrupt/empty file: regenerate rather than run with an
			// empty identity, which the board would reject everywhere.
			return create(path)
		}
		return id, false, nil
	case errors.Is(err, fs.ErrNotExist):
		return create(path)
	default:
		return "", false, fmt.Errorf("identity: reading %s: %w", path, err)
	}
}

func create(path string) (string, bool, error) {
	id := uuid.NewString()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", false, fmt.Errorf("identity: creating prefs dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id), 0o600); err != nil {
		return "", false, fmt.Errorf("identity: persisting device id: %w", err)
	}

	return id, true, nil
}
