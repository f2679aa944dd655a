package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// credentialFileName is the name of the credential file inside the
// crawldash config directory.
const credentialFileName = "credentials.json"

// Credential is the stored login state.
type Credential struct {
	Token   string    `json:"token"`
	Email   string    `json:"email,omitempty"`
	APIURL  string    `json:"api_url,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// DefaultPath returns $XDG_CONFIG_HOME/crawldash/credentials.json.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "crawldash", credentialFileName)
}

// FileStore keeps a Credential in a JSON file readable only by the owner.
// It implements Source.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore creates a FileStore at path. An empty path uses DefaultPath.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath()
	}
	return &FileStore{path: path, now: time.Now}
}

// Path returns the file location.
func (f *FileStore) Path() string {
	return f.path
}

// Save writes the credential, creating the parent directory if needed.
// The file is written with mode 0600.
func (f *FileStore) Save(c Credential) error {
	if c.SavedAt.IsZero() {
		c.SavedAt = f.now().UTC()
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write credential: %w", err)
	}
	return nil
}

// Load reads the stored credential. It returns ErrNoCredential if the file
// does not exist.
func (f *FileStore) Load() (Credential, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credential{}, ErrNoCredential
		}
		return Credential{}, fmt.Errorf("failed to read credential: %w", err)
	}

	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return Credential{}, fmt.Errorf("failed to decode credential %s: %w", f.path, err)
	}
	if c.Token == "" {
		return Credential{}, ErrNoCredential
	}
	return c, nil
}

// Clear removes the stored credential. Removing a missing file is not an error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	return nil
}

// Token returns the stored token, or ErrExpired if it is past its expiry.
func (f *FileStore) Token(context.Context) (string, error) {
	c, err := f.Load()
	if err != nil {
		return "", err
	}
	if Expired(c.Token, f.now()) {
		return "", ErrExpired
	}
	return c.Token, nil
}
