// Package secrets caches the bearer token of each push server the user has logged
// in to, so the console can start without asking for it again.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const fileName = "credentials.json"

var ErrNotFound = errors.New("secrets: no credential for server")

// Credential is what login leaves behind for one server.
type Credential struct {
	Token    string
	Username string
	StoredAt time.Time
}

// record is the on-disk form. The token is sealed with the server URL as
// additional data, so a record copied under another server does not open.
type record struct {
	Sealed   []byte    `json:"sealed"`
	Username string    `json:"username,omitempty"`
	StoredAt time.Time `json:"stored_at"`
}

type credentialFile struct {
	Servers map[string]record `json:"servers"`
}

// Store keeps credentials in dir, 0600. An empty dir means the user config
// directory. The sealing key is derived from the local account; it keeps tokens out
// of plain sight, it is not a keychain.
type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Put replaces the credential for server. A zero StoredAt is set to now.
func (s *Store) Put(server string, c Credential) error {
	key, err := serverKey(server)
	if err != nil {
		return err
	}
	if c.StoredAt.IsZero() {
		c.StoredAt = time.Now()
	}
	aead, err := newAEAD()
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("secrets: nonce: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, path, err := s.read()
	if err != nil {
		return err
	}
	f.Servers[key] = record{
		Sealed:   aead.Seal(nonce, nonce, []byte(c.Token), []byte(key)),
		Username: c.Username,
		StoredAt: c.StoredAt.UTC().Truncate(time.Second),
	}
	return s.write(path, f)
}

// Get returns the credential for server, or ErrNotFound.
func (s *Store) Get(server string) (Credential, error) {
	key, err := serverKey(server)
	if err != nil {
		return Credential{}, err
	}
	s.mu.Lock()
	f, _, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return Credential{}, err
	}
	rec, ok := f.Servers[key]
	if !ok {
		return Credential{}, ErrNotFound
	}
	return open(key, rec)
}

// Remove forgets the credential for server and returns what was stored.
func (s *Store) Remove(server string) (Credential, error) {
	key, err := serverKey(server)
	if err != nil {
		return Credential{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, path, err := s.read()
	if err != nil {
		return Credential{}, err
	}
	rec, ok := f.Servers[key]
	if !ok {
		return Credential{}, ErrNotFound
	}
	delete(f.Servers, key)
	if err := s.write(path, f); err != nil {
		return Credential{}, err
	}
	// the username and time are readable even when the token no longer opens
	c, err := open(key, rec)
	if err != nil {
		return Credential{Username: rec.Username, StoredAt: rec.StoredAt}, nil
	}
	return c, nil
}

func open(key string, rec record) (Credential, error) {
	aead, err := newAEAD()
	if err != nil {
		return Credential{}, err
	}
	n := aead.NonceSize()
	if len(rec.Sealed) < n {
		return Credential{}, fmt.Errorf("secrets: credential for %s is truncated", key)
	}
	token, err := aead.Open(nil, rec.Sealed[:n], rec.Sealed[n:], []byte(key))
	if err != nil {
		return Credential{}, fmt.Errorf("secrets: credential for %s: %w", key, err)
	}
	return Credential{Token: string(token), Username: rec.Username, StoredAt: rec.StoredAt}, nil
}

func (s *Store) read() (credentialFile, string, error) {
	dir := s.dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return credentialFile{}, "", err
		}
		dir = filepath.Join(base, "upsconsole")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return credentialFile{}, "", err
	}
	path := filepath.Join(dir, fileName)
	f := credentialFile{Servers: map[string]record{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, path, nil
	}
	if err != nil {
		return f, path, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, path, fmt.Errorf("secrets: %s: %w", path, err)
	}
	if f.Servers == nil {
		f.Servers = map[string]record{}
	}
	return f, path, nil
}

func (s *Store) write(path string, f credentialFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), fileName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// serverKey ignores case and a trailing slash.
func serverKey(server string) (string, error) {
	key := strings.TrimRight(strings.ToLower(strings.TrimSpace(server)), "/")
	if key == "" {
		return "", errors.New("secrets: server URL required")
	}
	return key, nil
}

func newAEAD() (cipher.AEAD, error) {
	name := os.Getenv("USER")
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	sum := sha256.Sum256([]byte("upsconsole credentials/" + name))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
