package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/example/room-booker/internal/crypto"
)

var ErrNotFound = errors.New("profile not found")

// Profile is the saved identity used when credentials are not passed on the
// command line.
type Profile struct {
	Username      string
	Password      string
	PreferredName string
}

type fileFormat struct {
	Username          string `yaml:"username"`
	PasswordEncrypted string `yaml:"password_encrypted"`
	PreferredName     string `yaml:"preferred_name,omitempty"`
}

type Store struct {
	path string
	aead *crypto.AEAD
}

func NewStore(path string, aead *crypto.AEAD) *Store {
	return &Store{path: path, aead: aead}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Save(p Profile) error {
	if p.Username == "" || p.Password == "" {
		return fmt.Errorf("username and password required")
	}
	enc, err := s.aead.EncryptToString(p.Password)
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(fileFormat{
		Username:          p.Username,
		PasswordEncrypted: enc,
		PreferredName:     p.PreferredName,
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

func (s *Store) Load() (Profile, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	var f fileFormat
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", s.path, err)
	}
	pw, err := s.aead.DecryptString(f.PasswordEncrypted)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: decrypt password: %w", s.path, err)
	}
	return Profile{Username: f.Username, Password: pw, PreferredName: f.PreferredName}, nil
}
