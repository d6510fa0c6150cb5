package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/rooms"
)

type Config struct {
	// library endpoints
	AuthURL     string
	ReserveURL  string
	HTTPTimeout time.Duration
	ProxyURL    string

	// trigger
	PollInterval time.Duration

	// history (optional)
	DatabaseURL string

	// web panel
	ListenAddr     string
	BaseURL        string
	CookieHashKey  []byte
	CookieBlockKey []byte
	UIPasswordHash string

	// saved credentials
	CredEncKey  []byte
	ProfilePath string

	// from the config file only
	Rooms     []rooms.Room
	RawFields string
}

// File is the YAML layout read from CONFIG_PATH. Every field is optional;
// environment variables take precedence.
type File struct {
	Library struct {
		AuthURL        string `yaml:"auth_url"`
		ReserveURL     string `yaml:"reserve_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		ProxyURL       string `yaml:"proxy_url"`
	} `yaml:"library"`
	Trigger struct {
		PollIntervalMS int `yaml:"poll_interval_ms"`
	} `yaml:"trigger"`
	Reserve struct {
		RawFields string `yaml:"raw_fields"`
	} `yaml:"reserve"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Server struct {
		ListenAddr     string `yaml:"listen_addr"`
		BaseURL        string `yaml:"base_url"`
		PasswordHash   string `yaml:"password_hash"`
		CookieHashKey  string `yaml:"cookie_hash_key"`
		CookieBlockKey string `yaml:"cookie_block_key"`
	} `yaml:"server"`
	Profile struct {
		Path   string `yaml:"path"`
		EncKey string `yaml:"enc_key"`
	} `yaml:"profile"`
	Rooms []rooms.Room `yaml:"rooms"`
}

// FromEnv loads CONFIG_PATH (if set) and then applies environment overrides.
func FromEnv() (Config, error) {
	var f File
	if p := strings.TrimSpace(os.Getenv("CONFIG_PATH")); p != "" {
		var err error
		f, err = LoadFile(p)
		if err != nil {
			return Config{}, err
		}
	}
	return build(f, os.Getenv)
}

func LoadFile(path string) (File, error) {
	var f File
	r, err := os.Open(path)
	if err != nil {
		return f, fmt.Errorf("config: %w", err)
	}
	defer r.Close()
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return f, fmt.Errorf("config %s: %w", path, err)
	}
	return f, nil
}

func build(f File, env func(string) string) (Config, error) {
	get := func(k, fileVal, def string) string {
		if v := strings.TrimSpace(env(k)); v != "" {
			return v
		}
		if fileVal != "" {
			return fileVal
		}
		return def
	}

	cfg := Config{
		AuthURL:        get("AUTH_URL", f.Library.AuthURL, booking.DefaultAuthURL),
		ReserveURL:     get("RESERVE_URL", f.Library.ReserveURL, booking.DefaultReserveURL),
		ProxyURL:       get("PROXY_URL", f.Library.ProxyURL, ""),
		DatabaseURL:    get("DATABASE_URL", f.Database.URL, ""),
		ListenAddr:     get("LISTEN_ADDR", f.Server.ListenAddr, ":8080"),
		BaseURL:        get("BASE_URL", f.Server.BaseURL, "http://localhost:8080"),
		UIPasswordHash: get("UI_PASSWORD_HASH", f.Server.PasswordHash, ""),
		ProfilePath:    get("PROFILE_PATH", f.Profile.Path, defaultProfilePath()),
		Rooms:          f.Rooms,
		RawFields:      f.Reserve.RawFields,
	}

	timeout, err := positiveInt(get("HTTP_TIMEOUT_SECONDS", itoa(f.Library.TimeoutSeconds), "20"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid HTTP_TIMEOUT_SECONDS: %w", err)
	}
	cfg.HTTPTimeout = time.Duration(timeout) * time.Second

	pollMS, err := positiveInt(get("POLL_INTERVAL_MS", itoa(f.Trigger.PollIntervalMS), "500"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid POLL_INTERVAL_MS: %w", err)
	}
	cfg.PollInterval = time.Duration(pollMS) * time.Millisecond

	if cfg.CookieHashKey, err = optionalB64("COOKIE_HASH_KEY", get("COOKIE_HASH_KEY", f.Server.CookieHashKey, "")); err != nil {
		return Config{}, err
	}
	if cfg.CookieBlockKey, err = optionalB64("COOKIE_BLOCK_KEY", get("COOKIE_BLOCK_KEY", f.Server.CookieBlockKey, "")); err != nil {
		return Config{}, err
	}
	if cfg.CredEncKey, err = optionalB64("CRED_ENC_KEY", get("CRED_ENC_KEY", f.Profile.EncKey, "")); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Catalog returns the configured room catalog or the built-in one.
func (c Config) Catalog() *rooms.Catalog {
	if len(c.Rooms) > 0 {
		return rooms.New(c.Rooms)
	}
	return rooms.Default()
}

// RequireWeb checks the settings the web panel cannot run without.
func (c Config) RequireWeb() error {
	if len(c.CookieHashKey) == 0 || len(c.CookieBlockKey) == 0 {
		return fmt.Errorf("COOKIE_HASH_KEY and COOKIE_BLOCK_KEY are required (32 and 16/24/32 bytes base64; see `roombooker keys`)")
	}
	switch len(c.CookieBlockKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("COOKIE_BLOCK_KEY must decode to 16, 24 or 32 bytes (got %d)", len(c.CookieBlockKey))
	}
	if c.UIPasswordHash == "" {
		return fmt.Errorf("UI_PASSWORD_HASH is required (see `roombooker passwd`)")
	}
	return nil
}

// RequireCredKey checks the key used to encrypt the saved profile.
func (c Config) RequireCredKey() error {
	if len(c.CredEncKey) != 32 {
		return fmt.Errorf("CRED_ENC_KEY must decode to 32 bytes (got %d; see `roombooker keys`)", len(c.CredEncKey))
	}
	return nil
}

func optionalB64(name, v string) ([]byte, error) {
	if v == "" {
		return nil, nil
	}
	// allow pointing to a file path for secret mounts
	if b, err := os.ReadFile(v); err == nil {
		v = strings.TrimSpace(string(b))
	}
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("must be >= 1")
	}
	return n, nil
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func defaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "roombooker-profile.yaml"
	}
	return filepath.Join(dir, "roombooker", "profile.yaml")
}
