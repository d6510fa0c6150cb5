package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/example/room-booker/internal/config"
	"github.com/example/room-booker/internal/crypto"
	"github.com/example/room-booker/internal/db"
	"github.com/example/room-booker/internal/migrate"
	"github.com/example/room-booker/internal/profile"
	"github.com/example/room-booker/internal/runs"
)

func profileStore(cfg config.Config) (*profile.Store, error) {
	if err := cfg.RequireCredKey(); err != nil {
		return nil, err
	}
	aead, err := crypto.New(cfg.CredEncKey)
	if err != nil {
		return nil, err
	}
	return profile.NewStore(cfg.ProfilePath, aead), nil
}

// savedProfile returns the saved profile, or a zero Profile when none is
// configured or saved.
func savedProfile(cfg config.Config) (profile.Profile, error) {
	if len(cfg.CredEncKey) == 0 {
		return profile.Profile{}, nil
	}
	s, err := profileStore(cfg)
	if err != nil {
		return profile.Profile{}, err
	}
	p, err := s.Load()
	if errors.Is(err, profile.ErrNotFound) {
		return profile.Profile{}, nil
	}
	return p, err
}

// openHistory connects to DATABASE_URL and applies migrations. It returns a
// nil repo when no database is configured.
func openHistory(ctx context.Context, cfg config.Config) (*runs.Repo, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, nil
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, nil, err
	}
	log.Printf("history: recording runs")
	return runs.NewRepo(d), d.Close, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
