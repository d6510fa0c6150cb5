package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"

	"github.com/example/room-booker/internal/db"
)

//go:embed *.sql
var embedded embed.FS

// Store is what Up needs from the database; *db.DB satisfies it.
type Store interface {
	db.Querier
	InTx(ctx context.Context, fn func(q db.Querier) error) error
}

const schemaTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Up applies pending embedded migrations in name order, each in its own
// transaction together with its schema_migrations row. It returns the names
// it applied.
func Up(ctx context.Context, s Store) ([]string, error) {
	return up(ctx, s, embedded)
}

func up(ctx context.Context, s Store, src fs.FS) ([]string, error) {
	files, err := list(src)
	if err != nil {
		return nil, err
	}
	if err := s.Exec(ctx, schemaTable); err != nil {
		return nil, fmt.Errorf("migrate: schema table: %w", err)
	}
	done, err := appliedVersions(ctx, s)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, f := range files {
		if done[f] {
			continue
		}
		body, err := fs.ReadFile(src, f)
		if err != nil {
			return applied, err
		}
		err = s.InTx(ctx, func(q db.Querier) error {
			if err := q.Exec(ctx, string(body)); err != nil {
				return err
			}
			return q.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, f)
		})
		if err != nil {
			return applied, fmt.Errorf("migrate: %s: %w", f, err)
		}
		log.Printf("migrate: applied %s", f)
		applied = append(applied, f)
	}
	return applied, nil
}

func appliedVersions(ctx context.Context, q db.Querier) (map[string]bool, error) {
	rows, err := q.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("migrate: read versions: %w", err)
	}
	defer rows.Close()
	done := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

// Files lists the embedded migrations in the order Up applies them.
func Files() ([]string, error) { return list(embedded) }

func list(src fs.FS) ([]string, error) {
	names, err := fs.Glob(src, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Slice(names, func(i, j int) bool { return path.Base(names[i]) < path.Base(names[j]) })
	return names, nil
}
