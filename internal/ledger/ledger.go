// Package ledger persists which articles have already been imported, so an
// interrupted or repeated run skips completed work instead of creating
// duplicate pages.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// Ledger is a sqlite-backed record of completed imports, keyed by article
// slug.
type Ledger struct {
	db *sql.DB
}

// Entry is one completed import.
type Entry struct {
	Slug       string
	PageID     string
	Title      string
	Highlights int
	ImportedAt time.Time
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Init creates the schema, rebuilding when the version changed.
func (l *Ledger) Init(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, schemaSQL); err != nil {
		return err
	}
	version, err := l.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != schemaVersion {
		if _, err := l.db.ExecContext(ctx, "DELETE FROM imports"); err != nil {
			return err
		}
		return l.setSchemaVersion(ctx, schemaVersion)
	}
	return nil
}

func (l *Ledger) schemaVersion(ctx context.Context) (int, error) {
	var v int
	err := l.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (l *Ledger) setSchemaVersion(ctx context.Context, v int) error {
	if _, err := l.db.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := l.db.ExecContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", v)
	return err
}

// Lookup returns the page ID recorded for slug, or ok=false when the slug
// has not been imported.
func (l *Ledger) Lookup(ctx context.Context, slug string) (string, bool, error) {
	var pageID string
	err := l.db.QueryRowContext(ctx,
		"SELECT page_id FROM imports WHERE slug = ?", slug).Scan(&pageID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return pageID, true, nil
}

// Record marks one article as imported. Re-recording a slug overwrites the
// previous entry.
func (l *Ledger) Record(ctx context.Context, entry Entry) error {
	importedAt := entry.ImportedAt
	if importedAt.IsZero() {
		importedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO imports(slug, page_id, title, highlights, imported_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			page_id = excluded.page_id,
			title = excluded.title,
			highlights = excluded.highlights,
			imported_at = excluded.imported_at`,
		entry.Slug, entry.PageID, entry.Title, entry.Highlights, importedAt.Unix())
	return err
}

// Count returns the number of recorded imports.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM imports").Scan(&n)
	return n, err
}
