package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/pagechat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
)

// DatabaseFile is the file name of the state database inside the data directory.
const DatabaseFile = "state.db"

// Store is a SQLite-backed store for client state.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the state database in dataDir.
// If dataDir is empty, defaults to ~/.pagechat/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".pagechat", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL lets the TUI and a CLI invocation share the file.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SessionStore returns a SessionStore backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// migrate applies every NNN_name.up.sql newer than the recorded version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// apply runs one migration and records its version atomically.
func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore as a single-row table.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// Load returns the saved session, or an empty one.
func (s *sessionStore) Load(ctx context.Context) (*domain.Session, error) {
	var (
		docID     sql.NullInt64
		chatID    sql.NullInt64
		updatedAt int64
	)

	err := s.store.db.QueryRowContext(ctx,
		"SELECT selected_document_id, current_chat_id, updated_at FROM session WHERE id = 1",
	).Scan(&docID, &chatID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	session := &domain.Session{
		SelectedDocumentID: nullableID(docID),
		UpdatedAt:          time.UnixMilli(updatedAt).UTC(),
	}
	if session.SelectedDocumentID != nil {
		session.CurrentChatID = nullableID(chatID)
	}
	return session, nil
}

// Save replaces the saved session.
func (s *sessionStore) Save(ctx context.Context, session *domain.Session) error {
	if session == nil {
		session = &domain.Session{}
	}

	updatedAt := session.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	var docID, chatID sql.NullInt64
	if session.SelectedDocumentID != nil {
		docID = sql.NullInt64{Int64: *session.SelectedDocumentID, Valid: true}
		if session.CurrentChatID != nil {
			chatID = sql.NullInt64{Int64: *session.CurrentChatID, Valid: true}
		}
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO session (id, selected_document_id, current_chat_id, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			selected_document_id = excluded.selected_document_id,
			current_chat_id = excluded.current_chat_id,
			updated_at = excluded.updated_at
	`, docID, chatID, updatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
