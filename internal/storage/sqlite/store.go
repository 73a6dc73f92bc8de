// Package sqlite is a record store backed by a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/a3tai/pdf-template-filler/internal/model"
	"github.com/a3tai/pdf-template-filler/internal/storage"
	"github.com/a3tai/pdf-template-filler/internal/storage/sqlite/migrations"
)

// DatabaseFile is the file name created inside the data directory.
const DatabaseFile = "templates.db"

// Store persists profiles and templates in SQLite.
type Store struct {
	db          *sql.DB
	path        string
	logger      *slog.Logger
	profileHub  *storage.Hub[[]model.Profile]
	templateHub *storage.Hub[[]model.Template]
	now         func() time.Time
}

// NewStore opens (creating if needed) the database in dataDir and applies
// pending migrations.
func NewStore(dataDir string, logger *slog.Logger) (*Store, error) {
	if dataDir == "" {
		return nil, errors.New("data directory cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:          db,
		path:        dbPath,
		logger:      logger,
		profileHub:  storage.NewHub[[]model.Profile](),
		templateHub: storage.NewHub[[]model.Template](),
		now:         time.Now,
	}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

var _ storage.Store = (*Store)(nil)

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close ends subscriptions and closes the database.
func (s *Store) Close() error {
	s.profileHub.Close()
	s.templateHub.Close()
	return s.db.Close()
}

// migrate runs all pending *.up.sql files in version order.
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
		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		s.logger.Debug("applied migration", "version", version)
	}
	return nil
}

func (s *Store) applyMigration(version int, content string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(content); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Profiles ====================

func (s *Store) CreateProfile(ctx context.Context, p *model.Profile) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	fields, err := profileFields(p)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO profiles (name, fields) VALUES (?, ?)", p.Name, fields)
	if err != nil {
		return 0, fmt.Errorf("inserting profile: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading profile id: %w", err)
	}
	s.publishProfiles(ctx)
	return id, nil
}

func (s *Store) GetProfile(ctx context.Context, id int64) (*model.Profile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, fields FROM profiles WHERE id = ?", id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, fields FROM profiles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	profiles := []model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *Store) UpdateProfile(ctx context.Context, p *model.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	fields, err := profileFields(p)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "UPDATE profiles SET name = ?, fields = ? WHERE id = ?", p.Name, fields, p.ID)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	if err := requireRow(res, "profile", p.ID); err != nil {
		return err
	}
	s.publishProfiles(ctx)
	return nil
}

func (s *Store) DeleteProfile(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	if err := requireRow(res, "profile", id); err != nil {
		return err
	}
	s.publishProfiles(ctx)
	return nil
}

// ==================== Templates ====================

func (s *Store) CreateTemplate(ctx context.Context, t *model.Template) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	fields, mappings, err := templateColumns(t)
	if err != nil {
		return 0, err
	}

	document := t.Document
	if document == nil {
		document = []byte{}
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (name, document, fields, mappings, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, t.Name, document, fields, mappings, createdAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("inserting template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading template id: %w", err)
	}
	s.publishTemplates(ctx)
	return id, nil
}

func (s *Store) GetTemplate(ctx context.Context, id int64) (*model.Template, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, fields, mappings, created_at, document
		FROM templates WHERE id = ?
	`, id)

	var record storage.TemplateRecord
	var fields, mappings string
	var document []byte
	if err := row.Scan(&record.ID, &record.Name, &fields, &mappings, &record.CreatedAt, &document); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("template %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning template: %w", err)
	}
	if err := decodeTemplateColumns(&record, fields, mappings); err != nil {
		return nil, err
	}
	t := record.Template(document)
	return &t, nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]model.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, fields, mappings, created_at
		FROM templates ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	templates := []model.Template{}
	for rows.Next() {
		var record storage.TemplateRecord
		var fields, mappings string
		if err := rows.Scan(&record.ID, &record.Name, &fields, &mappings, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		if err := decodeTemplateColumns(&record, fields, mappings); err != nil {
			return nil, err
		}
		templates = append(templates, record.Template(nil))
	}
	return templates, rows.Err()
}

func (s *Store) UpdateTemplate(ctx context.Context, t *model.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	fields, mappings, err := templateColumns(t)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE templates SET name = ?, fields = ?, mappings = ? WHERE id = ?
	`, t.Name, fields, mappings, t.ID)
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	if err := requireRow(res, "template", t.ID); err != nil {
		return err
	}
	s.publishTemplates(ctx)
	return nil
}

func (s *Store) DeleteTemplate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	if err := requireRow(res, "template", id); err != nil {
		return err
	}
	s.publishTemplates(ctx)
	return nil
}

// ==================== Subscriptions ====================

func (s *Store) SubscribeProfiles(ctx context.Context) (<-chan []model.Profile, error) {
	return s.profileHub.SubscribeWith(ctx, s.ListProfiles)
}

func (s *Store) SubscribeTemplates(ctx context.Context) (<-chan []model.Template, error) {
	return s.templateHub.SubscribeWith(ctx, s.ListTemplates)
}

func (s *Store) publishProfiles(ctx context.Context) {
	if err := s.profileHub.Refresh(ctx, s.ListProfiles); err != nil {
		s.logger.Warn("failed to publish profile snapshot", "error", err)
	}
}

func (s *Store) publishTemplates(ctx context.Context) {
	if err := s.templateHub.Refresh(ctx, s.ListTemplates); err != nil {
		s.logger.Warn("failed to publish template snapshot", "error", err)
	}
}

// ==================== Helpers ====================

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*model.Profile, error) {
	var p model.Profile
	var fields string
	if err := row.Scan(&p.ID, &p.Name, &fields); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	if err := storage.DecodeJSON("profile fields", []byte(fields), &p.Fields); err != nil {
		return nil, err
	}
	if p.Fields == nil {
		p.Fields = map[string]string{}
	}
	return &p, nil
}

func profileFields(p *model.Profile) (string, error) {
	fields := p.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	data, err := storage.EncodeJSON("profile fields", fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func templateColumns(t *model.Template) (fields, mappings string, err error) {
	record := storage.NewTemplateRecord(t)
	fieldsJSON, err := storage.EncodeJSON("template fields", record.Fields)
	if err != nil {
		return "", "", err
	}
	mappingsJSON, err := storage.EncodeJSON("template mappings", record.Mappings)
	if err != nil {
		return "", "", err
	}
	return string(fieldsJSON), string(mappingsJSON), nil
}

func decodeTemplateColumns(record *storage.TemplateRecord, fields, mappings string) error {
	if err := storage.DecodeJSON("template fields", []byte(fields), &record.Fields); err != nil {
		return err
	}
	return storage.DecodeJSON("template mappings", []byte(mappings), &record.Mappings)
}

func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
