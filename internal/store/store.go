// Package store persists the video catalog in SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"leech/internal/media"
)

// ErrNotFound is returned when no video has the requested ID.
var ErrNotFound = errors.New("video not found")

// DefaultLimit is the page size used when a Filter sets none.
const DefaultLimit = 50

// Filter narrows List.
type Filter struct {
	Status media.Status // empty means any
	Limit  int
}

// Store is a video catalog backed by database/sql.
type Store struct {
	db       *sql.DB
	postgres bool
}

// Open connects to the catalog. driver is "sqlite" or "postgres".
// For sqlite, dsn is a file path (or ":memory:") whose directory is created.
func Open(driver, dsn string) (*Store, error) {
	switch strings.ToLower(driver) {
	case "sqlite":
		return openSQLite(dsn)
	case "postgres":
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openSQLite(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring database (%s): %w", p, err)
		}
	}

	return &Store{db: db}, nil
}

func openPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{db: db, postgres: true}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the videos table and its indexes if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	createdAt := "created_at TIMESTAMP NOT NULL"
	if s.postgres {
		createdAt = "created_at TIMESTAMPTZ NOT NULL DEFAULT now()"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			thumbnail_url TEXT,
			video_url TEXT NOT NULL,
			video_type TEXT NOT NULL,
			category_id TEXT,
			is_vip BOOLEAN NOT NULL DEFAULT FALSE,
			is_vietsub BOOLEAN NOT NULL DEFAULT FALSE,
			is_uncensored BOOLEAN NOT NULL DEFAULT FALSE,
			status TEXT NOT NULL DEFAULT 'pending',
			visibility TEXT NOT NULL DEFAULT 'public',
			uploaded_by TEXT,
			source_url TEXT,
			` + createdAt + `
		)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_status ON videos (status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_video_url ON videos (video_url)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const videoColumns = `id, title, description, thumbnail_url, video_url, video_type, category_id,
	is_vip, is_vietsub, is_uncensored, status, visibility, uploaded_by, source_url, created_at`

// Insert stores v. It fills in ID, CreatedAt, Status and Visibility when unset.
func (s *Store) Insert(ctx context.Context, v *media.Video) error {
	if v.Title == "" || v.VideoURL == "" {
		return fmt.Errorf("video needs a title and a video URL")
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	if v.Status == "" {
		v.Status = media.StatusPending
	}
	if !v.Status.Valid() {
		return fmt.Errorf("invalid status %q", v.Status)
	}
	if v.Visibility == "" {
		v.Visibility = media.VisibilityPublic
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO videos (`+videoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		v.ID, v.Title, nullString(v.Description), nullString(v.ThumbnailURL), v.VideoURL,
		string(v.VideoType), nullString(v.CategoryID), v.IsVIP, v.IsVietsub, v.IsUncensored,
		string(v.Status), string(v.Visibility), nullString(v.UploadedBy), nullString(v.SourceURL),
		v.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting video: %w", err)
	}
	return nil
}

// Get returns the video with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*media.Video, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+videoColumns+` FROM videos WHERE id = ?`), id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting video %s: %w", id, err)
	}
	return v, nil
}

// List returns videos newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]media.Video, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT ` + videoColumns + ` FROM videos`
	var args []any
	if f.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	defer rows.Close()

	var videos []media.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning video: %w", err)
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	return videos, nil
}

// SetStatus moves a video to status, e.g. approving an upload.
func (s *Store) SetStatus(ctx context.Context, id string, status media.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE videos SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return fmt.Errorf("updating video %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating video %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByVideoURL reports whether a video with this exact URL is stored.
func (s *Store) ExistsByVideoURL(ctx context.Context, videoURL string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM videos WHERE video_url = ? LIMIT 1`), videoURL).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking video url: %w", err)
	}
	return true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(sc scanner) (*media.Video, error) {
	var (
		v                                                       media.Video
		description, thumbnail, category, uploadedBy, sourceURL sql.NullString
		videoType, status, visibility                           string
	)
	err := sc.Scan(&v.ID, &v.Title, &description, &thumbnail, &v.VideoURL, &videoType, &category,
		&v.IsVIP, &v.IsVietsub, &v.IsUncensored, &status, &visibility, &uploadedBy, &sourceURL, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	v.Description = description.String
	v.ThumbnailURL = thumbnail.String
	v.CategoryID = category.String
	v.UploadedBy = uploadedBy.String
	v.SourceURL = sourceURL.String
	v.VideoType = media.VideoType(videoType)
	v.Status = media.Status(status)
	v.Visibility = media.Visibility(visibility)
	return &v, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
