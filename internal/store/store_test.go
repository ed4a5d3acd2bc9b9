package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"leech/internal/media"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", filepath.Join(t.TempDir(), "db", "videos.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	return s
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Error("unknown driver should fail")
	}
}

func TestMigrateIdempotent(t *testing.T) {
	s := openTest(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Errorf("second Migrate() error: %v", err)
	}
}

func TestInsertAndGet(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := &media.Video{
		Title:        "Phim hay",
		ThumbnailURL: "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
		VideoURL:     "https://www.youtube.com/embed/dQw4w9WgXcQ",
		VideoType:    media.VideoIframe,
		IsVietsub:    true,
		SourceURL:    "https://phim.example.com/1",
		CreatedAt:    created,
	}
	if err := s.Insert(ctx, v); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if v.ID == "" {
		t.Fatal("Insert() did not assign an ID")
	}
	if v.Status != media.StatusPending || v.Visibility != media.VisibilityPublic {
		t.Errorf("defaults = %q/%q", v.Status, v.Visibility)
	}

	got, err := s.Get(ctx, v.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Title != v.Title || got.VideoURL != v.VideoURL || got.VideoType != media.VideoIframe {
		t.Errorf("Get() = %+v", got)
	}
	if !got.IsVietsub || got.IsVIP || got.IsUncensored {
		t.Errorf("flags = vip:%v vietsub:%v uncensored:%v", got.IsVIP, got.IsVietsub, got.IsUncensored)
	}
	if got.Description != "" || got.CategoryID != "" {
		t.Errorf("NULL columns should read back empty: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
}

func TestInsertValidation(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	tests := []struct {
		name string
		v    media.Video
	}{
		{"no title", media.Video{VideoURL: "https://cdn.example.com/a.mp4"}},
		{"no url", media.Video{Title: "a"}},
		{"bad status", media.Video{Title: "a", VideoURL: "https://cdn.example.com/a.mp4", Status: "live"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Insert(ctx, &tt.v); err == nil {
				t.Error("Insert() should fail")
			}
		})
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTest(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestListAndSetStatus(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i, status := range []media.Status{media.StatusPending, media.StatusApproved, media.StatusPending} {
		v := &media.Video{
			Title:     "v",
			VideoURL:  "https://cdn.example.com/" + string(rune('a'+i)) + ".mp4",
			VideoType: media.VideoUpload,
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.Insert(ctx, v); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
		ids = append(ids, v.ID)
	}

	all, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("List() should be newest first, got %d videos", len(all))
	}

	pending, err := s.List(ctx, Filter{Status: media.StatusPending})
	if err != nil {
		t.Fatalf("List(pending) error: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending = %d, want 2", len(pending))
	}

	limited, err := s.List(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("List(limit) error: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited = %d, want 1", len(limited))
	}

	if err := s.SetStatus(ctx, ids[0], media.StatusApproved); err != nil {
		t.Fatalf("SetStatus() error: %v", err)
	}
	got, err := s.Get(ctx, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != media.StatusApproved {
		t.Errorf("Status = %q, want approved", got.Status)
	}

	if err := s.SetStatus(ctx, "missing", media.StatusRejected); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetStatus(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.SetStatus(ctx, ids[0], "deleted"); err == nil {
		t.Error("SetStatus() with an unknown status should fail")
	}
}

func TestExistsByVideoURL(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	v := &media.Video{Title: "a", VideoURL: "https://cdn.example.com/a.mp4", VideoType: media.VideoUpload}
	if err := s.Insert(ctx, v); err != nil {
		t.Fatal(err)
	}

	tests := map[string]bool{
		"https://cdn.example.com/a.mp4": true,
		"https://cdn.example.com/A.mp4": false,
		"https://cdn.example.com/b.mp4": false,
	}
	for u, want := range tests {
		got, err := s.ExistsByVideoURL(ctx, u)
		if err != nil {
			t.Fatalf("ExistsByVideoURL(%q) error: %v", u, err)
		}
		if got != want {
			t.Errorf("ExistsByVideoURL(%q) = %v, want %v", u, got, want)
		}
	}
}

func TestRebind(t *testing.T) {
	q := `UPDATE videos SET status = ? WHERE id = ?`

	lite := &Store{}
	if got := lite.rebind(q); got != q {
		t.Errorf("sqlite rebind = %q", got)
	}

	pg := &Store{postgres: true}
	if got, want := pg.rebind(q), `UPDATE videos SET status = $1 WHERE id = $2`; got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("LEECH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set LEECH_TEST_POSTGRES_DSN to run against PostgreSQL")
	}

	s, err := Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	v := &media.Video{Title: "pg", VideoURL: "https://cdn.example.com/pg-" + time.Now().Format("150405.000") + ".mp4", VideoType: media.VideoUpload}
	if err := s.Insert(ctx, v); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if err := s.SetStatus(ctx, v.ID, media.StatusRejected); err != nil {
		t.Fatalf("SetStatus() error: %v", err)
	}
	ok, err := s.ExistsByVideoURL(ctx, v.VideoURL)
	if err != nil || !ok {
		t.Errorf("ExistsByVideoURL() = %v, %v", ok, err)
	}
}
