package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"leech/internal/media"
)

func entryAt(url string, minute int) media.ScrapeEntry {
	return media.ScrapeEntry{
		ScrapedAt:  time.Date(2026, 3, 1, 10, minute, 0, 0, time.UTC),
		URL:        url,
		Candidates: minute,
		Title:      "Page " + url,
	}
}

func TestAppendAndLoad(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	entry := media.ScrapeEntry{
		ScrapedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		URL:        "https://phim.example.com/video/1",
		Candidates: 3,
		Title:      "Phim hay",
	}

	if err := Append(entry); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	entries, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	got := entries[0]
	if !got.ScrapedAt.Equal(entry.ScrapedAt) {
		t.Errorf("ScrapedAt = %v, want %v", got.ScrapedAt, entry.ScrapedAt)
	}
	if got.URL != entry.URL {
		t.Errorf("URL = %q, want %q", got.URL, entry.URL)
	}
	if got.Candidates != 3 {
		t.Errorf("Candidates = %d, want 3", got.Candidates)
	}
	if got.Title != entry.Title {
		t.Errorf("Title = %q, want %q", got.Title, entry.Title)
	}
}

func TestAppendReplacesSameURL(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	Append(entryAt("https://a.example.com", 1))
	Append(entryAt("https://b.example.com", 2))
	Append(entryAt("https://a.example.com", 3))

	entries, _ := Load()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].URL != "https://b.example.com" || entries[1].URL != "https://a.example.com" {
		t.Errorf("order = %q, %q", entries[0].URL, entries[1].URL)
	}
	if entries[1].Candidates != 3 {
		t.Errorf("replaced entry Candidates = %d, want 3", entries[1].Candidates)
	}
}

func TestAppendCapsEntries(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	var lines []string
	for i := 0; i < MaxEntries; i++ {
		lines = append(lines, formatLine(entryAt(fmt.Sprintf("https://old.example.com/%d", i), 0)))
	}
	dir := filepath.Join(os.Getenv("XDG_DATA_HOME"), "leech")
	os.MkdirAll(dir, 0700)
	os.WriteFile(filepath.Join(dir, "history.tsv"), []byte(strings.Join(lines, "\n")+"\n"), 0600)

	if err := Append(entryAt("https://new.example.com", 5)); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	entries, _ := Load()
	if len(entries) != MaxEntries {
		t.Fatalf("expected %d entries, got %d", MaxEntries, len(entries))
	}
	if entries[len(entries)-1].URL != "https://new.example.com" {
		t.Errorf("last entry = %q", entries[len(entries)-1].URL)
	}
}

func TestRemove(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	Append(entryAt("https://a.example.com", 1))
	Append(entryAt("https://b.example.com", 2))

	if err := Remove("https://a.example.com"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	entries, _ := Load()
	if len(entries) != 1 || entries[0].URL != "https://b.example.com" {
		t.Errorf("entries after Remove = %+v", entries)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	entries, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestLoadSkipsMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmpDir)
	dir := filepath.Join(tmpDir, "leech")
	os.MkdirAll(dir, 0700)

	content := strings.Join([]string{
		"# comment",
		"2026-03-01T10:00:00Z\thttps://ok.example.com\t2\tOK",
		"not-a-time\thttps://bad.example.com\t1\tBad",
		"2026-03-01T10:00:00Z\t\t1\tNo URL",
		"too\tfew",
		"",
	}, "\n")
	os.WriteFile(filepath.Join(dir, "history.tsv"), []byte(content), 0600)

	entries, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(entries) != 1 || entries[0].URL != "https://ok.example.com" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestFormatLineCleansFields(t *testing.T) {
	e := entryAt("https://a.example.com", 1)
	e.Title = "Line\tone\nline two"

	line := formatLine(e)
	if strings.Count(line, "\t") != numColumns-1 {
		t.Errorf("formatLine() = %q has stray tabs", line)
	}

	got, err := parseLine(line)
	if err != nil {
		t.Fatalf("parseLine() error: %v", err)
	}
	if got.Title != "Line one line two" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestFormatForDisplay(t *testing.T) {
	entries := []media.ScrapeEntry{
		{ScrapedAt: time.Now(), URL: "https://a.example.com", Candidates: 1, Title: "First"},
		{ScrapedAt: time.Now(), URL: "https://b.example.com", Candidates: 4},
	}

	items := FormatForDisplay(entries)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !strings.Contains(items[0], "(no title)") || !strings.Contains(items[0], "4 videos") {
		t.Errorf("items[0] = %q", items[0])
	}
	if !strings.Contains(items[1], "First") || !strings.Contains(items[1], "1 video ") {
		t.Errorf("items[1] = %q", items[1])
	}
}
