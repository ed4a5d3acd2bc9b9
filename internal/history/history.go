// Package history keeps a log of scraped pages in TSV format.
// Uses atomic writes (temp+rename) to prevent data corruption.
package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"leech/internal/config"
	"leech/internal/media"
)

// TSV columns: scraped_at, url, candidates, title
const numColumns = 4

// MaxEntries is how many scrapes are kept; older ones are dropped on write.
const MaxEntries = 500

var fieldCleaner = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// Load reads the history file and returns all entries, oldest first.
func Load() ([]media.ScrapeEntry, error) {
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening history: %w", err)
	}
	defer f.Close()

	var entries []media.ScrapeEntry
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			continue // Skip malformed lines
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	return entries, nil
}

// Append records a scrape. A previous entry for the same URL is replaced and
// the new one moves to the end.
func Append(entry media.ScrapeEntry) error {
	entries, err := Load()
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.URL != entry.URL {
			kept = append(kept, e)
		}
	}
	kept = append(kept, entry)

	if len(kept) > MaxEntries {
		kept = kept[len(kept)-MaxEntries:]
	}

	return write(kept)
}

// Remove deletes the entry for url.
func Remove(url string) error {
	entries, err := Load()
	if err != nil {
		return err
	}

	var filtered []media.ScrapeEntry
	for _, e := range entries {
		if e.URL != url {
			filtered = append(filtered, e)
		}
	}

	return write(filtered)
}

// write replaces the history file with entries.
func write(entries []media.ScrapeEntry) error {
	path, err := config.HistoryPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "history-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	writer := bufio.NewWriter(tmpFile)
	for _, e := range entries {
		if _, err := writer.WriteString(formatLine(e) + "\n"); err != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("writing history: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flushing history: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming history file: %w", err)
	}

	return nil
}

// FormatForDisplay creates one display line per entry, newest first.
func FormatForDisplay(entries []media.ScrapeEntry) []string {
	items := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		title := e.Title
		if title == "" {
			title = "(no title)"
		}
		noun := "videos"
		if e.Candidates == 1 {
			noun = "video"
		}
		items = append(items, fmt.Sprintf("%s  %-40s  %d %s  %s",
			e.ScrapedAt.Local().Format("2006-01-02 15:04"), title, e.Candidates, noun, e.URL))
	}
	return items
}

// parseLine parses a TSV line into a ScrapeEntry.
func parseLine(line string) (media.ScrapeEntry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < numColumns {
		return media.ScrapeEntry{}, fmt.Errorf("expected %d columns, got %d", numColumns, len(fields))
	}

	at, err := time.Parse(time.RFC3339, fields[0])
	if err != nil {
		return media.ScrapeEntry{}, fmt.Errorf("parsing time: %w", err)
	}
	if fields[1] == "" {
		return media.ScrapeEntry{}, fmt.Errorf("missing url")
	}
	candidates, _ := strconv.Atoi(fields[2])

	return media.ScrapeEntry{
		ScrapedAt:  at,
		URL:        fields[1],
		Candidates: candidates,
		Title:      fields[3],
	}, nil
}

// formatLine converts a ScrapeEntry to a TSV line.
func formatLine(e media.ScrapeEntry) string {
	return strings.Join([]string{
		e.ScrapedAt.UTC().Format(time.RFC3339),
		fieldCleaner.Replace(e.URL),
		strconv.Itoa(e.Candidates),
		fieldCleaner.Replace(e.Title),
	}, "\t")
}
