package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"leech/internal/extract"
	"leech/internal/history"
	"leech/internal/httputil"
	"leech/internal/leech"
	"leech/internal/media"
	"leech/internal/ui"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file|-]",
	Short: "Find videos in a saved HTML page",
	Long:  "Reads HTML from a file (or stdin when the argument is - or missing) and prints the videos, thumbnail, title and description found in it.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  extractRun,
}

var (
	flagImport     bool
	flagAll        bool
	flagCategory   string
	flagVIP        bool
	flagVietsub    bool
	flagUncensored bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape a page and list (or import) its videos",
	Args:  cobra.ExactArgs(1),
	RunE:  scrapeRun,
}

func init() {
	scrapeCmd.Flags().BoolVarP(&flagImport, "import", "i", false, "Import the found videos into the catalog")
	scrapeCmd.Flags().BoolVarP(&flagAll, "all", "a", false, "Import every video without the review picker")
	scrapeCmd.Flags().StringVar(&flagCategory, "category", "", "Category ID for imported videos")
	scrapeCmd.Flags().BoolVar(&flagVIP, "vip", false, "Mark imported videos as VIP")
	scrapeCmd.Flags().BoolVar(&flagVietsub, "vietsub", false, "Mark imported videos as Vietnamese-subtitled")
	scrapeCmd.Flags().BoolVar(&flagUncensored, "uncensored", false, "Mark imported videos as uncensored")
}

func extractRun(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, extract.MaxHTMLBytes))
	if err != nil {
		return fmt.Errorf("reading html: %w", err)
	}
	debugf("read %d bytes", len(data))

	return printResult(extract.Extract(string(data)))
}

func scrapeRun(cmd *cobra.Command, args []string) error {
	pageURL := args[0]
	if err := httputil.ValidatePageURL(pageURL); err != nil {
		return err
	}

	s, err := newScraper()
	if err != nil {
		return fmt.Errorf("creating scraper: %w", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	page, res, err := leech.Fetch(ctx, s, pageURL, scrapeOptions())
	if err != nil {
		return fmt.Errorf("scraping %s: %w", pageURL, err)
	}
	debugf("scraped %d bytes, %d links", len(page.HTML), len(page.Links))

	if cfg.History {
		entry := media.ScrapeEntry{
			ScrapedAt:  time.Now().UTC(),
			URL:        pageURL,
			Candidates: len(res.Candidates),
			Title:      res.Title,
		}
		if err := history.Append(entry); err != nil {
			debugf("recording history: %v", err)
		}
	}

	if !flagImport {
		return printResult(res)
	}

	items := leech.Review(res, pageURL)
	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "No videos found on this page.")
		return nil
	}

	if !flagAll {
		if err := pick(items); err != nil {
			return err
		}
	}
	if len(leech.Selected(items)) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing selected.")
		return nil
	}

	catalog, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer catalog.Close()

	report, err := leech.Import(ctx, catalog, items, leech.Options{
		CategoryID:   flagCategory,
		IsVIP:        flagVIP,
		IsVietsub:    flagVietsub,
		IsUncensored: flagUncensored,
	})
	if err != nil {
		return fmt.Errorf("importing: %w", err)
	}
	for _, e := range report.Failed {
		log.Printf("import failed: %v", e)
	}

	if flagJSON {
		return printJSON(report)
	}
	fmt.Printf("Imported %d video(s), skipped %d already in the catalog, %d failed.\n",
		len(report.Imported), len(report.Skipped), len(report.Failed))
	if len(report.Imported) == 0 && len(report.Failed) > 0 {
		return errors.New("import failed")
	}
	return nil
}

// pick lets the user adjust which items are imported and edit their titles.
func pick(items []leech.Item) error {
	if !ui.IsTerminal(os.Stdin) || !ui.IsTerminal(os.Stderr) {
		return errors.New("review needs a terminal; pass --all to import everything")
	}

	rows := make([]ui.Row, len(items))
	for i, it := range items {
		rows[i] = ui.Row{
			Label:   fmt.Sprintf("%-6s %s", it.VideoType, it.URL),
			Title:   it.Title,
			Checked: it.Selected,
		}
	}

	title := "Import videos"
	if items[0].Title != "" {
		title = fmt.Sprintf("Import videos: %s", items[0].Title)
	}
	got, err := ui.MultiSelect(title, rows)
	if err != nil {
		return err
	}
	applyPicks(items, got)
	return nil
}

// applyPicks copies the picker's selection and edited titles onto items.
func applyPicks(items []leech.Item, rows []ui.Row) {
	for i := range items {
		if i >= len(rows) {
			break
		}
		items[i].Selected = rows[i].Checked
		items[i].Title = rows[i].Title
	}
}

// printResult writes an extraction result as JSON or a short report.
func printResult(res media.Result) error {
	if flagJSON {
		return printJSON(res)
	}

	field := func(name, v string) {
		if v == "" {
			v = "-"
		}
		fmt.Printf("%-12s %s\n", name+":", v)
	}
	field("Title", res.Title)
	field("Description", res.Description)
	field("Thumbnail", res.Thumbnail)

	if len(res.Candidates) == 0 {
		fmt.Println("No videos found.")
		return nil
	}
	fmt.Printf("Videos (%d):\n", len(res.Candidates))
	for i, c := range res.Candidates {
		fmt.Printf("  %2d. [%s] %s\n", i+1, c.Kind, c.URL)
	}
	return nil
}
