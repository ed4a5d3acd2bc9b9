package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"leech/internal/media"
	"leech/internal/store"
)

var (
	flagStatus string
	flagLimit  int
)

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "List catalog videos, newest first",
	Args:  cobra.NoArgs,
	RunE:  videosRun,
}

var approveCmd = &cobra.Command{
	Use:   "approve <id>...",
	Short: "Approve pending videos",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args, media.StatusApproved)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <id>...",
	Short: "Reject videos",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args, media.StatusRejected)
	},
}

func init() {
	videosCmd.Flags().StringVarP(&flagStatus, "status", "s", "", "Only videos with this status: pending | approved | rejected")
	videosCmd.Flags().IntVarP(&flagLimit, "limit", "n", store.DefaultLimit, "Maximum videos to list")
}

func videosRun(cmd *cobra.Command, args []string) error {
	status := media.Status(flagStatus)
	if status != "" && !status.Valid() {
		return fmt.Errorf("invalid status %q", flagStatus)
	}

	catalog, err := openStore(cmd.Context())
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer catalog.Close()

	videos, err := catalog.List(cmd.Context(), store.Filter{Status: status, Limit: flagLimit})
	if err != nil {
		return err
	}

	if flagJSON {
		if videos == nil {
			videos = []media.Video{}
		}
		return printJSON(videos)
	}
	if len(videos) == 0 {
		fmt.Println("No videos found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTYPE\tCREATED\tTITLE")
	for _, v := range videos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.Status, v.VideoType, v.CreatedAt.Local().Format("2006-01-02 15:04"), v.Title)
	}
	return w.Flush()
}

func setStatus(cmd *cobra.Command, ids []string, status media.Status) error {
	catalog, err := openStore(cmd.Context())
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer catalog.Close()

	var failed int
	for _, id := range ids {
		err := catalog.SetStatus(cmd.Context(), id, status)
		switch {
		case errors.Is(err, store.ErrNotFound):
			fmt.Fprintf(os.Stderr, "%s: no such video\n", id)
			failed++
		case err != nil:
			fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
			failed++
		default:
			fmt.Printf("%s: %s\n", id, status)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d video(s) not updated", failed, len(ids))
	}
	return nil
}
