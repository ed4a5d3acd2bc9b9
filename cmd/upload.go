package cmd

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"leech/internal/bunny"
	"leech/internal/httputil"
	"leech/internal/media"
	"leech/internal/server"
)

var (
	flagTitle       string
	flagDescription string
	flagThumbnail   string
	flagUploadedBy  string
)

var uploadExts = map[string]bool{"mp4": true, "webm": true, "mov": true}
var thumbExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a video to the CDN and queue it for approval",
	Args:  cobra.ExactArgs(1),
	RunE:  uploadRun,
}

var bunnyCmd = &cobra.Command{
	Use:   "bunny",
	Short: "CDN storage helpers",
}

var bunnyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check the configured storage zone and API key against every storage host",
	Args:  cobra.NoArgs,
	RunE:  bunnyTestRun,
}

func init() {
	uploadCmd.Flags().StringVarP(&flagTitle, "title", "t", "", "Video title (required)")
	uploadCmd.Flags().StringVar(&flagDescription, "description", "", "Video description")
	uploadCmd.Flags().StringVar(&flagCategory, "category", "", "Category ID")
	uploadCmd.Flags().StringVar(&flagThumbnail, "thumbnail", "", "Thumbnail image (jpg, png or webp)")
	uploadCmd.Flags().StringVar(&flagUploadedBy, "uploaded-by", "", "Uploader ID to record")
	uploadCmd.MarkFlagRequired("title")

	bunnyCmd.AddCommand(bunnyTestCmd)
}

// newBunny returns a CDN client for the configured zone.
func newBunny() (*bunny.Client, error) {
	return bunny.New(httputil.NewClientWithTimeout(30*time.Minute), cfg.Bunny.StorageZone, cfg.Bunny.APIKey, cfg.Bunny.Host)
}

func fileExt(name string) string {
	return strings.ToLower(bunny.ExtFromFilename(name))
}

func uploadRun(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(flagTitle)
	if title == "" {
		return fmt.Errorf("--title is required")
	}

	videoPath := args[0]
	if !uploadExts[fileExt(videoPath)] {
		return fmt.Errorf("invalid video format %q (allowed: mp4, webm, mov)", filepath.Ext(videoPath))
	}
	info, err := os.Stat(videoPath)
	if err != nil {
		return err
	}
	if info.Size() > server.MaxUploadBytes {
		return fmt.Errorf("video file too large: %d bytes (max 500MB)", info.Size())
	}

	client, err := newBunny()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	now := time.Now()

	objectPath := path.Join(bunny.VideoFolder, bunny.ObjectName(title, fileExt(videoPath), now))
	if err := uploadFile(cmd, client, videoPath, objectPath); err != nil {
		return err
	}

	v := &media.Video{
		Title:       title,
		Description: strings.TrimSpace(flagDescription),
		VideoURL:    client.PublicURL(objectPath),
		VideoType:   media.VideoBunny,
		CategoryID:  flagCategory,
		Status:      media.StatusPending,
		UploadedBy:  flagUploadedBy,
		CreatedAt:   now.UTC(),
	}

	if flagThumbnail != "" {
		if !thumbExts[fileExt(flagThumbnail)] {
			fmt.Fprintf(os.Stderr, "Skipping thumbnail %s: not a jpg, png or webp file\n", flagThumbnail)
		} else {
			thumbPath := path.Join(bunny.ThumbnailFolder, bunny.ThumbnailName(title, fileExt(flagThumbnail), now))
			if err := uploadFile(cmd, client, flagThumbnail, thumbPath); err != nil {
				fmt.Fprintf(os.Stderr, "Thumbnail upload failed: %v\n", err)
			} else {
				v.ThumbnailURL = client.PublicURL(thumbPath)
			}
		}
	}

	catalog, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer catalog.Close()

	if err := catalog.Insert(ctx, v); err != nil {
		return fmt.Errorf("saving video: %w", err)
	}

	if flagJSON {
		return printJSON(v)
	}
	fmt.Printf("Uploaded %s\nVideo %s is waiting for approval.\n", v.VideoURL, v.ID)
	return nil
}

func uploadFile(cmd *cobra.Command, client *bunny.Client, localPath, objectPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	debugf("uploading %s -> %s (%d bytes)", localPath, objectPath, info.Size())
	return client.Upload(cmd.Context(), objectPath, f, info.Size())
}

func bunnyTestRun(cmd *cobra.Command, args []string) error {
	r := bunny.Check(cmd.Context(), httputil.NewClient(), cfg.Bunny.StorageZone, cfg.Bunny.APIKey, bunny.DefaultHosts)
	if flagJSON {
		return printJSON(r)
	}

	zone := "-"
	if r.StorageZoneName != nil {
		zone = *r.StorageZoneName
	}
	key := "-"
	if r.APIKeyPreview != nil {
		key = fmt.Sprintf("%s (%d chars)", *r.APIKeyPreview, r.APIKeyLength)
	}
	fmt.Printf("Storage zone: %s\nAPI key:      %s\n\n", zone, key)

	for _, h := range r.HostTests {
		mark := "FAIL"
		if h.Success {
			mark = " OK "
		}
		fmt.Printf("[%s] %-26s %s\n", mark, h.Host, h.Message)
	}

	if r.RecommendedHost == nil {
		return fmt.Errorf("no storage host accepted the credentials")
	}
	fmt.Printf("\nRecommended host: %s\n", *r.RecommendedHost)
	return nil
}
