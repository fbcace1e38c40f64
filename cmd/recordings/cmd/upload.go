package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"recordings/internal/config"
	"recordings/internal/store"
)

var uploadName string

var uploadCmd = &cobra.Command{
	Use:   "upload <audio-file> <folder-path>",
	Short: "Upload a recording into a folder",
	Long: `Copy an audio file into the mirrored tree and push it to the server.
The recording is named after the file unless --name is given.

Examples:
  recordings upload take1.m4a "Interviews/2026"
  recordings upload take1.m4a / --name "Opening remarks"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(args[0]); err != nil {
			return err
		}
		_, folder, err := resolvePath(args[1])
		if err != nil {
			return err
		}
		if !folder.IsFolder {
			return fmt.Errorf("%q is not a folder", folder.Name)
		}

		name := uploadName
		if name == "" {
			base := filepath.Base(args[0])
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}

		// The audio has to be in place before Add announces the item,
		// since the announcement snapshots the file for the upload.
		info := store.Info{UUID: uuid.New(), Name: name, IsFolder: false}
		if err := copyFile(st.FilePath(info.UUID), args[0]); err != nil {
			return fmt.Errorf("copy audio: %w", err)
		}
		if err := st.Add(info, folder.UUID); err != nil {
			os.Remove(st.FilePath(info.UUID))
			return err
		}

		remaining, err := ws.Flush(context.Background())
		if err != nil {
			return err
		}
		if remaining > 0 {
			fmt.Printf("added %s%s locally, %d change(s) queued for the server\n", name, config.FileExtension, remaining)
		} else {
			fmt.Printf("uploaded %s\n", name)
		}
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "recording name (default: file name without extension)")
	rootCmd.AddCommand(uploadCmd)
}
