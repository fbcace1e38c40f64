package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recordings/internal/config"
)

var (
	fetchOut   string
	fetchRange string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <path>",
	Short: "Download a recording's audio from the server",
	Long: `Stream a recording's audio from the server to a local file.

A byte range like 1024-4095 requests just that slice; ranges past the
end of the recording are clamped by the server.

Examples:
  recordings fetch "Interviews/2026/Opening remarks"
  recordings fetch "Interviews/take1" --out take1.m4a --range 0-1023`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, item, err := resolvePath(args[0])
		if err != nil {
			return err
		}
		if item.IsFolder {
			return fmt.Errorf("%q is a folder", item.Name)
		}

		body, err := ws.FetchRecording(context.Background(), item.UUID, fetchRange)
		if err != nil {
			return err
		}

		out := fetchOut
		if out == "" {
			out = item.Name + config.FileExtension
		}
		if err := os.WriteFile(out, body, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes to %s\n", len(body), out)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "output file (default: <name>"+config.FileExtension+")")
	fetchCmd.Flags().StringVar(&fetchRange, "range", "", "byte range start-end, inclusive")
	rootCmd.AddCommand(fetchCmd)
}
