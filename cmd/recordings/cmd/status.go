package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show changes queued for the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		pending := ws.Pending()
		if len(pending) == 0 {
			fmt.Println("no queued changes")
			return nil
		}
		fmt.Printf("%d queued change(s) for %s:\n", len(pending), ws.RemoteURL())
		for i, p := range pending {
			kind := "recording"
			if p.IsFolder {
				kind = "folder"
			}
			fmt.Printf("%3d  %-6s  %s %q\n", i+1, p.Change, kind, p.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
