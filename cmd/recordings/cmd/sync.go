package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push queued changes to the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		remaining, err := ws.Flush(context.Background())
		if err != nil {
			return err
		}
		if remaining > 0 {
			return fmt.Errorf("server unreachable, %d change(s) still queued", remaining)
		}
		fmt.Println("in sync")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
