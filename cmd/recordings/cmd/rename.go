package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <path> <new-name>",
	Short: "Rename a folder or recording",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, item, err := resolvePath(args[0])
		if err != nil {
			return err
		}
		if item.UUID == st.Root() {
			return fmt.Errorf("cannot rename the root folder")
		}
		if err := st.Rename(item.UUID, args[1]); err != nil {
			return err
		}
		remaining, err := ws.Flush(context.Background())
		if err != nil {
			return err
		}
		if remaining > 0 {
			fmt.Printf("renamed to %s locally, %d change(s) queued for the server\n", args[1], remaining)
		} else {
			fmt.Printf("renamed to %s\n", args[1])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
