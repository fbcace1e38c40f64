package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "rm <path>",
	Aliases: []string{"delete"},
	Short:   "Delete a folder or recording",
	Long: `Delete an item from the mirrored tree and push the deletion to the
server. Deleting a folder removes everything under it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, item, err := resolvePath(args[0])
		if err != nil {
			return err
		}
		if item.UUID == st.Root() {
			return fmt.Errorf("cannot delete the root folder")
		}
		if err := st.Remove(item.UUID); err != nil {
			return err
		}
		remaining, err := ws.Flush(context.Background())
		if err != nil {
			return err
		}
		if remaining > 0 {
			fmt.Printf("deleted %s locally, %d change(s) queued for the server\n", item.Name, remaining)
		} else {
			fmt.Printf("deleted %s\n", item.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
