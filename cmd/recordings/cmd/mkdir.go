package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"recordings/internal/store"
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a folder",
	Long: `Create a folder in the mirrored tree and push the change to the
server. If the server is unreachable the change stays queued.

Examples:
  recordings mkdir "Interviews"
  recordings mkdir "Interviews/2026"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, parent, name, err := splitParent(args[0])
		if err != nil {
			return err
		}
		info := store.Info{UUID: uuid.New(), Name: name, IsFolder: true}
		if err := st.Add(info, parent.UUID); err != nil {
			return err
		}
		remaining, err := ws.Flush(context.Background())
		if err != nil {
			return err
		}
		if remaining > 0 {
			fmt.Printf("created %s locally, %d change(s) queued for the server\n", name, remaining)
		} else {
			fmt.Printf("created %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mkdirCmd)
}
