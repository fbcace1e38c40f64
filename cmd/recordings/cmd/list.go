package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var listOffline bool

var listCmd = &cobra.Command{
	Use:     "ls [path]",
	Aliases: []string{"list"},
	Short:   "List a folder",
	Long: `List a folder of the mirrored tree, refreshing it from the server
first unless --offline is given. Items with queued unconfirmed changes
are marked with the queued change verb.

Examples:
  recordings ls
  recordings ls "Interviews/2026"
  recordings ls --offline`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		uuids, folder, err := resolvePath(path)
		if err != nil {
			return err
		}
		if !folder.IsFolder {
			return fmt.Errorf("%q is not a folder", folder.Name)
		}

		if !listOffline {
			if err := ws.RefreshContents(context.Background(), uuids); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not refresh from server: %v\n", err)
			}
		}

		children, err := st.Contents(folder.UUID)
		if err != nil {
			return err
		}
		for _, child := range children {
			kind := "file"
			if child.IsFolder {
				kind = "dir"
			}
			line := fmt.Sprintf("%s\t%s\t%s", kind, child.UUID, child.Name)
			if verb, ok := ws.NextChange(appendPath(uuids, child.UUID)); ok {
				line += fmt.Sprintf("\t(pending %s)", verb)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listOffline, "offline", false, "list the local mirror without contacting the server")
	rootCmd.AddCommand(listCmd)
}
