package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"recordings/internal/sync"
)

var uuidCmd = &cobra.Command{
	Use:   "uuid",
	Short: "Print the server's root folder identifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: 5 * time.Second}
		root, err := sync.Probe(context.Background(), client, ws.RemoteURL())
		if err != nil {
			return err
		}
		fmt.Println(root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uuidCmd)
}
