package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"recordings/internal/discovery"
	"recordings/internal/sync"
)

var discoverWait time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find recordings servers on the local network",
	Long: `Browse for advertised servers via multicast DNS and probe each
candidate's /uuid endpoint to confirm it speaks the protocol.

Examples:
  recordings discover
  recordings discover --wait 5s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		found, err := discovery.Browse(ctx, cfg.ServiceName, discoverWait)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Println("no servers found")
			return nil
		}
		client := &http.Client{Timeout: 5 * time.Second}
		for _, c := range found {
			root, err := sync.Probe(ctx, client, c.URL())
			if err != nil {
				fmt.Printf("%s\t%s\t(unreachable: %v)\n", c.Instance, c.URL(), err)
				continue
			}
			fmt.Printf("%s\t%s\troot %s\n", c.Instance, c.URL(), root)
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverWait, "wait", 3*time.Second, "how long to browse")
	rootCmd.AddCommand(discoverCmd)
}
