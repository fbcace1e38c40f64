package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"recordings/internal/config"
	"recordings/internal/store"
	"recordings/internal/sync"
)

var (
	remoteURL string
	dataDir   string
	verbose   bool

	cfg *config.Config
	st  *store.Store
	ws  *sync.Webservice
)

var rootCmd = &cobra.Command{
	Use:   "recordings",
	Short: "Client for an audio recordings server",
	Long: `recordings is a command-line client for a recordings server.

It keeps a local mirror of the server's folder tree. Mutating commands
apply locally first and are replayed to the server in order, so they
work while the server is unreachable; run "recordings sync" to push
queued changes and "recordings status" to inspect them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if remoteURL == "" {
			remoteURL = cfg.RemoteURL
		}
		if dataDir == "" {
			dataDir = filepath.Join(cfg.DataDir, "client")
		}

		logLevel := slog.LevelWarn
		if verbose {
			logLevel = slog.LevelDebug
		}
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))

		st, err = store.Open(dataDir, logger)
		if err != nil {
			return fmt.Errorf("open local store: %w", err)
		}
		ws = sync.New(st, remoteURL, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if ws != nil {
			ws.Close()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&remoteURL, "remote", "r", "", "server base URL (default from RECORDINGS_REMOTE_URL)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "local mirror directory (default <data dir>/client)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// resolvePath walks the local mirror by folder names. "" and "/" name
// the root; path elements are separated by "/".
func resolvePath(path string) ([]uuid.UUID, store.Info, error) {
	uuids := []uuid.UUID{st.Root()}
	info, _ := st.Info(st.Root())

	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return uuids, info, nil
	}
	for _, name := range strings.Split(trimmed, "/") {
		children, err := st.Contents(info.UUID)
		if err != nil {
			return nil, store.Info{}, fmt.Errorf("%q is not a folder", info.Name)
		}
		found := false
		for _, child := range children {
			if child.Name == name {
				info = child
				found = true
				break
			}
		}
		if !found {
			return nil, store.Info{}, fmt.Errorf("no item named %q in %q", name, path)
		}
		uuids = append(uuids, info.UUID)
	}
	return uuids, info, nil
}

// appendPath extends a UUID path without aliasing the input slice.
func appendPath(path []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(path)+1)
	out = append(out, path...)
	return append(out, id)
}

// splitParent resolves the folder part of a path and returns it with
// the final name element.
func splitParent(path string) ([]uuid.UUID, store.Info, string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, store.Info{}, "", fmt.Errorf("empty path")
	}
	dir, name := "", trimmed
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		dir, name = trimmed[:i], trimmed[i+1:]
	}
	parentPath, parent, err := resolvePath(dir)
	if err != nil {
		return nil, store.Info{}, "", err
	}
	if !parent.IsFolder {
		return nil, store.Info{}, "", fmt.Errorf("%q is not a folder", parent.Name)
	}
	return parentPath, parent, name, nil
}

// copyFile writes src's bytes to dst.
func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
