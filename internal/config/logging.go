package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// SetupLogFile opens a fresh timestamped log file named after the
// service ("<service>-<timestamp>.log") and prunes older files of the
// same service down to maxFiles. The caller owns closing the handle.
func SetupLogFile(dir, service string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.log", service, time.Now().Format("2006-01-02T15-04-05"))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	if err := pruneLogs(dir, service, maxFiles); err != nil {
		// The new file is usable either way.
		fmt.Fprintf(os.Stderr, "warning: could not prune old logs: %v\n", err)
	}
	return f, nil
}

// pruneLogs deletes the oldest "<service>-*.log" files beyond maxFiles.
// The timestamp in the name sorts chronologically, so plain string
// order is age order.
func pruneLogs(dir, service string, maxFiles int) error {
	files, err := filepath.Glob(filepath.Join(dir, service+"-*.log"))
	if err != nil {
		return err
	}
	if len(files) <= maxFiles {
		return nil
	}
	sort.Strings(files)
	for _, stale := range files[:len(files)-maxFiles] {
		if err := os.Remove(stale); err != nil {
			return fmt.Errorf("remove %s: %w", stale, err)
		}
	}
	return nil
}
