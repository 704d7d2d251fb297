package serial

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/airship/internal/ports"
)

// WaitForDevice blocks until path exists or ctx is done.
// It watches the parent directory, so hot-plugged USB serial adapters are
// picked up as soon as udev creates the node.
func WaitForDevice(ctx context.Context, path string, logger ports.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// Checked after Add so a node created in between is not missed.
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	logger.Info("waiting for device", ports.String("device", path))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			logger.Info("device appeared", ports.String("device", path))
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			logger.Warn("device watcher error", ports.Err(err))
		}
	}
}
