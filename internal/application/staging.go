package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrStagingBusy indicates staging cleanup kept failing with EBUSY after
// all retry attempts.
var ErrStagingBusy = errors.New("staging directory contents busy")

// Defaults for the staging cleanup retry loop.
const (
	DefaultReclaimRetries = 5
	DefaultReclaimDelay   = time.Second
)

// ReclaimStaging removes the contents of stagingDir, leaving the directory
// itself in place. A missing directory is a no-op. Working copies are
// regenerated from scratch each run, so stale partial clones must not
// linger. Some platforms keep just-closed file handles locked briefly;
// a sweep that fails with EBUSY is restarted after delay, up to retries
// attempts. Any other failure propagates immediately.
func ReclaimStaging(ctx context.Context, stagingDir string, retries int, delay time.Duration, logger *slog.Logger) error {
	return reclaimStaging(ctx, stagingDir, retries, delay, logger, sweepDir)
}

func reclaimStaging(ctx context.Context, stagingDir string, retries int, delay time.Duration, logger *slog.Logger, sweep func(string) error) error {
	if _, err := os.Stat(stagingDir); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("stat staging dir: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		err := sweep(stagingDir)
		if err == nil {
			return nil
		}
		if !errors.Is(err, syscall.EBUSY) {
			return err
		}
		lastErr = err
		logger.Warn("staging contents busy, retrying",
			"dir", stagingDir,
			"attempt", attempt,
			"delay", delay,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	logger.Error("staging cleanup exhausted retries", "dir", stagingDir, "attempts", retries)
	return fmt.Errorf("%w after %d attempts: %v", ErrStagingBusy, retries, lastErr)
}

// sweepDir removes every direct entry of dir: files and symlinks are
// unlinked, directories removed recursively.
func sweepDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read staging dir: %w", err)
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("remove %s: %w", path, err)
			}
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return nil
}
