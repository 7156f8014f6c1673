package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// MultiUploader uploads several local files into one folder of a Store in parallel
type MultiUploader struct {
	store         Store
	maxConcurrent int
	logger        zerolog.Logger
}

// NewMultiUploader creates a new multi-uploader. maxConcurrent below 1 means 1.
func NewMultiUploader(store Store, maxConcurrent int, logger zerolog.Logger) *MultiUploader {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &MultiUploader{store: store, maxConcurrent: maxConcurrent, logger: logger}
}

// Upload uploads every source into destDir. One failure does not stop the
// others; results are returned in the order of sources.
func (m *MultiUploader) Upload(ctx context.Context, destDir string, sources []string) []Result {
	results := make([]Result, len(sources))
	if len(sources) == 0 {
		return results
	}

	prefix, err := CleanPrefix(destDir)
	if err != nil {
		for i, src := range sources {
			results[i] = Result{Source: src, Error: err}
		}
		return results
	}

	m.logger.Info().
		Int("total_files", len(sources)).
		Int("max_concurrent", m.maxConcurrent).
		Str("folder", "/"+prefix).
		Msg("starting parallel upload")

	sem := semaphore.NewWeighted(int64(m.maxConcurrent))
	g, gCtx := errgroup.WithContext(ctx)

	for i, src := range sources {
		g.Go(func() error {
			result := Result{Source: src}

			if err := sem.Acquire(gCtx, 1); err != nil {
				result.Error = fmt.Errorf("failed to acquire semaphore: %w", err)
				results[i] = result
				return nil
			}
			defer sem.Release(1)

			results[i] = m.uploadOne(gCtx, prefix, src)
			return nil
		})
	}

	_ = g.Wait()

	successCount := 0
	failureCount := 0
	var totalDuration time.Duration
	for _, r := range results {
		if r.Success {
			successCount++
		} else {
			failureCount++
		}
		totalDuration += r.Duration
	}

	m.logger.Info().
		Int("successful", successCount).
		Int("failed", failureCount).
		Dur("total_duration", totalDuration).
		Msg("parallel upload completed")

	return results
}

func (m *MultiUploader) uploadOne(ctx context.Context, prefix, src string) Result {
	start := time.Now()
	result := Result{Source: src}

	name := SanitizeFileName(filepath.Base(src))
	if err := ValidateUploadName(name); err != nil {
		result.Error = err
		m.logger.Warn().Err(err).Str("file", src).Msg("upload skipped")
		return result
	}
	result.Key = strings.TrimLeft(path.Join(prefix, name), "/")

	m.logger.Debug().
		Str("file", src).
		Str("key", result.Key).
		Msg("starting upload")

	up, err := m.store.Upload(ctx, result.Key, src)
	result.Duration = time.Since(start)
	result.Upload = up
	result.Success = err == nil
	result.Error = err

	if err != nil {
		m.logger.Error().
			Err(err).
			Str("file", src).
			Dur("duration", result.Duration).
			Msg("upload failed")
	} else {
		m.logger.Info().
			Str("file", src).
			Str("key", result.Key).
			Uint64("size", up.Size).
			Dur("duration", result.Duration).
			Msg("upload succeeded")
	}

	return result
}
