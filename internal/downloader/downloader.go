package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"iplayercast/internal/catalog"
	"iplayercast/internal/fileutil"
	"iplayercast/internal/logging"
	"iplayercast/internal/services"
)

// Fetcher retrieves one programme into a staging directory.
type Fetcher interface {
	Download(ctx context.Context, pid, stagingDir string, tag bool) error
}

// Options tunes a single Run.
type Options struct {
	// Tag asks the fetch tool to write media metadata into the files.
	Tag bool
}

// Result summarises a Run.
type Result struct {
	Attempted  int
	Downloaded int
	Pending    int
}

// Downloader drives fetches for the pending programmes of a catalog.
type Downloader struct {
	fetcher    Fetcher
	stagingDir string
	logger     *slog.Logger
}

// New constructs a downloader staging fetches in stagingDir.
func New(fetcher Fetcher, stagingDir string, logger *slog.Logger) (*Downloader, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher required")
	}
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, errors.New("staging directory required")
	}
	return &Downloader{
		fetcher:    fetcher,
		stagingDir: stagingDir,
		logger:     logging.NewComponentLogger(logger, "downloader"),
	}, nil
}

// Run attempts every pending programme of cat, in catalog order, relocating
// fetched media into outputDir. Failed fetches leave programmes pending and do
// not stop the loop. The returned error is non-nil only when the fetch tool is
// unusable, the staging area cannot be prepared, or ctx is done.
func (d *Downloader) Run(ctx context.Context, cat *catalog.Catalog, outputDir string, opts Options) (Result, error) {
	var result Result
	if cat == nil {
		return result, errors.New("catalog required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "download", "create output directory", outputDir, err)
	}

	for _, programme := range cat.Pending() {
		if err := ctx.Err(); err != nil {
			result.Pending = len(cat.Pending())
			return result, err
		}
		result.Attempted++
		filename, err := d.fetch(ctx, programme, outputDir, opts)
		if err != nil {
			result.Pending = len(cat.Pending())
			return result, err
		}
		if filename == "" {
			continue
		}
		if err := cat.MarkDownloaded(programme.PID, filename); err != nil {
			return result, fmt.Errorf("record download: %w", err)
		}
		result.Downloaded++
	}
	result.Pending = len(cat.Pending())
	return result, nil
}

// fetch returns the recorded filename, or "" when the programme stays pending.
func (d *Downloader) fetch(ctx context.Context, programme catalog.Programme, outputDir string, opts Options) (string, error) {
	ctx = services.WithPID(ctx, programme.PID)
	logger := logging.WithContext(ctx, d.logger)

	if err := d.resetStaging(); err != nil {
		return "", err
	}
	defer d.cleanupStaging(logger)

	logger.Info("downloading programme", logging.String("title", programme.Title()))
	started := time.Now()
	fetchErr := d.fetcher.Download(ctx, programme.PID, d.stagingDir, opts.Tag)
	switch {
	case fetchErr == nil:
	case ctx.Err() != nil:
		return "", ctx.Err()
	case services.IsFatal(fetchErr):
		return "", fetchErr
	case errors.Is(fetchErr, services.ErrTimeout):
		logging.WarnWithContext(logger, "download timed out", "download_timeout",
			logging.Error(fetchErr),
			logging.String(logging.FieldErrorHint, "raise fetch.download_timeout if programmes are long"),
			logging.String(logging.FieldImpact, "programme retried next run"),
		)
		return "", nil
	default:
		logging.WarnWithContext(logger, "fetch tool reported failure", "download_failed",
			logging.Error(fetchErr),
			logging.String(logging.FieldErrorHint, "inspect get_iplayer output with --log-level debug"),
			logging.String(logging.FieldImpact, "staged files are still collected"),
		)
	}

	staged, err := gatherStaged(d.stagingDir)
	if err != nil {
		logging.WarnWithContext(logger, "inspect staging failed", "staging_unreadable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "programme retried next run"),
		)
		return "", nil
	}
	if len(staged) == 0 {
		logger.Info("no file produced; programme stays pending",
			logging.Duration("elapsed", time.Since(started)),
		)
		return "", nil
	}

	var moved []stagedFile
	for _, file := range staged {
		dest := filepath.Join(outputDir, file.name)
		if err := fileutil.MoveFile(file.path, dest); err != nil {
			logging.WarnWithContext(logger, "relocate staged file failed", "relocate_failed",
				logging.String("file", file.name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check output_dir permissions and free space"),
			)
			continue
		}
		moved = append(moved, file)
	}
	if len(moved) == 0 {
		return "", nil
	}

	recorded := selectPrimary(moved)
	logger.Info("programme downloaded",
		logging.String("filename", recorded.name),
		logging.Int64("size_bytes", recorded.size),
		logging.Int("files", len(moved)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return recorded.name, nil
}

func (d *Downloader) resetStaging() error {
	if err := os.RemoveAll(d.stagingDir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrConfiguration, "download", "prepare staging", d.stagingDir, err)
	}
	if err := os.MkdirAll(d.stagingDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "download", "create staging", d.stagingDir, err)
	}
	return nil
}

func (d *Downloader) cleanupStaging(logger *slog.Logger) {
	if err := os.RemoveAll(d.stagingDir); err != nil {
		logging.WarnWithContext(logger, "failed to remove staging directory", "staging_cleanup_failed",
			logging.String("path", d.stagingDir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
	}
}

type stagedFile struct {
	name string
	path string
	size int64
}

func gatherStaged(dir string) ([]stagedFile, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	files := make([]stagedFile, 0, len(items))
	for _, item := range items {
		if !item.Type().IsRegular() {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		files = append(files, stagedFile{
			name: item.Name(),
			path: filepath.Join(dir, item.Name()),
			size: info.Size(),
		})
	}
	return files, nil
}

// selectPrimary picks the largest file, breaking ties by name.
func selectPrimary(files []stagedFile) stagedFile {
	sort.Slice(files, func(i, j int) bool {
		if files[i].size != files[j].size {
			return files[i].size > files[j].size
		}
		return files[i].name < files[j].name
	})
	return files[0]
}
