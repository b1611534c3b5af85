package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"iplayercast/internal/catalog"
	"iplayercast/internal/logging"
	"iplayercast/internal/services"
)

// FileName is the history database inside each feed directory.
const FileName = "history.db"

// Store loads and saves feed histories.
type Store struct {
	logger *slog.Logger
	now    func() time.Time
}

// New returns a store logging through logger.
func New(logger *slog.Logger) *Store {
	return &Store{
		logger: logging.NewComponentLogger(logger, "history"),
		now:    time.Now,
	}
}

// Path returns the history database location for feedDir.
func Path(feedDir string) string {
	return filepath.Join(feedDir, FileName)
}

// Load reads the catalog stored in feedDir. An absent history is an empty
// catalog with no error. Any other failure also returns an empty catalog,
// together with an error marked services.ErrHistoryLoad.
func (s *Store) Load(ctx context.Context, feedDir string) (*catalog.Catalog, error) {
	path := Path(feedDir)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return catalog.New(), nil
	}
	if err != nil {
		return catalog.New(), services.Wrap(services.ErrHistoryLoad, "history", "stat", path, err)
	}
	if info.IsDir() {
		return catalog.New(), services.Wrap(services.ErrHistoryLoad, "history", "stat", path+" is a directory", nil)
	}

	programmes, err := readProgrammes(ctx, path)
	if err != nil {
		return catalog.New(), services.Wrap(services.ErrHistoryLoad, "history", "read", path, err)
	}
	cat, repaired := catalog.Restore(programmes)
	if repaired > 0 {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "history rows repaired", "history_repaired",
			logging.String("path", path),
			logging.Int("repaired", repaired),
			logging.String(logging.FieldErrorHint, "affected programmes are fetched again"),
			logging.String(logging.FieldImpact, "some programmes may be downloaded twice"),
		)
	}
	return cat, nil
}

func readProgrammes(ctx context.Context, path string) ([]catalog.Programme, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := checkSchema(ctx, db); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT pid, name, episode, description, downloaded, filename, first_seen
         FROM programmes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query programmes: %w", err)
	}
	defer rows.Close()

	var programmes []catalog.Programme
	for rows.Next() {
		var (
			p          catalog.Programme
			downloaded int
			filename   sql.NullString
			firstSeen  string
		)
		if err := rows.Scan(&p.PID, &p.Name, &p.Episode, &p.Description, &downloaded, &filename, &firstSeen); err != nil {
			return nil, fmt.Errorf("scan programme: %w", err)
		}
		p.Downloaded = downloaded != 0
		p.Filename = filename.String
		p.FirstSeen, err = time.Parse(time.RFC3339Nano, firstSeen)
		if err != nil {
			return nil, fmt.Errorf("programme %s first_seen: %w", p.PID, err)
		}
		programmes = append(programmes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programmes: %w", err)
	}
	return programmes, nil
}

// Save writes the full catalog for feedName into feedDir. The database is
// built in a temporary file and renamed over the previous history. Failures
// are marked services.ErrHistorySave.
func (s *Store) Save(ctx context.Context, feedDir, feedName string, cat *catalog.Catalog) error {
	if cat == nil {
		return services.Wrap(services.ErrHistorySave, "history", "save", "catalog is nil", nil)
	}
	if err := os.MkdirAll(feedDir, 0o755); err != nil {
		return services.Wrap(services.ErrHistorySave, "history", "create feed directory", feedDir, err)
	}
	path := Path(feedDir)
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrHistorySave, "history", "clear temp", tmp, err)
	}

	if err := s.writeDatabase(ctx, tmp, feedName, cat); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrHistorySave, "history", "write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrHistorySave, "history", "replace", path, err)
	}
	downloaded, pending := cat.Counts()
	logging.WithContext(ctx, s.logger).Debug("history saved",
		logging.String("path", path),
		logging.Int("downloaded", downloaded),
		logging.Int("pending", pending),
	)
	return nil
}

func (s *Store) writeDatabase(ctx context.Context, path, feedName string, cat *catalog.Catalog) error {
	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := createSchema(ctx, tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO feed (name, saved_at) VALUES (?, ?)",
		feedName, s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("record feed: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO programmes (position, pid, name, episode, description, downloaded, filename, first_seen)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range cat.Programmes() {
		if _, err := stmt.ExecContext(ctx,
			i,
			p.PID,
			p.Name,
			p.Episode,
			p.Description,
			boolToInt(p.Downloaded),
			nullableString(p.Filename),
			p.FirstSeen.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert programme %s: %w", p.PID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	return db, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
