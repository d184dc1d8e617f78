package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/linkfinder/internal/model"
)

// DBFile is the database file name inside the database directory.
const DBFile = "linkfinder.db"

// Defaults for Options.
const (
	DefaultMaxAttempts    = 3
	DefaultRetryBaseDelay = 30 * time.Second
	maxRetryDelay         = 30 * time.Minute
)

// TestDB stores tests and their results.
type TestDB struct {
	db     *sql.DB
	dbPath string

	maxAttempts    int
	retryBaseDelay time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// Options configures TestDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and the database file.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool

	// MaxAttempts is how many times a test may be claimed before FailTest
	// marks it failed for good.
	MaxAttempts int

	// RetryBaseDelay is the delay before the first retry. Each further retry
	// waits twice as long as the previous one. 0 retries immediately.
	RetryBaseDelay time.Duration
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
		MaxAttempts:       DefaultMaxAttempts,
		RetryBaseDelay:    DefaultRetryBaseDelay,
	}
}

// Open opens or creates the database in dbDir.
func Open(dbDir string, opts Options) (*TestDB, error) {
	dbPath := filepath.Join(dbDir, DBFile)

	mode := "rwc"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else {
		mode = "rw"
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?mode="+mode+"&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	tdb := &TestDB{
		db:             db,
		dbPath:         dbPath,
		maxAttempts:    maxAttempts,
		retryBaseDelay: max(opts.RetryBaseDelay, 0),
		now:            time.Now,
	}

	ctx := context.Background()
	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := tdb.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return tdb, nil
}

// Path returns the database file path.
func (tdb *TestDB) Path() string {
	return tdb.dbPath
}

// Close closes the database connection.
func (tdb *TestDB) Close() error {
	return tdb.db.Close()
}

func (tdb *TestDB) createTables(ctx context.Context) error {
	schema := `
	-- One row per crawl request
	CREATE TABLE IF NOT EXISTS tests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		started_at TEXT NOT NULL DEFAULT '',
		finished_at TEXT NOT NULL DEFAULT '',
		available_at TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_tests_status ON tests(status, available_at);

	-- One row per URL found by either strategy
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		test_id INTEGER NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		in_html INTEGER NOT NULL DEFAULT 0,
		in_sitemap INTEGER NOT NULL DEFAULT 0,
		html_depth INTEGER NOT NULL DEFAULT -1,
		sitemap_depth INTEGER NOT NULL DEFAULT -1,
		response_ms INTEGER NOT NULL DEFAULT 0,
		UNIQUE(test_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_results_test ON results(test_id, position);
	`

	_, err := tdb.db.ExecContext(ctx, schema)
	return err
}

// CreateTest adds a pending test for url and returns its id.
// The URL is stored as given; callers validate it first.
func (tdb *TestDB) CreateTest(ctx context.Context, url string) (int64, error) {
	now := formatTime(tdb.now())
	result, err := tdb.db.ExecContext(ctx,
		`INSERT INTO tests (url, status, created_at, available_at) VALUES (?, ?, ?, ?)`,
		url, model.TestStatusPending.String(), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create test: %w", err)
	}
	return result.LastInsertId()
}

// StartTest adds a test for url that is already running, with its first
// attempt counted. It is used when the caller crawls the site itself instead
// of leaving it to a worker.
func (tdb *TestDB) StartTest(ctx context.Context, url string) (int64, error) {
	now := formatTime(tdb.now())
	result, err := tdb.db.ExecContext(ctx,
		`INSERT INTO tests (url, status, attempts, created_at, started_at, available_at) VALUES (?, ?, 1, ?, ?, ?)`,
		url, model.TestStatusRunning.String(), now, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start test: %w", err)
	}
	return result.LastInsertId()
}

const testColumns = `id, url, status, attempts, error, created_at, started_at, finished_at`

// ClaimNextPending moves the oldest pending test whose retry delay has
// passed to running, counts the attempt and returns it.
// It returns nil, nil when no test is waiting.
func (tdb *TestDB) ClaimNextPending(ctx context.Context) (*model.Test, error) {
	now := formatTime(tdb.now())
	query := `
	UPDATE tests
	SET status = ?, attempts = attempts + 1, started_at = ?, error = ''
	WHERE id = (
		SELECT id FROM tests
		WHERE status = ? AND available_at <= ?
		ORDER BY id
		LIMIT 1
	)
	RETURNING ` + testColumns

	test, err := scanTest(tdb.db.QueryRowContext(ctx, query,
		model.TestStatusRunning.String(), now,
		model.TestStatusPending.String(), now,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim test: %w", err)
	}
	return test, nil
}

// CompleteTest stores the links found by both strategies and marks the test
// done. Results of an earlier run of the same test are replaced.
func (tdb *TestDB) CompleteTest(ctx context.Context, id int64, html, sitemap []model.Link) (err error) {
	tx, err := tdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE tests SET status = ?, finished_at = ?, error = '' WHERE id = ?`,
		model.TestStatusDone.String(), formatTime(tdb.now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete test: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: id %d", ErrTestNotFound, id)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM results WHERE test_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO results (test_id, position, url, in_html, in_sitemap, html_depth, sitemap_depth, response_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(test_id, url) DO UPDATE SET
		in_html = max(in_html, excluded.in_html),
		in_sitemap = max(in_sitemap, excluded.in_sitemap),
		html_depth = max(html_depth, excluded.html_depth),
		sitemap_depth = max(sitemap_depth, excluded.sitemap_depth)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range model.MergeResults(html, sitemap) {
		if _, err = stmt.ExecContext(ctx,
			id, i, r.URL,
			boolToInt(r.InHTML), boolToInt(r.InSitemap),
			r.HTMLDepth, r.SitemapDepth,
			r.ResponseTime.Milliseconds(),
		); err != nil {
			return fmt.Errorf("failed to insert result %s: %w", r.URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}
	return nil
}

// FailTest records cause for a running test. With retry set and attempts
// left, the test goes back to pending and becomes claimable after an
// exponential delay; otherwise it is marked failed. It returns the new status.
func (tdb *TestDB) FailTest(ctx context.Context, id int64, cause error, retry bool) (model.TestStatus, error) {
	test, err := tdb.GetTest(ctx, id)
	if err != nil {
		return "", err
	}

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	now := tdb.now()
	status := model.TestStatusFailed
	finishedAt := formatTime(now)
	availableAt := ""
	if retry && test.Attempts < tdb.maxAttempts {
		status = model.TestStatusPending
		finishedAt = ""
		availableAt = formatTime(now.Add(tdb.RetryDelay(test.Attempts)))
	}

	_, err = tdb.db.ExecContext(ctx,
		`UPDATE tests SET status = ?, error = ?, finished_at = ?, available_at = ? WHERE id = ?`,
		status.String(), msg, finishedAt, availableAt, id,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record test failure: %w", err)
	}
	return status, nil
}

// RetryDelay returns how long a test waits after its attempt-th failure.
func (tdb *TestDB) RetryDelay(attempt int) time.Duration {
	if tdb.retryBaseDelay <= 0 || attempt < 1 {
		return 0
	}
	d := tdb.retryBaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return d
}

// GetTest returns a test by id.
func (tdb *TestDB) GetTest(ctx context.Context, id int64) (*model.Test, error) {
	test, err := scanTest(tdb.db.QueryRowContext(ctx, `SELECT `+testColumns+` FROM tests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrTestNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return test, nil
}

// ListTests returns tests newest first. An empty status lists all of them.
func (tdb *TestDB) ListTests(ctx context.Context, status model.TestStatus) ([]model.Test, error) {
	query := `SELECT ` + testColumns + ` FROM tests`
	args := make([]any, 0, 1)
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status.String())
	}
	query += ` ORDER BY id DESC`

	rows, err := tdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	defer rows.Close()

	tests := make([]model.Test, 0)
	for rows.Next() {
		test, err := scanTest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test: %w", err)
		}
		tests = append(tests, *test)
	}
	return tests, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTest(row rowScanner) (*model.Test, error) {
	var (
		test                           model.Test
		status                         string
		createdAt, startedAt, finished string
	)
	if err := row.Scan(&test.ID, &test.URL, &status, &test.Attempts, &test.Error, &createdAt, &startedAt, &finished); err != nil {
		return nil, err
	}
	test.Status = model.TestStatus(status)
	test.CreatedAt = parseTimestamp(createdAt)
	test.StartedAt = parseTimestamp(startedAt)
	test.FinishedAt = parseTimestamp(finished)
	return &test, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// formatTime stores times in UTC with nanoseconds so that string order is
// time order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// timestampFormats contains the timestamp formats accepted when reading.
var timestampFormats = []string{
	"2006-01-02T15:04:05.000000000Z",
	time.RFC3339Nano,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp parses a stored timestamp. Empty or unknown values yield
// the zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
