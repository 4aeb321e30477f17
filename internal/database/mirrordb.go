package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/shinych/webmirror/internal/graph"
)

// DBFilename is the database file name under the database directory.
const DBFilename = "webmirror.db"

// Page download statuses stored in the pages table.
const (
	PageStatusPending    = "pending"
	PageStatusDownloaded = "downloaded"
	PageStatusFailed     = "failed"
)

// Run statuses stored in the runs table.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusAborted  = "aborted"
)

// MirrorDB provides SQLite-based storage for run history.
// It manages connection pooling and provides methods for recording runs,
// pages, edges and download outcomes.
//
// Design decision: We use a single database file per output directory
// rather than one per run. This keeps run history for the same site in one
// place and makes "what changed since last run" queries possible.
type MirrorDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures MirrorDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a MirrorDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*MirrorDB, error) {
	dbPath := filepath.Join(dbDir, DBFilename)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	mdb := &MirrorDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := mdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return mdb, nil
}

// Close closes the database connection.
func (mdb *MirrorDB) Close() error {
	return mdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (mdb *MirrorDB) createTables() error {
	schema := `
	-- Runs store one row per mirror invocation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root_url TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME,
		pages_total INTEGER DEFAULT 0,
		pages_failed INTEGER DEFAULT 0,
		links_rewritten INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Pages store the discovered tree, one row per page per run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		page_id TEXT NOT NULL,
		url TEXT NOT NULL,
		title TEXT,
		depth INTEGER NOT NULL,
		parent_id TEXT,
		path TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER DEFAULT 0,
		save_path TEXT,
		error TEXT,
		UNIQUE(run_id, page_id)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);

	-- Edges store every classified link between registered pages
	CREATE TABLE IF NOT EXISTS edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		type TEXT NOT NULL,
		depth_delta INTEGER DEFAULT 0,
		is_ancestor INTEGER DEFAULT 0,
		UNIQUE(run_id, source_id, target_id)
	);

	CREATE INDEX IF NOT EXISTS idx_edges_run ON edges(run_id);
	CREATE INDEX IF NOT EXISTS idx_edges_type ON edges(type);

	-- Snapshots store the full graph as JSON, one per run
	CREATE TABLE IF NOT EXISTS snapshots (
		run_id INTEGER PRIMARY KEY REFERENCES runs(id),
		graph_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := mdb.db.ExecContext(context.Background(), schema)
	return err
}

// BeginRun inserts a new run row and returns its ID.
func (mdb *MirrorDB) BeginRun(ctx context.Context, rootURL string) (int64, error) {
	result, err := mdb.db.ExecContext(ctx,
		`INSERT INTO runs (root_url, status) VALUES (?, ?)`,
		rootURL, RunStatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to begin run: %w", err)
	}
	return result.LastInsertId()
}

// SaveGraph persists the discovered tree for a run: one pages row per node,
// one edges row per classified link, and the full JSON snapshot. The write
// happens in one transaction so a concurrent reader never sees a half-saved graph.
func (mdb *MirrorDB) SaveGraph(ctx context.Context, runID int64, g *graph.PageGraph) error {
	data, err := g.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize graph: %w", err)
	}

	tx, err := mdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	pageStmt := `
	INSERT INTO pages (run_id, page_id, url, title, depth, parent_id, path, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, page_id) DO UPDATE SET
		title = excluded.title,
		path = excluded.path
	`
	for _, node := range g.Nodes() {
		if _, err := tx.ExecContext(ctx, pageStmt,
			runID,
			node.ID,
			node.URL,
			node.Title,
			node.Depth,
			node.ParentID,
			strings.Join(node.PathSegments, "/"),
			PageStatusPending,
		); err != nil {
			return fmt.Errorf("failed to insert page %s: %w", node.ID, err)
		}
	}

	edgeStmt := `
	INSERT INTO edges (run_id, source_id, target_id, type, depth_delta, is_ancestor)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, source_id, target_id) DO NOTHING
	`
	for _, meta := range g.Edges() {
		ancestor := 0
		if meta.IsAncestor {
			ancestor = 1
		}
		if _, err := tx.ExecContext(ctx, edgeStmt,
			runID,
			meta.SourceID,
			meta.TargetID,
			string(meta.Type),
			meta.DepthDelta,
			ancestor,
		); err != nil {
			return fmt.Errorf("failed to insert edge %s->%s: %w", meta.SourceID, meta.TargetID, err)
		}
	}

	snapStmt := `
	INSERT INTO snapshots (run_id, graph_json) VALUES (?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		graph_json = excluded.graph_json,
		created_at = CURRENT_TIMESTAMP
	`
	if _, err := tx.ExecContext(ctx, snapStmt, runID, string(data)); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return tx.Commit()
}

// LoadGraph restores the graph snapshot saved for a run.
// Returns nil without error when the run has no snapshot.
func (mdb *MirrorDB) LoadGraph(ctx context.Context, runID int64) (*graph.PageGraph, error) {
	var graphJSON string
	err := mdb.db.QueryRowContext(ctx,
		`SELECT graph_json FROM snapshots WHERE run_id = ?`, runID,
	).Scan(&graphJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	g := graph.New()
	if err := g.UnmarshalJSON([]byte(graphJSON)); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return g, nil
}

// MarkPageResult records the outcome of one page download.
func (mdb *MirrorDB) MarkPageResult(ctx context.Context, runID int64, pageID, status string, attempts int, savePath, errMsg string) error {
	query := `
	UPDATE pages SET status = ?, attempts = ?, save_path = ?, error = ?
	WHERE run_id = ? AND page_id = ?
	`
	_, err := mdb.db.ExecContext(ctx, query, status, attempts, savePath, errMsg, runID, pageID)
	if err != nil {
		return fmt.Errorf("failed to mark page %s: %w", pageID, err)
	}
	return nil
}

// FinishRun records the run's final status and summary counters.
func (mdb *MirrorDB) FinishRun(ctx context.Context, runID int64, status string, pagesTotal, pagesFailed, linksRewritten int) error {
	query := `
	UPDATE runs SET status = ?, finished_at = CURRENT_TIMESTAMP,
		pages_total = ?, pages_failed = ?, links_rewritten = ?
	WHERE id = ?
	`
	_, err := mdb.db.ExecContext(ctx, query, status, pagesTotal, pagesFailed, linksRewritten, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// RunRecord contains summary information about one run.
type RunRecord struct {
	// ID is the run's database identifier.
	ID int64

	// RootURL is the page the run was rooted at.
	RootURL string

	// Status is one of the Run* constants.
	Status string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run ended, zero while running.
	FinishedAt time.Time

	// PagesTotal is the number of pages in the run's tree.
	PagesTotal int

	// PagesFailed is the number of pages whose download failed permanently.
	PagesFailed int

	// LinksRewritten is the number of hrefs changed by the rewrite pass.
	LinksRewritten int
}

// RunHistory returns runs for a root URL, most recent first.
// An empty rootURL returns all runs.
func (mdb *MirrorDB) RunHistory(ctx context.Context, rootURL string) ([]RunRecord, error) {
	query := `
	SELECT id, root_url, status, started_at, finished_at, pages_total, pages_failed, links_rewritten
	FROM runs
	WHERE 1=1
	`
	args := make([]interface{}, 0)
	if rootURL != "" {
		query += " AND root_url = ?"
		args = append(args, rootURL)
	}
	query += " ORDER BY started_at DESC, id DESC"

	rows, err := mdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started string
		var finished sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&rec.RootURL,
			&rec.Status,
			&started,
			&finished,
			&rec.PagesTotal,
			&rec.PagesFailed,
			&rec.LinksRewritten,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		rec.StartedAt = parseTimestamp(started)
		if finished.Valid {
			rec.FinishedAt = parseTimestamp(finished.String)
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}

// LatestRun returns the most recent run for a root URL, or nil when the
// database has none.
func (mdb *MirrorDB) LatestRun(ctx context.Context, rootURL string) (*RunRecord, error) {
	runs, err := mdb.RunHistory(ctx, rootURL)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// PageRecord contains one page's stored state.
type PageRecord struct {
	PageID   string
	URL      string
	Title    string
	Depth    int
	ParentID string
	Path     string
	Status   string
	Attempts int
	SavePath string
	Error    string
}

// FailedPages returns the pages of a run whose download failed permanently.
func (mdb *MirrorDB) FailedPages(ctx context.Context, runID int64) ([]PageRecord, error) {
	query := `
	SELECT page_id, url, title, depth, parent_id, path, status, attempts, save_path, error
	FROM pages
	WHERE run_id = ? AND status = ?
	ORDER BY depth, page_id
	`

	rows, err := mdb.db.QueryContext(ctx, query, runID, PageStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed pages: %w", err)
	}
	defer rows.Close()

	var results []PageRecord
	for rows.Next() {
		var rec PageRecord
		var title, parent, path, save, errMsg sql.NullString

		if err := rows.Scan(
			&rec.PageID,
			&rec.URL,
			&title,
			&rec.Depth,
			&parent,
			&path,
			&rec.Status,
			&rec.Attempts,
			&save,
			&errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		rec.Title = title.String
		rec.ParentID = parent.String
		rec.Path = path.String
		rec.SavePath = save.String
		rec.Error = errMsg.String
		results = append(results, rec)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
