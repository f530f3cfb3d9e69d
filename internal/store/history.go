// Package store keeps a SQLite-backed history of saved budget documents.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/allot/internal/budget"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrRevisionNotFound is returned when a revision id does not exist.
var ErrRevisionNotFound = errors.New("revision not found")

// History records every distinct version of a budget document.
type History struct {
	db *sql.DB
}

// Revision is one stored document version. Totals are kept as decimal
// strings for listing without decoding the document.
type Revision struct {
	ID          int64
	BudgetPath  string
	SavedAt     time.Time
	ContentHash string
	Mode        string
	GrandTotal  string
	Subtotal    string
	Categories  int
	Fees        int
	OverBudget  bool
	Note        string
	Document    []byte
}

// RevisionOf describes engine state and its serialized document.
func RevisionOf(path string, e *budget.Engine, data []byte, note string) Revision {
	return Revision{
		BudgetPath: path,
		Mode:       e.Mode().String(),
		GrandTotal: e.GrandTotal().String(),
		Subtotal:   e.Subtotal().String(),
		Categories: len(e.Categories()),
		Fees:       len(e.Fees()),
		OverBudget: e.OverBudget(),
		Note:       note,
		Document:   data,
	}
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*History, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &History{db: db}, nil
}

// DefaultPath is the history database inside dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "history.db")
}

// Close closes the history database.
func (h *History) Close() error {
	return h.db.Close()
}

// HashDocument returns the content hash used to skip unchanged saves.
func HashDocument(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

// Record stores rev unless the latest revision of the same budget has the
// same content. It returns the stored (or existing) revision and whether a
// row was added.
func (h *History) Record(rev Revision) (Revision, bool, error) {
	abs, err := filepath.Abs(rev.BudgetPath)
	if err != nil {
		return rev, false, fmt.Errorf("resolving budget path: %w", err)
	}
	rev.BudgetPath = abs
	rev.ContentHash = HashDocument(rev.Document)
	if rev.SavedAt.IsZero() {
		rev.SavedAt = time.Now()
	}

	tx, err := h.db.Begin()
	if err != nil {
		return rev, false, err
	}
	defer func() { _ = tx.Rollback() }()

	var lastID int64
	var lastHash string
	err = tx.QueryRow(`SELECT id, content_hash FROM revisions
		WHERE budget_path = ? ORDER BY id DESC LIMIT 1`, rev.BudgetPath).Scan(&lastID, &lastHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return rev, false, err
	case lastHash == rev.ContentHash:
		_ = tx.Rollback()
		existing, err := h.Get(lastID)
		return existing, false, err
	}

	overBudget := 0
	if rev.OverBudget {
		overBudget = 1
	}
	res, err := tx.Exec(`INSERT INTO revisions
		(budget_path, saved_at, content_hash, mode, grand_total, subtotal,
		 categories, fees, over_budget, note, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.BudgetPath, rev.SavedAt.UTC().Format(time.RFC3339Nano), rev.ContentHash, rev.Mode,
		rev.GrandTotal, rev.Subtotal, rev.Categories, rev.Fees, overBudget, rev.Note, rev.Document,
	)
	if err != nil {
		return rev, false, err
	}
	if rev.ID, err = res.LastInsertId(); err != nil {
		return rev, false, err
	}
	return rev, true, tx.Commit()
}

const revisionColumns = `id, budget_path, saved_at, content_hash, mode, grand_total, subtotal,
	categories, fees, over_budget, note`

type scanner interface {
	Scan(dest ...any) error
}

func scanRevision(s scanner, withDoc bool) (Revision, error) {
	var r Revision
	var savedAt string
	var note sql.NullString
	var overBudget int
	dest := []any{
		&r.ID, &r.BudgetPath, &savedAt, &r.ContentHash, &r.Mode, &r.GrandTotal, &r.Subtotal,
		&r.Categories, &r.Fees, &overBudget, &note,
	}
	if withDoc {
		dest = append(dest, &r.Document)
	}
	if err := s.Scan(dest...); err != nil {
		return r, err
	}
	r.OverBudget = overBudget != 0
	r.Note = note.String
	r.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
	return r, nil
}

// List returns the newest revisions of a budget first, without their
// documents. A limit of 0 means no limit.
func (h *History) List(budgetPath string, limit int) ([]Revision, error) {
	abs, err := filepath.Abs(budgetPath)
	if err != nil {
		return nil, fmt.Errorf("resolving budget path: %w", err)
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.Query(`SELECT `+revisionColumns+` FROM revisions
		WHERE budget_path = ? ORDER BY id DESC LIMIT ?`, abs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Revision
	for rows.Next() {
		r, err := scanRevision(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns one revision including its document.
func (h *History) Get(id int64) (Revision, error) {
	row := h.db.QueryRow(`SELECT `+revisionColumns+`, document FROM revisions WHERE id = ?`, id)
	r, err := scanRevision(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %d", ErrRevisionNotFound, id)
	}
	return r, err
}

// Count returns the number of revisions stored for a budget.
func (h *History) Count(budgetPath string) (int, error) {
	abs, err := filepath.Abs(budgetPath)
	if err != nil {
		return 0, err
	}
	var count int
	err = h.db.QueryRow("SELECT COUNT(*) FROM revisions WHERE budget_path = ?", abs).Scan(&count)
	return count, err
}

// Prune keeps the newest keep revisions of a budget and deletes the rest.
func (h *History) Prune(budgetPath string, keep int) (int64, error) {
	abs, err := filepath.Abs(budgetPath)
	if err != nil {
		return 0, err
	}
	res, err := h.db.Exec(`DELETE FROM revisions WHERE budget_path = ? AND id NOT IN (
		SELECT id FROM revisions WHERE budget_path = ? ORDER BY id DESC LIMIT ?)`, abs, abs, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FileInfo holds the tracked mtime and size for a budget file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// TrackedFile returns the last recorded stat of a budget file.
func (h *History) TrackedFile(budgetPath string) (FileInfo, bool, error) {
	abs, err := filepath.Abs(budgetPath)
	if err != nil {
		return FileInfo{}, false, err
	}
	var fi FileInfo
	err = h.db.QueryRow("SELECT mtime_ns, size_bytes FROM file_tracker WHERE budget_path = ?", abs).
		Scan(&fi.MtimeNs, &fi.SizeBytes)
	if errors.Is(err, sql.ErrNoRows) {
		return fi, false, nil
	}
	return fi, err == nil, err
}

// TrackFile stores the stat of a budget file.
func (h *History) TrackFile(budgetPath string, fi FileInfo) error {
	abs, err := filepath.Abs(budgetPath)
	if err != nil {
		return err
	}
	_, err = h.db.Exec(`INSERT OR REPLACE INTO file_tracker (budget_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)`, abs, fi.MtimeNs, fi.SizeBytes)
	return err
}
