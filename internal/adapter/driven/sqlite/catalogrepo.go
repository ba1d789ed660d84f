package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rulehound/rulehound/internal/domain/model"
	"github.com/rulehound/rulehound/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CatalogStore = (*CatalogRepo)(nil)

// CatalogRepo is the SQLite implementation of the CatalogStore port
// interface. Rule sets are stored as JSON documents per rule file.
type CatalogRepo struct {
	db *DB
}

// NewCatalogRepo creates a new CatalogRepo backed by the given DB.
func NewCatalogRepo(db *DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// Upsert replaces the stored entry for the owner/repo pair, together with
// all of its rule files, in a single transaction.
func (r *CatalogRepo) Upsert(ctx context.Context, entry model.CatalogEntry) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The cascade on rule_files clears the previous run's rule sets.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM catalog_entries WHERE owner = ? AND repo = ?`,
		entry.Owner, entry.Repo,
	); err != nil {
		return fmt.Errorf("delete previous entry %s/%s: %w", entry.Owner, entry.Repo, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO catalog_entries
		 (name, url, branch, author, owner, repo, quality, license_text, license_url, commit_hash, repo_path, retrieved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Name, entry.URL, entry.Branch, entry.Author,
		entry.Owner, entry.Repo, entry.Quality,
		entry.License.Text, entry.License.URL,
		entry.CommitHash, entry.RepoPath,
		entry.RetrievedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert entry %s/%s: %w", entry.Owner, entry.Repo, err)
	}

	entryID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("entry id for %s/%s: %w", entry.Owner, entry.Repo, err)
	}

	for i, rf := range entry.RuleSets {
		rulesJSON, err := json.Marshal(rf.Rules)
		if err != nil {
			return fmt.Errorf("marshal rules of %s: %w", rf.RelativePath, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rule_files (entry_id, position, relative_path, rule_count, rules_json)
			 VALUES (?, ?, ?, ?, ?)`,
			entryID, i, rf.RelativePath, len(rf.Rules), string(rulesJSON),
		); err != nil {
			return fmt.Errorf("insert rule file %s: %w", rf.RelativePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert %s/%s: %w", entry.Owner, entry.Repo, err)
	}
	return nil
}

// ListEntries returns all stored entries without rule sets, ordered by
// owner then repo.
func (r *CatalogRepo) ListEntries(ctx context.Context) ([]model.CatalogEntry, error) {
	const query = `SELECT name, url, branch, author, owner, repo, quality,
		license_text, license_url, commit_hash, repo_path, retrieved_at
		FROM catalog_entries ORDER BY owner, repo`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []model.CatalogEntry
	for rows.Next() {
		entry, _, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog entries: %w", err)
	}
	return entries, nil
}

// GetByRepo returns the full entry including rule sets, or nil, nil if no
// entry exists for the owner/repo pair.
func (r *CatalogRepo) GetByRepo(ctx context.Context, owner, repo string) (*model.CatalogEntry, error) {
	const query = `SELECT name, url, branch, author, owner, repo, quality,
		license_text, license_url, commit_hash, repo_path, retrieved_at, id
		FROM catalog_entries WHERE owner = ? AND repo = ?`

	row := r.db.Reader.QueryRowContext(ctx, query, owner, repo)
	entry, entryID, err := scanEntryWithID(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog entry %s/%s: %w", owner, repo, err)
	}

	ruleSets, err := r.ruleSetsFor(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("rule sets for %s/%s: %w", owner, repo, err)
	}
	entry.RuleSets = ruleSets
	return entry, nil
}

func (r *CatalogRepo) ruleSetsFor(ctx context.Context, entryID int64) ([]model.RuleFile, error) {
	const query = `SELECT relative_path, rules_json FROM rule_files
		WHERE entry_id = ? ORDER BY position`

	rows, err := r.db.Reader.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ruleSets []model.RuleFile
	for rows.Next() {
		var rf model.RuleFile
		var rulesJSON string
		if err := rows.Scan(&rf.RelativePath, &rulesJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rulesJSON), &rf.Rules); err != nil {
			return nil, fmt.Errorf("unmarshal rules of %s: %w", rf.RelativePath, err)
		}
		ruleSets = append(ruleSets, rf)
	}
	return ruleSets, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*model.CatalogEntry, int64, error) {
	var entry model.CatalogEntry
	var retrievedAt string

	err := s.Scan(
		&entry.Name, &entry.URL, &entry.Branch, &entry.Author,
		&entry.Owner, &entry.Repo, &entry.Quality,
		&entry.License.Text, &entry.License.URL,
		&entry.CommitHash, &entry.RepoPath, &retrievedAt,
	)
	if err != nil {
		return nil, 0, err
	}

	entry.RetrievedAt, err = parseTime(retrievedAt)
	if err != nil {
		return nil, 0, fmt.Errorf("parse retrieved_at: %w", err)
	}
	return &entry, 0, nil
}

func scanEntryWithID(s scanner) (*model.CatalogEntry, int64, error) {
	var entry model.CatalogEntry
	var retrievedAt string
	var id int64

	err := s.Scan(
		&entry.Name, &entry.URL, &entry.Branch, &entry.Author,
		&entry.Owner, &entry.Repo, &entry.Quality,
		&entry.License.Text, &entry.License.URL,
		&entry.CommitHash, &entry.RepoPath, &retrievedAt, &id,
	)
	if err != nil {
		return nil, 0, err
	}

	entry.RetrievedAt, err = parseTime(retrievedAt)
	if err != nil {
		return nil, 0, fmt.Errorf("parse retrieved_at: %w", err)
	}
	return &entry, id, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
