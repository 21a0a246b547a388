package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/audit"
)

// Store persists audit history using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Stores metadata about each audit run
	CREATE TABLE IF NOT EXISTS audits (
		run_id TEXT PRIMARY KEY,
		repo_url TEXT NOT NULL,
		commit_hash TEXT NOT NULL DEFAULT '',
		overall_score REAL NOT NULL,
		created_at INTEGER NOT NULL
	);

	-- Per-dimension synthesis outcomes
	CREATE TABLE IF NOT EXISTS criteria (
		criterion_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		dimension_id TEXT NOT NULL,
		dimension_name TEXT NOT NULL,
		final_score INTEGER NOT NULL,
		rules_fired TEXT NOT NULL,
		dissent TEXT,
		remediation TEXT,
		FOREIGN KEY (run_id) REFERENCES audits(run_id) ON DELETE CASCADE
	);

	-- Individual judge opinions feeding each outcome
	CREATE TABLE IF NOT EXISTS opinions (
		opinion_id INTEGER PRIMARY KEY AUTOINCREMENT,
		criterion_id INTEGER NOT NULL,
		judge TEXT NOT NULL,
		score INTEGER NOT NULL,
		argument TEXT NOT NULL,
		FOREIGN KEY (criterion_id) REFERENCES criteria(criterion_id) ON DELETE CASCADE
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_criteria_run ON criteria(run_id);
	CREATE INDEX IF NOT EXISTS idx_opinions_criterion ON opinions(criterion_id);
	CREATE INDEX IF NOT EXISTS idx_audits_created ON audits(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveAudit stores a full audit run, its criteria, and the judge opinions
// in a single transaction.
func (s *Store) SaveAudit(ctx context.Context, record audit.StoreAudit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO audits (run_id, repo_url, commit_hash, overall_score, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		record.RunID,
		record.RepoURL,
		record.CommitHash,
		record.OverallScore,
		record.CreatedAt.Unix(),
	); err != nil {
		return fmt.Errorf("failed to insert audit: %w", err)
	}

	for _, criterion := range record.Criteria {
		rules, err := json.Marshal(criterion.RulesFired)
		if err != nil {
			return fmt.Errorf("failed to encode rules: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO criteria (run_id, dimension_id, dimension_name, final_score, rules_fired, dissent, remediation)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			record.RunID,
			criterion.DimensionID,
			criterion.DimensionName,
			criterion.FinalScore,
			string(rules),
			criterion.DissentSummary,
			criterion.Remediation,
		)
		if err != nil {
			return fmt.Errorf("failed to insert criterion: %w", err)
		}

		criterionID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get criterion ID: %w", err)
		}

		for _, opinion := range criterion.JudgeOpinions {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO opinions (criterion_id, judge, score, argument)
				VALUES (?, ?, ?, ?)
			`,
				criterionID,
				string(opinion.Judge),
				opinion.Score,
				opinion.Argument,
			); err != nil {
				return fmt.Errorf("failed to insert opinion: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetAudit retrieves a stored audit with its criteria and opinions.
func (s *Store) GetAudit(ctx context.Context, runID string) (audit.StoreAudit, error) {
	var record audit.StoreAudit
	var createdAt int64

	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, repo_url, commit_hash, overall_score, created_at
		FROM audits
		WHERE run_id = ?
	`, runID).Scan(
		&record.RunID,
		&record.RepoURL,
		&record.CommitHash,
		&record.OverallScore,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return audit.StoreAudit{}, fmt.Errorf("audit not found: %s", runID)
		}
		return audit.StoreAudit{}, fmt.Errorf("failed to get audit: %w", err)
	}
	record.CreatedAt = time.Unix(createdAt, 0)

	criteria, err := s.criteriaForRun(ctx, runID)
	if err != nil {
		return audit.StoreAudit{}, err
	}
	record.Criteria = criteria

	return record, nil
}

func (s *Store) criteriaForRun(ctx context.Context, runID string) ([]domain.CriterionResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT criterion_id, dimension_id, dimension_name, final_score, rules_fired, dissent, remediation
		FROM criteria
		WHERE run_id = ?
		ORDER BY criterion_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get criteria: %w", err)
	}
	defer rows.Close()

	var criteria []domain.CriterionResult
	var rowIDs []int64
	for rows.Next() {
		var criterion domain.CriterionResult
		var rowID int64
		var rules string

		if err := rows.Scan(
			&rowID,
			&criterion.DimensionID,
			&criterion.DimensionName,
			&criterion.FinalScore,
			&rules,
			&criterion.DissentSummary,
			&criterion.Remediation,
		); err != nil {
			return nil, fmt.Errorf("failed to scan criterion: %w", err)
		}

		if err := json.Unmarshal([]byte(rules), &criterion.RulesFired); err != nil {
			return nil, fmt.Errorf("failed to decode rules: %w", err)
		}

		criteria = append(criteria, criterion)
		rowIDs = append(rowIDs, rowID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating criteria: %w", err)
	}

	for i, rowID := range rowIDs {
		opinions, err := s.opinionsForCriterion(ctx, rowID, criteria[i].DimensionID)
		if err != nil {
			return nil, err
		}
		criteria[i].JudgeOpinions = opinions
	}

	return criteria, nil
}

func (s *Store) opinionsForCriterion(ctx context.Context, criterionID int64, dimensionID string) ([]domain.JudicialOpinion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT judge, score, argument
		FROM opinions
		WHERE criterion_id = ?
		ORDER BY opinion_id ASC
	`, criterionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get opinions: %w", err)
	}
	defer rows.Close()

	var opinions []domain.JudicialOpinion
	for rows.Next() {
		var opinion domain.JudicialOpinion
		var judge string

		if err := rows.Scan(&judge, &opinion.Score, &opinion.Argument); err != nil {
			return nil, fmt.Errorf("failed to scan opinion: %w", err)
		}
		opinion.Judge = domain.Persona(judge)
		opinion.CriterionID = dimensionID
		opinions = append(opinions, opinion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opinions: %w", err)
	}

	return opinions, nil
}

// AuditSummary is a single row in the audit history listing.
type AuditSummary struct {
	RunID        string
	RepoURL      string
	CommitHash   string
	OverallScore float64
	CreatedAt    time.Time
}

// ListAudits retrieves the most recent audits, limited by the given count.
func (s *Store) ListAudits(ctx context.Context, limit int) ([]AuditSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, repo_url, commit_hash, overall_score, created_at
		FROM audits
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	defer rows.Close()

	var summaries []AuditSummary
	for rows.Next() {
		var summary AuditSummary
		var createdAt int64

		if err := rows.Scan(
			&summary.RunID,
			&summary.RepoURL,
			&summary.CommitHash,
			&summary.OverallScore,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}

		summary.CreatedAt = time.Unix(createdAt, 0)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audits: %w", err)
	}

	return summaries, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
