package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the status of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one pipeline execution: a repository plus a change request.
type Run struct {
	ID         string     `json:"id"`
	RepoURL    string     `json:"repo_url"`
	Prompt     string     `json:"prompt"`
	Branch     string     `json:"branch"`
	PRURL      string     `json:"pr_url"`
	Status     RunStatus  `json:"status"`
	Feedback   string     `json:"feedback"`
	Iterations int        `json:"iterations"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// CreateRun records a new run in the running state and returns it.
func (db *DB) CreateRun(repoURL, prompt string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		RepoURL:   repoURL,
		Prompt:    prompt,
		Status:    RunRunning,
		CreatedAt: time.Now().UTC(),
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec(
		`INSERT INTO runs (id, repo_url, prompt, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.RepoURL, run.Prompt, run.Status, run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun records the terminal state of a run.
func (db *DB) FinishRun(id string, status RunStatus, branch, prURL, feedback string, iterations int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.Exec(
		`UPDATE runs SET status = ?, branch = ?, pr_url = ?, feedback = ?, iterations = ?, finished_at = ? WHERE id = ?`,
		status, branch, prURL, feedback, iterations, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// GetRun fetches a run by ID.
func (db *DB) GetRun(id string) (*Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRow(
		`SELECT id, repo_url, prompt, COALESCE(branch, ''), COALESCE(pr_url, ''), status,
			COALESCE(feedback, ''), iterations, created_at, finished_at
		 FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(
		`SELECT id, repo_url, prompt, COALESCE(branch, ''), COALESCE(pr_url, ''), status,
			COALESCE(feedback, ''), iterations, created_at, finished_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var finished sql.NullTime
	err := s.Scan(
		&run.ID, &run.RepoURL, &run.Prompt, &run.Branch, &run.PRURL,
		&run.Status, &run.Feedback, &run.Iterations, &run.CreatedAt, &finished,
	)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}
