package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	JobPayrollGenerate = "payroll_generate"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type RunStore interface {
	CreateJobRun(ctx context.Context, tenantID, jobType string) (string, error)
	FinishJobRun(ctx context.Context, runID, status string, detailsJSON []byte) error
}

// Runner executes work inline and records each execution in job_runs.
// Recording failures are logged and never fail the job itself.
type Runner struct {
	store RunStore
}

func NewRunner(store RunStore) *Runner {
	return &Runner{store: store}
}

func (r *Runner) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	runID := ""
	if r != nil && r.store != nil {
		id, err := r.store.CreateJobRun(ctx, tenantID, jobType)
		if err != nil {
			slog.Warn("job run insert failed", "jobType", jobType, "tenantId", tenantID, "err", err)
		}
		runID = id
	}

	details, err := run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]string{"error": err.Error()}
	}

	if runID != "" {
		detailsJSON, marshalErr := json.Marshal(details)
		if marshalErr != nil {
			slog.Warn("job details marshal failed", "jobType", jobType, "err", marshalErr)
			detailsJSON = []byte("{}")
		}
		if updErr := r.store.FinishJobRun(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "jobType", jobType, "runId", runID, "err", updErr)
		}
	}
	return details, err
}

type PGRunStore struct {
	DB *pgxpool.Pool
}

func NewPGRunStore(db *pgxpool.Pool) *PGRunStore {
	return &PGRunStore{DB: db}
}

func (s *PGRunStore) CreateJobRun(ctx context.Context, tenantID, jobType string) (string, error) {
	var runID string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, tenantID, jobType, StatusRunning).Scan(&runID)
	return runID, err
}

func (s *PGRunStore) FinishJobRun(ctx context.Context, runID, status string, detailsJSON []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID)
	return err
}
