package storage

import (
	"context"
	"fmt"

	"sceneflow/internal/models"
)

type ExtractionJobRepo struct {
	db *DB
}

func NewExtractionJobRepo(db *DB) *ExtractionJobRepo {
	return &ExtractionJobRepo{db: db}
}

func (r *ExtractionJobRepo) CreateJob(ctx context.Context, j models.ExtractionJob) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO extraction_jobs (job_id, project_id, filename, format, status)
VALUES ($1, $2, $3, $4, $5)`,
		j.JobID, j.ProjectID, j.Filename, j.Format, j.Status)
	if err != nil {
		return fmt.Errorf("insert extraction job: %w", err)
	}
	return nil
}

func (r *ExtractionJobRepo) GetJob(ctx context.Context, jobID string) (models.ExtractionJob, error) {
	var j models.ExtractionJob
	err := r.db.Pool.QueryRow(ctx, `
SELECT job_id::text, project_id::text, filename, format, status, attempts,
       COALESCE(extracted_text,''), COALESCE(estimated_scene_count,0), COALESCE(fail_reason,''), created_at, updated_at
FROM extraction_jobs
WHERE job_id=$1`, jobID).
		Scan(&j.JobID, &j.ProjectID, &j.Filename, &j.Format, &j.Status, &j.Attempts, &j.ExtractedText, &j.EstimatedSceneCount, &j.FailReason, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return models.ExtractionJob{}, fmt.Errorf("get extraction job: %w", err)
	}
	return j, nil
}

// MarkActive records a processing attempt. Attempts only move forward so a
// requeued attempt never rewinds the counter.
func (r *ExtractionJobRepo) MarkActive(ctx context.Context, jobID string, attempt int) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE extraction_jobs
SET status=$2, attempts=GREATEST(attempts, $3), updated_at=NOW()
WHERE job_id=$1`,
		jobID, models.JobActive, attempt)
	if err != nil {
		return fmt.Errorf("mark job active: %w", err)
	}
	return nil
}

func (r *ExtractionJobRepo) MarkCompleted(ctx context.Context, jobID, extractedText string, estimatedSceneCount int) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE extraction_jobs
SET status=$2, extracted_text=$3, estimated_scene_count=$4, fail_reason=NULL, updated_at=NOW()
WHERE job_id=$1`,
		jobID, models.JobCompleted, extractedText, estimatedSceneCount)
	if err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	return nil
}

func (r *ExtractionJobRepo) MarkFailed(ctx context.Context, jobID, reason string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE extraction_jobs
SET status=$2, fail_reason=NULLIF($3,''), updated_at=NOW()
WHERE job_id=$1`,
		jobID, models.JobFailed, reason)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return nil
}
