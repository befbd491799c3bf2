package storage

import (
	"context"
	"fmt"

	"sceneflow/internal/models"
)

type ProjectRepo struct {
	db *DB
}

func NewProjectRepo(db *DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) CreateProject(ctx context.Context, p models.Project) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO projects (project_id, account_id, title, filename, format, visual_style, status)
VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), $7)`,
		p.ProjectID, p.AccountID, p.Title, p.Filename, p.Format, p.VisualStyle, p.Status,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) GetProject(ctx context.Context, projectID string) (models.Project, error) {
	var p models.Project
	err := r.db.Pool.QueryRow(ctx, `
SELECT project_id::text, account_id, title, COALESCE(filename,''), COALESCE(format,''),
       COALESCE(visual_style,''), status, total_scenes, COALESCE(fail_reason,''), created_at, updated_at
FROM projects
WHERE project_id=$1`, projectID).
		Scan(&p.ProjectID, &p.AccountID, &p.Title, &p.Filename, &p.Format, &p.VisualStyle, &p.Status, &p.TotalScenes, &p.FailReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (r *ProjectRepo) UpdateStatus(ctx context.Context, projectID string, status models.ProjectStatus, failReason string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE projects SET status=$2, fail_reason=NULLIF($3,''), updated_at=NOW() WHERE project_id=$1`,
		projectID, status, failReason)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	return nil
}

func (r *ProjectRepo) SetUpload(ctx context.Context, projectID, filename, format string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE projects SET filename=$2, format=$3, updated_at=NOW() WHERE project_id=$1`,
		projectID, filename, format)
	if err != nil {
		return fmt.Errorf("set project upload: %w", err)
	}
	return nil
}
