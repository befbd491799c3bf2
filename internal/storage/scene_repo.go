package storage

import (
	"context"
	"fmt"

	"sceneflow/internal/models"
)

type SceneRepo struct {
	db *DB
}

func NewSceneRepo(db *DB) *SceneRepo {
	return &SceneRepo{db: db}
}

// ReplaceScenes removes any previous parse of the project and inserts the new
// ordered scene list. Re-parsing is idempotent, so a replace keeps scene
// numbers dense and 1-based.
func (r *SceneRepo) ReplaceScenes(ctx context.Context, projectID string, scenes []models.Scene) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace scenes: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM scenes WHERE project_id=$1`, projectID); err != nil {
		return fmt.Errorf("clear scenes: %w", err)
	}
	for _, s := range scenes {
		if _, err := tx.Exec(ctx, `
INSERT INTO scenes (scene_id, project_id, scene_number, header, raw_text, status)
VALUES ($1, $2, $3, $4, $5, $6)`,
			s.SceneID, projectID, s.SceneNumber, s.Header, s.RawText, s.Status); err != nil {
			return fmt.Errorf("insert scene %d: %w", s.SceneNumber, err)
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE projects SET total_scenes=$2, updated_at=NOW() WHERE project_id=$1`, projectID, len(scenes)); err != nil {
		return fmt.Errorf("update project scene count: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace scenes: %w", err)
	}
	return nil
}

func (r *SceneRepo) ListScenes(ctx context.Context, projectID string) ([]models.Scene, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT scene_id::text, project_id::text, scene_number, header, raw_text, status, retry_count,
       analysis, COALESCE(fail_reason,''), started_at, completed_at
FROM scenes
WHERE project_id=$1
ORDER BY scene_number ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	out := make([]models.Scene, 0)
	for rows.Next() {
		var s models.Scene
		if err := rows.Scan(&s.SceneID, &s.ProjectID, &s.SceneNumber, &s.Header, &s.RawText, &s.Status, &s.RetryCount, &s.Analysis, &s.FailReason, &s.StartedAt, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenes: %w", err)
	}
	return out, nil
}

func (r *SceneRepo) GetScene(ctx context.Context, projectID string, sceneNumber int) (models.Scene, error) {
	var s models.Scene
	err := r.db.Pool.QueryRow(ctx, `
SELECT scene_id::text, project_id::text, scene_number, header, raw_text, status, retry_count,
       analysis, COALESCE(fail_reason,''), started_at, completed_at
FROM scenes
WHERE project_id=$1 AND scene_number=$2`, projectID, sceneNumber).
		Scan(&s.SceneID, &s.ProjectID, &s.SceneNumber, &s.Header, &s.RawText, &s.Status, &s.RetryCount, &s.Analysis, &s.FailReason, &s.StartedAt, &s.CompletedAt)
	if err != nil {
		return models.Scene{}, fmt.Errorf("get scene: %w", err)
	}
	return s, nil
}

// BeginScene transitions a scene to ANALYZING and stamps the attempt start.
func (r *SceneRepo) BeginScene(ctx context.Context, projectID string, sceneNumber int) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE scenes SET status=$3, started_at=NOW(), fail_reason=NULL
WHERE project_id=$1 AND scene_number=$2`,
		projectID, sceneNumber, models.SceneAnalyzing)
	if err != nil {
		return fmt.Errorf("begin scene: %w", err)
	}
	return nil
}

// CompleteScene stores the validated analysis and stamps completion.
func (r *SceneRepo) CompleteScene(ctx context.Context, projectID string, sceneNumber int, analysis []byte) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE scenes SET status=$3, analysis=$4, completed_at=NOW(), fail_reason=NULL
WHERE project_id=$1 AND scene_number=$2`,
		projectID, sceneNumber, models.SceneCompleted, analysis)
	if err != nil {
		return fmt.Errorf("complete scene: %w", err)
	}
	return nil
}

// SkipScene marks a below-threshold scene SKIPPED with the canonical empty
// payload. Skipped scenes carry no billable analysis.
func (r *SceneRepo) SkipScene(ctx context.Context, projectID string, sceneNumber int, payload []byte, reason string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE scenes SET status=$3, analysis=$4, fail_reason=NULLIF($5,'')
WHERE project_id=$1 AND scene_number=$2`,
		projectID, sceneNumber, models.SceneSkipped, payload, reason)
	if err != nil {
		return fmt.Errorf("skip scene: %w", err)
	}
	return nil
}

// RecordFailure increments the retry counter (never past 3) and moves the
// scene to ERROR with a null analysis. A later BeginScene clears the reason
// when an attempt remains.
func (r *SceneRepo) RecordFailure(ctx context.Context, projectID string, sceneNumber int, reason string) (int, error) {
	var retry int
	err := r.db.Pool.QueryRow(ctx, `
UPDATE scenes
SET retry_count = LEAST(retry_count + 1, 3),
    status = $3,
    analysis = NULL,
    fail_reason = $4
WHERE project_id=$1 AND scene_number=$2
RETURNING retry_count`,
		projectID, sceneNumber, models.SceneError, reason).Scan(&retry)
	if err != nil {
		return 0, fmt.Errorf("record scene failure: %w", err)
	}
	return retry, nil
}
