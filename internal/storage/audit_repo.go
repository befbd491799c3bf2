package storage

import (
	"context"
	"fmt"
)

// AnalysisCallRecord is one row in the analysis-call audit trail: every call
// to the external service, successful or not, is recorded with its outcome.
type AnalysisCallRecord struct {
	ProjectID    string
	SceneNumber  int
	Attempt      int
	ProviderName string
	Model        string
	Status       string
	ErrorType    string
	ErrorDetail  string
}

type AnalysisAuditRepo struct {
	db *DB
}

func NewAnalysisAuditRepo(db *DB) *AnalysisAuditRepo {
	return &AnalysisAuditRepo{db: db}
}

func (r *AnalysisAuditRepo) Insert(ctx context.Context, rec AnalysisCallRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO analysis_calls (project_id, scene_number, attempt, provider_name, model, status, error_type, error_detail)
VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), $6, NULLIF($7,''), NULLIF($8,''))`,
		rec.ProjectID, rec.SceneNumber, rec.Attempt, rec.ProviderName, rec.Model, rec.Status, rec.ErrorType, rec.ErrorDetail)
	if err != nil {
		return fmt.Errorf("insert analysis call: %w", err)
	}
	return nil
}
