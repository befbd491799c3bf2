package progress

import (
	"sceneflow/internal/models"
)

// DefaultSceneTimeMs is the per-scene estimate used before any scene has
// completed.
const DefaultSceneTimeMs = 90000

// Snapshot is the derived project-level progress. It is computed on demand
// from the scene collection and never stored.
type Snapshot struct {
	TotalScenes        int     `json:"total_scenes"`
	CompletedCount     int     `json:"completed_count"`
	ErrorCount         int     `json:"error_count"`
	SkippedCount       int     `json:"skipped_count"`
	ProgressPercent    float64 `json:"progress_percent"`
	Remaining          int     `json:"remaining"`
	AverageSceneTimeMs int64   `json:"average_scene_time_ms"`
	EtaMs              int64   `json:"eta_ms"`
}

// Derive computes a Snapshot from the current scene statuses. Percent counts
// COMPLETED and ERROR scenes; the ETA multiplies the scenes still awaiting a
// terminal state by the rolling average duration of completed scenes.
func Derive(scenes []models.Scene) Snapshot {
	s := Snapshot{TotalScenes: len(scenes)}
	var totalMs int64
	for _, sc := range scenes {
		switch sc.Status {
		case models.SceneCompleted:
			s.CompletedCount++
			if sc.StartedAt != nil && sc.CompletedAt != nil {
				totalMs += sc.CompletedAt.Sub(*sc.StartedAt).Milliseconds()
			}
		case models.SceneError:
			s.ErrorCount++
		case models.SceneSkipped:
			s.SkippedCount++
		}
	}
	s.AverageSceneTimeMs = DefaultSceneTimeMs
	if s.CompletedCount > 0 && totalMs > 0 {
		s.AverageSceneTimeMs = totalMs / int64(s.CompletedCount)
	}
	if s.TotalScenes == 0 {
		return s
	}
	s.ProgressPercent = 100 * float64(s.CompletedCount+s.ErrorCount) / float64(s.TotalScenes)
	s.Remaining = s.TotalScenes - s.CompletedCount - s.ErrorCount - s.SkippedCount
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	s.EtaMs = int64(s.Remaining) * s.AverageSceneTimeMs
	return s
}
