package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sceneflow/internal/analysis"
	"sceneflow/internal/config"
	"sceneflow/internal/models"
	"sceneflow/internal/progress"
	"sceneflow/internal/screenplay"
	"sceneflow/internal/storage"
	"sceneflow/internal/util"
	"sceneflow/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg         config.Config
	db          *storage.DB
	projectRepo *storage.ProjectRepo
	sceneRepo   *storage.SceneRepo
	jobRepo     *storage.ExtractionJobRepo
	ledgerRepo  *storage.LedgerRepo
	providers   *analysis.Manager
	temporal    tclient.Client
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	pm, err := analysis.NewManager(cfg.AnalysisProviders)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	return &Server{
		cfg:         cfg,
		db:          db,
		projectRepo: storage.NewProjectRepo(db),
		sceneRepo:   storage.NewSceneRepo(db),
		jobRepo:     storage.NewExtractionJobRepo(db),
		ledgerRepo:  storage.NewLedgerRepo(db),
		providers:   pm,
		temporal:    tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/projects", s.handleProjects)
	mux.HandleFunc("/projects/", s.handleProjectsScoped)
	mux.HandleFunc("/jobs/", s.handleJobs)
	mux.HandleFunc("/accounts/", s.handleAccountsScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		AccountID   string `json:"account_id"`
		Title       string `json:"title"`
		VisualStyle string `json:"visual_style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.AccountID = strings.TrimSpace(req.AccountID)
	req.Title = strings.TrimSpace(req.Title)
	if req.AccountID == "" || req.Title == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("account_id and title are required"))
		return
	}

	projectID := uuid.NewString()
	p := models.Project{
		ProjectID:   projectID,
		AccountID:   req.AccountID,
		Title:       req.Title,
		VisualStyle: strings.TrimSpace(req.VisualStyle),
		Status:      models.ProjectPending,
	}
	if err := s.projectRepo.CreateProject(r.Context(), p); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if err := util.EnsureDir(filepath.Join(s.cfg.DataInRoot, projectID)); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if err := util.EnsureDir(filepath.Join(s.cfg.DataOutRoot, projectID)); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"project_id": projectID, "title": req.Title, "status": p.Status,
	})
}

func (s *Server) handleProjectsScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/projects/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	projectID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		p, err := s.projectRepo.GetProject(r.Context(), projectID)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	}

	if len(parts) == 2 && parts[1] == "scenes" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		scenes, err := s.sceneRepo.ListScenes(r.Context(), projectID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"scenes": scenes})
		return
	}

	if len(parts) == 2 && parts[1] == "script" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleScriptUpload(w, r, projectID)
		return
	}

	if len(parts) == 2 && parts[1] == "analyze" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleAnalyze(w, r, projectID)
		return
	}

	if len(parts) == 2 && parts[1] == "progress" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleProgress(w, r, projectID)
		return
	}

	if len(parts) == 2 && parts[1] == "cancel" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		if err := s.temporal.SignalWorkflow(r.Context(), "analyze-"+projectID, "", workflows.CancelSignal, nil); err != nil {
			writeErr(w, http.StatusNotFound, fmt.Errorf("no running analysis for project: %w", err))
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"project_id": projectID, "canceling": true})
		return
	}

	if len(parts) == 4 && parts[1] == "scenes" && parts[3] == "retry" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		sceneNumber, err := strconv.Atoi(parts[2])
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid scene number"))
			return
		}
		s.handleSceneRetry(w, r, projectID, sceneNumber)
		return
	}

	writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
}

func (s *Server) handleScriptUpload(w http.ResponseWriter, r *http.Request, projectID string) {
	if _, err := s.projectRepo.GetProject(r.Context(), projectID); err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}

	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	fh, ok := scriptFile(r.MultipartForm.File)
	if !ok {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no file provided"))
		return
	}

	src, err := fh.Open()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("open upload: %w", err))
		return
	}
	data, err := io.ReadAll(src)
	_ = src.Close()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("read upload: %w", err))
		return
	}

	warnings, err := screenplay.ValidateUpload(data, fh.Filename)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	format, err := screenplay.FormatForFilename(fh.Filename)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	uploadSHA := util.SHA256Hex(data)
	inDir := filepath.Join(s.cfg.DataInRoot, projectID)
	if err := util.EnsureDir(inDir); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	savedPath := util.SafeJoin(inDir, fh.Filename)
	if err := saveUploadedBytes(savedPath, data); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.projectRepo.SetUpload(r.Context(), projectID, filepath.Base(savedPath), string(format)); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	if format.Heavy() {
		jobID := uuid.NewString()
		if err := s.jobRepo.CreateJob(r.Context(), models.ExtractionJob{
			JobID:     jobID,
			ProjectID: projectID,
			Filename:  filepath.Base(savedPath),
			Format:    string(format),
			Status:    models.JobQueued,
		}); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
			ID:                                       "ingest-" + jobID,
			TaskQueue:                                s.cfg.TemporalTaskQueue,
			WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
			WorkflowExecutionErrorWhenAlreadyStarted: true,
		}, workflows.ScriptIngestWorkflow, workflows.ScriptIngestInput{
			ProjectID: projectID,
			JobID:     jobID,
			Path:      savedPath,
			Format:    string(format),
		})
		if err != nil {
			writeErr(w, http.StatusConflict, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"job_id":      jobID,
			"workflow_id": we.GetID(),
			"sha256":      uploadSHA,
			"warnings":    warnings,
		})
		return
	}

	// Light formats parse in-request; the scene list comes back immediately.
	blocks, err := screenplay.Parse(data, format)
	if err != nil {
		writeParseErr(w, err)
		return
	}
	scenes := make([]models.Scene, 0, len(blocks))
	for _, b := range blocks {
		scenes = append(scenes, models.Scene{
			SceneID:     uuid.NewString(),
			ProjectID:   projectID,
			SceneNumber: b.SceneNumber,
			Header:      b.Header,
			RawText:     b.Text,
			Status:      models.ScenePending,
		})
	}
	if err := s.sceneRepo.ReplaceScenes(r.Context(), projectID, scenes); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.projectRepo.UpdateStatus(r.Context(), projectID, models.ProjectReady, ""); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project_id":   projectID,
		"total_scenes": len(scenes),
		"scenes":       scenes,
		"sha256":       uploadSHA,
		"warnings":     warnings,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request, projectID string) {
	var req struct {
		AutoRetry          *bool  `json:"auto_retry"`
		CustomInstructions string `json:"custom_instructions"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
	}
	autoRetry := true
	if req.AutoRetry != nil {
		autoRetry = *req.AutoRetry
	}

	p, err := s.projectRepo.GetProject(r.Context(), projectID)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if p.TotalScenes == 0 {
		writeErr(w, http.StatusConflict, fmt.Errorf("project has no parsed scenes yet"))
		return
	}

	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                                       "analyze-" + projectID,
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.SceneAnalysisWorkflow, workflows.AnalyzeInput{
		ProjectID:          projectID,
		AccountID:          p.AccountID,
		VisualStyle:        p.VisualStyle,
		CustomInstructions: strings.TrimSpace(req.CustomInstructions),
		AutoRetry:          autoRetry,
		ProviderCount:      s.providers.Count(),
		TimeoutSecs:        s.cfg.AnalysisTimeoutSecs,
	})
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"workflow_id": we.GetID(), "run_id": we.GetRunID(),
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request, projectID string) {
	var snap progress.Snapshot
	resp, err := s.temporal.QueryWorkflow(r.Context(), "analyze-"+projectID, "", workflows.ProgressQuery)
	if err == nil {
		if err := resp.Get(&snap); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
		return
	}
	// Fallback to DB-derived progress when no workflow is running.
	scenes, dbErr := s.sceneRepo.ListScenes(r.Context(), projectID)
	if dbErr != nil {
		writeErr(w, http.StatusInternalServerError, dbErr)
		return
	}
	writeJSON(w, http.StatusOK, progress.Derive(scenes))
}

func (s *Server) handleSceneRetry(w http.ResponseWriter, r *http.Request, projectID string, sceneNumber int) {
	var req struct {
		CustomInstructions string `json:"custom_instructions"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
	}

	p, err := s.projectRepo.GetProject(r.Context(), projectID)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	sc, err := s.sceneRepo.GetScene(r.Context(), projectID, sceneNumber)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if sc.Status != models.SceneError {
		writeErr(w, http.StatusConflict, fmt.Errorf("scene is %s, only ERROR scenes can be retried", sc.Status))
		return
	}
	if sc.RetryCount >= s.cfg.SceneMaxAttempts {
		writeErr(w, http.StatusConflict, fmt.Errorf("scene reached the attempt limit"))
		return
	}

	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                                       fmt.Sprintf("retry-%s-%d", projectID, sceneNumber),
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.SceneRetryWorkflow, workflows.SceneRetryInput{
		ProjectID:          projectID,
		AccountID:          p.AccountID,
		SceneNumber:        sceneNumber,
		VisualStyle:        p.VisualStyle,
		CustomInstructions: strings.TrimSpace(req.CustomInstructions),
		ProviderCount:      s.providers.Count(),
		TimeoutSecs:        s.cfg.AnalysisTimeoutSecs,
	})
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"workflow_id": we.GetID(), "run_id": we.GetRunID(),
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	jobID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/jobs/"), "/")
	if jobID == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	j, err := s.jobRepo.GetJob(r.Context(), jobID)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleAccountsScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/accounts/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	accountID := parts[0]

	switch parts[1] {
	case "balance":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		account, err := s.ledgerRepo.GetAccount(r.Context(), accountID)
		if err != nil {
			if errors.Is(err, storage.ErrAccountNotFound) {
				writeErr(w, http.StatusNotFound, err)
				return
			}
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, account)
	case "credits":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		var req struct {
			Amount int64  `json:"amount"`
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		if req.Amount <= 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("amount must be positive"))
			return
		}
		bal, err := s.ledgerRepo.Credit(r.Context(), accountID, req.Amount, strings.TrimSpace(req.Reason))
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"account_id": accountID, "balance": bal})
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

func writeParseErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, screenplay.ErrEmptyDocument),
		errors.Is(err, screenplay.ErrUnrecognizedFormat):
		writeErr(w, http.StatusBadRequest, err)
	case screenplay.IsMalformed(err):
		writeErr(w, http.StatusUnprocessableEntity, err)
	default:
		writeErr(w, http.StatusInternalServerError, err)
	}
}

func scriptFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	if files := m["file"]; len(files) > 0 {
		return files[0], true
	}
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

func saveUploadedBytes(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("atomic move upload: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "SF-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "SF-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "SF-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "SF-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "SF-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "SF-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "SF-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "SF-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusUnprocessableEntity:
		code = "SF-API-4022"
		msg = "The screenplay could not be parsed. Check the document structure."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "account_id and title are required"):
			msg = "Both account and title are required."
		case strings.Contains(raw, "no file provided"):
			msg = "No script file was provided."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(raw, "empty document"):
			msg = "The uploaded document is empty."
		case strings.Contains(raw, "attempt limit"):
			msg = "This scene has reached the retry limit."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
