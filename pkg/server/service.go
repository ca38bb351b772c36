package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mikeboe/research-agent/pkg/agent"
	"github.com/mikeboe/research-agent/pkg/chains"
	"github.com/mikeboe/research-agent/pkg/clients"
	"github.com/mikeboe/research-agent/pkg/config"
	"github.com/mikeboe/research-agent/pkg/database"
	"github.com/mikeboe/research-agent/pkg/tools"
)

type Service struct {
	DB  *database.PostgresDB
	Cfg *config.Config
}

func NewService(db *database.PostgresDB, cfg *config.Config) *Service {
	return &Service{DB: db, Cfg: cfg}
}

type Job struct {
	ID         uuid.UUID       `json:"id"`
	Topic      string          `json:"topic"`
	Depth      string          `json:"depth"`
	MaxSources int             `json:"max_sources"`
	Status     string          `json:"status"`
	Report     *string         `json:"report,omitempty"`
	State      json.RawMessage `json:"state,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CreateJobRequest is the HTTP contract for starting a research run.
// Validation lives here, at the driver boundary; the pipeline does not
// re-validate.
type CreateJobRequest struct {
	Topic      string `json:"topic" binding:"required,min=3,max=500"`
	Depth      string `json:"depth" binding:"omitempty,oneof=quick standard detailed"`
	MaxSources int    `json:"max_sources" binding:"omitempty,gte=1,lte=20"`
}

func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error) {
	if req.Depth == "" {
		req.Depth = agent.DepthStandard
	}
	if req.MaxSources == 0 {
		req.MaxSources = 5
	}

	jobID := uuid.New()
	query := `
		INSERT INTO research_jobs (id, topic, depth, max_sources, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING id, topic, depth, max_sources, status, created_at, updated_at
	`

	job := &Job{}
	err := s.DB.Pool.QueryRow(ctx, query, jobID, req.Topic, req.Depth, req.MaxSources).Scan(
		&job.ID, &job.Topic, &job.Depth, &job.MaxSources, &job.Status, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	// Start background worker
	go s.runWorker(job.ID, req.Topic, req.Depth, req.MaxSources)

	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `
		SELECT id, topic, depth, max_sources, status, report, state, created_at, updated_at
		FROM research_jobs
		WHERE id = $1
	`
	job := &Job{}
	err := s.DB.Pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.Topic, &job.Depth, &job.MaxSources, &job.Status, &job.Report, &job.State, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (s *Service) ListJobs(ctx context.Context) ([]Job, error) {
	query := `
		SELECT id, topic, depth, max_sources, status, report, created_at, updated_at
		FROM research_jobs
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := s.DB.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.Topic, &job.Depth, &job.MaxSources, &job.Status, &job.Report, &job.CreatedAt, &job.UpdatedAt); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (s *Service) GetJobLogs(ctx context.Context, jobID uuid.UUID) ([]LogEntry, error) {
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM research_logs
		WHERE job_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// runWorker executes one research pipeline in the background and persists
// its progress and terminal state.
func (s *Service) runWorker(jobID uuid.UUID, topic, depth string, maxSources int) {
	ctx := context.Background()

	_, _ = s.DB.Pool.Exec(ctx, "UPDATE research_jobs SET status = 'running', updated_at = NOW() WHERE id = $1", jobID)

	dbLogger := slog.New(NewDBLogHandler(s.DB, jobID))

	pipeline, err := s.buildPipeline(ctx, dbLogger)
	if err != nil {
		s.failJob(ctx, jobID, fmt.Sprintf("failed to init pipeline: %v", err))
		return
	}

	// Persist state after every stage merge.
	pipeline.OnStateUpdate = func(state agent.State) {
		stateJSON, err := json.Marshal(state)
		if err != nil {
			dbLogger.Error("failed to marshal state", "error", err)
			return
		}
		_, err = s.DB.Pool.Exec(context.Background(),
			"UPDATE research_jobs SET state = $2, updated_at = NOW() WHERE id = $1",
			jobID, stateJSON)
		if err != nil {
			dbLogger.Error("failed to save state", "error", err)
		}
	}

	state := agent.NewState(topic, depth, maxSources)
	pipeline.Run(ctx, state)

	if state.CurrentStep != agent.StepCompleted {
		s.failJob(ctx, jobID, state.Error)
		return
	}

	_, err = s.DB.Pool.Exec(ctx,
		"UPDATE research_jobs SET status = 'completed', report = $2, updated_at = NOW() WHERE id = $1",
		jobID, state.FinalReport)
	if err != nil {
		dbLogger.Error("failed to save final report", "error", err)
	}
}

// buildPipeline wires the five capabilities into a pipeline.
func (s *Service) buildPipeline(ctx context.Context, logger *slog.Logger) (*agent.Pipeline, error) {
	llm, err := clients.GoogleAI(ctx, s.Cfg.GoogleAPIKey, clients.ModelType(s.Cfg.Model))
	if err != nil {
		return nil, err
	}

	nodes := agent.NewNodes(
		chains.NewPlanningChain(llm),
		tools.NewTavilySearch(s.Cfg.TavilyAPIKey, logger),
		tools.NewWebScraper(s.Cfg.ScrapeTimeout()),
		chains.NewSummaryChain(llm),
		chains.NewReportChain(llm),
		s.Cfg.Tuning(),
		logger,
	)
	return agent.NewPipeline(nodes, logger), nil
}

func (s *Service) failJob(ctx context.Context, jobID uuid.UUID, reason string) {
	dbLogger := slog.New(NewDBLogHandler(s.DB, jobID))
	dbLogger.Error(reason)

	_, _ = s.DB.Pool.Exec(ctx, "UPDATE research_jobs SET status = 'failed', updated_at = NOW() WHERE id = $1", jobID)
}
