package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edunest/tutorhub-api/internal/models"
	appErrors "github.com/edunest/tutorhub-api/pkg/errors"
	"github.com/edunest/tutorhub-api/pkg/export"
	"github.com/edunest/tutorhub-api/pkg/jobs"
)

type reportJobRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	List(ctx context.Context, limit int) ([]models.ReportJob, error)
	SetStatus(ctx context.Context, id string, status models.ReportStatus, progress int) error
	MarkFinished(ctx context.Context, id, resultURL string) error
	MarkFailed(ctx context.Context, id, message string) error
}

type reportDataRepository interface {
	RosterRows(ctx context.Context, params models.ReportJobParams) ([]models.EnrollmentDetail, error)
	MeetingRows(ctx context.Context, params models.ReportJobParams) ([]models.MeetingDetail, error)
	SubmissionRows(ctx context.Context, params models.ReportJobParams) ([]models.StudentSubmissionRow, error)
}

type artifactStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type urlSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string) (jobID, relPath string, expiresAt time.Time, err error)
}

type reportJobRecorder interface {
	RecordReportJob(status string)
}

// CreateReportRequest queues an asynchronous report export.
type CreateReportRequest struct {
	Type      models.ReportType   `json:"type" validate:"required,oneof=roster assignment_stats meetings"`
	Format    models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	ProgramID *string             `json:"program_id,omitempty"`
	SectionID *string             `json:"section_id,omitempty"`
}

// ReportServiceConfig tunes the background worker pool.
type ReportServiceConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	DownloadBasePath  string
}

// ReportService generates report artifacts asynchronously: jobs are queued,
// rendered by a worker pool, stored on disk and exposed through signed
// download tokens.
type ReportService struct {
	repo      reportJobRepository
	data      reportDataRepository
	store     artifactStore
	signer    urlSigner
	metrics   reportJobRecorder
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	queue     *jobs.Queue
	basePath  string
	validator *validator.Validate
	logger    *zap.Logger
	clock     func() time.Time
}

// NewReportService constructs ReportService and its worker queue. Start must
// be called before Generate.
func NewReportService(repo reportJobRepository, data reportDataRepository, store artifactStore, signer urlSigner, metrics reportJobRecorder, cfg ReportServiceConfig, validate *validator.Validate, logger *zap.Logger, clock func() time.Time) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.DownloadBasePath == "" {
		cfg.DownloadBasePath = "/api/v1/export"
	}
	s := &ReportService{
		repo:      repo,
		data:      data,
		store:     store,
		signer:    signer,
		metrics:   metrics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		basePath:  cfg.DownloadBasePath,
		validator: validate,
		logger:    logger,
		clock:     clock,
	}
	s.queue = jobs.NewQueue("reports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the report workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the report workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Generate persists a queued job and hands it to the worker pool.
func (s *ReportService) Generate(ctx context.Context, req CreateReportRequest) (*models.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}
	job := &models.ReportJob{
		Type: req.Type,
		Params: models.ReportJobParams{
			ProgramID: req.ProgramID,
			SectionID: req.SectionID,
			Format:    req.Format,
		},
		Status: models.ReportStatusQueued,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		_ = s.repo.MarkFailed(ctx, job.ID, "worker queue unavailable")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	s.logger.Sugar().Infow("report queued", "job_id", job.ID, "type", job.Type, "format", req.Format)
	return job, nil
}

// Status returns the current state of a report job.
func (s *ReportService) Status(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	return job, nil
}

// List returns recent report jobs, newest first.
func (s *ReportService) List(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	jobsList, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	return jobsList, nil
}

// Download resolves a signed token to the finished artifact.
func (s *ReportService) Download(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "report is not finished")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report artifact")
	}
	return file, filepath.Base(relPath), nil
}

func (s *ReportService) process(ctx context.Context, j jobs.Job) error {
	job, err := s.repo.FindByID(ctx, j.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", j.ID, err)
	}
	if err := s.repo.SetStatus(ctx, job.ID, models.ReportStatusProcessing, 10); err != nil {
		return fmt.Errorf("mark report job processing: %w", err)
	}

	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}
	_ = s.repo.SetStatus(ctx, job.ID, models.ReportStatusProcessing, 60)

	var payload []byte
	ext := "csv"
	switch job.Params.Format {
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		ext = "pdf"
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	relPath := fmt.Sprintf("%s/%s.%s", job.Type, job.ID, ext)
	if _, err := s.store.Save(relPath, payload); err != nil {
		return s.fail(ctx, job.ID, err)
	}
	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	resultURL := path.Join(s.basePath, token)
	if err := s.repo.MarkFinished(ctx, job.ID, resultURL); err != nil {
		return fmt.Errorf("mark report job finished: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordReportJob(string(models.ReportStatusFinished))
	}
	s.logger.Sugar().Infow("report finished", "job_id", job.ID, "path", relPath)
	return nil
}

func (s *ReportService) fail(ctx context.Context, jobID string, cause error) error {
	if err := s.repo.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		s.logger.Sugar().Errorw("failed to mark report job failed", "job_id", jobID, "error", err)
	}
	if s.metrics != nil {
		s.metrics.RecordReportJob(string(models.ReportStatusFailed))
	}
	return fmt.Errorf("report job %s: %w", jobID, cause)
}

func (s *ReportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeRoster:
		return s.rosterDataset(ctx, job.Params)
	case models.ReportTypeAssignmentStats:
		return s.statsDataset(ctx, job.Params)
	case models.ReportTypeMeetings:
		return s.meetingsDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unknown report type %q", job.Type)
	}
}

func (s *ReportService) rosterDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	rows, err := s.data.RosterRows(ctx, params)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load roster rows: %w", err)
	}
	now := s.clock()
	dataset := export.Dataset{
		Headers: []string{"Student", "Program", "Section", "Status", "Meetings Remaining", "Days Remaining"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":            row.StudentName,
			"Program":            row.ProgramName,
			"Section":            row.SectionLabel,
			"Status":             string(row.Status),
			"Meetings Remaining": strconv.Itoa(row.MeetingsRemaining),
			"Days Remaining":     strconv.Itoa(DaysRemaining(row.ExpiryDate, now)),
		})
	}
	return dataset, "Enrollment Roster", nil
}

func (s *ReportService) meetingsDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	rows, err := s.data.MeetingRows(ctx, params)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load meeting rows: %w", err)
	}
	dataset := export.Dataset{
		Headers: []string{"Title", "Tutor", "Program", "Section", "Scheduled At", "Duration (min)", "Status"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Title":          row.Title,
			"Tutor":          row.TutorName,
			"Program":        row.ProgramName,
			"Section":        row.SectionLabel,
			"Scheduled At":   row.ScheduledAt.Format(time.RFC3339),
			"Duration (min)": strconv.Itoa(row.DurationMinutes),
			"Status":         string(row.Status),
		})
	}
	return dataset, "Meeting Schedule", nil
}

func (s *ReportService) statsDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	rows, err := s.data.SubmissionRows(ctx, params)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load submission rows: %w", err)
	}
	now := s.clock()

	type studentViews struct {
		name  string
		views []models.AssignmentView
	}
	order := make([]string, 0)
	byStudent := make(map[string]*studentViews)
	for _, row := range rows {
		entry, ok := byStudent[row.StudentID]
		if !ok {
			entry = &studentViews{name: row.StudentName}
			byStudent[row.StudentID] = entry
			order = append(order, row.StudentID)
		}
		status := DeriveAssignmentStatus(row.Assignment, row.Submission, now)
		entry.views = append(entry.views, models.AssignmentView{Assignment: row.Assignment, EffectiveStatus: status})
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Total", "Pending", "Submitted", "Graded", "Late"},
	}
	for _, studentID := range order {
		entry := byStudent[studentID]
		stats := AggregateAssignmentStats(entry.views)
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":   entry.name,
			"Total":     strconv.Itoa(stats.Total),
			"Pending":   strconv.Itoa(stats.Pending),
			"Submitted": strconv.Itoa(stats.Submitted),
			"Graded":    strconv.Itoa(stats.Graded),
			"Late":      strconv.Itoa(stats.Late),
		})
	}
	return dataset, "Assignment Statistics", nil
}
