package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"tt2import/internal/model"
	"tt2import/internal/repository"
	"tt2import/internal/storage"
	"tt2import/internal/validate"
)

var (
	ErrIDRequired  = errors.New("id is required")
	ErrOrgRequired = errors.New("organization id is required")
	ErrNotFound    = errors.New("import job not found")
	ErrReaderNil   = errors.New("reader is nil")
)

// UploadFile is one file of a submission. Body is read once.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// SubmitRequest describes a new import job.
type SubmitRequest struct {
	OrgID     string
	CreatedBy string
	Files     []UploadFile
}

// JobProcessor runs a loaded import job to completion. *Processor implements it.
type JobProcessor interface {
	ProcessImportJob(ctx context.Context, job *model.ImportJob) (*model.ImportResult, error)
}

// ImportService defines the use cases around import jobs.
type ImportService interface {
	// Submit stores the files and creates a PENDING job referencing them.
	// Files that fail validation are not uploaded; the processor reports them.
	// If the job cannot be saved the uploaded objects are removed again.
	Submit(ctx context.Context, req SubmitRequest) (*model.ImportJob, error)

	// Process loads a job and runs it through the processor.
	Process(ctx context.Context, jobID string) (*model.ImportResult, error)

	// Get returns a job by id.
	Get(ctx context.Context, jobID string) (*model.ImportJob, error)
}

type importService struct {
	store     storage.Storage
	jobs      repository.ImportJobRepository
	processor JobProcessor
}

// NewImportService constructs a new ImportService.
func NewImportService(store storage.Storage, jobs repository.ImportJobRepository, processor JobProcessor) ImportService {
	return &importService{store: store, jobs: jobs, processor: processor}
}

func (s *importService) Submit(ctx context.Context, req SubmitRequest) (*model.ImportJob, error) {
	if req.OrgID == "" {
		return nil, ErrOrgRequired
	}

	jobID := ulid.Make().String()
	files := make([]model.FileDescriptor, 0, len(req.Files))
	var uploaded []string

	for _, f := range req.Files {
		desc := model.FileDescriptor{Name: f.Name, Size: f.Size}
		if validate.File(f.Name, f.Size) != nil {
			files = append(files, desc)
			continue
		}
		if f.Body == nil {
			return nil, s.rollback(ctx, uploaded, ErrReaderNil)
		}

		key := objectKey(req.OrgID, jobID, f.Name)
		info, err := s.store.Put(ctx, key, f.Body, storage.PutObjectOptions{
			Size:        f.Size,
			ContentType: f.ContentType,
			Metadata: map[string]string{
				"original-filename": f.Name,
			},
		})
		if err != nil {
			return nil, s.rollback(ctx, uploaded, fmt.Errorf("upload %s: %w", f.Name, err))
		}
		uploaded = append(uploaded, info.Key)
		desc.StoragePath = info.Key
		files = append(files, desc)
	}

	job := &model.ImportJob{
		ID:        jobID,
		OrgID:     req.OrgID,
		CreatedBy: req.CreatedBy,
		Files:     files,
		Status:    model.JobPending,
		Errors:    []model.ImportError{},
		CreatedAt: time.Now().UTC(),
	}
	stored, err := s.jobs.Create(ctx, job)
	if err != nil {
		return nil, s.rollback(ctx, uploaded, fmt.Errorf("db save failed: %w", err))
	}
	return stored, nil
}

// rollback deletes already uploaded objects and returns cause, annotated when cleanup failed too.
func (s *importService) rollback(ctx context.Context, keys []string, cause error) error {
	var delErrs []error
	for _, k := range keys {
		if err := s.store.Delete(ctx, k); err != nil {
			delErrs = append(delErrs, fmt.Errorf("delete %s: %w", k, err))
		}
	}
	if len(delErrs) > 0 {
		return fmt.Errorf("%w; rollback failed: %v", cause, errors.Join(delErrs...))
	}
	return cause
}

func (s *importService) Process(ctx context.Context, jobID string) (*model.ImportResult, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return s.processor.ProcessImportJob(ctx, job)
}

func (s *importService) Get(ctx context.Context, jobID string) (*model.ImportJob, error) {
	if jobID == "" {
		return nil, ErrIDRequired
	}
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// objectKey is imports/<org>/<job>/<uuid><ext>; the original name travels in object metadata.
func objectKey(orgID, jobID, name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return path.Join("imports", orgID, jobID, uuid.New().String()+ext)
}
