package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tt2import/internal/fingerprint"
	"tt2import/internal/logging"
	"tt2import/internal/matcher"
	"tt2import/internal/model"
	"tt2import/internal/repository"
	"tt2import/internal/storage"
	"tt2import/internal/tt2"
	"tt2import/internal/validate"
)

var (
	// ErrInvalidJob is returned for a nil job or one without an id or organization.
	ErrInvalidJob = errors.New("invalid import job")
	// ErrJobFinished is returned when the job already reached a terminal status.
	ErrJobFinished = errors.New("import job already finished")
)

const defaultConcurrency = 4

// ProcessorOptions tunes a Processor.
type ProcessorOptions struct {
	// Concurrency bounds how many files of one job are in flight. Values below 1 use the default.
	Concurrency int
	// JobTimeout is the deadline for one job. Zero means none.
	JobTimeout time.Duration
	// SkipDuplicates skips files whose fingerprint is already stored for the organization.
	SkipDuplicates bool
}

// Processor runs import jobs: every file goes through
// validate → fetch → parse → fingerprint → match → persist, and the job record
// gets one terminal write with the aggregate.
type Processor struct {
	store   storage.Storage
	jobs    repository.ImportJobRepository
	quotes  repository.QuoteRepository
	matcher matcher.Matcher
	log     logging.Logger
	metrics *Metrics
	tracer  trace.Tracer
	opts    ProcessorOptions
	now     func() time.Time
}

// NewProcessor wires a Processor. metrics may be nil.
func NewProcessor(
	store storage.Storage,
	jobs repository.ImportJobRepository,
	quotes repository.QuoteRepository,
	m matcher.Matcher,
	log logging.Logger,
	metrics *Metrics,
	opts ProcessorOptions,
) *Processor {
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}
	return &Processor{
		store:   store,
		jobs:    jobs,
		quotes:  quotes,
		matcher: m,
		log:     log,
		metrics: metrics,
		tracer:  otel.Tracer("tt2import/service"),
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type fileOutcome struct {
	imported        bool
	duplicate       bool
	customerCreated bool
	// skipped files never started because the job ran out of time.
	skipped bool
	err     *model.ImportError
}

func (o fileOutcome) succeeded() bool {
	return o.imported || o.duplicate
}

func (o fileOutcome) label() string {
	switch {
	case o.err != nil:
		return o.err.Code
	case o.duplicate:
		return fileDuplicate
	case o.skipped:
		return fileSkipped
	default:
		return fileImported
	}
}

// ProcessImportJob processes every file of job and records the outcome on the job.
//
// Per-file failures never abort the job; they end up in the result's Errors in file order.
// The returned error is non-nil only when the job could not be started
// (ErrInvalidJob, ErrJobFinished, a failed PROCESSING transition) or when the
// terminal write failed, in which case the computed result is returned as well.
func (p *Processor) ProcessImportJob(ctx context.Context, job *model.ImportJob) (*model.ImportResult, error) {
	if job == nil || job.ID == "" || job.OrgID == "" {
		return nil, ErrInvalidJob
	}
	if job.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: job %s is %s", ErrJobFinished, job.ID, job.Status)
	}

	ctx, span := p.tracer.Start(ctx, "import.job", trace.WithAttributes(
		attribute.String("import.job_id", job.ID),
		attribute.String("import.org_id", job.OrgID),
		attribute.Int("import.files", len(job.Files)),
	))
	defer span.End()

	started := p.now()
	if err := p.jobs.MarkProcessing(ctx, job.ID, started); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark processing")
		return nil, fmt.Errorf("mark job %s processing: %w", job.ID, err)
	}
	p.log.Info("import_started",
		zap.String("job_id", job.ID),
		zap.String("org_id", job.OrgID),
		zap.Int("files", len(job.Files)),
	)

	runCtx := ctx
	if p.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.opts.JobTimeout)
		defer cancel()
	}

	outcomes := p.processFiles(runCtx, job)
	result := summarize(job.Files, outcomes)

	if err := runCtx.Err(); err != nil {
		result.Status = model.JobFailed
		result.Success = false
		result.Errors = append(result.Errors, model.ImportError{
			Code:    model.CodeTimeout,
			Message: fmt.Sprintf("import did not finish in time: %v", err),
		})
	}

	finished := p.now()
	span.SetAttributes(
		attribute.String("import.status", string(result.Status)),
		attribute.Int("import.quotes", result.Counts.Quotes),
		attribute.Int("import.errors", len(result.Errors)),
	)
	p.metrics.observeJob(result.Status, finished.Sub(started))

	err := p.jobs.Complete(context.WithoutCancel(ctx), job.ID, model.JobOutcome{
		Status:     result.Status,
		Counts:     result.Counts,
		Errors:     result.Errors,
		FinishedAt: finished,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete job")
		p.log.Error("import_complete_failed", zap.String("job_id", job.ID), zap.Error(err))
		return result, fmt.Errorf("complete job %s: %w", job.ID, err)
	}

	p.log.Info("import_finished",
		zap.String("job_id", job.ID),
		zap.String("status", string(result.Status)),
		zap.Int("quotes", result.Counts.Quotes),
		zap.Int("customers_created", result.Counts.CustomersCreated),
		zap.Int("duplicates", result.Counts.Duplicates),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("elapsed", finished.Sub(started)),
	)
	return result, nil
}

// processFiles runs the per-file pipeline with bounded concurrency.
// outcomes[i] belongs to job.Files[i] regardless of completion order.
func (p *Processor) processFiles(ctx context.Context, job *model.ImportJob) []fileOutcome {
	outcomes := make([]fileOutcome, len(job.Files))

	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)
	for i, f := range job.Files {
		g.Go(func() error {
			outcomes[i] = p.processFile(ctx, job, f)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (p *Processor) processFile(ctx context.Context, job *model.ImportJob, f model.FileDescriptor) fileOutcome {
	if ctx.Err() != nil {
		return fileOutcome{skipped: true}
	}

	ctx, span := p.tracer.Start(ctx, "import.file", trace.WithAttributes(
		attribute.String("import.file_name", f.Name),
		attribute.Int64("import.file_size", f.Size),
	))
	defer span.End()

	out := p.importFile(ctx, job, f)
	if out.err != nil {
		span.SetStatus(codes.Error, out.err.Code)
		p.log.Warn("import_file_failed",
			zap.String("job_id", job.ID),
			zap.String("file", f.Name),
			zap.String("code", out.err.Code),
			zap.String("message", out.err.Message),
		)
	}
	p.metrics.observeFile(out.label())
	return out
}

func (p *Processor) importFile(ctx context.Context, job *model.ImportJob, f model.FileDescriptor) fileOutcome {
	fail := func(code string, err error) fileOutcome {
		return fileOutcome{err: &model.ImportError{Code: code, FileName: f.Name, Message: err.Error()}}
	}

	if err := validate.File(f.Name, f.Size); err != nil {
		return fail(model.CodeValidation, err)
	}

	raw, err := storage.Fetch(ctx, p.store, f.StoragePath, validate.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrObjectTooLarge) {
			return fail(model.CodeValidation, err)
		}
		return fail(model.CodeFetch, err)
	}

	parsed, err := tt2.Parse(string(raw))
	if err != nil {
		return fail(model.CodeParse, err)
	}

	fp := fingerprint.Generate(parsed)

	if p.opts.SkipDuplicates {
		dup, err := p.quotes.ExistsByFingerprint(ctx, job.OrgID, fp)
		if err != nil {
			return fail(model.CodePersist, fmt.Errorf("check duplicate: %w", err))
		}
		if dup {
			p.log.Debug("import_file_duplicate",
				zap.String("job_id", job.ID),
				zap.String("file", f.Name),
				zap.String("fingerprint", fp),
			)
			return fileOutcome{duplicate: true}
		}
	}

	m, err := p.matcher.FindOrCreateCustomer(ctx, job.OrgID, parsed.NamedInsured, customerAttributes(parsed))
	if err != nil {
		return fail(model.CodeMatch, err)
	}

	q := &model.Quote{
		ID:            uuid.New().String(),
		OrgID:         job.OrgID,
		CustomerID:    m.CustomerID,
		ImportJobID:   job.ID,
		FileName:      f.Name,
		Fingerprint:   fp,
		Source:        model.SourceTurboRater,
		NamedInsured:  parsed.NamedInsured,
		EffectiveDate: parsed.EffectiveDate,
		TotalPremium:  parsed.Premiums.Total(),
		Data:          *parsed,
		CreatedAt:     p.now(),
	}
	if _, err := p.quotes.Create(ctx, q); err != nil {
		return fail(model.CodePersist, fmt.Errorf("save quote: %w", err))
	}

	return fileOutcome{imported: true, customerCreated: m.Created}
}

// summarize reduces per-file outcomes in file order.
func summarize(files []model.FileDescriptor, outcomes []fileOutcome) *model.ImportResult {
	res := &model.ImportResult{Errors: []model.ImportError{}}

	if len(files) == 0 {
		res.Status = model.JobFailed
		res.Errors = append(res.Errors, model.ImportError{
			Code:    model.CodeNoFiles,
			Message: "import job has no files",
		})
		return res
	}

	succeeded, failed := 0, 0
	for _, o := range outcomes {
		switch {
		case o.imported:
			res.Counts.Quotes++
			if o.customerCreated {
				res.Counts.CustomersCreated++
			}
		case o.duplicate:
			res.Counts.Duplicates++
		}
		if o.succeeded() {
			succeeded++
			continue
		}
		failed++
		if o.err != nil {
			res.Errors = append(res.Errors, *o.err)
		}
	}

	res.Status = model.Outcome(succeeded, failed)
	res.Success = res.Status == model.JobSuccess
	return res
}

func customerAttributes(q *model.ParsedQuote) matcher.CustomerAttributes {
	attrs := matcher.CustomerAttributes{Source: model.SourceTurboRater}
	if d, ok := q.PrimaryDriver(); ok {
		attrs.DateOfBirth = deref(d.DateOfBirth)
		attrs.LicenseNumber = deref(d.LicenseNumber)
		attrs.LicenseState = deref(d.LicenseState)
	}
	if v, ok := q.PrimaryVehicle(); ok {
		attrs.ZipCode = deref(v.GaragingZip)
	}
	return attrs
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
