package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"tt2import/internal/model"
	"tt2import/internal/repository"
)

type jobItem struct {
	PK         string                 `dynamodbav:"PK"`
	SK         string                 `dynamodbav:"SK"`
	ID         string                 `dynamodbav:"id"`
	OrgID      string                 `dynamodbav:"org_id"`
	CreatedBy  string                 `dynamodbav:"created_by"`
	Files      []model.FileDescriptor `dynamodbav:"files"`
	Status     string                 `dynamodbav:"status"`
	Counts     countsItem             `dynamodbav:"counts"`
	Errors     []errorItem            `dynamodbav:"errors"`
	StartedAt  string                 `dynamodbav:"started_at,omitempty"`
	FinishedAt string                 `dynamodbav:"finished_at,omitempty"`
	CreatedAt  string                 `dynamodbav:"created_at"`
}

type countsItem struct {
	Quotes           int `dynamodbav:"quotes"`
	CustomersCreated int `dynamodbav:"customers_created"`
	Duplicates       int `dynamodbav:"duplicates"`
}

type errorItem struct {
	Code     string `dynamodbav:"code"`
	FileName string `dynamodbav:"file_name,omitempty"`
	Message  string `dynamodbav:"message"`
}

// ImportJobRepository stores one item per job. Status updates carry a condition on the
// current status, so a job cannot move backwards.
type ImportJobRepository struct {
	*Store
}

// NewImportJobRepository returns a job repository on s.
func NewImportJobRepository(s *Store) *ImportJobRepository {
	return &ImportJobRepository{Store: s}
}

var _ repository.ImportJobRepository = (*ImportJobRepository)(nil)

// Create puts a new PENDING job, failing if the id is already taken.
func (r *ImportJobRepository) Create(ctx context.Context, job *model.ImportJob) (*model.ImportJob, error) {
	pk, sk := jobKeys(job.ID)
	files := job.Files
	if files == nil {
		files = []model.FileDescriptor{}
	}
	av, err := attributevalue.MarshalMap(jobItem{
		PK:        pk,
		SK:        sk,
		ID:        job.ID,
		OrgID:     job.OrgID,
		CreatedBy: job.CreatedBy,
		Files:     files,
		Status:    string(model.JobPending),
		Errors:    []errorItem{},
		CreatedAt: formatTime(job.CreatedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.Table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return nil, fmt.Errorf("put job: %w", err)
	}

	out := *job
	out.Files = files
	out.Status = model.JobPending
	out.Errors = []model.ImportError{}
	return &out, nil
}

// FindByID returns the job or repository.ErrNotFound.
func (r *ImportJobRepository) FindByID(ctx context.Context, id string) (*model.ImportJob, error) {
	res, err := r.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.Table),
		Key:            keyOf(jobKeys(id)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if len(res.Item) == 0 {
		return nil, repository.ErrNotFound
	}

	var it jobItem
	if err := attributevalue.UnmarshalMap(res.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return it.toModel()
}

// MarkProcessing moves a PENDING job to PROCESSING.
func (r *ImportJobRepository) MarkProcessing(ctx context.Context, id string, startedAt time.Time) error {
	_, err := r.DB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.Table),
		Key:                 keyOf(jobKeys(id)),
		UpdateExpression:    aws.String("SET #status = :next, started_at = :started"),
		ConditionExpression: aws.String("#status = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":next":     &types.AttributeValueMemberS{Value: string(model.JobProcessing)},
			":expected": &types.AttributeValueMemberS{Value: string(model.JobPending)},
			":started":  &types.AttributeValueMemberS{Value: formatTime(startedAt)},
		},
	})
	return mapUpdateErr(err)
}

// Complete writes the terminal outcome of a PROCESSING job.
func (r *ImportJobRepository) Complete(ctx context.Context, id string, out model.JobOutcome) error {
	if !out.Status.IsTerminal() {
		return fmt.Errorf("complete job %s: %q is not a terminal status", id, out.Status)
	}
	counts, err := attributevalue.Marshal(countsItem(out.Counts))
	if err != nil {
		return fmt.Errorf("marshal counts: %w", err)
	}
	errs, err := attributevalue.Marshal(toErrorItems(out.Errors))
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	_, err = r.DB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.Table),
		Key:                 keyOf(jobKeys(id)),
		UpdateExpression:    aws.String("SET #status = :next, #counts = :counts, #errors = :errors, finished_at = :finished"),
		ConditionExpression: aws.String("#status = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
			"#counts": "counts",
			"#errors": "errors",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":next":     &types.AttributeValueMemberS{Value: string(out.Status)},
			":expected": &types.AttributeValueMemberS{Value: string(model.JobProcessing)},
			":counts":   counts,
			":errors":   errs,
			":finished": &types.AttributeValueMemberS{Value: formatTime(out.FinishedAt)},
		},
	})
	return mapUpdateErr(err)
}

// mapUpdateErr turns a failed status condition into ErrStaleTransition.
// A missing job fails the condition too.
func mapUpdateErr(err error) error {
	if err == nil {
		return nil
	}
	if isConditionFailed(err) {
		return repository.ErrStaleTransition
	}
	return fmt.Errorf("update job: %w", err)
}

func toErrorItems(in []model.ImportError) []errorItem {
	out := make([]errorItem, len(in))
	for i, e := range in {
		out[i] = errorItem(e)
	}
	return out
}

func (it jobItem) toModel() (*model.ImportJob, error) {
	job := &model.ImportJob{
		ID:        it.ID,
		OrgID:     it.OrgID,
		CreatedBy: it.CreatedBy,
		Files:     it.Files,
		Status:    model.JobStatus(it.Status),
		Counts:    model.ImportCounts(it.Counts),
		Errors:    make([]model.ImportError, len(it.Errors)),
	}
	for i, e := range it.Errors {
		job.Errors[i] = model.ImportError(e)
	}
	if job.Files == nil {
		job.Files = []model.FileDescriptor{}
	}

	var err error
	if job.CreatedAt, err = parseTime(it.CreatedAt); err != nil {
		return nil, err
	}
	if it.StartedAt != "" {
		t, err := parseTime(it.StartedAt)
		if err != nil {
			return nil, err
		}
		job.StartedAt = &t
	}
	if it.FinishedAt != "" {
		t, err := parseTime(it.FinishedAt)
		if err != nil {
			return nil, err
		}
		job.FinishedAt = &t
	}
	return job, nil
}
