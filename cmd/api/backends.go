package main

import (
	"context"
	"fmt"

	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"tt2import/internal/awsutil"
	"tt2import/internal/config"
	"tt2import/internal/database"
	"tt2import/internal/database/migration"
	handlers "tt2import/internal/http/handler"
	"tt2import/internal/repository"
	"tt2import/internal/repository/dynamodb"
	"tt2import/internal/repository/postgres"
	"tt2import/internal/storage"
)

// stores groups the repositories of the selected STORE_BACKEND.
type stores struct {
	customers repository.CustomerRepository
	quotes    repository.QuoteRepository
	jobs      repository.ImportJobRepository
	health    handlers.Pinger
	close     func()
}

func openStores(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.NewPostgres(database.SizeForImports(cfg.Database, cfg.Import.Concurrency), log)
		if err != nil {
			return nil, err
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		jobs := postgres.NewImportJobPostgres(db)
		return &stores{
			customers: postgres.NewCustomerPostgres(db),
			quotes:    postgres.NewQuotePostgres(db),
			jobs:      jobs,
			health:    jobs,
			close:     func() { db.Close() },
		}, nil

	case config.BackendDynamoDB:
		awsConf, err := awsutil.Load(ctx, cfg.AWS)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		st, err := dynamodb.New(awsdynamodb.NewFromConfig(awsConf), cfg.AWS.DynamoTable)
		if err != nil {
			return nil, err
		}
		return &stores{
			customers: dynamodb.NewCustomerRepository(st),
			quotes:    dynamodb.NewQuoteRepository(st),
			jobs:      dynamodb.NewImportJobRepository(st),
			health:    st,
			close:     func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

func openBlobStore(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.BlobBackend {
	case config.BackendMinIO:
		return storage.NewMinIO(cfg.MinIO)

	case config.BackendS3:
		awsConf, err := awsutil.Load(ctx, cfg.AWS)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
			o.UsePathStyle = cfg.AWS.Endpoint != ""
		})
		return storage.NewS3(client, cfg.AWS.S3Bucket)

	default:
		return nil, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.BlobBackend)
	}
}
