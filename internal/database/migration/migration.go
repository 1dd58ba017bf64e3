package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created last, so its presence means every step has run.
const sentinelTable = "public.import_jobs"

var steps = []migrationStep{
	{
		Name: "create_table_customers",
		SQL: `CREATE TABLE IF NOT EXISTS customers (
  id             UUID        PRIMARY KEY,
  org_id         TEXT        NOT NULL,
  name           TEXT        NOT NULL,
  source         TEXT        NOT NULL DEFAULT '',
  date_of_birth  TEXT        NOT NULL DEFAULT '',
  license_number TEXT        NOT NULL DEFAULT '',
  license_state  TEXT        NOT NULL DEFAULT '',
  zip_code       TEXT        NOT NULL DEFAULT '',
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_customers_org_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_customers_org_name ON customers (org_id, name);`,
	},
	{
		Name: "create_table_quotes",
		SQL: `CREATE TABLE IF NOT EXISTS quotes (
  id             UUID          PRIMARY KEY,
  org_id         TEXT          NOT NULL,
  customer_id    UUID          NOT NULL REFERENCES customers (id),
  import_job_id  TEXT          NOT NULL,
  file_name      TEXT          NOT NULL,
  fingerprint    CHAR(64)      NOT NULL,
  source         TEXT          NOT NULL,
  named_insured  TEXT          NOT NULL,
  effective_date TEXT,
  total_premium  NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (total_premium >= 0),
  data           JSONB         NOT NULL,
  created_at     TIMESTAMPTZ   NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_quotes_org_fingerprint",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_quotes_org_fingerprint ON quotes (org_id, fingerprint);`,
	},
	{
		Name: "create_index_quotes_customer",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_quotes_customer ON quotes (customer_id);`,
	},
	{
		Name: "create_table_import_jobs",
		SQL: `CREATE TABLE IF NOT EXISTS import_jobs (
  id          TEXT        PRIMARY KEY,
  org_id      TEXT        NOT NULL,
  created_by  TEXT        NOT NULL DEFAULT '',
  files       JSONB       NOT NULL,
  status      TEXT        NOT NULL CHECK (status IN ('PENDING','PROCESSING','SUCCESS','PARTIAL','FAILED')),
  counts      JSONB       NOT NULL DEFAULT '{}',
  errors      JSONB       NOT NULL DEFAULT '[]',
  started_at  TIMESTAMPTZ,
  finished_at TIMESTAMPTZ,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_import_jobs_org_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_import_jobs_org_created_at ON import_jobs (org_id, created_at);`,
	},
}

// EnsureMigrated checks for the import_jobs table and runs every step when it is missing.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	query := "SELECT to_regclass($1) IS NOT NULL"
	if err := db.QueryRowContext(ctx, query, sentinelTable).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("reason", "schema already exists"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", zap.String("status", "in_progress"), zap.Int("steps", len(steps)))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Debug("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
