package model

import "time"

// Error codes carried by ImportError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeFetch      = "FETCH_ERROR"
	CodeParse      = "PARSE_ERROR"
	CodeMatch      = "MATCH_ERROR"
	CodePersist    = "PERSIST_ERROR"
	CodeTimeout    = "TIMEOUT"
	CodeNoFiles    = "NO_FILES"
)

// FileDescriptor references one uploaded file of an import job.
type FileDescriptor struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	StoragePath string `json:"storage_path"`
}

// ImportCounts aggregates per-file outcomes of a job.
type ImportCounts struct {
	Quotes           int `json:"quotes"`
	CustomersCreated int `json:"customers_created"`
	Duplicates       int `json:"duplicates"`
}

// ImportError describes one failure. FileName is empty for job-level entries.
type ImportError struct {
	Code     string `json:"code"`
	FileName string `json:"fileName,omitempty"`
	Message  string `json:"message"`
}

// ImportJob is a batch of TT2 files submitted together for one organization.
// Jobs are kept as an audit trail and never deleted.
type ImportJob struct {
	ID         string           `json:"id"`
	OrgID      string           `json:"org_id"`
	CreatedBy  string           `json:"created_by"`
	Files      []FileDescriptor `json:"files"`
	Status     JobStatus        `json:"status"`
	Counts     ImportCounts     `json:"counts"`
	Errors     []ImportError    `json:"errors"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// ImportResult is what the processor hands back to the caller.
// Success is true only for SUCCESS; inspect Counts and Errors for partial outcomes.
type ImportResult struct {
	Success bool          `json:"success"`
	Status  JobStatus     `json:"status"`
	Counts  ImportCounts  `json:"counts"`
	Errors  []ImportError `json:"errors"`
}

// JobOutcome is the terminal write applied to a job record.
type JobOutcome struct {
	Status     JobStatus
	Counts     ImportCounts
	Errors     []ImportError
	FinishedAt time.Time
}
