package model

import "fmt"

// JobStatus is the lifecycle state of an import job.
//
//	PENDING → PROCESSING → SUCCESS | PARTIAL | FAILED
//
// Terminal states have no outgoing transitions.
type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobProcessing JobStatus = "PROCESSING"
	JobSuccess    JobStatus = "SUCCESS"
	JobPartial    JobStatus = "PARTIAL"
	JobFailed     JobStatus = "FAILED"
)

var validTransitions = map[JobStatus]map[JobStatus]bool{
	JobPending:    {JobProcessing: true},
	JobProcessing: {JobSuccess: true, JobPartial: true, JobFailed: true},
	JobSuccess:    {},
	JobPartial:    {},
	JobFailed:     {},
}

// TransitionError reports a rejected status change.
type TransitionError struct {
	Code    string
	From    JobStatus
	To      JobStatus
	Message string
}

func (e *TransitionError) Error() string {
	return e.Message
}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal reports whether s is SUCCESS, PARTIAL or FAILED.
func (s JobStatus) IsTerminal() bool {
	return s == JobSuccess || s == JobPartial || s == JobFailed
}

// CanTransition reports whether from → to is allowed.
func CanTransition(from, to JobStatus) bool {
	return validTransitions[from][to]
}

// Transition validates from → to and returns to on success.
func Transition(from, to JobStatus) (JobStatus, error) {
	if !to.Valid() {
		return from, &TransitionError{
			Code:    "INVALID_TRANSITION",
			From:    from,
			To:      to,
			Message: fmt.Sprintf("unknown target status %q", to),
		}
	}
	if !CanTransition(from, to) {
		return from, &TransitionError{
			Code:    "INVALID_TRANSITION",
			From:    from,
			To:      to,
			Message: fmt.Sprintf("transition %s → %s is not allowed", from, to),
		}
	}
	return to, nil
}

// Outcome derives the terminal status from per-file results.
// Zero files is a failure, not a vacuous success.
func Outcome(succeeded, failed int) JobStatus {
	switch {
	case succeeded == 0:
		return JobFailed
	case failed == 0:
		return JobSuccess
	default:
		return JobPartial
	}
}
