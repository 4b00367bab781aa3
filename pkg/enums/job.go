package enums

import "fmt"

// JobStatus maps to the job_status enum in Postgres.
type JobStatus string

const (
	JobStatusOpen       JobStatus = "open"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
)

var validJobStatuses = []JobStatus{
	JobStatusOpen,
	JobStatusInProgress,
	JobStatusCompleted,
}

// IsValid checks whether the given status matches the canonical enum.
func (s JobStatus) IsValid() bool {
	for _, candidate := range validJobStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseJobStatus converts raw strings into JobStatus.
func ParseJobStatus(value string) (JobStatus, error) {
	for _, candidate := range validJobStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid job status %q", value)
}
