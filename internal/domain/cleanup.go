package domain

// CleanupJob is one scheduled deletion of one ephemeral message.
// Created by whichever component posted or consumed the message, then
// handed to the scheduler, which owns it until the deletion succeeds
// or retries are exhausted. Deletion is the only mutation ever applied
// to the job's target.
type CleanupJob struct {
	ID             string `json:"id"`
	Owner          string `json:"owner"`
	Repo           string `json:"repo"`
	CommentID      int64  `json:"commentId"`
	IssueNumber    *int   `json:"issueNumber,omitempty"`
	InstallationID int64  `json:"installationId"`
}

// JobState is the per-job execution state machine:
// Pending → Running → {Completed | Retrying → Running | Failed}.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobRetrying  JobState = "retrying"
	JobFailed    JobState = "failed"
)
