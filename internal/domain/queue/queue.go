package queue

import (
	"context"

	"school_backend/internal/domain/importer"
)

// WelcomeTask carries everything one welcome notification needs, including
// the plaintext temporary secret. It exists only in memory and on the queue.
type WelcomeTask struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	TempSecret string `json:"temp_secret"`
}

// TaskQueue is the asynchronous dispatch contract. Implementations provide
// at-least-once delivery; consumers must tolerate redelivery.
type TaskQueue interface {
	// EnqueueImportJob submits a whole import job for background execution.
	EnqueueImportJob(ctx context.Context, job importer.Job) error
	// EnqueueWelcomeTasks submits one independent task per committed user.
	// Called only after the batch transaction commits.
	EnqueueWelcomeTasks(ctx context.Context, tasks []WelcomeTask) error
}
