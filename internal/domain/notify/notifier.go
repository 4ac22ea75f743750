package notify

import (
	"context"

	"school_backend/internal/domain/importer"
	"school_backend/internal/domain/queue"
)

// Notifier delivers user-facing messages. Implementations block until the
// message has been handed to the transport.
type Notifier interface {
	// SendWelcome delivers one welcome message with the temporary credential.
	SendWelcome(ctx context.Context, task queue.WelcomeTask) error
	// SendImportReport delivers the completion summary to the job initiator.
	SendImportReport(ctx context.Context, to string, report *importer.Report) error
}
