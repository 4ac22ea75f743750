package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"school_backend/internal/domain/importer"
	"school_backend/internal/domain/notify"
	"school_backend/internal/domain/queue"
	"school_backend/internal/domain/user"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// PayloadSource opens the uploaded payload referenced by a job.
type PayloadSource interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// ImportService is the job orchestrator: it sequences parsing, validation,
// role resolution, the batched write and notification dispatch, and produces
// the final report. Row-level problems accumulate into the report and never
// fail the job; infrastructure faults (store, queue, unreadable payload)
// return an error so the surrounding queue can apply its redelivery policy.
type ImportService struct {
	users    user.Repository
	roles    user.RoleRepository
	tasks    queue.TaskQueue
	notifier notify.Notifier
	source   PayloadSource
	logger   *logrus.Logger
}

func NewImportService(
	users user.Repository,
	roles user.RoleRepository,
	tasks queue.TaskQueue,
	notifier notify.Notifier,
	source PayloadSource,
	logger *logrus.Logger,
) *ImportService {
	return &ImportService{
		users:    users,
		roles:    roles,
		tasks:    tasks,
		notifier: notifier,
		source:   source,
		logger:   logger,
	}
}

// Run executes one import job to completion. A file containing only invalid
// rows still completes with a report (success_count 0); there is no failed
// terminal state for row-level problems.
func (s *ImportService) Run(ctx context.Context, job importer.Job) (*importer.Report, error) {
	s.logger.WithFields(logrus.Fields{
		"payload":   job.PayloadPath,
		"school_id": job.Initiator.SchoolID,
	}).Info("Import job started")

	roleIDs, err := s.roles.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot roles: %w", err)
	}

	payload, err := s.readPayload(ctx, job.PayloadPath)
	if err != nil {
		return nil, err
	}

	parsed, err := importer.Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to parse import payload: %w", err)
	}

	existing, err := s.users.ExistingEmails(ctx, candidateEmails(parsed.Rows))
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot existing emails: %w", err)
	}

	validator := importer.NewValidator(roleIDs, existing)
	report := &importer.Report{Errors: []importer.RowError{}}
	var records []*importer.ValidatedRecord
	for _, row := range parsed.Rows {
		record, rowErr, err := validator.ValidateRow(row)
		if err != nil {
			return nil, fmt.Errorf("failed to validate line %d: %w", row.Line, err)
		}
		if rowErr != nil {
			report.Errors = append(report.Errors, *rowErr)
			s.logger.WithFields(logrus.Fields{
				"line":  rowErr.Line,
				"data":  rowErr.Data,
				"error": rowErr.Error,
			}).Error("Import row rejected")
			continue
		}
		records = append(records, record)
	}

	users, assignments, welcomes, err := buildBatch(records, job.Initiator.SchoolID, roleIDs)
	if err != nil {
		return nil, err
	}

	if len(users) > 0 {
		if err := s.users.BulkCreate(ctx, users, assignments); err != nil {
			return nil, fmt.Errorf("failed to bulk create users: %w", err)
		}
		// Welcome tasks go out only once the whole batch is committed; an
		// aborted batch therefore submits none of them.
		if err := s.tasks.EnqueueWelcomeTasks(ctx, welcomes); err != nil {
			return nil, fmt.Errorf("failed to enqueue welcome tasks: %w", err)
		}
	}

	report.SuccessCount = len(users)
	report.ErrorCount = len(report.Errors)

	if err := s.notifier.SendImportReport(ctx, job.Initiator.Email, report); err != nil {
		return nil, fmt.Errorf("failed to send completion report: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"school_id":     job.Initiator.SchoolID,
		"success_count": report.SuccessCount,
		"error_count":   report.ErrorCount,
	}).Info("Import job completed")

	return report, nil
}

func (s *ImportService) readPayload(ctx context.Context, path string) (string, error) {
	reader, err := s.source.Open(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to open import payload: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read import payload: %w", err)
	}
	return string(data), nil
}

// buildBatch turns the validated records into store rows and welcome tasks.
// Identifiers are generated here, client-side, so each role assignment links
// back to its user without a round-trip; secrets are bcrypt-hashed and the
// plaintext is retained only inside the welcome task.
func buildBatch(
	records []*importer.ValidatedRecord,
	schoolID string,
	roleIDs map[string]string,
) ([]*user.User, []*user.RoleAssignment, []queue.WelcomeTask, error) {
	users := make([]*user.User, 0, len(records))
	assignments := make([]*user.RoleAssignment, 0, len(records))
	welcomes := make([]queue.WelcomeTask, 0, len(records))

	now := time.Now().UTC()
	for _, record := range records {
		hash, err := bcrypt.GenerateFromPassword([]byte(record.TempSecret), bcrypt.DefaultCost)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to hash temporary secret for line %d: %w", record.Line, err)
		}

		id := uuid.NewString()
		users = append(users, &user.User{
			ID:           id,
			SchoolID:     schoolID,
			FirstName:    record.FirstName,
			LastName:     record.LastName,
			Email:        record.Email,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		assignments = append(assignments, &user.RoleAssignment{
			UserID: id,
			RoleID: roleIDs[record.RoleName],
		})
		welcomes = append(welcomes, queue.WelcomeTask{
			FirstName:  record.FirstName,
			LastName:   record.LastName,
			Email:      record.Email,
			TempSecret: record.TempSecret,
		})
	}

	return users, assignments, welcomes, nil
}

func candidateEmails(rows []importer.Row) []string {
	seen := make(map[string]struct{}, len(rows))
	emails := make([]string, 0, len(rows))
	for _, row := range rows {
		email := strings.TrimSpace(row.Fields["email"])
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		emails = append(emails, email)
	}
	return emails
}
