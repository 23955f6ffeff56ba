package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/elimishatrust/studyloan/internal/pkg/dberrors"
	"github.com/jackc/pgx/v5"
)

var submissionColumns = []string{"id", "application_id", "submitted_at", "updated_at", "status", "is_locked"}

// PgSubmissionRepository handles database operations for the submission ledger
type PgSubmissionRepository struct {
	db DBTX
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	sub := &models.Submission{}
	err := row.Scan(&sub.ID, &sub.ApplicationID, &sub.SubmittedAt, &sub.UpdatedAt, &sub.Status, &sub.IsLocked)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Create appends a ledger entry. Zero timestamps default to the database clock.
func (r *PgSubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.Status == "" {
		sub.Status = models.StatusPending
	}

	insert := psql.Insert("submissions")
	if sub.SubmittedAt.IsZero() {
		insert = insert.Columns("application_id", "status", "is_locked").
			Values(sub.ApplicationID, sub.Status, sub.IsLocked)
	} else {
		insert = insert.Columns("application_id", "status", "is_locked", "submitted_at", "updated_at").
			Values(sub.ApplicationID, sub.Status, sub.IsLocked, sub.SubmittedAt, sub.SubmittedAt)
	}

	sql, args, err := insert.Suffix("RETURNING id, submitted_at, updated_at").ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&sub.ID, &sub.SubmittedAt, &sub.UpdatedAt); err != nil {
		return fmt.Errorf("error creating submission: %w", err)
	}
	return nil
}

// Lock relocks an entry for a new submit: timestamp bumped, status reset to pending
func (r *PgSubmissionRepository) Lock(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id, map[string]any{
		"updated_at": at,
		"status":     models.StatusPending,
		"is_locked":  true,
	})
}

// UpdateStatus sets the review status only
func (r *PgSubmissionRepository) UpdateStatus(ctx context.Context, id int64, status models.SubmissionStatus) error {
	return r.update(ctx, id, map[string]any{"status": status})
}

func (r *PgSubmissionRepository) update(ctx context.Context, id int64, set map[string]any) error {
	sql, args, err := psql.Update("submissions").SetMap(set).Where("id = ?", id).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsCheckViolation(err) {
			return apperrors.NewInvalidStatusError("status is not allowed")
		}
		return fmt.Errorf("error updating submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("submission not found")
	}
	return nil
}

func (r *PgSubmissionRepository) latest(ctx context.Context, where squirrel.Sqlizer) (*models.Submission, error) {
	sql, args, err := psql.Select(submissionColumns...).
		From("submissions").
		Where(where).
		OrderBy("submitted_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	sub, err := scanSubmission(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("submission not found")
		}
		return nil, fmt.Errorf("error getting submission: %w", err)
	}
	return sub, nil
}

// GetLatestByApplicationID returns the current ledger entry of an application
func (r *PgSubmissionRepository) GetLatestByApplicationID(ctx context.Context, applicationID int64) (*models.Submission, error) {
	return r.latest(ctx, squirrel.Eq{"application_id": applicationID})
}

// GetLatestUnlockedByApplicationID returns the newest entry that is still unlocked
func (r *PgSubmissionRepository) GetLatestUnlockedByApplicationID(ctx context.Context, applicationID int64) (*models.Submission, error) {
	return r.latest(ctx, squirrel.Eq{"application_id": applicationID, "is_locked": false})
}

// HasLocked reports whether any entry of the application is locked
func (r *PgSubmissionRepository) HasLocked(ctx context.Context, applicationID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM submissions WHERE application_id = $1 AND is_locked)`,
		applicationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking lock: %w", err)
	}
	return exists, nil
}

// ListByApplicationID returns the ledger of an application, oldest first
func (r *PgSubmissionRepository) ListByApplicationID(ctx context.Context, applicationID int64) ([]models.Submission, error) {
	sql, args, err := psql.Select(submissionColumns...).
		From("submissions").
		Where("application_id = ?", applicationID).
		OrderBy("submitted_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing submissions: %w", err)
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}
