package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/jackc/pgx/v5"
)

const (
	latestApplicationJoin = `JOIN LATERAL (
		SELECT id, user_id, name, details, created_at FROM applications
		WHERE user_id = u.id ORDER BY id DESC LIMIT 1
	) a ON TRUE`

	latestSubmissionJoin = `LATERAL (
		SELECT id, application_id, submitted_at, updated_at, status, is_locked FROM submissions
		WHERE application_id = a.id ORDER BY submitted_at DESC, id DESC LIMIT 1
	) s ON TRUE`
)

var applicantColumns = []string{
	"u.id", "u.email", "u.role", "u.is_verified", "u.created_at",
	"a.id", "a.user_id", "a.name", "a.details", "a.created_at",
	"s.id", "s.application_id", "s.submitted_at", "s.updated_at", "s.status", "s.is_locked",
}

// PgReviewRepository assembles the review view across users, applications and the ledger
type PgReviewRepository struct {
	db DBTX
}

// scanApplicant reads one applicant row; the ledger columns may be NULL
func scanApplicant(row pgx.Row) (*models.Applicant, error) {
	var (
		out         models.Applicant
		raw         []byte
		subID       *int64
		subApp      *int64
		submittedAt *time.Time
		updatedAt   *time.Time
		status      *string
		locked      *bool
	)
	err := row.Scan(
		&out.User.ID, &out.User.Email, &out.User.Role, &out.User.IsVerified, &out.User.CreatedAt,
		&out.Application.ID, &out.Application.UserID, &out.Application.Name, &raw, &out.Application.CreatedAt,
		&subID, &subApp, &submittedAt, &updatedAt, &status, &locked,
	)
	if err != nil {
		return nil, err
	}

	details, err := models.ParseDetails(raw)
	if err != nil {
		return nil, fmt.Errorf("stored details of application %d: %w", out.Application.ID, err)
	}
	out.Application.Details = details

	if subID != nil {
		out.Submission = &models.Submission{
			ID:            *subID,
			ApplicationID: *subApp,
			SubmittedAt:   *submittedAt,
			UpdatedAt:     *updatedAt,
			Status:        models.SubmissionStatus(*status),
			IsLocked:      *locked,
		}
	}
	return &out, nil
}

// ListLatest implements ReviewRepository
func (r *PgReviewRepository) ListLatest(ctx context.Context) ([]models.Applicant, error) {
	sql, args, err := psql.Select(applicantColumns...).
		From("users u").
		JoinClause(latestApplicationJoin).
		JoinClause("JOIN " + latestSubmissionJoin).
		Where("u.role = ?", models.RoleStudent).
		OrderBy("s.updated_at DESC", "s.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing applicants: %w", err)
	}
	defer rows.Close()

	var out []models.Applicant
	for rows.Next() {
		applicant, err := scanApplicant(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning applicant: %w", err)
		}
		out = append(out, *applicant)
	}
	return out, rows.Err()
}

// GetApplicant implements ReviewRepository
func (r *PgReviewRepository) GetApplicant(ctx context.Context, applicationID int64) (*models.Applicant, error) {
	sql, args, err := psql.Select(applicantColumns...).
		From("applications a").
		Join("users u ON u.id = a.user_id").
		JoinClause("LEFT JOIN " + latestSubmissionJoin).
		Where("a.id = ?", applicationID).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	applicant, err := scanApplicant(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("application not found")
		}
		return nil, fmt.Errorf("error getting applicant: %w", err)
	}
	return applicant, nil
}
