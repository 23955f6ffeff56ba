package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/jackc/pgx/v5"
)

var applicationColumns = []string{"id", "user_id", "name", "details", "created_at"}

// PgApplicationRepository handles database operations for application versions
type PgApplicationRepository struct {
	db DBTX
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	app := &models.Application{}
	var raw []byte
	if err := row.Scan(&app.ID, &app.UserID, &app.Name, &raw, &app.CreatedAt); err != nil {
		return nil, err
	}
	details, err := models.ParseDetails(raw)
	if err != nil {
		return nil, fmt.Errorf("stored details of application %d: %w", app.ID, err)
	}
	app.Details = details
	return app, nil
}

// Create inserts a new application version
func (r *PgApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	details, err := app.Details.Bytes()
	if err != nil {
		return fmt.Errorf("error encoding details: %w", err)
	}

	sql, args, err := psql.Insert("applications").
		Columns("user_id", "name", "details").
		Values(app.UserID, app.Name, details).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&app.ID, &app.CreatedAt); err != nil {
		return fmt.Errorf("error creating application: %w", err)
	}
	return nil
}

// GetByID retrieves an application by ID
func (r *PgApplicationRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	sql, args, err := psql.Select(applicationColumns...).From("applications").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.one(ctx, sql, args)
}

// GetLatestByUserID retrieves the most recently created application of a user
func (r *PgApplicationRepository) GetLatestByUserID(ctx context.Context, userID int64) (*models.Application, error) {
	sql, args, err := psql.Select(applicationColumns...).
		From("applications").
		Where("user_id = ?", userID).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.one(ctx, sql, args)
}

func (r *PgApplicationRepository) one(ctx context.Context, sql string, args []any) (*models.Application, error) {
	app, err := scanApplication(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("application not found")
		}
		return nil, fmt.Errorf("error getting application: %w", err)
	}
	return app, nil
}

// Update writes the name and the whole details value
func (r *PgApplicationRepository) Update(ctx context.Context, app *models.Application) error {
	details, err := app.Details.Bytes()
	if err != nil {
		return fmt.Errorf("error encoding details: %w", err)
	}

	sql, args, err := psql.Update("applications").
		Set("name", app.Name).
		Set("details", details).
		Where("id = ?", app.ID).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("application not found")
	}
	return nil
}

// ListByUserID returns every application version of a user, oldest first
func (r *PgApplicationRepository) ListByUserID(ctx context.Context, userID int64) ([]models.Application, error) {
	sql, args, err := psql.Select(applicationColumns...).
		From("applications").
		Where("user_id = ?", userID).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing applications: %w", err)
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning application: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}
