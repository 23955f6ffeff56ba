package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/elimishatrust/studyloan/internal/pkg/dberrors"
	"github.com/jackc/pgx/v5"
)

const (
	usersEmailConstraint = "users_email_key"
	staffUserConstraint  = "staff_user_id_key"
)

var userColumns = []string{"id", "email", "password_hash", "role", "is_verified", "verification_token", "created_at"}

// PgUserRepository handles database operations for users
type PgUserRepository struct {
	db DBTX
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role,
		&user.IsVerified, &user.VerificationToken, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts the user and fills its ID and creation time
func (r *PgUserRepository) Create(ctx context.Context, user *models.User) error {
	query := psql.Insert("users").
		Columns("email", "password_hash", "role", "is_verified", "verification_token").
		Values(user.Email, user.PasswordHash, user.Role, user.IsVerified, user.VerificationToken).
		Suffix("RETURNING id, created_at")

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, usersEmailConstraint) {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *PgUserRepository) getOne(ctx context.Context, where any, args ...any) (*models.User, error) {
	sql, sqlArgs, err := psql.Select(userColumns...).From("users").Where(where, args...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, sqlArgs...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("user not found")
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *PgUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by email
func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = ?", email)
}

// GetByVerificationToken retrieves the user holding a pending verification token
func (r *PgUserRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, "verification_token = ?", token)
}

// MarkVerified flags the user as verified and clears the single-use token
func (r *PgUserRepository) MarkVerified(ctx context.Context, id int64) error {
	sql, args, err := psql.Update("users").
		Set("is_verified", true).
		Set("verification_token", nil).
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error verifying user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("user not found")
	}
	return nil
}

// EmailExists checks if an email already exists
func (r *PgUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

// List returns every user ordered by ID
func (r *PgUserRepository) List(ctx context.Context) ([]models.User, error) {
	sql, args, err := psql.Select(userColumns...).From("users").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// PgStaffRepository handles database operations for staff links
type PgStaffRepository struct {
	db DBTX
}

// Create inserts the staff link. A user can be linked only once.
func (r *PgStaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	sql, args, err := psql.Insert("staff").
		Columns("user_id", "admin_id").
		Values(staff.UserID, staff.AdminID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&staff.ID, &staff.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, staffUserConstraint) {
			return apperrors.NewConflictError("user is already staff")
		}
		return fmt.Errorf("error creating staff: %w", err)
	}
	return nil
}

// GetByUserID retrieves the staff link of a user
func (r *PgStaffRepository) GetByUserID(ctx context.Context, userID int64) (*models.Staff, error) {
	sql, args, err := psql.Select("id", "user_id", "admin_id", "created_at").
		From("staff").
		Where("user_id = ?", userID).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	staff := &models.Staff{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&staff.ID, &staff.UserID, &staff.AdminID, &staff.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("staff not found")
		}
		return nil, fmt.Errorf("error getting staff: %w", err)
	}
	return staff, nil
}
