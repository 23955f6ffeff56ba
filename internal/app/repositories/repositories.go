package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository stores identities keyed by email
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkVerified(ctx context.Context, id int64) error
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
}

// StaffRepository links staff users to the admin who created them
type StaffRepository interface {
	Create(ctx context.Context, staff *models.Staff) error
	GetByUserID(ctx context.Context, userID int64) (*models.Staff, error)
}

// ApplicationRepository stores application versions
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	GetLatestByUserID(ctx context.Context, userID int64) (*models.Application, error)
	Update(ctx context.Context, app *models.Application) error
	ListByUserID(ctx context.Context, userID int64) ([]models.Application, error)
}

// SubmissionRepository is the submission ledger
type SubmissionRepository interface {
	Create(ctx context.Context, sub *models.Submission) error
	Lock(ctx context.Context, id int64, at time.Time) error
	UpdateStatus(ctx context.Context, id int64, status models.SubmissionStatus) error
	GetLatestByApplicationID(ctx context.Context, applicationID int64) (*models.Submission, error)
	GetLatestUnlockedByApplicationID(ctx context.Context, applicationID int64) (*models.Submission, error)
	HasLocked(ctx context.Context, applicationID int64) (bool, error)
	ListByApplicationID(ctx context.Context, applicationID int64) ([]models.Submission, error)
}

// DocumentRepository stores pointers to uploaded files
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	ListByApplicationID(ctx context.Context, applicationID int64) ([]models.Document, error)
	ListByApplicationIDs(ctx context.Context, applicationIDs []int64) (map[int64][]models.Document, error)
}

// ReviewRepository assembles the latest cycle of every applicant
type ReviewRepository interface {
	// ListLatest returns one row per student whose latest application has a
	// ledger entry, newest submission first. Documents are not loaded.
	ListLatest(ctx context.Context) ([]models.Applicant, error)
	// GetApplicant loads one application with its owner and latest ledger entry
	GetApplicant(ctx context.Context, applicationID int64) (*models.Applicant, error)
}

// Store groups the repositories and runs units of work atomically
type Store interface {
	Users() UserRepository
	Staff() StaffRepository
	Applications() ApplicationRepository
	Submissions() SubmissionRepository
	Documents() DocumentRepository
	Review() ReviewRepository

	// WithinTransaction runs fn against a Store bound to one transaction.
	// Every write made through that Store is rolled back if fn returns an error.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the PostgreSQL repository instances
type Repositories struct {
	pool *pgxpool.Pool

	UserRepository        *PgUserRepository
	StaffRepository       *PgStaffRepository
	ApplicationRepository *PgApplicationRepository
	SubmissionRepository  *PgSubmissionRepository
	DocumentRepository    *PgDocumentRepository
	ReviewRepository      *PgReviewRepository
}

// NewRepositories initializes all repositories on the pool
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	r := bind(pool)
	r.pool = pool
	return r
}

func bind(conn DBTX) *Repositories {
	return &Repositories{
		UserRepository:        &PgUserRepository{db: conn},
		StaffRepository:       &PgStaffRepository{db: conn},
		ApplicationRepository: &PgApplicationRepository{db: conn},
		SubmissionRepository:  &PgSubmissionRepository{db: conn},
		DocumentRepository:    &PgDocumentRepository{db: conn},
		ReviewRepository:      &PgReviewRepository{db: conn},
	}
}

func (r *Repositories) Users() UserRepository               { return r.UserRepository }
func (r *Repositories) Staff() StaffRepository              { return r.StaffRepository }
func (r *Repositories) Applications() ApplicationRepository { return r.ApplicationRepository }
func (r *Repositories) Submissions() SubmissionRepository   { return r.SubmissionRepository }
func (r *Repositories) Documents() DocumentRepository       { return r.DocumentRepository }
func (r *Repositories) Review() ReviewRepository            { return r.ReviewRepository }

// WithinTransaction implements Store. Calls made on a transaction-bound Store
// join the running transaction.
func (r *Repositories) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return db.WithTransaction(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, bind(tx))
	})
}

var _ Store = (*Repositories)(nil)
