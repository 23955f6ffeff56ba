// Package memory is an in-memory implementation of the repository interfaces.
// It is safe for concurrent use and is intended for tests and local development.
// Transactions run against a private copy of the data that replaces the shared
// copy only when the unit of work succeeds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/app/repositories"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
)

// Operation names accepted by FailOn
const (
	OpUserCreate        = "users.create"
	OpUserMarkVerified  = "users.mark_verified"
	OpStaffCreate       = "staff.create"
	OpApplicationCreate = "applications.create"
	OpApplicationUpdate = "applications.update"
	OpSubmissionCreate  = "submissions.create"
	OpSubmissionLock    = "submissions.lock"
	OpSubmissionStatus  = "submissions.update_status"
	OpDocumentCreate    = "documents.create"
	OpReviewList        = "review.list"
)

type dataset struct {
	nextID       int64
	users        []models.User
	staff        []models.Staff
	applications []models.Application
	submissions  []models.Submission
	documents    []models.Document
}

func (d *dataset) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *dataset) clone() *dataset {
	out := &dataset{
		nextID:       d.nextID,
		users:        make([]models.User, len(d.users)),
		staff:        append([]models.Staff(nil), d.staff...),
		applications: make([]models.Application, len(d.applications)),
		submissions:  append([]models.Submission(nil), d.submissions...),
		documents:    append([]models.Document(nil), d.documents...),
	}
	for i, u := range d.users {
		out.users[i] = copyUser(u)
	}
	for i, a := range d.applications {
		out.applications[i] = copyApplication(a)
	}
	return out
}

func copyUser(u models.User) models.User {
	if u.VerificationToken != nil {
		token := *u.VerificationToken
		u.VerificationToken = &token
	}
	return u
}

func copyApplication(a models.Application) models.Application {
	a.Details = a.Details.Clone()
	return a
}

// Store implements repositories.Store in memory
type Store struct {
	view

	mu   sync.Mutex
	data *dataset

	fmu      sync.Mutex
	failures map[string]error

	// Clock stamps rows whose timestamps are left zero
	Clock func() time.Time
}

// New creates an empty store
func New() *Store {
	s := &Store{
		data:     &dataset{},
		failures: make(map[string]error),
		Clock:    time.Now,
	}
	s.view = view{s: s}
	return s
}

// FailOn makes every later call of op return err until ClearFailures is called
func (s *Store) FailOn(op string, err error) {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	s.failures[op] = err
}

// ClearFailures removes every injected failure
func (s *Store) ClearFailures() {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	s.failures = make(map[string]error)
}

func (s *Store) failure(op string) error {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	return s.failures[op]
}

func (s *Store) now() time.Time {
	return s.Clock().UTC()
}

// view binds the repositories either to the shared data (tx == nil) or to the
// private copy of a running transaction
type view struct {
	s  *Store
	tx *dataset
}

func (v view) run(op string, fn func(d *dataset) error) error {
	if v.tx != nil {
		if err := v.s.failure(op); err != nil {
			return err
		}
		return fn(v.tx)
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if err := v.s.failure(op); err != nil {
		return err
	}
	return fn(v.s.data)
}

func (v view) Users() repositories.UserRepository               { return userRepo{v} }
func (v view) Staff() repositories.StaffRepository              { return staffRepo{v} }
func (v view) Applications() repositories.ApplicationRepository { return applicationRepo{v} }
func (v view) Submissions() repositories.SubmissionRepository   { return submissionRepo{v} }
func (v view) Documents() repositories.DocumentRepository       { return documentRepo{v} }
func (v view) Review() repositories.ReviewRepository            { return reviewRepo{v} }

// WithinTransaction implements repositories.Store. Transactions are serialized;
// fn must use the Store it receives, never the outer one.
func (v view) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	if v.tx != nil {
		return fn(ctx, v)
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	tx := v.s.data.clone()
	if err := fn(ctx, view{s: v.s, tx: tx}); err != nil {
		return err
	}
	v.s.data = tx
	return nil
}

var _ repositories.Store = (*Store)(nil)

// users ----------------------------------------------------------------------

type userRepo struct{ v view }

func (r userRepo) Create(_ context.Context, user *models.User) error {
	return r.v.run(OpUserCreate, func(d *dataset) error {
		for _, u := range d.users {
			if u.Email == user.Email {
				return apperrors.ErrEmailAlreadyExists
			}
		}
		user.ID = d.id()
		if user.CreatedAt.IsZero() {
			user.CreatedAt = r.v.s.now()
		}
		d.users = append(d.users, copyUser(*user))
		return nil
	})
}

func (r userRepo) find(match func(models.User) bool) (*models.User, error) {
	var out *models.User
	err := r.v.run("users.get", func(d *dataset) error {
		for _, u := range d.users {
			if match(u) {
				found := copyUser(u)
				out = &found
				return nil
			}
		}
		return apperrors.NewResourceNotFoundError("user not found")
	})
	return out, err
}

func (r userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r userRepo) GetByVerificationToken(_ context.Context, token string) (*models.User, error) {
	return r.find(func(u models.User) bool {
		return u.VerificationToken != nil && *u.VerificationToken == token
	})
}

func (r userRepo) MarkVerified(_ context.Context, id int64) error {
	return r.v.run(OpUserMarkVerified, func(d *dataset) error {
		for i := range d.users {
			if d.users[i].ID == id {
				d.users[i].IsVerified = true
				d.users[i].VerificationToken = nil
				return nil
			}
		}
		return apperrors.NewResourceNotFoundError("user not found")
	})
}

func (r userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (r userRepo) List(_ context.Context) ([]models.User, error) {
	var out []models.User
	err := r.v.run("users.list", func(d *dataset) error {
		for _, u := range d.users {
			out = append(out, copyUser(u))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// staff ----------------------------------------------------------------------

type staffRepo struct{ v view }

func (r staffRepo) Create(_ context.Context, staff *models.Staff) error {
	return r.v.run(OpStaffCreate, func(d *dataset) error {
		for _, st := range d.staff {
			if st.UserID == staff.UserID {
				return apperrors.NewConflictError("user is already staff")
			}
		}
		staff.ID = d.id()
		if staff.CreatedAt.IsZero() {
			staff.CreatedAt = r.v.s.now()
		}
		d.staff = append(d.staff, *staff)
		return nil
	})
}

func (r staffRepo) GetByUserID(_ context.Context, userID int64) (*models.Staff, error) {
	var out *models.Staff
	err := r.v.run("staff.get", func(d *dataset) error {
		for _, st := range d.staff {
			if st.UserID == userID {
				found := st
				out = &found
				return nil
			}
		}
		return apperrors.NewResourceNotFoundError("staff not found")
	})
	return out, err
}

// applications ---------------------------------------------------------------

type applicationRepo struct{ v view }

func (r applicationRepo) Create(_ context.Context, app *models.Application) error {
	return r.v.run(OpApplicationCreate, func(d *dataset) error {
		app.ID = d.id()
		if app.CreatedAt.IsZero() {
			app.CreatedAt = r.v.s.now()
		}
		if app.Details == nil {
			app.Details = models.Details{}
		}
		d.applications = append(d.applications, copyApplication(*app))
		return nil
	})
}

func (r applicationRepo) GetByID(_ context.Context, id int64) (*models.Application, error) {
	var out *models.Application
	err := r.v.run("applications.get", func(d *dataset) error {
		for _, a := range d.applications {
			if a.ID == id {
				found := copyApplication(a)
				out = &found
				return nil
			}
		}
		return apperrors.NewResourceNotFoundError("application not found")
	})
	return out, err
}

func latestApplication(d *dataset, userID int64) *models.Application {
	var latest *models.Application
	for i := range d.applications {
		a := &d.applications[i]
		if a.UserID != userID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) ||
			(a.CreatedAt.Equal(latest.CreatedAt) && a.ID > latest.ID) {
			latest = a
		}
	}
	return latest
}

func (r applicationRepo) GetLatestByUserID(_ context.Context, userID int64) (*models.Application, error) {
	var out *models.Application
	err := r.v.run("applications.get_latest", func(d *dataset) error {
		latest := latestApplication(d, userID)
		if latest == nil {
			return apperrors.NewResourceNotFoundError("application not found")
		}
		found := copyApplication(*latest)
		out = &found
		return nil
	})
	return out, err
}

func (r applicationRepo) Update(_ context.Context, app *models.Application) error {
	return r.v.run(OpApplicationUpdate, func(d *dataset) error {
		for i := range d.applications {
			if d.applications[i].ID == app.ID {
				d.applications[i].Name = app.Name
				d.applications[i].Details = app.Details.Clone()
				return nil
			}
		}
		return apperrors.NewResourceNotFoundError("application not found")
	})
}

func (r applicationRepo) ListByUserID(_ context.Context, userID int64) ([]models.Application, error) {
	var out []models.Application
	err := r.v.run("applications.list", func(d *dataset) error {
		for _, a := range d.applications {
			if a.UserID == userID {
				out = append(out, copyApplication(a))
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

// submissions ----------------------------------------------------------------

type submissionRepo struct{ v view }

func (r submissionRepo) Create(_ context.Context, sub *models.Submission) error {
	return r.v.run(OpSubmissionCreate, func(d *dataset) error {
		if !hasApplication(d, sub.ApplicationID) {
			return apperrors.NewResourceNotFoundError("application not found")
		}
		sub.ID = d.id()
		if sub.Status == "" {
			sub.Status = models.StatusPending
		}
		if sub.SubmittedAt.IsZero() {
			sub.SubmittedAt = r.v.s.now()
		}
		sub.UpdatedAt = sub.SubmittedAt
		d.submissions = append(d.submissions, *sub)
		return nil
	})
}

func (r submissionRepo) mutate(op string, id int64, fn func(*models.Submission)) error {
	return r.v.run(op, func(d *dataset) error {
		for i := range d.submissions {
			if d.submissions[i].ID == id {
				fn(&d.submissions[i])
				return nil
			}
		}
		return apperrors.NewResourceNotFoundError("submission not found")
	})
}

func (r submissionRepo) Lock(_ context.Context, id int64, at time.Time) error {
	return r.mutate(OpSubmissionLock, id, func(s *models.Submission) {
		s.UpdatedAt = at
		s.Status = models.StatusPending
		s.IsLocked = true
	})
}

func (r submissionRepo) UpdateStatus(_ context.Context, id int64, status models.SubmissionStatus) error {
	return r.mutate(OpSubmissionStatus, id, func(s *models.Submission) {
		s.Status = status
	})
}

func latestSubmission(d *dataset, applicationID int64, match func(models.Submission) bool) *models.Submission {
	var latest *models.Submission
	for i := range d.submissions {
		s := &d.submissions[i]
		if s.ApplicationID != applicationID || (match != nil && !match(*s)) {
			continue
		}
		if latest == nil || s.SubmittedAt.After(latest.SubmittedAt) ||
			(s.SubmittedAt.Equal(latest.SubmittedAt) && s.ID > latest.ID) {
			latest = s
		}
	}
	return latest
}

func (r submissionRepo) latest(applicationID int64, match func(models.Submission) bool) (*models.Submission, error) {
	var out *models.Submission
	err := r.v.run("submissions.get_latest", func(d *dataset) error {
		latest := latestSubmission(d, applicationID, match)
		if latest == nil {
			return apperrors.NewResourceNotFoundError("submission not found")
		}
		found := *latest
		out = &found
		return nil
	})
	return out, err
}

func (r submissionRepo) GetLatestByApplicationID(_ context.Context, applicationID int64) (*models.Submission, error) {
	return r.latest(applicationID, nil)
}

func (r submissionRepo) GetLatestUnlockedByApplicationID(_ context.Context, applicationID int64) (*models.Submission, error) {
	return r.latest(applicationID, func(s models.Submission) bool { return !s.IsLocked })
}

func (r submissionRepo) HasLocked(_ context.Context, applicationID int64) (bool, error) {
	var locked bool
	err := r.v.run("submissions.has_locked", func(d *dataset) error {
		locked = latestSubmission(d, applicationID, func(s models.Submission) bool { return s.IsLocked }) != nil
		return nil
	})
	return locked, err
}

func (r submissionRepo) ListByApplicationID(_ context.Context, applicationID int64) ([]models.Submission, error) {
	var out []models.Submission
	err := r.v.run("submissions.list", func(d *dataset) error {
		for _, s := range d.submissions {
			if s.ApplicationID == applicationID {
				out = append(out, s)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func hasApplication(d *dataset, id int64) bool {
	for _, a := range d.applications {
		if a.ID == id {
			return true
		}
	}
	return false
}

// documents ------------------------------------------------------------------

type documentRepo struct{ v view }

func (r documentRepo) Create(_ context.Context, doc *models.Document) error {
	return r.v.run(OpDocumentCreate, func(d *dataset) error {
		if !hasApplication(d, doc.ApplicationID) {
			return apperrors.NewResourceNotFoundError("application not found")
		}
		doc.ID = d.id()
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = r.v.s.now()
		}
		d.documents = append(d.documents, *doc)
		return nil
	})
}

func (r documentRepo) ListByApplicationID(ctx context.Context, applicationID int64) ([]models.Document, error) {
	byApp, err := r.ListByApplicationIDs(ctx, []int64{applicationID})
	if err != nil {
		return nil, err
	}
	return byApp[applicationID], nil
}

func (r documentRepo) ListByApplicationIDs(_ context.Context, applicationIDs []int64) (map[int64][]models.Document, error) {
	wanted := make(map[int64]bool, len(applicationIDs))
	for _, id := range applicationIDs {
		wanted[id] = true
	}

	out := make(map[int64][]models.Document, len(applicationIDs))
	err := r.v.run("documents.list", func(d *dataset) error {
		for _, doc := range d.documents {
			if wanted[doc.ApplicationID] {
				out[doc.ApplicationID] = append(out[doc.ApplicationID], doc)
			}
		}
		return nil
	})
	for id := range out {
		docs := out[id]
		sort.SliceStable(docs, func(i, j int) bool {
			if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
				return docs[i].UploadedAt.Before(docs[j].UploadedAt)
			}
			return docs[i].ID < docs[j].ID
		})
	}
	return out, err
}

// review ---------------------------------------------------------------------

type reviewRepo struct{ v view }

func (r reviewRepo) ListLatest(_ context.Context) ([]models.Applicant, error) {
	var out []models.Applicant
	err := r.v.run(OpReviewList, func(d *dataset) error {
		for _, u := range d.users {
			if u.Role != models.RoleStudent {
				continue
			}
			var app *models.Application
			for i := range d.applications {
				if d.applications[i].UserID == u.ID && (app == nil || d.applications[i].ID > app.ID) {
					app = &d.applications[i]
				}
			}
			if app == nil {
				continue
			}
			sub := latestSubmission(d, app.ID, nil)
			if sub == nil {
				continue
			}
			found := *sub
			out = append(out, models.Applicant{
				User:        copyUser(u),
				Application: copyApplication(*app),
				Submission:  &found,
			})
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Submission, out[j].Submission
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID > b.ID
	})
	return out, err
}

func (r reviewRepo) GetApplicant(_ context.Context, applicationID int64) (*models.Applicant, error) {
	var out *models.Applicant
	err := r.v.run("review.get", func(d *dataset) error {
		var app *models.Application
		for i := range d.applications {
			if d.applications[i].ID == applicationID {
				app = &d.applications[i]
				break
			}
		}
		if app == nil {
			return apperrors.NewResourceNotFoundError("application not found")
		}

		applicant := &models.Applicant{Application: copyApplication(*app)}
		for _, u := range d.users {
			if u.ID == app.UserID {
				applicant.User = copyUser(u)
				break
			}
		}
		if sub := latestSubmission(d, app.ID, nil); sub != nil {
			found := *sub
			applicant.Submission = &found
		}
		out = applicant
		return nil
	})
	return out, err
}
