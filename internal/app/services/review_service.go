package services

import (
	"context"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/app/repositories"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/elimishatrust/studyloan/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// ReviewService is the staff and admin view over every applicant
type ReviewService struct {
	store  repositories.Store
	logger zerolog.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(store repositories.Store, logger zerolog.Logger) *ReviewService {
	return &ReviewService{store: store, logger: logger}
}

func canReview(actor *models.User) bool {
	return actor != nil && (actor.Role == models.RoleStaff || actor.Role == models.RoleAdmin)
}

// ListApplicants returns one row per applicant: the latest application, its
// latest ledger entry and its documents, newest submission first
func (s *ReviewService) ListApplicants(ctx context.Context, actor *models.User) (*dto.ApplicantListResponse, error) {
	if !canReview(actor) {
		return nil, apperrors.NewForbiddenError("staff or admin access required")
	}

	applicants, err := s.store.Review().ListLatest(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list applicants")
	}

	ids := make([]int64, 0, len(applicants))
	for _, a := range applicants {
		ids = append(ids, a.Application.ID)
	}
	docs, err := s.store.Documents().ListByApplicationIDs(ctx, ids)
	if err != nil {
		return nil, storeError(err, "failed to list documents")
	}
	for i := range applicants {
		applicants[i].Documents = docs[applicants[i].Application.ID]
	}

	resp := dto.NewApplicantListResponse(applicants)
	return &resp, nil
}

// GetApplicant projects one application with its latest ledger entry
func (s *ReviewService) GetApplicant(ctx context.Context, actor *models.User, applicationID int64) (*dto.ApplicantResponse, error) {
	if !canReview(actor) {
		return nil, apperrors.NewForbiddenError("staff or admin access required")
	}

	applicant, err := s.store.Review().GetApplicant(ctx, applicationID)
	if err != nil {
		return nil, storeError(err, "failed to load applicant")
	}

	docs, err := s.store.Documents().ListByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, storeError(err, "failed to list documents")
	}
	applicant.Documents = docs

	resp := dto.NewApplicantResponse(applicant)
	return &resp, nil
}

// SetStatus records a staff decision on the latest ledger entry of an
// application. Only pending entries can be decided and the lock flag is untouched.
func (s *ReviewService) SetStatus(ctx context.Context, actor *models.User, applicationID int64, status string) (*dto.SubmissionResponse, error) {
	if actor == nil || actor.Role != models.RoleStaff {
		return nil, apperrors.NewForbiddenError("only staff can decide applications")
	}

	decision := models.SubmissionStatus(status)
	if !decision.IsDecision() {
		return nil, apperrors.NewInvalidStatusError("status must be approved or rejected").WithField("status")
	}

	var decided *models.Submission
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		sub, err := tx.Submissions().GetLatestByApplicationID(ctx, applicationID)
		if err != nil {
			return err
		}
		if sub.Status != models.StatusPending {
			return apperrors.NewConflictError("submission has already been " + string(sub.Status))
		}
		if err := tx.Submissions().UpdateStatus(ctx, sub.ID, decision); err != nil {
			return err
		}
		sub.Status = decision
		decided = sub
		return nil
	})
	if err != nil {
		return nil, storeError(err, "failed to update submission status")
	}

	metrics.RecordDecision(string(decision))
	s.logger.Info().
		Int64("staffUserID", actor.ID).
		Int64("applicationID", applicationID).
		Int64("submissionID", decided.ID).
		Str("status", string(decision)).
		Msg("Submission status updated")

	return dto.NewSubmissionResponse(decided), nil
}
