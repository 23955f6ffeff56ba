package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/app/repositories"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/elimishatrust/studyloan/internal/pkg/email"
	"github.com/elimishatrust/studyloan/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// ApplicationService orchestrates submissions and draft edits of applicants
type ApplicationService struct {
	store    repositories.Store
	notifier *notifier
	inbox    string
	now      func() time.Time
	logger   zerolog.Logger
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(store repositories.Store, notifier email.Notifier, opts Options, logger zerolog.Logger) *ApplicationService {
	return &ApplicationService{
		store:    store,
		notifier: newNotifier(notifier, opts.NotifyTimeout, logger),
		inbox:    opts.ApplicationsInbox,
		now:      opts.now,
		logger:   logger,
	}
}

// submitResult is what a submit transaction produced
type submitResult struct {
	application *models.Application
	submission  *models.Submission
	outcome     string
}

// Submit finalizes the caller's current application cycle.
//
// When the latest application already has a locked ledger entry a new
// application is created from the payload alone, with a self-locked entry.
// Otherwise the payload is merged into the latest application and its unlocked
// entry is relocked, or a locked entry is created. Everything happens in one
// transaction; the inbox notification is sent after commit and never fails the call.
func (s *ApplicationService) Submit(ctx context.Context, user *models.User, payload models.Details) (*dto.SubmitResponse, error) {
	if user == nil || !user.IsStudent() {
		return nil, apperrors.NewUnauthorizedError("only students can submit applications")
	}

	now := s.now().UTC()
	main, consent := models.Partition(payload, now)
	consentRaw, err := consent.Bytes()
	if err != nil {
		return nil, apperrors.NewValidationError("consent form could not be encoded")
	}

	var res submitResult
	err = s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		current, err := tx.Applications().GetLatestByUserID(ctx, user.ID)
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		locked := false
		if current != nil {
			if locked, err = tx.Submissions().HasLocked(ctx, current.ID); err != nil {
				return err
			}
		}

		if current == nil || locked {
			res, err = s.startCycle(ctx, tx, user, current, main, consent, consentRaw, now)
			return err
		}
		res, err = s.continueCycle(ctx, tx, current, main, consent, consentRaw, now)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Submission failed")
		return nil, storeError(err, "failed to submit application")
	}

	metrics.RecordSubmission(res.outcome)
	s.logger.Info().
		Int64("userID", user.ID).
		Int64("applicationID", res.application.ID).
		Int64("submissionID", res.submission.ID).
		Str("outcome", res.outcome).
		Msg("Application submitted")

	s.notifier.send(ctx, "application", email.NewApplicationMessage(
		s.inbox, res.application.Name, user.Email, res.application.ID, sectionNames(main)))

	return &dto.SubmitResponse{
		ApplicationID: res.application.ID,
		SubmissionID:  res.submission.ID,
		Status:        string(res.submission.Status),
		Locked:        res.submission.IsLocked,
		NewCycle:      res.outcome == metrics.OutcomeNewCycle,
		Message:       "Application submitted",
	}, nil
}

// startCycle creates a fresh application from the payload and a self-locked entry.
// previous is nil when the user has no application at all.
func (s *ApplicationService) startCycle(ctx context.Context, tx repositories.Store, user *models.User, previous *models.Application,
	main, consent models.Details, consentRaw json.RawMessage, now time.Time) (submitResult, error) {
	previousName, outcome := "", metrics.OutcomeFirstLock
	if previous != nil {
		previousName, outcome = previous.Name, metrics.OutcomeNewCycle
	}

	app := &models.Application{
		UserID:    user.ID,
		Name:      models.DeriveName(main, consent, previousName),
		Details:   main.With(models.SectionConsent, consentRaw),
		CreatedAt: now,
	}
	if err := tx.Applications().Create(ctx, app); err != nil {
		return submitResult{}, err
	}

	sub := &models.Submission{
		ApplicationID: app.ID,
		SubmittedAt:   now,
		Status:        models.StatusPending,
		IsLocked:      true,
	}
	if err := tx.Submissions().Create(ctx, sub); err != nil {
		return submitResult{}, err
	}
	return submitResult{application: app, submission: sub, outcome: outcome}, nil
}

// continueCycle merges into current and locks its ledger entry
func (s *ApplicationService) continueCycle(ctx context.Context, tx repositories.Store, current *models.Application,
	main, consent models.Details, consentRaw json.RawMessage, now time.Time) (submitResult, error) {
	current.Details = current.Details.Merge(main).With(models.SectionConsent, consentRaw)
	current.Name = models.DeriveName(main, consent, current.Name)
	if err := tx.Applications().Update(ctx, current); err != nil {
		return submitResult{}, err
	}

	open, err := tx.Submissions().GetLatestUnlockedByApplicationID(ctx, current.ID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return submitResult{}, err
	}

	if open != nil {
		if err := tx.Submissions().Lock(ctx, open.ID, now); err != nil {
			return submitResult{}, err
		}
		open.UpdatedAt = now
		open.Status = models.StatusPending
		open.IsLocked = true
		return submitResult{application: current, submission: open, outcome: metrics.OutcomeRelocked}, nil
	}

	sub := &models.Submission{
		ApplicationID: current.ID,
		SubmittedAt:   now,
		Status:        models.StatusPending,
		IsLocked:      true,
	}
	if err := tx.Submissions().Create(ctx, sub); err != nil {
		return submitResult{}, err
	}
	return submitResult{application: current, submission: sub, outcome: metrics.OutcomeFirstLock}, nil
}

// UpdateDetails shallow-merges patch into the caller's latest application while
// its cycle is still open
func (s *ApplicationService) UpdateDetails(ctx context.Context, user *models.User, patch models.Details) (*dto.ApplicationResponse, error) {
	if user == nil || !user.IsStudent() {
		return nil, apperrors.NewForbiddenError("only students can edit application details")
	}

	var updated *models.Application
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		current, err := tx.Applications().GetLatestByUserID(ctx, user.ID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewResourceNotFoundError("application not found")
			}
			return err
		}

		latest, err := tx.Submissions().GetLatestByApplicationID(ctx, current.ID)
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if latest != nil && latest.IsLocked {
			return apperrors.ErrApplicationLocked
		}

		current.Details = current.Details.Merge(patch)
		current.Name = models.DeriveName(patch, models.Details{}, current.Name)
		if err := tx.Applications().Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, storeError(err, "failed to update application details")
	}

	s.logger.Info().Int64("userID", user.ID).Int64("applicationID", updated.ID).Msg("Application details updated")
	resp := dto.NewApplicationResponse(updated)
	return &resp, nil
}

// GetSubmissionStatus reports the caller's latest application and ledger entry
func (s *ApplicationService) GetSubmissionStatus(ctx context.Context, user *models.User) (*dto.SubmissionStatusResponse, error) {
	if user == nil || !user.IsStudent() {
		return nil, apperrors.NewForbiddenError("only students have a submission status")
	}

	app, err := s.store.Applications().GetLatestByUserID(ctx, user.ID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError("application not found")
		}
		return nil, storeError(err, "failed to load application")
	}

	sub, err := s.store.Submissions().GetLatestByApplicationID(ctx, app.ID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, storeError(err, "failed to load submission")
	}

	resp := dto.NewSubmissionStatusResponse(app.ID, sub)
	return &resp, nil
}

func sectionNames(d models.Details) []string {
	names := make([]string, 0, len(d))
	for k := range d {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
