// Package services holds the business operations of the loan intake backend.
//
// Services defined in this package:
// - AuthService: registration, account verification, login and token resolution
// - ApplicationService: submit, draft updates and submission status of applicants
// - DocumentService: document uploads owned by an applicant's latest application
// - ReviewService: the staff review surface and status decisions
// - UserService: admin operations on accounts and staff
package services

import (
	"context"
	"time"

	"github.com/elimishatrust/studyloan/internal/app/repositories"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/elimishatrust/studyloan/internal/pkg/auth"
	"github.com/elimishatrust/studyloan/internal/pkg/email"
	"github.com/elimishatrust/studyloan/internal/pkg/filestorage"
	"github.com/elimishatrust/studyloan/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

const defaultNotifyTimeout = 10 * time.Second

// Options tune service behaviour. Zero values fall back to defaults.
type Options struct {
	FrontendURL       string
	ApplicationsInbox string
	NotifyTimeout     time.Duration
	MaxUploadBytes    int64
	Now               func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Dependencies are the collaborators shared by all services
type Dependencies struct {
	Store    repositories.Store
	Hasher   *auth.PasswordHasher
	JWT      *auth.JWTService
	Notifier email.Notifier
	Storage  filestorage.FileStorage
	Logger   zerolog.Logger
	Options  Options
}

// Services bundles the application services
type Services struct {
	Auth         *AuthService
	Applications *ApplicationService
	Documents    *DocumentService
	Review       *ReviewService
	Users        UserService
}

// NewServices wires every service from deps
func NewServices(deps Dependencies) *Services {
	return &Services{
		Auth:         NewAuthService(deps.Store, deps.Hasher, deps.JWT, deps.Notifier, deps.Options, deps.Logger),
		Applications: NewApplicationService(deps.Store, deps.Notifier, deps.Options, deps.Logger),
		Documents:    NewDocumentService(deps.Store, deps.Storage, deps.Options, deps.Logger),
		Review:       NewReviewService(deps.Store, deps.Logger),
		Users:        NewUserService(deps.Store, deps.Hasher, deps.Logger),
	}
}

// storeError keeps errors that already carry a kind and wraps everything else
// as a dependency failure
func storeError(err error, message string) error {
	if err == nil {
		return nil
	}
	if apperrors.KindOf(err) != apperrors.KindInternal {
		return err
	}
	return apperrors.NewDependencyError(message, err)
}

// notifier delivers best-effort messages. Failures are logged and counted, never returned.
type notifier struct {
	delegate email.Notifier
	timeout  time.Duration
	logger   zerolog.Logger
}

func newNotifier(delegate email.Notifier, timeout time.Duration, logger zerolog.Logger) *notifier {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &notifier{delegate: delegate, timeout: timeout, logger: logger}
}

// send runs after the request's unit of work committed, so it must outlive a
// cancelled request context
func (n *notifier) send(ctx context.Context, kind string, msg email.Message) {
	if n == nil || n.delegate == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	err := n.delegate.Notify(ctx, msg)
	metrics.RecordNotification(kind, err)
	if err != nil {
		n.logger.Warn().Err(err).
			Str("kind", kind).
			Str("to", msg.To).
			Msg("Failed to send notification")
		return
	}
	n.logger.Debug().Str("kind", kind).Str("to", msg.To).Msg("Notification sent")
}
