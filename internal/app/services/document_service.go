package services

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/app/repositories"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/elimishatrust/studyloan/internal/pkg/filestorage"
	"github.com/elimishatrust/studyloan/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// DefaultMaxUploadBytes applies when no limit is configured
const DefaultMaxUploadBytes int64 = 10 << 20

// Upload is a file received from an applicant
type Upload struct {
	FileName    string
	ContentType string
	Size        int64 // declared size, -1 when unknown
	Content     io.Reader
}

// DocumentService stores applicant documents and links them to the latest application
type DocumentService struct {
	store    repositories.Store
	storage  filestorage.FileStorage
	maxBytes int64
	now      func() time.Time
	logger   zerolog.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(store repositories.Store, storage filestorage.FileStorage, opts Options, logger zerolog.Logger) *DocumentService {
	maxBytes := opts.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &DocumentService{
		store:    store,
		storage:  storage,
		maxBytes: maxBytes,
		now:      opts.now,
		logger:   logger,
	}
}

// MaxUploadBytes returns the configured size limit
func (s *DocumentService) MaxUploadBytes() int64 {
	return s.maxBytes
}

func (s *DocumentService) tooLarge() error {
	return apperrors.NewValidationError(filestorage.ErrTooLarge.Error()).
		WithField("file").
		WithDetails(map[string]interface{}{"maxBytes": s.maxBytes})
}

// Upload stores the file and records a document on the caller's latest application.
// If the record cannot be written the stored object is removed again.
func (s *DocumentService) Upload(ctx context.Context, user *models.User, up Upload) (*dto.DocumentResponse, error) {
	if user == nil || !user.IsStudent() {
		return nil, apperrors.NewForbiddenError("only students can upload documents")
	}
	if up.Content == nil {
		return nil, apperrors.NewValidationError("file is required").WithField("file")
	}
	if up.Size > s.maxBytes {
		return nil, s.tooLarge()
	}

	app, err := s.store.Applications().GetLatestByUserID(ctx, user.ID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError("application not found")
		}
		return nil, storeError(err, "failed to load application")
	}

	name := cleanFileName(up.FileName)
	stored, err := s.storage.Store(ctx, name, io.LimitReader(up.Content, s.maxBytes+1))
	if err != nil {
		metrics.RecordUpload(0, err)
		s.logger.Error().Err(err).Int64("applicationID", app.ID).Msg("Failed to store document")
		return nil, apperrors.NewDependencyError("failed to store file", err)
	}
	if stored.Size > s.maxBytes {
		s.discard(ctx, stored)
		metrics.RecordUpload(0, filestorage.ErrTooLarge)
		return nil, s.tooLarge()
	}

	doc := &models.Document{
		ApplicationID: app.ID,
		FileURL:       stored.URL,
		StorageKey:    stored.Key,
		FileName:      name,
		ContentType:   up.ContentType,
		FileSize:      stored.Size,
		UploadedAt:    s.now().UTC(),
	}
	if err := s.store.Documents().Create(ctx, doc); err != nil {
		s.discard(ctx, stored)
		metrics.RecordUpload(0, err)
		return nil, storeError(err, "failed to record document")
	}

	metrics.RecordUpload(stored.Size, nil)
	s.logger.Info().
		Int64("applicationID", app.ID).
		Int64("documentID", doc.ID).
		Int64("size", doc.FileSize).
		Msg("Document uploaded")

	resp := dto.NewDocumentResponse(doc)
	return &resp, nil
}

// discard removes a stored object that will not be referenced
func (s *DocumentService) discard(ctx context.Context, stored *filestorage.StoredFile) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), stored.Key); err != nil {
		s.logger.Warn().Err(err).Str("key", stored.Key).Msg("Failed to remove orphaned file")
	}
}

// List returns the documents of the caller's latest application in upload order
func (s *DocumentService) List(ctx context.Context, user *models.User) (*dto.DocumentListResponse, error) {
	if user == nil || !user.IsStudent() {
		return nil, apperrors.NewForbiddenError("only students have documents")
	}

	app, err := s.store.Applications().GetLatestByUserID(ctx, user.ID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError("application not found")
		}
		return nil, storeError(err, "failed to load application")
	}

	docs, err := s.store.Documents().ListByApplicationID(ctx, app.ID)
	if err != nil {
		return nil, storeError(err, "failed to list documents")
	}

	resp := dto.NewDocumentListResponse(app.ID, docs)
	return &resp, nil
}

func cleanFileName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "document"
	}
	if r := []rune(name); len(r) > 255 {
		name = string(r[:255])
	}
	return name
}
