package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/elimishatrust/studyloan/internal/pkg/dberrors"
	"github.com/jackc/pgx/v5"
)

var documentColumns = []string{"id", "application_id", "file_url", "storage_key", "file_name", "content_type", "file_size", "uploaded_at"}

// PgDocumentRepository handles database operations for uploaded documents
type PgDocumentRepository struct {
	db DBTX
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	doc := &models.Document{}
	err := row.Scan(&doc.ID, &doc.ApplicationID, &doc.FileURL, &doc.StorageKey,
		&doc.FileName, &doc.ContentType, &doc.FileSize, &doc.UploadedAt)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Create inserts a document pointer
func (r *PgDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	sql, args, err := psql.Insert("documents").
		Columns("application_id", "file_url", "storage_key", "file_name", "content_type", "file_size").
		Values(doc.ApplicationID, doc.FileURL, doc.StorageKey, doc.FileName, doc.ContentType, doc.FileSize).
		Suffix("RETURNING id, uploaded_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&doc.ID, &doc.UploadedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewResourceNotFoundError("application not found")
		}
		return fmt.Errorf("error creating document: %w", err)
	}
	return nil
}

// ListByApplicationID returns the documents of an application in upload order
func (r *PgDocumentRepository) ListByApplicationID(ctx context.Context, applicationID int64) ([]models.Document, error) {
	byApp, err := r.ListByApplicationIDs(ctx, []int64{applicationID})
	if err != nil {
		return nil, err
	}
	return byApp[applicationID], nil
}

// ListByApplicationIDs loads the documents of many applications in one query
func (r *PgDocumentRepository) ListByApplicationIDs(ctx context.Context, applicationIDs []int64) (map[int64][]models.Document, error) {
	out := make(map[int64][]models.Document, len(applicationIDs))
	if len(applicationIDs) == 0 {
		return out, nil
	}

	sql, args, err := psql.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"application_id": applicationIDs}).
		OrderBy("uploaded_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning document: %w", err)
		}
		out[doc.ApplicationID] = append(out[doc.ApplicationID], *doc)
	}
	return out, rows.Err()
}
