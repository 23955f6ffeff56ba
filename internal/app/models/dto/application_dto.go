package dto

import (
	"time"

	"github.com/elimishatrust/studyloan/internal/app/models"
)

// MessageResponse carries a human-readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// SubmitResponse is returned by a successful submit
type SubmitResponse struct {
	ApplicationID int64  `json:"applicationId"`
	SubmissionID  int64  `json:"submissionId"`
	Status        string `json:"status"`
	Locked        bool   `json:"locked"`
	NewCycle      bool   `json:"newCycle"`
	Message       string `json:"message"`
}

// SubmissionStatusResponse is the applicant's view of their latest cycle
type SubmissionStatusResponse struct {
	ApplicationID int64      `json:"applicationId"`
	HasSubmission bool       `json:"hasSubmission"`
	Status        string     `json:"status,omitempty"`
	Locked        bool       `json:"locked"`
	SubmittedAt   *time.Time `json:"submittedAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// ApplicationResponse is returned after a draft update
type ApplicationResponse struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Details   models.Details `json:"details"`
	CreatedAt time.Time      `json:"createdAt"`
}

// UpdateStatusRequest is sent by staff to decide a submission
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SubmissionResponse summarizes one ledger entry
type SubmissionResponse struct {
	ID          int64     `json:"id"`
	Status      string    `json:"status"`
	IsLocked    bool      `json:"isLocked"`
	SubmittedAt time.Time `json:"submittedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DocumentResponse represents the response for a document
type DocumentResponse struct {
	ID          int64     `json:"id" example:"123"`
	FileName    string    `json:"fileName" example:"payslip.pdf"`
	FileURL     string    `json:"fileUrl" example:"http://localhost:8080/uploads/3f0c.pdf"`
	FileSize    int64     `json:"fileSize" example:"1048576"`
	ContentType string    `json:"contentType" example:"application/pdf"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// DocumentListResponse represents a collection of documents
type DocumentListResponse struct {
	ApplicationID int64              `json:"applicationId"`
	Documents     []DocumentResponse `json:"documents"`
}

// NewApplicationResponse projects an application
func NewApplicationResponse(app *models.Application) ApplicationResponse {
	details := app.Details
	if details == nil {
		details = models.Details{}
	}
	return ApplicationResponse{ID: app.ID, Name: app.Name, Details: details, CreatedAt: app.CreatedAt}
}

// NewSubmissionStatusResponse projects the latest entry of an application, which may be nil
func NewSubmissionStatusResponse(applicationID int64, sub *models.Submission) SubmissionStatusResponse {
	resp := SubmissionStatusResponse{ApplicationID: applicationID}
	if sub == nil {
		return resp
	}
	submittedAt, updatedAt := sub.SubmittedAt, sub.UpdatedAt
	resp.HasSubmission = true
	resp.Status = string(sub.Status)
	resp.Locked = sub.IsLocked
	resp.SubmittedAt = &submittedAt
	resp.UpdatedAt = &updatedAt
	return resp
}

// NewSubmissionResponse projects a ledger entry
func NewSubmissionResponse(sub *models.Submission) *SubmissionResponse {
	if sub == nil {
		return nil
	}
	return &SubmissionResponse{
		ID:          sub.ID,
		Status:      string(sub.Status),
		IsLocked:    sub.IsLocked,
		SubmittedAt: sub.SubmittedAt,
		UpdatedAt:   sub.UpdatedAt,
	}
}

// NewDocumentResponse projects a document
func NewDocumentResponse(doc *models.Document) DocumentResponse {
	return DocumentResponse{
		ID:          doc.ID,
		FileName:    doc.FileName,
		FileURL:     doc.FileURL,
		FileSize:    doc.FileSize,
		ContentType: doc.ContentType,
		UploadedAt:  doc.UploadedAt,
	}
}

// NewDocumentListResponse keeps the upload order of docs
func NewDocumentListResponse(applicationID int64, docs []models.Document) DocumentListResponse {
	out := DocumentListResponse{ApplicationID: applicationID, Documents: make([]DocumentResponse, 0, len(docs))}
	for i := range docs {
		out.Documents = append(out.Documents, NewDocumentResponse(&docs[i]))
	}
	return out
}
