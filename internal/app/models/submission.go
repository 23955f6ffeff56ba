package models

import "time"

// Submission is a ledger entry tracking one application cycle's review outcome,
// based on the 'submissions' table. Locked never goes back to false.
type Submission struct {
	ID            int64            `json:"id" db:"id"`
	ApplicationID int64            `json:"applicationId" db:"application_id"`
	SubmittedAt   time.Time        `json:"submittedAt" db:"submitted_at"`
	UpdatedAt     time.Time        `json:"updatedAt" db:"updated_at"`
	Status        SubmissionStatus `json:"status" db:"status"`
	IsLocked      bool             `json:"isLocked" db:"is_locked"`
}

// Document points to an uploaded file owned by an application, based on the 'documents' table
type Document struct {
	ID            int64     `json:"id" db:"id"`
	ApplicationID int64     `json:"applicationId" db:"application_id"`
	FileURL       string    `json:"fileUrl" db:"file_url"`
	StorageKey    string    `json:"-" db:"storage_key"`
	FileName      string    `json:"fileName" db:"file_name"`
	ContentType   string    `json:"contentType" db:"content_type"`
	FileSize      int64     `json:"fileSize" db:"file_size"`
	UploadedAt    time.Time `json:"uploadedAt" db:"uploaded_at"`
}

// Applicant is the review view of one student: the latest application and its
// most recent ledger entry
type Applicant struct {
	User        User
	Application Application
	Submission  *Submission
	Documents   []Document
}
