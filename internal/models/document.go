package models

import "time"

// Transcription statuses stored on a Document record.
const (
	StatusTranscribing = "TRANSCRIBING"
	StatusCompleted    = "COMPLETED"
	StatusFailed       = "FAILED"
)

// Document represents the record for one PDF transcription job in Firestore.
// It tracks the overall status and metadata of the file.
type Document struct {
	FileHash         string    `firestore:"fileHash,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty"`
	PageCount        int       `firestore:"pageCount,omitempty"`
	FailedPages      []int     `firestore:"failedPages,omitempty"` // 1-based
	TranscriptURI    string    `firestore:"transcriptUri,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
}
