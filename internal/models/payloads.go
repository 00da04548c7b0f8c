package models

// These structs define the JSON payloads for HTTP requests and responses
// of the summarizer function.

// SummarizeRequest is the input for the summarizer function.
type SummarizeRequest struct {
	DocumentID string `json:"documentId"`
	Text       string `json:"text"`
}

// SummarizeResponse is the output of the summarizer function.
type SummarizeResponse struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}
