package models

// AnswerStatus is the machine-checkable terminal status of a question.
// Callers branch on it; it is never free text.
type AnswerStatus string

const (
	// StatusAnswered means the answer was generated and passed validation
	StatusAnswered AnswerStatus = "answered"
	// StatusRefusedSensitive means a sensitive question had no authoritative coverage
	StatusRefusedSensitive AnswerStatus = "refused_sensitive"
	// StatusInsufficientInfo means retrieval produced no passages at all
	StatusInsufficientInfo AnswerStatus = "insufficient_info"
	// StatusValidationFailed means the generated answer failed grounding checks
	StatusValidationFailed AnswerStatus = "validation_failed"
	// StatusError means the generation service failed after retries
	StatusError AnswerStatus = "error"
	// StatusNotReady means the indexes have not been built yet
	StatusNotReady AnswerStatus = "not_ready"
)

// AskRequest is the inbound question payload
type AskRequest struct {
	Question string `json:"question" validate:"required,min=1"`
}

// AnswerResponse is the answer-shaped response every question receives,
// including refusals and caught errors.
type AnswerResponse struct {
	Answer    string       `json:"answer"`
	Status    AnswerStatus `json:"status"`
	Citations []Citation   `json:"citations"`
}
