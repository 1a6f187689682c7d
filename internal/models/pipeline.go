package models

// PipelineContext is the request-scoped state threaded through the
// orchestrator stages. It is exclusively owned by one in-flight question
// and discarded after the terminal stage, so no locking is needed.
type PipelineContext struct {
	ID       string // request id for audit logging
	Question string

	RetrievedAuthoritative []Passage
	RetrievedSupplemental  []Passage

	IsSensitive       bool
	NeedsSupplemental bool

	Answer    string
	Status    AnswerStatus
	Citations []Citation
}

// CombinedPassages returns authoritative passages followed by supplemental
// ones. Authoritative order first is the priority order for both grounding
// and citation.
func (c *PipelineContext) CombinedPassages() []Passage {
	combined := make([]Passage, 0, len(c.RetrievedAuthoritative)+len(c.RetrievedSupplemental))
	combined = append(combined, c.RetrievedAuthoritative...)
	combined = append(combined, c.RetrievedSupplemental...)
	return combined
}

// Response projects the terminal context into the user-visible answer shape
func (c *PipelineContext) Response() AnswerResponse {
	citations := c.Citations
	if citations == nil {
		citations = []Citation{}
	}
	return AnswerResponse{
		Answer:    c.Answer,
		Status:    c.Status,
		Citations: citations,
	}
}
