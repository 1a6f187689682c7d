package models

// SourceKind identifies which corpus a passage came from
type SourceKind string

const (
	// SourceAuthoritative is the curated, vetted product knowledge base
	SourceAuthoritative SourceKind = "authoritative"
	// SourceSupplemental is the looser corpus (review/video transcripts)
	SourceSupplemental SourceKind = "supplemental"
)

// Passage is an immutable unit of retrievable text. Every passage stored
// in an index carries a non-empty (SourceKind, DocID, ChunkID) triple
// usable as a citation key.
type Passage struct {
	Content    string     `json:"content"`
	SourceKind SourceKind `json:"source_kind"`
	DocID      string     `json:"doc_id"`   // Unique within SourceKind (e.g. "F3", "E12")
	ChunkID    string     `json:"chunk_id"` // Unique within DocID (e.g. "c1")

	// Optional provenance
	Title  string `json:"title,omitempty"`
	Origin string `json:"origin,omitempty"` // Original identifier from the source (file path, video id)
}

// CitationKey returns the stable identifier used to cite this passage
func (p *Passage) CitationKey() string {
	return string(p.SourceKind) + ":" + p.DocID + ":" + p.ChunkID
}

// Citation is a read-only projection of a passage's identity triple,
// produced only for passages that contributed to a delivered answer.
type Citation struct {
	Source  string `json:"source"`
	DocID   string `json:"doc_id"`
	ChunkID string `json:"chunk_id"`
}

// NewCitation projects a passage into its citation
func NewCitation(p Passage) Citation {
	return Citation{
		Source:  string(p.SourceKind),
		DocID:   p.DocID,
		ChunkID: p.ChunkID,
	}
}
