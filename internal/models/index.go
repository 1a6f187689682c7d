package models

// IndexKind names the two vector indexes the pipeline queries
type IndexKind string

const (
	// IndexAuthoritative holds passages from the curated facts source
	IndexAuthoritative IndexKind = "authoritative"
	// IndexSupplemental holds passages from the looser transcript source
	IndexSupplemental IndexKind = "supplemental"
)

// SourceKind maps the index kind to the source kind of its passages
func (k IndexKind) SourceKind() SourceKind {
	if k == IndexAuthoritative {
		return SourceAuthoritative
	}
	return SourceSupplemental
}

// IndexPhase is the lifecycle of a vector index. Readers must never
// observe PhaseBuilding internals; the index manager publishes Ready
// snapshots atomically.
type IndexPhase string

const (
	PhaseUnbuilt  IndexPhase = "unbuilt"
	PhaseBuilding IndexPhase = "building"
	PhaseReady    IndexPhase = "ready"
)

// IndexStatus is the externally visible state of one index kind
type IndexStatus struct {
	Kind     IndexKind  `json:"kind"`
	Phase    IndexPhase `json:"phase"`
	Passages int        `json:"passages"`
	Restored bool       `json:"restored"` // true when loaded from the disk cache rather than rebuilt
}
