package agent

// SourceType tells how a source contributed to an answer.
type SourceType string

const (
	// SourceFallback marks whole-file context used without retrieval.
	SourceFallback SourceType = "fallback"
	// SourceRetrieved marks a chunk returned by a retriever.
	SourceRetrieved SourceType = "retrieved"
)

// Source is one piece of evidence an answer drew on.
type Source struct {
	Filename string     `json:"filename"`
	Content  string     `json:"content"`
	Type     SourceType `json:"type"`
}

// Answer is what an agent returns for a query.
type Answer struct {
	Text          string   `json:"answer"`
	Sources       []Source `json:"sources"`
	RAGUsed       bool     `json:"rag_used"`
	EvidenceFiles int      `json:"evidence_files"`
}
