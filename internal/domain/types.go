package domain

import "fmt"

// Chunk kinds as stored in the index metadata.
const (
	KindFunction        = "function"
	KindClass           = "class"
	KindMarkdownSection = "markdown-section"
	KindCodeSection     = "code-section"
)

// EvidenceChunk is a semantically coherent fragment of the analyzed repository
// with its location metadata. Chunks are created at index build time and are
// read-only afterwards.
type EvidenceChunk struct {
	Text       string `json:"text"`
	SourcePath string `json:"source_path"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Kind       string `json:"kind"`
}

// Citation returns the path:start-end token identifying this chunk's location.
func (c EvidenceChunk) Citation() string {
	return fmt.Sprintf("%s:%d-%d", c.SourcePath, c.StartLine, c.EndLine)
}

// RetrievedChunk pairs an evidence chunk with its similarity score for one
// query. The score is query-scoped and discarded when the query completes.
type RetrievedChunk struct {
	EvidenceChunk
	Score float64
}

// ConversationTurn is one completed query/answer exchange.
type ConversationTurn struct {
	Query  string
	Answer string
}

// FinalAnswer is the result of one pipeline execution.
type FinalAnswer struct {
	// Answer is the text delivered to the user. On failure it carries the
	// failure description instead of a generated answer.
	Answer string
	// JudgeScore is set only when judging is enabled.
	JudgeScore *int
	// HistoryEligible reports whether the turn may be retained in
	// conversation history.
	HistoryEligible bool
	// Err is the error marker set by a failed stage, empty on success.
	Err string
}
