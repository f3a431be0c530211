package domain

// FallbackAnswer is the exact sentence returned whenever the pipeline
// cannot produce a grounded answer. Clients match on it verbatim.
const FallbackAnswer = "I couldn't find that in the PDF."

type AnswerMode string

const (
	AnswerModeQuestion AnswerMode = "question"
	AnswerModeSummary  AnswerMode = "summary"
)

// Chunk is one stored slice of a document: trimmed non-empty text plus
// the 1-based page it was extracted from.
type Chunk struct {
	Text string `json:"text"`
	Page int    `json:"page"`
}

// Candidate is a chunk ranked against a question. Distance is inverse
// relevance: lower is better, always finite and positive.
type Candidate struct {
	Text     string  `json:"text"`
	Page     int     `json:"page"`
	Distance float64 `json:"distance"`
}

type SourceCitation struct {
	Page    int    `json:"page"`
	Snippet string `json:"snippet"`
}

type Answer struct {
	Text    string           `json:"answer"`
	Mode    AnswerMode       `json:"mode"`
	Sources []SourceCitation `json:"sources"`

	// Retrieved, Fallback and FallbackReason describe how the answer was
	// produced; they feed metrics and logs, not the response body.
	Retrieved      int    `json:"-"`
	Fallback       bool   `json:"-"`
	FallbackReason string `json:"-"`
}

// GenerationOptions are passed through to the generator backend opaquely.
type GenerationOptions struct {
	MaxTokens     int
	Temperature   float64
	ContextWindow int
}
