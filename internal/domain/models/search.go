package models

import (
	"fmt"
)

// Default search configuration values. The weight defaults can be overridden
// by the embedded search registry; these are the compiled-in fallbacks.
const (
	DefaultSearchLimit  = 10
	MaxSearchLimit      = 100
	DefaultSearchOffset = 0
	DefaultTextWeight   = 0.35
	DefaultVectorWeight = 0.65
	DefaultLexicalPool  = 500
	DefaultVectorPool   = 200
)

// HybridWeights controls how the lexical and vector scores are blended:
// finalScore = Text*textScore + Vector*vectorScore.
// Each weight must be >= 0 and at least one must be > 0.
type HybridWeights struct {
	Text   float64 `json:"text"`
	Vector float64 `json:"vector"`
}

// Validate checks the weight invariant.
func (w HybridWeights) Validate() error {
	if w.Text < 0 || w.Vector < 0 {
		return fmt.Errorf("weights must be non-negative (text=%v, vector=%v)", w.Text, w.Vector)
	}
	if w.Text == 0 && w.Vector == 0 {
		return fmt.Errorf("at least one weight must be positive")
	}
	return nil
}

// SearchOptions configures a hybrid paragraph search.
type SearchOptions struct {
	// Query is the free-text search string (required)
	Query string

	// Pagination over the full merged candidate set
	Limit  int // clamped to [1, MaxSearchLimit], default DefaultSearchLimit
	Offset int // clamped to >= 0

	// Weights blend the two score legs; nil means use configured defaults
	Weights *HybridWeights

	// LanguageCode optionally restricts both legs to paragraphs in this
	// language (BCP 47, e.g. "en-US"). Empty searches all languages.
	LanguageCode string

	// Candidate pool sizes, filled from the search registry when zero.
	// The vector pool is the top-K nearest neighbors considered for the
	// vector leg, independent of Limit.
	LexicalPool int
	VectorPool  int
}

// ApplyDefaults clamps pagination and fills unset pools and weights.
func (opts *SearchOptions) ApplyDefaults(defaults HybridWeights) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if opts.Limit > MaxSearchLimit {
		opts.Limit = MaxSearchLimit
	}
	if opts.Offset < 0 {
		opts.Offset = DefaultSearchOffset
	}
	if opts.Weights == nil {
		w := defaults
		opts.Weights = &w
	}
	if opts.LexicalPool <= 0 {
		opts.LexicalPool = DefaultLexicalPool
	}
	if opts.VectorPool <= 0 {
		opts.VectorPool = DefaultVectorPool
	}
}

// Validate checks that required fields are set and values are reasonable.
// Call after ApplyDefaults.
func (opts *SearchOptions) Validate() error {
	if opts.Query == "" {
		return fmt.Errorf("search query cannot be empty")
	}
	if opts.Weights == nil {
		return fmt.Errorf("weights not resolved")
	}
	if err := opts.Weights.Validate(); err != nil {
		return err
	}
	return nil
}

// ParagraphHit is one paragraph returned by a single search leg, carrying
// enough denormalized document fields to build a SearchHit without another
// round trip.
type ParagraphHit struct {
	DocumentID   string
	ParagraphID  string
	SnapshotID   *string // document's latest snapshot, if any
	LanguageCode string
	Title        string
	Heading      *string
	Body         string
	Snippet      string  // headline excerpt; lexical leg only
	Score        float64 // ts_rank or cosine similarity, depending on the leg
}

// SearchHit is one merged, scored paragraph in a hybrid result set.
// Ephemeral; produced per query and never persisted.
type SearchHit struct {
	DocumentID   string  `json:"documentId"`
	ParagraphID  string  `json:"paragraphId"`
	SnapshotID   *string `json:"snapshotId,omitempty"`
	LanguageCode string  `json:"languageCode"`
	Title        string  `json:"title"`
	Snippet      string  `json:"snippet"`
	TextScore    float64 `json:"textScore"`
	VectorScore  float64 `json:"vectorScore"`
	FinalScore   float64 `json:"finalScore"`
}

// SearchResults is a paginated page of hits. Total counts the full merged
// candidate set, not just this page.
type SearchResults struct {
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	Results []SearchHit `json:"results"`
}

// Citation links a generated answer back to a retrieved paragraph.
// Every search hit used as context becomes a citation; there is no
// grounding-verification step.
type Citation struct {
	DocumentID   string  `json:"documentId"`
	ParagraphID  string  `json:"paragraphId"`
	SnapshotID   *string `json:"snapshotId,omitempty"`
	LanguageCode string  `json:"languageCode"`
	Score        float64 `json:"score"`
	Excerpt      string  `json:"excerpt"`
}

// Answer is a generated natural-language answer with provenance.
type Answer struct {
	Answer     string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	TokensUsed *int       `json:"tokensUsed,omitempty"`
}
