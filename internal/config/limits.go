package config

// Request validation limits.
const (
	MaxTitleLength     = 512
	MaxParagraphLength = 20000
	MaxBatchDocuments  = 200
	MaxReviewers       = 20
	MaxReasonLength    = 2000
	MaxCommentLength   = 10000
	MaxCollabPayload   = 1 << 20 // 1MB per CRDT update
)
