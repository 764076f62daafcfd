package constant

// RunStatus values for a matching session. A session is terminal once it
// reaches Complete or Failed and is never reused.
const (
	RunStatusRunning       = "running"
	RunStatusAwaitingInput = "awaiting_input"
	RunStatusResuming      = "resuming"
	RunStatusComplete      = "complete"
	RunStatusFailed        = "failed"
)

// Stage names used in error records and logs.
const (
	StageIngestTarget   = "ingest_target"
	StageIngestDocument = "ingest_document"
	StageDerive         = "derive_criteria"
	StageScore          = "score_match"
	StageAskQuestion    = "ask_question"
	StageGeneratePoints = "generate_points"
	StageGenerateEssay  = "generate_essay"
)

// Defaults for the scoring thresholds. Both are independently configurable;
// do not assume a fixed ratio between them.
const (
	DefaultGapThreshold   = 0.7
	DefaultMatchThreshold = 0.8
)

const (
	// DefaultTone is used when the derivation stage returns no tone.
	DefaultTone = "sincere"

	// DefaultGapPrompt is used when the derivation stage returns no gap prompt.
	DefaultGapPrompt = "Tell us more about your experience in this area."
)
