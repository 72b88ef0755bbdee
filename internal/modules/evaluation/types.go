package evaluation

// Score categories. Keys of EvaluationResult.Scores and the columns they map
// to in the showcases table.
const (
	ScoreAesthetic     = "aesthetic"
	ScoreUsability     = "usability"
	ScoreAlignment     = "alignment"
	ScoreAccessibility = "accessibility"
	ScoreConsistency   = "consistency"
)

var scoreCategories = []string{
	ScoreAesthetic,
	ScoreUsability,
	ScoreAlignment,
	ScoreAccessibility,
	ScoreConsistency,
}

// ParseMode records how an EvaluationResult was derived.
type ParseMode string

const (
	ParseModeJSON      ParseMode = "json"
	ParseModeHeuristic ParseMode = "heuristic"
	ParseModeFallback  ParseMode = "fallback"
)

// EvaluationInput is one image to evaluate. Index is the caller's position
// in the submitted batch; results are reported in the same order.
type EvaluationInput struct {
	ImageRef       string
	ProjectContext string
	Index          int
}

// EvaluationResult is the fully-populated outcome for one input. Every field
// is non-empty after normalization; there is no partial result. Scores are
// normalized to [0,1]; a category absent from the map was not scored.
type EvaluationResult struct {
	UIType        string             `json:"ui_type"`
	StructureNote string             `json:"structure_note"`
	ReviewText    string             `json:"review_text"`
	Tags          []string           `json:"tags"`
	Scores        map[string]float64 `json:"scores,omitempty"`
	ParseMode     ParseMode          `json:"parse_mode"`
}

// ItemError records why one item's evaluation fell back.
type ItemError struct {
	Index  int
	Reason string
}

// BatchRequest is the submission payload.
type BatchRequest struct {
	ProjectName    string   `json:"projectName" binding:"required"`
	ProjectContext string   `json:"projectContext"`
	ImageURLs      []string `json:"imageUrls" binding:"required,min=1"`
	BatchSize      int      `json:"batchSize"`
}

// PhaseCounts splits successes from failures for one pipeline phase.
type PhaseCounts struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

type BatchDetails struct {
	Evaluation PhaseCounts `json:"evaluation"`
	Save       PhaseCounts `json:"save"`
}

// BatchSummary is the complete, ordered accounting the caller receives.
type BatchSummary struct {
	SavedCount  int          `json:"savedCount"`
	TotalImages int          `json:"totalImages"`
	Details     BatchDetails `json:"details"`
	Warnings    []string     `json:"warnings"`
	SavedIDs    []string     `json:"savedIds"`
}
