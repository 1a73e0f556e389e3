package models

// TraceDocument is a recorded tracing session replayed by the evaluation service.
// Strokes are raw pointer samples in start-to-release order.
type TraceDocument struct {
	Perimeter []Point        `json:"perimeter" binding:"required"`
	Strokes   [][]Point      `json:"strokes"`
	Metadata  RecordMetadata `json:"metadata,omitempty"`
}

// BatchRequest carries several trace documents evaluated independently.
type BatchRequest struct {
	Documents []TraceDocument `json:"documents" binding:"required"`
}

// RejectedStroke reports a stroke that failed simplification or classification.
type RejectedStroke struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// EvaluationResponse is the outcome of replaying one trace document.
type EvaluationResponse struct {
	Record            *AnalysisRecord  `json:"record,omitempty"`
	Rejected          []RejectedStroke `json:"rejected,omitempty"`
	Warnings          []string         `json:"warnings,omitempty"`
	ProcessingTimeSec float64          `json:"processing_time_sec"`
	Error             *ErrorResponse   `json:"error,omitempty"`
}

// BatchResponse keeps the input order of the documents.
type BatchResponse struct {
	Results []EvaluationResponse `json:"results"`
}

// RatingResponse is returned when rating caller-supplied metrics.
type RatingResponse struct {
	Rating    RatingResult   `json:"rating"`
	Breakdown []BreakdownRow `json:"breakdown"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
