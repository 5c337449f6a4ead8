package models

// StructuredOutput is the fixed four-field JSON shape produced by the
// inference step, plus processing metadata.
type StructuredOutput struct {
	Title     string          `json:"title"`
	Summary   string          `json:"summary"`
	KeyPoints []string        `json:"key_points"`
	Quotes    []string        `json:"quotes"`
	Metadata  *OutputMetadata `json:"metadata,omitempty"`
}

// OutputMetadata records how the structured output was produced.
type OutputMetadata struct {
	ExtractedAt    string  `json:"extracted_at"`
	Confidence     float64 `json:"confidence"`
	ProcessingTime float64 `json:"processing_time"`
}

// ExtractionResult holds the plain text pulled out of an uploaded document.
type ExtractionResult struct {
	Text      string `json:"text"`
	PageCount int    `json:"pageCount,omitempty"`
	Metadata  struct {
		FileSize       int64   `json:"fileSize"`
		ProcessingTime float64 `json:"processingTime"`
	} `json:"metadata"`
}
