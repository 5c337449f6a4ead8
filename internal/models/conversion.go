package models

import "time"

// ConversionStatus tracks a conversion through its lifecycle.
type ConversionStatus string

const (
	StatusPending    ConversionStatus = "pending"
	StatusProcessing ConversionStatus = "processing"
	StatusCompleted  ConversionStatus = "completed"
	StatusFailed     ConversionStatus = "failed"
)

// Terminal reports whether no further status transitions may occur.
func (s ConversionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Conversion represents one document's journey from upload to structured
// output or failure.
type Conversion struct {
	ID             int64             `json:"id"`
	Filename       string            `json:"filename"`
	OriginalName   string            `json:"originalName"`
	FileType       string            `json:"fileType"`
	FileSize       int64             `json:"fileSize"`
	Status         ConversionStatus  `json:"status"`
	JSONOutput     *StructuredOutput `json:"jsonOutput"`
	ErrorMessage   *string           `json:"errorMessage"`
	ProcessingTime *int              `json:"processingTime"`
	Confidence     *string           `json:"confidence"`
	OutputFilePath *string           `json:"outputFilePath"`
	CreatedAt      time.Time         `json:"createdAt"`
	CompletedAt    *time.Time        `json:"completedAt"`
}
