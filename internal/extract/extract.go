package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"docstructgo/internal/models"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrUnsupportedFileType is returned for MIME types without an extractor.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrExtractionFailed wraps any failure inside an extractor.
	ErrExtractionFailed = errors.New("text extraction failed")
)

// Extractor pulls plain text out of one kind of document file.
type Extractor interface {
	Extract(ctx context.Context, path string) (text string, pageCount int, err error)
}

// Service dispatches extraction over the declared MIME type. Adding a file
// kind means registering one more Extractor; call sites do not change.
type Service struct {
	byType map[string]Extractor
}

// NewService returns a Service with the PDF and DOCX extractors registered.
func NewService() *Service {
	return &Service{
		byType: map[string]Extractor{
			MimePDF:  &pdfExtractor{},
			MimeDOCX: &docxExtractor{},
		},
	}
}

// SupportedTypes lists the MIME types the service accepts.
func (s *Service) SupportedTypes() []string {
	types := make([]string, 0, len(s.byType))
	for t := range s.byType {
		types = append(types, t)
	}
	return types
}

// Extract converts the file at path into plain text plus basic metadata.
// The measured processing time is informational only.
func (s *Service) Extract(ctx context.Context, path, fileType string) (*models.ExtractionResult, error) {
	extractor, ok := s.byType[fileType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, fileType)
	}

	start := time.Now()
	text, pageCount, err := extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	result := &models.ExtractionResult{
		Text:      text,
		PageCount: pageCount,
	}
	result.Metadata.ProcessingTime = time.Since(start).Seconds()
	if info, statErr := os.Stat(path); statErr == nil {
		result.Metadata.FileSize = info.Size()
	}
	return result, nil
}
