package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"docstructgo/internal/fileutil"
	"docstructgo/internal/models"
	"docstructgo/internal/storage"
)

// TextExtractor converts an uploaded file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path, fileType string) (*models.ExtractionResult, error)
}

// Converter turns extracted text into the standardized structured output.
type Converter interface {
	Convert(ctx context.Context, text, outputStructure, processingMode string) (*models.StructuredOutput, error)
}

// Orchestrator drives one conversion through
// extract -> infer -> persist, owning all status transitions for the record.
type Orchestrator struct {
	store     *storage.MemoryStore
	extractor TextExtractor
	converter Converter
	outputDir string
	timeout   time.Duration
}

func NewOrchestrator(store *storage.MemoryStore, extractor TextExtractor, converter Converter, outputDir string, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:     store,
		extractor: extractor,
		converter: converter,
		outputDir: outputDir,
		timeout:   timeout,
	}
}

// Process runs one conversion's pipeline to a terminal state. It is meant to
// be launched on its own goroutine after the accepting request has returned;
// failures land in the record, never in a response. The uploaded temp file
// is removed on every path.
func (o *Orchestrator) Process(conversionID int64, tempPath, fileType, outputStructure, processingMode string) {
	defer fileutil.CleanupTempFile(tempPath)

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	conv, err := o.store.Get(conversionID)
	if err != nil {
		log.Error().Err(err).Int64("conversion_id", conversionID).Msg("pipeline aborted, record missing")
		return
	}

	if err := o.setStatus(conversionID, models.StatusProcessing); err != nil {
		log.Error().Err(err).Int64("conversion_id", conversionID).Msg("pipeline aborted, cannot mark processing")
		return
	}

	extraction, err := o.extractor.Extract(ctx, tempPath, fileType)
	if err != nil {
		o.fail(ctx, conversionID, err)
		return
	}
	log.Debug().
		Int64("conversion_id", conversionID).
		Int("page_count", extraction.PageCount).
		Float64("seconds", extraction.Metadata.ProcessingTime).
		Msg("text extracted")

	output, err := o.converter.Convert(ctx, extraction.Text, outputStructure, processingMode)
	if err != nil {
		o.fail(ctx, conversionID, err)
		return
	}

	filename := fileutil.OutputFilename(conv.OriginalName, conversionID)
	outputPath, err := fileutil.SaveJSON(o.outputDir, filename, output)
	if err != nil {
		o.fail(ctx, conversionID, err)
		return
	}

	seconds := 0
	confidence := "0.7"
	if output.Metadata != nil {
		seconds = int(math.Round(output.Metadata.ProcessingTime))
		confidence = strconv.FormatFloat(output.Metadata.Confidence, 'f', -1, 64)
	}
	now := time.Now().UTC()
	status := models.StatusCompleted
	if _, err := o.store.Update(conversionID, storage.ConversionUpdate{
		Status:         &status,
		JSONOutput:     output,
		ProcessingTime: &seconds,
		Confidence:     &confidence,
		OutputFilePath: &outputPath,
		CompletedAt:    &now,
	}); err != nil {
		log.Error().Err(err).Int64("conversion_id", conversionID).Msg("cannot record completion")
		return
	}

	log.Info().
		Int64("conversion_id", conversionID).
		Str("output_path", outputPath).
		Str("confidence", confidence).
		Msg("conversion completed")
}

func (o *Orchestrator) setStatus(conversionID int64, status models.ConversionStatus) error {
	_, err := o.store.Update(conversionID, storage.ConversionUpdate{Status: &status})
	return err
}

// fail records a terminal failure. A deadline hit anywhere in the pipeline
// is reported as a timeout rather than the raw cause.
func (o *Orchestrator) fail(ctx context.Context, conversionID int64, cause error) {
	msg := cause.Error()
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		msg = fmt.Sprintf("processing timed out after %s", o.timeout)
	}

	now := time.Now().UTC()
	status := models.StatusFailed
	if _, err := o.store.Update(conversionID, storage.ConversionUpdate{
		Status:       &status,
		ErrorMessage: &msg,
		CompletedAt:  &now,
	}); err != nil {
		log.Error().Err(err).Int64("conversion_id", conversionID).Msg("cannot record failure")
		return
	}

	log.Warn().Int64("conversion_id", conversionID).Str("error", msg).Msg("conversion failed")
}
