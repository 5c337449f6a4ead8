package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docstructgo/internal/fileutil"
	"docstructgo/internal/models"
	"docstructgo/internal/storage"
)

type fakeExtractor struct {
	text       string
	err        error
	block      bool
	seenStatus models.ConversionStatus
	store      *storage.MemoryStore
	id         int64
}

func (f *fakeExtractor) Extract(ctx context.Context, path, fileType string) (*models.ExtractionResult, error) {
	if f.store != nil {
		if conv, err := f.store.Get(f.id); err == nil {
			f.seenStatus = conv.Status
		}
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	result := &models.ExtractionResult{Text: f.text, PageCount: 2}
	result.Metadata.FileSize = 128
	result.Metadata.ProcessingTime = 0.01
	return result, nil
}

type fakeConverter struct {
	out     *models.StructuredOutput
	err     error
	gotMode string
}

func (f *fakeConverter) Convert(ctx context.Context, text, outputStructure, processingMode string) (*models.StructuredOutput, error) {
	f.gotMode = processingMode
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func validOutput() *models.StructuredOutput {
	return &models.StructuredOutput{
		Title:     "Doc",
		Summary:   "Summary",
		KeyPoints: []string{"point"},
		Quotes:    []string{},
		Metadata: &models.OutputMetadata{
			ExtractedAt:    time.Now().UTC().Format(time.RFC3339),
			Confidence:     0.9,
			ProcessingTime: 1.4,
		},
	}
}

func writeTemp(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.pdf")
	if err := os.WriteFile(path, []byte("binary"), 0o644); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	return path
}

func TestProcessSuccess(t *testing.T) {
	store := storage.NewMemoryStore()
	conv := store.Create(models.Conversion{OriginalName: "report.pdf", FileType: "application/pdf"})

	extractor := &fakeExtractor{text: "document text", store: store, id: conv.ID}
	converter := &fakeConverter{out: validOutput()}
	outputDir := t.TempDir()
	orch := NewOrchestrator(store, extractor, converter, outputDir, time.Minute)

	tempPath := writeTemp(t)
	orch.Process(conv.ID, tempPath, "application/pdf", "auto-detect", "accurate")

	got, err := store.Get(conv.ID)
	if err != nil {
		t.Fatalf("get after process: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s (error: %v)", got.Status, got.ErrorMessage)
	}
	if extractor.seenStatus != models.StatusProcessing {
		t.Fatalf("record was %s during extraction, want processing", extractor.seenStatus)
	}
	if got.JSONOutput == nil || got.JSONOutput.Title != "Doc" {
		t.Fatalf("json output not attached: %#v", got.JSONOutput)
	}
	if got.ErrorMessage != nil {
		t.Fatalf("completed record must not carry an error message")
	}
	if got.Confidence == nil || *got.Confidence != "0.9" {
		t.Fatalf("confidence not stringified: %v", got.Confidence)
	}
	if got.ProcessingTime == nil || *got.ProcessingTime != 1 {
		t.Fatalf("processing time not rounded to seconds: %v", got.ProcessingTime)
	}
	if got.CompletedAt == nil || got.CompletedAt.Before(got.CreatedAt) {
		t.Fatalf("completedAt invalid: %v", got.CompletedAt)
	}
	if converter.gotMode != "accurate" {
		t.Fatalf("processing mode not forwarded: %q", converter.gotMode)
	}

	if got.OutputFilePath == nil {
		t.Fatalf("output file path not recorded")
	}
	var persisted models.StructuredOutput
	if err := fileutil.ReadJSON(*got.OutputFilePath, &persisted); err != nil {
		t.Fatalf("read persisted output: %v", err)
	}
	if persisted.Title != got.JSONOutput.Title || persisted.Summary != got.JSONOutput.Summary {
		t.Fatalf("persisted output differs from stored output")
	}
	if !strings.Contains(filepath.Base(*got.OutputFilePath), "report_") {
		t.Fatalf("output filename not derived from original name: %s", *got.OutputFilePath)
	}

	if fileutil.FileExists(tempPath) {
		t.Fatalf("temp upload not cleaned up")
	}
}

func TestProcessExtractionFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	conv := store.Create(models.Conversion{OriginalName: "bad.pdf"})

	extractor := &fakeExtractor{err: errors.New("text extraction failed: not a pdf")}
	orch := NewOrchestrator(store, extractor, &fakeConverter{out: validOutput()}, t.TempDir(), time.Minute)

	tempPath := writeTemp(t)
	orch.Process(conv.ID, tempPath, "application/pdf", "auto-detect", "fast")

	got, _ := store.Get(conv.ID)
	if got.Status != models.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage == "" {
		t.Fatalf("failed record must carry an error message")
	}
	if got.JSONOutput != nil {
		t.Fatalf("failed record must not carry output")
	}
	if got.CompletedAt == nil {
		t.Fatalf("terminal transition must stamp completedAt")
	}
	if fileutil.FileExists(tempPath) {
		t.Fatalf("temp upload not cleaned up on failure")
	}
}

func TestProcessInferenceFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	conv := store.Create(models.Conversion{OriginalName: "doc.docx"})

	converter := &fakeConverter{err: errors.New("inference request failed: 503")}
	orch := NewOrchestrator(store, &fakeExtractor{text: "text"}, converter, t.TempDir(), time.Minute)

	tempPath := writeTemp(t)
	orch.Process(conv.ID, tempPath, "application/pdf", "auto-detect", "fast")

	got, _ := store.Get(conv.ID)
	if got.Status != models.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.ErrorMessage == nil || !strings.Contains(*got.ErrorMessage, "inference request failed") {
		t.Fatalf("unexpected error message: %v", got.ErrorMessage)
	}
}

func TestProcessTimeout(t *testing.T) {
	store := storage.NewMemoryStore()
	conv := store.Create(models.Conversion{OriginalName: "slow.pdf"})

	extractor := &fakeExtractor{block: true}
	orch := NewOrchestrator(store, extractor, &fakeConverter{out: validOutput()}, t.TempDir(), 20*time.Millisecond)

	tempPath := writeTemp(t)
	orch.Process(conv.ID, tempPath, "application/pdf", "auto-detect", "fast")

	got, _ := store.Get(conv.ID)
	if got.Status != models.StatusFailed {
		t.Fatalf("expected failed after timeout, got %s", got.Status)
	}
	if got.ErrorMessage == nil || !strings.Contains(*got.ErrorMessage, "timed out") {
		t.Fatalf("timeout not reported: %v", got.ErrorMessage)
	}
	if fileutil.FileExists(tempPath) {
		t.Fatalf("temp upload not cleaned up after timeout")
	}
}

func TestProcessMissingRecordDoesNotPanic(t *testing.T) {
	store := storage.NewMemoryStore()
	orch := NewOrchestrator(store, &fakeExtractor{text: "x"}, &fakeConverter{out: validOutput()}, t.TempDir(), time.Minute)

	tempPath := writeTemp(t)
	orch.Process(404, tempPath, "application/pdf", "auto-detect", "fast")

	if fileutil.FileExists(tempPath) {
		t.Fatalf("temp upload should be cleaned up even when the record is gone")
	}
}
