package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"docstructgo/internal/extract"
	"docstructgo/internal/inference"
	"docstructgo/internal/models"
)

// consecutiveFailureLimit is how many polls in a row may fail at the
// transport level before Wait gives up.
const consecutiveFailureLimit = 3

var (
	// ErrWaitExhausted means the conversion did not reach a terminal status
	// within the configured number of polls.
	ErrWaitExhausted = errors.New("conversion did not finish within the allotted polls")
	// ErrServerUnreachable means polling aborted after repeated transport
	// failures.
	ErrServerUnreachable = errors.New("conversion server unreachable")
)

var contentTypeByExt = map[string]string{
	".pdf":  extract.MimePDF,
	".docx": extract.MimeDOCX,
}

// Client talks to a running conversion server.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload submits a document for conversion and returns the pending record.
func (c *Client) Upload(ctx context.Context, path, processingMode string) (*models.Conversion, error) {
	contentType, ok := contentTypeByExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension %q, only .pdf and .docx are accepted", filepath.Ext(path))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := writer.WriteField("outputStructure", inference.StructureAutoDetect); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if processingMode != "" {
		if err := writer.WriteField("processingMode", processingMode); err != nil {
			return nil, fmt.Errorf("build upload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/conversions", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var conv models.Conversion
	if err := c.do(req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// Get fetches the current state of one conversion.
func (c *Client) Get(ctx context.Context, id int64) (*models.Conversion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/conversions/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	var conv models.Conversion
	if err := c.do(req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// List fetches all conversions, newest first.
func (c *Client) List(ctx context.Context) ([]models.Conversion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/conversions", nil)
	if err != nil {
		return nil, err
	}
	var list []models.Conversion
	if err := c.do(req, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Delete removes a conversion record and its output file.
func (c *Client) Delete(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/api/conversions/%d", c.baseURL, id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Download returns the structured JSON output of a completed conversion.
func (c *Client) Download(ctx context.Context, id int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/conversions/%d/download", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, data)
	}
	return data, nil
}

// Wait polls a conversion until it reaches a terminal status. It gives up
// after maxAttempts polls or consecutiveFailureLimit transport failures in
// a row.
func (c *Client) Wait(ctx context.Context, id int64, interval time.Duration, maxAttempts int) (*models.Conversion, error) {
	failures := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		conv, err := c.Get(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			log.Warn().Err(err).Int("failures", failures).Int64("conversion_id", id).Msg("poll failed")
			if failures >= consecutiveFailureLimit {
				return nil, fmt.Errorf("%w: %v", ErrServerUnreachable, err)
			}
		} else {
			failures = 0
			if conv.Status.Terminal() {
				return conv, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrWaitExhausted, maxAttempts)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func apiError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("server returned %d: %s", status, payload.Error)
	}
	return fmt.Errorf("server returned %d", status)
}
