package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// pdfExtractor reads PDF text page by page through go-fitz.
type pdfExtractor struct{}

func (e *pdfExtractor) Extract(ctx context.Context, path string) (string, int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return "", 0, fmt.Errorf("pdf has no pages")
	}

	var b strings.Builder
	for page := 0; page < pageCount; page++ {
		select {
		case <-ctx.Done():
			return "", 0, ctx.Err()
		default:
		}

		text, err := doc.Text(page)
		if err != nil {
			return "", 0, fmt.Errorf("read page %d: %w", page+1, err)
		}
		b.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String(), pageCount, nil
}
