package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// docxExtractor reads the raw text of an OOXML word processing document.
// A DOCX file is a zip archive; the body text lives in word/document.xml.
// Page count is a render-time property and is not reported.
type docxExtractor struct{}

func (e *docxExtractor) Extract(ctx context.Context, path string) (string, int, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", 0, fmt.Errorf("open docx archive: %w", err)
	}
	defer archive.Close()

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return "", 0, errors.New("docx archive has no word/document.xml")
	}

	rc, err := document.Open()
	if err != nil {
		return "", 0, fmt.Errorf("open document part: %w", err)
	}
	defer rc.Close()

	text, err := readDocumentText(ctx, rc)
	if err != nil {
		return "", 0, err
	}
	return text, 0, nil
}

// readDocumentText streams the document part, collecting w:t runs and
// turning paragraphs, tabs and breaks into whitespace.
func readDocumentText(ctx context.Context, r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var b strings.Builder

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document part: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var run string
				if err := decoder.DecodeElement(&run, &t); err != nil {
					return "", fmt.Errorf("decode text run: %w", err)
				}
				b.WriteString(run)
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				b.WriteByte('\n')
			}
		}
	}
	return b.String(), nil
}
