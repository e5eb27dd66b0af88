package documents

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/arbor"
)

// DocxExtractor extracts paragraph text from OOXML word documents.
// A .docx file is a zip archive; the document body lives in
// word/document.xml as w:p paragraphs of w:t text runs.
type DocxExtractor struct {
	logger arbor.ILogger
}

// NewDocxExtractor creates a docx extractor
func NewDocxExtractor(logger arbor.ILogger) *DocxExtractor {
	return &DocxExtractor{logger: logger}
}

// ExtractText extracts the document body text, one line per paragraph
func (e *DocxExtractor) ExtractText(content []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("not a readable docx archive: %w", err)
	}

	var document *zip.File
	for _, file := range reader.File {
		if file.Name == "word/document.xml" {
			document = file
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("docx archive has no word/document.xml")
	}

	rc, err := document.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document body: %w", err)
	}
	defer rc.Close()

	text, paragraphs, err := e.decodeBody(rc)
	if err != nil {
		return "", err
	}

	e.logger.Debug().
		Int("paragraphs", paragraphs).
		Int("text_length", len(text)).
		Msg("Extracted docx text")

	return text, nil
}

// decodeBody streams the document XML, flushing a line per paragraph.
// Tabs and explicit breaks inside a run are preserved.
func (e *DocxExtractor) decodeBody(r io.Reader) (string, int, error) {
	decoder := xml.NewDecoder(r)

	var builder strings.Builder
	var paragraph strings.Builder
	paragraphs := 0
	inTextRun := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("malformed document body: %w", err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			switch element.Name.Local {
			case "t":
				inTextRun = true
			case "tab":
				paragraph.WriteByte('\t')
			case "br":
				paragraph.WriteByte('\n')
			}

		case xml.EndElement:
			switch element.Name.Local {
			case "t":
				inTextRun = false
			case "p":
				line := paragraph.String()
				paragraph.Reset()
				if strings.TrimSpace(line) == "" {
					continue
				}
				if builder.Len() > 0 {
					builder.WriteByte('\n')
				}
				builder.WriteString(line)
				paragraphs++
			}

		case xml.CharData:
			if inTextRun {
				paragraph.Write(element)
			}
		}
	}

	return builder.String(), paragraphs, nil
}
