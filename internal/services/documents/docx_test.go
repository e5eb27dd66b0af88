package documents

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

// buildDocx assembles a minimal OOXML archive around the given
// document body XML
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	entry, err := writer.Create("word/document.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body + `</w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return buf.Bytes()
}

func TestDocxExtractText(t *testing.T) {
	content := buildDocx(t, `
<w:p><w:r><w:t>First paragraph</w:t></w:r><w:r><w:t> continues.</w:t></w:r></w:p>
<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>paragraph.</w:t></w:r></w:p>
<w:p></w:p>`)

	e := NewDocxExtractor(arbor.NewLogger())

	text, err := e.ExtractText(content)
	require.NoError(t, err)

	assert.Equal(t, "First paragraph continues.\nSecond\tparagraph.", text)
}

func TestDocxExtractText_NotAnArchive(t *testing.T) {
	e := NewDocxExtractor(arbor.NewLogger())

	_, err := e.ExtractText([]byte("plain bytes, not a zip"))
	assert.Error(t, err)
}

func TestDocxExtractText_MissingDocumentBody(t *testing.T) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	entry, err := writer.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte("<w:styles/>"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	e := NewDocxExtractor(arbor.NewLogger())

	_, err = e.ExtractText(buf.Bytes())
	assert.ErrorContains(t, err, "word/document.xml")
}

func TestProcessFile_Docx(t *testing.T) {
	p := NewProcessor(arbor.NewLogger())

	content := buildDocx(t, `<w:p><w:r><w:t>Uploaded word content.</w:t></w:r></w:p>`)

	text, stats, err := p.ProcessFile(context.Background(), content, ".docx", nil)
	require.NoError(t, err)
	assert.Equal(t, "Uploaded word content.", text)
	assert.Equal(t, "docx", stats.DocumentType)
}

func TestProcessFile_DocxInvalid(t *testing.T) {
	p := NewProcessor(arbor.NewLogger())

	_, _, err := p.ProcessFile(context.Background(), []byte("binary blob"), ".docx", nil)
	assert.ErrorContains(t, err, "word document")
}
