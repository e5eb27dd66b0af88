package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
)

func TestAnalyzeText(t *testing.T) {
	text := "First sentence. Second sentence!\n\nNew paragraph here?"

	stats := AnalyzeText(text)

	assert.Equal(t, len([]rune(text)), stats.CharacterCount)
	assert.Equal(t, 7, stats.WordCount)
	assert.Equal(t, 3, stats.LineCount)
	assert.Equal(t, 2, stats.ParagraphCount)
	assert.Equal(t, 3, stats.SentenceCount)
	assert.InDelta(t, 3.5, stats.AvgWordsPerParagraph, 1e-9)
	assert.InDelta(t, 1.5, stats.AvgSentencesPerParagraph, 1e-9)
}

func TestAnalyzeText_NoTerminalPunctuation(t *testing.T) {
	stats := AnalyzeText("just some words without an ending")
	assert.Equal(t, 1, stats.SentenceCount)
}

func TestAnalyzeText_Ellipsis(t *testing.T) {
	// A run of terminators counts as one boundary
	stats := AnalyzeText("Wait for it... done.")
	assert.Equal(t, 2, stats.SentenceCount)
}

func TestAnalyzeText_Empty(t *testing.T) {
	stats := AnalyzeText("")
	assert.Equal(t, 0, stats.CharacterCount)
	assert.Equal(t, 0, stats.WordCount)
	assert.Equal(t, 0, stats.LineCount)
}

func TestProcessText(t *testing.T) {
	p := NewProcessor(arbor.NewLogger())
	gctx := models.NewGenerationContext("gen_test")

	text, stats, err := p.ProcessText(context.Background(), "Hello world.", gctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello world.", text)
	assert.Equal(t, 2, stats.WordCount)

	assert.Equal(t, models.StageCompleted, gctx.StageStatus[models.StageDocumentProcessing])
	require.NotNil(t, gctx.DocumentStats)
	assert.Equal(t, 2, gctx.DocumentStats.WordCount)
}

func TestProcessText_Empty(t *testing.T) {
	p := NewProcessor(arbor.NewLogger())
	gctx := models.NewGenerationContext("gen_test")

	_, _, err := p.ProcessText(context.Background(), "   \n ", gctx)
	assert.ErrorIs(t, err, interfaces.ErrMissingInput)
	assert.Equal(t, models.StageFailed, gctx.StageStatus[models.StageDocumentProcessing])
}

func TestProcessFile_PlainText(t *testing.T) {
	p := NewProcessor(arbor.NewLogger())

	text, stats, err := p.ProcessFile(context.Background(), []byte("plain content"), ".txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain content", text)
	assert.Equal(t, "txt", stats.DocumentType)
}

func TestProcessFile_HTML(t *testing.T) {
	p := NewProcessor(arbor.NewLogger())

	html := "<html><body><h1>Heading</h1><p>Some paragraph text.</p></body></html>"
	text, stats, err := p.ProcessFile(context.Background(), []byte(html), ".html", nil)
	require.NoError(t, err)

	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "Some paragraph text.")
	assert.NotContains(t, text, "<p>")
	assert.Equal(t, "html", stats.DocumentType)
}

func TestProcessFile_UnsupportedFormat(t *testing.T) {
	p := NewProcessor(arbor.NewLogger())

	_, _, err := p.ProcessFile(context.Background(), []byte("a,b,c"), ".csv", nil)
	assert.ErrorIs(t, err, interfaces.ErrUnsupportedFormat)
}

func TestProcessFile_EmptyContent(t *testing.T) {
	p := NewProcessor(arbor.NewLogger())

	_, _, err := p.ProcessFile(context.Background(), nil, ".txt", nil)
	assert.ErrorIs(t, err, interfaces.ErrMissingInput)
}
