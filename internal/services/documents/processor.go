package documents

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
)

// Processor turns raw document input into analyzable text. Markdown and
// plain text pass through; HTML is converted to markdown; PDF and docx
// body text is extracted. Processing errors are terminal for a pipeline
// run, there is no retry.
type Processor struct {
	converter *md.Converter
	pdf       *PDFExtractor
	docx      *DocxExtractor
	logger    arbor.ILogger
}

// NewProcessor creates a document processor
func NewProcessor(logger arbor.ILogger) *Processor {
	return &Processor{
		converter: md.NewConverter("", true, nil),
		pdf:       NewPDFExtractor(logger),
		docx:      NewDocxExtractor(logger),
		logger:    logger,
	}
}

// ProcessText validates and analyzes raw document text
func (p *Processor) ProcessText(ctx context.Context, text string, gctx *models.GenerationContext) (string, models.DocumentStats, error) {
	if gctx != nil {
		gctx.SetStageStatus(models.StageDocumentProcessing, models.StageInProgress)
	}

	if strings.TrimSpace(text) == "" {
		if gctx != nil {
			gctx.SetStageStatus(models.StageDocumentProcessing, models.StageFailed)
		}
		return "", models.DocumentStats{}, interfaces.ErrMissingInput
	}

	stats := AnalyzeText(text)

	if gctx != nil {
		gctx.SetDocumentStats(stats)
		gctx.SetStageStatus(models.StageDocumentProcessing, models.StageCompleted)
	}

	p.logger.Debug().
		Int("characters", stats.CharacterCount).
		Int("words", stats.WordCount).
		Msg("Document text processed")

	return text, stats, nil
}

// ProcessFile converts uploaded file content to text based on its
// extension, then analyzes it. Unsupported extensions are rejected.
func (p *Processor) ProcessFile(ctx context.Context, content []byte, extension string, gctx *models.GenerationContext) (string, models.DocumentStats, error) {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))

	if len(content) == 0 {
		if gctx != nil {
			gctx.SetStageStatus(models.StageDocumentProcessing, models.StageFailed)
		}
		return "", models.DocumentStats{}, interfaces.ErrMissingInput
	}

	var text string
	var err error

	switch ext {
	case "txt", "md", "markdown":
		text = string(content)

	case "html", "htm":
		text, err = p.converter.ConvertString(string(content))
		if err != nil {
			err = fmt.Errorf("failed to convert HTML document: %w", err)
		}

	case "pdf":
		text, err = p.pdf.ExtractText(ctx, content)
		if err != nil {
			err = fmt.Errorf("failed to extract PDF text: %w", err)
		}

	case "docx", "doc":
		text, err = p.docx.ExtractText(content)
		if err != nil {
			err = fmt.Errorf("failed to extract word document text: %w", err)
		}

	default:
		err = fmt.Errorf("%w: .%s", interfaces.ErrUnsupportedFormat, ext)
	}

	if err != nil {
		if gctx != nil {
			gctx.SetStageStatus(models.StageDocumentProcessing, models.StageFailed)
		}
		p.logger.Warn().Err(err).Str("extension", ext).Msg("Document file processing failed")
		return "", models.DocumentStats{}, err
	}

	text, stats, err := p.ProcessText(ctx, text, gctx)
	if err != nil {
		return "", models.DocumentStats{}, err
	}
	stats.DocumentType = ext
	if gctx != nil {
		gctx.SetDocumentStats(stats)
	}

	return text, stats, nil
}
