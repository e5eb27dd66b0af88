package agents

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
	"github.com/yuin/goldmark"
)

const contentAgentName = "content_agent"

const contentInstructions = `You are a slide content writer.

Task: Write the content for one slide of a presentation, following the
slide outline you are given and drawing only on the supplied document
excerpt.

Rules:
- Cover every content token from the outline
- Keep the slide concise: short sentences, bullet lists where natural
- body is Markdown (it will be rendered to HTML)
- notes are speaker notes in plain prose, one short paragraph

Output Format (JSON only, no markdown fences):
{
  "title": "Slide title",
  "body": "Markdown content for the slide",
  "notes": "Speaker notes"
}`

// slideResponse is the model's JSON shape for one slide
type slideResponse struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Notes string `json:"notes"`
}

// ContentAgent expands one planned slide into rendered HTML content
// using the configured LLM.
type ContentAgent struct {
	llm      interfaces.LLMService
	markdown goldmark.Markdown
	logger   arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.ContentAgent = (*ContentAgent)(nil)

// NewContentAgent creates a content agent
func NewContentAgent(llm interfaces.LLMService, logger arbor.ILogger) *ContentAgent {
	return &ContentAgent{
		llm:      llm,
		markdown: goldmark.New(),
		logger:   logger,
	}
}

// GenerateSlide produces rendered content for a single planned slide.
// Provider failures are recorded in the generation context and
// returned, never retried.
func (a *ContentAgent) GenerateSlide(ctx context.Context, spec models.SlideSpec, excerpt string, gctx *models.GenerationContext) (*models.SlideContent, error) {
	prompt := a.buildPrompt(spec, excerpt)

	result, err := a.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: contentInstructions},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		if gctx != nil {
			gctx.RecordError(models.StageContentGeneration, err.Error(), map[string]interface{}{
				"slide_number": spec.SlideNumber,
			})
		}
		return nil, fmt.Errorf("content agent call failed for slide %d: %w", spec.SlideNumber, err)
	}

	if gctx != nil {
		gctx.AddTokens(result.PromptTokens, result.CompletionTokens)
		gctx.RecordToolUsage(contentAgentName)
	}

	var parsed slideResponse
	if err := decodeJSONResponse(result.Text, &parsed); err != nil {
		if gctx != nil {
			gctx.RecordError(models.StageContentGeneration, err.Error(), map[string]interface{}{
				"slide_number": spec.SlideNumber,
			})
		}
		return nil, fmt.Errorf("content agent returned unparseable slide %d: %w", spec.SlideNumber, err)
	}

	html, err := a.renderHTML(parsed.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to render slide %d content: %w", spec.SlideNumber, err)
	}

	title := strings.TrimSpace(parsed.Title)
	if title == "" {
		title = spec.Title
	}

	slide := &models.SlideContent{
		SlideNumber: spec.SlideNumber, // plan ordering wins over model output
		Title:       title,
		Content:     html,
		Notes:       strings.TrimSpace(parsed.Notes),
	}

	a.logger.Debug().
		Int("slide_number", slide.SlideNumber).
		Int("content_length", len(slide.Content)).
		Msg("Slide content generated")

	return slide, nil
}

// renderHTML converts the model's markdown body to HTML
func (a *ContentAgent) renderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := a.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// buildPrompt assembles the per-slide prompt
func (a *ContentAgent) buildPrompt(spec models.SlideSpec, excerpt string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Slide %d: %s\n", spec.SlideNumber, spec.Title)

	if len(spec.ContentTokens) > 0 {
		b.WriteString("Content to cover:\n")
		for _, token := range spec.ContentTokens {
			fmt.Fprintf(&b, "- %s\n", token)
		}
	}
	if len(spec.FormatTokens) > 0 {
		fmt.Fprintf(&b, "Format hints: %s\n", strings.Join(spec.FormatTokens, ", "))
	}
	if len(spec.DesignTokens) > 0 {
		fmt.Fprintf(&b, "Design hints: %s\n", strings.Join(spec.DesignTokens, ", "))
	}

	b.WriteString("\nDocument excerpt:\n")
	b.WriteString(excerpt)

	return b.String()
}
