package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
)

const planningAgentName = "planning_agent"

const planningInstructions = `You are a presentation planning specialist.

Task: Design a slide-by-slide outline for a presentation of the document.

Rules:
- Each slide covers one coherent idea from the document
- Slide titles are short and specific
- content_tokens list the key points the slide must cover (3-6 short phrases)
- format_tokens suggest layout hints such as "bullets", "two-column", "quote"
- design_tokens suggest visual emphasis such as "title-slide", "section-break"
- Respect the requested maximum slide count
- Preserve the document's own ordering of ideas

Output Format (JSON only, no markdown fences):
{
  "title": "Presentation title",
  "theme": "default",
  "slides": [
    {
      "slide_number": 1,
      "title": "Slide title",
      "content_tokens": ["point one", "point two"],
      "format_tokens": ["bullets"],
      "design_tokens": ["title-slide"]
    }
  ]
}`

// PlanningAgent turns processed document material into an ordered
// slide outline using the configured LLM.
type PlanningAgent struct {
	llm       interfaces.LLMService
	maxSlides int
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.PlanningAgent = (*PlanningAgent)(nil)

// NewPlanningAgent creates a planning agent
func NewPlanningAgent(llm interfaces.LLMService, maxSlides int, logger arbor.ILogger) *PlanningAgent {
	if maxSlides <= 0 {
		maxSlides = 20
	}

	return &PlanningAgent{
		llm:       llm,
		maxSlides: maxSlides,
		logger:    logger,
	}
}

// GeneratePlan produces the presentation plan for a document. Provider
// failures are recorded in the generation context and returned, never
// retried.
func (a *PlanningAgent) GeneratePlan(ctx context.Context, input interfaces.PlanningInput, gctx *models.GenerationContext) (*models.PresentationPlan, error) {
	prompt := a.buildPrompt(input)

	result, err := a.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: planningInstructions},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		if gctx != nil {
			gctx.RecordError(models.StagePlanning, err.Error(), nil)
		}
		return nil, fmt.Errorf("planning agent call failed: %w", err)
	}

	if gctx != nil {
		gctx.AddTokens(result.PromptTokens, result.CompletionTokens)
		gctx.RecordToolUsage(planningAgentName)
	}

	var plan models.PresentationPlan
	if err := decodeJSONResponse(result.Text, &plan); err != nil {
		if gctx != nil {
			gctx.RecordError(models.StagePlanning, err.Error(), map[string]interface{}{
				"response_length": len(result.Text),
			})
		}
		return nil, fmt.Errorf("planning agent returned unparseable plan: %w", err)
	}

	if len(plan.Slides) == 0 {
		if gctx != nil {
			gctx.RecordError(models.StagePlanning, interfaces.ErrEmptyPlan.Error(), nil)
		}
		return nil, interfaces.ErrEmptyPlan
	}

	if len(plan.Slides) > a.maxSlides {
		plan.Slides = plan.Slides[:a.maxSlides]
	}

	// Slide numbers follow plan order regardless of what the model emitted
	for i := range plan.Slides {
		plan.Slides[i].SlideNumber = i + 1
	}

	if plan.Title == "" {
		plan.Title = "Untitled Presentation"
	}

	if gctx != nil {
		gctx.RecordAgentOutput(planningAgentName, plan)
	}

	a.logger.Debug().
		Str("title", plan.Title).
		Int("slides", len(plan.Slides)).
		Msg("Presentation plan generated")

	return &plan, nil
}

// buildPrompt assembles the planning prompt from the extracted material
func (a *PlanningAgent) buildPrompt(input interfaces.PlanningInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Plan a presentation with at most %d slides.\n\n", a.maxSlides)

	if style, ok := input.Options["style"]; ok {
		fmt.Fprintf(&b, "Requested style: %v\n", style)
	}
	if audience, ok := input.Options["audience"]; ok {
		fmt.Fprintf(&b, "Target audience: %v\n", audience)
	}
	if slideCount, ok := input.Options["slide_count"]; ok {
		fmt.Fprintf(&b, "Requested slide count: %v\n", slideCount)
	}

	if input.Stats.WordCount > 0 {
		fmt.Fprintf(&b, "\nDocument statistics: %d words, %d paragraphs.\n",
			input.Stats.WordCount, input.Stats.ParagraphCount)
	}

	if len(input.Sections) > 0 {
		b.WriteString("\nDocument outline:\n")
		writeSectionOutline(&b, input.Sections, 0)
	}

	if len(input.Keywords) > 0 {
		words := make([]string, 0, len(input.Keywords))
		for _, kw := range input.Keywords {
			words = append(words, kw.Word)
		}
		fmt.Fprintf(&b, "\nKey terms: %s\n", strings.Join(words, ", "))
	}

	if len(input.Bullets) > 0 {
		fmt.Fprintf(&b, "\nThe document contains %d list groups worth preserving as slide bullets.\n", len(input.Bullets))
	}

	b.WriteString("\nDocument:\n")
	b.WriteString(input.DocumentText)

	return b.String()
}

func writeSectionOutline(b *strings.Builder, sections []models.Section, depth int) {
	for _, s := range sections {
		fmt.Fprintf(b, "%s- %s\n", strings.Repeat("  ", depth), s.Heading)
		if len(s.Subsections) > 0 {
			writeSectionOutline(b, s.Subsections, depth+1)
		}
	}
}
