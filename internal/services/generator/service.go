package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
	"github.com/ternarybob/ostendo/internal/services/cache"
	"github.com/ternarybob/ostendo/internal/services/documents"
	"github.com/ternarybob/ostendo/internal/services/extraction"
)

const cacheNamespace = "presentations"

// ProgressFunc observes pipeline progress checkpoints
type ProgressFunc func(progress float64, message string)

// Service orchestrates the document-to-presentation pipeline:
// document processing, content extraction, planning, and per-slide
// content generation run sequentially, with progress checkpoints
// reported through the task manager, the caller's callback, and the
// event service. A stage failure aborts the run with no partial
// artifact.
type Service struct {
	processor *documents.Processor
	extractor *extraction.Extractor
	planner   interfaces.PlanningAgent
	content   interfaces.ContentAgent
	cache     interfaces.CacheService
	tasks     interfaces.TaskService
	events    interfaces.EventService
	logger    arbor.ILogger

	cacheTTL     time.Duration
	maxKeywords  int
	excerptLimit int
}

// NewService creates the pipeline orchestrator
func NewService(
	cfg *common.GenerationConfig,
	processor *documents.Processor,
	extractor *extraction.Extractor,
	planner interfaces.PlanningAgent,
	content interfaces.ContentAgent,
	cacheSvc interfaces.CacheService,
	tasks interfaces.TaskService,
	eventSvc interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	excerptLimit := cfg.ExcerptLimit
	if excerptLimit <= 0 {
		excerptLimit = 8000
	}

	return &Service{
		processor:    processor,
		extractor:    extractor,
		planner:      planner,
		content:      content,
		cache:        cacheSvc,
		tasks:        tasks,
		events:       eventSvc,
		logger:       logger,
		cacheTTL:     common.ParseDurationOr(cfg.CacheTTL, 24*time.Hour),
		maxKeywords:  10,
		excerptLimit: excerptLimit,
	}
}

// Generate runs the full pipeline for one request. taskID may be empty
// for synchronous callers; progressFn may be nil.
func (s *Service) Generate(ctx context.Context, req *models.GenerationRequest, gctx *models.GenerationContext, taskID string, progressFn ProgressFunc) (*models.Presentation, error) {
	report := func(progress float64, message string) {
		s.reportProgress(ctx, gctx.GenerationID, taskID, progressFn, progress, message)
	}

	s.logger.Info().
		Str("generation_id", gctx.GenerationID).
		Int("document_length", len(req.DocumentText)).
		Msg("Starting presentation generation")

	// Stage 1: document processing
	report(0.1, "Processing document")
	text, stats, err := s.processor.ProcessText(ctx, req.DocumentText, gctx)
	if err != nil {
		return nil, s.fail(gctx, models.StageDocumentProcessing, err)
	}
	report(0.2, "Document processed")

	// Stage 2: content extraction
	s.extractor.ExtractAll(text, s.maxKeywords, gctx)
	report(0.4, "Content extracted")

	// Stage 3: planning
	gctx.SetStageStatus(models.StagePlanning, models.StageInProgress)
	plan, err := s.planner.GeneratePlan(ctx, s.planningInput(text, stats, req.Options, gctx), gctx)
	if err != nil {
		gctx.SetStageStatus(models.StagePlanning, models.StageFailed)
		return nil, s.fail(gctx, models.StagePlanning, err)
	}
	gctx.ShareData("plan", plan)
	gctx.SetStageStatus(models.StagePlanning, models.StageCompleted)
	report(0.6, fmt.Sprintf("Planned %d slides", len(plan.Slides)))

	// Stage 4: per-slide content generation, in plan order
	gctx.SetStageStatus(models.StageContentGeneration, models.StageInProgress)
	excerpt := s.excerpt(text)
	slides := make([]models.SlideContent, 0, len(plan.Slides))
	for i, spec := range plan.Slides {
		slide, err := s.content.GenerateSlide(ctx, spec, excerpt, gctx)
		if err != nil {
			gctx.SetStageStatus(models.StageContentGeneration, models.StageFailed)
			return nil, s.fail(gctx, models.StageContentGeneration, err)
		}
		slides = append(slides, *slide)

		// Spread per-slide progress across the 0.6 to 0.9 span
		fraction := float64(i+1) / float64(len(plan.Slides))
		report(0.6+0.3*fraction, fmt.Sprintf("Generated slide %d of %d", i+1, len(plan.Slides)))
	}
	gctx.SetStageStatus(models.StageContentGeneration, models.StageCompleted)
	report(0.9, "Slide content generated")

	presentation := &models.Presentation{
		Title:  plan.Title,
		Theme:  plan.Theme,
		Slides: slides,
	}

	gctx.Complete()
	report(1.0, "Presentation complete")

	s.logger.Info().
		Str("generation_id", gctx.GenerationID).
		Int("slides", len(presentation.Slides)).
		Int("total_tokens", gctx.Stats.TotalTokens).
		Msg("Presentation generation completed")

	return presentation, nil
}

// GenerateCached wraps Generate with cache-aside semantics keyed on the
// document text and the stable-encoded options.
func (s *Service) GenerateCached(ctx context.Context, req *models.GenerationRequest, gctx *models.GenerationContext, taskID string, progressFn ProgressFunc) (*models.Presentation, error) {
	key := cache.Key("doc", cache.HashText(req.DocumentText), cache.EncodeOptions(req.Options))

	presentation, hit, err := cache.Cached(ctx, s.cache, cacheNamespace, key, s.cacheTTL, func(ctx context.Context) (models.Presentation, error) {
		p, err := s.Generate(ctx, req, gctx, taskID, progressFn)
		if err != nil {
			return models.Presentation{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}

	if hit {
		s.logger.Info().
			Str("generation_id", gctx.GenerationID).
			Msg("Presentation served from cache")
		s.reportProgress(ctx, gctx.GenerationID, taskID, progressFn, 1.0, "Presentation served from cache")
	}

	return &presentation, nil
}

// SubmitAsync schedules a cached generation on the task manager and
// returns the task ID immediately
func (s *Service) SubmitAsync(ctx context.Context, req *models.GenerationRequest) (string, error) {
	generationID := common.NewGenerationID()

	taskID, err := s.tasks.Submit(ctx, func(taskCtx context.Context, taskID string, args map[string]interface{}) (interface{}, error) {
		gctx := models.NewGenerationContext(generationID)

		presentation, err := s.GenerateCached(taskCtx, req, gctx, taskID, nil)
		if err != nil {
			return nil, err
		}

		return &models.GenerationResponse{
			GenerationID: generationID,
			Presentation: presentation,
			Stats:        gctx.StatsSummary(),
		}, nil
	}, nil, interfaces.WithMetadata(map[string]interface{}{
		"generation_id":   generationID,
		"document_length": len(req.DocumentText),
	}))
	if err != nil {
		return "", err
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("generation_id", generationID).
		Msg("Async generation submitted")

	return taskID, nil
}

// SubmitFileAsync converts an uploaded file to text, then schedules the
// same cached pipeline. Conversion runs synchronously so unsupported or
// unreadable uploads are rejected before a task is created.
func (s *Service) SubmitFileAsync(ctx context.Context, content []byte, extension string, options map[string]interface{}) (string, error) {
	text, _, err := s.processor.ProcessFile(ctx, content, extension, nil)
	if err != nil {
		return "", err
	}

	return s.SubmitAsync(ctx, &models.GenerationRequest{
		DocumentText: text,
		Options:      options,
	})
}

// fail records the failure in the run's stats and logs it. The error is
// returned unchanged so callers see the original cause.
func (s *Service) fail(gctx *models.GenerationContext, stage string, err error) error {
	gctx.RecordError(stage, err.Error(), nil)
	gctx.Complete()

	s.logger.Warn().
		Err(err).
		Str("generation_id", gctx.GenerationID).
		Str("stage", stage).
		Msg("Presentation generation failed")

	return err
}

// reportProgress fans a checkpoint out to the task manager, the
// caller's callback, and the event stream
func (s *Service) reportProgress(ctx context.Context, generationID, taskID string, progressFn ProgressFunc, progress float64, message string) {
	if taskID != "" && s.tasks != nil {
		s.tasks.UpdateProgress(taskID, progress, message)
	}

	if progressFn != nil {
		progressFn(progress, message)
	}

	if s.events != nil {
		s.events.Publish(ctx, interfaces.Event{
			Type: interfaces.EventGenerationProgress,
			Payload: map[string]interface{}{
				"generation_id": generationID,
				"task_id":       taskID,
				"progress":      progress,
				"message":       message,
			},
		})
	}
}

// planningInput bundles the extracted material for the planner
func (s *Service) planningInput(text string, stats models.DocumentStats, options map[string]interface{}, gctx *models.GenerationContext) interfaces.PlanningInput {
	input := interfaces.PlanningInput{
		DocumentText: s.excerpt(text),
		Stats:        stats,
		Options:      options,
	}

	if sections, ok := gctx.GetExtractedContent(extraction.ContentTypeSections); ok {
		if typed, ok := sections.([]models.Section); ok {
			input.Sections = typed
		}
	}
	if bullets, ok := gctx.GetExtractedContent(extraction.ContentTypeBullets); ok {
		if typed, ok := bullets.([]models.BulletGroup); ok {
			input.Bullets = typed
		}
	}
	if keywords, ok := gctx.GetExtractedContent(extraction.ContentTypeKeywords); ok {
		if typed, ok := keywords.([]models.Keyword); ok {
			input.Keywords = typed
		}
	}

	return input
}

// excerpt bounds the document text sent to prompts
func (s *Service) excerpt(text string) string {
	if len(text) <= s.excerptLimit {
		return text
	}
	return text[:s.excerptLimit]
}
