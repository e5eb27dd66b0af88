package generator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
	"github.com/ternarybob/ostendo/internal/services/cache"
	"github.com/ternarybob/ostendo/internal/services/documents"
	"github.com/ternarybob/ostendo/internal/services/extraction"
	"github.com/ternarybob/ostendo/internal/services/tasks"
)

// stubPlanner returns a fixed plan and counts invocations
type stubPlanner struct {
	plan  *models.PresentationPlan
	err   error
	calls int
}

func (s *stubPlanner) GeneratePlan(ctx context.Context, input interfaces.PlanningInput, gctx *models.GenerationContext) (*models.PresentationPlan, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.plan, nil
}

// stubContent echoes each slide spec back as content
type stubContent struct {
	err   error
	calls int
}

func (s *stubContent) GenerateSlide(ctx context.Context, spec models.SlideSpec, excerpt string, gctx *models.GenerationContext) (*models.SlideContent, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.SlideContent{
		SlideNumber: spec.SlideNumber,
		Title:       spec.Title,
		Content:     fmt.Sprintf("<p>content for slide %d</p>", spec.SlideNumber),
		Notes:       "notes",
	}, nil
}

func twoSlidePlan() *models.PresentationPlan {
	return &models.PresentationPlan{
		Title: "Test Deck",
		Theme: "default",
		Slides: []models.SlideSpec{
			{SlideNumber: 1, Title: "Opening", ContentTokens: []string{"intro"}},
			{SlideNumber: 2, Title: "Closing", ContentTokens: []string{"wrap up"}},
		},
	}
}

func newTestService(t *testing.T, planner interfaces.PlanningAgent, content interfaces.ContentAgent) *Service {
	t.Helper()

	logger := arbor.NewLogger()
	cacheSvc := cache.NewService(&common.CacheConfig{
		UseMemory:  true,
		UseDurable: false,
		DefaultTTL: "1h",
	}, nil, logger)

	return NewService(
		&common.GenerationConfig{CacheTTL: "24h", MaxSlides: 20, ExcerptLimit: 8000},
		documents.NewProcessor(logger),
		extraction.NewExtractor(logger),
		planner,
		content,
		cacheSvc,
		nil,
		nil,
		logger,
	)
}

const sampleDocument = `# Quarterly Review

The quarter went well overall. Revenue grew steadily.

## Highlights

- new customers onboarded
- churn stayed flat

## Next Steps

1. expand the sales team
2. ship the new dashboard
`

func TestGenerate_EndToEnd(t *testing.T) {
	planner := &stubPlanner{plan: twoSlidePlan()}
	content := &stubContent{}
	svc := newTestService(t, planner, content)

	gctx := models.NewGenerationContext("gen_test")
	var checkpoints []float64
	progressFn := func(progress float64, message string) {
		checkpoints = append(checkpoints, progress)
	}

	presentation, err := svc.Generate(context.Background(), &models.GenerationRequest{
		DocumentText: sampleDocument,
	}, gctx, "", progressFn)
	require.NoError(t, err)

	assert.Equal(t, "Test Deck", presentation.Title)
	require.Len(t, presentation.Slides, 2)
	assert.Equal(t, 1, presentation.Slides[0].SlideNumber)
	assert.Equal(t, "Opening", presentation.Slides[0].Title)
	assert.Equal(t, 2, presentation.Slides[1].SlideNumber)

	assert.Equal(t, 1, planner.calls)
	assert.Equal(t, 2, content.calls)

	// Every stage completed exactly once, in pipeline order
	assert.Equal(t, []string{
		models.StageDocumentProcessing,
		models.StageContentExtraction,
		models.StagePlanning,
		models.StageContentGeneration,
	}, gctx.Stats.StagesCompleted)

	// Progress starts at 0.1, ends at 1.0, and never moves backwards
	require.NotEmpty(t, checkpoints)
	assert.Equal(t, 0.1, checkpoints[0])
	assert.Equal(t, 1.0, checkpoints[len(checkpoints)-1])
	for i := 1; i < len(checkpoints); i++ {
		assert.GreaterOrEqual(t, checkpoints[i], checkpoints[i-1])
	}

	require.NotNil(t, gctx.Stats.EndTime)
}

func TestGenerate_PlannerFailure(t *testing.T) {
	boom := errors.New("provider unavailable")
	planner := &stubPlanner{err: boom}
	content := &stubContent{}
	svc := newTestService(t, planner, content)

	gctx := models.NewGenerationContext("gen_test")

	_, err := svc.Generate(context.Background(), &models.GenerationRequest{
		DocumentText: sampleDocument,
	}, gctx, "", nil)
	require.ErrorIs(t, err, boom)

	assert.Equal(t, models.StageFailed, gctx.StageStatus[models.StagePlanning])
	assert.Equal(t, 0, content.calls)
	require.NotEmpty(t, gctx.Stats.Errors)
	assert.Equal(t, models.StagePlanning, gctx.Stats.Errors[0].Stage)
	require.NotNil(t, gctx.Stats.EndTime)
}

func TestGenerate_SlideFailureAborts(t *testing.T) {
	planner := &stubPlanner{plan: twoSlidePlan()}
	content := &stubContent{err: errors.New("slide generation failed")}
	svc := newTestService(t, planner, content)

	gctx := models.NewGenerationContext("gen_test")

	_, err := svc.Generate(context.Background(), &models.GenerationRequest{
		DocumentText: sampleDocument,
	}, gctx, "", nil)
	require.Error(t, err)

	assert.Equal(t, models.StageFailed, gctx.StageStatus[models.StageContentGeneration])
	// The first slide failure stops the loop
	assert.Equal(t, 1, content.calls)
}

func TestGenerate_EmptyDocument(t *testing.T) {
	svc := newTestService(t, &stubPlanner{plan: twoSlidePlan()}, &stubContent{})

	gctx := models.NewGenerationContext("gen_test")

	_, err := svc.Generate(context.Background(), &models.GenerationRequest{
		DocumentText: "  ",
	}, gctx, "", nil)
	assert.ErrorIs(t, err, interfaces.ErrMissingInput)
}

func TestGenerateCached_SecondCallHitsCache(t *testing.T) {
	planner := &stubPlanner{plan: twoSlidePlan()}
	content := &stubContent{}
	svc := newTestService(t, planner, content)

	req := &models.GenerationRequest{
		DocumentText: sampleDocument,
		Options:      map[string]interface{}{"style": "formal"},
	}

	first, err := svc.GenerateCached(context.Background(), req, models.NewGenerationContext("gen_a"), "", nil)
	require.NoError(t, err)

	var lastMessage string
	second, err := svc.GenerateCached(context.Background(), req, models.NewGenerationContext("gen_b"), "", func(progress float64, message string) {
		lastMessage = message
	})
	require.NoError(t, err)

	assert.Equal(t, 1, planner.calls)
	assert.Equal(t, 2, content.calls)
	assert.Equal(t, first.Title, second.Title)
	assert.Len(t, second.Slides, 2)
	assert.Contains(t, lastMessage, "cache")
}

func TestSubmitAsync(t *testing.T) {
	logger := arbor.NewLogger()
	cacheSvc := cache.NewService(&common.CacheConfig{
		UseMemory:  true,
		UseDurable: false,
		DefaultTTL: "1h",
	}, nil, logger)

	manager := tasks.NewManager(2, nil, logger)
	manager.Start()
	t.Cleanup(manager.Stop)

	svc := NewService(
		&common.GenerationConfig{CacheTTL: "24h", MaxSlides: 20, ExcerptLimit: 8000},
		documents.NewProcessor(logger),
		extraction.NewExtractor(logger),
		&stubPlanner{plan: twoSlidePlan()},
		&stubContent{},
		cacheSvc,
		manager,
		nil,
		logger,
	)

	taskID, err := svc.SubmitAsync(context.Background(), &models.GenerationRequest{
		DocumentText: sampleDocument,
	})
	require.NoError(t, err)

	var task *models.Task
	require.Eventually(t, func() bool {
		var ok bool
		task, ok = manager.GetStatus(taskID)
		return ok && task.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Equal(t, 1.0, task.Progress)

	response, ok := task.Result.(*models.GenerationResponse)
	require.True(t, ok)
	assert.NotEmpty(t, response.GenerationID)
	require.NotNil(t, response.Presentation)
	assert.Len(t, response.Presentation.Slides, 2)
	assert.Equal(t, response.GenerationID, task.Metadata["generation_id"])
}

func TestGenerateCached_OptionsChangeKey(t *testing.T) {
	planner := &stubPlanner{plan: twoSlidePlan()}
	svc := newTestService(t, planner, &stubContent{})

	_, err := svc.GenerateCached(context.Background(), &models.GenerationRequest{
		DocumentText: sampleDocument,
		Options:      map[string]interface{}{"style": "formal"},
	}, models.NewGenerationContext("gen_a"), "", nil)
	require.NoError(t, err)

	_, err = svc.GenerateCached(context.Background(), &models.GenerationRequest{
		DocumentText: sampleDocument,
		Options:      map[string]interface{}{"style": "casual"},
	}, models.NewGenerationContext("gen_b"), "", nil)
	require.NoError(t, err)

	// Different options must not share a cache entry
	assert.Equal(t, 2, planner.calls)
}
