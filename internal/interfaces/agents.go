package interfaces

import (
	"context"

	"github.com/ternarybob/ostendo/internal/models"
)

// PlanningInput carries the processed document material the planner works from
type PlanningInput struct {
	DocumentText string
	Stats        models.DocumentStats
	Sections     []models.Section
	Bullets      []models.BulletGroup
	Keywords     []models.Keyword
	Options      map[string]interface{}
}

// PlanningAgent produces a slide-level outline for a document
type PlanningAgent interface {
	GeneratePlan(ctx context.Context, input PlanningInput, gctx *models.GenerationContext) (*models.PresentationPlan, error)
}

// ContentAgent produces rendered content for a single planned slide
type ContentAgent interface {
	GenerateSlide(ctx context.Context, spec models.SlideSpec, excerpt string, gctx *models.GenerationContext) (*models.SlideContent, error)
}
