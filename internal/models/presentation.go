package models

// SlideSpec is the planner's outline for one slide. The token lists are
// short hints the content stage expands into full slide material.
type SlideSpec struct {
	SlideNumber   int      `json:"slide_number"`
	Title         string   `json:"title"`
	ContentTokens []string `json:"content_tokens"`
	FormatTokens  []string `json:"format_tokens,omitempty"`
	DesignTokens  []string `json:"design_tokens,omitempty"`
}

// PresentationPlan is the ordered slide outline produced by the planning stage
type PresentationPlan struct {
	Title  string      `json:"title"`
	Theme  string      `json:"theme,omitempty"`
	Slides []SlideSpec `json:"slides"`
}

// SlideContent is the rendered content for a single slide
type SlideContent struct {
	SlideNumber int    `json:"slide_number"`
	Title       string `json:"title"`
	Content     string `json:"content"` // HTML body
	Notes       string `json:"notes,omitempty"`
}

// Presentation is the final generated artifact
type Presentation struct {
	Title  string         `json:"title"`
	Theme  string         `json:"theme,omitempty"`
	Slides []SlideContent `json:"slides"`
}

// GenerationRequest is a document-to-presentation request
type GenerationRequest struct {
	DocumentText string                 `json:"document_text" validate:"required,min=1"`
	Options      map[string]interface{} `json:"options,omitempty"`
}

// GenerationResponse wraps a finished presentation with run metadata
type GenerationResponse struct {
	GenerationID string                 `json:"generation_id"`
	Presentation *Presentation          `json:"presentation"`
	Stats        map[string]interface{} `json:"stats,omitempty"`
}

// TaskSubmitResponse acknowledges an async submission
type TaskSubmitResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}
