package models

import "time"

// StageStatus represents the state of one pipeline stage
type StageStatus string

const (
	StageNotStarted StageStatus = "not_started"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
	StageFailed     StageStatus = "failed"
)

// Pipeline stage names
const (
	StageDocumentProcessing = "document_processing"
	StageContentExtraction  = "content_extraction"
	StagePlanning           = "planning"
	StageContentGeneration  = "content_generation"
)

// GenerationError records a failure observed during a pipeline run
type GenerationError struct {
	Stage     string                 `json:"stage"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// GenerationStats accumulates usage bookkeeping for one pipeline run
type GenerationStats struct {
	StartTime        time.Time         `json:"start_time"`
	EndTime          *time.Time        `json:"end_time,omitempty"`
	PromptTokens     int               `json:"prompt_tokens"`
	CompletionTokens int               `json:"completion_tokens"`
	TotalTokens      int               `json:"total_tokens"`
	TotalCalls       int               `json:"total_calls"`
	ToolsUsed        map[string]int    `json:"tools_used,omitempty"`
	StagesCompleted  []string          `json:"stages_completed,omitempty"`
	Errors           []GenerationError `json:"errors,omitempty"`
}

// GenerationContext carries shared state through one pipeline run.
// A run is driven by a single goroutine, so the context does not
// synchronize access.
type GenerationContext struct {
	GenerationID     string                 `json:"generation_id"`
	DocumentSource   string                 `json:"document_source,omitempty"`
	DocumentStats    *DocumentStats         `json:"document_stats,omitempty"`
	ExtractedContent map[string]interface{} `json:"extracted_content,omitempty"`
	StageStatus      map[string]StageStatus `json:"stage_status"`
	SharedData       map[string]interface{} `json:"shared_data,omitempty"`
	AgentOutputs     map[string]interface{} `json:"agent_outputs,omitempty"`
	Stats            GenerationStats        `json:"stats"`
}

// NewGenerationContext creates a context for a fresh pipeline run
func NewGenerationContext(generationID string) *GenerationContext {
	return &GenerationContext{
		GenerationID:     generationID,
		ExtractedContent: make(map[string]interface{}),
		StageStatus: map[string]StageStatus{
			StageDocumentProcessing: StageNotStarted,
			StageContentExtraction:  StageNotStarted,
			StagePlanning:           StageNotStarted,
			StageContentGeneration:  StageNotStarted,
		},
		SharedData:   make(map[string]interface{}),
		AgentOutputs: make(map[string]interface{}),
		Stats: GenerationStats{
			StartTime: time.Now(),
			ToolsUsed: make(map[string]int),
		},
	}
}

// SetDocumentStats records the processed document's statistics
func (c *GenerationContext) SetDocumentStats(stats DocumentStats) {
	c.DocumentStats = &stats
}

// AddExtractedContent stores extracted material under a content type key
func (c *GenerationContext) AddExtractedContent(contentType string, content interface{}) {
	c.ExtractedContent[contentType] = content
}

// GetExtractedContent returns previously extracted material
func (c *GenerationContext) GetExtractedContent(contentType string) (interface{}, bool) {
	content, ok := c.ExtractedContent[contentType]
	return content, ok
}

// SetStageStatus updates a stage's status. A transition to completed
// appends the stage to StagesCompleted exactly once.
func (c *GenerationContext) SetStageStatus(stage string, status StageStatus) {
	c.StageStatus[stage] = status

	if status == StageCompleted && !c.IsStageCompleted(stage) {
		c.Stats.StagesCompleted = append(c.Stats.StagesCompleted, stage)
	}
}

// IsStageCompleted reports whether a stage appears in StagesCompleted
func (c *GenerationContext) IsStageCompleted(stage string) bool {
	for _, s := range c.Stats.StagesCompleted {
		if s == stage {
			return true
		}
	}
	return false
}

// ShareData stores a value for later pipeline stages
func (c *GenerationContext) ShareData(key string, value interface{}) {
	c.SharedData[key] = value
}

// GetSharedData retrieves a value stored by an earlier stage
func (c *GenerationContext) GetSharedData(key string) (interface{}, bool) {
	value, ok := c.SharedData[key]
	return value, ok
}

// RecordAgentOutput stores an agent's raw output for inspection
func (c *GenerationContext) RecordAgentOutput(agentName string, output interface{}) {
	c.AgentOutputs[agentName] = output
}

// GetAgentOutput retrieves a recorded agent output
func (c *GenerationContext) GetAgentOutput(agentName string) (interface{}, bool) {
	output, ok := c.AgentOutputs[agentName]
	return output, ok
}

// RecordToolUsage increments the usage count for a tool or agent
func (c *GenerationContext) RecordToolUsage(tool string) {
	c.Stats.ToolsUsed[tool]++
}

// AddTokens accumulates token usage from one provider call
func (c *GenerationContext) AddTokens(promptTokens, completionTokens int) {
	c.Stats.PromptTokens += promptTokens
	c.Stats.CompletionTokens += completionTokens
	c.Stats.TotalTokens += promptTokens + completionTokens
	c.Stats.TotalCalls++
}

// RecordError appends a failure to the run's error log
func (c *GenerationContext) RecordError(stage, message string, details map[string]interface{}) {
	c.Stats.Errors = append(c.Stats.Errors, GenerationError{
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now(),
		Details:   details,
	})
}

// Complete stamps the end time and returns the final stats
func (c *GenerationContext) Complete() GenerationStats {
	now := time.Now()
	c.Stats.EndTime = &now
	return c.Stats
}

// StatsSummary returns the run statistics as a generic map for responses
func (c *GenerationContext) StatsSummary() map[string]interface{} {
	summary := map[string]interface{}{
		"prompt_tokens":     c.Stats.PromptTokens,
		"completion_tokens": c.Stats.CompletionTokens,
		"total_tokens":      c.Stats.TotalTokens,
		"total_calls":       c.Stats.TotalCalls,
		"stages_completed":  c.Stats.StagesCompleted,
	}
	if c.Stats.EndTime != nil {
		summary["duration_seconds"] = c.Stats.EndTime.Sub(c.Stats.StartTime).Seconds()
	}
	if len(c.Stats.Errors) > 0 {
		summary["error_count"] = len(c.Stats.Errors)
	}
	return summary
}
