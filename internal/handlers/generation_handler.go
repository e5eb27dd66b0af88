package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
	"github.com/ternarybob/ostendo/internal/services/generator"
)

// GenerationHandler exposes the presentation pipeline over HTTP
type GenerationHandler struct {
	generator      *generator.Service
	tasks          interfaces.TaskService
	validate       *validator.Validate
	maxUploadBytes int64
	logger         arbor.ILogger
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(gen *generator.Service, tasks interfaces.TaskService, maxUploadBytes int64, logger arbor.ILogger) *GenerationHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 * 1024 * 1024
	}

	return &GenerationHandler{
		generator:      gen,
		tasks:          tasks,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Generate handles POST /api/generate - synchronous generation
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	gctx := models.NewGenerationContext(common.NewGenerationID())

	presentation, err := h.generator.GenerateCached(r.Context(), req, gctx, "", nil)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, interfaces.ErrMissingInput) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.GenerationResponse{
		GenerationID: gctx.GenerationID,
		Presentation: presentation,
		Stats:        gctx.StatsSummary(),
	})
}

// GenerateAsync handles POST /api/generate-async - task submission
func (h *GenerationHandler) GenerateAsync(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	taskID, err := h.generator.SubmitAsync(r.Context(), req)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotAccepting) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, models.TaskSubmitResponse{
		TaskID:  taskID,
		Message: "Generation task submitted",
	})
}

// GenerateFromFileAsync handles POST /api/generate-from-file-async -
// multipart upload, converted by file extension, then the same pipeline
func (h *GenerationHandler) GenerateFromFileAsync(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	extension := filepath.Ext(header.Filename)

	options := map[string]interface{}{}
	if raw := r.FormValue("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &options); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid options JSON: %v", err))
			return
		}
	}

	taskID, err := h.generator.SubmitFileAsync(r.Context(), content, extension, options)
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrNotAccepting):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, interfaces.ErrUnsupportedFormat):
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusAccepted, models.TaskSubmitResponse{
		TaskID:  taskID,
		Message: fmt.Sprintf("Generation task submitted for %s", header.Filename),
	})
}

// Status handles GET /api/generation/{id}/status
func (h *GenerationHandler) Status(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")

	task, ok := h.tasks.GetStatus(taskID)
	if !ok {
		writeError(w, http.StatusNotFound, interfaces.ErrTaskNotFound.Error())
		return
	}

	// Status responses never carry the payload; use the result endpoint
	task.Result = nil

	writeJSON(w, http.StatusOK, task)
}

// Result handles GET /api/generation/{id}/result
func (h *GenerationHandler) Result(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")

	task, ok := h.tasks.GetStatus(taskID)
	if !ok {
		writeError(w, http.StatusNotFound, interfaces.ErrTaskNotFound.Error())
		return
	}

	switch task.Status {
	case models.TaskStatusCompleted:
		writeJSON(w, http.StatusOK, task.Result)
	case models.TaskStatusFailed:
		writeError(w, http.StatusInternalServerError, task.Error)
	case models.TaskStatusCancelled:
		writeError(w, http.StatusGone, task.Error)
	default:
		writeError(w, http.StatusConflict, interfaces.ErrResultNotReady.Error())
	}
}

// List handles GET /api/generations
func (h *GenerationHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks := h.tasks.ListAll()
	for _, task := range tasks {
		task.Result = nil
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// ListActive handles GET /api/generations/active
func (h *GenerationHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	tasks := h.tasks.ListActive()
	for _, task := range tasks {
		task.Result = nil
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// decodeRequest parses and validates a JSON generation request
func (h *GenerationHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*models.GenerationRequest, bool) {
	var req models.GenerationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return nil, false
	}

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("validation failed: %v", err))
		return nil, false
	}

	if strings.TrimSpace(req.DocumentText) == "" {
		writeError(w, http.StatusBadRequest, interfaces.ErrMissingInput.Error())
		return nil, false
	}

	return &req, true
}
