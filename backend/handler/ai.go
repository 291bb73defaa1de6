package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/service"
)

const msgDescriptionRequired = "Description is required"

// Generator is the content-generation surface the AI routes expose.
type Generator interface {
	Generate(ctx context.Context, brief model.TaskBrief) model.Generation
	Estimate(ctx context.Context, description, category string) model.Estimate
	SuggestImprovements(ctx context.Context, description string) model.Improvements
	SuggestCategories(ctx context.Context, description string) []model.CategorySuggestion
	AnalyzeComplexity(ctx context.Context, description string) model.ComplexityAnalysis
}

var _ Generator = (*service.ContentGenerator)(nil)

type AIHandler struct {
	generator Generator
}

// NewAIHandler serves the /api/ai routes from g.
func NewAIHandler(g Generator) *AIHandler {
	return &AIHandler{generator: g}
}

type descriptionRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

// description binds a description-keyed body, answering 400 when it is blank.
func description(c *gin.Context) (descriptionRequest, bool) {
	var req descriptionRequest
	if !bindJSON(c, &req) {
		return req, false
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		fail(c, http.StatusBadRequest, msgDescriptionRequired)
		return req, false
	}
	return req, true
}

// GenerateDescription expands a brief. A generation that reports failure is
// returned as 502 with its content attached.
func (h *AIHandler) GenerateDescription(c *gin.Context) {
	var brief model.TaskBrief
	if !bindJSON(c, &brief) {
		return
	}
	if brief.Text() == "" {
		fail(c, http.StatusBadRequest, "Brief description is required")
		return
	}

	gen := h.generator.Generate(c.Request.Context(), brief)
	if !gen.Success {
		msg := gen.Error
		if msg == "" {
			msg = "Content generation failed"
		}
		c.JSON(http.StatusBadGateway, model.Response{Success: false, Message: msg, Data: gen.Data})
		return
	}
	c.JSON(http.StatusOK, gen)
}

// Estimate handles POST /api/ai/estimate.
func (h *AIHandler) Estimate(c *gin.Context) {
	req, ok := description(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, h.generator.Estimate(c.Request.Context(), req.Description, req.Category), "")
}

// SuggestImprovements handles POST /api/ai/suggest-improvements.
func (h *AIHandler) SuggestImprovements(c *gin.Context) {
	req, ok := description(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, h.generator.SuggestImprovements(c.Request.Context(), req.Description), "")
}

// SuggestCategories handles POST /api/ai/suggest-categories.
func (h *AIHandler) SuggestCategories(c *gin.Context) {
	req, ok := description(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, h.generator.SuggestCategories(c.Request.Context(), req.Description), "")
}

// AnalyzeComplexity handles POST /api/ai/analyze-complexity.
func (h *AIHandler) AnalyzeComplexity(c *gin.Context) {
	req, ok := description(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, h.generator.AnalyzeComplexity(c.Request.Context(), req.Description), "")
}
