package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/SergeyShakirov/TaskGo/backend/config"
	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/pkg/logger"
)

// ContentGenerator expands briefs into structured content. Remote failures
// never reach the caller; they are absorbed by the local fallback.
type ContentGenerator struct {
	client       ChatClient
	fallback     *FallbackGenerator
	fallbackMode bool
}

// NewContentGenerator decides fallback mode once, from cfg. A nil client
// means the DeepSeek client built from cfg.
func NewContentGenerator(cfg *config.AIConfig, client ChatClient, rnd Randomizer) *ContentGenerator {
	if rnd == nil {
		rnd = NewRandomizer(cfg.Seed)
	}
	fallbackMode := cfg.FallbackMode()
	if client == nil && !fallbackMode {
		client = NewDeepSeekClient(cfg)
	}
	return &ContentGenerator{
		client:       client,
		fallback:     NewFallbackGenerator(rnd),
		fallbackMode: fallbackMode || client == nil,
	}
}

// FallbackMode reports whether the generator runs without the remote provider.
func (g *ContentGenerator) FallbackMode() bool {
	return g.fallbackMode
}

// Generate returns success for every non-empty brief.
func (g *ContentGenerator) Generate(ctx context.Context, brief model.TaskBrief) model.Generation {
	if brief.Text() == "" {
		return model.FailedGeneration(ErrBriefRequired.Error())
	}

	if raw, ok := g.ask(ctx, "generate", generatePrompt(brief)); ok {
		content, err := ParseGeneratedContent(raw)
		if err == nil {
			return model.Generation{Success: true, Data: content, Source: model.SourceRemote}
		}
		logger.Warn(ctx, "Unusable provider output, using fallback", "op", "generate", "error", err)
	}

	return model.Generation{Success: true, Data: g.fallback.Content(brief), Source: model.SourceFallback}
}

// Estimate sizes a task. Provider output that cannot be parsed falls back
// to the canned estimate, so the result is never empty.
func (g *ContentGenerator) Estimate(ctx context.Context, description, category string) model.Estimate {
	if raw, ok := g.ask(ctx, "estimate", estimatePrompt(description, category)); ok {
		est, err := parseEstimate(raw, model.Estimate{Hours: 40, Cost: 60000, Complexity: "Medium"})
		if err == nil {
			return est
		}
		logger.Warn(ctx, "Unusable provider output, using fallback", "op", "estimate", "error", err)
	}
	return g.fallback.Estimate()
}

// SuggestImprovements merges provider suggestions over the fallback list.
func (g *ContentGenerator) SuggestImprovements(ctx context.Context, description string) model.Improvements {
	out := g.fallback.Improvements()
	if raw, ok := g.ask(ctx, "improve", improvePrompt(description)); ok {
		fields, err := extractFields(raw)
		if err == nil {
			if l, ok := fieldStringList(fields, "improvements"); ok && len(l) > 0 {
				out.Suggestions = l
			}
			if s, ok := fieldString(fields, "improvedDescription"); ok {
				out.ImprovedDescription = s
			}
			return out
		}
		logger.Warn(ctx, "Unusable provider output, using fallback", "op", "improve", "error", err)
	}
	return out
}

// SuggestCategories returns categories numbered from 1, each with an icon.
func (g *ContentGenerator) SuggestCategories(ctx context.Context, description string) []model.CategorySuggestion {
	names := g.fallback.Categories()
	if raw, ok := g.ask(ctx, "categories", categoriesPrompt(description)); ok {
		l, err := parseStringList(raw, "categories")
		if err == nil {
			names = l
		} else {
			logger.Warn(ctx, "Unusable provider output, using fallback", "op", "categories", "error", err)
		}
	}

	out := make([]model.CategorySuggestion, 0, len(names))
	for i, name := range names {
		out = append(out, model.CategorySuggestion{
			ID:          strconv.Itoa(i + 1),
			Name:        name,
			Description: "Category: " + name,
			Icon:        categoryIcon(name),
		})
	}
	return out
}

// AnalyzeComplexity rates a description; the fallback answers when the
// provider is unavailable or its reply is unusable.
func (g *ContentGenerator) AnalyzeComplexity(ctx context.Context, description string) model.ComplexityAnalysis {
	def := g.fallback.Complexity()
	if raw, ok := g.ask(ctx, "complexity", complexityPrompt(description)); ok {
		out, err := parseComplexity(raw, def)
		if err == nil {
			return out
		}
		logger.Warn(ctx, "Unusable provider output, using fallback", "op", "complexity", "error", err)
	}
	return def
}

// ask returns the provider text, or false when the fallback must answer.
func (g *ContentGenerator) ask(ctx context.Context, op string, req CompletionRequest) (string, bool) {
	if g.fallbackMode {
		logger.Debug(ctx, "Fallback mode, skipping provider", "op", op)
		return "", false
	}
	raw, err := g.client.Complete(ctx, req)
	if err != nil {
		logger.Warn(ctx, "Provider call failed, using fallback", "op", op, "error", err)
		return "", false
	}
	return raw, true
}

func categoryIcon(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "web"):
		return "web"
	case strings.Contains(n, "mobile"):
		return "mobile"
	case strings.Contains(n, "design"):
		return "design"
	}
	return "code"
}
