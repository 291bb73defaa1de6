package service

import (
	"fmt"
	"strings"

	"github.com/SergeyShakirov/TaskGo/backend/model"
)

const (
	specificationMarker = "technical specification"
	estimateMarker      = "Estimate the effort"
	improveMarker       = "Suggest improvements"
	categoriesMarker    = "Pick categories"
	complexityMarker    = "Analyze the complexity"
)

func generatePrompt(brief model.TaskBrief) CompletionRequest {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a detailed %s for the project: %q.\n", specificationMarker, brief.Text())
	if brief.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", brief.Category)
	}
	if brief.Budget != nil && *brief.Budget > 0 {
		fmt.Fprintf(&b, "Budget: %.0f RUB\n", *brief.Budget)
	}
	if brief.Deadline != "" {
		fmt.Fprintf(&b, "Deadline: %s\n", brief.Deadline)
	}
	b.WriteString(`
Answer with a single JSON object:
{
  "detailedDescription": string,
  "estimatedHours": number,
  "estimatedCost": number (RUB, about 1500 per hour),
  "suggestedMilestones": string[],
  "requirements": string[],
  "deliverables": string[],
  "technologies": string[],
  "riskAssessment": string
}`)

	return CompletionRequest{
		System:      "You write technical specifications for IT projects. Answer in JSON only.",
		User:        b.String(),
		Temperature: 0.7,
		MaxTokens:   2000,
	}
}

func estimatePrompt(description, category string) CompletionRequest {
	user := fmt.Sprintf("%s and cost of the task: %q.\n", estimateMarker, description)
	if category != "" {
		user += "Category: " + category + "\n"
	}
	user += `Answer in JSON: {"estimatedHours": number, "estimatedCost": number (RUB, 1500 per hour), "complexity": "Low"|"Medium"|"High", "riskFactors": string[]}`
	return CompletionRequest{
		System:      "You estimate the complexity of IT projects. Answer in JSON only.",
		User:        user,
		Temperature: 0.3,
		MaxTokens:   1000,
	}
}

func improvePrompt(description string) CompletionRequest {
	return CompletionRequest{
		System: "You consult on IT products and propose concrete, feasible improvements. Answer in JSON only.",
		User: fmt.Sprintf("%s for the project: %q.\n", improveMarker, description) +
			`Answer in JSON: {"improvements": string[], "improvedDescription": string}`,
		Temperature: 0.8,
		MaxTokens:   1500,
	}
}

func categoriesPrompt(description string) CompletionRequest {
	return CompletionRequest{
		System: "You classify IT projects. Answer in JSON only.",
		User: fmt.Sprintf("%s that fit the project: %q.\n", categoriesMarker, description) +
			`Answer in JSON: {"categories": string[]}`,
		Temperature: 0.5,
		MaxTokens:   500,
	}
}

func complexityPrompt(description string) CompletionRequest {
	return CompletionRequest{
		System: "You analyze IT project complexity and give practical advice. Answer in JSON only.",
		User: fmt.Sprintf("%s of the project: %q.\n", complexityMarker, description) +
			`Answer in JSON: {"complexity": "Low"|"Medium"|"High", "factors": string[], "recommendations": string[]}`,
		Temperature: 0.4,
		MaxTokens:   1000,
	}
}
