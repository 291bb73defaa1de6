package model

import (
	"math"
	"strings"
)

// TaskBrief is the client's free-text project request.
type TaskBrief struct {
	BriefDescription string   `json:"briefDescription"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	Category         string   `json:"category,omitempty"`
	Budget           *float64 `json:"budget,omitempty"`
	Deadline         string   `json:"deadline,omitempty"`
}

// Text returns the brief, accepting the older shortDescription field.
func (b TaskBrief) Text() string {
	if s := strings.TrimSpace(b.BriefDescription); s != "" {
		return s
	}
	return strings.TrimSpace(b.ShortDescription)
}

// GeneratedContent is the structured expansion of a brief.
type GeneratedContent struct {
	DetailedDescription string   `json:"detailedDescription"`
	EstimatedHours      int      `json:"estimatedHours"`
	EstimatedCost       float64  `json:"estimatedCost"`
	SuggestedMilestones []string `json:"suggestedMilestones"`
	Requirements        []string `json:"requirements"`
	Deliverables        []string `json:"deliverables"`
	Technologies        []string `json:"technologies"`
	RiskAssessment      string   `json:"riskAssessment"`
}

// Normalize clamps negative or non-finite numbers to zero and replaces nil
// lists with empty ones.
func (c *GeneratedContent) Normalize() {
	if c.EstimatedHours < 0 {
		c.EstimatedHours = 0
	}
	if c.EstimatedCost < 0 || math.IsInf(c.EstimatedCost, 0) || math.IsNaN(c.EstimatedCost) {
		c.EstimatedCost = 0
	}
	c.SuggestedMilestones = nonNil(c.SuggestedMilestones)
	c.Requirements = nonNil(c.Requirements)
	c.Deliverables = nonNil(c.Deliverables)
	c.Technologies = nonNil(c.Technologies)
}

// IsEmpty reports whether no field carries content.
func (c GeneratedContent) IsEmpty() bool {
	return strings.TrimSpace(c.DetailedDescription) == "" &&
		c.EstimatedHours == 0 && c.EstimatedCost == 0 &&
		len(c.SuggestedMilestones) == 0 && len(c.Requirements) == 0 &&
		len(c.Deliverables) == 0
}

// Generation is the Content Generator's result envelope.
// Callers branch on Success only; Data is always fully populated.
type Generation struct {
	Success bool             `json:"success"`
	Data    GeneratedContent `json:"data"`
	Error   string           `json:"error,omitempty"`
	Source  string           `json:"source,omitempty"` // remote, fallback
}

const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// FailedGeneration returns a failure with zeroed, non-nil content.
func FailedGeneration(msg string) Generation {
	g := Generation{Success: false, Error: msg}
	g.Data.Normalize()
	return g
}

type Estimate struct {
	Hours      int     `json:"hours"`
	Cost       float64 `json:"cost"`
	Complexity string  `json:"complexity,omitempty"`
}

type Improvements struct {
	Suggestions         []string `json:"suggestions"`
	ImprovedDescription string   `json:"improvedDescription"`
}

type CategorySuggestion struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type ComplexityAnalysis struct {
	Complexity      string   `json:"complexity"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
