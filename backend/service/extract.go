package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/SergeyShakirov/TaskGo/backend/model"
)

// Defaults substituted for fields a provider answer leaves out.
const (
	defaultDetailedDescription = "Detailed description was not generated"
	defaultEstimatedHours      = 40
	defaultEstimatedCost       = 50000

	// maxEstimatedHours caps provider estimates before they become ints.
	maxEstimatedHours = 1_000_000
)

var (
	defaultMilestones   = []string{"Requirements analysis", "Development", "Testing", "Deployment"}
	defaultRequirements = []string{"Approved technical specification", "Design mockups", "Access to the required systems"}
	defaultDeliverables = []string{"Working product", "Documentation", "Project handover"}
)

// ParseGeneratedContent turns untrusted provider text into a fully populated
// GeneratedContent. It is the only place provider JSON is interpreted.
func ParseGeneratedContent(raw string) (model.GeneratedContent, error) {
	fields, err := extractFields(raw)
	if err != nil {
		return model.GeneratedContent{}, err
	}

	content := model.GeneratedContent{
		DetailedDescription: defaultDetailedDescription,
		EstimatedHours:      defaultEstimatedHours,
		EstimatedCost:       defaultEstimatedCost,
		SuggestedMilestones: clone(defaultMilestones),
		Requirements:        clone(defaultRequirements),
		Deliverables:        clone(defaultDeliverables),
	}

	if s, ok := fieldString(fields, "detailedDescription"); ok {
		content.DetailedDescription = s
	}
	if n, ok := fieldNumber(fields, "estimatedHours"); ok && n > 0 {
		content.EstimatedHours = roundHours(n)
	}
	if n, ok := fieldNumber(fields, "estimatedCost"); ok && n > 0 {
		content.EstimatedCost = n
	}
	if l, ok := fieldStringList(fields, "suggestedMilestones"); ok {
		content.SuggestedMilestones = l
	}
	if l, ok := fieldStringList(fields, "requirements"); ok {
		content.Requirements = l
	}
	if l, ok := fieldStringList(fields, "deliverables"); ok {
		content.Deliverables = l
	}
	if l, ok := fieldStringList(fields, "technologies"); ok {
		content.Technologies = l
	}
	if s, ok := fieldString(fields, "riskAssessment"); ok {
		content.RiskAssessment = s
	}

	content.Normalize()
	return content, nil
}

// parseEstimate reads an estimate answer, keeping def for absent fields.
func parseEstimate(raw string, def model.Estimate) (model.Estimate, error) {
	fields, err := extractFields(raw)
	if err != nil {
		return def, err
	}
	est := def
	if n, ok := fieldNumber(fields, "estimatedHours"); ok && n > 0 {
		est.Hours = roundHours(n)
	}
	if n, ok := fieldNumber(fields, "estimatedCost"); ok && n > 0 {
		est.Cost = n
	}
	if s, ok := fieldString(fields, "complexity"); ok {
		est.Complexity = s
	}
	return est, nil
}

// parseStringList reads one list-valued key from an answer.
func parseStringList(raw, key string) ([]string, error) {
	fields, err := extractFields(raw)
	if err != nil {
		return nil, err
	}
	l, ok := fieldStringList(fields, key)
	if !ok || len(l) == 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidOutput, key)
	}
	return l, nil
}

func parseComplexity(raw string, def model.ComplexityAnalysis) (model.ComplexityAnalysis, error) {
	fields, err := extractFields(raw)
	if err != nil {
		return def, err
	}
	out := def
	if s, ok := fieldString(fields, "complexity"); ok {
		out.Complexity = s
	}
	if l, ok := fieldStringList(fields, "factors"); ok && len(l) > 0 {
		out.Factors = l
	}
	if l, ok := fieldStringList(fields, "recommendations"); ok && len(l) > 0 {
		out.Recommendations = l
	}
	return out, nil
}

func extractFields(raw string) (map[string]json.RawMessage, error) {
	block := extractJSONBlock(stripCodeFences(raw))
	if block == "" {
		return nil, fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return fields, nil
}

// stripCodeFences removes markdown fence lines (```json ... ```).
func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// extractJSONBlock returns the first balanced { ... } block in s.
func extractJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func fieldString(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// fieldNumber accepts a JSON number or a numeric string such as "1 500".
// Infinities and NaN are rejected.
func fieldNumber(fields map[string]json.RawMessage, key string) (float64, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		s = strings.NewReplacer(" ", "", "\u00a0", "", ",", "").Replace(s)
		if n, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, false
		}
	}
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func roundHours(n float64) int {
	return int(math.Round(min(n, maxEstimatedHours)))
}

// fieldStringList accepts an array of scalars; non-string items are
// rendered with their JSON text and blanks are dropped.
func fieldStringList(fields map[string]json.RawMessage, key string) ([]string, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			s = string(item)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
