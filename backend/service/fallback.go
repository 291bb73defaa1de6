package service

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/SergeyShakirov/TaskGo/backend/model"
)

// Randomizer is the source of variability for fallback content.
type Randomizer interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
}

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeededRandomizer returns a deterministic Randomizer.
func NewSeededRandomizer(seed uint64) Randomizer {
	return &lockedRand{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomizer seeds from seed, or from the clock when seed is 0.
func NewRandomizer(seed int64) Randomizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewSeededRandomizer(uint64(seed))
}

func (r *lockedRand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.IntN(n)
}

type contentTemplate struct {
	description  string
	milestones   []string
	requirements []string
	deliverables []string
	technologies []string
}

var generalTemplates = []contentTemplate{
	{
		description: "Development of the project %q covers the full cycle from analysis to rollout. " +
			"It is built on a modern stack following established engineering practice.",
		milestones:   []string{"Requirements analysis and planning", "Architecture and design", "Core feature development", "Testing and optimization", "Rollout and support"},
		requirements: []string{"Modern responsive interface", "Cross-platform compatibility", "High performance", "Data security"},
		deliverables: []string{"Ready-to-use solution", "Technical documentation", "User guide", "Project source code"},
		technologies: []string{"Go", "PostgreSQL", "React Native"},
	},
	{
		description: "End-to-end delivery of %q shaped by current market expectations. " +
			"Includes the user interface, backend logic and integration with external services.",
		milestones:   []string{"Research and prototyping", "UI/UX design and layout", "Implementation and integration", "Testing and debugging", "Production deployment"},
		requirements: []string{"Responsive design", "API integrations", "Authorization system", "Monitoring and analytics"},
		deliverables: []string{"Web or mobile application", "Admin panel", "API documentation", "Deployment guide"},
		technologies: []string{"TypeScript", "Node.js", "Redis"},
	},
	{
		description: "A scalable solution for %q on a current technology stack, " +
			"aimed at high performance and ease of use.",
		milestones:   []string{"Technical planning", "MVP development", "Feature expansion", "Integration testing", "Final delivery"},
		requirements: []string{"Scalable architecture", "Intuitive interface", "Reliable data protection", "Mobile device support"},
		deliverables: []string{"Working application", "Database and API", "Test suite", "Developer documentation"},
		technologies: []string{"Go", "Kafka", "Kubernetes"},
	},
}

var estimateTemplate = contentTemplate{
	description: "Costing brief for %q. The scope is split into measurable stages " +
		"so that each can be estimated and approved separately.",
	milestones:   []string{"Scope clarification", "Effort breakdown", "Implementation", "Acceptance"},
	requirements: []string{"Agreed scope of work", "Fixed budget ceiling", "Named decision maker"},
	deliverables: []string{"Itemized estimate", "Delivered product", "Acceptance report"},
}

var improveTemplate = contentTemplate{
	description: "Improvement of the existing product %q. Work starts from an audit " +
		"of the current state and proceeds in small, verifiable increments.",
	milestones:   []string{"Audit of the current product", "Prioritized improvement plan", "Incremental delivery", "Regression testing"},
	requirements: []string{"Access to the current codebase", "Usage analytics", "Existing documentation"},
	deliverables: []string{"Audit report", "Improved release", "Updated documentation"},
}

var (
	fallbackImprovements = []string{
		"Add notifications for clients",
		"Integrate online payments",
		"Introduce ratings and reviews",
		"Add geolocation to find contractors nearby",
		"Provide a chat between client and contractor",
	}
	fallbackCategories      = []string{"Software development", "Mobile apps", "Web development"}
	fallbackFactors         = []string{"Needs further analysis"}
	fallbackRecommendations = []string{"Clarify the requirements", "Split the work into stages"}
	complexityLevels        = []string{"Low", "Medium", "High"}
)

// FallbackGenerator produces canned content locally. Numbers vary within
// fixed ranges, driven by the injected Randomizer.
type FallbackGenerator struct {
	rnd Randomizer
}

func NewFallbackGenerator(rnd Randomizer) *FallbackGenerator {
	return &FallbackGenerator{rnd: rnd}
}

// Content picks a template keyed on words in the brief: cost-related briefs
// and improvement briefs get dedicated templates, anything else one of the
// general ones.
func (f *FallbackGenerator) Content(brief model.TaskBrief) model.GeneratedContent {
	text := brief.Text()
	lower := strings.ToLower(text)

	var tpl contentTemplate
	switch {
	case strings.Contains(lower, "estimate") || strings.Contains(lower, "cost"):
		tpl = estimateTemplate
	case strings.Contains(lower, "improve"):
		tpl = improveTemplate
	default:
		tpl = generalTemplates[f.rnd.IntN(len(generalTemplates))]
	}

	content := model.GeneratedContent{
		DetailedDescription: fmt.Sprintf(tpl.description, truncate(text, 50)),
		EstimatedHours:      40 + f.rnd.IntN(80),
		EstimatedCost:       float64(50000 + f.rnd.IntN(100000)),
		SuggestedMilestones: clone(tpl.milestones),
		Requirements:        clone(tpl.requirements),
		Deliverables:        clone(tpl.deliverables),
		Technologies:        clone(tpl.technologies),
		RiskAssessment:      "Medium complexity. Main risks are unclear requirements and third-party integrations.",
	}
	content.Normalize()
	return content
}

func (f *FallbackGenerator) Estimate() model.Estimate {
	return model.Estimate{
		Hours:      50 + f.rnd.IntN(100),
		Cost:       float64(75000 + f.rnd.IntN(150000)),
		Complexity: complexityLevels[f.rnd.IntN(len(complexityLevels))],
	}
}

func (f *FallbackGenerator) Improvements() model.Improvements {
	return model.Improvements{
		Suggestions:         clone(fallbackImprovements),
		ImprovedDescription: "Improved description that takes the recommendations into account.",
	}
}

func (f *FallbackGenerator) Categories() []string {
	return clone(fallbackCategories)
}

func (f *FallbackGenerator) Complexity() model.ComplexityAnalysis {
	return model.ComplexityAnalysis{
		Complexity:      "Medium",
		Factors:         clone(fallbackFactors),
		Recommendations: clone(fallbackRecommendations),
	}
}

