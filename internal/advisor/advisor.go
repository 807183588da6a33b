package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sdpower/tokenflow-go/internal/config"
)

// Recommendation is the advisory result for one task description.
type Recommendation struct {
	Classification   string  `json:"classification"`
	RecommendedModel string  `json:"recommended_model"`
	Reasoning        string  `json:"reasoning"`
	Confidence       float64 `json:"confidence"`
	CostSavings      float64 `json:"cost_savings"`
}

// profile is one row of the fixed classification -> model mapping.
type profile struct {
	family     string
	reasoning  string
	confidence float64
}

var profiles = map[string]profile{
	"quick": {
		family:     "haiku",
		reasoning:  "short lookup or formatting task, the fastest model is enough",
		confidence: 0.85,
	},
	"coding": {
		family:     "sonnet",
		reasoning:  "coding task, balanced model gives the best cost/quality trade-off",
		confidence: 0.8,
	},
	"complex": {
		family:     "opus",
		reasoning:  "deep reasoning task, strongest model recommended",
		confidence: 0.75,
	},
	"general": {
		family:     "sonnet",
		reasoning:  "general task, defaulting to the balanced model",
		confidence: 0.6,
	},
}

var keywordLabels = []struct {
	label    string
	keywords []string
}{
	{"complex", []string{"architect", "design", "prove", "research", "analyze", "complex", "plan"}},
	{"coding", []string{"code", "implement", "refactor", "debug", "fix", "test", "function", "bug"}},
	{"quick", []string{"summarize", "translate", "list", "format", "rename", "lookup", "what is"}},
}

// Advisor maps a free-text task description to a model recommendation using
// the same pricing table the aggregator consumes.
type Advisor struct {
	cfg config.Config
}

func New(cfg config.Config) *Advisor {
	return &Advisor{cfg: cfg}
}

// Classify returns a task label from a small fixed keyword mapping.
func (a *Advisor) Classify(task string) string {
	lower := strings.ToLower(task)
	for _, kl := range keywordLabels {
		for _, kw := range kl.keywords {
			if strings.Contains(lower, kw) {
				return kl.label
			}
		}
	}
	return "general"
}

// Recommend classifies the task and compares the recommended model's cost
// against the most expensive model in the pricing table, for a nominal
// 1000-in/1000-out exchange.
func (a *Advisor) Recommend(task string) Recommendation {
	label := a.Classify(task)
	p := profiles[label]

	model := a.newestOfFamily(p.family)
	if model == "" {
		model, _ = a.mostExpensive()
	}

	_, expensiveCost := a.mostExpensive()
	savings := expensiveCost - a.nominalCost(model)
	if savings < 0 {
		savings = 0
	}

	return Recommendation{
		Classification:   label,
		RecommendedModel: model,
		Reasoning:        fmt.Sprintf("classified as %s: %s", label, p.reasoning),
		Confidence:       p.confidence,
		CostSavings:      savings,
	}
}

// newestOfFamily picks the lexically greatest model id of a family from the
// pricing table; date-stamped ids make that the newest release.
func (a *Advisor) newestOfFamily(family string) string {
	var newest string
	for model := range a.cfg.Pricing {
		if !strings.Contains(config.ModelFamily(model), family) {
			continue
		}
		if model > newest {
			newest = model
		}
	}
	return newest
}

func (a *Advisor) mostExpensive() (string, float64) {
	models := make([]string, 0, len(a.cfg.Pricing))
	for model := range a.cfg.Pricing {
		models = append(models, model)
	}
	sort.Strings(models)

	var best string
	var bestCost float64
	for _, model := range models {
		if cost := a.nominalCost(model); cost > bestCost {
			best, bestCost = model, cost
		}
	}
	return best, bestCost
}

func (a *Advisor) nominalCost(model string) float64 {
	price, ok := a.cfg.PriceFor(model)
	if !ok {
		return 0
	}
	return 1000*price.Input/1e6 + 1000*price.Output/1e6
}
