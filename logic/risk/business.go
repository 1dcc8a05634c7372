package risk

import (
	"log"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"loanrisk/types"
)

// OverlayConfig parameterizes the discretionary rules. Values come from an
// optional YAML file with compiled-in defaults.
type OverlayConfig struct {
	HighRiskRegions     []string `yaml:"high_risk_regions"`
	RegionImpact        float64  `yaml:"region_impact"`
	LoanAmountThreshold float64  `yaml:"loan_amount_threshold"`
	AmountImpact        float64  `yaml:"amount_impact"`
}

func DefaultOverlayConfig() OverlayConfig {
	return OverlayConfig{
		HighRiskRegions:     []string{"GABES", "TUNIS"},
		RegionImpact:        15,
		LoanAmountThreshold: 10000,
		AmountImpact:        10,
	}
}

// LoadOverlayConfig reads the YAML overlay file. A missing or unreadable file
// falls back to defaults; this configuration is advisory, not load-bearing.
func LoadOverlayConfig(path string) OverlayConfig {
	cfg := DefaultOverlayConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Printf(">>> [Rules] invalid overlay config %s: %v (using defaults)", path, err)
		return DefaultOverlayConfig()
	}
	return cfg
}

// ruleView is the flattened slice of an assessment the overlay predicates
// read. Keeping it explicit avoids predicates digging through the aggregate.
type ruleView struct {
	Region     string
	LoanAmount float64
}

type overlayRule struct {
	name      string
	priority  int
	condition func(ruleView) bool
	action    func(ruleView) map[string]any
}

// Overlay applies a small fixed set of named condition/action rules on top of
// the deterministic score. Rules never chain and never mutate the total.
type Overlay struct {
	rules []overlayRule
}

func NewOverlay(cfg OverlayConfig) *Overlay {
	return &Overlay{rules: []overlayRule{
		{
			name:     "region_risk",
			priority: 1,
			condition: func(v ruleView) bool {
				for _, r := range cfg.HighRiskRegions {
					if strings.EqualFold(v.Region, r) {
						return true
					}
				}
				return false
			},
			action: func(v ruleView) map[string]any {
				return map[string]any{"score": cfg.RegionImpact, "message": "High risk region"}
			},
		},
		{
			name:     "loan_amount_threshold",
			priority: 2,
			condition: func(v ruleView) bool {
				return v.LoanAmount > cfg.LoanAmountThreshold
			},
			action: func(v ruleView) map[string]any {
				return map[string]any{"score": cfg.AmountImpact, "message": "Large loan amount"}
			},
		},
	}}
}

// Apply evaluates every rule in ascending priority order and returns the
// impacts of the satisfied ones.
func (o *Overlay) Apply(a *types.Assessment) []types.BusinessRuleResult {
	view := ruleView{
		LoanAmount: a.LoanInfo.Financials.LoanAmount,
	}
	if ind, ok := a.RiskAssessment.Indicators["region"]; ok {
		if region, ok := ind.Value.(string); ok {
			view.Region = region
		}
	}

	ordered := make([]overlayRule, len(o.rules))
	copy(ordered, o.rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].priority < ordered[j].priority
	})

	var results []types.BusinessRuleResult
	for _, rule := range ordered {
		if rule.condition(view) {
			results = append(results, types.BusinessRuleResult{
				Rule:   rule.name,
				Impact: rule.action(view),
			})
		}
	}
	return results
}
