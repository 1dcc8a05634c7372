package risk

import (
	"strings"
	"sync"
)

// NoMatchingRule marks a field whose value matched none of the category's rules.
const NoMatchingRule = "No matching rule"

// NoRuleCategory marks a field whose mapped category is absent from the table.
const NoRuleCategory = "No rule category"

// Rule is one weighted item inside a category.
type Rule struct {
	Item   string
	Weight float64
}

// RuleTable holds the scoring rules grouped by category. Both category order
// and rule order follow the load order of the rule source; matching is
// first-match-wins, so the slices must keep it. Safe for concurrent use:
// the rules API can mutate the table while assessments read it.
type RuleTable struct {
	mu    sync.RWMutex
	order []string
	rules map[string][]Rule
}

func NewRuleTable() *RuleTable {
	return &RuleTable{rules: map[string][]Rule{}}
}

// Has reports whether the category exists in the table.
func (t *RuleTable) Has(category string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rules[category]
	return ok
}

// Add appends a rule to a category, creating the category on first use.
func (t *RuleTable) Add(category, item string, weight float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rules[category]; !ok {
		t.order = append(t.order, category)
	}
	t.rules[category] = append(t.rules[category], Rule{Item: item, Weight: weight})
}

// Match finds the first rule whose item is a case-insensitive substring of the
// stringified value. Known quirk: short items ("SA") can match inside
// unrelated text; that is the configured behavior, not a bug to fix here.
func (t *RuleTable) Match(category, value string) (string, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rules, ok := t.rules[category]
	if !ok {
		return NoRuleCategory, 0.0
	}
	strValue := strings.ToLower(value)
	for _, r := range rules {
		if strings.Contains(strValue, strings.ToLower(r.Item)) {
			return r.Item, r.Weight
		}
	}
	return NoMatchingRule, 0.0
}

// Items returns the ordered item names of a category.
func (t *RuleTable) Items(category string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rules := t.rules[category]
	items := make([]string, 0, len(rules))
	for _, r := range rules {
		items = append(items, r.Item)
	}
	return items
}

// Categories returns the category names in load order.
func (t *RuleTable) Categories() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Rules returns the ordered rules of a category.
func (t *RuleTable) Rules(category string) []Rule {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rules := t.rules[category]
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Len is the number of categories.
func (t *RuleTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// ReplaceAll atomically swaps the table contents with those of src.
func (t *RuleTable) ReplaceAll(src *RuleTable) {
	order := src.Categories()
	rules := make(map[string][]Rule, len(order))
	for _, category := range order {
		rules[category] = src.Rules(category)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.order = order
	t.rules = rules
}
