package service

import (
	"fmt"
	"log"

	"loanrisk/logic/loader"
	"loanrisk/logic/risk"
	"loanrisk/types"
)

// RulesService manages the live scoring table. The engine holds the same
// table pointer, so changes apply to the next assessment immediately.
type RulesService struct {
	table *risk.RuleTable
	path  string
}

func NewRulesService(table *risk.RuleTable, path string) *RulesService {
	return &RulesService{table: table, path: path}
}

// Rows returns the full table in category/rule order.
func (s *RulesService) Rows() []types.RuleRow {
	var rows []types.RuleRow
	for _, category := range s.table.Categories() {
		for _, rule := range s.table.Rules(category) {
			rows = append(rows, types.RuleRow{Category: category, Item: rule.Item, Weight: rule.Weight})
		}
	}
	return rows
}

// Add appends a rule and persists the table. New rules match after existing
// ones in the same category.
func (s *RulesService) Add(row *types.RuleRow) error {
	if row.Category == "" || row.Item == "" {
		return fmt.Errorf("category and item are required")
	}
	s.table.Add(row.Category, row.Item, row.Weight)

	if err := loader.SaveRules(s.path, s.table); err != nil {
		return fmt.Errorf("persist rules: %w", err)
	}
	log.Printf(">>> [Rules] added %s / %s (+%.1f)", row.Category, row.Item, row.Weight)
	return nil
}

// Reset restores the built-in default table and persists it.
func (s *RulesService) Reset() error {
	s.table.ReplaceAll(loader.DefaultRules())
	if err := loader.SaveRules(s.path, s.table); err != nil {
		return fmt.Errorf("persist rules: %w", err)
	}
	log.Printf(">>> [Rules] reset to defaults (%d categories)", s.table.Len())
	return nil
}
