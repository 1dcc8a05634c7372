package loader

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"loanrisk/logic/risk"
)

// LoadRules reads the rule table from its CSV file, keeping rows in file
// order within each category since evaluation takes the first match. A
// missing file yields the built-in default table so the service can start on
// an empty deployment.
func LoadRules(path string) (*risk.RuleTable, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf(">>> [Loader] rules file %s not found, using defaults", path)
			return DefaultRules(), nil
		}
		return nil, fmt.Errorf("open rules file: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rules file: %v", err)
	}

	table := risk.NewRuleTable()
	for i, record := range records {
		category := strings.TrimSpace(record[0])
		item := strings.TrimSpace(record[1])
		weightRaw := strings.TrimSpace(record[2])

		// Header row.
		if i == 0 && strings.EqualFold(category, "category") {
			continue
		}
		if category == "" || item == "" {
			continue
		}

		weight, err := strconv.ParseFloat(weightRaw, 64)
		if err != nil {
			return nil, fmt.Errorf("rules file row %d: bad weight %q", i+1, weightRaw)
		}
		table.Add(category, item, weight)
	}

	log.Printf(">>> [Loader] loaded %d rule categories from %s", table.Len(), path)
	return table, nil
}

// SaveRules writes the table back in the same CSV layout, preserving rule
// order.
func SaveRules(path string, table *risk.RuleTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create rules file: %v", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write([]string{"category", "item", "weight"}); err != nil {
		return err
	}
	for _, category := range table.Categories() {
		for _, rule := range table.Rules(category) {
			row := []string{category, rule.Item, strconv.FormatFloat(rule.Weight, 'f', -1, 64)}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// DefaultRules is the fallback table used when no CSV is deployed. Weights
// follow the standard KYC scoring grid.
func DefaultRules() *risk.RuleTable {
	table := risk.NewRuleTable()

	add := func(category string, pairs ...any) {
		for i := 0; i < len(pairs); i += 2 {
			table.Add(category, pairs[i].(string), pairs[i+1].(float64))
		}
	}

	add("Forme Juridique du B.EFFECTIF",
		"SA", 0.0,
		"SUARL", 0.0,
		"SARL", 0.0,
		"Société Personne Physique", 2.0,
		"ONG", 5.0,
		"Autres", 5.0,
	)
	add("Raison de financement",
		"Matériels et Equipements", 0.0,
		"Moyens de transport", 15.0,
		"Marchandises", 0.0,
		"Produits agricoles", 7.5,
		"Produits d'élevage", 10.0,
		"Rénovation et amenagement", 2.5,
		"Services", 2.5,
	)
	add("Genre",
		"M", 2.0,
		"F", 1.0,
	)
	add("Situation familiale",
		"Veuf", 1.0,
		"Marié", 0.0,
		"Célibataire", 5.0,
		"Divorcé", 2.0,
	)
	add("Catégorie de l'activité",
		"Personne morale", 1.0,
		"Personne Physique", 3.0,
	)
	add("Produit",
		"Aouda Madrassiy", 0.0,
		"CV_Arboricultur", 0.0,
		"CV_Bovine", 0.0,
		"CV_Culture Mara", 0.0,
		"CV_Grande Cultu", 2.5,
		"CV_Ovine", 5.0,
		"Eco Panneau", 0.0,
		"Equip Frigorifi", 5.0,
		"Herfeti", 2.5,
		"Karhabti", 10.0,
		"Maktabati", 0.0,
		"Mechiati", 5.0,
		"Peinture de bat", 0.0,
		"Produit Agricol", 2.5,
		"Taamir", 0.0,
		"Tabrid", 0.0,
		"Tafawouak", 0.0,
		"Tarmim", 0.0,
		"Tijarati", 5.0,
		"Tok tok", 5.0,
		"Ziraati", 7.5,
	)
	add("Région",
		"ARIANA", 10.0,
		"BEJA", 5.0,
		"BEN AROUS", 10.0,
		"BIZERTE", 10.0,
		"GABES", 15.0,
		"GAFSA", 20.0,
		"JENDOUBA", 20.0,
		"KAIROUAN", 10.0,
		"KASSERINE", 20.0,
		"KEBILI", 10.0,
		"LE KEF", 20.0,
		"MAHDIA", 15.0,
		"MANOUBA", 10.0,
		"MEDENINE", 15.0,
		"MONASTIR", 5.0,
		"NABEUL", 5.0,
		"SFAX", 15.0,
		"SIDI BOUZID", 15.0,
		"SILIANA", 5.0,
		"SOUSSE", 10.0,
		"TATAOUINE", 5.0,
		"TOZEUR", 10.0,
		"TUNIS", 5.0,
		"ZAGHOUAN", 5.0,
	)
	add("Résident",
		"Oui", 1.0,
		"Non", 3.0,
	)
	add("Patenté",
		"Oui", 0.0,
		"Non", 2.0,
	)
	add("Type d'activité",
		"Formel", 1.0,
		"Informel", 2.0,
	)
	add("BENEFICIAIRE EFFECTIF",
		"Oui", 0.0,
		"Non", 2.0,
	)
	add("Secteur d'activité",
		"Agriculture", 5.0,
		"Amelioration du logement", 3.0,
		"Artisanat", 3.0,
		"Autres ACV", 3.0,
		"Commerce", 4.0,
		"Education", 0.0,
		"Elevage", 7.0,
		"Pêche", 10.0,
		"Production", 4.0,
		"Services", 5.0,
	)
	add("Niveau d'étude",
		"Analphabète", 5.0,
		"Primaire", 3.0,
		"Secondaire", 1.0,
		"Supérieur", 0.0,
	)
	add("Type de logement",
		"Propriétaire", 0.0,
		"Locataire", 5.0,
		"Logé gratuitement", 5.0,
	)
	add("Couverture sociale",
		"Oui", 0.0,
		"Non", 2.0,
	)

	return table
}
