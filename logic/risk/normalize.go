package risk

import "strings"

// OtherCustomerType is the sentinel legal form for values outside the valid list.
const OtherCustomerType = "Autres"

// Normalizer canonicalizes raw applicant values before rule lookup. It is a
// pure function over its configured maps; it never touches the rule table.
type Normalizer struct {
	maritalStatusMap   map[string][]string
	validCustomerTypes []string
	udfValueMaps       map[string]map[string][]string
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		maritalStatusMap: map[string][]string{
			"célibataire": {"célibataire", "celibataire", "single", "s"},
			"divorcé":     {"divorcé", "divorce", "divorced", "d"},
			"marié":       {"marié", "married", "m"},
			"veuf":        {"veuf", "widow", "widowed", "v"},
		},
		validCustomerTypes: []string{"SA", "SUARL", "SARL", "ONG", "Société Personne Physique"},
		udfValueMaps: map[string]map[string][]string{
			"Niveau d'étude": {
				"Analphabète": {"analphabète", "analphabet", "illiterate"},
				"Primaire":    {"primaire", "primary"},
				"Secondaire":  {"secondaire", "secondary"},
				"Supérieur":   {"supérieur", "higher", "university"},
			},
			"Type Logement": {
				"Propriétaire":      {"propriétaire", "owner"},
				"Locataire":         {"locataire", "tenant"},
				"Logé gratuitement": {"logé gratuitement", "free housing"},
			},
		},
	}
}

// Normalize canonicalizes a standard field value. The second return reports
// whether the value mapped to a known variant; for the customer legal form it
// reports validity, with invalid values coerced to the "Autres" sentinel.
func (n *Normalizer) Normalize(field, value string) (string, bool) {
	if value == "" {
		return value, false
	}

	value = strings.ToLower(strings.TrimSpace(value))

	switch field {
	case "maritalStatus":
		for normStatus, variants := range n.maritalStatusMap {
			for _, v := range variants {
				if value == v {
					return normStatus, true
				}
			}
		}
		return value, false

	case "customerType":
		for _, ct := range n.validCustomerTypes {
			if strings.EqualFold(value, ct) {
				return value, true
			}
		}
		return OtherCustomerType, false
	}

	return value, false
}

// NormalizeUDF canonicalizes a supplementary field value by variant substring
// containment. Unmapped fields pass through lowercased.
func (n *Normalizer) NormalizeUDF(fieldName, value string) string {
	if value == "" {
		return value
	}

	value = strings.ToLower(strings.TrimSpace(value))

	if variants, ok := n.udfValueMaps[fieldName]; ok {
		for normalized, vs := range variants {
			for _, v := range vs {
				if strings.Contains(value, strings.ToLower(v)) {
					return normalized
				}
			}
		}
	}
	return value
}
