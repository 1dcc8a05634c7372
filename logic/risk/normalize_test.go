package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"loanrisk/logic/risk"
)

func TestNormalize_MaritalStatusVariants(t *testing.T) {
	n := risk.NewNormalizer()

	for _, variant := range []string{"married", "M", "Marié", " marié "} {
		normalized, ok := n.Normalize("maritalStatus", variant)
		assert.True(t, ok, "variant %q", variant)
		assert.Equal(t, "marié", normalized, "variant %q", variant)
	}

	normalized, ok := n.Normalize("maritalStatus", "pacsé")
	assert.False(t, ok)
	assert.Equal(t, "pacsé", normalized)
}

func TestNormalize_CustomerType(t *testing.T) {
	n := risk.NewNormalizer()

	_, ok := n.Normalize("customerType", "sarl")
	assert.True(t, ok)

	normalized, ok := n.Normalize("customerType", "Coopérative")
	assert.False(t, ok)
	assert.Equal(t, risk.OtherCustomerType, normalized)
}

func TestNormalize_EmptyValue(t *testing.T) {
	n := risk.NewNormalizer()

	normalized, ok := n.Normalize("maritalStatus", "")
	assert.False(t, ok)
	assert.Equal(t, "", normalized)
}

func TestNormalizeUDF(t *testing.T) {
	n := risk.NewNormalizer()

	assert.Equal(t, "Supérieur", n.NormalizeUDF("Niveau d'étude", "Diplôme university 2010"))
	assert.Equal(t, "Propriétaire", n.NormalizeUDF("Type Logement", "PROPRIÉTAIRE"))

	// Unmapped fields pass through lowercased.
	assert.Equal(t, "oui", n.NormalizeUDF("Patenté", "OUI"))
}
