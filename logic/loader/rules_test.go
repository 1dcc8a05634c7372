package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanrisk/logic/loader"
	"loanrisk/logic/risk"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRules_PreservesOrder(t *testing.T) {
	path := writeRules(t, "category,item,weight\n"+
		"Genre,F,1\n"+
		"Genre,M,2\n"+
		"Région,GABES,15\n"+
		"Région,TUNIS,5\n")

	table, err := loader.LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Genre", "Région"}, table.Categories())
	// File order decides match precedence.
	assert.Equal(t, []string{"GABES", "TUNIS"}, table.Items("Région"))
}

func TestLoadRules_BadWeight(t *testing.T) {
	path := writeRules(t, "Genre,F,heavy\n")

	_, err := loader.LoadRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad weight")
}

func TestLoadRules_MissingFileUsesDefaults(t *testing.T) {
	table, err := loader.LoadRules(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)

	assert.True(t, table.Has("Genre"))
	assert.True(t, table.Has("Région"))
}

func TestSaveRules_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.csv")

	original := risk.NewRuleTable()
	original.Add("Produit", "CREDIT AUTO", 4)
	original.Add("Produit", "CREDIT CONSOMMATION", 5)
	original.Add("Genre", "F", 1)
	require.NoError(t, loader.SaveRules(path, original))

	loaded, err := loader.LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, original.Categories(), loaded.Categories())
	assert.Equal(t, original.Rules("Produit"), loaded.Rules("Produit"))
}
