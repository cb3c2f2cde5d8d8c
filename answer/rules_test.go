package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleMatches(t *testing.T) {
	rule := Rule{Pattern: "total number of crimes today"}

	assert.True(t, rule.Matches("What is the TOTAL NUMBER of Crimes Today?"))
	assert.True(t, rule.Matches("total number of crimes today"))
	assert.False(t, rule.Matches("total number of crimes yesterday"))
	assert.False(t, rule.Matches(""))
}

func TestDefaultRulesOrder(t *testing.T) {
	rules := DefaultRules()

	names := make([]string, len(rules))
	for i, rule := range rules {
		names[i] = rule.Name
	}
	assert.Equal(t, []string{"crimes-today", "traffic-accidents-today", "safest-line"}, names)
}

func TestSumRuleSelectsOnFileAndFilter(t *testing.T) {
	rule := sumRule("r", "p", "a.csv", "col_date", "2024-07-13", "col_count", "%d")

	assert.True(t, rule.Select(map[string]any{
		"source_file": "a.csv", "col_date": "2024-07-13",
	}))
	assert.True(t, rule.Select(map[string]any{
		"source_file": "A.CSV", "col_date": "2024-07-13",
	}))
	assert.False(t, rule.Select(map[string]any{
		"source_file": "a.csv", "col_date": "2024-07-12",
	}))
	assert.False(t, rule.Select(map[string]any{
		"source_file": "b.csv", "col_date": "2024-07-13",
	}))
	assert.False(t, rule.Select(map[string]any{}))
}

func TestSafestLineRendersUnknownForMissingCode(t *testing.T) {
	rule := safestLineRule()

	answer := rule.Render([]map[string]any{
		{"col_line_code": "", "col_incident_count": "1"},
		{"col_line_code": "D", "col_incident_count": "4"},
	})
	assert.Equal(t, "The safest line in the last 7 days is the Unknown with 1 incidents.", answer)
}

func TestMetaString(t *testing.T) {
	metadata := map[string]any{
		"str":   "hello",
		"num":   int64(42),
		"empty": nil,
	}

	assert.Equal(t, "hello", metaString(metadata, "str"))
	assert.Equal(t, "42", metaString(metadata, "num"))
	assert.Equal(t, "", metaString(metadata, "empty"))
	assert.Equal(t, "", metaString(metadata, "missing"))
}

func TestMetaInt(t *testing.T) {
	metadata := map[string]any{
		"int":     7,
		"int64":   int64(8),
		"float":   9.0,
		"string":  " 10 ",
		"garbage": "ten",
		"bool":    true,
	}

	assert.Equal(t, 7, metaInt(metadata, "int"))
	assert.Equal(t, 8, metaInt(metadata, "int64"))
	assert.Equal(t, 9, metaInt(metadata, "float"))
	assert.Equal(t, 10, metaInt(metadata, "string"))
	assert.Equal(t, 0, metaInt(metadata, "garbage"))
	assert.Equal(t, 0, metaInt(metadata, "bool"))
	assert.Equal(t, 0, metaInt(metadata, "missing"))
}
