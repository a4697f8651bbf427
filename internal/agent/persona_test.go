package agent

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The analyst's canned statement runs against the real schema in
// production, so its column list must track the migration.
func TestDataAnalystQueryMatchesSchema(t *testing.T) {
	schema, err := os.ReadFile("../../db/migrations/000001_init_schema.up.sql")
	require.NoError(t, err)

	table := regexp.MustCompile(`(?s)CREATE TABLE knowledge_documents \((.*?)\);`).
		FindStringSubmatch(string(schema))
	require.Len(t, table, 2, "knowledge_documents definition not found in migration")

	for _, col := range []string{"name", "language", "created_at"} {
		assert.Contains(t, dataAnalystQuery, col)
		assert.Regexp(t, `(?m)^\s*`+col+`\s`, table[1],
			"column %q selected by the analyst plan is missing from the schema", col)
	}

	// Must satisfy query_data's read-only contract.
	assert.True(t, strings.HasPrefix(strings.ToUpper(dataAnalystQuery), "SELECT"))
	assert.NotContains(t, dataAnalystQuery, ";")
}
