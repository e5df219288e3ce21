package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, c.Total())
	assert.Len(t, c.Lessons, 5)

	first := c.Challenge(1)
	require.NotNil(t, first)
	assert.Equal(t, "Vendas por produto", first.Title)
	assert.Contains(t, first.ReferenceSQL, "SUM(f.vendas)")

	assert.Nil(t, c.Challenge(99))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `challenges:
  - id: 7
    title: "Contagem de produtos"
    description: "Conte os produtos."
    hint: "Use COUNT."
    reference_sql: "SELECT COUNT(*) FROM dim_produto"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Total())
	require.NotNil(t, c.Challenge(7))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	data := []byte(`challenges:
  - id: 1
    title: "a"
    reference_sql: "SELECT 1"
  - id: 1
    title: "b"
    reference_sql: "SELECT 2"
`)
	_, err := parse(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate challenge id")
}

func TestValidateRejectsEmptyReference(t *testing.T) {
	data := []byte(`challenges:
  - id: 1
    title: "a"
    reference_sql: "   "
`)
	_, err := parse(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference query is empty")
}

func TestValidateRejectsEmptyCatalog(t *testing.T) {
	_, err := parse([]byte(`lessons: []`))
	assert.Error(t, err)
}

func TestReferenceSQLNotSerialized(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	// The json tag keeps reference queries out of API responses.
	data, err := json.Marshal(c.Challenge(1))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "SUM(f.vendas)")
	assert.Contains(t, string(data), "Vendas por produto")
}
