package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaldez/sqlquest/internal/course"
)

func TestRunReturnsTable(t *testing.T) {
	db, err := course.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	result, err := Run(context.Background(), db, `SELECT nome_produto, preco FROM dim_produto ORDER BY id_produto`)
	require.NoError(t, err)

	assert.Equal(t, []string{"nome_produto", "preco"}, result.Columns)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, "Refrigerante Cola", result.Rows[0][0])
	assert.Equal(t, 6.5, result.Rows[0][1])
}

func TestRunEmptyResult(t *testing.T) {
	db, err := course.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	result, err := Run(context.Background(), db, `SELECT canal FROM dim_campanha WHERE canal = 'TikTok'`)
	require.NoError(t, err)

	assert.Equal(t, []string{"canal"}, result.Columns)
	assert.Empty(t, result.Rows)
}

func TestRunSyntaxError(t *testing.T) {
	db, err := course.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	_, err = Run(context.Background(), db, `SELEC oops`)
	require.Error(t, err)
	assert.True(t, IsExecError(err))

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, `SELEC oops`, execErr.Query)
	// The message is the driver's error verbatim.
	assert.Equal(t, execErr.Err.Error(), err.Error())
}

func TestRunUnknownTable(t *testing.T) {
	db, err := course.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	_, err = Run(context.Background(), db, `SELECT * FROM nao_existe`)
	require.Error(t, err)
	assert.True(t, IsExecError(err))
}

func TestDescribe(t *testing.T) {
	db, err := course.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	result, err := Run(context.Background(), db, `SELECT * FROM dim_campanha`)
	require.NoError(t, err)

	assert.Equal(t, "3 columns, 3 rows", Describe(result))
	assert.Equal(t, "no result", Describe(nil))
}
