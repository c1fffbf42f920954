package sqlstore

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebindDollar(t *testing.T) {
	assert.Equal(t,
		"SELECT a FROM t WHERE x = $1 AND y IN ($2, $3) LIMIT $4",
		RebindDollar("SELECT a FROM t WHERE x = ? AND y IN (?, ?) LIMIT ?"),
	)
	assert.Equal(t, "SELECT 1", RebindDollar("SELECT 1"))
}

func TestPaginate(t *testing.T) {
	clause, args := paginate(0, 0)
	assert.Empty(t, clause)
	assert.Nil(t, args)

	clause, args = paginate(10, 0)
	assert.Equal(t, " LIMIT ?", clause)
	assert.Equal(t, []interface{}{10}, args)

	clause, args = paginate(0, 5)
	assert.Equal(t, " LIMIT ? OFFSET ?", clause)
	assert.Equal(t, 5, args[1])
}

func TestEmbeddingCodec(t *testing.T) {
	ns, err := encodeEmbedding(nil)
	require.NoError(t, err)
	assert.False(t, ns.Valid)

	ns, err = encodeEmbedding([]float64{0.25, -1})
	require.NoError(t, err)
	v, err := decodeEmbedding(ns)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, -1}, v)

	v, err = decodeEmbedding(sql.NullString{String: "null", Valid: true})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = decodeEmbedding(sql.NullString{String: "not json", Valid: true})
	assert.Error(t, err)
}

func TestMapCodec(t *testing.T) {
	s, err := encodeMap(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", s)

	m, err := decodeMap(sql.NullString{})
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)
}
