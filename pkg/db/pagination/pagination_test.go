package pagination

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct{ id snowflake.ID }

func TestCursorRoundTrip(t *testing.T) {
	token := EncodeCursor(1790000000000000001)
	id, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(1790000000000000001), id)

	id, err = DecodeCursor("  ")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"%%%", "bm90LWpzb24", "eyJpZCI6ImFiYyJ9", "eyJpZCI6IjAifQ"} {
		_, err := DecodeCursor(token)
		assert.ErrorIs(t, err, ErrInvalidPageToken, token)
	}
}

func TestPage(t *testing.T) {
	data := []*row{{id: 3}, {id: 2}, {id: 1}}
	page, info := Page(data, 2, func(r *row) snowflake.ID { return r.id })
	require.Len(t, page, 2)
	assert.True(t, info.HasMore)
	next, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(2), next)

	page, info = Page(data[:1], 2, func(r *row) snowflake.ID { return r.id })
	assert.Len(t, page, 1)
	assert.Equal(t, PageInfo{}, info)
}

func TestLimit(t *testing.T) {
	assert.Equal(t, 20, Pagination{}.Limit(20))
	assert.Equal(t, 5, Pagination{PageSize: 5}.Limit(20))
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Limit(20))
}
