package domain

import (
	"encoding/base64"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	cursor := OffsetToCursor(41)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("arrayconnection:41")), cursor)

	offset, err := CursorToOffset(cursor)
	require.NoError(t, err)
	assert.Equal(t, 41, offset)
}

func TestCursorToOffsetRejects(t *testing.T) {
	for _, cursor := range []string{
		"not base64!",
		base64.StdEncoding.EncodeToString([]byte("other:1")),
		base64.StdEncoding.EncodeToString([]byte("arrayconnection:x")),
		base64.StdEncoding.EncodeToString([]byte("arrayconnection:-3")),
		base64.StdEncoding.EncodeToString([]byte("arrayconnection:9223372036854775807")),
		base64.StdEncoding.EncodeToString([]byte("arrayconnection:2147483647")),
	} {
		_, err := CursorToOffset(cursor)
		assert.ErrorIs(t, err, ErrInvalidCursor, cursor)
	}
}

func TestCursorToOffsetAcceptsLargestOffset(t *testing.T) {
	offset, err := CursorToOffset(OffsetToCursor(math.MaxInt32 - 1))
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32-1, offset)
}

func TestBuildConnection(t *testing.T) {
	nodes := []*Entity{{ID: "a"}, {ID: "b"}}

	conn := BuildConnection(nodes, 2, 5)
	require.Len(t, conn.Edges, 2)
	assert.Equal(t, OffsetToCursor(2), conn.PageInfo.StartCursor)
	assert.Equal(t, OffsetToCursor(3), conn.PageInfo.EndCursor)
	assert.True(t, conn.PageInfo.HasPreviousPage)
	assert.True(t, conn.PageInfo.HasNextPage)
	assert.Equal(t, 5, conn.PageInfo.GlobalCount)

	last := BuildConnection(nodes, 3, 5)
	assert.False(t, last.PageInfo.HasNextPage)

	empty := BuildConnection(nil, 0, 0)
	assert.Empty(t, empty.Edges)
	assert.NotNil(t, empty.Edges)
	assert.False(t, empty.PageInfo.HasNextPage)
}

func TestStampCreation(t *testing.T) {
	var e Entity
	e.StampCreation(mustTime(t, "2023-12-31T23:30:00-02:00"))

	assert.Equal(t, "2024-01-01", e.CreatedAtDay)
	assert.Equal(t, "2024-01", e.CreatedAtMonth)
	assert.Equal(t, "2024", e.CreatedAtYear)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}
