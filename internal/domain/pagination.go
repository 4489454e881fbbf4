package domain

import (
	"encoding/base64"
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 500
)

// Orderable keys accepted by list operations.
const (
	OrderByName            = "name"
	OrderByCreated         = "created"
	OrderByModified        = "modified"
	OrderByCreatedAt       = "created_at"
	OrderByUpdatedAt       = "updated_at"
	OrderByKillChainPhases = "killChainPhases"
	// OrderByPhaseName sorts on the name of the kill-chain phase reached through the edge.
	OrderByPhaseName = "phase_name"
)

var (
	ErrInvalidCursor  = errors.New("invalid cursor")
	ErrInvalidOrderBy = errors.New("invalid order by")
)

const cursorPrefix = "arrayconnection:"

// maxCursorOffset bounds decoded offsets so the next offset still fits a SQL
// integer parameter.
const maxCursorOffset = math.MaxInt32

type ListArgs struct {
	First     int    `json:"first" query:"first"`
	After     string `json:"after" query:"after"`
	OrderBy   string `json:"orderBy" query:"orderBy"`
	OrderMode string `json:"orderMode" query:"orderMode"`
}

func (a ListArgs) Descending() bool {
	return strings.EqualFold(a.OrderMode, "desc")
}

type PageInfo struct {
	StartCursor     string `json:"startCursor"`
	EndCursor       string `json:"endCursor"`
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	GlobalCount     int    `json:"globalCount"`
}

type EntityEdge struct {
	Cursor string  `json:"cursor"`
	Node   *Entity `json:"node"`
}

type Connection struct {
	Edges    []EntityEdge `json:"edges"`
	PageInfo PageInfo     `json:"pageInfo"`
}

// OffsetToCursor encodes a result offset as an opaque cursor.
func OffsetToCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// CursorToOffset decodes a cursor produced by OffsetToCursor.
func CursorToOffset(cursor string) (int, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	s, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, ErrInvalidCursor
	}
	offset, err := strconv.Atoi(s)
	if err != nil || offset < 0 || offset >= maxCursorOffset {
		return 0, ErrInvalidCursor
	}
	return offset, nil
}

// BuildConnection wraps one page of nodes starting at offset.
func BuildConnection(nodes []*Entity, offset, globalCount int) *Connection {
	conn := &Connection{Edges: make([]EntityEdge, 0, len(nodes))}
	for i, node := range nodes {
		conn.Edges = append(conn.Edges, EntityEdge{Cursor: OffsetToCursor(offset + i), Node: node})
	}
	if len(conn.Edges) > 0 {
		conn.PageInfo.StartCursor = conn.Edges[0].Cursor
		conn.PageInfo.EndCursor = conn.Edges[len(conn.Edges)-1].Cursor
	}
	conn.PageInfo.HasPreviousPage = offset > 0
	conn.PageInfo.HasNextPage = offset+len(nodes) < globalCount
	conn.PageInfo.GlobalCount = globalCount
	return conn
}
