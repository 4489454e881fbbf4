package repository

import (
	"context"
	"fmt"

	"kb-service/internal/domain"
	"kb-service/internal/query"

	log "github.com/sirupsen/logrus"
)

// Pattern selects the entities a page is cut from. A direct pattern sorts on
// the entity's own columns (variable "e"); a traversal pattern walks one edge
// type to a related node "x" and may sort on that node instead.
type Pattern struct {
	EntityType   domain.EntityType
	Traverse     domain.RelationType
	SortVariable string
}

// EntityPattern matches every entity of type t.
func EntityPattern(t domain.EntityType) Pattern {
	return Pattern{EntityType: t, SortVariable: "e"}
}

// TraversalPattern matches entities of type t joined through relType to the
// related node, sorting on sortVariable.
func TraversalPattern(t domain.EntityType, relType domain.RelationType, sortVariable string) Pattern {
	return Pattern{EntityType: t, Traverse: relType, SortVariable: sortVariable}
}

func (p Pattern) IsTraversal() bool {
	return p.Traverse != ""
}

func (p Pattern) write(b *query.Builder) {
	b.SQL(" FROM entities e")
	if p.IsTraversal() {
		b.SQL(" JOIN relations r ON r.from_id = e.internal_id AND r.relation_type = ").Param(string(p.Traverse)).
			SQL(" JOIN entities x ON x.internal_id = r.to_id")
	}
	b.SQL(" WHERE e.entity_type = ").Param(string(p.EntityType))
}

// Paginate returns one page of entities matched by p, ordered by args.OrderBy
// resolved on the pattern's sort variable.
func (r *EntityRepository) Paginate(ctx context.Context, p Pattern, args domain.ListArgs) (*domain.Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	first := args.First
	if first <= 0 {
		first = domain.DefaultPageSize
	}
	if first > domain.MaxPageSize {
		first = domain.MaxPageSize
	}

	offset := 0
	if args.After != "" {
		after, err := domain.CursorToOffset(args.After)
		if err != nil {
			return nil, err
		}
		offset = after + 1
	}

	orderBy := args.OrderBy
	if orderBy == "" {
		orderBy = domain.OrderByCreatedAt
	}
	column, ok := query.OrderColumn(p.SortVariable, orderBy)
	if !ok {
		return nil, domain.ErrInvalidOrderBy
	}

	countQuery := r.store.Builder().SQL("SELECT COUNT(*)")
	p.write(countQuery)

	var globalCount int
	if err := r.store.queryRow(ctx, countQuery.Build()).Scan(&globalCount); err != nil {
		log.WithError(err).WithField("entity_type", p.EntityType).Error("Failed to count entities")
		return nil, fmt.Errorf("failed to count entities: %w", err)
	}

	pageQuery := r.store.Builder().SQL("SELECT ").SQL(entityColumns)
	p.write(pageQuery)
	pageQuery.OrderBy(column, query.DirectionOf(args.Descending())).
		SQL(", e.internal_id ASC").
		Limit(first, offset)

	rows, err := r.store.query(ctx, pageQuery.Build())
	if err != nil {
		log.WithError(err).WithField("entity_type", p.EntityType).Error("Failed to paginate entities")
		return nil, fmt.Errorf("failed to paginate entities: %w", err)
	}
	defer rows.Close()

	var nodes []*domain.Entity
	var ids []string
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan entity row")
			return nil, err
		}
		nodes = append(nodes, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attrs, err := r.loadAttributes(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range nodes {
		e.Attributes = attrs[e.ID]
	}

	return domain.BuildConnection(nodes, offset, globalCount), nil
}
