package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"kb-service/internal/domain"
	"kb-service/internal/query"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const statementTimeout = 5 * time.Second

const entityColumns query.Fragment = `e.internal_id, e.entity_type, e.stix_id, e.stix_label, e.alias,
	e.name, e.description, e.revoked, e.created, e.modified,
	e.created_at, e.created_at_day, e.created_at_month, e.created_at_year, e.updated_at`

type EntityRepository struct {
	store *Store
}

func NewEntityRepository(store *Store) *EntityRepository {
	return &EntityRepository{store: store}
}

// StixIDExists reports whether stixID is already taken, either as a stix id or
// as an internal id. Lookups accept both, so the two namespaces must not overlap.
func (r *EntityRepository) StixIDExists(ctx context.Context, tx *SafeTx, stixID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	stmt := r.store.Builder().
		SQL("SELECT COUNT(*) FROM entities WHERE stix_id = ").Param(stixID).
		SQL(" OR internal_id = ").Param(stixID).
		Build()

	var count int
	if err := tx.ScanRow(ctx, stmt, &count); err != nil {
		return false, fmt.Errorf("failed to check stix id: %w", err)
	}
	return count > 0, nil
}

// InsertEntity inserts the entity row and one row per attribute value. The
// internal id is taken from the insertion result.
func (r *EntityRepository) InsertEntity(ctx context.Context, tx *SafeTx, e *domain.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	stmt := r.store.Builder().
		SQL(`INSERT INTO entities (
			internal_id, entity_type, stix_id, stix_label, alias,
			name, description, revoked, created, modified,
			created_at, created_at_day, created_at_month, created_at_year, updated_at
		) VALUES (`).
		Params(e.ID, string(e.Type), e.StixID, e.StixLabel, e.Alias, e.Name, e.Description, e.Revoked).SQL(", ").
		Timestamp(e.Created).SQL(", ").
		Timestamp(e.Modified).SQL(", ").
		Timestamp(e.CreatedAt).SQL(", ").
		Params(e.CreatedAtDay, e.CreatedAtMonth, e.CreatedAtYear).SQL(", ").
		Timestamp(e.UpdatedAt).
		SQL(") RETURNING internal_id").
		Build()

	if err := tx.ScanRow(ctx, stmt, &e.ID); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"stix_id":     e.StixID,
			"entity_type": e.Type,
		}).Error("Failed to insert entity")
		return fmt.Errorf("failed to insert entity: %w", err)
	}

	names := make([]string, 0, len(e.Attributes))
	for name := range e.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for position, value := range e.Attributes[name] {
			stmt := r.store.Builder().
				SQL("INSERT INTO entity_attributes (entity_id, attr_name, position, attr_value) VALUES (").
				Params(e.ID, name, position, value).
				SQL(")").
				Build()
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to insert attribute %s: %w", name, err)
			}
		}
	}

	return nil
}

// InsertRelation matches both endpoints and inserts the edge between them in a
// single statement. When either endpoint is missing, or the target's type is
// not one the relation accepts, nothing is inserted and a ReferenceError is
// returned. The target may be given by internal or stix id, an internal id
// match wins; rel.ToID is rewritten to the internal id.
func (r *EntityRepository) InsertRelation(ctx context.Context, tx *SafeTx, rel *domain.Relation) error {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now().UTC()
	}

	targetTypes := rel.Type.TargetTypes()
	if len(targetTypes) == 0 {
		return &domain.ReferenceError{Relation: rel.Type, ID: rel.ToID}
	}
	types := make([]any, len(targetTypes))
	for i, t := range targetTypes {
		types[i] = string(t)
	}

	stmt := r.store.Builder().
		SQL("INSERT INTO relations (internal_id, relation_type, from_id, from_role, to_id, to_role, created_at) SELECT ").
		Text(rel.ID).SQL(", ").
		Text(string(rel.Type)).SQL(", f.internal_id, ").
		Text(rel.FromRole).SQL(", t.internal_id, ").
		Text(rel.ToRole).SQL(", ").
		Timestamp(rel.CreatedAt).
		SQL(" FROM entities f, entities t WHERE f.internal_id = ").Param(rel.FromID).
		SQL(" AND t.internal_id = (SELECT c.internal_id FROM entities c WHERE c.internal_id = ").Param(rel.ToID).
		SQL(" OR c.stix_id = ").Param(rel.ToID).
		SQL(" ORDER BY CASE WHEN c.internal_id = ").Param(rel.ToID).
		SQL(" THEN 0 ELSE 1 END LIMIT 1) AND t.entity_type IN (").Params(types...).
		SQL(") RETURNING to_id").
		Build()

	var toID string
	err := tx.ScanRow(ctx, stmt, &toID)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.ReferenceError{Relation: rel.Type, ID: rel.ToID}
	}
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"relation_type": rel.Type,
			"from_id":       rel.FromID,
			"to_id":         rel.ToID,
		}).Error("Failed to insert relation")
		return fmt.Errorf("failed to insert %s relation: %w", rel.Type, err)
	}

	rel.ToID = toID
	return nil
}

// GetByID looks an entity up by internal id or stix id, preferring an internal
// id match.
func (r *EntityRepository) GetByID(ctx context.Context, id string) (*domain.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	stmt := r.store.Builder().
		SQL("SELECT ").SQL(entityColumns).
		SQL(" FROM entities e WHERE e.internal_id = ").Param(id).
		SQL(" OR e.stix_id = ").Param(id).
		SQL(" ORDER BY CASE WHEN e.internal_id = ").Param(id).
		SQL(" THEN 0 ELSE 1 END LIMIT 1").
		Build()

	e, err := scanEntity(r.store.queryRow(ctx, stmt))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEntityNotFound
	}
	if err != nil {
		log.WithError(err).WithField("id", id).Error("Failed to get entity by ID")
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	attrs, err := r.loadAttributes(ctx, []string{e.ID})
	if err != nil {
		return nil, err
	}
	e.Attributes = attrs[e.ID]

	return e, nil
}

// ListRelations returns the edges leaving fromID, optionally of one type.
func (r *EntityRepository) ListRelations(ctx context.Context, fromID string, relType *domain.RelationType) ([]domain.Relation, error) {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	b := r.store.Builder().
		SQL("SELECT internal_id, relation_type, from_id, from_role, to_id, to_role, created_at FROM relations WHERE from_id = ").
		Param(fromID)
	if relType != nil {
		b.SQL(" AND relation_type = ").Param(string(*relType))
	}
	b.SQL(" ORDER BY relation_type, created_at, internal_id")

	rows, err := r.store.query(ctx, b.Build())
	if err != nil {
		return nil, fmt.Errorf("failed to list relations: %w", err)
	}
	defer rows.Close()

	relations := []domain.Relation{}
	for rows.Next() {
		var rel domain.Relation
		var relType string
		var createdAt timestamp
		if err := rows.Scan(&rel.ID, &relType, &rel.FromID, &rel.FromRole, &rel.ToID, &rel.ToRole, &createdAt); err != nil {
			log.WithError(err).Error("Failed to scan relation row")
			return nil, err
		}
		rel.Type = domain.RelationType(relType)
		rel.CreatedAt = createdAt.Time
		relations = append(relations, rel)
	}

	return relations, rows.Err()
}

// DeleteByID removes the entity, its attributes and every edge touching it.
func (r *EntityRepository) DeleteByID(ctx context.Context, tx *SafeTx, id string) error {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	statements := []query.Statement{
		r.store.Builder().SQL("DELETE FROM relations WHERE from_id = ").Param(id).SQL(" OR to_id = ").Param(id).Build(),
		r.store.Builder().SQL("DELETE FROM entity_attributes WHERE entity_id = ").Param(id).Build(),
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to delete entity dependents: %w", err)
		}
	}

	result, err := tx.Exec(ctx, r.store.Builder().SQL("DELETE FROM entities WHERE internal_id = ").Param(id).Build())
	if err != nil {
		log.WithError(err).WithField("id", id).Error("Failed to delete entity")
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not determine rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrEntityNotFound
	}

	return nil
}

func (r *EntityRepository) loadAttributes(ctx context.Context, ids []string) (map[string]map[string][]string, error) {
	out := make(map[string]map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	stmt := r.store.Builder().
		SQL("SELECT entity_id, attr_name, attr_value FROM entity_attributes WHERE entity_id IN (").
		Params(args...).
		SQL(") ORDER BY entity_id, attr_name, position").
		Build()

	rows, err := r.store.query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to load attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entityID, name, value string
		if err := rows.Scan(&entityID, &name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		if out[entityID] == nil {
			out[entityID] = map[string][]string{}
		}
		out[entityID][name] = append(out[entityID][name], value)
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*domain.Entity, error) {
	var e domain.Entity
	var entityType string
	var created, modified, createdAt, updatedAt timestamp

	err := row.Scan(
		&e.ID,
		&entityType,
		&e.StixID,
		&e.StixLabel,
		&e.Alias,
		&e.Name,
		&e.Description,
		&e.Revoked,
		&created,
		&modified,
		&createdAt,
		&e.CreatedAtDay,
		&e.CreatedAtMonth,
		&e.CreatedAtYear,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Type = domain.EntityType(entityType)
	e.Created = created.Time
	e.Modified = modified.Time
	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	return &e, nil
}
