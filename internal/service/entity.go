package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kb-service/internal/domain"
	"kb-service/internal/metrics"
	"kb-service/internal/notify"
	"kb-service/internal/query"
	"kb-service/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type TxProvider interface {
	BeginWrite(ctx context.Context) (*repository.SafeTx, error)
}

type EntityRepository interface {
	StixIDExists(ctx context.Context, tx *repository.SafeTx, stixID string) (bool, error)
	InsertEntity(ctx context.Context, tx *repository.SafeTx, e *domain.Entity) error
	InsertRelation(ctx context.Context, tx *repository.SafeTx, rel *domain.Relation) error
	GetByID(ctx context.Context, id string) (*domain.Entity, error)
	Paginate(ctx context.Context, p repository.Pattern, args domain.ListArgs) (*domain.Connection, error)
	ListRelations(ctx context.Context, fromID string, relType *domain.RelationType) ([]domain.Relation, error)
	DeleteByID(ctx context.Context, tx *repository.SafeTx, id string) error
}

type Notifier interface {
	Notify(ctx context.Context, topic string, entity *domain.Entity, actor string)
}

type Recorder interface {
	EntityCreated(entityType string, relations map[string]int)
	EntityDeleted(entityType string)
	ObserveCreate(entityType, outcome string, d time.Duration)
}

type EntityServiceInterface interface {
	Create(ctx context.Context, actor string, req domain.CreateEntityRequest) (*domain.Entity, error)
	FindByID(ctx context.Context, id string) (*domain.Entity, error)
	FindAll(ctx context.Context, entityType domain.EntityType, args domain.ListArgs) (*domain.Connection, error)
	Relations(ctx context.Context, id string, relType *domain.RelationType) ([]domain.Relation, error)
	Delete(ctx context.Context, actor string, id string) error
}

type Deps struct {
	Tx       TxProvider
	Repo     EntityRepository
	Notifier Notifier
	Topics   notify.Topics
	Metrics  Recorder
	Logger   log.FieldLogger
	Now      func() time.Time
}

// EntityService creates entities together with their reference edges in one
// write transaction and announces every committed change.
type EntityService struct {
	tx       TxProvider
	repo     EntityRepository
	notifier Notifier
	topics   notify.Topics
	metrics  Recorder
	logger   log.FieldLogger
	now      func() time.Time
}

func NewEntityService(deps Deps) *EntityService {
	s := &EntityService{
		tx:       deps.Tx,
		repo:     deps.Repo,
		notifier: deps.Notifier,
		topics:   deps.Topics,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		now:      deps.Now,
	}
	if s.logger == nil {
		s.logger = log.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create stores the entity described by req and links it to the referenced
// creator, marking definitions and kill-chain phases. Either the entity and
// every edge are committed or nothing is.
func (s *EntityService) Create(ctx context.Context, actor string, req domain.CreateEntityRequest) (*domain.Entity, error) {
	start := s.now()
	req = sanitizeRequest(req)

	entity, edges, err := s.create(ctx, req)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	if s.metrics != nil {
		s.metrics.ObserveCreate(string(req.Type), outcome, s.now().Sub(start))
	}
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, s.topics.Added(entity.Type), entity, actor)
	}
	if s.metrics != nil {
		s.metrics.EntityCreated(string(entity.Type), edges)
	}

	s.logger.WithFields(log.Fields{
		"entity_id":   entity.ID,
		"stix_id":     entity.StixID,
		"entity_type": entity.Type,
		"actor":       actor,
	}).Info("Entity successfully created")

	return entity, nil
}

func (s *EntityService) create(ctx context.Context, req domain.CreateEntityRequest) (*domain.Entity, map[string]int, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	stixID := req.StixID
	if stixID == "" {
		stixID = req.Type.IDPrefix() + "--" + uuid.NewString()
	}

	tx, err := s.tx.BeginWrite(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to open write transaction")
		return nil, nil, &domain.TransactionError{Op: "open", Err: err}
	}
	defer tx.Rollback()

	if req.StixID != "" {
		exists, err := s.repo.StixIDExists(ctx, tx, stixID)
		if err != nil {
			return nil, nil, &domain.TransactionError{Op: "execute", Err: err}
		}
		if exists {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrStixIDExists, stixID)
		}
	}

	now := s.now().UTC()
	entity := &domain.Entity{
		Type:        req.Type,
		StixID:      stixID,
		Name:        req.Name,
		Description: req.Description,
		Attributes:  req.Attributes,
		Revoked:     false,
		Created:     now,
		Modified:    now,
	}
	if req.Created != nil {
		entity.Created = req.Created.UTC()
	}
	if req.Modified != nil {
		entity.Modified = req.Modified.UTC()
	}
	entity.StampCreation(now)

	if err := s.repo.InsertEntity(ctx, tx, entity); err != nil {
		return nil, nil, &domain.TransactionError{Op: "execute", Err: err}
	}

	relations := referenceEdges(entity.ID, req)
	g, gctx := errgroup.WithContext(ctx)
	for i := range relations {
		rel := &relations[i]
		g.Go(func() error {
			err := s.repo.InsertRelation(gctx, tx, rel)
			var refErr *domain.ReferenceError
			if err != nil && !errors.As(err, &refErr) {
				return &domain.TransactionError{Op: "execute", Err: err}
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"stix_id":     stixID,
			"entity_type": req.Type,
		}).Warn("Failed to link entity, rolling back")
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.WithError(err).WithField("stix_id", stixID).Error("Failed to commit entity")
		return nil, nil, &domain.TransactionError{Op: "commit", Err: err}
	}

	// The write is durable from here on; a failed re-read falls back to the
	// snapshot that was inserted.
	created, err := s.repo.GetByID(ctx, entity.ID)
	if err != nil {
		s.logger.WithError(err).WithField("entity_id", entity.ID).Error("Failed to re-read committed entity")
		created = entity
	}

	edges := make(map[string]int)
	for _, rel := range relations {
		edges[string(rel.Type)]++
	}
	return created, edges, nil
}

// referenceEdges lists the edges to create from entityID, one per distinct
// referenced id within each relation type.
func referenceEdges(entityID string, req domain.CreateEntityRequest) []domain.Relation {
	var out []domain.Relation
	add := func(relType domain.RelationType, ids []string) {
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, domain.NewRelation(relType, entityID, id))
		}
	}

	if req.CreatedByRef != "" {
		add(domain.RelationCreatedByRef, []string{req.CreatedByRef})
	}
	add(domain.RelationObjectMarkingRefs, req.MarkingDefinitions)
	add(domain.RelationKillChainPhases, req.KillChainPhases)
	return out
}

func sanitizeRequest(req domain.CreateEntityRequest) domain.CreateEntityRequest {
	req.StixID = query.Sanitize(req.StixID)
	req.Name = query.Sanitize(req.Name)
	req.Description = query.Sanitize(req.Description)
	req.CreatedByRef = query.Sanitize(req.CreatedByRef)
	req.MarkingDefinitions = query.SanitizeAll(req.MarkingDefinitions)
	req.KillChainPhases = query.SanitizeAll(req.KillChainPhases)

	if len(req.Attributes) > 0 {
		attrs := make(map[string][]string, len(req.Attributes))
		for name, values := range req.Attributes {
			if values = query.SanitizeAll(values); len(values) > 0 {
				attrs[name] = values
			}
		}
		req.Attributes = attrs
	}
	return req
}

func (s *EntityService) FindByID(ctx context.Context, id string) (*domain.Entity, error) {
	if id == "" {
		return nil, &domain.ValidationError{Field: "id", Reason: "is required"}
	}
	return s.repo.GetByID(ctx, id)
}

// FindAll pages through entities of one type. Ordering by kill-chain phases
// walks the phase edge and sorts on the phase name, so entities without a
// phase are not listed in that order.
func (s *EntityService) FindAll(ctx context.Context, entityType domain.EntityType, args domain.ListArgs) (*domain.Connection, error) {
	if !entityType.Valid() {
		return nil, &domain.ValidationError{Field: "type", Reason: "unknown entity type"}
	}

	pattern := repository.EntityPattern(entityType)
	if args.OrderBy == domain.OrderByKillChainPhases {
		pattern = repository.TraversalPattern(entityType, domain.RelationKillChainPhases, "x")
		args.OrderBy = domain.OrderByPhaseName
	}

	conn, err := s.repo.Paginate(ctx, pattern, args)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCursor) || errors.Is(err, domain.ErrInvalidOrderBy) {
			return nil, &domain.ValidationError{Field: "pagination", Reason: err.Error()}
		}
		return nil, err
	}
	return conn, nil
}

func (s *EntityService) Relations(ctx context.Context, id string, relType *domain.RelationType) ([]domain.Relation, error) {
	if relType != nil && !relType.Valid() {
		return nil, &domain.ValidationError{Field: "type", Reason: "unknown relation type"}
	}

	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRelations(ctx, entity.ID, relType)
}

// Delete removes the entity and every edge touching it, then announces the
// deletion with the last snapshot.
func (s *EntityService) Delete(ctx context.Context, actor string, id string) error {
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.tx.BeginWrite(ctx)
	if err != nil {
		return &domain.TransactionError{Op: "open", Err: err}
	}
	defer tx.Rollback()

	if err := s.repo.DeleteByID(ctx, tx, entity.ID); err != nil {
		if errors.Is(err, domain.ErrEntityNotFound) {
			return err
		}
		return &domain.TransactionError{Op: "execute", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &domain.TransactionError{Op: "commit", Err: err}
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, s.topics.Deleted(entity.Type), entity, actor)
	}
	if s.metrics != nil {
		s.metrics.EntityDeleted(string(entity.Type))
	}

	s.logger.WithFields(log.Fields{
		"entity_id": entity.ID,
		"actor":     actor,
	}).Info("Entity successfully deleted")
	return nil
}
