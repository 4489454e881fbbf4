package domain

import "time"

type RelationType string

const (
	RelationCreatedByRef      RelationType = "created_by_ref"
	RelationObjectMarkingRefs RelationType = "object_marking_refs"
	RelationKillChainPhases   RelationType = "kill_chain_phases"
)

// Roles returns the role names of the source and target ends of the relation.
func (t RelationType) Roles() (from, to string) {
	switch t {
	case RelationCreatedByRef:
		return "so", "creator"
	case RelationObjectMarkingRefs:
		return "so", "marking"
	case RelationKillChainPhases:
		return "phase_belonging", "kill_chain_phase"
	default:
		return "from", "to"
	}
}

// TargetTypes lists the entity types allowed at the target end of the relation.
func (t RelationType) TargetTypes() []EntityType {
	switch t {
	case RelationCreatedByRef:
		return []EntityType{TypeIdentity}
	case RelationObjectMarkingRefs:
		return []EntityType{TypeMarkingDefinition}
	case RelationKillChainPhases:
		return []EntityType{TypeKillChainPhase}
	}
	return nil
}

func (t RelationType) Valid() bool {
	switch t {
	case RelationCreatedByRef, RelationObjectMarkingRefs, RelationKillChainPhases:
		return true
	}
	return false
}

type Relation struct {
	ID        string       `json:"id"`
	Type      RelationType `json:"relationship_type"`
	FromID    string       `json:"from_id"`
	FromRole  string       `json:"from_role"`
	ToID      string       `json:"to_id"`
	ToRole    string       `json:"to_role"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewRelation builds an edge of the given type with the type's roles filled in.
func NewRelation(relType RelationType, fromID, toID string) Relation {
	fromRole, toRole := relType.Roles()
	return Relation{
		Type:     relType,
		FromID:   fromID,
		FromRole: fromRole,
		ToID:     toID,
		ToRole:   toRole,
	}
}
