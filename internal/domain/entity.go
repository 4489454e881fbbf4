package domain

import (
	"errors"
	"time"
)

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrStixIDExists   = errors.New("entity with this stix id already exists")
)

type EntityType string

const (
	TypeAttackPattern     EntityType = "attack-pattern"
	TypeKillChainPhase    EntityType = "kill-chain-phase"
	TypeMarkingDefinition EntityType = "marking-definition"
	TypeIdentity          EntityType = "identity"
)

// Notification categories an entity type publishes under.
const (
	CategoryStixDomainEntity  = "stix_domain_entity"
	CategoryKillChainPhase    = "kill_chain_phase"
	CategoryMarkingDefinition = "marking_definition"
)

// Multivalued attribute names.
const (
	AttrPlatform           = "platform"
	AttrRequiredPermission = "required_permission"
	AttrKillChainName      = "kill_chain_name"
	AttrPhaseOrder         = "phase_order"
	AttrDefinitionType     = "definition_type"
	AttrDefinition         = "definition"
	AttrIdentityClass      = "identity_class"
)

// EntityTypes returns every entity type the knowledge base stores.
func EntityTypes() []EntityType {
	return []EntityType{TypeAttackPattern, TypeKillChainPhase, TypeMarkingDefinition, TypeIdentity}
}

func (t EntityType) Valid() bool {
	for _, known := range EntityTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// IDPrefix is the prefix of generated stix ids, "<prefix>--<uuid>".
func (t EntityType) IDPrefix() string {
	return string(t)
}

func (t EntityType) Category() string {
	switch t {
	case TypeKillChainPhase:
		return CategoryKillChainPhase
	case TypeMarkingDefinition:
		return CategoryMarkingDefinition
	default:
		return CategoryStixDomainEntity
	}
}

type Entity struct {
	ID             string              `json:"id"`
	StixID         string              `json:"stix_id"`
	Type           EntityType          `json:"entity_type"`
	StixLabel      string              `json:"stix_label"`
	Alias          string              `json:"alias"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Revoked        bool                `json:"revoked"`
	Created        time.Time           `json:"created"`
	Modified       time.Time           `json:"modified"`
	CreatedAt      time.Time           `json:"created_at"`
	CreatedAtDay   string              `json:"created_at_day"`
	CreatedAtMonth string              `json:"created_at_month"`
	CreatedAtYear  string              `json:"created_at_year"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Attributes     map[string][]string `json:"attributes,omitempty"`
}

// Values returns the values of a multivalued attribute, nil if unset.
func (e *Entity) Values(name string) []string {
	if e == nil || e.Attributes == nil {
		return nil
	}
	return e.Attributes[name]
}

// Value returns the first value of an attribute or "".
func (e *Entity) Value(name string) string {
	if v := e.Values(name); len(v) > 0 {
		return v[0]
	}
	return ""
}
