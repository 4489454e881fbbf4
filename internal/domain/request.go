package domain

import (
	"strconv"
	"strings"
	"time"
)

const (
	maxNameLength        = 256
	maxDescriptionLength = 65536
	maxStixIDLength      = 128
)

// CreateEntityRequest is the payload consumed once by the write coordinator.
type CreateEntityRequest struct {
	Type               EntityType
	StixID             string
	Name               string
	Description        string
	Attributes         map[string][]string
	Created            *time.Time
	Modified           *time.Time
	CreatedByRef       string
	MarkingDefinitions []string
	KillChainPhases    []string
}

func (r CreateEntityRequest) Validate() error {
	if r.Type == "" {
		return &ValidationError{Field: "type", Reason: "is required"}
	}
	if !r.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "unknown entity type " + strconv.Quote(string(r.Type))}
	}
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if len(r.Name) > maxNameLength {
		return &ValidationError{Field: "name", Reason: "is too long"}
	}
	if len(r.Description) > maxDescriptionLength {
		return &ValidationError{Field: "description", Reason: "is too long"}
	}
	if len(r.StixID) > maxStixIDLength {
		return &ValidationError{Field: "stix_id", Reason: "is too long"}
	}
	if r.Created != nil && r.Modified != nil && r.Modified.Before(*r.Created) {
		return &ValidationError{Field: "modified", Reason: "is before created"}
	}
	if r.Type == TypeKillChainPhase && len(r.Attributes[AttrKillChainName]) == 0 {
		return &ValidationError{Field: AttrKillChainName, Reason: "is required"}
	}
	return nil
}

type CreateAttackPatternRequest struct {
	StixID             string     `json:"stix_id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	Platform           []string   `json:"platform,omitempty"`
	RequiredPermission []string   `json:"required_permission,omitempty"`
	Created            *time.Time `json:"created,omitempty"`
	Modified           *time.Time `json:"modified,omitempty"`
	CreatedByRef       string     `json:"createdByRef,omitempty"`
	MarkingDefinitions []string   `json:"markingDefinitions,omitempty"`
	KillChainPhases    []string   `json:"killChainPhases,omitempty"`
}

func (r CreateAttackPatternRequest) EntityRequest() CreateEntityRequest {
	attrs := map[string][]string{}
	if len(r.Platform) > 0 {
		attrs[AttrPlatform] = r.Platform
	}
	if len(r.RequiredPermission) > 0 {
		attrs[AttrRequiredPermission] = r.RequiredPermission
	}
	return CreateEntityRequest{
		Type:               TypeAttackPattern,
		StixID:             r.StixID,
		Name:               r.Name,
		Description:        r.Description,
		Attributes:         attrs,
		Created:            r.Created,
		Modified:           r.Modified,
		CreatedByRef:       r.CreatedByRef,
		MarkingDefinitions: r.MarkingDefinitions,
		KillChainPhases:    r.KillChainPhases,
	}
}

type CreateKillChainPhaseRequest struct {
	StixID        string `json:"stix_id"`
	KillChainName string `json:"kill_chain_name"`
	PhaseName     string `json:"phase_name"`
	PhaseOrder    int    `json:"phase_order"`
}

// EntityRequest stores the phase name as the entity name, which is what
// kill-chain ordering sorts on.
func (r CreateKillChainPhaseRequest) EntityRequest() CreateEntityRequest {
	attrs := map[string][]string{
		AttrPhaseOrder: {strconv.Itoa(r.PhaseOrder)},
	}
	if r.KillChainName != "" {
		attrs[AttrKillChainName] = []string{r.KillChainName}
	}
	return CreateEntityRequest{
		Type:       TypeKillChainPhase,
		StixID:     r.StixID,
		Name:       r.PhaseName,
		Attributes: attrs,
	}
}

type CreateMarkingDefinitionRequest struct {
	StixID         string `json:"stix_id"`
	DefinitionType string `json:"definition_type"`
	Definition     string `json:"definition"`
}

func (r CreateMarkingDefinitionRequest) EntityRequest() CreateEntityRequest {
	attrs := map[string][]string{}
	if r.DefinitionType != "" {
		attrs[AttrDefinitionType] = []string{r.DefinitionType}
	}
	if r.Definition != "" {
		attrs[AttrDefinition] = []string{r.Definition}
	}
	return CreateEntityRequest{
		Type:       TypeMarkingDefinition,
		StixID:     r.StixID,
		Name:       r.Definition,
		Attributes: attrs,
	}
}

type CreateIdentityRequest struct {
	StixID        string `json:"stix_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	IdentityClass string `json:"identity_class"`
}

func (r CreateIdentityRequest) EntityRequest() CreateEntityRequest {
	attrs := map[string][]string{}
	if r.IdentityClass != "" {
		attrs[AttrIdentityClass] = []string{r.IdentityClass}
	}
	return CreateEntityRequest{
		Type:        TypeIdentity,
		StixID:      r.StixID,
		Name:        r.Name,
		Description: r.Description,
		Attributes:  attrs,
	}
}
