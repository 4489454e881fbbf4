package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntityRequestValidate(t *testing.T) {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	before := created.Add(-time.Hour)

	tests := []struct {
		name  string
		req   CreateEntityRequest
		field string
	}{
		{name: "valid", req: CreateEntityRequest{Type: TypeAttackPattern, Name: "Phishing"}},
		{name: "missing type", req: CreateEntityRequest{Name: "Phishing"}, field: "type"},
		{name: "unknown type", req: CreateEntityRequest{Type: "malware", Name: "Emotet"}, field: "type"},
		{name: "blank name", req: CreateEntityRequest{Type: TypeIdentity, Name: "   "}, field: "name"},
		{name: "long name", req: CreateEntityRequest{Type: TypeIdentity, Name: strings.Repeat("a", 257)}, field: "name"},
		{name: "long stix id", req: CreateEntityRequest{Type: TypeIdentity, Name: "x", StixID: strings.Repeat("a", 129)}, field: "stix_id"},
		{name: "modified before created", req: CreateEntityRequest{Type: TypeIdentity, Name: "x", Created: &created, Modified: &before}, field: "modified"},
		{name: "phase without kill chain", req: CreateKillChainPhaseRequest{PhaseName: "recon"}.EntityRequest(), field: AttrKillChainName},
		{name: "phase with kill chain", req: CreateKillChainPhaseRequest{KillChainName: "mitre-attack", PhaseName: "recon"}.EntityRequest()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTypedRequestsConvert(t *testing.T) {
	ap := CreateAttackPatternRequest{
		Name:               "Valid Accounts",
		Platform:           []string{"linux"},
		CreatedByRef:       "identity--1",
		MarkingDefinitions: []string{"m1"},
		KillChainPhases:    []string{"p1"},
	}.EntityRequest()
	assert.Equal(t, TypeAttackPattern, ap.Type)
	assert.Equal(t, []string{"linux"}, ap.Attributes[AttrPlatform])
	assert.NotContains(t, ap.Attributes, AttrRequiredPermission)
	assert.Equal(t, "identity--1", ap.CreatedByRef)

	phase := CreateKillChainPhaseRequest{KillChainName: "mitre-attack", PhaseName: "execution", PhaseOrder: 4}.EntityRequest()
	assert.Equal(t, "execution", phase.Name)
	assert.Equal(t, []string{"4"}, phase.Attributes[AttrPhaseOrder])

	marking := CreateMarkingDefinitionRequest{DefinitionType: "TLP", Definition: "TLP:RED"}.EntityRequest()
	assert.Equal(t, "TLP:RED", marking.Name)
	assert.Equal(t, TypeMarkingDefinition, marking.Type)
}

func TestErrorKinds(t *testing.T) {
	ref := &ReferenceError{Relation: RelationObjectMarkingRefs, ID: "m"}
	assert.ErrorIs(t, ref, ErrDanglingReference)
	assert.ErrorIs(t, ref, ErrTransaction)
	assert.NotErrorIs(t, ref, ErrValidation)

	tx := &TransactionError{Op: "commit", Err: ErrEntityNotFound}
	assert.ErrorIs(t, tx, ErrTransaction)
	assert.ErrorIs(t, tx, ErrEntityNotFound)
	assert.NotErrorIs(t, tx, ErrDanglingReference)
}

func TestEntityTypeCategory(t *testing.T) {
	assert.Equal(t, CategoryStixDomainEntity, TypeAttackPattern.Category())
	assert.Equal(t, CategoryStixDomainEntity, TypeIdentity.Category())
	assert.Equal(t, CategoryKillChainPhase, TypeKillChainPhase.Category())
	assert.Equal(t, CategoryMarkingDefinition, TypeMarkingDefinition.Category())
	assert.Equal(t, "attack-pattern", TypeAttackPattern.IDPrefix())
}
