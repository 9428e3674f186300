package kg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaFor_Finance(t *testing.T) {
	s := SchemaFor("placement")
	assert.Contains(t, s.EntityLabels, "Deal")
	assert.Contains(t, s.EdgeTypes, "ADVISED_ON")
}

func TestSchemaFor_Jobs(t *testing.T) {
	s := SchemaFor("jobs")
	assert.Contains(t, s.EntityLabels, "Skill")
	assert.Contains(t, s.EdgeTypes, "REQUIRES_ESSENTIAL")
}

func TestSchemaFor_Relocation(t *testing.T) {
	s := SchemaFor("relocation")
	assert.Contains(t, s.EntityLabels, "Country")
	assert.Contains(t, s.EdgeTypes, "IN_COUNTRY")
}

func TestSchemaFor_UnknownDefaultsToFinance(t *testing.T) {
	s := SchemaFor("totally-unknown")
	assert.Equal(t, defaultSchema, s)
}

func TestDeterministicID_StableAcrossCalls(t *testing.T) {
	a := deterministicID("finance-knowledge", "Company", "Acme Corp")
	b := deterministicID("finance-knowledge", "Company", "acme corp")
	assert.Equal(t, a, b, "name matching should be case-insensitive")

	c := deterministicID("finance-knowledge", "Company", "Other Corp")
	assert.NotEqual(t, a, c)
}
