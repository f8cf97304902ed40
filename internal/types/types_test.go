package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasRootCause(t *testing.T) {
	var nilIncident *Incident
	assert.False(t, nilIncident.HasRootCause(), "nil incident has no root cause")

	inc := &Incident{ID: "inc-1", Status: StatusInvestigating}
	assert.False(t, inc.HasRootCause(), "nil RootCause field")

	empty := ""
	inc.RootCause = &empty
	assert.False(t, inc.HasRootCause(), "empty root cause is not completion")

	rc := "connection pool exhaustion in payments-db"
	inc.RootCause = &rc
	assert.True(t, inc.HasRootCause())
}

func TestCloneIsDeep(t *testing.T) {
	rc := "disk full on node-7"
	at := "expanded volume"
	inc := &Incident{
		ID:          "inc-2",
		Status:      StatusResolved,
		Severity:    SeverityHigh,
		RootCause:   &rc,
		ActionTaken: &at,
	}

	clone := inc.Clone()
	require.NotNil(t, clone)
	require.NotNil(t, clone.RootCause)

	// Mutating the clone's pointers must not touch the original.
	*clone.RootCause = "something else"
	*clone.ActionTaken = "something else"
	assert.Equal(t, "disk full on node-7", *inc.RootCause)
	assert.Equal(t, "expanded volume", *inc.ActionTaken)

	var nilIncident *Incident
	assert.Nil(t, nilIncident.Clone())
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{"OPEN", "INVESTIGATING", "RESOLVED", "CLOSED"} {
		assert.True(t, IsValidStatus(s), s)
	}
	assert.False(t, IsValidStatus("resolved"), "statuses are case-sensitive")
	assert.False(t, IsValidStatus("DELETED"))
	assert.False(t, IsValidStatus(""))
}
