// ABOUTME: Tests for the in-memory mock CRM source
// ABOUTME: Verifies owner filtering, copy isolation, and recorded writes
package crm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSourceListLeadsByOwner(t *testing.T) {
	m := NewMockSource()
	ctx := context.Background()

	mine, err := m.ListLeads(ctx, "Sai Kiran")
	require.NoError(t, err)
	all, err := m.ListLeads(ctx, "")
	require.NoError(t, err)

	assert.Len(t, all, len(SampleLeads()))
	assert.Less(t, len(mine), len(all))
	for _, l := range mine {
		assert.Equal(t, "Sai Kiran", l.OwnerName)
	}
}

func TestMockSourceReturnsCopies(t *testing.T) {
	m := NewMockSource()
	ctx := context.Background()

	lead, err := m.GetLead(ctx, "006dM00000A1b2cQAB")
	require.NoError(t, err)
	lead.Contacts[0].Name = "changed"

	again, err := m.GetLead(ctx, "006dM00000A1b2cQAB")
	require.NoError(t, err)
	assert.Equal(t, "Ramesh Kumar", again.Contacts[0].Name)

	_, err = m.GetLead(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMockSourceWrites(t *testing.T) {
	m := NewMockSource()
	ctx := context.Background()

	require.NoError(t, m.AssignFabricator(ctx, "006dM00000A1b2dQAB", "Arijit Rout"))
	lead, err := m.GetLead(ctx, "006dM00000A1b2dQAB")
	require.NoError(t, err)
	assert.Equal(t, "Arijit Rout", lead.FabricatorName)
	assert.True(t, errors.Is(m.AssignFabricator(ctx, "missing", "x"), ErrNotFound))

	require.NoError(t, m.PushVisitNotes(ctx, VisitNote{VisitID: "a"}))
	m.SetPushError(errors.New("offline"))
	assert.Error(t, m.PushVisitNotes(ctx, VisitNote{VisitID: "b"}))
	assert.Len(t, m.PushedNotes(), 1)
}
