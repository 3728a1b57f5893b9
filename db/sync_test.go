// ABOUTME: Tests for sync_state operations
// ABOUTME: Verifies status upserts, last-token tracking, and error clearing
package db

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncStateLifecycle(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetSyncState(db, "crm")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, UpdateSyncStatus(db, "crm", SyncSyncing, nil))
	state, err := GetSyncState(db, "crm")
	require.NoError(t, err)
	assert.Equal(t, SyncSyncing, state.Status)
	assert.Nil(t, state.LastSyncTime)

	msg := "crm api error 503: unavailable"
	require.NoError(t, UpdateSyncStatus(db, "crm", SyncError, &msg))
	state, err = GetSyncState(db, "crm")
	require.NoError(t, err)
	require.NotNil(t, state.ErrorMessage)
	assert.Equal(t, msg, *state.ErrorMessage)

	at := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, MarkSynced(db, "crm", "01JGX0000000000000000000AA", at))
	require.NoError(t, MarkSynced(db, "crm", "", at.Add(time.Minute)))

	state, err = GetSyncState(db, "crm")
	require.NoError(t, err)
	assert.Equal(t, SyncIdle, state.Status)
	assert.Nil(t, state.ErrorMessage)
	require.NotNil(t, state.LastSyncToken)
	assert.Equal(t, "01JGX0000000000000000000AA", *state.LastSyncToken)
	require.NotNil(t, state.LastSyncTime)
	assert.True(t, at.Add(time.Minute).Equal(*state.LastSyncTime))
}
