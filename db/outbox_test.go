// ABOUTME: Tests for the CRM outbox queue
// ABOUTME: Covers claim ordering, attempt counting, retry-to-failed transitions, and requeue
package db

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimOutboxOldestFirst(t *testing.T) {
	db := setupTestDB(t)

	first, err := NewOutboxEntry(KindVisitNote, "first")
	require.NoError(t, err)
	require.NoError(t, EnqueueOutbox(db, first))
	time.Sleep(2 * time.Millisecond)
	second, err := NewOutboxEntry(KindVisitNote, "second")
	require.NoError(t, err)
	require.NoError(t, EnqueueOutbox(db, second))

	claimed, err := ClaimOutbox(db, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, first.ID, claimed[0].ID)
	assert.Equal(t, OutboxSending, claimed[0].Status)
	assert.Equal(t, 1, claimed[0].Attempts)
	assert.JSONEq(t, `"first"`, string(claimed[0].Payload))

	// Claimed entries are not handed out twice
	claimed, err = ClaimOutbox(db, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, second.ID, claimed[0].ID)

	claimed, err = ClaimOutbox(db, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestMarkOutboxSent(t *testing.T) {
	db := setupTestDB(t)
	entry, err := NewOutboxEntry(KindVisitNote, map[string]int{"n": 1})
	require.NoError(t, err)
	require.NoError(t, EnqueueOutbox(db, entry))

	_, err = ClaimOutbox(db, 10)
	require.NoError(t, err)
	require.NoError(t, MarkOutboxSent(db, entry.ID, time.Now()))

	sent, err := ListOutbox(db, OutboxSent, 10)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.NotNil(t, sent[0].SentAt)
	assert.Empty(t, sent[0].LastError)

	assert.True(t, errors.Is(MarkOutboxSent(db, "missing", time.Now()), ErrNotFound))
}

func TestMarkOutboxErrorRetriesThenFails(t *testing.T) {
	db := setupTestDB(t)
	entry, err := NewOutboxEntry(KindVisitNote, "x")
	require.NoError(t, err)
	require.NoError(t, EnqueueOutbox(db, entry))

	const maxAttempts = 2

	_, err = ClaimOutbox(db, 10)
	require.NoError(t, err)
	status, err := MarkOutboxError(db, entry.ID, "crm unavailable", maxAttempts)
	require.NoError(t, err)
	assert.Equal(t, OutboxPending, status)

	_, err = ClaimOutbox(db, 10)
	require.NoError(t, err)
	status, err = MarkOutboxError(db, entry.ID, "crm still unavailable", maxAttempts)
	require.NoError(t, err)
	assert.Equal(t, OutboxFailed, status)

	failed, err := ListOutbox(db, OutboxFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].Attempts)
	assert.Equal(t, "crm still unavailable", failed[0].LastError)

	claimed, err := ClaimOutbox(db, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed, "failed entries are not retried automatically")

	_, err = MarkOutboxError(db, "missing", "x", maxAttempts)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReleaseOutbox(t *testing.T) {
	db := setupTestDB(t)
	entry, err := NewOutboxEntry(KindVisitNote, "note")
	require.NoError(t, err)
	require.NoError(t, EnqueueOutbox(db, entry))

	claimed, err := ClaimOutbox(db, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, 1, claimed[0].Attempts)

	require.NoError(t, ReleaseOutbox(db, []string{entry.ID}))
	require.NoError(t, ReleaseOutbox(db, nil))

	pending, err := ListOutbox(db, OutboxPending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 0, pending[0].Attempts)

	// only sending entries are released
	require.NoError(t, ReleaseOutbox(db, []string{entry.ID}))
	pending, err = ListOutbox(db, OutboxPending, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, pending[0].Attempts)
}

func TestRequeueOutbox(t *testing.T) {
	db := setupTestDB(t)
	stale, err := NewOutboxEntry(KindVisitNote, "stale")
	require.NoError(t, err)
	require.NoError(t, EnqueueOutbox(db, stale))
	_, err = ClaimOutbox(db, 10)
	require.NoError(t, err)

	dead, err := NewOutboxEntry(KindVisitNote, "dead")
	require.NoError(t, err)
	require.NoError(t, EnqueueOutbox(db, dead))
	_, err = ClaimOutbox(db, 10)
	require.NoError(t, err)
	_, err = MarkOutboxError(db, dead.ID, "boom", 1)
	require.NoError(t, err)

	// a delivery still in flight elsewhere is left alone
	n, err := RequeueOutbox(db, time.Now().Add(-StaleSendingAfter), false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = RequeueOutbox(db, time.Now(), false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	counts, err := CountOutbox(db)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{OutboxPending: 1, OutboxFailed: 1}, counts)

	n, err = RequeueOutbox(db, time.Now(), true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	pending, err := ListOutbox(db, OutboxPending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, e := range pending {
		if e.ID == dead.ID {
			assert.Equal(t, 0, e.Attempts)
		}
	}
}
