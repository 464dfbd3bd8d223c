package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexscreener-alert-bot/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func draft(owner int64, address string) types.AlertDraft {
	return types.AlertDraft{
		OwnerID:      owner,
		TokenAddress: address,
		TokenName:    "Pepe",
		TokenSymbol:  "PEPE",
		Chain:        "ethereum",
		InitialPrice: 100,
		TargetPrice:  110,
		Direction:    types.DirectionUp,
		Percent:      10,
	}
}

func TestCreateAndListActiveAlerts(t *testing.T) {
	store := newTestStore(t)

	id1, err := store.CreateAlert(draft(1, "0xAA"))
	require.NoError(t, err)
	id2, err := store.CreateAlert(draft(2, "0xBB"))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	alerts, err := store.ListActiveAlerts()
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, "0xaa", alerts[0].TokenAddress, "addresses are normalized on insert")
	assert.True(t, alerts[0].Active)
	assert.False(t, alerts[0].Triggered)
	assert.Nil(t, alerts[0].TriggeredAt)
	assert.Equal(t, types.DirectionUp, alerts[0].Direction)
	assert.Equal(t, 110.0, alerts[0].TargetPrice)
}

func TestMarkTriggeredIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateAlert(draft(1, "0xAA"))
	require.NoError(t, err)

	ok, err := store.MarkTriggered(id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.MarkTriggered(id)
	require.NoError(t, err)
	assert.False(t, ok, "second trigger must be a no-op")

	active, err := store.ListActiveAlerts()
	require.NoError(t, err)
	assert.Empty(t, active, "triggered alerts leave the active set")

	all, err := store.ListAlertsByOwner(1, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Triggered)
	assert.False(t, all[0].Active)
	assert.NotNil(t, all[0].TriggeredAt)
}

func TestMarkTriggeredUnknownID(t *testing.T) {
	store := newTestStore(t)

	ok, err := store.MarkTriggered(12345)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteAlertOwnership(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateAlert(draft(1, "0xAA"))
	require.NoError(t, err)

	ok, err := store.DeleteAlert(2, id)
	require.NoError(t, err)
	assert.False(t, ok, "other users cannot delete the alert")

	ok, err = store.DeleteAlert(1, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.DeleteAlert(1, id)
	require.NoError(t, err)
	assert.False(t, ok, "repeat delete must be a no-op")
}

func TestDeleteVersusTriggerRace(t *testing.T) {
	store := newTestStore(t)

	t.Run("delete first", func(t *testing.T) {
		id, err := store.CreateAlert(draft(1, "0xAA"))
		require.NoError(t, err)

		ok, err := store.DeleteAlert(1, id)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.MarkTriggered(id)
		require.NoError(t, err)
		assert.False(t, ok, "trigger after delete is a no-op")

		all, err := store.ListAlertsByOwner(1, false)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.False(t, all[0].Triggered, "a deleted alert never becomes triggered")
	})

	t.Run("trigger first", func(t *testing.T) {
		id, err := store.CreateAlert(draft(2, "0xBB"))
		require.NoError(t, err)

		ok, err := store.MarkTriggered(id)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.DeleteAlert(2, id)
		require.NoError(t, err)
		assert.False(t, ok, "delete after trigger is a no-op")
	})
}

func TestListAlertsByOwnerActiveOnly(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateAlert(draft(1, "0xAA"))
	require.NoError(t, err)
	_, err = store.CreateAlert(draft(1, "0xBB"))
	require.NoError(t, err)

	_, err = store.MarkTriggered(id)
	require.NoError(t, err)

	active, err := store.ListAlertsByOwner(1, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := store.ListAlertsByOwner(1, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
