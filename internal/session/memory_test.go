package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_tracker_backend/internal/models"
)

func TestMemoryDraftStoreRoundTripAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore(time.Hour)

	draft, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, draft.IsEmpty())

	draft.Step2 = &models.Step2Data{Intent: models.IntentInquiry}
	require.NoError(t, store.Save(ctx, "sess-1", draft))

	other, err := store.Load(ctx, "sess-2")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty(), "drafts are scoped per session")

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, loaded.Step2)
	assert.Equal(t, models.IntentInquiry, loaded.Step2.Intent)

	require.NoError(t, store.Clear(ctx, "sess-1"))
	loaded, err = store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestMemoryDraftStoreRequiresSession(t *testing.T) {
	store := NewMemoryDraftStore(time.Hour)
	_, err := store.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)
}
