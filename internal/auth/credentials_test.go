package auth

import (
	"context"
	"testing"

	"github.com/descope/virtualwebauthn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAndDeleteCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	adminID := h.bootstrap(t)

	first := h.register(t, adminID, virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2), "Laptop")
	second := h.register(t, adminID, virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2), "Phone")

	list, err := h.svc.ListCredentials(ctx, adminID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	require.NoError(t, h.svc.DeleteCredential(ctx, adminID, first.ID))
	require.ErrorIs(t, h.svc.DeleteCredential(ctx, adminID, first.ID), ErrNotFoundOrUnauthorized)
	require.ErrorIs(t, h.svc.DeleteCredential(ctx, adminID, "%%%"), ErrNotFoundOrUnauthorized)
	require.ErrorIs(t, h.svc.DeleteCredential(ctx, adminID+1, second.ID), ErrNotFoundOrUnauthorized)

	list, err = h.svc.ListCredentials(ctx, adminID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Phone", list[0].DeviceName)
}

func TestSessionStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.SessionStatus(ctx, 1)
	require.ErrorIs(t, err, ErrUnauthenticated)

	adminID := h.bootstrap(t)
	status, err := h.svc.SessionStatus(ctx, adminID)
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	assert.False(t, status.HasFingerprint)
	assert.Empty(t, status.Credentials)

	h.register(t, adminID, virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2), "Laptop")
	status, err = h.svc.SessionStatus(ctx, adminID)
	require.NoError(t, err)
	assert.True(t, status.HasFingerprint)
	require.Len(t, status.Credentials, 1)
	assert.Equal(t, "Laptop", status.Credentials[0].DeviceName)
}
