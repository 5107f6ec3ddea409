package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupvault/internal/domain"
)

func TestKeyShareRepo_InsertAndLatest(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	project := seedProject(t, s, org.ID, "proj")
	sender := seedPrincipal(t, s, org.ID, "sender", true)
	alice := seedPrincipal(t, s, org.ID, "alice", true)

	err := s.KeyShares().InsertMany(ctx, []domain.ProjectKeyShare{
		{ProjectID: project.ID, SenderID: sender.ID, ReceiverID: alice.ID, EncryptedKey: "old", Nonce: "n1"},
	})
	require.NoError(t, err)
	err = s.KeyShares().InsertMany(ctx, []domain.ProjectKeyShare{
		{ProjectID: project.ID, SenderID: sender.ID, ReceiverID: alice.ID, EncryptedKey: "new", Nonce: "n2"},
	})
	require.NoError(t, err)

	latest, err := s.KeyShares().LatestForReceiver(ctx, project.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", latest.EncryptedKey)
	assert.Equal(t, "n2", latest.Nonce)
}

func TestKeyShareRepo_LatestForReceiver_NotFound(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	project := seedProject(t, s, org.ID, "proj")

	_, err := s.KeyShares().LatestForReceiver(ctx, project.ID, "nobody")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestKeyShareRepo_ExistingReceivers(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	project := seedProject(t, s, org.ID, "proj")
	sender := seedPrincipal(t, s, org.ID, "sender", true)
	alice := seedPrincipal(t, s, org.ID, "alice", true)
	bob := seedPrincipal(t, s, org.ID, "bob", true)

	err := s.KeyShares().InsertMany(ctx, []domain.ProjectKeyShare{
		{ProjectID: project.ID, SenderID: sender.ID, ReceiverID: alice.ID, EncryptedKey: "ek", Nonce: "n"},
	})
	require.NoError(t, err)

	existing, err := s.KeyShares().ExistingReceivers(ctx, project.ID, []string{alice.ID, bob.ID})
	require.NoError(t, err)
	assert.True(t, existing[alice.ID])
	assert.False(t, existing[bob.ID])
}

func TestKeyShareRepo_DeleteForReceiver_Idempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	project := seedProject(t, s, org.ID, "proj")
	sender := seedPrincipal(t, s, org.ID, "sender", true)
	alice := seedPrincipal(t, s, org.ID, "alice", true)

	err := s.KeyShares().InsertMany(ctx, []domain.ProjectKeyShare{
		{ProjectID: project.ID, SenderID: sender.ID, ReceiverID: alice.ID, EncryptedKey: "ek", Nonce: "n"},
	})
	require.NoError(t, err)

	require.NoError(t, s.KeyShares().DeleteForReceiver(ctx, project.ID, alice.ID))
	require.NoError(t, s.KeyShares().DeleteForReceiver(ctx, project.ID, alice.ID))

	_, err = s.KeyShares().LatestForReceiver(ctx, project.ID, alice.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestKeyShareRepo_DeleteForReceiverInProjects(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	p1 := seedProject(t, s, org.ID, "p1")
	p2 := seedProject(t, s, org.ID, "p2")
	p3 := seedProject(t, s, org.ID, "p3")
	sender := seedPrincipal(t, s, org.ID, "sender", true)
	alice := seedPrincipal(t, s, org.ID, "alice", true)

	for _, project := range []*domain.Project{p1, p2, p3} {
		err := s.KeyShares().InsertMany(ctx, []domain.ProjectKeyShare{
			{ProjectID: project.ID, SenderID: sender.ID, ReceiverID: alice.ID, EncryptedKey: "ek", Nonce: "n"},
		})
		require.NoError(t, err)
	}

	require.NoError(t, s.KeyShares().DeleteForReceiverInProjects(ctx, alice.ID, []string{p1.ID, p2.ID}))

	_, err := s.KeyShares().LatestForReceiver(ctx, p1.ID, alice.ID)
	require.Error(t, err)
	_, err = s.KeyShares().LatestForReceiver(ctx, p3.ID, alice.ID)
	require.NoError(t, err)
}
