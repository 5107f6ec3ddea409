package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupvault/internal/domain"
)

func TestMembershipRepo_InsertAndFind(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	g := seedGroup(t, s, org.ID, "eng")
	alice := seedPrincipal(t, s, org.ID, "alice", true)
	bob := seedPrincipal(t, s, org.ID, "bob", false)

	err := s.Memberships().InsertMany(ctx, []domain.Membership{
		{GroupID: g.ID, PrincipalID: alice.ID, Kind: domain.MembershipDirect},
		{GroupID: g.ID, PrincipalID: bob.ID, Kind: domain.MembershipPending},
	})
	require.NoError(t, err)

	found, err := s.Memberships().Find(ctx, g.ID, []string{alice.ID, bob.ID})
	require.NoError(t, err)
	require.Len(t, found, 2)

	kinds := map[string]string{}
	for _, m := range found {
		kinds[m.PrincipalID] = m.Kind
	}
	assert.Equal(t, domain.MembershipDirect, kinds[alice.ID])
	assert.Equal(t, domain.MembershipPending, kinds[bob.ID])
}

func TestMembershipRepo_OneRowPerPrincipal(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	g := seedGroup(t, s, org.ID, "eng")
	alice := seedPrincipal(t, s, org.ID, "alice", true)

	err := s.Memberships().InsertMany(ctx, []domain.Membership{
		{GroupID: g.ID, PrincipalID: alice.ID, Kind: domain.MembershipDirect},
	})
	require.NoError(t, err)

	// A second row for the same (group, principal) violates the primary key
	// regardless of kind.
	err = s.Memberships().InsertMany(ctx, []domain.Membership{
		{GroupID: g.ID, PrincipalID: alice.ID, Kind: domain.MembershipPending},
	})
	require.Error(t, err)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestMembershipRepo_DeletePendingByPrincipals(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	g1 := seedGroup(t, s, org.ID, "eng")
	g2 := seedGroup(t, s, org.ID, "sales")
	alice := seedPrincipal(t, s, org.ID, "alice", false)

	err := s.Memberships().InsertMany(ctx, []domain.Membership{
		{GroupID: g1.ID, PrincipalID: alice.ID, Kind: domain.MembershipPending},
		{GroupID: g2.ID, PrincipalID: alice.ID, Kind: domain.MembershipPending},
	})
	require.NoError(t, err)

	deleted, err := s.Memberships().DeletePendingByPrincipals(ctx, []string{alice.ID})
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	found, err := s.Memberships().Find(ctx, g1.ID, []string{alice.ID})
	require.NoError(t, err)
	assert.Empty(t, found)

	// Second run finds nothing to delete.
	deleted, err = s.Memberships().DeletePendingByPrincipals(ctx, []string{alice.ID})
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestMembershipRepo_DirectMemberIDs_ExcludesPending(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	g := seedGroup(t, s, org.ID, "eng")
	alice := seedPrincipal(t, s, org.ID, "alice", true)
	bob := seedPrincipal(t, s, org.ID, "bob", false)

	err := s.Memberships().InsertMany(ctx, []domain.Membership{
		{GroupID: g.ID, PrincipalID: alice.ID, Kind: domain.MembershipDirect},
		{GroupID: g.ID, PrincipalID: bob.ID, Kind: domain.MembershipPending},
	})
	require.NoError(t, err)

	ids, err := s.Memberships().DirectMemberIDs(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, ids)
}

func TestMembershipRepo_ListForPrincipalInOrg(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	other := seedOrg(t, s, "other")
	g1 := seedGroup(t, s, org.ID, "eng")
	g2 := seedGroup(t, s, other.ID, "eng")
	g3 := seedGroup(t, s, org.ID, "sales")
	alice := seedPrincipal(t, s, org.ID, "alice", true)

	err := s.Memberships().InsertMany(ctx, []domain.Membership{
		{GroupID: g1.ID, PrincipalID: alice.ID, Kind: domain.MembershipDirect},
		{GroupID: g2.ID, PrincipalID: alice.ID, Kind: domain.MembershipDirect},
		{GroupID: g3.ID, PrincipalID: alice.ID, Kind: domain.MembershipPending},
	})
	require.NoError(t, err)

	// Rows from other orgs are excluded; pending rows are included.
	infos, err := s.Memberships().ListForPrincipalInOrg(ctx, org.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byID := map[string]string{}
	for _, info := range infos {
		byID[info.GroupID] = info.GroupName
	}
	assert.Equal(t, "eng", byID[g1.ID])
	assert.Equal(t, "sales", byID[g3.ID])
}

func TestMembershipRepo_ProjectsWithOtherAccess(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	leaving := seedGroup(t, s, org.ID, "leaving")
	staying := seedGroup(t, s, org.ID, "staying")
	alice := seedPrincipal(t, s, org.ID, "alice", true)

	viaDirect := seedProject(t, s, org.ID, "via-direct")
	viaGroup := seedProject(t, s, org.ID, "via-group")
	lostAccess := seedProject(t, s, org.ID, "lost-access")

	// alice is in both groups; "leaving" grants all three projects, "staying"
	// grants only one of them, and she is a direct member of another.
	err := s.Memberships().InsertMany(ctx, []domain.Membership{
		{GroupID: leaving.ID, PrincipalID: alice.ID, Kind: domain.MembershipDirect},
		{GroupID: staying.ID, PrincipalID: alice.ID, Kind: domain.MembershipDirect},
	})
	require.NoError(t, err)
	for _, projectID := range []string{viaDirect.ID, viaGroup.ID, lostAccess.ID} {
		require.NoError(t, s.Grants().Link(ctx, leaving.ID, projectID))
	}
	require.NoError(t, s.Grants().Link(ctx, staying.ID, viaGroup.ID))
	require.NoError(t, s.Projects().AddMember(ctx, viaDirect.ID, alice.ID))

	reachable, err := s.Memberships().ProjectsWithOtherAccess(ctx, alice.ID, leaving.ID,
		[]string{viaDirect.ID, viaGroup.ID, lostAccess.ID})
	require.NoError(t, err)
	assert.True(t, reachable[viaDirect.ID])
	assert.True(t, reachable[viaGroup.ID])
	assert.False(t, reachable[lostAccess.ID])
}

func TestMembershipRepo_GroupsGrantingProject(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	g1 := seedGroup(t, s, org.ID, "g1")
	g2 := seedGroup(t, s, org.ID, "g2")
	g3 := seedGroup(t, s, org.ID, "g3")
	alice := seedPrincipal(t, s, org.ID, "alice", true)
	project := seedProject(t, s, org.ID, "proj")

	// alice is in g1 and g2; g1 and g3 grant the project.
	err := s.Memberships().InsertMany(ctx, []domain.Membership{
		{GroupID: g1.ID, PrincipalID: alice.ID, Kind: domain.MembershipDirect},
		{GroupID: g2.ID, PrincipalID: alice.ID, Kind: domain.MembershipDirect},
	})
	require.NoError(t, err)
	require.NoError(t, s.Grants().Link(ctx, g1.ID, project.ID))
	require.NoError(t, s.Grants().Link(ctx, g3.ID, project.ID))

	ids, err := s.Memberships().GroupsGrantingProject(ctx, alice.ID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{g1.ID}, ids)
}
