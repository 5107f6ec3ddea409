package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupvault/internal/domain"
)

func TestAccessService_ResolvePaths(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	project := e.bootstrapProject(t, "vault")
	group := e.createGroup(t, "eng")
	require.NoError(t, e.groups.LinkGroupToProject(ctx, group.ID, project.ID))

	alice, _ := e.createUser(t, "alice", true)

	paths, err := e.access.ResolvePaths(ctx, alice.ID, project.ID)
	require.NoError(t, err)
	assert.Empty(t, paths)

	require.NoError(t, e.projects.AddDirectMember(ctx, project.ID, alice.ID))
	require.NoError(t, e.membership.AddPrincipals(ctx, group.ID, []string{alice.ID}))

	paths, err = e.access.ResolvePaths(ctx, alice.ID, project.ID)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	kinds := map[string]string{}
	for _, p := range paths {
		kinds[p.Kind] = p.GroupID
	}
	assert.Contains(t, kinds, domain.AccessPathDirect)
	assert.Equal(t, group.ID, kinds[domain.AccessPathGroup])
}

func TestAccessService_UnlinkOverlappingGroups(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	project := e.bootstrapProject(t, "vault")
	groupA := e.createGroup(t, "team-a")
	groupB := e.createGroup(t, "team-b")
	require.NoError(t, e.groups.LinkGroupToProject(ctx, groupA.ID, project.ID))
	require.NoError(t, e.groups.LinkGroupToProject(ctx, groupB.ID, project.ID))

	alice, _ := e.createUser(t, "alice", true)
	require.NoError(t, e.membership.AddPrincipals(ctx, groupA.ID, []string{alice.ID}))
	require.NoError(t, e.membership.AddPrincipals(ctx, groupB.ID, []string{alice.ID}))

	// Unlinking A keeps the share: B still grants the project.
	require.NoError(t, e.access.UnlinkGroupFromProject(ctx, groupA.ID, project.ID))
	assert.True(t, e.hasShare(t, project.ID, alice.ID))

	// Unlinking B too revokes it.
	require.NoError(t, e.access.UnlinkGroupFromProject(ctx, groupB.ID, project.ID))
	assert.False(t, e.hasShare(t, project.ID, alice.ID))
}

func TestAccessService_UnlinkKeepsDirectMember(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	project := e.bootstrapProject(t, "vault")
	group := e.createGroup(t, "eng")
	require.NoError(t, e.groups.LinkGroupToProject(ctx, group.ID, project.ID))

	alice, _ := e.createUser(t, "alice", true)
	require.NoError(t, e.projects.AddDirectMember(ctx, project.ID, alice.ID))
	require.NoError(t, e.membership.AddPrincipals(ctx, group.ID, []string{alice.ID}))

	require.NoError(t, e.access.UnlinkGroupFromProject(ctx, group.ID, project.ID))
	assert.True(t, e.hasShare(t, project.ID, alice.ID))
}

func TestAccessService_Unlink_NotLinked(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	project := e.bootstrapProject(t, "vault")
	group := e.createGroup(t, "eng")

	err := e.access.UnlinkGroupFromProject(ctx, group.ID, project.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestGroupService_Delete_RefusedWhileLinked(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	project := e.bootstrapProject(t, "vault")
	group := e.createGroup(t, "eng")
	require.NoError(t, e.groups.LinkGroupToProject(ctx, group.ID, project.ID))

	err := e.groups.Delete(ctx, group.ID)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	require.NoError(t, e.access.UnlinkGroupFromProject(ctx, group.ID, project.ID))
	require.NoError(t, e.groups.Delete(ctx, group.ID))
}

func TestGroupService_LinkIssuesSharesToExistingMembers(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	project := e.bootstrapProject(t, "vault")
	group := e.createGroup(t, "eng")

	alice, alicePriv := e.createUser(t, "alice", true)
	vera, _ := e.createUser(t, "vera", false)
	require.NoError(t, e.membership.AddPrincipals(ctx, group.ID, []string{alice.ID, vera.ID}))

	require.NoError(t, e.groups.LinkGroupToProject(ctx, group.ID, project.ID))

	assert.Equal(t, e.escrowProjectKey(t, project.ID),
		e.openShare(t, project.ID, alice.ID, alicePriv))
	assert.False(t, e.hasShare(t, project.ID, vera.ID), "pending member gets no share")
}

func TestGroupService_Link_CrossOrg(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	other, err := e.store.Principals().CreateOrg(ctx, &domain.Organization{Name: "other", Slug: "other"})
	require.NoError(t, err)
	foreign, err := e.store.Groups().Create(ctx, &domain.Group{OrgID: other.ID, Name: "eng", Slug: "eng"})
	require.NoError(t, err)

	project := e.bootstrapProject(t, "vault")

	err = e.groups.LinkGroupToProject(ctx, foreign.ID, project.ID)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}
