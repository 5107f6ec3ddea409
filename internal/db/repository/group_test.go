package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupvault/internal/domain"
)

func TestGroupRepo_CRUD(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")

	g, err := s.Groups().Create(ctx, &domain.Group{
		OrgID: org.ID,
		Name:  "Engineering",
		Slug:  "engineering",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)
	assert.False(t, g.CreatedAt.IsZero())

	found, err := s.Groups().GetBySlug(ctx, org.ID, "engineering")
	require.NoError(t, err)
	assert.Equal(t, g.ID, found.ID)

	renamed, err := s.Groups().Rename(ctx, g.ID, "Platform", "platform")
	require.NoError(t, err)
	assert.Equal(t, "Platform", renamed.Name)
	assert.Equal(t, "platform", renamed.Slug)

	require.NoError(t, s.Groups().Delete(ctx, g.ID))

	_, err = s.Groups().GetByID(ctx, g.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestGroupRepo_SlugUniquePerOrg(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")
	other := seedOrg(t, s, "other")

	_, err := s.Groups().Create(ctx, &domain.Group{OrgID: org.ID, Name: "Eng", Slug: "eng"})
	require.NoError(t, err)

	_, err = s.Groups().Create(ctx, &domain.Group{OrgID: org.ID, Name: "Eng Two", Slug: "eng"})
	require.Error(t, err)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)

	// Same slug in a different org is fine.
	_, err = s.Groups().Create(ctx, &domain.Group{OrgID: other.ID, Name: "Eng", Slug: "eng"})
	require.NoError(t, err)
}

func TestGroupRepo_FindByNames(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	org := seedOrg(t, s, "acme")

	seedGroup(t, s, org.ID, "alpha")
	seedGroup(t, s, org.ID, "beta")
	seedGroup(t, s, org.ID, "gamma")

	groups, err := s.Groups().FindByNames(ctx, org.ID, []string{"alpha", "gamma", "unknown"})
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	groups, err = s.Groups().FindByNames(ctx, org.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupRepo_Rename_NotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.Groups().Rename(context.Background(), "missing", "x", "x")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
