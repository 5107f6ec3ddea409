package repository

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	internaldb "groupvault/internal/db"
	"groupvault/internal/domain"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	return NewStore(writeDB)
}

func seedOrg(t *testing.T, s *Store, slug string) *domain.Organization {
	t.Helper()
	org, err := s.Principals().CreateOrg(context.Background(), &domain.Organization{
		Name: slug,
		Slug: slug,
	})
	require.NoError(t, err)
	return org
}

func seedPrincipal(t *testing.T, s *Store, orgID, username string, activated bool) *domain.Principal {
	t.Helper()
	ctx := context.Background()
	publicKey := ""
	if activated {
		publicKey = "pk-" + username
	}
	p, err := s.Principals().Create(ctx, &domain.Principal{
		Username:  username,
		Kind:      domain.PrincipalUser,
		Activated: activated,
		PublicKey: publicKey,
	})
	require.NoError(t, err)
	require.NoError(t, s.Principals().AddToOrg(ctx, orgID, p.ID))
	return p
}

func seedGroup(t *testing.T, s *Store, orgID, name string) *domain.Group {
	t.Helper()
	g, err := s.Groups().Create(context.Background(), &domain.Group{
		OrgID: orgID,
		Name:  name,
		Slug:  name,
	})
	require.NoError(t, err)
	return g
}

func seedProject(t *testing.T, s *Store, orgID, name string) *domain.Project {
	t.Helper()
	p, err := s.Projects().Create(context.Background(), &domain.Project{
		OrgID: orgID,
		Name:  name,
	})
	require.NoError(t, err)
	return p
}
