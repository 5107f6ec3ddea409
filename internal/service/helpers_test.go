package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	internaldb "groupvault/internal/db"
	"groupvault/internal/db/crypto"
	"groupvault/internal/db/repository"
	"groupvault/internal/domain"
)

const testMasterKey = "0000000000000000000000000000000000000000000000000000000000000000"

type testEnv struct {
	store      *repository.Store
	keys       *crypto.Envelope
	keydist    *KeyDistributor
	membership *MembershipService
	groups     *GroupService
	projects   *ProjectService
	access     *AccessService
	org        *domain.Organization
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	writeDB, _ := internaldb.OpenTestSQLite(t)
	store := repository.NewStore(writeDB)

	keys, err := crypto.NewEnvelope(testMasterKey)
	require.NoError(t, err)

	keydist := NewKeyDistributor(keys)

	org, err := store.Principals().CreateOrg(context.Background(), &domain.Organization{
		Name: "acme", Slug: "acme",
	})
	require.NoError(t, err)

	return &testEnv{
		store:      store,
		keys:       keys,
		keydist:    keydist,
		membership: NewMembershipService(store, keydist),
		groups:     NewGroupService(store, keydist),
		projects:   NewProjectService(store, keys, keydist),
		access:     NewAccessService(store),
		org:        org,
	}
}

// createUser creates an org-membered user principal and returns it with its
// private key. Non-activated users get no key pair.
func (e *testEnv) createUser(t *testing.T, username string, activated bool) (*domain.Principal, string) {
	t.Helper()
	ctx := context.Background()

	publicKey, privateKey := "", ""
	if activated {
		var err error
		publicKey, privateKey, err = e.keys.CreateKeyPair()
		require.NoError(t, err)
	}
	p, err := e.store.Principals().Create(ctx, &domain.Principal{
		Username:  username,
		Kind:      domain.PrincipalUser,
		Activated: activated,
		PublicKey: publicKey,
	})
	require.NoError(t, err)
	require.NoError(t, e.store.Principals().AddToOrg(ctx, e.org.ID, p.ID))
	return p, privateKey
}

func (e *testEnv) createMachine(t *testing.T, username string) *domain.Principal {
	t.Helper()
	ctx := context.Background()

	p, err := e.store.Principals().Create(ctx, &domain.Principal{
		Username:  username,
		Kind:      domain.PrincipalMachine,
		Activated: true,
	})
	require.NoError(t, err)
	require.NoError(t, e.store.Principals().AddToOrg(ctx, e.org.ID, p.ID))
	return p
}

func (e *testEnv) createGroup(t *testing.T, name string) *domain.Group {
	t.Helper()
	g, err := e.groups.Create(context.Background(), e.org.ID, name, "")
	require.NoError(t, err)
	return g
}

func (e *testEnv) bootstrapProject(t *testing.T, name string) *domain.Project {
	t.Helper()
	p, err := e.projects.Bootstrap(context.Background(), e.org.ID, name)
	require.NoError(t, err)
	return p
}

// openShare decrypts a principal's key share with its private key and returns
// the plaintext project key.
func (e *testEnv) openShare(t *testing.T, projectID, receiverID, receiverPrivateKey string) []byte {
	t.Helper()
	ctx := context.Background()

	share, err := e.store.KeyShares().LatestForReceiver(ctx, projectID, receiverID)
	require.NoError(t, err)
	sender, err := e.store.Principals().GetByID(ctx, share.SenderID)
	require.NoError(t, err)
	plaintext, err := e.keys.OpenKey(share.EncryptedKey, share.Nonce, sender.PublicKey, receiverPrivateKey)
	require.NoError(t, err)
	return plaintext
}

// escrowProjectKey recovers the plaintext project key the way the key
// distributor does, via the bot private key and the escrow share.
func (e *testEnv) escrowProjectKey(t *testing.T, projectID string) []byte {
	t.Helper()
	ctx := context.Background()

	project, err := e.store.Projects().GetByID(ctx, projectID)
	require.NoError(t, err)
	bot, err := e.store.Projects().GetBot(ctx, projectID)
	require.NoError(t, err)
	botPrivateKey, err := e.keys.Decrypt(bot.EncryptedPrivateKey)
	require.NoError(t, err)
	return e.openShare(t, projectID, project.EscrowPrincipalID, string(botPrivateKey))
}

func (e *testEnv) hasShare(t *testing.T, projectID, receiverID string) bool {
	t.Helper()
	existing, err := e.store.KeyShares().ExistingReceivers(context.Background(), projectID, []string{receiverID})
	require.NoError(t, err)
	return existing[receiverID]
}

func (e *testEnv) membershipKind(t *testing.T, groupID, principalID string) (string, bool) {
	t.Helper()
	found, err := e.store.Memberships().Find(context.Background(), groupID, []string{principalID})
	require.NoError(t, err)
	if len(found) == 0 {
		return "", false
	}
	return found[0].Kind, true
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider is an in-memory domain.DirectoryProvider.
type fakeProvider struct {
	username    string
	memberOfOrg bool
	teams       []domain.ExternalTeam
	checkOrgErr error

	checkOrgCalls int
	resolveCalls  int
	listCalls     int
}

func (f *fakeProvider) CheckOrg(ctx context.Context, accessToken, orgName string) error {
	f.checkOrgCalls++
	return f.checkOrgErr
}

func (f *fakeProvider) ResolveUsername(ctx context.Context, accessToken, orgName string) (string, error) {
	f.resolveCalls++
	if !f.memberOfOrg {
		return "", domain.ErrNotFound("user %s is not a member of provider organization %s", f.username, orgName)
	}
	return f.username, nil
}

func (f *fakeProvider) ListTeamsForUser(ctx context.Context, accessToken, orgName, username string) ([]domain.ExternalTeam, error) {
	f.listCalls++
	return f.teams, nil
}
