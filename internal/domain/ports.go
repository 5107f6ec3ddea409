package domain

import "context"

// PrincipalRepository provides lookups and mutations for principals and
// organization membership.
type PrincipalRepository interface {
	Create(ctx context.Context, p *Principal) (*Principal, error)
	GetByID(ctx context.Context, id string) (*Principal, error)
	GetByUsername(ctx context.Context, username string) (*Principal, error)
	// FindByIDs returns the principals whose IDs are in ids. Missing IDs are
	// simply absent from the result; callers decide whether that is an error.
	FindByIDs(ctx context.Context, ids []string) ([]Principal, error)
	// SetActivated marks a principal's account setup complete and records its
	// public key.
	SetActivated(ctx context.Context, id, publicKey string) error

	CreateOrg(ctx context.Context, org *Organization) (*Organization, error)
	GetOrg(ctx context.Context, id string) (*Organization, error)
	AddToOrg(ctx context.Context, orgID, principalID string) error
	// OrgMemberIDs filters principalIDs down to the set that belongs to the
	// organization.
	OrgMemberIDs(ctx context.Context, orgID string, principalIDs []string) (map[string]bool, error)
}

// GroupRepository persists groups.
type GroupRepository interface {
	Create(ctx context.Context, g *Group) (*Group, error)
	GetByID(ctx context.Context, id string) (*Group, error)
	GetBySlug(ctx context.Context, orgID, slug string) (*Group, error)
	// FindByNames returns the org's groups whose name is in names.
	FindByNames(ctx context.Context, orgID string, names []string) ([]Group, error)
	Rename(ctx context.Context, id, name, slug string) (*Group, error)
	Delete(ctx context.Context, id string) error
}

// MembershipRepository persists group memberships, both direct and pending.
type MembershipRepository interface {
	InsertMany(ctx context.Context, memberships []Membership) error
	// Find returns existing membership rows (any kind) for the given
	// principals in the group.
	Find(ctx context.Context, groupID string, principalIDs []string) ([]Membership, error)
	Delete(ctx context.Context, groupID string, principalIDs []string) error
	// DeletePendingByPrincipals removes every pending membership held by the
	// given principals across all groups and returns the deleted rows.
	DeletePendingByPrincipals(ctx context.Context, principalIDs []string) ([]Membership, error)
	// DirectMemberIDs returns the principal IDs directly membered in a group.
	DirectMemberIDs(ctx context.Context, groupID string) ([]string, error)
	// ListForPrincipalInOrg returns the groups (with names) the principal
	// holds a membership row in, direct or pending, within the organization.
	ListForPrincipalInOrg(ctx context.Context, orgID, principalID string) ([]GroupMembershipInfo, error)
	// ProjectsWithOtherAccess returns, out of projectIDs, the projects the
	// principal can still reach through an access path other than the
	// excluded group (direct project membership or another group's grant).
	ProjectsWithOtherAccess(ctx context.Context, principalID, excludeGroupID string, projectIDs []string) (map[string]bool, error)
	// GroupsGrantingProject returns the IDs of groups the principal is
	// directly membered in that hold a grant on the project.
	GroupsGrantingProject(ctx context.Context, principalID, projectID string) ([]string, error)
}

// ProjectRepository persists projects, project bots, and direct project
// memberships.
type ProjectRepository interface {
	Create(ctx context.Context, p *Project) (*Project, error)
	GetByID(ctx context.Context, id string) (*Project, error)
	SetBot(ctx context.Context, bot *ProjectBot) error
	GetBot(ctx context.Context, projectID string) (*ProjectBot, error)
	AddMember(ctx context.Context, projectID, principalID string) error
	RemoveMember(ctx context.Context, projectID, principalID string) error
	HasMember(ctx context.Context, projectID, principalID string) (bool, error)
}

// KeyShareRepository persists encrypted project key shares.
type KeyShareRepository interface {
	InsertMany(ctx context.Context, shares []ProjectKeyShare) error
	// LatestForReceiver returns the receiver's most recent key share for the
	// project.
	LatestForReceiver(ctx context.Context, projectID, receiverID string) (*ProjectKeyShare, error)
	// ExistingReceivers filters receiverIDs down to those already holding a
	// share for the project.
	ExistingReceivers(ctx context.Context, projectID string, receiverIDs []string) (map[string]bool, error)
	// DeleteForReceiver removes the receiver's share for the project. It is a
	// no-op when no share exists.
	DeleteForReceiver(ctx context.Context, projectID, receiverID string) error
	DeleteForReceiverInProjects(ctx context.Context, receiverID string, projectIDs []string) error
}

// GrantRepository persists group-project grants.
type GrantRepository interface {
	Link(ctx context.Context, groupID, projectID string) error
	Unlink(ctx context.Context, groupID, projectID string) error
	Exists(ctx context.Context, groupID, projectID string) (bool, error)
	ProjectIDsForGroup(ctx context.Context, groupID string) ([]string, error)
	CountForGroup(ctx context.Context, groupID string) (int64, error)
}

// SyncConfigRepository persists directory sync configurations.
type SyncConfigRepository interface {
	Create(ctx context.Context, cfg *DirectorySyncConfig) (*DirectorySyncConfig, error)
	GetByOrg(ctx context.Context, orgID string) (*DirectorySyncConfig, error)
	Update(ctx context.Context, cfg *DirectorySyncConfig) (*DirectorySyncConfig, error)
	DeleteByOrg(ctx context.Context, orgID string) error
}

// Store aggregates the repositories behind one persistence boundary and
// provides the transaction primitive.
//
// RunInTransaction runs fn against a transaction-bound Store; internal
// helpers always receive their unit of work explicitly, and only top-level
// entry points decide whether to open a new one. Calling RunInTransaction on
// an already transaction-bound Store joins the existing transaction.
type Store interface {
	Principals() PrincipalRepository
	Groups() GroupRepository
	Memberships() MembershipRepository
	Projects() ProjectRepository
	KeyShares() KeyShareRepository
	Grants() GrantRepository
	SyncConfigs() SyncConfigRepository
	RunInTransaction(ctx context.Context, fn func(Store) error) error
}

// DirectoryProvider is the external identity provider consumed by the
// synchronizer. It is paginated, rate limited, and untrusted; every call is
// bounded by a short timeout and may be re-issued after partial failure.
type DirectoryProvider interface {
	// CheckOrg verifies that the token can see the named provider
	// organization.
	CheckOrg(ctx context.Context, accessToken, orgName string) error
	// ResolveUsername returns the principal's externally visible username, or
	// a NotFoundError when the provider reports no membership.
	ResolveUsername(ctx context.Context, accessToken, orgName string) (string, error)
	// ListTeamsForUser returns the full set of teams the provider reports for
	// the username, following cursor pagination internally.
	ListTeamsForUser(ctx context.Context, accessToken, orgName, username string) ([]ExternalTeam, error)
}

// EnvelopeKeyService is the opaque encryption collaborator. Symmetric
// operations wrap material under the master secret; Seal/Open perform
// per-recipient asymmetric envelope encryption. Key material formats are
// never inspected by callers.
type EnvelopeKeyService interface {
	CreateKeyPair() (publicKey, privateKey string, err error)
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
	SealKey(plaintext []byte, receiverPublicKey, senderPrivateKey string) (ciphertext, nonce string, err error)
	OpenKey(ciphertext, nonce, senderPublicKey, receiverPrivateKey string) ([]byte, error)
}
