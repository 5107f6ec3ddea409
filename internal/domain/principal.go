package domain

import "time"

// Principal kind constants.
const (
	PrincipalUser    = "user"
	PrincipalMachine = "machine"
)

// Principal is a user or machine identity capable of holding group
// memberships and project key shares.
//
// A user principal whose account setup is not yet complete has Activated set
// to false and an empty PublicKey; it can only hold pending memberships.
// Machine identities are always activated but carry no envelope key pair and
// therefore never hold key shares.
type Principal struct {
	ID        string
	Username  string
	Kind      string // "user" or "machine"
	Activated bool
	PublicKey string // base64-encoded asymmetric public key, empty until activation
	CreatedAt time.Time
}

// HoldsKeys reports whether this principal can receive project key shares.
func (p *Principal) HoldsKeys() bool {
	return p.Kind == PrincipalUser && p.Activated && p.PublicKey != ""
}

// Organization is the scope that owns groups and projects.
type Organization struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}

// OrgMembership records that a principal belongs to an organization.
type OrgMembership struct {
	OrgID       string
	PrincipalID string
	CreatedAt   time.Time
}
