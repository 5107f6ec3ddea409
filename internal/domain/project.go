package domain

import "time"

// Project is a scope whose symmetric key is distributed to principals as
// encrypted key shares.
//
// EscrowPrincipalID names the project's designated key holder. The escrow
// principal's latest key share, combined with the project bot's private key,
// is the only way to recover the plaintext project key for re-encryption to
// a new holder.
type Project struct {
	ID                string
	OrgID             string
	Name              string
	EscrowPrincipalID string
	CreatedAt         time.Time
}

// ProjectBot holds the project-level key pair used to unwrap the escrow key
// share. The private key is encrypted at rest under the symmetric master
// secret and is only ever decrypted transiently in memory.
type ProjectBot struct {
	ProjectID           string
	PublicKey           string // base64
	EncryptedPrivateKey string // master-key AES-GCM ciphertext, hex
	CreatedAt           time.Time
}

// ProjectMembership records a principal's direct (non-group) membership in a
// project. It is one kind of access path.
type ProjectMembership struct {
	ProjectID   string
	PrincipalID string
	CreatedAt   time.Time
}

// Access path kind constants.
const (
	AccessPathDirect = "direct"
	AccessPathGroup  = "group"
)

// AccessPath is one independent way a principal has access to a project:
// either a direct project membership or a direct membership in a group that
// the project is granted to.
type AccessPath struct {
	Kind    string // "direct" or "group"
	GroupID string // set when Kind is "group"
}
