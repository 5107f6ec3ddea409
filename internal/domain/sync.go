package domain

import "time"

// DirectorySyncConfig is an organization's link to an external directory
// provider. The provider access token is stored encrypted under the master
// secret.
type DirectorySyncConfig struct {
	ID                   string
	OrgID                string
	ProviderOrg          string // the organization's name at the provider
	EncryptedAccessToken string // master-key AES-GCM ciphertext, hex; may be empty
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ExternalTeam is one team the directory provider reports for a principal.
// The set of teams is ephemeral: it is fetched per reconciliation run and
// never persisted.
type ExternalTeam struct {
	Name        string
	Description string
}
