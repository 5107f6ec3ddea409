package domain

import "time"

// ProjectKeyShare is a copy of a project's symmetric key, encrypted
// asymmetrically for one receiving principal.
//
// Invariant: a principal holds a key share for a project if and only if it
// has at least one access path into that project.
type ProjectKeyShare struct {
	ID           string
	ProjectID    string
	SenderID     string // principal whose key pair performed the encryption
	ReceiverID   string // principal the share is addressed to
	EncryptedKey string // base64 box ciphertext
	Nonce        string // base64 box nonce
	CreatedAt    time.Time
}
