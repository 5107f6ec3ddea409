// Package service implements group membership, project key distribution, and
// external directory reconciliation on top of the domain repositories.
package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"groupvault/internal/domain"
)

// KeyDistributor issues and revokes encrypted project key shares.
//
// Issuing recovers the plaintext project key from the escrow principal's
// latest share (opened with the project bot's private key, itself unwrapped
// under the master secret) and re-encrypts it for each new holder. The
// plaintext key lives only in local memory for the duration of one call.
type KeyDistributor struct {
	keys domain.EnvelopeKeyService
}

// NewKeyDistributor creates a new KeyDistributor.
func NewKeyDistributor(keys domain.EnvelopeKeyService) *KeyDistributor {
	return &KeyDistributor{keys: keys}
}

// Issue grants a single holder an encrypted copy of the project key. The
// holder must be able to receive key material.
func (d *KeyDistributor) Issue(ctx context.Context, store domain.Store, projectID string, holder *domain.Principal) error {
	return d.IssueBatch(ctx, store, projectID, []domain.Principal{*holder})
}

// IssueBatch grants each holder an encrypted copy of the project key,
// performing the escrow decrypt once and fanning the per-holder encrypt out
// across goroutines. Holders that already hold a share for the project are
// skipped, as are holders without usable key material.
//
// Missing escrow principal, project bot, or escrow key share is fatal
// misconfiguration of the project and fails the whole call.
func (d *KeyDistributor) IssueBatch(ctx context.Context, store domain.Store, projectID string, holders []domain.Principal) error {
	eligible := make([]domain.Principal, 0, len(holders))
	ids := make([]string, 0, len(holders))
	for _, h := range holders {
		if h.HoldsKeys() {
			eligible = append(eligible, h)
			ids = append(ids, h.ID)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	existing, err := store.KeyShares().ExistingReceivers(ctx, projectID, ids)
	if err != nil {
		return err
	}
	receivers := make([]domain.Principal, 0, len(eligible))
	for _, h := range eligible {
		if !existing[h.ID] {
			receivers = append(receivers, h)
		}
	}
	if len(receivers) == 0 {
		return nil
	}

	projectKey, escrowID, botPrivateKey, err := d.recoverProjectKey(ctx, store, projectID)
	if err != nil {
		return err
	}

	shares := make([]domain.ProjectKeyShare, len(receivers))
	g, _ := errgroup.WithContext(ctx)
	for i := range receivers {
		i := i
		g.Go(func() error {
			ciphertext, nonce, err := d.keys.SealKey(projectKey, receivers[i].PublicKey, botPrivateKey)
			if err != nil {
				return fmt.Errorf("seal project key for %s: %w", receivers[i].ID, err)
			}
			shares[i] = domain.ProjectKeyShare{
				ProjectID:    projectID,
				SenderID:     escrowID,
				ReceiverID:   receivers[i].ID,
				EncryptedKey: ciphertext,
				Nonce:        nonce,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return store.KeyShares().InsertMany(ctx, shares)
}

// Revoke deletes the holder's key share for the project. Revoking a share
// that does not exist is a no-op.
func (d *KeyDistributor) Revoke(ctx context.Context, store domain.Store, projectID, holderID string) error {
	return store.KeyShares().DeleteForReceiver(ctx, projectID, holderID)
}

// recoverProjectKey returns the plaintext project key, the escrow principal
// ID, and the decrypted bot private key.
func (d *KeyDistributor) recoverProjectKey(ctx context.Context, store domain.Store, projectID string) ([]byte, string, string, error) {
	project, err := store.Projects().GetByID(ctx, projectID)
	if err != nil {
		return nil, "", "", err
	}
	if project.EscrowPrincipalID == "" {
		return nil, "", "", domain.ErrValidation("project %s has no escrow principal", projectID)
	}

	bot, err := store.Projects().GetBot(ctx, projectID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return nil, "", "", domain.ErrValidation("project %s has no bot key pair", projectID)
		}
		return nil, "", "", err
	}

	escrowShare, err := store.KeyShares().LatestForReceiver(ctx, projectID, project.EscrowPrincipalID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return nil, "", "", domain.ErrValidation("project %s has no escrow key share", projectID)
		}
		return nil, "", "", err
	}

	sender, err := store.Principals().GetByID(ctx, escrowShare.SenderID)
	if err != nil {
		return nil, "", "", err
	}

	botPrivateKey, err := d.keys.Decrypt(bot.EncryptedPrivateKey)
	if err != nil {
		return nil, "", "", fmt.Errorf("unwrap bot private key: %w", err)
	}

	projectKey, err := d.keys.OpenKey(escrowShare.EncryptedKey, escrowShare.Nonce, sender.PublicKey, string(botPrivateKey))
	if err != nil {
		return nil, "", "", fmt.Errorf("open escrow key share: %w", err)
	}

	return projectKey, project.EscrowPrincipalID, string(botPrivateKey), nil
}
