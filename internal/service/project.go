package service

import (
	"context"
	"crypto/rand"
	"fmt"

	"groupvault/internal/domain"
)

// ProjectService bootstraps projects with their escrow key material and
// manages direct project membership.
type ProjectService struct {
	store   domain.Store
	keys    domain.EnvelopeKeyService
	keydist *KeyDistributor
}

// NewProjectService creates a new ProjectService.
func NewProjectService(store domain.Store, keys domain.EnvelopeKeyService, keydist *KeyDistributor) *ProjectService {
	return &ProjectService{store: store, keys: keys, keydist: keydist}
}

// Bootstrap creates a project together with everything key distribution
// needs: a fresh symmetric project key, a bot key pair whose private half is
// wrapped under the master secret, an escrow principal carrying the bot's
// public key, and an initial self-addressed escrow key share.
//
// The escrow principal's key pair is the bot key pair; that is what lets
// Issue open the escrow share with the unwrapped bot private key later.
func (s *ProjectService) Bootstrap(ctx context.Context, orgID, name string) (*domain.Project, error) {
	if name == "" {
		return nil, domain.ErrValidation("project name is required")
	}
	if _, err := s.store.Principals().GetOrg(ctx, orgID); err != nil {
		return nil, err
	}

	publicKey, privateKey, err := s.keys.CreateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("create bot key pair: %w", err)
	}
	projectKey := make([]byte, 32)
	if _, err := rand.Read(projectKey); err != nil {
		return nil, fmt.Errorf("generate project key: %w", err)
	}
	encryptedPrivateKey, err := s.keys.Encrypt([]byte(privateKey))
	if err != nil {
		return nil, fmt.Errorf("wrap bot private key: %w", err)
	}

	projectID := domain.NewID()
	var project *domain.Project
	err = s.store.RunInTransaction(ctx, func(tx domain.Store) error {
		escrow, err := tx.Principals().Create(ctx, &domain.Principal{
			Username:  "escrow-" + projectID,
			Kind:      domain.PrincipalUser,
			Activated: true,
			PublicKey: publicKey,
		})
		if err != nil {
			return err
		}
		if err := tx.Principals().AddToOrg(ctx, orgID, escrow.ID); err != nil {
			return err
		}

		project, err = tx.Projects().Create(ctx, &domain.Project{
			ID:                projectID,
			OrgID:             orgID,
			Name:              name,
			EscrowPrincipalID: escrow.ID,
		})
		if err != nil {
			return err
		}

		if err := tx.Projects().SetBot(ctx, &domain.ProjectBot{
			ProjectID:           projectID,
			PublicKey:           publicKey,
			EncryptedPrivateKey: encryptedPrivateKey,
		}); err != nil {
			return err
		}

		ciphertext, nonce, err := s.keys.SealKey(projectKey, publicKey, privateKey)
		if err != nil {
			return fmt.Errorf("seal escrow key share: %w", err)
		}
		return tx.KeyShares().InsertMany(ctx, []domain.ProjectKeyShare{{
			ProjectID:    projectID,
			SenderID:     escrow.ID,
			ReceiverID:   escrow.ID,
			EncryptedKey: ciphertext,
			Nonce:        nonce,
		}})
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// AddDirectMember gives a principal a direct (non-group) project membership
// and, when the principal can hold key material, a key share.
func (s *ProjectService) AddDirectMember(ctx context.Context, projectID, principalID string) error {
	return s.store.RunInTransaction(ctx, func(tx domain.Store) error {
		project, err := tx.Projects().GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		principal, err := tx.Principals().GetByID(ctx, principalID)
		if err != nil {
			return err
		}
		orgMembers, err := tx.Principals().OrgMemberIDs(ctx, project.OrgID, []string{principalID})
		if err != nil {
			return err
		}
		if !orgMembers[principalID] {
			return domain.ErrAccessDenied("principal %s is not a member of the owning organization", principal.Username)
		}

		if err := tx.Projects().AddMember(ctx, projectID, principalID); err != nil {
			return err
		}
		return s.keydist.IssueBatch(ctx, tx, projectID, []domain.Principal{*principal})
	})
}

// RemoveDirectMember removes a principal's direct project membership and
// revokes its key share unless a group path still grants the project.
func (s *ProjectService) RemoveDirectMember(ctx context.Context, projectID, principalID string) error {
	return s.store.RunInTransaction(ctx, func(tx domain.Store) error {
		has, err := tx.Projects().HasMember(ctx, projectID, principalID)
		if err != nil {
			return err
		}
		if !has {
			return domain.ErrNotFound("principal %s is not a direct member of project %s", principalID, projectID)
		}
		if err := tx.Projects().RemoveMember(ctx, projectID, principalID); err != nil {
			return err
		}

		paths, err := resolvePaths(ctx, tx, principalID, projectID)
		if err != nil {
			return err
		}
		if len(paths) > 0 {
			return nil
		}
		return s.keydist.Revoke(ctx, tx, projectID, principalID)
	})
}
