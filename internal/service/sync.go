package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"groupvault/internal/domain"
)

// SyncService reconciles a principal's internal group memberships against the
// team set an external directory provider reports for it, and manages the
// per-organization sync configuration.
type SyncService struct {
	store      domain.Store
	provider   domain.DirectoryProvider
	keys       domain.EnvelopeKeyService
	membership *MembershipService
	logger     *slog.Logger
}

// NewSyncService creates a new SyncService.
func NewSyncService(store domain.Store, provider domain.DirectoryProvider, keys domain.EnvelopeKeyService, membership *MembershipService, logger *slog.Logger) *SyncService {
	return &SyncService{
		store:      store,
		provider:   provider,
		keys:       keys,
		membership: membership,
		logger:     logger,
	}
}

// CreateConfig links an organization to a provider organization. The access
// token is verified against the provider before it is stored encrypted under
// the master secret.
func (s *SyncService) CreateConfig(ctx context.Context, orgID, providerOrg, accessToken string, active bool) (*domain.DirectorySyncConfig, error) {
	if providerOrg == "" {
		return nil, domain.ErrValidation("provider organization name is required")
	}
	if accessToken == "" {
		return nil, domain.ErrValidation("access token is required")
	}
	if _, err := s.store.Principals().GetOrg(ctx, orgID); err != nil {
		return nil, err
	}
	if err := s.provider.CheckOrg(ctx, accessToken, providerOrg); err != nil {
		return nil, err
	}
	encrypted, err := s.keys.Encrypt([]byte(accessToken))
	if err != nil {
		return nil, err
	}
	return s.store.SyncConfigs().Create(ctx, &domain.DirectorySyncConfig{
		OrgID:                orgID,
		ProviderOrg:          providerOrg,
		EncryptedAccessToken: encrypted,
		Active:               active,
	})
}

// UpdateConfig updates an organization's sync configuration. An empty access
// token keeps the stored one; any other token is re-verified against the
// provider and re-encrypted. Renaming the provider organization without
// supplying a new token re-verifies the stored token against the new name.
func (s *SyncService) UpdateConfig(ctx context.Context, orgID, providerOrg, accessToken string, active bool) (*domain.DirectorySyncConfig, error) {
	cfg, err := s.store.SyncConfigs().GetByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	orgRenamed := providerOrg != "" && providerOrg != cfg.ProviderOrg
	if providerOrg != "" {
		cfg.ProviderOrg = providerOrg
	}
	switch {
	case accessToken != "":
		if err := s.provider.CheckOrg(ctx, accessToken, cfg.ProviderOrg); err != nil {
			return nil, err
		}
		encrypted, err := s.keys.Encrypt([]byte(accessToken))
		if err != nil {
			return nil, err
		}
		cfg.EncryptedAccessToken = encrypted
	case orgRenamed:
		raw, err := s.keys.Decrypt(cfg.EncryptedAccessToken)
		if err != nil {
			return nil, err
		}
		if err := s.provider.CheckOrg(ctx, string(raw), cfg.ProviderOrg); err != nil {
			return nil, err
		}
	}
	cfg.Active = active
	return s.store.SyncConfigs().Update(ctx, cfg)
}

// GetConfig returns an organization's sync configuration.
func (s *SyncService) GetConfig(ctx context.Context, orgID string) (*domain.DirectorySyncConfig, error) {
	return s.store.SyncConfigs().GetByOrg(ctx, orgID)
}

// DeleteConfig removes an organization's sync configuration.
func (s *SyncService) DeleteConfig(ctx context.Context, orgID string) error {
	return s.store.SyncConfigs().DeleteByOrg(ctx, orgID)
}

// SyncPrincipal reconciles one principal's group memberships against the
// provider's team set. It is a no-op when the organization has no active sync
// configuration or when remote and internal state already agree.
//
// accessToken is the principal's own provider token when available (e.g. at
// login); when empty the configured organization token is used. All remote
// fetches complete before the transaction opens, and provider failure aborts
// the run with nothing applied.
func (s *SyncService) SyncPrincipal(ctx context.Context, orgID, principalID, accessToken string) error {
	cfg, err := s.store.SyncConfigs().GetByOrg(ctx, orgID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			s.logger.Debug("directory sync not configured", "org_id", orgID)
			return nil
		}
		return err
	}
	if !cfg.Active {
		s.logger.Debug("directory sync disabled", "org_id", orgID)
		return nil
	}

	principal, err := s.store.Principals().GetByID(ctx, principalID)
	if err != nil {
		return err
	}

	token := accessToken
	if token == "" {
		if cfg.EncryptedAccessToken == "" {
			return domain.ErrValidation("no access token available for directory sync")
		}
		raw, err := s.keys.Decrypt(cfg.EncryptedAccessToken)
		if err != nil {
			return err
		}
		token = string(raw)
	}

	username, err := s.provider.ResolveUsername(ctx, token, cfg.ProviderOrg)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return domain.ErrValidation("principal %s is not part of the synced provider organization", principal.Username)
		}
		return err
	}

	teams, err := s.provider.ListTeamsForUser(ctx, token, cfg.ProviderOrg, username)
	if err != nil {
		return err
	}

	// Team names are lower-cased for comparison; two remote teams differing
	// only in case collapse onto one internal group.
	remote := make(map[string]bool, len(teams))
	remoteNames := make([]string, 0, len(teams))
	for _, team := range teams {
		name := strings.ToLower(team.Name)
		if !remote[name] {
			remote[name] = true
			remoteNames = append(remoteNames, name)
		}
	}

	existing, err := s.store.Groups().FindByNames(ctx, orgID, remoteNames)
	if err != nil {
		return err
	}
	groupsByName := make(map[string]domain.Group, len(existing))
	for _, g := range existing {
		groupsByName[strings.ToLower(g.Name)] = g
	}

	// Pending rows count as membership here: a non-activated principal
	// already synced into a group must not be re-joined on the next run.
	current, err := s.store.Memberships().ListForPrincipalInOrg(ctx, orgID, principalID)
	if err != nil {
		return err
	}
	memberOf := make(map[string]bool, len(current))
	for _, info := range current {
		memberOf[info.GroupID] = true
	}

	var toCreate []string
	var toJoin []domain.Group
	for _, name := range remoteNames {
		g, ok := groupsByName[name]
		if !ok {
			toCreate = append(toCreate, name)
			continue
		}
		if !memberOf[g.ID] {
			toJoin = append(toJoin, g)
		}
	}
	var toLeave []domain.GroupMembershipInfo
	for _, info := range current {
		if !remote[strings.ToLower(info.GroupName)] {
			toLeave = append(toLeave, info)
		}
	}

	if len(toCreate) == 0 && len(toJoin) == 0 && len(toLeave) == 0 {
		s.logger.Debug("directory sync up to date",
			"org_id", orgID, "principal", principal.Username)
		return nil
	}

	err = s.store.RunInTransaction(ctx, func(tx domain.Store) error {
		ids := []string{principalID}
		for _, name := range toCreate {
			g, err := tx.Groups().Create(ctx, &domain.Group{
				OrgID: orgID,
				Name:  name,
				Slug:  Slugify(name),
			})
			if err != nil {
				return err
			}
			if err := s.membership.AddPrincipalsInTx(ctx, tx, g, ids); err != nil {
				return err
			}
		}
		for i := range toJoin {
			if err := s.membership.AddPrincipalsInTx(ctx, tx, &toJoin[i], ids); err != nil {
				return err
			}
		}
		for _, info := range toLeave {
			g, err := tx.Groups().GetByID(ctx, info.GroupID)
			if err != nil {
				return err
			}
			if err := s.membership.RemovePrincipalsInTx(ctx, tx, g, ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("directory sync applied",
		"org_id", orgID,
		"principal", principal.Username,
		"created", len(toCreate),
		"joined", len(toJoin),
		"left", len(toLeave))
	return nil
}
