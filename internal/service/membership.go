package service

import (
	"context"

	"groupvault/internal/domain"
)

// MembershipService is the transactional core: it adds and removes principals
// to and from groups, classifying each batch into direct and pending
// memberships by account-activation state, and drives key distribution as a
// side effect.
type MembershipService struct {
	store   domain.Store
	keydist *KeyDistributor
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(store domain.Store, keydist *KeyDistributor) *MembershipService {
	return &MembershipService{store: store, keydist: keydist}
}

// AddPrincipals adds the principals to the group in one transaction.
//
// Activated users become direct members and receive a key share for every
// project the group grants (unless they already hold one via another path).
// Users whose account setup is incomplete become pending members with no key
// side effects. Machine identities become direct members but never receive
// key material.
func (s *MembershipService) AddPrincipals(ctx context.Context, groupID string, principalIDs []string) error {
	return s.store.RunInTransaction(ctx, func(tx domain.Store) error {
		group, err := tx.Groups().GetByID(ctx, groupID)
		if err != nil {
			return err
		}
		return s.AddPrincipalsInTx(ctx, tx, group, principalIDs)
	})
}

// AddPrincipalsInTx is AddPrincipals running inside a caller-provided unit of
// work. The whole batch is validated before any row is written: an unknown
// principal, an existing membership of either kind, or a principal outside
// the owning organization rejects the entire call.
func (s *MembershipService) AddPrincipalsInTx(ctx context.Context, tx domain.Store, group *domain.Group, principalIDs []string) error {
	principalIDs = dedupe(principalIDs)
	if len(principalIDs) == 0 {
		return domain.ErrValidation("no principals given")
	}

	principals, err := tx.Principals().FindByIDs(ctx, principalIDs)
	if err != nil {
		return err
	}
	if len(principals) != len(principalIDs) {
		return domain.ErrNotFound("one or more principals not found")
	}

	orgMembers, err := tx.Principals().OrgMemberIDs(ctx, group.OrgID, principalIDs)
	if err != nil {
		return err
	}
	for _, p := range principals {
		if !orgMembers[p.ID] {
			return domain.ErrAccessDenied("principal %s is not a member of the owning organization", p.Username)
		}
	}

	existing, err := tx.Memberships().Find(ctx, group.ID, principalIDs)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return domain.ErrConflict("principal already belongs to group %s", group.Slug)
	}

	memberships := make([]domain.Membership, 0, len(principals))
	var keyHolders []domain.Principal
	for _, p := range principals {
		kind := domain.MembershipDirect
		if p.Kind == domain.PrincipalUser && !p.Activated {
			kind = domain.MembershipPending
		}
		memberships = append(memberships, domain.Membership{
			GroupID:     group.ID,
			PrincipalID: p.ID,
			Kind:        kind,
		})
		if p.HoldsKeys() {
			keyHolders = append(keyHolders, p)
		}
	}

	if err := tx.Memberships().InsertMany(ctx, memberships); err != nil {
		return err
	}

	if len(keyHolders) == 0 {
		return nil
	}
	projectIDs, err := tx.Grants().ProjectIDsForGroup(ctx, group.ID)
	if err != nil {
		return err
	}
	for _, projectID := range projectIDs {
		if err := s.keydist.IssueBatch(ctx, tx, projectID, keyHolders); err != nil {
			return err
		}
	}
	return nil
}

// RemovePrincipals removes the principals from the group in one transaction.
// Direct members lose their key share for every project the group grants
// unless another access path still reaches it; pending members just lose
// their pending row.
func (s *MembershipService) RemovePrincipals(ctx context.Context, groupID string, principalIDs []string) error {
	return s.store.RunInTransaction(ctx, func(tx domain.Store) error {
		group, err := tx.Groups().GetByID(ctx, groupID)
		if err != nil {
			return err
		}
		return s.RemovePrincipalsInTx(ctx, tx, group, principalIDs)
	})
}

// RemovePrincipalsInTx is RemovePrincipals running inside a caller-provided
// unit of work.
func (s *MembershipService) RemovePrincipalsInTx(ctx context.Context, tx domain.Store, group *domain.Group, principalIDs []string) error {
	principalIDs = dedupe(principalIDs)
	if len(principalIDs) == 0 {
		return domain.ErrValidation("no principals given")
	}

	principals, err := tx.Principals().FindByIDs(ctx, principalIDs)
	if err != nil {
		return err
	}
	if len(principals) != len(principalIDs) {
		return domain.ErrNotFound("one or more principals not found")
	}

	memberships, err := tx.Memberships().Find(ctx, group.ID, principalIDs)
	if err != nil {
		return err
	}
	if len(memberships) != len(principalIDs) {
		return domain.ErrNotFound("one or more principals do not belong to group %s", group.Slug)
	}

	if err := tx.Memberships().Delete(ctx, group.ID, principalIDs); err != nil {
		return err
	}

	projectIDs, err := tx.Grants().ProjectIDsForGroup(ctx, group.ID)
	if err != nil {
		return err
	}
	if len(projectIDs) == 0 {
		return nil
	}

	// Membership rows are already gone, so any path found now is independent
	// of the group being left.
	for _, m := range memberships {
		if m.Kind != domain.MembershipDirect {
			continue
		}
		reachable, err := tx.Memberships().ProjectsWithOtherAccess(ctx, m.PrincipalID, group.ID, projectIDs)
		if err != nil {
			return err
		}
		var lost []string
		for _, projectID := range projectIDs {
			if !reachable[projectID] {
				lost = append(lost, projectID)
			}
		}
		if err := tx.KeyShares().DeleteForReceiverInProjects(ctx, m.PrincipalID, lost); err != nil {
			return err
		}
	}
	return nil
}

// ActivateAccount marks a principal's account setup complete, records its
// public key, and converts its pending memberships to direct ones with full
// key distribution, all in one transaction.
func (s *MembershipService) ActivateAccount(ctx context.Context, principalID, publicKey string) error {
	if publicKey == "" {
		return domain.ErrValidation("public key is required to activate an account")
	}
	return s.store.RunInTransaction(ctx, func(tx domain.Store) error {
		if err := tx.Principals().SetActivated(ctx, principalID, publicKey); err != nil {
			return err
		}
		return s.convertPendingToDirectInTx(ctx, tx, []string{principalID})
	})
}

// ConvertPendingToDirect is invoked when accounts finish activation. Every
// pending membership the principals hold, across all groups, is converted to
// a direct membership with full key distribution, atomically.
func (s *MembershipService) ConvertPendingToDirect(ctx context.Context, principalIDs []string) error {
	return s.store.RunInTransaction(ctx, func(tx domain.Store) error {
		return s.convertPendingToDirectInTx(ctx, tx, principalIDs)
	})
}

func (s *MembershipService) convertPendingToDirectInTx(ctx context.Context, tx domain.Store, principalIDs []string) error {
	principalIDs = dedupe(principalIDs)
	if len(principalIDs) == 0 {
		return domain.ErrValidation("no principals given")
	}

	principals, err := tx.Principals().FindByIDs(ctx, principalIDs)
	if err != nil {
		return err
	}
	if len(principals) != len(principalIDs) {
		return domain.ErrNotFound("one or more principals not found")
	}
	byID := make(map[string]domain.Principal, len(principals))
	for _, p := range principals {
		if !p.Activated {
			return domain.ErrValidation("principal %s is not activated", p.Username)
		}
		byID[p.ID] = p
	}

	pending, err := tx.Memberships().DeletePendingByPrincipals(ctx, principalIDs)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	direct := make([]domain.Membership, 0, len(pending))
	holdersByGroup := make(map[string][]domain.Principal)
	for _, m := range pending {
		direct = append(direct, domain.Membership{
			GroupID:     m.GroupID,
			PrincipalID: m.PrincipalID,
			Kind:        domain.MembershipDirect,
		})
		if p := byID[m.PrincipalID]; p.HoldsKeys() {
			holdersByGroup[m.GroupID] = append(holdersByGroup[m.GroupID], p)
		}
	}
	if err := tx.Memberships().InsertMany(ctx, direct); err != nil {
		return err
	}

	for groupID, holders := range holdersByGroup {
		projectIDs, err := tx.Grants().ProjectIDsForGroup(ctx, groupID)
		if err != nil {
			return err
		}
		for _, projectID := range projectIDs {
			if err := s.keydist.IssueBatch(ctx, tx, projectID, holders); err != nil {
				return err
			}
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
