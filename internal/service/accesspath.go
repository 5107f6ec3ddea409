package service

import (
	"context"

	"groupvault/internal/domain"
)

// AccessService resolves a principal's independent access paths into a
// project and performs cascading unlink of a group from a project.
type AccessService struct {
	store domain.Store
}

// NewAccessService creates a new AccessService.
func NewAccessService(store domain.Store) *AccessService {
	return &AccessService{store: store}
}

// ResolvePaths returns every independent path by which the principal
// currently has access to the project: a direct project membership and/or
// each group the principal belongs to that holds a grant on the project.
func (s *AccessService) ResolvePaths(ctx context.Context, principalID, projectID string) ([]domain.AccessPath, error) {
	return resolvePaths(ctx, s.store, principalID, projectID)
}

func resolvePaths(ctx context.Context, store domain.Store, principalID, projectID string) ([]domain.AccessPath, error) {
	var paths []domain.AccessPath

	direct, err := store.Projects().HasMember(ctx, projectID, principalID)
	if err != nil {
		return nil, err
	}
	if direct {
		paths = append(paths, domain.AccessPath{Kind: domain.AccessPathDirect})
	}

	groupIDs, err := store.Memberships().GroupsGrantingProject(ctx, principalID, projectID)
	if err != nil {
		return nil, err
	}
	for _, groupID := range groupIDs {
		paths = append(paths, domain.AccessPath{Kind: domain.AccessPathGroup, GroupID: groupID})
	}
	return paths, nil
}

// UnlinkGroupFromProject severs the group's grant on the project and revokes
// the key share of every direct member who has no remaining access path into
// the project. Members reachable through a direct project membership or
// another linked group keep their share.
func (s *AccessService) UnlinkGroupFromProject(ctx context.Context, groupID, projectID string) error {
	return s.store.RunInTransaction(ctx, func(tx domain.Store) error {
		linked, err := tx.Grants().Exists(ctx, groupID, projectID)
		if err != nil {
			return err
		}
		if !linked {
			return domain.ErrNotFound("group %s is not linked to project %s", groupID, projectID)
		}

		memberIDs, err := tx.Memberships().DirectMemberIDs(ctx, groupID)
		if err != nil {
			return err
		}

		if err := tx.Grants().Unlink(ctx, groupID, projectID); err != nil {
			return err
		}

		// The grant is gone, so any path found now is independent of the
		// severed link.
		for _, memberID := range memberIDs {
			paths, err := resolvePaths(ctx, tx, memberID, projectID)
			if err != nil {
				return err
			}
			if len(paths) > 0 {
				continue
			}
			if err := tx.KeyShares().DeleteForReceiver(ctx, projectID, memberID); err != nil {
				return err
			}
		}
		return nil
	})
}
