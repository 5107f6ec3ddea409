package service

import (
	"context"
	"regexp"
	"strings"

	"groupvault/internal/domain"
)

// GroupService manages group lifecycle and group-project links.
type GroupService struct {
	store   domain.Store
	keydist *KeyDistributor
}

// NewGroupService creates a new GroupService.
func NewGroupService(store domain.Store, keydist *KeyDistributor) *GroupService {
	return &GroupService{store: store, keydist: keydist}
}

// Create creates a group in the organization. Slug defaults to a slugified
// form of the name; slug and name are unique per organization.
func (s *GroupService) Create(ctx context.Context, orgID, name, slug string) (*domain.Group, error) {
	if name == "" {
		return nil, domain.ErrValidation("group name is required")
	}
	if slug == "" {
		slug = Slugify(name)
	}
	if _, err := s.store.Principals().GetOrg(ctx, orgID); err != nil {
		return nil, err
	}
	return s.store.Groups().Create(ctx, &domain.Group{OrgID: orgID, Name: name, Slug: slug})
}

// Rename updates a group's name and slug.
func (s *GroupService) Rename(ctx context.Context, groupID, name, slug string) (*domain.Group, error) {
	if name == "" {
		return nil, domain.ErrValidation("group name is required")
	}
	if slug == "" {
		slug = Slugify(name)
	}
	return s.store.Groups().Rename(ctx, groupID, name, slug)
}

// GetBySlug returns the organization's group with the given slug.
func (s *GroupService) GetBySlug(ctx context.Context, orgID, slug string) (*domain.Group, error) {
	return s.store.Groups().GetBySlug(ctx, orgID, slug)
}

// Delete removes a group. It is refused while any project link still
// references the group; the caller must unlink first. Membership rows cascade
// with the group and carry no key-share side effects of their own, which is
// why the unlink-first rule exists.
func (s *GroupService) Delete(ctx context.Context, groupID string) error {
	return s.store.RunInTransaction(ctx, func(tx domain.Store) error {
		if _, err := tx.Groups().GetByID(ctx, groupID); err != nil {
			return err
		}
		n, err := tx.Grants().CountForGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrConflict("group is still linked to %d project(s); unlink first", n)
		}
		return tx.Groups().Delete(ctx, groupID)
	})
}

// LinkGroupToProject grants the group access to the project and issues a key
// share to every direct member that can hold one and does not already have
// one via another path.
func (s *GroupService) LinkGroupToProject(ctx context.Context, groupID, projectID string) error {
	return s.store.RunInTransaction(ctx, func(tx domain.Store) error {
		group, err := tx.Groups().GetByID(ctx, groupID)
		if err != nil {
			return err
		}
		project, err := tx.Projects().GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if group.OrgID != project.OrgID {
			return domain.ErrValidation("group and project belong to different organizations")
		}

		linked, err := tx.Grants().Exists(ctx, groupID, projectID)
		if err != nil {
			return err
		}
		if linked {
			return domain.ErrConflict("group %s is already linked to project %s", group.Slug, project.Name)
		}
		if err := tx.Grants().Link(ctx, groupID, projectID); err != nil {
			return err
		}

		memberIDs, err := tx.Memberships().DirectMemberIDs(ctx, groupID)
		if err != nil {
			return err
		}
		if len(memberIDs) == 0 {
			return nil
		}
		members, err := tx.Principals().FindByIDs(ctx, memberIDs)
		if err != nil {
			return err
		}
		return s.keydist.IssueBatch(ctx, tx, projectID, members)
	})
}

var slugNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a display name and collapses runs of non-alphanumeric
// characters into single dashes.
func Slugify(name string) string {
	slug := slugNonAlnum.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
