package repository

import (
	"context"
	"strings"

	"groupvault/internal/domain"
)

var _ domain.MembershipRepository = (*MembershipRepo)(nil)

// MembershipRepo implements domain.MembershipRepository using SQLite.
type MembershipRepo struct {
	db DBTX
}

// NewMembershipRepo creates a new MembershipRepo.
func NewMembershipRepo(db DBTX) *MembershipRepo {
	return &MembershipRepo{db: db}
}

func (r *MembershipRepo) InsertMany(ctx context.Context, memberships []domain.Membership) error {
	if len(memberships) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO group_memberships (group_id, principal_id, is_pending) VALUES ")
	args := make([]any, 0, len(memberships)*3)
	for i, m := range memberships {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, m.GroupID, m.PrincipalID, boolToInt(m.Kind == domain.MembershipPending))
	}
	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return mapDBError(err)
}

func (r *MembershipRepo) Find(ctx context.Context, groupID string, principalIDs []string) ([]domain.Membership, error) {
	if len(principalIDs) == 0 {
		return nil, nil
	}
	args := append([]any{groupID}, toAnySlice(principalIDs)...)
	rows, err := r.db.QueryContext(ctx, `
SELECT group_id, principal_id, is_pending, created_at
FROM group_memberships
WHERE group_id = ? AND principal_id IN (`+placeholders(len(principalIDs))+")",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

func (r *MembershipRepo) Delete(ctx context.Context, groupID string, principalIDs []string) error {
	if len(principalIDs) == 0 {
		return nil
	}
	args := append([]any{groupID}, toAnySlice(principalIDs)...)
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM group_memberships WHERE group_id = ? AND principal_id IN ("+placeholders(len(principalIDs))+")",
		args...,
	)
	return err
}

func (r *MembershipRepo) DeletePendingByPrincipals(ctx context.Context, principalIDs []string) ([]domain.Membership, error) {
	if len(principalIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
DELETE FROM group_memberships
WHERE is_pending = 1 AND principal_id IN (`+placeholders(len(principalIDs))+`)
RETURNING group_id, principal_id, is_pending, created_at`,
		toAnySlice(principalIDs)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

func (r *MembershipRepo) DirectMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT principal_id FROM group_memberships WHERE group_id = ? AND is_pending = 0",
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *MembershipRepo) ListForPrincipalInOrg(ctx context.Context, orgID, principalID string) ([]domain.GroupMembershipInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT g.id, g.name, g.slug
FROM group_memberships gm
JOIN groups g ON g.id = gm.group_id
WHERE g.org_id = ? AND gm.principal_id = ?`,
		orgID, principalID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []domain.GroupMembershipInfo
	for rows.Next() {
		var info domain.GroupMembershipInfo
		if err := rows.Scan(&info.GroupID, &info.GroupName, &info.GroupSlug); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (r *MembershipRepo) ProjectsWithOtherAccess(ctx context.Context, principalID, excludeGroupID string, projectIDs []string) (map[string]bool, error) {
	if len(projectIDs) == 0 {
		return map[string]bool{}, nil
	}
	ph := placeholders(len(projectIDs))
	args := make([]any, 0, len(projectIDs)*2+4)
	args = append(args, principalID)
	args = append(args, toAnySlice(projectIDs)...)
	args = append(args, principalID, excludeGroupID)
	args = append(args, toAnySlice(projectIDs)...)

	rows, err := r.db.QueryContext(ctx, `
SELECT project_id FROM project_memberships
WHERE principal_id = ? AND project_id IN (`+ph+`)
UNION
SELECT gpg.project_id
FROM group_project_grants gpg
JOIN group_memberships gm ON gm.group_id = gpg.group_id AND gm.is_pending = 0
WHERE gm.principal_id = ? AND gpg.group_id != ? AND gpg.project_id IN (`+ph+")",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reachable := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		reachable[id] = true
	}
	return reachable, rows.Err()
}

func (r *MembershipRepo) GroupsGrantingProject(ctx context.Context, principalID, projectID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT gpg.group_id
FROM group_project_grants gpg
JOIN group_memberships gm ON gm.group_id = gpg.group_id AND gm.is_pending = 0
WHERE gm.principal_id = ? AND gpg.project_id = ?`,
		principalID, projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectMemberships(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]domain.Membership, error) {
	var memberships []domain.Membership
	for rows.Next() {
		var m domain.Membership
		var pending int64
		if err := rows.Scan(&m.GroupID, &m.PrincipalID, &pending, &m.CreatedAt); err != nil {
			return nil, err
		}
		if pending != 0 {
			m.Kind = domain.MembershipPending
		} else {
			m.Kind = domain.MembershipDirect
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}
