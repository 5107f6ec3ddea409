package repository

import (
	"context"

	"groupvault/internal/domain"
)

var _ domain.GrantRepository = (*GrantRepo)(nil)

// GrantRepo implements domain.GrantRepository using SQLite.
type GrantRepo struct {
	db DBTX
}

// NewGrantRepo creates a new GrantRepo.
func NewGrantRepo(db DBTX) *GrantRepo {
	return &GrantRepo{db: db}
}

func (r *GrantRepo) Link(ctx context.Context, groupID, projectID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO group_project_grants (group_id, project_id) VALUES (?, ?)",
		groupID, projectID,
	)
	return mapDBError(err)
}

func (r *GrantRepo) Unlink(ctx context.Context, groupID, projectID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM group_project_grants WHERE group_id = ? AND project_id = ?",
		groupID, projectID,
	)
	return err
}

func (r *GrantRepo) Exists(ctx context.Context, groupID, projectID string) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM group_project_grants WHERE group_id = ? AND project_id = ?",
		groupID, projectID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GrantRepo) ProjectIDsForGroup(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT project_id FROM group_project_grants WHERE group_id = ?", groupID)
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

func (r *GrantRepo) CountForGroup(ctx context.Context, groupID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM group_project_grants WHERE group_id = ?", groupID,
	).Scan(&n)
	return n, err
}
