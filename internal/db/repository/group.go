package repository

import (
	"context"

	"groupvault/internal/domain"
)

var _ domain.GroupRepository = (*GroupRepo)(nil)

// GroupRepo implements domain.GroupRepository using SQLite.
type GroupRepo struct {
	db DBTX
}

// NewGroupRepo creates a new GroupRepo.
func NewGroupRepo(db DBTX) *GroupRepo {
	return &GroupRepo{db: db}
}

const groupColumns = "id, org_id, name, slug, created_at"

func (r *GroupRepo) Create(ctx context.Context, g *domain.Group) (*domain.Group, error) {
	if g.ID == "" {
		g.ID = domain.NewID()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO groups (id, org_id, name, slug) VALUES (?, ?, ?, ?)",
		g.ID, g.OrgID, g.Name, g.Slug,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, g.ID)
}

func (r *GroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id = ?", id)
	return scanGroup(row)
}

func (r *GroupRepo) GetBySlug(ctx context.Context, orgID, slug string) (*domain.Group, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE org_id = ? AND slug = ?", orgID, slug)
	return scanGroup(row)
}

func (r *GroupRepo) FindByNames(ctx context.Context, orgID string, names []string) ([]domain.Group, error) {
	if len(names) == 0 {
		return nil, nil
	}
	args := append([]any{orgID}, toAnySlice(names)...)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE org_id = ? AND name IN ("+placeholders(len(names))+")",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.OrgID, &g.Name, &g.Slug, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *GroupRepo) Rename(ctx context.Context, id, name, slug string) (*domain.Group, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE groups SET name = ?, slug = ? WHERE id = ?", name, slug, id)
	if err != nil {
		return nil, mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotFound("group %s not found", id)
	}
	return r.GetByID(ctx, id)
}

func (r *GroupRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", id)
	return err
}

func scanGroup(row interface{ Scan(...any) error }) (*domain.Group, error) {
	var g domain.Group
	err := row.Scan(&g.ID, &g.OrgID, &g.Name, &g.Slug, &g.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &g, nil
}
