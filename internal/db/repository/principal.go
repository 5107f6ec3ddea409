package repository

import (
	"context"

	"groupvault/internal/domain"
)

var _ domain.PrincipalRepository = (*PrincipalRepo)(nil)

// PrincipalRepo implements domain.PrincipalRepository using SQLite.
type PrincipalRepo struct {
	db DBTX
}

// NewPrincipalRepo creates a new PrincipalRepo.
func NewPrincipalRepo(db DBTX) *PrincipalRepo {
	return &PrincipalRepo{db: db}
}

const principalColumns = "id, username, kind, is_activated, public_key, created_at"

func (r *PrincipalRepo) Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	if p.ID == "" {
		p.ID = domain.NewID()
	}
	if p.Kind == "" {
		p.Kind = domain.PrincipalUser
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO principals (id, username, kind, is_activated, public_key)
VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Username, p.Kind, boolToInt(p.Activated), p.PublicKey,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, p.ID)
}

func (r *PrincipalRepo) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+principalColumns+" FROM principals WHERE id = ?", id)
	return scanPrincipal(row)
}

func (r *PrincipalRepo) GetByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+principalColumns+" FROM principals WHERE username = ?", username)
	return scanPrincipal(row)
}

func (r *PrincipalRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Principal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+principalColumns+" FROM principals WHERE id IN ("+placeholders(len(ids))+")",
		toAnySlice(ids)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var principals []domain.Principal
	for rows.Next() {
		var p domain.Principal
		var activated int64
		if err := rows.Scan(&p.ID, &p.Username, &p.Kind, &activated, &p.PublicKey, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Activated = activated != 0
		principals = append(principals, p)
	}
	return principals, rows.Err()
}

func (r *PrincipalRepo) SetActivated(ctx context.Context, id, publicKey string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE principals SET is_activated = 1, public_key = ? WHERE id = ?",
		publicKey, id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound("principal %s not found", id)
	}
	return nil
}

func (r *PrincipalRepo) CreateOrg(ctx context.Context, org *domain.Organization) (*domain.Organization, error) {
	if org.ID == "" {
		org.ID = domain.NewID()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO organizations (id, name, slug) VALUES (?, ?, ?)",
		org.ID, org.Name, org.Slug,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetOrg(ctx, org.ID)
}

func (r *PrincipalRepo) GetOrg(ctx context.Context, id string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, slug, created_at FROM organizations WHERE id = ?", id,
	).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &org, nil
}

func (r *PrincipalRepo) AddToOrg(ctx context.Context, orgID, principalID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO org_memberships (org_id, principal_id) VALUES (?, ?)",
		orgID, principalID,
	)
	return mapDBError(err)
}

func (r *PrincipalRepo) OrgMemberIDs(ctx context.Context, orgID string, principalIDs []string) (map[string]bool, error) {
	if len(principalIDs) == 0 {
		return map[string]bool{}, nil
	}
	args := append([]any{orgID}, toAnySlice(principalIDs)...)
	rows, err := r.db.QueryContext(ctx,
		"SELECT principal_id FROM org_memberships WHERE org_id = ? AND principal_id IN ("+placeholders(len(principalIDs))+")",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make(map[string]bool, len(principalIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members[id] = true
	}
	return members, rows.Err()
}

func scanPrincipal(row interface{ Scan(...any) error }) (*domain.Principal, error) {
	var p domain.Principal
	var activated int64
	err := row.Scan(&p.ID, &p.Username, &p.Kind, &activated, &p.PublicKey, &p.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	p.Activated = activated != 0
	return &p, nil
}
