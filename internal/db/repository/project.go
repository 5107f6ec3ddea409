package repository

import (
	"context"

	"groupvault/internal/domain"
)

var _ domain.ProjectRepository = (*ProjectRepo)(nil)

// ProjectRepo implements domain.ProjectRepository using SQLite.
type ProjectRepo struct {
	db DBTX
}

// NewProjectRepo creates a new ProjectRepo.
func NewProjectRepo(db DBTX) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	if p.ID == "" {
		p.ID = domain.NewID()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO projects (id, org_id, name, escrow_principal_id) VALUES (?, ?, ?, ?)",
		p.ID, p.OrgID, p.Name, p.EscrowPrincipalID,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, p.ID)
}

func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	err := r.db.QueryRowContext(ctx,
		"SELECT id, org_id, name, COALESCE(escrow_principal_id, ''), created_at FROM projects WHERE id = ?", id,
	).Scan(&p.ID, &p.OrgID, &p.Name, &p.EscrowPrincipalID, &p.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &p, nil
}

func (r *ProjectRepo) SetBot(ctx context.Context, bot *domain.ProjectBot) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO project_bots (project_id, public_key, encrypted_private_key) VALUES (?, ?, ?)",
		bot.ProjectID, bot.PublicKey, bot.EncryptedPrivateKey,
	)
	return mapDBError(err)
}

func (r *ProjectRepo) GetBot(ctx context.Context, projectID string) (*domain.ProjectBot, error) {
	var bot domain.ProjectBot
	err := r.db.QueryRowContext(ctx,
		"SELECT project_id, public_key, encrypted_private_key, created_at FROM project_bots WHERE project_id = ?",
		projectID,
	).Scan(&bot.ProjectID, &bot.PublicKey, &bot.EncryptedPrivateKey, &bot.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &bot, nil
}

func (r *ProjectRepo) AddMember(ctx context.Context, projectID, principalID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO project_memberships (project_id, principal_id) VALUES (?, ?)",
		projectID, principalID,
	)
	return mapDBError(err)
}

func (r *ProjectRepo) RemoveMember(ctx context.Context, projectID, principalID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM project_memberships WHERE project_id = ? AND principal_id = ?",
		projectID, principalID,
	)
	return err
}

func (r *ProjectRepo) HasMember(ctx context.Context, projectID, principalID string) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM project_memberships WHERE project_id = ? AND principal_id = ?",
		projectID, principalID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
